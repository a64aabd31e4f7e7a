// Copyright 2025 Zintix Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package stats_test

import (
	"math"
	"testing"

	"github.com/zintix-labs/matchlab/spec"
	"github.com/zintix-labs/matchlab/stats"
)

// buildStatReport constructs a StatReport from a list of per-move cleared
// cell counts. Every entry is treated as an applied move with one cascade
// pass to simplify assertions.
func buildStatReport(clears []int) *stats.StatReport {
	L := len(stats.Buckets.ClearBucketStr())
	bucket := stats.Buckets.GetBucket()
	cc := make([]int, L)
	casc := make([]int, len(stats.CascadeBucketStr()))

	var totalCells, cellsSq int
	for _, c := range clears {
		cc[bucket.Index(c)]++
		casc[stats.CascadeIndex(1)]++
		totalCells += c
		cellsSq += c * c
	}

	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			LevelName:     "testlevel",
			LevelId:       spec.LID(0),
			Rounds:        len(clears),
			Applied:       len(clears),
			CascadePasses: len(clears),
			MaxCascade:    1,
			ColorTotals:   make([]int, 5),
		},
		Clear: &stats.ClearReport{
			CellsCleared: totalCells,
			CellsSqSum:   cellsSq,
		},
		Dist: &stats.DistReport{
			ClearBucket:    stats.Buckets.ClearBucketStr(),
			ClearCollect:   cc,
			CascadeBucket:  stats.CascadeBucketStr(),
			CascadeCollect: casc,
		},
		Session: &stats.SessionReport{},
	}
	report.Done()
	return report
}

func TestStatReportCoreMetrics(t *testing.T) {
	rep := buildStatReport([]int{3, 5})

	wantAvg := 4.0
	if got := rep.AvgCells(); math.Abs(got-wantAvg) > 1e-12 {
		t.Fatalf("AvgCells got %.12f want %.12f", got, wantAvg)
	}

	// variance of {3,5} with n-1 denominator = 2
	wantStd := math.Sqrt(2)
	if got := rep.Std(); math.Abs(got-wantStd) > 1e-12 {
		t.Fatalf("Std got %.12f want %.12f", got, wantStd)
	}

	wantCV := wantStd / wantAvg
	if got := rep.Cv(); math.Abs(got-wantCV) > 1e-12 {
		t.Fatalf("CV got %.12f want %.12f", got, wantCV)
	}

	if rep.Summary.MatchRate != 1.0 {
		t.Fatalf("all-applied report must have match rate 1, got %.3f", rep.Summary.MatchRate)
	}
	if rep.Summary.MatchRateCI.Hi != 1.0 {
		t.Fatalf("CI upper bound for k=n must be 1, got %.3f", rep.Summary.MatchRateCI.Hi)
	}

	// Distribution lengths and sums
	if len(rep.Dist.ClearCollect) != len(rep.Dist.ClearBucket) {
		t.Fatalf("clear buckets length mismatch")
	}
	totalRounds := 0
	for _, c := range rep.Dist.ClearCollect {
		totalRounds += c
	}
	if totalRounds != rep.Summary.Rounds {
		t.Fatalf("distribution total %d != rounds %d", totalRounds, rep.Summary.Rounds)
	}

	rep.Done() // idempotent
	if rep.AvgCells() != wantAvg {
		t.Fatalf("AvgCells changed after second Done")
	}
}

func TestClearBucketIndex(t *testing.T) {
	b := stats.Buckets.GetBucket()
	cases := []struct{ cells, idx int }{
		{0, 0},
		{1, 1},
		{2, 1},
		{3, 2},
		{4, 3},
		{6, 4},
		{9, 5},
		{14, 6},
		{24, 7},
		{49, 8},
		{199, 9},
		{200, 10},
		{999, 10},
		{1000, 11},
	}
	for _, c := range cases {
		if got := b.Index(c.cells); got != c.idx {
			t.Fatalf("Index(%d) got %d want %d", c.cells, got, c.idx)
		}
	}
	if got := len(stats.Buckets.ClearBucketStr()); got != 12 {
		t.Fatalf("bucket labels length got %d want 12", got)
	}
}

func TestEstimatorSessions(t *testing.T) {
	// 10 sessions: 3 won, 5 exhausted, 2 alive
	sessions := make([]*stats.StatReport, 10)
	for i := 0; i < 10; i++ {
		r := buildStatReport([]int{3})
		r.Session.MovesUsed = i + 1
		switch {
		case i < 3:
			r.Session.Won = true
		case i < 8:
			r.Session.Exhausted = true
		}
		sessions[i] = r
	}
	est := stats.EstimatorSessionExp(sessions)
	if est.SessionStat.Won.Hat != 0.3 {
		t.Fatalf("Won rate got %.2f want 0.30", est.SessionStat.Won.Hat)
	}
	if est.SessionStat.Exhausted.Hat != 0.5 {
		t.Fatalf("Exhausted rate got %.2f want 0.50", est.SessionStat.Exhausted.Hat)
	}
	if est.MoveStat.UsedMedian.Hat < 1 || est.MoveStat.UsedMedian.Hat > 10 {
		t.Fatalf("median moves out of range: %.1f", est.MoveStat.UsedMedian.Hat)
	}
	if est.SessionStat.Won.CI.Lo < 0 || est.SessionStat.Won.CI.Hi > 1 {
		t.Fatalf("CI out of [0,1]: %+v", est.SessionStat.Won.CI)
	}
}
