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

package optimizer

import (
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/matchlab"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/spec"
)

const tuneLevelJSON = `{
	"level_name": "t_tune",
	"level_id": 500,
	"board_setting": {"columns": 6, "rows": 6, "num_colors": 4}
}`

func testLab(t *testing.T) *matchlab.Matchlab {
	t.Helper()
	cfg := fstest.MapFS{
		"t_tune.json": &fstest.MapFile{Data: []byte(tuneLevelJSON)},
	}
	lab, err := matchlab.NewAuto(core.Default(), matchlab.Configs(cfg))
	if err != nil {
		t.Fatalf("new matchlab: %v", err)
	}
	return lab
}

func TestNewValidation(t *testing.T) {
	lab := testLab(t)

	if _, err := New(nil, []byte(tuneLevelJSON), Target{MatchRate: 0.3}, Config{}); err == nil {
		t.Fatalf("nil lab must fail")
	}
	if _, err := New(lab, []byte("{"), Target{MatchRate: 0.3}, Config{}); err == nil {
		t.Fatalf("broken json must fail")
	}
	if _, err := New(lab, []byte(tuneLevelJSON), Target{}, Config{}); err == nil {
		t.Fatalf("empty target must fail")
	}
}

func TestRawWithForcesWeightedGen(t *testing.T) {
	lab := testLab(t)
	tn, err := New(lab, []byte(tuneLevelJSON), Target{MatchRate: 0.3}, Config{Rounds: 100})
	if err != nil {
		t.Fatalf("new tuner: %v", err)
	}
	raw, err := tn.rawWith([]int{4, 3, 2, 1})
	if err != nil {
		t.Fatalf("raw with: %v", err)
	}
	ls, err := spec.GetLevelSettingByJSON(raw)
	if err != nil {
		t.Fatalf("round trip: %v", err)
	}
	if ls.Generator.ColorGenType != spec.ColorGenByWeightLUT {
		t.Fatalf("gen type = %v, want LUT", ls.Generator.ColorGenType)
	}
	if ls.Generator.ColorWeights[0] != 4 || ls.Generator.ColorWeights[3] != 1 {
		t.Fatalf("weights not applied: %v", ls.Generator.ColorWeights)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	lab := testLab(t)

	run := func() Trial {
		tn, err := New(lab, []byte(tuneLevelJSON), Target{MatchRate: 0.5, Tolerance: 0.01},
			Config{Rounds: 2000, Seed: 42, MaxIters: 2, MaxWeight: 8})
		if err != nil {
			t.Fatalf("new tuner: %v", err)
		}
		result, err := tn.Run()
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return result.Best
	}

	a, b := run(), run()
	if a.Score != b.Score || a.MatchRate != b.MatchRate {
		t.Fatalf("same seed must converge identically: %+v vs %+v", a, b)
	}
}
