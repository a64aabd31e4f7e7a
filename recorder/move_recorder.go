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

package recorder

import (
	"fmt"

	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/buf"
	"github.com/zintix-labs/matchlab/spec"
	"github.com/zintix-labs/matchlab/stats"
)

// MoveRecorder 關卡紀錄員
//
// MoveRecorder 負責紀錄移動結果，並透過Done輸出統計報表
type MoveRecorder struct {
	LevelName string
	LevelId   spec.LID
	NumColors int
	Basic     *BasicRecord
	Dist      *DistRecord
	Session   *SessionRecord
}

// BasicRecord 基本移動資料紀錄
type BasicRecord struct {
	Applied       int
	NoOp          int
	Rejected      int
	Rounds        int
	CellsCleared  int
	CellsSqSum    int // 平方和
	JellyCleared  int
	CascadePasses int
	MaxCascade    int
	ColorTotals   []int
}

// DistRecord 消除格數/連鎖深度落點統計
//
// 紀錄時紀錄int資訊
type DistRecord struct {
	Bucket         *stats.ClearBucket
	ClearCollect   []int
	CascadeCollect []int
}

// SessionRecord 會話統計 (一位玩家帶著步數上限打一關)
type SessionRecord struct {
	MoveBudget int
	MovesLeft  int
	MovesUsed  int
	JellyStart int // -1: 第一次紀錄時回填
	JellyLeft  int
	Won        bool
	Exhausted  bool
	Alive      bool
}

func NewMoveRecorder(name string, id spec.LID, numColors int, moveBudget int) (*MoveRecorder, error) {
	s := new(MoveRecorder)

	if numColors < 3 {
		return s, errs.NewFatal(fmt.Sprintf("num colors err %d", numColors))
	}
	if moveBudget < 0 {
		return s, errs.NewFatal(fmt.Sprintf("move budget must not be negative, got: %d", moveBudget))
	}
	// 通過valid
	s.LevelName = name
	s.LevelId = id
	s.NumColors = numColors
	s.Basic = newBasicRecord(numColors)
	s.Dist = newDistRecord()
	s.Session = newSessionRecord(moveBudget)

	return s, nil
}

func MergeMoveRecorder(r []*MoveRecorder) (*MoveRecorder, error) {
	r0 := r[0]
	s, err := NewMoveRecorder(r0.LevelName, r0.LevelId, r0.NumColors, r0.Session.MoveBudget)
	if err != nil {
		return s, err
	}
	for _, v := range r {
		if v.LevelName != r0.LevelName {
			return s, errs.NewFatal("merge move record err : different level name")
		}
		if v.NumColors != r0.NumColors {
			return s, errs.NewFatal("merge move record err : different num colors")
		}
		if v.Session.MoveBudget != r0.Session.MoveBudget {
			return s, errs.NewFatal("merge move record err : different move budget")
		}
		s.Basic.Applied += v.Basic.Applied
		s.Basic.NoOp += v.Basic.NoOp
		s.Basic.Rejected += v.Basic.Rejected
		s.Basic.Rounds += v.Basic.Rounds
		s.Basic.CellsCleared += v.Basic.CellsCleared
		s.Basic.CellsSqSum += v.Basic.CellsSqSum
		s.Basic.JellyCleared += v.Basic.JellyCleared
		s.Basic.CascadePasses += v.Basic.CascadePasses
		if v.Basic.MaxCascade > s.Basic.MaxCascade {
			s.Basic.MaxCascade = v.Basic.MaxCascade
		}
		for i := range v.Basic.ColorTotals {
			s.Basic.ColorTotals[i] += v.Basic.ColorTotals[i]
		}

		// 整合Dist
		for i := range v.Dist.ClearCollect {
			s.Dist.ClearCollect[i] += v.Dist.ClearCollect[i]
		}
		for i := range v.Dist.CascadeCollect {
			s.Dist.CascadeCollect[i] += v.Dist.CascadeCollect[i]
		}
	}
	return s, nil
}

// Record 以單次 MoveResult 更新基本統計（不含會話步數）
func (s *MoveRecorder) Record(mr *buf.MoveResult) {
	s.recordBasic(mr) // Basic
	s.recordDist(mr)  // Dist
}

// RecordWithSession 在 Record 的基礎上，進一步更新會話步數／離場狀態，並回傳會話是否結束。
func (s *MoveRecorder) RecordWithSession(mr *buf.MoveResult) bool {
	if s.Session.MovesLeft <= 0 {
		return true
	}
	s.recordBasic(mr)
	s.recordDist(mr)
	return s.recordSession(mr)
}

func (s *MoveRecorder) Done() *stats.StatReport {
	report := &stats.StatReport{
		Summary: &stats.SummaryReport{
			LevelName:     s.LevelName,
			LevelId:       s.LevelId,
			Rounds:        s.Basic.Rounds,
			Applied:       s.Basic.Applied,
			NoOp:          s.Basic.NoOp,
			Rejected:      s.Basic.Rejected,
			CascadePasses: s.Basic.CascadePasses,
			MaxCascade:    s.Basic.MaxCascade,
			JellyCleared:  s.Basic.JellyCleared,
			ColorTotals:   append([]int(nil), s.Basic.ColorTotals...),
		},
		Clear: &stats.ClearReport{
			CellsCleared: s.Basic.CellsCleared,
			CellsSqSum:   s.Basic.CellsSqSum,
		},
		Dist: &stats.DistReport{
			ClearBucket:    stats.Buckets.ClearBucketStr(),
			ClearCollect:   append([]int(nil), s.Dist.ClearCollect...),
			CascadeBucket:  stats.CascadeBucketStr(),
			CascadeCollect: append([]int(nil), s.Dist.CascadeCollect...),
		},
		Session: &stats.SessionReport{
			MoveBudget: s.Session.MoveBudget,
			MovesUsed:  s.Session.MovesUsed,
			JellyStart: max(s.Session.JellyStart, 0),
			JellyLeft:  s.Session.JellyLeft,
			Won:        s.Session.Won,
			Exhausted:  s.Session.Exhausted,
			Alive:      s.Session.Alive,
		},
	}
	return report
}

func (s *MoveRecorder) recordBasic(mr *buf.MoveResult) {
	b := s.Basic
	switch mr.Outcome {
	case buf.OutcomeApplied:
		b.Applied++
		c := mr.CellsCleared
		b.CellsCleared += c
		b.CellsSqSum += c * c
		b.JellyCleared += mr.JellyCleared
		b.CascadePasses += mr.CascadePasses
		if mr.CascadePasses > b.MaxCascade {
			b.MaxCascade = mr.CascadePasses
		}
		for i, v := range mr.ColorHistogram {
			if i < len(b.ColorTotals) {
				b.ColorTotals[i] += v
			}
		}
	case buf.OutcomeNoOp:
		b.NoOp++
	default:
		b.Rejected++
	}
	b.Rounds++
}

func (s *MoveRecorder) recordDist(mr *buf.MoveResult) {
	d := s.Dist
	d.ClearCollect[d.Bucket.Index(mr.CellsCleared)]++
	if mr.Outcome == buf.OutcomeApplied {
		d.CascadeCollect[stats.CascadeIndex(mr.CascadePasses)]++
	}
}

// recordSession 扣步數並判定會話結局。
//
// Rejected 不扣步數 (輸入非法，玩家沒有真的出手)；NoOp 與 Applied 都算一步。
func (s *MoveRecorder) recordSession(mr *buf.MoveResult) bool {
	p := s.Session
	if mr.Outcome == buf.OutcomeRejected {
		return false
	}

	p.MovesLeft--
	p.MovesUsed++

	if p.JellyStart < 0 {
		p.JellyStart = mr.JellyRemaining + mr.JellyCleared
	}
	p.JellyLeft = mr.JellyRemaining

	// 更新結局
	leave := false
	if p.JellyStart > 0 && mr.JellyRemaining == 0 {
		p.Won = true
		leave = true
	}
	if p.MovesLeft <= 0 && !p.Won {
		p.Exhausted = true
		leave = true
	}
	p.Alive = !(p.Won || p.Exhausted)
	return leave
}

func newBasicRecord(numColors int) *BasicRecord {
	b := new(BasicRecord)
	b.ColorTotals = make([]int, numColors)
	return b
}

func newDistRecord() *DistRecord {
	d := new(DistRecord)
	d.Bucket = stats.Buckets.GetBucket()
	d.ClearCollect = make([]int, len(stats.Buckets.ClearBucketStr()))
	d.CascadeCollect = make([]int, len(stats.CascadeBucketStr()))
	return d
}

func newSessionRecord(moveBudget int) *SessionRecord {

	p := new(SessionRecord)

	p.MoveBudget = moveBudget
	p.MovesLeft = moveBudget
	p.MovesUsed = 0
	p.JellyStart = -1
	p.JellyLeft = 0
	p.Won = false
	p.Exhausted = false
	p.Alive = true

	return p
}
