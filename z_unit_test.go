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

package matchlab

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/zintix-labs/matchlab/dto"
	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/buf"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/sdk/match"
	"github.com/zintix-labs/matchlab/spec"
)

const testLevelYAML = `
level_name: t_classic
level_id: 100
board_setting:
  columns: 8
  rows: 8
  num_colors: 5
`

func testLevelSetting(t *testing.T, yaml string) *spec.LevelSetting {
	t.Helper()
	ls, err := spec.GetLevelSettingByYAML([]byte(yaml))
	if err != nil {
		t.Fatalf("parse level yaml: %v", err)
	}
	return ls
}

func testEngine(t *testing.T, seed int64) *Engine {
	t.Helper()
	e, err := newEngineWithSeed(testLevelSetting(t, testLevelYAML), core.Default(), seed, true)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	return e
}

// paintBoard 以固定顏色矩陣覆寫盤面，建立可重現的測試局面。
func paintBoard(t *testing.T, b *board.Board, colors []int8) {
	t.Helper()
	if len(colors) != b.Size() {
		t.Fatalf("paint size mismatch")
	}
	for i, c := range colors {
		b.SetPiece(i, board.NormalPiece(c))
	}
}

func TestEngineConstructionIsStable(t *testing.T) {
	e := testEngine(t, 42)
	b := e.Board()

	// 建構完成後不得殘留任何連線
	if match.NewDetector().HasMatches(b) {
		t.Fatalf("fresh board must not contain matches")
	}
	// 非洞格必須全部鋪滿普通棋子
	for i := 0; i < b.Size(); i++ {
		if b.PieceAt(i).Kind != board.KindNormal {
			t.Fatalf("cell %d not filled: %+v", i, b.PieceAt(i))
		}
	}
}

func TestEngineDeterminism(t *testing.T) {
	a := testEngine(t, 42)
	b := testEngine(t, 42)

	if !a.Board().Equal(b.Board()) {
		t.Fatalf("same seed must build identical boards")
	}
	// 同 seed 的隨機移動序列也要一致
	for i := 0; i < 50; i++ {
		ra := a.MoveInternal()
		oa, ca := ra.Outcome, ra.CellsCleared
		rb := b.MoveInternal()
		if oa != rb.Outcome || ca != rb.CellsCleared {
			t.Fatalf("move %d diverged: (%v,%d) vs (%v,%d)", i, oa, ca, rb.Outcome, rb.CellsCleared)
		}
	}
	if !a.Board().Equal(b.Board()) {
		t.Fatalf("boards diverged after identical move sequences")
	}
}

func TestTrySwapRejected(t *testing.T) {
	e := testEngine(t, 7)

	cases := []struct {
		name                           string
		fromCol, fromRow, toCol, toRow int
	}{
		{"out of bounds", -1, 0, 0, 0},
		{"same cell", 2, 2, 2, 2},
		{"not adjacent", 0, 0, 2, 0},
		{"diagonal", 0, 0, 1, 1},
	}
	for _, tc := range cases {
		snap := e.Board().SnapshotPieces(nil)
		mr := e.TrySwap(tc.fromCol, tc.fromRow, tc.toCol, tc.toRow)
		if mr.Outcome != buf.OutcomeRejected {
			t.Fatalf("%s: outcome = %v, want rejected", tc.name, mr.Outcome)
		}
		after := e.Board().SnapshotPieces(nil)
		for i := range snap {
			if snap[i] != after[i] {
				t.Fatalf("%s: board mutated on rejected move", tc.name)
			}
		}
	}
}

func TestTrySwapRejectedOnLocked(t *testing.T) {
	e := testEngine(t, 7)
	e.Board().SetLocked(e.Board().Idx(0, 0), true)

	if mr := e.TrySwap(0, 0, 1, 0); mr.Outcome != buf.OutcomeRejected {
		t.Fatalf("swap on locked cell = %v, want rejected", mr.Outcome)
	}
}

func TestTrySwapNoOpReverts(t *testing.T) {
	ls := testLevelSetting(t, `
level_name: t_small
level_id: 101
board_setting:
  columns: 4
  rows: 4
  num_colors: 6
`)
	e, err := newEngineWithSeed(ls, core.Default(), 1, true)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	// 棋盤格紋排列：任何單次交換都不可能成局
	paintBoard(t, e.Board(), []int8{
		0, 1, 0, 1,
		2, 3, 2, 3,
		0, 1, 0, 1,
		2, 3, 2, 3,
	})
	snap := e.Board().SnapshotPieces(nil)

	mr := e.TrySwap(0, 0, 1, 0)
	if mr.Outcome != buf.OutcomeNoOp {
		t.Fatalf("outcome = %v, want no_op", mr.Outcome)
	}
	after := e.Board().SnapshotPieces(nil)
	for i := range snap {
		if snap[i] != after[i] {
			t.Fatalf("no_op move must revert the swap")
		}
	}
}

func TestTrySwapApplied(t *testing.T) {
	ls := testLevelSetting(t, `
level_name: t_small
level_id: 101
board_setting:
  columns: 4
  rows: 4
  num_colors: 6
`)
	e, err := newEngineWithSeed(ls, core.Default(), 1, true)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	// (1,1) 與 (1,0) 交換後第一列成為 1 1 1 3
	paintBoard(t, e.Board(), []int8{
		1, 0, 1, 3,
		0, 1, 2, 2,
		3, 4, 3, 4,
		4, 5, 0, 5,
	})

	mr := e.TrySwap(1, 1, 1, 0)
	if mr.Outcome != buf.OutcomeApplied {
		t.Fatalf("outcome = %v, want applied", mr.Outcome)
	}
	if mr.CellsCleared < 3 || mr.CascadePasses < 1 {
		t.Fatalf("cells=%d passes=%d, want >=3 and >=1", mr.CellsCleared, mr.CascadePasses)
	}
	// 結算完畢後盤面必須回到穩定狀態
	if match.NewDetector().HasMatches(e.Board()) {
		t.Fatalf("board must be stable after resolve")
	}
	for i := 0; i < e.Board().Size(); i++ {
		if e.Board().PieceAt(i).Kind == board.KindNone {
			t.Fatalf("board must be refilled after resolve")
		}
	}
}

func TestSwapValidatesLevel(t *testing.T) {
	e := testEngine(t, 9)

	_, err := e.Swap(&dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 999,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
	})
	if err == nil {
		t.Fatalf("mismatched lid must be rejected")
	}
	_, err = e.Swap(&dto.SwapRequest{
		UID: "u1", LevelName: "other", LevelId: 100,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
	})
	if err == nil {
		t.Fatalf("mismatched level name must be rejected")
	}
}

func TestSwapReturnsSnapshots(t *testing.T) {
	e := testEngine(t, 11)

	res, err := e.Swap(&dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 100,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
	})
	if err != nil {
		t.Fatalf("swap: %v", err)
	}
	if res.State.StartCoreSnapB64U == "" || res.State.AfterCoreSnapB64U == "" {
		t.Fatalf("swap result must carry core snapshots")
	}
}

func TestSwapResumesFromStartState(t *testing.T) {
	e := testEngine(t, 13)

	// 第一次移動，拿到移動前的 RNG 快照
	first, err := e.Swap(&dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 100,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
	})
	if err != nil {
		t.Fatalf("first swap: %v", err)
	}

	// 帶 StartState 重新執行：回傳的 start 快照必須等於帶入值
	replay, err := e.Swap(&dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 100,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
		StartState: &dto.StartState{StartCoreSnapB64U: first.State.StartCoreSnapB64U},
	})
	if err != nil {
		t.Fatalf("replay swap: %v", err)
	}
	if replay.State.StartCoreSnapB64U != first.State.StartCoreSnapB64U {
		t.Fatalf("replay must echo the provided start snapshot")
	}
}

func TestSeedMaker(t *testing.T) {
	a := newSeedMaker(5)
	b := newSeedMaker(5)

	seen := make(map[int64]bool)
	for i := 0; i < 1000; i++ {
		va := a.next()
		if va != b.next() {
			t.Fatalf("seed stream diverged at %d", i)
		}
		if va < 0 {
			t.Fatalf("seed must be non-negative, got %d", va)
		}
		if seen[va] {
			t.Fatalf("seed repeated at %d", i)
		}
		seen[va] = true
	}
}

func TestEnginePoolSwap(t *testing.T) {
	ls := testLevelSetting(t, testLevelYAML)
	p, err := newEnginePool(2, ls, core.Default(), 17)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	defer p.Close()

	if p.PoolSize() != 2 || p.Available() != 2 {
		t.Fatalf("pool size=%d avail=%d, want 2/2", p.PoolSize(), p.Available())
	}

	res, err := p.Swap(context.Background(), &dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 100,
		FromCol: 0, FromRow: 0, ToCol: 1, ToRow: 0,
	})
	if err != nil {
		t.Fatalf("pool swap: %v", err)
	}
	if res.Outcome == "" {
		t.Fatalf("empty outcome in pool swap result")
	}
	// 有借有還
	if p.Available() != 2 {
		t.Fatalf("engine not returned to pool, avail=%d", p.Available())
	}
}

func TestEnginePoolClosed(t *testing.T) {
	ls := testLevelSetting(t, testLevelYAML)
	p, err := newEnginePool(1, ls, core.Default(), 19)
	if err != nil {
		t.Fatalf("new pool: %v", err)
	}
	p.Close()

	if !p.Closed() {
		t.Fatalf("pool should report closed")
	}
	if _, err := p.Swap(context.Background(), &dto.SwapRequest{
		UID: "u1", LevelName: "t_classic", LevelId: 100,
	}); err == nil {
		t.Fatalf("swap on closed pool must fail")
	}
}

func testMatchlab(t *testing.T) *Matchlab {
	t.Helper()
	cfg := fstest.MapFS{
		"t_classic.yaml": &fstest.MapFile{Data: []byte(testLevelYAML)},
	}
	lab, err := NewAuto(core.Default(), Configs(cfg))
	if err != nil {
		t.Fatalf("new matchlab: %v", err)
	}
	return lab
}

func TestMatchlabRegisterAndBuild(t *testing.T) {
	lab := testMatchlab(t)

	ent, ok := lab.EntryById(100)
	if !ok || ent.Name != "t_classic" {
		t.Fatalf("entry lookup failed: %+v ok=%v", ent, ok)
	}
	sum, err := lab.Summary()
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(sum) != 1 || sum[0].Columns != 8 || sum[0].NumColors != 5 {
		t.Fatalf("unexpected summary: %+v", sum)
	}

	e, err := lab.NewEngineWithSeed(100, 23, true)
	if err != nil {
		t.Fatalf("new engine: %v", err)
	}
	if e.InitSeed() != 23 {
		t.Fatalf("init seed = %d, want 23", e.InitSeed())
	}
}

func TestMatchlabDuplicateLevels(t *testing.T) {
	cfg := fstest.MapFS{
		"a.yaml": &fstest.MapFile{Data: []byte(testLevelYAML)},
		"b.yaml": &fstest.MapFile{Data: []byte(testLevelYAML)},
	}
	if _, err := NewAuto(core.Default(), Configs(cfg)); err == nil {
		t.Fatalf("duplicate lid must fail registration")
	}
}

func TestSimulatorSim(t *testing.T) {
	lab := testMatchlab(t)
	sim, err := lab.NewSimulatorWithSeed(100, 29)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	st, _, err := sim.Sim(500, false)
	if err != nil {
		t.Fatalf("sim: %v", err)
	}
	if st.Summary.Rounds != 500 {
		t.Fatalf("rounds = %d, want 500", st.Summary.Rounds)
	}
	if st.Summary.Applied+st.Summary.NoOp+st.Summary.Rejected != 500 {
		t.Fatalf("outcome counts must sum to rounds")
	}
	// 8x8 五色隨機移動，500 步內必然出現至少一次成局
	if st.Summary.Applied == 0 {
		t.Fatalf("expected at least one applied move")
	}
}

func TestSimulatorDeterminism(t *testing.T) {
	lab := testMatchlab(t)

	run := func() int {
		sim, err := lab.NewSimulatorWithSeed(100, 31)
		if err != nil {
			t.Fatalf("new simulator: %v", err)
		}
		st, _, err := sim.Sim(200, false)
		if err != nil {
			t.Fatalf("sim: %v", err)
		}
		return st.Clear.CellsCleared
	}
	if run() != run() {
		t.Fatalf("same seed must yield identical statistics")
	}
}

func TestSimulatorSessions(t *testing.T) {
	lab := testMatchlab(t)
	sim, err := lab.NewSimulatorWithSeed(100, 37)
	if err != nil {
		t.Fatalf("new simulator: %v", err)
	}
	st, est, _, err := sim.SimSessions(2, 20, 10, false)
	if err != nil {
		t.Fatalf("sim sessions: %v", err)
	}
	if st.Summary.Applied+st.Summary.NoOp == 0 {
		t.Fatalf("sessions produced no legal moves")
	}
	if est == nil {
		t.Fatalf("estimator missing")
	}
}

func TestDevSimulatorMoves(t *testing.T) {
	lab := testMatchlab(t)
	sim, err := lab.NewDevSimulator(100, 41)
	if err != nil {
		t.Fatalf("new dev simulator: %v", err)
	}
	report, err := sim.Moves(10)
	if err != nil {
		t.Fatalf("moves: %v", err)
	}
	if report.Round != 10 || len(report.Results) != 10 {
		t.Fatalf("round=%d results=%d, want 10/10", report.Round, len(report.Results))
	}
	if report.Applied+report.NoOp+report.Rejected != 10 {
		t.Fatalf("outcome counts must sum to rounds")
	}
	if report.Before == "" || report.After == "" {
		t.Fatalf("report must carry before/after snapshots")
	}
}

func TestDevSimulatorRestoreMoves(t *testing.T) {
	lab := testMatchlab(t)
	sim, err := lab.NewDevSimulator(100, 43)
	if err != nil {
		t.Fatalf("new dev simulator: %v", err)
	}
	first, err := sim.Moves(5)
	if err != nil {
		t.Fatalf("moves: %v", err)
	}
	// 以第一次的起點快照重放，起點必須一致
	replay, err := sim.RestoreMoves(first.Before, 5)
	if err != nil {
		t.Fatalf("restore moves: %v", err)
	}
	if replay.Before != first.Before {
		t.Fatalf("replay start snapshot mismatch")
	}
}
