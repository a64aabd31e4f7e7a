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

package buf

import (
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/spec"
)

func testLevelSetting() *spec.LevelSetting {
	return &spec.LevelSetting{
		LevelName: "demo",
		LevelID:   7,
		Board: spec.BoardSetting{
			Columns:    3,
			Rows:       2,
			NumColors:  3,
			ScreenSize: 6,
		},
	}
}

func TestMoveResultAddPassReset(t *testing.T) {
	mr := NewMoveResult(testLevelSetting())
	if mr.LevelName != "demo" || mr.LevelID != 7 {
		t.Fatalf("unexpected move result metadata: %+v", mr)
	}
	if len(mr.ColorHistogram) != 3 {
		t.Fatalf("histogram length mismatch: %d", len(mr.ColorHistogram))
	}

	snap := make([]board.Piece, 6)
	snap[0] = board.NormalPiece(2)

	mr.AddPass(4, 1, snap)
	mr.AddPass(3, 0, nil)

	if mr.CascadePasses != 2 {
		t.Fatalf("expected 2 passes, got %d", mr.CascadePasses)
	}
	if mr.CellsCleared != 7 || mr.JellyCleared != 1 {
		t.Fatalf("unexpected totals: cells=%d jelly=%d", mr.CellsCleared, mr.JellyCleared)
	}
	if got := mr.ViewPass(0); got == nil || got[0] != board.NormalPiece(2) {
		t.Fatalf("pass 0 snapshot missing or wrong")
	}
	if got := mr.ViewPass(1); got != nil {
		t.Fatalf("pass 1 should have no snapshot")
	}
	if got := mr.View(); got == nil || got[0] != board.NormalPiece(2) {
		t.Fatalf("View should fall back to last snapshotted pass")
	}

	mr.ColorHistogram[2] += 7
	mr.Reset()
	if mr.CascadePasses != 0 || mr.CellsCleared != 0 || len(mr.PassResults) != 0 || len(mr.Screens) != 0 {
		t.Fatalf("reset did not clear accumulators: %+v", mr)
	}
	for c, v := range mr.ColorHistogram {
		if v != 0 {
			t.Fatalf("histogram not cleared at color %d", c)
		}
	}
	if mr.Outcome != OutcomeRejected {
		t.Fatalf("reset should restore rejected outcome")
	}
}

func TestMoveResultScreenSizeGuard(t *testing.T) {
	mr := NewMoveResult(testLevelSetting())
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on wrong snapshot size")
		}
	}()
	mr.AddPass(1, 0, make([]board.Piece, 5))
}

func TestStartStateHasPayload(t *testing.T) {
	var ss *StartState
	if ss.HasPayload() {
		t.Fatalf("nil start state must not have payload")
	}
	if (&StartState{}).HasPayload() {
		t.Fatalf("empty start state must not have payload")
	}
	if !(&StartState{StartCoreSnap: []byte{1}}).HasPayload() {
		t.Fatalf("snapshot-bearing start state must have payload")
	}
}
