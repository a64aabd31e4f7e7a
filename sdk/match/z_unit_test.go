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

package match

import (
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
)

// fillBoard 以顏色矩陣鋪盤，-1 表示留空。
func fillBoard(t *testing.T, cols, rows int, colors []int8) *board.Board {
	t.Helper()
	b := board.New(cols, rows, 6, nil)
	for i, c := range colors {
		if c >= 0 {
			b.SetPiece(i, board.NormalPiece(c))
		}
	}
	return b
}

func TestDetectHorizontalRun(t *testing.T) {
	b := fillBoard(t, 4, 2, []int8{
		1, 1, 1, 2,
		3, 4, 5, 2,
	})
	d := NewDetector()
	g := new(Groups)

	if got := d.Detect(b, g); got != 1 {
		t.Fatalf("group count = %d, want 1", got)
	}
	members := g.Group(0)
	if len(members) != 3 {
		t.Fatalf("group size = %d, want 3", len(members))
	}
	// 錨點為群內最小扁平索引
	if members[0] != 0 {
		t.Fatalf("anchor = %d, want 0", members[0])
	}
}

func TestDetectIgnoresPairs(t *testing.T) {
	b := fillBoard(t, 3, 3, []int8{
		1, 1, 2,
		2, 3, 3,
		4, 5, 4,
	})
	d := NewDetector()
	g := new(Groups)

	if got := d.Detect(b, g); got != 0 {
		t.Fatalf("group count = %d, want 0", got)
	}
	if d.HasMatches(b) {
		t.Fatalf("HasMatches should be false")
	}
}

func TestDetectLShape(t *testing.T) {
	// L 形五連：flood-fill 應整團輸出為單一群
	b := fillBoard(t, 3, 3, []int8{
		1, 2, 3,
		1, 4, 5,
		1, 1, 1,
	})
	d := NewDetector()
	g := new(Groups)

	if got := d.Detect(b, g); got != 1 {
		t.Fatalf("group count = %d, want 1", got)
	}
	if len(g.Group(0)) != 5 {
		t.Fatalf("group size = %d, want 5", len(g.Group(0)))
	}
}

func TestDetectMultipleGroups(t *testing.T) {
	b := fillBoard(t, 3, 4, []int8{
		1, 1, 1,
		4, 5, 4,
		5, 4, 5,
		2, 2, 2,
	})
	d := NewDetector()
	g := new(Groups)

	if got := d.Detect(b, g); got != 2 {
		t.Fatalf("group count = %d, want 2", got)
	}
}

func TestSpecialPiecesAreBoundaries(t *testing.T) {
	b := fillBoard(t, 3, 1, []int8{1, -1, 1})
	// 中間放一顆同色火箭；特殊棋子不得參與顏色連線
	b.SetPiece(1, board.Piece{Kind: board.KindRocketH, Color: 1})

	d := NewDetector()
	if d.HasMatches(b) {
		t.Fatalf("special piece must not join color runs")
	}
}

func TestDetectSplitByHole(t *testing.T) {
	// 同色三格被洞隔開，不得視為一群
	holes := []uint8{0, 1, 0, 0}
	b := board.New(4, 1, 6, holes)
	b.SetPiece(0, board.NormalPiece(1))
	b.SetPiece(2, board.NormalPiece(1))
	b.SetPiece(3, board.NormalPiece(1))

	d := NewDetector()
	g := new(Groups)
	if got := d.Detect(b, g); got != 0 {
		t.Fatalf("group count = %d, want 0 (split by hole)", got)
	}
}

func TestGroupsReuse(t *testing.T) {
	g := AcquireGroups()
	defer ReleaseGroups(g)

	b := fillBoard(t, 3, 1, []int8{1, 1, 1})
	d := NewDetector()
	if got := d.Detect(b, g); got != 1 {
		t.Fatalf("group count = %d, want 1", got)
	}
	g.Reset()
	if g.Count() != 0 {
		t.Fatalf("reset should clear groups")
	}
}
