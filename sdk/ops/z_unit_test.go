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

package ops

import (
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
)

// constSource 固定回傳同一顏色，方便驗證補盤落點。
type constSource struct{ color int8 }

func (s constSource) NextPiece(col int) board.Piece { return board.NormalPiece(s.color) }

func TestGravityCompactsColumns(t *testing.T) {
	b := board.New(3, 3, 5, nil)
	// 佈局 (0 = 空)：
	//  1 . 2
	//  . 3 .
	//  4 . 5
	b.SetPiece(0, board.NormalPiece(1))
	b.SetPiece(2, board.NormalPiece(2))
	b.SetPiece(4, board.NormalPiece(3))
	b.SetPiece(6, board.NormalPiece(4))
	b.SetPiece(8, board.NormalPiece(0))

	fillIdx := make([]int, 3)
	Gravity(b, fillIdx)

	// 每行棋子都應壓到底部，底列全滿
	for c := 0; c < 3; c++ {
		bottom := b.Idx(c, 2)
		if b.PieceAt(bottom).Kind != board.KindNormal {
			t.Fatalf("col %d bottom not filled after gravity", c)
		}
	}
	// 行 0 有兩顆 → 補棋起點應在最上列
	if fillIdx[0] != b.Idx(0, 0) {
		t.Fatalf("unexpected fill idx for col 0: %d", fillIdx[0])
	}
	// 行 1 只有一顆 → 上兩格為空
	if b.PieceAt(b.Idx(1, 0)).Kind != board.KindNone || b.PieceAt(b.Idx(1, 1)).Kind != board.KindNone {
		t.Fatalf("expected empty cells above col 1")
	}
}

func TestGravityFallsThroughHole(t *testing.T) {
	// 行中央有洞，棋子應穿過洞落到底部
	holes := []uint8{
		0,
		1,
		0,
	}
	b := board.New(1, 3, 5, holes)
	b.SetPiece(0, board.NormalPiece(2))

	Gravity(b, nil)

	if b.PieceAt(2).Kind != board.KindNormal || b.PieceAt(2).Color != 2 {
		t.Fatalf("piece did not fall through hole: %+v", b.PieceAt(2))
	}
	if b.PieceAt(0).Kind != board.KindNone {
		t.Fatalf("origin cell should be empty")
	}
}

func TestFillAfterGravity(t *testing.T) {
	b := board.New(3, 3, 5, nil)
	b.SetPiece(b.Idx(0, 2), board.NormalPiece(1))
	b.SetPiece(b.Idx(2, 2), board.NormalPiece(1))

	fillIdx := make([]int, 3)
	Gravity(b, fillIdx)
	Fill(b, constSource{color: 3}, fillIdx)

	for i := 0; i < b.Size(); i++ {
		if b.PieceAt(i).Kind == board.KindNone {
			t.Fatalf("expected full board, empty at %d", i)
		}
	}
}

func TestFillByScanSkipsHoles(t *testing.T) {
	holes := []uint8{
		1, 0,
		0, 1,
	}
	b := board.New(2, 2, 5, holes)

	FillByScan(b, constSource{color: 0})

	if b.PieceAt(0).Kind != board.KindNone || b.PieceAt(3).Kind != board.KindNone {
		t.Fatalf("holes must stay empty")
	}
	if b.PieceAt(1).Kind != board.KindNormal || b.PieceAt(2).Kind != board.KindNormal {
		t.Fatalf("non-hole cells must be filled")
	}
}
