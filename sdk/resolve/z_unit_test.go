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

package resolve

import (
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/match"
)

func detect(t *testing.T, b *board.Board) *match.Groups {
	t.Helper()
	g := new(match.Groups)
	if match.NewDetector().Detect(b, g) == 0 {
		t.Fatalf("expected at least one group")
	}
	return g
}

func TestThreeRunClearsWithoutSpecial(t *testing.T) {
	b := board.New(4, 2, 6, nil)
	for i, c := range []int8{1, 1, 1, 2, 3, 4, 5, 2} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	if st.CellsCleared != 3 {
		t.Fatalf("cells cleared = %d, want 3", st.CellsCleared)
	}
	for i := 0; i < 3; i++ {
		if b.PieceAt(i).Kind != board.KindNone {
			t.Fatalf("cell %d should be empty", i)
		}
	}
	if hist[1] != 3 {
		t.Fatalf("histogram[1] = %d, want 3", hist[1])
	}
}

func TestFourInRowSpawnsRocketH(t *testing.T) {
	b := board.New(4, 2, 6, nil)
	for i, c := range []int8{1, 1, 1, 1, 3, 4, 5, 2} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	// 錨點 (最小索引) 轉換為水平火箭，其餘三格移除
	if got := b.PieceAt(0); got.Kind != board.KindRocketH || got.Color != 1 {
		t.Fatalf("anchor piece = %+v, want RocketH color 1", got)
	}
	if st.CellsCleared != 3 {
		t.Fatalf("cells cleared = %d, want 3 (anchor converted)", st.CellsCleared)
	}
	// 錨點顏色仍視為被消耗
	if hist[1] != 4 {
		t.Fatalf("histogram[1] = %d, want 4", hist[1])
	}
}

func TestFourInColumnSpawnsRocketV(t *testing.T) {
	b := board.New(2, 4, 6, nil)
	for i, c := range []int8{
		2, 3,
		2, 4,
		2, 5,
		2, 3,
	} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	ApplyGroups(b, detect(t, b), hist)

	if got := b.PieceAt(0); got.Kind != board.KindRocketV || got.Color != 2 {
		t.Fatalf("anchor piece = %+v, want RocketV color 2", got)
	}
}

func TestSquareFourSpawnsNothing(t *testing.T) {
	// 2x2 四連：共 4 顆但不共線，不生成特殊棋
	b := board.New(3, 3, 6, nil)
	for i, c := range []int8{
		1, 1, 2,
		1, 1, 3,
		4, 5, 2,
	} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	if st.CellsCleared != 4 {
		t.Fatalf("cells cleared = %d, want 4", st.CellsCleared)
	}
	for _, idx := range []int{0, 1, 3, 4} {
		if b.PieceAt(idx).Kind != board.KindNone {
			t.Fatalf("cell %d should be empty", idx)
		}
	}
}

func TestFiveLineSpawnsColorBomb(t *testing.T) {
	b := board.New(5, 2, 6, nil)
	for i, c := range []int8{
		3, 3, 3, 3, 3,
		1, 2, 4, 1, 2,
	} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	if got := b.PieceAt(0); got.Kind != board.KindColorBomb || got.Color != board.NoColor {
		t.Fatalf("anchor piece = %+v, want colorless ColorBomb", got)
	}
	if st.CellsCleared != 4 {
		t.Fatalf("cells cleared = %d, want 4 (anchor converted)", st.CellsCleared)
	}
	if hist[3] != 5 {
		t.Fatalf("histogram[3] = %d, want 5", hist[3])
	}
}

func TestLShapeFiveSpawnsBomb(t *testing.T) {
	b := board.New(3, 3, 6, nil)
	for i, c := range []int8{
		1, 2, 3,
		1, 4, 5,
		1, 1, 1,
	} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	hist := make([]int, 6)

	ApplyGroups(b, detect(t, b), hist)

	if got := b.PieceAt(0); got.Kind != board.KindBomb || got.Color != 1 {
		t.Fatalf("anchor piece = %+v, want Bomb color 1", got)
	}
}

func TestBlockerAbsorbsClearHit(t *testing.T) {
	b := board.New(4, 2, 6, nil)
	for i, c := range []int8{1, 1, 1, 2, 3, 4, 5, 2} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	// 格 1 有單層冰：hit 被吸收，棋子保留
	b.SetIce(1, 1)
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	if st.CellsCleared != 2 {
		t.Fatalf("cells cleared = %d, want 2", st.CellsCleared)
	}
	if b.PieceAt(1).Kind != board.KindNormal {
		t.Fatalf("iced piece must survive the hit")
	}
	if b.IceAt(1) != 0 {
		t.Fatalf("ice should take the damage")
	}
	// 被攔截的格子不計入顏色消耗
	if hist[1] != 2 {
		t.Fatalf("histogram[1] = %d, want 2", hist[1])
	}
}

func TestJellyDecrementsUnderSpawnedSpecial(t *testing.T) {
	b := board.New(4, 2, 6, nil)
	for i, c := range []int8{1, 1, 1, 1, 3, 4, 5, 2} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	b.SetJelly(0, 2)
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	// 錨點棋子被轉換而非移除，但果凍照樣削減一層
	if got := b.PieceAt(0); got.Kind != board.KindRocketH {
		t.Fatalf("anchor piece = %+v, want RocketH", got)
	}
	if st.JellyCleared != 1 {
		t.Fatalf("jelly cleared = %d, want 1", st.JellyCleared)
	}
	if b.JellyAt(0) != 1 {
		t.Fatalf("jelly at 0 = %d, want 1", b.JellyAt(0))
	}
}

func TestJellyClearedUnderGroup(t *testing.T) {
	b := board.New(4, 2, 6, nil)
	for i, c := range []int8{1, 1, 1, 2, 3, 4, 5, 2} {
		b.SetPiece(i, board.NormalPiece(c))
	}
	b.SetJelly(0, 2)
	b.SetJelly(2, 1)
	hist := make([]int, 6)

	st := ApplyGroups(b, detect(t, b), hist)

	if st.JellyCleared != 2 {
		t.Fatalf("jelly cleared = %d, want 2 (one layer per touched cell)", st.JellyCleared)
	}
	if b.JellyAt(0) != 1 {
		t.Fatalf("jelly at 0 = %d, want 1", b.JellyAt(0))
	}
}
