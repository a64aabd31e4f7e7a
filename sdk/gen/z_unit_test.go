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

package gen

import (
	"testing"

	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/spec"
)

func testBoardSetting(cols, rows, numColors int) *spec.BoardSetting {
	return &spec.BoardSetting{
		Columns:   cols,
		Rows:      rows,
		NumColors: numColors,
	}
}

// TestPieceGenDeterminism 相同 seed 下兩個生成器的棋子序列必須一致
func TestPieceGenDeterminism(t *testing.T) {
	newGen := func() *PieceGen {
		c := core.New(core.Default().New(42))
		return NewPieceGen(c, testBoardSetting(8, 8, 5), &spec.GeneratorSetting{})
	}
	g1, g2 := newGen(), newGen()
	for i := 0; i < 256; i++ {
		p1 := g1.NextPiece(i % 8)
		p2 := g2.NextPiece(i % 8)
		if p1 != p2 {
			t.Fatalf("piece mismatch at %d: %v vs %v", i, p1, p2)
		}
		if p1.Kind != board.KindNormal {
			t.Fatalf("generator must only produce normal pieces, got %v", p1.Kind)
		}
		if p1.Color < 0 || p1.Color >= 5 {
			t.Fatalf("color out of range: %d", p1.Color)
		}
	}
}

// TestPieceGenWeightedLUT 權重為 0 的顏色不可被抽出
func TestPieceGenWeightedLUT(t *testing.T) {
	c := core.New(core.Default().New(7))
	gs := &spec.GeneratorSetting{
		ColorGenTypeStr: "ColorGenByWeightLUT",
		ColorWeights:    []int{1, 0, 3},
	}
	g := NewPieceGen(c, testBoardSetting(4, 4, 3), gs)

	counts := make([]int, 3)
	for i := 0; i < 4000; i++ {
		counts[g.PickColor()]++
	}
	if counts[1] != 0 {
		t.Fatalf("zero-weight color drawn %d times", counts[1])
	}
	if counts[0] == 0 || counts[2] == 0 {
		t.Fatalf("positive-weight colors never drawn: %v", counts)
	}
	// 權重 1:3，粗略檢查比例
	if counts[2] < counts[0] {
		t.Fatalf("expected color 2 to dominate, got %v", counts)
	}
}

// TestPieceGenAlias AliasTable 路徑也要可用且分佈合理
func TestPieceGenAlias(t *testing.T) {
	c := core.New(core.Default().New(9))
	gs := &spec.GeneratorSetting{
		ColorGenTypeStr: "ColorGenByWeightAlias",
		ColorWeights:    []int{5, 5, 0, 5},
	}
	g := NewPieceGen(c, testBoardSetting(4, 4, 4), gs)

	counts := make([]int, 4)
	for i := 0; i < 3000; i++ {
		counts[g.PickColor()]++
	}
	if counts[2] != 0 {
		t.Fatalf("zero-weight color drawn %d times", counts[2])
	}
}
