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

package board

import "testing"

func TestIdxColRowRoundTrip(t *testing.T) {
	b := New(5, 4, 3, nil)
	for r := 0; r < 4; r++ {
		for c := 0; c < 5; c++ {
			idx := b.Idx(c, r)
			cc, rr := b.ColRow(idx)
			if cc != c || rr != r {
				t.Fatalf("round trip failed at (%d,%d): got (%d,%d)", c, r, cc, rr)
			}
		}
	}
}

func TestIsAdjacent(t *testing.T) {
	b := New(3, 3, 3, nil)
	center := b.Idx(1, 1)

	for _, adj := range []int{b.Idx(0, 1), b.Idx(2, 1), b.Idx(1, 0), b.Idx(1, 2)} {
		if !b.IsAdjacent(center, adj) {
			t.Fatalf("expected %d adjacent to %d", adj, center)
		}
	}
	// 斜角與自身不相鄰
	if b.IsAdjacent(center, b.Idx(0, 0)) {
		t.Fatalf("diagonal must not be adjacent")
	}
	if b.IsAdjacent(center, center) {
		t.Fatalf("cell must not be adjacent to itself")
	}
	// 行尾與下一列行首在扁平索引上連續，但不得視為相鄰
	if b.IsAdjacent(b.Idx(2, 0), b.Idx(0, 1)) {
		t.Fatalf("row wrap must not be adjacent")
	}
}

func TestDamageBlockerPriority(t *testing.T) {
	b := New(2, 2, 3, nil)
	b.SetLocked(0, true)
	b.SetIce(0, 2)
	b.SetCrate(0, 1)
	b.SetChocolate(0, 1)

	// 第一次 hit 先解鎖
	if !b.DamageBlocker(0) || b.IsLocked(0) {
		t.Fatalf("first hit should remove lock")
	}
	// 接著削冰，兩層各吃一次 hit
	if !b.DamageBlocker(0) || b.IceAt(0) != 1 {
		t.Fatalf("second hit should damage ice, got ice=%d", b.IceAt(0))
	}
	if !b.DamageBlocker(0) || b.IceAt(0) != 0 {
		t.Fatalf("third hit should break ice, got ice=%d", b.IceAt(0))
	}
	// 木箱 → 巧克力
	if !b.DamageBlocker(0) || b.CrateAt(0) != 0 {
		t.Fatalf("fourth hit should break crate")
	}
	if !b.DamageBlocker(0) || b.ChocolateAt(0) != 0 {
		t.Fatalf("fifth hit should break chocolate")
	}
	// 全部清空後 hit 應落在棋子上
	if b.DamageBlocker(0) {
		t.Fatalf("hit on clean cell must not be absorbed")
	}
}

func TestJelly(t *testing.T) {
	b := New(2, 2, 3, nil)
	b.SetJelly(1, 2)
	b.SetJelly(3, 1)

	if got := b.JellyRemaining(); got != 3 {
		t.Fatalf("jelly remaining = %d, want 3", got)
	}
	if !b.ClearJelly(1) || b.JellyAt(1) != 1 {
		t.Fatalf("clear should remove one layer")
	}
	if b.ClearJelly(0) {
		t.Fatalf("clear on empty jelly must be no-op")
	}
	if got := b.JellyRemaining(); got != 2 {
		t.Fatalf("jelly remaining = %d, want 2", got)
	}
}

func TestNeighborsSkipHoles(t *testing.T) {
	holes := []uint8{
		0, 1, 0,
		0, 0, 0,
		0, 0, 0,
	}
	b := New(3, 3, 3, holes)

	// (1,1) 的上方是洞，鄰居應只剩左/右/下
	ns := b.Neighbors(b.Idx(1, 1))
	if len(ns) != 3 {
		t.Fatalf("neighbors of center = %v, want 3 entries", ns)
	}
	for _, n := range ns {
		if b.IsHole(n) {
			t.Fatalf("neighbor %d is a hole", n)
		}
	}
	// 洞自身沒有鄰居
	if ns := b.Neighbors(b.Idx(1, 0)); len(ns) != 0 {
		t.Fatalf("hole must have no neighbors, got %v", ns)
	}
}

func TestCellsOfColorTracksMutation(t *testing.T) {
	b := New(2, 2, 3, nil)
	b.SetPiece(0, NormalPiece(1))
	b.SetPiece(1, NormalPiece(1))
	b.SetPiece(2, NormalPiece(0))

	if got := b.CellsOfColor(1); len(got) != 2 {
		t.Fatalf("color 1 cells = %v, want 2 entries", got)
	}
	// 異動後索引需重建
	b.RemovePiece(0)
	if got := b.CellsOfColor(1); len(got) != 1 || got[0] != 1 {
		t.Fatalf("color 1 cells after removal = %v", got)
	}
	if got := b.CellsOfColor(5); got != nil {
		t.Fatalf("out-of-range color must return nil, got %v", got)
	}
}

func TestSnapshotRestorePieces(t *testing.T) {
	b := New(2, 2, 3, nil)
	b.SetPiece(0, NormalPiece(2))
	snap := b.SnapshotPieces(nil)

	b.SetPiece(0, NormalPiece(0))
	b.SetPiece(3, NormalPiece(1))
	b.RestorePieces(snap)

	if b.PieceAt(0) != NormalPiece(2) || b.PieceAt(3) != EmptyPiece {
		t.Fatalf("restore did not bring back snapshot state")
	}
}

func TestSetPieceOnHolePanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on hole write")
		}
	}()
	b := New(2, 1, 3, []uint8{1, 0})
	b.SetPiece(0, NormalPiece(0))
}
