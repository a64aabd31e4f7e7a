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

// 空間索引：color → 格子列表，以及 格子 → 有效鄰居列表。
//
// 索引不做增量維護：任何棋子異動 (Swap / SetPiece / RemovePiece / 重力)
// 都只把 idxDirty 設為 true，下次讀取時整個重建。全量重建是 O(n)，
// 換來的是不變量極簡——索引要嘛是髒的，要嘛與盤面完全一致。
// 索引只加速查詢 (提示系統、模擬器選步)，正確性不依賴它。

// MarkDirty 標記空間索引失效。重力等外部寫入路徑完成後必須呼叫。
func (b *Board) MarkDirty() { b.idxDirty = true }

// CellsOfColor 回傳指定顏色所有普通棋子的扁平索引，唯讀共用，
// 下次盤面異動後即失效。顏色越界回傳 nil。
func (b *Board) CellsOfColor(color int8) []int {
	if color < 0 || int(color) >= b.numColors {
		return nil
	}
	if b.idxDirty {
		b.rebuildIndex()
	}
	return b.colorCells[color]
}

// Neighbors 回傳該格所有在界內且非洞的正交鄰居索引，唯讀共用。
func (b *Board) Neighbors(idx int) []int {
	if b.idxDirty {
		b.rebuildIndex()
	}
	return b.neighbors[idx]
}

// rebuildIndex 全量重建兩份索引。容量只增不減，重建不產生新配置。
func (b *Board) rebuildIndex() {
	n := b.Size()
	cols, rows := b.cols, b.rows

	if b.colorCells == nil {
		b.colorCells = make([][]int, b.numColors)
	}
	for c := range b.colorCells {
		b.colorCells[c] = b.colorCells[c][:0]
	}
	for i := 0; i < n; i++ {
		p := b.pieces[i]
		if p.Kind == KindNormal && p.Color >= 0 && int(p.Color) < b.numColors {
			b.colorCells[p.Color] = append(b.colorCells[p.Color], i)
		}
	}

	// 鄰居表只依賴洞遮罩與維度，其實建一次就不會再變，
	// 但掛在同一個 dirty 流程下可少維護一個旗標。
	if b.neighbors == nil {
		b.neighbors = make([][]int, n)
		for i := range b.neighbors {
			b.neighbors[i] = make([]int, 0, 4)
		}
	}
	for i := 0; i < n; i++ {
		nb := b.neighbors[i][:0]
		if b.hole[i] != 1 {
			c := i % cols
			r := i / cols
			if c > 0 && b.hole[i-1] != 1 {
				nb = append(nb, i-1)
			}
			if c+1 < cols && b.hole[i+1] != 1 {
				nb = append(nb, i+1)
			}
			if r > 0 && b.hole[i-cols] != 1 {
				nb = append(nb, i-cols)
			}
			if r+1 < rows && b.hole[i+cols] != 1 {
				nb = append(nb, i+cols)
			}
		}
		b.neighbors[i] = nb
	}

	b.idxDirty = false
}
