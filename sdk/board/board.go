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

// Package board 定義三消棋盤的儲存模型。
//
// 棋盤使用扁平陣列，索引規則為 idx = row*cols + col，row 0 在最上方。
// 棋子 (Piece) 與障礙層 (jelly/ice/crate/chocolate/locked) 分開儲存：
// 棋子會隨重力移動，障礙層永遠綁定在格子上。
package board

// Kind 為棋子種類。只有 KindNormal 參與顏色連線判定，
// 其餘種類對偵測而言一律視為邊界 (ColorBomb 永遠不會「按顏色」連線)。
type Kind uint8

const (
	KindNone Kind = iota // 空格 (消除後、補盤前的暫時狀態)
	KindNormal
	KindRocketH
	KindRocketV
	KindBomb
	KindColorBomb
	KindIngredient
)

// NoColor 表示無色棋子 (ColorBomb / Ingredient) 的顏色值。
const NoColor int8 = -1

// Piece 為格子內容的值型別。
type Piece struct {
	Kind  Kind
	Color int8
}

// EmptyPiece 為空格的零值。
var EmptyPiece = Piece{}

// NormalPiece 建立指定顏色的普通棋子。
func NormalPiece(color int8) Piece {
	return Piece{Kind: KindNormal, Color: color}
}

// Board 持有一面棋盤的全部可變狀態。
//
// 尺寸與洞 (hole) 在建構後永不改變；棋子與障礙層只透過本套件的方法修改。
// Board 不是 thread-safe：一個 Board 同一時間只屬於一個邏輯操作。
type Board struct {
	cols      int
	rows      int
	numColors int

	pieces []Piece

	// 障礙層，每格獨立共存。hole == 1 的格子永遠不持有棋子。
	hole      []uint8
	jelly     []uint8
	ice       []uint8
	crate     []uint8
	chocolate []uint8
	locked    []uint8

	// 空間索引 (lazily rebuilt)，見 index.go
	idxDirty   bool
	colorCells [][]int
	neighbors  [][]int
}

// New 建立空棋盤。holes 為洞遮罩 (1 = 洞)，可為 nil 表示無洞；
// 長度必須等於 cols*rows。尺寸或遮罩不合法屬於程式錯誤，直接 panic。
func New(cols, rows, numColors int, holes []uint8) *Board {
	if cols <= 0 || rows <= 0 {
		panic("board: non-positive dimensions")
	}
	if numColors <= 0 {
		panic("board: non-positive color count")
	}
	n := cols * rows
	if holes != nil && len(holes) != n {
		panic("board: hole mask length mismatch")
	}

	b := &Board{
		cols:      cols,
		rows:      rows,
		numColors: numColors,
		pieces:    make([]Piece, n),
		hole:      make([]uint8, n),
		jelly:     make([]uint8, n),
		ice:       make([]uint8, n),
		crate:     make([]uint8, n),
		chocolate: make([]uint8, n),
		locked:    make([]uint8, n),
		idxDirty:  true,
	}
	if holes != nil {
		copy(b.hole, holes)
	}
	return b
}

//---------------------------------------
// 維度與座標
//---------------------------------------

func (b *Board) Cols() int      { return b.cols }
func (b *Board) Rows() int      { return b.rows }
func (b *Board) Size() int      { return b.cols * b.rows }
func (b *Board) NumColors() int { return b.numColors }

// Idx 將 (col,row) 轉為扁平索引。呼叫端需先以 InBounds 驗證。
func (b *Board) Idx(col, row int) int { return row*b.cols + col }

// ColRow 將扁平索引轉回 (col,row)。
func (b *Board) ColRow(idx int) (int, int) { return idx % b.cols, idx / b.cols }

// InBounds 回傳座標是否落在棋盤內。越界只回傳 false，不報錯。
func (b *Board) InBounds(col, row int) bool {
	return col >= 0 && col < b.cols && row >= 0 && row < b.rows
}

// IsAdjacent 回傳兩個扁平索引是否為正交相鄰 (曼哈頓距離恰為 1)。
func (b *Board) IsAdjacent(a, c int) bool {
	ac, ar := a%b.cols, a/b.cols
	cc, cr := c%b.cols, c/b.cols
	dc, dr := ac-cc, ar-cr
	if dc < 0 {
		dc = -dc
	}
	if dr < 0 {
		dr = -dr
	}
	return dc+dr == 1
}

//---------------------------------------
// 格子狀態查詢
//---------------------------------------

// IsHole 回傳該格是否為洞。洞不持棋子、不受重力、不參與連線。
func (b *Board) IsHole(idx int) bool { return b.hole[idx] == 1 }

// IsLocked 回傳該格是否帶鎖。帶鎖的棋子不可被交換。
func (b *Board) IsLocked(idx int) bool { return b.locked[idx] == 1 }

func (b *Board) JellyAt(idx int) int     { return int(b.jelly[idx]) }
func (b *Board) IceAt(idx int) int       { return int(b.ice[idx]) }
func (b *Board) CrateAt(idx int) int     { return int(b.crate[idx]) }
func (b *Board) ChocolateAt(idx int) int { return int(b.chocolate[idx]) }

// PieceAt 回傳格子內容。洞永遠回傳 EmptyPiece。
func (b *Board) PieceAt(idx int) Piece { return b.pieces[idx] }

// SetPiece 直接寫入格子內容並標記索引失效。寫入洞屬於程式錯誤。
func (b *Board) SetPiece(idx int, p Piece) {
	if b.hole[idx] == 1 {
		panic("board: set piece on hole")
	}
	b.pieces[idx] = p
	b.idxDirty = true
}

// RemovePiece 清空格子 (KindNone) 並標記索引失效。
func (b *Board) RemovePiece(idx int) {
	b.pieces[idx] = EmptyPiece
	b.idxDirty = true
}

// Swap 無條件交換兩格棋子，不做任何驗證 (呼叫端需自行檢查相鄰與邊界)。
func (b *Board) Swap(a, c int) {
	b.pieces[a], b.pieces[c] = b.pieces[c], b.pieces[a]
	b.idxDirty = true
}

// Pieces 回傳內部棋子陣列。熱路徑共用，呼叫端不可改寫；
// 需要寫入時一律走 SetPiece / Swap / ops.Gravity。
func (b *Board) Pieces() []Piece { return b.pieces }

// HoleMask 回傳內部洞遮罩，唯讀共用。
func (b *Board) HoleMask() []uint8 { return b.hole }

//---------------------------------------
// 障礙層
//---------------------------------------

// ApplyLayers 套用關卡障礙配置，nil 表示該層無配置。
// 只在初始盤面穩定後呼叫一次，之後障礙層只會被 clear hit 削減。
func (b *Board) ApplyLayers(jelly, ice, crate, chocolate, locked []uint8) {
	n := b.Size()
	apply := func(dst, src []uint8) {
		if src == nil {
			return
		}
		if len(src) != n {
			panic("board: layer length mismatch")
		}
		copy(dst, src)
	}
	apply(b.jelly, jelly)
	apply(b.ice, ice)
	apply(b.crate, crate)
	apply(b.chocolate, chocolate)
	apply(b.locked, locked)
}

// SetJelly 直接設定單格果凍層數，測試與關卡編輯用。
func (b *Board) SetJelly(idx int, layers int) { b.jelly[idx] = uint8(layers) }
func (b *Board) SetIce(idx int, hp int)       { b.ice[idx] = uint8(hp) }
func (b *Board) SetCrate(idx int, hp int)     { b.crate[idx] = uint8(hp) }
func (b *Board) SetChocolate(idx int, hp int) { b.chocolate[idx] = uint8(hp) }
func (b *Board) SetLocked(idx int, lock bool) {
	if lock {
		b.locked[idx] = 1
	} else {
		b.locked[idx] = 0
	}
}

// DamageBlocker 對該格施加一次 clear hit 的障礙判定。
//
// 優先序固定：Locked → Ice → Crate → Chocolate，一次只削減一層；
// 有任何一層吸收了這次 hit 就回傳 true，此時棋子本身保留。
// 四層皆無時回傳 false，代表這次 hit 應落在棋子上。
func (b *Board) DamageBlocker(idx int) bool {
	switch {
	case b.locked[idx] > 0:
		b.locked[idx] = 0
	case b.ice[idx] > 0:
		b.ice[idx]--
	case b.crate[idx] > 0:
		b.crate[idx]--
	case b.chocolate[idx] > 0:
		b.chocolate[idx]--
	default:
		return false
	}
	return true
}

// ClearJelly 在 clear event 觸及該格時削減一層果凍。
// 果凍與棋子/障礙移除互相獨立，有削減回傳 true。
func (b *Board) ClearJelly(idx int) bool {
	if b.jelly[idx] == 0 {
		return false
	}
	b.jelly[idx]--
	return true
}

// JellyRemaining 回傳全盤剩餘果凍層數總和，關卡目標判定用。
func (b *Board) JellyRemaining() int {
	total := 0
	for _, v := range b.jelly {
		total += int(v)
	}
	return total
}

//---------------------------------------
// 快照與比對
//---------------------------------------

// SnapshotPieces 以 append 方式將棋子狀態複製進 dst，供結果緩衝重用。
func (b *Board) SnapshotPieces(dst []Piece) []Piece {
	return append(dst, b.pieces...)
}

// RestorePieces 以快照覆寫棋子狀態，長度不符屬於程式錯誤。
func (b *Board) RestorePieces(src []Piece) {
	if len(src) != len(b.pieces) {
		panic("board: snapshot length mismatch")
	}
	copy(b.pieces, src)
	b.idxDirty = true
}

// Equal 逐格比對兩面棋盤的棋子與障礙層，測試決定性時使用。
func (b *Board) Equal(o *Board) bool {
	if b.cols != o.cols || b.rows != o.rows || b.numColors != o.numColors {
		return false
	}
	for i := range b.pieces {
		if b.pieces[i] != o.pieces[i] {
			return false
		}
		if b.hole[i] != o.hole[i] || b.jelly[i] != o.jelly[i] ||
			b.ice[i] != o.ice[i] || b.crate[i] != o.crate[i] ||
			b.chocolate[i] != o.chocolate[i] || b.locked[i] != o.locked[i] {
			return false
		}
	}
	return true
}
