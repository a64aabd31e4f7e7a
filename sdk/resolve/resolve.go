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

// Package resolve 將連線群轉換為盤面異動：生成特殊棋子、削減障礙層、
// 移除棋子並累計統計。
//
// 錨點規則：每群的錨點為偵測枚舉順序的第一格 (即群內最小扁平索引)。
// 這是固定且可重現的規則，特殊棋子永遠生成在錨點。
package resolve

import (
	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/match"
)

// PassStats 為單一 cascade pass 的統計。
//
// Histogram 計入「顏色被本次連線消耗」的每一格：實際移除的棋子加上
// 被轉換成特殊棋子的錨點；被障礙層攔截 (棋子保留) 的格子不計。
// CellsCleared 只計實際移除的棋子。
type PassStats struct {
	CellsCleared int
	JellyCleared int
}

// ApplyGroups 將 groups 內的所有群套用到盤面上，回傳本 pass 統計。
// hist 長度必須等於 b.NumColors()，按顏色累加 (跨 pass 累計由呼叫端負責)。
func ApplyGroups(b *board.Board, groups *match.Groups, hist []int) PassStats {
	var st PassStats

	for gi := 0; gi < groups.Count(); gi++ {
		g := groups.Group(gi)
		special := specialFor(b, g)
		anchor := int(g[0])

		for _, m := range g {
			idx := int(m)
			color := b.PieceAt(idx).Color

			if idx == anchor && special.Kind != board.KindNone {
				// 錨點格：棋子被轉換而非移除，顏色仍視為被消耗。
				// 障礙層不受影響 (錨點不吃 clear hit)，果凍照樣削減。
				b.SetPiece(idx, special)
				if color >= 0 {
					hist[color]++
				}
				if b.ClearJelly(idx) {
					st.JellyCleared++
				}
				continue
			}

			// 一般成員：先過障礙判定，被吸收則棋子保留
			if b.DamageBlocker(idx) {
				if b.ClearJelly(idx) {
					st.JellyCleared++
				}
				continue
			}

			b.RemovePiece(idx)
			st.CellsCleared++
			if color >= 0 {
				hist[color]++
			}
			if b.ClearJelly(idx) {
				st.JellyCleared++
			}
		}
	}

	return st
}

// specialFor 依群形決定要生成的特殊棋子；不生成時回傳 EmptyPiece。
//
// 規則：
//   - size == 4 且共線：同列 → 水平火箭，同行 → 垂直火箭。
//     (flood-fill 可能找出 2x2 的四連方塊，非共線的 4 連不生成特殊棋。)
//   - size >= 5 且共線 → ColorBomb (無色)。
//   - size >= 5 非共線 (L/T/十字) → 同色 Bomb。
//   - size == 3 → 不生成。
func specialFor(b *board.Board, g []int16) board.Piece {
	size := len(g)
	if size < 4 {
		return board.EmptyPiece
	}

	cols := b.Cols()
	sameRow, sameCol := true, true
	r0 := int(g[0]) / cols
	c0 := int(g[0]) % cols
	for _, m := range g[1:] {
		if int(m)/cols != r0 {
			sameRow = false
		}
		if int(m)%cols != c0 {
			sameCol = false
		}
	}

	color := b.PieceAt(int(g[0])).Color

	switch {
	case size == 4 && sameRow:
		return board.Piece{Kind: board.KindRocketH, Color: color}
	case size == 4 && sameCol:
		return board.Piece{Kind: board.KindRocketV, Color: color}
	case size == 4:
		return board.EmptyPiece
	case sameRow || sameCol:
		return board.Piece{Kind: board.KindColorBomb, Color: board.NoColor}
	default:
		return board.Piece{Kind: board.KindBomb, Color: color}
	}
}
