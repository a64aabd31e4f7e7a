package ops

import "github.com/zintix-labs/matchlab/sdk/board"

// PieceSource 提供補盤棋子。col 為目標行，實作可依行決定權重。
type PieceSource interface {
	NextPiece(col int) board.Piece
}

// Fill 堆疊補盤：配合 Gravity 使用，從 fillIdxBuf 起始點往上補。
//
//   - b: 棋盤 (原地修改)
//   - src: 補盤棋子來源
//   - fillIdxBuf: 每行開始補的位置 (通常由 Gravity 回傳)，負值表示該行已滿
func Fill(b *board.Board, src PieceSource, fillIdxBuf []int) {
	pieces := b.Pieces()
	hole := b.HoleMask()
	cols := b.Cols()

	for c, start := range fillIdxBuf {
		if start < 0 {
			continue
		}
		for w := start; w >= 0; w -= cols {
			if hole[w] == 1 {
				continue
			}
			pieces[w] = src.NextPiece(c)
		}
	}

	b.MarkDirty()
}

// FillByScan 穿透補盤：掃描全盤，見縫插針。
//
// 相較 Fill 少了起始點資訊，直接掃描全盤補足所有空的非洞格，
// 性能差一點，但更為萬用；初始建盤時使用。
func FillByScan(b *board.Board, src PieceSource) {
	pieces := b.Pieces()
	hole := b.HoleMask()
	cols, rows := b.Cols(), b.Rows()

	for c := 0; c < cols; c++ {
		// 自底向上掃描
		for r := rows - 1; r >= 0; r-- {
			idx := r*cols + c
			if hole[idx] == 1 {
				continue
			}
			if pieces[idx].Kind == board.KindNone {
				pieces[idx] = src.NextPiece(c)
			}
		}
	}

	b.MarkDirty()
}
