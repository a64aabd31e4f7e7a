package ops

import "github.com/zintix-labs/matchlab/sdk/board"

// Gravity 執行單格棋子下落邏輯 (Column-wise compact)。
//
// 洞是「透明」的：棋子會穿過洞往下掉，洞本身不移動、不接收棋子，
// 也不中斷上下方格子的壓縮。
//
//   - b: 棋盤 (原地修改，結束後標記空間索引失效)
//   - fillIdxBuf: (選用) 回傳每行需要補棋的起始位置，若為 nil 則不紀錄；
//     該行已滿時值為負。
func Gravity(b *board.Board, fillIdxBuf []int) {
	pieces := b.Pieces()
	hole := b.HoleMask()
	cols, rows := b.Cols(), b.Rows()

	for c := 0; c < cols; c++ {
		// Write Pointer：指向最底部的非洞格
		wp := (rows-1)*cols + c
		for wp >= 0 && hole[wp] == 1 {
			wp -= cols
		}

		// 自底向上掃描 (原地壓縮演算法)
		for r := rows - 1; r >= 0; r-- {
			rp := r*cols + c // Read Pointer
			if hole[rp] == 1 {
				continue
			}
			if pieces[rp].Kind != board.KindNone {
				if rp != wp {
					pieces[wp] = pieces[rp]
				}
				wp -= cols
				for wp >= 0 && hole[wp] == 1 {
					wp -= cols
				}
			}
		}

		// 紀錄補棋起始點 (如果調用者需要)
		if fillIdxBuf != nil && c < len(fillIdxBuf) {
			fillIdxBuf[c] = wp
		}

		// 上方剩餘非洞格清空
		for w := wp; w >= 0; w -= cols {
			if hole[w] == 1 {
				continue
			}
			pieces[w] = board.EmptyPiece
		}
	}

	b.MarkDirty()
}
