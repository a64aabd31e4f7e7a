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

// Package match 實作同色連線群的偵測。
//
// 演算法為 flood-fill 連通元件 (BFS)：對每個尚未訪問、非洞、且持有
// 普通棋子的格子，向四個正交方向擴散到同色普通棋子為止，元件大小
// 達到 MinGroupSize 即輸出為一群。flood-fill 天然涵蓋 L/T/十字等不規
// 則形狀，且每格最多訪問一次，整體為線性時間。
package match

import "github.com/zintix-labs/matchlab/sdk/board"

// MinGroupSize 為構成消除的最小連線數。
const MinGroupSize = 3

// Detector 持有偵測所需的重用緩衝，不是 thread-safe，
// 一個 Detector 只屬於一個引擎實例。
type Detector struct {
	cols, rows int
	n          int

	// BFS 佇列
	q []int
	// visited 記錄格子是否已屬於某個元件 (單次 Detect 全局有效)
	visited []bool
}

func NewDetector() *Detector {
	return &Detector{}
}

// resetSizes 只調整容量，不清內容
func (d *Detector) resetSizes(cols, rows int) {
	d.cols, d.rows = cols, rows
	d.n = cols * rows

	if cap(d.visited) < d.n {
		d.visited = make([]bool, d.n)
	} else {
		d.visited = d.visited[:d.n]
	}
	if cap(d.q) < d.n {
		d.q = make([]int, 0, d.n)
	}
}

// Detect 掃描整面棋盤，將所有大小 >= MinGroupSize 的連線群寫入 out。
// out 會先被 Reset。回傳群數。
func (d *Detector) Detect(b *board.Board, out *Groups) int {
	out.Reset()
	d.run(b, out, false)
	return out.Count()
}

// HasMatches 只回答「是否存在至少一群」，找到第一群即提早返回。
func (d *Detector) HasMatches(b *board.Board) bool {
	return d.run(b, nil, true)
}

// run 為共用掃描核心。out 為 nil 時只做存在性判定；
// earlyExit 為 true 時找到第一群即返回。
func (d *Detector) run(b *board.Board, out *Groups, earlyExit bool) bool {
	cols, rows := b.Cols(), b.Rows()
	d.resetSizes(cols, rows)

	// 重置 global visited (range loop clear 會被編譯為 memclr)
	for i := range d.visited {
		d.visited[i] = false
	}

	pieces := b.Pieces()
	hole := b.HoleMask()
	found := false

	// 遍歷每一個格子作為潛在的群起點
	for i := 0; i < d.n; i++ {
		if d.visited[i] || hole[i] == 1 {
			continue
		}
		p := pieces[i]
		// 只有普通棋子參與顏色連線，特殊棋子與空格一律是邊界
		if p.Kind != board.KindNormal {
			continue
		}

		// --- 開始一個新的元件 ---
		color := p.Color

		d.q = d.q[:0]
		d.q = append(d.q, i)
		d.visited[i] = true

		var mark int
		if out != nil {
			mark = out.begin()
			out.add(int16(i))
		}

		head := 0
		size := 0
		for head < len(d.q) {
			curr := d.q[head]
			head++
			size++

			r := curr / cols
			c := curr % cols

			checkNeighbor := func(next int) {
				if d.visited[next] || hole[next] == 1 {
					return
				}
				np := pieces[next]
				if np.Kind != board.KindNormal || np.Color != color {
					return
				}
				d.visited[next] = true
				d.q = append(d.q, next)
				if out != nil {
					out.add(int16(next))
				}
			}

			// 展開四個方向
			if c > 0 {
				checkNeighbor(curr - 1)
			}
			if c+1 < cols {
				checkNeighbor(curr + 1)
			}
			if r > 0 {
				checkNeighbor(curr - cols)
			}
			if r+1 < rows {
				checkNeighbor(curr + cols)
			}
		}

		if size < MinGroupSize {
			if out != nil {
				out.abort(mark)
			}
			continue
		}

		found = true
		if out != nil {
			out.commit()
		}
		if earlyExit {
			return true
		}
	}

	return found
}
