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

package match

import "sync"

// Groups 儲存一次偵測找到的所有連線群。
//
// 成員以扁平方式存放：flat 依群順序串接所有格子索引，ends 紀錄每群的
// 結尾偏移。每群的第一個元素是 BFS 起點，也就是該群最小的扁平索引
// (掃描由小到大，群內更小的索引必然先被當成起點)，上層以它作為
// 特殊棋子的錨點格。
type Groups struct {
	flat []int16
	ends []int32
}

// Count 回傳群數。
func (g *Groups) Count() int { return len(g.ends) }

// Group 回傳第 i 群的成員索引，唯讀共用，Reset 後即失效。
func (g *Groups) Group(i int) []int16 {
	start := int32(0)
	if i > 0 {
		start = g.ends[i-1]
	}
	return g.flat[start:g.ends[i]]
}

// Reset 清空內容但保留容量。
func (g *Groups) Reset() {
	g.flat = g.flat[:0]
	g.ends = g.ends[:0]
}

// begin / commit / abort 供 Detector 逐群寫入。
func (g *Groups) begin() int {
	return len(g.flat)
}

func (g *Groups) add(idx int16) {
	g.flat = append(g.flat, idx)
}

func (g *Groups) commit() {
	g.ends = append(g.ends, int32(len(g.flat)))
}

func (g *Groups) abort(mark int) {
	g.flat = g.flat[:mark]
}

// groupsPool 讓暫時性的 Groups 走 free-list，避免熱路徑反覆配置。
var groupsPool = sync.Pool{
	New: func() any { return &Groups{} },
}

// AcquireGroups 從池中借出一份已重置的 Groups。
// 呼叫端必須配對 ReleaseGroups (建議 defer)，確保每條離開路徑都歸還。
func AcquireGroups() *Groups {
	g := groupsPool.Get().(*Groups)
	g.Reset()
	return g
}

// ReleaseGroups 歸還 Groups，歸還後不可再讀取其內容。
func ReleaseGroups(g *Groups) {
	groupsPool.Put(g)
}
