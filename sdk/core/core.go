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

package core

import "math"

// PRNG 定義 Core 所需的亂數來源，需同時支援取樣與狀態保存/還原。
type PRNG interface {
	RAND
	Restorable
}

// Restorable 定義可快照與還原的狀態介面。
// Matchlab 依賴它實現回放：DevSim 在每一步手前存檔，出問題時可精準重現該盤面。
type Restorable interface {
	// Snapshot 回傳可用於還原的序列化狀態。
	Snapshot() ([]byte, error)
	// Restore 依序列化狀態還原 PRNG 內部狀態。
	Restore([]byte) error
}

// RAND 定義核心亂數取樣能力。
//
// 合約要求同時提供 Uint64 / Float64 / UintN / IntN，而不是只要求 Uint64：
// bounded 生成（IntN/UintN）交由 PRNG 自己實作，能讓每個 PRNG 用最合適的
// fast path；Float64 的精度（32-bit vs 53-bit）與生成方式也由 PRNG 決定。
type RAND interface {
	// Uint64 回傳非負 uint64 亂數。
	Uint64() uint64
	// Float64 回傳 [0,1) 的浮點亂數。
	Float64() float64
	// UintN 回傳 [0,max) 的 uint 亂數，若 max == 0 回傳 0。
	UintN(uint) uint
	// IntN 回傳 [0,max) 的 int 亂數，若 max <= 0 回傳 -1。
	IntN(int) int
}

type PRNGFactory interface {
	// New 以指定 seed 建立新的 PRNG。
	//
	// 合約（很重要）：在同一個實作與同一個版本下，New(seed) 必須是「決定性」的——
	// 相同的 seed 必須產生相同的初始內部狀態與輸出序列。
	//
	// Matchlab 需要可重現（盤面審計/回放/多引擎併發模擬的派生）。
	// seed 的生命週期由 Matchlab 統一管理：外部未提供時由 Matchlab 產生並保存
	// baseSeed，後續所有 Engine/Sim 皆由 baseSeed 以固定算法派生子 seed，
	// 因此內部永遠不需要「不帶 seed 的 New()」。
	New(int64) PRNG
}

// DefaultPRNG 實作預設的 PRNGFactory，以 PCG64 為底。
type DefaultPRNG struct{}

// New 滿足合約
func (d *DefaultPRNG) New(seed int64) PRNG {
	return newPCG64WithSeed(seed)
}

func Default() *DefaultPRNG {
	return &DefaultPRNG{}
}

// Core 封裝 PRNG，並提供常用取樣與工具方法。
type Core struct {
	PRNG
}

// New 允許使用外部自實現的 PRNG 建立 Core。
func New(rng PRNG) *Core {
	return &Core{rng}
}

// Pick 從列表中隨機選取一個元素，若列表為空回傳 -1
// 熱路徑中只使用哨兵值回傳
func (c *Core) Pick(src []int) int {
	if len(src) == 0 {
		return -1
	}
	idx := c.IntN(len(src))
	return src[idx]
}

// ExpFloat64 回傳標準指數分佈（rate = 1）的亂數。
// 以反函數法 -ln(1-U) 實作，U ∈ [0,1) 保證對數參數不為 0。
func (c *Core) ExpFloat64() float64 {
	return -math.Log(1 - c.Float64())
}

// ShuffleInts 使用 Fisher-Yates (亦稱 Knuth Shuffle) 演算法
// 對[]int進行「就地 (In-place)」隨機重排。
//
// 演算法特性：
//
//  1. 公平性 (Unbiased)：
//     此算法保證所有可能的 N! 種排列組合出現的機率是嚴格相等的 (1/N!)。
//
//  2. 效能 (High Performance)：
//     - 時間複雜度：O(N)，只需要對陣列進行一次線性掃描。
//     - 空間複雜度：O(1)，直接在原記憶體位置交換，實現零配置 (Zero Allocation)。
func (c *Core) ShuffleInts(src []int) {
	if len(src) <= 1 {
		return
	}

	for i := len(src) - 1; i > 0; i-- {
		j := c.IntN(i + 1)
		src[i], src[j] = src[j], src[i]
	}
}
