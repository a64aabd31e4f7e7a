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

// Package optimizer 提供關卡參數的離線調參工具。
//
// 關卡設計者通常有明確的手感目標（例如：隨機移動的成局率 ~35%、
// 平均每步消除 ~6 格），但顏色權重對這些指標的影響並不直觀。
// Tuner 以模擬器為評估函式，對 color_weights 做座標搜尋（coordinate search），
// 逐步逼近目標指標。
//
// 這是離線工具：輸出是「建議的設定檔參數」，不會也不該在線上熱調。
package optimizer

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/zintix-labs/matchlab"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/spec"
)

// Target 是調參的目標指標。
//
//   - MatchRate：隨機移動的成局率（applied / (applied+noop)），0 表示不納入評分。
//   - AvgCells ：每次落地移動平均消除格數，0 表示不納入評分。
//   - Tolerance：加權誤差低於此值即視為達標並提前停止。
type Target struct {
	MatchRate float64
	AvgCells  float64
	Tolerance float64
}

// Config 控制搜尋過程。
type Config struct {
	// Rounds 每次評估的模擬步數。步數越大評估噪音越小、搜尋越慢。
	Rounds int
	// Seed 評估用種子。同一 seed 下整個搜尋過程 deterministic。
	Seed int64
	// MaxIters 座標搜尋的最大輪數（每輪掃過全部權重一次）。
	MaxIters int
	// MaxWeight 單一顏色權重的上限（下限固定為 1，權重 0 會讓該色消失）。
	MaxWeight int
}

func (c *Config) norm() {
	if c.Rounds < 1 {
		c.Rounds = 50000
	}
	if c.MaxIters < 1 {
		c.MaxIters = 8
	}
	if c.MaxWeight < 2 {
		c.MaxWeight = 16
	}
}

// Trial 紀錄單次評估的結果，供事後分析搜尋軌跡。
type Trial struct {
	Weights   []int   `json:"weights"`
	MatchRate float64 `json:"match_rate"`
	AvgCells  float64 `json:"avg_cells"`
	Score     float64 `json:"score"`
}

// Result 是一次調參的產出。
type Result struct {
	Best    Trial   `json:"best"`
	History []Trial `json:"history"`
	// Converged 表示是否在 MaxIters 內達到 Tolerance。
	Converged bool `json:"converged"`
}

// Tuner 對單一關卡做 color_weights 調參。
type Tuner struct {
	lab    *matchlab.Matchlab
	base   *spec.LevelSetting
	target Target
	cfg    Config
}

// New 以關卡設定檔原文（JSON）建立 Tuner。
// 走 JSON 而非直接收 *spec.LevelSetting，是為了確保每次 trial
// 都從乾淨的設定重建（Init 會在 LevelSetting 上留下查表狀態）。
func New(lab *matchlab.Matchlab, raw []byte, target Target, cfg Config) (*Tuner, error) {
	if lab == nil {
		return nil, errs.NewFatal("matchlab is required")
	}
	ls, err := spec.GetLevelSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if target.MatchRate == 0 && target.AvgCells == 0 {
		return nil, errs.NewWarn("target requires match_rate or avg_cells")
	}
	cfg.norm()
	return &Tuner{lab: lab, base: ls, target: target, cfg: cfg}, nil
}

// Run 執行座標搜尋。
//
// 每輪依序對每個顏色權重試探 +1 / -1，採納能降低評分誤差的方向；
// 一整輪沒有任何改善即停止（local optimum）。評估本身帶有蒙地卡羅噪音，
// 因此 Tolerance 不應設得比評估噪音還小（可用 Rounds 換取更低噪音）。
func (t *Tuner) Run() (*Result, error) {
	weights := make([]int, len(t.base.Generator.ColorWeights))
	copy(weights, t.base.Generator.ColorWeights)
	for i, w := range weights {
		if w < 1 {
			weights[i] = 1
		}
	}

	best, err := t.eval(weights)
	if err != nil {
		return nil, err
	}
	result := &Result{Best: best, History: []Trial{best}}

	for iter := 0; iter < t.cfg.MaxIters; iter++ {
		improved := false
		for i := range weights {
			for _, delta := range [2]int{1, -1} {
				w := weights[i] + delta
				if w < 1 || w > t.cfg.MaxWeight {
					continue
				}
				cand := make([]int, len(weights))
				copy(cand, weights)
				cand[i] = w
				trial, err := t.eval(cand)
				if err != nil {
					return nil, err
				}
				result.History = append(result.History, trial)
				if trial.Score < best.Score {
					best = trial
					weights = cand
					improved = true
					break
				}
			}
		}
		if best.Score <= t.target.Tolerance {
			result.Converged = true
			break
		}
		if !improved {
			break
		}
	}
	result.Best = best
	return result, nil
}

// eval 以候選權重跑一次模擬並評分。
func (t *Tuner) eval(weights []int) (Trial, error) {
	raw, err := t.rawWith(weights)
	if err != nil {
		return Trial{}, err
	}
	sim, err := t.lab.NewSimulatorByJSON(raw, t.cfg.Seed)
	if err != nil {
		return Trial{}, err
	}
	st, _, err := sim.Sim(t.cfg.Rounds, false)
	if err != nil {
		return Trial{}, err
	}
	trial := Trial{
		Weights:   weights,
		MatchRate: st.Summary.MatchRate,
		AvgCells:  st.Clear.AvgCells,
	}
	trial.Score = t.score(trial)
	return trial, nil
}

// score 以相對誤差加權合成單一評分，越小越好。
func (t *Tuner) score(tr Trial) float64 {
	var terms []float64
	if t.target.MatchRate > 0 {
		terms = append(terms, math.Abs(tr.MatchRate-t.target.MatchRate)/t.target.MatchRate)
	}
	if t.target.AvgCells > 0 {
		terms = append(terms, math.Abs(tr.AvgCells-t.target.AvgCells)/t.target.AvgCells)
	}
	return stat.Mean(terms, nil)
}

// rawWith 回傳把 color_weights 換成候選權重後的關卡 JSON。
// 若原設定走均勻分佈，會改走加權 LUT，否則候選權重不會生效。
func (t *Tuner) rawWith(weights []int) ([]byte, error) {
	ls := *t.base
	ls.Generator.ColorWeights = weights
	if ls.Generator.ColorGenType == spec.ColorGenUniform {
		ls.Generator.ColorGenTypeStr = "ColorGenByWeightLUT"
	}
	raw, err := json.Marshal(&ls)
	if err != nil {
		return nil, errs.Wrap(err, fmt.Sprintf("marshal level %s failed", ls.LevelName))
	}
	return raw, nil
}
