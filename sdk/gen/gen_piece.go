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

package gen

import (
	"log"

	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/spec"
)

// PickColorFn 描述熱路徑顏色抽樣函式。
type PickColorFn func(*PieceGen) int8

// pickColorMap 將 ColorGenType 與實際抽樣函式綁定，初始化時決定後便不再修改。
var pickColorMap = map[spec.ColorGenType]PickColorFn{
	spec.ColorGenUniform:       pickColorUniform,
	spec.ColorGenByWeightLUT:   pickColorByLUT,
	spec.ColorGenByWeightAlias: pickColorByAlias,
}

// PieceGen 保存生成棋子所需的所有狀態。
// 建盤與補盤共用同一個生成器，確保同一 seed 下的棋子序列一致。
type PieceGen struct {
	core             *core.Core
	GeneratorSetting *spec.GeneratorSetting
	NumColors        int
	// 抽樣函數 (避免熱路徑重複判斷策略)
	pickColorFn PickColorFn
}

// NewPieceGen 根據設定與核心亂數器建立生成器，並立即完成初始化，
// 讓之後的生成流程可以免配置快速執行。
func NewPieceGen(core *core.Core, boardSetting *spec.BoardSetting, genSetting *spec.GeneratorSetting) *PieceGen {
	result := &PieceGen{
		core:             core,
		GeneratorSetting: genSetting,
		NumColors:        boardSetting.NumColors,
	}
	result.init(boardSetting)
	return result
}

// init 對於已經資料賦值的 PieceGen 作初始化
func (pg *PieceGen) init(boardSetting *spec.BoardSetting) error {
	// 防止錯誤
	if err := boardSetting.Init(); err != nil {
		return err
	}
	if err := pg.GeneratorSetting.Init(boardSetting.NumColors); err != nil {
		return err
	}

	if val, ok := pickColorMap[pg.GeneratorSetting.ColorGenType]; ok {
		pg.pickColorFn = val
	} else {
		log.Fatal("ColorGenType wrong")
	}
	return nil
}

// NextPiece 生成一顆普通棋子，滿足 ops.PieceSource。
// col 目前不影響權重 (全盤共用一組顏色權重)，保留參數以便逐行權重擴充。
func (pg *PieceGen) NextPiece(col int) board.Piece {
	_ = col
	return board.NormalPiece(pg.pickColorFn(pg))
}

// PickColor 抽出一個顏色，熱路徑函數。
func (pg *PieceGen) PickColor() int8 {
	return pg.pickColorFn(pg)
}

// 均勻分佈抽色
func pickColorUniform(pg *PieceGen) int8 {
	return int8(pg.core.IntN(pg.NumColors))
}

// 依照顏色權重抽色 (LUT)
func pickColorByLUT(pg *PieceGen) int8 {
	return int8(pg.GeneratorSetting.ColorLUT.Pick(pg.core))
}

// 依照顏色權重抽色 (AliasTable，權重總和很大時使用)
func pickColorByAlias(pg *PieceGen) int8 {
	return int8(pg.GeneratorSetting.ColorAlias.Pick(pg.core))
}
