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

package spec

import (
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/sampler"
)

// ColorGenType 表示補盤/建盤時的顏色選擇策略。
type ColorGenType int

const (
	ColorGenTypeNone ColorGenType = iota
	ColorGenUniform
	ColorGenByWeightLUT
	ColorGenByWeightAlias
)

var ColorGenTypeMap = map[string]ColorGenType{
	"ColorGenTypeNone":      ColorGenTypeNone,
	"ColorGenUniform":       ColorGenUniform,
	"ColorGenByWeightLUT":   ColorGenByWeightLUT,
	"ColorGenByWeightAlias": ColorGenByWeightAlias,
}

// GeneratorSetting 生成棋子顏色的設定。
//
// ColorWeights 留空時默認等權重。權重總和小時走 LUT，權重懸殊或
// 總和很大時建議在設定檔指定 ColorGenByWeightAlias。
type GeneratorSetting struct {
	ColorGenTypeStr string              `yaml:"color_gen_type" json:"color_gen_type"`
	ColorGenType    ColorGenType        `yaml:"-"              json:"-"`
	ColorWeights    []int               `yaml:"color_weights"  json:"color_weights"`
	ColorLUT        sampler.LUT         `yaml:"-"              json:"-"`
	ColorAlias      *sampler.AliasTable `yaml:"-"              json:"-"`
	initFlag        bool
}

// Init 建立顏色抽樣所需的查表資料。
// numColors 來自 BoardSetting，用於默認權重與長度檢查。
func (gs *GeneratorSetting) Init(numColors int) error {
	if gs.initFlag {
		return nil
	}

	// 1. 解析 ColorGenType；設定檔未指定時默認均勻分佈
	if gs.ColorGenType == ColorGenTypeNone {
		if gs.ColorGenTypeStr == "" {
			gs.ColorGenType = ColorGenUniform
		} else {
			cgt, ok := ColorGenTypeMap[gs.ColorGenTypeStr]
			if !ok {
				return errs.NewFatal("invalid color gen type")
			}
			gs.ColorGenType = cgt
		}
	}

	// 2. 權重檢查；留空默認等權重
	if len(gs.ColorWeights) == 0 {
		gs.ColorWeights = make([]int, numColors)
		for i := range gs.ColorWeights {
			gs.ColorWeights[i] = 1
		}
	}
	if len(gs.ColorWeights) != numColors {
		return errs.NewFatal("len(color_weights) != num_colors")
	}

	// 3. 依策略建表
	switch gs.ColorGenType {
	case ColorGenByWeightLUT:
		gs.ColorLUT = sampler.BuildLUT(gs.ColorWeights)
	case ColorGenByWeightAlias:
		gs.ColorAlias = sampler.BuildAliasTable(gs.ColorWeights)
	case ColorGenUniform:
		// 均勻分佈不需要建表
	default:
		return errs.NewFatal("invalid color gen type")
	}

	gs.initFlag = true
	return nil
}
