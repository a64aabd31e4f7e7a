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
	"fmt"
	"math"

	"github.com/zintix-labs/matchlab/errs"
)

// BoardSetting 描述棋盤樣式的設定。
//
// Fields:
//   - Columns: 棋盤行數（寬）
//   - Rows: 棋盤列數（高）
//   - NumColors: 普通棋子顏色數
//   - Mask: 棋盤遮罩，1 代表有格子、0 為洞；若留空則代表完整矩陣。
type BoardSetting struct {
	Columns    int     `yaml:"columns"    json:"columns"`
	Rows       int     `yaml:"rows"       json:"rows"`
	NumColors  int     `yaml:"num_colors" json:"num_colors"`
	Mask       []uint8 `yaml:"mask"       json:"mask"`
	ScreenSize int     `yaml:"-"          json:"-"`
	initFlag   bool
}

// Init 檢查不合法的設定
func (bs *BoardSetting) Init() error {
	// 檢查初始化旗標
	if bs.initFlag {
		return nil
	}
	// 檢查合法性
	bs.ScreenSize = bs.Rows * bs.Columns
	// 格子索引以 int16 存放、顏色以 int8 存放，超出存放範圍的設定在此擋下
	if bs.ScreenSize > math.MaxInt16 {
		return errs.NewFatal(fmt.Sprintf("screen size %d exceeds limit %d", bs.ScreenSize, math.MaxInt16))
	}
	if bs.NumColors > math.MaxInt8 {
		return errs.NewFatal(fmt.Sprintf("num_colors %d exceeds limit %d", bs.NumColors, math.MaxInt8))
	}
	// 如果Mask 不是nil，Columns x Rows 要等於 Mask長度
	if bs.Mask != nil {
		if len(bs.Mask) != bs.ScreenSize {
			return errs.NewFatal("len(mask) != screen size")
		}
		playable := 0
		for _, v := range bs.Mask {
			if v == 1 {
				playable++
			}
		}
		if playable == 0 {
			return errs.NewFatal("mask has no playable cell")
		}
	}
	bs.initFlag = true
	return nil
}

// Holes 由遮罩導出洞遮罩 (1 = 洞)；無遮罩時回傳 nil (無洞)。
func (bs *BoardSetting) Holes() []uint8 {
	if bs.Mask == nil {
		return nil
	}
	holes := make([]uint8, len(bs.Mask))
	for i, v := range bs.Mask {
		if v != 1 {
			holes[i] = 1
		}
	}
	return holes
}
