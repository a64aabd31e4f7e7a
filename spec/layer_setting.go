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

	"github.com/zintix-labs/matchlab/errs"
)

// LayerSetting 描述關卡障礙層配置，每層獨立、可同時存在。
//
// 各層留空表示該層無配置；有配置時長度必須等於 columns*rows。
// Jelly/Ice/Crate/Chocolate 的值為層數 (HP)，Locked 僅 0/1。
// 洞格 (mask 為 0) 不可配置任何障礙層。
type LayerSetting struct {
	Jelly     []uint8 `yaml:"jelly"     json:"jelly"`
	Ice       []uint8 `yaml:"ice"       json:"ice"`
	Crate     []uint8 `yaml:"crate"     json:"crate"`
	Chocolate []uint8 `yaml:"chocolate" json:"chocolate"`
	Locked    []uint8 `yaml:"locked"    json:"locked"`
	initFlag  bool
}

// Init 檢查各層長度與洞格衝突。
func (ls *LayerSetting) Init(screenSize int, mask []uint8) error {
	if ls.initFlag {
		return nil
	}

	check := func(name string, layer []uint8) error {
		if layer == nil {
			return nil
		}
		if len(layer) != screenSize {
			return errs.NewFatal(fmt.Sprintf("len(%s) != screen size", name))
		}
		if mask != nil {
			for i, v := range layer {
				if v > 0 && mask[i] != 1 {
					return errs.NewFatal(fmt.Sprintf("%s layer on hole cell %d", name, i))
				}
			}
		}
		return nil
	}

	if err := check("jelly", ls.Jelly); err != nil {
		return err
	}
	if err := check("ice", ls.Ice); err != nil {
		return err
	}
	if err := check("crate", ls.Crate); err != nil {
		return err
	}
	if err := check("chocolate", ls.Chocolate); err != nil {
		return err
	}
	if err := check("locked", ls.Locked); err != nil {
		return err
	}
	if ls.Locked != nil {
		for i, v := range ls.Locked {
			if v > 1 {
				return errs.NewFatal(fmt.Sprintf("locked layer must be 0/1, got %d at cell %d", v, i))
			}
		}
	}

	ls.initFlag = true
	return nil
}
