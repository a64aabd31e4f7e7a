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

import "github.com/zintix-labs/matchlab/errs"

// DefaultMaxCascades 為連鎖次數的預設護欄。有限棋盤下連鎖必然收斂，
// 超過護欄代表程式錯誤而非玩家可見狀態。
const DefaultMaxCascades = 1024

// RuleSetting 描述關卡規則參數。
type RuleSetting struct {
	// MaxCascades 連鎖護欄，0 表示採用 DefaultMaxCascades。
	MaxCascades int `yaml:"max_cascades" json:"max_cascades"`
	initFlag    bool
}

// Init 補默認值並檢查合法性。
func (rs *RuleSetting) Init() error {
	if rs.initFlag {
		return nil
	}
	if rs.MaxCascades == 0 {
		rs.MaxCascades = DefaultMaxCascades
	}
	if rs.MaxCascades < 1 {
		return errs.NewFatal("max_cascades must be >= 1")
	}
	rs.initFlag = true
	return nil
}
