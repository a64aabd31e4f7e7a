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

// Package demo 提供內建示範關卡與最短路徑的組裝函式，
// 讓 cmd 與測試不需要外部設定檔即可啟動完整的 Matchlab。
package demo

import (
	"github.com/zintix-labs/matchlab"
	"github.com/zintix-labs/matchlab/catalog"
	"github.com/zintix-labs/matchlab/demo/demo_configs"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/server/logger"
	"github.com/zintix-labs/matchlab/server/svrcfg"
)

func New() (*catalog.Catalog, error) {
	return catalog.New(demo_configs.FS)
}

func NewServerConfig() (*svrcfg.SvrCfg, error) {
	lab, err := matchlab.NewAuto(
		core.Default(),
		matchlab.Configs(demo_configs.FS),
	)
	if err != nil {
		return nil, errs.NewFatal("new matchlab failed:" + err.Error())
	}
	scfg := &svrcfg.SvrCfg{
		Log:         logger.NewDefaultAsyncLogger(logger.ModeDev),
		PoolBufSize: 1,
		Matchlab:    lab,
	}
	return scfg, nil
}

func NewMatchlab() (*matchlab.Matchlab, error) {
	return matchlab.NewAuto(
		core.Default(),
		matchlab.Configs(demo_configs.FS),
	)
}
