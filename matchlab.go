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

// Package matchlab 提供 Matchlab 引擎的「組裝入口（assembler）」與「運行入口（runtime entry）」。
//
// 你可以把 Matchlab 視為一個「可被後端/模擬器使用的 runtime」，它負責把下列兩個必需的地基組裝在一起，並提供建立 Engine 的入口：
//  1. Catalog：關卡目錄（Single Source of Truth / SSOT），定義有哪些關卡、各自對應的設定檔名稱（ConfigName）。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// 設計重點：
//   - Matchlab 本身不綁定任何「檔案路徑」概念：設定檔來源一律以 fs.FS 的形式注入。
//   - Matchlab 會持有一份 Catalog（你要跑哪一批關卡/設定檔）。
//   - Engine 是對外提供 Swap 的最小單位；關卡設計者主要操作的是 spec 內的設定結構。
//
// 典型使用情境：
//   - 後端服務（HTTP）：由 Matchlab 建立 Engine，Engine 對外提供 Swap。
//   - 模擬器（sim）：由 Matchlab 建立多面 Engine 進行大量模擬。
//
// 注意：此套引擎目前以三消領域為中心（Swap -> Result），不是泛用遊戲框架。
package matchlab

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io/fs"
	"math"
	"math/big"
	"path/filepath"
	"strings"

	"github.com/zintix-labs/matchlab/catalog"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/spec"
)

// Configs 用來把一或多個設定檔來源（fs.FS）打包成 New() 需要的參數。
//
// 為什麼是 fs.FS：
//   - 你可以用 go:embed 把 configs 直接編進 binary（部署最穩定，不依賴工作目錄）。
//   - 也可以用 os.DirFS 在本機開發時讀取目錄。
//   - 甚至可以用自製的 MultiFS 來合併多個來源。
//
// Matchlab 不解析「路徑」：它只依賴 fs.FS + ConfigName（檔名）來取得設定內容。
func Configs(cfgs ...fs.FS) []fs.FS {
	return cfgs
}

// Matchlab 是「組裝器（assembler）」與「運行入口（runtime entry）」：
//
// 它把兩個必需的地基組合起來：
//  1. Catalog：關卡目錄（SSOT），定義有哪些關卡、各自對應的設定檔名稱。
//  2. PRNGFactory：亂數核心工廠，保證可重現（reproducible）與可審計（auditable）。
//
// Matchlab 本身不綁定任何「檔案路徑」概念：設定檔來源一律由 fs.FS 提供。
//
// 使用流程通常分成兩階段：
//   - 註冊/組裝階段（registration/build）：建立 catalog、檢查重複與缺漏。
//   - 執行階段（runtime）：依據關卡 ID 產生 Engine，並在 Engine 上執行 Swap。
//
// 重要設計原則：
//   - Catalog 的 ID 唯一性只保證在「同一個 Matchlab instance」內（不同 Matchlab 之間不做全域保證）。
//   - 你要跑哪一批關卡、哪一套設定檔，必須由 New() 的參數明確決定。
//   - runtime 一旦開始（例如已建立 Engine 並對外服務），不建議再變更 Catalog（避免非預期行為）。
//
// 實務例子（概念示意）：
//
//	// 1) 準備 configs（通常是 go:embed 或 DirFS）
//	// 2) 組裝 Matchlab，取得可建立 Engine 的入口
//	//	lab, _ := matchlab.NewAuto(cf, matchlab.Configs(cfgFS))
//	//	e, _ := lab.NewEngine(1001, false)
//	//	// e.Swap(...) -> 取得結果（通常再轉成 DTO 回傳）
type Matchlab struct {
	cat *catalog.Catalog
	cf  core.PRNGFactory
	sum []catalog.Summary
}

// New 建立一個 Matchlab instance。
//
// 這是「組裝階段（registration/build）」的入口：
//   - 會建立 Catalog（通常同時做檔名存在性/重複性檢查，避免 runtime 才爆）。
//   - 會保存 PRNGFactory，確保由這個 Matchlab 建出來的 Engine 在 RNG 行為上具有一致性。
//
// 參數要求（是合約的一部分）：
//   - cf 不能為 nil：沒有 RNG 工廠就無法建立可重現/可審計的核心。
//   - cfgs 至少一個：沒有設定檔來源，Catalog 無法解析 LevelSetting。
func New(cf core.PRNGFactory, cfgs []fs.FS) (*Matchlab, error) {
	if cf == nil {
		return nil, errs.NewFatal("prng factory required")
	}
	if len(cfgs) == 0 {
		return nil, errs.NewFatal("configs required")
	}
	cata, err := catalog.New(cfgs...)
	if err != nil {
		return nil, err
	}
	lab := &Matchlab{
		cat: cata,
		cf:  cf,
	}
	return lab, nil
}

// NewAuto 建立一個直接進入執行階段的 Matchlab instance。
//
// 等價於 New + RegisterAll + Freeze。
func NewAuto(cf core.PRNGFactory, cfgs []fs.FS) (*Matchlab, error) {
	lab, err := New(cf, cfgs)
	if err != nil {
		return nil, err
	}
	if err := lab.RegisterAll(); err != nil {
		return nil, err
	}
	lab.Freeze()
	return lab, nil
}

func (p *Matchlab) Register(ents ...catalog.Entry) error {
	return p.cat.Register(ents...)
}

// RegisterAll
//
// 會掃描 catalog 持有的設定檔來源（fs.FS），把所有可辨識的設定檔（.yaml/.yml/.json）嘗試解析成
// *spec.LevelSetting，並用設定檔內宣告的 LevelID/LevelName 產生對應的 catalog.Entry 來批次註冊。
//
// 行為特性（重要）：
//  1. Fail-fast：任何一個檔案讀取/解析/基本檢查失敗，都會立刻回傳 error（不會忽略、也不會繼續掃完）。
//  2. 原子性：只有當「全部檔案」都成功解析並通過基本檢查時，才會呼叫 Register(...) 一次性寫入。
//     因此不會出現只註冊了一半、導致 catalog 處於半完成狀態的情況。
//  3. 穩定性：fs.WalkDir 依檔名排序處理，確保行為 determinism（方便重現與除錯）。
func (p *Matchlab) RegisterAll() error {
	cfgs := p.cat.Cfg()
	sources := cfgs.Sources()
	if len(sources) == 0 {
		return errs.NewFatal("configs required")
	}

	entries := make([]catalog.Entry, 0, 64)
	seenID := map[spec.LID]string{}
	seenName := map[string]string{}

	for _, src := range sources {
		walkErr := fs.WalkDir(src, ".", func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				if path == "." {
					return nil
				}
				return errs.NewFatal(fmt.Sprintf("configs must be flat (no subdir): %q", path))
			}

			base := filepath.Base(path)
			if strings.Contains(path, "/") && path != base {
				return errs.NewFatal(fmt.Sprintf("configs must be flat (nested path): %q", path))
			}
			if strings.HasPrefix(base, ".") {
				return nil
			}

			ext := strings.ToLower(filepath.Ext(base))
			if ext != ".yaml" && ext != ".yml" && ext != ".json" {
				return nil
			}

			raw, rerr := fs.ReadFile(src, path)
			if rerr != nil {
				return errs.NewFatal(fmt.Sprintf("read config failed: %s", base))
			}

			var (
				ls   *spec.LevelSetting
				lerr error
			)
			switch ext {
			case ".yaml", ".yml":
				ls, lerr = spec.GetLevelSettingByYAML(raw)
			case ".json":
				ls, lerr = spec.GetLevelSettingByJSON(raw)
			default:
				return errs.NewFatal(fmt.Sprintf("unsupported config format: %q", base))
			}
			if lerr != nil {
				return errs.NewFatal(fmt.Sprintf("parse levelsetting failed: %s", base))
			}

			name := strings.TrimSpace(ls.LevelName)
			if name == "" {
				return errs.NewFatal(fmt.Sprintf("level name required: %s", base))
			}

			id := ls.LevelID
			if prev, ok := seenID[id]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate level id: %d (config=%s and %s)", id, prev, base))
			}
			if _, ok := p.cat.GetByID(id); ok {
				return errs.NewFatal(fmt.Sprintf("level id already registered: %d (config=%s)", id, base))
			}
			seenID[id] = base

			nameKey := strings.ToLower(name)
			if prev, ok := seenName[nameKey]; ok {
				return errs.NewFatal(fmt.Sprintf("duplicate level name: %s (config=%s and %s)", nameKey, prev, base))
			}
			if _, ok := p.cat.GetByName(name); ok {
				return errs.NewFatal(fmt.Sprintf("level name already registered: %s (config=%s)", name, base))
			}
			seenName[nameKey] = base

			entries = append(entries, catalog.Entry{
				LID:        id,
				Name:       name,
				ConfigName: base,
			})
			return nil
		})
		if walkErr != nil {
			return walkErr
		}
	}

	if len(entries) == 0 {
		return errs.NewFatal("no config files found to register")
	}

	return p.cat.Register(entries...)
}

func (p *Matchlab) Freeze() {
	p.cat.Freeze()
}

func (p *Matchlab) EntryById(id spec.LID) (catalog.Entry, bool) {
	return p.cat.GetByID(id)
}

func (p *Matchlab) EntryByName(name string) (catalog.Entry, bool) {
	return p.cat.GetByName(name)
}

func (p *Matchlab) IDs() []spec.LID {
	return p.cat.IDs()
}

func (p *Matchlab) All() []catalog.Entry {
	return p.cat.All()
}

func (p *Matchlab) Summary() ([]catalog.Summary, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	if p.sum != nil {
		return p.sum, nil
	}
	ids := p.cat.IDs()
	cs := make([]catalog.Summary, 0, len(ids))
	for _, id := range ids {
		ls, err := p.cat.LevelSettingById(id)
		if err != nil {
			return nil, errs.NewFatal("parse level setting failed")
		}
		s := catalog.Summary{
			LID:       id,
			Name:      ls.LevelName,
			Columns:   ls.Board.Columns,
			Rows:      ls.Board.Rows,
			NumColors: ls.Board.NumColors,
		}
		cs = append(cs, s)
	}
	p.sum = cs
	return p.sum, nil
}

// NewEngine 依據 Catalog 內的關卡 ID 建立一面 Engine。
//
// 行為：
//  1. 由 Catalog 取得對應的 LevelSetting（通常來自 fs.FS 內的 YAML/JSON）。
//  2. 以 PRNGFactory 產生 RNG 核心（seed 由 crypto/rand 產生）。
//  3. 依設定鋪盤、穩定化、套障礙層（見 newEngineWithSeed）。
//
// isSim 用於區分「模擬/分析」與「對外服務」的執行模式（例如：每 pass 盤面快照只在 prod 保留以增加 sim 的性能）。
//
// 注意：seed 會被記錄在 Engine 內（initseed），用於追溯/重現；真正的可審計能力以 Core 的 Snapshot/Restore 合約為準。
func (p *Matchlab) NewEngine(id spec.LID, isSim bool) (*Engine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := p.cat.LevelSettingById(id)
	if err != nil {
		return nil, err
	}
	return newEngine(ls, p.cf, isSim)
}

// NewEngineWithSeed 與 NewEngine 相同，但由呼叫端指定初始 seed。
//
// 使用情境：
//   - 可重現的測試：同一份設定 + 同一個 seed，應產生一致的初始盤面與隨機序列（取決於 Core 實作）。
//
// 注意：seed 只是「出生入口」。若要在任意時間點完整重現，請使用 Core 的 Snapshot/Restore（以 []byte 交換狀態）。
func (p *Matchlab) NewEngineWithSeed(id spec.LID, seed int64, isSim bool) (*Engine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := p.cat.LevelSettingById(id)
	if err != nil {
		return nil, err
	}
	return newEngineWithSeed(ls, p.cf, seed, isSim)
}

func (p *Matchlab) NewEngineByJSON(raw []byte, seed int64) (*Engine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetLevelSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newEngineWithSeed(cfg, p.cf, seed, true)
}

func (p *Matchlab) NewEngineByYAML(raw []byte, seed int64) (*Engine, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetLevelSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newEngineWithSeed(cfg, p.cf, seed, true)
}

func (p *Matchlab) validCfg(cfg *spec.LevelSetting) error {
	ent, ok := p.cat.GetByID(cfg.LevelID)
	if !ok {
		return errs.NewWarn("lid not exist")
	}
	ent2, ok := p.cat.GetByName(cfg.LevelName)
	if !ok {
		return errs.NewWarn("level name not exist")
	}
	if ent.LID != ent2.LID {
		return errs.NewWarn("level id is not matched level name")
	}
	return nil
}

func (p *Matchlab) NewSimulator(id spec.LID) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := p.cat.LevelSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulator(ls, p.cf)
}

func (p *Matchlab) NewSimulatorWithSeed(id spec.LID, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	ls, err := p.cat.LevelSettingById(id)
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ls, p.cf, seed)
}

func (p *Matchlab) NewSimulatorByJSON(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetLevelSettingByJSON(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed)
}

func (p *Matchlab) NewSimulatorByYAML(raw []byte, seed int64) (*Simulator, error) {
	if !p.cat.IsFrozen() {
		return nil, errs.NewFatal("catalog is not frozen yet")
	}
	cfg, err := spec.GetLevelSettingByYAML(raw)
	if err != nil {
		return nil, err
	}
	if err := p.validCfg(cfg); err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(cfg, p.cf, seed)
}

func (p *Matchlab) BuildRuntime(poolSize int) (*MatchRuntime, error) {
	// 1. 進入 runtime 前，catalog 必須 Freeze
	p.Freeze()

	ids := p.cat.IDs()
	if len(ids) == 0 {
		return nil, errs.NewFatal("no levels registered")
	}

	rt := &MatchRuntime{
		lab:      p,
		pools:    make(map[spec.LID]*EnginePool, len(ids)),
		ids:      ids,
		done:     make(chan struct{}),
		poolSize: max(1, poolSize),
	}
	rt.reason.Store("")

	// 2. 先全建好（fail-fast + cleanup）
	for _, id := range ids {
		ls, err := p.cat.LevelSettingById(id)
		if err != nil {
			return nil, err
		}

		seed, _ := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		ep, err := newEnginePool(rt.poolSize, ls, p.cf, seed.Int64())
		if err != nil {
			return nil, err
		}
		rt.pools[id] = ep
	}
	return rt, nil
}

// NewDevSimulator
//
// 注意只能由Matchlab起
// 只提供給Dev模式使用的模擬器，重點是保持單引擎模式所以保持可重現性
func (p *Matchlab) NewDevSimulator(lid spec.LID, seed int64) (*DevSimulator, error) {
	sim, err := p.NewSimulatorWithSeed(lid, seed)
	if err != nil {
		return nil, err
	}
	e, err := p.NewEngineWithSeed(lid, seed, false)
	if err != nil {
		return nil, err
	}
	simBe, err := sim.eBuf[0].SnapshotCore()
	if err != nil {
		return nil, err
	}
	eBe, err := e.SnapshotCore()
	if err != nil {
		return nil, err
	}
	simBe64 := base64.StdEncoding.EncodeToString(simBe)
	eBe64 := base64.StdEncoding.EncodeToString(eBe)
	if eBe64 != simBe64 {
		return nil, errs.NewFatal("seeds are not equal")
	}
	dev := &DevSimulator{
		sim:      sim,
		e:        e,
		before:   eBe,
		before64: eBe64,
	}
	return dev, nil
}
