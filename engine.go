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

package matchlab

import (
	"crypto/rand"
	"fmt"
	"math"
	"math/big"
	"sync"

	"github.com/zintix-labs/matchlab/dto"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/buf"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/sdk/gen"
	"github.com/zintix-labs/matchlab/sdk/match"
	"github.com/zintix-labs/matchlab/sdk/ops"
	"github.com/zintix-labs/matchlab/sdk/resolve"
	"github.com/zintix-labs/matchlab/spec"
)

// Engine 封裝一面「可對外提供 Swap」的棋盤引擎。
//
// 你可以把 Engine 視為棋盤的「外殼（shell）」：
//   - 對外：提供 Swap 入口（HTTP/模擬器通常只操作 Engine）。
//   - 對內：持有 RNG（Core）、盤面（board.Board）與補子來源（gen.PieceGen）。
//
// 並發語意：
//   - Engine 不是 lock-free 結構；它內含可重用的 result buffer（熱路徑），
//     因此同一面 Engine 不應被多 goroutine 同時 Swap。
//   - 若要併發模擬，由更高層建立多面 Engine 分散到不同 worker 並管理其生命週期。
//
// Buffer 語意：
//   - MoveResult 會被重用（避免 GC），每次 TrySwap 會覆寫內容。
//   - 你若需要在移動後保留結果，請在離開臨界區前轉成 DTO（或自行 copy 你需要的欄位）。
//
// initseed 用於記錄出生時的 seed（追溯/重現的基礎資訊）；完整審計仍以 Core 的 Snapshot/Restore 為準。
type Engine struct {
	levelName   string             // 關卡名稱（來自 LevelSetting.LevelName，主要用於觀測/日誌）
	levelId     spec.LID           // 關卡 ID（Catalog 內唯一；用於路由與查表）
	ls          *spec.LevelSetting // 關卡設定（唯讀共享；Engine 不改動）
	core        *core.Core         // RNG 核心（PRNG + Snapshot/Restore 合約；熱路徑會頻繁取樣）
	board       *board.Board       // 盤面（棋子 + 障礙層的唯一事實）
	gen         *gen.PieceGen      // 補子來源（落子顏色分布由 GeneratorSetting 決定）
	det         *match.Detector    // 連線偵測器（內部掃描 buffer 會被重用）
	groups      *match.Groups      // 偵測輸出 buffer（每次 Detect 覆寫）
	fillBuf     []int              // Gravity/Fill 的欄工作 buffer
	MoveResult  *buf.MoveResult    // 可重用的結果 buffer（熱路徑；每次 TrySwap 會覆寫）
	mu          sync.Mutex         // 防併發鎖：保護可重用 buffers 與盤面狀態一致性
	initseed    int64              // 出生 seed（便於追溯；完整重現請用 Snapshot/Restore）
	isSim       bool               // 模擬模式：不留每 pass 盤面快照，省記憶體
	maxCascades int                // 連鎖護欄（超過視為程式錯誤，直接 panic）
}

// newEngine 以「隨機 seed」建立 Engine。
//
// 這裡使用 crypto/rand 產生 seed 是為了：
//   - 在對外服務情境避免可預測 RNG
//   - 同時保留可追溯性（seed 會被記錄在 Engine.initseed）
//
// seed 只保證了新建的 Engine 起點，如果需要在任意步後將引擎"重設"到任意 Core 節點，請利用 Snapshot Restore 來操作
func newEngine(ls *spec.LevelSetting, cf core.PRNGFactory, isSim bool) (*Engine, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, errs.Wrap(err, "new crypto seed error in go std lib")
	}
	return newEngineWithSeed(ls, cf, seed.Int64(), isSim)
}

// newEngineWithSeed 以指定 seed 建立 Engine。
//
// 這是最常用的「可重現」入口：同一份 LevelSetting + 同一個 seed，應能得到一致的隨機序列與初始盤面。
//
// 建立流程：
//  1. core.New(cf.New(seed)) 建出 RNG 核心
//  2. 依 BoardSetting 建盤，以 FillByScan 鋪滿（落子顏色不做去重）
//  3. stabilize：消去鋪盤殘留的連線並補盤直到穩定（建構不計任何統計）
//  4. 依 LayerSetting 套上障礙層（果凍/冰/木箱/巧克力/鎖）
func newEngineWithSeed(ls *spec.LevelSetting, cf core.PRNGFactory, seed int64, isSim bool) (*Engine, error) {
	e := &Engine{
		levelName:   ls.LevelName,
		levelId:     ls.LevelID,
		ls:          ls,
		core:        core.New(cf.New(seed)),
		initseed:    seed,
		isSim:       isSim,
		maxCascades: ls.Rules.MaxCascades,
	}
	e.board = board.New(ls.Board.Columns, ls.Board.Rows, ls.Board.NumColors, ls.Board.Holes())
	e.gen = gen.NewPieceGen(e.core, &ls.Board, &ls.Generator)
	e.det = match.NewDetector()
	e.groups = new(match.Groups)
	e.fillBuf = make([]int, ls.Board.Columns)
	e.MoveResult = buf.NewMoveResult(ls)

	ops.FillByScan(e.board, e.gen)
	if err := e.stabilize(); err != nil {
		return nil, err
	}
	e.board.ApplyLayers(ls.Layers.Jelly, ls.Layers.Ice, ls.Layers.Crate, ls.Layers.Chocolate, ls.Layers.Locked)

	return e, nil
}

// stabilize 消去建構期殘留的連線直到盤面穩定。
//
// FillByScan 落子不避開連線，鋪完的盤面通常帶有殘留連線，這個迴圈
// 就是建構期唯一的去重機制，多半會跑上幾個 pass。建構期消去不產生
// 特殊棋子，也不計入任何統計。
func (e *Engine) stabilize() error {
	for pass := 0; e.det.HasMatches(e.board); pass++ {
		if pass >= e.maxCascades {
			return errs.NewFatal(fmt.Sprintf("level %s: board construction did not stabilize within %d passes", e.levelName, e.maxCascades))
		}
		e.det.Detect(e.board, e.groups)
		for i := 0; i < e.groups.Count(); i++ {
			for _, idx := range e.groups.Group(i) {
				e.board.RemovePiece(int(idx))
			}
		}
		ops.Gravity(e.board, e.fillBuf)
		ops.Fill(e.board, e.gen, e.fillBuf)
	}
	return nil
}

// Swap 為主要公開入口，會驗證交換請求，執行移動並回傳 Swap 結果。
//
// StartState 語意（與 dto.SwapRequest 的約定一致）：
//   - 缺省：新局，引擎沿用自身 RNG 流水。
//   - 有值：引擎先 restore 該 Core 快照再執行移動，之後「從該點繼續」
//     （resume 語意）。注意盤面是有狀態的：回放一整局請由相同 seed
//     重建 Engine（見 DevSimulator），單步帶 StartState 只保證 RNG 流水。
func (e *Engine) Swap(r *dto.SwapRequest) (dto.SwapResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	// 1. 校驗請求合法性
	if err := e.valid(r); err != nil {
		return dto.SwapResult{}, err
	}
	// 2. parse dto to inner move request
	req, err := r.Parse()
	if err != nil {
		return dto.SwapResult{}, err
	}

	// 3. get start snapshot
	startsnap, err := e.SnapshotCore()
	if err != nil {
		return dto.SwapResult{}, errs.NewFatal("before snapshot error " + err.Error())
	}
	if req.StartState.HasPayload() {
		startsnap = req.StartState.StartCoreSnap
		if err := e.RestoreCore(req.StartState.StartCoreSnap); err != nil {
			return dto.SwapResult{}, errs.NewWarn("restore core err " + err.Error())
		}
	}

	// 4. get inner moveResult
	mr := e.TrySwap(req.FromCol, req.FromRow, req.ToCol, req.ToRow)

	// 5. get after snapshot
	aftersnap, err := e.SnapshotCore()
	if err != nil {
		if e2 := e.RestoreCore(startsnap); e2 != nil {
			return dto.SwapResult{}, errs.NewFatal("fall back err " + e2.Error())
		}
		return dto.SwapResult{}, errs.NewWarn("after snapshot error " + err.Error())
	}

	// 6. dto
	return dto.NewSwapResultDTO(mr, startsnap, aftersnap)
}

// TrySwap 執行一次交換並結算全部連鎖，回傳內部 MoveResult。
//
// 結果分類：
//   - Rejected：輸入不合法（越界/同格/不相鄰/洞/鎖），盤面完全未動。
//   - NoOp：交換合法但沒有產生連線，交換已被回退。
//   - Applied：至少一條連線，已結算全部 cascade pass。
//
// 回傳的 MoveResult 為 Engine 內部重用 buffer，下一次 TrySwap 會覆寫。
func (e *Engine) TrySwap(fromCol, fromRow, toCol, toRow int) *buf.MoveResult {
	mr := e.MoveResult
	mr.Reset()

	if !e.board.InBounds(fromCol, fromRow) || !e.board.InBounds(toCol, toRow) {
		mr.JellyRemaining = e.board.JellyRemaining()
		return mr // rejected
	}
	from := e.board.Idx(fromCol, fromRow)
	to := e.board.Idx(toCol, toRow)
	mr.FromIdx = from
	mr.ToIdx = to

	if from == to || !e.board.IsAdjacent(from, to) ||
		e.board.IsHole(from) || e.board.IsHole(to) ||
		e.board.IsLocked(from) || e.board.IsLocked(to) {
		mr.JellyRemaining = e.board.JellyRemaining()
		return mr // rejected
	}

	e.board.Swap(from, to)
	if !e.det.HasMatches(e.board) {
		e.board.Swap(from, to) // revert
		mr.Outcome = buf.OutcomeNoOp
		mr.JellyRemaining = e.board.JellyRemaining()
		return mr
	}

	mr.Outcome = buf.OutcomeApplied
	e.resolveBoard(mr)
	mr.JellyRemaining = e.board.JellyRemaining()
	return mr
}

// resolveBoard 結算連鎖直到盤面穩定：偵測 → 消除 → 重力 → 補盤。
//
// 超過 maxCascades 代表補子分布或消除邏輯出錯，直接 panic 讓上層
// （EnginePool / 模擬器）以 fatal 處理，不要吞掉。
func (e *Engine) resolveBoard(mr *buf.MoveResult) {
	for passes := 0; ; passes++ {
		if e.det.Detect(e.board, e.groups) == 0 {
			return
		}
		if passes >= e.maxCascades {
			panic(fmt.Sprintf("level %s: cascade passes exceeded guard %d", e.levelName, e.maxCascades))
		}
		st := resolve.ApplyGroups(e.board, e.groups, mr.ColorHistogram)
		ops.Gravity(e.board, e.fillBuf)
		ops.Fill(e.board, e.gen, e.fillBuf)

		var snap []board.Piece
		if !e.isSim {
			snap = e.board.SnapshotPieces(nil)
		}
		mr.AddPass(st.CellsCleared, st.JellyCleared, snap)
	}
}

// MoveInternal 由引擎自行挑一步隨機交換；常用於模擬器或測試
//
// 請勿在正式環境使用
//
// 此行為跳過 DTO 層，直接回傳內部 MoveResult（重用 buffer）。
// 隨機策略是「亂點玩家」：均勻挑一個非洞格，再均勻挑它的一個鄰居。
// 挑到鎖格交給 TrySwap 判 Rejected，維持與真實輸入相同的結果分類。
func (e *Engine) MoveInternal() *buf.MoveResult {
	size := e.board.Size()
	for tries := 0; tries < 64; tries++ {
		from := e.core.IntN(size)
		if e.board.IsHole(from) {
			continue
		}
		ns := e.board.Neighbors(from)
		if len(ns) == 0 {
			continue
		}
		to := ns[e.core.IntN(len(ns))]
		fc, fr := e.board.ColRow(from)
		tc, tr := e.board.ColRow(to)
		return e.TrySwap(fc, fr, tc, tr)
	}
	// 盤面幾乎全洞才會走到這裡；回一個必然 Rejected 的移動
	return e.TrySwap(-1, -1, -1, -1)
}

// Board 回傳內部盤面；僅供觀測用（API 盤面查詢、測試斷言），請勿改動。
func (e *Engine) Board() *board.Board { return e.board }

// LevelSetting 回傳唯讀關卡設定。
func (e *Engine) LevelSetting() *spec.LevelSetting { return e.ls }

// InitSeed 回傳出生 seed。
func (e *Engine) InitSeed() int64 { return e.initseed }

func (e *Engine) valid(req *dto.SwapRequest) error {
	if e.levelId != req.LevelId {
		return errs.NewWarn("level id is not matched")
	}
	if e.levelName != req.LevelName {
		return errs.NewWarn("level name is not matched")
	}
	return nil
}

// SnapshotCore 取得Core狀態暫存 當前僅提供取得Core狀態
//
// 之後要實作斷線重連時候提供checkpoint加入必要恢復資訊時實作
// SnapShot() <- 保留語意
func (e *Engine) SnapshotCore() ([]byte, error) {
	return e.core.Snapshot()
}

// RestoreCore 恢復Core狀態暫存 當前僅提供恢復Core狀態
//
// 之後要實作斷線重連時候提供checkpoint加入必要恢復資訊時實作
// Restore() <- 保留語意
func (e *Engine) RestoreCore(src []byte) error {
	return e.core.Restore(src)
}
