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
	"github.com/zintix-labs/matchlab/corefmt"
	"github.com/zintix-labs/matchlab/dto"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/stats"
)

// DevSimulator
//
// 只提供給Dev模式使用的模擬器，單線(不併發)，重點在可審計、可重現
type DevSimulator struct {
	sim      *Simulator // 只開放Sim功能
	e        *Engine    // 同步seed
	before   []byte
	after    []byte
	before64 string
	after64  string
}

// DevMoveReport 逐步模式的完整報表：每一步都走正式 Swap 路徑（含 DTO 與快照）。
type DevMoveReport struct {
	Before         string           `json:"start_b64u"`
	After          string           `json:"after_b64u"`
	Round          int              `json:"round"`
	Applied        int              `json:"applied"`
	NoOp           int              `json:"no_op"`
	Rejected       int              `json:"rejected"`
	CellsCleared   int              `json:"cells_cleared"`
	JellyCleared   int              `json:"jelly_cleared"`
	JellyRemaining int              `json:"jelly_left"`
	Results        []dto.SwapResult `json:"results"`
}

// Move 手動指定座標走一步，走正式 Swap 路徑（可審計）。
func (d *DevSimulator) Move(fromCol, fromRow, toCol, toRow int) (dto.SwapResult, error) {
	req := &dto.SwapRequest{
		LevelName: d.e.levelName,
		LevelId:   d.e.levelId,
		FromCol:   fromCol,
		FromRow:   fromRow,
		ToCol:     toCol,
		ToRow:     toRow,
	}
	return d.e.Swap(req)
}

// moveOne 由引擎 RNG 挑一步隨機交換，再走正式 Swap 路徑。
// 挑步與結算共用同一條 RNG 流水，整段過程可由 before 快照重現。
func (d *DevSimulator) moveOne() (dto.SwapResult, error) {
	b := d.e.board
	size := b.Size()
	fc, fr, tc, tr := -1, -1, -1, -1
	for tries := 0; tries < 64; tries++ {
		from := d.e.core.IntN(size)
		if b.IsHole(from) {
			continue
		}
		ns := b.Neighbors(from)
		if len(ns) == 0 {
			continue
		}
		to := ns[d.e.core.IntN(len(ns))]
		fc, fr = b.ColRow(from)
		tc, tr = b.ColRow(to)
		break
	}
	return d.Move(fc, fr, tc, tr)
}

func (d *DevSimulator) Moves(round int) (DevMoveReport, error) {
	// 限制檢查
	if round < 1 || round > 5000 {
		return DevMoveReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}

	// move
	ds := make([]dto.SwapResult, 0, round)
	for range round {
		result, err := d.moveOne()
		if err != nil {
			return DevMoveReport{}, errs.Wrap(err, "move error")
		}
		ds = append(ds, result)
	}
	// 統計
	applied, noop, rejected, cells, jelly := 0, 0, 0, 0, 0
	for _, r := range ds {
		switch r.Outcome {
		case "applied":
			applied++
		case "no_op":
			noop++
		default:
			rejected++
		}
		cells += r.CellsCleared
		jelly += r.JellyCleared
	}

	de := DevMoveReport{
		Before:         ds[0].State.StartCoreSnapB64U,
		After:          ds[len(ds)-1].State.AfterCoreSnapB64U,
		Round:          len(ds),
		Applied:        applied,
		NoOp:           noop,
		Rejected:       rejected,
		CellsCleared:   cells,
		JellyCleared:   jelly,
		JellyRemaining: ds[len(ds)-1].JellyRemaining,
		Results:        ds,
	}
	return de, nil
}

func (d *DevSimulator) RestoreMoves(be64 string, round int) (DevMoveReport, error) {
	// 限制檢查
	if round < 1 || round > 5000 {
		return DevMoveReport{}, errs.NewWarn("round must be between 1 and 5,000")
	}
	// 解析seed
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevMoveReport{}, errs.NewWarn("decode seed failed" + err.Error())
	}
	// restore
	if err := d.e.RestoreCore(be); err != nil {
		return DevMoveReport{}, errs.NewWarn("engine restore failed")
	}
	return d.Moves(round)
}

type DevSimReport struct {
	Before string            `json:"before"`
	After  string            `json:"after"`
	Stat   *stats.StatReport `json:"statistic"`
}

func (d *DevSimulator) Sim(round int) (DevSimReport, error) {
	// 先存 before 快照
	e := d.sim.eBuf[0]
	be, err := e.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	be64 := corefmt.EncodeBase64URL(be)
	d.before = be
	d.before64 = be64

	// Sim
	if round < 1 || round > 3_000_000 {
		return DevSimReport{}, errs.NewWarn("round must be between 1 and 3,000,000")
	}
	stat, _, err := d.sim.Sim(round, false)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "sim failed")
	}

	// 再存 after 快照
	af, err := e.SnapshotCore()
	if err != nil {
		return DevSimReport{}, err
	}
	af64 := corefmt.EncodeBase64URL(af)
	d.after = af
	d.after64 = af64

	return DevSimReport{
		Before: be64,
		After:  af64,
		Stat:   stat,
	}, nil
}

func (d *DevSimulator) RestoreSim(be64 string, round int) (DevSimReport, error) {
	// 反解析 string -> []byte
	be, err := corefmt.DecodeBase64URL(be64)
	if err != nil {
		return DevSimReport{}, errs.Wrap(err, "decode seed failed")
	}
	d.before = be
	d.before64 = be64

	// restore
	if err := d.sim.eBuf[0].RestoreCore(be); err != nil {
		return DevSimReport{}, errs.Wrap(err, "restore simulator failed")
	}

	return d.Sim(round)
}
