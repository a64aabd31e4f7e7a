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

package dto

import (
	"github.com/zintix-labs/matchlab/corefmt"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/sdk/buf"
	"github.com/zintix-labs/matchlab/spec"
)

type SwapResult struct {
	LevelName      string          `json:"level"`            // 關卡名稱
	LevelID        spec.LID        `json:"lid"`              // 關卡編號
	Outcome        string          `json:"outcome"`          // applied / no_op / rejected
	FromIdx        int             `json:"from"`             // 交換來源格 (扁平索引)
	ToIdx          int             `json:"to"`               // 交換目標格
	CellsCleared   int             `json:"cells"`            // 實際移除的棋子總數
	JellyCleared   int             `json:"jelly"`            // 削減的果凍層總數
	JellyRemaining int             `json:"jelly_left"`       // 全盤剩餘果凍層數
	CascadePasses  int             `json:"cascades"`         // 連鎖 pass 數
	ColorHistogram []int           `json:"colors,omitempty"` // 顏色 → 被消耗格數
	Passes         []PassResultDTO `json:"passes,omitempty"` // 每個 pass 的落地紀錄
	State          SwapState       `json:"swap_state"`       // 引擎狀態
}

// PassResultDTO 為對外輸出的 PassResult 序列化結構。
type PassResultDTO struct {
	PassId       int     `json:"pass"`             // 第幾個連鎖 pass
	CellsCleared int     `json:"cells"`            // 本 pass 移除的棋子數
	JellyCleared int     `json:"jelly"`            // 本 pass 削減的果凍層
	Screen       []int16 `json:"screen,omitempty"` // pass 後盤面 (EncodePiece 編碼)
}

type SwapState struct {
	StartCoreSnapB64U string `json:"start_b64u"` // 必回
	AfterCoreSnapB64U string `json:"after_b64u"` // 必回
}

// EncodePiece 將棋子壓成單一 int16 傳輸值：高位元組放 Kind，低位元組放顏色。
// 空格 (KindNone) 編為 -1，前端不需要解碼即可判斷。
func EncodePiece(p board.Piece) int16 {
	if p.Kind == board.KindNone {
		return -1
	}
	return int16(p.Kind)<<8 | int16(uint8(p.Color))
}

// DecodePiece 是 EncodePiece 的反向操作。
func DecodePiece(v int16) board.Piece {
	if v < 0 {
		return board.EmptyPiece
	}
	return board.Piece{Kind: board.Kind(v >> 8), Color: int8(uint8(v))}
}

// NewSwapResultDTO 將內部 MoveResult 轉為對外輸出結構。
//
// start / after 為本次移動前後的 RNG Core 快照 (回放與續玩的依據)。
func NewSwapResultDTO(mr *buf.MoveResult, start, after []byte) (SwapResult, error) {
	if mr == nil {
		return SwapResult{}, errs.NewWarn("move result is nil")
	}
	state := SwapState{
		StartCoreSnapB64U: corefmt.EncodeBase64URL(start),
		AfterCoreSnapB64U: corefmt.EncodeBase64URL(after),
	}

	dto := SwapResult{
		LevelName:      mr.LevelName,
		LevelID:        mr.LevelID,
		Outcome:        mr.Outcome.String(),
		FromIdx:        mr.FromIdx,
		ToIdx:          mr.ToIdx,
		CellsCleared:   mr.CellsCleared,
		JellyCleared:   mr.JellyCleared,
		JellyRemaining: mr.JellyRemaining,
		CascadePasses:  mr.CascadePasses,
		State:          state,
	}
	if mr.Outcome == buf.OutcomeApplied {
		dto.ColorHistogram = append([]int(nil), mr.ColorHistogram...)
	}

	if len(mr.PassResults) > 0 {
		snap := snapshotScreens(mr)
		dto.Passes = make([]PassResultDTO, len(mr.PassResults))
		for i, p := range mr.PassResults {
			dto.Passes[i] = PassResultDTO{
				PassId:       p.PassId,
				CellsCleared: p.CellsCleared,
				JellyCleared: p.JellyCleared,
				Screen:       screenDtoFromSnap(p.ScreenStart, snap),
			}
		}
	}

	return dto, nil
}

// moveSnapshot
//
// 對於要深拷貝且零碎的物件作一次集中編碼快照
// 讓後續Dto時候都只對快照作切片，避免了多次make/拷貝的GC波動
type moveSnapshot struct {
	Screens    []int16
	ScreenSize int
}

func snapshotScreens(mr *buf.MoveResult) *moveSnapshot {
	s := moveSnapshot{
		ScreenSize: mr.ScreenSize,
	}
	// 一次性編碼全部堆疊的盤面快照
	s.Screens = make([]int16, len(mr.Screens))
	for i, p := range mr.Screens {
		s.Screens[i] = EncodePiece(p)
	}
	return &s
}

func screenDtoFromSnap(start int, snap *moveSnapshot) []int16 {
	if start < 0 {
		return nil
	}
	end := start + snap.ScreenSize
	if end > len(snap.Screens) {
		return nil
	}
	return snap.Screens[start:end] // 不拷貝
}
