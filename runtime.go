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
	"context"
	"sync"
	"sync/atomic"

	"github.com/zintix-labs/matchlab/dto"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/spec"
)

type MatchRuntime struct {
	// build-time 來源（只讀引用）
	lab *Matchlab // 方便取 catalog/corefactory 與共用一些 helper

	// data-plane：關鍵主池（每個關卡一個 pool）
	pools map[spec.LID]*EnginePool
	ids   []spec.LID // 固定順序，用於觀測/列舉（來自 cat.IDs()）

	// lifecycle
	done      chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool
	reason    atomic.Value // string

	// runtime 行為設定（一期先簡單，之後可擴展）
	poolSize int // 每個關卡的池大小（BuildRuntime(n) 的 n）
}

func (rt *MatchRuntime) Swap(ctx context.Context, req *dto.SwapRequest) (dto.SwapResult, error) {
	select {
	case <-ctx.Done():
		// 如果通知取消
		return dto.SwapResult{}, errs.NewWarn("swap canceled/timeout: " + ctx.Err().Error())
	case <-rt.done:
		// done is the source of truth; keep a fast boolean for cheap reads/telemetry.
		rt.closed.Store(true)
		return dto.SwapResult{}, errs.NewFatal("match runtime closed: " + rt.ClosedReason())
	default:
	}

	ep, ok := rt.pools[req.LevelId]
	if !ok {
		return dto.SwapResult{}, errs.NewWarn("level id not found")
	}

	// pool 自己會處理 done / close / rebuild / metrics
	return ep.Swap(ctx, req)
}

// Close transitions the runtime into a closed state. It is safe to call multiple times.
func (rt *MatchRuntime) Close() {
	rt.closeWithReason("closed")
}

// closeWithReason closes the runtime and records the reason (written once).
func (rt *MatchRuntime) closeWithReason(reason string) {
	rt.closeOnce.Do(func() {
		if reason == "" {
			reason = "closed"
		}
		rt.reason.Store(reason)
		rt.closed.Store(true)
		close(rt.done)
		for _, ep := range rt.pools {
			ep.Close()
		}
	})
}

// Closed reports whether the runtime has been closed.
func (rt *MatchRuntime) Closed() bool {
	return rt.closed.Load()
}

func (rt *MatchRuntime) ClosedReason() string {
	if v := rt.reason.Load(); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Metrics 依固定 ID 順序回傳每個關卡池的觀測快照。
func (rt *MatchRuntime) Metrics() []EnginePoolMetrics {
	ms := make([]EnginePoolMetrics, 0, len(rt.ids))
	for _, id := range rt.ids {
		if ep, ok := rt.pools[id]; ok {
			ms = append(ms, ep.Metrics())
		}
	}
	return ms
}
