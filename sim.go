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
	"io"
	"math"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/recorder"
	"github.com/zintix-labs/matchlab/sdk/core"
	"github.com/zintix-labs/matchlab/spec"
	"github.com/zintix-labs/matchlab/stats"
)

const capPrepare int = 100

// moveTryFactor 限制單一會話的 MoveInternal 總嘗試次數（budget 的倍數）。
// Rejected 不扣步數，極端盤面（大量鎖格）可能一直拒絕；這個倍數保證迴圈必然收斂。
const moveTryFactor = 8

// Simulator 用於模擬關卡行為，可建立多面引擎並平行紀錄統計。
type Simulator struct {
	LevelName  string                   // 關卡名稱
	LevelId    spec.LID                 // 關卡編號
	moveBudget int                      // 會話步數上限(僅 SimSessions 需要)
	ls         *spec.LevelSetting       // 方便重用建立引擎與紀錄員
	cf         core.PRNGFactory         // 亂數生成器
	initSeed   int64                    // 初始下的種子
	seedmaker  *seedMaker               // 種子生成器
	eBuf       []*Engine                // 併發執行引擎實例
	rBuf       []*recorder.MoveRecorder // 併發關卡紀錄員
	sBuf       []*stats.StatReport      // 併發統計結果報表(僅Sessions需要)
}

func newSimulator(ls *spec.LevelSetting, cf core.PRNGFactory) (*Simulator, error) {
	seed, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
	if err != nil {
		return nil, err
	}
	return newSimulatorWithSeed(ls, cf, seed.Int64())
}

func newSimulatorWithSeed(ls *spec.LevelSetting, cf core.PRNGFactory, seed int64) (*Simulator, error) {
	s := &Simulator{
		LevelName:  ls.LevelName,
		LevelId:    ls.LevelID,
		moveBudget: 0,
		ls:         ls,
		cf:         cf,
		initSeed:   seed,
		seedmaker:  newSeedMaker(seed),
		eBuf:       make([]*Engine, 1, capPrepare),
		rBuf:       make([]*recorder.MoveRecorder, 0, capPrepare),
		sBuf:       make([]*stats.StatReport, 0, capPrepare),
	}
	e, err := newEngineWithSeed(ls, cf, s.initSeed, true)
	if err != nil {
		return nil, err
	}
	s.eBuf[0] = e
	return s, nil
}

// Sim 單線模擬器：以一面引擎連續跑指定 round 並回傳統計結果與用時
func (s *Simulator) Sim(round int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if round < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	if len(s.rBuf) == 0 {
		r, err := recorder.NewMoveRecorder(s.LevelName, s.LevelId, s.ls.Board.NumColors, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	r := s.rBuf[0]
	e := s.eBuf[0]

	bar := pb.StartNew(round)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < round; i++ {
		mr := e.MoveInternal()
		r.Record(mr)
		bar.Increment()
	}
	used := time.Since(bar.StartTime())
	bar.Finish()
	result := r.Done()
	result.Done()

	return result, used, nil
}

// SimMP 平行執行多面引擎，總計 rounds*mp 次移動，合併統計結果後 回傳統計結果與用時
func (s *Simulator) SimMP(rounds int, mp int, showpb bool) (*stats.StatReport, time.Duration, error) {
	defer s.reset()
	if mp <= 0 {
		return nil, 0, errs.NewWarn("workers must > 0")
	}
	if rounds < 1 {
		return nil, 0, errs.NewWarn("round must > 0")
	}
	for len(s.eBuf) < mp {
		e, err := newEngineWithSeed(s.ls, s.cf, s.seedmaker.next(), true)
		if err != nil {
			return nil, 0, err
		}
		s.eBuf = append(s.eBuf, e)
	}

	for len(s.rBuf) < mp {
		r, err := recorder.NewMoveRecorder(s.LevelName, s.LevelId, s.ls.Board.NumColors, 0)
		if err != nil {
			return nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}

	wg := new(sync.WaitGroup)
	wg.Add(mp)
	bar := pb.StartNew(rounds * mp)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	for i := 0; i < mp; i++ {
		go func(i int) {
			defer wg.Done()
			e := s.eBuf[i]
			st := s.rBuf[i]
			for r := 0; r < rounds; r++ {
				mr := e.MoveInternal()
				st.Record(mr)
				bar.Increment()
			}
		}(i)
	}
	wg.Wait()
	used := time.Since(bar.StartTime())
	bar.Finish()

	st, _ := recorder.MergeMoveRecorder(s.rBuf)
	result := st.Done()
	result.Done()

	return result, used, nil
}

// SimSessions 模擬多個會話（一位玩家帶著步數上限打一關）的歷程，並產出關卡報表與會話報表。
func (s *Simulator) SimSessions(mp int, sessions int, moveBudget int, showpb bool) (*stats.StatReport, *stats.EstimatorSessions, time.Duration, error) {
	defer s.reset()
	if sessions < 1 || moveBudget < 1 || mp < 1 {
		return nil, nil, 0, errs.NewWarn("invalid param")
	}
	s.moveBudget = moveBudget // 賦值

	// 	準備並行引擎
	for len(s.eBuf) < mp {
		e, err := newEngineWithSeed(s.ls, s.cf, s.seedmaker.next(), true)
		if err != nil {
			return nil, nil, 0, err
		}
		s.eBuf = append(s.eBuf, e)
	}

	// 準備會話
	s.sBuf = make([]*stats.StatReport, sessions)
	for len(s.rBuf) < sessions {
		r, err := recorder.NewMoveRecorder(s.LevelName, s.LevelId, s.ls.Board.NumColors, moveBudget)
		if err != nil {
			return nil, nil, 0, err
		}
		s.rBuf = append(s.rBuf, r)
	}
	// 作一個2048大小的緩衝channel 使session依序處理
	jobs := make(chan *recorder.MoveRecorder, 2048)

	wg := new(sync.WaitGroup)
	wg.Add(mp) // 併發引擎

	bar := pb.StartNew(sessions)
	if !showpb {
		bar.SetWriter(io.Discard)
	}
	// 併發執行
	for w := 0; w < mp; w++ {
		go sim(wg, s.eBuf[w], jobs, moveBudget, bar)
	}
	// 此時併發已經完成，但由於所有workers都無法從jobs當中取出j(還沒塞進去) 所以不會結束

	// 塞進會話，開始模擬
	for _, j := range s.rBuf {
		jobs <- j
	}
	close(jobs) // 會話送完處理完畢關閉通道 通知所有引擎不會再有新資料
	wg.Wait()   // 等待引擎都執行完任務
	used := time.Since(bar.StartTime())
	bar.Finish()

	// 關卡基準報表
	record, err := recorder.MergeMoveRecorder(s.rBuf)
	if err != nil {
		return nil, nil, 0, err
	}
	st := record.Done()
	st.Done()

	// 會話分析報表
	for i, r := range s.rBuf {
		s.sBuf[i] = r.Done()
		s.sBuf[i].Done()
	}
	est := stats.EstimatorSessionExp(s.sBuf)
	return st, est, used, nil
}

func sim(wg *sync.WaitGroup, e *Engine, jobs chan *recorder.MoveRecorder, moveBudget int, bar *pb.ProgressBar) {
	defer wg.Done()
	for j := range jobs { // j := <- jobs
		for range moveBudget * moveTryFactor {
			mr := e.MoveInternal()
			if j.RecordWithSession(mr) {
				break
			}
		}
		bar.Increment()
	}
}

func (s *Simulator) reset() {
	s.rBuf = s.rBuf[:0]
	s.sBuf = s.sBuf[:0]
	s.moveBudget = 0
}

const mask63 = uint64(1<<63) - 1

type seedMaker struct {
	state atomic.Uint64 // always in [0, 2^63)
}

func newSeedMaker(seed int64) *seedMaker {
	s := &seedMaker{}
	s.state.Store(uint64(seed) & mask63)
	return s
}

// state 走全週期（不重複），再用可逆 mix63 打散
//
// 注意：此方法可能在併發環境下被多 goroutines 同時呼叫（例如 SimMP / SimSessions）。
// 因此 state 的推進必須是原子的：
//   - 使用 CAS（Compare-And-Swap）迴圈確保每次呼叫都會取得唯一的下一個 state。
//   - 回傳值使用推進後的 state 經 mix63 打散後的結果。
func (s *seedMaker) next() int64 {
	for {
		old := s.state.Load()                                            // always masked
		next := (old*6364136223846793005 + 1442695040888963407) & mask63 // full-period LCG mod 2^63
		if s.state.CompareAndSwap(old, next) {
			return int64(mix63(next)) // 一定非負
		}
	}
}

// mix63：只用「可逆」的 bit 操作 + 乘奇數（mod 2^63）
func mix63(x uint64) uint64 {
	x &= mask63
	x ^= x >> 30
	x = (x * 0xBF58476D1CE4E5B9) & mask63 // 乘奇數 ⇒ mod 2^63 可逆
	x ^= x >> 27
	x = (x * 0x94D049BB133111EB) & mask63
	x ^= x >> 31
	return x & mask63
}
