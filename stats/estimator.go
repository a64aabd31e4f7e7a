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

package stats

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/stat/distuv"
)

// ============================================================
// ** 結構宣告 **
// ============================================================

// 會話體驗評估 (一個會話 = 一位玩家帶著步數上限打一關)
type EstimatorSessions struct {
	MoveStat    MoveStat
	EventStat   EventStat
	SessionStat SessionStat
}

// 步數敘事
type MoveStat struct {
	UsedMedian PointStat // 描述用掉步數的中位數
	UsedPerc   UsedPerc  // 描述會話的步數分布
}

// 用步數分位數視角看: 最快10%會話用掉的步數 最快33%會話用掉的步數 ...
type UsedPerc struct {
	UsedP10 PointStat
	UsedP33 PointStat
	UsedP67 PointStat
	UsedP90 PointStat
}

// PointStat 點估計 回傳 估計值 以及信賴區間
type PointStat struct {
	Hat float64
	CI  CI
}

// 事件敘事
type EventStat struct {
	DeepCascade EventCount // 單次移動達到 2+ 連鎖 pass 的次數分布
	Bucket      BucketEvent
}

// 事件點估計
type EventCount struct {
	Zero PointStat
	One  PointStat
	Two  PointStat
	More PointStat
}

// 對應分桶的統計
type BucketEvent struct {
	BucketLable []string     // 分桶標籤
	BucketCount []EventCount // 分桶事件點估計
}

// 對應結果敘事
type SessionStat struct {
	Won       PointStat // 果凍全清離場
	Exhausted PointStat // 步數用罄
	Alive     PointStat // 跑滿步數但尚有果凍 (無果凍目標的關卡)
}

// ============================================================
// ** 對外 : 會話體驗評估 **
// ============================================================

// EstimatorSessionExp 會話體驗評估
//
// 1. Move 敘事 : 描述會話大致用掉多少步
//
// 2. Event 敘事 : 描述會話遇到某些事件(深連鎖、大量消除所對應的機率)
//
// 3. Session 敘事 : 描述會話最終清完果凍、步數用罄、跑滿離場的機率
func EstimatorSessionExp(sts []*StatReport) *EstimatorSessions {
	// 0. 防禦：空輸入
	n := len(sts)
	out := &EstimatorSessions{}
	if n == 0 {
		return out
	}

	// ------------------------------------------------------------
	// 1) Move 敘事：收集每個會話用掉的步數並做分位/CI
	// ------------------------------------------------------------
	used := make([]float64, n)
	for i, s := range sts {
		if s.Session != nil {
			used[i] = float64(s.Session.MovesUsed)
		}
	}

	// 中位數 (點估計 + 95% CI)
	medHat := quantilePoint(used, 0.5)
	medLo, medHi := quantileCI(used, 0.5, 0.95)

	// P10, P33, P67, P90 (點估計 + 95% CI)
	p10Hat := quantilePoint(used, 0.10)
	p10Lo, p10Hi := quantileCI(used, 0.10, 0.95)

	p33Hat := quantilePoint(used, 1.0/3.0)
	p33Lo, p33Hi := quantileCI(used, 1.0/3.0, 0.95)

	p67Hat := quantilePoint(used, 2.0/3.0)
	p67Lo, p67Hi := quantileCI(used, 2.0/3.0, 0.95)

	p90Hat := quantilePoint(used, 0.90)
	p90Lo, p90Hi := quantileCI(used, 0.90, 0.95)

	out.MoveStat = MoveStat{
		UsedMedian: PointStat{Hat: medHat, CI: CI{Lo: medLo, Hi: medHi}},
		UsedPerc: UsedPerc{
			UsedP10: PointStat{Hat: p10Hat, CI: CI{Lo: p10Lo, Hi: p10Hi}},
			UsedP33: PointStat{Hat: p33Hat, CI: CI{Lo: p33Lo, Hi: p33Hi}},
			UsedP67: PointStat{Hat: p67Hat, CI: CI{Lo: p67Lo, Hi: p67Hi}},
			UsedP90: PointStat{Hat: p90Hat, CI: CI{Lo: p90Lo, Hi: p90Hi}},
		},
	}

	// ------------------------------------------------------------
	// 2) Event 敘事：深連鎖次數分布 + 各消除桶次數分布（0/1/2/3+）
	// ------------------------------------------------------------
	// 2.1 深連鎖（0/1/2/3+）：單一會話內有幾次移動達到 2+ 連鎖 pass
	var c0, c1, c2, c3p int
	for _, s := range sts {
		t := deepCascadeCount(s)
		switch {
		case t == 0:
			c0++
		case t == 1:
			c1++
		case t == 2:
			c2++
		default:
			c3p++
		}
	}
	_, ci0 := proportionCICP(c0, n, 0.95)
	_, ci1 := proportionCICP(c1, n, 0.95)
	_, ci2 := proportionCICP(c2, n, 0.95)
	_, ci3 := proportionCICP(c3p, n, 0.95)

	out.EventStat.DeepCascade = EventCount{
		Zero: PointStat{Hat: float64(c0) / float64(n), CI: ci0},
		One:  PointStat{Hat: float64(c1) / float64(n), CI: ci1},
		Two:  PointStat{Hat: float64(c2) / float64(n), CI: ci2},
		More: PointStat{Hat: float64(c3p) / float64(n), CI: ci3},
	}

	// 2.2 分桶
	labels := Buckets.ClearBucketStr()
	L := len(labels)
	out.EventStat.Bucket = BucketEvent{BucketLable: labels, BucketCount: make([]EventCount, L)}

	// 對每個桶，統計會話中 0/1/2/3+ 次數比例
	for bi := 0; bi < L; bi++ {
		var b0, b1, b2, b3p int
		for _, s := range sts {
			cnt := 0
			if bi < len(s.Dist.ClearCollect) {
				cnt = s.Dist.ClearCollect[bi]
			}
			switch {
			case cnt == 0:
				b0++
			case cnt == 1:
				b1++
			case cnt == 2:
				b2++
			default:
				b3p++
			}
		}
		_, ciB0 := proportionCICP(b0, n, 0.95)
		_, ciB1 := proportionCICP(b1, n, 0.95)
		_, ciB2 := proportionCICP(b2, n, 0.95)
		_, ciB3 := proportionCICP(b3p, n, 0.95)

		out.EventStat.Bucket.BucketCount[bi] = EventCount{
			Zero: PointStat{Hat: float64(b0) / float64(n), CI: ciB0},
			One:  PointStat{Hat: float64(b1) / float64(n), CI: ciB1},
			Two:  PointStat{Hat: float64(b2) / float64(n), CI: ciB2},
			More: PointStat{Hat: float64(b3p) / float64(n), CI: ciB3},
		}
	}

	// ------------------------------------------------------------
	// 3) Session 敘事：Won / Exhausted / Alive 比例 + CP 95% CI
	// ------------------------------------------------------------
	var wonK, exhK, aliveK int
	for _, s := range sts {
		if s.Session == nil {
			continue
		}
		if s.Session.Won {
			wonK++
		}
		if s.Session.Exhausted {
			exhK++
		}
		if s.Session.Alive {
			aliveK++
		}
	}

	wonHat, wonCI := proportionCICP(wonK, n, 0.95)
	exhHat, exhCI := proportionCICP(exhK, n, 0.95)
	aliveHat, aliveCI := proportionCICP(aliveK, n, 0.95)

	out.SessionStat = SessionStat{
		Won:       PointStat{Hat: wonHat, CI: wonCI},
		Exhausted: PointStat{Hat: exhHat, CI: exhCI},
		Alive:     PointStat{Hat: aliveHat, CI: aliveCI},
	}

	return out
}

// deepCascadeCount 回傳會話內達到 2+ 連鎖 pass 的移動次數。
func deepCascadeCount(s *StatReport) int {
	if s.Dist == nil {
		return 0
	}
	cnt := 0
	for i := 2; i < len(s.Dist.CascadeCollect); i++ {
		cnt += s.Dist.CascadeCollect[i]
	}
	return cnt
}

// ============================================================
// ** 內部統計函數 **
// ============================================================

// Clopper–Pearson exact CI for binomial proportion (k successes out of n)
func proportionCICP(k int, n int, confidence float64) (pHat float64, ci CI) {
	if n == 0 {
		return 0, CI{0, 1}
	}
	alpha := 1 - confidence
	pHat = float64(k) / float64(n)

	// Beta PPF 映射，處理邊界
	if k == 0 {
		ci.Lo = 0
	} else {
		b := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
		ci.Lo = b.Quantile(alpha / 2)
	}
	if k == n {
		ci.Hi = 1
	} else {
		b := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
		ci.Hi = b.Quantile(1 - alpha/2)
	}
	return
}

// 想估「第 q 分位」的上下界。做法：把 order statistic 的秩視為二項→Beta 反推 p 範圍，再把 p 轉回樣本索引。
// 回傳 (loValue, hiValue)
func quantileCI(data []float64, q, confidence float64) (float64, float64) {
	n := len(data)
	if n == 0 {
		return 0, 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)

	alpha := 1 - confidence
	k := int(q * float64(n))
	if k < 1 {
		k = 1
	} else if k > n-1 {
		k = n - 1
	}

	// 以 CP 思想反推 p 範圍
	bLo := distuv.Beta{Alpha: float64(k), Beta: float64(n - k + 1)}
	bHi := distuv.Beta{Alpha: float64(k + 1), Beta: float64(n - k)}
	pLo := bLo.Quantile(alpha / 2)
	pHi := bHi.Quantile(1 - alpha/2)

	li := int(pLo * float64(n))
	ui := int(pHi * float64(n))
	if ui > 0 {
		ui -= 1
	}
	if li < 0 {
		li = 0
	}
	if li > n-1 {
		li = n - 1
	}
	if ui < 0 {
		ui = 0
	}
	if ui > n-1 {
		ui = n - 1
	}
	return cp[li], cp[ui]
}

// quantilePoint returns the empirical quantile point estimate at q.
func quantilePoint(data []float64, q float64) float64 {
	n := len(data)
	if n == 0 {
		return 0
	}
	cp := make([]float64, n)
	copy(cp, data)
	sort.Float64s(cp)
	// 最近秩法
	idx := int(q * float64(n))
	if idx < 0 {
		idx = 0
	}
	if idx > n-1 {
		idx = n - 1
	}
	return cp[idx]
}

// ============================================================
// ** 輸出函數 **
// ============================================================

func (est *EstimatorSessions) Out() {
	// 1) Moves (Session Experience)
	fmt.Println("=== Moves (Session Experience) ===")
	moveKeys := []string{
		"Median Moves",
		"P10 Moves",
		"P33 Moves",
		"P67 Moves",
		"P90 Moves",
	}
	moveMsg := map[string]string{
		"Median Moves": fmtHatCI(est.MoveStat.UsedMedian.Hat, est.MoveStat.UsedMedian.CI),
		"P10 Moves":    fmtHatCI(est.MoveStat.UsedPerc.UsedP10.Hat, est.MoveStat.UsedPerc.UsedP10.CI),
		"P33 Moves":    fmtHatCI(est.MoveStat.UsedPerc.UsedP33.Hat, est.MoveStat.UsedPerc.UsedP33.CI),
		"P67 Moves":    fmtHatCI(est.MoveStat.UsedPerc.UsedP67.Hat, est.MoveStat.UsedPerc.UsedP67.CI),
		"P90 Moves":    fmtHatCI(est.MoveStat.UsedPerc.UsedP90.Hat, est.MoveStat.UsedPerc.UsedP90.CI),
	}
	printTable("Moves (Session Experience)", moveKeys, moveMsg)

	// 2) Events: deep cascade counts per session
	fmt.Println("\n=== Events: Deep cascade counts per session ===")
	cascKeys := []string{"0 times", "1 time", "2 times", "3+ times"}
	cascMsg := map[string]string{
		"0 times":  fmtHatCIpct01(est.EventStat.DeepCascade.Zero.Hat, est.EventStat.DeepCascade.Zero.CI),
		"1 time":   fmtHatCIpct01(est.EventStat.DeepCascade.One.Hat, est.EventStat.DeepCascade.One.CI),
		"2 times":  fmtHatCIpct01(est.EventStat.DeepCascade.Two.Hat, est.EventStat.DeepCascade.Two.CI),
		"3+ times": fmtHatCIpct01(est.EventStat.DeepCascade.More.Hat, est.EventStat.DeepCascade.More.CI),
	}
	printTable("Events: Deep cascade counts per session", cascKeys, cascMsg)

	// 3) Events: Buckets (per session hits in bucket)
	fmt.Println("\n=== Events: Clear buckets (per session hits in bucket) ===")
	for i, label := range est.EventStat.Bucket.BucketLable {
		ec := est.EventStat.Bucket.BucketCount[i]
		fmt.Printf("%-20s : %s\n", label, fmtEventCount(ec))
	}

	// 4) Session Outcome
	fmt.Println("\n=== Session Outcome ===")
	sessionKeys := []string{"Won", "Exhausted", "Alive"}
	sessionMsg := map[string]string{
		"Won":       fmtHatCIpct01(est.SessionStat.Won.Hat, est.SessionStat.Won.CI),
		"Exhausted": fmtHatCIpct01(est.SessionStat.Exhausted.Hat, est.SessionStat.Exhausted.CI),
		"Alive":     fmtHatCIpct01(est.SessionStat.Alive.Hat, est.SessionStat.Alive.CI),
	}
	printTable("Session Outcome", sessionKeys, sessionMsg)
}

func printTable(title string, keys []string, msg map[string]string) {
	fmt.Println(title)
	maxKeyLen := 0
	for _, k := range keys {
		if len(k) > maxKeyLen {
			maxKeyLen = len(k)
		}
	}
	for _, k := range keys {
		fmt.Printf("  %-*s : %s\n", maxKeyLen, k, msg[k])
	}
}

func fmtPct01(x float64) string {
	return fmt.Sprintf("%.2f%%", x*100)
}

func fmtHatCIpct01(hat float64, ci CI) string {
	return fmt.Sprintf("%s [%s, %s]", fmtPct01(hat), fmtPct01(ci.Lo), fmtPct01(ci.Hi))
}

func fmtHatCI(hat float64, ci CI) string {
	return fmt.Sprintf("%.1f [%.1f, %.1f]", hat, ci.Lo, ci.Hi)
}

func fmtEventCount(ec EventCount) string {
	return fmt.Sprintf("0x: %s | 1x: %s | 2x: %s | 3+x: %s",
		fmtHatCIpct01(ec.Zero.Hat, ec.Zero.CI),
		fmtHatCIpct01(ec.One.Hat, ec.One.CI),
		fmtHatCIpct01(ec.Two.Hat, ec.Two.CI),
		fmtHatCIpct01(ec.More.Hat, ec.More.CI),
	)
}
