package stats

import (
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/zintix-labs/matchlab/spec"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var lang language.Tag = language.English

// 信賴區間
type CI struct {
	Lo float64 `json:"Lo"`
	Hi float64 `json:"Hi"`
}

// cascadeTrack 連鎖深度分佈追蹤上限 (最後一桶為 9+)
const cascadeTrack = 10

var cascadeBucketStr = []string{"0", "1", "2", "3", "4", "5", "6", "7", "8", "9+"}

// CascadeBucketStr 回傳連鎖深度分佈的桶標籤。
func CascadeBucketStr() []string {
	return cascadeBucketStr
}

// CascadeIndex 將連鎖 pass 數映射到分佈索引。
func CascadeIndex(passes int) int {
	if passes >= cascadeTrack-1 {
		return cascadeTrack - 1
	}
	if passes < 0 {
		return 0
	}
	return passes
}

// StatReport 關卡模擬統計報告
type StatReport struct {
	Summary *SummaryReport `json:"Summary"`
	Clear   *ClearReport   `json:"Clear"`
	Dist    *DistReport    `json:"Dist"`
	Session *SessionReport `json:"Session,omitzero"`
	isDone  bool
}

type SummaryReport struct {
	LevelName     string   `json:"LevelName"`
	LevelId       spec.LID `json:"LevelId"`
	Rounds        int      `json:"Rounds"`   // 嘗試移動總數
	Applied       int      `json:"Applied"`  // 實際落地的移動
	NoOp          int      `json:"NoOp"`     // 合法但無連線 (已回退)
	Rejected      int      `json:"Rejected"` // 非法輸入
	MatchRate     float64  `json:"MatchRate"`
	MatchRateCI   CI       `json:"MatchRateCI"`
	CascadePasses int      `json:"CascadePasses"` // 連鎖 pass 總數
	MaxCascade    int      `json:"MaxCascade"`    // 單次移動最深連鎖
	AvgCascades   float64  `json:"AvgCascades"`   // 每次落地移動平均連鎖
	JellyCleared  int      `json:"JellyCleared"`
	ColorTotals   []int    `json:"ColorTotals"` // 顏色 → 被消耗格數
}

// ClearReport 消除格數統計
//
// 紀錄時只累計int，避免轉型成本。紀錄完成後Done()會將結果整理填入
type ClearReport struct {
	CellsCleared int     `json:"CellsCleared"`
	CellsSqSum   int     `json:"CellsSqSum"` // 平方和
	AvgCells     float64 `json:"AvgCells"`   // 每次落地移動平均消除
	Std          float64 `json:"Std"`
	Cv           float64 `json:"Cv"`
}

// DistReport 消除格數/連鎖深度落點統計
type DistReport struct {
	ClearBucket    []string  `json:"ClearBucket"`
	ClearCollect   []int     `json:"ClearCollect"`
	ClearDist      []float64 `json:"ClearDist"`
	CascadeBucket  []string  `json:"CascadeBucket"`
	CascadeCollect []int     `json:"CascadeCollect"`
	CascadeDist    []float64 `json:"CascadeDist"`
}

// SessionReport 單一會話 (帶步數上限的玩家歷程) 統計
//
// 需使用 SessionRecord 才會統計
type SessionReport struct {
	MoveBudget int  `json:"MoveBudget"`
	MovesUsed  int  `json:"MovesUsed"`
	JellyStart int  `json:"JellyStart"`
	JellyLeft  int  `json:"JellyLeft"`
	Won        bool `json:"Won"`       // 果凍全清
	Exhausted  bool `json:"Exhausted"` // 步數用罄
	Alive      bool `json:"Alive"`
}

// ============================================================
// ** 公開方法 **
// ============================================================

// Done 將累積計數轉換為最終統計結果並鎖定 isDone 標記。
//
// 所有模擬統計過程因為性能原因只處理int的紀錄，統計完成後
// 請使用 Done 一次性計算比率、信賴區間與分佈。
func (s *StatReport) Done() {
	if s.isDone {
		return
	}
	// Summary
	s.Summary.MatchRate = s.MatchRate()
	_, s.Summary.MatchRateCI = proportionCICP(s.Summary.Applied, s.Summary.Rounds, 0.95)
	s.Summary.AvgCascades = s.AvgCascades()

	// Clear
	s.Clear.AvgCells = s.AvgCells()
	s.Clear.Std = s.Std()
	s.Clear.Cv = s.Cv()

	// Dist
	rf := float64(s.Summary.Rounds)
	if rf > 0 {
		clearF := make([]float64, len(s.Dist.ClearCollect))
		for i, c := range s.Dist.ClearCollect {
			clearF[i] = float64(c) / rf
		}
		s.Dist.ClearDist = clearF
	}
	af := float64(s.Summary.Applied)
	if af > 0 {
		cascF := make([]float64, len(s.Dist.CascadeCollect))
		for i, c := range s.Dist.CascadeCollect {
			cascF[i] = float64(c) / af
		}
		s.Dist.CascadeDist = cascF
	}

	// Session
	if s.Session != nil {
		s.Session.Alive = !(s.Session.Won || s.Session.Exhausted)
	}

	s.isDone = true
}

// MatchRate 回傳落地移動比例（Applied / Rounds）
func (s *StatReport) MatchRate() float64 {
	if s.Summary.Rounds == 0 {
		return 0
	}
	return float64(s.Summary.Applied) / float64(s.Summary.Rounds)
}

// AvgCascades 回傳每次落地移動的平均連鎖 pass 數
func (s *StatReport) AvgCascades() float64 {
	if s.Summary.Applied == 0 {
		return 0
	}
	return float64(s.Summary.CascadePasses) / float64(s.Summary.Applied)
}

// AvgCells 回傳每次落地移動的平均消除格數
func (s *StatReport) AvgCells() float64 {
	if s.Summary.Applied == 0 {
		return 0
	}
	return float64(s.Clear.CellsCleared) / float64(s.Summary.Applied)
}

// Std 回傳單次落地移動消除格數的標準差
func (s *StatReport) Std() float64 {
	n := s.Summary.Applied
	if n < 2 {
		return 0
	}
	nf := float64(n)
	sum := float64(s.Clear.CellsCleared)
	variance := (float64(s.Clear.CellsSqSum) - sum*sum/nf) / (nf - 1)

	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Cv 回傳單次落地移動消除格數的變異係數
func (s *StatReport) Cv() float64 {
	avg := s.AvgCells()
	std := s.Std()
	if avg <= 0 {
		return 0
	}
	return (std / avg)
}

func (s *StatReport) WriteWith(w io.Writer, rep StatReportRender) error {
	s.Done()
	return rep.Write(w, s)
}

func (s *StatReport) StdOut(ut time.Duration) {
	formatDuration(ut, s.Summary.Rounds)
	sk, sm := s.fmtBasic()
	str := fmtTable(s.Summary.LevelName, sk, sm)
	fmt.Println(str)
}

// ============================================================
// ** 內部方法 **
// ============================================================

func formatDuration(d time.Duration, moves int) {
	p := message.NewPrinter(lang)
	if d < 0 {
		d = -d
	}
	sec := d.Seconds()
	if sec <= 0 {
		sec = 1e-9
	}
	mps := int(float64(moves) / sec)
	if sec < 60.0 {
		p.Printf("used: %.2f seconds\nmps : %d moves/sec\n", sec, mps)
		return
	}
	s := int(d.Seconds()) % 60
	m := int(d.Minutes()) % 60
	h := int(d.Hours())
	if h == 0 {
		s = s % 60
		p.Printf("used: %dm %ds\nmps : %d moves/sec\n", m, s, mps)
		return
	}
	p.Printf("used: %dh:%dm:%ds\nmps : %d moves/sec\n", h, m, s, mps)
}

// StdOut

func (s *StatReport) fmtBasic() ([]string, map[string]string) {
	p := message.NewPrinter(lang)
	basic := map[string]string{
		"Level Name":    p.Sprintf("%s", s.Summary.LevelName),
		"Level ID":      fmt.Sprintf("%d", s.Summary.LevelId),
		"Total Moves":   p.Sprintf("%d", s.Summary.Rounds),
		"Applied":       p.Sprintf("%d", s.Summary.Applied),
		"No-Op":         p.Sprintf("%d", s.Summary.NoOp),
		"Rejected":      p.Sprintf("%d", s.Summary.Rejected),
		"Match Rate":    p.Sprintf("%.2f %%", 100.0*s.Summary.MatchRate),
		"Match 95% CI":  p.Sprintf("[%.2f%%,%.2f%%]", 100.0*s.Summary.MatchRateCI.Lo, 100.0*s.Summary.MatchRateCI.Hi),
		"Cells Cleared": p.Sprintf("%d", s.Clear.CellsCleared),
		"Jelly Cleared": p.Sprintf("%d", s.Summary.JellyCleared),
		"Avg Cells":     p.Sprintf("%.3f", s.Clear.AvgCells),
		"Avg Cascades":  p.Sprintf("%.3f", s.Summary.AvgCascades),
		"Max Cascade":   p.Sprintf("%d", s.Summary.MaxCascade),
		"STD":           p.Sprintf("%.3f", s.Clear.Std),
		"CV":            p.Sprintf("%.3f", s.Clear.Cv),
	}
	keys := []string{"Level Name", "Level ID", "Total Moves", "Applied", "No-Op", "Rejected", "Match Rate", "Match 95% CI", "Cells Cleared", "Jelly Cleared", "Avg Cells", "Avg Cascades", "Max Cascade", "STD", "CV"}
	return keys, basic
}

func fmtTable(title string, keys []string, msg map[string]string) string {
	p := message.NewPrinter(lang)
	maxKeyLen := 0
	maxValLen := 0
	for k, m := range msg {
		if w := runewidth.StringWidth(k); w > maxKeyLen {
			maxKeyLen = w
		}
		if w := runewidth.StringWidth(m); w > maxValLen {
			maxValLen = w
		}
	}
	maxKeyLen += 2
	maxValLen += 2

	divider := "+" + strings.Repeat("-", maxKeyLen) + "+" + strings.Repeat("-", maxValLen) + "+\n"
	top := "+" + strings.Repeat("-", maxKeyLen+1+maxValLen) + "+\n"

	totalInner := maxKeyLen + maxValLen + 1
	titleW := runewidth.StringWidth(title)

	left := (totalInner - titleW) / 2
	right := totalInner - titleW - left

	fmtStr := top
	fmtStr += p.Sprintf("|%s%s%s|\n", blank(left), title, blank(right))
	fmtStr += divider
	for _, k := range keys {
		fmtStr += p.Sprintf("| %s%s | %s%s |\n", k, blank(maxKeyLen-2-runewidth.StringWidth(k)), msg[k], blank(maxValLen-2-runewidth.StringWidth(msg[k])))
	}
	fmtStr += divider

	return fmtStr
}

func blank(w int) string {
	if w < 1 {
		return ""
	}
	return strings.Repeat(" ", w)
}
