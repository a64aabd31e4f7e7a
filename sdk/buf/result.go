package buf

import (
	"github.com/zintix-labs/matchlab/sdk/board"
	"github.com/zintix-labs/matchlab/spec"
)

const capPassGrow int = 16

// Outcome 為一次 TrySwap 的結果分類。
//
// Rejected 與 NoOp 都不是錯誤：前者代表輸入不合法 (越界/不相鄰/洞/鎖)，
// 盤面完全未動；後者代表交換合法但沒有產生連線，交換已被回退。
type Outcome uint8

const (
	OutcomeRejected Outcome = iota
	OutcomeNoOp
	OutcomeApplied
)

var outcomeNames = map[Outcome]string{
	OutcomeRejected: "rejected",
	OutcomeNoOp:     "no_op",
	OutcomeApplied:  "applied",
}

func (o Outcome) String() string {
	if s, ok := outcomeNames[o]; ok {
		return s
	}
	return "unknown"
}

// PassResult 保存單一 cascade pass 的落地紀錄。
type PassResult struct {
	PassId       int
	CellsCleared int
	JellyCleared int
	ScreenStart  int // -1: 無快照；否則指到 Screens 起點
}

// MoveResult 保存一次完整移動 (TrySwap + 全部連鎖) 的結果。
//
// 為避免熱路徑反覆配置，MoveResult 由 Engine 重用：每次移動前 Reset，
// 內部切片只清長度不清容量。
type MoveResult struct {
	LevelName string   // 關卡名稱
	LevelID   spec.LID // 關卡Id
	Outcome   Outcome  // 本次移動結果分類

	FromIdx int // 交換來源格 (扁平索引)
	ToIdx   int // 交換目標格

	CellsCleared   int   // 實際移除的棋子總數
	JellyCleared   int   // 削減的果凍層總數
	CascadePasses  int   // 連鎖 pass 數
	ColorHistogram []int // 顏色 → 被消耗格數

	JellyRemaining int // 全盤剩餘果凍層數 (關卡目標用)

	PassResults []PassResult  // 每個 pass 的落地紀錄
	ScreenSize  int           // 盤面大小
	Screens     []board.Piece // pass 後盤面快照存儲 (連續堆疊)
}

// NewMoveResult 建立指定關卡的 MoveResult 實體，並預先配置基本容量。
func NewMoveResult(ls *spec.LevelSetting) *MoveResult {
	size := ls.Board.ScreenSize
	return &MoveResult{
		LevelName:      ls.LevelName,
		LevelID:        ls.LevelID,
		Outcome:        OutcomeRejected,
		FromIdx:        -1,
		ToIdx:          -1,
		ColorHistogram: make([]int, ls.Board.NumColors),
		PassResults:    make([]PassResult, 0, capPassGrow),
		ScreenSize:     size,
		Screens:        make([]board.Piece, 0, size*capPassGrow),
	}
}

// Reset 重置累積資料，保留已配置的內部切片容量。
func (mr *MoveResult) Reset() {
	mr.Outcome = OutcomeRejected
	mr.FromIdx = -1
	mr.ToIdx = -1
	mr.CellsCleared = 0
	mr.JellyCleared = 0
	mr.CascadePasses = 0
	for i := range mr.ColorHistogram {
		mr.ColorHistogram[i] = 0
	}
	mr.JellyRemaining = 0
	mr.PassResults = mr.PassResults[:0]
	mr.Screens = mr.Screens[:0]
}

// AddPass 落地一個 cascade pass：累計統計並選擇性快照盤面。
// screen 為 nil 時不留快照 (模擬模式省記憶體)。
func (mr *MoveResult) AddPass(cellsCleared, jellyCleared int, screen []board.Piece) {
	screenStart := -1
	if screen != nil {
		if len(screen) != mr.ScreenSize {
			panic("screen size not match")
		}
		screenStart = len(mr.Screens)
		mr.Screens = append(mr.Screens, screen...)
	}

	mr.PassResults = append(mr.PassResults, PassResult{
		PassId:       mr.CascadePasses,
		CellsCleared: cellsCleared,
		JellyCleared: jellyCleared,
		ScreenStart:  screenStart,
	})
	mr.CascadePasses++
	mr.CellsCleared += cellsCleared
	mr.JellyCleared += jellyCleared
}

// ViewPass 回傳第 i 個 pass 的盤面快照，若無快照回傳 nil。
// 性能考量取到切片，請勿改動
func (mr *MoveResult) ViewPass(i int) []board.Piece {
	if i < 0 || i >= len(mr.PassResults) {
		return nil
	}
	start := mr.PassResults[i].ScreenStart
	if start < 0 {
		return nil
	}
	end := start + mr.ScreenSize
	if end > len(mr.Screens) {
		return nil
	}
	return mr.Screens[start:end]
}

// View 回傳最後一個有快照的 pass 盤面，若不存在則回傳 nil。
func (mr *MoveResult) View() []board.Piece {
	for i := len(mr.PassResults) - 1; i >= 0; i-- {
		if s := mr.ViewPass(i); s != nil {
			return s
		}
	}
	return nil
}
