package v1

import (
	"encoding/json"
	"net/http"

	"github.com/zintix-labs/matchlab/recorder"
	"github.com/zintix-labs/matchlab/sdk/buf"
)

// DistStat 接受外部已經蒐集好的逐步結果（例如正式服的移動 log），
// 重建落點分布與統計報表，讓營運端不用重跑模擬也能取得報表。
type DistStat struct {
	LevelName string `json:"level_name"`
	NumColors int    `json:"num_colors"`
	// 每一步的結果序列（以下三個陣列按步對齊）
	Cells    []int `json:"cells"`    // 該步移除棋子數（no_op/rejected 為 0）
	Cascades []int `json:"cascades"` // 該步連鎖 pass 數（0 = 未成局）
	Jelly    []int `json:"jelly"`    // 該步削減的果凍層數
}

func Stat(w http.ResponseWriter, r *http.Request) {
	// Post方法限定
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	// 嘗試解析
	dst := new(DistStat)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 對齊步數
	round := min(len(dst.Cells), len(dst.Cascades), len(dst.Jelly))
	if round < 1 {
		http.Error(w, "round must > 0", http.StatusBadRequest)
		return
	}

	rec, err := recorder.NewMoveRecorder(dst.LevelName, 0, dst.NumColors, 0)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	// 重放每一步（盤面細節不可得，只回灌統計需要的欄位）
	mr := &buf.MoveResult{
		LevelName:      dst.LevelName,
		ColorHistogram: make([]int, dst.NumColors),
	}
	for i := 0; i < round; i++ {
		mr.Outcome = buf.OutcomeNoOp
		if dst.Cascades[i] > 0 {
			mr.Outcome = buf.OutcomeApplied
		}
		mr.CellsCleared = dst.Cells[i]
		mr.CascadePasses = dst.Cascades[i]
		mr.JellyCleared = dst.Jelly[i]
		// 紀錄
		rec.Record(mr)
	}
	st := rec.Done()
	st.Done()
	st.Summary.LevelName = dst.LevelName
	if err := json.NewEncoder(w).Encode(st); err != nil {
		http.Error(w, err.Error(), http.StatusForbidden)
		return
	}
}
