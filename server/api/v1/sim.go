package v1

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"net/http"
	"strconv"

	"github.com/zintix-labs/matchlab"
	"github.com/zintix-labs/matchlab/errs"
	"github.com/zintix-labs/matchlab/server/httperr"
	"github.com/zintix-labs/matchlab/spec"
	"github.com/zintix-labs/matchlab/stats"
)

type SimHandler struct {
	Matchlab *matchlab.Matchlab
}

func NewSimHandler(lab *matchlab.Matchlab) (*SimHandler, error) {
	return &SimHandler{Matchlab: lab}, nil
}

func (sh *SimHandler) Sim(w http.ResponseWriter, q *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimRequestBody struct {
		LID   spec.LID `json:"lid"`
		Round int      `json:"round"`
		Seed  *int64   `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimResponse struct {
		Stats    *stats.StatReport `json:"stats"`
		UsedTime int64             `json:"used_ms"`
	}
	// ---
	req := new(SimRequestBody)
	if q.Method != http.MethodGet && q.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if q.Method == http.MethodGet {
		// lid
		if s := q.URL.Query().Get("lid"); s != "" {
			u, err := strconv.ParseUint(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("lid must be non-negative integer"))
				return
			}
			req.LID = spec.LID(u)
		} else {
			// 直接空值
			httperr.Errs(w, errs.NewWarn("lid is required"))
			return
		}

		// round
		if r := q.URL.Query().Get("round"); r != "" {
			u, err := strconv.ParseInt(r, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("round must be integer"))
				return
			}
			req.Round = int(u)
		} else {
			httperr.Errs(w, errs.NewWarn("round is required"))
			return
		}

		// seed
		if s := q.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if q.Method == http.MethodPost {
		if err := json.NewDecoder(q.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務檢驗
	_, ok := sh.Matchlab.EntryById(req.LID)
	if !ok {
		httperr.Errs(w, errs.NewWarn("lid not found"))
		return
	}
	if req.Round < 1 || req.Round > 1000000 {
		httperr.Errs(w, errs.NewWarn("round must be between 1 to 1,000,000"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}
	sim, err := sh.Matchlab.NewSimulatorWithSeed(req.LID, *req.Seed)
	if err != nil {
		// 這裡的錯誤是來自matchlab 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.LID)))
		return
	}
	st, used, err := sim.Sim(req.Round, false)
	if err != nil {
		// 這裡的錯誤來自simulator 尊重錯誤分級
		httperr.Errs(w, errs.Wrap(err, "simulate err"))
		return
	}
	resp := SimResponse{
		Stats:    st,
		UsedTime: used.Milliseconds(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

func (sh *SimHandler) SimSessions(w http.ResponseWriter, r *http.Request) {
	// 內部結構 不影響外部 也不被外部使用
	type SimSessionRequestBody struct {
		LID     spec.LID `json:"lid"`
		Session int      `json:"session"`
		Moves   int      `json:"moves"`
		Seed    *int64   `json:"seed,omitempty"`
	}
	// 內部結構 不影響外部 也不被外部使用
	type SimSessionResponse struct {
		StatsReport *stats.StatReport        `json:"stats"`
		Estimator   *stats.EstimatorSessions `json:"est"`
		UsedTime    int64                    `json:"used_ms"`
	}
	// ---
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	req := new(SimSessionRequestBody)
	if r.Method == http.MethodGet {
		lid := r.URL.Query().Get("lid")
		sessionsStr := r.URL.Query().Get("session")
		movesStr := r.URL.Query().Get("moves")

		// lid
		if lid != "" {
			u, err := strconv.ParseUint(lid, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("lid must be non-negative integer"))
				return
			}
			req.LID = spec.LID(u)
		} else {
			httperr.Errs(w, errs.NewWarn("lid is required"))
			return
		}

		// session
		if sessionsStr != "" {
			sessions, err := strconv.Atoi(sessionsStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("session must be integer"))
				return
			}
			req.Session = sessions
		} else {
			httperr.Errs(w, errs.NewWarn("session is required"))
			return
		}

		// moves
		if movesStr != "" {
			moves, err := strconv.Atoi(movesStr)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("moves must be integer"))
				return
			}
			req.Moves = moves
		} else {
			httperr.Errs(w, errs.NewWarn("moves is required"))
			return
		}

		// seed
		if s := r.URL.Query().Get("seed"); s != "" {
			u, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				httperr.Errs(w, errs.NewWarn("seed must be int64"))
				return
			}
			v := u
			req.Seed = &v
		}
	}
	if r.Method == http.MethodPost {
		if err := json.NewDecoder(r.Body).Decode(req); err != nil {
			httperr.Errs(w, errs.NewWarn("invalid json:"+err.Error()))
			return
		}
	}
	// 業務邏輯判斷
	if _, ok := sh.Matchlab.EntryById(req.LID); !ok {
		httperr.Errs(w, errs.NewWarn("lid not found"))
		return
	}
	if req.Session < 1 || req.Session > 100000 {
		httperr.Errs(w, errs.NewWarn("session must be between 1 and 100,000"))
		return
	}
	if req.Moves < 1 || req.Moves > 15000 {
		httperr.Errs(w, errs.NewWarn("moves must be between 1 and 15,000"))
		return
	}
	if req.Seed == nil {
		rnd, err := rand.Int(rand.Reader, big.NewInt(math.MaxInt64))
		if err != nil {
			httperr.Errs(w, errs.NewWarn("seed generate failed"))
			return
		}
		v := rnd.Int64()
		req.Seed = &v
	}
	// 取得sim
	sim, err := sh.Matchlab.NewSimulatorWithSeed(req.LID, *req.Seed)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("build simulator err: %d", req.LID)))
		return
	}
	st, est, used, err := sim.SimSessions(4, req.Session, req.Moves, false)
	if err != nil {
		httperr.Errs(w, errs.Wrap(err, fmt.Sprintf("simulator err: %d", req.LID)))
		return
	}
	resp := &SimSessionResponse{
		StatsReport: st,
		Estimator:   est,
		UsedTime:    used.Milliseconds(),
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}
