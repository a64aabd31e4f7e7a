package buf

import (
	"github.com/zintix-labs/matchlab/spec"
)

// MoveRequest 為引擎內部使用的移動請求（熱路徑可重用）。
//
// 注意：這是內部結構，不做任何解碼/校驗；HTTP 解碼請走 dto.SwapRequest，
// 合法性（LID 是否存在、座標是否相鄰）由上層（Engine/Runtime）決定。
type MoveRequest struct {
	UID       string   // 唯一識別碼
	LevelName string   // 要玩的關卡
	LevelId   spec.LID // 關卡編號
	FromCol   int      // 交換來源格
	FromRow   int
	ToCol     int // 交換目標格
	ToRow     int
	Session   int // 第幾段會話

	StartState *StartState // nil=新局；帶快照=回放/續玩
}

// StartState 是由業務端帶入的「引擎可恢復狀態」（可選）。
//
//   - 新局：StartState 缺省即可；引擎自行產生本局 RNG 狀態並在回應中回傳 Start/After。
//   - 回放：帶入當初記錄的起始快照，可在相同輸入下重現該次移動的全部連鎖。
//   - 續玩：帶入上一段回應的 after 快照作為新的 start，以延續 RNG 流水。
type StartState struct {
	StartCoreSnap []byte // RNG Core 起始快照（原始 bytes）
}

// HasPayload 回報是否帶有可恢復狀態。
func (ss *StartState) HasPayload() bool {
	if ss == nil {
		return false
	}
	return len(ss.StartCoreSnap) != 0
}
