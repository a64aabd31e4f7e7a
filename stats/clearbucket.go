package stats

const (
	maxLutCells   int = 200
	maxCheckCells int = 1000
)

// ClearBuckets
//
// 用來快速定位單次移動消除格數 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
//   - clear區間: 消除格數區間 [0,0], (0,3), [3,4), [4,5), ..., [50,200), [200,1000), [1000,+inf)
//   - [0,0] 對應 no-op / rejected 回合（沒有消除任何格）
type ClearBuckets struct {
	clearBucket    []int
	clearBucketStr []string
	bucket         *ClearBucket
}

type ClearBucket struct {
	maxCheckClear      int
	lutMaxClear        int
	clearBucketByCells []int
	clearBucketLUT     []int
	justOverIdx        int
	maxIdx             int
}

// Buckets
//
// 用來快速定位單次移動消除格數 -> DistRecord 位置 O(1)
//
// 請勿修改預設值
var Buckets *ClearBuckets = &ClearBuckets{
	clearBucket:    []int{0, 3, 4, 5, 7, 10, 15, 25, 50, 200},
	clearBucketStr: []string{"[0,0]", "(0,3)", "[3,4)", "[4,5)", "[5,7)", "[7,10)", "[10,15)", "[15,25)", "[25,50)", "[50,200)", "[200,1000)", "[1000,+inf)"},
}

func (b *ClearBuckets) ClearBucketStr() []string {
	return b.clearBucketStr
}

func (b *ClearBuckets) GetBucket() *ClearBucket {
	if b.bucket == nil {
		b.bucket = b.buldBucket()
	}
	return b.bucket
}

func (b *ClearBuckets) buldBucket() *ClearBucket {
	// LUT 只建到 200 格，再往上的極端連鎖直接落在頂部兩桶
	bounds := b.clearBucket

	// 建立LUT反查表
	lut := make([]int, maxLutCells) // lut[cells] = idx

	// 由 (0,3) 這個區間開始
	idx := 1
	last := len(bounds) - 1

	lut[0] = 0
	for i := 1; i < maxLutCells; i++ {
		// 僅在還有更高邊界時才前進 idx，避免越界讀取
		for idx < last && i >= bounds[idx] {
			idx++
		}
		lut[i] = idx
	}

	return &ClearBucket{
		maxCheckClear:      maxCheckCells,
		lutMaxClear:        maxLutCells,
		clearBucketByCells: bounds,
		clearBucketLUT:     lut,
		justOverIdx:        len(bounds),
		maxIdx:             len(bounds) + 1,
	}
}

func (cb *ClearBucket) Index(cells int) int {
	if cells >= cb.lutMaxClear {
		if cells >= cb.maxCheckClear {
			return cb.maxIdx
		}
		return cb.justOverIdx
	}
	return cb.clearBucketLUT[cells]
}
