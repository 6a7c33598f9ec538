package archive

import (
	"time"

	"github.com/RoaringBitmap/roaring/v2"
)

// Params are the projection settings a run was produced with.
type Params struct {
	Method        string  `json:"method"`
	Dimensions    int     `json:"dimensions"`
	Perplexity    float64 `json:"perplexity,omitempty"`
	Iterations    int     `json:"iterations,omitempty"`
	LearningRate  float64 `json:"learning_rate,omitempty"`
	Seed          int64   `json:"seed,omitempty"`
	CostThreshold float64 `json:"cost_threshold,omitempty"`
}

// Record is one saved projection run.
type Record struct {
	ID          string      `json:"id"`
	CreatedAt   time.Time   `json:"created_at"`
	Provider    string      `json:"provider,omitempty"`
	Model       string      `json:"model,omitempty"`
	Texts       []string    `json:"texts"`
	Reference   int         `json:"reference"`
	Embeddings  [][]float32 `json:"embeddings,omitempty"`
	Coordinates [][]float64 `json:"coordinates"`
	Params      Params      `json:"params"`
	Cost        float64     `json:"cost"`
	Iterations  int         `json:"iterations"`
	// Unconverged lists the points whose bandwidth search did not converge.
	Unconverged []uint32 `json:"unconverged,omitempty"`
}

// SetUnconverged stores the indices held by bm.
func (r *Record) SetUnconverged(bm *roaring.Bitmap) {
	if bm == nil || bm.IsEmpty() {
		r.Unconverged = nil
		return
	}
	r.Unconverged = bm.ToArray()
}

// UnconvergedSet returns the unconverged indices as a bitmap.
func (r *Record) UnconvergedSet() *roaring.Bitmap {
	return roaring.BitmapOf(r.Unconverged...)
}
