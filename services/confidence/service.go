package confidence

import (
	"github.com/harshadeepak1/agentic-rag-system/models"
)

// DefaultSparsePenalty is the multiplier applied when fewer chunks were
// available than requested, signaling reduced grounding.
const DefaultSparsePenalty = 0.8

// Estimator derives an advisory confidence score in [0,1] from retrieval
// similarity. The score labels an answer for the caller; it never gates
// whether one is returned.
type Estimator struct {
	sparsePenalty float64
}

// NewEstimator creates an estimator. penalty must be in (0,1]; values
// outside that range fall back to the default.
func NewEstimator(penalty float64) *Estimator {
	if penalty <= 0 || penalty > 1 {
		penalty = DefaultSparsePenalty
	}
	return &Estimator{sparsePenalty: penalty}
}

// Estimate computes the confidence for the chunks actually used in the
// answer: their mean similarity, penalized when fewer than rerankK chunks
// were available (sparse corpus), clamped to [0,1]. No chunks means zero.
//
// Holding chunk count fixed, the score is monotonically non-decreasing in
// the mean similarity.
func (e *Estimator) Estimate(used models.RetrievalResult, rerankK int) float64 {
	if used.Empty() {
		return 0
	}

	score := used.MeanScore()
	if len(used.Chunks) < rerankK {
		score *= e.sparsePenalty
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
