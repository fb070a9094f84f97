package recommend

import "math"

// Default weights for blending similarity with the popularity/feedback
// evaluation. Semantic similarity is the primary relevance signal; the
// normalized evaluation acts as a secondary tie-breaker.
const (
	DefaultSimilarityWeight = 0.7
	DefaultNormalizedWeight = 0.3
)

// NormalizedEvaluation blends community feedback, content rating and a
// corpus-relative rank position into a single score scaled to a
// comparable order of magnitude across the corpus:
//
//	(feedback * rating * normalizedRank / totalDocs) * 100
//
// The multiplicative form is intentional and preserved as-is; it makes
// the score highly sensitive to any one factor being near zero. Invalid
// input (non-positive corpus size, NaN/Inf factors) yields 0.
func NormalizedEvaluation(rating, feedback, normalizedRank float64, totalDocs int) float64 {
	if totalDocs <= 0 {
		return 0
	}
	score := feedback * rating * normalizedRank / float64(totalDocs) * 100
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0
	}
	return score
}

// CombineScores returns the weighted blend of cosine similarity and the
// normalized evaluation. Weights are renormalized to sum to 1 first, so
// callers passing un-normalized weights (e.g. 7/3) get identical output
// to 0.7/0.3. Invalid weights or inputs yield 0.
func CombineScores(cosineSimilarity, normalizedScore, similarityWeight, normalizedWeight float64) float64 {
	total := similarityWeight + normalizedWeight
	if total == 0 || math.IsNaN(total) || math.IsInf(total, 0) {
		return 0
	}
	combined := cosineSimilarity*(similarityWeight/total) + normalizedScore*(normalizedWeight/total)
	if math.IsNaN(combined) || math.IsInf(combined, 0) {
		return 0
	}
	return combined
}

// FeedbackScore derives the feedback signal from raw store fields:
// favorites-per-list-user plus the raw feedback value. A zero list-user
// count is clamped to one to avoid division by zero.
func FeedbackScore(fb *Feedback) float64 {
	if fb == nil {
		return 0
	}
	listUsers := fb.NumListUsers
	if listUsers <= 0 {
		listUsers = 1
	}
	return fb.NumFavorites/listUsers + fb.Feedback
}

// NormalizedRank maps a popularity rank into [0,1] relative to the
// corpus size; rank 1 (most popular) maps closest to 1.
func NormalizedRank(rank float64, totalDocs int) float64 {
	if totalDocs <= 0 {
		return 0
	}
	return (float64(totalDocs) - rank) / float64(totalDocs)
}

// round4 rounds a score component to 4 decimal places for output.
func round4(v float64) float64 {
	return math.Round(v*10000) / 10000
}
