package recommend

import (
	"math"
	"testing"
)

func TestNormalizedEvaluation(t *testing.T) {
	// (feedback * rating * normalizedRank / totalDocs) * 100
	got := NormalizedEvaluation(8.0, 2.0, 0.5, 100)
	want := 8.0
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("NormalizedEvaluation = %v, expected %v", got, want)
	}
}

func TestNormalizedEvaluationInvalidInput(t *testing.T) {
	testCases := []struct {
		name                             string
		rating, feedback, normalizedRank float64
		totalDocs                        int
	}{
		{"zero total docs", 8, 2, 0.5, 0},
		{"negative total docs", 8, 2, 0.5, -1},
		{"NaN feedback", 8, math.NaN(), 0.5, 100},
		{"Inf rating", math.Inf(1), 2, 0.5, 100},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := NormalizedEvaluation(tc.rating, tc.feedback, tc.normalizedRank, tc.totalDocs); got != 0 {
				t.Errorf("expected 0 for invalid input, got %v", got)
			}
		})
	}
}

func TestCombineScores(t *testing.T) {
	got := CombineScores(0.8, 0.4, 0.7, 0.3)
	want := 0.8*0.7 + 0.4*0.3
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("CombineScores = %v, expected %v", got, want)
	}
}

func TestCombineScoresWeightRescalingInvariance(t *testing.T) {
	a := CombineScores(0.8, 0.4, 0.7, 0.3)
	b := CombineScores(0.8, 0.4, 7, 3)
	if math.Abs(a-b) > 1e-9 {
		t.Errorf("weights 0.7/0.3 and 7/3 should produce identical output: %v vs %v", a, b)
	}
}

func TestCombineScoresInvalidInput(t *testing.T) {
	if got := CombineScores(0.8, 0.4, 0, 0); got != 0 {
		t.Errorf("zero weight sum should yield 0, got %v", got)
	}
	if got := CombineScores(0.8, 0.4, math.NaN(), 0.3); got != 0 {
		t.Errorf("NaN weight should yield 0, got %v", got)
	}
	if got := CombineScores(math.Inf(1), 0.4, 0.7, 0.3); got != 0 {
		t.Errorf("Inf similarity should yield 0, got %v", got)
	}
}

func TestFeedbackScore(t *testing.T) {
	testCases := []struct {
		name     string
		fb       *Feedback
		expected float64
	}{
		{"normal", &Feedback{NumFavorites: 50, NumListUsers: 100, Feedback: 1}, 1.5},
		{"zero list users clamps to one", &Feedback{NumFavorites: 3, NumListUsers: 0, Feedback: 0}, 3},
		{"nil feedback", nil, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := FeedbackScore(tc.fb)
			if math.Abs(got-tc.expected) > 1e-9 {
				t.Errorf("FeedbackScore = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestNormalizedRank(t *testing.T) {
	// Lower rank (more popular) maps closer to 1.
	popular := NormalizedRank(1, 1000)
	obscure := NormalizedRank(999, 1000)
	if popular <= obscure {
		t.Errorf("rank 1 should normalize higher than rank 999: %v vs %v", popular, obscure)
	}
	if got := NormalizedRank(500, 0); got != 0 {
		t.Errorf("zero corpus size should yield 0, got %v", got)
	}
}
