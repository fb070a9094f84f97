package ingest

import (
	"testing"

	"github.com/ayaka-io/animatch/store"
)

func TestCombinedText(t *testing.T) {
	testCases := []struct {
		name     string
		anime    *store.Anime
		expected string
	}{
		{
			name: "all fields",
			anime: &store.Anime{
				Title:       "Steel Frontier",
				Description: "A mecha drama.",
				Genres:      "['Action', 'Mecha']",
			},
			expected: "Steel Frontier A mecha drama. ['Action', 'Mecha']",
		},
		{
			name:     "title only",
			anime:    &store.Anime{Title: "Void Runner"},
			expected: "Void Runner",
		},
		{
			name:     "empty genre list omitted",
			anime:    &store.Anime{Title: "Solo", Description: "One.", Genres: "[]"},
			expected: "Solo One.",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CombinedText(tc.anime); got != tc.expected {
				t.Errorf("CombinedText = %q, expected %q", got, tc.expected)
			}
		})
	}
}
