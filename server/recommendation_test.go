package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/recommend"
)

type emptyLibrary struct{}

func (emptyLibrary) AnimesByIDs(context.Context, []string) ([]*recommend.Anime, error) {
	return nil, nil
}
func (emptyLibrary) WatchHistory(context.Context, string) ([]string, error) { return nil, nil }
func (emptyLibrary) Feedback(context.Context, string) (*recommend.Feedback, error) {
	return &recommend.Feedback{}, nil
}
func (emptyLibrary) Rank(context.Context, string) (float64, error)    { return 0, nil }
func (emptyLibrary) ImageURL(context.Context, string) (string, error) { return "", nil }
func (emptyLibrary) TotalAnimeCount(context.Context) (int, error)     { return 100, nil }

type emptyIndex struct{}

func (emptyIndex) SearchAnime(context.Context, []float32, int) ([]*recommend.Candidate, error) {
	return []*recommend.Candidate{}, nil
}

type staticEmbedder struct{}

func (staticEmbedder) Embed(context.Context, string) ([]float32, error) {
	return []float32{0.1}, nil
}

type downLLM struct{}

func (downLLM) Complete(context.Context, string) (string, error) {
	return "", errors.New("llm down")
}

func newTestServer() *Server {
	engine := recommend.NewEngine(emptyLibrary{}, emptyIndex{}, staticEmbedder{}, downLLM{}, recommend.Options{
		FallbackTotalDocs: 100,
	})
	return NewServer(&profile.Profile{Mode: "dev", Port: 18080}, engine)
}

func TestClampResults(t *testing.T) {
	testCases := []struct {
		input    int
		expected int
	}{
		{0, 5},
		{-3, 5},
		{1, 1},
		{20, 20},
		{21, 20},
		{100, 20},
	}
	for _, tc := range testCases {
		if got := clampResults(tc.input); got != tc.expected {
			t.Errorf("clampResults(%d) = %d, expected %d", tc.input, got, tc.expected)
		}
	}
}

func TestRecommendationEndpointReturnsJSONList(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendation",
		strings.NewReader(`{"query": "space opera", "n_results": 5}`))
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestRecommendationEndpointRequiresQuery(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/recommendation",
		strings.NewReader(`{"query": "   "}`))
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRecommendationEndpointRequiresUserID(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/history-recommendation",
		strings.NewReader(`{"n_results": 5}`))
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHistoryRecommendationEmptyHistoryYieldsEmptyList(t *testing.T) {
	s := newTestServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/history-recommendation",
		strings.NewReader(`{"user_id": "u1"}`))
	req.Header.Set(echoContentType, "application/json")
	rec := httptest.NewRecorder()

	s.echo.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

const echoContentType = "Content-Type"
