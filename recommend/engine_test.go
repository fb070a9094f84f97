package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLibrary is an in-memory Library.
type fakeLibrary struct {
	animes    map[string]*Anime
	history   map[string][]string
	feedback  map[string]*Feedback
	rank      map[string]float64
	imageURL  map[string]string
	totalDocs int

	feedbackErr error
}

func newFakeLibrary() *fakeLibrary {
	return &fakeLibrary{
		animes:    map[string]*Anime{},
		history:   map[string][]string{},
		feedback:  map[string]*Feedback{},
		rank:      map[string]float64{},
		imageURL:  map[string]string{},
		totalDocs: 1000,
	}
}

func (l *fakeLibrary) AnimesByIDs(_ context.Context, ids []string) ([]*Anime, error) {
	list := []*Anime{}
	for _, id := range ids {
		if a, ok := l.animes[id]; ok {
			list = append(list, a)
		}
	}
	return list, nil
}

func (l *fakeLibrary) WatchHistory(_ context.Context, userID string) ([]string, error) {
	return l.history[userID], nil
}

func (l *fakeLibrary) Feedback(_ context.Context, animeID string) (*Feedback, error) {
	if l.feedbackErr != nil {
		return nil, l.feedbackErr
	}
	if fb, ok := l.feedback[animeID]; ok {
		return fb, nil
	}
	return &Feedback{}, nil
}

func (l *fakeLibrary) Rank(_ context.Context, animeID string) (float64, error) {
	return l.rank[animeID], nil
}

func (l *fakeLibrary) ImageURL(_ context.Context, animeID string) (string, error) {
	return l.imageURL[animeID], nil
}

func (l *fakeLibrary) TotalAnimeCount(_ context.Context) (int, error) {
	return l.totalDocs, nil
}

// fakeIndex returns canned candidates and counts queries.
type fakeIndex struct {
	candidates []*Candidate
	queries    int
	lastTopK   int
}

func (i *fakeIndex) SearchAnime(_ context.Context, _ []float32, topK int) ([]*Candidate, error) {
	i.queries++
	i.lastTopK = topK
	if len(i.candidates) > topK {
		return i.candidates[:topK], nil
	}
	return i.candidates, nil
}

// fakeEmbedder records the embedded text.
type fakeEmbedder struct {
	lastText string
	err      error
}

func (e *fakeEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	e.lastText = text
	if e.err != nil {
		return nil, e.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

// failingCompleter routes the interpreter into its fallback branch.
type failingCompleter struct{}

func (failingCompleter) Complete(context.Context, string) (string, error) {
	return "", errors.New("llm down")
}

func newTestEngine(lib *fakeLibrary, idx *fakeIndex, emb *fakeEmbedder) *Engine {
	return NewEngine(lib, idx, emb, failingCompleter{}, Options{FallbackTotalDocs: 1000})
}

func makeCandidates(n int) []*Candidate {
	candidates := make([]*Candidate, 0, n)
	for i := 0; i < n; i++ {
		candidates = append(candidates, &Candidate{
			ID:     fmt.Sprintf("a%d", i),
			Title:  fmt.Sprintf("Anime %d", i),
			Genres: "['Adventure']",
			Year:   "2018",
			Season: "spring",
			Rating: "7.0",
			Score:  1 - float64(i)*0.01,
		})
	}
	return candidates
}

func TestQueryBasedReturnsTopN(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{candidates: makeCandidates(50)}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.QueryBased(context.Background(), "adventure anime", 5, false, "")

	require.Len(t, recs, 5)
	assert.Equal(t, 50, idx.lastTopK, "over-fetch should request n*10 candidates")
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Scores.CombinedScore, recs[i].Scores.CombinedScore,
			"results must be sorted descending by combined score")
	}
}

func TestQueryBasedFiltersCandidates(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{candidates: []*Candidate{
		{ID: "a1", Title: "Old Action", Genres: "['Action']", Year: "2019", Rating: "8.0", Score: 0.9},
		{ID: "a2", Title: "New Action", Genres: "['Action']", Year: "2020", Rating: "8.0", Score: 0.8},
	}}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	// The failing completer forces the keyword fallback: "action ... 2020"
	// yields genres=[action], year_start=2020.
	recs := engine.QueryBased(context.Background(), "action anime from 2020", 5, false, "")

	require.Len(t, recs, 1)
	assert.Equal(t, "New Action", recs[0].Title)
}

func TestQueryBasedScoreBreakdown(t *testing.T) {
	lib := newFakeLibrary()
	lib.feedback["a1"] = &Feedback{NumFavorites: 100, NumListUsers: 200, Feedback: 1} // 1.5
	lib.rank["a1"] = 100
	lib.imageURL["a1"] = "https://cdn.example.com/a1.jpg"
	lib.totalDocs = 1000

	idx := &fakeIndex{candidates: []*Candidate{
		{ID: "a1", Title: "Solo", Genres: "['Drama']", Year: "2018", Season: "fall", Rating: "8.0", Score: 0.9},
	}}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.QueryBased(context.Background(), "drama", 5, false, "")
	require.Len(t, recs, 1)

	rec := recs[0]
	assert.Equal(t, 0.9, rec.Scores.CosineSimilarity)
	assert.Equal(t, 1.5, rec.Scores.FeedbackScore)
	// (1.5 * 8.0 * 0.9 / 1000) * 100 = 1.08
	assert.InDelta(t, 1.08, rec.Scores.NormalizedScore, 1e-9)
	// 0.9*0.7 + 1.08*0.3 = 0.954
	assert.InDelta(t, 0.954, rec.Scores.CombinedScore, 1e-9)
	assert.Equal(t, "https://cdn.example.com/a1.jpg", rec.ImageURL)
	assert.Equal(t, []string{"Drama"}, rec.Genres)
	assert.Equal(t, 8.0, rec.Rating)
}

func TestQueryBasedNeverFails(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{}
	engine := newTestEngine(lib, idx, &fakeEmbedder{err: errors.New("embedding service down")})

	recs := engine.QueryBased(context.Background(), "anything", 5, false, "")

	assert.NotNil(t, recs)
	assert.Empty(t, recs)
}

func TestQueryBasedBadFeedbackLookupDegradesToZero(t *testing.T) {
	lib := newFakeLibrary()
	lib.feedbackErr = errors.New("row gone")
	idx := &fakeIndex{candidates: makeCandidates(3)}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.QueryBased(context.Background(), "adventure", 5, false, "")

	require.Len(t, recs, 3)
	for _, rec := range recs {
		assert.Zero(t, rec.Scores.FeedbackScore)
		assert.Zero(t, rec.Scores.NormalizedScore)
	}
}

func TestQueryBasedPersonalizedExpandsQuery(t *testing.T) {
	lib := newFakeLibrary()
	lib.history["u1"] = []string{"a1", "a2"}
	lib.animes["a1"] = &Anime{ID: "a1", Title: "Steel Frontier", Genres: "['Action', 'Mecha']"}
	lib.animes["a2"] = &Anime{ID: "a2", Title: "  ", Genres: "['Drama']"} // blank title skipped

	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	engine := newTestEngine(lib, idx, emb)

	engine.QueryBased(context.Background(), "giant robots", 5, true, "u1")

	assert.Equal(t, "giant robots Steel Frontier Action Mecha", emb.lastText)
}

func TestQueryBasedPersonalizedEmptyHistoryKeepsQuery(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	engine := newTestEngine(lib, idx, emb)

	engine.QueryBased(context.Background(), "giant robots", 5, true, "u1")

	assert.Equal(t, "giant robots", emb.lastText)
}

func TestHistoryBasedExcludesWatchedTitles(t *testing.T) {
	lib := newFakeLibrary()
	lib.history["u1"] = []string{"a0"}
	lib.animes["a0"] = &Anime{ID: "a0", Title: "Anime 0", Genres: "['Adventure']"}

	// "Anime 0" scores highest but must be excluded.
	idx := &fakeIndex{candidates: makeCandidates(10)}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.HistoryBased(context.Background(), "u1", 5)

	require.NotEmpty(t, recs)
	for _, rec := range recs {
		assert.NotEqual(t, "Anime 0", rec.Title)
	}
}

func TestHistoryBasedEmptyHistorySkipsVectorSearch(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{candidates: makeCandidates(10)}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.HistoryBased(context.Background(), "unknown-user", 5)

	assert.Empty(t, recs)
	assert.Zero(t, idx.queries, "empty history must not hit the vector index")
}

func TestHistoryBasedQueryBuiltFromWatchedTitles(t *testing.T) {
	lib := newFakeLibrary()
	lib.history["u1"] = []string{"a1", "a2"}
	lib.animes["a1"] = &Anime{ID: "a1", Title: "Night Market", Genres: "['Slice of Life']"}
	lib.animes["a2"] = &Anime{ID: "a2", Title: "Void Runner", Genres: "[]"}

	idx := &fakeIndex{}
	emb := &fakeEmbedder{}
	engine := newTestEngine(lib, idx, emb)

	engine.HistoryBased(context.Background(), "u1", 5)

	assert.True(t, strings.Contains(emb.lastText, "Night Market Slice of Life"), "embedded text: %q", emb.lastText)
	assert.True(t, strings.Contains(emb.lastText, "Void Runner"), "embedded text: %q", emb.lastText)
}

func TestQueryBasedDefaultsResultCount(t *testing.T) {
	lib := newFakeLibrary()
	idx := &fakeIndex{candidates: makeCandidates(80)}
	engine := newTestEngine(lib, idx, &fakeEmbedder{})

	recs := engine.QueryBased(context.Background(), "adventure", 0, false, "")

	assert.Len(t, recs, 5)
	assert.Equal(t, 50, idx.lastTopK)
}
