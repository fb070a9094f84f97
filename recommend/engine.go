package recommend

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	// defaultResults is used when the caller passes a non-positive n.
	defaultResults = 5

	// overFetchFactor compensates for candidates rejected by metadata
	// filtering: the index is asked for n*overFetchFactor matches.
	overFetchFactor = 10
)

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	// SimilarityWeight / NormalizedWeight override the 0.7/0.3 blend.
	SimilarityWeight float64
	NormalizedWeight float64

	// FallbackTotalDocs is used when the live corpus count is
	// unavailable. Keeps rank normalization away from division by zero.
	FallbackTotalDocs int
}

// Engine is the top-level recommendation pipeline. All collaborators
// are injected so they can be substituted with test doubles; the engine
// holds no cross-request mutable state and is safe for concurrent use.
type Engine struct {
	library     Library
	index       VectorIndex
	embedder    Embedder
	interpreter *Interpreter

	simWeight  float64
	normWeight float64
	totalDocs  int
}

// NewEngine wires the pipeline together.
func NewEngine(library Library, index VectorIndex, embedder Embedder, llm Completer, opts Options) *Engine {
	simWeight, normWeight := opts.SimilarityWeight, opts.NormalizedWeight
	if simWeight == 0 && normWeight == 0 {
		simWeight, normWeight = DefaultSimilarityWeight, DefaultNormalizedWeight
	}
	totalDocs := opts.FallbackTotalDocs
	if totalDocs <= 0 {
		totalDocs = 1
	}
	return &Engine{
		library:     library,
		index:       index,
		embedder:    embedder,
		interpreter: NewInterpreter(llm),
		simWeight:   simWeight,
		normWeight:  normWeight,
		totalDocs:   totalDocs,
	}
}

// QueryBased returns up to n recommendations for a free-text query.
// With personalized set and a non-empty watch history, the query is
// expanded with watched titles and genres before interpretation. The
// method never fails: any internal error is logged and an empty list is
// returned, so callers always receive a well-formed result.
func (e *Engine) QueryBased(ctx context.Context, query string, n int, personalized bool, userID string) []Recommendation {
	recs, err := e.queryBased(ctx, query, n, personalized, userID)
	if err != nil {
		slog.Error("query-based recommendation failed", "error", err, "query_len", len(query))
		return []Recommendation{}
	}
	return recs
}

func (e *Engine) queryBased(ctx context.Context, query string, n int, personalized bool, userID string) ([]Recommendation, error) {
	if n <= 0 {
		n = defaultResults
	}

	if personalized && userID != "" {
		expanded, err := e.expandWithHistory(ctx, query, userID)
		if err != nil {
			return nil, errors.Wrap(err, "expand query with history")
		}
		query = expanded
	}

	filter := e.interpreter.Parse(ctx, query)

	vector, err := e.embedder.Embed(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "embed query")
	}

	candidates, err := e.index.SearchAnime(ctx, vector, n*overFetchFactor)
	if err != nil {
		return nil, errors.Wrap(err, "vector search")
	}

	totalDocs := e.totalAnimeCount(ctx)

	ranked := []Recommendation{}
	for _, c := range candidates {
		if !MatchFilter(c, filter) {
			continue
		}
		ranked = append(ranked, e.scoreCandidate(ctx, c, totalDocs))
	}

	// Stable sort keeps the index's original relative order among ties.
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Scores.CombinedScore > ranked[j].Scores.CombinedScore
	})

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked, nil
}

// HistoryBased recommends from the user's watch history alone. An empty
// history yields an empty list without touching the vector index, and
// already-watched titles are excluded from the output.
func (e *Engine) HistoryBased(ctx context.Context, userID string, n int) []Recommendation {
	recs, err := e.historyBased(ctx, userID, n)
	if err != nil {
		slog.Error("history-based recommendation failed", "error", err, "user_id", userID)
		return []Recommendation{}
	}
	return recs
}

func (e *Engine) historyBased(ctx context.Context, userID string, n int) ([]Recommendation, error) {
	if n <= 0 {
		n = defaultResults
	}

	history, err := e.library.WatchHistory(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "fetch watch history")
	}
	if len(history) == 0 {
		slog.Info("no watch history for user", "user_id", userID)
		return []Recommendation{}, nil
	}

	watched, err := e.library.AnimesByIDs(ctx, history)
	if err != nil {
		return nil, errors.Wrap(err, "fetch watched anime")
	}
	if len(watched) == 0 {
		return []Recommendation{}, nil
	}

	parts := historyQueryParts(watched)
	if len(parts) == 0 {
		return []Recommendation{}, nil
	}

	// The history is baked into the query text, so personalization is
	// not re-applied here.
	recs, err := e.queryBased(ctx, strings.Join(parts, " "), n, false, "")
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(watched))
	for _, a := range watched {
		seen[a.Title] = struct{}{}
	}
	filtered := recs[:0]
	for _, rec := range recs {
		if _, ok := seen[rec.Title]; ok {
			continue
		}
		filtered = append(filtered, rec)
	}
	return filtered, nil
}

// expandWithHistory appends watched titles and genres to the query text.
// An empty history leaves the query unchanged.
func (e *Engine) expandWithHistory(ctx context.Context, query, userID string) (string, error) {
	history, err := e.library.WatchHistory(ctx, userID)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return query, nil
	}

	watched, err := e.library.AnimesByIDs(ctx, history)
	if err != nil {
		return "", err
	}

	parts := historyQueryParts(watched)
	if len(parts) == 0 {
		return query, nil
	}
	return query + " " + strings.Join(parts, " "), nil
}

// historyQueryParts builds one "title genre genre" fragment per watched
// anime with a non-blank title.
func historyQueryParts(watched []*Anime) []string {
	parts := make([]string, 0, len(watched))
	for _, a := range watched {
		if strings.TrimSpace(a.Title) == "" {
			continue
		}
		part := a.Title
		if genres := ExtractGenres(a.Genres); len(genres) > 0 {
			part += " " + strings.Join(genres, " ")
		}
		parts = append(parts, part)
	}
	return parts
}

// scoreCandidate computes the blended score for one filtered candidate.
// Per-candidate store lookups degrade to zero/empty defaults on failure
// so a single bad record never aborts the batch.
func (e *Engine) scoreCandidate(ctx context.Context, c *Candidate, totalDocs int) Recommendation {
	feedback := e.feedbackScore(ctx, c.ID)
	normalizedRank := e.normalizedRank(ctx, c.ID, totalDocs)
	imageURL := e.imageURL(ctx, c.ID)

	rating, err := strconv.ParseFloat(strings.TrimSpace(c.Rating), 64)
	if err != nil {
		rating = 1
	}

	normalizedScore := NormalizedEvaluation(rating, feedback, normalizedRank, totalDocs)
	combined := CombineScores(c.Score, normalizedScore, e.simWeight, e.normWeight)

	return Recommendation{
		Title:       c.Title,
		Description: c.Description,
		Rating:      rating,
		Year:        c.Year,
		Season:      c.Season,
		Genres:      ExtractGenres(c.Genres),
		ImageURL:    imageURL,
		Scores: AnimeScore{
			CosineSimilarity: round4(c.Score),
			FeedbackScore:    round4(feedback),
			NormalizedScore:  round4(normalizedScore),
			CombinedScore:    round4(combined),
		},
	}
}

func (e *Engine) feedbackScore(ctx context.Context, animeID string) float64 {
	fb, err := e.library.Feedback(ctx, animeID)
	if err != nil {
		slog.Warn("failed to fetch feedback", "anime_id", animeID, "error", err)
		return 0
	}
	return FeedbackScore(fb)
}

func (e *Engine) normalizedRank(ctx context.Context, animeID string, totalDocs int) float64 {
	rank, err := e.library.Rank(ctx, animeID)
	if err != nil {
		slog.Warn("failed to fetch rank", "anime_id", animeID, "error", err)
		return 0
	}
	return NormalizedRank(rank, totalDocs)
}

func (e *Engine) imageURL(ctx context.Context, animeID string) string {
	url, err := e.library.ImageURL(ctx, animeID)
	if err != nil {
		slog.Warn("failed to fetch image url", "anime_id", animeID, "error", err)
		return ""
	}
	return url
}

// totalAnimeCount prefers the live corpus count and falls back to the
// configured constant when the store cannot answer.
func (e *Engine) totalAnimeCount(ctx context.Context) int {
	total, err := e.library.TotalAnimeCount(ctx)
	if err != nil || total <= 0 {
		if err != nil {
			slog.Warn("failed to fetch total anime count, using fallback", "error", err, "fallback", e.totalDocs)
		}
		return e.totalDocs
	}
	return total
}
