// Package recommend implements the anime recommendation pipeline:
// query interpretation, vector candidate retrieval, metadata filtering,
// and blended relevance scoring.
package recommend

import "context"

// QueryFilter holds the structured constraints extracted from a free-text
// query. Every field is independently optional; a nil field means "no
// constraint on this dimension". A filter is built once per request and
// discarded after the orchestration pass.
type QueryFilter struct {
	Genres              []string `json:"genres,omitempty"`
	YearStart           *int     `json:"year_start,omitempty"`
	YearEnd             *int     `json:"year_end,omitempty"`
	Seasons             []string `json:"seasons,omitempty"`
	RatingMin           *float64 `json:"rating_min,omitempty"`
	RatingMax           *float64 `json:"rating_max,omitempty"`
	DescriptionKeywords []string `json:"description_keywords,omitempty"`
}

// Candidate is a denormalized anime record surfaced by the vector index.
// Metadata fields arrive as strings from the index and are parsed
// defensively at filter/score time. Candidates are fetched per request
// and never persisted by this package.
type Candidate struct {
	ID          string  `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Genres      string  `json:"genres"` // serialized list, e.g. "['Action', 'Drama']"
	Year        string  `json:"year"`
	Season      string  `json:"season"`
	Rating      string  `json:"rating"`
	Score       float64 `json:"score"` // cosine similarity from the vector search
}

// AnimeScore is the per-candidate score breakdown included in responses.
type AnimeScore struct {
	CosineSimilarity float64 `json:"cosine_similarity"`
	FeedbackScore    float64 `json:"feedback_score"`
	NormalizedScore  float64 `json:"normalized_score"`
	CombinedScore    float64 `json:"combined_score"`
}

// Recommendation is the user-facing output record. It is owned solely by
// the response; no shared mutable state.
type Recommendation struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Rating      float64    `json:"rating"`
	Year        string     `json:"year"`
	Season      string     `json:"season"`
	Genres      []string   `json:"genres"`
	ImageURL    string     `json:"image_url,omitempty"`
	Scores      AnimeScore `json:"scores"`
}

// Anime is a full record fetched from the relational store, used for
// watch-history query expansion.
type Anime struct {
	ID     string
	Title  string
	Genres string // serialized list, same encoding as Candidate.Genres
}

// Feedback carries the raw community feedback fields for one anime.
type Feedback struct {
	NumFavorites float64
	NumListUsers float64
	Feedback     float64
}

// Library is the relational-store collaborator. Implementations must be
// safe for concurrent use; the pipeline itself holds no cross-request
// state.
type Library interface {
	// AnimesByIDs returns full records for the given ids, preserving
	// only rows that exist.
	AnimesByIDs(ctx context.Context, ids []string) ([]*Anime, error)

	// WatchHistory returns the ordered list of anime ids a user watched.
	WatchHistory(ctx context.Context, userID string) ([]string, error)

	// Feedback returns the community feedback fields for one anime.
	Feedback(ctx context.Context, animeID string) (*Feedback, error)

	// Rank returns the popularity rank (lower = more popular).
	Rank(ctx context.Context, animeID string) (float64, error)

	// ImageURL returns the cover image URL, empty when unknown.
	ImageURL(ctx context.Context, animeID string) (string, error)

	// TotalAnimeCount returns the corpus size used for rank normalization.
	TotalAnimeCount(ctx context.Context) (int, error)
}

// VectorIndex is the nearest-neighbor search collaborator.
type VectorIndex interface {
	// SearchAnime returns up to topK candidates with metadata attached,
	// ordered by decreasing similarity.
	SearchAnime(ctx context.Context, vector []float32, topK int) ([]*Candidate, error)
}

// Embedder generates the query vector. The model identity and dimension
// must match the vectors stored in the index.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Completer is the language-model collaborator used only for query
// interpretation. It must tolerate arbitrary free text.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
