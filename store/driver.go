package store

import "context"

// Driver is the interface a database driver must implement.
type Driver interface {
	Close() error

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// ListAnimesByIDs returns full records for the given ids. Missing
	// ids are silently skipped.
	ListAnimesByIDs(ctx context.Context, ids []string) ([]*Anime, error)

	// ListAnimes returns a page of anime records ordered by id, used by
	// the embedding ingestion job.
	ListAnimes(ctx context.Context, find *ListAnime) ([]*Anime, error)

	// GetWatchedList returns the raw serialized watched-list string for
	// a user, or an empty string when the user does not exist.
	GetWatchedList(ctx context.Context, userID string) (string, error)

	// GetAnimeFeedback returns the community feedback fields for one anime.
	GetAnimeFeedback(ctx context.Context, animeID string) (*AnimeFeedback, error)

	// GetAnimeRank returns the popularity rank (lower = more popular).
	GetAnimeRank(ctx context.Context, animeID string) (float64, error)

	// GetAnimeImageURL returns the cover image URL, empty when unknown.
	GetAnimeImageURL(ctx context.Context, animeID string) (string, error)

	// CountAnimes returns the corpus size.
	CountAnimes(ctx context.Context) (int, error)

	// UpsertAnimeEmbedding inserts or replaces one stored embedding.
	UpsertAnimeEmbedding(ctx context.Context, upsert *UpsertAnimeEmbedding) error

	// SearchAnimeByVector returns the nearest stored embeddings joined
	// with their anime records, ordered by decreasing similarity.
	SearchAnimeByVector(ctx context.Context, find *FindSimilarAnime) ([]*AnimeMatch, error)
}
