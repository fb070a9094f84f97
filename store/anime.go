package store

// Anime is a full relational record. Genres keeps the serialized list
// encoding used by the ingestion job (e.g. "['Action', 'Drama']").
type Anime struct {
	ID           string
	Title        string
	Description  string
	Genres       string
	Year         int
	Season       string
	Rating       float64
	Rank         float64
	NumFavorites float64
	NumListUsers float64
	Feedback     float64
	ImageURL     string
}

// AnimeFeedback carries the raw community feedback fields.
type AnimeFeedback struct {
	NumFavorites float64
	NumListUsers float64
	Feedback     float64
}

// AnimeMatch is one nearest-neighbor search result.
type AnimeMatch struct {
	Anime *Anime
	Score float64 // cosine similarity in [0,1]
}

// FindSimilarAnime describes a vector search.
type FindSimilarAnime struct {
	Vector []float32
	Limit  int
}

// ListAnime describes a paginated anime listing, used by the ingestion job.
type ListAnime struct {
	Offset int
	Limit  int
}

// UpsertAnimeEmbedding inserts or replaces one stored embedding.
type UpsertAnimeEmbedding struct {
	AnimeID   string
	Embedding []float32
	Model     string
}
