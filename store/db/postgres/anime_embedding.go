package postgres

import (
	"context"

	"github.com/pgvector/pgvector-go"
	"github.com/pkg/errors"

	"github.com/ayaka-io/animatch/store"
)

// UpsertAnimeEmbedding inserts or updates one stored embedding.
func (d *DB) UpsertAnimeEmbedding(ctx context.Context, upsert *store.UpsertAnimeEmbedding) error {
	stmt := `
		INSERT INTO anime_embedding (anime_id, embedding, model, updated_ts)
		VALUES ($1, $2, $3, EXTRACT(EPOCH FROM NOW())::BIGINT)
		ON CONFLICT (anime_id)
		DO UPDATE SET
			embedding = EXCLUDED.embedding,
			model = EXCLUDED.model,
			updated_ts = EXCLUDED.updated_ts
	`
	vector := pgvector.NewVector(upsert.Embedding)
	if _, err := d.db.ExecContext(ctx, stmt, upsert.AnimeID, vector, upsert.Model); err != nil {
		return errors.Wrap(err, "failed to upsert anime embedding")
	}
	return nil
}

// SearchAnimeByVector runs a cosine nearest-neighbor query and joins the
// matches with their denormalized anime records. pgvector's <=> operator
// returns cosine distance, so similarity is 1 - distance.
func (d *DB) SearchAnimeByVector(ctx context.Context, find *store.FindSimilarAnime) ([]*store.AnimeMatch, error) {
	query := `
		SELECT a.id, a.title, a.description, a.genres, a.year, a.season, a.rating,
			a.rank, a.num_favorites, a.num_list_users, a.feedback, a.image_url,
			1 - (e.embedding <=> $1) AS similarity
		FROM anime_embedding e
		JOIN anime a ON a.id = e.anime_id
		ORDER BY e.embedding <=> $1
		LIMIT $2
	`
	vector := pgvector.NewVector(find.Vector)
	rows, err := d.db.QueryContext(ctx, query, vector, find.Limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search anime by vector")
	}
	defer rows.Close()

	matches := []*store.AnimeMatch{}
	for rows.Next() {
		var anime store.Anime
		var score float64
		if err := rows.Scan(
			&anime.ID,
			&anime.Title,
			&anime.Description,
			&anime.Genres,
			&anime.Year,
			&anime.Season,
			&anime.Rating,
			&anime.Rank,
			&anime.NumFavorites,
			&anime.NumListUsers,
			&anime.Feedback,
			&anime.ImageURL,
			&score,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan anime match")
		}
		matches = append(matches, &store.AnimeMatch{Anime: &anime, Score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return matches, nil
}
