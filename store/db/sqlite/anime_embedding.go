package sqlite

import (
	"context"
	"encoding/binary"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/ayaka-io/animatch/store"
)

// Vectors are stored as BLOBs (little-endian float32) and similarity is
// computed in Go. Brute force, dev-only; see the package comment.

func (d *DB) UpsertAnimeEmbedding(ctx context.Context, upsert *store.UpsertAnimeEmbedding) error {
	stmt := `
		INSERT INTO anime_embedding (anime_id, embedding, model, updated_ts)
		VALUES (?, ?, ?, strftime('%s', 'now'))
		ON CONFLICT (anime_id) DO UPDATE SET
			embedding = excluded.embedding,
			model = excluded.model,
			updated_ts = excluded.updated_ts
	`
	if _, err := d.db.ExecContext(ctx, stmt, upsert.AnimeID, float32sToBlob(upsert.Embedding), upsert.Model); err != nil {
		return errors.Wrap(err, "failed to upsert anime embedding")
	}
	return nil
}

func (d *DB) SearchAnimeByVector(ctx context.Context, find *store.FindSimilarAnime) ([]*store.AnimeMatch, error) {
	query := `
		SELECT a.id, a.title, a.description, a.genres, a.year, a.season, a.rating,
			a.rank, a.num_favorites, a.num_list_users, a.feedback, a.image_url,
			e.embedding
		FROM anime_embedding e
		JOIN anime a ON a.id = e.anime_id
	`
	rows, err := d.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.Wrap(err, "failed to search anime by vector")
	}
	defer rows.Close()

	matches := []*store.AnimeMatch{}
	for rows.Next() {
		var anime store.Anime
		var blob []byte
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
			&blob,
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan anime match")
		}

		stored, err := blobToFloat32s(blob)
		if err != nil {
			// Skip records written with a different dimension.
			continue
		}
		matches = append(matches, &store.AnimeMatch{
			Anime: &anime,
			Score: cosineSimilarity(find.Vector, stored),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if find.Limit > 0 && len(matches) > find.Limit {
		matches = matches[:find.Limit]
	}
	return matches, nil
}

func float32sToBlob(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

func blobToFloat32s(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, errors.Errorf("invalid embedding blob length: %d", len(blob))
	}
	vec := make([]float32, len(blob)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(blob[i*4 : i*4+4]))
	}
	return vec, nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
