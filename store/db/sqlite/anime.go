package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/pkg/errors"

	"github.com/ayaka-io/animatch/store"
)

func (d *DB) ListAnimesByIDs(ctx context.Context, ids []string) ([]*store.Anime, error) {
	if len(ids) == 0 {
		return []*store.Anime{}, nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `
		SELECT id, title, description, genres, year, season, rating,
			rank, num_favorites, num_list_users, feedback, image_url
		FROM anime
		WHERE id IN (` + strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ") + `)
	`
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list animes by ids")
	}
	defer rows.Close()

	return scanAnimes(rows)
}

func (d *DB) ListAnimes(ctx context.Context, find *store.ListAnime) ([]*store.Anime, error) {
	query := `
		SELECT id, title, description, genres, year, season, rating,
			rank, num_favorites, num_list_users, feedback, image_url
		FROM anime
		ORDER BY id
		LIMIT ? OFFSET ?
	`
	rows, err := d.db.QueryContext(ctx, query, find.Limit, find.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list animes")
	}
	defer rows.Close()

	return scanAnimes(rows)
}

func (d *DB) GetWatchedList(ctx context.Context, userID string) (string, error) {
	var watchedList string
	err := d.db.QueryRowContext(ctx,
		`SELECT watched_list FROM user_account WHERE user_id = ?`,
		userID,
	).Scan(&watchedList)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get watched list")
	}
	return watchedList, nil
}

func (d *DB) GetAnimeFeedback(ctx context.Context, animeID string) (*store.AnimeFeedback, error) {
	feedback := &store.AnimeFeedback{}
	err := d.db.QueryRowContext(ctx,
		`SELECT num_favorites, num_list_users, feedback FROM anime WHERE id = ?`,
		animeID,
	).Scan(&feedback.NumFavorites, &feedback.NumListUsers, &feedback.Feedback)
	if errors.Is(err, sql.ErrNoRows) {
		return &store.AnimeFeedback{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to get anime feedback")
	}
	return feedback, nil
}

func (d *DB) GetAnimeRank(ctx context.Context, animeID string) (float64, error) {
	var rank float64
	err := d.db.QueryRowContext(ctx, `SELECT rank FROM anime WHERE id = ?`, animeID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, errors.Wrap(err, "failed to get anime rank")
	}
	return rank, nil
}

func (d *DB) GetAnimeImageURL(ctx context.Context, animeID string) (string, error) {
	var imageURL string
	err := d.db.QueryRowContext(ctx, `SELECT image_url FROM anime WHERE id = ?`, animeID).Scan(&imageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "failed to get anime image url")
	}
	return imageURL, nil
}

func (d *DB) CountAnimes(ctx context.Context) (int, error) {
	var count int
	if err := d.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anime`).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "failed to count animes")
	}
	return count, nil
}

func scanAnimes(rows *sql.Rows) ([]*store.Anime, error) {
	list := []*store.Anime{}
	for rows.Next() {
		var anime store.Anime
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
		); err != nil {
			return nil, errors.Wrap(err, "failed to scan anime")
		}
		list = append(list, &anime)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return list, nil
}
