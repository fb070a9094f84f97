// Package store provides database access to anime records, user watch
// history, and the anime embedding index.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/ayaka-io/animatch/internal/profile"
	"github.com/ayaka-io/animatch/recommend"
)

// Store provides database access to all raw objects and implements the
// recommendation pipeline's Library and VectorIndex collaborators.
type Store struct {
	profile *profile.Profile
	driver  Driver
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	return &Store{
		driver:  driver,
		profile: profile,
	}
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

func (s *Store) Close() error {
	return s.driver.Close()
}

// AnimesByIDs implements recommend.Library.
func (s *Store) AnimesByIDs(ctx context.Context, ids []string) ([]*recommend.Anime, error) {
	animes, err := s.driver.ListAnimesByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	list := make([]*recommend.Anime, 0, len(animes))
	for _, a := range animes {
		list = append(list, &recommend.Anime{
			ID:     a.ID,
			Title:  a.Title,
			Genres: a.Genres,
		})
	}
	return list, nil
}

// WatchHistory implements recommend.Library. The watched list is stored
// as a serialized id list string and parsed defensively: a malformed
// entry is skipped, never an error.
func (s *Store) WatchHistory(ctx context.Context, userID string) ([]string, error) {
	raw, err := s.driver.GetWatchedList(ctx, userID)
	if err != nil {
		return nil, err
	}
	return parseIDList(raw), nil
}

// Feedback implements recommend.Library.
func (s *Store) Feedback(ctx context.Context, animeID string) (*recommend.Feedback, error) {
	fb, err := s.driver.GetAnimeFeedback(ctx, animeID)
	if err != nil {
		return nil, err
	}
	return &recommend.Feedback{
		NumFavorites: fb.NumFavorites,
		NumListUsers: fb.NumListUsers,
		Feedback:     fb.Feedback,
	}, nil
}

// Rank implements recommend.Library.
func (s *Store) Rank(ctx context.Context, animeID string) (float64, error) {
	return s.driver.GetAnimeRank(ctx, animeID)
}

// ImageURL implements recommend.Library.
func (s *Store) ImageURL(ctx context.Context, animeID string) (string, error) {
	return s.driver.GetAnimeImageURL(ctx, animeID)
}

// TotalAnimeCount implements recommend.Library.
func (s *Store) TotalAnimeCount(ctx context.Context) (int, error) {
	return s.driver.CountAnimes(ctx)
}

// SearchAnime implements recommend.VectorIndex. Match metadata is
// surfaced as strings, matching what the pipeline's filter expects from
// a denormalized index record.
func (s *Store) SearchAnime(ctx context.Context, vector []float32, topK int) ([]*recommend.Candidate, error) {
	matches, err := s.driver.SearchAnimeByVector(ctx, &FindSimilarAnime{
		Vector: vector,
		Limit:  topK,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*recommend.Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, &recommend.Candidate{
			ID:          m.Anime.ID,
			Title:       m.Anime.Title,
			Description: m.Anime.Description,
			Genres:      m.Anime.Genres,
			Year:        strconv.Itoa(m.Anime.Year),
			Season:      m.Anime.Season,
			Rating:      strconv.FormatFloat(m.Anime.Rating, 'f', -1, 64),
			Score:       m.Score,
		})
	}
	return candidates, nil
}

var (
	_ recommend.Library     = (*Store)(nil)
	_ recommend.VectorIndex = (*Store)(nil)
)

// parseIDList parses a serialized id list like "['101', '102']".
func parseIDList(raw string) []string {
	cleaned := strings.Trim(strings.TrimSpace(raw), `"'`)
	if cleaned == "" || cleaned == "[]" {
		return []string{}
	}
	cleaned = strings.Trim(cleaned, "[]")

	ids := []string{}
	for _, part := range strings.Split(cleaned, ",") {
		id := strings.Trim(strings.TrimSpace(part), `"'`)
		if id == "" {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}
