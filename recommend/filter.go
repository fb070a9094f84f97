package recommend

import (
	"strconv"
	"strings"
)

// ExtractGenres parses a bracket/quote-delimited genre string as stored
// by the ingestion job (e.g. "['Action', 'Drama']") into a clean list.
// Malformed input degrades to an empty list, never an error.
func ExtractGenres(s string) []string {
	cleaned := strings.Trim(strings.TrimSpace(s), `"'`)
	if cleaned == "" || cleaned == "[]" {
		return []string{}
	}
	cleaned = strings.Trim(cleaned, "[]")

	genres := []string{}
	for _, part := range strings.Split(cleaned, ",") {
		genre := strings.Trim(strings.TrimSpace(part), `"'`)
		if genre == "" {
			continue
		}
		genres = append(genres, genre)
	}
	return genres
}

// MatchFilter reports whether a candidate's metadata satisfies every
// present dimension of the filter. It is a pure short-circuit AND; a
// filter with no fields set matches everything. Malformed numeric
// metadata uses a zero default, except rating: an unparseable rating
// rejects the candidate even when no rating bound was requested, so
// malformed data never passes filters silently.
func MatchFilter(c *Candidate, f *QueryFilter) bool {
	if f == nil {
		return true
	}

	if len(f.Genres) > 0 && !genresOverlap(ExtractGenres(c.Genres), f.Genres) {
		return false
	}

	year := parseIntOrZero(c.Year)
	if f.YearStart != nil && year < *f.YearStart {
		return false
	}
	if f.YearEnd != nil && year > *f.YearEnd {
		return false
	}

	if len(f.Seasons) > 0 && !containsFold(f.Seasons, c.Season) {
		return false
	}

	rating, err := strconv.ParseFloat(strings.TrimSpace(c.Rating), 64)
	if err != nil && strings.TrimSpace(c.Rating) != "" {
		return false
	}
	if f.RatingMin != nil && rating < *f.RatingMin {
		return false
	}
	if f.RatingMax != nil && rating > *f.RatingMax {
		return false
	}

	return true
}

// genresOverlap reports whether any filter genre appears in the
// candidate's genre list, case-insensitively.
func genresOverlap(candidate, wanted []string) bool {
	for _, w := range wanted {
		if containsFold(candidate, w) {
			return true
		}
	}
	return false
}

func containsFold(list []string, s string) bool {
	for _, item := range list {
		if strings.EqualFold(item, s) {
			return true
		}
	}
	return false
}

// parseIntOrZero converts numeric metadata fields that may arrive empty
// or malformed from the index. Absence and parse failure both default
// to zero, matching the filter's year semantics.
func parseIntOrZero(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}
