package repository

import (
	"context"
	"strings"
	"time"

	"github.com/filmfest/catalogue-api/internal/model"
)

// FilmSearchQuery defines filters, sorting and pagination for the film
// search. Genre ids and age ratings are validated against reference data
// by the handler before this runs; the sort key is mapped through an
// allow-list here so user input never reaches the ORDER BY clause.
type FilmSearchQuery struct {
	Q          string
	GenreIDs   []int64
	AgeRatings []string
	DirectorID int64 // 0 when unset
	ReviewerID int64 // 0 when unset
	SortBy     string
	StartIndex *int
	Count      *int
}

// FilmSummary is one row of the search result.
type FilmSummary struct {
	FilmID            int64   `json:"filmId"`
	Title             string  `json:"title"`
	GenreID           int64   `json:"genreId"`
	DirectorID        int64   `json:"directorId"`
	DirectorFirstName string  `json:"directorFirstName"`
	DirectorLastName  string  `json:"directorLastName"`
	ReleaseDate       string  `json:"releaseDate"`
	AgeRating         string  `json:"ageRating"`
	Rating            float64 `json:"rating"`
}

// sortClauses maps every accepted sort key to its ORDER BY clause. Ties
// always break by film id ascending so pagination is deterministic.
var sortClauses = map[string]string{
	"ALPHABETICAL_ASC":  "film.title ASC, film.id ASC",
	"ALPHABETICAL_DESC": "film.title DESC, film.id ASC",
	"RELEASED_ASC":      "film.release_date ASC, film.id ASC",
	"RELEASED_DESC":     "film.release_date DESC, film.id ASC",
	"RATING_ASC":        "rating ASC, film.id ASC",
	"RATING_DESC":       "rating DESC, film.id ASC",
}

// ValidSortKey reports whether s names an accepted sort order.
func ValidSortKey(s string) bool {
	_, ok := sortClauses[s]
	return ok
}

// Search returns the filtered, sorted page of films plus the total size
// of the filtered set before pagination. All filters combine with AND.
func (r *FilmRepo) Search(ctx context.Context, q FilmSearchQuery) ([]FilmSummary, int64, error) {
	where := []string{}
	args := []any{}

	if q.Q != "" {
		needle := "%" + strings.ToLower(q.Q) + "%"
		where = append(where, "(LOWER(film.title) LIKE ? OR LOWER(film.description) LIKE ?)")
		args = append(args, needle, needle)
	}
	if len(q.GenreIDs) > 0 {
		ph := make([]string, len(q.GenreIDs))
		for i, id := range q.GenreIDs {
			ph[i] = "?"
			args = append(args, id)
		}
		where = append(where, "film.genre_id IN ("+strings.Join(ph, ",")+")")
	}
	if len(q.AgeRatings) > 0 {
		ph := make([]string, len(q.AgeRatings))
		for i, ar := range q.AgeRatings {
			ph[i] = "?"
			args = append(args, ar)
		}
		where = append(where, "film.age_rating IN ("+strings.Join(ph, ",")+")")
	}
	if q.DirectorID != 0 {
		where = append(where, "film.director_id = ?")
		args = append(args, q.DirectorID)
	}
	if q.ReviewerID != 0 {
		where = append(where, "EXISTS (SELECT 1 FROM film_review fr WHERE fr.film_id = film.id AND fr.user_id = ?)")
		args = append(args, q.ReviewerID)
	}

	cond := "1=1"
	if len(where) > 0 {
		cond = strings.Join(where, " AND ")
	}

	// Total size of the filtered set, before pagination. The response
	// count field reports this, not the page length.
	var total int64
	countSQL := "SELECT COUNT(*) FROM film WHERE " + cond
	if err := r.DB.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []FilmSummary{}, 0, nil
	}

	order, ok := sortClauses[q.SortBy]
	if !ok {
		order = sortClauses["RELEASED_ASC"]
	}

	offset := 0
	if q.StartIndex != nil {
		offset = *q.StartIndex
	}
	limit := int(total) // "to the end" of the unpaginated filtered set
	if q.Count != nil {
		limit = *q.Count
	}

	dataSQL := `SELECT
			film.id,
			film.title,
			film.genre_id,
			film.director_id,
			user.first_name,
			user.last_name,
			film.release_date,
			film.age_rating,
			CAST(COALESCE(ROUND(all_ratings.rating_avg, 1), 0) AS FLOAT) AS rating
		FROM film
		JOIN user ON user.id = film.director_id
		LEFT JOIN (SELECT film_id, AVG(rating) AS rating_avg FROM film_review GROUP BY film_id) AS all_ratings
			ON all_ratings.film_id = film.id
		WHERE ` + cond + `
		ORDER BY ` + order + `
		LIMIT ? OFFSET ?`

	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.DB.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]FilmSummary, 0, limit)
	for rows.Next() {
		var s FilmSummary
		var released time.Time
		if err := rows.Scan(
			&s.FilmID,
			&s.Title,
			&s.GenreID,
			&s.DirectorID,
			&s.DirectorFirstName,
			&s.DirectorLastName,
			&released,
			&s.AgeRating,
			&s.Rating,
		); err != nil {
			return nil, 0, err
		}
		s.ReleaseDate = released.UTC().Format(model.DateTime)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
