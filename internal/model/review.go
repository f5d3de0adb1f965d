package model

import (
	"database/sql"
	"time"
)

// Review represents a row in the `film_review` table. Reviews are
// immutable once created and are deleted in bulk when their film is
// deleted.
type Review struct {
	ID        int64          // film_review.id
	FilmID    int64          // film_review.film_id
	UserID    int64          // film_review.user_id
	Rating    int            // film_review.rating, integer in [1,10]
	Review    sql.NullString // film_review.review
	Timestamp time.Time      // film_review.timestamp
}
