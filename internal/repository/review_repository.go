package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/filmfest/catalogue-api/internal/model"
)

type ReviewRepo struct{ DB *sql.DB }

func NewReviewRepo(db *sql.DB) *ReviewRepo { return &ReviewRepo{DB: db} }

// ReviewRow is one entry of GET /v1/films/:id/reviews.
type ReviewRow struct {
	ReviewerID        int64   `json:"reviewerId"`
	ReviewerFirstName string  `json:"reviewerFirstName"`
	ReviewerLastName  string  `json:"reviewerLastName"`
	Rating            int     `json:"rating"`
	Review            *string `json:"review"`
	Timestamp         string  `json:"timestamp"`
}

// ListForFilm returns a film's reviews joined with reviewer names,
// newest first.
func (r *ReviewRepo) ListForFilm(ctx context.Context, filmID int64) ([]ReviewRow, error) {
	const q = `SELECT film_review.user_id, user.first_name, user.last_name,
		film_review.rating, film_review.review, film_review.timestamp
		FROM film_review
		JOIN user ON user.id = film_review.user_id
		WHERE film_review.film_id = ?
		ORDER BY film_review.timestamp DESC`

	rows, err := r.DB.QueryContext(ctx, q, filmID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []ReviewRow{}
	for rows.Next() {
		var rr ReviewRow
		var review sql.NullString
		var ts time.Time
		if err := rows.Scan(&rr.ReviewerID, &rr.ReviewerFirstName,
			&rr.ReviewerLastName, &rr.Rating, &review, &ts); err != nil {
			return nil, err
		}
		if review.Valid {
			rr.Review = &review.String
		}
		rr.Timestamp = ts.UTC().Format(model.DateTime)
		out = append(out, rr)
	}
	return out, rows.Err()
}

// CountForFilm returns how many reviews a film has accrued. A film with
// one or more reviews is locked for core-metadata edits.
func (r *ReviewRepo) CountForFilm(ctx context.Context, filmID int64) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM film_review WHERE film_id=?", filmID).Scan(&n)
	return n, err
}

// Add inserts a review. Reviews have no update endpoint; once created
// they are immutable.
func (r *ReviewRepo) Add(ctx context.Context, filmID, userID int64, rating int, review *string) error {
	var text any
	if review != nil {
		text = *review
	}
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO film_review (film_id, user_id, rating, review) VALUES (?,?,?,?)",
		filmID, userID, rating, text)
	return err
}

// DeleteForFilm removes all reviews of a film; called before the film
// row itself is deleted.
func (r *ReviewRepo) DeleteForFilm(ctx context.Context, filmID int64) error {
	_, err := r.DB.ExecContext(ctx,
		"DELETE FROM film_review WHERE film_id=?", filmID)
	return err
}
