package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReviewRepoListForFilm(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	ts := time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"user_id", "first_name", "last_name", "rating", "review", "timestamp"}).
		AddRow(9, "Bea", "Jones", 8, "great", ts).
		AddRow(10, "Cal", "Nguyen", 4, nil, ts.Add(-time.Hour))

	mock.ExpectQuery(regexp.QuoteMeta("FROM film_review")).
		WithArgs(int64(4)).
		WillReturnRows(rows)

	got, err := repo.ListForFilm(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "great", *got[0].Review)
	assert.Nil(t, got[1].Review, "a rating-only review has no text")
	assert.Equal(t, "2025-06-02 09:30:00", got[0].Timestamp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepoCountForFilm(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM film_review WHERE film_id=?")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := repo.CountForFilm(context.Background(), 4)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepoAdd(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	text := "great"
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO film_review (film_id, user_id, rating, review) VALUES (?,?,?,?)")).
		WithArgs(int64(4), int64(9), 8, "great").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO film_review")).
		WithArgs(int64(4), int64(10), 5, nil).
		WillReturnResult(sqlmock.NewResult(2, 1))

	assert.NoError(t, repo.Add(context.Background(), 4, 9, 8, &text))
	assert.NoError(t, repo.Add(context.Background(), 4, 10, 5, nil))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepoDeleteForFilm(t *testing.T) {
	db, mock := newMock(t)
	repo := NewReviewRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM film_review WHERE film_id=?")).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	assert.NoError(t, repo.DeleteForFilm(context.Background(), 4))
	assert.NoError(t, mock.ExpectationsWereMet())
}
