package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func userRows(id int64, email string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password", "image_filename", "auth_token"}).
		AddRow(id, email, "Amy", "Adams", "$2a$fakehash", nil, nil)
}

func TestUserRepoCreate(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user (email, first_name, last_name, password) VALUES (?,?,?,?)")).
		WithArgs("amy@example.com", "Amy", "Adams", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(7, 1))

	id, err := repo.Create(context.Background(), "  Amy@Example.COM ", "Amy", "Adams", "secret123", bcrypt.MinCost)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoCreateDuplicateEmail(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO user")).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry 'amy@example.com' for key 'user.email'"))

	_, err := repo.Create(context.Background(), "amy@example.com", "Amy", "Adams", "secret123", bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByEmailNormalizes(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user WHERE email=? LIMIT 1")).
		WithArgs("amy@example.com").
		WillReturnRows(userRows(7, "amy@example.com"))

	u, err := repo.GetByEmail(context.Background(), " AMY@example.com ")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoGetByToken(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user WHERE auth_token=? LIMIT 1")).
		WithArgs("tok123").
		WillReturnRows(userRows(7, "amy@example.com"))

	u, err := repo.GetByToken(context.Background(), "tok123")
	assert.NoError(t, err)
	assert.Equal(t, int64(7), u.ID)

	mock.ExpectQuery(regexp.QuoteMeta("FROM user WHERE auth_token=? LIMIT 1")).
		WithArgs("stale").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetByToken(context.Background(), "stale")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoTokenLifecycle(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET auth_token=? WHERE id=?")).
		WithArgs("tok123", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET auth_token=NULL WHERE id=?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetToken(context.Background(), 7, "tok123"))
	assert.NoError(t, repo.ClearToken(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoUpdateEmailCollision(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET email=? WHERE id=?")).
		WithArgs("taken@example.com", int64(7)).
		WillReturnError(errors.New("Error 1062 (23000): Duplicate entry"))

	err := repo.UpdateEmail(context.Background(), 7, "taken@example.com")
	assert.ErrorIs(t, err, ErrEmailExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepoImageReference(t *testing.T) {
	db, mock := newMock(t)
	repo := NewUserRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET image_filename=? WHERE id=?")).
		WithArgs("user_7.png", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET image_filename=NULL WHERE id=?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, repo.SetImage(context.Background(), 7, "user_7.png"))
	assert.NoError(t, repo.ClearImage(context.Background(), 7))
	assert.NoError(t, mock.ExpectationsWereMet())
}
