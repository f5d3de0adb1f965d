package handler

import (
	"net/http"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetUserImage(t *testing.T) {
	x := newEnv(t)
	require.NoError(t, x.images.Write("user_7.png", []byte("png bytes")))

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByID)).
		WithArgs(int64(7)).
		WillReturnRows(userRow(7, "amy@example.com", "hash", "user_7.png", nil))

	c, rec := x.request(http.MethodGet, "/v1/users/7/image", "", "", "")
	require.NoError(t, x.uh.GetImage(withID(c, "7")))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
	assert.Equal(t, "png bytes", rec.Body.String())
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestGetUserImageNoImage(t *testing.T) {
	x := newEnv(t)

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByID)).
		WithArgs(int64(7)).
		WillReturnRows(userRow(7, "amy@example.com", "hash", nil, nil))

	c, rec := x.request(http.MethodGet, "/v1/users/7/image", "", "", "")
	require.NoError(t, x.uh.GetImage(withID(c, "7")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestSetUserImageFirstUpload(t *testing.T) {
	x := newEnv(t)
	expectSelf(x, "hash")
	x.mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET image_filename=? WHERE id=?")).
		WithArgs("user_7.png", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := x.request(http.MethodPut, "/v1/users/7/image", "png bytes", "tok123", "image/png")
	require.NoError(t, x.uh.SetImage(withID(c, "7")))

	assert.Equal(t, http.StatusCreated, rec.Code)
	data, err := x.images.Read("user_7.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("png bytes"), data)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestSetUserImageReplacesOldExtension(t *testing.T) {
	x := newEnv(t)
	require.NoError(t, x.images.Write("user_7.jpg", []byte("old jpeg")))

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByToken)).
		WithArgs("tok123").
		WillReturnRows(userRow(7, "amy@example.com", "hash", "user_7.jpg", "tok123"))
	x.mock.ExpectQuery(regexp.QuoteMeta(qryByID)).
		WithArgs(int64(7)).
		WillReturnRows(userRow(7, "amy@example.com", "hash", "user_7.jpg", "tok123"))
	x.mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET image_filename=? WHERE id=?")).
		WithArgs("user_7.png", int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := x.request(http.MethodPut, "/v1/users/7/image", "new png", "tok123", "image/png")
	require.NoError(t, x.uh.SetImage(withID(c, "7")))

	assert.Equal(t, http.StatusOK, rec.Code, "replacement responds 200, not 201")

	// The old file with the stale extension must be gone.
	_, err := x.images.Read("user_7.jpg")
	assert.Error(t, err)
	data, err := x.images.Read("user_7.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("new png"), data)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestSetUserImageRejectsContentType(t *testing.T) {
	x := newEnv(t)
	expectSelf(x, "hash")

	c, rec := x.request(http.MethodPut, "/v1/users/7/image", "svg bytes", "tok123", "image/svg+xml")
	require.NoError(t, x.uh.SetImage(withID(c, "7")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestSetUserImageOnOtherAccount(t *testing.T) {
	x := newEnv(t)

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByToken)).
		WithArgs("tok123").
		WillReturnRows(userRow(7, "amy@example.com", "hash", nil, "tok123"))
	x.mock.ExpectQuery(regexp.QuoteMeta(qryByID)).
		WithArgs(int64(8)).
		WillReturnRows(userRow(8, "bea@example.com", "hash", nil, nil))

	c, rec := x.request(http.MethodPut, "/v1/users/8/image", "png bytes", "tok123", "image/png")
	require.NoError(t, x.uh.SetImage(withID(c, "8")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestDeleteUserImage(t *testing.T) {
	x := newEnv(t)
	require.NoError(t, x.images.Write("user_7.png", []byte("png bytes")))

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByToken)).
		WithArgs("tok123").
		WillReturnRows(userRow(7, "amy@example.com", "hash", "user_7.png", "tok123"))
	x.mock.ExpectQuery(regexp.QuoteMeta(qryByID)).
		WithArgs(int64(7)).
		WillReturnRows(userRow(7, "amy@example.com", "hash", "user_7.png", "tok123"))
	x.mock.ExpectExec(regexp.QuoteMeta("UPDATE user SET image_filename=NULL WHERE id=?")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := x.request(http.MethodDelete, "/v1/users/7/image", "", "tok123", "")
	require.NoError(t, x.uh.DeleteImage(withID(c, "7")))

	assert.Equal(t, http.StatusOK, rec.Code)
	_, err := x.images.Read("user_7.png")
	assert.Error(t, err, "the file is removed along with the reference")
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestDeleteUserImageWithoutImage(t *testing.T) {
	x := newEnv(t)
	expectSelf(x, "hash")

	c, rec := x.request(http.MethodDelete, "/v1/users/7/image", "", "tok123", "")
	require.NoError(t, x.uh.DeleteImage(withID(c, "7")))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

// A locked film still accepts a new hero image.
func TestSetFilmImageOnLockedFilm(t *testing.T) {
	x := newEnv(t)
	release := time.Now().UTC().Add(-48 * time.Hour)

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByToken)).
		WithArgs("tok123").
		WillReturnRows(userRow(2, "amy@example.com", "hash", nil, "tok123"))
	x.mock.ExpectQuery(regexp.QuoteMeta(qryFilmByID)).
		WithArgs(int64(4)).
		WillReturnRows(filmRow(4, "Heat", release, 2, nil))
	x.mock.ExpectExec(regexp.QuoteMeta("UPDATE film SET image_filename=? WHERE id=?")).
		WithArgs("film_4.jpg", int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := x.request(http.MethodPut, "/v1/films/4/image", "jpeg bytes", "tok123", "image/jpeg")
	require.NoError(t, x.fh.SetImage(withID(c, "4")))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}

func TestSetFilmImageNotDirector(t *testing.T) {
	x := newEnv(t)
	release := time.Now().UTC().Add(48 * time.Hour)

	x.mock.ExpectQuery(regexp.QuoteMeta(qryByToken)).
		WithArgs("tok123").
		WillReturnRows(userRow(9, "bea@example.com", "hash", nil, "tok123"))
	x.mock.ExpectQuery(regexp.QuoteMeta(qryFilmByID)).
		WithArgs(int64(4)).
		WillReturnRows(filmRow(4, "Heat", release, 2, nil))

	c, rec := x.request(http.MethodPut, "/v1/films/4/image", "jpeg bytes", "tok123", "image/jpeg")
	require.NoError(t, x.fh.SetImage(withID(c, "4")))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, x.mock.ExpectationsWereMet())
}
