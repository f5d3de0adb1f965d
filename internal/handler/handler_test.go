package handler

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/filmfest/catalogue-api/internal/config"
	"github.com/filmfest/catalogue-api/internal/queue"
	"github.com/filmfest/catalogue-api/internal/repository"
	"github.com/filmfest/catalogue-api/internal/storage"
	"github.com/filmfest/catalogue-api/internal/validate"
)

// env wires real handlers over a sqlmock database, a temp image dir and
// a disabled janitor, mirroring how main assembles the service.
type env struct {
	e      *echo.Echo
	mock   sqlmock.Sqlmock
	images *storage.ImageStore
	uh     *UserHandler
	fh     *FilmHandler
	rh     *ReviewHandler
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	images, err := storage.New(t.TempDir())
	require.NoError(t, err)

	cfg := config.Config{BcryptCost: bcrypt.MinCost}
	janitor := queue.NewPublisher("")

	users := repository.NewUserRepo(db)
	films := repository.NewFilmRepo(db)
	genres := repository.NewGenreRepo(db)
	reviews := repository.NewReviewRepo(db)

	e := echo.New()
	e.Validator = validate.New()

	return &env{
		e:      e,
		mock:   mock,
		images: images,
		uh:     NewUserHandler(cfg, users, images, janitor),
		fh:     NewFilmHandler(cfg, users, films, genres, reviews, images, janitor),
		rh:     NewReviewHandler(users, films, reviews),
	}
}

// request builds an echo context for a handler invocation. A non-empty
// body is sent as JSON unless contentType overrides it; a non-empty token
// goes into the session header.
func (x *env) request(method, target, body, token, contentType string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set(echo.HeaderContentType, contentType)
	} else if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(AuthHeader, token)
	}
	rec := httptest.NewRecorder()
	return x.e.NewContext(req, rec), rec
}

func withID(c echo.Context, id string) echo.Context {
	c.SetParamNames("id")
	c.SetParamValues(id)
	return c
}

// userRow builds the full user column set as scanned by the repository.
func userRow(id int64, email, hash string, image, token any) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "email", "first_name", "last_name", "password", "image_filename", "auth_token"}).
		AddRow(id, email, "Amy", "Adams", hash, image, token)
}

func mustHash(t *testing.T, plain string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}
