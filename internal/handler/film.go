package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/config"
	"github.com/filmfest/catalogue-api/internal/model"
	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/queue"
	"github.com/filmfest/catalogue-api/internal/repository"
	"github.com/filmfest/catalogue-api/internal/storage"
)

// FilmHandler bundles dependencies for film endpoints.
type FilmHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Films   *repository.FilmRepo
	Genres  *repository.GenreRepo
	Reviews *repository.ReviewRepo
	Images  *storage.ImageStore
	Janitor *queue.Publisher
}

func NewFilmHandler(cfg config.Config, users *repository.UserRepo, films *repository.FilmRepo,
	genres *repository.GenreRepo, reviews *repository.ReviewRepo,
	images *storage.ImageStore, janitor *queue.Publisher) *FilmHandler {
	return &FilmHandler{Cfg: cfg, Users: users, Films: films, Genres: genres,
		Reviews: reviews, Images: images, Janitor: janitor}
}

// ----- DTOs -----

type createFilmReq struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	ReleaseDate string `json:"releaseDate" validate:"omitempty,sqldatetime"`
	GenreID     int64  `json:"genreId" validate:"required"`
	Runtime     *int64 `json:"runtime" validate:"omitempty,min=1"`
	AgeRating   string `json:"ageRating" validate:"omitempty,agerating"`
}

type editFilmReq struct {
	Title       *string `json:"title" validate:"omitempty,min=1"`
	Description *string `json:"description" validate:"omitempty,min=1"`
	ReleaseDate *string `json:"releaseDate" validate:"omitempty,sqldatetime"`
	GenreID     *int64  `json:"genreId"`
	Runtime     *int64  `json:"runtime" validate:"omitempty,min=1"`
	AgeRating   *string `json:"ageRating" validate:"omitempty,agerating"`
}

// Search handles GET /v1/films. Every supplied filter is validated
// before any of them is applied; an invalid value rejects the whole
// request rather than partially filtering.
func (h *FilmHandler) Search(c echo.Context) error {
	ctx := c.Request().Context()
	q := repository.FilmSearchQuery{
		Q:      c.QueryParam("q"),
		SortBy: "RELEASED_ASC",
	}

	if s := c.QueryParam("sortBy"); s != "" {
		if !repository.ValidSortKey(s) {
			return respond(c, pipeline.BadRequest("invalid sortBy"))
		}
		q.SortBy = s
	}
	if s := c.QueryParam("startIndex"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return respond(c, pipeline.BadRequest("invalid startIndex"))
		}
		q.StartIndex = &n
	}
	if s := c.QueryParam("count"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return respond(c, pipeline.BadRequest("invalid count"))
		}
		q.Count = &n
	}
	if s := c.QueryParam("directorId"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return respond(c, pipeline.BadRequest("invalid directorId"))
		}
		q.DirectorID = n
	}
	if s := c.QueryParam("reviewerId"); s != "" {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return respond(c, pipeline.BadRequest("invalid reviewerId"))
		}
		q.ReviewerID = n
	}
	for _, s := range c.QueryParams()["genreIds"] {
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return respond(c, pipeline.BadRequest("invalid genreIds"))
		}
		if _, err := h.Genres.GetByID(ctx, n); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return respond(c, pipeline.BadRequest("no genre with id"))
			}
			return fail(c, err)
		}
		q.GenreIDs = append(q.GenreIDs, n)
	}
	for _, s := range c.QueryParams()["ageRatings"] {
		if !model.ValidAgeRating(s) {
			return respond(c, pipeline.BadRequest("invalid ageRatings"))
		}
		q.AgeRatings = append(q.AgeRatings, s)
	}

	films, total, err := h.Films.Search(ctx, q)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"films": films, "count": total})
}

// ListGenres handles GET /v1/films/genres.
func (h *FilmHandler) ListGenres(c echo.Context) error {
	genres, err := h.Genres.List(c.Request().Context())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, genres)
}

// GetOne handles GET /v1/films/:id.
func (h *FilmHandler) GetOne(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	detail, err := h.Films.Detail(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, pipeline.NotFound("no film with id"))
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, detail)
}

// Create handles POST /v1/films.
func (h *FilmHandler) Create(c echo.Context) error {
	var req createFilmReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()
	now := time.Now().UTC()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		h.filmCreateRules(&req, now),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	release := now
	if req.ReleaseDate != "" {
		release, _ = model.ParseDateTime(req.ReleaseDate) // validated by schema check
	}
	ageRating := req.AgeRating
	if ageRating == "" {
		ageRating = "TBC"
	}
	film := model.Film{
		Title:       req.Title,
		Description: req.Description,
		ReleaseDate: release,
		GenreID:     req.GenreID,
		AgeRating:   ageRating,
		DirectorID:  rc.Actor.ID,
	}
	if req.Runtime != nil {
		film.Runtime = sql.NullInt64{Int64: *req.Runtime, Valid: true}
	}

	id, err := h.Films.Create(ctx, film)
	if errors.Is(err, repository.ErrTitleExists) {
		return respond(c, pipeline.Forbidden("film title is not unique"))
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"filmId": id})
}

// filmCreateRules: the release date may not be in the past, the genre
// must exist and the title must be unique. The title pre-check is
// best-effort; concurrent inserts are decided by the unique constraint.
func (h *FilmHandler) filmCreateRules(req *createFilmReq, now time.Time) pipeline.Check {
	return func(ctx context.Context, rc *pipeline.Request) pipeline.Outcome {
		if req.ReleaseDate != "" {
			release, err := model.ParseDateTime(req.ReleaseDate)
			if err != nil {
				return pipeline.BadRequest("invalid releaseDate")
			}
			if release.Before(now) {
				return pipeline.Forbidden("cannot release a film in the past")
			}
		}
		if out := pipeline.GenreExists(h.Genres, req.GenreID)(ctx, rc); !out.Allowed() {
			return out
		}
		_, err := h.Films.GetByTitle(ctx, req.Title)
		if err == nil {
			return pipeline.Forbidden("film title is not unique")
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return pipeline.Fail(err)
		}
		return pipeline.Allow()
	}
}

// Edit handles PATCH /v1/films/:id. Only unlocked films (no reviews,
// release date still in the future) accept core-metadata edits.
func (h *FilmHandler) Edit(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	var req editFilmReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()
	now := time.Now().UTC()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadFilm(h.Films, id),
		pipeline.RequireDirector("only the director of a film may change it"),
		pipeline.FilmEditable(h.Reviews, now),
		h.filmEditRules(&req, now),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	update := repository.FilmUpdate{
		Title:       req.Title,
		Description: req.Description,
		GenreID:     req.GenreID,
		Runtime:     req.Runtime,
		AgeRating:   req.AgeRating,
	}
	if req.ReleaseDate != nil {
		release, _ := model.ParseDateTime(*req.ReleaseDate) // validated by schema check
		update.ReleaseDate = &release
	}
	if err := h.Films.Update(ctx, id, update); err != nil {
		if errors.Is(err, repository.ErrTitleExists) {
			return respond(c, pipeline.Forbidden("film title is not unique"))
		}
		return fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

func (h *FilmHandler) filmEditRules(req *editFilmReq, now time.Time) pipeline.Check {
	return func(ctx context.Context, rc *pipeline.Request) pipeline.Outcome {
		if req.ReleaseDate != nil {
			release, err := model.ParseDateTime(*req.ReleaseDate)
			if err != nil {
				return pipeline.BadRequest("invalid releaseDate")
			}
			if release.Before(now) {
				return pipeline.Forbidden("cannot release a film in the past")
			}
		}
		if req.Title != nil {
			other, err := h.Films.GetByTitle(ctx, *req.Title)
			if err == nil && other.ID != rc.Film.ID {
				return pipeline.Forbidden("film title is not unique")
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return pipeline.Fail(err)
			}
		}
		if req.GenreID != nil {
			if out := pipeline.GenreExists(h.Genres, *req.GenreID)(ctx, rc); !out.Allowed() {
				return out
			}
		}
		return pipeline.Allow()
	}
}

// Delete handles DELETE /v1/films/:id. Reviews are removed in bulk
// before the film row; the hero image file is retired last, after the
// store mutation is committed.
func (h *FilmHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	ctx := c.Request().Context()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadFilm(h.Films, id),
		pipeline.RequireDirector("only the director of a film may delete it"),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	if err := h.Reviews.DeleteForFilm(ctx, id); err != nil {
		return fail(c, err)
	}
	if err := h.Films.Delete(ctx, id); err != nil {
		return fail(c, err)
	}
	if rc.Film.ImageFilename.Valid {
		if err := h.Images.Remove(rc.Film.ImageFilename.String); err != nil {
			publishOrphan(h.Janitor, rc.Film.ImageFilename.String, "film deleted")
		}
	}
	return c.NoContent(http.StatusOK)
}
