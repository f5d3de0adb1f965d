package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/repository"
)

// ReviewHandler bundles dependencies for review endpoints.
type ReviewHandler struct {
	Users   *repository.UserRepo
	Films   *repository.FilmRepo
	Reviews *repository.ReviewRepo
}

func NewReviewHandler(users *repository.UserRepo, films *repository.FilmRepo, reviews *repository.ReviewRepo) *ReviewHandler {
	return &ReviewHandler{Users: users, Films: films, Reviews: reviews}
}

type addReviewReq struct {
	// Rating must be an integer; a fractional JSON number fails binding.
	Rating int     `json:"rating" validate:"required,min=1,max=10"`
	Review *string `json:"review"`
}

// List handles GET /v1/films/:id/reviews, newest first.
func (h *ReviewHandler) List(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	ctx := c.Request().Context()

	if _, err := h.Films.GetByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return respond(c, pipeline.NotFound("no film with id"))
		}
		return fail(c, err)
	}
	reviews, err := h.Reviews.ListForFilm(ctx, id)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, reviews)
}

// Add handles POST /v1/films/:id/reviews.
func (h *ReviewHandler) Add(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	var req addReviewReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()
	now := time.Now().UTC()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadFilm(h.Films, id),
		reviewRules(now),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	if err := h.Reviews.Add(ctx, id, rc.Actor.ID, req.Rating, req.Review); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusCreated)
}

// reviewRules: a director may not review their own film, and a film may
// not be reviewed before its release date.
func reviewRules(now time.Time) pipeline.Check {
	return func(ctx context.Context, rc *pipeline.Request) pipeline.Outcome {
		if rc.Film.DirectorID == rc.Actor.ID {
			return pipeline.Forbidden("cannot review your own film")
		}
		if !rc.Film.Released(now) {
			return pipeline.Forbidden("cannot review a film that has not yet released")
		}
		return pipeline.Allow()
	}
}
