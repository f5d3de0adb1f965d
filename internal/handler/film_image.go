package handler

import (
	"context"
	"database/sql"
	"errors"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/storage"
)

// GetImage handles GET /v1/films/:id/image.
func (h *FilmHandler) GetImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	f, err := h.Films.GetByID(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, pipeline.NotFound("no film with id"))
	}
	if err != nil {
		return fail(c, err)
	}
	if !f.ImageFilename.Valid {
		return respond(c, pipeline.NotFound("film has no image"))
	}
	return serveImage(c, h.Images, f.ImageFilename.String)
}

// SetImage handles PUT /v1/films/:id/image. Hero image replacement is
// deliberately not gated by the review/release lock: a locked film still
// accepts a new image, only core metadata is frozen.
func (h *FilmHandler) SetImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid film id"))
	}
	ctx := c.Request().Context()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadFilm(h.Films, id),
		pipeline.RequireDirector("only the director of a film may change the hero image"),
		contentTypeAllowed(c),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	oldName := ""
	if rc.Film.ImageFilename.Valid {
		oldName = rc.Film.ImageFilename.String
	}
	return replaceImage(c, h.Images, h.Janitor, storage.KindFilm, id, oldName,
		func(ctx context.Context, filename string) error {
			return h.Films.SetImage(ctx, id, filename)
		})
}
