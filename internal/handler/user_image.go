package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/storage"
)

// GetImage handles GET /v1/users/:id/image.
func (h *UserHandler) GetImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid user id"))
	}
	u, err := h.Users.GetByID(c.Request().Context(), id)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, pipeline.NotFound("no user with id"))
	}
	if err != nil {
		return fail(c, err)
	}
	if !u.ImageFilename.Valid {
		return respond(c, pipeline.NotFound("user has no image"))
	}
	return serveImage(c, h.Images, u.ImageFilename.String)
}

// SetImage handles PUT /v1/users/:id/image.
func (h *UserHandler) SetImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid user id"))
	}
	ctx := c.Request().Context()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadUser(h.Users, id),
		pipeline.RequireSelf(id, "cannot change another user's profile photo"),
		contentTypeAllowed(c),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	oldName := ""
	if rc.TargetUser.ImageFilename.Valid {
		oldName = rc.TargetUser.ImageFilename.String
	}
	return replaceImage(c, h.Images, h.Janitor, storage.KindUser, id, oldName,
		func(ctx context.Context, filename string) error {
			return h.Users.SetImage(ctx, id, filename)
		})
}

// DeleteImage handles DELETE /v1/users/:id/image.
func (h *UserHandler) DeleteImage(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid user id"))
	}
	ctx := c.Request().Context()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadUser(h.Users, id),
		pipeline.RequireSelf(id, "cannot delete another user's profile photo"),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}
	if !rc.TargetUser.ImageFilename.Valid {
		return respond(c, pipeline.NotFound("user has no image"))
	}

	if err := h.Users.ClearImage(ctx, id); err != nil {
		return fail(c, err)
	}
	if err := h.Images.Remove(rc.TargetUser.ImageFilename.String); err != nil {
		publishOrphan(h.Janitor, rc.TargetUser.ImageFilename.String, "profile image deleted")
	}
	return c.NoContent(http.StatusOK)
}
