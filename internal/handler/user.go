package handler

import (
	"context"
	"database/sql"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/filmfest/catalogue-api/internal/config"
	"github.com/filmfest/catalogue-api/internal/pipeline"
	"github.com/filmfest/catalogue-api/internal/queue"
	"github.com/filmfest/catalogue-api/internal/repository"
	"github.com/filmfest/catalogue-api/internal/storage"
	"github.com/filmfest/catalogue-api/internal/utils"
)

// UserHandler bundles dependencies for user endpoints.
type UserHandler struct {
	Cfg     config.Config
	Users   *repository.UserRepo
	Images  *storage.ImageStore
	Janitor *queue.Publisher
}

func NewUserHandler(cfg config.Config, users *repository.UserRepo, images *storage.ImageStore, janitor *queue.Publisher) *UserHandler {
	return &UserHandler{Cfg: cfg, Users: users, Images: images, Janitor: janitor}
}

// ----- DTOs -----

type registerReq struct {
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required,max=64"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

type loginReq struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserReq struct {
	FirstName       *string `json:"firstName" validate:"omitempty,min=1"`
	LastName        *string `json:"lastName" validate:"omitempty,min=1,max=64"`
	Email           *string `json:"email" validate:"omitempty,email"`
	Password        *string `json:"password" validate:"omitempty,min=6"`
	CurrentPassword *string `json:"currentPassword"`
}

type userView struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// Register handles POST /v1/users/register.
func (h *UserHandler) Register(c echo.Context) error {
	var req registerReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()

	// Best-effort pre-check; the unique constraint decides races.
	if _, err := h.Users.GetByEmail(ctx, req.Email); err == nil {
		return respond(c, pipeline.Forbidden("email already in use"))
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fail(c, err)
	}

	id, err := h.Users.Create(ctx, req.Email, req.FirstName, req.LastName, req.Password, h.Cfg.BcryptCost)
	if errors.Is(err, repository.ErrEmailExists) {
		return respond(c, pipeline.Forbidden("email already in use"))
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"userId": id})
}

// Login handles POST /v1/users/login. A fresh token is issued on every
// login, distinct from any previously issued one.
func (h *UserHandler) Login(c echo.Context) error {
	var req loginReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, pipeline.BadRequest("no user registered with that email"))
	}
	if err != nil {
		return fail(c, err)
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return respond(c, pipeline.Unauthenticated())
	}

	tok, err := utils.NewSessionToken()
	if err != nil {
		return fail(c, err)
	}
	if err := h.Users.SetToken(ctx, u.ID, tok); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"userId": u.ID, "token": tok})
}

// Logout handles POST /v1/users/logout. Clearing the stored token
// immediately invalidates it for all subsequent requests.
func (h *UserHandler) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	rc := &pipeline.Request{Token: token(c)}

	out := pipeline.New(pipeline.Authenticate(h.Users)).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}
	if err := h.Users.ClearToken(ctx, rc.Actor.ID); err != nil {
		return fail(c, err)
	}
	return c.NoContent(http.StatusOK)
}

// View handles GET /v1/users/:id. The email field is only included when
// the caller is viewing their own account.
func (h *UserHandler) View(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid user id"))
	}
	ctx := c.Request().Context()

	u, err := h.Users.GetByID(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return respond(c, pipeline.NotFound("no user with id"))
	}
	if err != nil {
		return fail(c, err)
	}

	view := userView{FirstName: u.FirstName, LastName: u.LastName}
	if tok := token(c); tok != "" {
		if actor, err := h.Users.GetByToken(ctx, tok); err == nil && actor.ID == id {
			view.Email = u.Email
		} else if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return fail(c, err)
		}
	}
	return c.JSON(http.StatusOK, view)
}

// Update handles PATCH /v1/users/:id.
func (h *UserHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respond(c, pipeline.BadRequest("invalid user id"))
	}
	var req updateUserReq
	if out := bindAndValidate(c, &req); !out.Allowed() {
		return respond(c, out)
	}
	ctx := c.Request().Context()

	rc := &pipeline.Request{Token: token(c)}
	out := pipeline.New(
		pipeline.Authenticate(h.Users),
		pipeline.LoadUser(h.Users, id),
		pipeline.RequireSelf(id, "cannot edit another user's account"),
		h.userUpdateRules(&req),
	).Run(ctx, rc)
	if !out.Allowed() {
		return respond(c, out)
	}

	if req.Email != nil {
		if err := h.Users.UpdateEmail(ctx, id, *req.Email); err != nil {
			if errors.Is(err, repository.ErrEmailExists) {
				return respond(c, pipeline.Forbidden("email already in use"))
			}
			return fail(c, err)
		}
	}
	if req.FirstName != nil {
		if err := h.Users.UpdateFirstName(ctx, id, *req.FirstName); err != nil {
			return fail(c, err)
		}
	}
	if req.LastName != nil {
		if err := h.Users.UpdateLastName(ctx, id, *req.LastName); err != nil {
			return fail(c, err)
		}
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.Cfg.BcryptCost)
		if err != nil {
			return fail(c, err)
		}
		if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
			return fail(c, err)
		}
	}
	return c.NoContent(http.StatusOK)
}

// userUpdateRules covers the domain rules of a profile edit: a supplied
// email must not collide with another account; a password change needs a
// differing, verified current password. The identical-password rule is
// checked before hash verification on purpose: it fails 403 regardless of
// whether the current password matches.
func (h *UserHandler) userUpdateRules(req *updateUserReq) pipeline.Check {
	return func(ctx context.Context, rc *pipeline.Request) pipeline.Outcome {
		if req.Email != nil {
			other, err := h.Users.GetByEmail(ctx, *req.Email)
			if err == nil && other.ID != rc.Actor.ID {
				return pipeline.Forbidden("email already in use")
			}
			if err != nil && !errors.Is(err, sql.ErrNoRows) {
				return pipeline.Fail(err)
			}
		}
		if req.Password != nil {
			if req.CurrentPassword == nil {
				return pipeline.BadRequest("currentPassword is required to change password")
			}
			if *req.CurrentPassword == *req.Password {
				return pipeline.Forbidden("new password must differ from current password")
			}
			if !utils.VerifyPassword(rc.TargetUser.PasswordHash, *req.CurrentPassword) {
				return pipeline.Unauthenticated()
			}
		}
		return pipeline.Allow()
	}
}
