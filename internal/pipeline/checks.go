package pipeline

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/filmfest/catalogue-api/internal/model"
)

// The check constructors below accept narrow interfaces so handlers can
// wire repositories in while tests substitute fakes.

// ActorResolver looks up the caller by opaque session token.
type ActorResolver interface {
	GetByToken(ctx context.Context, token string) (model.User, error)
}

// FilmLoader looks up a film by id.
type FilmLoader interface {
	GetByID(ctx context.Context, id int64) (model.Film, error)
}

// UserLoader looks up a user by id.
type UserLoader interface {
	GetByID(ctx context.Context, id int64) (model.User, error)
}

// ReviewCounter reports how many reviews a film has.
type ReviewCounter interface {
	CountForFilm(ctx context.Context, filmID int64) (int64, error)
}

// GenreChecker looks up a genre by id.
type GenreChecker interface {
	GetByID(ctx context.Context, id int64) (model.Genre, error)
}

// Authenticate resolves the caller's identity from rc.Token with a fresh
// store lookup. An absent or unknown token terminates the run with
// Unauthenticated.
func Authenticate(r ActorResolver) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		if rc.Token == "" {
			return Unauthenticated()
		}
		u, err := r.GetByToken(ctx, rc.Token)
		if errors.Is(err, sql.ErrNoRows) {
			return Unauthenticated()
		}
		if err != nil {
			return Fail(err)
		}
		rc.Actor = &u
		return Allow()
	}
}

// LoadFilm resolves the referenced film into rc.Film or terminates with
// NotFound.
func LoadFilm(l FilmLoader, id int64) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		f, err := l.GetByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("no film with id")
		}
		if err != nil {
			return Fail(err)
		}
		rc.Film = &f
		return Allow()
	}
}

// LoadUser resolves the referenced user into rc.TargetUser or terminates
// with NotFound.
func LoadUser(l UserLoader, id int64) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		u, err := l.GetByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return NotFound("no user with id")
		}
		if err != nil {
			return Fail(err)
		}
		rc.TargetUser = &u
		return Allow()
	}
}

// RequireDirector forbids any caller other than the loaded film's owner.
// Must run after Authenticate and LoadFilm.
func RequireDirector(msg string) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		if rc.Actor.ID != rc.Film.DirectorID {
			return Forbidden(msg)
		}
		return Allow()
	}
}

// RequireSelf forbids operating on another user's account. Must run
// after Authenticate.
func RequireSelf(id int64, msg string) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		if rc.Actor.ID != id {
			return Forbidden(msg)
		}
		return Allow()
	}
}

// FilmEditable forbids core-metadata edits once the film is locked: a
// film with one or more reviews, or whose release date has passed, is
// append-only. The transition is one-way.
func FilmEditable(rc ReviewCounter, now time.Time) Check {
	return func(ctx context.Context, r *Request) Outcome {
		if r.Film.Released(now) {
			return Forbidden("cannot edit a film whose release date has passed")
		}
		n, err := rc.CountForFilm(ctx, r.Film.ID)
		if err != nil {
			return Fail(err)
		}
		if n > 0 {
			return Forbidden("cannot edit a film that has reviews")
		}
		return Allow()
	}
}

// GenreExists rejects unknown genre references with BadRequest.
func GenreExists(g GenreChecker, id int64) Check {
	return func(ctx context.Context, rc *Request) Outcome {
		_, err := g.GetByID(ctx, id)
		if errors.Is(err, sql.ErrNoRows) {
			return BadRequest("no genre with id")
		}
		if err != nil {
			return Fail(err)
		}
		return Allow()
	}
}
