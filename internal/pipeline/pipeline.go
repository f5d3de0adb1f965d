// Package pipeline implements the authorization/validation pipeline shared
// by every state-changing endpoint. A pipeline is a fixed ordered sequence
// of checks; the first failing check wins and the remaining checks are
// skipped. Business-rule failures never propagate as Go errors across the
// pipeline boundary; they are returned as a tagged Outcome so the handler
// can choose the exact status code and message. Only infrastructure faults
// (store unavailable, disk I/O) surface through the Internal kind.
//
// The canonical order, applied consistently across endpoints: schema shape
// → authentication → target existence → ownership/self → domain rules →
// commit. Authentication runs before existence so unauthenticated callers
// learn nothing about which resources exist.
package pipeline

import (
	"context"

	"github.com/filmfest/catalogue-api/internal/model"
)

// Kind tags the terminal outcome of a pipeline run.
type Kind int

const (
	KindAllow Kind = iota
	KindBadRequest
	KindUnauthenticated
	KindForbidden
	KindNotFound
	KindInternal
)

// Outcome is the tagged result of a check or of a whole pipeline run.
// Message is client-facing; Err is only set for KindInternal and carries
// the underlying cause for logging.
type Outcome struct {
	Kind    Kind
	Message string
	Err     error
}

// Allowed reports whether the pipeline authorized the operation.
func (o Outcome) Allowed() bool { return o.Kind == KindAllow }

// Allow is the passing outcome.
func Allow() Outcome { return Outcome{Kind: KindAllow} }

// BadRequest rejects with malformed or invalid input.
func BadRequest(msg string) Outcome { return Outcome{Kind: KindBadRequest, Message: msg} }

// Unauthenticated rejects callers with a missing or unknown token.
func Unauthenticated() Outcome {
	return Outcome{Kind: KindUnauthenticated, Message: "unauthorized"}
}

// Forbidden rejects authenticated callers that are not entitled.
func Forbidden(msg string) Outcome { return Outcome{Kind: KindForbidden, Message: msg} }

// NotFound rejects references to absent resources.
func NotFound(msg string) Outcome { return Outcome{Kind: KindNotFound, Message: msg} }

// Fail wraps an unexpected infrastructure fault.
func Fail(err error) Outcome {
	return Outcome{Kind: KindInternal, Message: "internal server error", Err: err}
}

// Request is the typed context a pipeline runs over. Checks resolve and
// attach state here; after an Allow outcome the handler reads the loaded
// entities back out to perform the commit.
type Request struct {
	Token      string      // opaque session token from the request header
	Actor      *model.User // resolved by Authenticate
	Film       *model.Film // resolved by LoadFilm
	TargetUser *model.User // resolved by LoadUser
}

// Check inspects the request context and either allows it to continue or
// terminates the run.
type Check func(ctx context.Context, rc *Request) Outcome

// Pipeline is an immutable ordered list of checks.
type Pipeline struct {
	checks []Check
}

// New builds a pipeline from checks in priority order.
func New(checks ...Check) *Pipeline {
	return &Pipeline{checks: checks}
}

// Run executes the checks in order, short-circuiting on the first
// non-Allow outcome.
func (p *Pipeline) Run(ctx context.Context, rc *Request) Outcome {
	for _, check := range p.checks {
		if out := check(ctx, rc); !out.Allowed() {
			return out
		}
	}
	return Allow()
}
