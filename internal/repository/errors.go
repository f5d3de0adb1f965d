// Package repository implements the data access layer over MySQL. Every
// statement is parameter-bound; user-controlled strings are never
// interpolated into SQL. Sentinel errors let handlers distinguish
// failure scenarios without string matching: ErrEmailExists and
// ErrTitleExists surface the store's uniqueness constraints, which remain
// the source of truth under concurrent writers; the pipeline's own
// uniqueness pre-checks are best-effort only.
package repository

import (
	"errors"
	"strings"
)

// ErrEmailExists is returned when inserting or updating a user would
// violate the unique email constraint.
var ErrEmailExists = errors.New("email already exists")

// ErrTitleExists is returned when inserting or updating a film would
// violate the unique title constraint.
var ErrTitleExists = errors.New("film title already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicateKey(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
