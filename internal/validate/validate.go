// Package validate wires go-playground/validator into Echo so handlers can
// declare the accepted shape of each payload with struct tags. Unknown JSON
// fields are dropped by encoding/json during binding rather than rejected.
// The registry is built once at startup and is read-only afterwards, so it
// is safe for concurrent request handling.
package validate

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/filmfest/catalogue-api/internal/model"
)

// Validator adapts a validator.Validate instance to echo.Validator.
type Validator struct {
	v *validator.Validate
}

// New builds the process-wide validator. Custom rules:
//
//	agerating   – value must be one of the fixed classification enum
//	sqldatetime – value must parse as "2006-01-02 15:04:05"
func New() *Validator {
	v := validator.New()
	_ = v.RegisterValidation("agerating", func(fl validator.FieldLevel) bool {
		return model.ValidAgeRating(fl.Field().String())
	})
	_ = v.RegisterValidation("sqldatetime", func(fl validator.FieldLevel) bool {
		_, err := model.ParseDateTime(fl.Field().String())
		return err == nil
	})
	return &Validator{v: v}
}

// Validate implements echo.Validator. The returned error text is surfaced
// verbatim in 400 responses.
func (cv *Validator) Validate(i interface{}) error {
	if err := cv.v.Struct(i); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}
