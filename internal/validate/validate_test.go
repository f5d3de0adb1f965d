package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type probe struct {
	Rating string `validate:"omitempty,agerating"`
	When   string `validate:"omitempty,sqldatetime"`
}

func TestCustomRules(t *testing.T) {
	v := New()

	assert.NoError(t, v.Validate(probe{}))
	assert.NoError(t, v.Validate(probe{Rating: "R16"}))
	assert.NoError(t, v.Validate(probe{When: "2025-06-01 12:00:00"}))

	err := v.Validate(probe{Rating: "PG-13"})
	assert.ErrorContains(t, err, "invalid request body")

	assert.Error(t, v.Validate(probe{When: "2025-06-01T12:00:00Z"}))
}
