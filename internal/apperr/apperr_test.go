package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindValidation, KindOf(Validation("bad input %d", 7)))
	assert.Equal(t, KindNotFound, KindOf(NotFound("missing")))
	assert.Equal(t, KindStateConflict, KindOf(StateConflict("already done")))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}

func TestKindSurvivesWrapping(t *testing.T) {
	err := fmt.Errorf("outer context: %w", NotFound("interview %d not found", 3))
	assert.True(t, IsNotFound(err))
	assert.False(t, IsValidation(err))
}

func TestErrorMessage(t *testing.T) {
	err := Validation("field %s is required", "domain")
	assert.Contains(t, err.Error(), "field domain is required")
	assert.Contains(t, err.Error(), string(KindValidation))

	wrapped := &Error{Kind: KindStateConflict, Message: "conflict", Err: errors.New("db says no")}
	assert.Contains(t, wrapped.Error(), "db says no")
	assert.Equal(t, "db says no", wrapped.Unwrap().Error())
}
