package apperror_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/redmonkez12/places-api/internal/apperror"
)

func TestStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", apperror.Validation(map[string][]string{"title": {"must not be empty"}}), http.StatusUnprocessableEntity},
		{"not found", apperror.NotFound("missing"), http.StatusNotFound},
		{"unauthorized", apperror.Unauthorized("nope"), http.StatusUnauthorized},
		{"conflict", apperror.Conflict("exists"), http.StatusUnprocessableEntity},
		{"store", apperror.Store("db down", errors.New("dial tcp")), http.StatusInternalServerError},
		{"crypto", apperror.Crypto("hash failed", errors.New("rand")), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped", fmt.Errorf("handler: %w", apperror.NotFound("missing")), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, apperror.Status(tt.err))
		})
	}
}

func TestMessage_HidesInternalCause(t *testing.T) {
	err := apperror.Store("Could not create place.", errors.New("pq: connection refused"))

	assert.Equal(t, "Could not create place.", apperror.Message(err))
	assert.NotContains(t, apperror.Message(err), "pq")
	assert.Equal(t, apperror.UnknownMessage, apperror.Message(errors.New("pq: connection refused")))
}

func TestStore_KeepsExistingClassification(t *testing.T) {
	cause := apperror.NotFound("Could not find user for the provided id.")
	err := apperror.Store("Creating place failed.", cause)

	assert.True(t, apperror.Is(err, apperror.CodeNotFound))
	assert.Equal(t, "Could not find user for the provided id.", apperror.Message(err))
}

func TestFields(t *testing.T) {
	fields := map[string][]string{"description": {"must be at least 5 characters"}}
	err := apperror.Validation(fields)

	assert.Equal(t, apperror.ValidationMessage, apperror.Message(err))
	assert.Equal(t, fields, apperror.Fields(err))
	assert.Nil(t, apperror.Fields(apperror.NotFound("x")))
}
