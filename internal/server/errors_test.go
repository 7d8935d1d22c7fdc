package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/jobfill/internal/store"
)

func TestErrNotFound(t *testing.T) {
	err := &ErrNotFound{Resource: "job"}
	assert.Equal(t, "job not found", err.Error())
	assert.Equal(t, http.StatusNotFound, HTTPStatus(err))
}

func TestErrValidation(t *testing.T) {
	err := &ErrValidation{Field: "type", Message: "unknown message type"}
	assert.Equal(t, "validation error: type - unknown message type", err.Error())
	assert.Equal(t, http.StatusBadRequest, HTTPStatus(err))
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", &ErrNotFound{Resource: "job"}, http.StatusNotFound},
		{"validation", &ErrValidation{Field: "f", Message: "m"}, http.StatusBadRequest},
		{"unavailable", &ErrUnavailable{Component: "store"}, http.StatusServiceUnavailable},
		{"storage", &store.Error{Op: "get", Key: "appliedJobs", Err: errors.New("disk gone")}, http.StatusServiceUnavailable},
		{"wrapped storage", fmt.Errorf("list: %w", store.ErrStorageUnavailable), http.StatusServiceUnavailable},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, HTTPStatus(tt.err))
		})
	}
}
