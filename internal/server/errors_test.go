package server

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/types"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"request validation", &ErrValidation{Field: "ad_image", Message: "bad"}, http.StatusBadRequest},
		{"draft validation", &types.ValidationError{Fields: []types.FieldError{{Field: "Name", Rule: "required"}}}, http.StatusBadRequest},
		{"unavailable", &ErrUnavailable{Component: "x"}, http.StatusServiceUnavailable},
		{"no store", fmt.Errorf("list: %w", campaign.ErrNoStore), http.StatusServiceUnavailable},
		{"persistence", fmt.Errorf("%w: boom", pipeline.ErrPersistence), http.StatusInternalServerError},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestClientMessage_HidesInternals(t *testing.T) {
	err := fmt.Errorf("%w: password authentication failed for user postgres", pipeline.ErrPersistence)
	assert.Equal(t, FailureNotice, clientMessage(err))

	verr := &ErrValidation{Field: "ad_image", Message: "invalid base64"}
	assert.Equal(t, verr.Error(), clientMessage(verr))
}
