// Package server provides the HTTP REST API for the campaign dashboard.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/buyside/internal/campaign"
	"github.com/jonathan/buyside/internal/pipeline"
	"github.com/jonathan/buyside/internal/types"
)

// FailureNotice is the only detail clients see when a submission fails to save.
const FailureNotice = "Failed to create campaign. Please try again."

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// ErrUnavailable indicates a collaborator the request needs is not configured
type ErrUnavailable struct {
	Component string
}

func (e *ErrUnavailable) Error() string {
	return fmt.Sprintf("%s is not available", e.Component)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var validation *ErrValidation
	var draft *types.ValidationError
	var unavailable *ErrUnavailable

	switch {
	case errors.As(err, &validation), errors.As(err, &draft):
		return http.StatusBadRequest
	case errors.As(err, &unavailable), errors.Is(err, campaign.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, pipeline.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage returns the message safe to show for err.
func clientMessage(err error) string {
	switch HTTPStatus(err) {
	case http.StatusBadRequest:
		return err.Error()
	case http.StatusServiceUnavailable:
		return "Campaign storage is unavailable."
	default:
		return FailureNotice
	}
}
