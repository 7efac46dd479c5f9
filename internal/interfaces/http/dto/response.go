// Package dto defines the HTTP wire envelope. Successful responses carry the
// resource JSON directly (lists as {items,total,skip,take}); every error,
// including router-level 404/405 and middleware rejections, uses the same
// ErrorResponse shape.
package dto

import (
	"errors"
	"net/http"

	"github.com/salesdesk/backend/internal/domain/shared"
)

// StatusError is the fixed status discriminator on error envelopes
const StatusError = "ERROR"

// internalErrorMessage is what unrecognized errors surface as. Fail closed:
// no cause text, no metadata.
const internalErrorMessage = "An unexpected error occurred"

// ErrorResponse is the error envelope
type ErrorResponse struct {
	StatusCode int            `json:"statusCode"`
	Status     string         `json:"status"`
	Message    string         `json:"message"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// NewErrorResponse builds an envelope with an explicit status code
func NewErrorResponse(statusCode int, message string) ErrorResponse {
	return ErrorResponse{
		StatusCode: statusCode,
		Status:     StatusError,
		Message:    message,
	}
}

// WithMetadata attaches structured detail to the envelope
func (r ErrorResponse) WithMetadata(metadata map[string]any) ErrorResponse {
	if len(metadata) == 0 {
		return r
	}
	r.Metadata = metadata
	return r
}

// FromError translates any error into the envelope. Domain errors map their
// kind to the HTTP status and keep message and metadata; everything else
// collapses to a fixed 500 so internals never leak to clients.
func FromError(err error) ErrorResponse {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		message := domainErr.Message
		if message == "" {
			message = domainErr.Kind.DefaultMessage()
		}
		return NewErrorResponse(domainErr.Kind.HTTPStatus(), message).
			WithMetadata(domainErr.Metadata)
	}

	return NewErrorResponse(http.StatusInternalServerError, internalErrorMessage)
}
