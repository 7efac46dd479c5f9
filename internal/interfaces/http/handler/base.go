package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/salesdesk/backend/internal/interfaces/http/dto"
)

// BaseHandler provides the shared response plumbing. It is the single point
// where errors become HTTP: handlers never pick status codes themselves.
type BaseHandler struct{}

// Success sends the resource as the response body
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// Created sends a 201 with the created resource
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// NoContent sends a 204 no content response
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// HandleError translates an error into the error envelope. Domain errors
// carry their own status mapping; anything unrecognized becomes a fixed 500.
func (h *BaseHandler) HandleError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	envelope := dto.FromError(err)
	c.JSON(envelope.StatusCode, envelope)
}

// BindingError translates a request binding failure into a 400 envelope.
// Validator failures list the offending fields in the metadata; anything
// else (malformed JSON, wrong types) gets a generic message.
func (h *BaseHandler) BindingError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		fields := make(map[string]any, len(validationErrs))
		for _, fe := range validationErrs {
			fields[fe.Field()] = validationMessage(fe)
		}
		envelope := dto.NewErrorResponse(http.StatusBadRequest, "Request validation failed").
			WithMetadata(map[string]any{"fields": fields})
		c.JSON(envelope.StatusCode, envelope)
		return
	}

	envelope := dto.NewErrorResponse(http.StatusBadRequest, "Invalid request body")
	c.JSON(envelope.StatusCode, envelope)
}

// BadRequest sends a 400 envelope with the given message
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	envelope := dto.NewErrorResponse(http.StatusBadRequest, message)
	c.JSON(envelope.StatusCode, envelope)
}
