package handlers

import (
	"net/http"

	"example.com/backstage/services/distribution/internal/repository"
	"example.com/backstage/services/distribution/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// ErrorResponse defines the structure of an error response
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Error represents an API error
type Error struct {
	Message    string
	StatusCode int
	Code       string
}

// Error implements the error interface
func (e *Error) Error() string {
	return e.Message
}

// Common API errors
var (
	ErrInvalidRequest = &Error{Message: "Invalid request", StatusCode: http.StatusBadRequest, Code: "INVALID_REQUEST"}
	ErrNotFound       = &Error{Message: "Resource not found", StatusCode: http.StatusNotFound, Code: "NOT_FOUND"}
	ErrInternalServer = &Error{Message: "Internal server error", StatusCode: http.StatusInternalServerError, Code: "INTERNAL_ERROR"}
	ErrUnauthorized   = &Error{Message: "Unauthorized", StatusCode: http.StatusUnauthorized, Code: "UNAUTHORIZED"}
	ErrForbidden      = &Error{Message: "Forbidden", StatusCode: http.StatusForbidden, Code: "FORBIDDEN"}
	ErrConflict       = &Error{Message: "Resource already exists", StatusCode: http.StatusConflict, Code: "CONFLICT"}
)

// NewError creates a new API error with custom details
func NewError(message string, statusCode int, code string) *Error {
	return &Error{
		Message:    message,
		StatusCode: statusCode,
		Code:       code,
	}
}

// WriteError translates an error into a structured JSON response. Domain
// sentinels map to stable machine codes so clients never have to sniff
// message text.
func WriteError(c *gin.Context, err error) {
	var apiError *Error
	if errors.As(err, &apiError) {
		c.JSON(apiError.StatusCode, ErrorResponse{Message: apiError.Message, Code: apiError.Code})
		return
	}

	switch {
	case service.IsValidationError(err):
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: err.Error(), Code: "VALIDATION_ERROR"})
	case errors.Is(err, repository.ErrOpenDeliveryExists):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "An open delivery already exists for this vehicle and date",
			Code:    "CONFLICT",
		})
	case errors.Is(err, repository.ErrDeliveryClosed):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "Delivery is closed and can no longer be modified",
			Code:    "CONFLICT",
		})
	case errors.Is(err, repository.ErrInsufficientRemaining):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Mapped quantity exceeds the remaining delivered quantity",
			Code:    "VALIDATION_ERROR",
		})
	case errors.Is(err, repository.ErrInsufficientStock):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Stock change would drive a level negative",
			Code:    "VALIDATION_ERROR",
		})
	case errors.Is(err, repository.ErrDuplicateKey):
		c.JSON(http.StatusConflict, ErrorResponse{
			Message: "A record with the same unique value already exists",
			Code:    "CONFLICT",
		})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Message: "Resource not found", Code: "NOT_FOUND"})
	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: err.Error(), Code: "UNAUTHORIZED"})
	default:
		log.Error().Err(err).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "Internal server error",
			Code:    "INTERNAL_ERROR",
		})
	}
}
