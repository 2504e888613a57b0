package utils

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    int    `json:"code,omitempty"`
	// Retryable marks transient failures the caller may safely repeat
	Retryable bool `json:"retryable,omitempty"`
}

// SuccessResponse sends a success response with data
func SuccessResponse(c echo.Context, statusCode int, message string, data interface{}) error {
	return c.JSON(statusCode, Response{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseHandler sends an error response
func ErrorResponseHandler(c echo.Context, statusCode int, errorMessage string) error {
	return c.JSON(statusCode, ErrorResponse{
		Success: false,
		Error:   errorMessage,
		Code:    statusCode,
	})
}

// BadRequestResponse sends a 400 Bad Request response
func BadRequestResponse(c echo.Context, errorMessage string) error {
	return ErrorResponseHandler(c, http.StatusBadRequest, errorMessage)
}

// UnauthorizedResponse sends a 401 Unauthorized response
func UnauthorizedResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Unauthorized"
	}
	return ErrorResponseHandler(c, http.StatusUnauthorized, errorMessage)
}

// ForbiddenResponse sends a 403 Forbidden response
func ForbiddenResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Forbidden"
	}
	return ErrorResponseHandler(c, http.StatusForbidden, errorMessage)
}

// NotFoundResponse sends a 404 Not Found response
func NotFoundResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Resource not found"
	}
	return ErrorResponseHandler(c, http.StatusNotFound, errorMessage)
}

// InternalServerErrorResponse sends a 500 Internal Server Error response
func InternalServerErrorResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Internal server error"
	}
	return ErrorResponseHandler(c, http.StatusInternalServerError, errorMessage)
}

// ServiceUnavailableResponse sends a 503 Service Unavailable response
func ServiceUnavailableResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Service unavailable"
	}
	return ErrorResponseHandler(c, http.StatusServiceUnavailable, errorMessage)
}

// TooManyRequestsResponse sends a 429 Too Many Requests response
func TooManyRequestsResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Too many requests"
	}
	return c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Success:   false,
		Error:     errorMessage,
		Code:      http.StatusTooManyRequests,
		Retryable: true,
	})
}

// RetryableErrorResponse sends a 503 response flagged as retryable
func RetryableErrorResponse(c echo.Context, errorMessage string) error {
	if errorMessage == "" {
		errorMessage = "Service temporarily unavailable"
	}
	return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
		Success:   false,
		Error:     errorMessage,
		Code:      http.StatusServiceUnavailable,
		Retryable: true,
	})
}

// ParseJSONResponse decodes a Response envelope and unmarshals its data into target
func ParseJSONResponse(body []byte, target interface{}) error {
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if !envelope.Success {
		return fmt.Errorf("remote error: %s", envelope.Error)
	}
	if len(envelope.Data) == 0 || string(envelope.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, target); err != nil {
		return fmt.Errorf("failed to decode response data: %w", err)
	}
	return nil
}

// ErrorFromDomain maps a domain error to the matching HTTP response
func ErrorFromDomain(c echo.Context, err error) error {
	switch {
	case apperrors.Is(err, apperrors.ErrValidation):
		return BadRequestResponse(c, err.Error())
	case apperrors.Is(err, apperrors.ErrNotFound):
		return NotFoundResponse(c, err.Error())
	case apperrors.Is(err, apperrors.ErrForbidden):
		return ForbiddenResponse(c, err.Error())
	case apperrors.Is(err, apperrors.ErrRateLimited):
		return TooManyRequestsResponse(c, err.Error())
	case apperrors.Is(err, apperrors.ErrStorageTimeout):
		return RetryableErrorResponse(c, err.Error())
	case apperrors.Is(err, apperrors.ErrLiveLayerUnavailable):
		return RetryableErrorResponse(c, err.Error())
	default:
		return InternalServerErrorResponse(c, "")
	}
}
