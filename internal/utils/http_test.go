package utils

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	apperrors "github.com/piresc/tirtha/internal/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newContext() (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestSuccessResponse(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		message    string
		data       interface{}
	}{
		{name: "string data", statusCode: http.StatusOK, message: "ok", data: "test data"},
		{name: "map data", statusCode: http.StatusCreated, message: "created", data: map[string]interface{}{"id": "123"}},
		{name: "nil data", statusCode: http.StatusOK, message: "Success", data: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()
			err := SuccessResponse(c, tt.statusCode, tt.message, tt.data)
			assert.NoError(t, err)
			assert.Equal(t, tt.statusCode, rec.Code)

			var response Response
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.True(t, response.Success)
			assert.Equal(t, tt.message, response.Message)
			assert.Equal(t, tt.data, response.Data)
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name         string
		call         func(c echo.Context) error
		expectedCode int
		expectedMsg  string
		retryable    bool
	}{
		{name: "bad request", call: func(c echo.Context) error { return BadRequestResponse(c, "bad") }, expectedCode: http.StatusBadRequest, expectedMsg: "bad"},
		{name: "unauthorized default", call: func(c echo.Context) error { return UnauthorizedResponse(c, "") }, expectedCode: http.StatusUnauthorized, expectedMsg: "Unauthorized"},
		{name: "forbidden default", call: func(c echo.Context) error { return ForbiddenResponse(c, "") }, expectedCode: http.StatusForbidden, expectedMsg: "Forbidden"},
		{name: "not found", call: func(c echo.Context) error { return NotFoundResponse(c, "actor not found") }, expectedCode: http.StatusNotFound, expectedMsg: "actor not found"},
		{name: "internal default", call: func(c echo.Context) error { return InternalServerErrorResponse(c, "") }, expectedCode: http.StatusInternalServerError, expectedMsg: "Internal server error"},
		{name: "unavailable default", call: func(c echo.Context) error { return ServiceUnavailableResponse(c, "") }, expectedCode: http.StatusServiceUnavailable, expectedMsg: "Service unavailable"},
		{name: "too many requests", call: func(c echo.Context) error { return TooManyRequestsResponse(c, "") }, expectedCode: http.StatusTooManyRequests, expectedMsg: "Too many requests", retryable: true},
		{name: "retryable", call: func(c echo.Context) error { return RetryableErrorResponse(c, "storage timeout") }, expectedCode: http.StatusServiceUnavailable, expectedMsg: "storage timeout", retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()
			assert.NoError(t, tt.call(c))
			assert.Equal(t, tt.expectedCode, rec.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.False(t, response.Success)
			assert.Equal(t, tt.expectedMsg, response.Error)
			assert.Equal(t, tt.expectedCode, response.Code)
			assert.Equal(t, tt.retryable, response.Retryable)
		})
	}
}

func TestParseJSONResponse(t *testing.T) {
	t.Run("string data", func(t *testing.T) {
		var out string
		err := ParseJSONResponse([]byte(`{"success":true,"data":"test string"}`), &out)
		assert.NoError(t, err)
		assert.Equal(t, "test string", out)
	})

	t.Run("struct data", func(t *testing.T) {
		var out struct {
			GroupID   string   `json:"group_id"`
			MemberIDs []string `json:"member_ids"`
		}
		err := ParseJSONResponse([]byte(`{"success":true,"data":{"group_id":"g1","member_ids":["a","b"]}}`), &out)
		assert.NoError(t, err)
		assert.Equal(t, "g1", out.GroupID)
		assert.Equal(t, []string{"a", "b"}, out.MemberIDs)
	})

	t.Run("error envelope", func(t *testing.T) {
		var out string
		err := ParseJSONResponse([]byte(`{"success":false,"error":"Something went wrong"}`), &out)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "Something went wrong")
	})

	t.Run("invalid json", func(t *testing.T) {
		var out string
		assert.Error(t, ParseJSONResponse([]byte(`{invalid json}`), &out))
	})

	t.Run("null data", func(t *testing.T) {
		var out string
		assert.NoError(t, ParseJSONResponse([]byte(`{"success":true,"data":null}`), &out))
		assert.Empty(t, out)
	})
}

func TestErrorFromDomain(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		retryable bool
	}{
		{name: "validation", err: apperrors.Validation("latitude required"), code: http.StatusBadRequest},
		{name: "not found", err: apperrors.NotFound("actor", "a1"), code: http.StatusNotFound},
		{name: "forbidden", err: apperrors.Forbidden("global feed"), code: http.StatusForbidden},
		{name: "rate limited", err: apperrors.ErrRateLimited, code: http.StatusTooManyRequests, retryable: true},
		{name: "storage timeout", err: apperrors.Storage("record", context.DeadlineExceeded), code: http.StatusServiceUnavailable, retryable: true},
		{name: "other", err: errors.New("boom"), code: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := newContext()
			assert.NoError(t, ErrorFromDomain(c, tt.err))
			assert.Equal(t, tt.code, rec.Code)

			var response ErrorResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.retryable, response.Retryable)
			if tt.code == http.StatusInternalServerError {
				assert.NotContains(t, response.Error, "boom")
			}
		})
	}
}
