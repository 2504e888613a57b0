package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/piresc/tirtha/internal/pkg/circuitbreaker"
	"github.com/piresc/tirtha/internal/pkg/logger"
	"github.com/piresc/tirtha/internal/pkg/retry"
)

const (
	// DefaultTimeout for HTTP requests
	DefaultTimeout = 10 * time.Second
	// APIKeyHeader is the header name for API key
	APIKeyHeader = "X-API-Key"
)

// StatusError is returned for responses with status >= 400
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP error: %d %s", e.StatusCode, e.Status)
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// APIKeyClient is an HTTP client with API key authentication. Calls are traced
// as New Relic external segments when the context carries a transaction.
type APIKeyClient struct {
	client      *nethttp.Client
	apiKey      string
	baseURL     string
	serviceName string
	breaker     *circuitbreaker.CircuitBreaker
	retrier     *retry.Retrier
}

// NewAPIKeyClient creates a new HTTP client with API key authentication
func NewAPIKeyClient(apiKey, serviceName, baseURL string) *APIKeyClient {
	if apiKey == "" {
		logger.Warn("No API key configured for service", logger.String("service", serviceName))
	}
	return &APIKeyClient{
		client: &nethttp.Client{
			Timeout:   DefaultTimeout,
			Transport: newrelic.NewRoundTripper(nil),
		},
		apiKey:      apiKey,
		baseURL:     baseURL,
		serviceName: serviceName,
	}
}

// WithResilience adds a circuit breaker and retrier around every request.
// 4xx responses count as successes for the breaker and are not retried.
func (c *APIKeyClient) WithResilience(breakerCfg circuitbreaker.Config, retryCfg retry.Config) *APIKeyClient {
	breakerCfg.IsFailure = isServerFailure
	retryCfg.RetryableFunc = func(err error) bool {
		return isServerFailure(err) && !errors.Is(err, circuitbreaker.ErrOpen)
	}
	c.breaker = circuitbreaker.New(breakerCfg, nil)
	c.retrier = retry.New(retryCfg, nil)
	return c
}

func isServerFailure(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode >= 500
	}
	return !errors.Is(err, context.Canceled)
}

// SetTimeout sets the HTTP client timeout
func (c *APIKeyClient) SetTimeout(timeout time.Duration) {
	c.client.Timeout = timeout
}

// GetJSON performs a GET request and decodes the JSON response into result
func (c *APIKeyClient) GetJSON(ctx context.Context, endpoint string, result interface{}) error {
	return c.do(ctx, nethttp.MethodGet, endpoint, nil, result)
}

// PostJSON performs a POST request with a JSON body and decodes the response into result
func (c *APIKeyClient) PostJSON(ctx context.Context, endpoint string, body interface{}, result interface{}) error {
	return c.do(ctx, nethttp.MethodPost, endpoint, body, result)
}

// GetRaw performs a GET request and returns the response body
func (c *APIKeyClient) GetRaw(ctx context.Context, endpoint string) ([]byte, error) {
	var out []byte
	err := c.run(ctx, func(ctx context.Context) error {
		body, err := c.roundTrip(ctx, nethttp.MethodGet, endpoint, nil)
		out = body
		return err
	})
	return out, err
}

func (c *APIKeyClient) do(ctx context.Context, method, endpoint string, body, result interface{}) error {
	return c.run(ctx, func(ctx context.Context) error {
		respBody, err := c.roundTrip(ctx, method, endpoint, body)
		if err != nil {
			return err
		}
		if result == nil || len(respBody) == 0 {
			return nil
		}
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	})
}

func (c *APIKeyClient) run(ctx context.Context, fn func(context.Context) error) error {
	guarded := fn
	if c.breaker != nil {
		guarded = func(ctx context.Context) error {
			return c.breaker.Execute(ctx, fn)
		}
	}
	if c.retrier != nil {
		return c.retrier.Execute(ctx, guarded)
	}
	return guarded(ctx)
}

// roundTrip performs the actual HTTP request with API key authentication
func (c *APIKeyClient) roundTrip(ctx context.Context, method, endpoint string, body interface{}) ([]byte, error) {
	url := c.baseURL + endpoint

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := nethttp.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(APIKeyHeader, c.apiKey)
	}

	logger.DebugCtx(ctx, "Making HTTP request",
		logger.String("method", method),
		logger.String("url", url),
		logger.String("service", c.serviceName))

	resp, err := c.client.Do(req)
	if err != nil {
		logger.WarnCtx(ctx, "HTTP request failed",
			logger.String("method", method),
			logger.String("url", url),
			logger.String("service", c.serviceName),
			logger.Err(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return respBody, &StatusError{StatusCode: resp.StatusCode, Status: nethttp.StatusText(resp.StatusCode), Body: string(respBody)}
	}
	return respBody, nil
}
