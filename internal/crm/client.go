// Package crm is the adapter for the external CRM object store. It exposes
// typed object, association, and schema operations over the CRM's REST API
// and normalizes the loosely-shaped response bodies at this boundary so the
// rest of the service never touches raw maps.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/latmedia/dealdesk/internal/config"
	"github.com/latmedia/dealdesk/internal/observability"
	"github.com/latmedia/dealdesk/model"
)

// Endpoint families used for metrics labels.
const (
	familyObjects      = "objects"
	familySearch       = "search"
	familyAssociations = "associations"
	familyProperties   = "properties"
)

// Client is the HTTP client for the CRM backend. Calls are request/response
// with no automatic retry: a failed request is surfaced once to the caller,
// who may retry manually.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	breaker *CircuitBreaker
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient creates a CRM client from configuration.
func NewClient(cfg config.CRMConfig, logger *zap.Logger, metrics *observability.Metrics) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	cb := cfg.CircuitBreaker
	return &Client{
		baseURL: cfg.BaseURL,
		token:   cfg.Token(),
		http: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		breaker: NewCircuitBreaker(cb.FailureThreshold, cb.SuccessThreshold, cb.Timeout),
		logger:  logger,
		metrics: metrics,
	}
}

// do executes a single request against the CRM and returns the raw response
// body. Non-2xx statuses are converted into ErrorEnvelopes: 409 becomes a
// structured CONFLICT so idempotent setup paths can recover it, everything
// else carries the backend's message verbatim.
func (c *Client) do(ctx context.Context, family, method, path string, body any) ([]byte, error) {
	start := time.Now()
	respBody, err := c.doOnce(ctx, method, path, body)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if model.IsConflict(err) {
			outcome = "conflict"
		}
	}
	c.metrics.ObserveCRMRequest(family, outcome, time.Since(start))

	return respBody, err
}

func (c *Client) doOnce(ctx context.Context, method, path string, body any) ([]byte, error) {
	if err := c.breaker.Allow(); err != nil {
		return nil, model.NewBackendUnavailableError()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("crm: marshal body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.breaker.RecordFailure()
		if isConnectionError(err) {
			return nil, model.NewBackendUnavailableError()
		}
		if ctx.Err() != nil || isTimeoutError(err) {
			return nil, model.NewBackendTimeoutError()
		}
		return nil, fmt.Errorf("crm: request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20)) // 10MB limit
	if err != nil {
		c.breaker.RecordFailure()
		return nil, fmt.Errorf("crm: read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		// 4xx are not infrastructure failures.
		c.breaker.RecordSuccess()
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return respBody, nil
	}

	return nil, c.classifyStatus(method, path, resp.StatusCode, respBody)
}

// classifyStatus converts a non-2xx response into an ErrorEnvelope.
func (c *Client) classifyStatus(method, path string, status int, body []byte) error {
	msg := extractMessage(body)
	if msg == "" {
		msg = fmt.Sprintf("CRM returned status %d", status)
	}

	switch {
	case status == http.StatusConflict:
		c.logger.Warn("crm conflict",
			zap.String("method", method),
			zap.String("path", path),
			zap.String("message", msg),
		)
		return model.NewConflictError(msg)
	case status == http.StatusNotFound:
		return model.NewNotFoundError(msg)
	case status >= 500:
		c.logger.Error("crm server error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", status),
		)
		return model.NewBackendUnavailableError()
	default:
		return model.NewBadRequestError(msg)
	}
}

// extractMessage pulls a human-readable message out of the CRM error body.
// The CRM nests it in several shapes depending on the endpoint.
func extractMessage(body []byte) string {
	for _, path := range []string{"message", "error.message", "errors.0.message", "status"} {
		if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String {
			return v.Str
		}
	}
	return ""
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	var netErr *net.OpError
	if errors.As(err, &netErr) {
		return true
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
