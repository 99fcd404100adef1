// Package backend talks to the marketplace REST backend that owns the product catalog
// and the equity evaluator. Its wire format is camelCase JSON, optionally wrapped in a
// {"data": ...} envelope.
package backend

import (
	"barter-exchange/internal/bartererrors"
	"barter-exchange/utils"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// maxErrorBody caps how much of a failed response is read for its message
const maxErrorBody = 4 << 10

// Client is a minimal JSON-over-HTTP client for one backend service
type Client struct {
	service    string
	baseURL    *url.URL
	httpClient *http.Client
}

// NewClient creates a client for the backend at baseURL. service names the backend in errors.
func NewClient(service, baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: invalid %s base url %q", service, baseURL)
	}
	return &Client{
		service:    service,
		baseURL:    u,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// getJSON issues GET path?query and decodes the payload into out.
// notFound is returned, wrapped, on a 404.
func (c *Client) getJSON(ctx context.Context, path string, query url.Values, notFound error, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + path
	u.RawQuery = query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("backend: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return &bartererrors.UpstreamError{Service: c.service, Message: err.Error()}
	}
	defer resp.Body.Close()

	utils.Debug("backend request", map[string]any{
		"service":     c.service,
		"path":        path,
		"status":      resp.StatusCode,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return c.statusError(resp.StatusCode, body, notFound)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &bartererrors.UpstreamError{Service: c.service, StatusCode: resp.StatusCode, Message: "read body: " + err.Error()}
	}
	if err := decodePayload(body, out); err != nil {
		return &bartererrors.UpstreamError{Service: c.service, StatusCode: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func (c *Client) statusError(status int, body []byte, notFound error) error {
	msg := errorMessage(body)
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch status {
	case http.StatusNotFound:
		if notFound == nil {
			notFound = bartererrors.ErrNotFound
		}
		return fmt.Errorf("%s: %w - %s", c.service, notFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%s: %w - %s", c.service, bartererrors.ErrValidation, msg)
	default:
		return &bartererrors.UpstreamError{Service: c.service, StatusCode: status, Message: msg}
	}
}

// errorMessage pulls a human readable message out of an error body
func errorMessage(body []byte) string {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil {
		if env.Message != "" {
			return env.Message
		}
		if env.Error != "" {
			return env.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func decodePayload(body []byte, out any) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return errors.New("empty body")
	}

	if trimmed[0] == '{' {
		var env envelope
		if err := json.Unmarshal(trimmed, &env); err == nil && len(env.Data) > 0 && !bytes.Equal(env.Data, []byte("null")) {
			return json.Unmarshal(env.Data, out)
		}
	}
	return json.Unmarshal(trimmed, out)
}
