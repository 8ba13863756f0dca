// Package zep implements memory.Backend against the Zep v2 HTTP API.
package zep

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/papercomputeco/tracememory/pkg/apperr"
	"github.com/papercomputeco/tracememory/pkg/logger"
	"github.com/papercomputeco/tracememory/pkg/memory"
)

const (
	// DefaultBaseURL is the Zep cloud API.
	DefaultBaseURL = "https://api.getzep.com/api/v2"

	cloudHost  = "https://api.getzep.com"
	apiVersion = "/api/v2"
)

// Config holds configuration for the Zep client.
type Config struct {
	// APIKey is sent as "Authorization: Api-Key <key>".
	APIKey string

	// BaseURL overrides the cloud endpoint for self-hosted deployments.
	// It is normalized with NormalizeBaseURL.
	BaseURL string

	// HTTPClient defaults to a client with a 30 second timeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// Client is a memory.Backend backed by Zep.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

var _ memory.Backend = (*Client)(nil)

// NewClient creates a Zep client. The API key is required.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &apperr.ConfigError{Field: "memory.api_key", Msg: "Zep API key is required"}
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	log := cfg.Logger
	if log == nil {
		log = logger.Nop()
	}

	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    NormalizeBaseURL(cfg.BaseURL),
		httpClient: httpClient,
		logger:     log.With("backend", "zep"),
	}, nil
}

// BaseURL returns the normalized endpoint the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// NormalizeBaseURL resolves a configured URL to a versioned API path.
// Empty or bare cloud URLs map to DefaultBaseURL.
func NormalizeBaseURL(raw string) string {
	u := strings.TrimRight(strings.TrimSpace(raw), "/")
	if u == "" || u == cloudHost {
		return DefaultBaseURL
	}
	if !strings.HasSuffix(u, apiVersion) {
		u += apiVersion
	}
	return u
}

// StatusError is a non-2xx response from Zep.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("zep returned status %d", e.Code)
	}
	return fmt.Sprintf("zep returned status %d: %s", e.Code, body)
}

func isAuthFailure(err error) bool {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Code == http.StatusUnauthorized || statusErr.Code == http.StatusForbidden
	}
	return err != nil && apperr.IsAuthMessage(err.Error())
}

func isStatus(err error, codes ...int) bool {
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		return false
	}
	for _, code := range codes {
		if statusErr.Code == code {
			return true
		}
	}
	return false
}

// classify wraps err as an auth or backend error for op.
func classify(op string, err error) error {
	if isAuthFailure(err) {
		return &apperr.AuthError{Op: op, Err: err}
	}
	return &apperr.BackendError{Op: op, Err: err}
}

// do sends a JSON request and decodes a JSON response into out when non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Api-Key "+c.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("zep request", "method", method, "path", path)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{Code: resp.StatusCode, Body: string(b)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
