package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client posts GraphQL operations to a single endpoint.
type Client struct {
	url   string
	token string
	http  *http.Client
}

// NewClient returns a client for url. An empty token sends no
// Authorization header.
func NewClient(url, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{url: url, token: token, http: &http.Client{Timeout: timeout}}
}

// Configured reports whether the client has an endpoint.
func (c *Client) Configured() bool {
	return c != nil && c.url != ""
}

// ErrorItem is one entry of a response's errors array.
type ErrorItem struct {
	Message string `json:"message"`
	Path    []any  `json:"path,omitempty"`
}

// Error is returned when the server answers with a non-empty errors array.
type Error struct {
	Errors []ErrorItem
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, item := range e.Errors {
		msgs[i] = item.Message
	}
	return "graphql: " + strings.Join(msgs, "; ")
}

type request struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []ErrorItem     `json:"errors"`
}

// Do runs query with variables and decodes the data member into out
// (which may be nil).
func (c *Client) Do(ctx context.Context, query string, variables map[string]any, out any) error {
	if !c.Configured() {
		return fmt.Errorf("graphql: no endpoint configured")
	}
	body, err := json.Marshal(request{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("graphql: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("graphql: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("graphql: request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return fmt.Errorf("graphql: read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("graphql: HTTP %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}

	var decoded response
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return fmt.Errorf("graphql: decode response: %w", err)
	}
	if len(decoded.Errors) > 0 {
		return &Error{Errors: decoded.Errors}
	}
	if out == nil || len(decoded.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(decoded.Data, out); err != nil {
		return fmt.Errorf("graphql: decode data: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
