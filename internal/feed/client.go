package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backstage/internal/config"
	"backstage/internal/programme"
)

// ErrNotConfigured is returned when no feed URL has been configured.
var ErrNotConfigured = errors.New("act feed not configured")

// HTTPDoer describes the HTTP client used by the feed client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client downloads act list snapshots from the production planner.
type Client struct {
	url      string
	username string
	password string
	client   HTTPDoer
}

// NewClient builds a feed client from configuration. The returned client is
// usable even when the feed URL is empty; Fetch then fails with
// ErrNotConfigured.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Feed.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		url:      strings.TrimSpace(cfg.Feed.URL),
		username: cfg.Feed.Username,
		password: cfg.Feed.Password,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewClientWithDoer builds a feed client around an explicit HTTP doer
// (primarily for tests).
func NewClientWithDoer(url, username, password string, client HTTPDoer) *Client {
	return &Client{
		url:      strings.TrimSpace(url),
		username: username,
		password: password,
		client:   client,
	}
}

// Fetch downloads and decodes the current act list. Any transport error,
// non-success status, or payload that is not a JSON array of acts is returned
// as an error; the caller decides whether to keep its previous snapshot.
func (c *Client) Fetch(ctx context.Context) ([]programme.Act, error) {
	if c == nil || c.url == "" {
		return nil, ErrNotConfigured
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build act feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch act feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("act feed returned %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read act feed response: %w", err)
	}

	var acts []programme.Act
	if err := json.Unmarshal(body, &acts); err != nil {
		return nil, fmt.Errorf("decode act feed response: %w", err)
	}
	return acts, nil
}
