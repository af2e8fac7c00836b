package website

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"backstage/internal/config"
)

// ErrLocationNotFound is returned when a stage name does not appear in the
// website's location list, even after a forced refresh.
var ErrLocationNotFound = errors.New("location not found")

// HTTPDoer describes the HTTP client used by the website client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Location is one stage as published by the website API.
type Location struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
}

// Program is one programmed act as published by the website API. Description
// carries the act's presentation text as an HTML fragment.
type Program struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    *Location `json:"location"`
}

// Client talks to the website API. Locations are cached for the client's
// lifetime; stages do not change during a festival edition.
type Client struct {
	baseURL string
	client  HTTPDoer

	mu        sync.Mutex
	locations []Location
	cached    bool
}

// NewClient builds a website client from configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := time.Duration(cfg.Website.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return NewClientWithDoer(cfg.Website.APIURL, &http.Client{Timeout: timeout})
}

// NewClientWithDoer builds a website client around an explicit HTTP doer
// (primarily for tests).
func NewClientWithDoer(baseURL string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  client,
	}
}

// GetPrograms fetches the published programs. When locationName is non-empty
// the result only contains programs on that stage, compared case-insensitively
// against the website's location titles.
func (c *Client) GetPrograms(ctx context.Context, locationName string) ([]Program, error) {
	var programs []Program
	if err := c.getJSON(ctx, "/programs", &programs); err != nil {
		return nil, err
	}
	if locationName == "" {
		return programs, nil
	}

	locationID, err := c.locationID(ctx, locationName)
	if err != nil {
		return nil, err
	}
	filtered := programs[:0]
	for _, program := range programs {
		if program.Location != nil && program.Location.ID == locationID {
			filtered = append(filtered, program)
		}
	}
	return filtered, nil
}

// GetLocations returns the website's stage list, from cache unless force is
// set or nothing has been fetched yet.
func (c *Client) GetLocations(ctx context.Context, force bool) ([]Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cached && !force {
		return c.locations, nil
	}

	var locations []Location
	if err := c.getJSON(ctx, "/locations", &locations); err != nil {
		return nil, err
	}
	c.locations = locations
	c.cached = true
	return locations, nil
}

// locationID resolves a stage name to its id. A miss against the cached list
// retries once with a forced refresh before giving up.
func (c *Client) locationID(ctx context.Context, locationName string) (int64, error) {
	for _, force := range []bool{false, true} {
		locations, err := c.GetLocations(ctx, force)
		if err != nil {
			return 0, err
		}
		for _, location := range locations {
			if strings.EqualFold(location.Title, locationName) {
				return location.ID, nil
			}
		}
	}
	return 0, fmt.Errorf("location %q: %w", locationName, ErrLocationNotFound)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build website request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("fetch website %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("website %s returned %d", path, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read website %s response: %w", path, err)
	}
	if err := json.Unmarshal(body, target); err != nil {
		return fmt.Errorf("decode website %s response: %w", path, err)
	}
	return nil
}
