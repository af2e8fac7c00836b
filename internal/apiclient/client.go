package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"backstage/internal/api"
	"backstage/internal/config"
	"backstage/internal/programme"
)

// HTTPDoer describes the HTTP client used by the API client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the daemon's HTTP API.
type Client struct {
	baseURL string
	token   string
	client  HTTPDoer
}

// New builds a client against the configured API bind address.
func New(cfg *config.Config) *Client {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if host, port, found := strings.Cut(bind, ":"); found && (host == "" || host == "0.0.0.0" || host == "::") {
		bind = "127.0.0.1:" + port
	}
	return NewWithDoer("http://"+bind, cfg.Paths.APIToken, &http.Client{Timeout: 10 * time.Second})
}

// NewWithDoer builds a client around an explicit HTTP doer (primarily for
// tests).
func NewWithDoer(baseURL, token string, client HTTPDoer) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		token:   token,
		client:  client,
	}
}

// Status fetches the daemon status.
func (c *Client) Status(ctx context.Context) (api.DaemonStatus, error) {
	var status api.DaemonStatus
	err := c.getJSON(ctx, "/api/status", &status)
	return status, err
}

// Programme fetches the merged programme, optionally for a specific stage.
func (c *Client) Programme(ctx context.Context, stage string) (*programme.LegacyProgramme, error) {
	path := "/programme"
	if stage != "" {
		path += "?stage=" + stage
	}
	var prog programme.LegacyProgramme
	if err := c.getJSON(ctx, path, &prog); err != nil {
		return nil, err
	}
	return &prog, nil
}

// Itinerary fetches the merged itinerary for all acts.
func (c *Client) Itinerary(ctx context.Context) (programme.LegacyItinerary, error) {
	var itinerary programme.LegacyItinerary
	err := c.getJSON(ctx, "/itinerary", &itinerary)
	return itinerary, err
}

// ItineraryFor fetches the merged itinerary of a single act.
func (c *Client) ItineraryFor(ctx context.Context, actKey string) (programme.LegacyItineraryAct, error) {
	var entry programme.LegacyItineraryAct
	err := c.getJSON(ctx, "/itinerary/"+actKey, &entry)
	return entry, err
}

// SetDressingRoom assigns an act's dressing room.
func (c *Client) SetDressingRoom(ctx context.Context, actKey, room string) error {
	url := fmt.Sprintf("%s/itinerary/%s/%s", c.baseURL, actKey, programme.DressingRoomField)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, strings.NewReader(room))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("set dressing room: %w", err)
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

func (c *Client) getJSON(ctx context.Context, path string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", path, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return err
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	var payload api.ErrorResponse
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error != "" {
		return fmt.Errorf("daemon returned %d: %s", resp.StatusCode, payload.Error)
	}
	return fmt.Errorf("daemon returned %d", resp.StatusCode)
}
