package notifications_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"backstage/internal/config"
	"backstage/internal/notifications"
)

type capturedRequest struct {
	title    string
	priority string
	body     string
}

func newCaptureServer(t *testing.T, captured *[]capturedRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		*captured = append(*captured, capturedRequest{
			title:    r.Header.Get("Title"),
			priority: r.Header.Get("Priority"),
			body:     string(body),
		})
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNotifyErrorSendsHighPriority(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)

	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = server.URL
	cfg.Notifications.Errors = true
	service := notifications.NewService(cfg)

	err := service.NotifyError(context.Background(), errors.New("feed unreachable"), "acts refresh")
	if err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("requests = %d, want 1", len(captured))
	}
	if captured[0].priority != "high" {
		t.Errorf("priority = %q, want high", captured[0].priority)
	}
	if captured[0].body != "Error with acts refresh: feed unreachable" {
		t.Errorf("body = %q", captured[0].body)
	}
}

func TestNotifyErrorDisabled(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)

	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(cfg)

	if err := service.NotifyError(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
	if len(captured) != 0 {
		t.Fatalf("requests = %d, want 0", len(captured))
	}
}

func TestNotifyRefreshCompleted(t *testing.T) {
	var captured []capturedRequest
	server := newCaptureServer(t, &captured)

	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(cfg)

	if err := service.NotifyRefreshCompleted(context.Background(), "descriptions", 12); err != nil {
		t.Fatalf("NotifyRefreshCompleted: %v", err)
	}
	if len(captured) != 1 {
		t.Fatalf("requests = %d, want 1", len(captured))
	}
	if captured[0].body != "Refreshed descriptions: 12 acts" {
		t.Errorf("body = %q", captured[0].body)
	}
}

func TestUnconfiguredServiceIsNoop(t *testing.T) {
	service := notifications.NewService(&config.Config{})
	if err := service.TestNotification(context.Background()); err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if err := service.NotifyError(context.Background(), errors.New("boom"), ""); err != nil {
		t.Fatalf("NotifyError: %v", err)
	}
}

func TestErrorStatusSurfaces(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	cfg := &config.Config{}
	cfg.Notifications.NtfyTopic = server.URL
	service := notifications.NewService(cfg)

	if err := service.TestNotification(context.Background()); err == nil {
		t.Fatal("expected error for 403 response")
	}
}
