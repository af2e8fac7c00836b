package apiclient_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"backstage/internal/api"
	"backstage/internal/apiclient"
	"backstage/internal/programme"
)

func TestStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Errorf("path = %q", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(api.DaemonStatus{Running: true, ActCount: 4})
	}))
	defer server.Close()

	client := apiclient.NewWithDoer(server.URL, "", server.Client())
	status, err := client.Status(context.Background())
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !status.Running || status.ActCount != 4 {
		t.Fatalf("status = %+v", status)
	}
}

func TestProgrammeStageQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("stage"); got != "mainstage" {
			t.Errorf("stage = %q", got)
		}
		_ = json.NewEncoder(w).Encode(programme.LegacyProgramme{
			Acts: map[string]programme.LegacyAct{"1": {Name: "Foo"}},
		})
	}))
	defer server.Close()

	client := apiclient.NewWithDoer(server.URL, "", server.Client())
	prog, err := client.Programme(context.Background(), "mainstage")
	if err != nil {
		t.Fatalf("Programme: %v", err)
	}
	if prog.Acts["1"].Name != "Foo" {
		t.Fatalf("programme = %+v", prog)
	}
}

func TestSetDressingRoomSendsToken(t *testing.T) {
	var gotAuth, gotBody, gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := apiclient.NewWithDoer(server.URL, "secret", server.Client())
	if err := client.SetDressingRoom(context.Background(), "7", "3"); err != nil {
		t.Fatalf("SetDressingRoom: %v", err)
	}
	if gotAuth != "Bearer secret" {
		t.Errorf("auth = %q", gotAuth)
	}
	if gotPath != "/itinerary/7/dressing_room" {
		t.Errorf("path = %q", gotPath)
	}
	if gotBody != "3" {
		t.Errorf("body = %q", gotBody)
	}
}

func TestErrorResponseSurfaced(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(api.ErrorResponse{Error: "act does not exist"})
	}))
	defer server.Close()

	client := apiclient.NewWithDoer(server.URL, "", server.Client())
	_, err := client.ItineraryFor(context.Background(), "404")
	if err == nil {
		t.Fatal("expected error")
	}
	if got := err.Error(); got != "daemon returned 404: act does not exist" {
		t.Fatalf("err = %q", got)
	}
}
