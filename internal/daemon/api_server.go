package daemon

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"encoding/json"
	"log/slog"

	"backstage/internal/api"
	"backstage/internal/config"
	"backstage/internal/ical"
	"backstage/internal/logging"
	"backstage/internal/programme"
)

const maxFieldValueBytes = 4096

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	service *programme.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, logger *slog.Logger) (*apiServer, error) {
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address not configured")
	}

	mux := http.NewServeMux()
	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		service: d.service,
	}

	token := cfg.Paths.APIToken
	mux.HandleFunc("/programme", srv.handleProgramme)
	mux.HandleFunc("/programme.ics", srv.handleCalendar)
	mux.HandleFunc("/itinerary", srv.handleItinerary)
	mux.HandleFunc("/itinerary/", srv.itineraryItemHandler(token))
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log().Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.log().Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

func (s *apiServer) stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

func (s *apiServer) handleProgramme(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.BuildLegacy(r.URL.Query().Get("stage")))
}

func (s *apiServer) handleCalendar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	query := r.URL.Query()

	opts := ical.Options{Host: hostOnly(r.Host), EnableReminders: true}
	if value := query.Get("days"); value != "" {
		opts.Days = strings.Split(value, ";")
	}
	for _, value := range strings.Split(query.Get("reminders"), ";") {
		if value == "" {
			continue
		}
		reminder, err := ical.ParseReminderDefinition(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, fmt.Sprintf("error in reminder definition: %q", value))
			return
		}
		opts.Reminders = append(opts.Reminders, reminder)
	}
	if value := query.Get("enable_reminders"); value != "" {
		enabled, err := strconv.Atoi(value)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "enable_reminders must be 0 or 1")
			return
		}
		opts.EnableReminders = enabled != 0
	}

	prog := s.service.BuildLegacy("")
	itinerary := s.service.BuildLegacyItinerary()
	data, err := ical.Render(prog, itinerary, opts)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/calendar")
	w.Header().Set("Cache-Control", "no-cache, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *apiServer) handleItinerary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.service.BuildLegacyItinerary())
}

// itineraryItemHandler serves GET /itinerary/{key} and PUT
// /itinerary/{key}/{field}. Only the PUT surface requires the bearer token.
func (s *apiServer) itineraryItemHandler(token string) http.HandlerFunc {
	update := authMiddleware(token, s.handleItineraryUpdate)
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleItineraryItem(w, r)
		case http.MethodPut:
			update(w, r)
		default:
			s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		}
	}
}

func (s *apiServer) handleItineraryItem(w http.ResponseWriter, r *http.Request) {
	key := strings.TrimPrefix(r.URL.Path, "/itinerary/")
	if key == "" || strings.Contains(key, "/") {
		s.writeError(w, http.StatusNotFound, "act does not exist")
		return
	}
	entry, err := s.service.ItineraryFor(key)
	if err != nil {
		if errors.Is(err, programme.ErrUnknownAct) {
			s.writeError(w, http.StatusNotFound, "act does not exist")
			return
		}
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, entry)
}

func (s *apiServer) handleItineraryUpdate(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/itinerary/")
	key, field, found := strings.Cut(rest, "/")
	if !found || key == "" || field == "" || strings.Contains(field, "/") {
		s.writeError(w, http.StatusNotFound, "act does not exist")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxFieldValueBytes))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	switch err := s.service.SetDressingRoom(key, field, string(body)); {
	case errors.Is(err, programme.ErrFieldNotWritable):
		s.writeError(w, http.StatusMethodNotAllowed, "only the dressing_room field can be updated")
	case errors.Is(err, programme.ErrUnknownAct):
		s.writeError(w, http.StatusNotFound, "act does not exist")
	case err != nil:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	payload := api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		Version:      status.Version,
		ActCount:     status.ActCount,
		LockFilePath: status.LockFilePath,
	}
	if !status.LastActsRefresh.IsZero() {
		payload.LastActsRefresh = status.LastActsRefresh.Format(time.RFC3339)
	}
	if !status.LastDescriptionsRefresh.IsZero() {
		payload.LastDescriptionsRefresh = status.LastDescriptionsRefresh.Format(time.RFC3339)
	}
	s.writeJSON(w, http.StatusOK, payload)
}

func hostOnly(hostport string) string {
	if host, _, err := net.SplitHostPort(hostport); err == nil {
		return host
	}
	return hostport
}

func (s *apiServer) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log().Error("failed to encode response", logging.Error(err))
	}
}

func (s *apiServer) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, api.ErrorResponse{Error: message})
}

func (s *apiServer) log() *slog.Logger {
	return logging.NewComponentLogger(s.logger, "api-server")
}
