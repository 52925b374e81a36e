package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"finback/internal/api"
	"finback/internal/config"
	"finback/internal/logging"
	"finback/internal/queue"
)

type apiServer struct {
	bind    string
	logger  *slog.Logger
	daemon  *Daemon
	service *api.Service

	listener net.Listener
	server   *http.Server
}

func newAPIServer(cfg *config.Config, d *Daemon, svc *api.Service, logger *slog.Logger) (*apiServer, error) {
	if cfg == nil || d == nil || svc == nil {
		return nil, nil
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, nil
	}

	srv := &apiServer{
		bind:    bind,
		logger:  logger,
		daemon:  d,
		service: svc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/audio", srv.handleAudioCollection)
	mux.HandleFunc("/api/audio/", srv.handleAudioItem)
	mux.HandleFunc("/api/processing/jobs", srv.handleProcessingCollection)
	mux.HandleFunc("/api/processing/jobs/", srv.handleProcessingItem)
	mux.HandleFunc("/api/embedding-sets", srv.handleEmbeddingSetCollection)
	mux.HandleFunc("/api/embedding-sets/", srv.handleEmbeddingSetItem)
	mux.HandleFunc("/api/clustering/jobs", srv.handleClusteringCollection)
	mux.HandleFunc("/api/clustering/jobs/", srv.handleClusteringItem)
	mux.HandleFunc("/api/clusters/", srv.handleClusterAssignments)
	mux.HandleFunc("/api/models", srv.handleModels)
	mux.HandleFunc("/api/status", srv.handleStatus)

	srv.server = &http.Server{
		Handler:           withAuth(strings.TrimSpace(cfg.Paths.APIToken), mux),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

func (s *apiServer) start(ctx context.Context) error {
	if s == nil {
		return nil
	}
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

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	status := s.daemon.Status()
	stats, err := s.service.QueueSnapshot(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	defaultModel, err := s.service.DefaultModelName(r.Context())
	if err != nil {
		s.writeServiceError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, api.StatusResponse{
		Running:      status.Running,
		PID:          status.PID,
		DatabasePath: status.DatabasePath,
		LockFilePath: status.LockFilePath,
		DefaultModel: defaultModel,
		Queue:        *stats,
	})
}

// parseStatusFilter converts repeated ?status= query values into queue
// statuses. Unknown names are rejected rather than ignored.
func parseStatusFilter(values []string) ([]queue.Status, error) {
	var statuses []queue.Status
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			continue
		}
		status, ok := queue.ParseStatus(trimmed)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", trimmed)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

func (s *apiServer) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
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
	s.writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps validation failures to 400 and everything else to
// 500.
func (s *apiServer) writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, api.ErrInvalid) {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.writeError(w, http.StatusInternalServerError, err.Error())
}

func (s *apiServer) log() *slog.Logger {
	if s.logger != nil {
		return s.logger.With(logging.String("component", "api-server"))
	}
	return logging.NewNop()
}
