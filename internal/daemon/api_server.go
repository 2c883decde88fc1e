package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"teamzones/internal/logging"
	"teamzones/internal/videostore"
)

// apiServer exposes read-only record state on a local bind address.
type apiServer struct {
	bind   string
	store  *videostore.Store
	logger *slog.Logger
}

func newAPIServer(bind string, store *videostore.Store, logger *slog.Logger) *apiServer {
	return &apiServer{
		bind:   bind,
		store:  store,
		logger: logging.NewComponentLogger(logger, "api"),
	}
}

func (s *apiServer) run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/videos", s.handleVideos)

	server := &http.Server{
		Addr:              s.bind,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *apiServer) handleStatus(w http.ResponseWriter, r *http.Request) {
	health, err := s.store.Health(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	s.respond(w, health)
}

func (s *apiServer) handleVideos(w http.ResponseWriter, r *http.Request) {
	var statuses []videostore.Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := videostore.ParseStatus(raw)
		if !ok {
			http.Error(w, "unknown status "+raw, http.StatusBadRequest)
			return
		}
		statuses = append(statuses, status)
	}

	records, err := s.store.ListAll(r.Context(), statuses...)
	if err != nil {
		s.fail(w, err)
		return
	}
	if records == nil {
		records = []*videostore.VideoRecord{}
	}
	s.respond(w, records)
}

func (s *apiServer) respond(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("writing api response", logging.Error(err))
	}
}

func (s *apiServer) fail(w http.ResponseWriter, err error) {
	s.logger.Error("api request failed", logging.Error(err))
	http.Error(w, "internal error", http.StatusInternalServerError)
}
