package api

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"
)

// shutdownTimeout bounds in-flight requests after ctx is cancelled.
const shutdownTimeout = 10 * time.Second

// Server serves the JSON API until its context is cancelled.
type Server struct {
	server *http.Server
}

func NewServer(bind string, origins []string, handler *Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:              bind,
			Handler:           WithCORS(SetupRoutes(handler), origins),
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Run blocks until ctx is cancelled or the listener fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[INFO] API server listening on %s", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Println("[INFO] API server stopped")
	return nil
}
