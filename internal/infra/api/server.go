package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"quiz-exam-platform/internal/config"
	"quiz-exam-platform/internal/infra/api/apiv1"
)

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Server is the public HTTP listener: health, metrics and the v1 API.
type Server struct {
	srv   *http.Server
	grace time.Duration
	log   *zerolog.Logger
}

// NewServer builds the router. Checks named in health are pinged by /health.
func NewServer(cfg config.ServerConfig, v1 *apiv1.Server, health map[string]Pinger, logger *zerolog.Logger) *Server {
	l := logger.With().Str("component", "http").Logger()

	r := chi.NewRouter()
	r.Use(TraceID(), Recover(&l), RequestLog(&l), Timeout(cfg.RequestTimeout))

	r.Get("/health", healthHandler(health))
	r.Handle("/metrics", promhttp.Handler())
	apiv1.RegisterAPIV1(r, v1)

	return &Server{
		srv: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		grace: cfg.ShutdownGrace,
		log:   &l,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	errc := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.srv.Addr).Msg("http server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	s.log.Info().Msg("http server shutting down")
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

func healthHandler(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		out := make(map[string]string, len(checks))
		for name, p := range checks {
			if err := p.Ping(ctx); err != nil {
				status = http.StatusServiceUnavailable
				out[name] = "down"
				continue
			}
			out[name] = "ok"
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]any{"status": http.StatusText(status), "checks": out})
	}
}
