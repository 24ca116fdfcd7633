package metrics

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/aretw0/introspection"
	"github.com/gorilla/mux"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes /metrics, /healthz and /state over HTTP.
type Server struct {
	srv        *http.Server
	logger     *slog.Logger
	components []introspection.Introspectable
}

// NewServer creates a status server for addr. components are reported by /state,
// keyed by their component type when they implement introspection.Component.
func NewServer(addr string, reg *prom.Registry, logger *slog.Logger, components ...introspection.Introspectable) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{logger: logger, components: components}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(reg),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router builds the HTTP routes.
func (s *Server) Router(reg *prom.Registry) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})).Methods(http.MethodGet)
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	return r
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	state := make(map[string]any, len(s.components))
	for i, c := range s.components {
		key := "component"
		if comp, ok := c.(introspection.Component); ok {
			key = comp.ComponentType()
		}
		if _, dup := state[key]; dup {
			key = fmt.Sprintf("%s-%d", key, i)
		}
		state[key] = c.State()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(state); err != nil {
		s.logger.Error("failed to encode state", "error", err)
	}
}

// Start listens on the configured address and serves in the background.
// It returns the bound address.
func (s *Server) Start() (string, error) {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return "", err
	}
	go func() {
		if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server stopped", "error", err)
		}
	}()
	s.logger.Info("status server listening", "addr", ln.Addr().String())
	return ln.Addr().String(), nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
