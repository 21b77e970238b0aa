package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/theapemachine/errnie"
	"github.com/theapemachine/qbloch"
	"github.com/theapemachine/qbloch/internal/config"
	"github.com/theapemachine/qbloch/internal/session"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
)

/*
Server exposes the engine and the session store over HTTP. Plain requests and
HTTP/2 cleartext share one listener; session feeds are served as websockets.
*/
type Server struct {
	config   config.Config
	engine   *qbloch.Engine
	store    *session.Store
	metrics  *Metrics
	budget   *ShotBudget
	upgrader websocket.Upgrader
	router   *http.ServeMux
	http     *http.Server
}

// New wires a server for store using the limits in cfg.
func New(cfg config.Config, store *session.Store) *Server {
	if store == nil {
		store = session.NewStore(qbloch.NewEngine(cfg.Engine()), cfg.MaxSessions, cfg.SessionTTL)
	}

	metrics := newMetrics()
	metrics.SessionsAlive = store.Len

	budget := NewShotBudget(cfg.ShotBudget, cfg.ShotRefill)
	budget.Observe(metrics)

	s := &Server{
		config:  cfg,
		engine:  store.Engine(),
		store:   store,
		metrics: metrics,
		budget:  budget,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		router: http.NewServeMux(),
	}
	s.routes()

	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(s.Handler(), &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// Handler returns the routed handler with CORS applied.
func (s *Server) Handler() http.Handler {
	return withCORS(s.router)
}

// Metrics returns the live request metrics.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Start serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Start() error {
	errnie.Info("qblochd listening on %s (%s)", s.config.Addr, s.config.Env)

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones to finish.
func (s *Server) Shutdown(ctx context.Context) error {
	errnie.Info("qblochd shutting down")
	return s.http.Shutdown(ctx)
}

// handle adapts an error-returning handler and records its outcome.
func (s *Server) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		kind := ""
		if err := fn(w, r); err != nil {
			kind = writeError(w, err)
		}
		s.metrics.recordRequest(start, kind)
	}
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
