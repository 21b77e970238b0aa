package server

import "net/http"

func (s *Server) routes() {
	s.router.HandleFunc("GET /healthz", s.handleHealth)
	s.router.HandleFunc("GET /metrics", s.handleMetrics)

	s.router.HandleFunc("POST /simulate", s.handle(s.handleSimulate))

	s.router.HandleFunc("POST /sessions", s.handle(s.handleCreateSession))
	s.router.HandleFunc("GET /sessions/{id}", s.handle(s.handleGetSession))
	s.router.HandleFunc("DELETE /sessions/{id}", s.handle(s.handleDeleteSession))
	s.router.HandleFunc("GET /sessions/{id}/history", s.handle(s.handleHistory))
	s.router.HandleFunc("POST /sessions/{id}/gates", s.handle(s.handleAppendGate))
	s.router.HandleFunc("DELETE /sessions/{id}/gates", s.handle(s.handleClearGates))
	s.router.HandleFunc("DELETE /sessions/{id}/gates/{index}", s.handle(s.handleRemoveGate))
	s.router.HandleFunc("POST /sessions/{id}/measure", s.handle(s.handleMeasure))
	s.router.HandleFunc("GET /sessions/{id}/ws", s.handle(s.handleFeed))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.ExportMetrics())
}
