package httpserver

import "net/http"

// handleHealth is a liveness probe: the process is up and able to serve
// requests (spec.md §6).
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
