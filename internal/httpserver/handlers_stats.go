package httpserver

import "net/http"

// handleStats reports the running aggregate counters (spec.md §4.9, §6).
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Snapshot())
}
