package httpserver

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/llmsim/llmsim/internal/engine"
)

// writeJSON encodes v as the full response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// decodeBody unmarshals the request body into dst and returns the JSON
// decoder's error on malformed input; callers render it as a validation error.
func decodeBody(r *http.Request, dst any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}

// writeValidationError renders a client-input fault (spec.md §7, taxonomy
// item 1) — never recorded against the stats aggregator's error counters,
// since it isn't an injected failure.
func writeValidationError(w http.ResponseWriter, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]any{
		"error": map[string]string{
			"type":    "invalid_request_error",
			"message": message,
			"code":    "invalid_request",
		},
	})
}

// writeInternalError logs the fault at Error level and writes the given
// protocol-specific error body (spec.md §7: internal faults are never
// silent and never counted as an injected failure).
func writeInternalError(w http.ResponseWriter, r *http.Request, model string, err error, body any) {
	logInternalFault(r, model, err)
	writeJSON(w, http.StatusInternalServerError, body)
}

// countPromptTokens measures the prompt side of the usage block by
// concatenating every message's role and content, matching how a real
// chat-formatted prompt is laid out before encoding (spec.md §4.1).
func (s *Server) countPromptTokens(model string, messages []engine.Message) (int, error) {
	var b strings.Builder
	for _, m := range messages {
		b.WriteString(string(m.Role))
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n")
	}
	return s.tokenizer.Count(b.String(), model)
}
