package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/llmsim/llmsim/internal/modelregistry"
)

// modelObject is the wire shape of one entry in GET /openai/v1/models and
// the body of GET /openai/v1/models/{id} (spec.md §6).
type modelObject struct {
	ID              string `json:"id"`
	Object          string `json:"object"`
	Created         int64  `json:"created"`
	OwnedBy         string `json:"owned_by"`
	ContextWindow   int    `json:"context_window"`
	MaxOutputTokens int    `json:"max_output_tokens"`
}

func toModelObject(p modelregistry.Profile) modelObject {
	return modelObject{
		ID:              p.ID,
		Object:          "model",
		Created:         p.CreatedAt,
		OwnedBy:         p.Owner,
		ContextWindow:   p.ContextWindow,
		MaxOutputTokens: p.MaxOutputTokens,
	}
}

// handleModelsList returns every registered model the allowlist permits.
func (s *Server) handleModelsList(w http.ResponseWriter, r *http.Request) {
	profiles := s.registry.List()
	list := make([]modelObject, 0, len(profiles))
	for _, p := range profiles {
		if !s.modelAllowed(p.ID) {
			continue
		}
		list = append(list, toModelObject(p))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"object": "list",
		"data":   list,
	})
}

// handleModelGet returns one model by ID, or a not_found error if it isn't
// registered or isn't in the configured allowlist.
func (s *Server) handleModelGet(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	profile, ok := s.registry.Lookup(id)
	if !ok || !s.modelAllowed(id) {
		writeJSON(w, http.StatusNotFound, map[string]any{
			"error": map[string]string{
				"type":    "invalid_request_error",
				"message": "model not found: " + id,
				"code":    "model_not_found",
			},
		})
		return
	}
	writeJSON(w, http.StatusOK, toModelObject(profile))
}
