// Package modelregistry holds the static, immutable-after-boot mapping from
// model identifier to ModelProfile (spec.md §3, "Model identifier").
package modelregistry

import "sort"

// Capability is one facet of what a model can do.
type Capability string

const (
	CapVision     Capability = "vision"
	CapReasoning  Capability = "reasoning"
	CapTools      Capability = "tools"
	CapJSONMode   Capability = "json_mode"
)

// Profile describes one model as the simulator presents it over
// GET /openai/v1/models. Request handling does not read LatencyProfile or
// Capabilities: latency is resolved from the model ID by
// latency.ResolveByModel, and reasoning tokens are applied whatever the
// model's capabilities.
type Profile struct {
	ID              string
	Owner           string
	ContextWindow   int
	MaxOutputTokens int
	Capabilities    map[Capability]struct{}
	CreatedAt       int64 // unix seconds
	LatencyProfile  string
}

// HasCapability reports whether the profile advertises c.
func (p Profile) HasCapability(c Capability) bool {
	_, ok := p.Capabilities[c]
	return ok
}

func caps(cs ...Capability) map[Capability]struct{} {
	m := make(map[Capability]struct{}, len(cs))
	for _, c := range cs {
		m[c] = struct{}{}
	}
	return m
}

// Registry is a read-only model→Profile table, populated once at
// construction and never mutated afterward (spec.md §3, "immutable
// thereafter").
type Registry struct {
	profiles map[string]Profile
}

// NewRegistry builds the registry with the built-in model set. Additional
// model IDs named in config (`models.available`) that aren't in this
// built-in table are accepted by adapters via ResolveByModel fallback
// rather than by extending this table, since spec.md's model registry is
// described as a static mapping, not a dynamically extensible one.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]Profile)}
	for _, p := range defaultProfiles() {
		r.profiles[p.ID] = p
	}
	return r
}

// Lookup returns the profile for id and whether it was found.
func (r *Registry) Lookup(id string) (Profile, bool) {
	p, ok := r.profiles[id]
	return p, ok
}

// List returns every registered profile sorted by ID, for the
// GET /openai/v1/models listing.
func (r *Registry) List() []Profile {
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// defaultProfiles is the built-in model table. Timestamps are fixed unix
// seconds rather than computed at init, so the registry's CreatedAt values
// don't drift with process start time.
func defaultProfiles() []Profile {
	return []Profile{
		{
			ID: "gpt-5", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000,
			Capabilities: caps(CapReasoning, CapTools, CapJSONMode, CapVision),
			CreatedAt:    1753920000, LatencyProfile: "gpt-5",
		},
		{
			ID: "gpt-5-mini", Owner: "openai", ContextWindow: 400000, MaxOutputTokens: 128000,
			Capabilities: caps(CapReasoning, CapTools, CapJSONMode),
			CreatedAt:    1753920000, LatencyProfile: "gpt-5-mini",
		},
		{
			ID: "gpt-4.1", Owner: "openai", ContextWindow: 1000000, MaxOutputTokens: 32768,
			Capabilities: caps(CapReasoning, CapVision, CapTools, CapJSONMode),
			CreatedAt:    1744675200, LatencyProfile: "gpt-4o",
		},
		{
			ID: "gpt-4o", Owner: "openai", ContextWindow: 128000, MaxOutputTokens: 16384,
			Capabilities: caps(CapVision, CapTools, CapJSONMode),
			CreatedAt:    1715558400, LatencyProfile: "gpt-4o",
		},
		{
			ID: "gpt-4", Owner: "openai", ContextWindow: 8192, MaxOutputTokens: 4096,
			Capabilities: caps(CapTools, CapJSONMode),
			CreatedAt:    1679356800, LatencyProfile: "gpt-4",
		},
		{
			ID: "o1", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000,
			Capabilities: caps(CapReasoning),
			CreatedAt:    1726531200, LatencyProfile: "o-series",
		},
		{
			ID: "o3", Owner: "openai", ContextWindow: 200000, MaxOutputTokens: 100000,
			Capabilities: caps(CapReasoning, CapTools),
			CreatedAt:    1744243200, LatencyProfile: "o-series",
		},
		{
			ID: "claude-opus-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000,
			Capabilities: caps(CapVision, CapTools),
			CreatedAt:    1762992000, LatencyProfile: "claude-opus",
		},
		{
			ID: "claude-sonnet-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000,
			Capabilities: caps(CapVision, CapTools),
			CreatedAt:    1758931200, LatencyProfile: "claude-sonnet",
		},
		{
			ID: "claude-haiku-4.5", Owner: "anthropic", ContextWindow: 200000, MaxOutputTokens: 64000,
			Capabilities: caps(CapTools),
			CreatedAt:    1761177600, LatencyProfile: "claude-haiku",
		},
		{
			ID: "gemini-2.5-pro", Owner: "google", ContextWindow: 1000000, MaxOutputTokens: 65536,
			Capabilities: caps(CapVision, CapTools),
			CreatedAt:    1741219200, LatencyProfile: "gpt-4o",
		},
	}
}
