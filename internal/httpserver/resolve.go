package httpserver

import (
	"github.com/llmsim/llmsim/internal/config"
	"github.com/llmsim/llmsim/internal/latency"
)

// resolveLatencyProfile picks the base profile — an explicit config
// override takes precedence over per-model prefix resolution — then
// applies any individually-overridden field on top (spec.md §6's `latency`
// section accepts either a named `profile` or the four raw fields).
func resolveLatencyProfile(cfg config.LatencyConfig, model string) latency.Profile {
	profile := latency.ResolveByModel(model)
	if cfg.Profile != "" {
		if p, ok := latency.Get(cfg.Profile); ok {
			profile = p
		}
	}
	if cfg.TTFTMeanMs != 0 {
		profile.TTFTMeanMs = cfg.TTFTMeanMs
	}
	if cfg.TTFTStddevMs != 0 {
		profile.TTFTStddevMs = cfg.TTFTStddevMs
	}
	if cfg.TBTMeanMs != 0 {
		profile.TBTMeanMs = cfg.TBTMeanMs
	}
	if cfg.TBTStddevMs != 0 {
		profile.TBTStddevMs = cfg.TBTStddevMs
	}
	return profile
}

// defaultTargetTokens returns the configured generator target, falling
// back to a sane default if the config left it unset (e.g. zero-value
// Config built directly in tests rather than through config.Load).
func defaultTargetTokens(n int) int {
	if n <= 0 {
		return 50
	}
	return n
}
