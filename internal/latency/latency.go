// Package latency samples time-to-first-token and inter-token delays from
// named per-model distributions (spec.md §4.2).
package latency

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// Profile is a truncated-normal pair of distributions: one for the delay
// before the first token (TTFT), one for the delay between subsequent
// tokens (TBT). All four parameters are non-negative milliseconds.
type Profile struct {
	TTFTMeanMs   float64
	TTFTStddevMs float64
	TBTMeanMs    float64
	TBTStddevMs  float64
}

// Named presets, reproduced verbatim from spec.md §4.2.
var presets = map[string]Profile{
	"gpt-5":          {600, 150, 40, 12},
	"gpt-5-mini":     {300, 75, 20, 6},
	"gpt-4":          {800, 200, 50, 15},
	"gpt-4o":         {400, 100, 25, 8},
	"o-series":       {2000, 500, 30, 10},
	"claude-opus":    {1000, 250, 60, 18},
	"claude-sonnet":  {500, 125, 30, 10},
	"claude-haiku":   {200, 50, 15, 5},
	"instant":        {0, 0, 0, 0},
	"fast":           {10, 2, 1, 1},
}

// Get returns the named preset profile.
func Get(name string) (Profile, bool) {
	p, ok := presets[name]
	return p, ok
}

// Names returns every known preset name, for config validation and docs.
func Names() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	return names
}

// resolutionOrder pairs a model-ID prefix matcher against a preset name.
// Checked top to bottom; the first match wins, so more specific prefixes
// (gpt-5-mini) must precede their broader siblings (gpt-5).
var resolutionOrder = []struct {
	match func(model string) bool
	name  string
}{
	{func(m string) bool { return strings.HasPrefix(m, "gpt-5-mini") }, "gpt-5-mini"},
	{func(m string) bool { return strings.HasPrefix(m, "gpt-5") }, "gpt-5"},
	{func(m string) bool { return strings.HasPrefix(m, "gpt-4o") }, "gpt-4o"},
	{func(m string) bool { return strings.HasPrefix(m, "gpt-4") }, "gpt-4"},
	{isOSeries, "o-series"},
	{func(m string) bool { return strings.HasPrefix(m, "claude-opus") }, "claude-opus"},
	{func(m string) bool { return strings.HasPrefix(m, "claude-sonnet") }, "claude-sonnet"},
	{func(m string) bool { return strings.HasPrefix(m, "claude-haiku") }, "claude-haiku"},
}

// isOSeries matches o1/o3/o4-style reasoning model IDs, e.g. "o3",
// "o3-mini", "o1-preview". Deliberately excludes "o-series" itself and
// anything that isn't o followed by a single digit.
func isOSeries(model string) bool {
	if len(model) < 2 || model[0] != 'o' {
		return false
	}
	d := model[1]
	return d == '1' || d == '3' || d == '4'
}

// ResolveByModel maps a model identifier to its latency profile by
// prefix-matching, defaulting to the gpt-4 profile for unknown models
// (spec.md §4.2, "Unknown models default to gpt-4").
func ResolveByModel(model string) Profile {
	model = strings.ToLower(model)
	for _, r := range resolutionOrder {
		if r.match(model) {
			return presets[r.name]
		}
	}
	return presets["gpt-4"]
}

// SampleTTFT draws a non-negative TTFT duration.
func (p Profile) SampleTTFT(rng *rand.Rand) time.Duration {
	return sampleDuration(rng, p.TTFTMeanMs, p.TTFTStddevMs)
}

// SampleTBT draws a non-negative TBT duration.
func (p Profile) SampleTBT(rng *rand.Rand) time.Duration {
	return sampleDuration(rng, p.TBTMeanMs, p.TBTStddevMs)
}

func sampleDuration(rng *rand.Rand, meanMs, stddevMs float64) time.Duration {
	ms := sampleTruncatedNormal(rng, meanMs, stddevMs)
	return time.Duration(ms * float64(time.Millisecond))
}

// sampleTruncatedNormal draws from Normal(mean, stddev) via the Box–Muller
// polar form and clamps the result to zero, per spec.md §3's invariant
// ("sampled values are clamped to >= 0").
func sampleTruncatedNormal(rng *rand.Rand, mean, stddev float64) float64 {
	if stddev <= 0 {
		return math.Max(0, mean)
	}
	var u, v, s float64
	for {
		u = rng.Float64()*2 - 1
		v = rng.Float64()*2 - 1
		s = u*u + v*v
		if s > 0 && s < 1 {
			break
		}
	}
	mul := math.Sqrt(-2 * math.Log(s) / s)
	z := u * mul
	return math.Max(0, mean+z*stddev)
}
