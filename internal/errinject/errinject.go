// Package errinject rolls a single per-request draw against configured
// failure rates and decides whether (and how) a request should fail
// (spec.md §4.4).
package errinject

import (
	"math/rand"
	"time"
)

// Kind names which failure mode, if any, was injected.
type Kind int

const (
	KindNone Kind = iota
	KindRateLimit
	KindServerError
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRateLimit:
		return "rate_limit"
	case KindServerError:
		return "server_error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Config holds the three independent failure rates, each in [0, 1], plus
// how long a timeout-injected request should run before it's cut off.
type Config struct {
	RateLimitRate   float64
	ServerErrorRate float64
	TimeoutRate     float64
	TimeoutAfterMs  int
}

// Decision is the outcome of one injection roll.
type Decision struct {
	Kind         Kind
	HTTPStatus   int // 0 for KindNone; 429, 500/503, or 504 otherwise
	TimeoutAfter time.Duration
}

// Decide draws one uniform sample and classifies it against cfg's rates in
// order: rate limit, then server error, then timeout. A single draw
// guarantees the three categories are mutually exclusive and that the
// combined failure probability never exceeds the sum of the three rates
// (spec.md §4.4).
func Decide(cfg Config, rng *rand.Rand) Decision {
	u := rng.Float64()

	if u < cfg.RateLimitRate {
		return Decision{Kind: KindRateLimit, HTTPStatus: 429}
	}
	u -= cfg.RateLimitRate

	if u < cfg.ServerErrorRate {
		status := 500
		if rng.Float64() < 0.5 {
			status = 503
		}
		return Decision{Kind: KindServerError, HTTPStatus: status}
	}
	u -= cfg.ServerErrorRate

	if u < cfg.TimeoutRate {
		return Decision{
			Kind:         KindTimeout,
			HTTPStatus:   504,
			TimeoutAfter: time.Duration(cfg.TimeoutAfterMs) * time.Millisecond,
		}
	}

	return Decision{Kind: KindNone}
}
