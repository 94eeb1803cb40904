package errinject

import (
	"math"
	"math/rand"
	"testing"
)

func TestDecide_NoFailureWhenRatesAreZero(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	cfg := Config{}
	for i := 0; i < 1000; i++ {
		d := Decide(cfg, rng)
		if d.Kind != KindNone {
			t.Fatalf("Decide with all-zero rates returned %v", d.Kind)
		}
	}
}

func TestDecide_AlwaysRateLimitWhenRateIsOne(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	cfg := Config{RateLimitRate: 1.0}
	for i := 0; i < 1000; i++ {
		d := Decide(cfg, rng)
		if d.Kind != KindRateLimit || d.HTTPStatus != 429 {
			t.Fatalf("Decide = %+v, want KindRateLimit/429", d)
		}
	}
}

func TestDecide_ServerErrorSplitsBetween500And503(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	cfg := Config{ServerErrorRate: 1.0}
	var got500, got503 int
	for i := 0; i < 10_000; i++ {
		d := Decide(cfg, rng)
		if d.Kind != KindServerError {
			t.Fatalf("Decide = %+v, want KindServerError", d)
		}
		switch d.HTTPStatus {
		case 500:
			got500++
		case 503:
			got503++
		default:
			t.Fatalf("unexpected status %d", d.HTTPStatus)
		}
	}
	ratio := float64(got500) / 10_000
	if math.Abs(ratio-0.5) > 0.05 {
		t.Errorf("500/503 split = %.3f, want close to 0.5", ratio)
	}
}

// TestDecide_EmpiricalRates covers P4: for a given (r, s, t), 100_000 rolls
// should produce each category within +/-1% of its configured rate.
func TestDecide_EmpiricalRates(t *testing.T) {
	const n = 100_000
	cfg := Config{RateLimitRate: 0.1, ServerErrorRate: 0.05, TimeoutRate: 0.02, TimeoutAfterMs: 5000}
	rng := rand.New(rand.NewSource(4))

	var rateLimit, server, timeout, none int
	for i := 0; i < n; i++ {
		switch Decide(cfg, rng).Kind {
		case KindRateLimit:
			rateLimit++
		case KindServerError:
			server++
		case KindTimeout:
			timeout++
		case KindNone:
			none++
		}
	}

	check := func(name string, got int, want float64) {
		ratio := float64(got) / n
		if math.Abs(ratio-want) > 0.01 {
			t.Errorf("%s ratio = %.4f, want within 0.01 of %.4f", name, ratio, want)
		}
	}
	check("rate_limit", rateLimit, cfg.RateLimitRate)
	check("server_error", server, cfg.ServerErrorRate)
	check("timeout", timeout, cfg.TimeoutRate)
	check("none", none, 1-cfg.RateLimitRate-cfg.ServerErrorRate-cfg.TimeoutRate)
}

func TestDecide_TimeoutCarriesConfiguredDelay(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	cfg := Config{TimeoutRate: 1.0, TimeoutAfterMs: 2500}
	d := Decide(cfg, rng)
	if d.Kind != KindTimeout || d.HTTPStatus != 504 {
		t.Fatalf("Decide = %+v, want KindTimeout/504", d)
	}
	if d.TimeoutAfter.Milliseconds() != 2500 {
		t.Errorf("TimeoutAfter = %v, want 2500ms", d.TimeoutAfter)
	}
}
