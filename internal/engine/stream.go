package engine

import (
	"context"
	"math/rand"
	"time"

	"github.com/llmsim/llmsim/internal/latency"
)

// Section identifies which output item a streamed token belongs to. Chat
// Completions only ever uses SectionMessage; Responses/OpenResponses may
// stream a SectionReasoningSummary segment before the SectionMessage
// segment (spec.md §4.7).
type Section int

const (
	SectionReasoningSummary Section = iota
	SectionMessage
)

// Segment is one ordered run of tokens belonging to a single section.
type Segment struct {
	Section Section
	Tokens  []string
}

// StopReason explains why a stream's terminal event fired.
type StopReason int

const (
	StopCompleted StopReason = iota
	StopAborted              // client disconnect
	StopTimedOut             // injected mid-stream timeout deadline hit
)

// SegEvent is one step of a paced stream: either a content delta or the
// final terminal event. Exactly one event per run has Final == true
// (spec.md §3, "exactly one terminal event").
type SegEvent struct {
	Section        Section
	Token          string
	IndexInSection int
	FirstInSection bool
	LastInSection  bool

	Final      bool
	StopReason StopReason
}

// StreamEngine paces emission of a precomputed token sequence: one TTFT
// sleep before the first token, one TBT sleep before every subsequent
// token, regardless of which section the token belongs to (spec.md §4.5).
type StreamEngine struct{}

// Run drives segments to completion, honoring ctx cancellation (client
// disconnect, spec.md §4.5 "Client disconnect") and an optional
// timeoutAfter measured from the call to Run (the injected mid-stream
// timeout deadline, spec.md §4.5 "Timeout injection"). The returned
// channel is closed after the terminal event is sent.
func (StreamEngine) Run(ctx context.Context, rng *rand.Rand, profile latency.Profile, segments []Segment, timeoutAfter *time.Duration) <-chan SegEvent {
	out := make(chan SegEvent)

	go func() {
		defer close(out)

		var deadline <-chan time.Time
		if timeoutAfter != nil {
			timer := time.NewTimer(*timeoutAfter)
			defer timer.Stop()
			deadline = timer.C
		}

		sleep := func(d time.Duration) StopReason {
			if d <= 0 {
				select {
				case <-ctx.Done():
					return StopAborted
				case <-deadline:
					return StopTimedOut
				default:
					return StopCompleted
				}
			}
			timer := time.NewTimer(d)
			defer timer.Stop()
			select {
			case <-timer.C:
				return StopCompleted
			case <-ctx.Done():
				return StopAborted
			case <-deadline:
				return StopTimedOut
			}
		}

		first := true
		for _, seg := range segments {
			for i, tok := range seg.Tokens {
				var wait time.Duration
				if first {
					wait = profile.SampleTTFT(rng)
				} else {
					wait = profile.SampleTBT(rng)
				}

				if reason := sleep(wait); reason != StopCompleted {
					out <- SegEvent{Final: true, StopReason: reason}
					return
				}

				first = false
				out <- SegEvent{
					Section:        seg.Section,
					Token:          tok,
					IndexInSection: i,
					FirstInSection: i == 0,
					LastInSection:  i == len(seg.Tokens)-1,
				}
			}
		}

		out <- SegEvent{Final: true, StopReason: StopCompleted}
	}()

	return out
}
