package httpserver

import (
	"context"
	"math/rand"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/stats"
)

// reasoningPlan is the protocol-independent outcome of resolving a
// Responses/OpenResponses request's reasoning configuration against a
// completed generation. Shared by handleResponses and handleOpenResponses,
// which differ only in their wire types and final serializer.
type reasoningPlan struct {
	reasoningTokens  int
	hasReasoning     bool
	summaryRequested bool
	summaryText      string
}

// planReasoning computes reasoning_tokens from the effort multiplier table
// and, if a summary was requested, generates it via genSummary (the
// protocol package's GenerateSummary, which both Responses and
// OpenResponses implement identically — spec.md §4.7).
func planReasoning(
	rng *rand.Rand,
	model string,
	reasoning *engine.ReasoningConfig,
	completionTokens int,
	genSummary func(*rand.Rand, string, int) (string, error),
) (reasoningPlan, error) {
	var effort engine.ReasoningEffort
	var summaryStyle engine.SummaryStyle
	if reasoning != nil {
		effort = reasoning.Effort
		summaryStyle = reasoning.Summary
	}

	reasoningTokens := 0
	if reasoning != nil && effort != engine.EffortNone {
		reasoningTokens = engine.ReasoningTokens(effort, completionTokens)
	}
	hasReasoning := reasoningTokens > 0
	summaryRequested := hasReasoning && summaryStyle != engine.SummaryNone

	var summaryText string
	if summaryRequested {
		wordCount := engine.SummaryWordCount(summaryStyle, reasoningTokens)
		var err error
		summaryText, err = genSummary(rng, model, wordCount)
		if err != nil {
			return reasoningPlan{}, err
		}
	}

	return reasoningPlan{
		reasoningTokens:  reasoningTokens,
		hasReasoning:     hasReasoning,
		summaryRequested: summaryRequested,
		summaryText:      summaryText,
	}, nil
}

// buildSegments tokenizes the reasoning summary (if any) and the message
// text into the ordered segment list the stream engine paces: summary
// first, then message (spec.md §4.7's event ordering).
func (s *Server) buildSegments(model string, plan reasoningPlan, completionText string) ([]engine.Segment, error) {
	var segments []engine.Segment
	if plan.summaryRequested && plan.summaryText != "" {
		pieces, err := s.tokenizer.EncodeToTokens(plan.summaryText, model)
		if err != nil {
			return nil, err
		}
		segments = append(segments, engine.Segment{Section: engine.SectionReasoningSummary, Tokens: pieces})
	}
	messagePieces, err := s.tokenizer.EncodeToTokens(completionText, model)
	if err != nil {
		return nil, err
	}
	segments = append(segments, engine.Segment{Section: engine.SectionMessage, Tokens: messagePieces})
	return segments, nil
}

// recordStreamOutcome records the final stats for a Responses/OpenResponses
// SSE stream once its event channel has drained: full token accounting on
// a clean response.completed, otherwise the abort/timeout category that
// actually ended the stream (spec.md §4.9).
func recordStreamOutcome(agg *stats.Aggregator, h *stats.Handle, ctx context.Context, decision errinject.Decision, completed bool, promptTokens, completionTokens, reasoningTokens int) {
	if completed {
		agg.OnTokens(h, promptTokens, completionTokens, reasoningTokens)
		return
	}
	if ctx.Err() != nil {
		agg.OnError(h, stats.ErrorClientAbort)
	} else if decision.Kind == errinject.KindTimeout {
		agg.OnError(h, stats.ErrorTimeout)
	}
}
