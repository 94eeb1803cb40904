package engine

import (
	"math/rand"

	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/generator"
)

// Counter is the tokenizer capability the orchestrator needs: counting
// tokens in a candidate completion. Satisfied by *tokenizer.Tokenizer.
type Counter interface {
	Count(text, model string) (int, error)
}

// Orchestrator is the glue described in spec.md §2's data-flow paragraph:
// given a request that an adapter has already resolved a prompt-token
// count for, it consults the error injector, runs the generator, and
// returns the accounting needed to build a response or drive a stream.
// It never talks to a protocol's wire format directly.
type Orchestrator struct {
	ErrorConfig errinject.Config
	Tokenizer   Counter
}

// New builds an Orchestrator.
func New(errCfg errinject.Config, tok Counter) *Orchestrator {
	return &Orchestrator{ErrorConfig: errCfg, Tokenizer: tok}
}

// Input is everything Prepare needs beyond the error-injection config:
// values the calling adapter has already resolved.
type Input struct {
	Model              string
	GeneratorKind      generator.Kind
	FixedText          string
	LastUserMessage    string
	TargetTokens       int
	ClampedByMaxTokens bool // true if TargetTokens was clamped down by max_tokens
	Stream             bool
}

// Result is the outcome of Prepare: either an injected failure (Decision
// is non-None and the rest are zero) or a generated completion ready to be
// returned directly or paced through the stream engine.
type Result struct {
	Decision         errinject.Decision
	CompletionText   string
	CompletionTokens int
	FinishReason     FinishReason
}

// Prepare runs the error-injection roll and, unless the roll produced an
// immediate failure, runs the generator synchronously to completion
// (spec.md §4.5: "the generator call ... must complete in bounded CPU
// time"; pacing happens afterward, in the stream engine). A streaming
// request with an injected Timeout still generates content, since the
// stream engine needs the full token sequence to know where to cut the
// emission off; a non-streaming request with any injected failure (including
// Timeout, which the HTTP handlers answer with a 504 at once, without waiting
// out TimeoutAfter) skips generation entirely.
func (o *Orchestrator) Prepare(rng *rand.Rand, gen generator.Generator, in Input) (*Result, error) {
	decision := errinject.Decide(o.ErrorConfig, rng)

	skipGeneration := decision.Kind == errinject.KindRateLimit ||
		decision.Kind == errinject.KindServerError ||
		(decision.Kind == errinject.KindTimeout && !in.Stream)

	if skipGeneration {
		return &Result{Decision: decision}, nil
	}

	text, err := gen.Generate(generator.Request{
		Model:           in.Model,
		TargetTokens:    in.TargetTokens,
		LastUserMessage: in.LastUserMessage,
		RNG:             rng,
	})
	if err != nil {
		return nil, err
	}

	completionTokens, err := o.Tokenizer.Count(text, in.Model)
	if err != nil {
		return nil, err
	}

	finish := FinishStop
	if in.ClampedByMaxTokens {
		finish = FinishLength
	}

	return &Result{
		Decision:         decision,
		CompletionText:   text,
		CompletionTokens: completionTokens,
		FinishReason:     finish,
	}, nil
}

// ResolveTargetTokens applies spec.md §9's open-question resolution:
// max_tokens, when present and finite, is a hard ceiling. Returns the
// effective target and whether it was clamped (which determines
// finish_reason).
func ResolveTargetTokens(requestedTarget int, maxTokens *int) (target int, clamped bool) {
	if maxTokens != nil && *maxTokens < requestedTarget {
		return *maxTokens, true
	}
	return requestedTarget, false
}
