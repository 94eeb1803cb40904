package httpserver

import (
	"net/http"
	"time"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/protocol/chatcompletions"
	"github.com/llmsim/llmsim/internal/randsrc"
	"github.com/llmsim/llmsim/internal/stats"
)

// handleChatCompletions serves POST /openai/v1/chat/completions, both the
// non-streaming and SSE-streaming paths (spec.md §4.6).
func (s *Server) handleChatCompletions(w http.ResponseWriter, r *http.Request) {
	var req chatcompletions.Request
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid JSON body: "+err.Error())
		return
	}
	if err := chatcompletions.Validate(&req); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if !s.modelAllowed(req.Model) {
		writeJSON(w, http.StatusNotFound, chatcompletions.BuildErrorBody(404, "model not found: "+req.Model))
		return
	}

	target, clamped := engine.ResolveTargetTokens(defaultTargetTokens(s.targetTokens), req.MaxTokens)
	genReq := chatcompletions.ToGenerationRequest(&req, target)

	promptTokens, err := s.countPromptTokens(req.Model, genReq.Messages)
	if err != nil {
		writeInternalError(w, r, req.Model, err, chatcompletions.BuildErrorBody(500, err.Error()))
		return
	}

	gen, err := s.newGenerator()
	if err != nil {
		writeInternalError(w, r, req.Model, err, chatcompletions.BuildErrorBody(500, err.Error()))
		return
	}

	rng := randsrc.New()
	profile := resolveLatencyProfile(s.cfg.Latency, req.Model)
	handle := s.stats.OnRequestStart(req.Model, req.Stream)
	defer s.stats.OnRequestEnd(handle)

	result, err := s.orchestrator.Prepare(rng, gen, engine.Input{
		Model:              req.Model,
		GeneratorKind:      s.genKind,
		FixedText:          s.fixedText,
		LastUserMessage:    genReq.LastUserMessage(),
		TargetTokens:       target,
		ClampedByMaxTokens: clamped,
		Stream:             req.Stream,
	})
	if err != nil {
		writeInternalError(w, r, req.Model, err, chatcompletions.BuildErrorBody(500, err.Error()))
		return
	}

	decision := result.Decision
	immediateFailure := decision.Kind == errinject.KindRateLimit ||
		decision.Kind == errinject.KindServerError ||
		(decision.Kind == errinject.KindTimeout && !req.Stream)

	if immediateFailure {
		recordInjectedError(s.stats, handle, decision.Kind)
		writeJSON(w, decision.HTTPStatus, chatcompletions.BuildErrorBody(decision.HTTPStatus, decision.Kind.String()))
		return
	}

	id := chatcompletions.NewID()
	created := time.Now().Unix()

	if !req.Stream {
		genResult := engine.GenerationResult{
			ID: id, CreatedAt: created, Model: req.Model,
			CompletionText:   result.CompletionText,
			PromptTokens:     promptTokens,
			CompletionTokens: result.CompletionTokens,
			FinishReason:     result.FinishReason,
		}
		s.stats.OnTokens(handle, promptTokens, result.CompletionTokens, 0)
		writeJSON(w, http.StatusOK, chatcompletions.BuildResponse(genResult))
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeInternalError(w, r, req.Model, err, chatcompletions.BuildErrorBody(500, err.Error()))
		return
	}

	pieces, err := s.tokenizer.EncodeToTokens(result.CompletionText, req.Model)
	if err != nil {
		return
	}
	segments := []engine.Segment{{Section: engine.SectionMessage, Tokens: pieces}}

	var timeoutAfter *time.Duration
	if decision.Kind == errinject.KindTimeout {
		d := decision.TimeoutAfter
		timeoutAfter = &d
	}

	sw.writeData(chatcompletions.BuildRoleChunk(id, req.Model, created))

	segEvents := (engine.StreamEngine{}).Run(r.Context(), rng, profile, segments, timeoutAfter)
	for ev := range segEvents {
		if ev.Final {
			switch ev.StopReason {
			case engine.StopCompleted:
				sw.writeData(chatcompletions.BuildFinalChunk(id, req.Model, created, result.FinishReason))
				sw.writeDone()
				s.stats.OnTokens(handle, promptTokens, result.CompletionTokens, 0)
			case engine.StopAborted:
				s.stats.OnError(handle, stats.ErrorClientAbort)
			case engine.StopTimedOut:
				s.stats.OnError(handle, stats.ErrorTimeout)
			}
			return
		}
		sw.writeData(chatcompletions.BuildDeltaChunk(id, req.Model, created, ev.Token))
	}
}

// recordInjectedError maps an errinject.Kind to the aggregator's error
// category (spec.md §4.9).
func recordInjectedError(agg *stats.Aggregator, h *stats.Handle, kind errinject.Kind) {
	switch kind {
	case errinject.KindRateLimit:
		agg.OnError(h, stats.ErrorRateLimit)
	case errinject.KindServerError:
		agg.OnError(h, stats.ErrorServer)
	case errinject.KindTimeout:
		agg.OnError(h, stats.ErrorTimeout)
	}
}
