package httpserver

import (
	"net/http"
	"time"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/protocol/openresponses"
	"github.com/llmsim/llmsim/internal/protocol/responses"
	"github.com/llmsim/llmsim/internal/randsrc"
)

// handleOpenResponses serves POST /openresponses/v1/responses: the same
// schema and event sequence as Responses, minus OpenAI-only metadata
// (spec.md §4.8).
func (s *Server) handleOpenResponses(w http.ResponseWriter, r *http.Request) {
	var req openresponses.Request
	if err := decodeBody(r, &req); err != nil {
		writeValidationError(w, "invalid JSON body: "+err.Error())
		return
	}
	if err := openresponses.Validate(&req); err != nil {
		writeValidationError(w, err.Error())
		return
	}
	if !s.modelAllowed(req.Model) {
		writeJSON(w, http.StatusNotFound, openresponses.BuildErrorBody(404, "model not found: "+req.Model))
		return
	}

	target, clamped := engine.ResolveTargetTokens(defaultTargetTokens(s.targetTokens), req.MaxOutputTokens)
	genReq := openresponses.ToGenerationRequest(&req, target)

	promptTokens, err := s.countPromptTokens(req.Model, genReq.Messages)
	if err != nil {
		writeInternalError(w, r, req.Model, err, openresponses.BuildErrorBody(500, err.Error()))
		return
	}

	gen, err := s.newGenerator()
	if err != nil {
		writeInternalError(w, r, req.Model, err, openresponses.BuildErrorBody(500, err.Error()))
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
		writeInternalError(w, r, req.Model, err, openresponses.BuildErrorBody(500, err.Error()))
		return
	}

	decision := result.Decision
	immediateFailure := decision.Kind == errinject.KindRateLimit ||
		decision.Kind == errinject.KindServerError ||
		(decision.Kind == errinject.KindTimeout && !req.Stream)

	if immediateFailure {
		recordInjectedError(s.stats, handle, decision.Kind)
		writeJSON(w, decision.HTTPStatus, openresponses.BuildErrorBody(decision.HTTPStatus, decision.Kind.String()))
		return
	}

	plan, err := planReasoning(rng, req.Model, genReq.Reasoning, result.CompletionTokens, openresponses.GenerateSummary)
	if err != nil {
		writeInternalError(w, r, req.Model, err, openresponses.BuildErrorBody(500, err.Error()))
		return
	}
	reasoningTokens, hasReasoning, summaryRequested, summaryText := plan.reasoningTokens, plan.hasReasoning, plan.summaryRequested, plan.summaryText

	id := openresponses.NewResponseID()
	created := time.Now().Unix()
	messageID := openresponses.NewMessageID()
	var reasoningID string
	if hasReasoning {
		reasoningID = openresponses.NewReasoningID()
	}

	genResult := engine.GenerationResult{
		ID: id, CreatedAt: created, Model: req.Model,
		CompletionText:   result.CompletionText,
		PromptTokens:     promptTokens,
		CompletionTokens: result.CompletionTokens,
		ReasoningTokens:  reasoningTokens,
		FinishReason:     result.FinishReason,
	}
	usage := openresponses.BuildUsage(genResult)

	if !req.Stream {
		var output []responses.OutputItem
		if hasReasoning {
			var summary []responses.SummaryText
			if summaryRequested && summaryText != "" {
				summary = []responses.SummaryText{{Type: "summary_text", Text: summaryText}}
			}
			output = append(output, responses.ReasoningItem(reasoningID, summary))
		}
		output = append(output, responses.MessageItem(messageID, result.CompletionText))

		s.stats.OnTokens(handle, promptTokens, result.CompletionTokens, reasoningTokens)
		writeJSON(w, http.StatusOK, openresponses.BuildResponse(id, created, req.Model, output, result.CompletionText, usage))
		return
	}

	sw, err := newSSEWriter(w)
	if err != nil {
		writeInternalError(w, r, req.Model, err, openresponses.BuildErrorBody(500, err.Error()))
		return
	}

	segments, err := s.buildSegments(req.Model, plan, result.CompletionText)
	if err != nil {
		return
	}

	var timeoutAfter *time.Duration
	if decision.Kind == errinject.KindTimeout {
		d := decision.TimeoutAfter
		timeoutAfter = &d
	}

	shell := openresponses.Response{ID: id, Object: "response", CreatedAt: created, Model: req.Model, Status: "in_progress", Output: []responses.OutputItem{}}

	segEvents := (engine.StreamEngine{}).Run(r.Context(), rng, profile, segments, timeoutAfter)
	wireEvents := openresponses.Drive(segEvents, shell, hasReasoning, summaryRequested, reasoningID, messageID, usage)

	completed := false
	for ev := range wireEvents {
		sw.writeNamed(ev.Type, ev)
		if ev.Type == "response.completed" {
			completed = true
		}
	}

	recordStreamOutcome(s.stats, handle, r.Context(), decision, completed, promptTokens, result.CompletionTokens, reasoningTokens)
}
