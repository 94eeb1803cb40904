// Package openresponses implements the OpenResponses specification: the
// same schema and streaming event sequence as the Responses adapter, minus
// OpenAI-specific metadata fields (spec.md §4.8). It reuses the Responses
// package's event producer verbatim rather than re-deriving it.
package openresponses

import (
	"math/rand"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/idgen"
	"github.com/llmsim/llmsim/internal/protocol/responses"
)

// Request is a type alias: OpenResponses accepts the same input item
// shapes and reasoning configuration as Responses (spec.md §4.8).
type Request = responses.Request

// Response drops nothing relative to responses.Response today — the
// simulator's Responses shell never carried OpenAI-only fields (service
// tier, system fingerprint, etc.) in the first place, so the "superset
// minus metadata" relationship is the identity here. Kept as a distinct
// type, not a bare alias, so a future OpenAI-only field can be added to
// responses.Response without leaking into this wire shape.
type Response struct {
	ID         string               `json:"id"`
	Object     string               `json:"object"`
	CreatedAt  int64                `json:"created_at"`
	Model      string               `json:"model"`
	Status     string               `json:"status"`
	Output     []responses.OutputItem `json:"output"`
	OutputText string               `json:"output_text,omitempty"`
	Usage      *responses.Usage     `json:"usage,omitempty"`
}

// ErrorBody is the wire shape of every error response (spec.md §6).
type ErrorBody = responses.ErrorBody

// Validate delegates to the Responses adapter's validation — the accepted
// shapes are identical (spec.md §4.8).
func Validate(req *Request) error {
	return responses.Validate(req)
}

// ToGenerationRequest delegates to the Responses adapter.
func ToGenerationRequest(req *Request, targetTokens int) engine.GenerationRequest {
	return responses.ToGenerationRequest(req, targetTokens)
}

// NewResponseID mints a `resp_<hex>` identifier, matching the Responses
// adapter's prefix since OpenResponses does not define its own.
func NewResponseID() string { return idgen.New("resp_") }

// NewReasoningID mints an `rs_<hex>` identifier.
func NewReasoningID() string { return idgen.New("rs_") }

// NewMessageID mints a `msg_<hex>` identifier.
func NewMessageID() string { return idgen.New("msg_") }

// GenerateSummary delegates to the Responses adapter.
func GenerateSummary(rng *rand.Rand, model string, wordCount int) (string, error) {
	return responses.GenerateSummary(rng, model, wordCount)
}

func toShell(r Response) responses.Response {
	return responses.Response{
		ID: r.ID, Object: "response", CreatedAt: r.CreatedAt, Model: r.Model,
		Status: r.Status, Output: r.Output, OutputText: r.OutputText, Usage: r.Usage,
	}
}

func fromShell(r responses.Response) Response {
	return Response{
		ID: r.ID, Object: r.Object, CreatedAt: r.CreatedAt, Model: r.Model,
		Status: r.Status, Output: r.Output, OutputText: r.OutputText, Usage: r.Usage,
	}
}

// BuildResponse assembles the non-streaming response body.
func BuildResponse(id string, createdAt int64, model string, output []responses.OutputItem, outputText string, usage responses.Usage) Response {
	return fromShell(responses.BuildResponse(id, createdAt, model, output, outputText, usage))
}

// BuildUsage delegates to the Responses adapter.
func BuildUsage(result engine.GenerationResult) responses.Usage {
	return responses.BuildUsage(result)
}

// Drive delegates to the Responses adapter's shared event producer,
// translating the OpenResponses shell to and from the Responses shape at
// the boundary (spec.md §4.8: "SHOULD share the same internal event
// producer with only serialization differences").
func Drive(segEvents <-chan engine.SegEvent, shell Response, hasReasoning, summaryRequested bool, reasoningID, messageID string, finalUsage responses.Usage) <-chan responses.Event {
	return responses.Drive(segEvents, toShell(shell), hasReasoning, summaryRequested, reasoningID, messageID, finalUsage)
}

// BuildErrorBody delegates to the Responses adapter.
func BuildErrorBody(status int, message string) ErrorBody {
	return responses.BuildErrorBody(status, message)
}
