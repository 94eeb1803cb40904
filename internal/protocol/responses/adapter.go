package responses

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/generator"
	"github.com/llmsim/llmsim/internal/idgen"
)

// ValidationError is a client-input fault (spec.md §7, taxonomy item 1).
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the request shape: input must resolve to at least one
// item, and a requested reasoning effort must be honored by the model.
func Validate(req *Request) error {
	if len(req.Input.Items) == 0 {
		return &ValidationError{Message: "input is required and must not be empty"}
	}
	for _, it := range req.Input.Items {
		switch it.Role {
		case "system", "user", "assistant", "tool", "":
		default:
			return &ValidationError{Message: fmt.Sprintf("unknown role %q", it.Role)}
		}
	}
	if req.Reasoning != nil && req.Reasoning.Effort != "" {
		effort := engine.ReasoningEffort(req.Reasoning.Effort)
		if !engine.EffortAllowed(effort, req.Model) {
			return &ValidationError{Message: fmt.Sprintf("reasoning effort %q is not available for model %q", req.Reasoning.Effort, req.Model)}
		}
	}
	return nil
}

// ToGenerationRequest builds the protocol-independent request the engine
// operates on.
func ToGenerationRequest(req *Request, targetTokens int) engine.GenerationRequest {
	messages := make([]engine.Message, 0, len(req.Input.Items))
	for _, it := range req.Input.Items {
		role := it.Role
		if role == "" {
			role = "user"
		}
		messages = append(messages, engine.Message{Role: engine.Role(role), Content: it.Text()})
	}

	gen := engine.GenerationRequest{
		Model:        req.Model,
		Messages:     messages,
		TargetTokens: targetTokens,
		Stream:       req.Stream,
		MaxTokens:    req.MaxOutputTokens,
	}
	if req.Reasoning != nil {
		gen.Reasoning = &engine.ReasoningConfig{
			Effort:  engine.ReasoningEffort(req.Reasoning.Effort),
			Summary: engine.SummaryStyle(req.Reasoning.Summary),
		}
	}
	return gen
}

// NewResponseID mints a `resp_<hex>` identifier.
func NewResponseID() string { return idgen.New("resp_") }

// NewReasoningID mints an `rs_<hex>` identifier.
func NewReasoningID() string { return idgen.New("rs_") }

// NewMessageID mints a `msg_<hex>` identifier.
func NewMessageID() string { return idgen.New("msg_") }

// wordCounter measures summary candidates in words, not BPE tokens: the
// reasoning summary's target length is itself specified in words
// (spec.md §4.7), one level removed from the tokenizer's BPE units.
type wordCounter struct{}

func (wordCounter) Count(text, _ string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return len(strings.Fields(text)), nil
}

// GenerateSummary produces reasoning-summary text of approximately
// wordCount words, using the lorem vocabulary regardless of the response
// generator configured for completions: a summary is filler prose, never
// echoed or fixed content (spec.md §4.7).
func GenerateSummary(rng *rand.Rand, model string, wordCount int) (string, error) {
	if wordCount <= 0 {
		return "", nil
	}
	gen, err := generator.New(generator.KindLorem, "", wordCounter{})
	if err != nil {
		return "", err
	}
	return gen.Generate(generator.Request{Model: model, TargetTokens: wordCount, RNG: rng})
}

// ReasoningItem builds the `reasoning` output item (spec.md §4.7). summary
// is nil unless a summary style was requested.
func ReasoningItem(id string, summary []SummaryText) OutputItem {
	return OutputItem{
		Type:    "reasoning",
		ID:      id,
		Status:  "completed",
		Summary: summary,
	}
}

// MessageItem builds the `message` output item.
func MessageItem(id, text string) OutputItem {
	return OutputItem{
		Type:   "message",
		ID:     id,
		Status: "completed",
		Role:   "assistant",
		Content: []ContentPart{
			{Type: "output_text", Text: text},
		},
	}
}

// BuildResponse assembles the non-streaming response body.
func BuildResponse(id string, createdAt int64, model string, output []OutputItem, outputText string, usage Usage) Response {
	return Response{
		ID:         id,
		Object:     "response",
		CreatedAt:  createdAt,
		Model:      model,
		Status:     "completed",
		Output:     output,
		OutputText: outputText,
		Usage:      &usage,
	}
}

// BuildUsage assembles the Responses-shaped usage block.
func BuildUsage(result engine.GenerationResult) Usage {
	return Usage{
		InputTokens:  result.PromptTokens,
		OutputTokens: result.CompletionTokens,
		TotalTokens:  result.TotalTokens(),
		OutputTokensDetails: OutputTokensDetails{
			ReasoningTokens: result.ReasoningTokens,
		},
	}
}

func errorTaxonomy(status int) (errType, code string) {
	switch status {
	case 429:
		return "rate_limit_error", "rate_limit_exceeded"
	case 500, 503:
		return "server_error", "server_error"
	case 504:
		return "timeout_error", "timeout"
	default:
		return "server_error", "server_error"
	}
}

// BuildErrorBody renders the taxonomy for an injected-error HTTP status.
func BuildErrorBody(status int, message string) ErrorBody {
	errType, code := errorTaxonomy(status)
	return ErrorBody{Error: ErrorDetail{Type: errType, Message: message, Code: code}}
}
