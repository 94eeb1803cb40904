package chatcompletions

import (
	"fmt"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/idgen"
)

// ValidationError is a client-input fault (spec.md §7, taxonomy item 1).
// It is never recorded as an injected error.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Validate checks the request shape per spec.md §4.6: messages
// missing/empty, unknown role, temperature outside [0, 2].
func Validate(req *Request) error {
	if len(req.Messages) == 0 {
		return &ValidationError{Message: "messages is required and must not be empty"}
	}
	for _, m := range req.Messages {
		switch m.Role {
		case "system", "user", "assistant", "tool":
		default:
			return &ValidationError{Message: fmt.Sprintf("unknown role %q", m.Role)}
		}
	}
	if req.Temperature != nil && (*req.Temperature < 0 || *req.Temperature > 2) {
		return &ValidationError{Message: "temperature must be between 0 and 2"}
	}
	return nil
}

// ToGenerationRequest builds the protocol-independent request the engine
// operates on.
func ToGenerationRequest(req *Request, targetTokens int) engine.GenerationRequest {
	messages := make([]engine.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = engine.Message{Role: engine.Role(m.Role), Content: m.Content}
	}
	return engine.GenerationRequest{
		Model:        req.Model,
		Messages:     messages,
		TargetTokens: targetTokens,
		Stream:       req.Stream,
		Temperature:  req.Temperature,
		TopP:         req.TopP,
		MaxTokens:    req.MaxTokens,
	}
}

// NewID mints a `chatcmpl-<hex>` identifier.
func NewID() string { return idgen.New("chatcmpl-") }

// BuildResponse assembles the non-streaming response body (spec.md §4.6).
func BuildResponse(result engine.GenerationResult) Response {
	return Response{
		ID:      result.ID,
		Object:  "chat.completion",
		Created: result.CreatedAt,
		Model:   result.Model,
		Choices: []Choice{
			{
				Index: 0,
				Message: ResponseMessage{
					Role:    "assistant",
					Content: result.CompletionText,
				},
				FinishReason: string(result.FinishReason),
			},
		},
		Usage: Usage{
			PromptTokens:     result.PromptTokens,
			CompletionTokens: result.CompletionTokens,
			TotalTokens:      result.TotalTokens(),
		},
	}
}

// BuildRoleChunk is the first streaming chunk: role set, no content.
func BuildRoleChunk(id, model string, created int64) Chunk {
	return Chunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []ChunkChoice{{Index: 0, Delta: Delta{Role: "assistant"}, FinishReason: nil}},
	}
}

// BuildDeltaChunk carries one content token.
func BuildDeltaChunk(id, model string, created int64, token string) Chunk {
	return Chunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []ChunkChoice{{Index: 0, Delta: Delta{Content: token}, FinishReason: nil}},
	}
}

// BuildFinalChunk is the terminal chunk before `[DONE]`: empty delta,
// finish_reason set (spec.md §4.6).
func BuildFinalChunk(id, model string, created int64, finish engine.FinishReason) Chunk {
	reason := string(finish)
	return Chunk{
		ID:      id,
		Object:  "chat.completion.chunk",
		Created: created,
		Model:   model,
		Choices: []ChunkChoice{{Index: 0, Delta: Delta{}, FinishReason: &reason}},
	}
}

// errorTaxonomy maps an injected-error HTTP status to the wire error type
// and code (spec.md §6).
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
