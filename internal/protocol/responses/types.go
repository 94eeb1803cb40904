// Package responses implements the OpenAI Responses v1 wire schema,
// including reasoning output items and their streaming event sequence
// (spec.md §4.7).
package responses

import (
	"encoding/json"
	"fmt"
)

// ReasoningConfig is the wire shape of a request's `reasoning` block.
type ReasoningConfig struct {
	Effort  string `json:"effort,omitempty"`
	Summary string `json:"summary,omitempty"`
}

// InputItem is one element of an `input` array: a message with either a
// plain string or a list of typed content parts.
type InputItem struct {
	Type    string `json:"type"`
	Role    string `json:"role"`
	Content any    `json:"content"`
}

// Text returns the item's textual content, flattening `input_text` parts
// when Content is an array and passing a plain string through unchanged.
func (it InputItem) Text() string {
	switch c := it.Content.(type) {
	case string:
		return c
	case []any:
		var out string
		for _, part := range c {
			m, ok := part.(map[string]any)
			if !ok {
				continue
			}
			if t, _ := m["type"].(string); t == "input_text" {
				if s, ok := m["text"].(string); ok {
					out += s
				}
			}
		}
		return out
	default:
		return ""
	}
}

// Request is the body of POST /openai/v1/responses. Input accepts either a
// bare string (spec.md §4.7: "treated as a single user message") or a JSON
// array of InputItem.
type Request struct {
	Model      string           `json:"model"`
	Input      RequestInput     `json:"input"`
	Stream     bool             `json:"stream"`
	Reasoning  *ReasoningConfig `json:"reasoning,omitempty"`
	ToolChoice any              `json:"tool_choice,omitempty"`
	Tools      []Tool           `json:"tools,omitempty"`
	MaxOutputTokens *int        `json:"max_output_tokens,omitempty"`
}

// Tool is stored but never executed.
type Tool struct {
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// RequestInput holds the normalized form of the `input` field regardless
// of which JSON shape the client sent.
type RequestInput struct {
	Items []InputItem

	// fromString records that UnmarshalJSON was given a bare string.
	fromString bool
}

// UnmarshalJSON accepts either a bare string or an array of items.
func (ri *RequestInput) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		ri.Items = []InputItem{{Type: "message", Role: "user", Content: s}}
		ri.fromString = true
		return nil
	}
	var items []InputItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("input: expected a string or an array of items: %w", err)
	}
	ri.Items = items
	ri.fromString = false
	return nil
}

// MarshalJSON round-trips a string-input request back to its compact form;
// every other input, including a one-item array, marshals as an array.
func (ri RequestInput) MarshalJSON() ([]byte, error) {
	if ri.fromString && len(ri.Items) == 1 {
		if s, ok := ri.Items[0].Content.(string); ok {
			return json.Marshal(s)
		}
	}
	return json.Marshal(ri.Items)
}

// SummaryText is one `summary_text` part of a reasoning item.
type SummaryText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ContentPart is one `output_text` part of a message item.
type ContentPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// OutputItem is either a `reasoning` item or a `message` item. Fields
// irrelevant to a given Type are left zero; MarshalJSON decides per-Type
// which of them actually reach the wire.
type OutputItem struct {
	Type    string
	ID      string
	Status  string
	Summary []SummaryText

	Role    string
	Content []ContentPart
}

// MarshalJSON renders a reasoning item's summary as an explicit `null`
// when no summary was requested, per spec.md §4.7 ("summary: null"), while
// still omitting the field entirely from message items, which never carry
// one.
func (it OutputItem) MarshalJSON() ([]byte, error) {
	type reasoningItem struct {
		Type    string        `json:"type"`
		ID      string        `json:"id"`
		Status  string        `json:"status"`
		Summary []SummaryText `json:"summary"`
	}
	type messageItem struct {
		Type    string        `json:"type"`
		ID      string        `json:"id"`
		Status  string        `json:"status"`
		Role    string        `json:"role,omitempty"`
		Content []ContentPart `json:"content,omitempty"`
	}
	if it.Type == "reasoning" {
		return json.Marshal(reasoningItem{Type: it.Type, ID: it.ID, Status: it.Status, Summary: it.Summary})
	}
	return json.Marshal(messageItem{Type: it.Type, ID: it.ID, Status: it.Status, Role: it.Role, Content: it.Content})
}

// OutputTokensDetails breaks down the hidden reasoning-token count.
type OutputTokensDetails struct {
	ReasoningTokens int `json:"reasoning_tokens"`
}

// Usage is the Responses-shaped usage block (spec.md §4.7).
type Usage struct {
	InputTokens         int                 `json:"input_tokens"`
	OutputTokens        int                 `json:"output_tokens"`
	TotalTokens         int                 `json:"total_tokens"`
	OutputTokensDetails OutputTokensDetails `json:"output_tokens_details"`
}

// Response is the non-streaming response body and the "shell" repeated in
// every `response.*` lifecycle event.
type Response struct {
	ID        string       `json:"id"`
	Object    string       `json:"object"`
	CreatedAt int64        `json:"created_at"`
	Model     string       `json:"model"`
	Status    string       `json:"status"`
	Output    []OutputItem `json:"output"`
	OutputText string      `json:"output_text,omitempty"`
	Usage     *Usage       `json:"usage,omitempty"`
}

// ErrorBody is the wire shape of every error response (spec.md §6).
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail carries the error taxonomy fields.
type ErrorDetail struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Code    string `json:"code"`
}
