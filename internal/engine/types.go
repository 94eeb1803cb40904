// Package engine is the response engine: the protocol-independent pipeline
// that samples latency, generates synthetic completions and paces SSE
// emission (spec.md §2, "The Core"). Outcomes are reported to the stats
// aggregator by the HTTP handlers, not by this package.
package engine

// Role is a message's place in the conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of the conversation, protocol-independent.
type Message struct {
	Role    Role
	Content string
}

// ReasoningEffort selects how many hidden reasoning tokens a reasoning
// item consumes (spec.md §4.7).
type ReasoningEffort string

const (
	EffortNone    ReasoningEffort = "none"
	EffortMinimal ReasoningEffort = "minimal"
	EffortLow     ReasoningEffort = "low"
	EffortMedium  ReasoningEffort = "medium"
	EffortHigh    ReasoningEffort = "high"
	EffortXHigh   ReasoningEffort = "xhigh"
)

// SummaryStyle selects the length and presence of a reasoning summary.
type SummaryStyle string

const (
	SummaryNone     SummaryStyle = ""
	SummaryAuto     SummaryStyle = "auto"
	SummaryConcise  SummaryStyle = "concise"
	SummaryDetailed SummaryStyle = "detailed"
)

// ReasoningConfig is the `reasoning` block of a Responses/OpenResponses
// request.
type ReasoningConfig struct {
	Effort  ReasoningEffort
	Summary SummaryStyle
}

// Tool is stored verbatim and never executed (spec.md §1 Non-goals,
// "executing tools").
type Tool struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// GenerationRequest is the internal, protocol-independent request shape
// every adapter builds from its own wire format (spec.md §3).
type GenerationRequest struct {
	Model        string
	Messages     []Message
	TargetTokens int
	Stream       bool
	Temperature  *float64
	TopP         *float64
	MaxTokens    *int
	Reasoning    *ReasoningConfig
	Tools        []Tool
	ToolChoice   any
	Metadata     map[string]string
}

// LastUserMessage returns the content of the most recent user message, or
// "" if there is none. Used by the echo generator.
func (r GenerationRequest) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == RoleUser {
			return r.Messages[i].Content
		}
	}
	return ""
}

// FinishReason is why generation stopped.
type FinishReason string

const (
	FinishStop          FinishReason = "stop"
	FinishLength        FinishReason = "length"
	FinishContentFilter FinishReason = "content_filter"
)

// GenerationResult is the protocol-independent outcome of a successful
// (non-injected-failure) generation (spec.md §3).
type GenerationResult struct {
	ID               string
	CreatedAt        int64
	Model            string
	CompletionText   string
	PromptTokens     int
	CompletionTokens int
	ReasoningTokens  int
	FinishReason     FinishReason
}

// TotalTokens preserves the accounting invariant of spec.md §3:
// prompt_tokens + completion_tokens + reasoning_tokens == total_tokens.
func (r GenerationResult) TotalTokens() int {
	return r.PromptTokens + r.CompletionTokens + r.ReasoningTokens
}

// reasoningMultipliers implements spec.md §4.7's effort -> multiplier
// table.
var reasoningMultipliers = map[ReasoningEffort]float64{
	EffortNone:    0,
	EffortMinimal: 0.5,
	EffortLow:     1.5,
	EffortMedium:  3,
	EffortHigh:    6,
	EffortXHigh:   10,
}

// ReasoningTokens computes reasoning_tokens = output_tokens * multiplier
// for the given effort, rounding to the nearest integer per scenario 4's
// `round(usage.output_tokens * 3)` example. effort defaults to medium when
// unset but reasoning is requested, per spec.md §4.7 ("medium is default
// when reasoning is present without effort").
func ReasoningTokens(effort ReasoningEffort, outputTokens int) int {
	if effort == "" {
		effort = EffortMedium
	}
	mult, ok := reasoningMultipliers[effort]
	if !ok {
		mult = reasoningMultipliers[EffortMedium]
	}
	return roundToInt(float64(outputTokens) * mult)
}

func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// SummaryWordCount approximates the word length of a reasoning summary as
// a fraction of the reasoning token count, per spec.md §4.7's
// `summary word count ~= reasoning_tokens * {concise:0.05, auto:0.10,
// detailed:0.15}` table.
func SummaryWordCount(style SummaryStyle, reasoningTokens int) int {
	var frac float64
	switch style {
	case SummaryConcise:
		frac = 0.05
	case SummaryAuto:
		frac = 0.10
	case SummaryDetailed:
		frac = 0.15
	default:
		return 0
	}
	n := roundToInt(float64(reasoningTokens) * frac)
	if n < 1 {
		n = 1
	}
	return n
}

// EffortAllowed reports whether effort is honored for model, applying the
// family restrictions from spec.md §4.7: minimal is gpt-5-only, xhigh is
// gpt-5.2-only.
func EffortAllowed(effort ReasoningEffort, model string) bool {
	switch effort {
	case EffortMinimal:
		return hasPrefix(model, "gpt-5")
	case EffortXHigh:
		return hasPrefix(model, "gpt-5.2")
	default:
		return true
	}
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
