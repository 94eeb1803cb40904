package engine

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/llmsim/llmsim/internal/errinject"
	"github.com/llmsim/llmsim/internal/generator"
)

type wordCounter struct{}

func (wordCounter) Count(text, model string) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, nil
	}
	return len(strings.Fields(text)), nil
}

func TestPrepare_NoInjectedFailure_Generates(t *testing.T) {
	o := New(errinject.Config{}, wordCounter{})
	gen, _ := generator.New(generator.KindSequence, "", wordCounter{})
	rng := rand.New(rand.NewSource(1))

	res, err := o.Prepare(rng, gen, Input{Model: "gpt-4", GeneratorKind: generator.KindSequence, TargetTokens: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Kind != errinject.KindNone {
		t.Fatalf("expected no injected failure, got %v", res.Decision.Kind)
	}
	if res.CompletionTokens != 5 {
		t.Errorf("CompletionTokens = %d, want 5", res.CompletionTokens)
	}
	if res.FinishReason != FinishStop {
		t.Errorf("FinishReason = %v, want stop", res.FinishReason)
	}
}

func TestPrepare_ClampedByMaxTokens_SetsFinishLength(t *testing.T) {
	o := New(errinject.Config{}, wordCounter{})
	gen, _ := generator.New(generator.KindSequence, "", wordCounter{})
	rng := rand.New(rand.NewSource(1))

	res, err := o.Prepare(rng, gen, Input{
		Model: "gpt-4", GeneratorKind: generator.KindSequence,
		TargetTokens: 5, ClampedByMaxTokens: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if res.FinishReason != FinishLength {
		t.Errorf("FinishReason = %v, want length", res.FinishReason)
	}
}

func TestPrepare_RateLimit_SkipsGeneration(t *testing.T) {
	o := New(errinject.Config{RateLimitRate: 1.0}, wordCounter{})
	gen, _ := generator.New(generator.KindSequence, "", wordCounter{})
	rng := rand.New(rand.NewSource(1))

	res, err := o.Prepare(rng, gen, Input{Model: "gpt-4", TargetTokens: 5})
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Kind != errinject.KindRateLimit {
		t.Fatalf("expected rate limit decision, got %v", res.Decision.Kind)
	}
	if res.CompletionText != "" || res.CompletionTokens != 0 {
		t.Errorf("expected no generation on rate limit, got text=%q tokens=%d", res.CompletionText, res.CompletionTokens)
	}
}

func TestPrepare_TimeoutStreaming_StillGenerates(t *testing.T) {
	o := New(errinject.Config{TimeoutRate: 1.0, TimeoutAfterMs: 500}, wordCounter{})
	gen, _ := generator.New(generator.KindSequence, "", wordCounter{})
	rng := rand.New(rand.NewSource(1))

	res, err := o.Prepare(rng, gen, Input{Model: "gpt-4", TargetTokens: 5, Stream: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Decision.Kind != errinject.KindTimeout {
		t.Fatalf("expected timeout decision, got %v", res.Decision.Kind)
	}
	if res.CompletionTokens != 5 {
		t.Errorf("expected content generated ahead of the timeout cut, got %d tokens", res.CompletionTokens)
	}
}

func TestPrepare_TimeoutNonStreaming_SkipsGeneration(t *testing.T) {
	o := New(errinject.Config{TimeoutRate: 1.0, TimeoutAfterMs: 500}, wordCounter{})
	gen, _ := generator.New(generator.KindSequence, "", wordCounter{})
	rng := rand.New(rand.NewSource(1))

	res, err := o.Prepare(rng, gen, Input{Model: "gpt-4", TargetTokens: 5, Stream: false})
	if err != nil {
		t.Fatal(err)
	}
	if res.CompletionText != "" {
		t.Errorf("expected no generation for a non-streaming timeout, got %q", res.CompletionText)
	}
}

func TestResolveTargetTokens(t *testing.T) {
	five := 5
	target, clamped := ResolveTargetTokens(100, &five)
	if target != 5 || !clamped {
		t.Errorf("ResolveTargetTokens(100, &5) = (%d, %v), want (5, true)", target, clamped)
	}

	target, clamped = ResolveTargetTokens(100, nil)
	if target != 100 || clamped {
		t.Errorf("ResolveTargetTokens(100, nil) = (%d, %v), want (100, false)", target, clamped)
	}

	large := 1000
	target, clamped = ResolveTargetTokens(100, &large)
	if target != 100 || clamped {
		t.Errorf("ResolveTargetTokens(100, &1000) = (%d, %v), want (100, false)", target, clamped)
	}
}

func TestReasoningTokens(t *testing.T) {
	cases := []struct {
		effort ReasoningEffort
		output int
		want   int
	}{
		{EffortNone, 100, 0},
		{EffortMinimal, 100, 50},
		{EffortLow, 100, 150},
		{EffortMedium, 100, 300},
		{EffortHigh, 100, 600},
		{EffortXHigh, 100, 1000},
		{"", 100, 300}, // unset defaults to medium
	}
	for _, c := range cases {
		if got := ReasoningTokens(c.effort, c.output); got != c.want {
			t.Errorf("ReasoningTokens(%q, %d) = %d, want %d", c.effort, c.output, got, c.want)
		}
	}
}

func TestEffortAllowed(t *testing.T) {
	if !EffortAllowed(EffortMinimal, "gpt-5") {
		t.Error("minimal should be allowed for gpt-5")
	}
	if EffortAllowed(EffortMinimal, "o3") {
		t.Error("minimal should not be allowed for o3")
	}
	if !EffortAllowed(EffortXHigh, "gpt-5.2") {
		t.Error("xhigh should be allowed for gpt-5.2")
	}
	if EffortAllowed(EffortXHigh, "gpt-5") {
		t.Error("xhigh should not be allowed for plain gpt-5")
	}
	if !EffortAllowed(EffortMedium, "anything") {
		t.Error("medium has no family restriction")
	}
}

func TestSummaryWordCount(t *testing.T) {
	if n := SummaryWordCount(SummaryNone, 300); n != 0 {
		t.Errorf("SummaryNone should produce 0 words, got %d", n)
	}
	if n := SummaryWordCount(SummaryConcise, 300); n != 15 {
		t.Errorf("SummaryConcise(300) = %d, want 15", n)
	}
	if n := SummaryWordCount(SummaryDetailed, 300); n != 45 {
		t.Errorf("SummaryDetailed(300) = %d, want 45", n)
	}
}

func TestGenerationResult_TotalTokens(t *testing.T) {
	r := GenerationResult{PromptTokens: 10, CompletionTokens: 20, ReasoningTokens: 5}
	if r.TotalTokens() != 35 {
		t.Errorf("TotalTokens() = %d, want 35", r.TotalTokens())
	}
}

func TestGenerationRequest_LastUserMessage(t *testing.T) {
	req := GenerationRequest{Messages: []Message{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "first"},
		{Role: RoleAssistant, Content: "reply"},
		{Role: RoleUser, Content: "second"},
	}}
	if got := req.LastUserMessage(); got != "second" {
		t.Errorf("LastUserMessage() = %q, want %q", got, "second")
	}
}
