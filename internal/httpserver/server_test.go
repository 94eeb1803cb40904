package httpserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/llmsim/llmsim/internal/config"
	"github.com/llmsim/llmsim/internal/modelregistry"
	"github.com/llmsim/llmsim/internal/stats"
	"github.com/llmsim/llmsim/internal/tokenizer"
)

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	if cfg == nil {
		cfg = &config.Config{}
	}
	if cfg.Response.Generator == "" {
		cfg.Response.Generator = "lorem"
	}
	if cfg.Response.TargetTokens == 0 {
		cfg.Response.TargetTokens = 20
	}
	return New(cfg, modelregistry.NewRegistry(), tokenizer.New(), stats.New())
}

// sseDataFrames extracts every `data: ...` payload from a Chat-Completions-
// style SSE body, skipping the [DONE] sentinel — the same shape as the
// teacher's stream_test.go parseSSEEvents helper.
func sseDataFrames(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			payload := strings.TrimPrefix(line, "data: ")
			if payload != "[DONE]" {
				out = append(out, payload)
			}
		}
	}
	return out
}

// namedFrame is one `event: <name>\ndata: <json>` pair from a
// Responses/OpenResponses SSE body.
type namedFrame struct {
	Event string
	Data  string
}

func namedFrames(body string) []namedFrame {
	var out []namedFrame
	blocks := strings.Split(body, "\n\n")
	for _, block := range blocks {
		var f namedFrame
		for _, line := range strings.Split(block, "\n") {
			switch {
			case strings.HasPrefix(line, "event: "):
				f.Event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				f.Data = strings.TrimPrefix(line, "data: ")
			}
		}
		if f.Event != "" {
			out = append(out, f)
		}
	}
	return out
}

func TestHandleHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %q, want %q", body["status"], "ok")
	}
}

func TestHandleModelsList_RespectsAllowlist(t *testing.T) {
	cfg := &config.Config{Models: config.ModelsConfig{Available: []string{"gpt-4o"}}}
	s := newTestServer(t, cfg)

	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openai/v1/models", nil))

	var listing struct {
		Data []modelObject `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &listing); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(listing.Data) != 1 || listing.Data[0].ID != "gpt-4o" {
		t.Fatalf("got %+v, want exactly gpt-4o", listing.Data)
	}
}

func TestHandleModelGet_NotFound(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openai/v1/models/does-not-exist", nil))

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestHandleStats_ReturnsSnapshot(t *testing.T) {
	s := newTestServer(t, nil)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/llmsim/stats", nil))

	var snap stats.Stats
	if err := json.Unmarshal(w.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.UptimeSecs < 0 {
		t.Errorf("uptime_secs = %v, want >= 0", snap.UptimeSecs)
	}
}

func TestChatCompletions_NonStreaming(t *testing.T) {
	cfg := &config.Config{Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 10}}
	cfg.Latency.Profile = "instant"
	s := newTestServer(t, cfg)

	body := strings.NewReader(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/chat/completions", body)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("got %d choices, want 1", len(resp.Choices))
	}
	if resp.Choices[0].Message.Content == "" {
		t.Error("expected non-empty completion content")
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Errorf("finish_reason = %q, want stop", resp.Choices[0].FinishReason)
	}
	if resp.Usage.TotalTokens != resp.Usage.PromptTokens+resp.Usage.CompletionTokens {
		t.Error("usage accounting identity broken")
	}
}

func TestChatCompletions_ValidationError(t *testing.T) {
	s := newTestServer(t, nil)
	body := strings.NewReader(`{"model":"gpt-4o","messages":[]}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/chat/completions", body)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestChatCompletions_Streaming_SSEFraming(t *testing.T) {
	cfg := &config.Config{Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 5}}
	cfg.Latency.Profile = "instant"
	s := newTestServer(t, cfg)

	reqBody := strings.NewReader(`{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/chat/completions", reqBody)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream; charset=utf-8" {
		t.Errorf("Content-Type = %q", ct)
	}
	body := w.Body.String()
	if !strings.Contains(body, "data: [DONE]\n\n") {
		t.Error("missing [DONE] sentinel")
	}

	frames := sseDataFrames(body)
	if len(frames) < 2 {
		t.Fatalf("got %d frames, want at least a role chunk and a final chunk", len(frames))
	}

	var roleChunk struct {
		Choices []struct {
			Delta struct {
				Role string `json:"role"`
			} `json:"delta"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(frames[0]), &roleChunk); err != nil {
		t.Fatalf("decode role chunk: %v", err)
	}
	if roleChunk.Choices[0].Delta.Role != "assistant" {
		t.Errorf("first chunk role = %q, want assistant", roleChunk.Choices[0].Delta.Role)
	}

	var finalChunk struct {
		Choices []struct {
			FinishReason *string `json:"finish_reason"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(frames[len(frames)-1]), &finalChunk); err != nil {
		t.Fatalf("decode final chunk: %v", err)
	}
	if finalChunk.Choices[0].FinishReason == nil || *finalChunk.Choices[0].FinishReason != "stop" {
		t.Error("final chunk should carry finish_reason=stop")
	}
}

func TestChatCompletions_InjectedRateLimit(t *testing.T) {
	t.Setenv("LLMSIM_SEED", "1")
	cfg := &config.Config{
		Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 5},
		Errors:   config.ErrorsConfig{RateLimitRate: 1.0},
	}
	s := newTestServer(t, cfg)

	reqBody := strings.NewReader(`{"model":"gpt-4o","messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/chat/completions", reqBody)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429 (rate_limit_rate=1.0 always fires)", w.Code)
	}
	snap := s.stats.Snapshot()
	if snap.RateLimitErrors != 1 {
		t.Errorf("rate_limit_errors = %d, want 1", snap.RateLimitErrors)
	}
}

func TestResponses_Streaming_ReasoningEventOrdering(t *testing.T) {
	cfg := &config.Config{Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 10}}
	cfg.Latency.Profile = "instant"
	s := newTestServer(t, cfg)

	reqBody := strings.NewReader(`{"model":"gpt-5","stream":true,"input":"hi","reasoning":{"effort":"medium","summary":"auto"}}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/responses", reqBody)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	frames := namedFrames(w.Body.String())
	if len(frames) == 0 {
		t.Fatal("no SSE frames produced")
	}
	if frames[0].Event != "response.created" {
		t.Errorf("first event = %q, want response.created", frames[0].Event)
	}
	if frames[len(frames)-1].Event != "response.completed" {
		t.Errorf("last event = %q, want response.completed", frames[len(frames)-1].Event)
	}

	sawReasoningAdded, sawMessageAdded := false, false
	reasoningIndexBeforeMessage := -1
	for i, f := range frames {
		switch f.Event {
		case "response.output_item.added":
			if !sawReasoningAdded {
				sawReasoningAdded = true
				reasoningIndexBeforeMessage = i
			} else if !sawMessageAdded {
				sawMessageAdded = true
				if i <= reasoningIndexBeforeMessage {
					t.Error("message item added before reasoning item")
				}
			}
		}
	}
	if !sawReasoningAdded || !sawMessageAdded {
		t.Fatal("expected both a reasoning and a message output_item.added event")
	}
}

func TestOpenResponses_NonStreaming(t *testing.T) {
	cfg := &config.Config{Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 10}}
	cfg.Latency.Profile = "instant"
	s := newTestServer(t, cfg)

	reqBody := strings.NewReader(`{"model":"gpt-4o","input":"hi"}`)
	req := httptest.NewRequest(http.MethodPost, "/openresponses/v1/responses", reqBody)
	w := httptest.NewRecorder()
	s.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Status string `json:"status"`
		Output []struct {
			Type string `json:"type"`
		} `json:"output"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "completed" {
		t.Errorf("status = %q, want completed", resp.Status)
	}
	if len(resp.Output) != 1 || resp.Output[0].Type != "message" {
		t.Fatalf("got output %+v, want a single message item (no reasoning requested)", resp.Output)
	}
}

func TestChatCompletions_StreamAbortedByClientDisconnect(t *testing.T) {
	cfg := &config.Config{Response: config.ResponseConfig{Generator: "lorem", TargetTokens: 2000}}
	cfg.Latency.Profile = "claude-haiku"
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	reqBody := strings.NewReader(`{"model":"gpt-4o","stream":true,"messages":[{"role":"user","content":"hi"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/openai/v1/chat/completions", reqBody).WithContext(ctx)

	done := make(chan struct{})
	w := httptest.NewRecorder()
	go func() {
		s.ServeHTTP(w, req)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not return after client disconnect")
	}

	body := w.Body.String()
	if strings.Contains(body, "[DONE]") {
		t.Error("aborted stream should not reach the [DONE] sentinel")
	}
	snap := s.stats.Snapshot()
	if snap.ActiveRequests != 0 {
		t.Errorf("active_requests = %d, want 0 after the request ended", snap.ActiveRequests)
	}
}
