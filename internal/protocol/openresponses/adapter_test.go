package openresponses

import (
	"encoding/json"
	"testing"

	"github.com/llmsim/llmsim/internal/engine"
	"github.com/llmsim/llmsim/internal/protocol/responses"
)

func TestValidate_AcceptsSameShapesAsResponses(t *testing.T) {
	req := &Request{
		Model: "gpt-4",
		Input: responses.RequestInput{Items: []responses.InputItem{{Role: "user", Content: "hi"}}},
	}
	if err := Validate(req); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestBuildResponse_OmitsOpenAIOnlyFields(t *testing.T) {
	resp := BuildResponse("resp_1", 1000, "gpt-4", []responses.OutputItem{
		responses.MessageItem("msg_1", "hi"),
	}, "hi", responses.Usage{InputTokens: 1, OutputTokens: 1, TotalTokens: 2})

	out, err := json.Marshal(resp)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(out, &m); err != nil {
		t.Fatal(err)
	}
	for _, forbidden := range []string{"service_tier", "system_fingerprint"} {
		if _, ok := m[forbidden]; ok {
			t.Errorf("unexpected OpenAI-specific field %q in OpenResponses body", forbidden)
		}
	}
}

func TestDrive_DelegatesToResponsesProducer(t *testing.T) {
	segs := make(chan engine.SegEvent, 2)
	segs <- engine.SegEvent{Section: engine.SectionMessage, Token: "hi", FirstInSection: true, LastInSection: true}
	segs <- engine.SegEvent{Final: true, StopReason: engine.StopCompleted}
	close(segs)

	events := Drive(segs, Response{ID: "resp_1", Model: "gpt-4"}, false, false, "", "msg_1", responses.Usage{})

	var last responses.Event
	count := 0
	for e := range events {
		last = e
		count++
	}
	if count == 0 || last.Type != "response.completed" {
		t.Fatalf("got %d events, last = %+v, want terminal response.completed", count, last)
	}
}
