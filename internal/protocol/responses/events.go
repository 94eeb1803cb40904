package responses

// Sequencer hands out the single monotonic counter shared across reasoning
// summary deltas and message text deltas for one response stream
// (spec.md §4.7: "a single monotonic counter ... starting at 0").
type Sequencer struct{ next int }

// Next returns the next sequence number and advances the counter.
func (s *Sequencer) Next() int {
	n := s.next
	s.next++
	return n
}

// Part is the `part` payload nested in *.part.added/.done events —
// shared shape for both reasoning-summary parts and message content parts.
type Part struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Event is every `response.*` SSE frame's JSON body. Only the fields
// relevant to Type are populated; the rest are omitted. A single flat
// struct (rather than per-event types plus an interface) keeps the
// producer in one place and lets openresponses reuse it verbatim
// (spec.md §4.8: "SHOULD share the same internal event producer").
type Event struct {
	Type           string    `json:"type"`
	SequenceNumber int       `json:"sequence_number"`
	Response       *Response `json:"response,omitempty"`

	OutputIndex  *int        `json:"output_index,omitempty"`
	Item         *OutputItem `json:"item,omitempty"`
	ItemID       string      `json:"item_id,omitempty"`
	SummaryIndex *int        `json:"summary_index,omitempty"`
	ContentIndex *int        `json:"content_index,omitempty"`
	Part         *Part       `json:"part,omitempty"`
	Delta        string      `json:"delta,omitempty"`
	Text         string      `json:"text,omitempty"`
}

func intPtr(i int) *int { return &i }

// EventCreated is the first event of every stream: the response shell with
// an empty output array and status "in_progress".
func EventCreated(seq *Sequencer, shell Response) Event {
	shell.Status = "in_progress"
	return Event{Type: "response.created", SequenceNumber: seq.Next(), Response: &shell}
}

// EventInProgress is emitted after the TTFT sleep, once generation begins.
func EventInProgress(seq *Sequencer, shell Response) Event {
	shell.Status = "in_progress"
	return Event{Type: "response.in_progress", SequenceNumber: seq.Next(), Response: &shell}
}

// EventOutputItemAdded announces a new output item (reasoning or message).
func EventOutputItemAdded(seq *Sequencer, outputIndex int, item OutputItem) Event {
	return Event{Type: "response.output_item.added", SequenceNumber: seq.Next(), OutputIndex: intPtr(outputIndex), Item: &item}
}

// EventOutputItemDone closes an output item once all its parts are final.
func EventOutputItemDone(seq *Sequencer, outputIndex int, item OutputItem) Event {
	return Event{Type: "response.output_item.done", SequenceNumber: seq.Next(), OutputIndex: intPtr(outputIndex), Item: &item}
}

// EventReasoningSummaryPartAdded opens one summary part of a reasoning item.
func EventReasoningSummaryPartAdded(seq *Sequencer, itemID string, outputIndex, summaryIndex int) Event {
	return Event{
		Type: "response.reasoning_summary_part.added", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), SummaryIndex: intPtr(summaryIndex),
		Part: &Part{Type: "summary_text"},
	}
}

// EventReasoningSummaryTextDelta carries one summary word/token.
func EventReasoningSummaryTextDelta(seq *Sequencer, itemID string, outputIndex, summaryIndex int, delta string) Event {
	return Event{
		Type: "response.reasoning_summary_text.delta", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), SummaryIndex: intPtr(summaryIndex),
		Delta: delta,
	}
}

// EventReasoningSummaryTextDone closes the summary text with the full
// accumulated string.
func EventReasoningSummaryTextDone(seq *Sequencer, itemID string, outputIndex, summaryIndex int, text string) Event {
	return Event{
		Type: "response.reasoning_summary_text.done", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), SummaryIndex: intPtr(summaryIndex),
		Text: text,
	}
}

// EventReasoningSummaryPartDone closes one summary part.
func EventReasoningSummaryPartDone(seq *Sequencer, itemID string, outputIndex, summaryIndex int, text string) Event {
	return Event{
		Type: "response.reasoning_summary_part.done", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), SummaryIndex: intPtr(summaryIndex),
		Part: &Part{Type: "summary_text", Text: text},
	}
}

// EventContentPartAdded opens the output_text content part of a message item.
func EventContentPartAdded(seq *Sequencer, itemID string, outputIndex, contentIndex int) Event {
	return Event{
		Type: "response.content_part.added", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), ContentIndex: intPtr(contentIndex),
		Part: &Part{Type: "output_text"},
	}
}

// EventOutputTextDelta carries one completion token.
func EventOutputTextDelta(seq *Sequencer, itemID string, outputIndex, contentIndex int, delta string) Event {
	return Event{
		Type: "response.output_text.delta", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), ContentIndex: intPtr(contentIndex),
		Delta: delta,
	}
}

// EventOutputTextDone closes the output_text with the full completion.
func EventOutputTextDone(seq *Sequencer, itemID string, outputIndex, contentIndex int, text string) Event {
	return Event{
		Type: "response.output_text.done", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), ContentIndex: intPtr(contentIndex),
		Text: text,
	}
}

// EventContentPartDone closes the message's content part.
func EventContentPartDone(seq *Sequencer, itemID string, outputIndex, contentIndex int, text string) Event {
	return Event{
		Type: "response.content_part.done", SequenceNumber: seq.Next(),
		ItemID: itemID, OutputIndex: intPtr(outputIndex), ContentIndex: intPtr(contentIndex),
		Part: &Part{Type: "output_text", Text: text},
	}
}

// EventCompleted is the terminal event: status "completed" with the final
// usage block populated (spec.md §3, "exactly one terminal event").
func EventCompleted(seq *Sequencer, shell Response) Event {
	shell.Status = "completed"
	return Event{Type: "response.completed", SequenceNumber: seq.Next(), Response: &shell}
}
