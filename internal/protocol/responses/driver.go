package responses

import "github.com/llmsim/llmsim/internal/engine"

// Drive translates a raw SegEvent stream from engine.StreamEngine into the
// full Responses event sequence of spec.md §4.7, sharing one Sequencer
// across the reasoning-summary and message sections.
//
// hasReasoning is true whenever reasoning_tokens > 0 for this request — the
// reasoning item itself (with a null summary) is emitted even when no
// summary was requested, since the hidden reasoning tokens still happened.
// summaryRequested is true only when reasoning.summary was set, in which
// case segEvents carries a SectionReasoningSummary run of tokens to stream
// before the SectionMessage run.
//
// The returned channel is closed once the terminal event
// (response.completed) is sent, or immediately once segEvents reports a
// non-completed stop reason — mirroring spec.md §4.5's "no more events are
// produced" on abort or timeout.
func Drive(segEvents <-chan engine.SegEvent, shell Response, hasReasoning, summaryRequested bool, reasoningID, messageID string, finalUsage Usage) <-chan Event {
	out := make(chan Event)

	go func() {
		defer close(out)

		seq := &Sequencer{}
		out <- EventCreated(seq, shell)

		messageIndex := 0
		if hasReasoning {
			messageIndex = 1
		}
		var reasoningSummary []SummaryText

		// The first SegEvent arrives once the stream engine's TTFT sleep is
		// over; in_progress and the reasoning item's opening events wait for it.
		started := false
		start := func() {
			started = true
			out <- EventInProgress(seq, shell)
			if hasReasoning {
				out <- EventOutputItemAdded(seq, 0, ReasoningItem(reasoningID, nil))
				if !summaryRequested {
					out <- EventOutputItemDone(seq, 0, ReasoningItem(reasoningID, nil))
				}
			}
		}

		var reasoningSummaryOpen, messageOpen, contentOpen bool
		var summaryBuf, messageBuf string

		for ev := range segEvents {
			if ev.Final && ev.StopReason != engine.StopCompleted {
				return
			}
			if !started {
				start()
			}
			if ev.Final {
				break
			}

			switch ev.Section {
			case engine.SectionReasoningSummary:
				if !reasoningSummaryOpen {
					reasoningSummaryOpen = true
					out <- EventReasoningSummaryPartAdded(seq, reasoningID, 0, 0)
				}
				summaryBuf += ev.Token
				out <- EventReasoningSummaryTextDelta(seq, reasoningID, 0, 0, ev.Token)
				if ev.LastInSection {
					out <- EventReasoningSummaryTextDone(seq, reasoningID, 0, 0, summaryBuf)
					out <- EventReasoningSummaryPartDone(seq, reasoningID, 0, 0, summaryBuf)
					reasoningSummary = []SummaryText{{Type: "summary_text", Text: summaryBuf}}
					out <- EventOutputItemDone(seq, 0, ReasoningItem(reasoningID, reasoningSummary))
				}

			case engine.SectionMessage:
				if !messageOpen {
					messageOpen = true
					out <- EventOutputItemAdded(seq, messageIndex, MessageItem(messageID, ""))
				}
				if !contentOpen {
					contentOpen = true
					out <- EventContentPartAdded(seq, messageID, messageIndex, 0)
				}
				messageBuf += ev.Token
				out <- EventOutputTextDelta(seq, messageID, messageIndex, 0, ev.Token)
				if ev.LastInSection {
					out <- EventOutputTextDone(seq, messageID, messageIndex, 0, messageBuf)
					out <- EventContentPartDone(seq, messageID, messageIndex, 0, messageBuf)
					out <- EventOutputItemDone(seq, messageIndex, MessageItem(messageID, messageBuf))
				}
			}
		}
		if !started {
			start()
		}

		final := shell
		final.Usage = &finalUsage
		if hasReasoning {
			final.Output = []OutputItem{ReasoningItem(reasoningID, reasoningSummary), MessageItem(messageID, messageBuf)}
		} else {
			final.Output = []OutputItem{MessageItem(messageID, messageBuf)}
		}
		final.OutputText = messageBuf
		out <- EventCompleted(seq, final)
	}()

	return out
}
