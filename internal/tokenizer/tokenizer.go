// Package tokenizer counts tokens and splits text into BPE pieces for
// streaming, approximating each model family's real tokenizer with the
// nearest OpenAI-compatible encoding (spec.md §4.1). The simulator's
// purpose is traffic shape, not cross-vendor token-for-token fidelity.
package tokenizer

import (
	"fmt"
	"strings"
	"sync"

	tk "github.com/tiktoken-go/tokenizer"
)

// Error reports a tokenizer failure. Per spec.md §4.1, Count only fails
// when the default fallback encoding itself cannot be loaded — arbitrary
// input text never causes an error.
type Error struct {
	Kind    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("tokenizer: %s: %s", e.Kind, e.Message) }

const KindUnknownEncoding = "unknown_encoding"

// Tokenizer resolves a model identifier to a cached BPE codec.
type Tokenizer struct {
	mu    sync.RWMutex
	cache map[tk.Encoding]tk.Codec
}

// New constructs a Tokenizer with an empty codec cache. Codecs are loaded
// lazily and cached by encoding name, since the same encoding serves many
// model IDs (e.g. gpt-4 and gpt-3.5-turbo share cl100k_base).
func New() *Tokenizer {
	return &Tokenizer{cache: make(map[tk.Encoding]tk.Codec)}
}

// Count returns the number of tokens text encodes to under model's
// resolved encoding.
func (t *Tokenizer) Count(text, model string) (int, error) {
	codec, err := t.codecFor(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EncodeToTokens splits text into the ordered BPE piece strings used as the
// streaming unit: each element becomes exactly one SSE delta event
// (spec.md §4.5, "each content token ... becomes exactly one delta event").
func (t *Tokenizer) EncodeToTokens(text, model string) ([]string, error) {
	codec, err := t.codecFor(model)
	if err != nil {
		return nil, err
	}
	_, pieces, err := codec.Encode(text)
	if err != nil {
		return nil, err
	}
	return pieces, nil
}

func (t *Tokenizer) codecFor(model string) (tk.Codec, error) {
	enc := encodingForModel(model)

	t.mu.RLock()
	codec, ok := t.cache[enc]
	t.mu.RUnlock()
	if ok {
		return codec, nil
	}

	codec, err := tk.Get(enc)
	if err != nil {
		return nil, &Error{Kind: KindUnknownEncoding, Message: err.Error()}
	}

	t.mu.Lock()
	t.cache[enc] = codec
	t.mu.Unlock()
	return codec, nil
}

// encodingForModel implements the family-prefix table from spec.md §4.1:
// gpt-4, gpt-5, o1/o3/o4 map to their real OpenAI encodings; claude*,
// gemini*, deepseek*, and anything unrecognized fall back to the gpt-4
// encoding (cl100k_base).
func encodingForModel(model string) tk.Encoding {
	m := strings.ToLower(model)

	switch {
	case strings.HasPrefix(m, "gpt-5"):
		return tk.O200kBase
	case strings.HasPrefix(m, "gpt-4.1"):
		return tk.O200kBase
	case strings.HasPrefix(m, "gpt-4o"):
		return tk.O200kBase
	case isOSeriesReasoning(m):
		return tk.O200kBase
	case strings.HasPrefix(m, "gpt-4"):
		return tk.Cl100kBase
	case strings.HasPrefix(m, "gpt-3.5"):
		return tk.Cl100kBase
	default:
		// claude*, gemini*, deepseek*, and anything else unrecognized.
		return tk.Cl100kBase
	}
}

func isOSeriesReasoning(model string) bool {
	for _, prefix := range []string{"o1", "o3", "o4"} {
		if strings.HasPrefix(model, prefix) {
			return true
		}
	}
	return false
}
