package tokenizer

import (
	"strings"
	"testing"

	tk "github.com/tiktoken-go/tokenizer"
)

func TestEncodingForModel(t *testing.T) {
	cases := []struct {
		model string
		want  tk.Encoding
	}{
		{"gpt-5", tk.O200kBase},
		{"gpt-5.2", tk.O200kBase},
		{"gpt-4.1", tk.O200kBase},
		{"gpt-4o", tk.O200kBase},
		{"gpt-4o-mini", tk.O200kBase},
		{"o1", tk.O200kBase},
		{"o3-mini", tk.O200kBase},
		{"gpt-4", tk.Cl100kBase},
		{"gpt-4-turbo", tk.Cl100kBase},
		{"claude-opus-4.5", tk.Cl100kBase},
		{"gemini-2.5-pro", tk.Cl100kBase},
		{"deepseek-v3", tk.Cl100kBase},
		{"totally-unknown", tk.Cl100kBase},
	}
	for _, c := range cases {
		if got := encodingForModel(c.model); got != c.want {
			t.Errorf("encodingForModel(%q) = %v, want %v", c.model, got, c.want)
		}
	}
}

func TestCount_NeverErrorsOnArbitraryInput(t *testing.T) {
	tok := New()
	inputs := []string{"", "hello world", "🎉 unicode!!", strings.Repeat("a", 5000)}
	for _, in := range inputs {
		if _, err := tok.Count(in, "gpt-4"); err != nil {
			t.Errorf("Count(%q) returned error: %v", in, err)
		}
	}
}

func TestCount_NonEmptyTextHasPositiveTokens(t *testing.T) {
	tok := New()
	n, err := tok.Count("The quick brown fox jumps over the lazy dog.", "gpt-4")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if n <= 0 {
		t.Errorf("Count = %d, want > 0", n)
	}
}

func TestEncodeToTokens_JoinRecoversCount(t *testing.T) {
	tok := New()
	text := "Hello, streaming world!"
	pieces, err := tok.EncodeToTokens(text, "gpt-4")
	if err != nil {
		t.Fatalf("EncodeToTokens returned error: %v", err)
	}
	count, err := tok.Count(text, "gpt-4")
	if err != nil {
		t.Fatalf("Count returned error: %v", err)
	}
	if len(pieces) != count {
		t.Errorf("len(pieces) = %d, want %d (same token count as Count)", len(pieces), count)
	}
}

func TestCodecFor_CachesByEncoding(t *testing.T) {
	tok := New()
	if _, err := tok.codecFor("gpt-4"); err != nil {
		t.Fatalf("codecFor(gpt-4) error: %v", err)
	}
	if _, err := tok.codecFor("gpt-3.5-turbo"); err != nil {
		t.Fatalf("codecFor(gpt-3.5-turbo) error: %v", err)
	}
	if len(tok.cache) != 1 {
		t.Errorf("expected gpt-4 and gpt-3.5-turbo to share one cached codec, got %d entries", len(tok.cache))
	}
}
