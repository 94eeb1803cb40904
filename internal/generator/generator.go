// Package generator produces synthetic completion text targeting a token
// count, without doing any real inference (spec.md §4.3).
package generator

import (
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// Kind names one of the five generator variants.
type Kind string

const (
	KindLorem    Kind = "lorem"
	KindEcho     Kind = "echo"
	KindFixed    Kind = "fixed"
	KindRandom   Kind = "random"
	KindSequence Kind = "sequence"
)

// Counter is the subset of tokenizer.Tokenizer the generators need: a way
// to measure how many tokens a candidate string encodes to under the
// active model's encoding. Generators take this as a dependency instead of
// importing the tokenizer package directly so they stay pure and
// independently testable (spec.md §4.3, "All variants are pure").
type Counter interface {
	Count(text, model string) (int, error)
}

// Request bundles everything a generator needs to produce text.
type Request struct {
	Model           string
	TargetTokens    int
	LastUserMessage string
	RNG             *rand.Rand
}

// Generator produces completion text for a request.
type Generator interface {
	Generate(req Request) (string, error)
}

// New builds the generator named by kind. fixedText is only used by
// KindFixed.
func New(kind Kind, fixedText string, counter Counter) (Generator, error) {
	switch kind {
	case KindLorem:
		return loremGenerator{counter: counter}, nil
	case KindEcho:
		return echoGenerator{counter: counter}, nil
	case KindFixed:
		return fixedGenerator{text: fixedText}, nil
	case KindRandom:
		return randomGenerator{counter: counter}, nil
	case KindSequence:
		return sequenceGenerator{counter: counter}, nil
	default:
		return nil, fmt.Errorf("generator: unknown kind %q", kind)
	}
}

// --- lorem ---

var loremWords = strings.Fields(
	`lorem ipsum dolor sit amet consectetur adipiscing elit sed do eiusmod
	 tempor incididunt ut labore et dolore magna aliqua enim ad minim veniam
	 quis nostrud exercitation ullamco laboris nisi aliquip ex ea commodo
	 consequat duis aute irure in reprehenderit voluptate velit esse cillum
	 dolore eu fugiat nulla pariatur excepteur sint occaecat cupidatat non
	 proident sunt culpa qui officia deserunt mollit anim id est laborum`,
)

type loremGenerator struct{ counter Counter }

func (g loremGenerator) Generate(req Request) (string, error) {
	return fillToTarget(g.counter, req.Model, req.TargetTokens, func(i int) string {
		return loremWords[i%len(loremWords)]
	})
}

// --- echo ---

type echoGenerator struct{ counter Counter }

func (g echoGenerator) Generate(req Request) (string, error) {
	text := req.LastUserMessage
	if text == "" {
		return "", nil
	}
	count, err := g.counter.Count(text, req.Model)
	if err != nil {
		return "", err
	}
	if count <= req.TargetTokens {
		return text, nil
	}
	// Truncate down to the target by repeatedly trimming the last word,
	// re-measuring each time since word boundaries don't map 1:1 to BPE
	// token boundaries.
	words := strings.Fields(text)
	for len(words) > 0 {
		candidate := strings.Join(words, " ")
		count, err := g.counter.Count(candidate, req.Model)
		if err != nil {
			return "", err
		}
		if count <= req.TargetTokens {
			return candidate, nil
		}
		words = words[:len(words)-1]
	}
	return "", nil
}

// --- fixed ---

type fixedGenerator struct{ text string }

func (g fixedGenerator) Generate(Request) (string, error) {
	return g.text, nil
}

// --- random ---

var randomVocab = []string{
	"signal", "vector", "kernel", "packet", "stream", "buffer", "cluster",
	"socket", "thread", "matrix", "tensor", "cipher", "token", "shard",
	"pipeline", "cache", "daemon", "relay", "queue", "ledger",
}

type randomGenerator struct{ counter Counter }

func (g randomGenerator) Generate(req Request) (string, error) {
	return fillToTarget(g.counter, req.Model, req.TargetTokens, func(i int) string {
		return randomVocab[req.RNG.Intn(len(randomVocab))]
	})
}

// --- sequence ---

type sequenceGenerator struct{ counter Counter }

func (g sequenceGenerator) Generate(req Request) (string, error) {
	return fillToTarget(g.counter, req.Model, req.TargetTokens, func(i int) string {
		return "token_" + strconv.Itoa(i)
	})
}

// fillToTarget appends words from wordAt(0), wordAt(1), ... until the
// running token count (as measured by counter) reaches target, then trims
// by character if the last word overshot. This is the shared engine behind
// lorem/random/sequence: output is within +/-1 of target in the common
// case where each vocabulary word is a single BPE token, which is the
// approximation spec.md §4.3 and §4.1 explicitly allow.
func fillToTarget(counter Counter, model string, target int, wordAt func(i int) string) (string, error) {
	if target <= 0 {
		return "", nil
	}

	var b strings.Builder
	i := 0
	for {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(wordAt(i))
		i++

		count, err := counter.Count(b.String(), model)
		if err != nil {
			return "", err
		}
		if count >= target {
			if count == target {
				return b.String(), nil
			}
			return trimToTarget(counter, model, b.String(), target)
		}
		if i > target*4+64 {
			// Safety valve: some pathological vocab/tokenizer combination
			// isn't converging. Return what we have rather than loop
			// forever.
			return b.String(), nil
		}
	}
}

// trimToTarget removes trailing runes from an overshot candidate until its
// token count is at most target, or until there's nothing left to trim.
func trimToTarget(counter Counter, model, candidate string, target int) (string, error) {
	runes := []rune(candidate)
	for len(runes) > 0 {
		runes = runes[:len(runes)-1]
		trimmed := strings.TrimRight(string(runes), " ")
		count, err := counter.Count(trimmed, model)
		if err != nil {
			return "", err
		}
		if count <= target {
			return trimmed, nil
		}
		runes = []rune(trimmed)
	}
	return "", nil
}
