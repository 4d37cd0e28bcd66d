package embed

import (
	"context"
	"regexp"
	"strings"
	"unicode"
)

// StaticDimensions is the embedding dimension produced by StaticEmbedder.
const StaticDimensions = 256

// token and n-gram channel weights. Tokens carry most of the signal;
// character trigrams add partial-match robustness for misspellings and
// unseen identifiers.
const (
	tokenWeight = 0.7
	ngramWeight = 0.3
	ngramSize   = 3
)

var tokenPattern = regexp.MustCompile(`[a-zA-Z0-9]+`)

var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "of": {}, "to": {},
	"in": {}, "is": {}, "it": {}, "for": {}, "on": {}, "with": {}, "as": {},
	"func": {}, "function": {}, "def": {}, "class": {}, "return": {},
	"import": {}, "const": {}, "var": {}, "let": {},
}

// StaticEmbedder produces deterministic hash-based embeddings with no
// model weights, no network access, and no warm-up cost. It trades
// semantic quality for availability: useful as the default Embedder for
// tests, offline builds, and as a fallback when no model-backed Embedder
// is configured.
type StaticEmbedder struct{}

// NewStaticEmbedder creates a StaticEmbedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Dimensions implements Embedder.
func (e *StaticEmbedder) Dimensions() int { return StaticDimensions }

// ModelID implements Embedder.
func (e *StaticEmbedder) ModelID() string { return "static-hash-256" }

// Embed implements Embedder.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	return e.vectorFor(text), nil
}

// EmbedBatch implements Embedder.
func (e *StaticEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = e.vectorFor(t)
	}
	return out, nil
}

func (e *StaticEmbedder) vectorFor(text string) []float32 {
	vec := make([]float32, StaticDimensions)

	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return vec
	}

	lower := strings.ToLower(trimmed)

	for _, tok := range tokenPattern.FindAllString(lower, -1) {
		if _, skip := stopWords[tok]; skip {
			continue
		}
		vec[hashToBucket(tok)] += tokenWeight
	}

	runes := []rune(lower)
	for i := 0; i+ngramSize <= len(runes); i++ {
		gram := string(runes[i : i+ngramSize])
		if !hasLetterOrDigit(gram) {
			continue
		}
		vec[hashToBucket(gram)] += ngramWeight
	}

	return Normalize(vec)
}

func hasLetterOrDigit(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

// hashToBucket maps a token to a vector index using FNV-1a, kept local to
// avoid depending on hash/fnv's allocation-heavy Hash64 interface for
// single-shot use.
func hashToBucket(s string) int {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	var h uint64 = offset64
	for i := 0; i < len(s); i++ {
		h ^= uint64(s[i])
		h *= prime64
	}
	return int(h % uint64(StaticDimensions))
}
