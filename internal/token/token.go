// Package token splits cleaned address text into the token sequence the
// sequence tagger labels, and computes per-token feature vectors with
// neighbour context links.
package token

import (
	"regexp"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/normalize"
)

// reToken keeps a token's trailing punctuation attached and lets # and &
// stand alone as one-character tokens.
var reToken = regexp.MustCompile(`\(*\b[^\s,;#&()]+[.,;)\n]*|[#&]`)

// Tokenizer turns raw address text into tokens. Splitting happens after
// the normalization cascade, so ranges and synonyms arrive as single
// canonical tokens.
type Tokenizer struct {
	norm *normalize.Normalizer
}

func NewTokenizer(norm *normalize.Normalizer) *Tokenizer {
	return &Tokenizer{norm: norm}
}

// Tokenize normalizes raw text and splits it. Empty or blank input yields
// an empty sequence.
func (t *Tokenizer) Tokenize(raw string) []string {
	cleaned, _ := t.norm.Normalize(raw)
	return t.TokenizeNormalized(cleaned)
}

// TokenizeNormalized splits text already cleaned by Normalizer.Normalize.
// A couple of filler words and stray dashes left by the cleanup are
// dropped before splitting.
func (t *Tokenizer) TokenizeNormalized(cleaned string) []string {
	s := strings.ReplaceAll(cleaned, " IN ", " ")
	s = strings.ReplaceAll(s, " CO ", " ")
	s = strings.ReplaceAll(s, " - ", " ")
	return reToken.FindAllString(s, -1)
}
