// Package parser wires the address pipeline end to end: normalization,
// tokenization, feature extraction, sequence tagging and field
// reconciliation. The sequence tagger is injected, so any backend that
// satisfies tagger.Tagger plugs in without touching pipeline code.
package parser

import (
	"fmt"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/normalize"
	"github.com/ukaddresskit/ukaddresskit/internal/reconcile"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
	"github.com/ukaddresskit/ukaddresskit/internal/token"
)

// TokenLabel pairs one token with its assigned label.
type TokenLabel struct {
	Token string `json:"token"`
	Label string `json:"label"`
}

// Probabilities is a full tagging together with its confidence numbers:
// the marginal probability of each chosen label and the probability of
// the whole sequence.
type Probabilities struct {
	Tokens              []string  `json:"tokens"`
	Tags                []string  `json:"tags"`
	Marginals           []float64 `json:"marginal_probabilities"`
	SequenceProbability float64   `json:"sequence_probability"`
}

// Parser runs raw address text through the full pipeline.
type Parser struct {
	norm       *normalize.Normalizer
	tok        *token.Tokenizer
	ext        *token.Extractor
	tagger     tagger.Tagger
	reconciler *reconcile.Reconciler
}

// New builds a Parser over the given reference tables and tagging
// backend.
func New(tables *refdata.Tables, tg tagger.Tagger) *Parser {
	norm := normalize.New(tables)
	return &Parser{
		norm:       norm,
		tok:        token.NewTokenizer(norm),
		ext:        token.NewExtractor(tables),
		tagger:     tg,
		reconciler: reconcile.New(tables),
	}
}

// Parse tokenizes text and labels every token. Empty or unparseable
// input yields an empty result, not an error.
func (p *Parser) Parse(text string) ([]TokenLabel, error) {
	tokens := p.tok.Tokenize(text)
	if len(tokens) == 0 {
		return nil, nil
	}
	labels, err := p.label(tokens)
	if err != nil {
		return nil, err
	}
	pairs := make([]TokenLabel, len(labels))
	for i, label := range labels {
		pairs[i] = TokenLabel{Token: tokens[i], Label: label}
	}
	return pairs, nil
}

// ParseWithProbabilities labels every token and reports the marginal
// probability of each assigned label plus the sequence probability. The
// tagger is not consulted for empty input; the zero-value result has
// empty slices and probability 0.
func (p *Parser) ParseWithProbabilities(text string) (*Probabilities, error) {
	tokens := p.tok.Tokenize(text)
	if len(tokens) == 0 {
		return &Probabilities{
			Tokens:    []string{},
			Tags:      []string{},
			Marginals: []float64{},
		}, nil
	}

	seq := p.sequence(tokens)
	labels, err := p.tagger.Tag(seq)
	if err != nil {
		return nil, fmt.Errorf("failed to tag address: %w", err)
	}
	marginals := make([]float64, len(labels))
	for i, label := range labels {
		m, err := p.tagger.Marginal(seq, label, i)
		if err != nil {
			return nil, fmt.Errorf("failed to compute marginal at %d: %w", i, err)
		}
		marginals[i] = m
	}
	seqProb, err := p.tagger.Probability(seq, labels)
	if err != nil {
		return nil, fmt.Errorf("failed to compute sequence probability: %w", err)
	}
	return &Probabilities{
		Tokens:              tokens,
		Tags:                labels,
		Marginals:           marginals,
		SequenceProbability: seqProb,
	}, nil
}

// Tag labels the text and aggregates same-label tokens into one field
// value per label, joined by single spaces and trimmed of stray
// punctuation.
func (p *Parser) Tag(text string) (map[string]string, error) {
	tokens := p.tok.Tokenize(text)
	if len(tokens) == 0 {
		return map[string]string{}, nil
	}
	labels, err := p.label(tokens)
	if err != nil {
		return nil, err
	}
	return aggregate(tokens, labels), nil
}

// Structured runs the whole pipeline: normalize, tag, reconcile. The
// county stripped during normalization is carried onto the result.
func (p *Parser) Structured(text string) (reconcile.StructuredAddress, error) {
	cleaned, county := p.norm.Normalize(text)
	tokens := p.tok.TokenizeNormalized(cleaned)

	fields := map[string]string{}
	if len(tokens) > 0 {
		labels, err := p.label(tokens)
		if err != nil {
			return reconcile.StructuredAddress{}, err
		}
		fields = aggregate(tokens, labels)
	}

	addr := p.reconciler.Reconcile(cleaned, fields)
	addr.County = county
	return addr, nil
}

func (p *Parser) sequence(tokens []string) tagger.Sequence {
	return tagger.Sequence{Tokens: tokens, Vectors: p.ext.Sequence(tokens)}
}

func (p *Parser) label(tokens []string) ([]string, error) {
	labels, err := p.tagger.Tag(p.sequence(tokens))
	if err != nil {
		return nil, fmt.Errorf("failed to tag address: %w", err)
	}
	return labels, nil
}

// aggregate joins the tokens of each label with spaces, trimming
// leading and trailing separator junk from the joined value.
func aggregate(tokens, labels []string) map[string]string {
	parts := make(map[string][]string)
	for i, label := range labels {
		if i >= len(tokens) {
			break
		}
		parts[label] = append(parts[label], tokens[i])
	}
	fields := make(map[string]string, len(parts))
	for label, toks := range parts {
		fields[label] = strings.Trim(strings.Join(toks, " "), " ,;")
	}
	return fields
}
