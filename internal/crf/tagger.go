package crf

import (
	"fmt"
	"io"
	"math"

	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
)

// Tagger adapts a Model to the pipeline's sequence-tagger interface.
type Tagger struct {
	dec *Decoder
}

// New wraps an already-loaded model.
func New(m *Model) *Tagger {
	return &Tagger{dec: NewDecoder(m)}
}

// Open loads a JSON model from disk and wraps it.
func Open(path string) (*Tagger, error) {
	m, err := OpenModel(path)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// Load reads a JSON model from r and wraps it.
func Load(r io.Reader) (*Tagger, error) {
	m, err := LoadModel(r)
	if err != nil {
		return nil, err
	}
	return New(m), nil
}

// Tag returns the Viterbi label sequence, one label per token.
func (t *Tagger) Tag(seq tagger.Sequence) ([]string, error) {
	if seq.Len() == 0 {
		return nil, nil
	}
	path := t.dec.Viterbi(AttributeSequence(seq.Vectors))
	labels := make([]string, len(path))
	for i, id := range path {
		labels[i] = t.dec.model.Labels.ToStr[id]
	}
	return labels, nil
}

// Marginal returns the forward-backward marginal for label at pos.
func (t *Tagger) Marginal(seq tagger.Sequence, label string, pos int) (float64, error) {
	if pos < 0 || pos >= seq.Len() {
		return 0, fmt.Errorf("position %d out of range for %d tokens", pos, seq.Len())
	}
	id := t.dec.model.Labels.Get(label)
	if id < 0 {
		return 0, fmt.Errorf("label %q not in model", label)
	}
	lat := t.dec.Lattice(AttributeSequence(seq.Vectors))
	return lat.Marginal(id, pos), nil
}

// Probability returns the normalized joint probability of a full label
// assignment for the sequence.
func (t *Tagger) Probability(seq tagger.Sequence, labels []string) (float64, error) {
	if err := tagger.CheckAssignment(seq, labels); err != nil {
		return 0, err
	}
	if seq.Len() == 0 {
		return 0, nil
	}
	ids := make([]int, len(labels))
	for i, l := range labels {
		id := t.dec.model.Labels.Get(l)
		if id < 0 {
			return 0, fmt.Errorf("label %q not in model", l)
		}
		ids[i] = id
	}
	lat := t.dec.Lattice(AttributeSequence(seq.Vectors))
	return math.Exp(lat.Score(ids) - lat.LogZ()), nil
}
