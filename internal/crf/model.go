// Package crf implements decoding for a linear-chain conditional random
// field: Viterbi for the best label sequence, forward-backward for
// marginals and sequence probabilities. Training is out of scope; models
// are produced offline and loaded from JSON.
package crf

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Alphabet maps between strings (labels or attributes) and integer IDs.
type Alphabet struct {
	ToID  map[string]int `json:"to_id,omitempty"`
	ToStr []string       `json:"to_str"`
}

// NewAlphabet creates an empty alphabet.
func NewAlphabet() *Alphabet {
	return &Alphabet{ToID: make(map[string]int)}
}

// Add inserts s if not already present and returns its ID.
func (a *Alphabet) Add(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	id := len(a.ToStr)
	a.ToID[s] = id
	a.ToStr = append(a.ToStr, s)
	return id
}

// Get returns the ID for s, or -1 when absent.
func (a *Alphabet) Get(s string) int {
	if id, ok := a.ToID[s]; ok {
		return id
	}
	return -1
}

// Size returns the number of entries.
func (a *Alphabet) Size() int {
	return len(a.ToStr)
}

// reindex rebuilds the string-to-ID map from the ID-to-string list, for
// models serialized without the redundant map.
func (a *Alphabet) reindex() {
	a.ToID = make(map[string]int, len(a.ToStr))
	for i, s := range a.ToStr {
		a.ToID[s] = i
	}
}

// Model holds the CRF parameters. The weight vector is laid out as all
// state features followed by all transition features:
//
//	state(attr, label)      -> attrID*numLabels + labelID
//	transition(from, to)    -> transOffset + fromID*numLabels + toID
type Model struct {
	Labels     *Alphabet `json:"labels"`
	Attributes *Alphabet `json:"attributes"`
	Weights    []float64 `json:"weights"`
	NumLabels  int       `json:"num_labels"`
}

// NewModel creates an empty model.
func NewModel() *Model {
	return &Model{
		Labels:     NewAlphabet(),
		Attributes: NewAlphabet(),
	}
}

// TransOffset returns the index where transition weights start.
func (m *Model) TransOffset() int {
	return m.Attributes.Size() * m.NumLabels
}

// NumWeights returns the expected length of the weight vector.
func (m *Model) NumWeights() int {
	return m.TransOffset() + m.NumLabels*m.NumLabels
}

// StateIndex returns the weight index for a state feature.
func (m *Model) StateIndex(attrID, labelID int) int {
	return attrID*m.NumLabels + labelID
}

// TransIndex returns the weight index for a transition feature.
func (m *Model) TransIndex(fromID, toID int) int {
	return m.TransOffset() + fromID*m.NumLabels + toID
}

// StateScores computes the [T][L] state score matrix for a sequence of
// per-position attribute maps. Attributes unknown to the model score
// zero everywhere.
func (m *Model) StateScores(features []map[string]float64) [][]float64 {
	scores := make([][]float64, len(features))
	for t := range features {
		scores[t] = make([]float64, m.NumLabels)
		for attr, val := range features[t] {
			attrID := m.Attributes.Get(attr)
			if attrID < 0 {
				continue
			}
			for y := 0; y < m.NumLabels; y++ {
				scores[t][y] += m.Weights[m.StateIndex(attrID, y)] * val
			}
		}
	}
	return scores
}

// TransScores returns the [L][L] transition score matrix.
func (m *Model) TransScores() [][]float64 {
	trans := make([][]float64, m.NumLabels)
	for i := 0; i < m.NumLabels; i++ {
		trans[i] = make([]float64, m.NumLabels)
		for j := 0; j < m.NumLabels; j++ {
			trans[i][j] = m.Weights[m.TransIndex(i, j)]
		}
	}
	return trans
}

func (m *Model) validate() error {
	if m.Labels == nil || m.Attributes == nil {
		return fmt.Errorf("model is missing label or attribute alphabet")
	}
	if m.NumLabels <= 0 || m.NumLabels != m.Labels.Size() {
		return fmt.Errorf("model declares %d labels but alphabet has %d", m.NumLabels, m.Labels.Size())
	}
	if len(m.Weights) != m.NumWeights() {
		return fmt.Errorf("model has %d weights, want %d", len(m.Weights), m.NumWeights())
	}
	return nil
}

// LoadModel reads and validates a JSON model. Alphabets may be
// serialized without their string-to-ID maps; they are rebuilt here.
func LoadModel(r io.Reader) (*Model, error) {
	var m Model
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if m.Labels != nil && len(m.Labels.ToID) != len(m.Labels.ToStr) {
		m.Labels.reindex()
	}
	if m.Attributes != nil && len(m.Attributes.ToID) != len(m.Attributes.ToStr) {
		m.Attributes.reindex()
	}
	if err := m.validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// OpenModel loads a JSON model from disk.
func OpenModel(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model %s: %w", path, err)
	}
	defer f.Close()

	m, err := LoadModel(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", path, err)
	}
	return m, nil
}
