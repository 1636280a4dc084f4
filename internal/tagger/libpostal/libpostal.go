// Package libpostal adapts the libpostal statistical address parser to
// the pipeline's tagger contract. libpostal labels whole components
// rather than tokens, so the adapter re-aligns its output against the
// pipeline's token sequence: every token is assigned the label of the
// component whose words contain it.
//
// libpostal exposes no probability surface. Marginal and Probability
// are degenerate: 1 for the assignment the backend would make, 0 for
// anything else.
package libpostal

import (
	"fmt"
	"strings"

	postal "github.com/openvenues/gopostal/parser"

	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
)

// componentLabels maps libpostal component names onto the nine field
// labels. Sub-unit components (unit, level, staircase, entrance,
// po_box) all collapse to SubBuildingName; district components
// collapse to Locality.
var componentLabels = map[string]string{
	"house":          tagger.BuildingName,
	"category":       tagger.OrganisationName,
	"near":           tagger.Locality,
	"house_number":   tagger.BuildingNumber,
	"road":           tagger.StreetName,
	"unit":           tagger.SubBuildingName,
	"level":          tagger.SubBuildingName,
	"staircase":      tagger.SubBuildingName,
	"entrance":       tagger.SubBuildingName,
	"po_box":         tagger.SubBuildingName,
	"suburb":         tagger.Locality,
	"city_district":  tagger.Locality,
	"city":           tagger.TownName,
	"state_district": tagger.Locality,
	"state":          tagger.Locality,
	"postcode":       tagger.Postcode,
}

// Tagger labels token sequences by delegating to libpostal. The
// underlying C library is initialised once per process and is safe for
// concurrent calls, so one Tagger can be shared across parses.
type Tagger struct{}

// New returns a libpostal-backed Tagger.
func New() *Tagger { return &Tagger{} }

// Tag parses the joined token text with libpostal and aligns the parsed
// components back onto the tokens. Tokens libpostal did not cover keep
// the label of the preceding token, so a component split by stray
// punctuation stays in one field.
func (t *Tagger) Tag(seq tagger.Sequence) ([]string, error) {
	if err := checkTokens(seq); err != nil {
		return nil, err
	}
	if seq.Len() == 0 {
		return nil, nil
	}

	wordLabel := make(map[string]string)
	components := postal.ParseAddress(strings.Join(seq.Tokens, " "))
	for _, comp := range components {
		label, ok := componentLabels[comp.Label]
		if !ok {
			continue
		}
		for _, word := range strings.Fields(strings.ToUpper(comp.Value)) {
			if _, seen := wordLabel[bareWord(word)]; !seen {
				wordLabel[bareWord(word)] = label
			}
		}
	}

	labels := make([]string, seq.Len())
	last := tagger.BuildingName
	for i, tok := range seq.Tokens {
		if label, ok := wordLabel[bareWord(tok)]; ok {
			last = label
		}
		labels[i] = last
	}
	return labels, nil
}

// Marginal reports 1 when label is what Tag assigns at pos, else 0.
func (t *Tagger) Marginal(seq tagger.Sequence, label string, pos int) (float64, error) {
	labels, err := t.Tag(seq)
	if err != nil {
		return 0, err
	}
	if pos < 0 || pos >= len(labels) {
		return 0, nil
	}
	if labels[pos] == label {
		return 1, nil
	}
	return 0, nil
}

// Probability reports 1 when labels is exactly the assignment Tag
// makes, else 0.
func (t *Tagger) Probability(seq tagger.Sequence, labels []string) (float64, error) {
	if err := tagger.CheckAssignment(seq, labels); err != nil {
		return 0, err
	}
	assigned, err := t.Tag(seq)
	if err != nil {
		return 0, err
	}
	for i := range labels {
		if labels[i] != assigned[i] {
			return 0, nil
		}
	}
	return 1, nil
}

func checkTokens(seq tagger.Sequence) error {
	if len(seq.Tokens) != seq.Len() {
		return &AlignmentError{Tokens: len(seq.Tokens), Vectors: seq.Len()}
	}
	return nil
}

// AlignmentError reports a sequence whose surface tokens do not line up
// with its feature vectors. The libpostal backend works on the surface
// form, so it cannot label such a sequence.
type AlignmentError struct {
	Tokens  int
	Vectors int
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf("libpostal backend needs surface tokens: got %d tokens for %d vectors",
		e.Tokens, e.Vectors)
}

// bareWord strips the trailing punctuation the tokenizer keeps on a
// token, so "STREET," matches libpostal's "street".
func bareWord(w string) string {
	return strings.ToUpper(strings.TrimRight(w, ".,;)\n"))
}
