// Package tagger defines the sequence-labeling oracle the address
// pipeline consumes and the closed set of field labels it assigns.
package tagger

import (
	"fmt"

	"github.com/ukaddresskit/ukaddresskit/internal/token"
)

// Field labels, one per token, assigned by a Tagger.
const (
	OrganisationName = "OrganisationName"
	DepartmentName   = "DepartmentName"
	SubBuildingName  = "SubBuildingName"
	BuildingName     = "BuildingName"
	BuildingNumber   = "BuildingNumber"
	StreetName       = "StreetName"
	Locality         = "Locality"
	TownName         = "TownName"
	Postcode         = "Postcode"
)

// Labels lists every assignable label in training order.
var Labels = []string{
	OrganisationName,
	DepartmentName,
	SubBuildingName,
	BuildingName,
	BuildingNumber,
	StreetName,
	Locality,
	TownName,
	Postcode,
}

// Valid reports whether label is one of the nine assignable labels.
func Valid(label string) bool {
	for _, l := range Labels {
		if l == label {
			return true
		}
	}
	return false
}

// Sequence pairs the literal tokens of one address with their feature
// vectors. Statistical taggers consume only the vectors; the tokens ride
// along for backends that work on the surface form.
type Sequence struct {
	Tokens  []string
	Vectors []token.Vector
}

// Len returns the number of positions in the sequence.
func (s Sequence) Len() int {
	return len(s.Vectors)
}

// Tagger is the sequence-labeling oracle. Implementations must be safe
// for concurrent use; the pipeline shares one handle across parses.
//
// Tag returns exactly one label per position. Marginal returns the
// probability that label applies at position pos independent of the rest
// of the assignment. Probability returns the joint probability of a full
// label sequence. A stub implementation is substitutable anywhere a real
// model is.
type Tagger interface {
	Tag(seq Sequence) ([]string, error)
	Marginal(seq Sequence, label string, pos int) (float64, error)
	Probability(seq Sequence, labels []string) (float64, error)
}

// CheckAssignment validates a label sequence against a sequence length,
// for use by implementations before scoring.
func CheckAssignment(seq Sequence, labels []string) error {
	if len(labels) != seq.Len() {
		return fmt.Errorf("label sequence has %d entries for %d tokens", len(labels), seq.Len())
	}
	for _, l := range labels {
		if !Valid(l) {
			return fmt.Errorf("unknown label %q", l)
		}
	}
	return nil
}
