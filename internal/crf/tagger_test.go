package crf

import (
	"math"
	"reflect"
	"testing"

	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
	"github.com/ukaddresskit/ukaddresskit/internal/token"
)

var _ tagger.Tagger = (*Tagger)(nil)

// numberStreetModel scores all-digit tokens as building numbers and
// road-type tokens as street names.
func numberStreetModel() *Model {
	m := NewModel()
	bn := m.Labels.Add(tagger.BuildingNumber)
	sn := m.Labels.Add(tagger.StreetName)
	digits := m.Attributes.Add("digits:all_digits")
	road := m.Attributes.Add("road")
	m.NumLabels = m.Labels.Size()
	m.Weights = make([]float64, m.NumWeights())
	m.Weights[m.StateIndex(digits, bn)] = 2
	m.Weights[m.StateIndex(road, sn)] = 2
	return m
}

func numberStreetSequence() tagger.Sequence {
	return tagger.Sequence{
		Tokens: []string{"10", "ROAD"},
		Vectors: []token.Vector{
			{Features: token.Features{Digits: token.DigitsAll, Length: "d:2"}},
			{Features: token.Features{
				Digits:    token.DigitsNone,
				Word:      "ROAD",
				Length:    "w:4",
				Road:      true,
				HasVowels: true,
			}},
		},
	}
}

func TestTaggerTag(t *testing.T) {
	tg := New(numberStreetModel())
	seq := numberStreetSequence()

	got, err := tg.Tag(seq)
	if err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	want := []string{tagger.BuildingNumber, tagger.StreetName}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tag() = %v, want %v", got, want)
	}
}

func TestTaggerTagEmpty(t *testing.T) {
	tg := New(numberStreetModel())
	got, err := tg.Tag(tagger.Sequence{})
	if err != nil {
		t.Fatalf("Tag() error = %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Tag(empty) = %v, want empty", got)
	}
}

func TestTaggerMarginal(t *testing.T) {
	tg := New(numberStreetModel())
	seq := numberStreetSequence()

	// Path scores: (BN,SN)=4, (BN,BN)=2, (SN,SN)=2, (SN,BN)=0.
	z := math.Exp(4) + 2*math.Exp(2) + 1
	want := (math.Exp(4) + math.Exp(2)) / z

	got, err := tg.Marginal(seq, tagger.BuildingNumber, 0)
	if err != nil {
		t.Fatalf("Marginal() error = %v", err)
	}
	if math.Abs(got-want) > 1e-12 {
		t.Errorf("Marginal = %v, want %v", got, want)
	}
}

func TestTaggerMarginalErrors(t *testing.T) {
	tg := New(numberStreetModel())
	seq := numberStreetSequence()

	if _, err := tg.Marginal(seq, tagger.BuildingNumber, 5); err == nil {
		t.Error("Marginal() accepted an out-of-range position")
	}
	if _, err := tg.Marginal(seq, tagger.Postcode, 0); err == nil {
		t.Error("Marginal() accepted a label the model does not know")
	}
}

func TestTaggerProbability(t *testing.T) {
	tg := New(numberStreetModel())
	seq := numberStreetSequence()

	z := math.Exp(4) + 2*math.Exp(2) + 1
	got, err := tg.Probability(seq, []string{tagger.BuildingNumber, tagger.StreetName})
	if err != nil {
		t.Fatalf("Probability() error = %v", err)
	}
	if want := math.Exp(4) / z; math.Abs(got-want) > 1e-12 {
		t.Errorf("Probability = %v, want %v", got, want)
	}
}

func TestTaggerProbabilityErrors(t *testing.T) {
	tg := New(numberStreetModel())
	seq := numberStreetSequence()

	if _, err := tg.Probability(seq, []string{tagger.BuildingNumber}); err == nil {
		t.Error("Probability() accepted a short label sequence")
	}
	if _, err := tg.Probability(seq, []string{"Nonsense", tagger.StreetName}); err == nil {
		t.Error("Probability() accepted an unknown label")
	}
	if _, err := tg.Probability(seq, []string{tagger.Postcode, tagger.Postcode}); err == nil {
		t.Error("Probability() accepted a label the model does not know")
	}
}
