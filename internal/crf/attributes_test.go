package crf

import (
	"reflect"
	"testing"

	"github.com/ukaddresskit/ukaddresskit/internal/token"
)

func TestAttributes(t *testing.T) {
	v := token.Vector{
		Features: token.Features{
			Digits:  token.DigitsSome,
			Word:    "BL8",
			Length:  "w:3",
			Outcode: true,
		},
		Previous: &token.Neighbor{
			Features: token.Features{
				Digits:    token.DigitsNone,
				Word:      "BURY",
				Length:    "w:4",
				PostTown:  true,
				HasVowels: true,
			},
		},
	}

	want := map[string]float64{
		"digits:some_digits":        1,
		"length:w:3":                1,
		"word:BL8":                  1,
		"outcode":                   1,
		"previous:digits:no_digits": 1,
		"previous:length:w:4":       1,
		"previous:word:BURY":        1,
		"previous:posttown":         1,
		"previous:has.vowels":       1,
	}
	if got := Attributes(v); !reflect.DeepEqual(got, want) {
		t.Errorf("Attributes = %v, want %v", got, want)
	}
}

func TestAttributesBoundaries(t *testing.T) {
	base := token.Features{Digits: token.DigitsAll, Length: "d:2"}

	t.Run("start of sequence", func(t *testing.T) {
		v := token.Vector{
			Features: base,
			Next:     &token.Neighbor{Features: base, End: true},
			Start:    true,
		}
		attrs := Attributes(v)
		for _, want := range []string{"rawstring.start", "next:rawstring.end", "next:digits:all_digits"} {
			if attrs[want] != 1 {
				t.Errorf("missing attribute %q in %v", want, attrs)
			}
		}
	})

	t.Run("end of sequence", func(t *testing.T) {
		v := token.Vector{
			Features: base,
			Previous: &token.Neighbor{Features: base, Start: true},
			End:      true,
		}
		attrs := Attributes(v)
		for _, want := range []string{"rawstring.end", "previous:rawstring.start"} {
			if attrs[want] != 1 {
				t.Errorf("missing attribute %q in %v", want, attrs)
			}
		}
	})

	t.Run("singleton", func(t *testing.T) {
		attrs := Attributes(token.Vector{Features: base, Singleton: true})
		if attrs["singleton"] != 1 {
			t.Errorf("missing singleton attribute in %v", attrs)
		}
		if attrs["rawstring.start"] != 0 || attrs["rawstring.end"] != 0 {
			t.Errorf("singleton vector carries boundary attributes: %v", attrs)
		}
	})
}

func TestAttributesHyphenations(t *testing.T) {
	v := token.Vector{
		Features: token.Features{
			Digits:       token.DigitsSome,
			Word:         "12-14",
			Length:       "w:5",
			Hyphenations: 1,
		},
	}
	attrs := Attributes(v)
	if attrs["hyphenations"] != 1 {
		t.Errorf("hyphenations attribute = %v, want 1", attrs["hyphenations"])
	}

	v.Features.Hyphenations = 2
	if attrs = Attributes(v); attrs["hyphenations"] != 2 {
		t.Errorf("hyphenations attribute = %v, want 2", attrs["hyphenations"])
	}
}

func TestAttributesEndsInPunc(t *testing.T) {
	v := token.Vector{
		Features: token.Features{
			Digits:     token.DigitsNone,
			Word:       "AVENUE.",
			Length:     "w:7",
			EndsInPunc: ".",
			HasVowels:  true,
		},
	}
	if attrs := Attributes(v); attrs["endsinpunc:."] != 1 {
		t.Errorf("missing endsinpunc attribute in %v", attrs)
	}
}

func TestAttributeSequence(t *testing.T) {
	vectors := []token.Vector{
		{Features: token.Features{Digits: token.DigitsAll, Length: "d:1"}},
		{Features: token.Features{Digits: token.DigitsNone, Word: "HIGH", Length: "w:4", HasVowels: true}},
	}
	features := AttributeSequence(vectors)
	if len(features) != 2 {
		t.Fatalf("AttributeSequence returned %d maps, want 2", len(features))
	}
	if features[0]["digits:all_digits"] != 1 || features[1]["word:HIGH"] != 1 {
		t.Errorf("AttributeSequence content wrong: %v", features)
	}
}
