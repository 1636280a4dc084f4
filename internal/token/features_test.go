package token

import (
	"testing"

	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

func newTestExtractor(t testing.TB) *Extractor {
	t.Helper()
	tables, err := refdata.Load()
	if err != nil {
		t.Fatalf("refdata.Load() error = %v", err)
	}
	return NewExtractor(tables)
}

func TestFeatures(t *testing.T) {
	e := newTestExtractor(t)

	tests := []struct {
		token string
		want  Features
	}{
		{
			token: "QUEEN",
			want:  Features{Digits: DigitsNone, Word: "QUEEN", Length: "w:5", HasVowels: true},
		},
		{
			token: "10",
			want:  Features{Digits: DigitsAll, Length: "d:2"},
		},
		{
			token: "BL8",
			want:  Features{Digits: DigitsSome, Word: "BL8", Length: "w:3", Outcode: true},
		},
		{
			token: "flat",
			want:  Features{Digits: DigitsNone, Word: "FLAT", Length: "w:4", HasVowels: true, Flat: true},
		},
		{
			token: "ROAD",
			want:  Features{Digits: DigitsNone, Word: "ROAD", Length: "w:4", HasVowels: true, Road: true},
		},
		{
			token: "N",
			want:  Features{Digits: DigitsNone, Word: "N", Length: "w:1", Directional: true},
		},
		{
			token: "12-14",
			want:  Features{Digits: DigitsSome, Word: "12-14", Length: "w:5", Hyphenations: 1},
		},
		{
			token: "AVENUE.",
			want:  Features{Digits: DigitsNone, Word: "AVENUE.", Length: "w:7", EndsInPunc: ".", HasVowels: true},
		},
		{
			token: "BURY",
			want:  Features{Digits: DigitsNone, Word: "BURY", Length: "w:4", HasVowels: true, PostTown: true},
		},
		{
			token: "LTD",
			want:  Features{Digits: DigitsNone, Word: "LTD", Length: "w:3", Company: true},
		},
		{
			token: "GROUND",
			want:  Features{Digits: DigitsNone, Word: "GROUND", Length: "w:6", HasVowels: true, Locational: true},
		},
		{
			token: "1ST",
			want:  Features{Digits: DigitsSome, Word: "1ST", Length: "w:3", Ordinal: true},
		},
		{
			token: "HOUSE",
			want:  Features{Digits: DigitsNone, Word: "HOUSE", Length: "w:5", HasVowels: true, Residential: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			if got := e.Features(tt.token); got != tt.want {
				t.Errorf("Features(%q) = %+v, want %+v", tt.token, got, tt.want)
			}
		})
	}
}

func TestSequenceLinks(t *testing.T) {
	e := newTestExtractor(t)

	vectors := e.Sequence([]string{"FLAT", "2", "10"})
	if len(vectors) != 3 {
		t.Fatalf("Sequence returned %d vectors, want 3", len(vectors))
	}

	if !vectors[0].Start || vectors[0].End || vectors[0].Singleton {
		t.Errorf("first vector flags = %+v, want start only", vectors[0])
	}
	if !vectors[2].End || vectors[2].Start {
		t.Errorf("last vector flags = %+v, want end only", vectors[2])
	}

	if vectors[0].Previous != nil {
		t.Error("first vector has a previous link")
	}
	if vectors[2].Next != nil {
		t.Error("last vector has a next link")
	}

	if vectors[0].Next == nil || vectors[0].Next.Features != vectors[1].Features {
		t.Error("first vector's next link does not copy the second vector's features")
	}
	if vectors[1].Previous == nil || vectors[1].Previous.Features != vectors[0].Features {
		t.Error("second vector's previous link does not copy the first vector's features")
	}

	// The boundary flags are mirrored into the neighbour views beside them.
	if !vectors[1].Previous.Start {
		t.Error("second vector's previous link is not flagged as sequence start")
	}
	if !vectors[1].Next.End {
		t.Error("second-to-last vector's next link is not flagged as sequence end")
	}
	if vectors[0].Next.End || vectors[0].Next.Start {
		t.Errorf("first vector's next link flags = %+v, want none", vectors[0].Next)
	}
}

func TestSequencePair(t *testing.T) {
	e := newTestExtractor(t)

	vectors := e.Sequence([]string{"10", "DOWNING"})
	if len(vectors) != 2 {
		t.Fatalf("Sequence returned %d vectors, want 2", len(vectors))
	}
	if !vectors[0].Start || !vectors[1].End {
		t.Error("boundary flags not set on a two-token sequence")
	}
	if vectors[0].Next == nil || !vectors[0].Next.End {
		t.Error("first vector's next link should carry the end flag")
	}
	if vectors[1].Previous == nil || !vectors[1].Previous.Start {
		t.Error("second vector's previous link should carry the start flag")
	}
}

func TestSequenceSingleton(t *testing.T) {
	e := newTestExtractor(t)

	vectors := e.Sequence([]string{"BL8"})
	if len(vectors) != 1 {
		t.Fatalf("Sequence returned %d vectors, want 1", len(vectors))
	}
	v := vectors[0]
	if !v.Singleton || v.Start || v.End || v.Previous != nil || v.Next != nil {
		t.Errorf("singleton vector = %+v, want singleton flag only", v)
	}
}

func TestSequenceEmpty(t *testing.T) {
	e := newTestExtractor(t)
	if got := e.Sequence(nil); got != nil {
		t.Errorf("Sequence(nil) = %v, want nil", got)
	}
}
