package token

import (
	"strconv"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

// Digit composition classes.
const (
	DigitsAll  = "all_digits"
	DigitsSome = "some_digits"
	DigitsNone = "no_digits"
)

// Features holds the position-independent signals computed for one token.
// Word is empty for all-digit tokens so the tagger never keys on literal
// numbers, and Length is bucketed separately for digit and word tokens.
type Features struct {
	Digits       string
	Word         string
	Length       string
	EndsInPunc   string
	Directional  bool
	Outcode      bool
	PostTown     bool
	HasVowels    bool
	Flat         bool
	Company      bool
	Road         bool
	Residential  bool
	Business     bool
	Locational   bool
	Ordinal      bool
	Hyphenations int
}

// Neighbor is the copy of an adjacent token's flat features attached to a
// vector, with the boundary flag as seen from that side.
type Neighbor struct {
	Features
	Start bool
	End   bool
}

// Vector is the full per-position feature vector handed to the tagger.
// Boundary positions carry Start/End; a one-token sequence carries
// Singleton instead.
type Vector struct {
	Features
	Previous  *Neighbor
	Next      *Neighbor
	Start     bool
	End       bool
	Singleton bool
}

// Extractor computes feature vectors against a fixed reference index. It
// is stateless beyond the index and safe for concurrent use.
type Extractor struct {
	tables *refdata.Tables
}

func NewExtractor(tables *refdata.Tables) *Extractor {
	return &Extractor{tables: tables}
}

// Features computes the flat feature set for a single token.
func (e *Extractor) Features(tok string) Features {
	clean := strings.ToUpper(tok)

	f := Features{
		Digits:       digitClass(clean),
		Directional:  refdata.Directions.Has(clean),
		Outcode:      e.tables.Outcodes.Has(clean),
		PostTown:     e.tables.PostTowns.Has(clean),
		HasVowels:    strings.ContainsAny(clean, "AEIOU"),
		Flat:         refdata.Flat.Has(clean),
		Company:      refdata.Company.Has(clean),
		Road:         refdata.Road.Has(clean),
		Residential:  refdata.Residential.Has(clean),
		Business:     refdata.Business.Has(clean),
		Locational:   refdata.Locational.Has(clean),
		Ordinal:      refdata.Ordinal.Has(clean),
		Hyphenations: strings.Count(clean, "-"),
	}
	if f.Digits == DigitsAll {
		f.Length = "d:" + strconv.Itoa(len(clean))
	} else {
		f.Word = clean
		f.Length = "w:" + strconv.Itoa(len(clean))
	}
	if len(tok) > 1 && strings.HasSuffix(tok, ".") {
		f.EndsInPunc = "."
	}
	return f
}

// Sequence computes linked feature vectors for a token sequence. Every
// vector carries a copy of its neighbours' flat features, and the
// boundary flags are mirrored into the neighbour views adjacent to them,
// matching what the tagger was trained on.
func (e *Extractor) Sequence(tokens []string) []Vector {
	if len(tokens) == 0 {
		return nil
	}

	vectors := make([]Vector, len(tokens))
	for i, tok := range tokens {
		vectors[i] = Vector{Features: e.Features(tok)}
	}
	for i := range vectors {
		if i > 0 {
			vectors[i].Previous = &Neighbor{Features: vectors[i-1].Features}
		}
		if i < len(vectors)-1 {
			vectors[i].Next = &Neighbor{Features: vectors[i+1].Features}
		}
	}

	if len(vectors) == 1 {
		vectors[0].Singleton = true
		return vectors
	}

	last := len(vectors) - 1
	vectors[0].Start = true
	vectors[last].End = true
	vectors[1].Previous.Start = true
	vectors[last-1].Next.End = true
	return vectors
}

func digitClass(s string) string {
	if allDigits(s) {
		return DigitsAll
	}
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return DigitsSome
		}
	}
	return DigitsNone
}

func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
