package postcode

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"compact lowercase", "sw1a1aa", "SW1A 1AA", false},
		{"padded", " SW1A1AA ", "SW1A 1AA", false},
		{"already normalized", "SW1A 1AA", "SW1A 1AA", false},
		{"incode o typo", "GL51OPU", "GL51 0PU", false},
		{"incode o typo lowercase", "gl51opu", "GL51 0PU", false},
		{"double internal space", "SW1A  1AA", "SW1A 1AA", false},
		{"single letter district", "m1 1ae", "M1 1AE", false},
		{"letter district suffix", "ec1a 1bb", "EC1A 1BB", false},
		{"girobank", "gir 0aa", "GIR 0AA", false},
		{"words", "NOT A CODE", "", true},
		{"bare outcode", "SW1A", "", true},
		{"digits only", "12345", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("Normalize(%q) error = %v, want ErrInvalidFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Normalize(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	for _, input := range []string{"sw1a1aa", "GL51OPU", "bl8 1jg", "GIR 0AA"} {
		first, err := Normalize(input)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", input, err)
		}
		second, err := Normalize(first)
		if err != nil {
			t.Fatalf("Normalize(%q) error = %v", first, err)
		}
		if first != second {
			t.Errorf("Normalize(%q) not stable: %q then %q", input, first, second)
		}
	}
}

func TestExtractOutcode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"full spaced", "SW1A 1AA", "SW1A", false},
		{"full compact lowercase", "sw1a1aa", "SW1A", false},
		{"bare outcode lowercase", "sw1a", "SW1A", false},
		{"short outcode", "m1", "M1", false},
		{"padded outcode", " bl8 ", "BL8", false},
		{"incode o typo", "GL51OPU", "GL51", false},
		{"invalid", "BADCODE", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractOutcode(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidFormat) {
					t.Fatalf("ExtractOutcode(%q) error = %v, want ErrInvalidFormat", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ExtractOutcode(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ExtractOutcode(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFind(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		want  string
		found bool
	}{
		{"embedded spaced", "FLAT 2 10 QUEEN STREET BURY BL8 1JG", "BL8 1JG", true},
		{"embedded compact", "10 QUEEN STREET BURY BL81JG", "BL8 1JG", true},
		{"first of two", "SW1A 1AA NOT BL8 1JG", "SW1A 1AA", true},
		{"lowercase text", "bury bl8 1jg", "BL8 1JG", true},
		{"no postcode", "10 QUEEN STREET BURY", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Find(tt.text)
			if found != tt.found {
				t.Fatalf("Find(%q) found = %v, want %v", tt.text, found, tt.found)
			}
			if got != tt.want {
				t.Errorf("Find(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func newTestDirectory(t *testing.T) *Directory {
	t.Helper()
	tables, err := refdata.Parse(refdata.Source{
		OutcodeTowns: strings.NewReader(
			"postcode,town\nSW1A,LONDON\nOX1,OXFORD\nBL8,BURY\n"),
		OutcodeCounties: strings.NewReader(
			"outcode,county\nSW1A,GREATER LONDON\n"),
		PostcodeLocalities: strings.NewReader(
			"postcode,locality\nSW1A 1AA,WESTMINSTER\nOX1 1AA,OXFORD CENTRE\n"),
		PostcodeStreets: strings.NewReader(
			"postcode,street\nSW1A 1AA,Downing Street\nSW1A 1AA,DOWNING STREET\nSW1A 1AA,Whitehall\n"),
		PropertyMix: strings.NewReader(
			"postcode,detached,semi_detached,terraced,flats,other\nSW1A 1AA,5,10,0,0,\nOX1 1AA,n/a,,,,\n"),
	})
	if err != nil {
		t.Fatalf("failed to parse reference tables: %v", err)
	}
	return NewDirectory(tables)
}

func TestPostTown(t *testing.T) {
	dir := newTestDirectory(t)

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"full postcode", "SW1A 1AA", "LONDON", nil},
		{"lowercase full", "ox1 1aa", "OXFORD", nil},
		{"bare outcode", "bl8", "BURY", nil},
		{"unknown outcode", "M1 1AE", "", ErrNotFound},
		{"invalid input", "BADCODE", "", ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := dir.PostTown(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("PostTown(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PostTown(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("PostTown(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCounty(t *testing.T) {
	dir := newTestDirectory(t)

	got, err := dir.County("SW1A 1AA")
	if err != nil {
		t.Fatalf("County error = %v", err)
	}
	if got != "GREATER LONDON" {
		t.Errorf("County = %q, want %q", got, "GREATER LONDON")
	}

	got, err = dir.County("M1 1AE")
	if err != nil {
		t.Fatalf("County on unknown outcode error = %v", err)
	}
	if got != "" {
		t.Errorf("County on unknown outcode = %q, want empty", got)
	}

	if _, err := dir.County("BADCODE"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("County on invalid input error = %v, want ErrInvalidFormat", err)
	}
}

func TestLocality(t *testing.T) {
	dir := newTestDirectory(t)

	got, err := dir.Locality("sw1a 1aa")
	if err != nil {
		t.Fatalf("Locality error = %v", err)
	}
	if got != "WESTMINSTER" {
		t.Errorf("Locality = %q, want %q", got, "WESTMINSTER")
	}

	if _, err := dir.Locality("M1 1AE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Locality on unknown postcode error = %v, want ErrNotFound", err)
	}
	if _, err := dir.Locality("BADCODE"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Locality on invalid input error = %v, want ErrInvalidFormat", err)
	}
}

func TestStreets(t *testing.T) {
	dir := newTestDirectory(t)

	got, err := dir.Streets("SW1A 1AA")
	if err != nil {
		t.Fatalf("Streets error = %v", err)
	}
	want := []string{"DOWNING STREET", "WHITEHALL"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Streets = %v, want %v", got, want)
	}

	if _, err := dir.Streets("M1 1AE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Streets on unknown postcode error = %v, want ErrNotFound", err)
	}
	if _, err := dir.Streets("BADCODE"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("Streets on invalid input error = %v, want ErrInvalidFormat", err)
	}
}

func TestPropertyMix(t *testing.T) {
	dir := newTestDirectory(t)

	got, err := dir.PropertyMix("SW1A 1AA")
	if err != nil {
		t.Fatalf("PropertyMix error = %v", err)
	}
	want := map[string]float64{
		"detached":      5,
		"semi_detached": 10,
		"terraced":      0,
		"flats":         0,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("PropertyMix = %v, want %v", got, want)
	}

	if _, err := dir.PropertyMix("OX1 1AA"); !errors.Is(err, ErrNotFound) {
		t.Errorf("PropertyMix with no numeric categories error = %v, want ErrNotFound", err)
	}
	if _, err := dir.PropertyMix("M1 1AE"); !errors.Is(err, ErrNotFound) {
		t.Errorf("PropertyMix on unknown postcode error = %v, want ErrNotFound", err)
	}
	if _, err := dir.PropertyMix("BADCODE"); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("PropertyMix on invalid input error = %v, want ErrInvalidFormat", err)
	}
}

func BenchmarkNormalize(b *testing.B) {
	for i := 0; i < b.N; i++ {
		if _, err := Normalize("sw1a1aa"); err != nil {
			b.Fatal(err)
		}
	}
}
