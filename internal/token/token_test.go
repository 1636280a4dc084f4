package token

import (
	"reflect"
	"testing"

	"github.com/ukaddresskit/ukaddresskit/internal/normalize"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

func newTestTokenizer(t testing.TB) *Tokenizer {
	t.Helper()
	tables, err := refdata.Load()
	if err != nil {
		t.Fatalf("refdata.Load() error = %v", err)
	}
	return NewTokenizer(normalize.New(tables))
}

func TestTokenize(t *testing.T) {
	tok := newTestTokenizer(t)

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "flat with postcode",
			input: "Flat 2, 10 Queen Street, Bury BL8 1JG",
			want:  []string{"FLAT", "2", "10", "QUEEN", "STREET", "BURY", "BL8", "1JG"},
		},
		{
			name:  "range folds to one token",
			input: "12 - 14 High St",
			want:  []string{"12-14", "HIGH", "ST"},
		},
		{
			name:  "filler words dropped",
			input: "Barton in the Beans",
			want:  []string{"BARTON", "THE", "BEANS"},
		},
		{
			name:  "hash and ampersand stand alone",
			input: "Flat #4 & 5, Mill Lane",
			want:  []string{"FLAT", "#", "4", "&", "5", "MILL", "LANE"},
		},
		{
			name:  "parentheses kept on token",
			input: "(Annexe) 2 Dorset House",
			want:  []string{"(ANNEXE)", "2", "DORSET", "HOUSE"},
		},
		{
			name:  "county stripped before splitting",
			input: "1 Mill Lane, Guildford, Surrey",
			want:  []string{"1", "MILL", "LANE", "GUILDFORD"},
		},
		{
			name:  "trailing full stop kept",
			input: "22 Acacia Ave.",
			want:  []string{"22", "ACACIA", "AVENUE."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tok.Tokenize(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Tokenize(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTokenizeEmpty(t *testing.T) {
	tok := newTestTokenizer(t)
	if got := tok.Tokenize("   "); len(got) != 0 {
		t.Errorf("Tokenize(blank) = %v, want empty", got)
	}
}

func TestTokenizeDeterministic(t *testing.T) {
	tok := newTestTokenizer(t)
	const input = "Flat 2, 10 Queen Street, Bury BL8 1JG"

	first := tok.Tokenize(input)
	for i := 0; i < 5; i++ {
		if got := tok.Tokenize(input); !reflect.DeepEqual(got, first) {
			t.Fatalf("Tokenize(%q) changed between calls: %v vs %v", input, got, first)
		}
	}
}

func BenchmarkTokenize(b *testing.B) {
	tok := newTestTokenizer(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		tok.Tokenize("Flat 2, 10 Queen Street, Bury, Greater Manchester BL8 1JG")
	}
}
