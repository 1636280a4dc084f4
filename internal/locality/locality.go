// Package locality resolves locality names to canonical towns using a
// frequency index built from the locality-to-town reference table.
package locality

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

// ErrNotFound reports a locality with no reference-table entry, or an
// empty key.
var ErrNotFound = errors.New("locality not found")

// AmbiguityError reports a locality that maps to more than one town
// under PolicyError. Towns is ordered by descending frequency, ties
// broken alphabetically.
type AmbiguityError struct {
	Locality string
	Towns    []string
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("ambiguous locality %q: %s", e.Locality, strings.Join(e.Towns, ", "))
}

// Policy selects how an ambiguous locality resolves.
type Policy string

const (
	// PolicyError fails with an AmbiguityError listing the candidates.
	PolicyError Policy = "error"
	// PolicyMostCommon returns the most frequent town, ties broken
	// alphabetically.
	PolicyMostCommon Policy = "most_common"
	// PolicyFirst returns the alphabetically first town regardless of
	// frequency.
	PolicyFirst Policy = "first"
	// PolicyAll returns every candidate in frequency order.
	PolicyAll Policy = "all"
)

var reNonAlnum = regexp.MustCompile(`[^A-Z0-9]+`)

// tokenSynonyms folds spelling variants after punctuation collapsing.
var tokenSynonyms = map[string]string{
	"SAINT": "ST",
	"ST.":   "ST",
	"&":     "AND",
}

// Canonicalize normalizes a locality key: uppercase, non-alphanumeric
// runs become single spaces, and known token variants fold together.
// It is applied to reference rows and query keys alike, so the two
// always meet in the same shape.
func Canonicalize(s string) string {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.TrimSpace(reNonAlnum.ReplaceAllString(s, " "))
	if s == "" {
		return ""
	}
	tokens := strings.Split(s, " ")
	for i, t := range tokens {
		if to, ok := tokenSynonyms[t]; ok {
			tokens[i] = to
		}
	}
	return strings.Join(tokens, " ")
}

// Index maps canonicalized locality keys to candidate towns with use
// frequencies. It is immutable after construction and safe for
// concurrent readers.
type Index struct {
	unique map[string]string
	counts map[string]map[string]int
	order  map[string][]string
}

// NewIndex builds the locality index from reference rows. Candidate
// orderings are fixed at build time: descending frequency, ties broken
// ascending by town name.
func NewIndex(rows []refdata.LocalityRow) *Index {
	ix := &Index{
		unique: make(map[string]string),
		counts: make(map[string]map[string]int),
		order:  make(map[string][]string),
	}

	for _, row := range rows {
		key := Canonicalize(row.Locality)
		town := strings.Join(strings.Fields(row.Town), " ")
		if key == "" || town == "" {
			continue
		}
		counter := ix.counts[key]
		if counter == nil {
			counter = make(map[string]int)
			ix.counts[key] = counter
		}
		counter[town]++
	}

	for key, counter := range ix.counts {
		towns := make([]string, 0, len(counter))
		for town := range counter {
			towns = append(towns, town)
		}
		sort.Slice(towns, func(i, j int) bool {
			if counter[towns[i]] != counter[towns[j]] {
				return counter[towns[i]] > counter[towns[j]]
			}
			return towns[i] < towns[j]
		})
		ix.order[key] = towns
		if len(towns) == 1 {
			ix.unique[key] = towns[0]
		}
	}
	return ix
}

// TownsFor returns every town recorded for the locality, ordered by
// descending frequency then name. The ordering is total and stable
// across calls.
func (ix *Index) TownsFor(name string) ([]string, error) {
	key := Canonicalize(name)
	if key == "" {
		return nil, fmt.Errorf("empty locality name: %w", ErrNotFound)
	}
	ordered, ok := ix.order[key]
	if !ok {
		return nil, fmt.Errorf("locality %q: %w", name, ErrNotFound)
	}
	out := make([]string, len(ordered))
	copy(out, ordered)
	return out, nil
}

// Resolve returns the canonical town(s) for a locality under the given
// ambiguity policy. An unambiguous locality resolves to its single town
// under every policy.
func (ix *Index) Resolve(name string, policy Policy) ([]string, error) {
	key := Canonicalize(name)
	if key == "" {
		return nil, fmt.Errorf("empty locality name: %w", ErrNotFound)
	}

	if town, ok := ix.unique[key]; ok {
		return []string{town}, nil
	}

	counter, ok := ix.counts[key]
	if !ok {
		return nil, fmt.Errorf("locality %q: %w", name, ErrNotFound)
	}
	ordered := ix.order[key]

	switch policy {
	case PolicyError:
		towns := make([]string, len(ordered))
		copy(towns, ordered)
		return nil, &AmbiguityError{Locality: name, Towns: towns}
	case PolicyAll:
		towns := make([]string, len(ordered))
		copy(towns, ordered)
		return towns, nil
	case PolicyMostCommon:
		return []string{ordered[0]}, nil
	case PolicyFirst:
		first := ""
		for town := range counter {
			if first == "" || town < first {
				first = town
			}
		}
		return []string{first}, nil
	default:
		return nil, fmt.Errorf("invalid ambiguity policy %q", policy)
	}
}
