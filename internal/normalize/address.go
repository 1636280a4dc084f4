// Package normalize cleans raw UK address text ahead of tokenization:
// punctuation folding, numeric range canonicalization, whole-word synonym
// substitution and county stripping with a context guard.
package normalize

import (
	"regexp"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/debug"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

// Range patterns. "12 - 14", "12 TO 14" and "12/14" all collapse to
// "12-14" so the tokenizer sees one range token instead of two numbers.
// Optional letter suffixes ride along ("12A - 14B" -> "12A-14B").
var (
	reRange      = regexp.MustCompile(`(\d+[A-Z]?) *- *(\d+[A-Z]?)`)
	reRangeSlash = regexp.MustCompile(`(\d+)/(\d+)`)
	reRangeTo    = regexp.MustCompile(`(\d+) *TO *(\d+)`)

	reMultiSpace = regexp.MustCompile(`\s{2,}`)
)

// Words that mark a county as part of a place name when they precede it,
// e.g. "STRATFORD UPON AVON".
var countyKeepBefore = map[string]bool{
	"ON":    true,
	"DINAS": true,
	"UPON":  true,
}

type synonymPattern struct {
	re *regexp.Regexp
	to string
}

type countyPattern struct {
	name string
	re   *regexp.Regexp
}

// Normalizer applies the cleanup cascade using a fixed set of reference
// tables. Build one with New and share it; it is read-only after
// construction.
type Normalizer struct {
	synonyms    []synonymPattern
	counties    []countyPattern
	suffixGuard *regexp.Regexp
}

// New compiles the synonym and county patterns from the supplied tables.
func New(tables *refdata.Tables) *Normalizer {
	n := &Normalizer{}

	for _, syn := range tables.Synonyms {
		n.synonyms = append(n.synonyms, synonymPattern{
			re: regexp.MustCompile(`\b` + regexp.QuoteMeta(syn.From) + `\b`),
			to: syn.To,
		})
	}

	for _, county := range tables.Counties {
		n.counties = append(n.counties, countyPattern{
			name: county,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(county) + `\b`),
		})
	}

	guards := make([]string, len(refdata.NonCountySuffixes))
	for i, w := range refdata.NonCountySuffixes {
		guards[i] = regexp.QuoteMeta(w)
	}
	n.suffixGuard = regexp.MustCompile(`^\s(?:` + strings.Join(guards, "|") + `)\b`)

	return n
}

// Normalize cleans a raw address and returns the cleaned text plus the
// first county name that was stripped, or "" when none was. The cleaned
// output is stable: normalizing it again changes nothing.
func (n *Normalizer) Normalize(raw string) (cleaned, county string) {
	return n.NormalizeDebug(false, raw)
}

// NormalizeDebug is Normalize with step-by-step debug output.
func (n *Normalizer) NormalizeDebug(localDebug bool, raw string) (cleaned, county string) {
	debug.Header(localDebug)
	defer debug.Footer(localDebug)

	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", ""
	}
	debug.Output(localDebug, "input: %s", s)

	// Structural punctuation becomes spaces.
	s = strings.ReplaceAll(s, ", ", " ")
	s = strings.ReplaceAll(s, ",", " ")
	s = strings.ReplaceAll(s, "\\", " ")

	// Canonical ranges.
	s = reRange.ReplaceAllString(s, "$1-$2")
	s = reRangeSlash.ReplaceAllString(s, "$1-$2")
	s = reRangeTo.ReplaceAllString(s, "$1-$2")
	debug.Output(localDebug, "after ranges: %s", s)

	// Whole-word synonym substitution.
	for _, syn := range n.synonyms {
		s = syn.re.ReplaceAllString(s, syn.to)
	}
	debug.Output(localDebug, "after synonyms: %s", s)

	s, county = n.stripCounties(s)
	debug.Output(localDebug, "after counties: %s (county=%s)", s, county)

	s = strings.TrimSpace(reMultiSpace.ReplaceAllString(s, " "))
	return s, county
}

// StripCounties removes county names from already-uppercased text, with
// the same guards Normalize applies. The tokenizer uses it directly.
func (n *Normalizer) StripCounties(s string) string {
	out, _ := n.stripCounties(s)
	return out
}

// stripCounties removes each county that passes the context guards and
// reports the first one removed. Counties are tried in reference-table
// order.
func (n *Normalizer) stripCounties(s string) (string, string) {
	var recorded string
	for _, county := range n.counties {
		matches := county.re.FindAllStringIndex(s, -1)
		if matches == nil {
			continue
		}

		var b strings.Builder
		b.Grow(len(s))
		prev := 0
		removed := false
		for _, m := range matches {
			if !n.removable(s, m[0], m[1]) {
				continue
			}
			b.WriteString(s[prev:m[0]])
			prev = m[1]
			removed = true
		}
		if !removed {
			continue
		}
		b.WriteString(s[prev:])
		s = b.String()

		if recorded == "" {
			recorded = county.name
		}
	}
	return s, recorded
}

// removable reports whether the county occupying s[start:end] may be
// stripped. It stays when the preceding word is ON, DINAS, UPON or a
// number ("STRATFORD UPON AVON", "3 DEVON"), and when the next word is a
// road, flat, company or residential suffix ("ESSEX ROAD").
func (n *Normalizer) removable(s string, start, end int) bool {
	if start > 0 && s[start-1] == ' ' {
		before := precedingWord(s, start-1)
		if countyKeepBefore[before] {
			return false
		}
		if before != "" && before[len(before)-1] >= '0' && before[len(before)-1] <= '9' {
			return false
		}
	}
	return !n.suffixGuard.MatchString(s[end:])
}

// precedingWord returns the word that ends just before s[space], where
// s[space] is the space separating it from the county.
func precedingWord(s string, space int) string {
	i := space
	for i > 0 && s[i-1] != ' ' {
		i--
	}
	return s[i:space]
}
