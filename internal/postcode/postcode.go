// Package postcode validates and decomposes UK postcodes and answers the
// postcode-keyed reference lookups: post town, county, locality, streets
// and property mix.
//
// Validation follows the standard UK postcode grammar, GIR 0AA included.
// A small heuristic repairs the common user typo of writing the letter
// 'O' where the single incode digit belongs.
package postcode

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
)

// ErrInvalidFormat reports input that does not fit the UK postcode
// grammar even after the incode typo heuristic.
var ErrInvalidFormat = errors.New("invalid postcode")

// ErrNotFound reports a well-formed key with no reference-table entry.
var ErrNotFound = errors.New("postcode not found")

// Full-postcode grammar with an optional internal space. The final two
// letters exclude CIKMOV per Royal Mail guidance.
var rePostcode = regexp.MustCompile(`^\s*(GIR\s?0AA|` +
	`(?:[A-PR-UWYZ][0-9][0-9]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][0-9]?|` +
	`[A-PR-UWYZ][0-9][A-HJKPSTUW]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][ABEHMNPRVWXY]?)` +
	`\s?[0-9][ABD-HJLN-UW-Z]{2})\s*$`)

// Outward-code grammar. GIR is allowed for symmetry with the full form.
var reOutcode = regexp.MustCompile(`^\s*(?:GIR|` +
	`[A-PR-UWYZ][0-9][0-9]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][0-9]?|` +
	`[A-PR-UWYZ][0-9][A-HJKPSTUW]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][ABEHMNPRVWXY]?)\s*$`)

// Unanchored form of the full grammar, used to find a postcode embedded
// anywhere in an address string.
var reSearch = regexp.MustCompile(`(GIR\s?0AA|` +
	`(?:[A-PR-UWYZ][0-9][0-9]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][0-9]?|` +
	`[A-PR-UWYZ][0-9][A-HJKPSTUW]?|` +
	`[A-PR-UWYZ][A-HK-Y][0-9][ABEHMNPRVWXY]?)` +
	`\s?[0-9][ABD-HJLN-UW-Z]{2})`)

// fixIncodeTypo compacts the input and repairs the common 'O' for '0'
// slip in the incode digit, e.g. "GL51OPU" becomes "GL510PU". It only
// applies when a 3-character incode can exist.
func fixIncodeTypo(pc string) string {
	raw := refdata.CompactKey(pc)
	if len(raw) >= 5 && raw[len(raw)-3] == 'O' {
		return raw[:len(raw)-3] + "0" + raw[len(raw)-2:]
	}
	return raw
}

// Normalize uppercases a postcode and inserts the single space before
// the 3-character incode. Input that fails the strict grammar gets one
// more attempt after the incode typo heuristic; anything still invalid
// reports ErrInvalidFormat.
func Normalize(pc string) (string, error) {
	m := rePostcode.FindStringSubmatch(strings.ToUpper(pc))
	if m == nil {
		m = rePostcode.FindStringSubmatch(fixIncodeTypo(pc))
		if m == nil {
			return "", fmt.Errorf("postcode %q: %w", pc, ErrInvalidFormat)
		}
	}
	compact := refdata.CompactKey(m[1])
	return compact[:len(compact)-3] + " " + compact[len(compact)-3:], nil
}

// ExtractOutcode returns the outward code from either a full postcode or
// a bare outcode string.
func ExtractOutcode(pcOrOutcode string) (string, error) {
	if norm, err := Normalize(pcOrOutcode); err == nil {
		outcode, _, _ := strings.Cut(norm, " ")
		return outcode, nil
	}
	if reOutcode.MatchString(strings.ToUpper(pcOrOutcode)) {
		return refdata.CompactKey(pcOrOutcode), nil
	}
	return "", fmt.Errorf("postcode or outcode %q: %w", pcOrOutcode, ErrInvalidFormat)
}

// Find searches free text for the first postcode-shaped substring and
// returns it in canonical spaced form. The boolean reports whether one
// was found.
func Find(text string) (string, bool) {
	m := reSearch.FindString(strings.ToUpper(text))
	if m == "" {
		return "", false
	}
	pc := refdata.CompactKey(m)
	if len(pc) > 3 {
		return pc[:len(pc)-3] + " " + pc[len(pc)-3:], true
	}
	return pc, true
}

// Directory answers reference lookups keyed by postcode or outcode. It
// reads but never mutates the supplied tables, so one Directory is safe
// for concurrent use.
type Directory struct {
	tables *refdata.Tables
}

// NewDirectory wraps loaded reference tables in a lookup directory.
func NewDirectory(tables *refdata.Tables) *Directory {
	return &Directory{tables: tables}
}

// PostTown returns the post town for a full postcode or bare outcode.
func (d *Directory) PostTown(pcOrOutcode string) (string, error) {
	outcode, err := ExtractOutcode(pcOrOutcode)
	if err != nil {
		return "", err
	}
	town, ok := d.tables.OutcodeTowns[outcode]
	if !ok {
		return "", fmt.Errorf("no post town for outcode %s: %w", outcode, ErrNotFound)
	}
	return town, nil
}

// County returns a best-effort county for a full postcode or bare
// outcode. The mapping is not authoritative, so an unknown outcode
// yields an empty string rather than an error.
func (d *Directory) County(pcOrOutcode string) (string, error) {
	outcode, err := ExtractOutcode(pcOrOutcode)
	if err != nil {
		return "", err
	}
	return d.tables.OutcodeCounties[outcode], nil
}

// Locality returns the locality recorded for a full postcode.
func (d *Directory) Locality(pc string) (string, error) {
	norm, err := Normalize(pc)
	if err != nil {
		return "", err
	}
	loc, ok := d.tables.PostcodeLocalities[refdata.CompactKey(norm)]
	if !ok {
		return "", fmt.Errorf("no locality for postcode %s: %w", norm, ErrNotFound)
	}
	return loc, nil
}

// Streets returns the street names recorded for a full postcode,
// uppercased, deduplicated case-insensitively and sorted.
func (d *Directory) Streets(pc string) ([]string, error) {
	norm, err := Normalize(pc)
	if err != nil {
		return nil, err
	}
	rows := d.tables.PostcodeStreets[refdata.CompactKey(norm)]
	if len(rows) == 0 {
		return nil, fmt.Errorf("no streets for postcode %s: %w", norm, ErrNotFound)
	}
	seen := make(map[string]struct{}, len(rows))
	streets := make([]string, 0, len(rows))
	for _, row := range rows {
		street := strings.ToUpper(strings.TrimSpace(row))
		if street == "" {
			continue
		}
		if _, dup := seen[street]; dup {
			continue
		}
		seen[street] = struct{}{}
		streets = append(streets, street)
	}
	if len(streets) == 0 {
		return nil, fmt.Errorf("no streets for postcode %s: %w", norm, ErrNotFound)
	}
	sort.Strings(streets)
	return streets, nil
}

// PropertyMix returns the numeric property-category counts recorded for
// a full postcode. Categories whose value is missing or non-numeric are
// omitted; a row left with no usable category reports ErrNotFound.
func (d *Directory) PropertyMix(pc string) (map[string]float64, error) {
	norm, err := Normalize(pc)
	if err != nil {
		return nil, err
	}
	row, ok := d.tables.PropertyMix[refdata.CompactKey(norm)]
	if !ok {
		return nil, fmt.Errorf("no property mix for postcode %s: %w", norm, ErrNotFound)
	}
	mix := make(map[string]float64, len(row))
	for category, raw := range row {
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		mix[category] = v
	}
	if len(mix) == 0 {
		return nil, fmt.Errorf("no numeric property mix for postcode %s: %w", norm, ErrNotFound)
	}
	return mix, nil
}
