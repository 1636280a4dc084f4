// Package refdata loads the static reference tables behind the address
// pipeline: county names, token synonyms, outcode and post-town lookups,
// postcode-level locality/street/property data and the locality to town
// frequency rows. Tables are parsed once and never mutated afterwards, so
// a loaded *Tables value is safe for concurrent readers.
package refdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/caffix/stringset"
)

// Synonym is a whole-word replacement pair applied during normalization.
type Synonym struct {
	From string
	To   string
}

// LocalityRow is one locality to town observation. Repeated rows raise the
// frequency of the pair when the locality index is built.
type LocalityRow struct {
	Locality string
	Town     string
}

// Tables holds every parsed reference table. Postcode-keyed maps use the
// compact key form produced by CompactKey.
type Tables struct {
	Counties           []string
	Synonyms           []Synonym
	Outcodes           *stringset.Set
	PostTowns          *stringset.Set
	OutcodeTowns       map[string]string
	OutcodeCounties    map[string]string
	PostcodeLocalities map[string]string
	PostcodeStreets    map[string][]string
	PropertyMix        map[string]map[string]string
	LocalityTowns      []LocalityRow
	LondonLocalities   []string
}

// Source supplies the raw CSV tables. A nil reader leaves the matching
// table empty, which lets tests inject only the tables they need.
type Source struct {
	Counties           io.Reader
	Synonyms           io.Reader
	OutcodeTowns       io.Reader
	OutcodeCounties    io.Reader
	PostcodeLocalities io.Reader
	PostcodeStreets    io.Reader
	PropertyMix        io.Reader
	LocalityTowns      io.Reader
	LondonLocalities   io.Reader
}

// CompactKey reduces a postcode to its lookup key: uppercase with all
// spaces removed.
func CompactKey(postcode string) string {
	return strings.ToUpper(strings.Join(strings.Fields(postcode), ""))
}

var (
	loadOnce   sync.Once
	loadTables *Tables
	loadErr    error
)

// Load parses the embedded lookup tables. The result is built once per
// process and shared; it must be treated as read-only.
func Load() (*Tables, error) {
	loadOnce.Do(func() {
		src, err := embeddedSource()
		if err != nil {
			loadErr = err
			return
		}
		loadTables, loadErr = Parse(src)
	})
	return loadTables, loadErr
}

func embeddedSource() (Source, error) {
	var src Source
	files := []struct {
		name string
		dst  *io.Reader
	}{
		{"counties.csv", &src.Counties},
		{"synonyms.csv", &src.Synonyms},
		{"postcode_district_to_town.csv", &src.OutcodeTowns},
		{"outcode_to_county.csv", &src.OutcodeCounties},
		{"postcode_to_locality.csv", &src.PostcodeLocalities},
		{"postcode_streets.csv", &src.PostcodeStreets},
		{"postcode_property_mix.csv", &src.PropertyMix},
		{"locality_to_town.csv", &src.LocalityTowns},
		{"london_localities.csv", &src.LondonLocalities},
	}
	for _, f := range files {
		data, err := LookupData(f.name)
		if err != nil {
			return Source{}, fmt.Errorf("failed to read embedded lookup %s: %w", f.name, err)
		}
		*f.dst = strings.NewReader(string(data))
	}
	return src, nil
}

// Parse builds a Tables value from the supplied CSV readers.
func Parse(src Source) (*Tables, error) {
	t := &Tables{
		Outcodes:           stringset.New(),
		PostTowns:          stringset.New(),
		OutcodeTowns:       make(map[string]string),
		OutcodeCounties:    make(map[string]string),
		PostcodeLocalities: make(map[string]string),
		PostcodeStreets:    make(map[string][]string),
		PropertyMix:        make(map[string]map[string]string),
	}

	if src.Counties != nil {
		rows, err := readColumns(src.Counties, "county")
		if err != nil {
			return nil, fmt.Errorf("failed to parse counties: %w", err)
		}
		for _, row := range rows {
			t.Counties = append(t.Counties, strings.ToUpper(row[0]))
		}
	}

	if src.Synonyms != nil {
		rows, err := readColumns(src.Synonyms, "from", "to")
		if err != nil {
			return nil, fmt.Errorf("failed to parse synonyms: %w", err)
		}
		for _, row := range rows {
			t.Synonyms = append(t.Synonyms, Synonym{From: strings.ToUpper(row[0]), To: strings.ToUpper(row[1])})
		}
	}

	if src.OutcodeTowns != nil {
		rows, err := readColumns(src.OutcodeTowns, "postcode", "town")
		if err != nil {
			return nil, fmt.Errorf("failed to parse outcode towns: %w", err)
		}
		for _, row := range rows {
			outcode := strings.ToUpper(row[0])
			town := strings.ToUpper(row[1])
			t.Outcodes.Insert(outcode)
			t.PostTowns.Insert(town)
			t.OutcodeTowns[outcode] = town
		}
	}

	if src.OutcodeCounties != nil {
		rows, err := readColumns(src.OutcodeCounties, "outcode", "county")
		if err != nil {
			return nil, fmt.Errorf("failed to parse outcode counties: %w", err)
		}
		for _, row := range rows {
			t.OutcodeCounties[strings.ToUpper(row[0])] = strings.ToUpper(row[1])
		}
	}

	if src.PostcodeLocalities != nil {
		rows, err := readColumns(src.PostcodeLocalities, "postcode", "locality")
		if err != nil {
			return nil, fmt.Errorf("failed to parse postcode localities: %w", err)
		}
		for _, row := range rows {
			t.PostcodeLocalities[CompactKey(row[0])] = strings.ToUpper(row[1])
		}
	}

	if src.PostcodeStreets != nil {
		rows, err := readColumns(src.PostcodeStreets, "postcode", "street")
		if err != nil {
			return nil, fmt.Errorf("failed to parse postcode streets: %w", err)
		}
		for _, row := range rows {
			key := CompactKey(row[0])
			t.PostcodeStreets[key] = append(t.PostcodeStreets[key], row[1])
		}
	}

	if src.PropertyMix != nil {
		header, rows, err := readTable(src.PropertyMix)
		if err != nil {
			return nil, fmt.Errorf("failed to parse property mix: %w", err)
		}
		pcCol := columnIndex(header, "postcode")
		if pcCol < 0 {
			return nil, fmt.Errorf("property mix table is missing a postcode column")
		}
		for _, row := range rows {
			key := CompactKey(row[pcCol])
			if key == "" {
				continue
			}
			mix := make(map[string]string, len(header)-1)
			for i, col := range header {
				if i == pcCol || i >= len(row) {
					continue
				}
				mix[col] = strings.TrimSpace(row[i])
			}
			t.PropertyMix[key] = mix
		}
	}

	if src.LocalityTowns != nil {
		rows, err := readColumns(src.LocalityTowns, "locality_key", "town_city")
		if err != nil {
			return nil, fmt.Errorf("failed to parse locality towns: %w", err)
		}
		for _, row := range rows {
			t.LocalityTowns = append(t.LocalityTowns, LocalityRow{
				Locality: strings.ToUpper(row[0]),
				Town:     strings.ToUpper(row[1]),
			})
		}
	}

	if src.LondonLocalities != nil {
		rows, err := readColumns(src.LondonLocalities, "locality")
		if err != nil {
			return nil, fmt.Errorf("failed to parse london localities: %w", err)
		}
		for _, row := range rows {
			t.LondonLocalities = append(t.LondonLocalities, strings.ToUpper(row[0]))
		}
	}

	return t, nil
}

// readTable reads a CSV with a header row, returning lowercased column
// names and the data rows. Fully blank rows are dropped.
func readTable(r io.Reader) ([]string, [][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("empty table")
	}

	header := records[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\uFEFF")
	}
	for i := range header {
		header[i] = strings.ToLower(strings.TrimSpace(header[i]))
	}

	var rows [][]string
	for _, rec := range records[1:] {
		blank := true
		for i := range rec {
			rec[i] = strings.TrimSpace(rec[i])
			if rec[i] != "" {
				blank = false
			}
		}
		if !blank {
			rows = append(rows, rec)
		}
	}
	return header, rows, nil
}

// readColumns reads a CSV and projects the named columns, skipping rows
// where any requested value is empty.
func readColumns(r io.Reader, names ...string) ([][]string, error) {
	header, rows, err := readTable(r)
	if err != nil {
		return nil, err
	}

	idx := make([]int, len(names))
	for i, name := range names {
		idx[i] = columnIndex(header, name)
		if idx[i] < 0 {
			return nil, fmt.Errorf("missing column %q", name)
		}
	}

	var out [][]string
	for _, row := range rows {
		projected := make([]string, len(idx))
		ok := true
		for i, col := range idx {
			if col >= len(row) || row[col] == "" {
				ok = false
				break
			}
			projected[i] = row[col]
		}
		if ok {
			out = append(out, projected)
		}
	}
	return out, nil
}

func columnIndex(header []string, name string) int {
	for i, col := range header {
		if col == name {
			return i
		}
	}
	return -1
}
