// Package reconcile turns a tagged field record into a structured
// address. It repairs fields the tagger commonly gets wrong (postcode,
// London boroughs, numbers stuck in names) and then derives PAO and SAO
// numbering through a fixed cascade of pattern rules. Rule order is the
// tie-break when several rules match, and no rule overwrites a field an
// earlier rule has set.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/ukaddresskit/ukaddresskit/internal/postcode"
	"github.com/ukaddresskit/ukaddresskit/internal/refdata"
	"github.com/ukaddresskit/ukaddresskit/internal/tagger"
)

// StructuredAddress is a tagged field record plus the derived numbering,
// postcode split and county. Missing text fields are empty strings.
type StructuredAddress struct {
	OrganisationName string `json:"organisation_name,omitempty"`
	DepartmentName   string `json:"department_name,omitempty"`
	SubBuildingName  string `json:"sub_building_name,omitempty"`
	BuildingName     string `json:"building_name,omitempty"`
	BuildingNumber   string `json:"building_number,omitempty"`
	StreetName       string `json:"street_name,omitempty"`
	Locality         string `json:"locality,omitempty"`
	TownName         string `json:"town_name,omitempty"`
	Postcode         string `json:"postcode,omitempty"`
	County           string `json:"county,omitempty"`

	Outcode string `json:"outcode,omitempty"`
	Incode  string `json:"incode,omitempty"`

	PAOText        string `json:"pao_text,omitempty"`
	SAOText        string `json:"sao_text,omitempty"`
	PAOStartNumber Number `json:"pao_start_number,omitempty"`
	PAOStartSuffix string `json:"pao_start_suffix,omitempty"`
	PAOEndNumber   Number `json:"pao_end_number,omitempty"`
	PAOEndSuffix   string `json:"pao_end_suffix,omitempty"`
	SAOStartNumber Number `json:"sao_start_number,omitempty"`
	SAOStartSuffix string `json:"sao_start_suffix,omitempty"`
	SAOEndNumber   Number `json:"sao_end_number,omitempty"`
	SAOEndSuffix   string `json:"sao_end_suffix,omitempty"`
}

var (
	reSlashPair      = regexp.MustCompile(`(\d+)/(\d+)`)
	reSuffixRange    = regexp.MustCompile(`(\d+)([A-Z])-(\d+)([A-Z])`)
	reEndSuffixRange = regexp.MustCompile(`(\d+)-(\d+)([A-Z])`)
	rePlainRange     = regexp.MustCompile(`(\d+)-(\d+)`)

	reDoubleSuffixRange       = regexp.MustCompile(`(\d+)([A-Z])-(\d+)([A-Z]).*?(\d+)([A-Z])-(\d+)([A-Z])`)
	reSuffixThenPlainRange    = regexp.MustCompile(`(\d+)([A-Z])-(\d+)([A-Z]).*?(\d+)-(\d+)`)
	reEndSuffixThenPlainRange = regexp.MustCompile(`(\d+)-(\d+)([A-Z]).*?(\d+)-(\d+)`)
	reSuffixRangeThenSingle   = regexp.MustCompile(`(\d+)([A-Z])-(\d+)([A-Z])\s.*?(\d+)([A-Z])`)

	reNumberSuffix = regexp.MustCompile(`(\d+)([A-Z])`)
	reSuffixNumber = regexp.MustCompile(`([A-Z])(\d+)`)
	reNumber       = regexp.MustCompile(`\d+`)
	reUnitWord     = regexp.MustCompile(`\b(FLAT|APARTMENT|UNIT)\b`)
)

// Reconciler applies the field-repair rules and the numbering cascade.
// It reads the reference tables for the London locality list only.
type Reconciler struct {
	tables *refdata.Tables
}

// New returns a Reconciler over the given reference tables.
func New(tables *refdata.Tables) *Reconciler {
	return &Reconciler{tables: tables}
}

// Reconcile builds a StructuredAddress from the tagged fields. The text
// argument is the address string the fields were tagged from; it is
// searched for a postcode independently of the tagger. Reconcile never
// fails: malformed input degrades to a partially filled record.
func (r *Reconciler) Reconcile(text string, fields map[string]string) StructuredAddress {
	a := StructuredAddress{
		OrganisationName: fields[tagger.OrganisationName],
		DepartmentName:   fields[tagger.DepartmentName],
		SubBuildingName:  fields[tagger.SubBuildingName],
		BuildingName:     fields[tagger.BuildingName],
		BuildingNumber:   fields[tagger.BuildingNumber],
		StreetName:       fields[tagger.StreetName],
		Locality:         fields[tagger.Locality],
		TownName:         fields[tagger.TownName],
		Postcode:         fields[tagger.Postcode],
	}

	r.reconcilePostcode(text, &a)
	r.fixLondonBorough(&a)
	liftLeadingNumber(&a)
	trimLocalityArtifact(&a)
	moveHouseToSubBuilding(&a)

	a.PAOText = a.BuildingName
	a.SAOText = a.SubBuildingName

	deriveNumbering(&a)
	splitPostcode(&a)
	return a
}

// reconcilePostcode trusts a postcode found in the text over the tagged
// one, then re-spaces whatever survives so exactly one space precedes
// the 3-character incode.
func (r *Reconciler) reconcilePostcode(text string, a *StructuredAddress) {
	if pc, ok := postcode.Find(text); ok {
		a.Postcode = pc
	}
	if a.Postcode == "" {
		return
	}
	compact := refdata.CompactKey(a.Postcode)
	if len(compact) > 3 {
		a.Postcode = compact[:len(compact)-3] + " " + compact[len(compact)-3:]
	} else {
		a.Postcode = compact
	}
}

// fixLondonBorough moves a borough name stuck on the end of the street
// into the locality field when the town mentions LONDON. The first
// matching borough in table order wins.
func (r *Reconciler) fixLondonBorough(a *StructuredAddress) {
	if a.StreetName == "" || a.TownName == "" {
		return
	}
	if !strings.Contains(strings.ToUpper(a.TownName), "LONDON") {
		return
	}
	street := strings.TrimSpace(a.StreetName)
	for _, borough := range r.tables.LondonLocalities {
		if !strings.HasSuffix(street, borough) {
			continue
		}
		a.Locality = borough
		a.StreetName = strings.TrimSpace(street[:len(street)-len(borough)])
		return
	}
}

// liftLeadingNumber promotes a bare number at the front of the building
// name into the empty building-number field. The name keeps the number.
func liftLeadingNumber(a *StructuredAddress) {
	if a.BuildingNumber != "" || a.BuildingName == "" {
		return
	}
	parts := strings.Fields(a.BuildingName)
	if len(parts) > 0 && allDigits(parts[0]) {
		a.BuildingNumber = parts[0]
	}
}

// trimLocalityArtifact strips a trailing " CO" or " IN" left behind when
// a connector word was tagged into the locality.
func trimLocalityArtifact(a *StructuredAddress) {
	if a.Locality == "" {
		return
	}
	loc := strings.TrimRight(a.Locality, " ")
	if strings.HasSuffix(loc, " CO") || strings.HasSuffix(loc, " IN") {
		a.Locality = loc[:len(loc)-3]
	}
}

// moveHouseToSubBuilding reassigns a bare HOUSE from the organisation to
// the sub-building field, where it far more often belongs.
func moveHouseToSubBuilding(a *StructuredAddress) {
	if a.OrganisationName == "HOUSE" && a.SubBuildingName == "" {
		a.SubBuildingName = "HOUSE"
		a.OrganisationName = ""
	}
}

// deriveNumbering runs the PAO/SAO extraction cascade. Later rules only
// fill fields the earlier rules left empty.
func deriveNumbering(a *StructuredAddress) {
	// 1) an explicit building number seeds the PAO start
	setNumber(&a.PAOStartNumber, a.BuildingNumber)

	// 2) "N/M" building names split into building and flat numbers
	if m := reSlashPair.FindStringSubmatch(a.BuildingName); m != nil {
		setNumber(&a.PAOStartNumber, m[1])
		setNumber(&a.SAOStartNumber, m[2])
	}

	// 3) SAO ranges carried by the organisation name, e.g. 12A-14C or 5-7C
	if m := reSuffixRange.FindStringSubmatch(a.OrganisationName); m != nil {
		setNumber(&a.SAOStartNumber, m[1])
		setString(&a.SAOStartSuffix, m[2])
		setNumber(&a.SAOEndNumber, m[3])
		setString(&a.SAOEndSuffix, m[4])
	}
	if m := reEndSuffixRange.FindStringSubmatch(a.OrganisationName); m != nil {
		setNumber(&a.SAOStartNumber, m[1])
		setNumber(&a.SAOEndNumber, m[2])
		setString(&a.SAOEndSuffix, m[3])
	}

	// 4) building names holding both an SAO and a PAO range
	if a.BuildingNumber == "" {
		if m := reDoubleSuffixRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.SAOStartNumber, m[1])
			setString(&a.SAOStartSuffix, m[2])
			setNumber(&a.SAOEndNumber, m[3])
			setString(&a.SAOEndSuffix, m[4])
			setNumber(&a.PAOStartNumber, m[5])
			setString(&a.PAOStartSuffix, m[6])
			setNumber(&a.PAOEndNumber, m[7])
			setString(&a.PAOEndSuffix, m[8])
		}
		if m := reSuffixThenPlainRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.SAOStartNumber, m[1])
			setString(&a.SAOStartSuffix, m[2])
			setNumber(&a.SAOEndNumber, m[3])
			setString(&a.SAOEndSuffix, m[4])
			setNumber(&a.PAOStartNumber, m[5])
			setNumber(&a.PAOEndNumber, m[6])
		}
		if m := reEndSuffixThenPlainRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.SAOStartNumber, m[1])
			setNumber(&a.SAOEndNumber, m[2])
			setString(&a.SAOEndSuffix, m[3])
			setNumber(&a.PAOStartNumber, m[4])
			setNumber(&a.PAOEndNumber, m[5])
		}
		if m := reSuffixRangeThenSingle.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.SAOStartNumber, m[1])
			setString(&a.SAOStartSuffix, m[2])
			setNumber(&a.SAOEndNumber, m[3])
			setString(&a.SAOEndSuffix, m[4])
			setNumber(&a.PAOStartNumber, m[5])
			setString(&a.PAOStartSuffix, m[6])
		}
	}

	// 5) PAO ranges in the building name
	if a.PAOStartNumber == "" {
		if m := reSuffixRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.PAOStartNumber, m[1])
			setString(&a.PAOStartSuffix, m[2])
			setNumber(&a.PAOEndNumber, m[3])
			setString(&a.PAOEndSuffix, m[4])
		}
	}
	if a.PAOStartNumber == "" {
		if m := reEndSuffixRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.PAOStartNumber, m[1])
			setNumber(&a.PAOEndNumber, m[2])
			setString(&a.PAOEndSuffix, m[3])
		}
	}
	if a.PAOStartNumber == "" {
		if m := rePlainRange.FindStringSubmatch(a.BuildingName); m != nil {
			setNumber(&a.PAOStartNumber, m[1])
			setNumber(&a.PAOEndNumber, m[2])
		}
	}
	if a.PAOStartNumber == "" {
		if num, suffix, ok := findLoneNumberSuffix(a.BuildingName); ok {
			setNumber(&a.PAOStartNumber, num)
			setString(&a.PAOStartSuffix, suffix)
		}
	}

	// 6) SAO ranges in the sub-building name
	if m := reSuffixRange.FindStringSubmatch(a.SubBuildingName); m != nil {
		setNumber(&a.SAOStartNumber, m[1])
		setString(&a.SAOStartSuffix, m[2])
		setNumber(&a.SAOEndNumber, m[3])
		setString(&a.SAOEndSuffix, m[4])
	}
	if m := reEndSuffixRange.FindStringSubmatch(a.SubBuildingName); m != nil {
		setNumber(&a.SAOStartNumber, m[1])
		setNumber(&a.SAOEndNumber, m[2])
		setString(&a.SAOEndSuffix, m[3])
	}

	// 7) letter-number forms like C2: suffix C, flat 2
	if m := reSuffixNumber.FindStringSubmatch(a.SubBuildingName); m != nil {
		setNumber(&a.SAOStartNumber, m[2])
		setString(&a.SAOStartSuffix, m[1])
	}

	// 8) a purely numeric sub-building name is the flat number
	if a.SubBuildingName != "" && allDigits(a.SubBuildingName) {
		setNumber(&a.SAOStartNumber, a.SubBuildingName)
	}

	// 9) last resort: a number in the street name
	if a.BuildingNumber == "" {
		if num := reNumber.FindString(a.StreetName); num != "" {
			a.BuildingNumber = num
			setNumber(&a.PAOStartNumber, num)
		}
	}

	// 10) flat/apartment/unit sub-building names: the remainder after the
	// keyword is the flat number
	if name := strings.ToUpper(a.SubBuildingName); reUnitWord.MatchString(name) {
		for _, word := range []string{"FLAT", "APARTMENT", "UNIT"} {
			name = strings.ReplaceAll(name, word, "")
		}
		setNumber(&a.SAOStartNumber, strings.TrimSpace(name))
	}
}

// findLoneNumberSuffix locates the first number-letter pair that is not
// part of a range: not preceded by a digit or hyphen, not followed by a
// hyphen. So 4A in "4A COTTAGE" matches but neither half of "12A-12C"
// does.
func findLoneNumberSuffix(s string) (num, suffix string, ok bool) {
	for _, idx := range reNumberSuffix.FindAllStringSubmatchIndex(s, -1) {
		start, end := idx[0], idx[1]
		if start > 0 {
			prev := s[start-1]
			if prev == '-' || ('0' <= prev && prev <= '9') {
				continue
			}
		}
		if end < len(s) && s[end] == '-' {
			continue
		}
		return s[idx[2]:idx[3]], s[idx[4]:idx[5]], true
	}
	return "", "", false
}

// splitPostcode fills the outcode/incode pair from the final postcode.
func splitPostcode(a *StructuredAddress) {
	compact := refdata.CompactKey(a.Postcode)
	if len(compact) > 3 {
		a.Outcode = compact[:len(compact)-3]
	}
	if len(compact) >= 3 {
		a.Incode = compact[len(compact)-3:]
	}
}

func setString(dst *string, v string) {
	if *dst == "" && v != "" {
		*dst = v
	}
}

func setNumber(dst *Number, v string) {
	if *dst == "" && v != "" {
		*dst = Number(v)
	}
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
