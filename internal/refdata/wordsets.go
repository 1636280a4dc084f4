package refdata

import (
	"sort"

	"github.com/caffix/stringset"
)

// Closed word sets used by the token feature extractor and the county
// removal guard. All entries are uppercase; callers must uppercase tokens
// before membership tests. The sets are built once at package init and
// must be treated as read-only.

// Directions covers compass tokens and their abbreviations.
var Directions = stringset.New(
	"N", "S", "E", "W", "NE", "NW", "SE", "SW",
	"NORTH", "SOUTH", "EAST", "WEST",
	"NORTHEAST", "NORTHWEST", "SOUTHEAST", "SOUTHWEST",
)

// Flat covers sub-building unit descriptors.
var Flat = stringset.New(
	"FLAT", "FLT", "APARTMENT", "APPTS", "APPT", "APTS", "APT",
	"ROOM", "ANNEX", "ANNEXE", "UNIT", "BLOCK", "BLK",
)

// Company covers legal-entity suffixes, including the Welsh forms.
var Company = stringset.New(
	"CIC", "CIO", "LLP", "LP", "LTD", "LIMITED", "CYF", "PLC",
	"CCC", "UNLTD", "ULTD",
)

// Road covers street-type words and their common misspellings.
var Road = stringset.New(
	"ROAD", "RAOD", "RD", "DRIVE", "DR", "STREET", "STRT",
	"AVENUE", "AVENEU", "SQUARE", "LANE", "LNE", "LN",
	"COURT", "CRT", "CT", "PARK", "PK", "GRDN", "GARDEN",
	"CRESCENT", "CLOSE", "CL", "WALK", "WAY", "TERRACE", "BVLD",
	"HEOL", "FFORDD", "PLACE", "GARDENS", "GROVE", "VIEW", "HILL",
	"GREEN",
)

// Residential covers building-type words that name dwellings.
var Residential = stringset.New(
	"HOUSE", "HSE", "FARM", "LODGE", "COTTAGE", "COTTAGES",
	"VILLA", "VILLAS", "MAISONETTE", "MEWS",
)

// Business covers institutional words and acronyms.
var Business = stringset.New(
	"OFFICE", "HOSPITAL", "CARE", "CLUB", "BANK", "BAR", "UK",
	"SOCIETY", "PRISON", "HMP", "RC", "UWE", "UEA", "LSE", "KCL",
	"UCL", "UNI", "UNIV", "UNIVERSITY", "UNIVERISTY",
)

// Locational covers position-within-building words.
var Locational = stringset.New(
	"BASEMENT", "GROUND", "UPPER", "ABOVE", "TOP", "LOWER",
	"FLOOR", "HIGHER", "ATTIC", "LEFT", "RIGHT", "FRONT", "BACK",
	"REAR", "WHOLE", "PART", "SIDE",
)

// Ordinal covers ordinal tokens, including the Welsh forms.
var Ordinal = stringset.New(
	"0TH", "ZEROTH", "0ED", "SERO", "SEROFED", "DIM", "DIMFED",
	"1ST", "FIRST", "1AF", "CYNTA", "CYNTAF", "GYNTAF",
	"2ND", "SECOND", "2AIL", "AIL", "AILFED",
	"3RD", "THIRD", "3YDD", "TRYDYDD", "TRYDEDD",
	"4TH", "FOURTH", "4YDD", "PEDWERYDD", "PEDWAREDD",
	"5TH", "FIFTH", "5ED", "PUMED",
	"6TH", "SIXTH", "6ED", "CHWECHED",
	"7TH", "SEVENTH", "7FED", "SEITHFED",
	"8TH", "EIGHTH", "8FED", "WYTHFED",
	"9TH", "NINTH", "9FED", "NAWFED",
	"10TH", "TENTH", "10FED", "DEGFED",
	"11TH", "ELEVENTH", "11FED", "UNFED", "DDEG",
	"12TH", "TWELFTH", "12FED", "DEUDDEGFED",
)

// nonCountyOnly lists institutional words that block county stripping but
// belong to no other set.
var nonCountyOnly = stringset.New(
	"OFFICE", "HOSPITAL", "CARE", "CLUB", "BANK", "BAR", "SOCIETY",
	"PRISON", "HMP", "UNI", "UNIV", "UNIVERSITY", "UNIVERISTY",
)

// NonCountySuffixes is the sorted union of the word sets that protect a
// county name from being stripped when they follow it, e.g. the ROAD in
// "ESSEX ROAD".
var NonCountySuffixes = buildNonCountySuffixes()

func buildNonCountySuffixes() []string {
	set := stringset.New()
	for _, s := range []*stringset.Set{nonCountyOnly, Company, Flat, Residential, Road} {
		set.InsertMany(s.Slice()...)
	}
	out := set.Slice()
	sort.Strings(out)
	return out
}
