package crf

import "github.com/ukaddresskit/ukaddresskit/internal/token"

// Attributes flattens one feature vector into the weighted-attribute form
// linear-chain models are trained on. Category features become
// "name:value" attributes with weight 1, set-membership flags become bare
// attributes, counters keep their value, and neighbour sub-vectors are
// prefixed "previous:" / "next:". Boundary markers surface as
// "rawstring.start", "rawstring.end" and "singleton".
func Attributes(v token.Vector) map[string]float64 {
	attrs := make(map[string]float64, 32)
	flatten(attrs, "", v.Features)
	if v.Previous != nil {
		flatten(attrs, "previous:", v.Previous.Features)
		if v.Previous.Start {
			attrs["previous:rawstring.start"] = 1
		}
		if v.Previous.End {
			attrs["previous:rawstring.end"] = 1
		}
	}
	if v.Next != nil {
		flatten(attrs, "next:", v.Next.Features)
		if v.Next.Start {
			attrs["next:rawstring.start"] = 1
		}
		if v.Next.End {
			attrs["next:rawstring.end"] = 1
		}
	}
	if v.Start {
		attrs["rawstring.start"] = 1
	}
	if v.End {
		attrs["rawstring.end"] = 1
	}
	if v.Singleton {
		attrs["singleton"] = 1
	}
	return attrs
}

// AttributeSequence flattens a whole vector sequence.
func AttributeSequence(vectors []token.Vector) []map[string]float64 {
	features := make([]map[string]float64, len(vectors))
	for i, v := range vectors {
		features[i] = Attributes(v)
	}
	return features
}

func flatten(attrs map[string]float64, prefix string, f token.Features) {
	attrs[prefix+"digits:"+f.Digits] = 1
	attrs[prefix+"length:"+f.Length] = 1
	if f.Word != "" {
		attrs[prefix+"word:"+f.Word] = 1
	}
	if f.EndsInPunc != "" {
		attrs[prefix+"endsinpunc:"+f.EndsInPunc] = 1
	}
	if f.Directional {
		attrs[prefix+"directional"] = 1
	}
	if f.Outcode {
		attrs[prefix+"outcode"] = 1
	}
	if f.PostTown {
		attrs[prefix+"posttown"] = 1
	}
	if f.HasVowels {
		attrs[prefix+"has.vowels"] = 1
	}
	if f.Flat {
		attrs[prefix+"flat"] = 1
	}
	if f.Company {
		attrs[prefix+"company"] = 1
	}
	if f.Road {
		attrs[prefix+"road"] = 1
	}
	if f.Residential {
		attrs[prefix+"residential"] = 1
	}
	if f.Business {
		attrs[prefix+"business"] = 1
	}
	if f.Locational {
		attrs[prefix+"locational"] = 1
	}
	if f.Ordinal {
		attrs[prefix+"ordinal"] = 1
	}
	if f.Hyphenations > 0 {
		attrs[prefix+"hyphenations"] = float64(f.Hyphenations)
	}
}
