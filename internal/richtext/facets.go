// Package richtext maps wire facets onto post text and detects facets in
// plain text such as profile bios.
package richtext

import (
	"sort"
	"unicode/utf8"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

// Resolve converts wire facets, addressed in UTF-8 bytes, into domain facets
// that also carry rune and UTF-16 offsets. Facets whose range falls outside
// text, is inverted, or splits a UTF-8 sequence are dropped, as are facets
// without a supported feature. The result is ordered by byte start.
func Resolve(text string, facets []lexicon.Facet) []domain.Facet {
	if len(facets) == 0 {
		return nil
	}

	idx := newOffsetIndex(text)
	out := make([]domain.Facet, 0, len(facets))
	for _, f := range facets {
		features := convertFeatures(f.Features)
		if len(features) == 0 {
			continue
		}
		df, ok := idx.facet(int(f.Index.ByteStart), int(f.Index.ByteEnd), features)
		if !ok {
			continue
		}
		out = append(out, df)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].ByteStart < out[j].ByteStart })
	if len(out) == 0 {
		return nil
	}
	return out
}

func convertFeatures(in []lexicon.FacetFeature) []domain.FacetFeature {
	var out []domain.FacetFeature
	for _, f := range in {
		switch {
		case f.Mention != nil:
			out = append(out, domain.FacetFeature{Kind: domain.FeatureMention, Value: f.Mention.DID})
		case f.Link != nil:
			out = append(out, domain.FacetFeature{Kind: domain.FeatureLink, Value: f.Link.URI})
		case f.Tag != nil:
			out = append(out, domain.FacetFeature{Kind: domain.FeatureTag, Value: f.Tag.Tag})
		}
	}
	return out
}

// offsetIndex maps byte offsets at rune boundaries to rune and UTF-16
// offsets. The entry at len(text) is the end of the text.
type offsetIndex struct {
	text  string
	runes map[int]int
	utf16 map[int]int
}

func newOffsetIndex(text string) offsetIndex {
	idx := offsetIndex{
		text:  text,
		runes: make(map[int]int, len(text)+1),
		utf16: make(map[int]int, len(text)+1),
	}

	var r, u int
	for i, c := range text {
		idx.runes[i] = r
		idx.utf16[i] = u
		r++
		if c >= 0x10000 {
			u += 2
		} else {
			u++
		}
	}
	idx.runes[len(text)] = r
	idx.utf16[len(text)] = u
	return idx
}

func (x offsetIndex) facet(start, end int, features []domain.FacetFeature) (domain.Facet, bool) {
	if start < 0 || end > len(x.text) || start >= end {
		return domain.Facet{}, false
	}
	rs, okStart := x.runes[start]
	re, okEnd := x.runes[end]
	if !okStart || !okEnd {
		return domain.Facet{}, false
	}
	// invalid bytes decode as U+FFFD and still get an index entry
	if !utf8.ValidString(x.text[start:end]) {
		return domain.Facet{}, false
	}

	return domain.Facet{
		ByteStart:  start,
		ByteEnd:    end,
		RuneStart:  rs,
		RuneEnd:    re,
		UTF16Start: x.utf16[start],
		UTF16End:   x.utf16[end],
		Features:   features,
	}, true
}
