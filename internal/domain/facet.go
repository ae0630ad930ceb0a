package domain

type FeatureKind string

const (
	FeatureMention FeatureKind = "mention"
	FeatureLink    FeatureKind = "link"
	FeatureTag     FeatureKind = "tag"
)

// FacetFeature is one annotation of a facet. Value is a DID for mentions, a
// URI for links and the tag text for tags.
type FacetFeature struct {
	Kind  FeatureKind `json:"kind"`
	Value string      `json:"value"`
}

// Facet is a rich-text annotation on a span of text. The span is given in
// UTF-8 bytes as on the wire, and also in runes and UTF-16 code units so
// hosts with other string indexing can address the same span. All ends are
// exclusive.
type Facet struct {
	ByteStart  int            `json:"byteStart"`
	ByteEnd    int            `json:"byteEnd"`
	RuneStart  int            `json:"runeStart"`
	RuneEnd    int            `json:"runeEnd"`
	UTF16Start int            `json:"utf16Start"`
	UTF16End   int            `json:"utf16End"`
	Features   []FacetFeature `json:"features"`
}

// Slice returns the text the facet covers.
func (f Facet) Slice(text string) string {
	if f.ByteStart < 0 || f.ByteEnd > len(text) || f.ByteStart > f.ByteEnd {
		return ""
	}
	return text[f.ByteStart:f.ByteEnd]
}
