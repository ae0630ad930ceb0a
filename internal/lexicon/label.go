package lexicon

import (
	"fmt"
	"time"
)

const (
	TypeSelfLabels          = "com.atproto.label.defs#selfLabels"
	TypeLabelerView         = "app.bsky.labeler.defs#labelerView"
	TypeLabelerViewDetailed = "app.bsky.labeler.defs#labelerViewDetailed"
)

// Label is a com.atproto.label.defs#label issued by a labeling service.
type Label struct {
	Src string `json:"src"`
	URI string `json:"uri"`
	CID string `json:"cid,omitempty"`
	Val string `json:"val"`
	Neg bool   `json:"neg,omitempty"`
	Cts string `json:"cts"`
	Exp string `json:"exp,omitempty"`
}

// Expired reports whether the label carries an expiry at or before now.
// A label with an unparseable expiry is treated as unexpired.
func (l *Label) Expired(now time.Time) bool {
	if l.Exp == "" {
		return false
	}
	exp, err := ParseDatetime(l.Exp)
	if err != nil {
		return false
	}
	return !exp.After(now)
}

// CreatedAt returns the parsed creation timestamp, or the zero time.
func (l *Label) CreatedAt() time.Time {
	t, _ := ParseDatetime(l.Cts)
	return t
}

// SelfLabels are the author-declared labels on a record.
type SelfLabels struct {
	LexiconTypeID string      `json:"$type,omitempty"`
	Values        []SelfLabel `json:"values"`
}

type SelfLabel struct {
	Val string `json:"val"`
}

// RecordLabels is the labels union on records; only self labels are defined.
type RecordLabels struct {
	SelfLabels *SelfLabels
	Unknown    *Unknown
}

func (t *RecordLabels) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeSelfLabels:
		t.SelfLabels, err = decodeVariant[SelfLabels](b)
		return err
	default:
		t.Unknown = newUnknown(typ, b)
		return nil
	}
}

func (t RecordLabels) MarshalJSON() ([]byte, error) {
	switch {
	case t.SelfLabels != nil:
		return marshalVariant(TypeSelfLabels, t.SelfLabels)
	case t.Unknown != nil:
		return t.Unknown.Raw, nil
	}
	return nil, fmt.Errorf("cannot marshal empty enum")
}

// LabelValueDefinition is a labeler's declaration of a custom label value.
type LabelValueDefinition struct {
	Identifier     string                        `json:"identifier"`
	Severity       string                        `json:"severity"`
	Blurs          string                        `json:"blurs"`
	DefaultSetting string                        `json:"defaultSetting,omitempty"`
	AdultOnly      *bool                         `json:"adultOnly,omitempty"`
	Locales        []LabelValueDefinitionStrings `json:"locales"`
}

type LabelValueDefinitionStrings struct {
	Lang        string `json:"lang"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type LabelerPolicies struct {
	LabelValues           []string               `json:"labelValues"`
	LabelValueDefinitions []LabelValueDefinition `json:"labelValueDefinitions,omitempty"`
}

type LabelerViewerState struct {
	Like *string `json:"like,omitempty"`
}

type LabelerView struct {
	URI       string              `json:"uri"`
	CID       string              `json:"cid"`
	Creator   *ProfileView        `json:"creator"`
	LikeCount *int64              `json:"likeCount,omitempty"`
	Viewer    *LabelerViewerState `json:"viewer,omitempty"`
	IndexedAt string              `json:"indexedAt"`
	Labels    []Label             `json:"labels,omitempty"`
}

type LabelerViewDetailed struct {
	URI                string              `json:"uri"`
	CID                string              `json:"cid"`
	Creator            *ProfileView        `json:"creator"`
	Policies           *LabelerPolicies    `json:"policies"`
	LikeCount          *int64              `json:"likeCount,omitempty"`
	Viewer             *LabelerViewerState `json:"viewer,omitempty"`
	IndexedAt          string              `json:"indexedAt"`
	Labels             []Label             `json:"labels,omitempty"`
	ReasonTypes        []string            `json:"reasonTypes,omitempty"`
	SubjectTypes       []string            `json:"subjectTypes,omitempty"`
	SubjectCollections []string            `json:"subjectCollections,omitempty"`
}

// LabelerServiceView is one entry of app.bsky.labeler.getServices#output.views.
type LabelerServiceView struct {
	LabelerView         *LabelerView
	LabelerViewDetailed *LabelerViewDetailed
	Unknown             *Unknown
}

func (t *LabelerServiceView) UnmarshalJSON(b []byte) error {
	typ, err := TypeExtract(b)
	if err != nil {
		return err
	}

	switch typ {
	case TypeLabelerView:
		t.LabelerView, err = decodeVariant[LabelerView](b)
		return err
	case TypeLabelerViewDetailed:
		t.LabelerViewDetailed, err = decodeVariant[LabelerViewDetailed](b)
		return err
	default:
		t.Unknown = newUnknown(typ, b)
		return nil
	}
}

type QueryLabelsOutput struct {
	Cursor *string `json:"cursor,omitempty"`
	Labels []Label `json:"labels"`
}

type GetServicesOutput struct {
	Views []LabelerServiceView `json:"views"`
}
