package domain

// Visibility is how a moderated post should be presented.
type Visibility string

const (
	VisibilityShow Visibility = "show"
	VisibilityBlur Visibility = "blur"
	VisibilityHide Visibility = "hide"
)

// VisibilityFromPreference maps a contentLabelPref visibility value.
func VisibilityFromPreference(v string) Visibility {
	switch v {
	case "warn":
		return VisibilityBlur
	case "hide":
		return VisibilityHide
	default:
		// ignore, show and unknown values
		return VisibilityShow
	}
}

// Preference returns the contentLabelPref visibility value for v.
func (v Visibility) Preference() string {
	switch v {
	case VisibilityBlur:
		return "warn"
	case VisibilityHide:
		return "hide"
	}
	return "show"
}

// SelfLabel is an author-declared content warning.
type SelfLabel string

const (
	SelfLabelPorn         SelfLabel = "porn"
	SelfLabelSexual       SelfLabel = "sexual"
	SelfLabelNudity       SelfLabel = "nudity"
	SelfLabelGraphicMedia SelfLabel = "graphic-media"
)

// ParseSelfLabel returns the self label for a label value. Values outside
// the closed set are rejected.
func ParseSelfLabel(val string) (SelfLabel, bool) {
	switch l := SelfLabel(val); l {
	case SelfLabelPorn, SelfLabelSexual, SelfLabelNudity, SelfLabelGraphicMedia:
		return l, true
	}
	return "", false
}

func (l SelfLabel) Description() string {
	switch l {
	case SelfLabelPorn:
		return "Explicit sexual content"
	case SelfLabelSexual:
		return "Sensual or sexual themes"
	case SelfLabelNudity:
		return "Non-sexual nudity"
	case SelfLabelGraphicMedia:
		return "Violent or graphic content"
	}
	return string(l)
}

// ModLabel is a label a labeling service applied to a post. Visibility is
// empty until the content policy resolves it.
type ModLabel struct {
	Labeler    string     `json:"labeler"`
	Name       string     `json:"name"`
	URI        string     `json:"uri"`
	Visibility Visibility `json:"visibility,omitempty"`
}

// PostLabels holds the two independent label sources of a post.
type PostLabels struct {
	Moderation []ModLabel  `json:"moderation,omitempty"`
	Self       []SelfLabel `json:"self,omitempty"`
}

// UserLabel is a labeler-issued badge on an actor.
type UserLabel struct {
	Name          string `json:"name"`
	Description   string `json:"description"`
	CreatorDID    string `json:"creatorDid"`
	CreatorHandle string `json:"creatorHandle"`
	Avatar        string `json:"avatar,omitempty"`
	Adult         bool   `json:"adult"`
	Blurs         string `json:"blurs"`
}
