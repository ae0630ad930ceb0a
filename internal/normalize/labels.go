package normalize

import (
	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

// postLabels merges labeler-assigned labels from the view with the
// author-declared self labels of the record. Self label values outside the
// known set are ignored.
func postLabels(mod []lexicon.Label, self *lexicon.RecordLabels) domain.PostLabels {
	out := domain.PostLabels{Moderation: moderationLabels(mod)}
	if self == nil || self.SelfLabels == nil {
		return out
	}
	for _, v := range self.SelfLabels.Values {
		if l, ok := domain.ParseSelfLabel(v.Val); ok {
			out.Self = append(out.Self, l)
		}
	}
	return out
}

func moderationLabels(in []lexicon.Label) []domain.ModLabel {
	var out []domain.ModLabel
	for _, l := range in {
		if l.Neg {
			continue
		}
		out = append(out, domain.ModLabel{Labeler: l.Src, Name: l.Val, URI: l.URI})
	}
	return out
}
