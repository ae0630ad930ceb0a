package normalize

import (
	"encoding/json"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

func threadGate(view *lexicon.ThreadgateView, viewer *lexicon.PostViewerState) domain.ThreadGate {
	gate := domain.ThreadGate{AllowQuotes: true, AllowReplies: true}
	if viewer != nil {
		gate.AllowQuotes = !derefBool(viewer.EmbeddingDisabled)
		canReply := !derefBool(viewer.ReplyDisabled)
		gate.ViewerCanReply = &canReply
	}
	if view == nil || len(view.Record) == 0 {
		return gate
	}

	var rec lexicon.ThreadgateRecord
	if err := json.Unmarshal(view.Record, &rec); err != nil {
		return gate
	}
	switch {
	case rec.Allow == nil:
	case len(rec.Allow) == 0:
		gate.AllowReplies = false
	default:
		for _, r := range rec.Allow {
			switch {
			case r.MentionRule != nil:
				gate.Rules = append(gate.Rules, domain.AllowRule{Kind: domain.AllowMentioned})
			case r.FollowerRule != nil:
				gate.Rules = append(gate.Rules, domain.AllowRule{Kind: domain.AllowFollowers})
			case r.FollowingRule != nil:
				gate.Rules = append(gate.Rules, domain.AllowRule{Kind: domain.AllowFollowing})
			case r.ListRule != nil:
				gate.Rules = append(gate.Rules, domain.AllowRule{Kind: domain.AllowList, ListURI: r.ListRule.List})
			}
		}
	}
	return gate
}
