// Package policy applies the viewer's content preferences to normalized
// posts.
package policy

import "github.com/blackmichael/skygazer/internal/domain"

// adultLabels are the label names gated by the adult content toggle.
// Matched by name, not by the labeler's adultOnly flag.
var adultLabels = map[string]bool{
	"porn":          true,
	"sexual":        true,
	"nudity":        true,
	"graphic-media": true,
}

// Apply resolves the visibility of each moderation label on post from prefs
// and decides whether the post may be shown. With adult content off, adult
// labels and self labels drop the post. A label resolved to hide always
// drops it. The input post is not modified.
func Apply(post domain.Post, prefs domain.ContentPreferences) (domain.Post, bool) {
	mod := make([]domain.ModLabel, len(post.Labels.Moderation))
	for i, l := range post.Labels.Moderation {
		l.Visibility = prefs.VisibilityFor(l.Labeler, l.Name)
		mod[i] = l
	}
	if len(mod) == 0 {
		mod = post.Labels.Moderation
	}
	post.Labels.Moderation = mod

	if !prefs.AdultContent {
		for _, l := range mod {
			if adultLabels[l.Name] {
				return post, false
			}
		}
	}
	for _, l := range mod {
		if l.Visibility == domain.VisibilityHide {
			return post, false
		}
	}
	if !prefs.AdultContent && len(post.Labels.Self) > 0 {
		return post, false
	}
	return post, true
}

// ApplyFeedPost applies Apply to the post of a feed item.
func ApplyFeedPost(fp domain.FeedPost, prefs domain.ContentPreferences) (domain.FeedPost, bool) {
	post, ok := Apply(fp.Post, prefs)
	fp.Post = post
	return fp, ok
}

// ApplyFeedView applies the display preferences of a saved feed. viewerDID
// is the DID of the signed in account.
func ApplyFeedView(fp domain.FeedPost, feed domain.SavedFeed, viewerDID string) bool {
	if feed.HideReposts && fp.Reason.Kind == domain.ReasonReposted {
		return false
	}
	if feed.HideQuotes && fp.Quotes() {
		return false
	}
	if !fp.IsReply() || fp.Reason.Kind == domain.ReasonReposted {
		return true
	}

	if feed.HideReplies {
		return false
	}
	if feed.HideRepliesByLikeCount > 0 && fp.Counts.Likes < feed.HideRepliesByLikeCount {
		return false
	}
	if feed.FollowedOnlyReplies && !repliesToFollowed(fp, viewerDID) {
		return false
	}
	return true
}

func repliesToFollowed(fp domain.FeedPost, viewerDID string) bool {
	if fp.Parent == nil || fp.Parent.Post == nil {
		return false
	}
	parent := fp.Parent.Post.Author
	return parent.DID == viewerDID || parent.FollowingURI != ""
}
