// Package normalize flattens hydrated AT Protocol views into domain posts.
package normalize

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/richtext"
)

// ItemLabels are the resolved user labels for the authors of a feed item and
// of its reply ancestors.
type ItemLabels struct {
	Author []domain.UserLabel
	Parent []domain.UserLabel
	Root   []domain.UserLabel
}

// Post normalizes a hydrated post view. It returns domain.ErrUndecodable when
// the view has no usable record, in which case the post should be dropped.
func Post(view *lexicon.PostView, authorLabels []domain.UserLabel) (*domain.Post, error) {
	if view == nil || view.Author == nil {
		return nil, fmt.Errorf("%w: post view without author", domain.ErrUndecodable)
	}

	rec, createdAt, err := decodePostRecord(view.Record)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUndecodable, view.URI, err)
	}

	post := &domain.Post{
		URI:        view.URI,
		CID:        view.CID,
		Author:     Author(view.Author, authorLabels),
		Text:       rec.Text,
		Facets:     richtext.Resolve(rec.Text, rec.Facets),
		CreatedAt:  createdAt,
		Labels:     postLabels(view.Labels, rec.Labels),
		Langs:      rec.Langs,
		Tags:       rec.Tags,
		Embed:      Embed(view.Embed),
		Counts:     counts(view.ReplyCount, view.RepostCount, view.QuoteCount, view.LikeCount),
		ThreadGate: threadGate(view.Threadgate, view.Viewer),
	}
	if rec.Reply != nil {
		post.Reply = &domain.ReplyRef{
			Root:   domain.Identity{URI: rec.Reply.Root.URI, CID: rec.Reply.Root.CID},
			Parent: domain.Identity{URI: rec.Reply.Parent.URI, CID: rec.Reply.Parent.CID},
		}
	}
	if v := view.Viewer; v != nil {
		post.Viewer = domain.Viewer{
			LikeURI:     deref(v.Like),
			RepostURI:   deref(v.Repost),
			Pinned:      v.Pinned,
			ThreadMuted: v.ThreadMuted,
			Bookmarked:  v.Bookmarked,
		}
	}
	return post, nil
}

// FeedItem normalizes one feed page item: the post, why it is in the feed,
// and its reply ancestors. When parent and root are the same post, only the
// parent is kept.
func FeedItem(item *lexicon.FeedViewPost, labels ItemLabels) (*domain.FeedPost, error) {
	if item == nil {
		return nil, fmt.Errorf("%w: empty feed item", domain.ErrUndecodable)
	}

	post, err := Post(item.Post, labels.Author)
	if err != nil {
		return nil, err
	}

	fp := &domain.FeedPost{Post: *post, Reason: reason(item.Reason)}
	if item.Reply != nil {
		fp.Parent = ancestor(item.Reply.Parent, labels.Parent)
		fp.Root = ancestor(item.Reply.Root, labels.Root)
		if fp.Parent.Same(fp.Root) {
			fp.Root = nil
		}
	}
	return fp, nil
}

// Author normalizes a post author. labels are the user labels resolved for
// the author; the actor's own moderation labels come from the view.
func Author(p *lexicon.ProfileViewBasic, labels []domain.UserLabel) domain.Author {
	if p == nil {
		return domain.Author{UserLabels: labels}
	}

	a := domain.Author{
		DID:         p.DID,
		Handle:      p.Handle,
		DisplayName: deref(p.DisplayName),
		Avatar:      deref(p.Avatar),
		Labels:      moderationLabels(p.Labels),
		UserLabels:  labels,
		Verified:    p.Verification != nil && p.Verification.VerifiedStatus == "valid",
	}
	if v := p.Viewer; v != nil {
		a.FollowedBy = v.FollowedBy != nil
		a.FollowingURI = deref(v.Following)
		a.BlockingURI = deref(v.Blocking)
		a.BlockedBy = derefBool(v.BlockedBy)
		a.Muted = derefBool(v.Muted)
	}
	return a
}

func decodePostRecord(raw json.RawMessage) (*lexicon.PostRecord, time.Time, error) {
	if len(raw) == 0 {
		return nil, time.Time{}, fmt.Errorf("missing record")
	}
	var rec lexicon.PostRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, time.Time{}, fmt.Errorf("decode post record: %w", err)
	}
	if rec.LexiconTypeID != "" && rec.LexiconTypeID != lexicon.TypeFeedPost {
		return nil, time.Time{}, fmt.Errorf("unexpected record type %q", rec.LexiconTypeID)
	}
	createdAt, err := lexicon.ParseDatetime(rec.CreatedAt)
	if err != nil {
		return nil, time.Time{}, err
	}
	return &rec, createdAt, nil
}

func reason(r *lexicon.FeedViewPostReason) domain.FeedReason {
	switch {
	case r == nil:
		return domain.FeedReason{}
	case r.ReasonRepost != nil:
		by := Author(r.ReasonRepost.By, nil)
		return domain.FeedReason{Kind: domain.ReasonReposted, By: by.Name()}
	case r.ReasonPin != nil:
		return domain.FeedReason{Kind: domain.ReasonPinned}
	}
	return domain.FeedReason{}
}

// ancestor triages a reply reference. A found ancestor whose record cannot be
// decoded keeps Found but carries no post.
func ancestor(ref *lexicon.ReplyRefPost, labels []domain.UserLabel) *domain.RootPost {
	switch {
	case ref == nil:
		return nil
	case ref.PostView != nil:
		rp := &domain.RootPost{URI: ref.PostView.URI, Found: true}
		if p, err := Post(ref.PostView, labels); err == nil {
			rp.Post = p
		}
		return rp
	case ref.NotFoundPost != nil:
		return &domain.RootPost{URI: ref.NotFoundPost.URI}
	case ref.BlockedPost != nil:
		return &domain.RootPost{URI: ref.BlockedPost.URI, Found: true, Blocked: true}
	}
	return nil
}

func counts(replies, reposts, quotes, likes *int64) domain.Counts {
	return domain.Counts{
		Replies: nonNegative(replies),
		Reposts: nonNegative(reposts),
		Quotes:  nonNegative(quotes),
		Likes:   nonNegative(likes),
	}
}

func nonNegative(n *int64) int64 {
	if n == nil || *n < 0 {
		return 0
	}
	return *n
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefBool(b *bool) bool {
	return b != nil && *b
}
