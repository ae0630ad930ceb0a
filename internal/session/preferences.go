package session

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

const (
	// homeFeedView is the feedViewPref key of the home timeline.
	homeFeedView = "home"

	savedFeedTimeline = "timeline"
	savedFeedFeed     = "feed"
	timelineValue     = "following"
	timelineName      = "Following"
)

// labelerSetter is implemented by clients that can ask the AppView to
// hydrate labels from the user's labelers.
type labelerSetter interface {
	SetAcceptLabelers(dids []string)
}

// LoadPreferences fetches and decodes the account preferences and resolves
// the saved feeds. Saved feeds resolve concurrently and keep their saved
// order; feeds that fail to resolve are dropped.
func (s *Session) LoadPreferences(ctx context.Context) (domain.Preferences, error) {
	items, err := s.client.GetPreferences(ctx)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}

	prefs, saved, views := decodePreferences(items)
	feeds, err := s.resolveSavedFeeds(ctx, saved)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	prefs.Feeds = domain.MergeSavedFeeds(feeds, views)

	s.mu.Lock()
	s.prefs = prefs
	s.rawPrefs = items
	s.mu.Unlock()

	if ls, ok := s.client.(labelerSetter); ok {
		ls.SetAcceptLabelers(prefs.Labelers)
	}
	s.logger.Info("loaded preferences", "feeds", len(prefs.Feeds), "labelers", len(prefs.Labelers), "adult_content", prefs.Content.AdultContent)
	return prefs, nil
}

// PutPreferences writes back the preferences the pipeline owns: adult
// content, content label visibilities, feed view preferences, hidden posts
// and labelers. Every other stored preference is written back as loaded.
func (s *Session) PutPreferences(ctx context.Context, prefs domain.Preferences) error {
	s.mu.RLock()
	raw := s.rawPrefs
	s.mu.RUnlock()

	items := encodePreferences(raw, prefs)
	if err := s.client.PutPreferences(ctx, items); err != nil {
		return fmt.Errorf("put preferences: %w", err)
	}

	s.mu.Lock()
	s.prefs = prefs
	s.rawPrefs = items
	s.mu.Unlock()

	if ls, ok := s.client.(labelerSetter); ok {
		ls.SetAcceptLabelers(prefs.Labelers)
	}
	return nil
}

func decodePreferences(items []lexicon.PreferenceItem) (domain.Preferences, []lexicon.SavedFeed, []domain.SavedFeed) {
	var (
		prefs domain.Preferences
		saved []lexicon.SavedFeed
		views []domain.SavedFeed
	)
	for _, item := range items {
		switch {
		case item.AdultContent != nil:
			prefs.Content.AdultContent = item.AdultContent.Enabled
		case item.ContentLabel != nil:
			cl := item.ContentLabel
			prefs.Content.Labels = append(prefs.Content.Labels, domain.LabelPreference{
				Labeler:    deref(cl.Labeler),
				Label:      cl.Label,
				Visibility: domain.VisibilityFromPreference(cl.Visibility),
			})
		case item.SavedFeedsV2 != nil:
			saved = item.SavedFeedsV2.Items
		case item.PersonalDetails != nil:
			if bd := item.PersonalDetails.BirthDate; bd != nil {
				if t, err := lexicon.ParseDatetime(*bd); err == nil {
					prefs.BirthDate = &t
				}
			}
		case item.FeedView != nil:
			views = append(views, feedViewPref(item.FeedView))
		case item.ThreadView != nil:
			prefs.PrioritizeFollowed = derefBool(item.ThreadView.PrioritizeFollowedUsers)
			prefs.ReplySort = deref(item.ThreadView.Sort)
		case item.Interests != nil:
			prefs.InterestTags = item.Interests.Tags
		case item.MutedWords != nil:
			for _, w := range item.MutedWords.Items {
				mw := domain.MutedWord{Value: w.Value, Targets: w.Targets}
				if w.ExpiresAt != nil {
					if t, err := lexicon.ParseDatetime(*w.ExpiresAt); err == nil {
						mw.ExpiresAt = &t
					}
				}
				prefs.MutedWords = append(prefs.MutedWords, mw)
			}
		case item.HiddenPosts != nil:
			prefs.HiddenPosts = item.HiddenPosts.Items
		case item.Labelers != nil:
			for _, l := range item.Labelers.Labelers {
				prefs.Labelers = append(prefs.Labelers, l.DID)
			}
		case item.Verification != nil:
			prefs.HideVerificationBadges = item.Verification.HideBadges
		}
	}
	return prefs, saved, views
}

func feedViewPref(fv *lexicon.FeedViewPref) domain.SavedFeed {
	f := domain.SavedFeed{
		URI:                 fv.Feed,
		HideReplies:         derefBool(fv.HideReplies),
		HideReposts:         derefBool(fv.HideReposts),
		HideQuotes:          derefBool(fv.HideQuotePosts),
		FollowedOnlyReplies: derefBool(fv.HideRepliesByUnfollowed),
	}
	if fv.Feed == homeFeedView {
		f.URI = domain.TimelineFeedURI
	}
	if fv.HideRepliesByLikeCount != nil {
		f.HideRepliesByLikeCount = *fv.HideRepliesByLikeCount
	}
	return f
}

// resolveSavedFeeds names every saved feed. The timeline resolves locally,
// feed generators through getFeedGenerator. Lists, unknown kinds and
// failures are dropped. Only a cancelled ctx fails the whole load.
func (s *Session) resolveSavedFeeds(ctx context.Context, items []lexicon.SavedFeed) ([]domain.SavedFeed, error) {
	slots := make([]*domain.SavedFeed, len(items))

	g, gctx := errgroup.WithContext(ctx)
	for i, item := range items {
		switch {
		case item.Type == savedFeedTimeline && item.Value == timelineValue:
			slots[i] = &domain.SavedFeed{URI: domain.TimelineFeedURI, Pinned: item.Pinned, Name: timelineName}
		case item.Type == savedFeedFeed:
			g.Go(func() error {
				gen, err := s.client.GetFeedGenerator(gctx, item.Value)
				if err != nil {
					if gctx.Err() != nil {
						return gctx.Err()
					}
					s.logger.Debug("dropping saved feed", "feed", item.Value, "error", err)
					return nil
				}
				slots[i] = &domain.SavedFeed{URI: gen.URI, Pinned: item.Pinned, Name: gen.DisplayName}
				return nil
			})
		default:
			s.logger.Debug("skipping saved feed", "type", item.Type, "value", item.Value)
		}
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	feeds := make([]domain.SavedFeed, 0, len(items))
	for _, f := range slots {
		if f != nil {
			feeds = append(feeds, *f)
		}
	}
	return feeds, nil
}

type labelKey struct{ labeler, label string }

func encodePreferences(raw []lexicon.PreferenceItem, prefs domain.Preferences) []lexicon.PreferenceItem {
	labelPrefs := make(map[labelKey]domain.Visibility, len(prefs.Content.Labels))
	for _, l := range prefs.Content.Labels {
		labelPrefs[labelKey{l.Labeler, l.Label}] = l.Visibility
	}
	feedPrefs := make(map[string]bool, len(prefs.Feeds))
	for _, f := range prefs.Feeds {
		feedPrefs[f.URI] = true
	}

	out := make([]lexicon.PreferenceItem, 0, len(raw)+len(prefs.Feeds)+2)
	written := make(map[labelKey]bool)
	for _, item := range raw {
		switch {
		case item.AdultContent != nil, item.HiddenPosts != nil, item.Labelers != nil:
			continue
		case item.ContentLabel != nil:
			cl := item.ContentLabel
			key := labelKey{deref(cl.Labeler), cl.Label}
			v, ok := labelPrefs[key]
			if !ok {
				continue
			}
			written[key] = true
			// an unchanged value is kept verbatim so "ignore" survives
			if domain.VisibilityFromPreference(cl.Visibility) == v {
				out = append(out, item)
			} else {
				out = append(out, contentLabelItem(key, v))
			}
		case item.FeedView != nil:
			if feedPrefs[feedViewPref(item.FeedView).URI] {
				continue
			}
			out = append(out, item)
		default:
			out = append(out, item)
		}
	}

	out = append(out, lexicon.PreferenceItem{AdultContent: &lexicon.AdultContentPref{Enabled: prefs.Content.AdultContent}})
	for _, l := range prefs.Content.Labels {
		key := labelKey{l.Labeler, l.Label}
		if !written[key] {
			written[key] = true
			out = append(out, contentLabelItem(key, l.Visibility))
		}
	}
	for _, f := range prefs.Feeds {
		if fv := feedViewItem(f); fv != nil {
			out = append(out, lexicon.PreferenceItem{FeedView: fv})
		}
	}
	if len(prefs.HiddenPosts) > 0 {
		out = append(out, lexicon.PreferenceItem{HiddenPosts: &lexicon.HiddenPostsPref{Items: prefs.HiddenPosts}})
	}
	if len(prefs.Labelers) > 0 {
		lp := &lexicon.LabelersPref{}
		for _, did := range prefs.Labelers {
			lp.Labelers = append(lp.Labelers, lexicon.LabelerPrefItem{DID: did})
		}
		out = append(out, lexicon.PreferenceItem{Labelers: lp})
	}
	return out
}

func contentLabelItem(key labelKey, v domain.Visibility) lexicon.PreferenceItem {
	cl := &lexicon.ContentLabelPref{Label: key.label, Visibility: v.Preference()}
	if key.labeler != "" {
		labeler := key.labeler
		cl.Labeler = &labeler
	}
	return lexicon.PreferenceItem{ContentLabel: cl}
}

// feedViewItem returns nil for a feed with default view preferences.
func feedViewItem(f domain.SavedFeed) *lexicon.FeedViewPref {
	if !f.HideReplies && !f.HideReposts && !f.HideQuotes && !f.FollowedOnlyReplies && f.HideRepliesByLikeCount == 0 {
		return nil
	}
	key := f.URI
	if key == domain.TimelineFeedURI {
		key = homeFeedView
	}
	fv := &lexicon.FeedViewPref{
		Feed:                    key,
		HideReplies:             &f.HideReplies,
		HideReposts:             &f.HideReposts,
		HideQuotePosts:          &f.HideQuotes,
		HideRepliesByUnfollowed: &f.FollowedOnlyReplies,
	}
	if f.HideRepliesByLikeCount > 0 {
		fv.HideRepliesByLikeCount = &f.HideRepliesByLikeCount
	}
	return fv
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
