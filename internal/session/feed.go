package session

import (
	"context"
	"fmt"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/pager"
	"github.com/blackmichael/skygazer/internal/policy"
)

// GetFeed fetches one page of feedURI after cursor and runs it through the
// pipeline: labels are resolved per item, items are normalized, the content
// policy is applied and then the saved feed's view preferences. URIs of the
// returned page list every item the server sent, filtered or not.
func (s *Session) GetFeed(ctx context.Context, feedURI, cursor string) (pager.Page, error) {
	var (
		raw *lexicon.FeedPage
		err error
	)
	if feedURI == domain.TimelineFeedURI {
		raw, err = s.client.GetTimeline(ctx, cursor, s.pageSize)
	} else {
		raw, err = s.client.GetFeed(ctx, feedURI, cursor, s.pageSize)
	}
	if err != nil {
		return pager.Page{}, err
	}

	prefs := s.Preferences()
	posts, err := s.fanout.Aggregate(ctx, raw.Feed, prefs.Labelers)
	if err != nil {
		return pager.Page{}, err
	}

	page := pager.Page{URIs: make([]string, 0, len(raw.Feed))}
	if raw.Cursor != nil {
		page.Cursor = *raw.Cursor
	}
	for _, item := range raw.Feed {
		if item.Post != nil {
			page.URIs = append(page.URIs, item.Post.URI)
		}
	}

	feed, _ := prefs.SavedFeed(feedURI)
	viewer := s.client.DID()
	for _, fp := range posts {
		fp, ok := policy.ApplyFeedPost(fp, prefs.Content)
		if !ok || !policy.ApplyFeedView(fp, feed, viewer) {
			continue
		}
		page.Posts = append(page.Posts, fp)
	}

	s.logger.Debug("fetched feed page", "feed", feedURI, "items", len(raw.Feed), "kept", len(page.Posts), "next_cursor", page.Cursor)
	return page, nil
}

// OpenFeed makes feedURI the active feed of the session's pager.
func (s *Session) OpenFeed(ctx context.Context, feedURI string) (pager.View, error) {
	return s.pager.Open(ctx, feedURI)
}

func (s *Session) LoadMore(ctx context.Context) (pager.View, error) {
	return s.pager.LoadMore(ctx)
}

func (s *Session) Refresh(ctx context.Context) (pager.View, error) {
	return s.pager.Refresh(ctx)
}

func (s *Session) Retry(ctx context.Context) (pager.View, error) {
	return s.pager.Retry(ctx)
}

// GetPostAtURI fetches a single post. It returns nil without an error when
// the post does not exist, cannot be decoded or is filtered by the content
// policy.
func (s *Session) GetPostAtURI(ctx context.Context, uri string) (*domain.Post, error) {
	views, err := s.client.GetPosts(ctx, []string{uri})
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", uri, err)
	}
	if len(views) == 0 {
		return nil, nil
	}

	prefs := s.Preferences()
	posts, err := s.fanout.AggregatePosts(ctx, views[:1], prefs.Labelers)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, nil
	}

	post, ok := policy.Apply(posts[0], prefs.Content)
	if !ok {
		return nil, nil
	}
	return &post, nil
}
