package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

// maxPostsPerRequest is the getPosts batch limit.
const maxPostsPerRequest = 25

func pageParams(cursor string, limit int) url.Values {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	return params
}

// rawFeedPage defers decoding of feed items so a malformed item is dropped
// on its own instead of failing the page.
type rawFeedPage struct {
	Cursor *string           `json:"cursor,omitempty"`
	Feed   []json.RawMessage `json:"feed"`
}

type rawPostsOutput struct {
	Posts []json.RawMessage `json:"posts"`
}

// decodeItems decodes each raw item into T, skipping the ones that do not
// match the expected shape.
func decodeItems[T any](c *Client, nsid string, raw []json.RawMessage) []T {
	out := make([]T, 0, len(raw))
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			droppedItems.WithLabelValues(nsid).Inc()
			c.logger.Warn("dropping undecodable item", "nsid", nsid, "index", i, "error", err)
			continue
		}
		out = append(out, v)
	}
	return out
}

func (c *Client) getFeedPage(ctx context.Context, nsid string, params url.Values) (*lexicon.FeedPage, error) {
	var raw rawFeedPage
	if err := c.get(ctx, nsid, params, &raw); err != nil {
		return nil, err
	}
	return &lexicon.FeedPage{
		Cursor: raw.Cursor,
		Feed:   decodeItems[lexicon.FeedViewPost](c, nsid, raw.Feed),
	}, nil
}

func (c *Client) GetTimeline(ctx context.Context, cursor string, limit int) (*lexicon.FeedPage, error) {
	page, err := c.getFeedPage(ctx, nsidGetTimeline, pageParams(cursor, limit))
	if err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	return page, nil
}

func (c *Client) GetFeed(ctx context.Context, feedURI, cursor string, limit int) (*lexicon.FeedPage, error) {
	params := pageParams(cursor, limit)
	params.Set("feed", feedURI)

	page, err := c.getFeedPage(ctx, nsidGetFeed, params)
	if err != nil {
		return nil, fmt.Errorf("get feed: %w", err)
	}
	return page, nil
}

// GetPosts hydrates posts by AT-URI, batching requests as needed. Posts the
// AppView cannot see are absent from the result.
func (c *Client) GetPosts(ctx context.Context, uris []string) ([]lexicon.PostView, error) {
	var posts []lexicon.PostView
	for start := 0; start < len(uris); start += maxPostsPerRequest {
		end := min(start+maxPostsPerRequest, len(uris))
		params := url.Values{"uris": uris[start:end]}

		var out rawPostsOutput
		if err := c.get(ctx, nsidGetPosts, params, &out); err != nil {
			return nil, fmt.Errorf("get posts: %w", err)
		}
		posts = append(posts, decodeItems[lexicon.PostView](c, nsidGetPosts, out.Posts)...)
	}
	return posts, nil
}

func (c *Client) GetFeedGenerator(ctx context.Context, feedURI string) (*lexicon.GeneratorView, error) {
	var out lexicon.GetFeedGeneratorOutput
	if err := c.get(ctx, nsidGetGenerator, url.Values{"feed": {feedURI}}, &out); err != nil {
		return nil, fmt.Errorf("get feed generator: %w", err)
	}
	if out.View == nil {
		return nil, fmt.Errorf("get feed generator: missing view: %w", domain.ErrUndecodable)
	}
	return out.View, nil
}
