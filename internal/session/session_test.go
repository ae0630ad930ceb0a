package session

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/pager"
	"github.com/blackmichael/skygazer/internal/testutil"
)

const (
	self = "did:plc:me"
	mod  = "did:plc:mod"
	gen1 = "at://did:plc:gen/app.bsky.feed.generator/cats"
	gen2 = "at://did:plc:gen/app.bsky.feed.generator/dogs"
)

// labelerClient records the labelers the session asks the AppView for.
type labelerClient struct {
	*testutil.FakeClient
	accepted []string
}

func (c *labelerClient) SetAcceptLabelers(dids []string) { c.accepted = dids }

func newSession(t *testing.T, prefs ...lexicon.PreferenceItem) (*Session, *testutil.FakeClient) {
	t.Helper()
	client := &testutil.FakeClient{Self: self}
	client.GetPreferencesFunc = func(context.Context) ([]lexicon.PreferenceItem, error) {
		return prefs, nil
	}
	s := New(client, Options{})
	_, err := s.LoadPreferences(context.Background())
	require.NoError(t, err)
	return s, client
}

func view(rkey, text string) *lexicon.PostView {
	did := "did:plc:author"
	return testutil.PostView(testutil.PostURI(did, rkey), "cid-"+rkey, testutil.Profile(did, "author.test"), text)
}

func strp(s string) *string { return &s }

func TestGetFeed_Pipeline(t *testing.T) {
	s, client := newSession(t,
		lexicon.PreferenceItem{AdultContent: &lexicon.AdultContentPref{Enabled: false}},
		lexicon.PreferenceItem{ContentLabel: &lexicon.ContentLabelPref{Labeler: strp(mod), Label: "spam", Visibility: "hide"}},
		lexicon.PreferenceItem{Labelers: &lexicon.LabelersPref{Labelers: []lexicon.LabelerPrefItem{{DID: mod}}}},
		lexicon.PreferenceItem{SavedFeedsV2: &lexicon.SavedFeedsPrefV2{Items: []lexicon.SavedFeed{{Type: "timeline", Value: "following", Pinned: true}}}},
		lexicon.PreferenceItem{FeedView: &lexicon.FeedViewPref{Feed: "home", HideReposts: testutil.Ptr(true)}},
	)

	plain := view("a", "hello")
	spam := view("b", "buy now")
	spam.Labels = []lexicon.Label{testutil.Label(mod, spam.URI, "spam")}
	reposted := view("c", "reposted")
	nsfw := view("d", "nsfw")
	nsfw.Record = testutil.PostRecord(lexicon.PostRecord{
		Text:   "nsfw",
		Labels: &lexicon.RecordLabels{SelfLabels: &lexicon.SelfLabels{Values: []lexicon.SelfLabel{{Val: "porn"}}}},
	})

	client.GetTimelineFunc = func(_ context.Context, cursor string, limit int) (*lexicon.FeedPage, error) {
		assert.Equal(t, "", cursor)
		assert.Equal(t, DefaultPageSize, limit)
		return &lexicon.FeedPage{Cursor: strp("c1"), Feed: []lexicon.FeedViewPost{
			{Post: plain},
			{Post: spam},
			{Post: reposted, Reason: &lexicon.FeedViewPostReason{ReasonRepost: &lexicon.ReasonRepost{By: testutil.Profile("did:plc:bob", "bob.test")}}},
			{Post: nsfw},
		}}, nil
	}

	page, err := s.GetFeed(context.Background(), domain.TimelineFeedURI, "")
	require.NoError(t, err)
	assert.Equal(t, "c1", page.Cursor)
	assert.Equal(t, []string{plain.URI, spam.URI, reposted.URI, nsfw.URI}, page.URIs)
	require.Len(t, page.Posts, 1)
	assert.Equal(t, plain.URI, page.Posts[0].URI)
}

func TestGetFeed_CustomFeedError(t *testing.T) {
	s, client := newSession(t)
	client.GetFeedFunc = func(context.Context, string, string, int) (*lexicon.FeedPage, error) {
		return nil, fmt.Errorf("get feed: %w", domain.ErrTransport)
	}

	v, err := s.OpenFeed(context.Background(), gen1)
	var perr *pager.PageError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, gen1, perr.FeedURI)
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.Equal(t, pager.StateError, v.State)
}

func TestLoadPreferences(t *testing.T) {
	client := &labelerClient{FakeClient: &testutil.FakeClient{Self: self}}
	client.GetPreferencesFunc = func(context.Context) ([]lexicon.PreferenceItem, error) {
		return []lexicon.PreferenceItem{
			{AdultContent: &lexicon.AdultContentPref{Enabled: true}},
			{ContentLabel: &lexicon.ContentLabelPref{Label: "graphic-media", Visibility: "warn"}},
			{SavedFeedsV2: &lexicon.SavedFeedsPrefV2{Items: []lexicon.SavedFeed{
				{Type: "timeline", Value: "following", Pinned: true},
				{Type: "feed", Value: gen1, Pinned: true},
				{Type: "feed", Value: "at://did:plc:gen/app.bsky.feed.generator/broken"},
				{Type: "list", Value: "at://did:plc:me/app.bsky.graph.list/l1"},
				{Type: "feed", Value: gen2},
			}}},
			{FeedView: &lexicon.FeedViewPref{Feed: "home", HideReposts: testutil.Ptr(true)}},
			{FeedView: &lexicon.FeedViewPref{Feed: gen2, HideReplies: testutil.Ptr(true), HideRepliesByLikeCount: testutil.Ptr(int64(5))}},
			{FeedView: &lexicon.FeedViewPref{Feed: "at://did:plc:gen/app.bsky.feed.generator/unsaved", HideQuotePosts: testutil.Ptr(true)}},
			{Labelers: &lexicon.LabelersPref{Labelers: []lexicon.LabelerPrefItem{{DID: mod}}}},
			{ThreadView: &lexicon.ThreadViewPref{Sort: strp("oldest"), PrioritizeFollowedUsers: testutil.Ptr(true)}},
			{MutedWords: &lexicon.MutedWordsPref{Items: []lexicon.MutedWord{{Value: "spoilers", Targets: []string{"content"}}}}},
			{HiddenPosts: &lexicon.HiddenPostsPref{Items: []string{"at://did:plc:x/app.bsky.feed.post/1"}}},
			{Verification: &lexicon.VerificationPrefs{HideBadges: true}},
		}, nil
	}
	client.GetFeedGeneratorFunc = func(_ context.Context, uri string) (*lexicon.GeneratorView, error) {
		switch uri {
		case gen1:
			return &lexicon.GeneratorView{URI: gen1, DisplayName: "Cats"}, nil
		case gen2:
			return &lexicon.GeneratorView{URI: gen2, DisplayName: "Dogs"}, nil
		}
		return nil, fmt.Errorf("get feed generator: %w", domain.ErrTransport)
	}

	s := New(client, Options{})
	prefs, err := s.LoadPreferences(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []domain.SavedFeed{
		{URI: domain.TimelineFeedURI, Pinned: true, Name: "Following", HideReposts: true},
		{URI: gen1, Pinned: true, Name: "Cats"},
		{URI: gen2, Name: "Dogs", HideReplies: true, HideRepliesByLikeCount: 5},
	}, prefs.Feeds)
	assert.Equal(t, domain.ContentPreferences{
		AdultContent: true,
		Labels:       []domain.LabelPreference{{Label: "graphic-media", Visibility: domain.VisibilityBlur}},
	}, prefs.Content)
	assert.Equal(t, []string{mod}, prefs.Labelers)
	assert.Equal(t, []string{mod}, client.accepted)
	assert.True(t, prefs.PrioritizeFollowed)
	assert.Equal(t, "oldest", prefs.ReplySort)
	assert.Equal(t, []domain.MutedWord{{Value: "spoilers", Targets: []string{"content"}}}, prefs.MutedWords)
	assert.Len(t, prefs.HiddenPosts, 1)
	assert.True(t, prefs.HideVerificationBadges)
	assert.Equal(t, prefs, s.Preferences())
	assert.Equal(t, 3, client.CallCount("GetFeedGenerator"))
}

func TestLoadPreferences_Error(t *testing.T) {
	client := &testutil.FakeClient{Self: self}
	client.GetPreferencesFunc = func(context.Context) ([]lexicon.PreferenceItem, error) {
		return nil, fmt.Errorf("get preferences: %w", domain.ErrAuth)
	}
	_, err := New(client, Options{}).LoadPreferences(context.Background())
	assert.ErrorIs(t, err, domain.ErrAuth)
}

func TestPutPreferences(t *testing.T) {
	unknown := &lexicon.Unknown{
		Type: "app.bsky.actor.defs#bskyAppStatePref",
		Raw:  json.RawMessage(`{"$type":"app.bsky.actor.defs#bskyAppStatePref","nuxs":[]}`),
	}
	ignored := &lexicon.ContentLabelPref{Label: "graphic-media", Visibility: "ignore"}
	saved := &lexicon.SavedFeedsPrefV2{Items: []lexicon.SavedFeed{{Type: "timeline", Value: "following", Pinned: true}}}
	s, client := newSession(t,
		lexicon.PreferenceItem{AdultContent: &lexicon.AdultContentPref{Enabled: false}},
		lexicon.PreferenceItem{ContentLabel: ignored},
		lexicon.PreferenceItem{ContentLabel: &lexicon.ContentLabelPref{Labeler: strp(mod), Label: "spam", Visibility: "warn"}},
		lexicon.PreferenceItem{SavedFeedsV2: saved},
		lexicon.PreferenceItem{Unknown: unknown},
	)

	var written []lexicon.PreferenceItem
	client.PutPreferencesFunc = func(_ context.Context, prefs []lexicon.PreferenceItem) error {
		written = prefs
		return nil
	}

	prefs := s.Preferences()
	prefs.Content.AdultContent = true
	prefs.Content.Labels[1].Visibility = domain.VisibilityHide
	assert.Equal(t, domain.VisibilityBlur, s.Preferences().Content.Labels[1].Visibility)
	prefs.Feeds[0].HideReplies = true
	require.NoError(t, s.PutPreferences(context.Background(), prefs))

	assert.Equal(t, []lexicon.PreferenceItem{
		{ContentLabel: ignored},
		{ContentLabel: &lexicon.ContentLabelPref{Labeler: strp(mod), Label: "spam", Visibility: "hide"}},
		{SavedFeedsV2: saved},
		{Unknown: unknown},
		{AdultContent: &lexicon.AdultContentPref{Enabled: true}},
		{FeedView: &lexicon.FeedViewPref{
			Feed:                    "home",
			HideReplies:             testutil.Ptr(true),
			HideReposts:             testutil.Ptr(false),
			HideQuotePosts:          testutil.Ptr(false),
			HideRepliesByUnfollowed: testutil.Ptr(false),
		}},
	}, written)
	assert.True(t, s.Preferences().Content.AdultContent)

	// every written item must encode
	_, err := json.Marshal(lexicon.PutPreferencesInput{Preferences: written})
	assert.NoError(t, err)
}

func TestGetPostAtURI(t *testing.T) {
	found := view("a", "hello")
	hidden := view("b", "spam")
	hidden.Labels = []lexicon.Label{testutil.Label(mod, hidden.URI, "spam")}
	broken := view("c", "")
	broken.Record = json.RawMessage(`{"text":"no type"}`)

	tests := []struct {
		name  string
		views []lexicon.PostView
		want  string
	}{
		{name: "found", views: []lexicon.PostView{*found}, want: found.URI},
		{name: "missing", views: nil},
		{name: "filtered", views: []lexicon.PostView{*hidden}},
		{name: "undecodable", views: []lexicon.PostView{*broken}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newSession(t,
				lexicon.PreferenceItem{ContentLabel: &lexicon.ContentLabelPref{Labeler: strp(mod), Label: "spam", Visibility: "hide"}},
			)
			client.GetPostsFunc = func(context.Context, []string) ([]lexicon.PostView, error) {
				return tt.views, nil
			}

			got, err := s.GetPostAtURI(context.Background(), "at://whatever")
			require.NoError(t, err)
			if tt.want == "" {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, tt.want, got.URI)
		})
	}
}

func TestGetFullUser(t *testing.T) {
	s, client := newSession(t,
		lexicon.PreferenceItem{Labelers: &lexicon.LabelersPref{Labelers: []lexicon.LabelerPrefItem{{DID: mod}}}},
	)
	pinned := view("pin", "pinned post")

	client.GetProfileFunc = func(_ context.Context, actor string) (*lexicon.ProfileViewDetailed, error) {
		p := &lexicon.ProfileViewDetailed{
			ProfileView: lexicon.ProfileView{
				ProfileViewBasic: *testutil.Profile("did:plc:alice", actor),
				Description:      strp("hi @bob.test, see https://example.com #golang"),
			},
			FollowersCount: testutil.Ptr(int64(12)),
			FollowsCount:   testutil.Ptr(int64(-1)),
			PinnedPost:     &lexicon.StrongRef{URI: pinned.URI, CID: pinned.CID},
		}
		p.Viewer = &lexicon.ActorViewerState{Following: strp("at://did:plc:me/app.bsky.graph.follow/1")}
		return p, nil
	}
	client.QueryLabelsFunc = func(context.Context, []string, []string) ([]lexicon.Label, error) {
		return nil, fmt.Errorf("query labels: %w", domain.ErrTransport)
	}
	client.ResolveHandleFunc = func(_ context.Context, handle string) (string, error) {
		return "did:plc:bob", nil
	}
	client.GetPostsFunc = func(context.Context, []string) ([]lexicon.PostView, error) {
		return []lexicon.PostView{*pinned}, nil
	}

	user, err := s.GetFullUser(context.Background(), "alice.test", true)
	require.NoError(t, err)
	assert.Equal(t, "did:plc:alice", user.DID)
	assert.Equal(t, int64(12), user.Followers)
	assert.Zero(t, user.Follows)
	assert.Equal(t, "at://did:plc:me/app.bsky.graph.follow/1", user.FollowingURI)
	assert.Empty(t, user.UserLabels)
	require.NotNil(t, user.PinnedPost)
	assert.Equal(t, pinned.URI, user.PinnedPost.URI)

	require.Len(t, user.BioFacets, 3)
	kinds := make([]domain.FeatureKind, len(user.BioFacets))
	for i, f := range user.BioFacets {
		kinds[i] = f.Features[0].Kind
	}
	assert.Equal(t, []domain.FeatureKind{domain.FeatureMention, domain.FeatureLink, domain.FeatureTag}, kinds)

	user, err = s.GetFullUser(context.Background(), "alice.test", false)
	require.NoError(t, err)
	assert.Nil(t, user.PinnedPost)
	assert.Equal(t, 1, client.CallCount("GetPosts"))
}

func TestGetFullUser_ProfileError(t *testing.T) {
	s, _ := newSession(t)
	_, err := s.GetFullUser(context.Background(), "nobody.test", false)
	assert.ErrorIs(t, err, domain.ErrTransport)
}

func openWith(t *testing.T, s *Session, client *testutil.FakeClient, views ...*lexicon.PostView) {
	t.Helper()
	client.GetTimelineFunc = func(context.Context, string, int) (*lexicon.FeedPage, error) {
		page := &lexicon.FeedPage{}
		for _, v := range views {
			page.Feed = append(page.Feed, lexicon.FeedViewPost{Post: v})
		}
		return page, nil
	}
	_, err := s.OpenFeed(context.Background(), domain.TimelineFeedURI)
	require.NoError(t, err)
}

func pagerPost(t *testing.T, s *Session, uri string) domain.Post {
	t.Helper()
	for _, fp := range s.Pager().View().Posts {
		if fp.URI == uri {
			return fp.Post
		}
	}
	t.Fatalf("post %s not in pager", uri)
	return domain.Post{}
}

func TestToggleLike(t *testing.T) {
	s, client := newSession(t)
	v := view("a", "hello")
	v.LikeCount = testutil.Ptr(int64(3))
	openWith(t, s, client, v)
	post := pagerPost(t, s, v.URI)

	likeURI := "at://did:plc:me/app.bsky.feed.like/fake"
	client.GetPostsFunc = func(context.Context, []string) ([]lexicon.PostView, error) {
		fresh := *v
		fresh.LikeCount = testutil.Ptr(int64(10))
		fresh.Viewer = &lexicon.PostViewerState{Like: &likeURI}
		return []lexicon.PostView{fresh}, nil
	}

	in := s.ToggleLike(context.Background(), post)
	assert.Equal(t, int64(4), in.Projected.Counts.Likes)
	assert.Equal(t, PendingURI, in.Projected.Viewer.LikeURI)

	rec, ok := <-in.Reconciled
	require.True(t, ok)
	require.NoError(t, rec.Err)
	assert.Equal(t, int64(10), rec.Post.Counts.Likes)
	assert.Equal(t, likeURI, rec.Post.Viewer.LikeURI)
	assert.Equal(t, post.Text, rec.Post.Text)

	_, ok = <-in.Reconciled
	assert.False(t, ok, "channel delivers exactly one value")

	s.Wait()
	assert.Equal(t, int64(10), pagerPost(t, s, v.URI).Counts.Likes)
	assert.Contains(t, client.Calls(), "CreateRecord "+lexicon.TypeFeedLike)
}

func TestToggleLike_WriteFails(t *testing.T) {
	s, client := newSession(t)
	v := view("a", "hello")
	v.LikeCount = testutil.Ptr(int64(3))
	openWith(t, s, client, v)
	post := pagerPost(t, s, v.URI)

	client.CreateRecordFunc = func(context.Context, string, any) (*lexicon.StrongRef, error) {
		return nil, fmt.Errorf("create record: %w", domain.ErrTransport)
	}

	in := s.ToggleLike(context.Background(), post)
	assert.Equal(t, int64(4), in.Projected.Counts.Likes)

	rec := <-in.Reconciled
	assert.ErrorIs(t, rec.Err, domain.ErrTransport)
	assert.Equal(t, post, rec.Post)

	s.Wait()
	assert.Equal(t, post, pagerPost(t, s, v.URI))
	assert.Zero(t, client.CallCount("GetPosts"))
}

func TestToggleLike_RefetchFails(t *testing.T) {
	s, client := newSession(t)
	post := domain.Post{URI: testutil.PostURI("did:plc:author", "a"), CID: "cid-a"}
	client.GetPostsFunc = func(context.Context, []string) ([]lexicon.PostView, error) {
		return nil, fmt.Errorf("get posts: %w", domain.ErrTransport)
	}

	rec := <-s.ToggleLike(context.Background(), post).Reconciled
	require.NoError(t, rec.Err)
	assert.Equal(t, "at://did:plc:me/app.bsky.feed.like/fake", rec.Post.Viewer.LikeURI)
	assert.Equal(t, int64(1), rec.Post.Counts.Likes)
}

func TestToggleLike_RefusedWhileWritePending(t *testing.T) {
	s, client := newSession(t)
	v := view("a", "hello")
	v.LikeCount = testutil.Ptr(int64(3))
	openWith(t, s, client, v)
	post := pagerPost(t, s, v.URI)

	release := make(chan struct{})
	client.CreateRecordFunc = func(context.Context, string, any) (*lexicon.StrongRef, error) {
		<-release
		return &lexicon.StrongRef{URI: "at://did:plc:me/app.bsky.feed.like/1", CID: "c"}, nil
	}

	first := s.ToggleLike(context.Background(), post)
	require.NoError(t, first.Err)

	second := s.ToggleLike(context.Background(), pagerPost(t, s, v.URI))
	assert.ErrorIs(t, second.Err, domain.ErrInteractionPending)
	assert.Equal(t, PendingURI, second.Projected.Viewer.LikeURI)
	assert.Equal(t, int64(4), second.Projected.Counts.Likes)
	rec, ok := <-second.Reconciled
	require.True(t, ok)
	assert.ErrorIs(t, rec.Err, domain.ErrInteractionPending)

	close(release)
	require.NoError(t, (<-first.Reconciled).Err)
	s.Wait()
	assert.Zero(t, client.CallCount("DeleteRecord"))
	assert.Equal(t, 1, client.CallCount("CreateRecord "+lexicon.TypeFeedLike))
}

func TestToggleRepost_Undo(t *testing.T) {
	s, client := newSession(t)
	repostURI := "at://did:plc:me/app.bsky.feed.repost/1"
	post := domain.Post{
		URI:    testutil.PostURI("did:plc:author", "a"),
		Counts: domain.Counts{Reposts: 2},
		Viewer: domain.Viewer{RepostURI: repostURI},
	}

	in := s.ToggleRepost(context.Background(), post)
	assert.Equal(t, int64(1), in.Projected.Counts.Reposts)
	assert.Empty(t, in.Projected.Viewer.RepostURI)

	rec := <-in.Reconciled
	s.Wait()
	require.NoError(t, rec.Err)
	assert.Contains(t, client.Calls(), "DeleteRecord "+repostURI)
	assert.Zero(t, client.CallCount("CreateRecord"))
}

func TestToggleRepost_CountNeverNegative(t *testing.T) {
	s, _ := newSession(t)
	post := domain.Post{URI: "at://x", Viewer: domain.Viewer{RepostURI: "at://r"}}

	in := s.ToggleRepost(context.Background(), post)
	assert.Zero(t, in.Projected.Counts.Reposts)
	<-in.Reconciled
}

func TestToggleBookmark(t *testing.T) {
	s, client := newSession(t)
	post := domain.Post{URI: "at://x", CID: "c"}

	got, err := s.ToggleBookmark(context.Background(), post)
	require.NoError(t, err)
	require.NotNil(t, got.Viewer.Bookmarked)
	assert.True(t, *got.Viewer.Bookmarked)

	got, err = s.ToggleBookmark(context.Background(), got)
	require.NoError(t, err)
	assert.False(t, *got.Viewer.Bookmarked)
	assert.Equal(t, []string{"CreateBookmark at://x", "DeleteBookmark at://x"}, client.Calls()[1:])
}

func TestToggleAuthor(t *testing.T) {
	alice := domain.Author{DID: "did:plc:alice", Handle: "alice.test"}

	tests := []struct {
		name   string
		toggle func(*Session, domain.Author) (domain.Author, error)
		check  func(t *testing.T, on, off domain.Author)
		calls  []string
	}{
		{
			name: "follow",
			toggle: func(s *Session, a domain.Author) (domain.Author, error) {
				return s.ToggleFollow(context.Background(), a)
			},
			check: func(t *testing.T, on, off domain.Author) {
				assert.Equal(t, "at://did:plc:me/app.bsky.graph.follow/fake", on.FollowingURI)
				assert.Empty(t, off.FollowingURI)
			},
			calls: []string{"CreateRecord app.bsky.graph.follow", "DeleteRecord at://did:plc:me/app.bsky.graph.follow/fake"},
		},
		{
			name: "block",
			toggle: func(s *Session, a domain.Author) (domain.Author, error) {
				return s.ToggleBlock(context.Background(), a)
			},
			check: func(t *testing.T, on, off domain.Author) {
				assert.Equal(t, "at://did:plc:me/app.bsky.graph.block/fake", on.BlockingURI)
				assert.Empty(t, off.BlockingURI)
			},
			calls: []string{"CreateRecord app.bsky.graph.block", "DeleteRecord at://did:plc:me/app.bsky.graph.block/fake"},
		},
		{
			name: "mute",
			toggle: func(s *Session, a domain.Author) (domain.Author, error) {
				return s.ToggleMute(context.Background(), a)
			},
			check: func(t *testing.T, on, off domain.Author) {
				assert.True(t, on.Muted)
				assert.False(t, off.Muted)
			},
			calls: []string{"MuteActor did:plc:alice", "UnmuteActor did:plc:alice"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, client := newSession(t)
			on, err := tt.toggle(s, alice)
			require.NoError(t, err)
			off, err := tt.toggle(s, on)
			require.NoError(t, err)

			tt.check(t, on, off)
			assert.Equal(t, tt.calls, client.Calls()[1:])
		})
	}
}

func TestToggleFollow_Error(t *testing.T) {
	s, client := newSession(t)
	client.CreateRecordFunc = func(context.Context, string, any) (*lexicon.StrongRef, error) {
		return nil, fmt.Errorf("create record: %w", domain.ErrAuth)
	}
	alice := domain.Author{DID: "did:plc:alice"}

	got, err := s.ToggleFollow(context.Background(), alice)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Equal(t, alice, got)
}
