// Package testutil provides a scriptable protocol client and payload builders
// for tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

var _ domain.ProtocolClient = (*FakeClient)(nil)

// FakeClient implements domain.ProtocolClient with overridable functions.
// Unset functions return zero values. Every call is recorded.
type FakeClient struct {
	Self string

	QueryLabelsFunc        func(ctx context.Context, uriPatterns, sources []string) ([]lexicon.Label, error)
	GetLabelerServicesFunc func(ctx context.Context, dids []string, detailed bool) ([]lexicon.LabelerServiceView, error)
	GetTimelineFunc        func(ctx context.Context, cursor string, limit int) (*lexicon.FeedPage, error)
	GetFeedFunc            func(ctx context.Context, feedURI, cursor string, limit int) (*lexicon.FeedPage, error)
	GetPostsFunc           func(ctx context.Context, uris []string) ([]lexicon.PostView, error)
	GetFeedGeneratorFunc   func(ctx context.Context, feedURI string) (*lexicon.GeneratorView, error)
	GetProfileFunc         func(ctx context.Context, actor string) (*lexicon.ProfileViewDetailed, error)
	ResolveHandleFunc      func(ctx context.Context, handle string) (string, error)
	MuteActorFunc          func(ctx context.Context, actor string) error
	UnmuteActorFunc        func(ctx context.Context, actor string) error
	GetPreferencesFunc     func(ctx context.Context) ([]lexicon.PreferenceItem, error)
	PutPreferencesFunc     func(ctx context.Context, prefs []lexicon.PreferenceItem) error
	CreateRecordFunc       func(ctx context.Context, collection string, record any) (*lexicon.StrongRef, error)
	DeleteRecordFunc       func(ctx context.Context, uri string) error
	CreateBookmarkFunc     func(ctx context.Context, uri, cid string) error
	DeleteBookmarkFunc     func(ctx context.Context, uri string) error

	mu    sync.Mutex
	calls []string
}

func (f *FakeClient) record(name string, args ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(args) > 0 {
		name += " " + strings.Join(args, " ")
	}
	f.calls = append(f.calls, name)
}

// Calls returns the recorded calls as "Method arg..." strings.
func (f *FakeClient) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// CallCount returns how many calls were made to method.
func (f *FakeClient) CallCount(method string) int {
	n := 0
	for _, c := range f.Calls() {
		if c == method || strings.HasPrefix(c, method+" ") {
			n++
		}
	}
	return n
}

func (f *FakeClient) DID() string { return f.Self }

func (f *FakeClient) QueryLabels(ctx context.Context, uriPatterns, sources []string) ([]lexicon.Label, error) {
	f.record("QueryLabels", strings.Join(uriPatterns, ","))
	if f.QueryLabelsFunc == nil {
		return nil, nil
	}
	return f.QueryLabelsFunc(ctx, uriPatterns, sources)
}

func (f *FakeClient) GetLabelerServices(ctx context.Context, dids []string, detailed bool) ([]lexicon.LabelerServiceView, error) {
	f.record("GetLabelerServices", strings.Join(dids, ","))
	if f.GetLabelerServicesFunc == nil {
		return nil, nil
	}
	return f.GetLabelerServicesFunc(ctx, dids, detailed)
}

func (f *FakeClient) GetTimeline(ctx context.Context, cursor string, limit int) (*lexicon.FeedPage, error) {
	f.record("GetTimeline", cursor)
	if f.GetTimelineFunc == nil {
		return &lexicon.FeedPage{}, nil
	}
	return f.GetTimelineFunc(ctx, cursor, limit)
}

func (f *FakeClient) GetFeed(ctx context.Context, feedURI, cursor string, limit int) (*lexicon.FeedPage, error) {
	f.record("GetFeed", feedURI, cursor)
	if f.GetFeedFunc == nil {
		return &lexicon.FeedPage{}, nil
	}
	return f.GetFeedFunc(ctx, feedURI, cursor, limit)
}

func (f *FakeClient) GetPosts(ctx context.Context, uris []string) ([]lexicon.PostView, error) {
	f.record("GetPosts", strings.Join(uris, ","))
	if f.GetPostsFunc == nil {
		return nil, nil
	}
	return f.GetPostsFunc(ctx, uris)
}

func (f *FakeClient) GetFeedGenerator(ctx context.Context, feedURI string) (*lexicon.GeneratorView, error) {
	f.record("GetFeedGenerator", feedURI)
	if f.GetFeedGeneratorFunc == nil {
		return nil, fmt.Errorf("%w: no feed generator", domain.ErrTransport)
	}
	return f.GetFeedGeneratorFunc(ctx, feedURI)
}

func (f *FakeClient) GetProfile(ctx context.Context, actor string) (*lexicon.ProfileViewDetailed, error) {
	f.record("GetProfile", actor)
	if f.GetProfileFunc == nil {
		return nil, fmt.Errorf("%w: no profile", domain.ErrTransport)
	}
	return f.GetProfileFunc(ctx, actor)
}

func (f *FakeClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	f.record("ResolveHandle", handle)
	if f.ResolveHandleFunc == nil {
		return "", fmt.Errorf("%w: unable to resolve handle", domain.ErrTransport)
	}
	return f.ResolveHandleFunc(ctx, handle)
}

func (f *FakeClient) MuteActor(ctx context.Context, actor string) error {
	f.record("MuteActor", actor)
	if f.MuteActorFunc == nil {
		return nil
	}
	return f.MuteActorFunc(ctx, actor)
}

func (f *FakeClient) UnmuteActor(ctx context.Context, actor string) error {
	f.record("UnmuteActor", actor)
	if f.UnmuteActorFunc == nil {
		return nil
	}
	return f.UnmuteActorFunc(ctx, actor)
}

func (f *FakeClient) GetPreferences(ctx context.Context) ([]lexicon.PreferenceItem, error) {
	f.record("GetPreferences")
	if f.GetPreferencesFunc == nil {
		return nil, nil
	}
	return f.GetPreferencesFunc(ctx)
}

func (f *FakeClient) PutPreferences(ctx context.Context, prefs []lexicon.PreferenceItem) error {
	f.record("PutPreferences")
	if f.PutPreferencesFunc == nil {
		return nil
	}
	return f.PutPreferencesFunc(ctx, prefs)
}

func (f *FakeClient) CreateRecord(ctx context.Context, collection string, record any) (*lexicon.StrongRef, error) {
	f.record("CreateRecord", collection)
	if f.CreateRecordFunc == nil {
		return &lexicon.StrongRef{URI: fmt.Sprintf("at://%s/%s/fake", f.Self, collection), CID: "bafyfake"}, nil
	}
	return f.CreateRecordFunc(ctx, collection, record)
}

func (f *FakeClient) DeleteRecord(ctx context.Context, uri string) error {
	f.record("DeleteRecord", uri)
	if f.DeleteRecordFunc == nil {
		return nil
	}
	return f.DeleteRecordFunc(ctx, uri)
}

func (f *FakeClient) CreateBookmark(ctx context.Context, uri, cid string) error {
	f.record("CreateBookmark", uri)
	if f.CreateBookmarkFunc == nil {
		return nil
	}
	return f.CreateBookmarkFunc(ctx, uri, cid)
}

func (f *FakeClient) DeleteBookmark(ctx context.Context, uri string) error {
	f.record("DeleteBookmark", uri)
	if f.DeleteBookmarkFunc == nil {
		return nil
	}
	return f.DeleteBookmarkFunc(ctx, uri)
}
