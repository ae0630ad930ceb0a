package firehose

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

type fakeSink struct {
	events chan string
}

func (f *fakeSink) MarkNewPosts() { f.events <- "new" }

func (f *fakeSink) Evict(uri string) bool {
	f.events <- "evict " + uri
	return true
}

type memCursors struct {
	mu     sync.Mutex
	cursor int64
}

func (m *memCursors) GetCursor(context.Context, string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor, nil
}

func (m *memCursors) UpdateCursor(_ context.Context, _ string, cursor int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cursor = cursor
	return nil
}

func (m *memCursors) get() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cursor
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/subscribe"
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for event")
		return ""
	}
}

func TestSubscriber_AppliesPostEvents(t *testing.T) {
	const alice = "did:plc:alice"
	frames := []string{
		`{"did":"did:plc:alice","time_us":101,"kind":"commit","commit":{"operation":"create","collection":"app.bsky.feed.post","rkey":"1","cid":"c1","record":{"$type":"app.bsky.feed.post","text":"hi","createdAt":"2025-01-02T03:04:05Z"}}}`,
		`{"did":"did:plc:bob","time_us":102,"kind":"commit","commit":{"operation":"create","collection":"app.bsky.feed.post","rkey":"2","record":{"text":"not watched","createdAt":"2025-01-02T03:04:05Z"}}}`,
		`{"did":"did:plc:alice","time_us":103,"kind":"commit","commit":{"operation":"create","collection":"app.bsky.feed.like","rkey":"3"}}`,
		`not json`,
		`{"did":"did:plc:alice","time_us":104,"kind":"identity"}`,
		`{"did":"did:plc:alice","time_us":105,"kind":"commit","commit":{"operation":"delete","collection":"app.bsky.feed.post","rkey":"0"}}`,
	}

	query := make(chan map[string][]string, 1)
	updates := make(chan optionsUpdate, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query <- r.URL.Query()
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for _, f := range frames {
			if err := conn.WriteMessage(websocket.TextMessage, []byte(f)); err != nil {
				return
			}
		}
		for {
			var u optionsUpdate
			if err := conn.ReadJSON(&u); err != nil {
				return
			}
			updates <- u
		}
	}))
	defer srv.Close()

	sink := &fakeSink{events: make(chan string, 8)}
	cursors := &memCursors{cursor: 100}
	sub := NewSubscriber(wsURL(srv), sink, Options{Cursors: cursors, Backoff: time.Millisecond})
	sub.SetAuthors([]string{alice})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	q := <-query
	assert.Equal(t, []string{alice}, q["wantedDids"])
	assert.Equal(t, []string{lexicon.TypeFeedPost}, q["wantedCollections"])
	assert.Equal(t, []string{"100"}, q["cursor"])

	assert.Equal(t, "new", next(t, sink.events))
	assert.Equal(t, "evict at://did:plc:alice/app.bsky.feed.post/0", next(t, sink.events))

	sub.SetAuthors([]string{"did:plc:carol", alice})
	select {
	case u := <-updates:
		assert.Equal(t, "options_update", u.Type)
		assert.Equal(t, []string{alice, "did:plc:carol"}, u.Payload.WantedDIDs)
		assert.Equal(t, wantedCollections, u.Payload.WantedCollections)
	case <-time.After(5 * time.Second):
		t.Fatal("no options update received")
	}

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("subscriber did not stop")
	}
	assert.Equal(t, int64(105), cursors.get())
	assert.Empty(t, sink.events)
}

func TestSubscriber_IdleWithoutAuthors(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	sub := NewSubscriber(wsURL(srv), &fakeSink{}, Options{Backoff: time.Millisecond})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := sub.Start(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Zero(t, dials.Load())
}

func TestSubscriber_ReconnectsAfterDialFailure(t *testing.T) {
	var dials atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		dials.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sub := NewSubscriber(wsURL(srv), &fakeSink{}, Options{Backoff: time.Millisecond})
	sub.SetAuthors([]string{"did:plc:alice"})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sub.Start(ctx) }()

	require.Eventually(t, func() bool { return dials.Load() >= 3 }, 5*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestParseEvent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    *jetstreamEvent
		wantErr bool
	}{
		{
			name:  "post create",
			input: `{"did":"did:plc:a","time_us":7,"kind":"commit","commit":{"rev":"r","operation":"create","collection":"app.bsky.feed.post","rkey":"k","cid":"c","record":{"$type":"app.bsky.feed.post","text":"hello","langs":["en"],"createdAt":"2025-01-02T03:04:05Z"}}}`,
			want: &jetstreamEvent{DID: "did:plc:a", TimeUS: 7, Kind: "commit", Commit: &jetstreamCommit{
				Rev: "r", Operation: "create", Collection: "app.bsky.feed.post", RKey: "k", CID: "c",
				Record: &lexicon.PostRecord{LexiconTypeID: lexicon.TypeFeedPost, Text: "hello", Langs: []string{"en"}, CreatedAt: "2025-01-02T03:04:05Z"},
			}},
		},
		{
			name:  "other collection keeps no record",
			input: `{"did":"did:plc:a","time_us":8,"kind":"commit","commit":{"operation":"create","collection":"app.bsky.feed.like","rkey":"k","record":{"subject":{}}}}`,
			want: &jetstreamEvent{DID: "did:plc:a", TimeUS: 8, Kind: "commit", Commit: &jetstreamCommit{
				Operation: "create", Collection: "app.bsky.feed.like", RKey: "k",
			}},
		},
		{
			name:  "account event",
			input: `{"did":"did:plc:a","time_us":9,"kind":"account","account":{"active":false}}`,
			want:  &jetstreamEvent{DID: "did:plc:a", TimeUS: 9, Kind: "account"},
		},
		{name: "malformed", input: `{`, wantErr: true},
		{name: "bad record", input: `{"kind":"commit","commit":{"collection":"app.bsky.feed.post","record":{"text":1}}}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseEvent([]byte(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildURL(t *testing.T) {
	sub := NewSubscriber("wss://jetstream.example/subscribe?compress=false", &fakeSink{}, Options{})

	got, err := sub.buildURL([]string{"did:plc:a", "did:plc:b"}, 42)
	require.NoError(t, err)
	assert.Equal(t, "wss://jetstream.example/subscribe?compress=false&cursor=42&wantedCollections=app.bsky.feed.post&wantedDids=did%3Aplc%3Aa&wantedDids=did%3Aplc%3Ab", got)

	got, err = sub.buildURL(nil, 0)
	require.NoError(t, err)
	assert.NotContains(t, got, "cursor")
}

func TestAuthors(t *testing.T) {
	post := func(did string) domain.FeedPost {
		return domain.FeedPost{Post: domain.Post{Author: domain.Author{DID: did}}}
	}
	got := Authors([]domain.FeedPost{post("b"), post("a"), post("b"), post(""), post("c")})
	assert.Equal(t, []string{"b", "a", "c"}, got)
}
