package bluesky

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

const testDID = "did:plc:alice"

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   testDID,
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("test"))
	require.NoError(t, err)
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// pds is a fake PDS that issues sessions and serves registered methods.
type pds struct {
	mux    *http.ServeMux
	access atomic.Value
	fresh  string

	refreshes atomic.Int32
}

func newPDS(t *testing.T, access string) (*pds, *Client) {
	p := &pds{mux: http.NewServeMux(), fresh: token(t, time.Now().Add(2*time.Hour))}
	p.access.Store(access)

	p.mux.HandleFunc("POST /xrpc/"+nsidCreateSession, func(w http.ResponseWriter, r *http.Request) {
		var in lexicon.CreateSessionInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		if in.Password != "app-password" {
			writeJSON(w, http.StatusUnauthorized, errorBody{Name: "AuthenticationRequired", Message: "Invalid identifier or password"})
			return
		}
		writeJSON(w, http.StatusOK, lexicon.SessionOutput{
			AccessJwt:  p.access.Load().(string),
			RefreshJwt: "refresh-1",
			Handle:     in.Identifier,
			DID:        testDID,
		})
	})
	p.mux.HandleFunc("POST /xrpc/"+nsidRefreshSession, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer refresh-1", r.Header.Get("Authorization"))
		p.refreshes.Add(1)
		p.access.Store(p.fresh)
		writeJSON(w, http.StatusOK, lexicon.SessionOutput{AccessJwt: p.fresh, RefreshJwt: "refresh-2", DID: testDID})
	})

	srv := httptest.NewServer(p.mux)
	t.Cleanup(srv.Close)
	return p, NewClient(srv.URL, Options{HTTPClient: srv.Client()})
}

// authed reports whether r carries the currently issued access token.
func (p *pds) authed(w http.ResponseWriter, r *http.Request) bool {
	if r.Header.Get("Authorization") != "Bearer "+p.access.Load().(string) {
		writeJSON(w, http.StatusBadRequest, errorBody{Name: "ExpiredToken", Message: "Token has expired"})
		return false
	}
	return true
}

func login(t *testing.T, c *Client) {
	t.Helper()
	require.NoError(t, c.Login(context.Background(), "alice.test", "app-password"))
}

func TestClient_Login(t *testing.T) {
	_, c := newPDS(t, token(t, time.Now().Add(time.Hour)))

	err := c.Login(context.Background(), "alice.test", "wrong")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.NotErrorIs(t, err, domain.ErrTransport)
	assert.Empty(t, c.DID())

	login(t, c)
	assert.Equal(t, testDID, c.DID())
	assert.Equal(t, "alice.test", c.Handle())
}

func TestClient_RequiresLogin(t *testing.T) {
	p, c := newPDS(t, "")
	var hits atomic.Int32
	p.mux.HandleFunc("GET /xrpc/"+nsidGetTimeline, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})

	_, err := c.GetTimeline(context.Background(), "", 10)
	assert.ErrorIs(t, err, domain.ErrAuth)
	assert.Zero(t, hits.Load())
}

func TestClient_GetTimeline(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	p.mux.HandleFunc("GET /xrpc/"+nsidGetTimeline, func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(w, r) {
			return
		}
		assert.Equal(t, "30", r.URL.Query().Get("limit"))
		assert.Equal(t, "c1", r.URL.Query().Get("cursor"))
		assert.Equal(t, "did:plc:mod1, did:plc:mod2", r.Header.Get(headerAcceptLabeler))
		cursor := "c2"
		writeJSON(w, http.StatusOK, lexicon.FeedPage{Cursor: &cursor, Feed: []lexicon.FeedViewPost{}})
	})

	login(t, c)
	c.SetAcceptLabelers([]string{"did:plc:mod1", "did:plc:mod2"})
	page, err := c.GetTimeline(context.Background(), "c1", 30)
	require.NoError(t, err)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, "c2", *page.Cursor)
}

func TestClient_GetTimelineDropsUndecodableItems(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	p.mux.HandleFunc("GET /xrpc/"+nsidGetTimeline, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"cursor":"c2","feed":[
			{"post":{"uri":"at://did:plc:a/app.bsky.feed.post/1","cid":"c1","record":{}}},
			{"post":{"uri":"at://did:plc:a/app.bsky.feed.post/2","cid":"c2","record":{},"embed":{"$type":"app.bsky.embed.images#view","images":"oops"}}},
			{"post":{"uri":"at://did:plc:a/app.bsky.feed.post/3","cid":"c3","record":{}},"reply":{"root":"nope","parent":{}}},
			{"post":{"uri":"at://did:plc:a/app.bsky.feed.post/4","cid":"c4","record":{}}}
		]}`)
	})
	p.mux.HandleFunc("GET /xrpc/"+nsidGetPosts, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"posts":[
			{"uri":"at://did:plc:a/app.bsky.feed.post/1","cid":"c1","record":{}},
			{"uri":"at://did:plc:a/app.bsky.feed.post/2","cid":"c2","record":{},"embed":{"$type":"app.bsky.embed.images#view","images":"oops"}}
		]}`)
	})
	login(t, c)

	page, err := c.GetTimeline(context.Background(), "", 30)
	require.NoError(t, err)
	require.NotNil(t, page.Cursor)
	assert.Equal(t, "c2", *page.Cursor)
	var uris []string
	for _, item := range page.Feed {
		uris = append(uris, item.Post.URI)
	}
	assert.Equal(t, []string{"at://did:plc:a/app.bsky.feed.post/1", "at://did:plc:a/app.bsky.feed.post/4"}, uris)

	posts, err := c.GetPosts(context.Background(), []string{"at://did:plc:a/app.bsky.feed.post/1", "at://did:plc:a/app.bsky.feed.post/2"})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "at://did:plc:a/app.bsky.feed.post/1", posts[0].URI)
}

func TestClient_RefreshOnExpiredToken(t *testing.T) {
	// the PDS rotates its token after login, so the first call is rejected
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	p.mux.HandleFunc("GET /xrpc/"+nsidGetProfile, func(w http.ResponseWriter, r *http.Request) {
		if !p.authed(w, r) {
			return
		}
		writeJSON(w, http.StatusOK, lexicon.ProfileViewDetailed{ProfileView: lexicon.ProfileView{ProfileViewBasic: lexicon.ProfileViewBasic{DID: testDID, Handle: "alice.test"}}})
	})

	login(t, c)
	p.access.Store(token(t, time.Now().Add(3*time.Hour)))

	profile, err := c.GetProfile(context.Background(), "alice.test")
	require.NoError(t, err)
	assert.Equal(t, "alice.test", profile.Handle)
	assert.Equal(t, int32(1), p.refreshes.Load())
}

func TestClient_ProactiveRefresh(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(10*time.Second)))
	var mu sync.Mutex
	var seen []string
	p.mux.HandleFunc("GET /xrpc/"+nsidGetPreferences, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		seen = append(seen, r.Header.Get("Authorization"))
		mu.Unlock()
		writeJSON(w, http.StatusOK, lexicon.GetPreferencesOutput{})
	})

	login(t, c)
	_, err := c.GetPreferences(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), p.refreshes.Load())
	assert.Equal(t, []string{"Bearer " + p.fresh}, seen)
}

func TestClient_ConcurrentRefreshOnce(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(10*time.Second)))
	p.mux.HandleFunc("GET /xrpc/"+nsidResolveHandle, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, lexicon.ResolveHandleOutput{DID: "did:plc:" + r.URL.Query().Get("handle")})
	})
	login(t, c)

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			did, err := c.ResolveHandle(context.Background(), fmt.Sprint(i))
			assert.NoError(t, err)
			assert.Equal(t, fmt.Sprintf("did:plc:%d", i), did)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), p.refreshes.Load())
}

func TestClient_APIErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      any
		auth      bool
		wantError string
	}{
		{
			name:      "unauthorized",
			status:    http.StatusUnauthorized,
			body:      errorBody{Name: "AuthMissing"},
			auth:      true,
			wantError: "API error (status 401): AuthMissing",
		},
		{
			name:      "invalid token name on 400",
			status:    http.StatusBadRequest,
			body:      errorBody{Name: "InvalidToken", Message: "bad"},
			auth:      true,
			wantError: "API error (status 400): InvalidToken: bad",
		},
		{
			name:      "server error",
			status:    http.StatusBadGateway,
			body:      errorBody{Name: "UpstreamFailure", Message: "feed unavailable"},
			wantError: "API error (status 502): UpstreamFailure: feed unavailable",
		},
		{
			name:      "non-json body",
			status:    http.StatusInternalServerError,
			body:      "oops",
			wantError: "API error (status 500)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
			p.mux.HandleFunc("GET /xrpc/"+nsidGetFeed, func(w http.ResponseWriter, r *http.Request) {
				if s, ok := tt.body.(string); ok {
					w.WriteHeader(tt.status)
					w.Write([]byte(s))
					return
				}
				writeJSON(w, tt.status, tt.body)
			})
			login(t, c)

			_, err := c.GetFeed(context.Background(), "at://did:plc:gen/app.bsky.feed.generator/x", "", 10)
			var apiErr *APIError
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.wantError, apiErr.Error())
			assert.Equal(t, tt.auth, apiErr.Is(domain.ErrAuth))
			assert.Equal(t, !tt.auth, apiErr.Is(domain.ErrTransport))
		})
	}
}

func TestClient_TransportFailure(t *testing.T) {
	_, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	login(t, c)
	c.pds = "http://127.0.0.1:1"

	_, err := c.GetPosts(context.Background(), []string{"at://x/app.bsky.feed.post/1"})
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.NotErrorIs(t, err, domain.ErrAuth)
}

func TestClient_GetPostsBatches(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	var mu sync.Mutex
	var batches []int
	p.mux.HandleFunc("GET /xrpc/"+nsidGetPosts, func(w http.ResponseWriter, r *http.Request) {
		uris := r.URL.Query()["uris"]
		mu.Lock()
		batches = append(batches, len(uris))
		mu.Unlock()
		out := lexicon.GetPostsOutput{}
		for _, u := range uris {
			out.Posts = append(out.Posts, lexicon.PostView{URI: u})
		}
		writeJSON(w, http.StatusOK, out)
	})
	login(t, c)

	var uris []string
	for i := range 60 {
		uris = append(uris, fmt.Sprintf("at://did:plc:a/app.bsky.feed.post/%d", i))
	}
	posts, err := c.GetPosts(context.Background(), uris)
	require.NoError(t, err)
	mu.Lock()
	assert.Equal(t, []int{25, 25, 10}, batches)
	mu.Unlock()
	require.Len(t, posts, 60)
	for i, post := range posts {
		assert.Equal(t, uris[i], post.URI)
	}
}

func TestClient_QueryLabelsPaginates(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	p.mux.HandleFunc("GET /xrpc/"+nsidQueryLabels, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, []string{"at://did:plc:bob"}, q["uriPatterns"])
		assert.Equal(t, []string{"did:plc:mod"}, q["sources"])
		switch q.Get("cursor") {
		case "":
			next := "p2"
			writeJSON(w, http.StatusOK, lexicon.QueryLabelsOutput{Cursor: &next, Labels: []lexicon.Label{{Val: "spam"}}})
		case "p2":
			writeJSON(w, http.StatusOK, lexicon.QueryLabelsOutput{Labels: []lexicon.Label{{Val: "rude"}}})
		}
	})
	login(t, c)

	labels, err := c.QueryLabels(context.Background(), []string{"at://did:plc:bob"}, []string{"did:plc:mod"})
	require.NoError(t, err)
	require.Len(t, labels, 2)
	assert.Equal(t, "spam", labels[0].Val)
	assert.Equal(t, "rude", labels[1].Val)
}

func TestClient_Records(t *testing.T) {
	p, c := newPDS(t, token(t, time.Now().Add(time.Hour)))
	p.mux.HandleFunc("POST /xrpc/"+nsidCreateRecord, func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Repo       string             `json:"repo"`
			Collection string             `json:"collection"`
			Record     lexicon.LikeRecord `json:"record"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, testDID, in.Repo)
		assert.Equal(t, lexicon.TypeFeedLike, in.Collection)
		assert.Equal(t, "at://did:plc:bob/app.bsky.feed.post/1", in.Record.Subject.URI)
		writeJSON(w, http.StatusOK, lexicon.CreateRecordOutput{URI: "at://" + testDID + "/app.bsky.feed.like/3k", CID: "bafy"})
	})
	p.mux.HandleFunc("POST /xrpc/"+nsidDeleteRecord, func(w http.ResponseWriter, r *http.Request) {
		var in lexicon.DeleteRecordInput
		require.NoError(t, json.NewDecoder(r.Body).Decode(&in))
		assert.Equal(t, lexicon.DeleteRecordInput{Repo: testDID, Collection: lexicon.TypeFeedLike, RKey: "3k"}, in)
		w.WriteHeader(http.StatusOK)
	})
	login(t, c)
	ctx := context.Background()

	ref, err := c.CreateRecord(ctx, lexicon.TypeFeedLike, lexicon.LikeRecord{
		LexiconTypeID: lexicon.TypeFeedLike,
		Subject:       lexicon.StrongRef{URI: "at://did:plc:bob/app.bsky.feed.post/1", CID: "bafyp"},
		CreatedAt:     "2025-01-02T03:04:05Z",
	})
	require.NoError(t, err)
	assert.Equal(t, "at://"+testDID+"/app.bsky.feed.like/3k", ref.URI)

	require.NoError(t, c.DeleteRecord(ctx, ref.URI))
	assert.Error(t, c.DeleteRecord(ctx, "https://example.com"))
}

func TestSplitATURI(t *testing.T) {
	tests := []struct {
		uri     string
		want    []string
		wantErr bool
	}{
		{uri: "at://did:plc:a/app.bsky.feed.like/3k", want: []string{"did:plc:a", "app.bsky.feed.like", "3k"}},
		{uri: "at://did:plc:a/app.bsky.feed.like", wantErr: true},
		{uri: "at://did:plc:a/app.bsky.feed.like/3k/extra", wantErr: true},
		{uri: "did:plc:a/app.bsky.feed.like/3k", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			repo, collection, rkey, err := splitATURI(tt.uri)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, []string{repo, collection, rkey})
		})
	}
}

func TestTokenExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	got, ok := tokenExpiry(token(t, exp))
	require.True(t, ok)
	assert.True(t, exp.Equal(got))

	_, ok = tokenExpiry("opaque")
	assert.False(t, ok)
}
