// Package pager owns the pagination state of the open feed and the cached
// state of feeds the user switched away from.
package pager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/blackmichael/skygazer/internal/domain"
)

type State string

const (
	StateEmpty     State = "empty"
	StateLoading   State = "loading"
	StateLoaded    State = "loaded"
	StateEndOfFeed State = "end-of-feed"
	StateError     State = "error"
)

type Operation string

const (
	OpOpen     Operation = "open"
	OpLoadMore Operation = "load-more"
	OpRefresh  Operation = "refresh"
)

// Page is one fetched page. URIs lists every item the server returned,
// including those filtered out of Posts; when nil the URIs of Posts are used.
// An empty Cursor means the server has nothing more.
type Page struct {
	Posts  []domain.FeedPost
	URIs   []string
	Cursor string
}

func (p Page) uris() []string {
	if p.URIs != nil {
		return p.URIs
	}
	out := make([]string, len(p.Posts))
	for i, fp := range p.Posts {
		out[i] = fp.URI
	}
	return out
}

type Fetcher interface {
	FetchPage(ctx context.Context, feedURI, cursor string) (Page, error)
}

type FetcherFunc func(ctx context.Context, feedURI, cursor string) (Page, error)

func (f FetcherFunc) FetchPage(ctx context.Context, feedURI, cursor string) (Page, error) {
	return f(ctx, feedURI, cursor)
}

// SnapshotStore persists feed snapshots between runs.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, feedURI string) (*domain.FeedSnapshot, error)
	SaveSnapshot(ctx context.Context, snapshot domain.FeedSnapshot) error
}

// PageError is returned when a page fetch fails. Accumulated posts and the
// cursor are left as they were; Retry repeats the operation.
type PageError struct {
	FeedURI string
	Cursor  string
	Op      Operation
	Err     error
}

func (e *PageError) Error() string {
	return fmt.Sprintf("%s %s (cursor %q): %v", e.Op, e.FeedURI, e.Cursor, e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// View is a copy of the pager state.
type View struct {
	FeedURI  string            `json:"feedUri"`
	State    State             `json:"state"`
	Posts    []domain.FeedPost `json:"posts"`
	Cursor   string            `json:"cursor,omitempty"`
	Anchor   string            `json:"anchor,omitempty"`
	NewPosts bool              `json:"newPosts"`
	Err      *PageError        `json:"-"`
}

type Options struct {
	// Store, when set, persists snapshots of feeds switched away from and
	// is consulted when opening a feed with no in-memory snapshot.
	Store  SnapshotStore
	Logger *slog.Logger
}

type Pager struct {
	fetcher Fetcher
	store   SnapshotStore
	logger  *slog.Logger
	now     func() time.Time

	mu        sync.Mutex
	feedURI   string
	state     State
	cursor    string
	anchor    string
	posts     []domain.FeedPost
	seen      map[string]struct{}
	newPosts  bool
	inFlight  bool
	lastErr   *PageError
	snapshots map[string]domain.FeedSnapshot
}

func New(fetcher Fetcher, opts Options) *Pager {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Pager{
		fetcher:   fetcher,
		store:     opts.Store,
		logger:    opts.Logger,
		now:       time.Now,
		state:     StateEmpty,
		seen:      make(map[string]struct{}),
		snapshots: make(map[string]domain.FeedSnapshot),
	}
}

// Open makes feedURI the active feed. The outgoing feed is snapshotted. The
// incoming feed is restored from its snapshot when that has posts, and
// loaded fresh otherwise. Opening the active feed again returns its state.
func (p *Pager) Open(ctx context.Context, feedURI string) (View, error) {
	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return View{}, domain.ErrLoadInFlight
	}
	if feedURI == p.feedURI && p.state != StateEmpty {
		v := p.viewLocked()
		p.mu.Unlock()
		return v, nil
	}

	var outgoing *domain.FeedSnapshot
	if p.feedURI != "" && len(p.posts) > 0 {
		s := p.snapshotLocked()
		p.snapshots[p.feedURI] = s
		outgoing = &s
	}
	snap, cached := p.snapshots[feedURI]
	p.mu.Unlock()

	if outgoing != nil {
		p.persist(ctx, *outgoing)
	}
	if !cached && p.store != nil {
		stored, err := p.store.LoadSnapshot(ctx, feedURI)
		if err != nil {
			p.logger.Warn("failed to load feed snapshot", "feed", feedURI, "error", err)
		} else if stored != nil {
			snap, cached = *stored, true
		}
	}

	p.mu.Lock()
	if p.inFlight {
		p.mu.Unlock()
		return View{}, domain.ErrLoadInFlight
	}
	if cached && len(snap.Posts) > 0 {
		p.restoreLocked(snap)
		v := p.viewLocked()
		p.mu.Unlock()
		return v, nil
	}
	p.resetLocked(feedURI)
	p.mu.Unlock()

	return p.load(ctx, OpOpen)
}

// LoadMore fetches the page after the current cursor. A page with no items
// the pager has not already seen ends the feed and leaves the list as is.
func (p *Pager) LoadMore(ctx context.Context) (View, error) {
	p.mu.Lock()
	state := p.state
	p.mu.Unlock()

	switch state {
	case StateEndOfFeed:
		return p.View(), nil
	case StateEmpty:
		return p.load(ctx, OpOpen)
	}
	return p.load(ctx, OpLoadMore)
}

// Refresh discards the cursor and reloads the first page.
func (p *Pager) Refresh(ctx context.Context) (View, error) {
	return p.load(ctx, OpRefresh)
}

// Retry repeats the operation that last failed. Without a failure it returns
// the current state.
func (p *Pager) Retry(ctx context.Context) (View, error) {
	p.mu.Lock()
	last := p.lastErr
	p.mu.Unlock()

	if last == nil {
		return p.View(), nil
	}
	return p.load(ctx, last.Op)
}

func (p *Pager) load(ctx context.Context, op Operation) (View, error) {
	p.mu.Lock()
	if p.feedURI == "" {
		p.mu.Unlock()
		return View{}, domain.ErrNoActiveFeed
	}
	if p.inFlight {
		p.mu.Unlock()
		return View{}, domain.ErrLoadInFlight
	}
	feedURI, cursor := p.feedURI, p.cursor
	if op != OpLoadMore {
		cursor = ""
	}
	prevState := p.state
	p.inFlight = true
	p.state = StateLoading
	p.mu.Unlock()

	page, err := p.fetcher.FetchPage(ctx, feedURI, cursor)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.inFlight = false

	if err != nil {
		perr := &PageError{FeedURI: feedURI, Cursor: cursor, Op: op, Err: err}
		if errors.Is(err, context.Canceled) {
			p.state = prevState
		} else {
			p.state = StateError
			p.lastErr = perr
		}
		v := p.viewLocked()
		return v, perr
	}
	p.lastErr = nil

	if op == OpLoadMore {
		p.appendLocked(page)
	} else {
		p.replaceLocked(page)
	}
	return p.viewLocked(), nil
}

func (p *Pager) appendLocked(page Page) {
	fresh := 0
	for _, uri := range page.uris() {
		if _, ok := p.seen[uri]; !ok {
			p.seen[uri] = struct{}{}
			fresh++
		}
	}
	if fresh == 0 {
		p.state = StateEndOfFeed
		return
	}

	have := make(map[string]struct{}, len(p.posts))
	for _, fp := range p.posts {
		have[fp.URI] = struct{}{}
	}
	for _, fp := range page.Posts {
		if _, dup := have[fp.URI]; dup {
			continue
		}
		have[fp.URI] = struct{}{}
		p.posts = append(p.posts, fp)
	}
	p.cursor = page.Cursor
	p.state = stateAfterLoad(page.Cursor)
}

func (p *Pager) replaceLocked(page Page) {
	p.posts = p.posts[:0:0]
	p.seen = make(map[string]struct{})
	for _, uri := range page.uris() {
		p.seen[uri] = struct{}{}
	}
	have := make(map[string]struct{}, len(page.Posts))
	for _, fp := range page.Posts {
		if _, dup := have[fp.URI]; dup {
			continue
		}
		have[fp.URI] = struct{}{}
		p.posts = append(p.posts, fp)
	}
	p.cursor = page.Cursor
	p.anchor = ""
	p.newPosts = false
	p.state = stateAfterLoad(page.Cursor)
}

func stateAfterLoad(cursor string) State {
	if cursor == "" {
		return StateEndOfFeed
	}
	return StateLoaded
}

// SetAnchor records the post the reader is positioned at.
func (p *Pager) SetAnchor(uri string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.anchor = uri
}

// Evict removes a post from the active feed and from every snapshot.
// It reports whether the active feed held the post.
func (p *Pager) Evict(uri string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	for feed, s := range p.snapshots {
		s.Posts = removePost(s.Posts, uri)
		p.snapshots[feed] = s
	}
	n := len(p.posts)
	p.posts = removePost(p.posts, uri)
	if p.anchor == uri {
		p.anchor = ""
	}
	return len(p.posts) != n
}

func removePost(posts []domain.FeedPost, uri string) []domain.FeedPost {
	out := posts[:0]
	for _, fp := range posts {
		if fp.URI != uri {
			out = append(out, fp)
		}
	}
	return out
}

// Replace swaps in an updated version of a post, keeping its feed context.
// It reports whether the post was found in the active feed.
func (p *Pager) Replace(post domain.Post) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	found := false
	for i := range p.posts {
		if p.posts[i].URI == post.URI {
			p.posts[i].Post = post
			found = true
		}
	}
	return found
}

// Contains reports whether the active feed holds a post with uri.
func (p *Pager) Contains(uri string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, fp := range p.posts {
		if fp.URI == uri {
			return true
		}
	}
	return false
}

// MarkNewPosts flags that the active feed has newer posts than its first
// page. Refresh clears the flag.
func (p *Pager) MarkNewPosts() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.feedURI != "" {
		p.newPosts = true
	}
}

func (p *Pager) View() View {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.viewLocked()
}

// FeedURI returns the active feed.
func (p *Pager) FeedURI() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.feedURI
}

// Persist saves the active feed's snapshot to the store, if any.
func (p *Pager) Persist(ctx context.Context) error {
	if p.store == nil {
		return nil
	}
	p.mu.Lock()
	if p.feedURI == "" || len(p.posts) == 0 {
		p.mu.Unlock()
		return nil
	}
	s := p.snapshotLocked()
	p.mu.Unlock()

	if err := p.store.SaveSnapshot(ctx, s); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (p *Pager) persist(ctx context.Context, s domain.FeedSnapshot) {
	if p.store == nil {
		return
	}
	if err := p.store.SaveSnapshot(ctx, s); err != nil {
		p.logger.Warn("failed to save feed snapshot", "feed", s.FeedURI, "error", err)
	}
}

func (p *Pager) viewLocked() View {
	return View{
		FeedURI:  p.feedURI,
		State:    p.state,
		Posts:    append([]domain.FeedPost(nil), p.posts...),
		Cursor:   p.cursor,
		Anchor:   p.anchor,
		NewPosts: p.newPosts,
		Err:      p.lastErr,
	}
}

func (p *Pager) snapshotLocked() domain.FeedSnapshot {
	return domain.FeedSnapshot{
		FeedURI:   p.feedURI,
		Cursor:    p.cursor,
		Anchor:    p.anchor,
		EndOfFeed: p.state == StateEndOfFeed,
		Posts:     append([]domain.FeedPost(nil), p.posts...),
		SavedAt:   p.now(),
	}
}

func (p *Pager) restoreLocked(s domain.FeedSnapshot) {
	p.feedURI = s.FeedURI
	p.cursor = s.Cursor
	p.anchor = s.Anchor
	p.posts = append([]domain.FeedPost(nil), s.Posts...)
	p.seen = make(map[string]struct{}, len(s.Posts))
	for _, fp := range s.Posts {
		p.seen[fp.URI] = struct{}{}
	}
	p.newPosts = false
	p.lastErr = nil
	p.state = StateLoaded
	if s.EndOfFeed {
		p.state = StateEndOfFeed
	}
}

func (p *Pager) resetLocked(feedURI string) {
	p.feedURI = feedURI
	p.cursor = ""
	p.anchor = ""
	p.posts = nil
	p.seen = make(map[string]struct{})
	p.newPosts = false
	p.lastErr = nil
	p.state = StateEmpty
}
