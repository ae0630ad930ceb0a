// Package firehose watches Jetstream for posts by the authors of the open
// feed. New posts mark the feed as having new posts available; deleted
// posts are evicted from it.
package firehose

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/lexicon"
)

const (
	DefaultURL = "wss://jetstream2.us-east.bsky.network/subscribe"

	cursorServiceName  = "jetstream"
	cursorSaveInterval = 5 * time.Second
	statsInterval      = 30 * time.Second
	defaultBackoff     = 5 * time.Second

	// maxWantedDIDs is the Jetstream limit on wantedDids.
	maxWantedDIDs = 10000
)

// wantedCollections is the set of AT Proto collection NSIDs this subscriber
// requests from Jetstream.
var wantedCollections = []string{
	lexicon.TypeFeedPost,
}

// Sink receives the changes that affect the open feed. *pager.Pager
// implements it.
type Sink interface {
	MarkNewPosts()
	Evict(uri string) bool
}

type Options struct {
	// Cursors, when set, persists the stream position so a restart resumes
	// where the last connection stopped.
	Cursors domain.CursorRepository

	Dialer  *websocket.Dialer
	Backoff time.Duration
	Logger  *slog.Logger
}

// Subscriber connects to Jetstream and applies post events to a Sink. It
// stays idle while no authors are set, since an unfiltered subscription
// receives the whole network.
type Subscriber struct {
	url     string
	sink    Sink
	cursors domain.CursorRepository
	dialer  *websocket.Dialer
	backoff time.Duration
	logger  *slog.Logger

	mu      sync.Mutex
	authors map[string]bool
	changed chan struct{}
}

func NewSubscriber(firehoseURL string, sink Sink, opts Options) *Subscriber {
	if firehoseURL == "" {
		firehoseURL = DefaultURL
	}
	if opts.Dialer == nil {
		opts.Dialer = websocket.DefaultDialer
	}
	if opts.Backoff <= 0 {
		opts.Backoff = defaultBackoff
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Subscriber{
		url:     firehoseURL,
		sink:    sink,
		cursors: opts.Cursors,
		dialer:  opts.Dialer,
		backoff: opts.Backoff,
		logger:  opts.Logger,
		authors: make(map[string]bool),
		changed: make(chan struct{}, 1),
	}
}

// Authors returns the distinct author DIDs of posts, in feed order.
func Authors(posts []domain.FeedPost) []string {
	seen := make(map[string]bool, len(posts))
	var out []string
	for _, fp := range posts {
		did := fp.Author.DID
		if did == "" || seen[did] {
			continue
		}
		seen[did] = true
		out = append(out, did)
	}
	return out
}

// SetAuthors replaces the set of authors to watch. A live connection picks
// up the change without reconnecting. Authors past the Jetstream limit are
// ignored.
func (s *Subscriber) SetAuthors(dids []string) {
	if len(dids) > maxWantedDIDs {
		dids = dids[:maxWantedDIDs]
	}
	set := make(map[string]bool, len(dids))
	for _, did := range dids {
		set[did] = true
	}

	s.mu.Lock()
	s.authors = set
	s.mu.Unlock()

	select {
	case s.changed <- struct{}{}:
	default:
	}
}

func (s *Subscriber) wantedDIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	dids := make([]string, 0, len(s.authors))
	for did := range s.authors {
		dids = append(dids, did)
	}
	slices.Sort(dids)
	return dids
}

func (s *Subscriber) watching(did string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authors[did]
}

// Start connects to the firehose and processes events until the context is
// cancelled. It automatically reconnects on transient errors.
func (s *Subscriber) Start(ctx context.Context) error {
	for {
		if len(s.wantedDIDs()) == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-s.changed:
				continue
			}
		}

		if err := s.subscribe(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			reconnects.Inc()
			s.logger.Error("firehose connection error, reconnecting", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff):
				// backoff before reconnecting
			}
		}
	}
}

func (s *Subscriber) buildURL(dids []string, cursor int64) (string, error) {
	u, err := url.Parse(s.url)
	if err != nil {
		return "", fmt.Errorf("parse firehose url: %w", err)
	}
	q := u.Query()
	for _, c := range wantedCollections {
		q.Add("wantedCollections", c)
	}
	for _, did := range dids {
		q.Add("wantedDids", did)
	}
	if cursor > 0 {
		q.Set("cursor", strconv.FormatInt(cursor, 10))
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (s *Subscriber) loadCursor(ctx context.Context) int64 {
	if s.cursors == nil {
		return 0
	}
	cursor, err := s.cursors.GetCursor(ctx, cursorServiceName)
	if err != nil {
		s.logger.Warn("failed to load cursor, starting from live", "error", err)
		return 0
	}
	return cursor
}

func (s *Subscriber) saveCursor(ctx context.Context, cursor int64) bool {
	if s.cursors == nil || cursor == 0 {
		return true
	}
	if err := s.cursors.UpdateCursor(ctx, cursorServiceName, cursor); err != nil {
		s.logger.Error("failed to save cursor", "error", err)
		return false
	}
	return true
}

func (s *Subscriber) subscribe(ctx context.Context) error {
	// drain a pending change; the dial below uses the current authors
	select {
	case <-s.changed:
	default:
	}

	dids := s.wantedDIDs()
	wsURL, err := s.buildURL(dids, s.loadCursor(ctx))
	if err != nil {
		return err
	}
	s.logger.Info("connecting to firehose", "url", s.url, "authors", len(dids))

	conn, _, err := s.dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("dial firehose: %w", err)
	}
	defer conn.Close()

	s.logger.Info("connected to firehose")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go s.writeLoop(ctx, conn)

	lastCursorSave := time.Now()
	var latestCursor int64
	defer func() {
		s.saveCursor(context.WithoutCancel(ctx), latestCursor)
	}()

	var received, created, deleted int64
	lastStatsLog := time.Now()

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if len(s.wantedDIDs()) == 0 {
				return nil
			}
			return fmt.Errorf("read message: %w", err)
		}

		event, err := parseEvent(message)
		if err != nil {
			s.logger.Error("failed to parse event", "error", err)
			continue
		}

		received++
		eventsReceived.WithLabelValues(event.Kind).Inc()
		latestCursor = event.TimeUS

		if event.Kind == kindCommit && event.Commit != nil {
			switch s.handleCommit(event) {
			case opCreate:
				created++
			case opDelete:
				deleted++
			}
		}

		if time.Since(lastStatsLog) >= statsInterval {
			s.logger.Info("firehose stats",
				"events_received", received,
				"posts_created", created,
				"posts_deleted", deleted,
			)
			lastStatsLog = time.Now()
		}

		if time.Since(lastCursorSave) >= cursorSaveInterval {
			if s.saveCursor(ctx, latestCursor) {
				lastCursorSave = time.Now()
			}
		}
	}
}

// writeLoop owns the write side of conn. It sends filter updates and closes
// conn when ctx is done so the blocked read returns.
func (s *Subscriber) writeLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		select {
		case <-ctx.Done():
			conn.Close()
			return
		case <-s.changed:
			dids := s.wantedDIDs()
			if len(dids) == 0 {
				// an empty filter would subscribe to everything
				s.logger.Info("no authors left to watch, disconnecting")
				conn.Close()
				return
			}
			update := optionsUpdate{
				Type: "options_update",
				Payload: optionsPayload{
					WantedCollections: wantedCollections,
					WantedDIDs:        dids,
				},
			}
			if err := conn.WriteJSON(update); err != nil {
				s.logger.Error("failed to update firehose filter", "error", err)
				conn.Close()
				return
			}
			s.logger.Debug("updated firehose filter", "authors", len(dids))
		}
	}
}

// handleCommit applies a post commit to the sink and returns the operation
// it applied, or "" when the commit was ignored.
func (s *Subscriber) handleCommit(event *jetstreamEvent) string {
	commit := event.Commit
	if commit.Collection != lexicon.TypeFeedPost || !s.watching(event.DID) {
		return ""
	}

	switch commit.Operation {
	case opCreate:
		if commit.Record == nil {
			return ""
		}
		s.sink.MarkNewPosts()
		postsHandled.WithLabelValues(opCreate).Inc()
		s.logger.Debug("new post in open feed", "uri", commit.URI(event.DID))
		return opCreate

	case opDelete:
		uri := commit.URI(event.DID)
		if s.sink.Evict(uri) {
			postsHandled.WithLabelValues(opDelete).Inc()
			s.logger.Debug("evicted deleted post", "uri", uri)
		}
		return opDelete

	default:
		return ""
	}
}
