// Package session is the authenticated context the pipeline runs in. It
// owns the loaded preferences and the feed pager, and exposes the feed,
// post, user and interaction operations of one account.
package session

import (
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/blackmichael/skygazer/internal/domain"
	"github.com/blackmichael/skygazer/internal/fanout"
	"github.com/blackmichael/skygazer/internal/labels"
	"github.com/blackmichael/skygazer/internal/lexicon"
	"github.com/blackmichael/skygazer/internal/pager"
	"github.com/blackmichael/skygazer/internal/richtext"
)

const (
	DefaultPageSize         = 30
	DefaultReconcileTimeout = 15 * time.Second
)

type Options struct {
	// PageSize is the number of items requested per feed page, 1 to 100.
	PageSize int

	// FanoutLimit caps concurrent item processing per page. Zero processes
	// every item of a page at once.
	FanoutLimit int

	// ReconcileTimeout bounds the background write and re-fetch of a like or
	// repost toggle.
	ReconcileTimeout time.Duration

	Locale          language.Tag
	LabelerCacheTTL time.Duration

	// Snapshots, when set, persists feed snapshots across runs.
	Snapshots pager.SnapshotStore

	Logger *slog.Logger
}

// Session binds the pipeline to one authenticated protocol client. It is
// safe for concurrent use.
type Session struct {
	client   domain.ProtocolClient
	labels   *labels.Resolver
	fanout   *fanout.Aggregator
	pager    *pager.Pager
	detector *richtext.Detector
	logger   *slog.Logger

	pageSize         int
	reconcileTimeout time.Duration
	now              func() time.Time

	mu       sync.RWMutex
	prefs    domain.Preferences
	rawPrefs []lexicon.PreferenceItem

	// tracks background reconciliations
	wg sync.WaitGroup
}

func New(client domain.ProtocolClient, opts Options) *Session {
	if opts.PageSize <= 0 || opts.PageSize > 100 {
		opts.PageSize = DefaultPageSize
	}
	if opts.ReconcileTimeout <= 0 {
		opts.ReconcileTimeout = DefaultReconcileTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	resolver := labels.NewResolver(client, labels.Options{
		Locale:   opts.Locale,
		CacheTTL: opts.LabelerCacheTTL,
		Logger:   opts.Logger,
	})
	s := &Session{
		client:           client,
		labels:           resolver,
		fanout:           fanout.New(resolver, fanout.Options{Limit: opts.FanoutLimit, Logger: opts.Logger}),
		detector:         richtext.NewDetector(client, opts.Logger),
		logger:           opts.Logger,
		pageSize:         opts.PageSize,
		reconcileTimeout: opts.ReconcileTimeout,
		now:              time.Now,
	}
	s.pager = pager.New(pager.FetcherFunc(s.GetFeed), pager.Options{
		Store:  opts.Snapshots,
		Logger: opts.Logger,
	})
	return s
}

// DID returns the DID of the authenticated account.
func (s *Session) DID() string {
	return s.client.DID()
}

// Preferences returns a copy of the preferences loaded by LoadPreferences.
func (s *Session) Preferences() domain.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p := s.prefs
	p.Content.Labels = slices.Clone(p.Content.Labels)
	p.Feeds = slices.Clone(p.Feeds)
	p.Labelers = slices.Clone(p.Labelers)
	return p
}

// Pager returns the pager of the active feed.
func (s *Session) Pager() *pager.Pager {
	return s.pager
}

// Labels returns the session's label resolver.
func (s *Session) Labels() *labels.Resolver {
	return s.labels
}

// Wait blocks until background reconciliations have finished.
func (s *Session) Wait() {
	s.wg.Wait()
}
