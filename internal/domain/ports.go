package domain

import (
	"context"
	"time"

	"github.com/blackmichael/skygazer/internal/lexicon"
)

// LabelClient fetches labels and labeler policies.
type LabelClient interface {
	// QueryLabels returns the labels on subjects matching uriPatterns issued
	// by any of sources.
	QueryLabels(ctx context.Context, uriPatterns, sources []string) ([]lexicon.Label, error)

	// GetLabelerServices returns labeler views for the given DIDs. With
	// detailed set, views carry their label value definitions.
	GetLabelerServices(ctx context.Context, dids []string, detailed bool) ([]lexicon.LabelerServiceView, error)
}

// FeedClient fetches feed pages and hydrated posts. Cursors are opaque; an
// empty cursor requests the first page.
type FeedClient interface {
	GetTimeline(ctx context.Context, cursor string, limit int) (*lexicon.FeedPage, error)
	GetFeed(ctx context.Context, feedURI, cursor string, limit int) (*lexicon.FeedPage, error)
	GetPosts(ctx context.Context, uris []string) ([]lexicon.PostView, error)
	GetFeedGenerator(ctx context.Context, feedURI string) (*lexicon.GeneratorView, error)
}

type ActorClient interface {
	GetProfile(ctx context.Context, actor string) (*lexicon.ProfileViewDetailed, error)
	ResolveHandle(ctx context.Context, handle string) (string, error)
	MuteActor(ctx context.Context, actor string) error
	UnmuteActor(ctx context.Context, actor string) error
	GetPreferences(ctx context.Context) ([]lexicon.PreferenceItem, error)
	PutPreferences(ctx context.Context, prefs []lexicon.PreferenceItem) error
}

// RecordClient writes to the authenticated repo.
type RecordClient interface {
	// CreateRecord creates a record in collection and returns its reference.
	CreateRecord(ctx context.Context, collection string, record any) (*lexicon.StrongRef, error)

	// DeleteRecord deletes the record at the given AT-URI.
	DeleteRecord(ctx context.Context, uri string) error

	CreateBookmark(ctx context.Context, uri, cid string) error
	DeleteBookmark(ctx context.Context, uri string) error
}

// ProtocolClient is the full set of protocol operations the pipeline uses.
type ProtocolClient interface {
	LabelClient
	FeedClient
	ActorClient
	RecordClient

	// DID returns the DID of the authenticated account.
	DID() string
}

// CredentialStore keeps account secrets keyed by handle.
type CredentialStore interface {
	Save(ctx context.Context, creds Credentials) error
	Retrieve(ctx context.Context, handle string) (Credentials, error)
	Delete(ctx context.Context, handle string) error
}

// AccountRepository persists the locally saved account list.
type AccountRepository interface {
	ListAccounts(ctx context.Context) ([]Account, error)

	// SaveAccount returns ErrAccountExists if the handle is already saved.
	SaveAccount(ctx context.Context, account Account) error

	GetAccount(ctx context.Context, handle string) (*Account, error)
	UpdateAccount(ctx context.Context, handle string, account Account) error
	DeleteAccount(ctx context.Context, handle string) error
}

// SnapshotRepository persists per-feed pager snapshots.
type SnapshotRepository interface {
	// LoadSnapshot returns nil if no snapshot is saved for feedURI.
	LoadSnapshot(ctx context.Context, feedURI string) (*FeedSnapshot, error)

	SaveSnapshot(ctx context.Context, snapshot FeedSnapshot) error

	// DeleteOldSnapshots removes snapshots saved before now minus maxAge.
	// Returns the number of rows deleted.
	DeleteOldSnapshots(ctx context.Context, maxAge time.Duration) (int64, error)
}

// CursorRepository persists stream cursors so a watcher can resume where it
// stopped.
type CursorRepository interface {
	// GetCursor returns 0 if no cursor is saved for service.
	GetCursor(ctx context.Context, service string) (int64, error)
	UpdateCursor(ctx context.Context, service string, cursor int64) error
}
