// Package store persists saved accounts, feed snapshots and stream cursors
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/blackmichael/skygazer/internal/domain"
	_ "modernc.org/sqlite"
)

var (
	_ domain.AccountRepository  = (*Repository)(nil)
	_ domain.SnapshotRepository = (*Repository)(nil)
	_ domain.CursorRepository   = (*Repository)(nil)
)

const schema = `
CREATE TABLE IF NOT EXISTS accounts (
	handle   TEXT PRIMARY KEY,
	pds      TEXT NOT NULL DEFAULT '',
	added_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS feed_snapshots (
	feed_uri    TEXT PRIMARY KEY,
	cursor      TEXT NOT NULL DEFAULT '',
	anchor      TEXT NOT NULL DEFAULT '',
	end_of_feed INTEGER NOT NULL DEFAULT 0,
	posts       BLOB NOT NULL,
	saved_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_feed_snapshots_saved_at ON feed_snapshots(saved_at);

CREATE TABLE IF NOT EXISTS cursors (
	service      TEXT PRIMARY KEY,
	cursor_value INTEGER NOT NULL,
	updated_at   INTEGER NOT NULL
);
`

// Repository implements the account, snapshot and cursor repositories
// using SQLite.
type Repository struct {
	db  *sql.DB
	now func() time.Time
}

// NewRepository opens the SQLite database at path and creates the schema.
// Use ":memory:" for an in-memory database. The caller should call Close
// when the repository is no longer needed.
func NewRepository(path string) (*Repository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// one connection keeps ":memory:" databases shared and writes serialized
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Repository{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) ListAccounts(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT handle, pds, added_at FROM accounts ORDER BY added_at, handle`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate accounts: %w", err)
	}
	return accounts, nil
}

// SaveAccount inserts a new account. AddedAt defaults to now.
func (r *Repository) SaveAccount(ctx context.Context, account domain.Account) error {
	if account.AddedAt.IsZero() {
		account.AddedAt = r.now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO accounts (handle, pds, added_at)
		VALUES (?, ?, ?)
		ON CONFLICT (handle) DO NOTHING`,
		account.Handle, account.PDS, account.AddedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert account %s: %w", account.Handle, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("save account %s: %w", account.Handle, domain.ErrAccountExists)
	}
	return nil
}

func (r *Repository) GetAccount(ctx context.Context, handle string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `SELECT handle, pds, added_at FROM accounts WHERE handle = ?`, handle)
	a, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get account %s: %w", handle, domain.ErrAccountNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// UpdateAccount replaces the account saved under handle, which may rename
// it. The original AddedAt is kept.
func (r *Repository) UpdateAccount(ctx context.Context, handle string, account domain.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET handle = ?, pds = ? WHERE handle = ?`,
		account.Handle, account.PDS, handle,
	)
	if err != nil {
		return fmt.Errorf("update account %s: %w", handle, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update account %s: %w", handle, domain.ErrAccountNotFound)
	}
	return nil
}

func (r *Repository) DeleteAccount(ctx context.Context, handle string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE handle = ?`, handle)
	if err != nil {
		return fmt.Errorf("delete account %s: %w", handle, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete account %s: %w", handle, domain.ErrAccountNotFound)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanAccount(s scanner) (domain.Account, error) {
	var (
		a       domain.Account
		addedAt int64
	)
	if err := s.Scan(&a.Handle, &a.PDS, &addedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan account: %w", err)
	}
	a.AddedAt = time.UnixMilli(addedAt).UTC()
	return a, nil
}

// LoadSnapshot returns the saved snapshot for feedURI, or nil if none.
func (r *Repository) LoadSnapshot(ctx context.Context, feedURI string) (*domain.FeedSnapshot, error) {
	var (
		s       domain.FeedSnapshot
		posts   []byte
		savedAt int64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT feed_uri, cursor, anchor, end_of_feed, posts, saved_at
		FROM feed_snapshots WHERE feed_uri = ?`, feedURI,
	).Scan(&s.FeedURI, &s.Cursor, &s.Anchor, &s.EndOfFeed, &posts, &savedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query snapshot %s: %w", feedURI, err)
	}

	if err := json.Unmarshal(posts, &s.Posts); err != nil {
		return nil, fmt.Errorf("decode snapshot %s: %w: %w", feedURI, domain.ErrUndecodable, err)
	}
	s.SavedAt = time.UnixMilli(savedAt).UTC()
	return &s, nil
}

// SaveSnapshot upserts the snapshot for its feed. SavedAt defaults to now.
func (r *Repository) SaveSnapshot(ctx context.Context, s domain.FeedSnapshot) error {
	posts, err := json.Marshal(s.Posts)
	if err != nil {
		return fmt.Errorf("encode snapshot %s: %w", s.FeedURI, err)
	}
	if s.SavedAt.IsZero() {
		s.SavedAt = r.now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO feed_snapshots (feed_uri, cursor, anchor, end_of_feed, posts, saved_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (feed_uri) DO UPDATE SET
			cursor = excluded.cursor,
			anchor = excluded.anchor,
			end_of_feed = excluded.end_of_feed,
			posts = excluded.posts,
			saved_at = excluded.saved_at`,
		s.FeedURI, s.Cursor, s.Anchor, s.EndOfFeed, posts, s.SavedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert snapshot %s: %w", s.FeedURI, err)
	}
	return nil
}

// DeleteOldSnapshots removes snapshots saved more than maxAge ago. Returns
// the number of rows deleted.
func (r *Repository) DeleteOldSnapshots(ctx context.Context, maxAge time.Duration) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM feed_snapshots WHERE saved_at < ?`,
		r.now().Add(-maxAge).UnixMilli(),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired snapshots: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// GetCursor retrieves the saved stream cursor for a service.
func (r *Repository) GetCursor(ctx context.Context, service string) (int64, error) {
	var cursor int64
	err := r.db.QueryRowContext(ctx,
		`SELECT cursor_value FROM cursors WHERE service = ?`, service,
	).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("query cursor %s: %w", service, err)
	}
	return cursor, nil
}

// UpdateCursor upserts the stream cursor for a service.
func (r *Repository) UpdateCursor(ctx context.Context, service string, cursor int64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cursors (service, cursor_value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT (service) DO UPDATE SET cursor_value = excluded.cursor_value, updated_at = excluded.updated_at`,
		service, cursor, r.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("upsert cursor %s: %w", service, err)
	}
	return nil
}
