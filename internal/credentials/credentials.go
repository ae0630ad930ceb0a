// Package credentials provides credential stores keyed by handle.
package credentials

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/blackmichael/skygazer/internal/domain"
)

var (
	_ domain.CredentialStore = (*Memory)(nil)
	_ domain.CredentialStore = (*Env)(nil)
)

// Memory keeps credentials for the life of the process.
type Memory struct {
	mu    sync.RWMutex
	creds map[string]domain.Credentials
}

func NewMemory() *Memory {
	return &Memory{creds: make(map[string]domain.Credentials)}
}

func (m *Memory) Save(_ context.Context, creds domain.Credentials) error {
	if creds.Handle == "" {
		return errors.New("save credentials: empty handle")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.creds[normalize(creds.Handle)] = creds
	return nil
}

func (m *Memory) Retrieve(_ context.Context, handle string) (domain.Credentials, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.creds[normalize(handle)]
	if !ok {
		return domain.Credentials{}, fmt.Errorf("retrieve credentials for %s: %w", handle, domain.ErrCredentialNotFound)
	}
	return c, nil
}

func (m *Memory) Delete(_ context.Context, handle string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := normalize(handle)
	if _, ok := m.creds[key]; !ok {
		return fmt.Errorf("delete credentials for %s: %w", handle, domain.ErrCredentialNotFound)
	}
	delete(m.creds, key)
	return nil
}

const (
	EnvHandle   = "BLUESKY_HANDLE"
	EnvPassword = "BLUESKY_APP_PASSWORD"
)

// Env serves the app password from BLUESKY_APP_PASSWORD for the handle in
// BLUESKY_HANDLE, or for any handle when BLUESKY_HANDLE is unset. Other
// handles and all writes go to the fallback store.
type Env struct {
	lookup   func(string) (string, bool)
	fallback domain.CredentialStore
}

// NewEnv returns an Env reading the process environment. fallback may be
// nil, which makes the store read-only.
func NewEnv(fallback domain.CredentialStore) *Env {
	return &Env{lookup: os.LookupEnv, fallback: fallback}
}

func (e *Env) Save(ctx context.Context, creds domain.Credentials) error {
	if e.fallback == nil {
		return errors.New("save credentials: environment store is read-only")
	}
	return e.fallback.Save(ctx, creds)
}

func (e *Env) Retrieve(ctx context.Context, handle string) (domain.Credentials, error) {
	password, ok := e.lookup(EnvPassword)
	if ok && password != "" {
		envHandle, _ := e.lookup(EnvHandle)
		if envHandle == "" || normalize(envHandle) == normalize(handle) {
			return domain.Credentials{Handle: handle, Password: password}, nil
		}
	}
	if e.fallback == nil {
		return domain.Credentials{}, fmt.Errorf("retrieve credentials for %s: %w", handle, domain.ErrCredentialNotFound)
	}
	return e.fallback.Retrieve(ctx, handle)
}

func (e *Env) Delete(ctx context.Context, handle string) error {
	if e.fallback == nil {
		return errors.New("delete credentials: environment store is read-only")
	}
	return e.fallback.Delete(ctx, handle)
}

// normalize makes handle lookups case-insensitive and ignores a leading @.
func normalize(handle string) string {
	return strings.ToLower(strings.TrimPrefix(handle, "@"))
}
