package credentials

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/blackmichael/skygazer/internal/domain"
)

func TestMemory(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	_, err := m.Retrieve(ctx, "alice.test")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)

	require.NoError(t, m.Save(ctx, domain.Credentials{Handle: "Alice.test", Password: "pw"}))
	got, err := m.Retrieve(ctx, "@alice.test")
	require.NoError(t, err)
	assert.Equal(t, "pw", got.Password)

	require.NoError(t, m.Delete(ctx, "alice.test"))
	assert.ErrorIs(t, m.Delete(ctx, "alice.test"), domain.ErrCredentialNotFound)
	assert.Error(t, m.Save(ctx, domain.Credentials{}))
}

func envFrom(vars map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := vars[k]
		return v, ok
	}
}

func TestEnv_Retrieve(t *testing.T) {
	tests := []struct {
		name     string
		env      map[string]string
		handle   string
		want     string
		notFound bool
	}{
		{
			name:   "password without handle applies to any handle",
			env:    map[string]string{EnvPassword: "env-pw"},
			handle: "alice.test",
			want:   "env-pw",
		},
		{
			name:   "matching handle",
			env:    map[string]string{EnvPassword: "env-pw", EnvHandle: "ALICE.test"},
			handle: "alice.test",
			want:   "env-pw",
		},
		{
			name:   "other handle falls back",
			env:    map[string]string{EnvPassword: "env-pw", EnvHandle: "bob.test"},
			handle: "alice.test",
			want:   "stored-pw",
		},
		{
			name:     "no env and nothing stored",
			env:      map[string]string{},
			handle:   "carol.test",
			notFound: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fallback := NewMemory()
			require.NoError(t, fallback.Save(context.Background(), domain.Credentials{Handle: "alice.test", Password: "stored-pw"}))
			e := &Env{lookup: envFrom(tt.env), fallback: fallback}

			got, err := e.Retrieve(context.Background(), tt.handle)
			if tt.notFound {
				assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.handle, got.Handle)
			assert.Equal(t, tt.want, got.Password)
		})
	}
}

func TestEnv_ReadOnly(t *testing.T) {
	e := &Env{lookup: envFrom(nil)}
	ctx := context.Background()

	assert.Error(t, e.Save(ctx, domain.Credentials{Handle: "alice.test"}))
	assert.Error(t, e.Delete(ctx, "alice.test"))
	_, err := e.Retrieve(ctx, "alice.test")
	assert.ErrorIs(t, err, domain.ErrCredentialNotFound)
}
