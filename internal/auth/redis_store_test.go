package auth

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client), mr
}

func TestRedisStore_CreateGetDelete(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	sess := Session{ID: "s1", IdentityID: "i1", Email: "ana@example.com", ExpiresAt: time.Now().Add(time.Hour)}

	require.NoError(t, s.Create(ctx, sess))
	assert.True(t, mr.Exists("session:s1"))

	got, err := s.Get(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "i1", got.IdentityID)
	assert.Equal(t, "ana@example.com", got.Email)

	require.NoError(t, s.Delete(ctx, "s1"))
	_, err = s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	// deleting twice is not an error
	assert.NoError(t, s.Delete(ctx, "s1"))
}

func TestRedisStore_RejectsInvalidSessions(t *testing.T) {
	s, _ := newTestRedisStore(t)
	ctx := context.Background()
	assert.Error(t, s.Create(ctx, Session{IdentityID: "i1", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.Error(t, s.Create(ctx, Session{ID: "s1", IdentityID: "i1", ExpiresAt: time.Now().Add(-time.Second)}))
}

func TestRedisStore_ExpiresWithTTL(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, Session{ID: "s1", IdentityID: "i1", ExpiresAt: time.Now().Add(time.Minute)}))

	mr.FastForward(2 * time.Minute)

	_, err := s.Get(ctx, "s1")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestRedisStore_DeleteByIdentity(t *testing.T) {
	s, mr := newTestRedisStore(t)
	ctx := context.Background()
	exp := time.Now().Add(time.Hour)
	require.NoError(t, s.Create(ctx, Session{ID: "a", IdentityID: "i1", ExpiresAt: exp}))
	require.NoError(t, s.Create(ctx, Session{ID: "b", IdentityID: "i1", ExpiresAt: exp}))
	require.NoError(t, s.Create(ctx, Session{ID: "c", IdentityID: "i2", ExpiresAt: exp}))

	require.NoError(t, s.DeleteByIdentity(ctx, "i1"))

	for _, id := range []string{"a", "b"} {
		_, err := s.Get(ctx, id)
		assert.ErrorIs(t, err, ErrSessionNotFound, "session %s", id)
	}
	_, err := s.Get(ctx, "c")
	assert.NoError(t, err)
	assert.False(t, mr.Exists("identity_sessions:i1"))

	// revoking an identity without sessions is a no-op
	assert.NoError(t, s.DeleteByIdentity(ctx, "nobody"))
}
