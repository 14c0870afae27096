package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each session as a JSON value under a TTL key, plus a
// per-identity set of session ids so revocation does not need a scan.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client, prefix: "session:"}
}

func (r *RedisStore) key(id string) string { return r.prefix + id }

func (r *RedisStore) indexKey(identityID string) string {
	return "identity_sessions:" + identityID
}

func (r *RedisStore) Create(ctx context.Context, s Session) error {
	if s.ID == "" || s.IdentityID == "" {
		return fmt.Errorf("auth: session missing id or identity")
	}
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("auth: session expires_at must be in the future")
	}
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("auth: marshal session: %w", err)
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, r.key(s.ID), data, ttl)
		p.SAdd(ctx, r.indexKey(s.IdentityID), s.ID)
		// sessions share one TTL, so the newest one outlives the rest
		p.Expire(ctx, r.indexKey(s.IdentityID), ttl)
		return nil
	})
	return err
}

func (r *RedisStore) Get(ctx context.Context, id string) (*Session, error) {
	val, err := r.client.Get(ctx, r.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s Session
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, fmt.Errorf("auth: unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	s, err := r.Get(ctx, id)
	if errors.Is(err, ErrSessionNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.key(id))
		p.SRem(ctx, r.indexKey(s.IdentityID), id)
		return nil
	})
	return err
}

func (r *RedisStore) DeleteByIdentity(ctx context.Context, identityID string) error {
	ids, err := r.client.SMembers(ctx, r.indexKey(identityID)).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return err
	}
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, r.key(id))
	}
	keys = append(keys, r.indexKey(identityID))
	return r.client.Del(ctx, keys...).Err()
}
