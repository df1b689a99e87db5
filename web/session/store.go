package session

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "blog:session:"

// ErrSessionInvalid means the token has no live record. It never leaves this
// package's callers: they see an anonymous identity instead.
var ErrSessionInvalid = errors.New("session invalid")

// Record is what the server remembers about a session.
type Record struct {
	UserID    int       `json:"uid"`
	CreatedAt time.Time `json:"created"`
	ExpiresAt time.Time `json:"expires"`
}

// Store persists session records with a time-to-live.
type Store interface {
	Save(ctx context.Context, token Token, rec Record, ttl time.Duration) error
	Load(ctx context.Context, token Token) (Record, error)
	Touch(ctx context.Context, token Token, ttl time.Duration) error
	Delete(ctx context.Context, token Token) error
}

// RedisStore keeps one JSON value per session whose key expiry implements the
// idle timeout.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func (s *RedisStore) key(token Token) string {
	return keyPrefix + string(token)
}

func (s *RedisStore) Save(ctx context.Context, token Token, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.key(token), data, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("session: token collision")
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, token Token) (Record, error) {
	var rec Record
	data, err := s.client.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return rec, ErrSessionInvalid
	}
	if err != nil {
		return rec, err
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return rec, ErrSessionInvalid
	}
	return rec, nil
}

func (s *RedisStore) Touch(ctx context.Context, token Token, ttl time.Duration) error {
	ok, err := s.client.Expire(ctx, s.key(token), ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrSessionInvalid
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, token Token) error {
	return s.client.Del(ctx, s.key(token)).Err()
}
