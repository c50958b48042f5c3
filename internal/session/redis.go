package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

const keyPrefix = "outreach:session:"

// RedisStore keeps drafts as JSON values that expire after ttl.
type RedisStore struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// RedisOptions configures NewRedisClient.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
}

// NewRedisClient builds a client with the pool settings used across services.
func NewRedisClient(opts RedisOptions) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// NewRedisStore wraps client. A non-positive ttl keeps drafts forever.
func NewRedisStore(client redis.UniversalClient, ttl time.Duration) *RedisStore {
	if ttl < 0 {
		ttl = 0
	}
	return &RedisStore{client: client, ttl: ttl}
}

func key(id string) string { return keyPrefix + id }

// Ping checks the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	return eris.Wrap(r.client.Ping(ctx).Err(), "session: redis ping")
}

func (r *RedisStore) Save(ctx context.Context, s State) error {
	if s.ID == "" {
		return eris.New("session: save: empty id")
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	data, err := json.Marshal(s)
	if err != nil {
		return eris.Wrap(err, "session: marshal")
	}
	return eris.Wrapf(r.client.Set(ctx, key(s.ID), data, r.ttl).Err(), "session: save %s", s.ID)
}

func (r *RedisStore) Load(ctx context.Context, id string) (*State, error) {
	data, err := r.client.Get(ctx, key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, eris.Wrapf(ErrNotFound, "session: load %s", id)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "session: load %s", id)
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, eris.Wrapf(err, "session: decode %s", id)
	}
	return &s, nil
}

func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return eris.Wrapf(r.client.Del(ctx, key(id)).Err(), "session: clear %s", id)
}
