package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
)

// RedisStore implements CaseStore on Redis, for deployments where the
// backend runs more than one replica behind a balancer. Cases expire after
// the configured TTL so abandoned sessions clean themselves up.
type RedisStore struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithTTL sets the expiration for stored cases. Zero disables expiry.
func WithTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		s.ttl = ttl
	}
}

// WithPrefix sets the key prefix for stored cases.
func WithPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		s.prefix = prefix
	}
}

// NewRedisStore connects to the given Redis instance.
func NewRedisStore(address, password string, db int, opts ...RedisOption) *RedisStore {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisStoreFromClient(client, opts...)
}

// NewRedisStoreFromClient wraps an existing client; tests inject miniredis here.
func NewRedisStoreFromClient(client *backend.Client, opts ...RedisOption) *RedisStore {
	store := &RedisStore{
		client: client,
		prefix: "friendship-court:case:",
		ttl:    24 * time.Hour,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

func (s *RedisStore) key(id string) string {
	return s.prefix + id
}

// Save persists the case as JSON under its id.
func (s *RedisStore) Save(ctx context.Context, c *Case) error {
	if c == nil || c.ID == "" {
		return errors.New("case id required")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	if err := s.client.Set(ctx, s.key(c.ID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save case: %w", err)
	}
	return nil
}

// Update writes the case only if the key is still present, ErrCaseNotFound
// otherwise. SET XX keeps the existence check and the write atomic.
func (s *RedisStore) Update(ctx context.Context, c *Case) error {
	if c == nil || c.ID == "" {
		return errors.New("case id required")
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal case: %w", err)
	}
	set, err := s.client.SetXX(ctx, s.key(c.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("update case: %w", err)
	}
	if !set {
		return ErrCaseNotFound
	}
	return nil
}

// Load fetches the case by id, ErrCaseNotFound when absent or expired.
func (s *RedisStore) Load(ctx context.Context, id string) (*Case, error) {
	value, err := s.client.Get(ctx, s.key(id)).Result()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, ErrCaseNotFound
		}
		return nil, fmt.Errorf("load case: %w", err)
	}
	var c Case
	if err := json.Unmarshal([]byte(value), &c); err != nil {
		return nil, fmt.Errorf("unmarshal case: %w", err)
	}
	return &c, nil
}

// Delete discards the case; deleting an unknown id is not an error.
func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, s.key(id)).Err()
}

// Close releases the underlying connection pool.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
