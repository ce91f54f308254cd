// Package redis is a store driver backed by Redis. Codes and tokens carry a
// native TTL so no sweep is needed; reads still check expiry themselves.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aboundTechOlogy/ghl-mcp/internal/bridge/store"
	"github.com/aboundTechOlogy/ghl-mcp/pkg/cryptox"
	goredis "github.com/redis/go-redis/v9"
)

// Default timeouts for Redis operations.
const (
	DefaultDialTimeout  = 5 * time.Second
	DefaultReadTimeout  = 3 * time.Second
	DefaultWriteTimeout = 3 * time.Second

	DefaultKeyPrefix = "ghl-mcp"
)

// Config holds Redis connection configuration.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

type Store struct {
	client goredis.UniversalClient
	prefix string
}

// NewStore dials Redis and verifies the connection.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  DefaultDialTimeout,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewStoreWithClient(client, cfg.KeyPrefix), nil
}

// NewStoreWithClient wraps an existing client. Useful for tests.
func NewStoreWithClient(client goredis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) Close() error { return s.client.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.client.Ping(ctx).Err() }

// ApplyMigrations is a no-op, Redis is schemaless.
func (s *Store) ApplyMigrations() error { return nil }

// Tx returns a pass-through Tx. Each command is atomic on its own and
// Rollback cannot undo writes already sent, so callers order their writes
// with the single-use delete last.
func (s *Store) Tx(ctx context.Context) (store.Tx, error) {
	return &txStore{Store: s}, nil
}

func (s *Store) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx, _ := s.Tx(ctx)
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) Clients() store.Clients                       { return &clientsRepo{s: s} }
func (s *Store) AuthorizationCodes() store.AuthorizationCodes { return &authorizationCodesRepo{s: s} }
func (s *Store) IssuedTokens() store.IssuedTokens             { return &issuedTokensRepo{s: s} }

func (s *Store) clientKey(id string) string { return s.prefix + ":client:" + id }
func (s *Store) codeKey(raw string) string  { return s.prefix + ":code:" + cryptox.FingerprintToken(raw) }
func (s *Store) tokenKey(raw string) string { return s.prefix + ":token:" + cryptox.FingerprintToken(raw) }

func (s *Store) getJSON(ctx context.Context, key string, v any) error {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, goredis.Nil) {
		return store.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("redis decode %s: %w", key, err)
	}
	return nil
}

// setJSON writes v with a TTL derived from expiresAt. Zero expiresAt means
// no TTL. Already-expired records are dropped.
func (s *Store) setJSON(ctx context.Context, key string, v any, expiresAt time.Time) error {
	var ttl time.Duration
	if !expiresAt.IsZero() {
		ttl = time.Until(expiresAt)
		if ttl <= 0 {
			return s.client.Del(ctx, key).Err()
		}
	}

	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("redis encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *Store) del(ctx context.Context, key string) error {
	n, err := s.client.Del(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

type txStore struct {
	*Store
}

func (t *txStore) Commit() error   { return nil }
func (t *txStore) Rollback() error { return nil }
func (t *txStore) Close() error    { return nil } // the parent owns the client
