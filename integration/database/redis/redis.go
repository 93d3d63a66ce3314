package redis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Connect parses cfg.ConnectionURL, then pings the server until it answers,
// cfg.RetryAttempts is exhausted or cfg.ConnectTimeout passes. The wait
// between attempts doubles each time.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if strings.TrimSpace(cfg.ConnectionURL) == "" {
		return nil, ErrEmptyConnectionURL
	}
	opts, err := redis.ParseURL(cfg.ConnectionURL)
	if err != nil {
		return nil, errors.Join(ErrFailedToParseRedisConnString, err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(opts)
	attempts := max(cfg.RetryAttempts, 1)
	interval := cfg.RetryInterval

	var pingErr error
	for attempt := range attempts {
		if pingErr = client.Ping(ctx).Err(); pingErr == nil {
			return client, nil
		}
		if attempt == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			_ = client.Close()
			return nil, errors.Join(ErrRedisNotReady, ctx.Err(), pingErr)
		case <-time.After(interval):
		}
		interval *= 2
	}
	_ = client.Close()
	return nil, errors.Join(ErrRedisNotReady, pingErr)
}

// Healthcheck returns a readiness check that pings the server.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		return nil
	}
}

// Store keeps constraint documents in one hash: field = document name,
// value = raw document. It implements ingest.Source, so a hash written by
// one process can feed the registries of many.
type Store struct {
	client    redis.UniversalClient
	key       string
	batchSize int64
}

// NewStore creates a Store over cfg.DocumentsKey.
func NewStore(client redis.UniversalClient, cfg Config) *Store {
	key := cfg.DocumentsKey
	if key == "" {
		key = "dimreg:constraints"
	}
	batch := int64(cfg.ScanBatchSize)
	if batch <= 0 {
		batch = 1000
	}
	return &Store{client: client, key: key, batchSize: batch}
}

// Key returns the hash key.
func (s *Store) Key() string { return s.key }

// List returns every document name in the hash, in HSCAN order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	var (
		names  []string
		cursor uint64
	)
	for {
		kv, next, err := s.client.HScan(ctx, s.key, cursor, "", s.batchSize).Result()
		if err != nil {
			return nil, fmt.Errorf("redis: scan %s: %w", s.key, err)
		}
		// HSCAN returns field, value pairs.
		for i := 0; i < len(kv); i += 2 {
			names = append(names, kv[i])
		}
		if next == 0 {
			return names, nil
		}
		cursor = next
	}
}

// Fetch returns one document.
func (s *Store) Fetch(ctx context.Context, name string) ([]byte, error) {
	if name == "" {
		return nil, ErrEmptyDocumentName
	}
	raw, err := s.client.HGet(ctx, s.key, name).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", ErrDocumentNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("redis: get %s: %w", name, err)
	}
	return raw, nil
}

// Put writes or replaces a document.
func (s *Store) Put(ctx context.Context, name string, raw []byte) error {
	if name == "" {
		return ErrEmptyDocumentName
	}
	if err := s.client.HSet(ctx, s.key, name, raw).Err(); err != nil {
		return fmt.Errorf("redis: put %s: %w", name, err)
	}
	return nil
}

// Delete removes a document. It reports whether the document existed.
func (s *Store) Delete(ctx context.Context, name string) (bool, error) {
	n, err := s.client.HDel(ctx, s.key, name).Result()
	if err != nil {
		return false, fmt.Errorf("redis: delete %s: %w", name, err)
	}
	return n > 0, nil
}
