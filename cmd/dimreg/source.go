package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/dimreg/core/config"
	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/integration/database/mongo"
	"github.com/dmitrymomot/dimreg/integration/database/pg"
	"github.com/dmitrymomot/dimreg/integration/database/redis"
	"github.com/dmitrymomot/dimreg/integration/source/fsdir"
	"github.com/dmitrymomot/dimreg/integration/storage/s3"
)

var errUnknownSource = errors.New("unknown document source")

// documentSource is the configured ingest.Source with its readiness checks
// and cleanup. dir is set only for the filesystem source, which can be watched.
type documentSource struct {
	source ingest.Source
	dir    *fsdir.Source
	checks []func(context.Context) error
	close  func()
}

func openSource(ctx context.Context, s settings, log *slog.Logger) (*documentSource, error) {
	log = log.With(slog.String("source", s.Source))

	switch s.Source {
	case "fs":
		dir, err := fsdir.New(s.Dir, fsdir.WithPattern(s.Pattern))
		if err != nil {
			return nil, err
		}
		log.Info("reading constraint documents", slog.String("dir", dir.Root()), slog.String("pattern", s.Pattern))
		return &documentSource{source: dir, dir: dir, close: func() {}}, nil

	case "s3":
		var cfg s3.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		src, err := s3.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("reading constraint documents", slog.String("bucket", cfg.Bucket), slog.String("prefix", cfg.Prefix))
		return &documentSource{
			source: src,
			checks: []func(context.Context) error{s3.Healthcheck(src)},
			close:  func() {},
		}, nil

	case "redis":
		var cfg redis.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := redis.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("reading constraint documents", slog.String("key", cfg.DocumentsKey))
		return &documentSource{
			source: redis.NewStore(client, cfg),
			checks: []func(context.Context) error{redis.Healthcheck(client)},
			close:  func() { _ = client.Close() },
		}, nil

	case "pg":
		var cfg pg.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		pool, err := pg.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx, pool, cfg); err != nil {
			pool.Close()
			return nil, err
		}
		log.Info("reading constraint documents", slog.String("table", "constraint_documents"))
		return &documentSource{
			source: pg.NewStore(pool),
			checks: []func(context.Context) error{pg.Healthcheck(pool)},
			close:  pool.Close,
		}, nil

	case "mongo":
		var cfg mongo.Config
		if err := config.Load(&cfg); err != nil {
			return nil, err
		}
		client, err := mongo.New(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := mongo.NewStore(client, cfg)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		log.Info("reading constraint documents",
			slog.String("database", cfg.Database),
			slog.String("collection", cfg.Collection),
		)
		return &documentSource{
			source: store,
			checks: []func(context.Context) error{mongo.Healthcheck(client)},
			close:  func() { _ = client.Disconnect(context.Background()) },
		}, nil

	default:
		return nil, fmt.Errorf("%w %q (want fs, s3, redis, pg or mongo)", errUnknownSource, s.Source)
	}
}
