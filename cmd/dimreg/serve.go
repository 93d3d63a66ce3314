package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/dimreg/core/api"
	"github.com/dmitrymomot/dimreg/core/config"
	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/metrics"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/core/resolver"
	"github.com/dmitrymomot/dimreg/core/server"
	"github.com/dmitrymomot/dimreg/core/validator"
	"github.com/dmitrymomot/dimreg/integration/source/fsdir"
	"github.com/dmitrymomot/dimreg/pkg/broadcast"
)

func serveCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Ingest constraint documents and serve the HTTP API",
		Long: `serve keeps the registry in sync with the configured document source
(DIMREG_SOURCE: fs, s3, redis, pg or mongo) and serves the HTTP API until
SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := flags.newLogger()
			if err != nil {
				return err
			}
			logger.SetAsDefault(log)
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, log)
		},
	}
}

func serve(ctx context.Context, log *slog.Logger) error {
	var s settings
	if err := config.Load(&s); err != nil {
		return err
	}
	var srvCfg server.Config
	if err := config.Load(&srvCfg); err != nil {
		return err
	}

	m := metrics.New()
	events := broadcast.NewMemoryBroadcaster[api.Event](s.EventBuffer)
	defer func() { _ = events.Close() }()
	feed := api.NewChangeFeed(events)

	reg := registry.New(
		registry.WithLogger(log),
		registry.WithObserver(m),
		registry.WithObserver(feed),
	)
	val := validator.New(reg, validator.WithLogger(log), validator.WithObserver(m))
	res := resolver.New(reg, resolver.WithDefaultLanguage(s.DefaultLang), resolver.WithLogger(log))

	src, err := openSource(ctx, s, log)
	if err != nil {
		return err
	}
	defer src.close()

	in := ingest.New(src.source, reg,
		ingest.WithLogger(log),
		ingest.WithConcurrency(s.SyncConcurrency),
		ingest.WithWarnAfter(s.SyncWarnAfter),
		ingest.WithPrune(s.Prune),
		ingest.WithExpectedDatasetID(ingest.DatasetIDFromName),
		ingest.WithObserver(m),
		ingest.WithObserver(&staleReporter{registry: reg, maxAge: s.MaxAge, logger: log}),
	)

	srv, err := server.NewFromConfig(srvCfg, server.WithLogger(log))
	if err != nil {
		return err
	}
	handler := api.New(reg, val, res,
		api.WithLogger(log),
		api.WithChangeFeed(feed),
		api.WithMetrics(m.Handler()),
		api.WithReadinessChecks(src.checks...),
		api.WithMaxBodySize(s.MaxBodySize),
	).Handler()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(in.Run(ctx, s.SyncInterval))
	if src.dir != nil && s.Watch {
		w, err := fsdir.NewWatcher(src.dir, in, fsdir.WithDebounce(s.WatchDebounce), fsdir.WithLogger(log))
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		g.Go(w.Run(ctx))
	}
	g.Go(srv.Run(ctx, handler))

	log.Info("dimreg started", slog.String("addr", srvCfg.Addr), slog.Duration("sync_interval", s.SyncInterval))
	err = g.Wait()
	log.Info("dimreg stopped", logger.Error(err))
	return err
}

// staleReporter warns after each ingestion cycle about datasets whose
// documents were generated more than maxAge ago. A zero maxAge disables it.
type staleReporter struct {
	registry *registry.Registry
	maxAge   time.Duration
	logger   *slog.Logger
}

func (r *staleReporter) CycleCompleted(rep ingest.Report) {
	if r.maxAge <= 0 {
		return
	}
	stale := r.registry.Stale(time.Now(), r.maxAge)
	if len(stale) == 0 {
		return
	}
	r.logger.Warn("stale constraints",
		logger.CycleID(rep.CycleID),
		logger.Count("datasets", len(stale)),
		slog.Any("dataset_ids", stale),
		slog.Duration("max_age", r.maxAge),
	)
}
