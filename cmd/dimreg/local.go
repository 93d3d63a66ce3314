package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/dimreg/core/config"
	"github.com/dmitrymomot/dimreg/core/ingest"
	"github.com/dmitrymomot/dimreg/core/logger"
	"github.com/dmitrymomot/dimreg/core/registry"
	"github.com/dmitrymomot/dimreg/integration/source/fsdir"
)

// dirFlags selects a local constraint directory. Empty values fall back to
// DIMREG_DIR and DIMREG_PATTERN.
type dirFlags struct {
	dir     string
	pattern string
}

func (f *dirFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.dir, "dir", "", "constraint directory (default $DIMREG_DIR)")
	cmd.Flags().StringVar(&f.pattern, "pattern", "", "document glob relative to --dir (default $DIMREG_PATTERN)")
}

func (f *dirFlags) resolve() (dir, pattern string, err error) {
	var s settings
	if err := config.Load(&s); err != nil {
		return "", "", err
	}
	dir, pattern = s.Dir, s.Pattern
	if f.dir != "" {
		dir = f.dir
	}
	if f.pattern != "" {
		pattern = f.pattern
	}
	return dir, pattern, nil
}

// localRegistry runs one ingestion cycle over a directory and returns the
// populated registry. Malformed documents are logged and left out.
func (f *dirFlags) localRegistry(ctx context.Context, log *slog.Logger) (*registry.Registry, error) {
	dir, pattern, err := f.resolve()
	if err != nil {
		return nil, err
	}
	src, err := fsdir.New(dir, fsdir.WithPattern(pattern))
	if err != nil {
		return nil, err
	}
	reg := registry.New(registry.WithLogger(log))
	rep, err := ingest.New(src, reg,
		ingest.WithLogger(log),
		ingest.WithExpectedDatasetID(ingest.DatasetIDFromName),
	).Sync(ctx)
	if err != nil {
		return nil, err
	}
	for _, fail := range rep.Failures {
		log.Warn("skipped constraint document", logger.Source(fail.Document), logger.Error(fail.Err))
	}
	return reg, nil
}
