package ingest

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/dimreg/core/loader"
)

const (
	defaultConcurrency = 4
	defaultWarnAfter   = time.Minute
)

// Option configures an Ingester.
type Option func(*Ingester)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(in *Ingester) {
		if l != nil {
			in.logger = l
		}
	}
}

// WithConcurrency bounds how many documents are fetched and loaded at once.
func WithConcurrency(n int) Option {
	return func(in *Ingester) {
		if n > 0 {
			in.concurrency = n
		}
	}
}

// WithWarnAfter sets how long a cycle may take before a warning is logged.
// Zero disables the warning.
func WithWarnAfter(d time.Duration) Option {
	return func(in *Ingester) {
		if d >= 0 {
			in.warnAfter = d
		}
	}
}

// WithPrune evicts datasets whose documents no longer appear in the source.
func WithPrune(on bool) Option {
	return func(in *Ingester) {
		in.prune = on
	}
}

// WithLoaderOptions passes options to every loader.Load call.
func WithLoaderOptions(opts ...loader.Option) Option {
	return func(in *Ingester) {
		in.loaderOpts = append(in.loaderOpts, opts...)
	}
}

// WithExpectedDatasetID derives the dataset a document must describe from
// its name, e.g. DatasetIDFromName. Documents describing another dataset fail.
func WithExpectedDatasetID(fn func(name string) (string, bool)) Option {
	return func(in *Ingester) {
		in.expectedID = fn
	}
}

// WithObserver registers an observer for finished cycles.
func WithObserver(o Observer) Option {
	return func(in *Ingester) {
		if o != nil {
			in.observers = append(in.observers, o)
		}
	}
}
