package main

import "time"

// settings are the dimreg-specific environment variables. Integration and
// server settings live in their own packages' Config types.
type settings struct {
	Source          string        `env:"DIMREG_SOURCE" envDefault:"fs"`
	Dir             string        `env:"DIMREG_DIR" envDefault:"./constraints"`
	Pattern         string        `env:"DIMREG_PATTERN" envDefault:"**/constraints_*.json"`
	Watch           bool          `env:"DIMREG_WATCH" envDefault:"true"`
	WatchDebounce   time.Duration `env:"DIMREG_WATCH_DEBOUNCE" envDefault:"500ms"`
	SyncInterval    time.Duration `env:"DIMREG_SYNC_INTERVAL" envDefault:"5m"`
	SyncWarnAfter   time.Duration `env:"DIMREG_SYNC_WARN_AFTER" envDefault:"1m"`
	SyncConcurrency int           `env:"DIMREG_SYNC_CONCURRENCY" envDefault:"4"`
	Prune           bool          `env:"DIMREG_PRUNE" envDefault:"true"`
	MaxAge          time.Duration `env:"DIMREG_MAX_AGE" envDefault:"0"`
	DefaultLang     string        `env:"DIMREG_DEFAULT_LANG" envDefault:"en"`
	EventBuffer     int           `env:"DIMREG_EVENT_BUFFER" envDefault:"64"`
	MaxBodySize     int64         `env:"DIMREG_MAX_BODY_SIZE" envDefault:"1048576"`
}
