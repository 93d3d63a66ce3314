// Package config loads typed configuration from environment variables.
//
// Each configuration struct declares its variables with caarlos0/env tags.
// A .env file is read once on first use, and every type is parsed once and
// cached for the life of the process:
//
//	type SyncConfig struct {
//		Dir      string        `env:"DIMREG_DIR" envDefault:"./constraints"`
//		Interval time.Duration `env:"DIMREG_SYNC_INTERVAL" envDefault:"5m"`
//	}
//
//	var cfg SyncConfig
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//
// MustLoad panics instead of returning the error and is meant for main.
package config
