// Package logger provides slog construction and attribute helpers.
//
// New builds a *slog.Logger from options; Config carries the same settings
// when they come from the environment:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.New(logger.WithConfig(cfg), logger.WithAttr(slog.String("service", "dimreg")))
//
// The attribute helpers name the keys used throughout the module and return an
// empty slog.Attr for zero values, which slog omits:
//
//	log.Warn("structure version changed",
//		logger.Dataset("163_156"),
//		logger.Structure(change.Current),
//		logger.Revision(change.Revision),
//		logger.Error(err), // omitted when err is nil
//	)
//
// Components in this module accept a logger through a WithLogger option and
// fall back to Discard.
package logger
