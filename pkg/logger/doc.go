// Package logger provides structured logging for osudl.
//
// It wraps zerolog with a coloured console writer and, when a log file is
// configured, a size-rotated file sink backed by lumberjack. Loggers are
// plain values passed to the components that need them; there is no
// package-level instance.
//
// Basic Usage:
//
//	log, err := logger.New(&cfg.Logging)
//	if err != nil {
//	    return err
//	}
//	defer log.Close()
//
//	log.WithField("beatmapset_id", 1234).Info("Download completed")
//	log.WithError(err).Error("Search request failed")
//
// Tests use NewTestLogger, which records every message for assertions, or
// NewNopLogger when output does not matter.
package logger
