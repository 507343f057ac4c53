// Package logger provides structured logging for the Firecrawl client and CLI.
//
// It wraps zerolog behind a small Logger interface so library code can take
// a logger without depending on zerolog directly. Console output is written
// to stderr in a pretty format; an optional file receives JSON lines.
//
// Basic Usage:
//
//	err := logger.Initialize(&config.LoggingConfig{Level: "info"})
//
//	logger.Info("crawl started")
//	logger.WithField("job_id", id).Info("crawl completed")
//
// Library packages default to NewNopLogger and only log at debug level.
// Tests use NewTestLogger to assert on emitted entries.
package logger
