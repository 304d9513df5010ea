// Package logger is the slog factory for all entrypoints. It produces
// JSON or text handlers from env-driven settings and supports context
// extractors that stamp the scoped identity (tenant id or system actor)
// onto every record; see tenant.LoggerExtractor.
package logger
