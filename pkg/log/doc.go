// Package log provides logship's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a bridge handler that routes records through our
// formatter/outputs pipeline, so every component logs with the same shape
// whether it calls the facade or a *slog.Logger.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("queue"), log.Str("name", "events"))
//	l.Info("item pushed", log.Int("pending", 3))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting and console, file or null outputs.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger (Pebble logs through the
// standard library), use ToStdLogger or RedirectStdLog. Slog returns the
// bridged *slog.Logger for code that wants slog directly.
package log
