// Package logging provides structured logging for IoTorch.
//
// It wraps log/slog with configuration-driven format and level selection
// and attaches default service/version fields to every record. Components
// receive a *Logger (or the narrow Logger interfaces declared where they
// are consumed) and tag their records via With:
//
//	linkLogger := logger.With("component", "seriallink")
//	linkLogger.Info("interface up", "interface", "mctpserial0")
package logging
