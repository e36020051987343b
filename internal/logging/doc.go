// Package logging provides structured logging utilities for calbooker.
//
// All logging goes through log/slog. This package fixes attribute names and
// keeps attendee PII out of operational logs.
//
// # Usage Patterns
//
// Configure the process logger once at startup:
//
//	logger, err := logging.New(os.Stderr, "json", "info")
//	if err != nil {
//	    return err
//	}
//	slog.SetDefault(logger)
//
// Attach standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "booking.create")
//	logger.Info("slot matched", logging.Status("success"), logging.UserHash(email))
//
// # Security Considerations
//
//   - Attendee emails are hashed to prevent PII leakage while allowing correlation
//   - API keys are never logged directly; use SanitizeToken
package logging
