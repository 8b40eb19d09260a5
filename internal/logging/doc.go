// Package logging provides structured logging utilities for mailwright.
//
// Everything logs through log/slog with a shared set of attribute keys, so a
// compose session, an LLM request and an inbox triage run can be correlated
// by account, draft and operation.
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "triage.analyze")
//	logger.Info("analysis finished", logging.Status(logging.StatusSuccess))
//
// User data is never logged verbatim: mailbox addresses go through
// UserHash, secrets through SanitizeToken and draft text through TextLen.
package logging
