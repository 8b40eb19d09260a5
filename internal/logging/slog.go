package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
)

// Common log attribute keys for consistent naming across the codebase.
const (
	KeyOperation = "operation"
	KeyAccount   = "account"
	KeyUserHash  = "user_hash"
	KeyDuration  = "duration"
	KeyStatus    = "status"
	KeyError     = "error"
	KeyTool      = "tool"
	KeyDraft     = "draft"
	KeyStrategy  = "strategy"
	KeyModel     = "model"
)

// Status values for consistent logging.
// Duplicated from the instrumentation package, which imports this one.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	return logger.With(slog.String(KeyOperation, operation))
}

// WithTool returns a logger with the tool attribute set.
func WithTool(logger *slog.Logger, tool string) *slog.Logger {
	return logger.With(slog.String(KeyTool, tool))
}

// WithAccount returns a logger with the account attribute set.
func WithAccount(logger *slog.Logger, account string) *slog.Logger {
	return logger.With(slog.String(KeyAccount, account))
}

// WithDraft returns a logger scoped to a compose draft.
func WithDraft(logger *slog.Logger, draftID string) *slog.Logger {
	return logger.With(slog.String(KeyDraft, draftID))
}

func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}

func Account(account string) slog.Attr {
	return slog.String(KeyAccount, account)
}

func Tool(tool string) slog.Attr {
	return slog.String(KeyTool, tool)
}

func Status(status string) slog.Attr {
	return slog.String(KeyStatus, status)
}

// Strategy returns a slog attribute naming the replacement strategy that
// produced an edit.
func Strategy(name string) slog.Attr {
	return slog.String(KeyStrategy, name)
}

func Model(model string) slog.Attr {
	return slog.String(KeyModel, model)
}

// Err returns a slog attribute for an error.
// If err is nil, returns an empty Group attribute that slog omits from output,
// so Err(maybeNilErr) is always safe to pass.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Group("")
	}
	return slog.String(KeyError, err.Error())
}

// AnonymizeEmail returns a hashed representation of an email for logging purposes.
// Log entries stay correlatable without exposing the address.
func AnonymizeEmail(email string) string {
	if email == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return "user:" + hex.EncodeToString(hash[:8])
}

// UserHash returns a slog attribute with the anonymized user email.
func UserHash(email string) slog.Attr {
	return slog.String(KeyUserHash, AnonymizeEmail(email))
}

// SanitizeToken returns a length indicator for a secret (API key, OAuth token)
// without exposing any of its content.
func SanitizeToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	return fmt.Sprintf("[token:%d chars]", len(token))
}

// TextLen returns an attribute carrying only the length of user text.
// Draft contents never go to the log.
func TextLen(key, text string) slog.Attr {
	return slog.Int(key+"_len", len([]rune(text)))
}
