package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"github.com/teemow/mailwright/internal/logging"
)

// ToolInvocation is the audit record of one MCP tool call.
type ToolInvocation struct {
	Tool    string
	Account string
	// Mailbox is the Gmail address the account resolved to, if known.
	Mailbox string
	// Destructive marks calls that change mailbox state, such as deleting spam.
	Destructive bool

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string
	TraceID   string
}

// NewToolInvocation starts timing a tool call.
func NewToolInvocation(ctx context.Context, tool string) *ToolInvocation {
	return &ToolInvocation{
		Tool:      tool,
		StartTime: time.Now(),
		TraceID:   GetTraceID(ctx),
	}
}

func (ti *ToolInvocation) WithAccount(account string) *ToolInvocation {
	ti.Account = account
	return ti
}

func (ti *ToolInvocation) WithMailbox(email string) *ToolInvocation {
	ti.Mailbox = email
	return ti
}

func (ti *ToolInvocation) WithDestructive(destructive bool) *ToolInvocation {
	ti.Destructive = destructive
	return ti
}

// Complete records the duration and outcome.
func (ti *ToolInvocation) Complete(err error) *ToolInvocation {
	ti.Duration = time.Since(ti.StartTime)
	ti.Success = err == nil
	if err != nil {
		ti.Error = err.Error()
	}
	return ti
}

func (ti *ToolInvocation) Status() string {
	if ti.Success {
		return StatusSuccess
	}
	return StatusError
}

func (ti *ToolInvocation) attrs(includePII bool) []any {
	attrs := []any{
		slog.String(logging.KeyTool, ti.Tool),
		slog.Duration(logging.KeyDuration, ti.Duration),
		slog.Bool("success", ti.Success),
	}
	if ti.Account != "" {
		attrs = append(attrs, logging.Account(ti.Account))
	}
	if ti.Mailbox != "" {
		if includePII {
			attrs = append(attrs, slog.String("mailbox", ti.Mailbox))
		} else {
			attrs = append(attrs, logging.UserHash(ti.Mailbox))
		}
	}
	if ti.Destructive {
		attrs = append(attrs, slog.Bool("destructive", true))
	}
	if ti.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ti.TraceID))
	}
	if ti.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ti.Error))
	}
	return attrs
}

// AuditLogger writes tool invocation records.
type AuditLogger struct {
	logger *slog.Logger
	config AuditConfig
}

func NewAuditLogger(logger *slog.Logger, config AuditConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{logger: logger.With("component", "audit"), config: config}
}

// LogToolInvocation logs ti. Failed and destructive calls are logged at
// WARN and INFO respectively; other calls at DEBUG.
func (al *AuditLogger) LogToolInvocation(ti *ToolInvocation) {
	if al == nil || !al.config.Enabled {
		return
	}
	attrs := ti.attrs(al.config.IncludePII)
	switch {
	case !ti.Success:
		al.logger.Warn("tool_failed", attrs...)
	case ti.Destructive:
		al.logger.Info("tool_executed", attrs...)
	default:
		al.logger.Debug("tool_executed", attrs...)
	}
}
