package instrumentation

import (
	"context"
	"errors"
	"testing"
)

func TestSpans(t *testing.T) {
	ctx := context.Background()

	ctx, span := StartToolSpan(ctx, "draft_apply_fix")
	if span == nil {
		t.Fatal("expected span")
	}
	_, child := StartLLMSpan(ctx, "check_grammar", "gpt-3.5-turbo")
	EndSpan(child, errors.New("rate limited"))

	_, g := StartGmailSpan(ctx, OperationList)
	EndSpan(g, nil)
	EndSpan(span, nil)
}

func TestGetTraceID_NoSpan(t *testing.T) {
	if id := GetTraceID(context.Background()); id != "" {
		t.Errorf("GetTraceID() = %q, want empty", id)
	}
}

func TestStatus(t *testing.T) {
	if Status(nil) != StatusSuccess {
		t.Error("nil error should map to success")
	}
	if Status(errors.New("x")) != StatusError {
		t.Error("non-nil error should map to error")
	}
}
