package gmail

import (
	"regexp"
	"strings"

	gmail "google.golang.org/api/gmail/v1"
)

// Bulk mail signals reported by BulkSignals.
const (
	SignalListUnsubscribe = "list-unsubscribe"
	SignalBulkPrecedence  = "precedence-bulk"
	SignalNoReplySender   = "no-reply-sender"
	SignalMailingList     = "mailing-list"
	SignalAutoSubmitted   = "auto-submitted"
)

var noReplySender = regexp.MustCompile(`(?i)\bno[-_.]?reply\b|\bdo[-_.]?not[-_.]?reply\b|\bmailer-daemon\b`)

// BulkSignals inspects message headers for signs of bulk or automated mail.
// The result is a hint for the classifier, not a verdict.
func BulkSignals(msg *gmail.Message) []string {
	var signals []string
	if HeaderValue(msg, "List-Unsubscribe") != "" {
		signals = append(signals, SignalListUnsubscribe)
	}
	switch strings.ToLower(strings.TrimSpace(HeaderValue(msg, "Precedence"))) {
	case "bulk", "list", "junk":
		signals = append(signals, SignalBulkPrecedence)
	}
	if noReplySender.MatchString(HeaderValue(msg, "From")) {
		signals = append(signals, SignalNoReplySender)
	}
	if HeaderValue(msg, "List-Id") != "" {
		signals = append(signals, SignalMailingList)
	}
	if v := strings.ToLower(HeaderValue(msg, "Auto-Submitted")); v != "" && v != "no" {
		signals = append(signals, SignalAutoSubmitted)
	}
	return signals
}

// HeaderValue extracts a header value from a Gmail message. Header names
// are matched case-insensitively.
func HeaderValue(m *gmail.Message, header string) string {
	if m == nil || m.Payload == nil {
		return ""
	}
	for _, mph := range m.Payload.Headers {
		if strings.EqualFold(mph.Name, header) {
			return mph.Value
		}
	}
	return ""
}
