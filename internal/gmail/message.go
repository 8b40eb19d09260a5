package gmail

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	gmail "google.golang.org/api/gmail/v1"
)

const (
	// MaxBodyLength is the number of runes of body text kept per message.
	MaxBodyLength = 1000

	defaultSubject = "No Subject"
	defaultSender  = "Unknown Sender"
)

// Email is the parsed form of a message used for triage.
type Email struct {
	ID       string `json:"id"`
	ThreadID string `json:"threadId,omitempty"`
	Subject  string `json:"subject"`
	From     string `json:"from"`
	Date     string `json:"date"`
	Snippet  string `json:"snippet"`
	Body     string `json:"body"`
	// Signals are bulk mail hints derived from headers.
	Signals     []string            `json:"signals,omitempty"`
	Unsubscribe []UnsubscribeMethod `json:"unsubscribe,omitempty"`
}

// ParseMessage converts a full-format message into an Email. Missing
// Subject and From headers are replaced by placeholders; the body is
// truncated to MaxBodyLength runes.
func ParseMessage(msg *gmail.Message) Email {
	e := Email{
		ID:       msg.Id,
		ThreadID: msg.ThreadId,
		Subject:  HeaderValue(msg, "Subject"),
		From:     HeaderValue(msg, "From"),
		Date:     HeaderValue(msg, "Date"),
		Snippet:  msg.Snippet,
		Body:     truncate(messageBody(msg), MaxBodyLength),
		Signals:  BulkSignals(msg),
	}
	if e.Subject == "" {
		e.Subject = defaultSubject
	}
	if e.From == "" {
		e.From = defaultSender
	}
	if v := HeaderValue(msg, "List-Unsubscribe"); v != "" {
		e.Unsubscribe = parseListUnsubscribe(v)
	}
	return e
}

// messageBody returns the text of msg: the payload body if present,
// otherwise the first text/plain part, otherwise the first text/html part
// converted to text.
func messageBody(msg *gmail.Message) string {
	p := msg.Payload
	if p == nil {
		return ""
	}
	if p.Body != nil && p.Body.Data != "" {
		text := decodeBody(p.Body.Data)
		if p.MimeType == "text/html" {
			return htmlToText(text)
		}
		return text
	}

	if data := findPart(p, "text/plain"); data != "" {
		return decodeBody(data)
	}
	if data := findPart(p, "text/html"); data != "" {
		return htmlToText(decodeBody(data))
	}
	return ""
}

func findPart(root *gmail.MessagePart, mimeType string) string {
	var data string
	walkParts(root, func(part *gmail.MessagePart) {
		if data == "" && part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			data = part.Body.Data
		}
	})
	return data
}

// walkParts recursively walks through message parts
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, subpart := range part.Parts {
		walkParts(subpart, fn)
	}
}

// decodeBody decodes base64url body data. Undecodable data is returned as is.
func decodeBody(data string) string {
	for _, enc := range []*base64.Encoding{base64.URLEncoding, base64.RawURLEncoding, base64.StdEncoding} {
		if decoded, err := enc.DecodeString(data); err == nil {
			return string(decoded)
		}
	}
	return data
}

// htmlToText extracts the visible text of an HTML body and collapses
// whitespace.
func htmlToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return strings.Join(strings.Fields(html), " ")
	}
	doc.Find("script, style, head, noscript").Remove()
	return strings.Join(strings.Fields(doc.Text()), " ")
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
