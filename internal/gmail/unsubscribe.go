package gmail

import "strings"

// UnsubscribeMethod is one way to leave a mailing list, taken from the
// List-Unsubscribe header (RFC 2369).
type UnsubscribeMethod struct {
	Type string `json:"type"` // "mailto" or "http"
	URL  string `json:"url"`
}

// parseListUnsubscribe parses the List-Unsubscribe header value
// Format: <mailto:unsub@example.com>, <http://example.com/unsub>
func parseListUnsubscribe(header string) []UnsubscribeMethod {
	var methods []UnsubscribeMethod

	for _, part := range strings.Split(header, "<") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		endIdx := strings.Index(part, ">")
		if endIdx == -1 {
			continue
		}
		url := strings.TrimSpace(part[:endIdx])

		switch {
		case strings.HasPrefix(url, "mailto:"):
			methods = append(methods, UnsubscribeMethod{Type: "mailto", URL: url})
		case strings.HasPrefix(url, "http://"), strings.HasPrefix(url, "https://"):
			methods = append(methods, UnsubscribeMethod{Type: "http", URL: url})
		}
	}

	return methods
}
