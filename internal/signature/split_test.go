package signature

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

const longBodyLine = "This opening line is definitely longer than forty characters."

func TestSplit(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Result
	}{
		{
			name: "empty input",
			text: "",
			want: Result{},
		},
		{
			name: "whitespace only",
			text: "  \n\t\n",
			want: Result{},
		},
		{
			name: "name title and email with valediction",
			text: "Thanks for the update.\n\nBest,\nJane Doe\nSales Manager\njane@example.com",
			want: Result{
				Body:      "Thanks for the update.",
				Signature: "Best,\nJane Doe\nSales Manager\njane@example.com",
			},
		},
		{
			name: "explicit delimiter",
			text: "I has a question.\n--\nSent from my phone",
			want: Result{
				Body:      "I has a question.",
				Signature: "--\nSent from my phone",
			},
		},
		{
			name: "delimiter with trailing space and CRLF",
			text: longBodyLine + "\r\n-- \r\nJane",
			want: Result{
				Body:      longBodyLine,
				Signature: "-- \nJane",
			},
		},
		{
			name: "three short lines",
			text: longBodyLine + "\nJane Doe\nAcme\nBerlin",
			want: Result{
				Body:      longBodyLine,
				Signature: "Jane Doe\nAcme\nBerlin",
			},
		},
		{
			name: "blank line breaks a short run",
			text: longBodyLine + "\nA\n\nB\nC",
			want: Result{
				Body: longBodyLine + "\nA\n\nB\nC",
			},
		},
		{
			name: "topmost indicator wins",
			text: longBodyLine + "\nJane Doe, Head of Sales at a company that sells things\nwww.example.com",
			want: Result{
				Body:      longBodyLine,
				Signature: "Jane Doe, Head of Sales at a company that sells things\nwww.example.com",
			},
		},
		{
			name: "long line with indicator word is body text",
			text: "Please reach out by phone if anything in the attached proposal looks unclear to you.",
			want: Result{
				Body: "Please reach out by phone if anything in the attached proposal looks unclear to you.",
			},
		},
		{
			name: "indicator above delimiter moves split earlier",
			text: longBodyLine + "\nhttps://example.com/jane\n--\nJane",
			want: Result{
				Body:      longBodyLine,
				Signature: "https://example.com/jane\n--\nJane",
			},
		},
		{
			name: "delimiter is not widened to a valediction",
			text: longBodyLine + "\nThanks,\n--\nJane",
			want: Result{
				Body:      longBodyLine + "\nThanks,",
				Signature: "--\nJane",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Split(tt.text)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Split() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSplit_DelimiterPlacesSignatureAtOrBefore(t *testing.T) {
	texts := []string{
		longBodyLine + "\n--",
		longBodyLine + "\n--\nJane Doe",
		"Short.\n" + longBodyLine + "\n-- \nJane Doe\n+1 555 0100",
	}

	for _, text := range texts {
		lines := lineBreak.Split(text, -1)
		delim := delimiterIndex(lines)
		if start := Start(lines); start > delim {
			t.Errorf("Start(%q) = %d, want <= %d", text, start, delim)
		}
		if sig := Split(text).Signature; !strings.HasPrefix(sig, "--") {
			t.Errorf("Split(%q).Signature = %q, want prefix --", text, sig)
		}
	}
}

func TestSplit_NoIndicators(t *testing.T) {
	text := "\n  Here is a paragraph that goes on for quite a while without any markers.\n" +
		"And the second line of the body is also quite long, it keeps going further.  \n"

	got := Split(text)
	if got.Signature != "" {
		t.Errorf("Split().Signature = %q, want empty", got.Signature)
	}
	if got.Body != strings.TrimSpace(text) {
		t.Errorf("Split().Body = %q, want %q", got.Body, strings.TrimSpace(text))
	}
	if got.HasSignature() {
		t.Error("HasSignature() = true, want false")
	}
}

// Re-splitting a body is not guaranteed to yield an empty signature.
func TestSplit_ResplitBodyMayFindSignature(t *testing.T) {
	text := "Here is the long first paragraph of my message, which keeps going on and on.\n" +
		"--\n" +
		"the earlier thread is quoted below so that everyone sees the full context\n" +
		"--\n" +
		"Jane"

	first := Split(text)
	if first.Signature != "--\nJane" {
		t.Fatalf("Split().Signature = %q, want %q", first.Signature, "--\nJane")
	}

	second := Split(first.Body)
	if second.Signature == "" {
		t.Error("expected re-split of the body to detect another signature")
	}
}

func TestSplit_RuneLength(t *testing.T) {
	// 40 runes, 80 bytes: still a short line.
	wide := strings.Repeat("é", 40)
	got := Split(longBodyLine + "\n" + wide + "\nZoë Müller\nKöln")
	if got.Signature != wide+"\nZoë Müller\nKöln" {
		t.Errorf("Split().Signature = %q", got.Signature)
	}
}

func TestResult_Join(t *testing.T) {
	tests := []struct {
		name string
		r    Result
		want string
	}{
		{"body only", Result{Body: "Hi"}, "Hi"},
		{"with signature", Result{Body: "Hi", Signature: "--\nJane"}, "Hi\n--\nJane"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Join(); got != tt.want {
				t.Errorf("Join() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestOffset(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"empty", "", ""},
		{"no signature", "Hello world", "Hello world"},
		{"delimiter", "I has a question.\n--\nJane", "I has a question.\n"},
		{"crlf keeps original breaks", "I has a question.\r\n\r\n--\r\nJane", "I has a question.\r\n\r\n"},
		{"whole text is signature", "Jane\nCEO\nAcme", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			off := Offset(tt.text)
			if got := tt.text[:off]; got != tt.want {
				t.Errorf("body region = %q, want %q", got, tt.want)
			}
			if body := Split(tt.text).Body; strings.TrimSpace(tt.text[:off]) != body {
				t.Errorf("trimmed region %q does not match Split().Body %q", tt.text[:off], body)
			}
		})
	}
}
