package compose

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/teemow/mailwright/internal/signature"
)

func TestApplyFix(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		original string
		fix      string
		want     Outcome
	}{
		{
			name:     "fix inside body keeps delimiter signature",
			text:     "I has a question.\n--\nJane",
			original: "has",
			fix:      "have",
			want:     Outcome{Applied: true, Text: "I have a question.\n--\nJane", Strategy: StrategyBody},
		},
		{
			name:     "target missing",
			text:     "Hello world",
			original: "xyz",
			fix:      "abc",
			want:     Outcome{Text: "Hello world"},
		},
		{
			name:     "empty original is never located",
			text:     "Hello world",
			original: "",
			fix:      "abc",
			want:     Outcome{Text: "Hello world"},
		},
		{
			name:     "no signature",
			text:     "Their going to the park tomorrow afternoon if the weather holds up.",
			original: "Their",
			fix:      "They're",
			want: Outcome{
				Applied:  true,
				Text:     "They're going to the park tomorrow afternoon if the weather holds up.",
				Strategy: StrategyBody,
			},
		},
		{
			name:     "only first occurrence",
			text:     "teh cat and teh dog",
			original: "teh",
			fix:      "the",
			want:     Outcome{Applied: true, Text: "the cat and teh dog", Strategy: StrategyBody},
		},
		{
			name:     "whitespace and crlf outside the fragment are preserved",
			text:     "I has a question.  \r\n\r\n-- \r\nJane  ",
			original: "has",
			fix:      "have",
			want:     Outcome{Applied: true, Text: "I have a question.  \r\n\r\n-- \r\nJane  ", Strategy: StrategyBody},
		},
		{
			name:     "fragment only in signature falls back",
			text:     "Hi Bob, the report is attached.\n--\nJane Doo",
			original: "Doo",
			fix:      "Doe",
			want:     Outcome{Applied: true, Text: "Hi Bob, the report is attached.\n--\nJane Doe", Strategy: StrategyTextNode},
		},
		{
			name:     "fix equal to original is applied",
			text:     "I have a question.",
			original: "have",
			fix:      "have",
			want:     Outcome{Applied: true, Text: "I have a question.", Strategy: StrategyBody},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ApplyFix(tt.text, tt.original, tt.fix)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("ApplyFix() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestApplyFix_SignatureUntouched(t *testing.T) {
	texts := []string{
		"Thanks for the update, I has reviewed the numbers.\n\nBest,\nJane Doe\nSales Manager\njane@example.com",
		"Thanks for the update, I has reviewed the numbers.\n-- \nJane Doe\nhttps://example.com",
		"Thanks for the update, I has reviewed the numbers.\n\nJane\nAcme\nBerlin",
	}

	for _, text := range texts {
		before := signature.Split(text)
		if !before.HasSignature() {
			t.Fatalf("expected a signature in %q", text)
		}

		got := ApplyFix(text, "I has", "I have")
		if !got.Applied || got.Strategy != StrategyBody {
			t.Fatalf("ApplyFix() = %+v, want applied via body", got)
		}

		sigStart := strings.Index(text, before.Signature)
		tail := text[sigStart:]
		if !strings.HasSuffix(got.Text, tail) {
			t.Errorf("signature region changed: got %q, want suffix %q", got.Text, tail)
		}
	}
}

func TestApplyFix_Idempotent(t *testing.T) {
	text := "I has a question.\n--\nJane"
	first := ApplyFix(text, "has", "have")
	second := ApplyFix(text, "has", "have")
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("ApplyFix() not deterministic (-first +second):\n%s", diff)
	}
}

func TestResolve_Order(t *testing.T) {
	names := make([]string, len(strategies))
	for i, s := range strategies {
		names[i] = s.name
	}
	want := []string{StrategyBody, StrategyTextNode, StrategyConcatenated, StrategyFullText}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("strategy order mismatch (-want +got):\n%s", diff)
	}
}

func TestApply_HTMLStrategies(t *testing.T) {
	tests := []struct {
		name         string
		fragment     string
		original     string
		fix          string
		wantStrategy string
		wantText     string
		wantHTML     string
	}{
		{
			name:         "body edit keeps signature markup",
			fragment:     `<div>I has a question about <b>the invoice</b>.</div><div>--</div><div>Jane <a href="https://example.com">Acme</a></div>`,
			original:     "has",
			fix:          "have",
			wantStrategy: StrategyBody,
			wantText:     "I have a question about the invoice.\n--\nJane Acme",
			wantHTML:     `<div>I have a question about <b>the invoice</b>.</div><div>--</div><div>Jane <a href="https://example.com">Acme</a></div>`,
		},
		{
			name:         "body edit spanning inline nodes",
			fragment:     "<div>I <b>has</b> a question.</div><div>--</div><div>Jane <i>Doe</i></div>",
			original:     "I has",
			fix:          "I have",
			wantStrategy: StrategyBody,
			wantText:     "I have a question.\n--\nJane Doe",
			wantHTML:     "<div>I have<b></b> a question.</div><div>--</div><div>Jane <i>Doe</i></div>",
		},
		{
			name:         "body edit keeps blank lines",
			fragment:     "<div>Hi there</div><div><br></div><div>--</div><div>Jane</div>",
			original:     "there",
			fix:          "team",
			wantStrategy: StrategyBody,
			wantText:     "Hi team\n\n--\nJane",
			wantHTML:     "<div>Hi team</div><div><br/></div><div>--</div><div>Jane</div>",
		},
		{
			name:         "text node inside signature",
			fragment:     "<p>Thanks for the update.</p><p>--<br>Jane Doo</p>",
			original:     "Doo",
			fix:          "Doe",
			wantStrategy: StrategyTextNode,
			wantText:     "Thanks for the update.\n--\nJane Doe",
			wantHTML:     "<p>Thanks for the update.</p><p>--<br/>Jane Doe</p>",
		},
		{
			name:         "fragment spanning inline nodes",
			fragment:     "<div>Hello there, all good here.</div><div>--</div><div>Jane <b>Doo</b></div>",
			original:     "Jane Doo",
			fix:          "Jane Doe",
			wantStrategy: StrategyConcatenated,
			wantText:     "Hello there, all good here.--Jane Doe",
		},
		{
			name:         "fragment spanning a line break",
			fragment:     "<div>Hello there, all good here.</div><div>--</div><div>Jane</div><div>CEO</div>",
			original:     "Jane\nCEO",
			fix:          "Jane\nChief",
			wantStrategy: StrategyFullText,
			wantText:     "Hello there, all good here.\n--\nJane\nChief",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewHTMLSurface(tt.fragment)
			if err != nil {
				t.Fatalf("NewHTMLSurface() error = %v", err)
			}

			got := Apply(s, tt.original, tt.fix)
			if !got.Applied {
				t.Fatalf("Apply() not applied")
			}
			if got.Strategy != tt.wantStrategy {
				t.Errorf("Strategy = %q, want %q", got.Strategy, tt.wantStrategy)
			}
			if got.Text != tt.wantText {
				t.Errorf("Text = %q, want %q", got.Text, tt.wantText)
			}
			if tt.wantHTML != "" && s.HTML() != tt.wantHTML {
				t.Errorf("HTML() = %q, want %q", s.HTML(), tt.wantHTML)
			}
		})
	}
}

func TestApply_NotFoundLeavesEditor(t *testing.T) {
	s, err := NewHTMLSurface("<div>Hello</div>")
	if err != nil {
		t.Fatal(err)
	}
	got := Apply(s, "missing", "x")
	if got.Applied {
		t.Error("Apply() applied a missing fragment")
	}
	if s.HTML() != "<div>Hello</div>" {
		t.Errorf("HTML() = %q, want unchanged", s.HTML())
	}
	if s.Changes() != 0 {
		t.Errorf("Changes() = %d, want 0", s.Changes())
	}
}
