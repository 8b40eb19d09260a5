package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/teemow/mailwright/internal/compose"
)

// DefaultTone is used by GenerateEmail when no tone is given.
const DefaultTone = "professional"

// DefaultFocus is used by ImproveText when no focus areas are given.
var DefaultFocus = []string{"grammar", "clarity", "style"}

// GenerateEmail turns rough notes into an email body in the given tone.
func (c *Client) GenerateEmail(ctx context.Context, thoughts, tone string) (string, error) {
	if strings.TrimSpace(thoughts) == "" {
		return "", fmt.Errorf("thoughts must not be empty")
	}
	if tone == "" {
		tone = DefaultTone
	}
	return c.complete(ctx, request{
		operation: "generate_email",
		system:    systemWriting,
		prompt:    fmt.Sprintf(generateEmailPrompt, thoughts, tone),
		maxTokens: 1000,
	})
}

// Change is one segment of a diff between two texts.
type Change struct {
	// Op is one of "equal", "insert" or "delete".
	Op   string `json:"op"`
	Text string `json:"text"`
}

// Improvement is the result of ImproveText.
type Improvement struct {
	Original string   `json:"original"`
	Improved string   `json:"improved"`
	Changes  []Change `json:"changes"`
}

// Changed reports whether the improved text differs from the original.
func (i Improvement) Changed() bool {
	return i.Original != i.Improved
}

// ImproveText rewrites text with attention to the given focus areas and
// returns the rewrite along with a word-level diff against the input.
func (c *Client) ImproveText(ctx context.Context, text string, focus []string) (*Improvement, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text must not be empty")
	}
	if len(focus) == 0 {
		focus = DefaultFocus
	}
	improved, err := c.complete(ctx, request{
		operation: "improve_text",
		system:    systemWriting,
		prompt:    fmt.Sprintf(improveTextPrompt, text, strings.Join(focus, ", ")),
		maxTokens: 800,
	})
	if err != nil {
		return nil, err
	}
	improved = strings.Trim(improved, `"`)
	return &Improvement{
		Original: text,
		Improved: improved,
		Changes:  Diff(text, improved),
	}, nil
}

// Diff computes a semantically cleaned-up diff from a to b.
func Diff(a, b string) []Change {
	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	diffs = dmp.DiffCleanupSemantic(diffs)

	changes := make([]Change, 0, len(diffs))
	for _, d := range diffs {
		op := "equal"
		switch d.Type {
		case diffmatchpatch.DiffInsert:
			op = "insert"
		case diffmatchpatch.DiffDelete:
			op = "delete"
		}
		changes = append(changes, Change{Op: op, Text: d.Text})
	}
	return changes
}

type grammarResponse struct {
	Suggestions []struct {
		Type string `json:"type"`
		Text string `json:"text"`
		Fix  string `json:"fix"`
	} `json:"suggestions"`
}

// CheckGrammar asks for grammar, spelling and style suggestions on text.
// Suggestions without a quoted fragment are dropped.
func (c *Client) CheckGrammar(ctx context.Context, text string) ([]compose.Suggestion, error) {
	content, err := c.complete(ctx, request{
		operation: "check_grammar",
		system:    systemGrammar,
		prompt:    fmt.Sprintf(checkGrammarPrompt, text),
		maxTokens: 500,
	})
	if err != nil {
		return nil, err
	}

	var resp grammarResponse
	if err := decodeJSON(content, "grammar suggestions", &resp); err != nil {
		return nil, err
	}

	suggestions := make([]compose.Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		if s.Text == "" {
			continue
		}
		suggestions = append(suggestions, compose.Suggestion{
			Original: s.Text,
			Fix:      s.Fix,
			Type:     compose.ParseSuggestionType(s.Type),
		})
	}
	return suggestions, nil
}

// Checker returns CheckGrammar as a compose.Checker for draft sessions.
func (c *Client) Checker() compose.Checker {
	return compose.CheckerFunc(c.CheckGrammar)
}

// ToneAnalysis is the result of AnalyzeTone.
type ToneAnalysis struct {
	PrimaryTone string   `json:"primaryTone"`
	Suggestions []string `json:"suggestions"`
}

// AnalyzeTone identifies the primary tone of text. PrimaryTone defaults to
// "Neutral" when the model does not name one.
func (c *Client) AnalyzeTone(ctx context.Context, text string) (*ToneAnalysis, error) {
	content, err := c.complete(ctx, request{
		operation: "analyze_tone",
		system:    systemTone,
		prompt:    fmt.Sprintf(analyzeTonePrompt, text),
		maxTokens: 400,
	})
	if err != nil {
		return nil, err
	}

	var analysis ToneAnalysis
	if err := decodeJSON(content, "tone analysis", &analysis); err != nil {
		return nil, err
	}
	if analysis.PrimaryTone == "" {
		analysis.PrimaryTone = "Neutral"
	}
	if analysis.Suggestions == nil {
		analysis.Suggestions = []string{}
	}
	return &analysis, nil
}

type writingSuggestionsResponse struct {
	Suggestions []struct {
		Type        string `json:"type"`
		Text        string `json:"text"`
		Original    string `json:"original"`
		Description string `json:"description"`
	} `json:"suggestions"`
}

// WritingSuggestions asks for a handful of actionable suggestions on text
// of the given kind ("email" when empty). Insertion and
// improvement suggestions may have an empty Original; only replacements
// can be applied to a draft.
func (c *Client) WritingSuggestions(ctx context.Context, text, kind string) ([]compose.Suggestion, error) {
	if kind == "" {
		kind = "email"
	}
	content, err := c.complete(ctx, request{
		operation: "writing_suggestions",
		system:    systemWriting,
		prompt:    fmt.Sprintf(writingSuggestionsPrompt, text, kind),
		maxTokens: 600,
	})
	if err != nil {
		return nil, err
	}

	var resp writingSuggestionsResponse
	if err := decodeJSON(content, "writing suggestions", &resp); err != nil {
		return nil, err
	}

	suggestions := make([]compose.Suggestion, 0, len(resp.Suggestions))
	for _, s := range resp.Suggestions {
		suggestions = append(suggestions, compose.Suggestion{
			Original:    s.Original,
			Fix:         s.Text,
			Type:        compose.ParseSuggestionType(s.Type),
			Description: s.Description,
		})
	}
	return suggestions, nil
}
