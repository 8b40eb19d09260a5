package compose

import (
	"context"
	"strings"
)

// SuggestionType classifies a suggestion.
type SuggestionType string

const (
	TypeGrammar     SuggestionType = "Grammar"
	TypeSpelling    SuggestionType = "Spelling"
	TypeStyle       SuggestionType = "Style"
	TypeReplacement SuggestionType = "Replacement"
	TypeInsertion   SuggestionType = "Insertion"
	TypeImprovement SuggestionType = "Improvement"
)

var suggestionTypes = []SuggestionType{
	TypeGrammar, TypeSpelling, TypeStyle, TypeReplacement, TypeInsertion, TypeImprovement,
}

// ParseSuggestionType maps a model-provided label onto a SuggestionType,
// ignoring case. Unknown labels map to TypeStyle.
func ParseSuggestionType(s string) SuggestionType {
	s = strings.TrimSpace(s)
	for _, t := range suggestionTypes {
		if strings.EqualFold(s, string(t)) {
			return t
		}
	}
	return TypeStyle
}

// Suggestion is a proposed replacement of Original by Fix.
type Suggestion struct {
	Original    string         `json:"original"`
	Fix         string         `json:"fix"`
	Type        SuggestionType `json:"type"`
	Description string         `json:"description,omitempty"`
}

// Checker produces suggestions for a piece of body text.
type Checker interface {
	Check(ctx context.Context, body string) ([]Suggestion, error)
}

// CheckerFunc adapts a function to the Checker interface.
type CheckerFunc func(ctx context.Context, body string) ([]Suggestion, error)

func (f CheckerFunc) Check(ctx context.Context, body string) ([]Suggestion, error) {
	return f(ctx, body)
}
