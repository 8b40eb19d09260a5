package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ExtractJSON strips a surrounding markdown code fence from a model answer
// and cuts it down to the outermost pair of braces.
func ExtractJSON(text string) string {
	cleaned := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(cleaned, "```json"):
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	case strings.HasPrefix(cleaned, "```"):
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSpace(strings.TrimSuffix(cleaned, "```"))
	}

	first := strings.Index(cleaned, "{")
	last := strings.LastIndex(cleaned, "}")
	if first != -1 && last > first {
		cleaned = cleaned[first : last+1]
	}
	return cleaned
}

// decodeJSON decodes a model answer into v after ExtractJSON.
func decodeJSON(content, what string, v any) error {
	if err := json.Unmarshal([]byte(ExtractJSON(content)), v); err != nil {
		return fmt.Errorf("failed to parse %s JSON: %w", what, err)
	}
	return nil
}
