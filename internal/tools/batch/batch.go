package batch

import (
	"context"
	"encoding/json"
	"fmt"
)

// Item statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusSkipped = "skipped"
)

// Result is the outcome of one item in a batch.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchResult aggregates the outcomes of a batch.
type BatchResult struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Skipped    int      `json:"skipped,omitempty"`
	Results    []Result `json:"results"`
}

// ParseStringOrArray accepts a single string or an array of strings as a
// tool argument. Duplicate IDs are dropped, keeping the first occurrence.
func ParseStringOrArray(param any, paramName string) ([]string, error) {
	if param == nil {
		return nil, fmt.Errorf("%s is required", paramName)
	}

	var ids []string
	switch v := param.(type) {
	case string:
		if v == "" {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		ids = []string{v}
	case []string:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, s := range v {
			if s == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
		}
		ids = v
	case []any:
		if len(v) == 0 {
			return nil, fmt.Errorf("%s cannot be empty", paramName)
		}
		for i, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			if s == "" {
				return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
			}
			ids = append(ids, s)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// Summarize counts the outcomes of results.
func Summarize(results []Result) BatchResult {
	br := BatchResult{Total: len(results), Results: results}
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			br.Successful++
		case StatusSkipped:
			br.Skipped++
		default:
			br.Failed++
		}
	}
	return br
}

// FormatResults renders results as indented JSON.
func FormatResults(results []Result) string {
	b, _ := json.MarshalIndent(Summarize(results), "", "  ")
	return string(b)
}

// ProcessBatch calls fn for each ID in order. Once ctx is done the
// remaining IDs are reported as skipped.
func ProcessBatch(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, Result{ID: id, Status: StatusSkipped, Error: err.Error()})
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}
	return results
}

func NewSuccessResult(id, message string) Result {
	return Result{ID: id, Status: StatusSuccess, Result: message}
}

func NewErrorResult(id string, err error) Result {
	return Result{ID: id, Status: StatusError, Error: err.Error()}
}
