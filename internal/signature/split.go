package signature

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// Lines longer than this are never tested against the indicator patterns.
	maxPatternLineLen = 60
	// Lines up to this length count towards a short-line run.
	maxShortLineLen = 40
	// A run of this many short lines marks a signature block.
	shortRunLen = 3
	// Valedictions longer than this are treated as body text.
	maxValedictionLen = 30
)

var lineBreak = regexp.MustCompile(`\r?\n`)

// Result is the outcome of Split.
type Result struct {
	Body      string
	Signature string
}

// HasSignature reports whether a signature block was detected.
func (r Result) HasSignature() bool {
	return r.Signature != ""
}

// Join rebuilds a document from the parts, separated by a single newline.
func (r Result) Join() string {
	if r.Signature == "" {
		return r.Body
	}
	return r.Body + "\n" + r.Signature
}

// Split returns the body and the trailing signature block of text. Both are
// trimmed. When no signature is detected Signature is empty and Body is the
// whole trimmed text.
func Split(text string) Result {
	if text == "" {
		return Result{}
	}
	lines := lineBreak.Split(text, -1)
	start := Start(lines)
	return Result{
		Body:      strings.TrimSpace(strings.Join(lines[:start], "\n")),
		Signature: strings.TrimSpace(strings.Join(lines[start:], "\n")),
	}
}

// Start returns the index of the first signature line, or len(lines) when
// there is none. It is the smallest of the delimiter, indicator and
// short-run candidates. A heuristic boundary is widened upwards to include
// a closing valediction; an explicit delimiter never is.
func Start(lines []string) int {
	delim := delimiterIndex(lines)
	run := shortRunIndex(lines, delim)
	start := min(delim, indicatorIndex(lines, delim, run), run)
	if start == len(lines) || start == delim {
		return start
	}
	return valedictionIndex(lines, start)
}

// delimiterIndex returns the index of the last "--" line, scanning from the
// end. "-- " trims to "--".
func delimiterIndex(lines []string) int {
	for i := len(lines) - 1; i >= 0; i-- {
		if strings.TrimSpace(lines[i]) == "--" {
			return i
		}
	}
	return len(lines)
}

// shortRunIndex scans upwards from end and returns the first line of the
// lowest run of shortRunLen consecutive short lines. Blank and long lines
// break a run.
func shortRunIndex(lines []string, end int) int {
	run := 0
	for i := end - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || utf8.RuneCountInString(line) > maxShortLineLen {
			run = 0
			continue
		}
		run++
		if run >= shortRunLen {
			return i
		}
	}
	return len(lines)
}

// indicatorIndex returns the topmost line in [run, end) that matches an
// indicator pattern. Above a short run the split is already decided, so
// those lines are not considered.
func indicatorIndex(lines []string, end, run int) int {
	floor := 0
	if run < len(lines) {
		floor = run
	}
	found := len(lines)
	for i := end - 1; i >= floor; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" || utf8.RuneCountInString(line) > maxPatternLineLen {
			continue
		}
		if looksLikeSignature(line) {
			found = i
		}
	}
	return found
}

// valedictionIndex moves start up by one line when the nearest non-blank
// line above it is a closing such as "Best,".
func valedictionIndex(lines []string, start int) int {
	for i := start - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			continue
		}
		if utf8.RuneCountInString(line) <= maxValedictionLen && valediction.MatchString(line) {
			return i
		}
		break
	}
	return start
}

// Offset returns the byte offset in text at which the signature block
// starts, or len(text) when there is none. text[:Offset(text)] is the body
// region with its original whitespace and line breaks.
func Offset(text string) int {
	if text == "" {
		return 0
	}
	lines := lineBreak.Split(text, -1)
	start := Start(lines)
	switch {
	case start == len(lines):
		return len(text)
	case start == 0:
		return 0
	}
	breaks := lineBreak.FindAllStringIndex(text, -1)
	return breaks[start-1][1]
}
