// Package signature separates the body of a composed email from its
// trailing signature block.
//
// The split is a best-effort heuristic. It combines three independent
// candidate boundaries (an explicit "--" delimiter, lines that look like
// contact details or job titles, and a run of short lines) and takes the
// earliest one. False positives are expected: re-splitting an already split
// body can find another signature.
package signature
