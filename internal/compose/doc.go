// Package compose applies writing suggestions to an editable draft.
//
// A draft is exposed through the Surface and Editor interfaces: its rendered
// text plus the individual text nodes it is built from. ApplyFix and Apply
// locate the suggested fragment with an ordered list of strategies, starting
// with a replacement restricted to the body (so the signature block stays
// untouched) and degrading to less careful replacements when the fragment
// cannot be found there.
//
// A Session wraps one editor, commits fixes, notifies the editor and
// schedules a debounced re-analysis of the body. Drafts keeps the open
// sessions of a server process.
package compose
