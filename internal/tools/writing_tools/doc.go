// Package writing_tools provides MCP tools for composing email: generating
// drafts from notes, improving and checking text, splitting signatures and
// applying suggested fixes, either to a one-off text or to an open draft.
package writing_tools
