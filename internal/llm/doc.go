// Package llm talks to an OpenAI-compatible chat completions API.
//
// A Client issues one chat completion per operation. Writing operations
// (GenerateEmail, ImproveText, CheckGrammar, AnalyzeTone, WritingSuggestions)
// work on a single piece of text; inbox operations (AnalyzeInbox and the
// Daily* reports) work on a slice of EmailDigest values.
//
// Requests are rate limited and retried with exponential backoff. Client
// errors other than 429 are not retried. Structured answers are cleaned with
// ExtractJSON before decoding, since models tend to wrap JSON in code fences.
package llm
