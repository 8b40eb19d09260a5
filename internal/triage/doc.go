// Package triage turns today's inbox into a prioritized todo list and a
// spam list.
//
// Service.Analyze fetches messages received since local midnight, parses
// the first few of them concurrently and hands the digests to an Analyzer.
// Results are cached per account; a cached analysis younger than the TTL is
// returned instead of calling the mail provider and the model again.
package triage
