// Package cmd implements the command-line interface for mailwright.
//
// This package provides the following commands:
//   - serve: Start the MCP server that exposes the writing and inbox tools
//   - split: Split a message into body and signature
//   - fix: Apply a suggested fix to a message without touching its signature
//   - generate: Draft an email from rough notes
//   - triage: Analyze today's inbox into todos and spam
//   - settings: Read and change stored preferences
//   - auth: Authorize a Google account
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
package cmd
