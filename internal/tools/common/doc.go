// Package common provides shared utilities for MCP tool implementations:
// argument parsing, account resolution, result formatting and the
// instrumentation wrapper every tool handler is registered through.
package common
