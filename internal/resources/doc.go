// Package resources provides MCP resources for exposing settings and account
// data. Resources are read-only data sources that MCP clients can fetch
// alongside the tools, such as the effective writing preferences or the list
// of authorized Gmail accounts.
package resources
