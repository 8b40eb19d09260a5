// Package inbox_tools provides MCP tools for triaging today's inbox: a
// cached AI analysis into todos and spam, daily writing reports, and spam
// deletion. Deleting is only registered when write access is enabled.
package inbox_tools
