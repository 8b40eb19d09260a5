// Package google_tools provides the MCP tools that authorize a Google
// account for Gmail access.
//
// The flow:
//  1. A Gmail tool fails with authorization instructions, or the agent
//     calls google_get_auth_url directly.
//  2. The user visits the URL, grants access and copies the code.
//  3. google_save_auth_code exchanges the code and stores the token.
//
// Tokens are refreshed automatically afterwards.
package google_tools
