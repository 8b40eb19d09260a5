package common

import (
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailwright/internal/google"
)

// AccountParam is the description shared by every tool taking an account.
const AccountParam = "Account name (default: 'default'). Used to manage multiple Google accounts."

// GetAccountFromArgs returns the "account" argument, or "default".
func GetAccountFromArgs(args map[string]any) string {
	if accountVal, ok := args["account"].(string); ok && accountVal != "" {
		return accountVal
	}
	return google.DefaultAccount
}

// AuthErrorResult turns a Gmail client error into a tool result. A missing
// token yields authorization instructions instead of the raw error.
func AuthErrorResult(account string, err error) *mcp.CallToolResult {
	if !errors.Is(err, google.ErrNoToken) {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create Gmail client for account %s: %v", account, err))
	}

	authURL, urlErr := google.GetAuthURL(account)
	if urlErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Google OAuth token not found for account %q and no OAuth client is configured: %v", account, urlErr))
	}
	return mcp.NewToolResultError(fmt.Sprintf(`Google OAuth token not found for account "%s". To authorize access:

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Gmail
4. Copy the authorization code

5. Provide the authorization code to your AI agent
   The agent will use the google_save_auth_code tool with account="%s" to complete authentication.

Note: You only need to authorize once. The tokens will be automatically refreshed.`, account, authURL, account))
}
