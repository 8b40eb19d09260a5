package google_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/tools/common"
)

// RegisterGoogleTools registers the OAuth tools with the MCP server.
func RegisterGoogleTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getAuthURLTool := mcp.NewTool("google_get_auth_url",
		mcp.WithDescription("Get the OAuth URL to authorize Gmail access for a specific account"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
	)
	s.AddTool(getAuthURLTool, common.InstrumentedToolHandler("google_get_auth_url", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetAuthURL(ctx, request, sc)
		}))

	saveAuthCodeTool := mcp.NewTool("google_save_auth_code",
		mcp.WithDescription("Save the OAuth authorization code to complete Gmail authorization for a specific account"),
		mcp.WithString("account",
			mcp.Description(common.AccountParam),
		),
		mcp.WithString("authCode",
			mcp.Required(),
			mcp.Description("The authorization code from Google OAuth"),
		),
	)
	s.AddTool(saveAuthCodeTool, common.InstrumentedToolHandler("google_save_auth_code", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSaveAuthCode(ctx, request, sc)
		}))

	return nil
}

func credentialsHint(err error) string {
	if errors.Is(err, google.ErrNoClientCredentials) {
		return " Create an OAuth client of type \"Desktop app\" in the Google Cloud console and export its ID and secret."
	}
	return ""
}

func handleGetAuthURL(_ context.Context, request mcp.CallToolRequest, _ *server.ServerContext) (*mcp.CallToolResult, error) {
	account := common.GetAccountFromArgs(request.GetArguments())

	authURL, err := google.GetAuthURL(account)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to create authorization URL for account %s: %v.%s", account, err, credentialsHint(err))), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(`To authorize Gmail access for account "%s":

1. Visit this URL in your browser:
   %s

2. Sign in with your Google account
3. Grant access to Gmail
4. Copy the authorization code

5. Call the google_save_auth_code tool with the code and account name to complete authentication`, account, authURL)), nil
}

func handleSaveAuthCode(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	account := common.GetAccountFromArgs(args)

	authCode, err := common.RequiredString(args, "authCode")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := google.SaveTokenForAccount(ctx, account, authCode); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to save authorization code for account %s: %v.%s", account, err, credentialsHint(err))), nil
	}
	// A client built before this token existed must not be reused.
	sc.ForgetGmailClient(account)

	return mcp.NewToolResultText(fmt.Sprintf("Authorization successful for account '%s'. Gmail tools can now use this account.", account)), nil
}
