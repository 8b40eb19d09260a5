package google_tools

import (
	"context"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

func newTestContext(t *testing.T) *server.ServerContext {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := server.NewServerContext(context.Background(), config.Default(), store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(t *testing.T, sc *server.ServerContext, h func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error), args map[string]any) (*mcp.CallToolResult, string) {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req, sc)
	require.NoError(t, err)
	require.NotEmpty(t, result.Content)
	tc, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return result, tc.Text
}

func TestGetAuthURL(t *testing.T) {
	sc := newTestContext(t)

	t.Run("without client credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "")
		t.Setenv("GOOGLE_CLIENT_SECRET", "")

		r, text := call(t, sc, handleGetAuthURL, map[string]any{"account": "work"})
		assert.True(t, r.IsError)
		assert.Contains(t, text, "GOOGLE_CLIENT_ID")
		assert.Contains(t, text, "Desktop app")
	})

	t.Run("with client credentials", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

		r, text := call(t, sc, handleGetAuthURL, map[string]any{"account": "work"})
		assert.False(t, r.IsError)
		assert.Contains(t, text, "https://accounts.google.com/")
		assert.Contains(t, text, "state=work")
		assert.Contains(t, text, `account "work"`)
	})

	t.Run("invalid account name", func(t *testing.T) {
		t.Setenv("GOOGLE_CLIENT_ID", "client-id")
		t.Setenv("GOOGLE_CLIENT_SECRET", "client-secret")

		r, _ := call(t, sc, handleGetAuthURL, map[string]any{"account": "../etc"})
		assert.True(t, r.IsError)
	})
}

func TestSaveAuthCode(t *testing.T) {
	sc := newTestContext(t)
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	r, text := call(t, sc, handleSaveAuthCode, map[string]any{"account": "work"})
	assert.True(t, r.IsError)
	assert.Contains(t, text, "authCode")

	r, text = call(t, sc, handleSaveAuthCode, map[string]any{"account": "work", "authCode": "4/abc"})
	assert.True(t, r.IsError)
	assert.Contains(t, text, "Failed to save authorization code for account work")
}
