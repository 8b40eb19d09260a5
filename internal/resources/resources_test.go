package resources

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

func newServerContext(t *testing.T) (*server.ServerContext, *sqlite.Store) {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")

	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := server.NewServerContext(context.Background(), config.Default(), store)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc, store
}

func readRequest(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func decode(t *testing.T, contents []mcp.ResourceContents, v any) {
	t.Helper()
	require.Len(t, contents, 1)
	text, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)
	require.NoError(t, json.Unmarshal([]byte(text.Text), v))
}

func TestHandleSettings(t *testing.T) {
	sc, _ := newServerContext(t)

	contents, err := handleSettings(context.Background(), readRequest(SettingsURI), sc)
	require.NoError(t, err)

	var got settingsData
	decode(t, contents, &got)

	cfg := config.Default()
	assert.Equal(t, cfg.Compose.DefaultTone, got.DefaultTone)
	assert.Equal(t, cfg.Compose.AutoGrammarCheck, got.AutoGrammarCheck)
	assert.Equal(t, cfg.Compose.Debounce.Milliseconds(), got.DebounceMillis)
	assert.False(t, got.APIKeyConfigured)
	assert.Zero(t, got.OpenDrafts)
}

func TestHandleAccounts(t *testing.T) {
	sc, store := newServerContext(t)

	cache, err := os.UserCacheDir()
	require.NoError(t, err)
	dir := filepath.Join(cache, "mailwright")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	for _, name := range []string{"google-work.token", "google-home.token", "notes.txt"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o600))
	}

	require.NoError(t, store.PutAnalysis(context.Background(), sqlite.CachedAnalysis{
		Account:    "work",
		Payload:    []byte(`{}`),
		EmailCount: 4,
		StoredAt:   time.Now(),
	}))

	contents, err := handleAccounts(context.Background(), readRequest(AccountsURI), sc)
	require.NoError(t, err)

	var got struct {
		Accounts []accountData `json:"accounts"`
		Count    int           `json:"count"`
	}
	decode(t, contents, &got)

	require.Equal(t, 2, got.Count)
	assert.Equal(t, "home", got.Accounts[0].Account)
	assert.False(t, got.Accounts[0].Cache.HasCache)
	assert.Equal(t, "work", got.Accounts[1].Account)
	assert.True(t, got.Accounts[1].Cache.HasCache)
	assert.Equal(t, 4, got.Accounts[1].Cache.EmailCount)
}

func TestRegisterResources(t *testing.T) {
	sc, _ := newServerContext(t)
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))

	require.NoError(t, RegisterResources(s, sc))
}
