package server

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/teemow/mailwright/internal/compose"
	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

func newTestServerContext(t *testing.T, opts ...Option) *ServerContext {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := NewServerContext(context.Background(), config.Default(), store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func TestNewServerContext_RequiresDependencies(t *testing.T) {
	_, err := NewServerContext(context.Background(), nil, nil)
	require.Error(t, err)

	_, err = NewServerContext(context.Background(), config.Default(), nil)
	require.Error(t, err)
}

func TestServerContext_WithoutAPIKey(t *testing.T) {
	sc := newTestServerContext(t)

	_, err := sc.LLM()
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)

	_, err = sc.AnalyzeInbox(context.Background(), nil)
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)

	// Drafts still work; analysis reports the missing key.
	editor, err := compose.NewEditor(compose.FormatText, "Please review the attached report before Friday.")
	require.NoError(t, err)
	s := sc.OpenDraft(editor)
	_, err = s.Check(context.Background())
	require.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestServerContext_WithLLMClient(t *testing.T) {
	cfg := llm.DefaultConfig("sk-test")
	client, err := llm.NewClient(cfg)
	require.NoError(t, err)

	sc := newTestServerContext(t, WithLLMClient(client), WithYolo(true))

	got, err := sc.LLM()
	require.NoError(t, err)
	assert.Same(t, client, got)
	assert.True(t, sc.Yolo())
}

func TestServerContext_Drafts(t *testing.T) {
	sc := newTestServerContext(t)

	editor, err := compose.NewEditor(compose.FormatText, "Hi")
	require.NoError(t, err)
	s := sc.OpenDraft(editor)
	assert.Equal(t, 1, sc.Drafts().Len())

	got, err := sc.Drafts().Get(s.ID())
	require.NoError(t, err)
	assert.Same(t, s, got)

	require.NoError(t, sc.CloseDraft(s.ID()))
	assert.Equal(t, 0, sc.Drafts().Len())
	require.Error(t, sc.CloseDraft(s.ID()))
}

func TestServerContext_GmailClientForAccount(t *testing.T) {
	sc := newTestServerContext(t)
	ctx := context.Background()

	_, err := sc.GmailClientForAccount(ctx, "../etc")
	require.Error(t, err)

	_, err = sc.GmailClientForAccount(ctx, "work")
	require.ErrorIs(t, err, google.ErrNoToken)

	_, err = sc.Triage().Analyze(ctx, "work", false)
	require.ErrorIs(t, err, google.ErrNoToken)
}

type denyTokens struct{ asked []string }

func (d *denyTokens) TokenSource(context.Context, string) (oauth2.TokenSource, error) {
	return nil, google.ErrNoToken
}

func (d *denyTokens) HasTokenForAccount(account string) bool {
	d.asked = append(d.asked, account)
	return false
}

func TestServerContext_TokenProvider(t *testing.T) {
	tokens := &denyTokens{}
	sc := newTestServerContext(t, WithTokenProvider(tokens))

	_, err := sc.GmailClientForAccount(context.Background(), "work")
	require.ErrorIs(t, err, google.ErrNoToken)
	assert.Equal(t, []string{"work"}, tokens.asked)
}

type staticTokens struct{ token *oauth2.Token }

func (s staticTokens) TokenSource(context.Context, string) (oauth2.TokenSource, error) {
	return oauth2.StaticTokenSource(s.token), nil
}

func (s staticTokens) HasTokenForAccount(string) bool { return true }

func TestServerContext_ClientFromTokenProvider(t *testing.T) {
	sc := newTestServerContext(t, WithTokenProvider(staticTokens{token: &oauth2.Token{AccessToken: "access"}}))

	client, err := sc.GmailClientForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Equal(t, "work", client.Account())

	again, err := sc.GmailClientForAccount(context.Background(), "work")
	require.NoError(t, err)
	assert.Same(t, client, again)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc := newTestServerContext(t)

	editor, err := compose.NewEditor(compose.FormatText, "Hello there")
	require.NoError(t, err)
	sc.OpenDraft(editor)

	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Equal(t, 0, sc.Drafts().Len())
	assert.True(t, errors.Is(sc.Context().Err(), context.Canceled))

	// Idempotent
	require.NoError(t, sc.Shutdown())
}
