package writing_tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

// fakeOpenAI answers every chat completion with the next queued reply, or
// with fallback once the queue is empty.
type fakeOpenAI struct {
	mu       sync.Mutex
	replies  []string
	fallback string
	prompts  []string
}

func (f *fakeOpenAI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	var req struct {
		Messages []struct {
			Content string `json:"content"`
		} `json:"messages"`
	}
	_ = json.Unmarshal(body, &req)

	f.mu.Lock()
	if n := len(req.Messages); n > 0 {
		f.prompts = append(f.prompts, req.Messages[n-1].Content)
	}
	reply := f.fallback
	if len(f.replies) > 0 {
		reply, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":     "chatcmpl-test",
		"object": "chat.completion",
		"model":  "gpt-3.5-turbo",
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": reply},
			"finish_reason": "stop",
		}},
		"usage": map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}

func (f *fakeOpenAI) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func newTestContext(t *testing.T, api *fakeOpenAI, mutate func(*config.Config)) *server.ServerContext {
	t.Helper()
	cfg := config.Default()
	cfg.Compose.Debounce = 10 * time.Millisecond
	if mutate != nil {
		mutate(cfg)
	}

	var opts []server.Option
	if api != nil {
		ts := httptest.NewServer(api)
		t.Cleanup(ts.Close)
		client, err := llm.NewClient(llm.Config{
			APIKey:  "sk-test",
			BaseURL: ts.URL + "/v1",
			Timeout: 5 * time.Second,
		})
		require.NoError(t, err)
		opts = append(opts, server.WithLLMClient(client))
	}

	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := server.NewServerContext(context.Background(), cfg, store, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(t *testing.T, h func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error), args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result)
	return result
}

func text(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func decode[T any](t *testing.T, r *mcp.CallToolResult) T {
	t.Helper()
	require.False(t, r.IsError, text(t, r))
	var v T
	require.NoError(t, json.Unmarshal([]byte(text(t, r)), &v))
	return v
}

func TestGenerateEmail(t *testing.T) {
	api := &fakeOpenAI{fallback: "Dear team,\n\nThe launch moves to Monday."}
	sc := newTestContext(t, api, nil)

	r := call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGenerateEmail(ctx, req, sc)
	}, map[string]any{"thoughts": "launch monday"})
	assert.False(t, r.IsError)
	assert.Equal(t, "Dear team,\n\nThe launch moves to Monday.", text(t, r))
	assert.Contains(t, api.lastPrompt(), "professional")

	r = call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGenerateEmail(ctx, req, sc)
	}, map[string]any{})
	assert.True(t, r.IsError)
}

func TestWritingToolsWithoutAPIKey(t *testing.T) {
	sc := newTestContext(t, nil, nil)

	r := call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckGrammar(ctx, req, sc)
	}, map[string]any{"text": "I has a question."})
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), "OPENAI_API_KEY")
}

func TestCheckGrammarExcludesSignature(t *testing.T) {
	api := &fakeOpenAI{fallback: `{"suggestions":[{"type":"grammar","text":"I has","fix":"I have"}]}`}
	sc := newTestContext(t, api, nil)

	r := call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleCheckGrammar(ctx, req, sc)
	}, map[string]any{"text": "I has a question about the invoice.\n--\nJane Doe\nAcme Inc."})

	got := decode[suggestionsResult](t, r)
	require.Len(t, got.Suggestions, 1)
	assert.Equal(t, "I have", got.Suggestions[0].Fix)
	assert.Equal(t, "--\nJane Doe\nAcme Inc.", got.Signature)
	assert.NotContains(t, api.lastPrompt(), "Acme")
}

func TestImproveText(t *testing.T) {
	api := &fakeOpenAI{fallback: `"Thanks for your help."`}
	sc := newTestContext(t, api, nil)

	r := call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleImproveText(ctx, req, sc)
	}, map[string]any{"text": "Thanks for you help.", "focus": "grammar"})

	got := decode[improveResult](t, r)
	assert.Equal(t, "Thanks for your help.", got.Improved)
	assert.True(t, got.Changed)
	assert.NotEmpty(t, got.Changes)
}

func TestSplitSignature(t *testing.T) {
	r := call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleSplitSignature(ctx, req)
	}, map[string]any{"text": "Thanks for the update.\n\nBest,\nJane Doe\nSales Manager\njane@example.com"})

	got := decode[splitResult](t, r)
	assert.True(t, got.HasSignature)
	assert.Equal(t, "Thanks for the update.", got.Body)
	assert.Equal(t, "Best,\nJane Doe\nSales Manager\njane@example.com", got.Signature)
}

func TestApplyFix(t *testing.T) {
	sc := newTestContext(t, nil, nil)
	h := func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleApplyFix(ctx, req, sc)
	}

	t.Run("prefers the body", func(t *testing.T) {
		got := decode[fixResult](t, call(t, h, map[string]any{
			"text":     "Call Jane tomorrow.\n--\nJane Doe\nSales Manager",
			"original": "Jane",
			"fix":      "Janet",
		}))
		assert.True(t, got.Applied)
		assert.Equal(t, "Call Janet tomorrow.\n--\nJane Doe\nSales Manager", got.Text)
	})

	t.Run("html", func(t *testing.T) {
		got := decode[fixResult](t, call(t, h, map[string]any{
			"text":     "<div>I has <b>news</b></div>",
			"original": "I has",
			"fix":      "I have",
			"format":   "html",
		}))
		assert.True(t, got.Applied)
		assert.Equal(t, "I have news", got.Text)
		assert.Equal(t, "<div>I have <b>news</b></div>", got.HTML)
	})

	t.Run("missing fragment", func(t *testing.T) {
		r := call(t, h, map[string]any{"text": "Hello", "original": "Goodbye", "fix": "Bye"})
		assert.True(t, r.IsError)
		assert.Contains(t, text(t, r), "stale")
	})

	t.Run("unknown format", func(t *testing.T) {
		r := call(t, h, map[string]any{"text": "Hello", "original": "Hello", "format": "rtf"})
		assert.True(t, r.IsError)
	})
}

func TestDraftFlow(t *testing.T) {
	api := &fakeOpenAI{
		replies:  []string{`{"suggestions":[{"type":"Grammar","text":"I has","fix":"I have"}]}`},
		fallback: `{"suggestions":[]}`,
	}
	sc := newTestContext(t, api, nil)
	wrap := func(fn func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return fn(ctx, req, sc)
		}
	}

	checked := decode[draftView](t, call(t, wrap(handleDraftCheck), map[string]any{
		"content": "I has a question about the invoice.\n\nBest,\nJane",
	}))
	require.NotEmpty(t, checked.DraftID)
	require.Len(t, checked.Suggestions, 1)
	assert.Equal(t, "idle", checked.State)

	applied := decode[applyResult](t, call(t, wrap(handleDraftApplyFix), map[string]any{
		"draftId": checked.DraftID,
		"index":   0.0,
	}))
	assert.True(t, applied.Applied)
	assert.Equal(t, "I have a question about the invoice.\n\nBest,\nJane", applied.Text)

	// The debounced re-analysis replaces the stale suggestion.
	require.Eventually(t, func() bool {
		got := decode[draftView](t, call(t, wrap(handleDraftGet), map[string]any{"draftId": checked.DraftID}))
		return got.State == "idle" && got.SuggestionCount == 0
	}, 2*time.Second, 10*time.Millisecond)

	r := call(t, wrap(handleDraftApplyFix), map[string]any{"draftId": checked.DraftID, "index": 3.0})
	assert.True(t, r.IsError)

	r = call(t, wrap(handleDraftApplyFix), map[string]any{"draftId": checked.DraftID, "original": "I has", "fix": "I have"})
	assert.True(t, r.IsError)

	r = call(t, wrap(handleDraftClose), map[string]any{"draftId": checked.DraftID})
	assert.False(t, r.IsError)
	assert.Equal(t, fmt.Sprintf("Draft %s closed", checked.DraftID), text(t, r))

	r = call(t, wrap(handleDraftGet), map[string]any{"draftId": checked.DraftID})
	assert.True(t, r.IsError)
}

func TestDraftCheckHidesSuggestions(t *testing.T) {
	api := &fakeOpenAI{fallback: `{"suggestions":[{"type":"Spelling","text":"teh","fix":"the"}]}`}
	sc := newTestContext(t, api, func(c *config.Config) { c.Compose.ShowSuggestions = false })

	got := decode[draftView](t, call(t, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleDraftCheck(ctx, req, sc)
	}, map[string]any{"content": "<p>Please send teh report.</p>", "format": "html"}))
	assert.Empty(t, got.Suggestions)
	assert.Equal(t, 1, got.SuggestionCount)
	assert.True(t, strings.HasPrefix(got.HTML, "<p>"))
}
