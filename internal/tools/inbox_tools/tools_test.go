package inbox_tools

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/gmail"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/storage/sqlite"
	"github.com/teemow/mailwright/internal/tools/batch"
	"github.com/teemow/mailwright/internal/triage"
)

type fakeGmail struct {
	mu       sync.Mutex
	messages []*gmailapi.Message
	deleted  []string
}

func (f *fakeGmail) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /gmail/v1/users/me/messages", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		resp := &gmailapi.ListMessagesResponse{}
		for _, m := range f.messages {
			resp.Messages = append(resp.Messages, &gmailapi.Message{Id: m.Id})
		}
		writeJSON(w, resp)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		for _, m := range f.messages {
			if m.Id == r.PathValue("id") {
				writeJSON(w, m)
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
	})
	mux.HandleFunc("DELETE /gmail/v1/users/me/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		id := r.PathValue("id")
		for i, m := range f.messages {
			if m.Id == id {
				f.messages = append(f.messages[:i], f.messages[i+1:]...)
				f.deleted = append(f.deleted, id)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.Error(w, `{"error":{"code":404,"message":"Not Found"}}`, http.StatusNotFound)
	})
	mux.HandleFunc("GET /gmail/v1/users/me/profile", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, &gmailapi.Profile{EmailAddress: "jane@example.com"})
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func message(id, from, subject, snippet string) *gmailapi.Message {
	return &gmailapi.Message{
		Id:      id,
		Snippet: snippet,
		Payload: &gmailapi.MessagePart{
			Headers: []*gmailapi.MessagePartHeader{
				{Name: "From", Value: from},
				{Name: "Subject", Value: subject},
			},
		},
	}
}

// fakeOpenAI answers every completion with reply and counts the calls.
type fakeOpenAI struct {
	mu      sync.Mutex
	reply   string
	calls   int
	prompts []string
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
	f.calls++
	if n := len(req.Messages); n > 0 {
		f.prompts = append(f.prompts, req.Messages[n-1].Content)
	}
	reply := f.reply
	f.mu.Unlock()

	writeJSON(w, map[string]any{
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

func (f *fakeOpenAI) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

const analysisReply = `Here is the analysis:
{
  "todos": [{"id": "m1", "subject": "Contract review", "from": "boss@example.com", "category": "urgent", "priority": "high", "action": "Review the contract", "context": "Due today"}],
  "spam": [{"id": "m2", "subject": "You won!", "from": "prize@spam.test", "reason": "Prize scam", "spamType": "phishing"}],
  "summary": {"totalEmails": 2, "actionableEmails": 1, "spamEmails": 1, "categories": {"URGENT": 1, "SPAM": 1}}
}`

type fixture struct {
	sc    *server.ServerContext
	gmail *fakeGmail
	api   *fakeOpenAI
}

func newFixture(t *testing.T, reply string) *fixture {
	t.Helper()
	t.Setenv("XDG_CACHE_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GOOGLE_CLIENT_ID", "")
	t.Setenv("GOOGLE_CLIENT_SECRET", "")

	f := &fixture{
		gmail: &fakeGmail{messages: []*gmailapi.Message{
			message("m1", "boss@example.com", "Contract review", "Please review the contract today"),
			message("m2", "prize@spam.test", "You won!", "Claim your prize"),
		}},
		api: &fakeOpenAI{reply: reply},
	}

	apiSrv := httptest.NewServer(f.api)
	t.Cleanup(apiSrv.Close)
	client, err := llm.NewClient(llm.Config{APIKey: "sk-test", BaseURL: apiSrv.URL + "/v1", Timeout: 5 * time.Second})
	require.NoError(t, err)

	store, err := sqlite.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sc, err := server.NewServerContext(context.Background(), config.Default(), store, server.WithLLMClient(client))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })

	gmailSrv := httptest.NewServer(f.gmail.handler())
	t.Cleanup(gmailSrv.Close)
	svc, err := gmailapi.NewService(context.Background(),
		option.WithHTTPClient(gmailSrv.Client()),
		option.WithEndpoint(gmailSrv.URL+"/"),
	)
	require.NoError(t, err)
	sc.SetGmailClientForAccount("work", gmail.NewClientWithService(svc, "work"))

	f.sc = sc
	return f
}

type handler func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)

func (f *fixture) call(t *testing.T, h handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	result, err := h(context.Background(), req, f.sc)
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

func TestAnalyze_CachesResult(t *testing.T) {
	f := newFixture(t, analysisReply)
	args := map[string]any{"account": "work"}

	first := decode[triage.Result](t, f.call(t, handleAnalyze, args))
	assert.False(t, first.Cached)
	assert.Equal(t, 2, first.EmailCount)
	require.Len(t, first.Analysis.Todos, 1)
	assert.Equal(t, llm.CategoryUrgent, first.Analysis.Todos[0].Category)
	assert.Equal(t, llm.PriorityHigh, first.Analysis.Todos[0].Priority)
	require.Len(t, first.Analysis.Spam, 1)
	assert.Equal(t, "m2", first.Analysis.Spam[0].ID)

	second := decode[triage.Result](t, f.call(t, handleAnalyze, args))
	assert.True(t, second.Cached)
	assert.Equal(t, 1, f.api.callCount())

	decode[triage.Result](t, f.call(t, handleAnalyze, map[string]any{"account": "work", "force": true}))
	assert.Equal(t, 2, f.api.callCount())
}

func TestCacheTools(t *testing.T) {
	f := newFixture(t, analysisReply)
	args := map[string]any{"account": "work"}

	status := decode[triage.CacheStatus](t, f.call(t, handleCacheStatus, args))
	assert.False(t, status.HasCache)

	r := f.call(t, handleCacheLoad, args)
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), "No cached analysis found")

	decode[triage.Result](t, f.call(t, handleAnalyze, args))

	status = decode[triage.CacheStatus](t, f.call(t, handleCacheStatus, args))
	assert.True(t, status.HasCache)
	assert.Equal(t, 2, status.EmailCount)

	loaded := decode[triage.Result](t, f.call(t, handleCacheLoad, args))
	assert.True(t, loaded.Cached)
	assert.Len(t, loaded.Emails, 2)

	r = f.call(t, handleCacheClear, args)
	assert.False(t, r.IsError)
	assert.Equal(t, "Cache cleared for account work", text(t, r))

	status = decode[triage.CacheStatus](t, f.call(t, handleCacheStatus, args))
	assert.False(t, status.HasCache)
}

func TestDailyReports(t *testing.T) {
	t.Run("summary returns model text", func(t *testing.T) {
		f := newFixture(t, "A quiet day with one urgent contract.")
		h := func(ctx context.Context, req mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleDailyReport(ctx, req, sc, func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailySummary(ctx, emails)
			})
		}
		r := f.call(t, h, map[string]any{"account": "work"})
		require.False(t, r.IsError, text(t, r))
		assert.Equal(t, "A quiet day with one urgent contract.", text(t, r))
		assert.Contains(t, f.api.prompts[0], "Contract review")
	})

	t.Run("insights decode to JSON", func(t *testing.T) {
		f := newFixture(t, `{"commonTopics": ["contracts"], "insights": "Mostly work", "writingStyle": "Formal", "trends": "None"}`)
		h := func(ctx context.Context, req mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleDailyReport(ctx, req, sc, func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailyInsights(ctx, emails, allContent(emails))
			})
		}
		got := decode[llm.DailyInsights](t, f.call(t, h, map[string]any{"account": "work"}))
		assert.Equal(t, []string{"contracts"}, got.CommonTopics)
		assert.Equal(t, "Formal", got.WritingStyle)
	})

	t.Run("empty inbox skips the model", func(t *testing.T) {
		f := newFixture(t, "unused")
		f.gmail.messages = nil
		h := func(ctx context.Context, req mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
			return handleDailyReport(ctx, req, sc, func(ctx context.Context, c *llm.Client, emails []llm.EmailDigest) (any, error) {
				return c.DailyPatterns(ctx, emails)
			})
		}
		r := f.call(t, h, map[string]any{"account": "work"})
		assert.Equal(t, "No emails received today.", text(t, r))
		assert.Zero(t, f.api.callCount())
	})
}

func TestAllContent(t *testing.T) {
	got := allContent([]llm.EmailDigest{
		{Subject: "One", Body: "first"},
		{Subject: "Two", Body: "second"},
	})
	assert.Equal(t, "Subject: One\nfirst\n\nSubject: Two\nsecond", got)
}

func TestTestConnection(t *testing.T) {
	f := newFixture(t, analysisReply)

	r := f.call(t, handleTestConnection, map[string]any{"account": "work"})
	assert.Equal(t, "Connected successfully! Email: jane@example.com", text(t, r))

	r = f.call(t, handleTestConnection, map[string]any{"account": "personal"})
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), `"personal"`)
}

func TestDeleteSpam(t *testing.T) {
	f := newFixture(t, analysisReply)
	args := map[string]any{"account": "work"}
	decode[triage.Result](t, f.call(t, handleAnalyze, args))

	got := decode[batch.BatchResult](t, f.call(t, handleDeleteSpam, map[string]any{
		"account":    "work",
		"messageIds": []any{"m2", "missing"},
	}))
	assert.Equal(t, 2, got.Total)
	assert.Equal(t, 1, got.Successful)
	assert.Equal(t, 1, got.Failed)
	assert.Equal(t, []string{"m2"}, f.gmail.deleted)

	loaded := decode[triage.Result](t, f.call(t, handleCacheLoad, args))
	assert.Empty(t, loaded.Analysis.Spam)
	assert.Equal(t, 0, loaded.Analysis.Summary.SpamEmails)
	assert.Len(t, loaded.Emails, 1)

	r := f.call(t, handleDeleteSpam, map[string]any{"account": "work"})
	assert.True(t, r.IsError)
	assert.Contains(t, text(t, r), "messageIds is required")
}

func TestRegisterInboxTools(t *testing.T) {
	f := newFixture(t, analysisReply)

	names := func(readOnly bool) []string {
		s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
		require.NoError(t, RegisterInboxTools(s, f.sc, readOnly))
		var out []string
		for _, st := range s.ListTools() {
			out = append(out, st.Tool.Name)
		}
		return out
	}

	readOnly := names(true)
	assert.Len(t, readOnly, 9)
	assert.NotContains(t, readOnly, "inbox_delete_spam")
	for _, n := range readOnly {
		assert.True(t, strings.HasPrefix(n, "inbox_"), n)
	}

	assert.Contains(t, names(false), "inbox_delete_spam")
}
