package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/server"
	"github.com/teemow/mailwright/internal/triage"
)

const (
	SettingsURI = "mailwright://settings"
	AccountsURI = "mailwright://accounts"
)

// RegisterResources registers the settings and accounts resources.
func RegisterResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	settingsResource := mcp.NewResource(
		SettingsURI,
		"Writing Settings",
		mcp.WithResourceDescription("Effective writing preferences and assistant configuration"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(settingsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleSettings(ctx, request, sc)
	})

	accountsResource := mcp.NewResource(
		AccountsURI,
		"Gmail Accounts",
		mcp.WithResourceDescription("Authorized Gmail accounts and the state of their inbox analysis cache"),
		mcp.WithMIMEType("application/json"),
	)
	s.AddResource(accountsResource, func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleAccounts(ctx, request, sc)
	})

	return nil
}

type settingsData struct {
	DefaultTone      string `json:"defaultTone"`
	AutoGrammarCheck bool   `json:"autoGrammarCheck"`
	ShowSuggestions  bool   `json:"showSuggestions"`
	DebounceMillis   int64  `json:"debounceMillis"`
	MinCheckLength   int    `json:"minCheckLength"`
	Model            string `json:"model"`
	APIKeyConfigured bool   `json:"apiKeyConfigured"`
	OpenDrafts       int    `json:"openDrafts"`
	CacheTTLMinutes  int    `json:"cacheTtlMinutes"`
}

func handleSettings(_ context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	cfg := sc.Config()
	_, llmErr := sc.LLM()

	return jsonContents(request.Params.URI, settingsData{
		DefaultTone:      cfg.Compose.DefaultTone,
		AutoGrammarCheck: cfg.Compose.AutoGrammarCheck,
		ShowSuggestions:  cfg.Compose.ShowSuggestions,
		DebounceMillis:   cfg.Compose.Debounce.Milliseconds(),
		MinCheckLength:   cfg.Compose.MinCheckLength,
		Model:            cfg.OpenAI.Model,
		APIKeyConfigured: llmErr == nil,
		OpenDrafts:       sc.Drafts().Len(),
		CacheTTLMinutes:  int(cfg.Triage.CacheTTL.Minutes()),
	})
}

type accountData struct {
	Account string              `json:"account"`
	Cache   *triage.CacheStatus `json:"cache,omitempty"`
	Error   string              `json:"error,omitempty"`
}

func handleAccounts(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	names, err := google.ListAccounts()
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	accounts := make([]accountData, 0, len(names))
	for _, name := range names {
		entry := accountData{Account: name}
		status, err := sc.Triage().CacheStatus(ctx, name)
		if err != nil {
			entry.Error = err.Error()
		} else {
			entry.Cache = status
		}
		accounts = append(accounts, entry)
	}

	return jsonContents(request.Params.URI, map[string]any{
		"accounts": accounts,
		"count":    len(accounts),
	})
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource data: %w", err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
