package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/teemow/mailwright/internal/compose"
	"github.com/teemow/mailwright/internal/config"
	"github.com/teemow/mailwright/internal/gmail"
	"github.com/teemow/mailwright/internal/google"
	"github.com/teemow/mailwright/internal/instrumentation"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/storage/sqlite"
	"github.com/teemow/mailwright/internal/triage"
)

// ServerContext holds the dependencies shared by the MCP tools.
type ServerContext struct {
	ctx    context.Context
	cancel context.CancelFunc

	cfg    *config.Config
	store  *sqlite.Store
	drafts *compose.Drafts
	triage *triage.Service

	llmClient *llm.Client
	llmErr    error

	gmailClients map[string]*gmail.Client // Maps account name to Gmail client
	tokens       google.TokenProvider

	metrics *instrumentation.Metrics
	audit   *instrumentation.AuditLogger
	logger  *slog.Logger
	yolo    bool

	mu       sync.RWMutex
	shutdown bool
}

// Option configures a ServerContext.
type Option func(*ServerContext)

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(sc *ServerContext) { sc.metrics = m }
}

func WithAuditLogger(a *instrumentation.AuditLogger) Option {
	return func(sc *ServerContext) { sc.audit = a }
}

func WithLogger(l *slog.Logger) Option {
	return func(sc *ServerContext) {
		if l != nil {
			sc.logger = l
		}
	}
}

// WithYolo enables tools that change mailbox state.
func WithYolo(yolo bool) Option {
	return func(sc *ServerContext) { sc.yolo = yolo }
}

// WithTokenProvider replaces the file based token lookup.
func WithTokenProvider(p google.TokenProvider) Option {
	return func(sc *ServerContext) { sc.tokens = p }
}

// WithLLMClient overrides the client built from the configuration.
func WithLLMClient(c *llm.Client) Option {
	return func(sc *ServerContext) {
		sc.llmClient = c
		sc.llmErr = nil
	}
}

// NewServerContext creates a new server context. A missing OpenAI API key is
// not an error here; the writing tools report it when called.
func NewServerContext(ctx context.Context, cfg *config.Config, store *sqlite.Store, opts ...Option) (*ServerContext, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if store == nil {
		return nil, fmt.Errorf("store is required")
	}

	shutdownCtx, cancel := context.WithCancel(ctx)
	sc := &ServerContext{
		ctx:          shutdownCtx,
		cancel:       cancel,
		cfg:          cfg,
		store:        store,
		gmailClients: make(map[string]*gmail.Client),
		tokens:       google.NewFileTokenProvider(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(sc)
	}

	if sc.llmClient == nil {
		sc.llmClient, sc.llmErr = llm.NewClient(cfg.LLM(),
			llm.WithMetrics(sc.metrics),
			llm.WithLogger(sc.logger))
		if sc.llmErr != nil && !errors.Is(sc.llmErr, llm.ErrMissingAPIKey) {
			cancel()
			return nil, sc.llmErr
		}
	}

	sc.drafts = compose.NewDrafts(compose.DraftsConfig{
		Checker:     compose.CheckerFunc(sc.checkGrammar),
		Logger:      sc.logger,
		Debounce:    cfg.Compose.Debounce,
		MinCheckLen: cfg.Compose.MinCheckLength,
		ManualCheck: !cfg.Compose.AutoGrammarCheck,
		MaxOpen:     cfg.Compose.MaxDrafts,
		IdleTimeout: cfg.Compose.DraftIdleTimeout,
		OnAnalysis: func(id string, a compose.Analysis) {
			if !a.Skipped {
				logging.WithDraft(sc.logger, id).Debug("draft re-analyzed", slog.Int("suggestions", len(a.Suggestions)))
			}
		},
	})

	sc.triage = triage.NewService(sc.mailClient, sc, store, triage.Config{
		CacheTTL:    cfg.Triage.CacheTTL,
		MaxResults:  cfg.Triage.MaxResults,
		DetailLimit: cfg.Triage.DetailLimit,
		Concurrency: cfg.Triage.Concurrency,
	}, triage.WithMetrics(sc.metrics), triage.WithLogger(sc.logger))

	return sc, nil
}

// Context returns the server context
func (sc *ServerContext) Context() context.Context {
	return sc.ctx
}

func (sc *ServerContext) Config() *config.Config { return sc.cfg }

func (sc *ServerContext) Store() *sqlite.Store { return sc.store }

func (sc *ServerContext) Drafts() *compose.Drafts { return sc.drafts }

func (sc *ServerContext) Triage() *triage.Service { return sc.triage }

func (sc *ServerContext) Logger() *slog.Logger { return sc.logger }

// Metrics returns the metrics recorder, or nil when instrumentation is off.
func (sc *ServerContext) Metrics() *instrumentation.Metrics { return sc.metrics }

func (sc *ServerContext) AuditLogger() *instrumentation.AuditLogger { return sc.audit }

// Yolo reports whether destructive tools are enabled.
func (sc *ServerContext) Yolo() bool { return sc.yolo }

// LLM returns the OpenAI client, or llm.ErrMissingAPIKey when no API key is
// configured.
func (sc *ServerContext) LLM() (*llm.Client, error) {
	if sc.llmErr != nil {
		return nil, sc.llmErr
	}
	return sc.llmClient, nil
}

// AnalyzeInbox implements triage.Analyzer on top of the configured LLM.
func (sc *ServerContext) AnalyzeInbox(ctx context.Context, emails []llm.EmailDigest) (*llm.InboxAnalysis, error) {
	c, err := sc.LLM()
	if err != nil {
		return nil, err
	}
	return c.AnalyzeInbox(ctx, emails)
}

func (sc *ServerContext) checkGrammar(ctx context.Context, body string) ([]compose.Suggestion, error) {
	c, err := sc.LLM()
	if err != nil {
		return nil, err
	}
	return c.CheckGrammar(ctx, body)
}

// OpenDraft registers a compose session over editor.
func (sc *ServerContext) OpenDraft(editor compose.Editor) *compose.Session {
	s := sc.drafts.Open(editor)
	sc.metrics.DraftOpened(sc.ctx)
	return s
}

// CloseDraft closes the compose session with the given id.
func (sc *ServerContext) CloseDraft(id string) error {
	if err := sc.drafts.Close(id); err != nil {
		return err
	}
	sc.metrics.DraftClosed(sc.ctx)
	return nil
}

// GmailClientForAccount returns the Gmail client for a specific account.
// Creates and caches the client if it doesn't exist yet.
func (sc *ServerContext) GmailClientForAccount(ctx context.Context, account string) (*gmail.Client, error) {
	if err := google.ValidateAccountName(account); err != nil {
		return nil, err
	}

	sc.mu.Lock()
	defer sc.mu.Unlock()

	if client, ok := sc.gmailClients[account]; ok {
		return client, nil
	}
	if !sc.tokens.HasTokenForAccount(account) {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), google.ErrNoToken)
	}

	ts, err := sc.tokens.TokenSource(sc.ctx, account)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", google.GetAuthenticationErrorMessage(account), err)
	}
	client, err := gmail.NewClient(sc.ctx, account, ts, gmail.WithMetrics(sc.metrics))
	if err != nil {
		sc.logger.Warn("failed to create Gmail client", logging.Account(account), logging.Err(err))
		return nil, err
	}

	sc.gmailClients[account] = client
	return client, nil
}

func (sc *ServerContext) mailClient(ctx context.Context, account string) (triage.MailClient, error) {
	c, err := sc.GmailClientForAccount(ctx, account)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetGmailClientForAccount sets the Gmail client for a specific account
func (sc *ServerContext) SetGmailClientForAccount(account string, client *gmail.Client) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.gmailClients[account] = client
}

// ForgetGmailClient drops a cached client, e.g. after a new token was saved.
func (sc *ServerContext) ForgetGmailClient(account string) {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	delete(sc.gmailClients, account)
}

// IsShutdown returns whether the server has been shutdown
func (sc *ServerContext) IsShutdown() bool {
	sc.mu.RLock()
	defer sc.mu.RUnlock()
	return sc.shutdown
}

// Shutdown closes all drafts and cancels the server context. The store is
// owned by the caller.
func (sc *ServerContext) Shutdown() error {
	sc.mu.Lock()
	if sc.shutdown {
		sc.mu.Unlock()
		return nil
	}
	sc.shutdown = true
	sc.mu.Unlock()

	for range sc.drafts.Len() {
		sc.metrics.DraftClosed(sc.ctx)
	}
	sc.drafts.CloseAll()
	sc.cancel()
	return nil
}
