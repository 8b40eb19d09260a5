package triage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"
	gmailapi "google.golang.org/api/gmail/v1"

	"github.com/teemow/mailwright/internal/gmail"
	"github.com/teemow/mailwright/internal/instrumentation"
	"github.com/teemow/mailwright/internal/llm"
	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/storage/sqlite"
)

// ErrNoCache is returned by LoadCached when no analysis has been stored.
var ErrNoCache = errors.New("no cached analysis found")

// MailClient is the mail provider used by the Service. *gmail.Client
// implements it.
type MailClient interface {
	ListRecentMessages(ctx context.Context, since time.Time, maxResults int64) ([]string, error)
	GetMessage(ctx context.Context, messageID string) (*gmailapi.Message, error)
	DeleteMessage(ctx context.Context, messageID string) error
	Profile(ctx context.Context) (string, error)
}

// ClientFactory returns the MailClient for an account.
type ClientFactory func(ctx context.Context, account string) (MailClient, error)

// Analyzer classifies email digests. *llm.Client implements it.
type Analyzer interface {
	AnalyzeInbox(ctx context.Context, emails []llm.EmailDigest) (*llm.InboxAnalysis, error)
}

// CacheStore persists analyses. *sqlite.Store implements it.
type CacheStore interface {
	PutAnalysis(ctx context.Context, c sqlite.CachedAnalysis) error
	GetAnalysis(ctx context.Context, account string) (*sqlite.CachedAnalysis, error)
	DeleteAnalysis(ctx context.Context, account string) error
}

type Config struct {
	CacheTTL time.Duration
	// MaxResults bounds the message list request.
	MaxResults int64
	// DetailLimit is the number of messages fetched and analyzed.
	DetailLimit int
	// Concurrency bounds parallel message fetches.
	Concurrency int
}

func (c Config) withDefaults() Config {
	if c.CacheTTL <= 0 {
		c.CacheTTL = DefaultCacheTTL
	}
	if c.MaxResults <= 0 {
		c.MaxResults = 50
	}
	if c.DetailLimit <= 0 {
		c.DetailLimit = 20
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 5
	}
	return c
}

// Service runs inbox analyses.
type Service struct {
	clients  ClientFactory
	analyzer Analyzer
	store    CacheStore
	cfg      Config

	now     func() time.Time
	metrics *instrumentation.Metrics
	logger  *slog.Logger
}

type Option func(*Service)

func WithMetrics(m *instrumentation.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(clients ClientFactory, analyzer Analyzer, store CacheStore, cfg Config, opts ...Option) *Service {
	s := &Service{
		clients:  clients,
		analyzer: analyzer,
		store:    store,
		cfg:      cfg.withDefaults(),
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result is an inbox analysis with the emails it was computed from.
type Result struct {
	Analysis   *llm.InboxAnalysis `json:"analysis"`
	EmailCount int                `json:"emailCount"`
	Emails     []gmail.Email      `json:"allEmails"`
	AnalyzedAt time.Time          `json:"analyzedAt"`
	Cached     bool               `json:"cached"`
	// CacheAge is the age of a cached result in whole minutes.
	CacheAge int `json:"cacheAge"`
}

// payload is the stored form of a Result.
type payload struct {
	Analysis *llm.InboxAnalysis `json:"analysis"`
	Emails   []gmail.Email      `json:"allEmails"`
}

// Midnight returns the start of the local day containing t.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Analyze returns the analysis of today's inbox for account. A valid cached
// analysis is returned unless force is set.
func (s *Service) Analyze(ctx context.Context, account string, force bool) (*Result, error) {
	log := logging.WithAccount(logging.WithOperation(s.logger, "inbox_analyze"), account)

	if !force {
		cached, err := s.load(ctx, account)
		switch {
		case err == nil:
			v := ValidityAt(cached.AnalyzedAt, s.now(), s.cfg.CacheTTL)
			if v.Valid {
				s.metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
				cached.Cached = true
				cached.CacheAge = v.AgeMinutes()
				log.Debug("returning cached analysis", slog.Int("age_minutes", cached.CacheAge))
				return cached, nil
			}
			s.metrics.RecordCacheLookup(ctx, instrumentation.CacheStale)
		case errors.Is(err, ErrNoCache):
			s.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
		default:
			log.Warn("ignoring unreadable cache", logging.Err(err))
			s.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
		}
	}

	client, err := s.clients(ctx, account)
	if err != nil {
		return nil, err
	}

	now := s.now()
	emails, err := s.fetchToday(ctx, client, now, log)
	if err != nil {
		return nil, err
	}

	analysis, err := s.analyzer.AnalyzeInbox(ctx, Digests(emails))
	if err != nil {
		return nil, fmt.Errorf("failed to analyze inbox: %w", err)
	}

	result := &Result{
		Analysis:   analysis,
		EmailCount: len(emails),
		Emails:     emails,
		AnalyzedAt: now,
	}
	if err := s.save(ctx, account, result); err != nil {
		// The analysis is still good; only the cache is lost.
		log.Warn("failed to cache analysis", logging.Err(err))
	}

	log.Info("inbox analyzed",
		slog.Int("emails", len(emails)),
		slog.Int("todos", len(analysis.Todos)),
		slog.Int("spam", len(analysis.Spam)))
	return result, nil
}

// fetchToday lists messages since local midnight and fetches the first
// DetailLimit of them concurrently. Messages that fail to load are skipped;
// the order of the listing is preserved.
func (s *Service) fetchToday(ctx context.Context, client MailClient, now time.Time, log *slog.Logger) ([]gmail.Email, error) {
	ids, err := client.ListRecentMessages(ctx, Midnight(now), s.cfg.MaxResults)
	if err != nil {
		return nil, err
	}
	if len(ids) > s.cfg.DetailLimit {
		ids = ids[:s.cfg.DetailLimit]
	}

	fetched := make([]*gmail.Email, len(ids))
	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i, id := range ids {
		g.Go(func() error {
			msg, err := client.GetMessage(ctx, id)
			if err != nil {
				log.Warn("skipping message", slog.String("message_id", id), logging.Err(err))
				return nil
			}
			email := gmail.ParseMessage(msg)
			fetched[i] = &email
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	emails := make([]gmail.Email, 0, len(fetched))
	for _, e := range fetched {
		if e != nil {
			emails = append(emails, *e)
		}
	}
	return emails, nil
}

// Digests converts emails into the form sent to the model.
func Digests(emails []gmail.Email) []llm.EmailDigest {
	digests := make([]llm.EmailDigest, 0, len(emails))
	for _, e := range emails {
		digests = append(digests, llm.EmailDigest{
			ID:      e.ID,
			From:    e.From,
			Subject: e.Subject,
			Date:    e.Date,
			Snippet: e.Snippet,
			Body:    e.Body,
			Signals: e.Signals,
		})
	}
	return digests
}

func (s *Service) save(ctx context.Context, account string, r *Result) error {
	data, err := json.Marshal(payload{Analysis: r.Analysis, Emails: r.Emails})
	if err != nil {
		return fmt.Errorf("failed to encode analysis: %w", err)
	}
	return s.store.PutAnalysis(ctx, sqlite.CachedAnalysis{
		Account:    account,
		Payload:    data,
		EmailCount: r.EmailCount,
		StoredAt:   r.AnalyzedAt,
	})
}

func (s *Service) load(ctx context.Context, account string) (*Result, error) {
	c, err := s.store.GetAnalysis(ctx, account)
	if errors.Is(err, sqlite.ErrNotFound) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal(c.Payload, &p); err != nil {
		return nil, fmt.Errorf("failed to decode cached analysis: %w", err)
	}
	if p.Emails == nil {
		p.Emails = []gmail.Email{}
	}
	return &Result{
		Analysis:   p.Analysis,
		EmailCount: c.EmailCount,
		Emails:     p.Emails,
		AnalyzedAt: c.StoredAt,
	}, nil
}

// CacheStatus describes the cached analysis of an account.
type CacheStatus struct {
	HasCache         bool `json:"hasCache"`
	AgeMinutes       int  `json:"ageMinutes"`
	RemainingMinutes int  `json:"remainingMinutes"`
	EmailCount       int  `json:"emailCount"`
}

// CacheStatus reports whether account has a valid cached analysis. Expired
// entries count as no cache.
func (s *Service) CacheStatus(ctx context.Context, account string) (*CacheStatus, error) {
	c, err := s.store.GetAnalysis(ctx, account)
	if errors.Is(err, sqlite.ErrNotFound) {
		return &CacheStatus{}, nil
	}
	if err != nil {
		return nil, err
	}

	v := ValidityAt(c.StoredAt, s.now(), s.cfg.CacheTTL)
	if !v.Valid {
		return &CacheStatus{}, nil
	}
	return &CacheStatus{
		HasCache:         true,
		AgeMinutes:       v.AgeMinutes(),
		RemainingMinutes: v.RemainingMinutes(),
		EmailCount:       c.EmailCount,
	}, nil
}

// ClearCache removes the cached analysis of account.
func (s *Service) ClearCache(ctx context.Context, account string) error {
	return s.store.DeleteAnalysis(ctx, account)
}

// LoadCached returns the stored analysis regardless of its age, or
// ErrNoCache.
func (s *Service) LoadCached(ctx context.Context, account string) (*Result, error) {
	r, err := s.load(ctx, account)
	if err != nil {
		return nil, err
	}
	r.Cached = true
	r.CacheAge = ValidityAt(r.AnalyzedAt, s.now(), s.cfg.CacheTTL).AgeMinutes()
	return r, nil
}

// Emails returns today's emails of account, from the cache when it is
// valid and from the mail provider otherwise. The daily reports use it.
func (s *Service) Emails(ctx context.Context, account string) ([]gmail.Email, error) {
	if r, err := s.load(ctx, account); err == nil {
		if ValidityAt(r.AnalyzedAt, s.now(), s.cfg.CacheTTL).Valid {
			return r.Emails, nil
		}
	}
	client, err := s.clients(ctx, account)
	if err != nil {
		return nil, err
	}
	return s.fetchToday(ctx, client, s.now(), logging.WithAccount(s.logger, account))
}

// DeleteSpam permanently deletes a message and drops it from the cached
// analysis, if any.
func (s *Service) DeleteSpam(ctx context.Context, account, messageID string) error {
	client, err := s.clients(ctx, account)
	if err != nil {
		return err
	}
	if err := client.DeleteMessage(ctx, messageID); err != nil {
		return err
	}
	s.metrics.RecordSpamDeleted(ctx)

	r, err := s.load(ctx, account)
	if err != nil {
		return nil
	}
	if !r.remove(messageID) {
		return nil
	}
	if err := s.save(ctx, account, r); err != nil {
		s.logger.Warn("failed to update cached analysis", logging.Account(account), logging.Err(err))
	}
	return nil
}

// remove drops messageID from the result and reports whether anything
// changed. Summary counts are adjusted accordingly.
func (r *Result) remove(messageID string) bool {
	changed := false
	if r.Analysis != nil {
		before := len(r.Analysis.Spam)
		r.Analysis.Spam = slices.DeleteFunc(r.Analysis.Spam, func(item llm.SpamItem) bool { return item.ID == messageID })
		if removed := before - len(r.Analysis.Spam); removed > 0 {
			r.Analysis.Summary.SpamEmails = max(r.Analysis.Summary.SpamEmails-removed, 0)
			changed = true
		}
		before = len(r.Analysis.Todos)
		r.Analysis.Todos = slices.DeleteFunc(r.Analysis.Todos, func(t llm.Todo) bool { return t.ID == messageID })
		if removed := before - len(r.Analysis.Todos); removed > 0 {
			r.Analysis.Summary.ActionableEmails = max(r.Analysis.Summary.ActionableEmails-removed, 0)
			changed = true
		}
	}
	before := len(r.Emails)
	r.Emails = slices.DeleteFunc(r.Emails, func(e gmail.Email) bool { return e.ID == messageID })
	if len(r.Emails) != before {
		r.EmailCount = len(r.Emails)
		changed = true
	}
	return changed
}

// TestConnection returns the mailbox address of account.
func (s *Service) TestConnection(ctx context.Context, account string) (string, error) {
	client, err := s.clients(ctx, account)
	if err != nil {
		return "", err
	}
	return client.Profile(ctx)
}
