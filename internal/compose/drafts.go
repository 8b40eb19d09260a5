package compose

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/teemow/mailwright/internal/logging"
)

const (
	// DefaultMaxDrafts is the number of sessions kept open at once.
	DefaultMaxDrafts = 100
	// DefaultDraftIdleTimeout is how long an unused session is kept.
	DefaultDraftIdleTimeout = 30 * time.Minute
)

type draft struct {
	session  *Session
	lastUsed time.Time
}

// Drafts keeps the open compose sessions of a process. Sessions unused for
// longer than the idle timeout are closed when the next one is opened, and
// the least recently used session is closed when the registry is full.
type Drafts struct {
	checker    Checker
	logger     logging.Logger
	debounce   time.Duration
	minLen     int
	manual     bool
	onAnalysis func(string, Analysis)
	maxOpen    int
	idle       time.Duration
	now        func() time.Time

	mu       sync.RWMutex
	sessions map[string]*draft
}

// DraftsConfig configures the sessions created by a Drafts registry.
type DraftsConfig struct {
	Checker  Checker
	Logger   logging.Logger
	Debounce time.Duration

	// MinCheckLen is passed to every session as SessionConfig.MinCheckLen.
	MinCheckLen int
	ManualCheck bool
	OnAnalysis  func(id string, a Analysis)

	// MaxOpen defaults to DefaultMaxDrafts.
	MaxOpen int
	// IdleTimeout defaults to DefaultDraftIdleTimeout.
	IdleTimeout time.Duration
	// Now is used for tests.
	Now func() time.Time
}

func NewDrafts(cfg DraftsConfig) *Drafts {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.MaxOpen <= 0 {
		cfg.MaxOpen = DefaultMaxDrafts
	}
	if cfg.IdleTimeout <= 0 {
		cfg.IdleTimeout = DefaultDraftIdleTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Drafts{
		checker:    cfg.Checker,
		logger:     cfg.Logger,
		debounce:   cfg.Debounce,
		minLen:     cfg.MinCheckLen,
		manual:     cfg.ManualCheck,
		onAnalysis: cfg.OnAnalysis,
		maxOpen:    cfg.MaxOpen,
		idle:       cfg.IdleTimeout,
		now:        cfg.Now,
		sessions:   make(map[string]*draft),
	}
}

// Open creates a session over editor and returns it.
func (d *Drafts) Open(editor Editor) *Session {
	id := uuid.NewString()
	s := NewSession(editor, SessionConfig{
		ID:          id,
		Checker:     d.checker,
		Logger:      d.logger,
		Debounce:    d.debounce,
		MinCheckLen: d.minLen,
		ManualCheck: d.manual,
		OnAnalysis:  d.onAnalysis,
	})

	d.mu.Lock()
	now := d.now()
	evicted := d.evictLocked(now)
	d.sessions[id] = &draft{session: s, lastUsed: now}
	d.mu.Unlock()

	for _, old := range evicted {
		d.logger.Info("draft closed", logging.KeyDraft, old.ID())
		old.Close()
	}
	return s
}

// evictLocked removes idle sessions and, when the registry is still full,
// the least recently used one. The caller closes the returned sessions.
func (d *Drafts) evictLocked(now time.Time) []*Session {
	var evicted []*Session
	for id, e := range d.sessions {
		if now.Sub(e.lastUsed) >= d.idle {
			delete(d.sessions, id)
			evicted = append(evicted, e.session)
		}
	}
	for len(d.sessions) >= d.maxOpen {
		var (
			oldestID string
			oldest   *draft
		)
		for id, e := range d.sessions {
			if oldest == nil || e.lastUsed.Before(oldest.lastUsed) {
				oldestID, oldest = id, e
			}
		}
		delete(d.sessions, oldestID)
		evicted = append(evicted, oldest.session)
	}
	return evicted
}

// Get returns the session with the given id and marks it as used.
func (d *Drafts) Get(id string) (*Session, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.sessions[id]
	if !ok {
		return nil, fmt.Errorf("draft %q not found", id)
	}
	e.lastUsed = d.now()
	return e.session, nil
}

// Close closes and forgets the session with the given id.
func (d *Drafts) Close(id string) error {
	d.mu.Lock()
	e, ok := d.sessions[id]
	delete(d.sessions, id)
	d.mu.Unlock()
	if !ok {
		return fmt.Errorf("draft %q not found", id)
	}
	e.session.Close()
	return nil
}

func (d *Drafts) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.sessions)
}

// CloseAll closes every open session.
func (d *Drafts) CloseAll() {
	d.mu.Lock()
	sessions := d.sessions
	d.sessions = make(map[string]*draft)
	d.mu.Unlock()

	for _, e := range sessions {
		e.session.Close()
	}
}
