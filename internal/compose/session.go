package compose

import (
	"context"
	"errors"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/teemow/mailwright/internal/logging"
	"github.com/teemow/mailwright/internal/signature"
)

const (
	// DefaultDebounce is the delay between a committed fix and the
	// re-analysis of the draft.
	DefaultDebounce = 500 * time.Millisecond
	// DefaultMinCheckLen is the shortest body worth sending for analysis.
	DefaultMinCheckLen = 10
)

// ErrSessionClosed is returned by operations on a closed Session.
var ErrSessionClosed = errors.New("compose session is closed")

// State is the state of a Session.
type State int

const (
	// StateIdle means no fix is outstanding.
	StateIdle State = iota
	// StateApplyingFix lasts from commit until the re-analysis is dispatched.
	StateApplyingFix
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateApplyingFix:
		return "applying_fix"
	default:
		return "unknown"
	}
}

// Analysis is the latest result of checking a draft body.
type Analysis struct {
	Suggestions []Suggestion `json:"suggestions"`
	CheckedAt   time.Time    `json:"checked_at"`
	// Skipped is set when the body was too short to check.
	Skipped bool  `json:"skipped,omitempty"`
	Err     error `json:"-"`
}

// SessionConfig configures a Session.
type SessionConfig struct {
	ID      string
	Checker Checker
	Logger  logging.Logger
	// Debounce defaults to DefaultDebounce.
	Debounce time.Duration
	// MinCheckLen defaults to DefaultMinCheckLen.
	MinCheckLen int
	// OnAnalysis, if set, is called after every re-analysis.
	OnAnalysis func(id string, a Analysis)
	// ManualCheck disables the re-analysis after a committed fix; the body
	// is only checked through Check.
	ManualCheck bool
}

// Session applies suggestions to one editor. It is safe for concurrent use.
type Session struct {
	id         string
	editor     Editor
	checker    Checker
	logger     logging.Logger
	debounce   time.Duration
	minLen     int
	onAnalysis func(string, Analysis)
	manual     bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	state    State
	timer    *time.Timer
	gen      uint64 // bumped for every scheduled re-analysis
	analysis Analysis
	closed   bool
}

// NewSession wraps editor. Close must be called to release the
// re-analysis goroutines.
func NewSession(editor Editor, cfg SessionConfig) *Session {
	if cfg.Logger == nil {
		cfg.Logger = logging.Discard()
	}
	if cfg.Debounce <= 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.MinCheckLen <= 0 {
		cfg.MinCheckLen = DefaultMinCheckLen
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Session{
		id:         cfg.ID,
		editor:     editor,
		checker:    cfg.Checker,
		logger:     cfg.Logger,
		debounce:   cfg.Debounce,
		minLen:     cfg.MinCheckLen,
		onAnalysis: cfg.OnAnalysis,
		manual:     cfg.ManualCheck,
		ctx:        ctx,
		cancel:     cancel,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Text returns the current rendered text of the draft.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editor.Text()
}

// HTML returns the rendered fragment when the editor is HTML-backed.
func (s *Session) HTML() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.editor.(interface{ HTML() string })
	if !ok {
		return "", false
	}
	return h.HTML(), true
}

// Analysis returns the latest analysis. Results of overlapping analyses
// overwrite each other in completion order.
func (s *Session) Analysis() Analysis {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.analysis
}

// Check analyses the current body synchronously and stores the result.
func (s *Session) Check(ctx context.Context) (Analysis, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return Analysis{}, ErrSessionClosed
	}
	text := s.editor.Text()
	s.mu.Unlock()

	a := s.analyze(ctx, text)
	return a, a.Err
}

// Apply commits sug to the editor. On success the editor is notified and a
// re-analysis is scheduled after the debounce delay; a later Apply pushes
// the pending re-analysis back. When the fragment cannot be located the
// editor is left untouched and nothing is scheduled.
func (s *Session) Apply(sug Suggestion) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return Outcome{}, ErrSessionClosed
	}

	s.state = StateApplyingFix
	out := Apply(s.editor, sug.Original, sug.Fix)
	if !out.Applied {
		s.logger.Warn("suggestion not applied, fragment not found",
			logging.KeyDraft, s.id,
			"type", string(sug.Type),
			"original_len", utf8.RuneCountInString(sug.Original))
		if s.timer == nil {
			s.state = StateIdle
		}
		return out, nil
	}

	s.editor.NotifyChanged()
	s.logger.Debug("suggestion applied",
		logging.KeyDraft, s.id,
		logging.KeyStrategy, out.Strategy)

	if s.manual {
		s.state = StateIdle
		return out, nil
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.gen++
	gen := s.gen
	s.timer = time.AfterFunc(s.debounce, func() { s.dispatch(gen) })
	return out, nil
}

// dispatch starts the re-analysis and returns the session to idle without
// waiting for it. A timer that fired after a later Apply rescheduled the
// re-analysis carries an old gen and does nothing.
func (s *Session) dispatch(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.gen {
		return
	}
	s.timer = nil
	s.state = StateIdle
	text := s.editor.Text()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		a := s.analyze(s.ctx, text)
		if s.onAnalysis != nil {
			s.onAnalysis(s.id, a)
		}
	}()
}

func (s *Session) analyze(ctx context.Context, text string) Analysis {
	body := signature.Split(text).Body
	a := Analysis{CheckedAt: time.Now()}
	switch {
	case utf8.RuneCountInString(body) < s.minLen:
		a.Skipped = true
	case s.checker == nil:
		a.Skipped = true
	default:
		a.Suggestions, a.Err = s.checker.Check(ctx, body)
		if a.Err != nil {
			s.logger.Warn("draft analysis failed", logging.KeyDraft, s.id, logging.KeyError, a.Err.Error())
		}
	}

	s.mu.Lock()
	if a.Err == nil {
		s.analysis = a
	}
	s.mu.Unlock()
	return a
}

// Suggestion returns the i-th suggestion of the latest analysis.
func (s *Session) Suggestion(i int) (Suggestion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.analysis.Suggestions) {
		return Suggestion{}, false
	}
	return s.analysis.Suggestions[i], true
}

// Close cancels a pending re-analysis and waits for running ones.
func (s *Session) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.state = StateIdle
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
