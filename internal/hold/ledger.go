package hold

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/logger"
	"github.com/stagepass/stagepass-backend/pkg/metrics"
)

// ExpiryHandler runs when a reservation window elapses: it must release the
// session's seat holds and clear the cart. The ledger only transitions to
// cleared after the handler settles, success or failure.
type ExpiryHandler interface {
	HandleExpiry(ctx context.Context, sessionID uuid.UUID) error
}

// ExpiryHandlerFunc adapts a function to the ExpiryHandler interface.
type ExpiryHandlerFunc func(ctx context.Context, sessionID uuid.UUID) error

func (fn ExpiryHandlerFunc) HandleExpiry(ctx context.Context, sessionID uuid.UUID) error {
	return fn(ctx, sessionID)
}

// LedgerParams configure the reservation ledger.
type LedgerParams struct {
	Logger   *logger.Logger
	Config   config.HoldConfig
	Notifier Notifier
	Metrics  *metrics.EngineMetrics
	Now      func() time.Time
}

// Ledger tracks one reservation window per cart session and drives the
// countdown state machine. All transitions happen under one mutex; the expiry
// transition is guarded so a slow tick or duplicate timer can never fire it
// twice.
type Ledger struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session

	logg     *logger.Logger
	cfg      config.HoldConfig
	notifier Notifier
	metrics  *metrics.EngineMetrics
	expiry   ExpiryHandler
	now      func() time.Time
}

type session struct {
	window Window
	state  State
	warned bool
	urgent bool
	cancel context.CancelFunc
}

// NewLedger builds a reservation ledger. The expiry handler is attached
// separately to break the wiring cycle with the cart store.
func NewLedger(params LedgerParams) (*Ledger, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Config.Duration <= 0 {
		return nil, fmt.Errorf("hold duration must be positive")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Ledger{
		sessions: map[uuid.UUID]*session{},
		logg:     params.Logger,
		cfg:      params.Config,
		notifier: params.Notifier,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// SetExpiryHandler attaches the expiry handler. Must be called before any
// session is begun.
func (l *Ledger) SetExpiryHandler(handler ExpiryHandler) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.expiry = handler
}

// Begin moves a session from empty to held and stamps the reservation window.
// Re-entering held (adding more lines) returns the existing window unchanged.
func (l *Ledger) Begin(sessionID uuid.UUID) Window {
	l.mu.Lock()
	if existing, ok := l.sessions[sessionID]; ok && existing.state == StateHeld {
		window := existing.window
		l.mu.Unlock()
		return window
	}

	created := l.now().UTC()
	window := Window{
		Deadline:  created.Add(l.cfg.Duration),
		CreatedAt: created,
	}
	sess := &session{window: window, state: StateHeld}

	var clockCtx context.Context
	if l.cfg.TickInterval > 0 {
		clockCtx, sess.cancel = context.WithCancel(context.Background())
	}
	l.sessions[sessionID] = sess
	l.mu.Unlock()

	if clockCtx != nil {
		go l.runClock(clockCtx, sessionID)
	}
	return window
}

// Adopt resumes tracking a window restored from storage, as after a process
// restart leaves redis carts with no clock driving them. It reports false when
// the window has already elapsed so the caller can run the expiry teardown.
// Adopting a session the ledger already tracks changes nothing.
func (l *Ledger) Adopt(sessionID uuid.UUID, window Window) bool {
	l.mu.Lock()
	if _, ok := l.sessions[sessionID]; ok {
		l.mu.Unlock()
		return true
	}
	if !l.now().Before(window.Deadline) {
		l.mu.Unlock()
		return false
	}

	sess := &session{window: window, state: StateHeld}
	var clockCtx context.Context
	if l.cfg.TickInterval > 0 {
		clockCtx, sess.cancel = context.WithCancel(context.Background())
	}
	l.sessions[sessionID] = sess
	l.mu.Unlock()

	if clockCtx != nil {
		go l.runClock(clockCtx, sessionID)
	}
	return true
}

// Window returns the reservation window for a held session.
func (l *Ledger) Window(sessionID uuid.UUID) (Window, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[sessionID]
	if !ok || sess.state != StateHeld {
		return Window{}, false
	}
	return sess.window, true
}

// State reports the session's lifecycle state. Sessions the ledger no longer
// tracks are empty.
func (l *Ledger) State(sessionID uuid.UUID) State {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[sessionID]
	if !ok {
		return StateEmpty
	}
	return sess.state
}

// Remaining returns the time left on the session's window, floored at zero.
func (l *Ledger) Remaining(sessionID uuid.UUID) (time.Duration, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	sess, ok := l.sessions[sessionID]
	if !ok || sess.state != StateHeld {
		return 0, false
	}
	remaining := sess.window.Deadline.Sub(l.now())
	if remaining < 0 {
		remaining = 0
	}
	return remaining, true
}

// Phase derives the countdown rendering state for a session.
func (l *Ledger) Phase(sessionID uuid.UUID) Phase {
	l.mu.Lock()
	sess, ok := l.sessions[sessionID]
	if !ok {
		l.mu.Unlock()
		return PhaseNone
	}
	if sess.state == StateExpired {
		l.mu.Unlock()
		return PhaseExpired
	}
	remaining := sess.window.Deadline.Sub(l.now())
	l.mu.Unlock()

	switch {
	case remaining <= 0:
		return PhaseExpired
	case remaining < l.cfg.UrgentThreshold:
		return PhaseUrgent
	case remaining <= l.cfg.WarningThreshold:
		return PhaseWarning
	default:
		return PhaseActive
	}
}

// Clear ends a held session by user action (last line removed, explicit
// clear, or successful checkout). Clearing a session mid-expiry is a no-op;
// the expiry path owns that teardown.
func (l *Ledger) Clear(sessionID uuid.UUID) {
	l.mu.Lock()
	sess, ok := l.sessions[sessionID]
	if !ok || sess.state != StateHeld {
		l.mu.Unlock()
		return
	}
	sess.state = StateCleared
	if sess.cancel != nil {
		sess.cancel()
	}
	held := l.now().Sub(sess.window.CreatedAt)
	delete(l.sessions, sessionID)
	l.mu.Unlock()

	l.metrics.ObserveHeldDuration(held)
}

// Tick evaluates the countdown for one session: threshold notifications fire
// at most once per held period, and crossing zero triggers the expiry
// transition exactly once.
func (l *Ledger) Tick(ctx context.Context, sessionID uuid.UUID) {
	l.mu.Lock()
	sess, ok := l.sessions[sessionID]
	if !ok || sess.state != StateHeld {
		l.mu.Unlock()
		return
	}

	remaining := sess.window.Deadline.Sub(l.now())
	if remaining <= 0 {
		sess.state = StateExpired
		if sess.cancel != nil {
			sess.cancel()
		}
		held := l.now().Sub(sess.window.CreatedAt)
		l.mu.Unlock()
		l.expire(ctx, sessionID, sess, held)
		return
	}

	var notifyWarning, notifyUrgent bool
	if !sess.warned && remaining <= l.cfg.WarningThreshold {
		sess.warned = true
		notifyWarning = true
	}
	if !sess.urgent && remaining < l.cfg.UrgentThreshold {
		sess.urgent = true
		notifyUrgent = true
	}
	l.mu.Unlock()

	if l.notifier == nil {
		return
	}
	if notifyWarning {
		l.notifier.HoldWarning(sessionID.String(), remaining)
	}
	if notifyUrgent {
		l.notifier.HoldUrgent(sessionID.String(), remaining)
	}
}

// expire runs the release-then-clear cycle after the state transition has
// already been claimed under the mutex.
func (l *Ledger) expire(ctx context.Context, sessionID uuid.UUID, expired *session, held time.Duration) {
	logCtx := l.logg.WithCartSession(ctx, sessionID.String())
	l.logg.Info(logCtx, "reservation window elapsed")
	l.metrics.IncHoldExpired()
	l.metrics.ObserveHeldDuration(held)

	l.mu.Lock()
	handler := l.expiry
	l.mu.Unlock()

	if handler != nil {
		if err := handler.HandleExpiry(ctx, sessionID); err != nil {
			l.logg.Error(logCtx, "expiry cleanup failed", err)
		}
	}

	l.mu.Lock()
	// The handler runs network calls; a fresh AddLine may have re-begun the
	// session in the meantime. Only drop the entry this expiry claimed.
	if current, ok := l.sessions[sessionID]; ok && current == expired {
		delete(l.sessions, sessionID)
	}
	l.mu.Unlock()

	if l.notifier != nil {
		l.notifier.HoldExpired(sessionID.String())
	}
}

func (l *Ledger) runClock(ctx context.Context, sessionID uuid.UUID) {
	ticker := time.NewTicker(l.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			l.Tick(context.Background(), sessionID)
		}
	}
}
