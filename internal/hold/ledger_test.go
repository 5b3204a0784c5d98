package hold

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stagepass/stagepass-backend/pkg/config"
	"github.com/stagepass/stagepass-backend/pkg/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingNotifier struct {
	mu       sync.Mutex
	warnings int
	urgents  int
	expiries int
}

func (n *recordingNotifier) HoldWarning(string, time.Duration) {
	n.mu.Lock()
	n.warnings++
	n.mu.Unlock()
}

func (n *recordingNotifier) HoldUrgent(string, time.Duration) {
	n.mu.Lock()
	n.urgents++
	n.mu.Unlock()
}

func (n *recordingNotifier) HoldExpired(string) {
	n.mu.Lock()
	n.expiries++
	n.mu.Unlock()
}

func testHoldConfig() config.HoldConfig {
	return config.HoldConfig{
		Duration:         15 * time.Minute,
		TickInterval:     0, // ticks are driven manually
		WarningThreshold: 5 * time.Minute,
		UrgentThreshold:  time.Minute,
	}
}

func newTestLedger(t *testing.T, clock *fakeClock, notifier Notifier) *Ledger {
	t.Helper()
	ledger, err := NewLedger(LedgerParams{
		Logger:   logger.New(logger.Options{ServiceName: "hold-test", Output: io.Discard}),
		Config:   testHoldConfig(),
		Notifier: notifier,
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("NewLedger: %v", err)
	}
	return ledger
}

func TestBeginStampsWindowOnce(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)
	sessionID := uuid.New()

	first := ledger.Begin(sessionID)
	if !first.Deadline.Equal(clock.Now().Add(15 * time.Minute)) {
		t.Fatalf("deadline = %v", first.Deadline)
	}

	clock.Advance(3 * time.Minute)
	second := ledger.Begin(sessionID)
	if !second.Deadline.Equal(first.Deadline) {
		t.Fatalf("adding lines moved the deadline: %v -> %v", first.Deadline, second.Deadline)
	}
	if got := ledger.State(sessionID); got != StateHeld {
		t.Fatalf("state = %v", got)
	}
}

func TestPhaseProgression(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)
	sessionID := uuid.New()
	ledger.Begin(sessionID)

	if got := ledger.Phase(sessionID); got != PhaseActive {
		t.Fatalf("phase = %v, want active", got)
	}

	clock.Advance(10 * time.Minute) // 5m left
	if got := ledger.Phase(sessionID); got != PhaseWarning {
		t.Fatalf("phase = %v, want warning", got)
	}

	clock.Advance(4*time.Minute + 30*time.Second) // 30s left
	if got := ledger.Phase(sessionID); got != PhaseUrgent {
		t.Fatalf("phase = %v, want urgent", got)
	}

	clock.Advance(time.Minute)
	if got := ledger.Phase(sessionID); got != PhaseExpired {
		t.Fatalf("phase = %v, want expired", got)
	}
}

func TestThresholdNotificationsFireOnce(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	ledger := newTestLedger(t, clock, notifier)
	sessionID := uuid.New()
	ledger.Begin(sessionID)

	ctx := context.Background()
	clock.Advance(10 * time.Minute)
	for i := 0; i < 5; i++ {
		ledger.Tick(ctx, sessionID)
	}
	if notifier.warnings != 1 {
		t.Fatalf("warnings = %d, want 1", notifier.warnings)
	}

	clock.Advance(4*time.Minute + 30*time.Second)
	for i := 0; i < 5; i++ {
		ledger.Tick(ctx, sessionID)
	}
	if notifier.urgents != 1 {
		t.Fatalf("urgents = %d, want 1", notifier.urgents)
	}
	if notifier.expiries != 0 {
		t.Fatalf("expired early: %d", notifier.expiries)
	}
}

func TestExpiryFiresExactlyOnce(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	ledger := newTestLedger(t, clock, notifier)

	var handled int
	ledger.SetExpiryHandler(ExpiryHandlerFunc(func(context.Context, uuid.UUID) error {
		handled++
		return nil
	}))

	sessionID := uuid.New()
	ledger.Begin(sessionID)
	clock.Advance(16 * time.Minute)

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		ledger.Tick(ctx, sessionID)
	}

	if handled != 1 {
		t.Fatalf("expiry handler ran %d times, want 1", handled)
	}
	if notifier.expiries != 1 {
		t.Fatalf("expiry notifications = %d, want 1", notifier.expiries)
	}
	if got := ledger.State(sessionID); got != StateEmpty {
		t.Fatalf("state after expiry = %v, want empty", got)
	}
}

func TestExpiryKeepsSessionReBegunByHandler(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	notifier := &recordingNotifier{}
	ledger := newTestLedger(t, clock, notifier)
	sessionID := uuid.New()

	// The handler runs release calls over the network; a buyer can add a line
	// into the just-cleared cart before it finishes. That fresh hold must
	// survive the expiry teardown.
	var rebegun Window
	var once bool
	ledger.SetExpiryHandler(ExpiryHandlerFunc(func(context.Context, uuid.UUID) error {
		if !once {
			once = true
			rebegun = ledger.Begin(sessionID)
		}
		return nil
	}))

	ledger.Begin(sessionID)
	clock.Advance(16 * time.Minute)
	ledger.Tick(context.Background(), sessionID)

	if got := ledger.State(sessionID); got != StateHeld {
		t.Fatalf("session re-begun during expiry was dropped: state = %v, want held", got)
	}
	window, ok := ledger.Window(sessionID)
	if !ok || !window.Deadline.Equal(rebegun.Deadline) {
		t.Fatalf("window = %+v ok=%v, want deadline %v", window, ok, rebegun.Deadline)
	}

	// The fresh hold still expires on its own schedule.
	clock.Advance(16 * time.Minute)
	ledger.Tick(context.Background(), sessionID)
	if got := ledger.State(sessionID); got != StateEmpty {
		t.Fatalf("state after second expiry = %v, want empty", got)
	}
	if notifier.expiries != 2 {
		t.Fatalf("expiry notifications = %d, want 2", notifier.expiries)
	}
}

func TestAdoptResumesRestoredWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)
	sessionID := uuid.New()

	window := Window{
		CreatedAt: clock.Now().Add(-5 * time.Minute),
		Deadline:  clock.Now().Add(10 * time.Minute),
	}
	if !ledger.Adopt(sessionID, window) {
		t.Fatal("live window rejected")
	}
	if got := ledger.State(sessionID); got != StateHeld {
		t.Fatalf("state = %v, want held", got)
	}
	remaining, ok := ledger.Remaining(sessionID)
	if !ok || remaining != 10*time.Minute {
		t.Fatalf("remaining = %v ok=%v", remaining, ok)
	}

	// Adopting a tracked session changes nothing.
	moved := Window{Deadline: clock.Now().Add(time.Hour)}
	if !ledger.Adopt(sessionID, moved) {
		t.Fatal("re-adopt reported stale")
	}
	got, _ := ledger.Window(sessionID)
	if !got.Deadline.Equal(window.Deadline) {
		t.Fatalf("re-adopt moved the deadline to %v", got.Deadline)
	}
}

func TestAdoptRejectsElapsedWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)
	sessionID := uuid.New()

	stale := Window{
		CreatedAt: clock.Now().Add(-20 * time.Minute),
		Deadline:  clock.Now().Add(-5 * time.Minute),
	}
	if ledger.Adopt(sessionID, stale) {
		t.Fatal("elapsed window adopted")
	}
	if got := ledger.State(sessionID); got != StateEmpty {
		t.Fatalf("state = %v, want empty", got)
	}
}

func TestClearStopsTheCountdown(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)

	var handled int
	ledger.SetExpiryHandler(ExpiryHandlerFunc(func(context.Context, uuid.UUID) error {
		handled++
		return nil
	}))

	sessionID := uuid.New()
	ledger.Begin(sessionID)
	ledger.Clear(sessionID)

	if got := ledger.State(sessionID); got != StateEmpty {
		t.Fatalf("state after clear = %v", got)
	}

	clock.Advance(20 * time.Minute)
	ledger.Tick(context.Background(), sessionID)
	if handled != 0 {
		t.Fatalf("expiry ran on a cleared session")
	}
}

func TestRemainingFloorsAtZero(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{now: time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)}
	ledger := newTestLedger(t, clock, nil)
	sessionID := uuid.New()
	ledger.Begin(sessionID)

	clock.Advance(time.Minute)
	remaining, ok := ledger.Remaining(sessionID)
	if !ok || remaining != 14*time.Minute {
		t.Fatalf("remaining = %v ok=%v", remaining, ok)
	}

	clock.Advance(20 * time.Minute)
	remaining, ok = ledger.Remaining(sessionID)
	if !ok || remaining != 0 {
		t.Fatalf("remaining past deadline = %v ok=%v", remaining, ok)
	}

	if _, ok := ledger.Remaining(uuid.New()); ok {
		t.Fatal("unknown session reported a window")
	}
}
