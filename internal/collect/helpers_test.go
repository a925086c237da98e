package collect_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
	"github.com/slok/magnetctl/internal/storage"
)

const testMagnet = "magnet:?xt=urn:btih:ABC"

var testJobContext = model.JobContext{
	Title:        "Show",
	Season:       1,
	DownloadPath: "/media/Show/S01",
}

// fakeTicker is driven by the test, ticks are sent on an unbuffered channel so a
// consumed tick means the loop was waiting on it.
type fakeTicker struct {
	c       chan time.Time
	period  time.Duration
	stopped atomic.Bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }
func (f *fakeTicker) Stop()               { f.stopped.Store(true) }

func (f *fakeTicker) tick(t *testing.T) {
	t.Helper()
	select {
	case f.c <- time.Now():
	case <-time.After(time.Second):
		t.Fatal("tick not consumed")
	}
}

func (f *fakeTicker) tryTick() bool {
	select {
	case f.c <- time.Now():
		return true
	case <-time.After(20 * time.Millisecond):
		return false
	}
}

// pollUntil ticks until the remote has received n status requests. A request is
// counted before its response is delivered, so ticks sent meanwhile are dropped
// by the in-flight guard and never issue an extra request.
func pollUntil(t *testing.T, tk *fakeTicker, calls *atomic.Int32, n int32) {
	t.Helper()
	waitFor(t, func() bool {
		if calls.Load() >= n {
			return true
		}
		tk.tryTick()
		return false
	})
}

func (f *fakeTicker) requireNotConsumed(t *testing.T) {
	t.Helper()
	select {
	case f.c <- time.Now():
		t.Fatal("tick consumed by a stopped poller")
	case <-time.After(50 * time.Millisecond):
	}
}

type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) factory(d time.Duration) collect.Ticker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	tk := &fakeTicker{c: make(chan time.Time), period: d}
	ts.all = append(ts.all, tk)
	return tk
}

func (ts *tickers) last(t *testing.T) *fakeTicker {
	t.Helper()
	ts.mu.Lock()
	defer ts.mu.Unlock()
	require.NotEmpty(t, ts.all)
	return ts.all[len(ts.all)-1]
}

func (ts *tickers) count() int {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return len(ts.all)
}

type recordNotifier struct {
	mu       sync.Mutex
	success  []string
	warnings []string
	errors   []string
}

func (r *recordNotifier) Success(msg string) { r.mu.Lock(); r.success = append(r.success, msg); r.mu.Unlock() }
func (r *recordNotifier) Warning(msg string) { r.mu.Lock(); r.warnings = append(r.warnings, msg); r.mu.Unlock() }
func (r *recordNotifier) Error(msg string)   { r.mu.Lock(); r.errors = append(r.errors, msg); r.mu.Unlock() }

func (r *recordNotifier) countSuccess(msg string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.success {
		if m == msg {
			n++
		}
	}
	return n
}

func (r *recordNotifier) Warnings() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.warnings...)
}

func (r *recordNotifier) Errors() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.errors...)
}

type fakeHook struct {
	mu          sync.Mutex
	registers   int
	deregisters int
}

func (h *fakeHook) Register()   { h.mu.Lock(); h.registers++; h.mu.Unlock() }
func (h *fakeHook) Deregister() { h.mu.Lock(); h.deregisters++; h.mu.Unlock() }

func (h *fakeHook) counts() (int, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.registers, h.deregisters
}

type testEnv struct {
	ctrl     *collect.Controller
	tickers  *tickers
	notifier *recordNotifier
}

func newTestController(t *testing.T, r remote.Client, journal storage.EventRepository) testEnv {
	t.Helper()

	ts := &tickers{}
	n := &recordNotifier{}
	ctrl, err := collect.NewController(collect.ControllerConfig{
		Remote:        r,
		Journal:       journal,
		Notifier:      n,
		TickerFactory: ts.factory,
	})
	require.NoError(t, err)
	t.Cleanup(ctrl.Close)

	return testEnv{ctrl: ctrl, tickers: ts, notifier: n}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, time.Second, 5*time.Millisecond)
}

func statusIs(ctrl *collect.Controller, s model.TaskStatus) func() bool {
	return func() bool { return ctrl.State().Task.Status == s }
}

// scriptedConfirmer answers the prompts in order.
type scriptedConfirmer struct {
	mu      sync.Mutex
	answers []bool
	err     error
	prompts []collect.Prompt
	block   chan struct{}
}

func (s *scriptedConfirmer) Confirm(ctx context.Context, p collect.Prompt) (bool, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, p)
	block := s.block
	s.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return false, ctx.Err()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if len(s.answers) == 0 {
		return false, nil
	}
	a := s.answers[0]
	s.answers = s.answers[1:]
	return a, nil
}

func (s *scriptedConfirmer) Prompts() []collect.Prompt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]collect.Prompt(nil), s.prompts...)
}
