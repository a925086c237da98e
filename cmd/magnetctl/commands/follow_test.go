package commands

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/printer"
	"github.com/slok/magnetctl/internal/remote/remotemock"
)

const followMagnet = "magnet:?xt=urn:btih:ABC"

type manualTicker struct {
	c chan time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.c }
func (m *manualTicker) Stop()               {}

type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

type answer struct {
	ok  bool
	err error
}

// queueConfirmer answers the prompts in order, rejecting when there are no answers left.
type queueConfirmer struct {
	mu      sync.Mutex
	answers []answer
}

func (q *queueConfirmer) Confirm(ctx context.Context, p collect.Prompt) (bool, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.answers) == 0 {
		return false, nil
	}
	a := q.answers[0]
	q.answers = q.answers[1:]
	return a.ok, a.err
}

type followEnv struct {
	session *collect.Session
	ticker  *manualTicker
	out     *syncBuffer
	retries *atomic.Int32
	retryC  chan time.Time
	intC    chan struct{}
	errC    chan error
}

// startFollower creates a task on the mocked remote and follows it on a goroutine.
func startFollower(t *testing.T, m *remotemock.MockClient, answers []answer, organize organizeOptions) followEnv {
	t.Helper()
	require := require.New(t)

	env := followEnv{
		ticker:  &manualTicker{c: make(chan time.Time)},
		out:     &syncBuffer{},
		retries: &atomic.Int32{},
		retryC:  make(chan time.Time),
		intC:    make(chan struct{}),
		errC:    make(chan error, 1),
	}
	out := printer.NewTablePrinter(env.out)
	notifier := printerNotifier{p: out}

	ctrl, err := collect.NewController(collect.ControllerConfig{
		Remote:        m,
		Notifier:      notifier,
		TickerFactory: func(time.Duration) collect.Ticker { return env.ticker },
	})
	require.NoError(err)
	t.Cleanup(ctrl.Close)

	env.session, err = collect.NewSession(collect.SessionConfig{Controller: ctrl, Notifier: notifier})
	require.NoError(err)

	exit, err := collect.NewExitConfirmation(collect.ExitConfirmationConfig{
		Target:    env.session,
		Confirmer: &queueConfirmer{answers: answers},
		Notifier:  notifier,
	})
	require.NoError(err)

	changes := changeSignal(ctrl)

	require.NoError(env.session.Show())
	require.NoError(env.session.SetForm(collect.Form{Magnet: followMagnet, JobContext: model.JobContext{Title: "Show", DownloadPath: "/media/Show"}}))
	require.NoError(env.session.CreateTask(context.Background()))

	f := &follower{
		session:    env.session,
		exit:       exit,
		interrupts: env.intC,
		changes:    changes,
		out:        out,
		organize:   organize,
		retryAfter: func() <-chan time.Time {
			env.retries.Add(1)
			return env.retryC
		},
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { env.errC <- f.run(ctx) }()

	return env
}

func send[T any](t *testing.T, c chan T, v T) {
	t.Helper()
	select {
	case c <- v:
	case <-time.After(time.Second):
		t.Fatal("value not consumed")
	}
}

func (e followEnv) requireRunning(t *testing.T) {
	t.Helper()
	select {
	case err := <-e.errC:
		t.Fatalf("follower ended: %v", err)
	case <-time.After(50 * time.Millisecond):
	}
}

func (e followEnv) requireDone(t *testing.T) error {
	t.Helper()
	select {
	case err := <-e.errC:
		return err
	case <-time.After(time.Second):
		t.Fatal("follower did not end")
		return nil
	}
}

func TestFollowerOrganizeFailureRetries(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	files := []model.File{{Name: "a.mkv", Path: "a.mkv", Size: 10}}
	m := &remotemock.MockClient{}
	m.On("Create", mock.Anything, followMagnet, mock.Anything).Once().Return("T1", nil)
	m.On("Status", mock.Anything, "T1").Once().Return(&model.StatusReport{Status: model.TaskStatusCompleted, Progress: 100, Files: files}, nil)
	m.On("Organize", mock.Anything, "T1", mock.Anything).Once().Return(errors.New("disk full"))
	m.On("Organize", mock.Anything, "T1", mock.Anything).Once().Return(nil)

	env := startFollower(t, m, nil, organizeOptions{})

	send(t, env.ticker.c, time.Now())
	require.Eventually(func() bool { return env.retries.Load() == 1 }, time.Second, 5*time.Millisecond)

	// The failed organize keeps the task and the session locked.
	env.requireRunning(t)
	assert.True(env.session.Locked())
	assert.Equal(model.TaskStatusCompleted, env.session.Task().Status)
	assert.Contains(env.out.String(), "Error: could not organize files: disk full")
	assert.Contains(env.out.String(), "Retrying organize of task T1")

	send(t, env.retryC, time.Now())

	require.NoError(env.requireDone(t))
	assert.False(env.session.HasTask())
	assert.False(env.session.Locked())
	assert.Contains(env.out.String(), "Files organized into /media/Show")
	m.AssertExpectations(t)
}

func TestFollowerExitFailureKeepsSession(t *testing.T) {
	tests := map[string]struct {
		mock    func(m *remotemock.MockClient)
		answers []answer
		expOut  string
	}{
		"A failed remote cancel should keep the session and allow retrying the exit.": {
			mock: func(m *remotemock.MockClient) {
				m.On("Cancel", mock.Anything, "T1").Once().Return(errors.New("remote down"))
				m.On("Cancel", mock.Anything, "T1").Once().Return(nil)
			},
			answers: []answer{{ok: true}, {ok: true}, {ok: true}, {ok: true}},
			expOut:  "Error: could not cancel task: remote down",
		},

		"A failed confirmation should keep the session and allow retrying the exit.": {
			mock: func(m *remotemock.MockClient) {
				m.On("Cancel", mock.Anything, "T1").Once().Return(nil)
			},
			answers: []answer{{err: errors.New("no terminal")}, {ok: true}, {ok: true}},
			expOut:  "no terminal",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			m := &remotemock.MockClient{}
			m.On("Create", mock.Anything, followMagnet, mock.Anything).Once().Return("T1", nil)
			test.mock(m)

			env := startFollower(t, m, test.answers, organizeOptions{})

			send(t, env.intC, struct{}{})
			require.Eventually(func() bool {
				return bytes.Contains([]byte(env.out.String()), []byte("interrupt again to retry the exit"))
			}, time.Second, 5*time.Millisecond)

			env.requireRunning(t)
			assert.True(env.session.HasTask())
			assert.True(env.session.Locked())
			assert.Contains(env.out.String(), test.expOut)

			send(t, env.intC, struct{}{})

			require.NoError(env.requireDone(t))
			assert.False(env.session.HasTask())
			m.AssertExpectations(t)
		})
	}
}

func TestFollowerInvalidSelectionEnds(t *testing.T) {
	require := require.New(t)

	m := &remotemock.MockClient{}
	m.On("Create", mock.Anything, followMagnet, mock.Anything).Once().Return("T1", nil)
	m.On("Status", mock.Anything, "T1").Once().Return(&model.StatusReport{
		Status:   model.TaskStatusCompleted,
		Progress: 100,
		Files:    []model.File{{Name: "a.mkv", Path: "a.mkv", Size: 10}},
	}, nil)

	env := startFollower(t, m, nil, organizeOptions{excludes: []string{".*"}})

	send(t, env.ticker.c, time.Now())

	err := env.requireDone(t)
	require.Error(err)
	require.True(errors.Is(err, model.ErrNotValid))
	m.AssertExpectations(t)
}
