package collect

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
	"github.com/slok/magnetctl/internal/storage"
)

const genericFailureMessage = "download failed"

// ControllerConfig is the configuration for the task controller.
type ControllerConfig struct {
	Remote remote.Client
	// Journal is optional, when set every lifecycle change is recorded on it.
	Journal       storage.EventRepository
	Notifier      Notifier
	TickerFactory TickerFactory
	Logger        log.Logger
}

func (c *ControllerConfig) defaults() error {
	if c.Remote == nil {
		return fmt.Errorf("remote client is required")
	}
	if c.Notifier == nil {
		c.Notifier = NoopNotifier
	}
	if c.TickerFactory == nil {
		c.TickerFactory = NewTimeTicker
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collect.Controller"})
	return nil
}

// State is a snapshot of the controller.
type State struct {
	Task            model.Task
	Creating        bool
	Organizing      bool
	LockAfterCreate bool
	Polling         bool
}

// Controller owns the single task of a session and its polling.
type Controller struct {
	remote    remote.Client
	journal   storage.EventRepository
	notifier  Notifier
	newTicker TickerFactory
	logger    log.Logger

	mu              sync.Mutex
	task            model.Task
	creating        bool
	organizing      bool
	lockAfterCreate bool
	notifiedOnce    bool
	poller          *poller
	listeners       []func(State)
}

// NewController returns a new task controller.
func NewController(cfg ControllerConfig) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Controller{
		remote:    cfg.Remote,
		journal:   cfg.Journal,
		notifier:  cfg.Notifier,
		newTicker: cfg.TickerFactory,
		logger:    cfg.Logger,
	}, nil
}

// OnChange registers a listener called after every state change. Listeners may run on
// the polling goroutine so they must not call Cancel, Reset, Organize or Close.
func (c *Controller) OnChange(fn func(State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, fn)
}

// State returns a snapshot of the controller state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Create creates the remote task and starts polling it.
func (c *Controller) Create(ctx context.Context, magnetURI string, jc model.JobContext) error {
	if err := model.ValidateMagnetURI(magnetURI); err != nil {
		return err
	}

	c.mu.Lock()
	if c.task.ID != "" || c.creating || c.organizing {
		c.mu.Unlock()
		return fmt.Errorf("a task is already tracked: %w", model.ErrLocked)
	}
	c.creating = true
	c.lockAfterCreate = true
	c.mu.Unlock()
	c.changed()

	id, err := c.remote.Create(ctx, magnetURI, jc)

	c.mu.Lock()
	c.creating = false
	if err != nil {
		c.lockAfterCreate = false
		c.mu.Unlock()
		c.changed()
		c.notifier.Error(fmt.Sprintf("could not create task: %s", err))
		return fmt.Errorf("could not create task: %w: %w", model.ErrRemoteCreate, err)
	}

	captured := jc.Copy()
	c.task = model.Task{
		ID:         id,
		Status:     model.TaskStatusCreating,
		JobContext: &captured,
		FinalPath:  jc.DownloadPath,
	}
	c.notifiedOnce = false
	c.poller = startPoller(id, c.remote, c.newTicker(PollInterval), c.logger, c.isActivePoller, c.applyStatus)
	c.mu.Unlock()
	c.changed()

	c.logger.Infof("Task %s created", id)
	c.notifier.Success("task created, downloading")
	c.record(ctx, model.Event{TaskID: id, Kind: model.EventKindCreated, Status: model.TaskStatusCreating, Message: magnetURI})

	return nil
}

// Cancel stops polling and cancels the remote task. On failure the task is kept
// and polling is not resumed.
func (c *Controller) Cancel(ctx context.Context) error {
	c.mu.Lock()
	if c.task.ID == "" {
		c.mu.Unlock()
		return fmt.Errorf("nothing to cancel: %w", model.ErrNoActiveTask)
	}
	id := c.task.ID
	p := c.detachPollerLocked()
	c.mu.Unlock()

	if p != nil {
		p.stop()
		c.changed()
	}

	if err := c.remote.Cancel(ctx, id); err != nil {
		c.notifier.Error(fmt.Sprintf("could not cancel task: %s", err))
		return fmt.Errorf("could not cancel task %s: %w: %w", id, model.ErrRemoteCancel, err)
	}

	c.mu.Lock()
	if c.task.ID == id {
		c.clearLocked()
	}
	c.mu.Unlock()
	c.changed()

	c.logger.Infof("Task %s cancelled", id)
	c.notifier.Success("task cancelled")
	c.record(ctx, model.Event{TaskID: id, Kind: model.EventKindCancelled})

	return nil
}

// Reset forgets the task and stops polling without calling the remote.
func (c *Controller) Reset() {
	c.mu.Lock()
	id := c.task.ID
	p := c.detachPollerLocked()
	c.clearLocked()
	c.mu.Unlock()

	if p != nil {
		p.stop()
	}
	c.changed()

	if id != "" {
		c.logger.Debugf("Task %s reset", id)
		c.record(context.Background(), model.Event{TaskID: id, Kind: model.EventKindReset})
	}
}

// Organize applies the selection plan to the task. On success the task is forgotten,
// on failure it is kept so the caller can retry.
func (c *Controller) Organize(ctx context.Context, plan model.OrganizePlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	if c.task.ID == "" {
		c.mu.Unlock()
		return fmt.Errorf("nothing to organize: %w", model.ErrNoActiveTask)
	}
	if c.organizing {
		c.mu.Unlock()
		return fmt.Errorf("task is already being organized: %w", model.ErrLocked)
	}
	id := c.task.ID
	c.organizing = true
	c.mu.Unlock()
	c.changed()

	err := c.remote.Organize(ctx, id, plan)

	c.mu.Lock()
	c.organizing = false
	if err != nil {
		c.mu.Unlock()
		c.changed()
		c.notifier.Error(fmt.Sprintf("could not organize files: %s", err))
		return fmt.Errorf("could not organize task %s: %w: %w", id, model.ErrRemoteOrganize, err)
	}

	var p *poller
	if c.task.ID == id {
		p = c.detachPollerLocked()
		c.clearLocked()
	}
	c.mu.Unlock()

	if p != nil {
		p.stop()
	}
	c.changed()

	c.logger.Infof("Task %s organized", id)
	c.notifier.Success("files organized")
	c.record(ctx, model.Event{
		TaskID:  id,
		Kind:    model.EventKindOrganized,
		Message: fmt.Sprintf("%d files", len(plan.Files)),
	})

	return nil
}

// Close stops the polling.
func (c *Controller) Close() {
	c.mu.Lock()
	p := c.detachPollerLocked()
	c.mu.Unlock()

	if p != nil {
		p.stop()
		c.changed()
	}
}

func (c *Controller) isActivePoller(p *poller) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.poller == p && c.task.ID == p.id
}

// applyStatus applies a polled status to the task. It runs on the poller loop
// and returns true when the loop must end.
func (c *Controller) applyStatus(p *poller, r *model.StatusReport, err error) bool {
	if err == nil && r == nil {
		err = fmt.Errorf("empty status response")
	}
	if err != nil {
		c.logger.Debugf("Could not poll task %s, retrying on next tick: %s", p.id, fmt.Errorf("%w: %w", model.ErrRemotePoll, err))
		return false
	}

	c.mu.Lock()
	if c.poller != p || c.task.ID != p.id {
		c.mu.Unlock()
		c.logger.Debugf("Discarded stale status for task %s", p.id)
		return true
	}

	prevStatus := c.task.Status
	stop := false
	notifyCompleted := false
	var failure string

	if r.JobContext != nil {
		jc := r.JobContext.Copy()
		c.task.JobContext = &jc
	}

	switch r.Status {
	case model.TaskStatusFailed:
		failure = r.Error
		if failure == "" {
			failure = genericFailureMessage
		}
		c.task.Status = model.TaskStatusFailed
		c.task.Error = failure
		c.lockAfterCreate = false
		stop = true
	case model.TaskStatusCompleted:
		c.task.Status = model.TaskStatusCompleted
		c.task.Progress = r.Progress
		if len(r.Files) > 0 {
			c.task.Files = append([]model.File(nil), r.Files...)
			c.task.Progress = 100
			if !c.notifiedOnce {
				c.notifiedOnce = true
				notifyCompleted = true
			}
			stop = true
		}
	case model.TaskStatusFinished:
		c.task.Status = model.TaskStatusFinished
		c.task.Progress = 100
		stop = true
	default:
		c.task.Status = r.Status
		c.task.Progress = r.Progress
	}

	if stop {
		c.detachPollerLocked()
	}
	task := c.task.Copy()
	c.mu.Unlock()
	c.changed()

	ctx := context.Background()
	switch {
	case failure != "":
		c.logger.Warningf("Task %s failed: %s", task.ID, failure)
		c.notifier.Error(failure)
		c.record(ctx, model.Event{TaskID: task.ID, Kind: model.EventKindFailed, Status: task.Status, Progress: task.Progress, Message: failure})
	case notifyCompleted:
		c.logger.Infof("Task %s completed with %d files", task.ID, len(task.Files))
		c.notifier.Success("download completed, select the files to organize")
		c.record(ctx, model.Event{TaskID: task.ID, Kind: model.EventKindCompleted, Status: task.Status, Progress: task.Progress, Message: fmt.Sprintf("%d files", len(task.Files))})
	case task.Status != prevStatus:
		c.record(ctx, model.Event{TaskID: task.ID, Kind: model.EventKindStatus, Status: task.Status, Progress: task.Progress})
	}

	return stop
}

func (c *Controller) detachPollerLocked() *poller {
	p := c.poller
	c.poller = nil
	return p
}

func (c *Controller) clearLocked() {
	c.task = model.Task{}
	c.lockAfterCreate = false
	c.notifiedOnce = false
}

func (c *Controller) stateLocked() State {
	return State{
		Task:            c.task.Copy(),
		Creating:        c.creating,
		Organizing:      c.organizing,
		LockAfterCreate: c.lockAfterCreate,
		Polling:         c.poller != nil,
	}
}

// changed calls the listeners, never with the mutex held.
func (c *Controller) changed() {
	c.mu.Lock()
	st := c.stateLocked()
	listeners := slices.Clone(c.listeners)
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(st)
	}
}

func (c *Controller) record(ctx context.Context, e model.Event) {
	if c.journal == nil {
		return
	}

	if err := c.journal.AppendEvent(context.WithoutCancel(ctx), e); err != nil {
		c.logger.Warningf("Could not record %s event for task %s: %s", e.Kind, e.TaskID, err)
	}
}
