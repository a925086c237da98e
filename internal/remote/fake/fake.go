package fake

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
)

// DefaultFiles are the files a fake task produces when none are configured.
var DefaultFiles = []model.File{
	{Name: "[Sub] Show - 01 [1080p].mkv", Path: "Show/[Sub] Show - 01 [1080p].mkv", Size: 1395864371},
	{Name: "[Sub] Show - 02 [1080p].mkv", Path: "Show/[Sub] Show - 02 [1080p].mkv", Size: 1395864372},
	{Name: "[Sub] Show - 01 [1080p].ass", Path: "Show/Subs/[Sub] Show - 01 [1080p].ass", Size: 48213},
}

// ClientConfig is the configuration for the fake remote client.
type ClientConfig struct {
	// Step is the progress advanced on every status request.
	Step int
	// Files are the files reported once a task completes.
	Files []model.File
	// FailAt makes tasks fail once they reach this progress (0 disables it).
	FailAt int
	// FailMessage is the error reported when a task fails.
	FailMessage string
	// OmitJobContext makes status reports omit the job context.
	OmitJobContext bool
	Logger         log.Logger
}

func (c *ClientConfig) defaults() error {
	if c.Step <= 0 {
		c.Step = 25
	}
	if c.Step > 100 {
		return fmt.Errorf("step must be 100 or lower")
	}
	if c.Files == nil {
		c.Files = DefaultFiles
	}
	if c.FailAt < 0 || c.FailAt > 100 {
		return fmt.Errorf("fail at must be between 0 and 100")
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "remote.Fake"})
	return nil
}

type task struct {
	id         string
	status     model.TaskStatus
	progress   int
	jobContext model.JobContext
	err        string
}

// Client is a fake implementation of the remote.Client interface.
// It simulates a remote acquisition without downloading anything.
type Client struct {
	tasks          map[string]*task
	step           int
	files          []model.File
	failAt         int
	failMessage    string
	omitJobContext bool
	mu             sync.Mutex
	logger         log.Logger
}

// NewClient creates a new fake remote client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Client{
		tasks:          make(map[string]*task),
		step:           cfg.Step,
		files:          cfg.Files,
		failAt:         cfg.FailAt,
		failMessage:    cfg.FailMessage,
		omitJobContext: cfg.OmitJobContext,
		logger:         cfg.Logger,
	}, nil
}

// Create creates a new fake task.
func (c *Client) Create(ctx context.Context, magnetURI string, jc model.JobContext) (string, error) {
	if err := model.ValidateMagnetURI(magnetURI); err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	id := ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader).String()
	c.tasks[id] = &task{
		id:         id,
		status:     model.TaskStatusDownloading,
		jobContext: jc.Copy(),
	}
	c.logger.Infof("Created fake task: %s", id)

	return id, nil
}

// Status advances the fake task and returns its status.
func (c *Client) Status(ctx context.Context, id string) (*model.StatusReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	if t.status == model.TaskStatusDownloading {
		t.progress = min(t.progress+c.step, 100)
		switch {
		case c.failAt > 0 && t.progress >= c.failAt:
			t.status = model.TaskStatusFailed
			t.err = c.failMessage
		case t.progress == 100:
			t.status = model.TaskStatusCompleted
		}
		c.logger.Debugf("Fake task %s: %s (%d%%)", id, t.status, t.progress)
	}

	return c.report(t), nil
}

func (c *Client) report(t *task) *model.StatusReport {
	report := &model.StatusReport{
		Status:   t.status,
		Progress: t.progress,
		Error:    t.err,
	}
	if t.status == model.TaskStatusCompleted {
		report.Files = append([]model.File(nil), c.files...)
	}
	if !c.omitJobContext {
		jc := t.jobContext.Copy()
		report.JobContext = &jc
	}

	return report
}

// Cancel removes a fake task.
func (c *Client) Cancel(ctx context.Context, id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.tasks[id]; !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	delete(c.tasks, id)
	c.logger.Infof("Cancelled fake task: %s", id)

	return nil
}

// Organize marks a completed fake task as finished.
func (c *Client) Organize(ctx context.Context, id string, plan model.OrganizePlan) error {
	if err := plan.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}
	if t.status != model.TaskStatusCompleted {
		return fmt.Errorf("task %s is %s, not completed: %w", id, t.status, model.ErrNotValid)
	}

	known := make(map[string]bool, len(c.files))
	for _, f := range c.files {
		known[f.Path] = true
	}
	for _, f := range plan.Files {
		if !known[f.Path] {
			return fmt.Errorf("file %q is not part of task %s: %w", f.Path, id, model.ErrNotValid)
		}
	}

	t.status = model.TaskStatusFinished
	c.logger.Infof("Organized fake task %s into %s (%d files)", id, t.jobContext.DownloadPath, len(plan.Files))

	return nil
}

// TempFiles returns the task files with the size downloaded so far.
func (c *Client) TempFiles(ctx context.Context, id string) ([]model.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	files := make([]model.File, 0, len(c.files))
	for _, f := range c.files {
		if !f.IsDir {
			f.Size = f.Size * int64(t.progress) / 100
		}
		files = append(files, f)
	}

	return files, nil
}

// ForceComplete completes a downloading fake task regardless of its progress.
func (c *Client) ForceComplete(ctx context.Context, id string) (*model.StatusReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	t, ok := c.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	switch t.status {
	case model.TaskStatusDownloading:
		t.status = model.TaskStatusCompleted
		t.progress = 100
		c.logger.Infof("Force completed fake task: %s", id)
	case model.TaskStatusCompleted:
	default:
		return nil, fmt.Errorf("task %s is %s, can't be completed: %w", id, t.status, model.ErrNotValid)
	}

	return c.report(t), nil
}
