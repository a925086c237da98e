package collect

import (
	"context"
	"fmt"
	"sync"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
)

// Severity is the severity of a confirmation prompt.
type Severity string

const (
	SeverityWarning Severity = "warning"
	SeverityDanger  Severity = "danger"
)

// Prompt is a confirmation request shown to the user.
type Prompt struct {
	Title       string
	Message     string
	ConfirmText string
	CancelText  string
	Severity    Severity
}

// Confirmer asks the user to confirm a prompt.
type Confirmer interface {
	Confirm(ctx context.Context, p Prompt) (bool, error)
}

// ExitStage is the stage of an exit confirmation.
type ExitStage int

const (
	ExitStageIdle ExitStage = iota
	ExitStageConfirmFirst
	ExitStageConfirmSecond
	ExitStageExecuting
)

func (s ExitStage) String() string {
	switch s {
	case ExitStageIdle:
		return "idle"
	case ExitStageConfirmFirst:
		return "confirm-first"
	case ExitStageConfirmSecond:
		return "confirm-second"
	case ExitStageExecuting:
		return "executing"
	}
	return "unknown"
}

var (
	firstExitPrompt = Prompt{
		Title:       "Exit",
		Message:     "Exiting will delete the temporary files of the task, they can't be recovered. Continue?",
		ConfirmText: "Continue",
		CancelText:  "Cancel",
		Severity:    SeverityWarning,
	}
	secondExitPrompt = Prompt{
		Title:       "Confirm exit",
		Message:     "The task will be cancelled and its downloaded content deleted.",
		ConfirmText: "Delete and exit",
		CancelText:  "Cancel",
		Severity:    SeverityDanger,
	}
)

// ExitTarget is the session torn down by an exit confirmation.
type ExitTarget interface {
	HasTask() bool
	Cancel(ctx context.Context) error
	CloseDetail()
	Close() error
}

// ExitConfirmationConfig is the configuration for the exit confirmation.
type ExitConfirmationConfig struct {
	Target    ExitTarget
	Confirmer Confirmer
	Notifier  Notifier
	Logger    log.Logger
}

func (c *ExitConfirmationConfig) defaults() error {
	if c.Target == nil {
		return fmt.Errorf("target is required")
	}
	if c.Confirmer == nil {
		return fmt.Errorf("confirmer is required")
	}
	if c.Notifier == nil {
		c.Notifier = NoopNotifier
	}
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "collect.ExitConfirmation"})
	return nil
}

// ExitConfirmation is the only way of tearing down a locked session: two
// confirmations, then the task cancellation, then the session close.
type ExitConfirmation struct {
	target    ExitTarget
	confirmer Confirmer
	notifier  Notifier
	logger    log.Logger

	mu    sync.Mutex
	stage ExitStage
}

// NewExitConfirmation returns a new exit confirmation.
func NewExitConfirmation(cfg ExitConfirmationConfig) (*ExitConfirmation, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &ExitConfirmation{
		target:    cfg.Target,
		confirmer: cfg.Confirmer,
		notifier:  cfg.Notifier,
		logger:    cfg.Logger,
	}, nil
}

// Stage returns the current stage.
func (e *ExitConfirmation) Stage() ExitStage {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stage
}

// Run runs the exit flow. Returns true when the task has been cancelled and the session closed,
// false without error when the user backed out at any stage.
func (e *ExitConfirmation) Run(ctx context.Context) (bool, error) {
	e.mu.Lock()
	if e.stage != ExitStageIdle {
		e.mu.Unlock()
		return false, model.ErrExitInProgress
	}
	if !e.target.HasTask() {
		e.mu.Unlock()
		e.notifier.Warning("no task to exit")
		return false, fmt.Errorf("can't exit: %w", model.ErrNoActiveTask)
	}
	e.stage = ExitStageConfirmFirst
	e.mu.Unlock()
	defer e.setStage(ExitStageIdle)

	ok, err := e.confirmer.Confirm(ctx, firstExitPrompt)
	if err != nil {
		return false, fmt.Errorf("could not confirm exit: %w", err)
	}
	if !ok {
		e.logger.Debugf("Exit rejected on first confirmation")
		return false, nil
	}

	e.setStage(ExitStageConfirmSecond)
	ok, err = e.confirmer.Confirm(ctx, secondExitPrompt)
	if err != nil {
		return false, fmt.Errorf("could not confirm exit: %w", err)
	}
	if !ok {
		e.logger.Debugf("Exit rejected on second confirmation")
		return false, nil
	}

	e.setStage(ExitStageExecuting)
	if err := e.target.Cancel(ctx); err != nil {
		return false, fmt.Errorf("could not exit: %w", err)
	}

	e.target.CloseDetail()
	if err := e.target.Close(); err != nil {
		return false, fmt.Errorf("could not close session: %w", err)
	}

	e.logger.Infof("Task cancelled and session closed")
	return true, nil
}

func (e *ExitConfirmation) setStage(s ExitStage) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stage = s
}
