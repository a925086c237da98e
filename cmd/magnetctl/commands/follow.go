package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/slok/magnetctl/internal/collect"
	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/printer"
)

// changeSignal wakes up a follower on every controller change. Listeners may run
// on the polling goroutine so they never block, pending changes are merged.
func changeSignal(ctrl *collect.Controller) <-chan struct{} {
	changes := make(chan struct{}, 1)
	ctrl.OnChange(func(collect.State) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	return changes
}

// follower drives a created task until the session is done. While the task is
// tracked the session stays locked and only a confirmed exit or the context end
// stops following it.
type follower struct {
	session    *collect.Session
	exit       *collect.ExitConfirmation
	interrupts <-chan struct{}
	changes    <-chan struct{}
	out        printer.Printer
	organize   organizeOptions
	// retryAfter returns the timer that triggers an organize retry.
	retryAfter func() <-chan time.Time
	logger     log.Logger

	last  model.Task
	retry <-chan time.Time
}

func (f *follower) run(ctx context.Context) error {
	if f.retryAfter == nil {
		f.retryAfter = func() <-chan time.Time { return time.After(collect.PollInterval) }
	}
	if f.logger == nil {
		f.logger = log.Noop
	}

	for {
		select {
		case <-ctx.Done():
			if t := f.session.Task(); t.ID != "" {
				f.logger.Warningf("Collect stopped, task %s keeps running on the remote", t.ID)
			}
			return nil

		case <-f.interrupts:
			if f.handleExit(ctx) {
				return nil
			}

		case <-f.retry:
			f.retry = nil
			task := f.session.Task()
			if task.Status != model.TaskStatusCompleted || len(task.Files) == 0 {
				continue
			}
			done, err := f.organizeTask(ctx, task)
			if err != nil || done {
				return err
			}

		case <-f.changes:
			task := f.session.Task()
			done, err := f.step(ctx, task)
			f.last = task
			if err != nil || done {
				return err
			}
		}
	}
}

// handleExit runs the exit flow, returns true when the session has been closed.
// Failures keep the session as it is, the user can interrupt again to retry.
func (f *follower) handleExit(ctx context.Context) bool {
	exited, err := f.exit.Run(ctx)
	switch {
	case err == nil:
		return exited
	case errors.Is(err, model.ErrExitInProgress), errors.Is(err, model.ErrNoActiveTask):
		return false
	case errors.Is(err, model.ErrRemoteCancel):
		// Already notified by the controller.
	default:
		_ = f.out.PrintMessage(fmt.Sprintf("Error: %s", err))
	}

	if t := f.session.Task(); t.ID != "" {
		_ = f.out.PrintMessage(fmt.Sprintf("Task %s is still tracked, interrupt again to retry the exit", t.ID))
	}
	f.logger.Warningf("Exit failed: %s", err)

	return false
}

// step renders the task changes and drives it to the end. Returns true once the
// session is done.
func (f *follower) step(ctx context.Context, task model.Task) (bool, error) {
	if task.ID == "" {
		return false, nil
	}

	last := f.last
	if task.Status != last.Status || task.Progress != last.Progress {
		_ = f.out.PrintMessage(fmt.Sprintf("%s  %-11s %s", task.ID, task.Status, printer.ProgressBar(task.Progress)))
	}

	switch task.Status {
	case model.TaskStatusCompleted:
		if len(task.Files) == 0 || (last.Status == model.TaskStatusCompleted && len(last.Files) > 0) {
			return false, nil
		}
		return f.organizeTask(ctx, task)

	case model.TaskStatusFinished:
		f.session.Reset()
		return true, f.session.Close()

	case model.TaskStatusFailed:
		_ = f.out.PrintTask(task)
		f.session.Reset()
		if err := f.session.Close(); err != nil {
			return true, err
		}
		return true, fmt.Errorf("task %s failed: %s", task.ID, task.Error)
	}

	return false, nil
}

// organizeTask organizes the completed task. A remote failure keeps the task and
// schedules a retry, a selection that can't be built ends the command.
func (f *follower) organizeTask(ctx context.Context, task model.Task) (bool, error) {
	plan, err := buildOrganizePlan(task.Files, f.organize)
	if err != nil {
		f.logger.Warningf("Task %s is left completed on the remote, cancel it or collect it again", task.ID)
		return false, fmt.Errorf("could not organize task %s: %w", task.ID, err)
	}
	_ = f.out.PrintFiles(plan.Files)

	f.session.OpenDetail()
	if err := f.session.Organize(ctx, plan); err != nil {
		if errors.Is(err, model.ErrLocked) {
			return false, nil
		}
		f.logger.Warningf("Could not organize task %s: %s", task.ID, err)
		_ = f.out.PrintMessage(fmt.Sprintf("Retrying organize of task %s in %s", task.ID, collect.PollInterval))
		f.retry = f.retryAfter()
		return false, nil
	}
	if task.FinalPath != "" {
		_ = f.out.PrintMessage(fmt.Sprintf("Files organized into %s", task.FinalPath))
	}

	return true, f.session.Close()
}
