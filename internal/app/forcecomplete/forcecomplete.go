package forcecomplete

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
	"github.com/slok/magnetctl/internal/storage"
)

// ServiceConfig is the configuration for the force complete service.
type ServiceConfig struct {
	Remote remote.Client
	// Journal is optional.
	Journal storage.EventRepository
	Logger  log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Remote == nil {
		return fmt.Errorf("remote client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.ForceComplete"})

	return nil
}

// Service marks a downloading task as completed without waiting for the remote
// download check, used when the download is stuck on the last pieces.
type Service struct {
	remote  remote.Client
	journal storage.EventRepository
	logger  log.Logger
}

// NewService creates a new force complete service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		remote:  cfg.Remote,
		journal: cfg.Journal,
		logger:  cfg.Logger,
	}, nil
}

// Request represents the force complete request parameters.
type Request struct {
	TaskID string
}

// Run forces the completion of a task and returns its resulting state.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("forcing completion of task: %s", req.TaskID)

	r, err := s.remote.ForceComplete(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %s: %w", req.TaskID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not force task completion: %w: %w", model.ErrRemoteForceComplete, err)
	}

	task := &model.Task{
		ID:         req.TaskID,
		Status:     r.Status,
		Progress:   r.Progress,
		Files:      r.Files,
		JobContext: r.JobContext,
		Error:      r.Error,
	}
	if r.JobContext != nil {
		task.FinalPath = r.JobContext.DownloadPath
	}

	if s.journal != nil {
		err := s.journal.AppendEvent(ctx, model.Event{
			TaskID:   req.TaskID,
			Kind:     model.EventKindCompleted,
			Status:   task.Status,
			Progress: task.Progress,
			Message:  "forced",
		})
		if err != nil {
			s.logger.Warningf("could not record force completion of task %s: %s", req.TaskID, err)
		}
	}

	s.logger.Infof("forced completion of task: %s", req.TaskID)
	return task, nil
}
