package status

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
)

// ServiceConfig is the configuration for the status service.
type ServiceConfig struct {
	Remote remote.Client
	Logger log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Remote == nil {
		return fmt.Errorf("remote client is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service retrieves the status of a remote task.
type Service struct {
	remote remote.Client
	logger log.Logger
}

// NewService creates a new status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		remote: cfg.Remote,
		logger: cfg.Logger,
	}, nil
}

// Request represents the status request parameters.
type Request struct {
	// TaskID is the remote task ID to query.
	TaskID string
}

// Run retrieves the status of a task.
func (s *Service) Run(ctx context.Context, req Request) (*model.Task, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting status for task: %s", req.TaskID)

	r, err := s.remote.Status(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %s: %w", req.TaskID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get task status: %w: %w", model.ErrRemotePoll, err)
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

	return task, nil
}
