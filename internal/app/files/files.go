package files

import (
	"context"
	"errors"
	"fmt"

	"github.com/slok/magnetctl/internal/log"
	"github.com/slok/magnetctl/internal/model"
	"github.com/slok/magnetctl/internal/remote"
)

// ServiceConfig is the configuration for the temporary files service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Files"})

	return nil
}

// Service lists the temporary download files of a remote task.
type Service struct {
	remote remote.Client
	logger log.Logger
}

// NewService creates a new temporary files service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		remote: cfg.Remote,
		logger: cfg.Logger,
	}, nil
}

// Request represents the temporary files request parameters.
type Request struct {
	TaskID string
}

// Run returns the file tree the remote holds for the task, it can be called
// while the task is still downloading.
func (s *Service) Run(ctx context.Context, req Request) ([]model.File, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	s.logger.Debugf("getting temporary files for task: %s", req.TaskID)

	files, err := s.remote.TempFiles(ctx, req.TaskID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, fmt.Errorf("task not found: %s: %w", req.TaskID, model.ErrNotFound)
		}
		return nil, fmt.Errorf("could not get task files: %w: %w", model.ErrRemotePoll, err)
	}

	return files, nil
}
