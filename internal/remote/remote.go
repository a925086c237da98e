package remote

import (
	"context"

	"github.com/slok/magnetctl/internal/model"
)

// Client is the contract of the remote job API that runs magnet tasks.
type Client interface {
	// Create starts a remote task for the magnet URI and returns its identifier.
	Create(ctx context.Context, magnetURI string, jc model.JobContext) (id string, err error)
	// Status returns the current status of a task.
	Status(ctx context.Context, id string) (*model.StatusReport, error)
	// Cancel cancels a task and removes its temporary files.
	Cancel(ctx context.Context, id string) error
	// Organize places the selected files of a completed task.
	Organize(ctx context.Context, id string, plan model.OrganizePlan) error
	// TempFiles returns the file tree of the task temporary directory, available
	// before the task completes.
	TempFiles(ctx context.Context, id string) ([]model.File, error)
	// ForceComplete skips the download completion check and moves the task to the
	// organize stage.
	ForceComplete(ctx context.Context, id string) (*model.StatusReport, error)
}
