package model

import (
	"fmt"
	"strings"
)

// MagnetScheme is the prefix every magnet URI must start with.
const MagnetScheme = "magnet:"

// TaskStatus represents the status of a remote magnet task.
type TaskStatus string

const (
	// TaskStatusUnset means there is no task tracked (initial and resting state).
	TaskStatusUnset TaskStatus = ""
	// TaskStatusCreating means the remote task has been created but not polled yet.
	TaskStatusCreating TaskStatus = "creating"
	// TaskStatusDownloading means the remote is acquiring the content.
	TaskStatusDownloading TaskStatus = "downloading"
	// TaskStatusCompleted means the content is ready to be organized.
	TaskStatusCompleted TaskStatus = "completed"
	// TaskStatusOrganizing means the remote is placing the selected files.
	TaskStatusOrganizing TaskStatus = "organizing"
	// TaskStatusFinished means the remote finished placing the files.
	TaskStatusFinished TaskStatus = "finished"
	// TaskStatusFailed means the remote task failed.
	TaskStatusFailed TaskStatus = "failed"
)

// Task represents the single remote magnet task tracked by a session.
type Task struct {
	ID         string
	Status     TaskStatus
	Progress   int // Percent, 0-100.
	Files      []File
	JobContext *JobContext // Captured at creation time.
	FinalPath  string      // Destination directory, fixed at creation time.
	Error      string      // Last failure reason reported by the remote.
}

// Active returns true when the task holds remote work that can't be abandoned.
func (t Task) Active() bool {
	return t.Status != TaskStatusUnset && t.Status != TaskStatusFailed
}

// Copy returns a deep copy of the task.
func (t Task) Copy() Task {
	c := t
	if t.Files != nil {
		c.Files = make([]File, len(t.Files))
		copy(c.Files, t.Files)
	}
	if t.JobContext != nil {
		jc := t.JobContext.Copy()
		c.JobContext = &jc
	}
	return c
}

// File is a file (or directory) produced by a completed task.
type File struct {
	Name     string
	Path     string // Relative path inside the task, including subdirectories.
	Size     int64
	IsDir    bool
	Selected bool   // Selected to be kept when organizing.
	NewName  string // Optional rename applied when organizing.
}

// StatusReport is the status of a task as reported by the remote.
type StatusReport struct {
	Status     TaskStatus
	Progress   int
	Files      []File
	JobContext *JobContext // Optional, the remote may omit it.
	Error      string
}

// OrganizePlan is the selection and placement decision applied to a completed task.
type OrganizePlan struct {
	Files                  []File
	KeepDirectoryStructure bool
	DirectoryRenames       map[string]string // Old relative path -> new directory name.
}

// Validate validates the organize plan.
func (o OrganizePlan) Validate() error {
	if len(o.Files) == 0 {
		return fmt.Errorf("at least one file is required: %w", ErrNotValid)
	}

	for old, name := range o.DirectoryRenames {
		if old == "" || strings.TrimSpace(name) == "" {
			return fmt.Errorf("directory rename %q -> %q is invalid: %w", old, name, ErrNotValid)
		}
	}

	return nil
}

// ValidateMagnetURI checks that the URI uses the magnet scheme.
func ValidateMagnetURI(uri string) error {
	if !strings.HasPrefix(uri, MagnetScheme) {
		return fmt.Errorf("magnet URI must start with %q: %w", MagnetScheme, ErrNotValid)
	}
	return nil
}
