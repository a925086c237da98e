package model

import "fmt"

// JobContext is the metadata needed by the remote to place the content of a task.
type JobContext struct {
	Title          string
	ThemoviedbName string
	Season         int
	Year           int
	Month          int
	Subgroup       string
	DownloadPath   string
	Match          []string
	Exclude        []string
	CustomEpisode  bool
}

// Copy returns a deep copy of the job context.
func (j JobContext) Copy() JobContext {
	c := j
	c.Match = append([]string(nil), j.Match...)
	c.Exclude = append([]string(nil), j.Exclude...)
	return c
}

// Validate validates the job context.
func (j JobContext) Validate() error {
	if j.Title == "" {
		return fmt.Errorf("title is required: %w", ErrNotValid)
	}

	if j.Season < 0 {
		return fmt.Errorf("season can't be negative: %w", ErrNotValid)
	}

	if j.DownloadPath == "" {
		return fmt.Errorf("download path is required: %w", ErrNotValid)
	}

	return nil
}
