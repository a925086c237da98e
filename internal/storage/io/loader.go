package io

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/slok/magnetctl/internal/model"
)

// JobContextYAMLRepository loads task job contexts from YAML files.
type JobContextYAMLRepository struct {
	fs fs.FS
}

// NewJobContextYAMLRepository creates a new YAML job context repository.
func NewJobContextYAMLRepository(filesystem fs.FS) *JobContextYAMLRepository {
	return &JobContextYAMLRepository{fs: filesystem}
}

// GetJobContext loads a job context from a YAML file and returns a validated domain model.
func (r *JobContextYAMLRepository) GetJobContext(ctx context.Context, path string) (model.JobContext, error) {
	data, err := fs.ReadFile(r.fs, path)
	if err != nil {
		return model.JobContext{}, fmt.Errorf("reading job context file: %w", err)
	}

	if ctx.Err() != nil {
		return model.JobContext{}, ctx.Err()
	}

	var jc JobContext
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&jc); err != nil {
		return model.JobContext{}, fmt.Errorf("parsing YAML: %w", err)
	}

	m := jc.toModel()
	if err := m.Validate(); err != nil {
		return model.JobContext{}, fmt.Errorf("invalid job context: %w", err)
	}

	return m, nil
}

// JobContext represents the YAML structure of a job context.
type JobContext struct {
	Title          string   `yaml:"title"`
	ThemoviedbName string   `yaml:"themoviedb_name"`
	Season         int      `yaml:"season"`
	Year           int      `yaml:"year"`
	Month          int      `yaml:"month"`
	Subgroup       string   `yaml:"subgroup"`
	DownloadPath   string   `yaml:"download_path"`
	Match          []string `yaml:"match"`
	Exclude        []string `yaml:"exclude"`
	CustomEpisode  bool     `yaml:"custom_episode"`
}

func (c JobContext) toModel() model.JobContext {
	return model.JobContext{
		Title:          c.Title,
		ThemoviedbName: c.ThemoviedbName,
		Season:         c.Season,
		Year:           c.Year,
		Month:          c.Month,
		Subgroup:       c.Subgroup,
		DownloadPath:   c.DownloadPath,
		Match:          c.Match,
		Exclude:        c.Exclude,
		CustomEpisode:  c.CustomEpisode,
	}
}
