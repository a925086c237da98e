package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slok/magnetctl/internal/model"
)

func TestValidateMagnetURI(t *testing.T) {
	tests := map[string]struct {
		uri    string
		expErr bool
	}{
		"A magnet URI should not fail": {
			uri: "magnet:?xt=urn:btih:ABC",
		},

		"An empty URI should fail": {
			uri:    "",
			expErr: true,
		},

		"An HTTP URL should fail": {
			uri:    "https://example.org/file.torrent",
			expErr: true,
		},

		"The scheme is case sensitive": {
			uri:    "MAGNET:?xt=urn:btih:ABC",
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := model.ValidateMagnetURI(test.uri)

			if test.expErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOrganizePlanValidate(t *testing.T) {
	tests := map[string]struct {
		plan   model.OrganizePlan
		expErr bool
	}{
		"A plan with files should not fail": {
			plan: model.OrganizePlan{Files: []model.File{{Name: "a.mkv", Path: "a.mkv"}}},
		},

		"A plan without files should fail": {
			plan:   model.OrganizePlan{},
			expErr: true,
		},

		"A plan with a blank directory rename should fail": {
			plan: model.OrganizePlan{
				Files:            []model.File{{Name: "a.mkv", Path: "s1/a.mkv"}},
				DirectoryRenames: map[string]string{"s1": " "},
			},
			expErr: true,
		},

		"A plan with directory renames should not fail": {
			plan: model.OrganizePlan{
				Files:                  []model.File{{Name: "a.mkv", Path: "s1/a.mkv"}},
				KeepDirectoryStructure: true,
				DirectoryRenames:       map[string]string{"s1": "Season 1"},
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.plan.Validate()

			if test.expErr {
				assert.True(t, errors.Is(err, model.ErrNotValid))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestJobContextValidate(t *testing.T) {
	tests := map[string]struct {
		jc     model.JobContext
		expErr bool
	}{
		"A valid job context should not fail": {
			jc: model.JobContext{Title: "Frieren", Season: 1, DownloadPath: "/media/Frieren/S01"},
		},

		"Missing title should fail": {
			jc:     model.JobContext{Season: 1, DownloadPath: "/media/x"},
			expErr: true,
		},

		"Missing download path should fail": {
			jc:     model.JobContext{Title: "Frieren", Season: 1},
			expErr: true,
		},

		"Negative season should fail": {
			jc:     model.JobContext{Title: "Frieren", Season: -1, DownloadPath: "/media/x"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			err := test.jc.Validate()

			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTaskActive(t *testing.T) {
	tests := map[string]struct {
		status    model.TaskStatus
		expActive bool
	}{
		"Unset":       {status: model.TaskStatusUnset, expActive: false},
		"Creating":    {status: model.TaskStatusCreating, expActive: true},
		"Downloading": {status: model.TaskStatusDownloading, expActive: true},
		"Completed":   {status: model.TaskStatusCompleted, expActive: true},
		"Organizing":  {status: model.TaskStatusOrganizing, expActive: true},
		"Finished":    {status: model.TaskStatusFinished, expActive: true},
		"Failed":      {status: model.TaskStatusFailed, expActive: false},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, test.expActive, model.Task{Status: test.status}.Active())
		})
	}
}

func TestTaskCopyIsDeep(t *testing.T) {
	orig := model.Task{
		ID:         "T1",
		Files:      []model.File{{Name: "a.mkv"}},
		JobContext: &model.JobContext{Title: "Frieren", Match: []string{"1080p"}},
	}

	c := orig.Copy()
	c.Files[0].Name = "b.mkv"
	c.JobContext.Title = "Other"
	c.JobContext.Match[0] = "720p"

	assert.Equal(t, "a.mkv", orig.Files[0].Name)
	assert.Equal(t, "Frieren", orig.JobContext.Title)
	assert.Equal(t, "1080p", orig.JobContext.Match[0])
}
