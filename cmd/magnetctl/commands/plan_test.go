package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/magnetctl/internal/model"
)

func TestBuildOrganizePlan(t *testing.T) {
	files := []model.File{
		{Name: "Show", Path: "Show", IsDir: true},
		{Name: "Show - 01.mkv", Path: "Show/Show - 01.mkv", Size: 10},
		{Name: "Show - 02.mkv", Path: "Show/Show - 02.mkv", Size: 10},
		{Name: "Show - 01.ass", Path: "Show/Subs/Show - 01.ass", Size: 1},
	}

	tests := map[string]struct {
		opts        organizeOptions
		expSelected []bool
		expErr      bool
	}{
		"Without selection every file should be selected.": {
			opts:        organizeOptions{},
			expSelected: []bool{false, true, true, true},
		},

		"Select regexes should only keep matching files.": {
			opts:        organizeOptions{selects: []string{`\.mkv$`}},
			expSelected: []bool{false, true, true, false},
		},

		"Exclude regexes should win over selects.": {
			opts:        organizeOptions{selects: []string{`\.mkv$`}, excludes: []string{`- 02`}},
			expSelected: []bool{false, true, false, false},
		},

		"Excluding everything should fail.": {
			opts:   organizeOptions{excludes: []string{`.*`}},
			expErr: true,
		},

		"An invalid regex should fail.": {
			opts:   organizeOptions{selects: []string{`(`}},
			expErr: true,
		},

		"An invalid directory rename should fail.": {
			opts:   organizeOptions{renames: map[string]string{"Show/Subs": " "}},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			plan, err := buildOrganizePlan(files, test.opts)

			if test.expErr {
				require.Error(err)
				assert.True(errors.Is(err, model.ErrNotValid))
				return
			}
			require.NoError(err)

			gotSelected := make([]bool, 0, len(plan.Files))
			for _, f := range plan.Files {
				gotSelected = append(gotSelected, f.Selected)
			}
			assert.Equal(test.expSelected, gotSelected)
			assert.False(files[1].Selected)
		})
	}
}

func TestBuildOrganizePlanOptions(t *testing.T) {
	files := []model.File{{Name: "a.mkv", Path: "Show/a.mkv"}}
	renames := map[string]string{"Show": "Season 1"}

	plan, err := buildOrganizePlan(files, organizeOptions{keepDirStructure: true, renames: renames})

	require.NoError(t, err)
	assert.True(t, plan.KeepDirectoryStructure)
	assert.Equal(t, renames, plan.DirectoryRenames)
}
