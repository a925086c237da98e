package commands

import (
	"fmt"
	"regexp"

	"github.com/slok/magnetctl/internal/model"
)

type organizeOptions struct {
	selects          []string
	excludes         []string
	keepDirStructure bool
	renames          map[string]string
}

// buildOrganizePlan selects the files matching any select regex (all when there are none)
// and no exclude regex. Directories are never selected.
func buildOrganizePlan(files []model.File, opts organizeOptions) (model.OrganizePlan, error) {
	selects, err := compileRegexes(opts.selects)
	if err != nil {
		return model.OrganizePlan{}, fmt.Errorf("invalid select: %w", err)
	}
	excludes, err := compileRegexes(opts.excludes)
	if err != nil {
		return model.OrganizePlan{}, fmt.Errorf("invalid exclude: %w", err)
	}

	planFiles := make([]model.File, 0, len(files))
	selected := 0
	for _, f := range files {
		f.Selected = !f.IsDir && (len(selects) == 0 || matchAny(selects, f.Path)) && !matchAny(excludes, f.Path)
		if f.Selected {
			selected++
		}
		planFiles = append(planFiles, f)
	}
	if selected == 0 {
		return model.OrganizePlan{}, fmt.Errorf("no file matches the selection: %w", model.ErrNotValid)
	}

	plan := model.OrganizePlan{
		Files:                  planFiles,
		KeepDirectoryStructure: opts.keepDirStructure,
		DirectoryRenames:       opts.renames,
	}
	if err := plan.Validate(); err != nil {
		return model.OrganizePlan{}, err
	}

	return plan, nil
}

func compileRegexes(exprs []string) ([]*regexp.Regexp, error) {
	res := make([]*regexp.Regexp, 0, len(exprs))
	for _, e := range exprs {
		r, err := regexp.Compile(e)
		if err != nil {
			return nil, fmt.Errorf("regex %q: %w: %w", e, model.ErrNotValid, err)
		}
		res = append(res, r)
	}
	return res, nil
}

func matchAny(rs []*regexp.Regexp, s string) bool {
	for _, r := range rs {
		if r.MatchString(s) {
			return true
		}
	}
	return false
}
