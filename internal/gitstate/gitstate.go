// Package gitstate checks that the record directory is committed before a
// run mutates it, so every run's effect is reviewable as a git diff.
package gitstate

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"

	"github.com/agentstation/rostermerge/pkg/errors"
)

// State describes the worktree under a path.
type State struct {
	// Root is the repository worktree root.
	Root string
	// Dirty lists modified, staged or untracked paths under the checked
	// path, relative to Root.
	Dirty []string
}

// Clean reports whether nothing under the path is uncommitted.
func (s *State) Clean() bool { return len(s.Dirty) == 0 }

// Inspect opens the repository containing path and collects uncommitted
// changes beneath it.
func Inspect(path string) (*State, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.WrapIO("resolve", path, err)
	}
	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if err == git.ErrRepositoryNotExists {
			return nil, errors.NewConfigError("gitstate", fmt.Sprintf("%s is not inside a git repository", path), err)
		}
		return nil, errors.WrapIO("open repository", path, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, errors.WrapIO("open worktree", path, err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, errors.WrapIO("status", path, err)
	}

	root := worktree.Filesystem.Root()
	prefix, err := filepath.Rel(root, abs)
	if err != nil {
		return nil, errors.WrapIO("resolve", path, err)
	}
	prefix = filepath.ToSlash(prefix)

	state := &State{Root: root}
	for file, fs := range status {
		if fs.Staging == git.Unmodified && fs.Worktree == git.Unmodified {
			continue
		}
		if prefix != "." && file != prefix && !strings.HasPrefix(file, prefix+"/") {
			continue
		}
		state.Dirty = append(state.Dirty, file)
	}
	sort.Strings(state.Dirty)
	return state, nil
}

// RequireClean fails with ErrDirtyState when path has uncommitted changes.
func RequireClean(path string) error {
	state, err := Inspect(path)
	if err != nil {
		return err
	}
	if state.Clean() {
		return nil
	}
	shown := state.Dirty
	if len(shown) > 5 {
		shown = append(shown[:5:5], fmt.Sprintf("and %d more", len(state.Dirty)-5))
	}
	return fmt.Errorf("%w: %s", errors.ErrDirtyState, strings.Join(shown, ", "))
}
