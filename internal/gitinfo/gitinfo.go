// Package gitinfo reads the HEAD of the repository the documented sources live in.
package gitinfo

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNotRepository is returned when no .git directory is found at or above the path.
var ErrNotRepository = errors.New("not inside a git repository")

// Head describes the checked-out commit.
type Head struct {
	Commit string `json:"commit"`
	// Branch is empty for a detached HEAD (the usual state on hosted CI checkouts).
	Branch string `json:"branch,omitempty"`
}

// Short returns the abbreviated commit hash.
func (h Head) Short() string {
	if len(h.Commit) > 8 {
		return h.Commit[:8]
	}
	return h.Commit
}

// ReadHead opens the repository containing dir, searching parent directories.
func ReadHead(dir string) (Head, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Head{}, fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		return Head{}, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	ref, err := repo.Head()
	if err != nil {
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Head{}, fmt.Errorf("repository at %s has no commits: %w", dir, err)
		}
		return Head{}, fmt.Errorf("resolve HEAD: %w", err)
	}
	h := Head{Commit: ref.Hash().String()}
	if ref.Name().IsBranch() {
		h.Branch = ref.Name().Short()
	}
	return h, nil
}
