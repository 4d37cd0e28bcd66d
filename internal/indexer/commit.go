package indexer

import (
	"github.com/go-git/go-git/v5"
)

// gitHeadCommit returns the checked-out HEAD commit hash for the repository
// at dir. Used to stamp a git-sourced build's provenance; failures are
// treated as "no commit hash available" by the caller, never fatal.
func gitHeadCommit(dir string) (string, error) {
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return "", err
	}
	head, err := repo.Head()
	if err != nil {
		return "", err
	}
	return head.Hash().String(), nil
}
