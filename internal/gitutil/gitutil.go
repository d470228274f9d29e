// Package gitutil reads details out of the local git repository so
// commands can default flags the working copy already knows.
package gitutil

import (
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CloneURLs returns the fetch URLs of the origin remote.
func CloneURLs(path string) ([]string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("opening git repository: %w", err)
	}
	remote, err := repo.Remote(git.DefaultRemoteName)
	if err != nil {
		return nil, fmt.Errorf("reading origin remote: %w", err)
	}
	return remote.Config().URLs, nil
}

// EarliestUniqueCommit returns the hash of the repository's root commit,
// the one every fork shares.
func EarliestUniqueCommit(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("opening git repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return "", fmt.Errorf("walking history: %w", err)
	}
	defer iter.Close()

	var root *object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		if c.NumParents() == 0 {
			root = c
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("walking history: %w", err)
	}
	if root == nil {
		return "", fmt.Errorf("no root commit reachable from HEAD")
	}
	return root.Hash.String(), nil
}

// BranchTip returns the commit hash at the tip of the named local branch.
func BranchTip(path, branch string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("opening git repository: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName(branch), true)
	if err != nil {
		return "", fmt.Errorf("resolving branch %q: %w", branch, err)
	}
	return ref.Hash().String(), nil
}

// Ref is one local branch or tag at a commit.
type Ref struct {
	Name   string
	Commit string
}

// LocalRefs returns the repository's local branches and tags.
func LocalRefs(path string) (branches, tags []Ref, err error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening git repository: %w", err)
	}

	branchIter, err := repo.Branches()
	if err != nil {
		return nil, nil, fmt.Errorf("listing branches: %w", err)
	}
	err = branchIter.ForEach(func(ref *plumbing.Reference) error {
		branches = append(branches, Ref{Name: ref.Name().Short(), Commit: ref.Hash().String()})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("listing branches: %w", err)
	}

	tagIter, err := repo.Tags()
	if err != nil {
		return nil, nil, fmt.Errorf("listing tags: %w", err)
	}
	err = tagIter.ForEach(func(ref *plumbing.Reference) error {
		tags = append(tags, Ref{Name: ref.Name().Short(), Commit: ref.Hash().String()})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("listing tags: %w", err)
	}
	return branches, tags, nil
}

// HeadBranch returns the short name of the branch HEAD points at.
func HeadBranch(path string) (string, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return "", fmt.Errorf("opening git repository: %w", err)
	}
	head, err := repo.Head()
	if err != nil {
		return "", fmt.Errorf("resolving HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached")
	}
	return head.Name().Short(), nil
}
