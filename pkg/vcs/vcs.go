// Package vcs reads best-effort information from the git repository enclosing a project.
//
// Nothing here ever fails: missing repositories, detached heads and unborn branches
// all yield empty values.
package vcs

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/oneconcern/yap/pkg/model"
)

func open(dir string) (*git.Repository, error) {
	return git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
}

// HeadCommit yields the hash of the commit checked out in the git repository enclosing dir,
// or an empty string.
func HeadCommit(dir string) string {
	repo, err := open(dir)
	if err != nil {
		return ""
	}
	head, err := repo.Head()
	if err != nil {
		return ""
	}
	return head.Hash().String()
}

// CurrentBranch yields the branch checked out in the git repository enclosing dir.
// It defaults to model.DefaultBranch.
func CurrentBranch(dir string) string {
	repo, err := open(dir)
	if err != nil {
		return model.DefaultBranch
	}
	head, err := repo.Head()
	if err != nil || !head.Name().IsBranch() {
		return model.DefaultBranch
	}
	return head.Name().Short()
}

// Author yields the user configured for the git repository enclosing dir, including the user's global
// git settings. It is empty outside of a repository.
func Author(dir string) model.Author {
	repo, err := open(dir)
	if err != nil {
		return model.Author{}
	}
	cfg, err := repo.ConfigScoped(config.GlobalScope)
	if err != nil {
		return model.Author{}
	}
	return model.Author{Name: cfg.User.Name, Email: cfg.User.Email}
}
