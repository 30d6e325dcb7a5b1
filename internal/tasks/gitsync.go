package tasks

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
)

// GitSync publishes `source` to a git remote: it opens (or initializes) a
// repository at `source`, commits any pending changes, and pushes to the
// `origin` remote, creating it from `remote` when the repository has none.
// The push uses go-git's default refspec; `branch` (default main) is only
// reported in the step details and does not select what is pushed.
// Authentication is basic-auth via `username`/`token`
// when both are set; otherwise the system's default transport is used.
func GitSync(ctx context.Context, req Request) (Outcome, error) {
	source := resolvePath(req.BaseDir, stringOpt(req.Raw, "source"))
	remote := stringOpt(req.Raw, "remote")
	branch := stringOpt(req.Raw, "branch")
	if source == "" || remote == "" {
		return Outcome{}, fmt.Errorf("git-sync: source and remote are required")
	}
	if branch == "" {
		branch = "main"
	}

	repo, err := git.PlainOpen(source)
	if errors.Is(err, git.ErrRepositoryNotExists) {
		repo, err = git.PlainInit(source, false)
	}
	if err != nil {
		return Outcome{}, fmt.Errorf("git-sync: open/init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return Outcome{}, fmt.Errorf("git-sync: worktree: %w", err)
	}
	if _, err := worktree.Add("."); err != nil {
		return Outcome{}, fmt.Errorf("git-sync: stage changes: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return Outcome{}, fmt.Errorf("git-sync: status: %w", err)
	}
	committed := false
	if !status.IsClean() {
		message := stringOpt(req.Raw, "message")
		if message == "" {
			message = "powerforge: publish site"
		}
		if _, err := worktree.Commit(message, &git.CommitOptions{}); err != nil {
			return Outcome{}, fmt.Errorf("git-sync: commit: %w", err)
		}
		committed = true
	}

	if _, err := repo.Remote("origin"); errors.Is(err, git.ErrRemoteNotFound) {
		if _, err := repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{remote}}); err != nil {
			return Outcome{}, fmt.Errorf("git-sync: create remote: %w", err)
		}
	}

	pushOpts := &git.PushOptions{RemoteName: "origin"}
	if username := stringOpt(req.Raw, "username"); username != "" {
		if token := os.ExpandEnv(stringOpt(req.Raw, "token")); token != "" {
			pushOpts.Auth = &http.BasicAuth{Username: username, Password: token}
		}
	}

	if err := repo.PushContext(ctx, pushOpts); err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return Outcome{}, fmt.Errorf("git-sync: push: %w", err)
	}

	return Outcome{
		Success: true,
		Details: map[string]any{"committed": committed, "branch": branch},
	}, nil
}
