package git

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

const (
	cloneTimeout = 15 * time.Minute
	pullTimeout  = 5 * time.Minute
	queryTimeout = 30 * time.Second
)

// Client wraps the git operations needed to maintain a local advisory mirror.
type Client struct {
	runner Runner
}

func NewClient(runner Runner) Client {
	if runner == nil {
		runner = ExecRunner{}
	}
	return Client{runner: runner}
}

// Clone clones url into dir. The parent of dir must exist.
func (c Client) Clone(ctx context.Context, url, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, cloneTimeout)
	defer cancel()

	if _, err := c.runner.Run(ctx, "", "clone", "--quiet", url, dir); err != nil {
		return xerrors.Errorf("clone error: %w", err)
	}
	return nil
}

// Pull fast-forwards the checkout in dir from origin.
func (c Client) Pull(ctx context.Context, dir string) error {
	ctx, cancel := context.WithTimeout(ctx, pullTimeout)
	defer cancel()

	if _, err := c.runner.Run(ctx, dir, "pull", "--ff-only", "--quiet", "origin"); err != nil {
		return xerrors.Errorf("pull error: %w", err)
	}
	return nil
}

// LastCommitTime returns the committer date of HEAD.
func (c Client) LastCommitTime(ctx context.Context, dir string) (time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, dir, "log", "-1", "--format=%cI")
	if err != nil {
		return time.Time{}, xerrors.Errorf("log error: %w", err)
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(string(out)))
	if err != nil {
		return time.Time{}, xerrors.Errorf("unexpected commit date %q: %w", strings.TrimSpace(string(out)), err)
	}
	return t, nil
}

// HeadCommit returns the full hash of HEAD.
func (c Client) HeadCommit(ctx context.Context, dir string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	out, err := c.runner.Run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", xerrors.Errorf("rev-parse error: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// IsRepository reports whether dir is the top of a git checkout.
// Worktrees and submodules use a ".git" file instead of a directory.
func IsRepository(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}
