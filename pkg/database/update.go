package database

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/git"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/utils"
)

var (
	ErrUpdateFailed      = xerrors.New("failed to update the advisory database")
	ErrUpdateToolMissing = xerrors.New("git must be installed to update the advisory database")
)

const lockRetryDelay = 100 * time.Millisecond

type UpdateResult int

const (
	UpdateSucceeded UpdateResult = iota
	UpdateFailed
	UpdateSkipped
)

func (r UpdateResult) String() string {
	switch r {
	case UpdateSucceeded:
		return "succeeded"
	case UpdateSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

type checkoutState int

const (
	stateMissing checkoutState = iota
	stateNotDirectory
	statePlainDirectory
	stateCheckout
)

func checkoutStateOf(path string) (checkoutState, error) {
	if _, err := os.Lstat(path); errors.Is(err, fs.ErrNotExist) {
		return stateMissing, nil
	} else if err != nil {
		return stateMissing, err
	}

	switch {
	case !utils.IsDir(path):
		return stateNotDirectory, nil
	case git.IsRepository(path):
		return stateCheckout, nil
	default:
		return statePlainDirectory, nil
	}
}

// Update clones the user database when it is missing and fast-forwards it
// when it is a checkout. A plain directory is left alone.
func (m *Manager) Update(ctx context.Context) (UpdateResult, error) {
	logger := log.WithPrefix("database")

	if err := os.MkdirAll(filepath.Dir(m.userPath), 0o755); err != nil {
		return UpdateFailed, xerrors.Errorf("mkdir error (%v): %w", err, ErrUpdateFailed)
	}

	lock := flock.New(m.userPath + ".lock")
	locked, err := lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil || !locked {
		return UpdateFailed, xerrors.Errorf("unable to lock %s (%v): %w", lock.Path(), err, ErrUpdateFailed)
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logger.Warn("Failed to release the update lock", log.FilePath(lock.Path()), log.Err(err))
		}
	}()

	state, err := checkoutStateOf(m.userPath)
	if err != nil {
		return UpdateFailed, xerrors.Errorf("stat error (%v): %w", err, ErrUpdateFailed)
	}

	switch state {
	case stateNotDirectory:
		return UpdateFailed, xerrors.Errorf("%s exists and is not a directory: %w", m.userPath, ErrUpdateFailed)
	case statePlainDirectory:
		logger.Warn("User database is not a git checkout, skipping the update", log.DirPath(m.userPath))
		return UpdateSkipped, nil
	case stateMissing:
		logger.Info("Cloning the advisory database...", log.DirPath(m.userPath))
		if err = m.git.Clone(ctx, m.remote, m.userPath); err != nil {
			// The path did not exist before this clone, so a partial tree is ours to remove
			_ = os.RemoveAll(m.userPath)
		}
	case stateCheckout:
		logger.Info("Updating the advisory database...", log.DirPath(m.userPath))
		err = m.git.Pull(ctx, m.userPath)
	}

	if errors.Is(err, git.ErrToolMissing) {
		return UpdateFailed, ErrUpdateToolMissing
	} else if err != nil {
		return UpdateFailed, xerrors.Errorf("%v: %w", err, ErrUpdateFailed)
	}

	m.reset()
	return UpdateSucceeded, nil
}
