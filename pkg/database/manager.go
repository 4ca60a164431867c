package database

import (
	"context"
	"sync"
	"time"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/git"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/metadata"
	"github.com/aquasecurity/gem-audit/pkg/utils"
)

// Manager decides which copy of the advisory database is active: the
// vendored snapshot shipped with the binary or the user's git checkout,
// whichever is newer. The choice is made once and cached.
type Manager struct {
	vendoredPath string
	userPath     string
	remote       string
	path         string
	git          git.Client

	mu       sync.Mutex
	resolved string
}

type Option func(*Manager)

func WithVendoredPath(path string) Option {
	return func(m *Manager) {
		m.vendoredPath = path
	}
}

func WithUserPath(path string) Option {
	return func(m *Manager) {
		m.userPath = path
	}
}

func WithRemote(url string) Option {
	return func(m *Manager) {
		m.remote = url
	}
}

func WithGit(runner git.Runner) Option {
	return func(m *Manager) {
		m.git = git.NewClient(runner)
	}
}

// WithPath pins the database to path and bypasses resolution.
func WithPath(path string) Option {
	return func(m *Manager) {
		m.path = path
	}
}

func NewManager(opts ...Option) *Manager {
	m := &Manager{
		vendoredPath: utils.VendoredDatabaseDir(),
		userPath:     utils.UserDatabaseDir(),
		remote:       DefaultRemote,
		git:          git.NewClient(git.ExecRunner{}),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) UserPath() string {
	return m.userPath
}

func (m *Manager) VendoredPath() string {
	return m.vendoredPath
}

// ResolvePath returns the active database directory.
func (m *Manager) ResolvePath(ctx context.Context) string {
	if m.path != "" {
		return m.path
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.resolved == "" {
		m.resolved = m.resolve(ctx)
	}
	return m.resolved
}

func (m *Manager) resolve(ctx context.Context) string {
	logger := log.WithPrefix("database")

	state := checkoutStateOf(m.userPath)
	if state == stateMissing {
		return m.vendoredPath
	}
	if !utils.IsDir(m.vendoredPath) {
		return m.userPath
	}
	if state == statePlainDirectory {
		logger.Warn("User database is not a git checkout, using the vendored database", log.DirPath(m.userPath))
		return m.vendoredPath
	}

	userTime, err := m.git.LastCommitTime(ctx, m.userPath)
	if err != nil {
		logger.Warn("Unable to read the last commit time, using the vendored database",
			log.DirPath(m.userPath), log.Err(err))
		return m.vendoredPath
	}

	meta, err := metadata.NewClient(m.vendoredPath).Get()
	if err != nil {
		logger.Warn("Vendored database has no readable metadata, using the user database",
			log.DirPath(m.vendoredPath), log.Err(err))
		return m.userPath
	}

	logger.Debug("Comparing database timestamps",
		log.Time("user", userTime), log.Time("vendored", meta.UpdatedAt))
	if !userTime.Before(meta.UpdatedAt) {
		return m.userPath
	}
	return m.vendoredPath
}

// Open resolves the active location and opens it.
func (m *Manager) Open(ctx context.Context) (*Database, error) {
	db, err := Open(m.ResolvePath(ctx))
	if err != nil {
		return nil, xerrors.Errorf("unable to open the advisory database: %w", err)
	}
	return db, nil
}

// LastUpdated returns the freshness timestamp of the active database: the
// last commit time of a checkout, or the recorded build time of a snapshot.
func (m *Manager) LastUpdated(ctx context.Context) (time.Time, error) {
	path := m.ResolvePath(ctx)
	if checkoutStateOf(path) == stateCheckout {
		return m.git.LastCommitTime(ctx, path)
	}
	meta, err := metadata.NewClient(path).Get()
	if err != nil {
		return time.Time{}, xerrors.Errorf("metadata error: %w", err)
	}
	return meta.UpdatedAt, nil
}

// Commit returns the commit the active database was taken from, if known.
func (m *Manager) Commit(ctx context.Context) (string, error) {
	path := m.ResolvePath(ctx)
	if checkoutStateOf(path) == stateCheckout {
		return m.git.HeadCommit(ctx, path)
	}
	meta, err := metadata.NewClient(path).Get()
	if err != nil {
		return "", xerrors.Errorf("metadata error: %w", err)
	}
	return meta.Commit, nil
}

func (m *Manager) reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolved = ""
}
