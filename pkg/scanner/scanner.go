package scanner

import (
	"context"
	"net"

	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
	"github.com/aquasecurity/gem-audit/pkg/log"
	"github.com/aquasecurity/gem-audit/pkg/types"
	"github.com/aquasecurity/gem-audit/pkg/version"
)

// AdvisoryChecker yields the advisories a gem version is vulnerable to.
// *database.Database satisfies it.
type AdvisoryChecker interface {
	CheckGem(name string, v version.Version, fn func(advisory.Advisory) error) error
}

// Ignorer decides whether an advisory known by any of ids is suppressed.
type Ignorer interface {
	Ignored(ids ...string) bool
}

type Scanner struct {
	db       AdvisoryChecker
	resolver Resolver
	ignore   Ignorer
}

type Option func(*Scanner)

func WithResolver(r Resolver) Option {
	return func(s *Scanner) {
		s.resolver = r
	}
}

func WithIgnore(i Ignorer) Option {
	return func(s *Scanner) {
		s.ignore = i
	}
}

func New(db AdvisoryChecker, opts ...Option) *Scanner {
	s := &Scanner{
		db:       db,
		resolver: net.DefaultResolver,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan reports insecure sources in declaration order, then every unpatched
// dependency in lockfile order. fn returning an error stops the scan.
func (s *Scanner) Scan(ctx context.Context, deps []types.Dependency, sources []types.Source, fn func(Finding) error) error {
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !s.insecure(ctx, src) {
			continue
		}
		if err := fn(InsecureSource{URI: src.URI}); err != nil {
			return err
		}
	}

	logger := log.WithPrefix("scanner")
	for _, dep := range deps {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := version.NewVersion(dep.Version)
		if err != nil {
			logger.Warn("Skipping a gem with an unparsable version",
				log.String("gem", dep.Name), log.String("version", dep.Version), log.Err(err))
			continue
		}

		err = s.db.CheckGem(dep.Name, v, func(adv advisory.Advisory) error {
			if s.ignore != nil && s.ignore.Ignored(adv.Identifiers()...) {
				logger.Debug("Ignoring advisory", log.String("gem", dep.Name), log.String("advisory", adv.String()))
				return nil
			}
			return fn(UnpatchedDependency{Dependency: dep, Advisory: adv})
		})
		if err != nil {
			return xerrors.Errorf("%s (%s): %w", dep.Name, dep.Version, err)
		}
	}
	return nil
}
