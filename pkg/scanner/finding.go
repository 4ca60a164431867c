package scanner

import (
	"github.com/samber/lo"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
	"github.com/aquasecurity/gem-audit/pkg/types"
)

type FindingType string

const (
	TypeInsecureSource FindingType = "insecure_source"
	TypeUnpatchedGem   FindingType = "unpatched_gem"
)

// Finding is a single problem reported by Scan.
type Finding interface {
	Type() FindingType
}

// InsecureSource is a gem source fetched over plaintext transport.
type InsecureSource struct {
	URI string
}

func (InsecureSource) Type() FindingType {
	return TypeInsecureSource
}

// UnpatchedDependency is a locked gem version that an advisory applies to.
type UnpatchedDependency struct {
	Dependency types.Dependency
	Advisory   advisory.Advisory
}

func (UnpatchedDependency) Type() FindingType {
	return TypeUnpatchedGem
}

// Report collects the findings of a scan. Add can be passed to Scan directly.
type Report struct {
	Findings []Finding
}

func (r *Report) Add(f Finding) error {
	r.Findings = append(r.Findings, f)
	return nil
}

func (r *Report) Vulnerable() bool {
	return len(r.Findings) > 0
}

func (r *Report) InsecureSources() []InsecureSource {
	return lo.FilterMap(r.Findings, func(f Finding, _ int) (InsecureSource, bool) {
		s, ok := f.(InsecureSource)
		return s, ok
	})
}

func (r *Report) UnpatchedDependencies() []UnpatchedDependency {
	return lo.FilterMap(r.Findings, func(f Finding, _ int) (UnpatchedDependency, bool) {
		d, ok := f.(UnpatchedDependency)
		return d, ok
	})
}
