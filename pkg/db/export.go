package db

import (
	"time"

	bolt "go.etcd.io/bbolt"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
)

// AdvisorySource yields every advisory of an advisory tree.
type AdvisorySource interface {
	Advisories(fn func(advisory.Advisory) error) error
}

type Exporter struct {
	dbc   Operations
	clock clock.Clock
}

type ExporterOption func(*Exporter)

func WithClock(c clock.Clock) ExporterOption {
	return func(e *Exporter) {
		e.clock = c
	}
}

func WithOperations(dbc Operations) ExporterOption {
	return func(e *Exporter) {
		e.dbc = dbc
	}
}

func NewExporter(opts ...ExporterOption) Exporter {
	e := Exporter{
		dbc:   Config{},
		clock: clock.RealClock{},
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Export copies every advisory of src into the opened database and records
// the source freshness. It returns the number of advisories written.
func (e Exporter) Export(src AdvisorySource, updatedAt time.Time, commit string) (int, error) {
	var count int
	err := e.dbc.BatchUpdate(func(tx *bolt.Tx) error {
		count = 0
		return src.Advisories(func(adv advisory.Advisory) error {
			if err := e.dbc.PutAdvisory(tx, adv.Gem, adv.ID, adv); err != nil {
				return xerrors.Errorf("failed to save %s/%s: %w", adv.Gem, adv.ID, err)
			}
			count++
			return nil
		})
	})
	if err != nil {
		return 0, xerrors.Errorf("batch update error: %w", err)
	}

	meta := Metadata{
		Version:    SchemaVersion,
		UpdatedAt:  updatedAt.UTC(),
		ExportedAt: e.clock.Now().UTC(),
		Commit:     commit,
		Advisories: count,
	}
	if err = e.dbc.SetMetadata(meta); err != nil {
		return 0, xerrors.Errorf("metadata error: %w", err)
	}
	return count, nil
}
