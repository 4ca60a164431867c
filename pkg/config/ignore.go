package config

import (
	"strings"
	"time"

	"k8s.io/utils/clock"
)

// IgnoreList matches advisory identifiers case-insensitively. Expiry is
// evaluated on every lookup, so a long-running process stops ignoring an
// entry once its deadline passes.
type IgnoreList struct {
	entries map[string]*time.Time
	clock   clock.Clock
}

type IgnoreOption func(*IgnoreList)

func WithClock(c clock.Clock) IgnoreOption {
	return func(l *IgnoreList) {
		l.clock = c
	}
}

func NewIgnoreList(entries []IgnoreEntry, opts ...IgnoreOption) *IgnoreList {
	l := &IgnoreList{
		entries: make(map[string]*time.Time, len(entries)),
		clock:   clock.RealClock{},
	}
	for _, opt := range opts {
		opt(l)
	}
	for _, e := range entries {
		l.add(e)
	}
	return l
}

// Add ignores ids without a deadline.
func (l *IgnoreList) Add(ids ...string) {
	for _, id := range ids {
		l.add(IgnoreEntry{ID: id})
	}
}

func (l *IgnoreList) add(e IgnoreEntry) {
	id := strings.ToUpper(strings.TrimSpace(e.ID))
	if id == "" {
		return
	}
	// The later deadline wins for duplicate ids; no deadline is latest.
	if until, ok := l.entries[id]; ok && (until == nil || (e.Until != nil && until.After(*e.Until))) {
		return
	}
	l.entries[id] = e.Until
}

func (l *IgnoreList) Len() int {
	return len(l.entries)
}

// Ignored reports whether any of ids has an entry that has not expired.
func (l *IgnoreList) Ignored(ids ...string) bool {
	now := l.clock.Now()
	for _, id := range ids {
		until, ok := l.entries[strings.ToUpper(id)]
		if !ok {
			continue
		}
		if until == nil || now.Before(*until) {
			return true
		}
	}
	return false
}
