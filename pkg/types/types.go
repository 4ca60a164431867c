package types

import (
	"github.com/fatih/color"
)

type Criticality int

const (
	CriticalityUnknown Criticality = iota
	CriticalityLow
	CriticalityMedium
	CriticalityHigh
)

var (
	CriticalityNames = []string{
		"Unknown",
		"Low",
		"Medium",
		"High",
	}
	CriticalityColor = []func(a ...interface{}) string{
		color.New(color.Reset).SprintFunc(),
		color.New(color.Reset).SprintFunc(),
		color.New(color.FgYellow).SprintFunc(),
		color.New(color.FgRed, color.Bold).SprintFunc(),
	}
)

func (c Criticality) String() string {
	if c < 0 || int(c) >= len(CriticalityNames) {
		return CriticalityNames[CriticalityUnknown]
	}
	return CriticalityNames[c]
}

func (c Criticality) Colorize() string {
	if c < 0 || int(c) >= len(CriticalityColor) {
		return c.String()
	}
	return CriticalityColor[c](c.String())
}

func (c Criticality) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

type SourceType string

const (
	SourceGit      SourceType = "git"
	SourceRegistry SourceType = "registry"
	SourcePath     SourceType = "path"
)

// Source is a place dependencies are fetched from, as declared in a lockfile.
type Source struct {
	Type SourceType `json:"type"`
	URI  string     `json:"uri"`
}

// Dependency is a resolved gem taken from a lockfile.
type Dependency struct {
	Name    string  `json:"name"`
	Version string  `json:"version"`
	Source  *Source `json:"source,omitempty"`
}
