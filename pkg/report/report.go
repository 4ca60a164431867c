package report

import (
	"io"
	"strings"

	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/gem-audit/pkg/scanner"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

var Formats = []string{string(FormatText), string(FormatJSON)}

// Writer renders the findings of a scan.
type Writer interface {
	Write(r *scanner.Report) error
}

type Option struct {
	Format  Format
	Output  io.Writer
	Verbose bool
	Quiet   bool
	Pretty  bool
	Version string
	Clock   clock.Clock
}

func NewWriter(opt Option) (Writer, error) {
	switch Format(strings.ToLower(string(opt.Format))) {
	case FormatText, "":
		return TextWriter{Output: opt.Output, Verbose: opt.Verbose, Quiet: opt.Quiet}, nil
	case FormatJSON:
		c := opt.Clock
		if c == nil {
			c = clock.RealClock{}
		}
		return JSONWriter{Output: opt.Output, Version: opt.Version, Pretty: opt.Pretty, clock: c}, nil
	default:
		return nil, xerrors.Errorf("unknown format %q (supported: %s)", opt.Format, strings.Join(Formats, ", "))
	}
}
