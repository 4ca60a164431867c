package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"

	"github.com/aquasecurity/gem-audit/pkg/scanner"
	"github.com/aquasecurity/gem-audit/pkg/version"
)

var (
	label   = color.New(color.FgRed)
	warning = color.New(color.FgYellow)
	danger  = color.New(color.FgRed, color.Bold)
	success = color.New(color.FgGreen)
)

// TextWriter prints one block per finding followed by a summary line.
type TextWriter struct {
	Output  io.Writer
	Verbose bool
	Quiet   bool
}

func (w TextWriter) Write(r *scanner.Report) error {
	for _, f := range r.Findings {
		switch f := f.(type) {
		case scanner.InsecureSource:
			warning.Fprintf(w.Output, "Insecure Source URI found: %s\n", f.URI)
		case scanner.UnpatchedDependency:
			w.writeAdvisory(f)
		}
	}

	if r.Vulnerable() {
		danger.Fprintln(w.Output, "Vulnerabilities found!")
	} else if !w.Quiet {
		success.Fprintln(w.Output, "No vulnerabilities found")
	}
	return nil
}

func (w TextWriter) writeAdvisory(f scanner.UnpatchedDependency) {
	out := w.Output
	adv := f.Advisory

	field := func(name, value string) {
		label.Fprintf(out, "%s: ", name)
		fmt.Fprintln(out, value)
	}
	field("Name", f.Dependency.Name)
	field("Version", f.Dependency.Version)
	field("Advisory", adv.String())
	field("Criticality", adv.Criticality().Colorize())
	field("URL", adv.URL)

	if w.Verbose {
		label.Fprintln(out, "Description:")
		fmt.Fprintln(out)
		for _, line := range strings.Split(strings.TrimRight(adv.Description, "\n"), "\n") {
			fmt.Fprintln(out, strings.TrimRight("  "+line, " "))
		}
		fmt.Fprintln(out)
	} else {
		field("Title", strings.TrimSpace(adv.Title))
	}

	if len(adv.PatchedVersions) > 0 {
		patched := lo.Map(adv.PatchedVersions, func(c version.Constraints, _ int) string {
			return "'" + c.String() + "'"
		})
		field("Solution", "upgrade to "+strings.Join(patched, ", "))
	} else {
		label.Fprint(out, "Solution: ")
		danger.Fprintln(out, "remove or disable this gem until a patch is available!")
	}
	fmt.Fprintln(out)
}
