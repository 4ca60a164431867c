package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/package-url/packageurl-go"
	"golang.org/x/xerrors"
	"k8s.io/utils/clock"

	"github.com/aquasecurity/gem-audit/pkg/advisory"
	"github.com/aquasecurity/gem-audit/pkg/scanner"
	"github.com/aquasecurity/gem-audit/pkg/types"
)

type jsonReport struct {
	Version   string       `json:"version"`
	CreatedAt time.Time    `json:"created_at"`
	Results   []jsonResult `json:"results"`
}

type jsonResult struct {
	Type     scanner.FindingType `json:"type"`
	Source   string              `json:"source,omitempty"`
	Gem      *jsonGem            `json:"gem,omitempty"`
	Advisory *jsonAdvisory       `json:"advisory,omitempty"`
}

type jsonGem struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	PURL    string `json:"purl"`
}

type jsonAdvisory struct {
	advisory.Advisory
	Identifiers []string          `json:"identifiers"`
	Criticality types.Criticality `json:"criticality"`
}

// JSONWriter emits {version, created_at, results}. Pretty indents the output.
type JSONWriter struct {
	Output  io.Writer
	Version string
	Pretty  bool

	clock clock.Clock
}

func (w JSONWriter) Write(r *scanner.Report) error {
	now := time.Now()
	if w.clock != nil {
		now = w.clock.Now()
	}

	out := jsonReport{
		Version:   w.Version,
		CreatedAt: now.UTC(),
		Results:   make([]jsonResult, 0, len(r.Findings)),
	}
	for _, f := range r.Findings {
		switch f := f.(type) {
		case scanner.InsecureSource:
			out.Results = append(out.Results, jsonResult{Type: f.Type(), Source: f.URI})
		case scanner.UnpatchedDependency:
			out.Results = append(out.Results, jsonResult{
				Type: f.Type(),
				Gem: &jsonGem{
					Name:    f.Dependency.Name,
					Version: f.Dependency.Version,
					PURL:    purl(f.Dependency),
				},
				Advisory: &jsonAdvisory{
					Advisory:    f.Advisory,
					Identifiers: f.Advisory.Identifiers(),
					Criticality: f.Advisory.Criticality(),
				},
			})
		}
	}

	enc := json.NewEncoder(w.Output)
	if w.Pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(out); err != nil {
		return xerrors.Errorf("json encode error: %w", err)
	}
	return nil
}

func purl(dep types.Dependency) string {
	return packageurl.NewPackageURL(packageurl.TypeGem, "", dep.Name, dep.Version, nil, "").ToString()
}
