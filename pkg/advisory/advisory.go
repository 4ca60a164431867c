package advisory

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/xerrors"
	"gopkg.in/yaml.v2"

	"github.com/aquasecurity/gem-audit/pkg/types"
	"github.com/aquasecurity/gem-audit/pkg/version"
)

// Advisory is a single ruby-advisory-db record, e.g. gems/actionpack/OSVDB-89026.yml.
type Advisory struct {
	ID                 string                `json:"id"`
	Gem                string                `json:"gem,omitempty"`
	URL                string                `json:"url"`
	Title              string                `json:"title"`
	Description        string                `json:"description"`
	Date               string                `json:"date,omitempty"`
	CVE                string                `json:"cve,omitempty"`
	OSVDB              string                `json:"osvdb,omitempty"`
	GHSA               string                `json:"ghsa,omitempty"`
	CVSSv2             *float64              `json:"cvss_v2,omitempty"`
	CVSSv3             *float64              `json:"cvss_v3,omitempty"`
	PatchedVersions    []version.Constraints `json:"patched_versions"`
	UnaffectedVersions []version.Constraints `json:"unaffected_versions,omitempty"`
	Related            []string              `json:"related,omitempty"`
}

// Load reads an advisory file. The identifier is the file name without its
// extension and the gem defaults to the name of the parent directory.
func Load(path string) (Advisory, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Advisory{}, xerrors.Errorf("failed to read the advisory: %w", err)
	}

	id := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	adv, err := Parse(id, b)
	if err != nil {
		return Advisory{}, xerrors.Errorf("%s: %w", path, err)
	}
	if adv.Gem == "" {
		adv.Gem = filepath.Base(filepath.Dir(path))
	}
	return adv, nil
}

// Parse validates and decodes a YAML advisory document.
func Parse(id string, data []byte) (Advisory, error) {
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Advisory{}, &InvalidAdvisoryError{Reason: "YAML parse error", Err: err}
	}
	doc, ok := raw.(map[interface{}]interface{})
	if !ok {
		return Advisory{}, &InvalidAdvisoryError{Reason: "advisory data is not a mapping"}
	}
	r := record(doc)

	adv := Advisory{ID: id}
	var err error
	if adv.URL, err = r.requiredString("url"); err != nil {
		return Advisory{}, err
	}
	if adv.Title, err = r.requiredString("title"); err != nil {
		return Advisory{}, err
	}
	if adv.Description, err = r.requiredString("description"); err != nil {
		return Advisory{}, err
	}
	if adv.Gem, err = r.optionalString("gem"); err != nil {
		return Advisory{}, err
	}
	if adv.Date, err = r.optionalString("date"); err != nil {
		return Advisory{}, err
	}
	if adv.CVE, err = r.optionalString("cve"); err != nil {
		return Advisory{}, err
	}
	if adv.OSVDB, err = r.optionalString("osvdb"); err != nil {
		return Advisory{}, err
	}
	if adv.GHSA, err = r.optionalString("ghsa"); err != nil {
		return Advisory{}, err
	}
	if adv.CVSSv2, err = r.optionalFloat("cvss_v2"); err != nil {
		return Advisory{}, err
	}
	if adv.CVSSv3, err = r.optionalFloat("cvss_v3"); err != nil {
		return Advisory{}, err
	}

	patched, err := r.stringList("patched_versions", true)
	if err != nil {
		return Advisory{}, err
	}
	if adv.PatchedVersions, err = parseConstraints("patched_versions", patched); err != nil {
		return Advisory{}, err
	}

	unaffected, err := r.stringList("unaffected_versions", false)
	if err != nil {
		return Advisory{}, err
	}
	if adv.UnaffectedVersions, err = parseConstraints("unaffected_versions", unaffected); err != nil {
		return Advisory{}, err
	}

	adv.Related = r.relatedURLs()
	return adv, nil
}

func parseConstraints(field string, values []string) ([]version.Constraints, error) {
	groups := make([]version.Constraints, 0, len(values))
	for _, v := range values {
		cs, err := version.ParseConstraints(v)
		if err != nil {
			return nil, &InvalidAdvisoryError{Field: field, Reason: "invalid requirement", Err: err}
		}
		groups = append(groups, cs)
	}
	return groups, nil
}

// Patched reports whether v satisfies any of the patched requirements.
func (a Advisory) Patched(v version.Version) bool {
	return version.AnySatisfied(a.PatchedVersions, v)
}

// Unaffected reports whether v satisfies any of the unaffected requirements.
func (a Advisory) Unaffected(v version.Version) bool {
	return version.AnySatisfied(a.UnaffectedVersions, v)
}

// Vulnerable reports whether v is neither patched nor unaffected.
func (a Advisory) Vulnerable(v version.Version) bool {
	return !a.Patched(v) && !a.Unaffected(v)
}

// Identifiers returns every name the advisory is known by, so that either
// naming scheme can be used in an ignore list.
func (a Advisory) Identifiers() []string {
	ids := []string{
		prefixed("CVE-", a.CVE),
		prefixed("OSVDB-", a.OSVDB),
		prefixed("GHSA-", a.GHSA),
		a.ID,
	}
	return lo.Uniq(lo.Compact(ids))
}

func prefixed(prefix, id string) string {
	if id == "" || strings.HasPrefix(strings.ToUpper(id), prefix) {
		return id
	}
	return prefix + id
}

// Criticality buckets the CVSSv2 score. A score on a shared boundary belongs
// to the lower bucket: 3.3 is low and 6.6 is medium.
func (a Advisory) Criticality() types.Criticality {
	if a.CVSSv2 == nil {
		return types.CriticalityUnknown
	}
	switch score := *a.CVSSv2; {
	case score < 0 || score > 10:
		return types.CriticalityUnknown
	case score <= 3.3:
		return types.CriticalityLow
	case score <= 6.6:
		return types.CriticalityMedium
	default:
		return types.CriticalityHigh
	}
}

// String returns the preferred identifier: the CVE when known, else the GHSA
// or OSVDB name, else the file-derived ID.
func (a Advisory) String() string {
	for _, id := range []string{prefixed("CVE-", a.CVE), prefixed("GHSA-", a.GHSA), prefixed("OSVDB-", a.OSVDB)} {
		if id != "" {
			return id
		}
	}
	return a.ID
}
