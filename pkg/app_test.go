package pkg_test

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"
	"golang.org/x/xerrors"
	fake "k8s.io/utils/clock/testing"

	"github.com/aquasecurity/gem-audit/pkg"
	"github.com/aquasecurity/gem-audit/pkg/db"
	"github.com/aquasecurity/gem-audit/pkg/git"
)

func init() {
	color.NoColor = true
}

type resolver map[string][]string

func (r resolver) LookupHost(_ context.Context, host string) ([]string, error) {
	addrs, ok := r[host]
	if !ok {
		return nil, xerrors.Errorf("lookup %s: no such host", host)
	}
	return addrs, nil
}

var now = time.Date(2023, 7, 1, 0, 0, 0, 0, time.UTC)

type result struct {
	stdout   string
	exitCode int
	err      error
}

func run(t *testing.T, ac pkg.AppConfig, args ...string) result {
	t.Helper()

	var exitCode int
	exiter, errWriter := cli.OsExiter, cli.ErrWriter
	cli.OsExiter = func(code int) { exitCode = code }
	cli.ErrWriter = &bytes.Buffer{}
	t.Cleanup(func() {
		cli.OsExiter, cli.ErrWriter = exiter, errWriter
	})

	var stdout bytes.Buffer
	ac.Stdout = &stdout
	if ac.Resolver == nil {
		ac.Resolver = resolver{"github.com": {"140.82.112.3"}, "rubygems.org": {"151.101.1.227"}}
	}
	if ac.Clock == nil {
		ac.Clock = fake.NewFakeClock(now)
	}

	err := ac.NewApp("dev").Run(append([]string{"gem-audit"}, args...))
	// findings are reported through the exit code alone
	var exitErr cli.ExitCoder
	if xerrors.As(err, &exitErr) && exitErr.Error() == "" {
		err = nil
	}
	return result{stdout: stdout.String(), exitCode: exitCode, err: err}
}

// noDatabase points both default database locations somewhere empty.
func noDatabase(t *testing.T) []string {
	dir := t.TempDir()
	return []string{
		"--db-path", filepath.Join(dir, "user"),
		"--vendored-db-path", filepath.Join(dir, "vendored"),
	}
}

func TestCheck(t *testing.T) {
	tests := []struct {
		name         string
		args         []string
		wantExitCode int
		wantContains []string
		wantMissing  []string
	}{
		{
			name:         "vulnerable",
			args:         []string{"check", "--database", "testdata/db", "testdata/vulnerable"},
			wantExitCode: 1,
			wantContains: []string{
				"Insecure Source URI found: git://github.com/rails/jquery-rails.git\n",
				"Name: actionpack\nVersion: 3.2.10\nAdvisory: CVE-2013-0156\nCriticality: High\n",
				"Advisory: CVE-2016-0752\n",
				"Solution: upgrade to '~> 2.3.15', '>= 3.2.11'\n",
				"Vulnerabilities found!\n",
			},
		},
		{
			name: "clean",
			args: []string{"check", "--database", "testdata/db", "testdata/clean"},
			wantContains: []string{
				"No vulnerabilities found\n",
			},
			wantMissing: []string{"Name:"},
		},
		{
			name: "ignored on the command line",
			args: []string{
				"check", "--database", "testdata/db",
				"--ignore", "cve-2013-0156", "--ignore", "OSVDB-89026",
				"--ignore", "CVE-2016-0752",
				"--gemfile-lock", "Gemfile.lock", "testdata/vulnerable",
			},
			wantExitCode: 1,
			wantContains: []string{"Insecure Source URI found", "Vulnerabilities found!"},
			wantMissing:  []string{"Name: actionpack"},
		},
		{
			name:         "ignored by the configuration file",
			args:         []string{"check", "--database", "testdata/db", "testdata/ignored"},
			wantContains: []string{"No vulnerabilities found\n"},
		},
		{
			name:        "quiet",
			args:        []string{"--quiet", "check", "--database", "testdata/db", "testdata/clean"},
			wantMissing: []string{"No vulnerabilities found"},
		},
		{
			name:         "verbose",
			args:         []string{"check", "--verbose", "--database", "testdata/db", "testdata/vulnerable"},
			wantExitCode: 1,
			wantContains: []string{"Description:\n\n  Ruby on Rails contains a flaw in params_parser.rb of the Action Pack.\n"},
			wantMissing:  []string{"Title:"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, pkg.AppConfig{}, tt.args...)
			require.NoError(t, got.err)
			assert.Equal(t, tt.wantExitCode, got.exitCode)
			for _, s := range tt.wantContains {
				assert.Contains(t, got.stdout, s)
			}
			for _, s := range tt.wantMissing {
				assert.NotContains(t, got.stdout, s)
			}
		})
	}
}

func TestCheck_IgnoreExpired(t *testing.T) {
	ac := pkg.AppConfig{Clock: fake.NewFakeClock(time.Date(2101, 1, 1, 0, 0, 0, 0, time.UTC))}
	got := run(t, ac, "check", "--database", "testdata/db", "testdata/ignored")
	require.NoError(t, got.err)
	assert.Equal(t, 1, got.exitCode)
	assert.Contains(t, got.stdout, "Name: actionpack\nVersion: 3.2.22\nAdvisory: CVE-2016-0752\n")
}

func TestCheck_JSON(t *testing.T) {
	got := run(t, pkg.AppConfig{}, "check", "--format", "json", "--database", "testdata/db", "testdata/vulnerable")
	require.NoError(t, got.err)
	assert.Equal(t, 1, got.exitCode)

	var doc struct {
		Version   string    `json:"version"`
		CreatedAt time.Time `json:"created_at"`
		Results   []struct {
			Type   string `json:"type"`
			Source string `json:"source"`
			Gem    struct {
				Name string `json:"name"`
				PURL string `json:"purl"`
			} `json:"gem"`
			Advisory struct {
				ID string `json:"id"`
			} `json:"advisory"`
		} `json:"results"`
	}
	require.NoError(t, json.Unmarshal([]byte(got.stdout), &doc))
	assert.Equal(t, "dev", doc.Version)
	assert.True(t, now.Equal(doc.CreatedAt))
	require.Len(t, doc.Results, 3)
	assert.Equal(t, "insecure_source", doc.Results[0].Type)
	assert.Equal(t, "git://github.com/rails/jquery-rails.git", doc.Results[0].Source)
	assert.Equal(t, "unpatched_gem", doc.Results[1].Type)
	assert.Equal(t, "pkg:gem/actionpack@3.2.10", doc.Results[1].Gem.PURL)
	assert.ElementsMatch(t, []string{"CVE-2016-0752", "OSVDB-89026"},
		[]string{doc.Results[1].Advisory.ID, doc.Results[2].Advisory.ID})
}

func TestCheck_OutputFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "report.txt")
	got := run(t, pkg.AppConfig{}, "check", "--output", out, "--database", "testdata/db", "testdata/clean")
	require.NoError(t, got.err)
	assert.Empty(t, got.stdout)

	b, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "No vulnerabilities found\n", string(b))
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name    string
		args    func(t *testing.T) []string
		wantErr string
	}{
		{
			name: "no lockfile",
			args: func(t *testing.T) []string {
				return []string{"check", "--database", "testdata/db", t.TempDir()}
			},
			wantErr: "lockfile not found",
		},
		{
			name: "no database",
			args: func(t *testing.T) []string {
				return append(append([]string{"check"}, noDatabase(t)...), "testdata/clean")
			},
			wantErr: "ruby-advisory-db not found, run `gem-audit update` first",
		},
		{
			name: "unknown format",
			args: func(t *testing.T) []string {
				return []string{"check", "--format", "xml", "--database", "testdata/db", "testdata/clean"}
			},
			wantErr: "unknown format",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := run(t, pkg.AppConfig{}, tt.args(t)...)
			require.Error(t, got.err)
			assert.Contains(t, got.err.Error(), tt.wantErr)
		})
	}
}

// checkout creates a fake ruby-advisory-db checkout holding the fixture advisories.
func checkout(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "ruby-advisory-db")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o700))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gems", "actionpack"), 0o700))
	for _, name := range []string{"OSVDB-89026.yml", "CVE-2016-0752.yml"} {
		b, err := os.ReadFile(filepath.Join("testdata", "db", "gems", "actionpack", name))
		require.NoError(t, err)
		require.NoError(t, os.WriteFile(filepath.Join(dir, "gems", "actionpack", name), b, 0o600))
	}
	return dir
}

func TestUpdate(t *testing.T) {
	tests := []struct {
		name         string
		wantStdout   string
		wantErr      string
		expectations func(dir string) []git.RunExpectation
	}{
		{
			name: "happy path",
			wantStdout: "Updating ruby-advisory-db ...\n" +
				"Updated ruby-advisory-db\n" +
				"ruby-advisory-db:\n" +
				"  path:\t%s\n" +
				"  advisories:\t2 advisories\n" +
				"  gems:\t1 gems\n" +
				"  last updated:\t2023-06-20T08:00:00Z\n" +
				"  commit:\t0123456789abcdef0123456789abcdef01234567\n",
			expectations: func(dir string) []git.RunExpectation {
				return []git.RunExpectation{
					{
						Args:    git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"pull", "--ff-only", "--quiet", "origin"}},
						Returns: git.RunReturns{},
					},
					{
						Args:    git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"log", "-1", "--format=%cI"}},
						Returns: git.RunReturns{Output: []byte("2023-06-20T10:00:00+02:00\n")},
					},
					{
						Args:    git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"rev-parse", "HEAD"}},
						Returns: git.RunReturns{Output: []byte("0123456789abcdef0123456789abcdef01234567\n")},
					},
				}
			},
		},
		{
			name:    "pull fails",
			wantErr: "Failed updating ruby-advisory-db!",
			expectations: func(dir string) []git.RunExpectation {
				return []git.RunExpectation{
					{
						Args:    git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"pull", "--ff-only", "--quiet", "origin"}},
						Returns: git.RunReturns{Err: xerrors.New("fatal: not possible to fast-forward")},
					},
				}
			},
		},
		{
			name:    "git is missing",
			wantErr: "git must be installed",
			expectations: func(dir string) []git.RunExpectation {
				return []git.RunExpectation{
					{
						Args:    git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"pull", "--ff-only", "--quiet", "origin"}},
						Returns: git.RunReturns{Err: git.ErrToolMissing},
					},
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := checkout(t)
			runner := new(git.MockRunner)
			runner.ApplyRunExpectations(tt.expectations(dir))

			got := run(t, pkg.AppConfig{Git: runner}, "update",
				"--db-path", dir, "--vendored-db-path", filepath.Join(t.TempDir(), "missing"))
			runner.AssertExpectations(t)
			if tt.wantErr != "" {
				require.Error(t, got.err)
				assert.Contains(t, got.err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, got.err)
			assert.Equal(t, fmtPath(tt.wantStdout, dir), got.stdout)
		})
	}
}

func TestUpdate_Quiet(t *testing.T) {
	dir := checkout(t)
	runner := new(git.MockRunner)
	runner.ApplyRunExpectation(git.RunExpectation{
		Args: git.RunArgs{CtxAnything: true, Dir: dir, Args: []string{"pull", "--ff-only", "--quiet", "origin"}},
	})

	got := run(t, pkg.AppConfig{Git: runner}, "--quiet", "update",
		"--db-path", dir, "--vendored-db-path", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, got.err)
	assert.Empty(t, got.stdout)
	runner.AssertExpectations(t)
}

func TestUpdate_Skipped(t *testing.T) {
	dir := t.TempDir()
	runner := new(git.MockRunner)

	got := run(t, pkg.AppConfig{Git: runner}, "--quiet", "update",
		"--db-path", dir, "--vendored-db-path", filepath.Join(t.TempDir(), "missing"))
	require.NoError(t, got.err)
	runner.AssertNotCalled(t, "Run")
}

func TestStats(t *testing.T) {
	got := run(t, pkg.AppConfig{}, "stats", "--database", "testdata/db")
	require.NoError(t, got.err)
	assert.Equal(t, "ruby-advisory-db:\n"+
		"  path:\ttestdata/db\n"+
		"  advisories:\t2 advisories\n"+
		"  gems:\t1 gems\n"+
		"  last updated:\t2023-06-14T09:30:00Z\n"+
		"  commit:\t0123456789abcdef0123456789abcdef01234567\n", got.stdout)
}

func TestStats_NoDatabase(t *testing.T) {
	got := run(t, pkg.AppConfig{}, append([]string{"stats"}, noDatabase(t)...)...)
	require.Error(t, got.err)
	assert.Contains(t, got.err.Error(), "advisory database not found")
}

func TestExport(t *testing.T) {
	outDir := t.TempDir()
	got := run(t, pkg.AppConfig{}, "export", "--output-dir", outDir, "--database", "testdata/db")
	require.NoError(t, got.err)
	assert.Equal(t, "Exported 2 advisories to "+db.Path(outDir)+"\n", got.stdout)

	require.NoError(t, db.Init(outDir))
	t.Cleanup(func() { _ = db.Close() })
	dbc := db.Config{}

	advs, err := dbc.GetAdvisories("actionpack")
	require.NoError(t, err)
	require.Len(t, advs, 2)
	assert.Equal(t, "CVE-2016-0752", advs[0].ID)
	assert.Equal(t, "OSVDB-89026", advs[1].ID)

	meta, err := db.GetMetadata()
	require.NoError(t, err)
	assert.Equal(t, "0123456789abcdef0123456789abcdef01234567", meta.Commit)
	assert.True(t, time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC).Equal(meta.UpdatedAt))
	assert.True(t, now.Equal(meta.ExportedAt))
	assert.Equal(t, 2, meta.Advisories)
}

func TestVendor(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "vendored")
	got := run(t, pkg.AppConfig{}, "vendor", "--database", "testdata/db", dst)
	require.NoError(t, got.err)
	assert.Equal(t, "Vendored 2 advisories to "+dst+"\n", got.stdout)

	// the snapshot is picked up when no user copy exists
	got = run(t, pkg.AppConfig{}, "stats",
		"--db-path", filepath.Join(t.TempDir(), "missing"), "--vendored-db-path", dst)
	require.NoError(t, got.err)
	assert.Contains(t, got.stdout, "  path:\t"+dst+"\n")
	assert.Contains(t, got.stdout, "  last updated:\t2023-06-14T09:30:00Z\n")
	assert.Contains(t, got.stdout, "  commit:\t0123456789abcdef0123456789abcdef01234567\n")
}

func fmtPath(format, path string) string {
	return strings.Replace(format, "%s", path, 1)
}
