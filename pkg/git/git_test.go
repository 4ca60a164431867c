package git_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"

	"github.com/aquasecurity/gem-audit/pkg/git"
)

func TestClient_Clone(t *testing.T) {
	tests := []struct {
		name    string
		runErr  error
		wantErr string
	}{
		{
			name: "happy path",
		},
		{
			name:    "remote unreachable",
			runErr:  xerrors.New("fatal: unable to access"),
			wantErr: "clone error",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(git.MockRunner)
			runner.ApplyRunExpectation(git.RunExpectation{
				Args: git.RunArgs{
					CtxAnything: true,
					Dir:         "",
					Args:        []string{"clone", "--quiet", "https://example.com/advisories.git", "/tmp/advisories"},
				},
				Returns: git.RunReturns{Err: tt.runErr},
			})

			err := git.NewClient(runner).Clone(context.Background(), "https://example.com/advisories.git", "/tmp/advisories")
			runner.AssertExpectations(t)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestClient_Pull(t *testing.T) {
	runner := new(git.MockRunner)
	runner.ApplyRunExpectation(git.RunExpectation{
		Args: git.RunArgs{
			CtxAnything: true,
			Dir:         "/tmp/advisories",
			Args:        []string{"pull", "--ff-only", "--quiet", "origin"},
		},
		Returns: git.RunReturns{Err: git.ErrToolMissing},
	})

	err := git.NewClient(runner).Pull(context.Background(), "/tmp/advisories")
	assert.ErrorIs(t, err, git.ErrToolMissing)
	runner.AssertExpectations(t)
}

func TestClient_LastCommitTime(t *testing.T) {
	tests := []struct {
		name    string
		output  string
		want    time.Time
		wantErr string
	}{
		{
			name:   "utc",
			output: "2023-06-14T09:30:00Z\n",
			want:   time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			name:   "offset",
			output: "2023-06-14T11:30:00+02:00\n",
			want:   time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC),
		},
		{
			name:    "empty repository",
			output:  "",
			wantErr: "unexpected commit date",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := new(git.MockRunner)
			runner.ApplyRunExpectation(git.RunExpectation{
				Args: git.RunArgs{
					CtxAnything: true,
					Dir:         "/tmp/advisories",
					Args:        []string{"log", "-1", "--format=%cI"},
				},
				Returns: git.RunReturns{Output: []byte(tt.output)},
			})

			got, err := git.NewClient(runner).LastCommitTime(context.Background(), "/tmp/advisories")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestExecRunner_ToolMissing(t *testing.T) {
	_, err := git.ExecRunner{Binary: "git-binary-that-does-not-exist"}.Run(context.Background(), t.TempDir(), "status")
	assert.ErrorIs(t, err, git.ErrToolMissing)
}

func TestExecRunner(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git is not installed")
	}
	t.Setenv("GIT_AUTHOR_NAME", "test")
	t.Setenv("GIT_AUTHOR_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_NAME", "test")
	t.Setenv("GIT_COMMITTER_EMAIL", "test@example.com")
	t.Setenv("GIT_COMMITTER_DATE", "2023-06-14T09:30:00Z")
	t.Setenv("GIT_CONFIG_NOSYSTEM", "1")
	t.Setenv("HOME", t.TempDir())

	ctx := context.Background()
	runner := git.ExecRunner{}
	upstream := t.TempDir()
	_, err := runner.Run(ctx, upstream, "init", "--quiet")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(upstream, "README.md"), []byte("advisories"), 0o644))
	_, err = runner.Run(ctx, upstream, "add", "README.md")
	require.NoError(t, err)
	_, err = runner.Run(ctx, upstream, "commit", "--quiet", "-m", "initial")
	require.NoError(t, err)

	client := git.NewClient(runner)
	checkout := filepath.Join(t.TempDir(), "checkout")
	require.NoError(t, client.Clone(ctx, upstream, checkout))
	assert.True(t, git.IsRepository(checkout))
	assert.False(t, git.IsRepository(filepath.Dir(checkout)))

	got, err := client.LastCommitTime(ctx, checkout)
	require.NoError(t, err)
	assert.True(t, time.Date(2023, 6, 14, 9, 30, 0, 0, time.UTC).Equal(got))

	head, err := client.HeadCommit(ctx, checkout)
	require.NoError(t, err)
	assert.Len(t, head, 40)

	require.NoError(t, client.Pull(ctx, checkout))

	_, err = runner.Run(ctx, checkout, "no-such-subcommand")
	require.Error(t, err)
	assert.NotErrorIs(t, err, git.ErrToolMissing)
}
