package git

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"golang.org/x/xerrors"
)

var ErrToolMissing = xerrors.New("git is not installed or not in PATH")

// Runner runs a git subcommand in dir and returns its combined output.
type Runner interface {
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// ExecRunner runs the git executable as a subprocess.
type ExecRunner struct {
	// Binary defaults to "git" looked up in PATH.
	Binary string
}

func (r ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	bin := r.Binary
	if bin == "" {
		bin = "git"
	}
	path, err := exec.LookPath(bin)
	if err != nil {
		return nil, xerrors.Errorf("%s: %w", bin, ErrToolMissing)
	}

	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	cmd.Stdout = &out
	cmd.Stderr = &out
	cmd.WaitDelay = 5 * time.Second
	setProcessGroup(cmd)

	err = cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return out.Bytes(), xerrors.Errorf("git %s: %w", subcommand(args), ctxErr)
	}
	if err != nil {
		return out.Bytes(), xerrors.Errorf("git %s failed (%s): %w", subcommand(args), strings.TrimSpace(out.String()), err)
	}
	return out.Bytes(), nil
}

func subcommand(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
