//go:build !windows

package git

import (
	"os/exec"
	"syscall"
)

// setProcessGroup starts git in its own process group and kills the whole
// group on cancellation, so helpers such as git-remote-https die with it.
func setProcessGroup(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}
}
