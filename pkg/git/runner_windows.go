//go:build windows

package git

import "os/exec"

func setProcessGroup(_ *exec.Cmd) {}
