//go:build linux || darwin || freebsd

package adapter

import (
	"os/exec"
	"syscall"

	sys "golang.org/x/sys/unix"
)

// sysProcAttr puts OpenOCD in its own process group so stray SIGINTs
// aimed at the server do not take the adapter down with it, and so Stop
// can signal the whole group.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

func terminate(cmd *exec.Cmd) error {
	return sys.Kill(-cmd.Process.Pid, sys.SIGTERM)
}

func kill(cmd *exec.Cmd) {
	sys.Kill(-cmd.Process.Pid, sys.SIGKILL)
}
