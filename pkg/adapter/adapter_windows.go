//go:build windows

package adapter

import (
	"os/exec"
	"syscall"
)

func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{}
}

// Windows has no SIGTERM equivalent for console-less children; go straight
// to Kill and let Stop's wait pick up the exit.
func terminate(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

func kill(cmd *exec.Cmd) {
	cmd.Process.Kill()
}
