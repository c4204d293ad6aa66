//go:build windows

package main

import (
	"os/exec"
)

func configureDaemonProc(cmd *exec.Cmd) {
	// Windows has no Setsid; a plainly started process is detached enough here.
}
