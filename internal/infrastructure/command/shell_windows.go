//go:build windows

package command

import (
	"os/exec"
	"strconv"
)

// configureProcessGroup makes a timeout kill cmd.exe together with every
// process it started. cmd.exe does not forward termination to children.
func configureProcessGroup(cmd *exec.Cmd) {
	cmd.Cancel = func() error {
		if cmd.Process == nil {
			return nil
		}
		tree := exec.Command("taskkill", "/T", "/F", "/PID", strconv.Itoa(cmd.Process.Pid))
		if err := tree.Run(); err != nil {
			return cmd.Process.Kill()
		}
		return nil
	}
}
