//go:build windows

package supervisor

import "os/exec"

// configureProcAttr is a no-op on Windows.
func configureProcAttr(_ *exec.Cmd) {}

// terminateProcess kills the child outright. Windows offers no graceful
// equivalent of SIGTERM for console-less children.
func terminateProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}

// killProcess kills the child.
func killProcess(cmd *exec.Cmd) error {
	return cmd.Process.Kill()
}
