//go:build darwin

package service

import "os/exec"

func openPath(path string) error {
	return exec.Command("open", path).Start()
}
