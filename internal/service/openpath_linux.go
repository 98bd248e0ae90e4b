//go:build linux

package service

import "os/exec"

func openPath(path string) error {
	return exec.Command("xdg-open", path).Start()
}
