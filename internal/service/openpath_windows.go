//go:build windows

package service

import "os/exec"

func openPath(path string) error {
	return exec.Command("explorer", path).Start()
}
