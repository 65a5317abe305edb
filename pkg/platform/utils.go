// pkg/platform/utils.go
package platform

import (
	"os/exec"
)

// lookPath resolves cmd on PATH
func lookPath(cmd string) (string, bool) {
	path, err := exec.LookPath(cmd)
	if err != nil {
		return "", false
	}
	return path, true
}
