//go:build !unix

package runner

import "os/exec"

// runInProcessGroup keeps the default behavior of killing only the
// simulator process.
func runInProcessGroup(*exec.Cmd) {}
