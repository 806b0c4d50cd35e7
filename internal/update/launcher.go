package update

import (
	"os/exec"
)

// ExecLauncher starts the relaunch target with os/exec. The child gets no
// arguments and inherits the environment unchanged.
type ExecLauncher struct{}

// Start spawns path with dir as its working directory and does not wait for it.
func (ExecLauncher) Start(path, dir string) error {
	cmd := exec.Command(path)
	cmd.Dir = dir
	if err := cmd.Start(); err != nil {
		return err
	}
	return cmd.Process.Release()
}
