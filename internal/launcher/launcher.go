// Package launcher starts games through the Steam client.
package launcher

import (
	"errors"
	"fmt"
	"os/exec"

	"github.com/kamusis/steamlaunch/internal/config"
)

// LaunchFlag is the client flag that starts an installed app by id.
const LaunchFlag = "-applaunch"

// ErrExecutableNotFound means the Steam directory holds no client executable.
var ErrExecutableNotFound = errors.New("steam executable not found")

// Command builds the client invocation for id without starting it.
func Command(steamDir, id string) (*exec.Cmd, error) {
	exe, ok := config.FindSteamExecutable(steamDir)
	if !ok {
		return nil, fmt.Errorf("%w in %s", ErrExecutableNotFound, steamDir)
	}
	c := exec.Command(exe, LaunchFlag, id)
	detach(c)
	return c, nil
}

// Launch starts the game and returns without waiting; no output is captured.
func Launch(steamDir, id string) error {
	c, err := Command(steamDir, id)
	if err != nil {
		return err
	}
	if err := c.Start(); err != nil {
		return fmt.Errorf("cannot start %s: %w", c.Path, err)
	}
	// Reap in the background so the child never lingers as a zombie while we run.
	go func() { _ = c.Wait() }()
	return nil
}
