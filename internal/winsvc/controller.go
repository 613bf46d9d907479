package winsvc

import (
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Controller is the boundary to the host's service control manager. The
// production implementation shells out to the sc utility; tests substitute a
// fake.
type Controller interface {
	// QueryStartMode returns the configured startup mode of the named service.
	QueryStartMode(name string) (StartupMode, error)
	// SetStartMode reconfigures the named service's startup mode.
	SetStartMode(name string, mode StartupMode) error
	// Stop stops the named service, waiting up to its timeout for the stop
	// to take effect.
	Stop(name string) error
	// Start starts the named service.
	Start(name string) error
}

// ScController drives services through the sc command-line utility.
type ScController struct {
	// StopTimeout bounds how long Stop waits for a service to reach the
	// stopped state after the stop request is accepted.
	StopTimeout time.Duration

	// run is swappable for tests.
	run func(args ...string) (string, error)
}

// NewScController returns a Controller backed by the sc utility with a
// 30-second stop timeout.
func NewScController() *ScController {
	return &ScController{
		StopTimeout: 30 * time.Second,
		run:         runSc,
	}
}

func runSc(args ...string) (string, error) {
	cmd := exec.Command("sc", args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("sc %s failed: %w (output: %s)", strings.Join(args, " "), err, strings.TrimSpace(string(output)))
	}
	return string(output), nil
}

// QueryStartMode reads the service's configured start type via `sc qc`.
func (c *ScController) QueryStartMode(name string) (StartupMode, error) {
	output, err := c.run("qc", name)
	if err != nil {
		return ModeUnknown, fmt.Errorf("failed to query service %s: %w", name, err)
	}
	return parseStartType(output), nil
}

// SetStartMode reconfigures the service's start type via `sc config`.
func (c *ScController) SetStartMode(name string, mode StartupMode) error {
	value, err := mode.ControlValue()
	if err != nil {
		return fmt.Errorf("cannot set startup mode for %s: %w", name, err)
	}
	// sc's parser wants the equals sign attached to the key and the value as
	// a separate argument: `sc config <name> start= <value>`.
	if _, err := c.run("config", name, "start=", value); err != nil {
		return fmt.Errorf("failed to set startup mode for %s: %w", name, err)
	}
	return nil
}

// Stop requests a stop and polls `sc query` until the service reports
// STOPPED or the timeout elapses. A service that is already stopped is not
// an error.
func (c *ScController) Stop(name string) error {
	if _, err := c.run("stop", name); err != nil {
		// Exit code 1062: the service has not been started.
		if strings.Contains(err.Error(), "1062") {
			return nil
		}
		return fmt.Errorf("failed to stop service %s: %w", name, err)
	}

	deadline := time.Now().Add(c.StopTimeout)
	for time.Now().Before(deadline) {
		output, err := c.run("query", name)
		if err != nil {
			return fmt.Errorf("failed to query state of service %s: %w", name, err)
		}
		if strings.Contains(output, "STOPPED") {
			return nil
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("service %s did not stop within %s", name, c.StopTimeout)
}

// Start starts the service via `sc start`. A service that is already running
// is not an error.
func (c *ScController) Start(name string) error {
	if _, err := c.run("start", name); err != nil {
		// Exit code 1056: an instance of the service is already running.
		if strings.Contains(err.Error(), "1056") {
			return nil
		}
		return fmt.Errorf("failed to start service %s: %w", name, err)
	}
	return nil
}
