// Package winsvc manages the startup state of the update subsystem's
// services: snapshotting each service's configured startup mode, forcing the
// set to disabled-and-stopped for the duration of the remediation, and
// restoring the recorded configuration afterwards.
package winsvc

import (
	"errors"
	"fmt"
	"strings"
)

// StartupMode is the configured launch policy of a service.
type StartupMode string

const (
	ModeAutomatic        StartupMode = "automatic"
	ModeAutomaticDelayed StartupMode = "automatic-delayed"
	ModeManual           StartupMode = "manual"
	ModeDisabled         StartupMode = "disabled"
	// ModeUnknown records a service whose configuration could not be read.
	// It is never a settable value.
	ModeUnknown StartupMode = "unknown"
)

// ErrUnknownMode is returned when a caller tries to apply ModeUnknown.
var ErrUnknownMode = errors.New("unknown startup mode is not settable")

// ControlValue translates a mode into the value the service control utility
// accepts for its start= parameter.
func (m StartupMode) ControlValue() (string, error) {
	switch m {
	case ModeAutomatic:
		return "auto", nil
	case ModeAutomaticDelayed:
		return "delayed-auto", nil
	case ModeManual:
		return "demand", nil
	case ModeDisabled:
		return "disabled", nil
	case ModeUnknown:
		return "", ErrUnknownMode
	}
	return "", fmt.Errorf("unrecognized startup mode %q", string(m))
}

// parseStartType extracts the startup mode from `sc qc` output. The relevant
// line looks like:
//
//	START_TYPE         : 2   AUTO_START  (DELAYED)
//
// Unrecognized or missing START_TYPE lines yield ModeUnknown.
func parseStartType(output string) StartupMode {
	for _, line := range strings.Split(output, "\n") {
		if !strings.Contains(line, "START_TYPE") {
			continue
		}
		switch {
		case strings.Contains(line, "AUTO_START") && strings.Contains(line, "DELAYED"):
			return ModeAutomaticDelayed
		case strings.Contains(line, "AUTO_START"):
			return ModeAutomatic
		case strings.Contains(line, "DEMAND_START"):
			return ModeManual
		case strings.Contains(line, "DISABLED"):
			return ModeDisabled
		}
		return ModeUnknown
	}
	return ModeUnknown
}
