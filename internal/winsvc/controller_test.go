package winsvc

import (
	"errors"
	"strings"
	"testing"
	"time"
)

// scriptedSc replaces the sc invocation with canned responses keyed by the
// first argument (the sc subcommand).
type scriptedSc struct {
	responses map[string]string
	errs      map[string]error
	calls     [][]string
}

func (s *scriptedSc) run(args ...string) (string, error) {
	s.calls = append(s.calls, args)
	if err := s.errs[args[0]]; err != nil {
		return "", err
	}
	return s.responses[args[0]], nil
}

func newScriptedController(s *scriptedSc) *ScController {
	return &ScController{
		StopTimeout: 2 * time.Second,
		run:         s.run,
	}
}

func TestScQueryStartMode(t *testing.T) {
	s := &scriptedSc{responses: map[string]string{
		"qc": "SERVICE_NAME: wuauserv\n        START_TYPE         : 2   AUTO_START  (DELAYED)\n",
	}}

	mode, err := newScriptedController(s).QueryStartMode("wuauserv")
	if err != nil {
		t.Fatalf("QueryStartMode failed: %v", err)
	}
	if mode != ModeAutomaticDelayed {
		t.Errorf("mode = %s, want automatic-delayed", mode)
	}
	if len(s.calls) != 1 || s.calls[0][1] != "wuauserv" {
		t.Errorf("unexpected sc invocation: %v", s.calls)
	}
}

func TestScSetStartModeArgumentShape(t *testing.T) {
	s := &scriptedSc{responses: map[string]string{"config": "[SC] ChangeServiceConfig SUCCESS"}}

	if err := newScriptedController(s).SetStartMode("bits", ModeManual); err != nil {
		t.Fatalf("SetStartMode failed: %v", err)
	}

	// sc wants: config <name> start= <value>
	got := strings.Join(s.calls[0], " ")
	if got != "config bits start= demand" {
		t.Errorf("sc invocation = %q, want %q", got, "config bits start= demand")
	}
}

func TestScSetStartModeRefusesUnknown(t *testing.T) {
	s := &scriptedSc{}
	err := newScriptedController(s).SetStartMode("bits", ModeUnknown)
	if !errors.Is(err, ErrUnknownMode) {
		t.Errorf("error = %v, want ErrUnknownMode", err)
	}
	if len(s.calls) != 0 {
		t.Error("sc must not be invoked for an unknown mode")
	}
}

func TestScStopWaitsForStoppedState(t *testing.T) {
	s := &scriptedSc{responses: map[string]string{
		"stop":  "        STATE              : 3  STOP_PENDING\n",
		"query": "        STATE              : 1  STOPPED\n",
	}}

	if err := newScriptedController(s).Stop("wuauserv"); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}

	var sawQuery bool
	for _, call := range s.calls {
		if call[0] == "query" {
			sawQuery = true
		}
	}
	if !sawQuery {
		t.Error("Stop should poll sc query for the stopped state")
	}
}

func TestScStopAlreadyStoppedIsNotAnError(t *testing.T) {
	s := &scriptedSc{errs: map[string]error{
		"stop": errors.New("sc stop wuauserv failed: exit status 1062 (output: [SC] ControlService FAILED 1062)"),
	}}

	if err := newScriptedController(s).Stop("wuauserv"); err != nil {
		t.Errorf("Stop on an already-stopped service should succeed, got: %v", err)
	}
}

func TestScStartAlreadyRunningIsNotAnError(t *testing.T) {
	s := &scriptedSc{errs: map[string]error{
		"start": errors.New("sc start bits failed: exit status 1056 (output: [SC] StartService FAILED 1056)"),
	}}

	if err := newScriptedController(s).Start("bits"); err != nil {
		t.Errorf("Start on a running service should succeed, got: %v", err)
	}
}

func TestScStartSurfacesOtherFailures(t *testing.T) {
	s := &scriptedSc{errs: map[string]error{
		"start": errors.New("sc start bits failed: exit status 1058"),
	}}

	if err := newScriptedController(s).Start("bits"); err == nil {
		t.Error("Start should surface non-1056 failures")
	}
}
