package debugger

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// stubBridge answers MI commands from a table and serves queued stop
// events.
type stubBridge struct {
	commands []string
	respond  func(cmd string) (*mi.Result, error)
	stops    []*mi.StopEvent
}

func (s *stubBridge) Command(text string, timeout time.Duration) (*mi.Result, error) {
	s.commands = append(s.commands, text)
	return s.respond(text)
}

func (s *stubBridge) Monitor(command string, timeout time.Duration) (*mi.Result, error) {
	return s.Command("monitor "+command, timeout)
}

func (s *stubBridge) DrainEvents() []mi.Record { return nil }

func (s *stubBridge) WaitForStop(timeout time.Duration) *mi.StopEvent {
	if len(s.stops) == 0 {
		return nil
	}
	stop := s.stops[0]
	s.stops = s.stops[1:]
	return stop
}

type stubControl struct {
	calls []string
	err   error
}

func (s *stubControl) ControlCommand(command string, timeout time.Duration) (string, error) {
	s.calls = append(s.calls, command)
	if s.err != nil {
		return "", s.err
	}
	return "", nil
}

func doneResult() *mi.Result { return &mi.Result{Message: "done"} }

func timeoutResponder(cmd string) (*mi.Result, error) {
	return nil, &mi.TimeoutError{Cmd: cmd, Timeout: time.Second}
}

func TestHaltThroughDebugger(t *testing.T) {
	stop := &mi.StopEvent{Reason: mi.ReasonSignalReceived, Frame: &mi.Frame{Func: "main"}}
	bridge := &stubBridge{
		respond: func(cmd string) (*mi.Result, error) {
			return &mi.Result{Message: "done", Events: []mi.Record{{
				Type:    mi.RecordNotify,
				Message: "stopped",
				Payload: map[string]interface{}{"reason": "signal-received", "frame": map[string]interface{}{"func": "main"}},
			}}}, nil
		},
	}
	ctl := &stubControl{}

	outcome, err := haltTarget(bridge, ctl)
	if err != nil {
		t.Fatalf("haltTarget: %v", err)
	}
	if outcome.State != api.StateHalted || outcome.Method != "" {
		t.Errorf("outcome = %s via %q, want halted via debugger", outcome.State, outcome.Method)
	}
	if outcome.Stop == nil || outcome.Stop.Reason != stop.Reason {
		t.Errorf("stop = %+v", outcome.Stop)
	}
	if len(ctl.calls) != 0 {
		t.Errorf("control socket used on the happy path: %v", ctl.calls)
	}
}

func TestHaltFallbackWithStopEvent(t *testing.T) {
	bridge := &stubBridge{
		respond: timeoutResponder,
		stops:   []*mi.StopEvent{{Reason: mi.ReasonSignalReceived}},
	}
	ctl := &stubControl{}

	outcome, err := haltTarget(bridge, ctl)
	if err != nil {
		t.Fatalf("haltTarget: %v", err)
	}
	if outcome.State != api.StateHalted || outcome.Method != MethodControlSocket {
		t.Errorf("outcome = %s via %q", outcome.State, outcome.Method)
	}
	if outcome.Warning != "" {
		t.Errorf("unexpected warning: %q", outcome.Warning)
	}
	if len(ctl.calls) != 1 || ctl.calls[0] != "halt" {
		t.Errorf("control calls = %v", ctl.calls)
	}
}

func TestHaltFallbackDesynchronized(t *testing.T) {
	// debugger interrupt times out, the control-socket halt succeeds,
	// and the debugger never reports a stop: success with a warning.
	bridge := &stubBridge{respond: timeoutResponder}
	ctl := &stubControl{}

	outcome, err := haltTarget(bridge, ctl)
	if err != nil {
		t.Fatalf("haltTarget: %v", err)
	}
	if outcome.State != api.StateHalted {
		t.Fatalf("state = %s, want halted", outcome.State)
	}
	if outcome.Method != MethodControlSocket {
		t.Errorf("method = %q", outcome.Method)
	}
	if !strings.Contains(outcome.Warning, "desynchronized") {
		t.Errorf("warning = %q, want desynchronization notice", outcome.Warning)
	}
}

func TestHaltErrorResultUsesFallback(t *testing.T) {
	bridge := &stubBridge{
		respond: func(cmd string) (*mi.Result, error) {
			return &mi.Result{Message: "error", Payload: map[string]interface{}{"msg": "cannot interrupt"}}, nil
		},
		stops: []*mi.StopEvent{{Reason: mi.ReasonUnknown}},
	}
	ctl := &stubControl{}

	outcome, err := haltTarget(bridge, ctl)
	if err != nil {
		t.Fatalf("haltTarget: %v", err)
	}
	if outcome.Method != MethodControlSocket {
		t.Errorf("method = %q, want fallback after ^error", outcome.Method)
	}
}

func TestHaltBothPathsFail(t *testing.T) {
	bridge := &stubBridge{respond: timeoutResponder}
	ctl := &stubControl{err: errors.New("connection refused")}

	outcome, err := haltTarget(bridge, ctl)
	if err != nil {
		t.Fatalf("haltTarget: %v", err)
	}
	if outcome.State != api.StateUnknown {
		t.Errorf("state = %s, want unknown", outcome.State)
	}
	if outcome.Warning == "" {
		t.Error("expected a warning naming both failed paths")
	}
}

func TestHaltRealTransportFailure(t *testing.T) {
	// a non-timeout failure (gdb never started) is a real error, not a
	// trigger for the hardware fallback
	bridge := &stubBridge{
		respond: func(cmd string) (*mi.Result, error) { return nil, mi.ErrNotStarted },
	}
	ctl := &stubControl{}

	if _, err := haltTarget(bridge, ctl); !errors.Is(err, mi.ErrNotStarted) {
		t.Fatalf("err = %v, want ErrNotStarted", err)
	}
	if len(ctl.calls) != 0 {
		t.Errorf("control socket used after a non-timeout failure: %v", ctl.calls)
	}
}
