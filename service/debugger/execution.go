package debugger

import (
	"fmt"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// CommandError is a protocol-level failure: the debugger responded but
// rejected the command. Distinct from a transport timeout, which means the
// debugger did not respond at all.
type CommandError struct {
	Msg string
}

func (e *CommandError) Error() string {
	return e.Msg
}

const (
	stepSettle   = 5 * time.Second
	runToTimeout = 30 * time.Second
	defaultWait  = 30 * time.Second
)

// Continue resumes execution. It returns immediately; use WaitForHalt or
// Status to observe the next stop.
func (d *Debugger) Continue(in api.ContinueIn) (*api.ContinueOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Command("-exec-continue", defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	return &api.ContinueOut{Name: in.Name, State: api.StateRunning}, nil
}

// WaitForHalt blocks until the target stops or the timeout elapses. A
// timeout is a normal outcome, not an error.
func (d *Debugger) WaitForHalt(in api.WaitForHaltIn) (*api.WaitForHaltOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	timeout := defaultWait
	if in.Timeout > 0 {
		timeout = time.Duration(in.Timeout * float64(time.Second))
	}
	stop := sess.Bridge.WaitForStop(timeout)
	if stop == nil {
		return &api.WaitForHaltOut{
			StopResult: api.StopResult{Name: in.Name, State: api.StateRunning},
			TimedOut:   true,
		}, nil
	}
	out := &api.WaitForHaltOut{StopResult: api.StopResult{Name: in.Name, State: api.StateHalted}}
	fillStop(&out.StopResult, stop)
	return out, nil
}

// Step executes one or more source lines, stepping into calls.
func (d *Debugger) Step(in api.StepIn) (*api.StepOut, error) {
	return d.step(in.Name, "-exec-step", in.Count)
}

// StepOver executes one or more source lines, stepping over calls.
func (d *Debugger) StepOver(in api.StepIn) (*api.StepOut, error) {
	return d.step(in.Name, "-exec-next", in.Count)
}

// StepOut runs until the current function returns.
func (d *Debugger) StepOut(in api.StepIn) (*api.StepOut, error) {
	return d.step(in.Name, "-exec-finish", 1)
}

// StepInstruction executes one or more machine instructions.
func (d *Debugger) StepInstruction(in api.StepIn) (*api.StepOut, error) {
	return d.step(in.Name, "-exec-step-instruction", in.Count)
}

// step sends a step-like command and waits for the resulting stop. The
// stop notification usually rides in the same response batch as the
// command acknowledgment; when it does not, a short wait picks it up.
func (d *Debugger) step(name, miCmd string, count int) (*api.StepOut, error) {
	sess, err := d.registry.Get(name)
	if err != nil {
		return nil, err
	}
	cmd := miCmd
	if count > 1 {
		cmd = fmt.Sprintf("%s %d", miCmd, count)
	}
	result, err := sess.Bridge.Command(cmd, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	stop := stopFromResult(result)
	if stop == nil {
		stop = sess.Bridge.WaitForStop(stepSettle)
	}
	out := &api.StepOut{Name: name, State: api.StateRunning}
	if stop != nil {
		out.State = api.StateHalted
		fillStop((*api.StopResult)(out), stop)
	}
	return out, nil
}

// RunTo sets a temporary breakpoint at a location and continues to it.
func (d *Debugger) RunTo(in api.RunToIn) (*api.RunToOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Command("-break-insert -t "+in.Location, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	result, err = sess.Bridge.Command("-exec-continue", defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	stop := sess.Bridge.WaitForStop(runToTimeout)
	if stop == nil {
		return &api.RunToOut{
			Name:    in.Name,
			State:   api.StateRunning,
			Warning: "target did not reach " + in.Location + " within the timeout",
		}, nil
	}
	out := &api.RunToOut{Name: in.Name, State: api.StateHalted}
	fillStop((*api.StopResult)(out), stop)
	return out, nil
}

// Reset resets the target through the adapter, halting afterwards unless
// asked to let it run.
func (d *Debugger) Reset(in api.ResetIn) (*api.ResetOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	cmd := "reset halt"
	if in.Run {
		cmd = "reset run"
	}
	result, err := sess.Bridge.Monitor(cmd, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	out := &api.ResetOut{Name: in.Name, State: api.StateHalted}
	if in.Run {
		out.State = api.StateRunning
		return out, nil
	}
	if _, stop := scanEvents(sess.Bridge.DrainEvents()); stop != nil {
		fillStop((*api.StopResult)(out), stop)
	}
	return out, nil
}
