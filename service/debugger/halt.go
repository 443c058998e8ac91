package debugger

import (
	"fmt"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// hardHalter is the adapter's raw control-socket path. It stays reachable
// even when the debugger subprocess is hung, which is exactly when it is
// needed. *adapter.Process implements it.
type hardHalter interface {
	ControlCommand(command string, timeout time.Duration) (string, error)
}

// MethodControlSocket marks a halt that went through the adapter's control
// socket instead of the debugger.
const MethodControlSocket = "control-socket"

const (
	// haltSettle bounds how long we wait for the debugger to report a stop
	// after an interrupt or a hard halt.
	haltSettle = 3 * time.Second
	// controlTimeout bounds one control-socket round trip.
	controlTimeout = 5 * time.Second
)

// haltOutcome is the terminal state of the halt state machine.
type haltOutcome struct {
	State   string
	Method  string
	Warning string
	Stop    *mi.StopEvent
}

// Halt stops a running target.
//
// The first attempt goes through the debugger (-exec-interrupt). That path
// times out when GDB is itself stuck waiting on a prior continue, so a
// transport timeout is not a failure here: it routes the halt to the
// adapter's control socket, which halts the core at the SWD level. After a
// hard halt the debugger may or may not notice; if it does not, the target
// is still halted (the adapter confirmed it against the hardware) but the
// debugger's view is stale, and the response says so.
func (d *Debugger) Halt(in api.HaltIn) (*api.HaltOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	outcome, err := haltTarget(sess.Bridge, sess.Adapter)
	if err != nil {
		return nil, err
	}
	if outcome.Method != "" {
		d.log.Infof("session %q halted via %s", in.Name, outcome.Method)
	}
	out := &api.HaltOut{
		StopResult: api.StopResult{Name: in.Name, State: outcome.State, Warning: outcome.Warning},
		Method:     outcome.Method,
	}
	fillStop(&out.StopResult, outcome.Stop)
	return out, nil
}

func haltTarget(bridge commander, ctl hardHalter) (haltOutcome, error) {
	result, err := bridge.Command("-exec-interrupt", defaultTimeout)
	switch {
	case err == nil && !result.IsError():
		stop := stopFromResult(result)
		if stop == nil {
			stop = bridge.WaitForStop(haltSettle)
		}
		if stop != nil {
			return haltOutcome{State: api.StateHalted, Stop: stop}, nil
		}
		// acknowledged but no stop observed, try the hard path
	case err != nil && !mi.IsTimeout(err):
		// a real transport failure, not the expected stuck-GDB timeout
		return haltOutcome{}, err
	default:
		// timeout or ^error from the interrupt: both route to the fallback
	}

	if _, err := ctl.ControlCommand("halt", controlTimeout); err != nil {
		return haltOutcome{
			State:   api.StateUnknown,
			Warning: fmt.Sprintf("debugger interrupt failed and control-socket halt also failed: %v", err),
		}, nil
	}

	// The adapter halted the core over SWD. Give the debugger a moment to
	// notice and emit its own stop notification.
	if stop := bridge.WaitForStop(haltSettle); stop != nil {
		return haltOutcome{State: api.StateHalted, Method: MethodControlSocket, Stop: stop}, nil
	}

	// Hardware state is authoritative: the target is halted even though
	// the debugger never reported it. Its state queries cannot be trusted
	// until a resync (e.g. a reset).
	return haltOutcome{
		State:   api.StateHalted,
		Method:  MethodControlSocket,
		Warning: "target halted via control socket but the debugger did not report a stop; debugger state may be desynchronized",
	}, nil
}
