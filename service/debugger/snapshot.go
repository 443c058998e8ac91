package debugger

import (
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// coreRegisters are the registers included in a snapshot, instead of the
// full 50+ register list GDB reports for a Cortex-M.
var coreRegisters = []string{"r0", "r1", "r2", "r3", "r12", "sp", "lr", "pc", "xpsr"}

// Snapshot collects the complete halted-target state in a single call:
// stop reason, frame, source context, core registers, backtrace and
// locals. The inspection legs are best-effort; a snapshot without
// registers is still useful, so their failures are logged and dropped.
func (d *Debugger) Snapshot(in api.SnapshotIn) (*api.SnapshotOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}

	running, stop := scanEvents(sess.Bridge.DrainEvents())
	if running {
		return &api.SnapshotOut{StopResult: api.StopResult{Name: in.Name, State: api.StateRunning}}, nil
	}
	out := &api.SnapshotOut{StopResult: api.StopResult{Name: in.Name, State: api.StateHalted}}
	fillStop(&out.StopResult, stop)

	if registers, err := readRegisters(sess.Bridge, coreRegisters); err == nil {
		out.Registers = registers
	} else {
		d.log.Debugf("snapshot: register read failed: %v", err)
	}
	if frames, err := readBacktrace(sess.Bridge, maxFramesDefault); err == nil {
		out.Backtrace = frames
	} else {
		d.log.Debugf("snapshot: backtrace failed: %v", err)
	}
	if locals, err := readLocals(sess.Bridge); err == nil {
		out.Locals = locals
	} else {
		d.log.Debugf("snapshot: locals failed: %v", err)
	}
	return out, nil
}
