package debugger

import (
	"fmt"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// BreakpointSet sets a breakpoint at a function, file:line or *address.
func (d *Debugger) BreakpointSet(in api.BreakpointSetIn) (*api.BreakpointSetOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Command("-break-insert "+in.Location, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected breakpoint payload")
	}
	return &api.BreakpointSetOut{
		Name:       in.Name,
		Breakpoint: parseBreakpoint(mi.Map(payload, "bkpt")),
	}, nil
}

// BreakpointDelete deletes a breakpoint by number.
func (d *Debugger) BreakpointDelete(in api.BreakpointDeleteIn) (*api.BreakpointDeleteOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Command(fmt.Sprintf("-break-delete %d", in.Number), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	return &api.BreakpointDeleteOut{Name: in.Name, Deleted: in.Number}, nil
}

// BreakpointList lists all breakpoints and watchpoints.
func (d *Debugger) BreakpointList(in api.BreakpointListIn) (*api.BreakpointListOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Command("-break-list", defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected breakpoint list payload")
	}
	table := mi.Map(payload, "BreakpointTable")
	out := &api.BreakpointListOut{Name: in.Name}
	for _, entry := range mi.Tuples(mi.List(table, "body")) {
		out.Breakpoints = append(out.Breakpoints, parseBreakpoint(entry))
	}
	out.Count = len(out.Breakpoints)
	return out, nil
}

// WatchpointSet sets a hardware watchpoint. Cortex-M parts typically have
// four comparators, so these are a scarce resource.
func (d *Debugger) WatchpointSet(in api.WatchpointSetIn) (*api.WatchpointSetOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	var cmd string
	watchType := in.Type
	switch in.Type {
	case "read":
		cmd = "-break-watch -r " + in.Expression
	case "access":
		cmd = "-break-watch -a " + in.Expression
	case "", "write":
		watchType = "write"
		cmd = "-break-watch " + in.Expression
	default:
		return nil, fmt.Errorf("unknown watchpoint type %q (want write, read or access)", in.Type)
	}
	result, err := sess.Bridge.Command(cmd, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected watchpoint payload")
	}
	// the payload key depends on the watch type
	wp := mi.Map(payload, "wpt")
	if wp == nil {
		wp = mi.Map(payload, "hw-rwpt")
	}
	if wp == nil {
		wp = mi.Map(payload, "hw-awpt")
	}
	out := &api.WatchpointSetOut{Name: in.Name, Type: watchType, Expression: in.Expression}
	if wp != nil {
		out.Number = mi.Int(wp, "number")
		if exp := mi.String(wp, "exp"); exp != "" {
			out.Expression = exp
		}
	}
	return out, nil
}

// parseBreakpoint maps a GDB/MI bkpt tuple to the API shape.
func parseBreakpoint(bkpt map[string]interface{}) api.Breakpoint {
	bp := api.Breakpoint{
		Number:  mi.Int(bkpt, "number"),
		Type:    "breakpoint",
		Enabled: mi.String(bkpt, "enabled") != "n",
	}
	if t := mi.String(bkpt, "type"); t != "" {
		bp.Type = t
	}
	bp.Address = mi.String(bkpt, "addr")
	bp.Func = mi.String(bkpt, "func")
	if full := mi.String(bkpt, "fullname"); full != "" {
		bp.File = full
	} else {
		bp.File = mi.String(bkpt, "file")
	}
	bp.Line = mi.Int(bkpt, "line")
	bp.HitCount = mi.Int(bkpt, "times")
	bp.What = mi.String(bkpt, "what")
	return bp
}
