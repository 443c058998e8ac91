// Package debugger implements the operation surface of the debug service
// on top of the session registry: attach/detach, execution control with
// the dual-path halt fallback, inspection, breakpoints, peripheral
// decoding, flashing.
package debugger

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/session"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/svd"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/targets"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// defaultTimeout bounds one MI round trip.
const defaultTimeout = 10 * time.Second

// commander is the part of the MI bridge the operation helpers use.
// *mi.Bridge implements it; tests substitute stubs.
type commander interface {
	Command(text string, timeout time.Duration) (*mi.Result, error)
	Monitor(command string, timeout time.Duration) (*mi.Result, error)
	DrainEvents() []mi.Record
	WaitForStop(timeout time.Duration) *mi.StopEvent
}

// Config configures a Debugger.
type Config struct {
	Registry *session.Registry
	// HardwarePath overrides the SBL_HW_PATH environment variable as the
	// hardware description root.
	HardwarePath string
}

// Debugger exposes every debug operation as a method. It is safe for
// concurrent use: per-session serialization happens in the MI bridge, the
// registry guards its own map.
type Debugger struct {
	registry *session.Registry
	loader   *svd.Loader
	log      *logrus.Entry
}

// New creates a Debugger over a session registry.
func New(cfg *Config) *Debugger {
	return &Debugger{
		registry: cfg.Registry,
		loader:   svd.NewLoader(cfg.HardwarePath),
		log:      logflags.RPCLogger(),
	}
}

// Registry returns the underlying session registry, for shutdown hooks.
func (d *Debugger) Registry() *session.Registry {
	return d.registry
}

// Attach creates a debug session for a target profile, then halts the
// target so the caller starts from a known state.
func (d *Debugger) Attach(in api.AttachIn) (*api.AttachOut, error) {
	profile, err := resolveProfile(in)
	if err != nil {
		return nil, err
	}
	sess, err := d.registry.Attach(profile, in.Target, in.Name, in.ELF)
	if err != nil {
		return nil, err
	}
	d.log.Debugf("attached session %q to %s", sess.Name, in.Target)

	out := &api.AttachOut{Session: apiSession(sess), State: api.StateHalted}
	if _, err := sess.Bridge.Monitor("reset halt", defaultTimeout); err != nil {
		d.log.Warnf("reset halt after attach failed: %v", err)
	}
	if _, stop := scanEvents(sess.Bridge.DrainEvents()); stop != nil {
		out.Frame = apiFrame(stop.Frame)
	}
	return out, nil
}

// resolveProfile maps the target name to its OpenOCD configuration.
// "custom" requires explicit interface and target config files.
func resolveProfile(in api.AttachIn) (targets.Profile, error) {
	if in.Target == "custom" {
		if in.Interface == "" || in.TargetCfg == "" {
			return targets.Profile{}, fmt.Errorf("custom target requires 'interface' and 'target_cfg'")
		}
		return targets.Profile{
			Description: "Custom target",
			Interface:   in.Interface,
			Target:      in.TargetCfg,
		}, nil
	}
	return targets.Get(in.Target)
}

// Detach tears a session down, stopping both its subprocesses.
func (d *Debugger) Detach(in api.DetachIn) (*api.DetachOut, error) {
	if err := d.registry.Detach(in.Name); err != nil {
		return nil, err
	}
	return &api.DetachOut{Name: in.Name}, nil
}

// Sessions lists all live sessions.
func (d *Debugger) Sessions(api.SessionsIn) (*api.SessionsOut, error) {
	sessions := d.registry.List()
	out := &api.SessionsOut{Sessions: make([]api.Session, 0, len(sessions)), Count: len(sessions)}
	for _, s := range sessions {
		out.Sessions = append(out.Sessions, apiSession(s))
	}
	return out, nil
}

// Targets lists the known target profiles.
func (d *Debugger) Targets(api.TargetsIn) (*api.TargetsOut, error) {
	out := &api.TargetsOut{}
	for _, name := range targets.Names() {
		p, _ := targets.Get(name)
		out.Targets = append(out.Targets, api.TargetProfile{
			Name:        name,
			Description: p.Description,
			Interface:   p.Interface,
			Target:      p.Target,
			MCU:         p.MCU,
		})
	}
	return out, nil
}

// Status reports the last known target state, draining pending stop and
// running notifications first.
func (d *Debugger) Status(in api.StatusIn) (*api.StatusOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	if !sess.Alive() {
		return &api.StatusOut{Name: in.Name, State: api.StateDisconnected}, nil
	}
	running, stop := scanEvents(sess.Bridge.DrainEvents())
	out := &api.StatusOut{Name: in.Name, State: api.StateRunning}
	if !running {
		out.State = api.StateHalted
		fillStop((*api.StopResult)(out), stop)
	}
	return out, nil
}

func apiSession(s *session.Session) api.Session {
	return api.Session{
		Name:        s.Name,
		Target:      s.Target,
		MCU:         s.MCU,
		ELF:         s.ELFPath(),
		GDBPort:     s.Adapter.GDBPort(),
		ControlPort: s.Adapter.ControlPort(),
		AdapterPid:  s.Adapter.Pid(),
		Alive:       s.Alive(),
		CreatedAt:   s.CreatedAt,
		Uptime:      s.Uptime().Round(time.Second).String(),
	}
}

func apiFrame(f *mi.Frame) *api.Frame {
	if f == nil {
		return nil
	}
	return &api.Frame{Func: f.Func, File: f.File, Line: f.Line, Addr: f.Addr}
}

// scanEvents folds a drained notification batch into the latest known
// state: a "stopped" after the last "running" wins.
func scanEvents(events []mi.Record) (running bool, last *mi.StopEvent) {
	running = true
	for _, ev := range events {
		switch ev.Message {
		case "stopped":
			if payload, ok := ev.Payload.(map[string]interface{}); ok {
				last = mi.ParseStop(payload)
			} else {
				last = &mi.StopEvent{Reason: mi.ReasonUnknown}
			}
			running = false
		case "running":
			running = true
			last = nil
		}
	}
	return running, last
}

// stopFromResult extracts a stop event embedded in a command's own
// response batch, if any.
func stopFromResult(result *mi.Result) *mi.StopEvent {
	_, stop := scanEvents(result.Events)
	return stop
}

// fillStop copies a stop event's reason, frame and source context into a
// response.
func fillStop(out *api.StopResult, stop *mi.StopEvent) {
	if stop == nil {
		return
	}
	out.Reason = stop.Reason
	if stop.Frame != nil {
		out.Frame = apiFrame(stop.Frame)
		out.Source = ReadSourceContext(stop.Frame.File, stop.Frame.Line, 2)
	}
}
