package session

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/adapter"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/ports"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/targets"
)

// ExistsError is returned when attaching under a name already in use.
type ExistsError struct {
	Name string
}

func (e *ExistsError) Error() string {
	return fmt.Sprintf("session %q already exists", e.Name)
}

// NotFoundError is returned for operations on an unknown session name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no session named %q", e.Name)
}

// Config holds binary overrides applied to every session's subprocesses.
type Config struct {
	// GDBPath overrides the debugger binary.
	GDBPath string
	// OpenOCDPath overrides the adapter binary.
	OpenOCDPath string
	// AdapterStartTimeout bounds OpenOCD readiness. Defaults to 10s.
	AdapterStartTimeout time.Duration
}

// Registry is the thread-safe map of named debug sessions.
//
// The registry lock guards only map reads and writes. The multi-second
// attach sequence (ports, subprocess launches, symbol load, connect) runs
// outside the lock so a slow attach never blocks operations on other
// sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	cfg Config
	log *logrus.Entry
}

// NewRegistry returns an empty session registry.
func NewRegistry(cfg Config) *Registry {
	if cfg.AdapterStartTimeout == 0 {
		cfg.AdapterStartTimeout = 10 * time.Second
	}
	return &Registry{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		log:      logflags.SessionLogger(),
	}
}

// Attach creates a new debug session: allocates ports, launches OpenOCD,
// launches GDB, optionally loads ELF symbols, and connects GDB to the
// adapter. Any failure tears down whatever was already started, in reverse
// order of construction, and nothing is registered.
func (r *Registry) Attach(profile targets.Profile, kind, name, elfPath string) (*Session, error) {
	if name == "" {
		name = kind
	}

	// Fail fast on an obvious duplicate before any slow I/O.
	r.mu.Lock()
	if _, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		return nil, &ExistsError{Name: name}
	}
	r.mu.Unlock()

	gdbPort, err := ports.FindGDBPort()
	if err != nil {
		return nil, err
	}
	controlPort, err := ports.FindControlPort()
	if err != nil {
		return nil, err
	}

	adp := adapter.New(adapter.Config{
		Interface:   profile.Interface,
		Target:      profile.Target,
		GDBPort:     gdbPort,
		ControlPort: controlPort,
		Binary:      r.cfg.OpenOCDPath,
	})
	if err := adp.Start(r.cfg.AdapterStartTimeout); err != nil {
		adp.Stop(2 * time.Second)
		return nil, err
	}

	bridge := mi.New(r.cfg.GDBPath)
	if err := r.startBridge(bridge, gdbPort, elfPath); err != nil {
		bridge.Stop()
		adp.Stop(5 * time.Second)
		return nil, err
	}

	s := &Session{
		Name:      name,
		Target:    kind,
		MCU:       profile.MCU,
		CreatedAt: time.Now(),
		Adapter:   adp,
		Bridge:    bridge,
		elfPath:   elfPath,
	}

	// A session of the same name may have been attached while our
	// subprocesses were starting.
	r.mu.Lock()
	if _, ok := r.sessions[name]; ok {
		r.mu.Unlock()
		s.Shutdown()
		return nil, &ExistsError{Name: name}
	}
	r.sessions[name] = s
	r.mu.Unlock()

	r.log.Infof("session %q attached: target=%s gdb_port=%d tcl_port=%d", name, kind, gdbPort, controlPort)
	return s, nil
}

// startBridge brings up GDB, loads symbols if an ELF was given, and
// connects to the adapter's GDB server.
//
// Symbols are loaded before connecting so GDB has context for the initial
// stop report.
func (r *Registry) startBridge(bridge *mi.Bridge, gdbPort int, elfPath string) error {
	if err := bridge.Start(); err != nil {
		return err
	}
	if elfPath != "" {
		res, err := bridge.LoadSymbols(elfPath)
		if err != nil {
			return err
		}
		if res.IsError() {
			return fmt.Errorf("failed to load ELF: %s", res.ErrorMsg())
		}
	}
	res, err := bridge.Connect("localhost", gdbPort)
	if err != nil {
		return err
	}
	if res.IsError() {
		return fmt.Errorf("GDB failed to connect to OpenOCD: %s", res.ErrorMsg())
	}
	return nil
}

// Detach removes a session from the registry and shuts it down. The
// shutdown happens outside the lock.
func (r *Registry) Detach(name string) error {
	r.mu.Lock()
	s, ok := r.sessions[name]
	if ok {
		delete(r.sessions, name)
	}
	r.mu.Unlock()

	if !ok {
		return &NotFoundError{Name: name}
	}
	r.log.Infof("session %q detached", name)
	return s.Shutdown()
}

// Get returns a session by name.
func (r *Registry) Get(name string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[name]
	if !ok {
		return nil, &NotFoundError{Name: name}
	}
	return s, nil
}

// List returns all sessions sorted by name.
func (r *Registry) List() []*Session {
	r.mu.Lock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	r.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// DetachAll drains the registry and shuts every session down, swallowing
// individual shutdown failures so one stuck session cannot block cleanup
// of the rest. Used at server shutdown.
func (r *Registry) DetachAll() {
	r.mu.Lock()
	drained := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		drained = append(drained, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range drained {
		if err := s.Shutdown(); err != nil {
			r.log.Warnf("shutdown of session %q failed: %v", s.Name, err)
		}
	}
}
