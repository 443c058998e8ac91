// Package adapter manages the OpenOCD subprocess for a debug session.
//
// OpenOCD talks to the target over the probe (SWD/JTAG) and exposes two TCP
// listeners: the GDB remote server and a raw Tcl control channel. The
// control channel stays reachable even when the GDB side is wedged, which
// the halt fallback path depends on.
package adapter

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
)

const (
	defaultBinary = "openocd"

	// maxLogLines bounds the in-memory stderr capture.
	maxLogLines = 512

	// readyMarker is printed by OpenOCD when a server socket is up.
	readyMarker = "Listening on port"
)

// ErrAlreadyRunning is returned by Start if the process is still alive.
var ErrAlreadyRunning = errors.New("openocd is already running")

// ExitError is returned when OpenOCD exits before reporting readiness.
// It carries the captured stderr log for diagnostics.
type ExitError struct {
	Code int
	Log  []string
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("openocd exited with code %d:\n%s", e.Code, strings.Join(e.Log, "\n"))
}

// Config holds the launch parameters for an OpenOCD process.
type Config struct {
	// Interface is the probe config, relative to OpenOCD's interface/ dir.
	Interface string
	// Target is the chip config, relative to OpenOCD's target/ dir.
	Target string
	// GDBPort is the port for the GDB remote server.
	GDBPort int
	// ControlPort is the port for the Tcl control channel.
	ControlPort int
	// Binary overrides the OpenOCD executable name.
	Binary string
}

// Process is a single OpenOCD subprocess.
//
// A background goroutine reads the subprocess's stderr into a bounded log
// and fires a one-shot readiness signal when the GDB server port comes up.
type Process struct {
	cfg Config
	log *logrus.Entry

	mu     sync.Mutex
	cmd    *exec.Cmd
	exited chan struct{} // closed when cmd.Wait returns
	ready  chan struct{} // closed when the readiness marker is seen
	stderr []string
}

// New returns an unstarted Process for the given configuration.
func New(cfg Config) *Process {
	if cfg.Binary == "" {
		cfg.Binary = defaultBinary
	}
	return &Process{
		cfg: cfg,
		log: logflags.AdapterLogger(),
	}
}

// GDBPort returns the configured GDB server port.
func (p *Process) GDBPort() int { return p.cfg.GDBPort }

// ControlPort returns the configured Tcl control port.
func (p *Process) ControlPort() int { return p.cfg.ControlPort }

// Alive reports whether the subprocess has been started and has not exited.
func (p *Process) Alive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.alive()
}

func (p *Process) alive() bool {
	if p.cmd == nil {
		return false
	}
	select {
	case <-p.exited:
		return false
	default:
		return true
	}
}

// Pid returns the subprocess pid, or 0 if not running.
func (p *Process) Pid() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// StderrOutput returns a copy of the captured stderr lines.
func (p *Process) StderrOutput() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.stderr))
	copy(out, p.stderr)
	return out
}

// Start launches OpenOCD and blocks until its GDB server is listening, the
// subprocess exits, or the timeout elapses.
//
// The telnet listener is disabled so concurrent sessions only contend on
// the two ports we allocate explicitly.
func (p *Process) Start(timeout time.Duration) error {
	p.mu.Lock()
	if p.alive() {
		p.mu.Unlock()
		return ErrAlreadyRunning
	}

	path, err := exec.LookPath(p.cfg.Binary)
	if err != nil {
		p.mu.Unlock()
		return fmt.Errorf("%s not found on PATH: %v", p.cfg.Binary, err)
	}

	cmd := exec.Command(path,
		"-f", "interface/"+p.cfg.Interface,
		"-f", "target/"+p.cfg.Target,
		"-c", fmt.Sprintf("gdb_port %d", p.cfg.GDBPort),
		"-c", fmt.Sprintf("tcl_port %d", p.cfg.ControlPort),
		"-c", "telnet_port disabled",
	)
	cmd.SysProcAttr = sysProcAttr()

	stderr, err := cmd.StderrPipe()
	if err != nil {
		p.mu.Unlock()
		return err
	}

	if err := cmd.Start(); err != nil {
		p.mu.Unlock()
		return fmt.Errorf("could not launch %s: %v", path, err)
	}
	p.log.Debugf("launched %s (pid %d) gdb_port=%d tcl_port=%d", path, cmd.Process.Pid, p.cfg.GDBPort, p.cfg.ControlPort)

	p.cmd = cmd
	p.stderr = nil
	p.ready = make(chan struct{})
	p.exited = make(chan struct{})

	ready, exited := p.ready, p.exited
	go func() {
		// Wait only after stderr hits EOF so the captured log is
		// complete by the time exited is observable.
		p.readStderr(stderr, ready)
		cmd.Wait()
		close(exited)
	}()
	p.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-exited:
		return &ExitError{Code: cmd.ProcessState.ExitCode(), Log: p.StderrOutput()}
	case <-time.After(timeout):
		p.Stop(2 * time.Second)
		return fmt.Errorf("openocd did not become ready within %s", timeout)
	}
}

// Stop terminates the subprocess: no-op if not running, otherwise SIGTERM,
// wait, and SIGKILL once the timeout elapses.
func (p *Process) Stop(timeout time.Duration) error {
	p.mu.Lock()
	cmd, exited := p.cmd, p.exited
	p.cmd = nil
	p.mu.Unlock()

	if cmd == nil {
		return nil
	}
	select {
	case <-exited:
		return nil
	default:
	}

	if err := terminate(cmd); err != nil {
		kill(cmd)
	}
	select {
	case <-exited:
		return nil
	case <-time.After(timeout):
	}

	p.log.Debugf("pid %d did not exit after SIGTERM, killing", cmd.Process.Pid)
	kill(cmd)
	select {
	case <-exited:
		return nil
	case <-time.After(2 * time.Second):
		return fmt.Errorf("openocd pid %d did not exit after SIGKILL", cmd.Process.Pid)
	}
}

// readStderr captures diagnostic output and watches for the readiness
// marker on the configured GDB port.
func (p *Process) readStderr(r io.Reader, ready chan struct{}) {
	var once sync.Once
	scan := bufio.NewScanner(r)
	portstr := strconv.Itoa(p.cfg.GDBPort)
	for scan.Scan() {
		line := scan.Text()
		p.log.Debug(line)

		p.mu.Lock()
		p.stderr = append(p.stderr, line)
		if len(p.stderr) > maxLogLines {
			p.stderr = p.stderr[len(p.stderr)-maxLogLines:]
		}
		p.mu.Unlock()

		if strings.Contains(line, readyMarker) && strings.Contains(line, portstr) {
			once.Do(func() { close(ready) })
		}
	}
}
