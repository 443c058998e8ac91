// Package mi drives a GDB subprocess through its machine interface.
//
// MI is an ordered, untagged text stream: there is no way to match an
// out-of-order response to the command that caused it, so the bridge
// enforces one command in flight at a time and demultiplexes everything
// else (notifications, console text) around the single terminal result.
package mi

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
)

const defaultGDB = "gdb-multiarch"

// recordBufferSize bounds how many records can pile up between commands.
const recordBufferSize = 1024

// drainPoll is how long DrainEvents listens for pending records.
const drainPoll = 50 * time.Millisecond

// ErrNotStarted is returned for commands sent before Start. This is a
// programmer error, not a condition to retry.
var ErrNotStarted = errors.New("gdb is not running")

// TimeoutError reports that GDB did not produce a result within the
// deadline. It is deliberately distinct from an "^error" result: an error
// result means GDB is healthy and rejected the command, a timeout means
// GDB itself is unresponsive and the caller may need the hardware-level
// fallback path.
type TimeoutError struct {
	Cmd     string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("gdb did not respond to %q within %s", e.Cmd, e.Timeout)
}

// IsTimeout reports whether err is a bridge transport timeout.
func IsTimeout(err error) bool {
	var te *TimeoutError
	return errors.As(err, &te)
}

// Bridge owns one GDB subprocess and its MI channel.
type Bridge struct {
	// mu serializes commands. It is held for the whole round trip.
	mu sync.Mutex

	gdbPath string
	log     *logrus.Entry

	stateMu   sync.Mutex
	cmd       *exec.Cmd
	stdin     io.WriteCloser
	records   chan Record
	exited    chan struct{}
	connected bool
}

// New returns an unstarted Bridge. gdbPath overrides the default
// gdb-multiarch binary when non-empty.
func New(gdbPath string) *Bridge {
	if gdbPath == "" {
		gdbPath = defaultGDB
	}
	return &Bridge{
		gdbPath: gdbPath,
		log:     logflags.MIWireLogger(),
	}
}

// Connected reports whether a remote target has been selected.
func (b *Bridge) Connected() bool {
	b.stateMu.Lock()
	defer b.stateMu.Unlock()
	return b.connected
}

// Start launches the GDB subprocess in quiet MI mode.
func (b *Bridge) Start() error {
	path, err := exec.LookPath(b.gdbPath)
	if err != nil {
		return fmt.Errorf("%s not found on PATH: %v", b.gdbPath, err)
	}

	cmd := exec.Command(path, "--nx", "--quiet", "--interpreter=mi3")
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return err
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return err
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("could not launch %s: %v", path, err)
	}
	b.log.Debugf("launched %s (pid %d)", path, cmd.Process.Pid)

	records := make(chan Record, recordBufferSize)
	exited := make(chan struct{})
	go func() {
		b.readRecords(stdout, records)
		cmd.Wait()
		close(exited)
	}()

	b.stateMu.Lock()
	b.cmd = cmd
	b.stdin = stdin
	b.records = records
	b.exited = exited
	b.stateMu.Unlock()
	return nil
}

// Stop requests GDB exit. Failures during exit are tolerated; the bridge
// is marked disconnected regardless.
func (b *Bridge) Stop() {
	b.stateMu.Lock()
	cmd, stdin, exited := b.cmd, b.stdin, b.exited
	b.cmd = nil
	b.stdin = nil
	b.records = nil
	b.connected = false
	b.stateMu.Unlock()

	if cmd == nil {
		return
	}
	if stdin != nil {
		stdin.Write([]byte("-gdb-exit\n"))
		stdin.Close()
	}
	select {
	case <-exited:
	case <-time.After(2 * time.Second):
		b.log.Debugf("gdb pid %d did not exit, killing", cmd.Process.Pid)
		cmd.Process.Kill()
		<-exited
	}
}

// Connect selects the remote target (the OpenOCD GDB server).
func (b *Bridge) Connect(host string, port int) (*Result, error) {
	res, err := b.Command(fmt.Sprintf("-target-select remote %s:%d", host, port), 10*time.Second)
	if err != nil {
		return nil, err
	}
	if !res.IsError() {
		b.stateMu.Lock()
		b.connected = true
		b.stateMu.Unlock()
	}
	return res, nil
}

// LoadSymbols loads an ELF's symbols into GDB.
func (b *Bridge) LoadSymbols(elfPath string) (*Result, error) {
	return b.Command("-file-exec-and-symbols "+elfPath, 10*time.Second)
}

// Command sends one MI command and blocks until its terminal result is
// parsed or the timeout elapses. Only one command may be in flight at a
// time across all callers.
func (b *Bridge) Command(text string, timeout time.Duration) (*Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stateMu.Lock()
	stdin, records := b.stdin, b.records
	b.stateMu.Unlock()
	if stdin == nil {
		return nil, ErrNotStarted
	}

	b.log.Debugf("-> %s", text)
	if _, err := io.WriteString(stdin, text+"\n"); err != nil {
		return nil, fmt.Errorf("write to gdb failed: %v", err)
	}

	res := &Result{Message: "done"}
	gotResult := false
	deadline := time.NewTimer(timeout)
	defer deadline.Stop()

	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return nil, errors.New("gdb closed the MI stream")
			}
			switch rec.Type {
			case RecordResult:
				res.Message = rec.Message
				res.Payload = rec.Payload
				gotResult = true
			case RecordNotify:
				res.Events = append(res.Events, rec)
			case RecordConsole:
				if line, ok := rec.Payload.(string); ok {
					if line = strings.TrimRight(line, "\n"); line != "" {
						res.ConsoleOutput = append(res.ConsoleOutput, line)
					}
				}
			case RecordPrompt:
				// Prompts before our result belong to earlier batches.
				if gotResult {
					return res, nil
				}
			}
		case <-deadline.C:
			return nil, &TimeoutError{Cmd: text, Timeout: timeout}
		}
	}
}

// Monitor sends a passthrough command to OpenOCD via GDB's console escape.
func (b *Bridge) Monitor(command string, timeout time.Duration) (*Result, error) {
	escaped := strings.ReplaceAll(command, `"`, `\"`)
	return b.Command(fmt.Sprintf(`-interpreter-exec console "monitor %s"`, escaped), timeout)
}

// DrainEvents polls briefly for pending records and returns only the
// asynchronous notifications. It never blocks longer than the poll window
// and an empty result is not an error.
func (b *Bridge) DrainEvents() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.stateMu.Lock()
	records := b.records
	b.stateMu.Unlock()
	if records == nil {
		return nil
	}

	var events []Record
	deadline := time.NewTimer(drainPoll)
	defer deadline.Stop()
	for {
		select {
		case rec, ok := <-records:
			if !ok {
				return events
			}
			if rec.Type == RecordNotify {
				events = append(events, rec)
			}
		case <-deadline.C:
			return events
		}
	}
}

// WaitForStop polls for a "*stopped" notification until the timeout
// elapses. Returns nil if no stop arrived in time; the deadline passing is
// an outcome, not an error.
func (b *Bridge) WaitForStop(timeout time.Duration) *StopEvent {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		for _, e := range b.DrainEvents() {
			if e.Message != "stopped" {
				continue
			}
			if payload, ok := e.Payload.(map[string]interface{}); ok {
				return ParseStop(payload)
			}
		}
		time.Sleep(drainPoll)
	}
	return nil
}

func (b *Bridge) readRecords(r io.Reader, records chan Record) {
	scan := bufio.NewScanner(r)
	scan.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scan.Scan() {
		rec, ok := parseLine(scan.Text())
		if !ok {
			continue
		}
		if rec.Type != RecordPrompt {
			b.log.Debugf("<- %s", scan.Text())
		}
		records <- rec
	}
	close(records)
}
