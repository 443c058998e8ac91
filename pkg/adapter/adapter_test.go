package adapter

import (
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// writeFakeOpenOCD writes a shell script that mimics OpenOCD's startup
// output well enough for readiness detection.
func writeFakeOpenOCD(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake adapter scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "openocd")
	script := `#!/bin/sh
port=0
while [ $# -gt 0 ]; do
	case "$1" in
	gdb_port*) port=${1#gdb_port } ;;
	esac
	shift
done
` + body
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestStartDetectsReadiness(t *testing.T) {
	bin := writeFakeOpenOCD(t, `
echo "Open On-Chip Debugger 0.12.0" >&2
echo "Info : Listening on port $port for gdb connections" >&2
sleep 30
`)
	p := New(Config{Interface: "stlink.cfg", Target: "stm32h7x.cfg", GDBPort: 3399, ControlPort: 6699, Binary: bin})
	if err := p.Start(5 * time.Second); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer p.Stop(2 * time.Second)

	if !p.Alive() {
		t.Errorf("process should be alive after start")
	}
	if p.Pid() == 0 {
		t.Errorf("expected a pid")
	}
	out := p.StderrOutput()
	found := false
	for _, line := range out {
		if strings.Contains(line, "Listening on port 3399") {
			found = true
		}
	}
	if !found {
		t.Errorf("readiness line missing from captured stderr: %q", out)
	}
}

func TestStartAlreadyRunning(t *testing.T) {
	bin := writeFakeOpenOCD(t, `
echo "Info : Listening on port $port for gdb connections" >&2
sleep 30
`)
	p := New(Config{GDBPort: 3399, ControlPort: 6699, Binary: bin})
	if err := p.Start(5 * time.Second); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	defer p.Stop(2 * time.Second)

	if err := p.Start(time.Second); err != ErrAlreadyRunning {
		t.Errorf("expected ErrAlreadyRunning, got %v", err)
	}
}

func TestStartBinaryMissing(t *testing.T) {
	p := New(Config{GDBPort: 3399, Binary: "openocd-does-not-exist-xyz"})
	if err := p.Start(time.Second); err == nil {
		t.Fatalf("expected an error for a missing binary")
	}
}

func TestStartEarlyExitCarriesLog(t *testing.T) {
	bin := writeFakeOpenOCD(t, `
echo "Error: unable to find CMSIS-DAP device" >&2
exit 1
`)
	p := New(Config{GDBPort: 3399, Binary: bin})
	err := p.Start(5 * time.Second)
	if err == nil {
		t.Fatalf("expected an error when the adapter exits early")
	}
	exitErr, ok := err.(*ExitError)
	if !ok {
		t.Fatalf("expected *ExitError, got %T: %v", err, err)
	}
	if !strings.Contains(exitErr.Error(), "CMSIS-DAP") {
		t.Errorf("exit error should carry the captured log: %v", exitErr)
	}
}

func TestStartTimeout(t *testing.T) {
	bin := writeFakeOpenOCD(t, `
echo "Info : clock speed 2000 kHz" >&2
sleep 30
`)
	p := New(Config{GDBPort: 3399, Binary: bin})
	start := time.Now()
	err := p.Start(500 * time.Millisecond)
	if err == nil {
		t.Fatalf("expected a timeout error")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("start took too long to give up: %s", elapsed)
	}
	if p.Alive() {
		t.Errorf("process should have been stopped after readiness timeout")
	}
}

func TestStopIdempotent(t *testing.T) {
	p := New(Config{GDBPort: 3399})
	if err := p.Stop(time.Second); err != nil {
		t.Errorf("stop of a never-started process should be a no-op, got %v", err)
	}

	bin := writeFakeOpenOCD(t, `
echo "Info : Listening on port $port for gdb connections" >&2
sleep 30
`)
	p = New(Config{GDBPort: 3399, Binary: bin})
	if err := p.Start(5 * time.Second); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if err := p.Stop(2 * time.Second); err != nil {
		t.Errorf("stop failed: %v", err)
	}
	if p.Alive() {
		t.Errorf("process still alive after stop")
	}
	if err := p.Stop(2 * time.Second); err != nil {
		t.Errorf("second stop should be a no-op, got %v", err)
	}
}

func TestControlCommand(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 256)
		n, _ := conn.Read(buf)
		if strings.TrimSuffix(string(buf[:n]), "\x1a") == "halt" {
			conn.Write([]byte("target halted due to debug-request\x1a"))
		} else {
			conn.Write([]byte("unknown command\x1a"))
		}
	}()

	port := l.Addr().(*net.TCPAddr).Port
	p := New(Config{ControlPort: port})
	reply, err := p.ControlCommand("halt", 2*time.Second)
	if err != nil {
		t.Fatalf("control command failed: %v", err)
	}
	if !strings.Contains(reply, "halted") {
		t.Errorf("unexpected reply: %q", reply)
	}
}

func TestControlCommandUnreachable(t *testing.T) {
	// Bind and immediately close a port so nothing is listening on it.
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	port := l.Addr().(*net.TCPAddr).Port
	l.Close()

	p := New(Config{ControlPort: port})
	if _, err := p.ControlCommand("halt", 500*time.Millisecond); err == nil {
		t.Fatalf("expected an error for an unreachable control port")
	}
}
