package mi

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

// fakeGDB writes a shell script that answers a small set of MI commands
// the way gdb-multiarch does, including async stop notifications.
func fakeGDB(t *testing.T) *Bridge {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake gdb scripts need a unix shell")
	}
	path := filepath.Join(t.TempDir(), "gdb-multiarch")
	script := `#!/bin/sh
echo '=thread-group-added,id="i1"'
echo '(gdb)'
while read -r line; do
	case "$line" in
	-gdb-exit*) echo '^exit'; exit 0 ;;
	-slow*) sleep 5; echo '^done'; echo '(gdb)' ;;
	-target-select*) echo '^connected'; echo '(gdb)' ;;
	-exec-step*)
		echo '*running,thread-id="all"'
		echo '*stopped,reason="end-stepping-range",frame={addr="0x0800015a",func="main",file="main.c",fullname="/src/main.c",line="13"}'
		echo '^running'
		echo '(gdb)'
		;;
	-exec-continue*)
		echo '^running'
		echo '(gdb)'
		( sleep 1; echo '*stopped,reason="breakpoint-hit",frame={func="loop"}' ) &
		;;
	-bad*) echo '^error,msg="Undefined MI command: bad"'; echo '(gdb)' ;;
	*) echo '^done,value="42"'; echo '(gdb)' ;;
	esac
done
`
	if err := os.WriteFile(path, []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
	b := New(path)
	if err := b.Start(); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	t.Cleanup(b.Stop)
	return b
}

func TestStartMissingBinary(t *testing.T) {
	b := New("gdb-does-not-exist-xyz")
	if err := b.Start(); err == nil {
		t.Fatalf("expected an error for a missing binary")
	}
}

func TestCommandBeforeStart(t *testing.T) {
	b := New("")
	if _, err := b.Command("-exec-interrupt", time.Second); err != ErrNotStarted {
		t.Errorf("expected ErrNotStarted, got %v", err)
	}
}

func TestCommandRoundTrip(t *testing.T) {
	b := fakeGDB(t)
	res, err := b.Command("-data-evaluate-expression x", 5*time.Second)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if res.Message != "done" {
		t.Errorf("wrong message: %q", res.Message)
	}
	payload := res.Payload.(map[string]interface{})
	if payload["value"] != "42" {
		t.Errorf("wrong payload: %#v", payload)
	}
}

func TestCommandErrorResult(t *testing.T) {
	b := fakeGDB(t)
	res, err := b.Command("-bad", 5*time.Second)
	if err != nil {
		t.Fatalf("an ^error result is not a transport failure: %v", err)
	}
	if !res.IsError() {
		t.Fatalf("expected an error result")
	}
	if res.ErrorMsg() != "Undefined MI command: bad" {
		t.Errorf("wrong error message: %q", res.ErrorMsg())
	}
}

func TestCommandTimeoutDistinctFromError(t *testing.T) {
	b := fakeGDB(t)
	_, err := b.Command("-slow", 300*time.Millisecond)
	if err == nil {
		t.Fatalf("expected a timeout")
	}
	if !IsTimeout(err) {
		t.Errorf("expected a TimeoutError, got %T: %v", err, err)
	}
}

func TestStopEventInSameBatch(t *testing.T) {
	b := fakeGDB(t)
	res, err := b.Command("-exec-step", 5*time.Second)
	if err != nil {
		t.Fatalf("command failed: %v", err)
	}
	if res.Message != "running" {
		t.Errorf("wrong message: %q", res.Message)
	}
	var stop *StopEvent
	for _, e := range res.Events {
		if e.Message == "stopped" {
			stop = ParseStop(e.Payload.(map[string]interface{}))
		}
	}
	if stop == nil {
		t.Fatalf("stop notification missing from batch events: %+v", res.Events)
	}
	if stop.Reason != ReasonEndSteppingRange || stop.Frame.Line != 13 {
		t.Errorf("stop parsed wrong: %+v frame=%+v", stop, stop.Frame)
	}
}

func TestWaitForStop(t *testing.T) {
	b := fakeGDB(t)
	res, err := b.Command("-exec-continue", 5*time.Second)
	if err != nil || res.IsError() {
		t.Fatalf("continue failed: %v %v", err, res)
	}
	stop := b.WaitForStop(5 * time.Second)
	if stop == nil {
		t.Fatalf("expected a stop event")
	}
	if stop.Reason != ReasonBreakpointHit {
		t.Errorf("wrong reason: %q", stop.Reason)
	}
}

func TestWaitForStopDeadline(t *testing.T) {
	b := fakeGDB(t)
	start := time.Now()
	stop := b.WaitForStop(100 * time.Millisecond)
	elapsed := time.Since(start)
	if stop != nil {
		t.Fatalf("no stop should have arrived, got %+v", stop)
	}
	if elapsed > time.Second {
		t.Errorf("deadline overshoot: %s", elapsed)
	}
}

func TestConnectSetsConnected(t *testing.T) {
	b := fakeGDB(t)
	if b.Connected() {
		t.Fatalf("bridge should not start connected")
	}
	res, err := b.Connect("localhost", 3333)
	if err != nil || res.IsError() {
		t.Fatalf("connect failed: %v %v", err, res)
	}
	if !b.Connected() {
		t.Errorf("connected flag not set")
	}
}

func TestStopTolerant(t *testing.T) {
	b := fakeGDB(t)
	b.Stop()
	if b.Connected() {
		t.Errorf("stop should clear the connected flag")
	}
	if _, err := b.Command("-exec-interrupt", time.Second); err != ErrNotStarted {
		t.Errorf("commands after stop should fail fast, got %v", err)
	}
	// a second Stop is harmless
	b.Stop()
}

func TestMonitorEscapesQuotes(t *testing.T) {
	b := fakeGDB(t)
	res, err := b.Monitor(`echo "hi"`, 5*time.Second)
	if err != nil {
		t.Fatalf("monitor failed: %v", err)
	}
	if res.IsError() {
		t.Errorf("unexpected error result: %q", res.ErrorMsg())
	}
}
