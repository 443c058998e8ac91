package mi

// RecordType discriminates the kinds of GDB/MI output records.
type RecordType int

const (
	// RecordResult is the terminal acknowledgment of a command ("^done",
	// "^running", "^error", ...). Exactly one per command.
	RecordResult RecordType = iota
	// RecordNotify is an asynchronous notification ("*stopped",
	// "=thread-created", status updates, ...).
	RecordNotify
	// RecordConsole is console output text ("~").
	RecordConsole
	// RecordLog is GDB's own log/debug output ("&").
	RecordLog
	// RecordTarget is output produced by the target program ("@").
	RecordTarget
	// RecordPrompt is the "(gdb)" terminator that ends a response batch.
	RecordPrompt
)

// Record is a single demultiplexed line of GDB/MI output.
type Record struct {
	Type RecordType
	// Message is the result class or async class ("done", "stopped", ...).
	// Empty for stream and prompt records.
	Message string
	// Payload holds the parsed results: map[string]interface{} for result
	// and notify records, string for stream records.
	Payload interface{}
}

// Result is the parsed outcome of one MI command.
//
// The command's single terminal result record is folded into Message and
// Payload. Everything else seen in the same response batch is preserved:
// asynchronous notifications in Events (a stop notification can arrive in
// the same batch as the acknowledgment of the command that caused it) and
// console text in ConsoleOutput.
type Result struct {
	Message       string
	Payload       interface{}
	ConsoleOutput []string
	Events        []Record
}

// IsError reports whether the command was acknowledged with "^error".
func (r *Result) IsError() bool {
	return r.Message == "error"
}

// ErrorMsg returns GDB's message for an error result, or "".
func (r *Result) ErrorMsg() string {
	if !r.IsError() {
		return ""
	}
	if payload, ok := r.Payload.(map[string]interface{}); ok {
		if msg, ok := payload["msg"].(string); ok {
			return msg
		}
	}
	return r.Message
}

// Stop reasons reported by GDB. Anything else is mapped to ReasonUnknown.
const (
	ReasonBreakpointHit     = "breakpoint-hit"
	ReasonEndSteppingRange  = "end-stepping-range"
	ReasonSignalReceived    = "signal-received"
	ReasonFunctionFinished  = "function-finished"
	ReasonWatchpointTrigger = "watchpoint-trigger"
	ReasonExited            = "exited"
	ReasonExitedNormally    = "exited-normally"
	ReasonUnknown           = "unknown"
)

// Frame is a stack frame as reported by GDB.
type Frame struct {
	Func string // "??" when unknown
	File string // full path preferred over the bare file name
	Line int    // 1-based, 0 when unknown
	Addr string // hex instruction address
}

// StopEvent is a parsed "*stopped" notification.
type StopEvent struct {
	Reason string
	Frame  *Frame
}

// ParseStop builds a StopEvent from the payload of a "*stopped" record.
func ParseStop(payload map[string]interface{}) *StopEvent {
	ev := &StopEvent{Reason: ReasonUnknown}
	if reason, ok := payload["reason"].(string); ok && reason != "" {
		ev.Reason = reason
	}
	if frame, ok := payload["frame"].(map[string]interface{}); ok {
		ev.Frame = ParseFrame(frame)
	}
	return ev
}

// ParseFrame builds a Frame from an MI frame tuple. All MI values arrive
// as strings.
func ParseFrame(data map[string]interface{}) *Frame {
	f := &Frame{Func: "??"}
	if fn := String(data, "func"); fn != "" {
		f.Func = fn
	}
	if full := String(data, "fullname"); full != "" {
		f.File = full
	} else {
		f.File = String(data, "file")
	}
	f.Line = Int(data, "line")
	f.Addr = String(data, "addr")
	return f
}
