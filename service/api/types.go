// Package api holds the types exposed over the JSON-RPC surface. These
// structs are the wire contract; keep field changes backward compatible.
package api

import "time"

// Target states reported to clients.
const (
	StateRunning      = "running"
	StateHalted       = "halted"
	StateUnknown      = "unknown"
	StateDisconnected = "disconnected"
)

// Session describes one live debug session.
type Session struct {
	Name        string    `json:"name"`
	Target      string    `json:"target"`
	MCU         string    `json:"mcu,omitempty"`
	ELF         string    `json:"elf,omitempty"`
	GDBPort     int       `json:"gdb_port"`
	ControlPort int       `json:"control_port"`
	AdapterPid  int       `json:"adapter_pid"`
	Alive       bool      `json:"alive"`
	CreatedAt   time.Time `json:"created_at"`
	Uptime      string    `json:"uptime"`
}

// Frame is one stack frame on the target.
type Frame struct {
	Func string `json:"func"`
	File string `json:"file,omitempty"`
	Line int    `json:"line,omitempty"`
	Addr string `json:"addr,omitempty"`
}

// StackFrame is a Frame with its position in the call stack.
type StackFrame struct {
	Level int `json:"level"`
	Frame
}

// SourceLine is one line of source context around a stop location.
type SourceLine struct {
	Line    int    `json:"line"`
	Text    string `json:"text"`
	Current bool   `json:"current,omitempty"`
}

// StopResult is the common response for operations that leave the target
// halted (or report that it kept running).
type StopResult struct {
	Name    string       `json:"name"`
	State   string       `json:"state"`
	Reason  string       `json:"reason,omitempty"`
	Frame   *Frame       `json:"frame,omitempty"`
	Source  []SourceLine `json:"source,omitempty"`
	Warning string       `json:"warning,omitempty"`
}

// Variable is a named value from the target.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Breakpoint describes a breakpoint or watchpoint known to the debugger.
type Breakpoint struct {
	Number   int    `json:"number"`
	Type     string `json:"type"`
	Enabled  bool   `json:"enabled"`
	Address  string `json:"address,omitempty"`
	Func     string `json:"func,omitempty"`
	File     string `json:"file,omitempty"`
	Line     int    `json:"line,omitempty"`
	HitCount int    `json:"hit_count,omitempty"`
	What     string `json:"what,omitempty"`
}

// Instruction is one disassembled machine instruction.
type Instruction struct {
	Address string `json:"address"`
	Func    string `json:"func,omitempty"`
	Offset  string `json:"offset,omitempty"`
	Inst    string `json:"inst"`
}

// TargetProfile describes a known target configuration.
type TargetProfile struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Interface   string `json:"interface"`
	Target      string `json:"target"`
	MCU         string `json:"mcu,omitempty"`
}

// PeripheralInfo summarizes one peripheral from the hardware description.
type PeripheralInfo struct {
	Name          string `json:"name"`
	BaseAddress   string `json:"base_address"`
	Group         string `json:"group,omitempty"`
	Description   string `json:"description,omitempty"`
	RegisterCount int    `json:"register_count"`
}

// FieldDef is one bitfield definition within a register.
type FieldDef struct {
	Name        string `json:"name"`
	Bits        string `json:"bits"`
	Width       uint   `json:"width"`
	Access      string `json:"access,omitempty"`
	Description string `json:"description,omitempty"`
}

// RegisterDef is one register definition within a peripheral.
type RegisterDef struct {
	Name        string     `json:"name"`
	Address     string     `json:"address"`
	Offset      string     `json:"offset"`
	Size        uint       `json:"size"`
	Access      string     `json:"access,omitempty"`
	Description string     `json:"description,omitempty"`
	Fields      []FieldDef `json:"fields,omitempty"`
}

// DecodedField is a bitfield extracted from a raw register value.
type DecodedField struct {
	Name        string `json:"name"`
	Value       uint64 `json:"value"`
	Bits        string `json:"bits"`
	Access      string `json:"access,omitempty"`
	Description string `json:"description,omitempty"`
}

// DecodedRegister is one register value decoded into bitfields.
type DecodedRegister struct {
	Register string         `json:"register"`
	Address  string         `json:"address"`
	Raw      string         `json:"raw"`
	Fields   []DecodedField `json:"fields"`
}

type AttachIn struct {
	// Target is a profile name ("daisy", "pico", "pico2") or "custom".
	Target string `json:"target"`
	// ELF optionally loads firmware symbols at attach.
	ELF string `json:"elf,omitempty"`
	// Name defaults to Target.
	Name string `json:"name,omitempty"`
	// Interface and TargetCfg are required when Target is "custom".
	Interface string `json:"interface,omitempty"`
	TargetCfg string `json:"target_cfg,omitempty"`
}

type AttachOut struct {
	Session Session `json:"session"`
	State   string  `json:"state"`
	Frame   *Frame  `json:"frame,omitempty"`
}

type DetachIn struct {
	Name string `json:"name"`
}

type DetachOut struct {
	Name string `json:"name"`
}

type SessionsIn struct{}

type SessionsOut struct {
	Sessions []Session `json:"sessions"`
	Count    int       `json:"count"`
}

type StatusIn struct {
	Name string `json:"name"`
}

type StatusOut StopResult

type TargetsIn struct{}

type TargetsOut struct {
	Targets []TargetProfile `json:"targets"`
}

type HaltIn struct {
	Name string `json:"name"`
}

type HaltOut struct {
	StopResult
	// Method is set to "control-socket" when the halt went through the
	// adapter's raw control channel instead of the debugger.
	Method string `json:"method,omitempty"`
}

type ContinueIn struct {
	Name string `json:"name"`
}

type ContinueOut struct {
	Name  string `json:"name"`
	State string `json:"state"`
}

type WaitForHaltIn struct {
	Name string `json:"name"`
	// Timeout in seconds. Defaults to 30.
	Timeout float64 `json:"timeout,omitempty"`
}

type WaitForHaltOut struct {
	StopResult
	TimedOut bool `json:"timed_out,omitempty"`
}

type StepIn struct {
	Name string `json:"name"`
	// Count of lines or instructions to step. Defaults to 1.
	Count int `json:"count,omitempty"`
}

type StepOut StopResult

type RunToIn struct {
	Name string `json:"name"`
	// Location is a function name, file:line, or *address.
	Location string `json:"location"`
}

type RunToOut StopResult

type ResetIn struct {
	Name string `json:"name"`
	// Run lets the target run after reset instead of halting.
	Run bool `json:"run,omitempty"`
}

type ResetOut StopResult

type ReadRegistersIn struct {
	Name string `json:"name"`
	// Registers filters to specific register names; empty reads all.
	Registers []string `json:"registers,omitempty"`
}

type ReadRegistersOut struct {
	Name      string            `json:"name"`
	Registers map[string]string `json:"registers"`
}

type WriteRegisterIn struct {
	Name     string `json:"name"`
	Register string `json:"register"`
	Value    string `json:"value"`
}

type WriteRegisterOut struct {
	Name     string `json:"name"`
	Register string `json:"register"`
	Value    string `json:"value"`
}

type ReadMemoryIn struct {
	Name string `json:"name"`
	// Address is a hex address or a symbol.
	Address string `json:"address"`
	Length  int    `json:"length"`
	// Format is "hex" (default), "u8", "u16" or "u32".
	Format string `json:"format,omitempty"`
}

type ReadMemoryOut struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Length  int    `json:"length"`
	Format  string `json:"format"`
	// Hex carries the raw bytes for format "hex".
	Hex string `json:"hex,omitempty"`
	// Values carries little-endian words for formats u8/u16/u32.
	Values []uint64 `json:"values,omitempty"`
}

type WriteMemoryIn struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	// Data is a hex byte string, e.g. "deadbeef".
	Data string `json:"data"`
}

type WriteMemoryOut struct {
	Name         string `json:"name"`
	Address      string `json:"address"`
	BytesWritten int    `json:"bytes_written"`
}

type BacktraceIn struct {
	Name string `json:"name"`
	// MaxFrames defaults to 20.
	MaxFrames int `json:"max_frames,omitempty"`
}

type BacktraceOut struct {
	Name   string       `json:"name"`
	Frames []StackFrame `json:"frames"`
	Depth  int          `json:"depth"`
}

type LocalsIn struct {
	Name string `json:"name"`
}

type LocalsOut struct {
	Name      string     `json:"name"`
	Variables []Variable `json:"variables"`
}

type EvalIn struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
}

type EvalOut struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	Value      string `json:"value"`
}

type DisassembleIn struct {
	Name string `json:"name"`
	// Address defaults to the current program counter.
	Address string `json:"address,omitempty"`
	// Count of instructions. Defaults to 10.
	Count int `json:"count,omitempty"`
}

type DisassembleOut struct {
	Name         string        `json:"name"`
	Start        string        `json:"start"`
	Instructions []Instruction `json:"instructions"`
}

type BreakpointSetIn struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type BreakpointSetOut struct {
	Name string `json:"name"`
	Breakpoint
}

type BreakpointDeleteIn struct {
	Name   string `json:"name"`
	Number int    `json:"number"`
}

type BreakpointDeleteOut struct {
	Name    string `json:"name"`
	Deleted int    `json:"deleted"`
}

type BreakpointListIn struct {
	Name string `json:"name"`
}

type BreakpointListOut struct {
	Name        string       `json:"name"`
	Breakpoints []Breakpoint `json:"breakpoints"`
	Count       int          `json:"count"`
}

type WatchpointSetIn struct {
	Name       string `json:"name"`
	Expression string `json:"expression"`
	// Type is "write" (default), "read" or "access".
	Type string `json:"type,omitempty"`
}

type WatchpointSetOut struct {
	Name       string `json:"name"`
	Number     int    `json:"number"`
	Type       string `json:"type"`
	Expression string `json:"expression"`
}

type SnapshotIn struct {
	Name string `json:"name"`
}

type SnapshotOut struct {
	StopResult
	Registers map[string]string `json:"registers,omitempty"`
	Backtrace []StackFrame      `json:"backtrace,omitempty"`
	Locals    []Variable        `json:"locals,omitempty"`
}

type FlashIn struct {
	Name string `json:"name"`
	// ELF defaults to the session's current firmware path.
	ELF string `json:"elf,omitempty"`
}

type FlashOut struct {
	Name         string `json:"name"`
	ELF          string `json:"elf"`
	Status       string `json:"status"`
	State        string `json:"state"`
	TotalBytes   int    `json:"total_bytes,omitempty"`
	TransferRate string `json:"transfer_rate,omitempty"`
	WriteRate    string `json:"write_rate,omitempty"`
}

type MonitorIn struct {
	Name    string `json:"name"`
	Command string `json:"command"`
}

type MonitorOut struct {
	Name    string   `json:"name"`
	Command string   `json:"command"`
	Output  []string `json:"output"`
}

type ListPeripheralsIn struct {
	Name string `json:"name"`
	// Filter is a case-insensitive regular expression on peripheral names.
	Filter string `json:"filter,omitempty"`
}

type ListPeripheralsOut struct {
	Name        string           `json:"name"`
	Device      string           `json:"device"`
	Peripherals []PeripheralInfo `json:"peripherals"`
	Count       int              `json:"count"`
}

type ListRegistersIn struct {
	Name       string `json:"name"`
	Peripheral string `json:"peripheral"`
}

type ListRegistersOut struct {
	Name       string        `json:"name"`
	Peripheral string        `json:"peripheral"`
	Registers  []RegisterDef `json:"registers"`
	Count      int           `json:"count"`
}

type ReadPeripheralRegisterIn struct {
	Name       string `json:"name"`
	Peripheral string `json:"peripheral"`
	Register   string `json:"register"`
}

type ReadPeripheralRegisterOut struct {
	Name       string `json:"name"`
	Peripheral string `json:"peripheral"`
	DecodedRegister
}

type ReadPeripheralIn struct {
	Name       string `json:"name"`
	Peripheral string `json:"peripheral"`
}

type ReadPeripheralOut struct {
	Name        string            `json:"name"`
	Peripheral  string            `json:"peripheral"`
	BaseAddress string            `json:"base_address"`
	Registers   []DecodedRegister `json:"registers"`
	Count       int               `json:"count"`
}
