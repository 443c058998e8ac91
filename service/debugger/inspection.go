package debugger

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

const maxFramesDefault = 20

// ReadRegisters reads CPU registers, optionally filtered by name.
//
// GDB reports register names as an indexed list with empty slots for
// unnamed registers; values are queried by index and mapped back.
func (d *Debugger) ReadRegisters(in api.ReadRegistersIn) (*api.ReadRegistersOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	values, err := readRegisters(sess.Bridge, in.Registers)
	if err != nil {
		return nil, err
	}
	return &api.ReadRegistersOut{Name: in.Name, Registers: values}, nil
}

func readRegisters(bridge commander, filter []string) (map[string]string, error) {
	result, err := bridge.Command("-data-list-register-names", defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected register names payload")
	}

	named := map[int]string{}
	for i, el := range mi.List(payload, "register-names") {
		if name, ok := el.(string); ok && name != "" {
			named[i] = name
		}
	}

	var indices []int
	if len(filter) > 0 {
		want := map[string]bool{}
		for _, name := range filter {
			want[name] = true
		}
		for i, name := range named {
			if want[name] {
				indices = append(indices, i)
			}
		}
		if len(indices) == 0 {
			return nil, fmt.Errorf("no matching registers for %v", filter)
		}
	} else {
		for i := range named {
			indices = append(indices, i)
		}
	}

	parts := make([]string, 0, len(indices))
	for _, i := range indices {
		parts = append(parts, fmt.Sprintf("%d", i))
	}
	result, err = bridge.Command("-data-list-register-values x "+strings.Join(parts, " "), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok = result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected register values payload")
	}

	values := map[string]string{}
	for _, entry := range mi.Tuples(mi.List(payload, "register-values")) {
		num := mi.Int(entry, "number")
		name, ok := named[num]
		if !ok {
			name = fmt.Sprintf("reg%d", num)
		}
		values[name] = mi.String(entry, "value")
	}
	return values, nil
}

// WriteRegister sets a single CPU register through the console path.
func (d *Debugger) WriteRegister(in api.WriteRegisterIn) (*api.WriteRegisterOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	cmd := fmt.Sprintf("-interpreter-exec console \"set $%s = %s\"", in.Register, in.Value)
	result, err := sess.Bridge.Command(cmd, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	return &api.WriteRegisterOut{Name: in.Name, Register: in.Register, Value: in.Value}, nil
}

// ReadMemory reads target memory and formats it as hex or as little-endian
// 8/16/32-bit words.
func (d *Debugger) ReadMemory(in api.ReadMemoryIn) (*api.ReadMemoryOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	raw, err := readMemoryBytes(sess.Bridge, in.Address, in.Length)
	if err != nil {
		return nil, err
	}
	format := in.Format
	if format == "" {
		format = "hex"
	}
	out := &api.ReadMemoryOut{Name: in.Name, Address: in.Address, Length: len(raw), Format: format}
	switch format {
	case "u8":
		for _, b := range raw {
			out.Values = append(out.Values, uint64(b))
		}
	case "u16":
		for i := 0; i+2 <= len(raw); i += 2 {
			out.Values = append(out.Values, uint64(binary.LittleEndian.Uint16(raw[i:])))
		}
	case "u32":
		for i := 0; i+4 <= len(raw); i += 4 {
			out.Values = append(out.Values, uint64(binary.LittleEndian.Uint32(raw[i:])))
		}
	case "hex":
		out.Hex = hex.EncodeToString(raw)
	default:
		return nil, fmt.Errorf("unknown memory format %q", in.Format)
	}
	return out, nil
}

// readMemoryBytes reads raw bytes, concatenating the hex contents of every
// region GDB returns.
func readMemoryBytes(bridge commander, address string, length int) ([]byte, error) {
	result, err := bridge.Command(fmt.Sprintf("-data-read-memory-bytes %s %d", address, length), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected memory read payload")
	}
	regions := mi.Tuples(mi.List(payload, "memory"))
	if len(regions) == 0 {
		return nil, fmt.Errorf("no memory data returned")
	}
	var sb strings.Builder
	for _, region := range regions {
		sb.WriteString(mi.String(region, "contents"))
	}
	raw, err := hex.DecodeString(sb.String())
	if err != nil {
		return nil, fmt.Errorf("bad memory contents: %v", err)
	}
	return raw, nil
}

// WriteMemory writes a hex byte string to target memory.
func (d *Debugger) WriteMemory(in api.WriteMemoryIn) (*api.WriteMemoryOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	clean := strings.NewReplacer("0x", "", " ", "").Replace(in.Data)
	if _, err := hex.DecodeString(clean); err != nil {
		return nil, fmt.Errorf("bad hex data: %v", err)
	}
	result, err := sess.Bridge.Command(fmt.Sprintf("-data-write-memory-bytes %s %s", in.Address, clean), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	return &api.WriteMemoryOut{Name: in.Name, Address: in.Address, BytesWritten: len(clean) / 2}, nil
}

// Backtrace reads the call stack.
func (d *Debugger) Backtrace(in api.BacktraceIn) (*api.BacktraceOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	max := in.MaxFrames
	if max <= 0 {
		max = maxFramesDefault
	}
	frames, err := readBacktrace(sess.Bridge, max)
	if err != nil {
		return nil, err
	}
	return &api.BacktraceOut{Name: in.Name, Frames: frames, Depth: len(frames)}, nil
}

func readBacktrace(bridge commander, max int) ([]api.StackFrame, error) {
	result, err := bridge.Command(fmt.Sprintf("-stack-list-frames 0 %d", max-1), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected backtrace payload")
	}
	var frames []api.StackFrame
	for _, entry := range mi.Tuples(mi.List(payload, "stack")) {
		frame := mi.ParseFrame(entry)
		level := mi.Int(entry, "level")
		frames = append(frames, api.StackFrame{Level: level, Frame: *apiFrame(frame)})
	}
	return frames, nil
}

// Locals lists local variables in the current frame.
func (d *Debugger) Locals(in api.LocalsIn) (*api.LocalsOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	variables, err := readLocals(sess.Bridge)
	if err != nil {
		return nil, err
	}
	return &api.LocalsOut{Name: in.Name, Variables: variables}, nil
}

func readLocals(bridge commander) ([]api.Variable, error) {
	result, err := bridge.Command("-stack-list-variables --all-values", defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected locals payload")
	}
	var variables []api.Variable
	for _, entry := range mi.Tuples(mi.List(payload, "variables")) {
		variables = append(variables, api.Variable{
			Name:  mi.String(entry, "name"),
			Value: mi.String(entry, "value"),
		})
	}
	return variables, nil
}

// Eval evaluates a C expression in the target context.
func (d *Debugger) Eval(in api.EvalIn) (*api.EvalOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	escaped := strings.ReplaceAll(in.Expression, `"`, `\"`)
	result, err := sess.Bridge.Command(fmt.Sprintf("-data-evaluate-expression \"%s\"", escaped), defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected expression payload")
	}
	return &api.EvalOut{Name: in.Name, Expression: in.Expression, Value: mi.String(payload, "value")}, nil
}

// Disassemble disassembles instructions starting at an address, or at the
// current program counter when no address is given.
func (d *Debugger) Disassemble(in api.DisassembleIn) (*api.DisassembleOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	start := in.Address
	if start == "" {
		start = "$pc"
	}
	count := in.Count
	if count <= 0 {
		count = 10
	}
	// Thumb-2 instructions are 2 or 4 bytes; 4*count over-fetches a
	// little, the result is truncated to count below.
	cmd := fmt.Sprintf("-data-disassemble -s %s -e %s+%d -- 0", start, start, count*4)
	result, err := sess.Bridge.Command(cmd, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	payload, ok := result.Payload.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("unexpected disassembly payload")
	}
	out := &api.DisassembleOut{Name: in.Name, Start: start}
	for _, insn := range mi.Tuples(mi.List(payload, "asm_insns")) {
		if len(out.Instructions) == count {
			break
		}
		out.Instructions = append(out.Instructions, api.Instruction{
			Address: mi.String(insn, "address"),
			Func:    mi.String(insn, "func-name"),
			Offset:  mi.String(insn, "offset"),
			Inst:    mi.String(insn, "inst"),
		})
	}
	return out, nil
}
