package debugger

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/svd"
)

// memBridge counts memory reads and answers them with synthetic contents.
type memBridge struct {
	reads    []string
	contents func(addr string, length int) (string, bool)
}

func (m *memBridge) Command(text string, timeout time.Duration) (*mi.Result, error) {
	var addr string
	var length int
	if _, err := fmt.Sscanf(text, "-data-read-memory-bytes %s %d", &addr, &length); err != nil {
		return nil, fmt.Errorf("unexpected command %q", text)
	}
	m.reads = append(m.reads, text)
	hexData, ok := m.contents(addr, length)
	if !ok {
		return &mi.Result{Message: "error", Payload: map[string]interface{}{"msg": "Cannot access memory at address " + addr}}, nil
	}
	return &mi.Result{
		Message: "done",
		Payload: map[string]interface{}{
			"memory": []interface{}{
				map[string]interface{}{"begin": addr, "contents": hexData, "end": addr},
			},
		},
	}, nil
}

func (m *memBridge) Monitor(command string, timeout time.Duration) (*mi.Result, error) {
	return nil, fmt.Errorf("not implemented")
}
func (m *memBridge) DrainEvents() []mi.Record               { return nil }
func (m *memBridge) WaitForStop(timeout time.Duration) *mi.StopEvent { return nil }

func allOnes(addr string, length int) (string, bool) {
	return strings.Repeat("11", length), true
}

func periphDB(base uint64, regs ...*svd.Register) (*svd.Database, *svd.Peripheral) {
	p := &svd.Peripheral{Name: "TP", BaseAddress: base, Registers: regs}
	db := svd.NewDatabase(&svd.Device{Name: "TEST", Peripherals: []*svd.Peripheral{p}})
	return db, p
}

func reg(name string, offset uint64) *svd.Register {
	return &svd.Register{Name: name, Offset: offset, Size: 32, Access: "read-write"}
}

func TestReadPeripheralCompactUsesOneRead(t *testing.T) {
	db, p := periphDB(0x40000000, reg("CR", 0x0), reg("SR", 0x4), reg("DR", 0x8))
	bridge := &memBridge{contents: allOnes}

	registers, err := readPeripheralBlock(bridge, db, p)
	if err != nil {
		t.Fatalf("readPeripheralBlock: %v", err)
	}
	if len(bridge.reads) != 1 {
		t.Fatalf("compact block issued %d reads, want 1: %v", len(bridge.reads), bridge.reads)
	}
	if len(registers) != 3 {
		t.Fatalf("decoded %d registers, want 3", len(registers))
	}
	for _, r := range registers {
		if r.Raw != "0x11111111" {
			t.Errorf("register %s raw = %s", r.Register, r.Raw)
		}
	}
}

func TestReadPeripheralSparseReadsPerRegister(t *testing.T) {
	// span > 4096 forces one read per register
	db, p := periphDB(0x40000000, reg("CR", 0x0), reg("FAR", 0x2000))
	bridge := &memBridge{contents: allOnes}

	registers, err := readPeripheralBlock(bridge, db, p)
	if err != nil {
		t.Fatalf("readPeripheralBlock: %v", err)
	}
	if len(bridge.reads) != 2 {
		t.Fatalf("sparse block issued %d reads, want 2: %v", len(bridge.reads), bridge.reads)
	}
	if len(registers) != 2 {
		t.Fatalf("decoded %d registers, want 2", len(registers))
	}
}

func TestReadPeripheralSparseSkipsUnreadable(t *testing.T) {
	db, p := periphDB(0x40000000, reg("CR", 0x0), reg("BAD", 0x2000), reg("SR", 0x4000))
	bridge := &memBridge{contents: func(addr string, length int) (string, bool) {
		if addr == "0x40002000" {
			return "", false
		}
		return allOnes(addr, length)
	}}

	registers, err := readPeripheralBlock(bridge, db, p)
	if err != nil {
		t.Fatalf("readPeripheralBlock: %v", err)
	}
	if len(registers) != 2 {
		t.Fatalf("decoded %d registers, want 2 (BAD skipped)", len(registers))
	}
	for _, r := range registers {
		if r.Register == "BAD" {
			t.Error("unreadable register was not skipped")
		}
	}
}

func TestReadPeripheralRegisterValueDecode(t *testing.T) {
	db, p := periphDB(0x40000000, &svd.Register{
		Name: "CR", Offset: 0, Size: 32, Access: "read-write",
		Fields: []*svd.Field{
			{Name: "EN", Offset: 0, Width: 1},
			{Name: "MODE", Offset: 4, Width: 4},
		},
	})
	bridge := &memBridge{contents: func(addr string, length int) (string, bool) {
		return "78563412", true // little-endian 0x12345678
	}}

	registers, err := readPeripheralBlock(bridge, db, p)
	if err != nil {
		t.Fatalf("readPeripheralBlock: %v", err)
	}
	if registers[0].Raw != "0x12345678" {
		t.Fatalf("raw = %s, want 0x12345678", registers[0].Raw)
	}
	fields := registers[0].Fields
	if fields[0].Value != 0 { // bit 0 of 0x12345678
		t.Errorf("EN = %d, want 0", fields[0].Value)
	}
	if fields[1].Value != 0x7 { // bits [7:4]
		t.Errorf("MODE = %#x, want 0x7", fields[1].Value)
	}
}
