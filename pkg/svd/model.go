// Package svd loads CMSIS-SVD hardware descriptions and turns raw memory
// reads into named, bit-decoded register values.
package svd

import "fmt"

// Device is the root of a parsed hardware description.
type Device struct {
	Name        string
	Peripherals []*Peripheral
}

// Peripheral is one memory-mapped peripheral block.
type Peripheral struct {
	Name        string
	BaseAddress uint64
	Group       string
	Description string
	Registers   []*Register
}

// Register is one register within a peripheral, at a byte offset from the
// peripheral's base address.
type Register struct {
	Name        string
	Offset      uint64
	Size        uint // in bits
	Access      string
	Description string
	Fields      []*Field
}

// Field is a bitfield within a register. Declared order is preserved.
type Field struct {
	Name        string
	Offset      uint // lsb position
	Width       uint // in bits
	Access      string
	Description string
}

// BitRange renders the field position the way reference manuals do:
// "[5]" for single-bit fields, "[msb:lsb]" otherwise.
func (f *Field) BitRange() string {
	if f.Width == 1 {
		return fmt.Sprintf("[%d]", f.Offset)
	}
	return fmt.Sprintf("[%d:%d]", f.Offset+f.Width-1, f.Offset)
}
