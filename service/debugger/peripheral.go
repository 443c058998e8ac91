package debugger

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/session"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/svd"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// bulkReadLimit is the register-block span above which a peripheral is
// read register by register instead of in one bulk memory read.
const bulkReadLimit = 4096

// ensureDB returns the session's peripheral database, loading and caching
// it on first use.
func (d *Debugger) ensureDB(sess *session.Session) (*svd.Database, error) {
	if db := sess.PeripheralDB(); db != nil {
		return db, nil
	}
	if sess.MCU == "" {
		return nil, fmt.Errorf("no MCU defined for target %q; peripheral decoding needs a hardware description", sess.Target)
	}
	db, err := d.loader.Load(sess.MCU)
	if err != nil {
		return nil, err
	}
	if db == nil {
		root := os.Getenv("SBL_HW_PATH")
		if root == "" {
			root = "(not set)"
		}
		return nil, fmt.Errorf("no hardware description for MCU %q: check that SBL_HW_PATH=%s contains mcu/arm/%s/cecrops.json and .cache/*.svd",
			sess.MCU, root, sess.MCU)
	}
	d.log.Debugf("loaded hardware description %s for session %q", db.DeviceName(), sess.Name)
	sess.SetPeripheralDB(db)
	return db, nil
}

// ListPeripherals lists the target's peripherals from its hardware
// description, optionally filtered by a case-insensitive regexp.
func (d *Debugger) ListPeripherals(in api.ListPeripheralsIn) (*api.ListPeripheralsOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	db, err := d.ensureDB(sess)
	if err != nil {
		return nil, err
	}
	peripherals, err := db.Peripherals(in.Filter)
	if err != nil {
		return nil, err
	}
	out := &api.ListPeripheralsOut{Name: in.Name, Device: db.DeviceName(), Count: len(peripherals)}
	for _, p := range peripherals {
		out.Peripherals = append(out.Peripherals, api.PeripheralInfo{
			Name:          p.Name,
			BaseAddress:   fmt.Sprintf("0x%08X", p.BaseAddress),
			Group:         p.Group,
			Description:   p.Description,
			RegisterCount: len(p.Registers),
		})
	}
	return out, nil
}

// ListRegisters lists the register and field definitions of one
// peripheral. Pure metadata; nothing is read from the target.
func (d *Debugger) ListRegisters(in api.ListRegistersIn) (*api.ListRegistersOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	db, err := d.ensureDB(sess)
	if err != nil {
		return nil, err
	}
	p, err := db.Peripheral(in.Peripheral)
	if err != nil {
		return nil, err
	}
	out := &api.ListRegistersOut{Name: in.Name, Peripheral: p.Name, Count: len(p.Registers)}
	for _, r := range p.Registers {
		def := api.RegisterDef{
			Name:        r.Name,
			Address:     fmt.Sprintf("0x%08X", p.BaseAddress+r.Offset),
			Offset:      fmt.Sprintf("0x%02X", r.Offset),
			Size:        r.Size,
			Access:      r.Access,
			Description: r.Description,
		}
		for _, f := range r.Fields {
			def.Fields = append(def.Fields, api.FieldDef{
				Name:        f.Name,
				Bits:        f.BitRange(),
				Width:       f.Width,
				Access:      f.Access,
				Description: f.Description,
			})
		}
		out.Registers = append(out.Registers, def)
	}
	return out, nil
}

// ReadPeripheralRegister reads one peripheral register from target memory
// and decodes its bitfields.
func (d *Debugger) ReadPeripheralRegister(in api.ReadPeripheralRegisterIn) (*api.ReadPeripheralRegisterOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	db, err := d.ensureDB(sess)
	if err != nil {
		return nil, err
	}
	p, err := db.Peripheral(in.Peripheral)
	if err != nil {
		return nil, err
	}
	r, err := db.Register(p, in.Register)
	if err != nil {
		return nil, err
	}
	addr := p.BaseAddress + r.Offset
	raw, err := readMemoryBytes(sess.Bridge, fmt.Sprintf("0x%08X", addr), int(r.Size/8))
	if err != nil {
		return nil, err
	}
	dec, err := db.DecodeRegister(p.Name, r.Name, wordValue(raw))
	if err != nil {
		return nil, err
	}
	return &api.ReadPeripheralRegisterOut{
		Name:            in.Name,
		Peripheral:      p.Name,
		DecodedRegister: apiDecoded(dec),
	}, nil
}

// ReadPeripheral reads and decodes every register of a peripheral.
//
// Compact register blocks (span of bulkReadLimit bytes or less) are
// fetched in a single memory read; sparse layouts fall back to one read
// per register, skipping registers that fail to read so one bad register
// does not lose the rest of the snapshot.
func (d *Debugger) ReadPeripheral(in api.ReadPeripheralIn) (*api.ReadPeripheralOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	db, err := d.ensureDB(sess)
	if err != nil {
		return nil, err
	}
	p, err := db.Peripheral(in.Peripheral)
	if err != nil {
		return nil, err
	}
	out := &api.ReadPeripheralOut{
		Name:        in.Name,
		Peripheral:  p.Name,
		BaseAddress: fmt.Sprintf("0x%08X", p.BaseAddress),
	}
	if len(p.Registers) == 0 {
		return out, nil
	}

	out.Registers, err = readPeripheralBlock(sess.Bridge, db, p)
	if err != nil {
		return nil, err
	}
	out.Count = len(out.Registers)
	return out, nil
}

func readPeripheralBlock(bridge commander, db *svd.Database, p *svd.Peripheral) ([]api.DecodedRegister, error) {
	firstOffset := p.Registers[0].Offset
	last := p.Registers[len(p.Registers)-1]
	span := last.Offset + uint64(last.Size/8) - firstOffset

	var registers []api.DecodedRegister
	if span <= bulkReadLimit {
		bulk, err := readMemoryBytes(bridge, fmt.Sprintf("0x%08X", p.BaseAddress+firstOffset), int(span))
		if err != nil {
			return nil, err
		}
		for _, r := range p.Registers {
			at := r.Offset - firstOffset
			size := uint64(r.Size / 8)
			if at+size > uint64(len(bulk)) {
				continue
			}
			dec, err := db.DecodeRegister(p.Name, r.Name, wordValue(bulk[at:at+size]))
			if err != nil {
				return nil, err
			}
			registers = append(registers, apiDecoded(dec))
		}
		return registers, nil
	}

	for _, r := range p.Registers {
		raw, err := readMemoryBytes(bridge, fmt.Sprintf("0x%08X", p.BaseAddress+r.Offset), int(r.Size/8))
		if err != nil {
			// unreadable register, keep going
			continue
		}
		dec, err := db.DecodeRegister(p.Name, r.Name, wordValue(raw))
		if err != nil {
			return nil, err
		}
		registers = append(registers, apiDecoded(dec))
	}
	return registers, nil
}

// wordValue interprets raw bytes as one little-endian register value.
func wordValue(raw []byte) uint64 {
	switch {
	case len(raw) >= 4:
		return uint64(binary.LittleEndian.Uint32(raw))
	case len(raw) >= 2:
		return uint64(binary.LittleEndian.Uint16(raw))
	case len(raw) == 1:
		return uint64(raw[0])
	}
	return 0
}

func apiDecoded(dec *svd.DecodedRegister) api.DecodedRegister {
	out := api.DecodedRegister{
		Register: dec.Register,
		Address:  fmt.Sprintf("0x%08X", dec.Address),
		Raw:      fmt.Sprintf("0x%08X", dec.Raw),
	}
	for _, f := range dec.Fields {
		out.Fields = append(out.Fields, api.DecodedField{
			Name:        f.Name,
			Value:       f.Value,
			Bits:        f.Bits,
			Access:      f.Access,
			Description: f.Description,
		})
	}
	return out
}
