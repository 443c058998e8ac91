package svd

import (
	"encoding/json"
	"fmt"
	"os"
)

// Manifest is the per-MCU cecrops.json manifest sitting next to the cached
// SVD file. Patches carry vendor errata fixes that the upstream SVD gets
// wrong.
type Manifest struct {
	SchemaVersion string                     `json:"schemaVersion"`
	MCU           string                     `json:"mcu"`
	Patches       map[string]PeripheralPatch `json:"patches,omitempty"`
}

// PeripheralPatch holds errata corrections for one peripheral, keyed by
// register name.
type PeripheralPatch struct {
	Description string                   `json:"description,omitempty"`
	Registers   map[string]RegisterPatch `json:"registers,omitempty"`
}

// RegisterPatch corrects or removes a single register.
type RegisterPatch struct {
	Delete      bool   `json:"delete,omitempty"`
	Description string `json:"description,omitempty"`
	Access      string `json:"access,omitempty"`
}

// LoadManifest reads and decodes a cecrops.json manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("bad manifest %s: %v", path, err)
	}
	return &m, nil
}

// Apply rewrites the device in place according to the manifest's patches.
// Patches naming a peripheral or register the device does not have are
// errors: a stale patch hides real problems in the hardware description.
func (m *Manifest) Apply(dev *Device) error {
	for pname, pp := range m.Patches {
		p := findPeripheral(dev, pname)
		if p == nil {
			return fmt.Errorf("patch targets unknown peripheral %s", pname)
		}
		for rname, rp := range pp.Registers {
			if rp.Delete {
				if !deleteRegister(p, rname) {
					return fmt.Errorf("patch deletes unknown register %s.%s", pname, rname)
				}
				continue
			}
			r := findRegister(p, rname)
			if r == nil {
				return fmt.Errorf("patch targets unknown register %s.%s", pname, rname)
			}
			if rp.Description != "" {
				r.Description = rp.Description
			}
			if rp.Access != "" {
				r.Access = rp.Access
			}
		}
	}
	return nil
}

func findPeripheral(dev *Device, name string) *Peripheral {
	for _, p := range dev.Peripherals {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func findRegister(p *Peripheral, name string) *Register {
	for _, r := range p.Registers {
		if r.Name == name {
			return r
		}
	}
	return nil
}

func deleteRegister(p *Peripheral, name string) bool {
	for i, r := range p.Registers {
		if r.Name == name {
			p.Registers = append(p.Registers[:i], p.Registers[i+1:]...)
			return true
		}
	}
	return false
}
