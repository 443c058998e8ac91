package svd

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// SVD numeric literals may be decimal, 0x hex, or #-prefixed binary.
func parseNum(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if strings.HasPrefix(s, "#") {
		return strconv.ParseUint(strings.ReplaceAll(s[1:], "x", "0"), 2, 64)
	}
	return strconv.ParseUint(s, 0, 64)
}

type xmlDevice struct {
	XMLName     xml.Name        `xml:"device"`
	Name        string          `xml:"name"`
	Size        string          `xml:"size"`
	Access      string          `xml:"access"`
	Peripherals []xmlPeripheral `xml:"peripherals>peripheral"`
}

type xmlPeripheral struct {
	DerivedFrom string        `xml:"derivedFrom,attr"`
	Name        string        `xml:"name"`
	GroupName   string        `xml:"groupName"`
	Description string        `xml:"description"`
	BaseAddress string        `xml:"baseAddress"`
	Registers   []xmlRegister `xml:"registers>register"`
}

type xmlRegister struct {
	Name          string     `xml:"name"`
	Description   string     `xml:"description"`
	AddressOffset string     `xml:"addressOffset"`
	Size          string     `xml:"size"`
	Access        string     `xml:"access"`
	Fields        []xmlField `xml:"fields>field"`
}

type xmlField struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	Access      string `xml:"access"`
	BitOffset   string `xml:"bitOffset"`
	BitWidth    string `xml:"bitWidth"`
	BitRange    string `xml:"bitRange"`
	Lsb         string `xml:"lsb"`
	Msb         string `xml:"msb"`
}

// ParseFile parses a CMSIS-SVD file from disk.
func ParseFile(path string) (*Device, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	dev, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %v", path, err)
	}
	return dev, nil
}

// Parse parses a CMSIS-SVD document.
//
// derivedFrom on a peripheral copies the register block of the base
// peripheral (the GPIOB-from-GPIOA pattern); device-level size and access
// act as defaults for registers that do not declare their own.
func Parse(r io.Reader) (*Device, error) {
	var xdev xmlDevice
	dec := xml.NewDecoder(r)
	if err := dec.Decode(&xdev); err != nil {
		return nil, fmt.Errorf("svd decode failed: %v", err)
	}

	defaultSize := uint64(32)
	if xdev.Size != "" {
		n, err := parseNum(xdev.Size)
		if err != nil {
			return nil, fmt.Errorf("bad device size %q: %v", xdev.Size, err)
		}
		defaultSize = n
	}
	defaultAccess := xdev.Access
	if defaultAccess == "" {
		defaultAccess = "read-write"
	}

	dev := &Device{Name: xdev.Name}
	byName := make(map[string]*Peripheral)

	for i := range xdev.Peripherals {
		xp := &xdev.Peripherals[i]
		base, err := parseNum(xp.BaseAddress)
		if err != nil {
			return nil, fmt.Errorf("peripheral %s: bad baseAddress %q: %v", xp.Name, xp.BaseAddress, err)
		}
		p := &Peripheral{
			Name:        xp.Name,
			BaseAddress: base,
			Group:       xp.GroupName,
			Description: cleanText(xp.Description),
		}

		switch {
		case len(xp.Registers) > 0:
			for j := range xp.Registers {
				reg, err := parseRegister(&xp.Registers[j], defaultSize, defaultAccess)
				if err != nil {
					return nil, fmt.Errorf("peripheral %s: %v", xp.Name, err)
				}
				p.Registers = append(p.Registers, reg)
			}
			// SVD does not promise declaration order; block reads rely
			// on registers being ordered by offset.
			sort.Slice(p.Registers, func(a, b int) bool {
				return p.Registers[a].Offset < p.Registers[b].Offset
			})
		case xp.DerivedFrom != "":
			src, ok := byName[xp.DerivedFrom]
			if !ok {
				return nil, fmt.Errorf("peripheral %s: derivedFrom %q not defined", xp.Name, xp.DerivedFrom)
			}
			// copy the slice so a later patch on one peripheral cannot
			// reshape its siblings
			p.Registers = append([]*Register(nil), src.Registers...)
			if p.Group == "" {
				p.Group = src.Group
			}
			if p.Description == "" {
				p.Description = src.Description
			}
		}

		dev.Peripherals = append(dev.Peripherals, p)
		byName[p.Name] = p
	}
	return dev, nil
}

func parseRegister(xr *xmlRegister, defaultSize uint64, defaultAccess string) (*Register, error) {
	offset, err := parseNum(xr.AddressOffset)
	if err != nil {
		return nil, fmt.Errorf("register %s: bad addressOffset %q: %v", xr.Name, xr.AddressOffset, err)
	}
	size := defaultSize
	if xr.Size != "" {
		if size, err = parseNum(xr.Size); err != nil {
			return nil, fmt.Errorf("register %s: bad size %q: %v", xr.Name, xr.Size, err)
		}
	}
	access := xr.Access
	if access == "" {
		access = defaultAccess
	}

	reg := &Register{
		Name:        xr.Name,
		Offset:      offset,
		Size:        uint(size),
		Access:      access,
		Description: cleanText(xr.Description),
	}
	for i := range xr.Fields {
		field, err := parseField(&xr.Fields[i], access)
		if err != nil {
			return nil, fmt.Errorf("register %s: %v", xr.Name, err)
		}
		reg.Fields = append(reg.Fields, field)
	}
	return reg, nil
}

// parseField accepts the three equivalent position encodings SVD allows:
// bitOffset+bitWidth, lsb+msb, or bitRange "[msb:lsb]".
func parseField(xf *xmlField, defaultAccess string) (*Field, error) {
	f := &Field{
		Name:        xf.Name,
		Access:      xf.Access,
		Description: cleanText(xf.Description),
	}
	if f.Access == "" {
		f.Access = defaultAccess
	}

	switch {
	case xf.BitOffset != "":
		offset, err := parseNum(xf.BitOffset)
		if err != nil {
			return nil, fmt.Errorf("field %s: bad bitOffset: %v", xf.Name, err)
		}
		width := uint64(1)
		if xf.BitWidth != "" {
			if width, err = parseNum(xf.BitWidth); err != nil {
				return nil, fmt.Errorf("field %s: bad bitWidth: %v", xf.Name, err)
			}
		}
		f.Offset, f.Width = uint(offset), uint(width)
	case xf.Lsb != "":
		lsb, err := parseNum(xf.Lsb)
		if err != nil {
			return nil, fmt.Errorf("field %s: bad lsb: %v", xf.Name, err)
		}
		msb := lsb
		if xf.Msb != "" {
			if msb, err = parseNum(xf.Msb); err != nil {
				return nil, fmt.Errorf("field %s: bad msb: %v", xf.Name, err)
			}
		}
		if msb < lsb {
			return nil, fmt.Errorf("field %s: msb %d below lsb %d", xf.Name, msb, lsb)
		}
		f.Offset, f.Width = uint(lsb), uint(msb-lsb+1)
	case xf.BitRange != "":
		rng := strings.Trim(xf.BitRange, "[]")
		parts := strings.SplitN(rng, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("field %s: bad bitRange %q", xf.Name, xf.BitRange)
		}
		msb, err1 := parseNum(parts[0])
		lsb, err2 := parseNum(parts[1])
		if err1 != nil || err2 != nil || msb < lsb {
			return nil, fmt.Errorf("field %s: bad bitRange %q", xf.Name, xf.BitRange)
		}
		f.Offset, f.Width = uint(lsb), uint(msb-lsb+1)
	default:
		return nil, fmt.Errorf("field %s: no bit position given", xf.Name)
	}
	return f, nil
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
