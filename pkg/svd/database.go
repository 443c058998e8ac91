package svd

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/derekparker/trie"
)

// DecodedField is a single bitfield extracted from a raw register value.
type DecodedField struct {
	Name        string `json:"name"`
	Value       uint64 `json:"value"`
	Bits        string `json:"bits"` // e.g. "[13:12]"
	Width       uint   `json:"width"`
	Access      string `json:"access,omitempty"`
	Description string `json:"description,omitempty"`
}

// DecodedRegister is a register value with all bitfields extracted, in
// declared order.
type DecodedRegister struct {
	Peripheral string         `json:"peripheral"`
	Register   string         `json:"register"`
	Address    uint64         `json:"-"`
	Raw        uint64         `json:"-"`
	Fields     []DecodedField `json:"fields"`
}

// UnknownNameError reports a failed peripheral or register lookup with a
// bounded list of candidate names.
type UnknownNameError struct {
	Kind       string // "peripheral" or "register"
	Name       string
	Context    string // owning peripheral for register lookups
	Suggestion []string
}

func (e *UnknownNameError) Error() string {
	where := ""
	if e.Context != "" {
		where = " in " + e.Context
	}
	return fmt.Sprintf("unknown %s %q%s, did you mean: %s", e.Kind, e.Name, where, strings.Join(e.Suggestion, ", "))
}

const maxSuggestions = 10

type addrEntry struct {
	addr uint64
	p    *Peripheral
	r    *Register
}

// Database indexes a parsed Device for name and address lookup. It is
// immutable after construction and safe for concurrent use.
type Database struct {
	device *Device
	byName map[string]*Peripheral
	names  *trie.Trie // upper-cased peripheral names, for suggestions
	byAddr []addrEntry
}

// NewDatabase builds lookup indexes over a parsed device: an upper-cased
// name map for case-insensitive lookup and an address-sorted slice for
// binary search from an absolute address to its owning register.
func NewDatabase(dev *Device) *Database {
	db := &Database{
		device: dev,
		byName: make(map[string]*Peripheral, len(dev.Peripherals)),
		names:  trie.New(),
	}
	for _, p := range dev.Peripherals {
		upper := strings.ToUpper(p.Name)
		db.byName[upper] = p
		db.names.Add(upper, p)
		for _, r := range p.Registers {
			db.byAddr = append(db.byAddr, addrEntry{addr: p.BaseAddress + r.Offset, p: p, r: r})
		}
	}
	sort.Slice(db.byAddr, func(i, j int) bool { return db.byAddr[i].addr < db.byAddr[j].addr })
	return db
}

// DeviceName returns the device's name from the hardware description.
func (db *Database) DeviceName() string {
	return db.device.Name
}

// Peripherals returns the peripherals in declared order, optionally
// filtered by a case-insensitive regular expression on the name.
func (db *Database) Peripherals(filter string) ([]*Peripheral, error) {
	if filter == "" {
		return db.device.Peripherals, nil
	}
	re, err := regexp.Compile("(?i)" + filter)
	if err != nil {
		return nil, fmt.Errorf("bad filter %q: %v", filter, err)
	}
	var out []*Peripheral
	for _, p := range db.device.Peripherals {
		if re.MatchString(p.Name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// Peripheral looks a peripheral up by name, case-insensitively.
func (db *Database) Peripheral(name string) (*Peripheral, error) {
	upper := strings.ToUpper(name)
	if p, ok := db.byName[upper]; ok {
		return p, nil
	}
	return nil, &UnknownNameError{Kind: "peripheral", Name: name, Suggestion: db.suggest(upper)}
}

// Register looks a register up within a peripheral, case-insensitively.
func (db *Database) Register(p *Peripheral, name string) (*Register, error) {
	upper := strings.ToUpper(name)
	for _, r := range p.Registers {
		if strings.ToUpper(r.Name) == upper {
			return r, nil
		}
	}
	candidates := make([]string, 0, len(p.Registers))
	for _, r := range p.Registers {
		candidates = append(candidates, r.Name)
	}
	if len(candidates) > maxSuggestions {
		candidates = candidates[:maxSuggestions]
	}
	return nil, &UnknownNameError{Kind: "register", Name: name, Context: p.Name, Suggestion: candidates}
}

// RegisterAddress returns the absolute memory address of a register.
func (db *Database) RegisterAddress(peripheral, register string) (uint64, error) {
	p, err := db.Peripheral(peripheral)
	if err != nil {
		return 0, err
	}
	r, err := db.Register(p, register)
	if err != nil {
		return 0, err
	}
	return p.BaseAddress + r.Offset, nil
}

// DecodeRegister decodes a raw register value into named bitfields,
// preserving field declaration order.
func (db *Database) DecodeRegister(peripheral, register string, raw uint64) (*DecodedRegister, error) {
	p, err := db.Peripheral(peripheral)
	if err != nil {
		return nil, err
	}
	r, err := db.Register(p, register)
	if err != nil {
		return nil, err
	}

	decoded := &DecodedRegister{
		Peripheral: p.Name,
		Register:   r.Name,
		Address:    p.BaseAddress + r.Offset,
		Raw:        raw,
	}
	for _, f := range r.Fields {
		mask := uint64(1)<<f.Width - 1
		decoded.Fields = append(decoded.Fields, DecodedField{
			Name:        f.Name,
			Value:       raw >> f.Offset & mask,
			Bits:        f.BitRange(),
			Width:       f.Width,
			Access:      f.Access,
			Description: f.Description,
		})
	}
	return decoded, nil
}

// LookupAddress finds the peripheral/register pair owning an absolute
// address. Exact match only; addresses between registers report not found.
func (db *Database) LookupAddress(addr uint64) (peripheral, register string, ok bool) {
	i := sort.Search(len(db.byAddr), func(i int) bool { return db.byAddr[i].addr >= addr })
	if i < len(db.byAddr) && db.byAddr[i].addr == addr {
		return db.byAddr[i].p.Name, db.byAddr[i].r.Name, true
	}
	return "", "", false
}

// suggest returns up to maxSuggestions candidate peripheral names, prefix
// matches first, then sorted names to fill.
func (db *Database) suggest(upper string) []string {
	out := db.names.PrefixSearch(upper)
	if len(upper) > 2 && len(out) == 0 {
		out = db.names.PrefixSearch(upper[:2])
	}
	sort.Strings(out)
	if len(out) < maxSuggestions {
		all := make([]string, 0, len(db.byName))
		for name := range db.byName {
			all = append(all, name)
		}
		sort.Strings(all)
		for _, name := range all {
			if len(out) >= maxSuggestions {
				break
			}
			if !contains(out, name) {
				out = append(out, name)
			}
		}
	}
	if len(out) > maxSuggestions {
		out = out[:maxSuggestions]
	}
	return out
}

func contains(list []string, s string) bool {
	for _, el := range list {
		if el == s {
			return true
		}
	}
	return false
}
