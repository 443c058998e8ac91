// Package targets holds the table of known hardware target profiles.
//
// A profile binds the OpenOCD interface and target configuration files
// needed to reach a board, plus the MCU name used to resolve its hardware
// description. Additional profiles can be merged in from the user config.
package targets

import (
	"fmt"
	"sort"
	"strings"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/config"
)

// Profile is the OpenOCD + GDB configuration for a known target.
type Profile struct {
	// Description of the board and probe.
	Description string `json:"description"`
	// Interface is the OpenOCD interface config (e.g. "stlink.cfg").
	Interface string `json:"interface"`
	// Target is the OpenOCD target config (e.g. "stm32h7x.cfg").
	Target string `json:"target"`
	// MCU names the part for hardware description lookup. Empty if no
	// description is available for the part.
	MCU string `json:"mcu,omitempty"`
}

var profiles = map[string]Profile{
	"daisy": {
		Description: "Daisy Seed (STM32H750) via ST-LINK V3",
		Interface:   "stlink.cfg",
		Target:      "stm32h7x.cfg",
		MCU:         "stm32h750",
	},
	"pico": {
		Description: "Raspberry Pi Pico (RP2040) via Debug Probe",
		Interface:   "cmsis-dap.cfg",
		Target:      "rp2040.cfg",
		MCU:         "rp2040",
	},
	"pico2": {
		Description: "Raspberry Pi Pico 2 (RP2350) via Debug Probe",
		Interface:   "cmsis-dap.cfg",
		Target:      "rp2350.cfg",
		MCU:         "rp2350",
	},
}

// Merge adds the profiles defined in the user config to the built-in table.
// A config profile with the name of a built-in profile replaces it.
func Merge(conf *config.Config) {
	if conf == nil {
		return
	}
	for _, p := range conf.Profiles {
		if p.Name == "" {
			continue
		}
		profiles[p.Name] = Profile{
			Description: p.Description,
			Interface:   p.Interface,
			Target:      p.Target,
			MCU:         p.MCU,
		}
	}
}

// Get looks up a target profile by name.
func Get(name string) (Profile, error) {
	p, ok := profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown target %q, available: %s", name, strings.Join(Names(), ", "))
	}
	return p, nil
}

// Names returns the sorted names of all known profiles.
func Names() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns a copy of the full profile table.
func All() map[string]Profile {
	out := make(map[string]Profile, len(profiles))
	for name, p := range profiles {
		out[name] = p
	}
	return out
}
