package debugger

import (
	"fmt"
	"time"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/mi"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/api"
)

// flashTimeout bounds the firmware download. Large images over a slow
// probe take a while.
const flashTimeout = 60 * time.Second

// Flash downloads firmware to the target: loads symbols, writes the image
// to flash, records the new firmware path on the session and leaves the
// target reset and halted.
func (d *Debugger) Flash(in api.FlashIn) (*api.FlashOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	elf := in.ELF
	if elf == "" {
		elf = sess.ELFPath()
	}
	if elf == "" {
		return nil, fmt.Errorf("no ELF path provided and none loaded in session %q", in.Name)
	}

	result, err := sess.Bridge.LoadSymbols(elf)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: "symbol load failed: " + result.ErrorMsg()}
	}

	result, err = sess.Bridge.Command("-target-download", flashTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: "download failed: " + result.ErrorMsg()}
	}

	out := &api.FlashOut{Name: in.Name, ELF: elf, Status: "flashed", State: api.StateHalted}
	if payload, ok := result.Payload.(map[string]interface{}); ok {
		out.TotalBytes = mi.Int(payload, "total-size")
		out.TransferRate = mi.String(payload, "transfer-rate")
		out.WriteRate = mi.String(payload, "write-rate")
	}
	if in.ELF != "" {
		sess.SetELFPath(in.ELF)
	}
	d.log.Infof("flashed %s to session %q (%d bytes)", elf, in.Name, out.TotalBytes)

	if _, err := sess.Bridge.Monitor("reset halt", defaultTimeout); err != nil {
		d.log.Warnf("reset halt after flash failed: %v", err)
	}
	sess.Bridge.DrainEvents()
	return out, nil
}

// Monitor passes a raw command through to the adapter via the debugger's
// console escape. An escape hatch for anything the typed operations do
// not cover ("flash banks", "arm semihosting enable", ...).
func (d *Debugger) Monitor(in api.MonitorIn) (*api.MonitorOut, error) {
	sess, err := d.registry.Get(in.Name)
	if err != nil {
		return nil, err
	}
	result, err := sess.Bridge.Monitor(in.Command, defaultTimeout)
	if err != nil {
		return nil, err
	}
	if result.IsError() {
		return nil, &CommandError{Msg: result.ErrorMsg()}
	}
	return &api.MonitorOut{Name: in.Name, Command: in.Command, Output: result.ConsoleOutput}, nil
}
