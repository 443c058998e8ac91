// Package ports finds free TCP ports for the OpenOCD listeners.
//
// OpenOCD's GDB server conventionally lives at 3333 and its Tcl control
// channel at 6666. Each concurrent session needs its own pair, so both
// ranges are scanned for the first port that can still be bound.
package ports

import (
	"fmt"
	"net"
)

const (
	// DefaultGDBPort is OpenOCD's conventional GDB server port.
	DefaultGDBPort = 3333
	// DefaultControlPort is OpenOCD's conventional Tcl control port.
	DefaultControlPort = 6666

	portRangeSlots = 10
)

// FindGDBPort returns an available port for the GDB server, scanning
// upwards from DefaultGDBPort.
func FindGDBPort() (int, error) {
	return findInRange(DefaultGDBPort, DefaultGDBPort+portRangeSlots)
}

// FindControlPort returns an available port for the Tcl control channel,
// scanning upwards from DefaultControlPort.
func FindControlPort() (int, error) {
	return findInRange(DefaultControlPort, DefaultControlPort+portRangeSlots)
}

func findInRange(start, end int) (int, error) {
	for port := start; port <= end; port++ {
		if available(port) {
			return port, nil
		}
	}
	return 0, fmt.Errorf("no available port in range %d-%d", start, end)
}

// available reports whether a TCP port can be bound on the loopback
// interface. The probe listener is closed immediately; the caller is
// expected to hand the port to OpenOCD promptly.
func available(port int) bool {
	l, err := net.ListenTCP("tcp", &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: port})
	if err != nil {
		return false
	}
	l.Close()
	return true
}
