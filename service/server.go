package service

import (
	"net"

	"github.com/soundbytelabs/sbl-debugger-mcp/service/debugger"
)

// Server exposes the debugger over a transport.
type Server interface {
	Run() error
	Stop() error
}

// Config is everything a server needs to run.
type Config struct {
	// Listener accepts client connections.
	Listener net.Listener
	// Debugger is the operation surface to expose.
	Debugger *debugger.Debugger
}
