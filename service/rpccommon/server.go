// Package rpccommon serves the debugger operations as JSON-RPC over a TCP
// listener.
package rpccommon

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"

	"github.com/sirupsen/logrus"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
	"github.com/soundbytelabs/sbl-debugger-mcp/service"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/debugger"
)

// ServerImpl implements a JSON-RPC server over the debugger.
type ServerImpl struct {
	config   *service.Config
	listener net.Listener
	stopChan chan struct{}
	debugger *debugger.Debugger
	log      *logrus.Entry
}

// NewServer creates a JSON-RPC server for a debugger.
func NewServer(config *service.Config) *ServerImpl {
	return &ServerImpl{
		config:   config,
		listener: config.Listener,
		stopChan: make(chan struct{}),
		debugger: config.Debugger,
		log:      logflags.RPCLogger(),
	}
}

// Run accepts connections until Stop is called, serving each one on its
// own goroutine. Sessions are shared across connections; per-session
// serialization happens in the MI bridge.
func (s *ServerImpl) Run() error {
	rpcs := rpc.NewServer()
	if err := rpcs.RegisterName("RPCServer", &RPCServer{s.debugger}); err != nil {
		return err
	}
	s.log.Infof("listening on %s", s.listener.Addr())
	for {
		c, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.stopChan:
				return nil
			default:
				return err
			}
		}
		go rpcs.ServeCodec(jsonrpc.NewServerCodec(c))
	}
}

// Stop closes the listener and tears down every live session.
func (s *ServerImpl) Stop() error {
	close(s.stopChan)
	s.listener.Close()
	s.debugger.Registry().DetachAll()
	return nil
}

// RPCServer adapts the debugger's methods to the net/rpc calling
// convention.
type RPCServer struct {
	d *debugger.Debugger
}
