package adapter

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"time"
)

// tclTerminator frames commands and replies on OpenOCD's Tcl RPC channel.
const tclTerminator = 0x1a

// ControlCommand sends one command over OpenOCD's Tcl control channel and
// returns the reply.
//
// The connection is opened per call and closed immediately after: this path
// exists to reach the adapter when the GDB-side subprocess is unresponsive,
// so it must not depend on any long-lived state of its own.
func (p *Process) ControlCommand(command string, timeout time.Duration) (string, error) {
	addr := fmt.Sprintf("127.0.0.1:%d", p.cfg.ControlPort)
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return "", fmt.Errorf("could not reach openocd control port %d: %v", p.cfg.ControlPort, err)
	}
	defer conn.Close()
	conn.SetDeadline(time.Now().Add(timeout))

	p.log.Debugf("control command: %q", command)
	if _, err := conn.Write(append([]byte(command), tclTerminator)); err != nil {
		return "", fmt.Errorf("control command write failed: %v", err)
	}

	reply, err := bufio.NewReader(conn).ReadString(tclTerminator)
	if err != nil {
		return "", fmt.Errorf("control command read failed: %v", err)
	}
	reply = strings.TrimSuffix(reply, string(rune(tclTerminator)))
	p.log.Debugf("control reply: %q", reply)
	return strings.TrimSpace(reply), nil
}
