package logflags

import (
	"errors"
	"io"
	"log"
	"strings"

	"github.com/sirupsen/logrus"
)

var miWire = false
var adapter = false
var session = false
var svd = false
var rpc = false

func makeLogger(flag bool, fields logrus.Fields) *logrus.Entry {
	logger := logrus.New().WithFields(fields)
	logger.Logger.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	logger.Logger.Level = logrus.DebugLevel
	if !flag {
		logger.Logger.Level = logrus.PanicLevel
	}
	return logger
}

// MIWire returns true if the mi package should log every record exchanged
// with the GDB subprocess.
func MIWire() bool {
	return miWire
}

// MIWireLogger returns a configured logger for the GDB/MI wire protocol.
func MIWireLogger() *logrus.Entry {
	return makeLogger(miWire, logrus.Fields{"layer": "miwire"})
}

// Adapter returns true if the adapter package should log.
func Adapter() bool {
	return adapter
}

// AdapterLogger returns a logger for the OpenOCD adapter lifecycle.
func AdapterLogger() *logrus.Entry {
	return makeLogger(adapter, logrus.Fields{"layer": "adapter"})
}

// Session returns true if session registry operations should be logged.
func Session() bool {
	return session
}

// SessionLogger returns a logger for the session registry.
func SessionLogger() *logrus.Entry {
	return makeLogger(session, logrus.Fields{"layer": "session"})
}

// SVD returns true if hardware description loading should be logged.
func SVD() bool {
	return svd
}

// SVDLogger returns a logger for the peripheral database loader.
func SVDLogger() *logrus.Entry {
	return makeLogger(svd, logrus.Fields{"layer": "svd"})
}

// RPC returns true if RPC messages should be logged.
func RPC() bool {
	return rpc
}

// RPCLogger returns a logger for RPC messages.
func RPCLogger() *logrus.Entry {
	return makeLogger(rpc, logrus.Fields{"layer": "rpc"})
}

var errLogstrWithoutLog = errors.New("--log-output specified without --log")

// Setup sets logging flags based on the contents of logstr.
func Setup(logFlag bool, logstr string) error {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	if !logFlag {
		log.SetOutput(io.Discard)
		if logstr != "" {
			return errLogstrWithoutLog
		}
		return nil
	}
	if logstr == "" {
		logstr = "session"
	}
	for _, logcmd := range strings.Split(logstr, ",") {
		switch logcmd {
		case "miwire":
			miWire = true
		case "adapter":
			adapter = true
		case "session":
			session = true
		case "svd":
			svd = true
		case "rpc":
			rpc = true
		}
	}
	return nil
}
