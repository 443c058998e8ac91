// Package cmds implements the sbld command line interface.
package cmds

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/config"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/logflags"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/session"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/targets"
	"github.com/soundbytelabs/sbl-debugger-mcp/pkg/version"
	"github.com/soundbytelabs/sbl-debugger-mcp/service"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/debugger"
	"github.com/soundbytelabs/sbl-debugger-mcp/service/rpccommon"
)

var (
	// log is whether to log debug statements.
	log bool
	// logOutput is a comma separated list of components that should produce debug output.
	logOutput string
	// addr is the listen address for the JSON-RPC server.
	addr string

	conf *config.Config

	// rootCommand is the root of the command tree.
	rootCommand *cobra.Command
)

const defaultListenAddr = "127.0.0.1:4772"

// New returns an initialized command tree.
func New() *cobra.Command {
	conf = config.LoadConfig()
	targets.Merge(conf)

	rootCommand = &cobra.Command{
		Use:   "sbld",
		Short: "sbld is a debug session orchestrator for embedded targets.",
		Long: `sbld drives OpenOCD and GDB to debug microcontrollers over SWD/JTAG,
exposing attach, execution control, inspection and peripheral decoding as
JSON-RPC operations.`,
	}
	rootCommand.PersistentFlags().BoolVarP(&log, "log", "", false, "Enable server logging.")
	rootCommand.PersistentFlags().StringVarP(&logOutput, "log-output", "", "", "Comma separated list of components that should produce debug output (miwire,adapter,session,svd,rpc)")

	serveCommand := &cobra.Command{
		Use:   "serve",
		Short: "Run the debug server.",
		Long: `Runs the JSON-RPC debug server. Sessions attached through it are torn
down when the server exits.`,
		Run: serveCmd,
	}
	serveCommand.Flags().StringVarP(&addr, "listen", "l", "", "Server listen address.")
	rootCommand.AddCommand(serveCommand)

	targetsCommand := &cobra.Command{
		Use:   "targets",
		Short: "List known target profiles.",
		Run:   targetsCmd,
	}
	rootCommand.AddCommand(targetsCommand)

	versionCommand := &cobra.Command{
		Use:   "version",
		Short: "Prints version.",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("sbld %s\nBuild: %s\n", version.SBLDVersion, version.BuildInfo())
		},
	}
	rootCommand.AddCommand(versionCommand)

	return rootCommand
}

func serveCmd(cmd *cobra.Command, args []string) {
	if err := logflags.Setup(log, logOutput); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	listenAddr := addr
	if listenAddr == "" {
		listenAddr = conf.ListenAddr
	}
	if listenAddr == "" {
		listenAddr = defaultListenAddr
	}
	listener, err := net.Listen("tcp", listenAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "couldn't start listener: %s\n", err)
		os.Exit(1)
	}

	registry := session.NewRegistry(session.Config{
		GDBPath:     conf.GDBPath,
		OpenOCDPath: conf.OpenOCDPath,
	})
	server := rpccommon.NewServer(&service.Config{
		Listener: listener,
		Debugger: debugger.New(&debugger.Config{
			Registry:     registry,
			HardwarePath: conf.HardwarePath,
		}),
	})

	// Detach every session on SIGINT/SIGTERM so no orphaned OpenOCD or
	// GDB processes hold the probe.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		server.Stop()
	}()

	if err := server.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func targetsCmd(cmd *cobra.Command, args []string) {
	for _, name := range targets.Names() {
		p, err := targets.Get(name)
		if err != nil {
			continue
		}
		fmt.Printf("%-8s %s (interface %s, target %s", name, p.Description, p.Interface, p.Target)
		if p.MCU != "" {
			fmt.Printf(", mcu %s", p.MCU)
		}
		fmt.Println(")")
	}
}
