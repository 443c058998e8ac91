package main

import (
	"os"

	"github.com/soundbytelabs/sbl-debugger-mcp/cmd/sbld/cmds"
)

func main() {
	if err := cmds.New().Execute(); err != nil {
		os.Exit(1)
	}
}
