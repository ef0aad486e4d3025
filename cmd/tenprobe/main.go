package main

import (
	"os"

	"github.com/tenprobe/tenprobe/cmd/tenprobe/commands"
	"github.com/tenprobe/tenprobe/pkg/scanexec"
)

func main() {
	cmd := commands.NewCommand()
	if err := cmd.Execute(); err != nil {
		os.Exit(scanexec.ErrorExitCode(err))
	}
}
