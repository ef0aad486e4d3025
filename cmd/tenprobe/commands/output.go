// cmd/tenprobe/commands/output.go
package commands

import (
	"os"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/tenprobe/tenprobe/pkg/output"
	"github.com/tenprobe/tenprobe/pkg/output/subscribers"
)

// setupOutputPipeline builds the event stream for a command: one formatter
// chosen by the --output flag, plus a diagnostic subscriber on stderr when
// -v was given. Color is enabled only for interactive terminals.
func setupOutputPipeline(cmd *cobra.Command) output.Output {
	stream := output.NewOutputEventStream()

	format, _ := cmd.Flags().GetString("output")
	switch {
	case strings.EqualFold(format, "json"):
		stream.Subscribe(subscribers.NewJSONFormatter(os.Stdout))
	case strings.EqualFold(format, "yaml"):
		stream.Subscribe(subscribers.NewYAMLFormatter(os.Stdout))
	default:
		colorEnabled := isatty.IsTerminal(os.Stdout.Fd())
		stream.Subscribe(subscribers.NewHumanFormatter(os.Stdout, os.Stderr, colorEnabled))
	}

	if verbosity > 0 {
		stream.Subscribe(subscribers.NewDiagnosticSubscriber(diagLevel(verbosity), os.Stderr))
	}

	return output.NewDefaultOutput(stream)
}

func diagLevel(count int) output.OutputLevel {
	switch {
	case count >= 3:
		return output.LevelTrace
	case count == 2:
		return output.LevelDebug
	default:
		return output.LevelVerbose
	}
}
