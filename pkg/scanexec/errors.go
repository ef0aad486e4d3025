package scanexec

import (
	"errors"
	"fmt"

	"github.com/tenprobe/tenprobe/pkg/engine"
)

// FindingsError signals that a completed scan recorded critical or high
// severity findings. It is not a failure: the scan command returns it so
// the process exits with ExitFindings after the report was rendered.
type FindingsError struct {
	Severity engine.Severity
	Count    int
}

func (e *FindingsError) Error() string {
	return fmt.Sprintf("scan recorded %d findings at %s severity or above", e.Count, e.Severity)
}

// ErrorExitCode maps an error returned by the CLI to a process exit code.
func ErrorExitCode(err error) int {
	if err == nil {
		return ExitClean
	}

	var findings *FindingsError
	if errors.As(err, &findings) {
		return ExitFindings
	}

	// Configuration errors, unreachable targets, and any other failure
	// that prevented the scan from producing a report.
	return ExitError
}
