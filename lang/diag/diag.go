// Package diag defines the diagnostic shape shared by every pipeline stage
// (spec §7, "Error Handling Design"). Each stage package returns its own
// []Diagnostic slice rather than importing lang/pipeline, so the value
// travels upward through the pipeline without creating an import cycle;
// lang/pipeline re-exports Diagnostic and Severity under its own names for
// callers that only ever see the driver's API.
package diag

import "fmt"

// Severity classifies a Diagnostic as recoverable or not (spec §7).
type Severity uint8

const (
	// Warning is a non-fatal inference or structuring shortfall: the pipeline
	// keeps running and the diagnostic is surfaced to the caller.
	Warning Severity = iota
	// Fatal indicates the stage could not produce valid output; the driver
	// short-circuits without partial output.
	Fatal
)

func (s Severity) String() string {
	if s == Fatal {
		return "fatal"
	}
	return "warning"
}

// Diagnostic records one non-exceptional condition surfaced by a stage:
// a severity, the stage that raised it, a human-readable message, and the
// bytecode offset it pertains to (0 if not offset-specific).
type Diagnostic struct {
	Severity Severity
	Stage    string
	Message  string
	Offset   uint32
}

func (d Diagnostic) String() string {
	if d.Offset == 0 {
		return fmt.Sprintf("%s: [%s] %s", d.Severity, d.Stage, d.Message)
	}
	return fmt.Sprintf("%s: [%s] %s (offset %#x)", d.Severity, d.Stage, d.Message, d.Offset)
}

// Warningf builds a Warning-severity Diagnostic for stage.
func Warningf(stage string, offset uint32, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Stage: stage, Message: fmt.Sprintf(format, args...), Offset: offset}
}

// Fatalf builds a Fatal-severity Diagnostic for stage.
func Fatalf(stage string, offset uint32, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Fatal, Stage: stage, Message: fmt.Sprintf(format, args...), Offset: offset}
}
