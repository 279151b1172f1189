package runner

import (
	"fmt"
	"strings"
)

// Phase is the step of an attempt that failed
type Phase string

const (
	// PhaseCompile is the external compiler invocation
	PhaseCompile Phase = "compile"
	// PhaseRun is the execution of the produced binary
	PhaseRun Phase = "run"
)

// Failure is a recoverable rejection of a candidate program: the compiler
// refused it or the binary exited non-zero (or ran out of time).
type Failure struct {
	Phase    Phase
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
	// Err is set when the binary could not be started at all
	Err error
}

// Error implements error
func (f *Failure) Error() string {
	switch {
	case f.TimedOut:
		return fmt.Sprintf("%s timed out", f.Phase)
	case f.Err != nil:
		return fmt.Sprintf("%s failed: %v", f.Phase, f.Err)
	default:
		return fmt.Sprintf("%s failed with exit code %d", f.Phase, f.ExitCode)
	}
}

// Unwrap returns the start error, if any
func (f *Failure) Unwrap() error {
	return f.Err
}

// IsCompile reports whether the compiler rejected the program
func (f *Failure) IsCompile() bool {
	return f.Phase == PhaseCompile
}

// Diagnostic returns the captured output with a summary line, suitable for
// showing to the user.
func (f *Failure) Diagnostic() string {
	var b strings.Builder
	b.WriteString(f.Error())
	for _, stream := range []struct {
		name, text string
	}{
		{"stdout", f.Stdout},
		{"stderr", f.Stderr},
	} {
		text := strings.TrimRight(stream.text, "\n")
		if text == "" {
			continue
		}
		fmt.Fprintf(&b, "\n%s:\n%s", stream.name, text)
	}
	return b.String()
}
