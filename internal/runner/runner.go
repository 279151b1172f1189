// Package runner compiles a generated program with an external compiler and
// runs the resulting binary, each attempt inside its own temporary workspace.
package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Placeholders expanded in the compiler argv template
const (
	SourcePlaceholder = "{src}"
	BinaryPlaceholder = "{bin}"
	DirPlaceholder    = "{dir}"
)

// ErrNoCompiler is returned when the compiler executable cannot be started
var ErrNoCompiler = errors.New("compiler not available")

// Config holds the compile/run settings
type Config struct {
	// Compiler is the argv template, e.g. ["go", "build", "-o", "{bin}", "{src}"]
	Compiler []string

	// SourceName is the file the program is written to (default: main.go)
	SourceName string

	// BinaryName is the compiler's output file (default: main)
	BinaryName string

	// ModulePath, when set, is written to a go.mod next to the source
	ModulePath string

	// GoVersion is the go directive of that go.mod (default: 1.21)
	GoVersion string

	// TempDir is the parent of per-attempt workspaces (default: os.TempDir())
	TempDir string

	// CompileTimeout bounds the compiler process (default: 60s)
	CompileTimeout time.Duration

	// RunTimeout bounds the compiled program (default: 10s)
	RunTimeout time.Duration

	// MaxOutputChars truncates reported program output; 0 disables it
	MaxOutputChars int
}

// DefaultConfig returns a Config that builds with the go toolchain.
func DefaultConfig() Config {
	return Config{
		Compiler:       []string{"go", "build", "-o", BinaryPlaceholder, SourcePlaceholder},
		SourceName:     "main.go",
		BinaryName:     "main",
		ModulePath:     "gorepl/session",
		GoVersion:      "1.21",
		CompileTimeout: 60 * time.Second,
		RunTimeout:     10 * time.Second,
		MaxOutputChars: 10000,
	}
}

// Result represents a successful compile and run
type Result struct {
	// Output is the program's standard output
	Output string
	// Whether Output was cut at MaxOutputChars
	Truncated bool
	// Duration of the compiler invocation in milliseconds
	CompileMs int
	// Duration of the program run in milliseconds
	RunMs int
}

// Runner compiles and runs generated programs
type Runner struct {
	config Config
	logger *slog.Logger
}

// New creates a Runner, filling unset fields from DefaultConfig.
func New(config Config, logger *slog.Logger) *Runner {
	def := DefaultConfig()
	if len(config.Compiler) == 0 {
		config.Compiler = def.Compiler
	}
	if config.SourceName == "" {
		config.SourceName = def.SourceName
	}
	if config.BinaryName == "" {
		config.BinaryName = def.BinaryName
	}
	if config.GoVersion == "" {
		config.GoVersion = def.GoVersion
	}
	if config.CompileTimeout <= 0 {
		config.CompileTimeout = def.CompileTimeout
	}
	if config.RunTimeout <= 0 {
		config.RunTimeout = def.RunTimeout
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Runner{config: config, logger: logger}
}

// Config returns the effective configuration
func (r *Runner) Config() Config {
	return r.config
}

// Run writes source into a fresh workspace, compiles it and runs the binary.
// A rejected program or failing binary is returned as a *Failure; any other
// error means the attempt could not be made at all.
func (r *Runner) Run(ctx context.Context, source string) (*Result, error) {
	ws, err := NewWorkspace(r.config.TempDir)
	if err != nil {
		return nil, err
	}
	dir := ws.Dir()
	defer func() {
		if err := ws.Close(); err != nil {
			r.logger.Warn("workspace cleanup failed", "dir", dir, "error", err)
		}
	}()

	srcPath, err := ws.WriteFile(r.config.SourceName, []byte(source))
	if err != nil {
		return nil, err
	}
	if r.config.ModulePath != "" {
		goMod := fmt.Sprintf("module %s\n\ngo %s\n", r.config.ModulePath, r.config.GoVersion)
		if _, err := ws.WriteFile("go.mod", []byte(goMod)); err != nil {
			return nil, err
		}
	}
	binPath := ws.Path(r.config.BinaryName)

	argv := ExpandTemplate(r.config.Compiler, srcPath, binPath, dir)
	compile, err := r.exec(ctx, PhaseCompile, dir, r.config.CompileTimeout, argv)
	if err != nil {
		if errors.Is(err, exec.ErrNotFound) || errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s: %w", ErrNoCompiler, argv[0], err)
		}
		return nil, err
	}
	if f := compile.failure(); f != nil {
		return nil, f
	}

	run, err := r.exec(ctx, PhaseRun, dir, r.config.RunTimeout, []string{binPath})
	if err != nil {
		if ctx.Err() != nil {
			return nil, err
		}
		return nil, &Failure{Phase: PhaseRun, ExitCode: -1, Err: err}
	}
	if f := run.failure(); f != nil {
		return nil, f
	}

	output, truncated := truncate(run.stdout, r.config.MaxOutputChars)
	return &Result{
		Output:    output,
		Truncated: truncated,
		CompileMs: int(compile.duration.Milliseconds()),
		RunMs:     int(run.duration.Milliseconds()),
	}, nil
}

// outcome is a finished process
type outcome struct {
	phase    Phase
	stdout   string
	stderr   string
	exitCode int
	timedOut bool
	duration time.Duration
}

func (o outcome) failure() *Failure {
	if o.exitCode == 0 && !o.timedOut {
		return nil
	}
	return &Failure{
		Phase:    o.phase,
		Stdout:   o.stdout,
		Stderr:   o.stderr,
		ExitCode: o.exitCode,
		TimedOut: o.timedOut,
	}
}

// exec runs argv to completion. A non-nil error means the process could
// not be started; exit status and timeouts are reported in the outcome.
func (r *Runner) exec(ctx context.Context, phase Phase, dir string, timeout time.Duration, argv []string) (outcome, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(timeoutCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err := cmd.Run()
	o := outcome{
		phase:    phase,
		stdout:   stdout.String(),
		stderr:   stderr.String(),
		duration: time.Since(start),
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case ctx.Err() != nil:
		return o, ctx.Err()
	case errors.Is(timeoutCtx.Err(), context.DeadlineExceeded):
		o.timedOut = true
		o.exitCode = -1
	case errors.As(err, &exitErr):
		o.exitCode = exitErr.ExitCode()
	default:
		return o, fmt.Errorf("start %s: %w", filepath.Base(argv[0]), err)
	}

	r.logger.Debug("process finished",
		"phase", string(phase),
		"command", strings.Join(argv, " "),
		"exit_code", o.exitCode,
		"timed_out", o.timedOut,
		"duration_ms", o.duration.Milliseconds(),
	)
	return o, nil
}

// ExpandTemplate substitutes the source, binary and directory placeholders
// in each argument of the compiler template.
func ExpandTemplate(template []string, src, bin, dir string) []string {
	replacer := strings.NewReplacer(
		SourcePlaceholder, src,
		BinaryPlaceholder, bin,
		DirPlaceholder, dir,
	)
	argv := make([]string, len(template))
	for i, arg := range template {
		argv[i] = replacer.Replace(arg)
	}
	return argv
}

// ParseTemplate splits a compiler command line on whitespace
func ParseTemplate(s string) []string {
	return strings.Fields(s)
}

// truncate keeps the first max characters of s
func truncate(s string, max int) (string, bool) {
	if max <= 0 || len(s) <= max {
		return s, false
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i], true
		}
		n++
	}
	return s, false
}
