// Package session drives the REPL: it classifies input, grows the program
// snapshot, and commits or rolls back each candidate based on whether it
// compiles and runs.
package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/google/uuid"

	"github.com/itsmostafa/gorepl/internal/gosrc"
	"github.com/itsmostafa/gorepl/internal/input"
	"github.com/itsmostafa/gorepl/internal/linereader"
	"github.com/itsmostafa/gorepl/internal/runner"
	"github.com/itsmostafa/gorepl/internal/snapshot"
)

// Executor compiles and runs a complete program.
// Recoverable rejections are returned as *runner.Failure.
type Executor interface {
	Run(ctx context.Context, source string) (*runner.Result, error)
}

// Config holds the session configuration
type Config struct {
	Executor Executor
	Output   io.Writer
	// Color enables styled output on terminals
	Color bool
	// AutoImports fixes imports of the generated program before each run
	AutoImports bool
	// Prompt and ContinuationPrompt override the classifier defaults
	Prompt             string
	ContinuationPrompt string
	Logger             *slog.Logger
}

// Session owns the current program snapshot
type Session struct {
	id          string
	program     snapshot.Program
	executor    Executor
	classifier  *input.Classifier
	out         *Output
	autoImports bool
	logger      *slog.Logger
	reader      linereader.Reader
}

// New creates a session with an empty program
func New(cfg Config) *Session {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	id := uuid.NewString()
	s := &Session{
		id:          id,
		program:     snapshot.Empty(),
		executor:    cfg.Executor,
		out:         NewOutput(cfg.Output, cfg.Color),
		autoImports: cfg.AutoImports,
		logger:      cfg.Logger.With("session_id", id),
	}
	s.classifier = input.NewClassifier(history{s}, input.WithPrompts(cfg.Prompt, cfg.ContinuationPrompt))
	return s
}

// ID returns the session identifier used in logs
func (s *Session) ID() string {
	return s.id
}

// Program returns the current committed snapshot
func (s *Session) Program() snapshot.Program {
	return s.program
}

// Output returns the report writer
func (s *Session) Output() *Output {
	return s.out
}

// Prompt returns the prompt for the next line
func (s *Session) Prompt() string {
	return s.classifier.Prompt()
}

// Source renders p, with imports fixed when enabled. If fixing fails the
// raw render is returned so the compiler reports the problem.
func (s *Session) Source(p snapshot.Program) string {
	raw := p.Render()
	if !s.autoImports {
		return raw
	}
	fixed, err := gosrc.FixImports(raw)
	if err != nil {
		s.logger.Debug("import fixing skipped", "error", err)
		return raw
	}
	return fixed
}

// Run reads lines until Exit, end of input, interrupt or ctx is done.
// It returns an error only when the session cannot continue.
func (s *Session) Run(ctx context.Context, reader linereader.Reader) error {
	s.reader = reader
	defer func() { s.reader = nil }()

	s.logger.Info("session started")
	defer s.logger.Info("session ended", "units", s.program.Count())

	for {
		if ctx.Err() != nil {
			return nil
		}
		reader.SetPrompt(s.classifier.Prompt())

		cmd := input.Command{Kind: input.Exit}
		line, err := reader.ReadLine()
		switch {
		case err == nil:
			cmd = s.classifier.Classify(line)
		case errors.Is(err, io.EOF), errors.Is(err, linereader.ErrInterrupted):
		default:
			s.logger.Warn("read failed", "error", err)
		}

		more, err := s.Handle(ctx, cmd)
		if err != nil {
			return err
		}
		if !more {
			return nil
		}
	}
}

// Feed classifies one raw line and handles the resulting command
func (s *Session) Feed(ctx context.Context, line string) (bool, error) {
	return s.Handle(ctx, s.classifier.Classify(line))
}

// Handle applies one command. It reports whether the session continues; a
// non-nil error means it cannot.
func (s *Session) Handle(ctx context.Context, cmd input.Command) (bool, error) {
	switch cmd.Kind {
	case input.Nothing:
		return true, nil

	case input.Exit:
		return false, nil

	case input.PrintCode:
		s.printCode()
		return true, nil

	case input.RemoveLines:
		before := s.program.Count()
		s.program = s.program.Truncate(cmd.N)
		s.logger.Info("units removed", "from", cmd.N, "before", before, "after", s.program.Count())
		s.printCode()
		return true, nil

	case input.AddExpression, input.PrintValue:
		return s.attempt(ctx, cmd)

	default:
		s.logger.Error("internal error: unhandled command", "kind", cmd.Kind.String())
		return true, nil
	}
}

// attempt builds a candidate snapshot with cmd appended and commits it only
// if the whole program compiles and runs.
func (s *Session) attempt(ctx context.Context, cmd input.Command) (bool, error) {
	if !cmd.Appendable() {
		s.logger.Error("internal error: command cannot be appended", "kind", cmd.Kind.String())
		return true, nil
	}
	candidate := s.program.Append(cmd)

	result, err := s.executor.Run(ctx, s.Source(candidate))
	if err != nil {
		var failure *runner.Failure
		if errors.As(err, &failure) {
			s.logger.Info("rolled back",
				"kind", cmd.Kind.String(),
				"phase", string(failure.Phase),
				"exit_code", failure.ExitCode,
				"timed_out", failure.TimedOut,
				"units", s.program.Count(),
			)
			s.out.Error(failure.Diagnostic())
			return true, nil
		}
		if errors.Is(err, context.Canceled) {
			return false, nil
		}
		return false, fmt.Errorf("running program: %w", err)
	}

	s.program = candidate
	s.logger.Info("committed",
		"kind", cmd.Kind.String(),
		"units", s.program.Count(),
		"compile_ms", result.CompileMs,
		"run_ms", result.RunMs,
	)
	s.out.Result(result.Output)
	if result.Truncated {
		s.out.Notice("(output truncated)")
	}
	return true, nil
}

func (s *Session) printCode() {
	pending, _ := s.classifier.Pending()
	s.out.Source(s.Source(s.program), pending)
}

// history forwards accepted input to the active reader's recall list
type history struct {
	s *Session
}

func (h history) Record(line string) {
	if h.s.reader != nil {
		h.s.reader.Record(line)
	}
}
