package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsmostafa/gorepl/internal/input"
	"github.com/itsmostafa/gorepl/internal/linereader"
	"github.com/itsmostafa/gorepl/internal/runner"
)

// fakeExecutor rejects programs containing "x +" and otherwise answers with
// the output returned by respond.
type fakeExecutor struct {
	sources []string
	respond func(src string) (*runner.Result, error)
}

func (f *fakeExecutor) Run(_ context.Context, src string) (*runner.Result, error) {
	f.sources = append(f.sources, src)
	if strings.Contains(src, "x +\n") {
		return nil, &runner.Failure{
			Phase:    runner.PhaseCompile,
			ExitCode: 1,
			Stderr:   "./main.go:10:5: syntax error: unexpected newline\n",
		}
	}
	if f.respond != nil {
		return f.respond(src)
	}
	return &runner.Result{}, nil
}

// probeOutput answers "5" once the program probes x
func probeOutput(src string) (*runner.Result, error) {
	if strings.Contains(src, "fmt.Println(x)") {
		return &runner.Result{Output: "5\n"}, nil
	}
	return &runner.Result{}, nil
}

func newTestSession(exec Executor) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	s := New(Config{Executor: exec, Output: &out})
	return s, &out
}

func feed(t *testing.T, s *Session, line string) {
	t.Helper()
	more, err := s.Feed(context.Background(), line)
	require.NoError(t, err)
	require.True(t, more)
}

func TestSession_Scenario(t *testing.T) {
	exec := &fakeExecutor{respond: func(src string) (*runner.Result, error) {
		if strings.Count(src, "fmt.Println(x)") == 1 {
			return &runner.Result{Output: "5\n"}, nil
		}
		return &runner.Result{}, nil
	}}
	s, out := newTestSession(exec)

	feed(t, s, "x := 5")
	assert.Equal(t, 1, s.Program().Count())
	assert.Empty(t, out.String(), "a silent statement prints nothing")

	feed(t, s, ":x")
	assert.Equal(t, 2, s.Program().Count())
	assert.Equal(t, "= 5\n", out.String())

	out.Reset()
	before := s.Program().Render()
	feed(t, s, "x +")
	assert.Equal(t, 2, s.Program().Count())
	assert.Equal(t, before, s.Program().Render())
	assert.True(t, strings.HasPrefix(out.String(), "ERR compile failed with exit code 1\n"), out.String())
	assert.Contains(t, out.String(), "ERR ./main.go:10:5: syntax error")

	out.Reset()
	feed(t, s, "%d 2")
	assert.Equal(t, 1, s.Program().Count())
	assert.Contains(t, out.String(), "x := 5")
	assert.NotContains(t, out.String(), "fmt.Println(x)")

	assert.Len(t, exec.sources, 3)
}

func TestSession_CommitAdvancesState(t *testing.T) {
	exec := &fakeExecutor{}
	s, _ := newTestSession(exec)

	feed(t, s, "a := 1")
	prev := s.Program()
	feed(t, s, "b := a + 1")

	cur := s.Program()
	require.Equal(t, prev.Count()+1, cur.Count())
	assert.Equal(t, cur.Render(), exec.sources[len(exec.sources)-1])
	for _, u := range prev.Units() {
		assert.Contains(t, cur.Render(), strings.TrimSpace(u.Command.Text))
	}
}

func TestSession_RollbackOnRuntimeError(t *testing.T) {
	exec := &fakeExecutor{respond: func(src string) (*runner.Result, error) {
		if strings.Contains(src, "panic(") {
			return nil, &runner.Failure{
				Phase:    runner.PhaseRun,
				ExitCode: 2,
				Stdout:   "before\n",
				Stderr:   "panic: boom\n",
			}
		}
		return &runner.Result{}, nil
	}}
	s, out := newTestSession(exec)

	feed(t, s, "y := 1")
	snap := s.Program()
	feed(t, s, `panic("boom")`)

	assert.Equal(t, snap.Count(), s.Program().Count())
	assert.Equal(t, snap.Render(), s.Program().Render())
	assert.Equal(t,
		"ERR run failed with exit code 2\nERR stdout:\nERR before\nERR stderr:\nERR panic: boom\n",
		out.String(),
	)
}

func TestSession_ContinuationCommitsOneUnit(t *testing.T) {
	exec := &fakeExecutor{}
	s, _ := newTestSession(exec)

	feed(t, s, "{{")
	feed(t, s, "a := 1")
	feed(t, s, "b := 2")
	assert.Empty(t, exec.sources, "nothing runs while the block is open")
	assert.Equal(t, input.DefaultContinuationPrompt, s.Prompt())

	feed(t, s, "}}")
	require.Len(t, exec.sources, 1)
	require.Equal(t, 1, s.Program().Count())
	assert.Equal(t, "a := 1\nb := 2", s.Program().Units()[0].Command.Text)
	assert.Equal(t, input.DefaultPrompt, s.Prompt())
}

func TestSession_PrintCodeShowsPending(t *testing.T) {
	s, out := newTestSession(&fakeExecutor{})

	feed(t, s, "n := 3")
	feed(t, s, "{{")
	feed(t, s, "m := n * 2")

	more, err := s.Handle(context.Background(), input.Command{Kind: input.PrintCode})
	require.NoError(t, err)
	require.True(t, more)

	text := out.String()
	assert.Contains(t, text, "// generated program")
	assert.Contains(t, text, "\tn := 3\n")
	assert.Contains(t, text, "// pending add-expression (1 lines)\nm := n * 2\n")
	assert.Equal(t, 1, s.Program().Count())
}

func TestSession_PrintCodeWithoutPending(t *testing.T) {
	s, out := newTestSession(&fakeExecutor{})

	feed(t, s, "%")

	assert.Contains(t, out.String(), "const _unitCount = 0")
	assert.NotContains(t, out.String(), "pending")
}

func TestSession_RemoveLinesOutOfRange(t *testing.T) {
	s, _ := newTestSession(&fakeExecutor{})
	feed(t, s, "a := 1")
	feed(t, s, "b := 2")

	feed(t, s, "%d 9")
	assert.Equal(t, 2, s.Program().Count())

	feed(t, s, "%d 0")
	assert.Equal(t, 2, s.Program().Count())

	feed(t, s, "%d 1")
	assert.Equal(t, 0, s.Program().Count())
}

func TestSession_ExitAndNothing(t *testing.T) {
	exec := &fakeExecutor{}
	s, out := newTestSession(exec)

	more, err := s.Handle(context.Background(), input.Command{Kind: input.Nothing})
	require.NoError(t, err)
	assert.True(t, more)

	more, err = s.Handle(context.Background(), input.Command{Kind: input.Exit})
	require.NoError(t, err)
	assert.False(t, more)

	more, err = s.Handle(context.Background(), input.Command{Kind: input.Kind(99)})
	require.NoError(t, err)
	assert.True(t, more)

	assert.Empty(t, exec.sources)
	assert.Empty(t, out.String())
	assert.Equal(t, 0, s.Program().Count())
}

func TestSession_FatalExecutorError(t *testing.T) {
	boom := errors.New("workspace unavailable")
	s, _ := newTestSession(&fakeExecutor{respond: func(string) (*runner.Result, error) {
		return nil, boom
	}})

	more, err := s.Feed(context.Background(), "a := 1")

	assert.False(t, more)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 0, s.Program().Count())
}

func TestSession_CancelledExecution(t *testing.T) {
	s, _ := newTestSession(&fakeExecutor{respond: func(string) (*runner.Result, error) {
		return nil, context.Canceled
	}})

	more, err := s.Feed(context.Background(), "a := 1")

	assert.False(t, more)
	assert.NoError(t, err)
}

func TestSession_TruncatedOutputNotice(t *testing.T) {
	s, out := newTestSession(&fakeExecutor{respond: func(string) (*runner.Result, error) {
		return &runner.Result{Output: "aaaa", Truncated: true}, nil
	}})

	feed(t, s, `fmt.Print("aaaaaaaa")`)

	assert.Equal(t, "= aaaa\n(output truncated)\n", out.String())
}

func TestSession_AutoImports(t *testing.T) {
	exec := &fakeExecutor{}
	var out bytes.Buffer
	s := New(Config{Executor: exec, Output: &out, AutoImports: true})

	feed(t, s, `:strings.ToUpper("go")`)

	require.Len(t, exec.sources, 1)
	assert.Contains(t, exec.sources[0], `"strings"`)
	assert.Contains(t, exec.sources[0], `"fmt"`)
}

func TestSession_AutoImportsFallsBackOnSyntaxError(t *testing.T) {
	exec := &fakeExecutor{}
	s := New(Config{Executor: exec, Output: io.Discard, AutoImports: true})

	feed(t, s, "x +")

	require.Len(t, exec.sources, 1)
	assert.Contains(t, exec.sources[0], "\tx +\n\t;\n\t_currentUnit++\n", "unformatted source is compiled")
	assert.Equal(t, 0, s.Program().Count())
}

// recordingReader replays lines and keeps what the session records
type recordingReader struct {
	*linereader.Scanner
	prompts  []string
	recorded []string
}

func (r *recordingReader) SetPrompt(p string) {
	r.prompts = append(r.prompts, p)
}

func (r *recordingReader) Record(line string) {
	r.recorded = append(r.recorded, line)
}

func TestSession_Run(t *testing.T) {
	exec := &fakeExecutor{respond: probeOutput}
	s, out := newTestSession(exec)
	reader := &recordingReader{
		Scanner: linereader.NewScanner(strings.NewReader("x := 5\n\n{{\ny := x\n}}\n:x\n")),
	}

	require.NoError(t, s.Run(context.Background(), reader))

	assert.Equal(t, 3, s.Program().Count())
	assert.Equal(t, "= 5\n", out.String())
	assert.Equal(t, []string{"x := 5", "y := x", ":x"}, reader.recorded)
	assert.Equal(t, []string{">> ", ">> ", ">> ", ">>> ", ">>> ", ">> ", ">> "}, reader.prompts)
}

func TestSession_RunStopsOnCancelledContext(t *testing.T) {
	exec := &fakeExecutor{}
	s, _ := newTestSession(exec)
	reader := linereader.NewScanner(strings.NewReader("a := 1\n"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, s.Run(ctx, reader))
	assert.Empty(t, exec.sources)
}

func TestSession_RunReturnsFatalError(t *testing.T) {
	s, _ := newTestSession(&fakeExecutor{respond: func(string) (*runner.Result, error) {
		return nil, runner.ErrNoCompiler
	}})
	reader := linereader.NewScanner(strings.NewReader("a := 1\nb := 2\n"))

	err := s.Run(context.Background(), reader)

	require.ErrorIs(t, err, runner.ErrNoCompiler)
}

func TestSession_ID(t *testing.T) {
	a, _ := newTestSession(&fakeExecutor{})
	b, _ := newTestSession(&fakeExecutor{})
	assert.Len(t, a.ID(), 36)
	assert.NotEqual(t, a.ID(), b.ID())
}
