package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/itsmostafa/gorepl/internal/config"
	"github.com/itsmostafa/gorepl/internal/linereader"
	"github.com/itsmostafa/gorepl/internal/runner"
	"github.com/itsmostafa/gorepl/internal/session"
	"github.com/itsmostafa/gorepl/internal/version"
)

var configPath string
var compiler string
var compileTimeout time.Duration
var runTimeout time.Duration
var noImports bool
var noColor bool
var logFile string
var logLevel string
var echo bool

var rootCmd = &cobra.Command{
	Use:   "gorepl",
	Short: "Incremental Go REPL",
	Long: `gorepl builds a Go program one statement at a time. Every input is
appended to the program, which is then compiled and run in full; input that
fails to compile or run is discarded and the previous program is kept.

  %         show the generated program
  %d N      delete unit N and everything after it
  :expr     print the value of expr
  {{ ... }} enter several lines as one statement (:{{ for a value)
  line \    continue the statement on the next line`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		reader := linereader.New(os.Stdin, cmd.OutOrStdout(), linereader.Options{
			HistorySize: cfg.HistorySize,
			Echo:        echo,
		})
		_, interactive := reader.(*linereader.Terminal)
		return runSession(cmd, cfg, reader, interactive)
	},
}

func init() {
	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(fmt.Sprintf("gorepl %s\n", version.String()))

	flags := rootCmd.PersistentFlags()

	// Config path and compiler with env var fallbacks
	flags.StringVar(&configPath, "config", os.Getenv(config.EnvConfig), "Config file (default: <user config dir>/gorepl/config.yaml)")
	flags.StringVar(&compiler, "compiler", os.Getenv("GOREPL_COMPILER"), "Compiler command line, with {src}, {bin} and {dir} placeholders")

	flags.DurationVar(&compileTimeout, "compile-timeout", 0, "Time limit for each compile (default from config)")
	flags.DurationVar(&runTimeout, "run-timeout", 0, "Time limit for each run of the program (default from config)")
	flags.BoolVar(&noImports, "no-imports", false, "Do not fix imports of the generated program")
	flags.BoolVar(&noColor, "no-color", false, "Disable styled output")
	flags.StringVar(&logFile, "log-file", "", "Write structured logs to this file")
	flags.StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.BoolVar(&echo, "echo", false, "Echo prompts and input when not reading from a terminal")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies flag overrides
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	var cfg config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFromPath(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return config.Config{}, err
	}

	if compiler != "" {
		cfg.Compiler = compiler
	}
	if cmd.Flags().Changed("compile-timeout") {
		cfg.CompileTimeout = compileTimeout
	}
	if cmd.Flags().Changed("run-timeout") {
		cfg.RunTimeout = runTimeout
	}
	if noImports {
		cfg.AutoImports = false
	}
	if noColor {
		cfg.Color = false
	}
	if logFile != "" {
		cfg.LogFile = logFile
	}
	if logLevel != "" {
		cfg.LogLevel = strings.ToLower(logLevel)
	}

	if err := cfg.Validate(); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newLogger returns a text logger writing to cfg.LogFile, or a discarding
// logger when no file is configured. The returned func closes the file.
func newLogger(cfg config.Config) (*slog.Logger, func(), error) {
	if cfg.LogFile == "" {
		return slog.New(slog.DiscardHandler), func() {}, nil
	}
	level, err := cfg.Level()
	if err != nil {
		return nil, nil, err
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: level}))
	return logger, func() { f.Close() }, nil
}

// runSession wires the runner and session together and reads from reader
// until the session ends.
func runSession(cmd *cobra.Command, cfg config.Config, reader linereader.Reader, banner bool) error {
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	s := session.New(session.Config{
		Executor:           runner.New(cfg.Runner(), logger),
		Output:             out,
		Color:              cfg.Color && isTerminal(out),
		AutoImports:        cfg.AutoImports,
		Prompt:             cfg.Prompt,
		ContinuationPrompt: cfg.ContinuationPrompt,
		Logger:             logger,
	})
	if banner {
		s.Output().Banner(version.Short(), cfg.Compiler)
	}

	return s.Run(ctx, reader)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
