package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/itsmostafa/gorepl/internal/linereader"
)

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Feed a script of REPL input through a session",
	Long: `Read FILE line by line as if it were typed at the prompt. Results and
errors are printed as in an interactive session; use --echo to also print
each prompt and input line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open script: %w", err)
		}
		defer f.Close()

		reader := linereader.NewScanner(f)
		if echo {
			reader.Echo(cmd.OutOrStdout())
		}
		return runSession(cmd, cfg, reader, false)
	},
}

func init() {
	rootCmd.AddCommand(replayCmd)
}
