// Package commands provides CLI commands for weatherchat.
package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/tui"
)

var (
	// Version info (set at build time)
	Version   = "0.1.0"
	BuildTime = "unknown"
)

// rootCmd represents the base command
var rootCmd = NewRootCmd(NewDependencies())

// NewRootCmd builds the command tree around deps
func NewRootCmd(deps *Dependencies) *cobra.Command {
	deps = deps.withDefaults()
	flags := &globalFlags{}

	var (
		fileFlag   string
		outputFlag string
	)

	cmd := &cobra.Command{
		Use:   "weatherchat [query]",
		Short: "Chat with a weather backend from the terminal",
		Long: `weatherchat relays free-text weather questions to a weather backend
and shows the exchange as a running chat transcript.

Examples:
  weatherchat                                   Start interactive chat
  weatherchat "Is it raining in London?"        Ask a single question
  weatherchat -f question.txt                   Read the question from a file
  echo "Weather in Dubai today" | weatherchat   Read the question from stdin
  weatherchat ping                              Check the backend is up
  weatherchat --transport ws chat               Chat over WebSocket`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if v, _ := cmd.Flags().GetBool("version"); v {
				fmt.Fprintf(deps.Stdout, "weatherchat %s (built %s)\n", Version, BuildTime)
				return nil
			}

			q := queryOptions{output: outputFlag}

			if fileFlag != "" {
				data, err := os.ReadFile(fileFlag)
				if err != nil {
					return fmt.Errorf("failed to read file: %w", err)
				}
				return runQuery(cmd, deps, flags, trimInput(data), q)
			}

			if len(args) > 0 {
				return runQuery(cmd, deps, flags, args[0], q)
			}

			if deps.StdinPiped() {
				data, err := io.ReadAll(deps.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				return runQuery(cmd, deps, flags, trimInput(data), q)
			}

			if deps.StdoutTTY() {
				return runChat(cmd, deps, flags)
			}

			return cmd.Help()
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&fileFlag, "file", "f", "", "Read the question from file")
	cmd.Flags().StringVarP(&outputFlag, "output", "o", "", "Save the answer to file")
	cmd.Flags().BoolP("version", "v", false, "Show version and exit")

	cmd.SetOut(deps.Stdout)
	cmd.SetErr(deps.Stderr)
	cmd.SetIn(deps.Stdin)

	cmd.AddCommand(NewChatCmd(deps, flags))
	cmd.AddCommand(NewPingCmd(deps, flags))
	cmd.AddCommand(NewExamplesCmd(deps, flags))
	cmd.AddCommand(NewConfigCmd(deps))

	return cmd
}

// trimInput drops the line ending that files and pipes usually carry
func trimInput(data []byte) string {
	return strings.TrimRight(string(data), "\r\n")
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, tui.FormatError(err))
		os.Exit(1)
	}
}
