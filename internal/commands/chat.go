package commands

import (
	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/render"
	"github.com/diogo/weatherchat/internal/tui"
)

// NewChatCmd creates the interactive chat command
func NewChatCmd(deps *Dependencies, flags *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session",
		Long: `Start an interactive weather chat.

Type a question and press Enter. Tab cycles the suggested questions and
Ctrl+S (or Alt+1..5) asks one. Only one question is in flight at a time.
Press Esc or Ctrl+C to quit.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd, deps, flags)
		},
	}
}

func runChat(cmd *cobra.Command, deps *Dependencies, flags *globalFlags) error {
	sess, err := newSession(deps, flags, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	coord := sess.newCoordinator()
	opts := tui.Options{
		Endpoint: sess.cfg.Endpoint,
		Markdown: sess.cfg.Markdown,
		Render:   render.OptionsFromConfig(sess.cfg),
		Context:  cmd.Context(),
		Copy:     deps.Copy,
	}

	return deps.TUI.RunChat(coord, opts)
}
