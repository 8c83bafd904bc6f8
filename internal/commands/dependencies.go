package commands

import (
	"io"
	"os"

	"github.com/atotto/clipboard"
	"golang.org/x/term"

	"github.com/diogo/weatherchat/internal/chat"
	"github.com/diogo/weatherchat/internal/gateway"
	"github.com/diogo/weatherchat/internal/tui"
)

// TUIInterface defines the methods required from the TUI package.
type TUIInterface interface {
	RunChat(coord *chat.Coordinator, opts tui.Options) error
}

// Dependencies holds the external dependencies for the commands.
// This allows for dependency injection and easier testing.
type Dependencies struct {
	// Gateway, when set, replaces the transport selected by configuration.
	Gateway gateway.Gateway

	// TUI is the terminal user interface.
	TUI TUIInterface

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// StdinPiped reports whether input is being piped in
	StdinPiped func() bool
	// StdoutTTY reports whether output goes to a terminal
	StdoutTTY func() bool

	// Copy writes text to the clipboard
	Copy func(string) error
}

// DefaultTUI is the production implementation of TUIInterface.
type DefaultTUI struct{}

func (d *DefaultTUI) RunChat(coord *chat.Coordinator, opts tui.Options) error {
	return tui.RunChat(coord, opts)
}

// NewDependencies creates a new Dependencies struct with default implementations.
func NewDependencies() *Dependencies {
	return &Dependencies{
		TUI:        &DefaultTUI{},
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		StdinPiped: isStdinPiped,
		StdoutTTY:  isStdoutTTY,
		Copy:       clipboard.WriteAll,
	}
}

// withDefaults fills unset fields so tests only provide what they need
func (d *Dependencies) withDefaults() *Dependencies {
	base := NewDependencies()
	if d == nil {
		return base
	}
	out := *d
	if out.TUI == nil {
		out.TUI = base.TUI
	}
	if out.Stdin == nil {
		out.Stdin = base.Stdin
	}
	if out.Stdout == nil {
		out.Stdout = base.Stdout
	}
	if out.Stderr == nil {
		out.Stderr = base.Stderr
	}
	if out.StdinPiped == nil {
		out.StdinPiped = base.StdinPiped
	}
	if out.StdoutTTY == nil {
		out.StdoutTTY = base.StdoutTTY
	}
	if out.Copy == nil {
		out.Copy = base.Copy
	}
	return &out
}

// getTerminalWidth returns the terminal width or a default value
func getTerminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return 80 // default width
	}
	return width
}

// isStdoutTTY returns true if stdout is connected to a terminal
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

func isStdinPiped() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}
