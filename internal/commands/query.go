package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/chat"
	"github.com/diogo/weatherchat/internal/models"
	"github.com/diogo/weatherchat/internal/render"
)

// Gradient colors for animation
var gradientColors = []lipgloss.Color{
	lipgloss.Color("#48dbfb"), // Cyan
	lipgloss.Color("#54a0ff"), // Blue
	lipgloss.Color("#5f27cd"), // Purple
	lipgloss.Color("#00d2d3"), // Teal
	lipgloss.Color("#1dd1a1"), // Green
	lipgloss.Color("#feca57"), // Yellow
	lipgloss.Color("#ff9f43"), // Orange
	lipgloss.Color("#ff6b6b"), // Red
}

var (
	colorText     = lipgloss.Color("#c0caf5")
	colorTextMute = lipgloss.Color("#3b4261")
	colorSuccess  = lipgloss.Color("#9ece6a")
	colorFailure  = lipgloss.Color("#f7768e")
	colorUser     = lipgloss.Color("#7dcfff")
	colorBot      = lipgloss.Color("#9ece6a")
)

// Styles matching the chat TUI
var (
	userLabelStyle = lipgloss.NewStyle().
			Foreground(colorUser).
			Bold(true)

	botLabelStyle = lipgloss.NewStyle().
			Foreground(colorBot).
			Bold(true)

	userBubbleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorUser).
			Foreground(colorText).
			Padding(0, 1)

	botBubbleStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorBot).
			Foreground(colorText).
			Padding(0, 1).
			MarginBottom(1)
)

// spinner handles the animated loading indicator
type spinner struct {
	out     io.Writer
	message string
	stop    chan struct{}
	done    chan struct{}
	mu      sync.Mutex
	frame   int
	stopped bool // Flag to prevent double-close
}

// newSpinner creates a new animated spinner writing to out
func newSpinner(out io.Writer, message string) *spinner {
	return &spinner{
		out:     out,
		message: message,
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
	}
}

// start begins the animation
func (s *spinner) start() {
	go func() {
		defer close(s.done)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		// Hide cursor
		fmt.Fprint(s.out, "\033[?25l")

		for {
			select {
			case <-s.stop:
				// Clear line and show cursor
				fmt.Fprint(s.out, "\r\033[K\033[?25h")
				return
			case <-ticker.C:
				s.mu.Lock()
				s.render()
				s.frame++
				s.mu.Unlock()
			}
		}
	}()
}

// render draws the current animation frame
func (s *spinner) render() {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	spinIdx := s.frame % len(chars)
	spinColor := gradientColors[s.frame%len(gradientColors)]
	spinnerChar := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[spinIdx])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + s.frame) % len(gradientColors)
		charIdx := (i + s.frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	var dots strings.Builder
	numDots := (s.frame / 3) % 4
	for i := 0; i < 3; i++ {
		if i < numDots {
			dotColor := gradientColors[(s.frame+i)%len(gradientColors)]
			dots.WriteString(lipgloss.NewStyle().Foreground(dotColor).Render("●"))
		} else {
			dots.WriteString(lipgloss.NewStyle().Foreground(colorTextMute).Render("○"))
		}
	}

	msg := lipgloss.NewStyle().Foreground(colorText).Render(s.message)

	fmt.Fprintf(s.out, "\r\033[K%s %s %s %s", spinnerChar, bar.String(), msg, dots.String())
}

// stopOnce safely closes the stop channel only once
func (s *spinner) stopOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.stopped {
		close(s.stop)
		s.stopped = true
	}
}

// stopWithSuccess stops the spinner and shows success message
func (s *spinner) stopWithSuccess(message string) {
	s.stopOnce()
	<-s.done

	checkmark := lipgloss.NewStyle().Foreground(colorSuccess).Bold(true).Render("✓")
	msg := lipgloss.NewStyle().Foreground(colorSuccess).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", checkmark, msg)
}

// stopWithError stops the spinner and shows a failure mark
func (s *spinner) stopWithError(message string) {
	s.stopOnce()
	<-s.done

	cross := lipgloss.NewStyle().Foreground(colorFailure).Bold(true).Render("✗")
	msg := lipgloss.NewStyle().Foreground(colorFailure).Render(message)
	fmt.Fprintf(s.out, "%s %s\n", cross, msg)
}

// queryOptions are the one-shot flags that only the root command takes
type queryOptions struct {
	output string
}

// runQuery sends one question through a fresh coordinator and prints the
// new transcript entries. On a terminal both entries are drawn as bubbles;
// otherwise only the bot reply is written so the output can be piped.
func runQuery(cmd *cobra.Command, deps *Dependencies, flags *globalFlags, raw string, q queryOptions) error {
	sess, err := newSession(deps, flags, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	coord := sess.newCoordinator()
	decorated := deps.StdoutTTY()

	var spin *spinner
	if decorated {
		spin = newSpinner(deps.Stderr, models.BusyIndicator)
		spin.start()
	}

	out, err := coord.Ask(cmd.Context(), raw)
	if err != nil {
		if spin != nil {
			spin.stopOnce()
			<-spin.done
		}
		if errors.Is(err, chat.ErrEmptyQuery) {
			return fmt.Errorf("query cannot be empty")
		}
		return err
	}

	if spin != nil {
		if out.OK() {
			spin.stopWithSuccess(fmt.Sprintf("Done in %s", out.Elapsed.Round(time.Millisecond)))
		} else {
			spin.stopWithError("Backend request failed")
		}
	}

	reply := out.Reply()

	if q.output != "" {
		if err := os.WriteFile(q.output, []byte(reply), 0o644); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
		if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render(
				fmt.Sprintf("✓ Answer saved to %s", q.output),
			))
		}
	} else if decorated {
		printExchange(deps.Stdout, sess, out)
	} else {
		fmt.Fprintln(deps.Stdout, reply)
	}

	if out.OK() && sess.cfg.CopyToClipboard {
		if err := deps.Copy(reply); err != nil {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorFailure).Render(
				fmt.Sprintf("⚠ Failed to copy to clipboard: %v", err),
			))
		} else if decorated {
			fmt.Fprintln(deps.Stderr, lipgloss.NewStyle().Foreground(colorSuccess).Render("✓ Copied to clipboard"))
		}
	}

	if !out.OK() {
		return fmt.Errorf("query failed: %w", out.Err)
	}
	return nil
}

// printExchange draws the user question and the bot reply as chat bubbles
func printExchange(w io.Writer, sess *session, out chat.Outcome) {
	termWidth := getTerminalWidth()
	bubbleWidth := termWidth - 4
	if bubbleWidth < 40 {
		bubbleWidth = 40
	}
	if bubbleWidth > 120 {
		bubbleWidth = 120
	}
	contentWidth := bubbleWidth - 4

	fmt.Fprintln(w, userLabelStyle.Render("⬤ You"))
	fmt.Fprintln(w, userBubbleStyle.Width(bubbleWidth).Render(out.Ticket.Query))

	body := render.Answer(out.Reply(), sess.cfg.Markdown, render.OptionsFromConfig(sess.cfg).WithWidth(contentWidth))
	fmt.Fprintln(w, botLabelStyle.Render("☁ Weather"))
	fmt.Fprintln(w, botBubbleStyle.Width(bubbleWidth).Render(body))
}
