package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/diogo/weatherchat/internal/chat"
	apierrors "github.com/diogo/weatherchat/internal/errors"
	"github.com/diogo/weatherchat/internal/models"
	"github.com/diogo/weatherchat/internal/render"
)

// Animation tick message
type animationTickMsg time.Time

// settledMsg carries the outcome of the single in-flight query back to Update
type settledMsg struct {
	outcome chat.Outcome
}

// Options configures the chat screen
type Options struct {
	// Endpoint is shown in the header
	Endpoint string
	// Markdown renders bot answers with glamour
	Markdown bool
	Render   render.Options
	// Context is passed to every gateway call; defaults to context.Background()
	Context context.Context
	// Copy writes text to the clipboard; defaults to clipboard.WriteAll
	Copy func(string) error
}

// Model represents the TUI state. Conversation state lives in the
// coordinator; the model only holds widgets and view bookkeeping.
type Model struct {
	coord *chat.Coordinator
	opts  Options

	// UI components
	viewport viewport.Model
	textarea textarea.Model
	spinner  spinner.Model

	ready          bool
	animationFrame int
	suggestion     int
	notice         string
	lastErr        error

	// What the viewport was last rendered from
	renderedCount int
	renderedBusy  bool

	width  int
	height int
}

// NewChatModel creates a new chat TUI model
func NewChatModel(coord *chat.Coordinator, opts Options) Model {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Copy == nil {
		opts.Copy = clipboard.WriteAll
	}
	if opts.Render == (render.Options{}) {
		opts.Render = render.DefaultOptions()
	}

	ta := textarea.New()
	ta.Placeholder = models.InputPlaceholder
	ta.CharLimit = 1000
	ta.ShowLineNumbers = false
	ta.SetHeight(1)
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle()
	ta.FocusedStyle.Base = lipgloss.NewStyle().Foreground(colorText)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(colorTextDim)
	ta.BlurredStyle = ta.FocusedStyle

	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = loadingStyle

	ta.SetValue(coord.PendingInput())

	return Model{
		coord:         coord,
		opts:          opts,
		textarea:      ta,
		spinner:       s,
		renderedCount: -1,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.spinner.Tick,
	)
}

func animationTick() tea.Cmd {
	return tea.Tick(time.Millisecond*80, func(t time.Time) tea.Msg {
		return animationTickMsg(t)
	})
}

// scrollKeys keeps plain letters for the input box
func scrollKeys() viewport.KeyMap {
	return viewport.KeyMap{
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		HalfPageUp:   key.NewBinding(key.WithKeys("ctrl+u")),
		HalfPageDown: key.NewBinding(key.WithKeys("ctrl+d")),
		Up:           key.NewBinding(key.WithKeys("up")),
		Down:         key.NewBinding(key.WithKeys("down")),
	}
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		inputHeight := 3
		suggestionHeight := 1
		statusHeight := 1
		borders := 2

		vpHeight := m.height - headerHeight - inputHeight - suggestionHeight - statusHeight - borders
		if vpHeight < 3 {
			vpHeight = 3
		}
		contentWidth := m.width - 4
		if contentWidth < 20 {
			contentWidth = 20
		}

		if !m.ready {
			m.viewport = viewport.New(contentWidth, vpHeight)
			m.viewport.KeyMap = scrollKeys()
			m.ready = true
		} else {
			m.viewport.Width = contentWidth
			m.viewport.Height = vpHeight
		}
		m.textarea.SetWidth(contentWidth - 16)
		// Width changes rewrap every bubble
		m.renderedCount = -1

	case tea.KeyMsg:
		m.notice = ""
		busy := m.coord.Busy()

		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "esc":
			// No cancellation: an outstanding query always settles
			if !busy {
				return m, tea.Quit
			}

		case "enter":
			if !busy {
				m.coord.SetPendingInput(m.textarea.Value())
			}
			return m.submit()

		case "tab":
			m.suggestion = (m.suggestion + 1) % len(models.SuggestedQueries)
			return m, nil

		case "shift+tab":
			m.suggestion = (m.suggestion + len(models.SuggestedQueries) - 1) % len(models.SuggestedQueries)
			return m, nil

		case "ctrl+s":
			return m.selectSuggestion(m.suggestion)

		case "alt+1", "alt+2", "alt+3", "alt+4", "alt+5":
			return m.selectSuggestion(int(msg.String()[len("alt+")]-'1'))

		case "ctrl+y":
			m.copyLastAnswer()
			return m, nil
		}

		if !busy {
			m.textarea, cmd = m.textarea.Update(msg)
			cmds = append(cmds, cmd)
			m.coord.SetPendingInput(m.textarea.Value())
		}

	case settledMsg:
		if m.coord.Settle(msg.outcome) {
			m.lastErr = msg.outcome.Err
		}
		cmds = append(cmds, m.textarea.Focus())

	case spinner.TickMsg:
		if m.coord.Busy() {
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case animationTickMsg:
		if m.coord.Busy() {
			m.animationFrame++
			cmds = append(cmds, animationTick())
		}
	}

	if m.ready {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	m.syncViewport()

	return m, tea.Batch(cmds...)
}

// submit sends the coordinator's pending input. Rejections leave the screen as is.
func (m Model) submit() (tea.Model, tea.Cmd) {
	ticket, err := m.coord.SubmitPending()
	if err != nil {
		return m, nil
	}

	m.textarea.Reset()
	m.textarea.Blur()
	m.lastErr = nil
	m.animationFrame = 0
	m.syncViewport()

	return m, tea.Batch(
		m.resolve(ticket),
		m.spinner.Tick,
		animationTick(),
	)
}

// selectSuggestion fills the input with a suggested query and submits it
func (m Model) selectSuggestion(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(models.SuggestedQueries) || m.coord.Busy() {
		return m, nil
	}
	m.suggestion = i

	text := models.SuggestedQueries[i]
	m.coord.SetPendingInput(text)
	m.textarea.SetValue(text)
	return m.submit()
}

// resolve performs the gateway call off the Update goroutine
func (m Model) resolve(ticket chat.Ticket) tea.Cmd {
	coord := m.coord
	ctx := m.opts.Context
	return func() tea.Msg {
		return settledMsg{outcome: coord.Resolve(ctx, ticket)}
	}
}

func (m *Model) copyLastAnswer() {
	last, ok := m.coord.Transcript().LastFrom(models.SenderBot)
	if !ok {
		return
	}
	if err := m.opts.Copy(last.Text); err != nil {
		m.notice = "Clipboard unavailable: " + err.Error()
		return
	}
	m.notice = "Copied last answer to clipboard"
}

// syncViewport re-renders the transcript and scrolls to the newest entry
// whenever a message was added or the busy indicator toggled.
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	state := m.coord.Snapshot()
	if len(state.Messages) == m.renderedCount && state.Busy == m.renderedBusy {
		return
	}
	m.renderedCount = len(state.Messages)
	m.renderedBusy = state.Busy
	m.viewport.SetContent(m.renderTranscript(state))
	m.viewport.GotoBottom()
}

func (m Model) renderTranscript(state chat.State) string {
	var content strings.Builder
	bubbleWidth := m.viewport.Width - 6
	if bubbleWidth < 10 {
		bubbleWidth = 10
	}

	for i, msg := range state.Messages {
		if i > 0 {
			content.WriteString("\n")
		}
		if msg.IsUser() {
			content.WriteString(userLabelStyle.Render("⬤ You") + "\n")
			content.WriteString(userBubbleStyle.Width(bubbleWidth).Render(msg.Text))
		} else {
			body := render.Answer(msg.Text, m.opts.Markdown, m.opts.Render.WithWidth(bubbleWidth-4))
			content.WriteString(botLabelStyle.Render("☁ Weather") + "\n")
			content.WriteString(botBubbleStyle.Width(bubbleWidth).Render(body))
		}
		content.WriteString("\n")
	}

	if state.Busy {
		content.WriteString("\n")
		content.WriteString(botLabelStyle.Render("☁ Weather") + "\n")
		content.WriteString(busyBubbleStyle.Width(bubbleWidth).Render(models.BusyIndicator))
		content.WriteString("\n")
	}

	return content.String()
}

// View renders the screen from the coordinator snapshot
func (m Model) View() string {
	if !m.ready {
		return loadingStyle.Render("  Initializing...")
	}

	state := m.coord.Snapshot()
	contentWidth := m.width - 4
	if contentWidth < 20 {
		contentWidth = 20
	}

	var sections []string

	headerContent := lipgloss.JoinHorizontal(lipgloss.Center,
		titleStyle.Render("☀ Weather Chat"),
		hintStyle.Render("  •  "),
		subtitleStyle.Render(m.opts.Endpoint),
	)
	sections = append(sections, headerStyle.Width(contentWidth).Render(headerContent))

	sections = append(sections, messagesAreaStyle.
		Width(contentWidth).
		Height(m.viewport.Height).
		Render(m.viewport.View()))

	var inputContent string
	if state.Busy {
		inputContent = m.renderLoadingAnimation()
	} else {
		inputContent = lipgloss.JoinHorizontal(lipgloss.Top,
			inputLabelStyle.Render("You"),
			m.textarea.View(),
			" ",
			m.renderSendButton(state),
		)
	}
	sections = append(sections, inputPanelStyle.Width(contentWidth).Render(inputContent))

	sections = append(sections, m.renderSuggestions(state, contentWidth))
	sections = append(sections, m.renderStatusBar(contentWidth))

	if m.lastErr != nil {
		sections = append(sections, m.formatError(m.lastErr))
	}

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderSendButton(state chat.State) string {
	if state.CanSubmit() {
		return sendEnabledStyle.Render("[ Send ⏎ ]")
	}
	return sendDisabledStyle.Render("[ Send ⏎ ]")
}

func (m Model) renderSuggestions(state chat.State, width int) string {
	items := make([]string, 0, len(models.SuggestedQueries)+1)
	items = append(items, hintStyle.Render("Try:"))
	for i, q := range models.SuggestedQueries {
		label := fmt.Sprintf("%d %s", i+1, q)
		switch {
		case state.Busy:
			items = append(items, suggestionDisabledStyle.Render(label))
		case i == m.suggestion:
			items = append(items, suggestionSelectedStyle.Render(label))
		default:
			items = append(items, suggestionStyle.Render(label))
		}
	}
	return lipgloss.NewStyle().Width(width).Render(strings.Join(items, " "))
}

func (m Model) renderLoadingAnimation() string {
	chars := []string{"⣾", "⣽", "⣻", "⢿", "⡿", "⣟", "⣯", "⣷"}
	barChars := []string{"█", "█", "█", "█", "▓", "▒", "░"}

	frame := m.animationFrame

	spinColor := gradientColors[frame%len(gradientColors)]
	spin := lipgloss.NewStyle().Foreground(spinColor).Bold(true).Render(chars[frame%len(chars)])

	barWidth := 16
	var bar strings.Builder
	for i := 0; i < barWidth; i++ {
		colorIdx := (i + frame) % len(gradientColors)
		charIdx := (i + frame/2) % len(barChars)
		bar.WriteString(lipgloss.NewStyle().Foreground(gradientColors[colorIdx]).Render(barChars[charIdx]))
	}

	text := lipgloss.NewStyle().Foreground(colorText).Render(" " + models.BusyIndicator + " ")

	return fmt.Sprintf("%s %s %s %s", spin, bar.String(), text, m.spinner.View())
}

func (m Model) renderStatusBar(width int) string {
	if m.notice != "" {
		return statusBarStyle.Width(width).Align(lipgloss.Center).Render(noticeStyle.Render(m.notice))
	}

	shortcuts := []struct {
		key  string
		desc string
	}{
		{"Enter", "Send"},
		{"Tab", "Next suggestion"},
		{"Ctrl+S", "Ask suggestion"},
		{"Ctrl+Y", "Copy answer"},
		{"PgUp/PgDn", "Scroll"},
		{"Esc", "Quit"},
	}

	var items []string
	for _, s := range shortcuts {
		items = append(items, statusKeyStyle.Render(s.key)+statusDescStyle.Render(" "+s.desc))
	}

	return statusBarStyle.Width(width).Align(lipgloss.Center).Render(strings.Join(items, "  │  "))
}

func (m Model) formatError(err error) string {
	detailStyle := lipgloss.NewStyle().Foreground(colorTextDim).PaddingLeft(2)

	var sb strings.Builder
	sb.WriteString(errorStyle.Render(fmt.Sprintf("⚠ Last query failed: %v", err)))

	if status := apierrors.GetHTTPStatus(err); status > 0 {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render(fmt.Sprintf("HTTP Status: %d", status)))
	}
	if hint := errorHint(err); hint != "" {
		sb.WriteString("\n")
		sb.WriteString(detailStyle.Render("💡 " + hint))
	}

	return sb.String()
}

// RunChat starts the interactive chat screen
func RunChat(coord *chat.Coordinator, opts Options) error {
	m := NewChatModel(coord, opts)

	p := tea.NewProgram(
		m,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	_, err := p.Run()
	return err
}
