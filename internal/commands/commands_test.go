package commands

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/diogo/weatherchat/internal/chat"
	"github.com/diogo/weatherchat/internal/config"
	apierrors "github.com/diogo/weatherchat/internal/errors"
	"github.com/diogo/weatherchat/internal/gateway"
	"github.com/diogo/weatherchat/internal/models"
	"github.com/diogo/weatherchat/internal/render"
	"github.com/diogo/weatherchat/internal/tui"
)

type fakeTUI struct {
	coord *chat.Coordinator
	opts  tui.Options
	calls int
}

func (f *fakeTUI) RunChat(coord *chat.Coordinator, opts tui.Options) error {
	f.calls++
	f.coord = coord
	f.opts = opts
	return nil
}

// pingGateway is a MockGateway that also answers the liveness route
type pingGateway struct {
	gateway.MockGateway
	message string
	err     error
}

func (p *pingGateway) Ping(ctx context.Context) (string, error) {
	return p.message, p.err
}

type harness struct {
	deps   *Dependencies
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	home   string
}

func newHarness(t *testing.T, gw gateway.Gateway) *harness {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(config.EnvEndpoint, "")
	t.Setenv(config.EnvTransport, "")
	t.Setenv("GLAMOUR_STYLE", "")
	t.Cleanup(func() {
		render.SetTUITheme("tokyonight")
		tui.UpdateTheme()
	})

	h := &harness{
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		home:   home,
	}
	h.deps = &Dependencies{
		Gateway:    gw,
		TUI:        &fakeTUI{},
		Stdin:      strings.NewReader(""),
		Stdout:     h.stdout,
		Stderr:     h.stderr,
		StdinPiped: func() bool { return false },
		StdoutTTY:  func() bool { return false },
		Copy:       func(string) error { return nil },
	}
	return h
}

func (h *harness) run(args ...string) error {
	root := NewRootCmd(h.deps)
	root.SetArgs(args)
	return root.Execute()
}

func TestRootCommand_Metadata(t *testing.T) {
	cmd := NewRootCmd(nil)
	if cmd.Use != "weatherchat [query]" {
		t.Errorf("Expected use 'weatherchat [query]', got %s", cmd.Use)
	}
	if cmd.Short == "" || cmd.Long == "" {
		t.Error("Descriptions should not be empty")
	}

	want := map[string]bool{"chat": false, "ping": false, "examples": false, "config": false}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("missing subcommand %q", name)
		}
	}

	for _, flag := range []string{"endpoint", "transport", "timeout", "log-level", "log-file", "markdown", "theme"} {
		if cmd.PersistentFlags().Lookup(flag) == nil {
			t.Errorf("missing persistent flag --%s", flag)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})

	if err := h.run("--version"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "weatherchat "+Version) {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRootCommand_QueryArgument(t *testing.T) {
	gw := &gateway.MockGateway{Answer: "32°C, sunny"}
	h := newHarness(t, gw)

	if err := h.run("Weather in Dubai today"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if h.stdout.String() != "32°C, sunny\n" {
		t.Errorf("stdout = %q", h.stdout.String())
	}
	if calls := gw.Calls(); len(calls) != 1 || calls[0] != "Weather in Dubai today" {
		t.Errorf("gateway calls = %v", calls)
	}
}

func TestRootCommand_QueryFailure(t *testing.T) {
	gw := &gateway.MockGateway{
		Err: apierrors.NewNetworkError("ask", "http://localhost:8001/chat", errors.New("connection refused")),
	}
	h := newHarness(t, gw)

	err := h.run("Tokyo?")
	if err == nil {
		t.Fatal("Expected error for failed query")
	}
	if !errors.Is(err, apierrors.ErrBackendUnavailable) {
		t.Errorf("error should wrap the gateway failure: %v", err)
	}
	if !strings.Contains(h.stdout.String(), models.BackendUnreachable) {
		t.Errorf("stdout should carry the diagnostic reply, got %q", h.stdout.String())
	}
}

func TestRootCommand_EmptyQuery(t *testing.T) {
	gw := &gateway.MockGateway{Answer: "x"}
	h := newHarness(t, gw)

	err := h.run("   ")
	if err == nil || !strings.Contains(err.Error(), "empty") {
		t.Fatalf("Expected empty query error, got %v", err)
	}
	if gw.CallCount() != 0 {
		t.Error("gateway should not be called")
	}
}

func TestRootCommand_FileInput(t *testing.T) {
	gw := &gateway.MockGateway{Answer: "18°C"}
	h := newHarness(t, gw)

	path := filepath.Join(t.TempDir(), "q.txt")
	if err := os.WriteFile(path, []byte("Is it raining in London?\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := h.run("-f", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := gw.Calls(); len(calls) != 1 || calls[0] != "Is it raining in London?" {
		t.Errorf("gateway calls = %q", calls)
	}
}

func TestRootCommand_MissingFile(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})

	if err := h.run("-f", "/non/existent"); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestRootCommand_StdinInput(t *testing.T) {
	gw := &gateway.MockGateway{Answer: "windy"}
	h := newHarness(t, gw)
	h.deps.Stdin = strings.NewReader("Temperature in New York\r\n")
	h.deps.StdinPiped = func() bool { return true }

	if err := h.run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := gw.Calls(); len(calls) != 1 || calls[0] != "Temperature in New York" {
		t.Errorf("gateway calls = %q", calls)
	}
	if h.stdout.String() != "windy\n" {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestRootCommand_OutputFile(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{Answer: "cloudy"})
	path := filepath.Join(t.TempDir(), "answer.txt")

	if err := h.run("Oslo?", "-o", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "cloudy" {
		t.Errorf("file content = %q", data)
	}
	if h.stdout.Len() != 0 {
		t.Errorf("nothing should be printed when saving to file, got %q", h.stdout.String())
	}
}

func TestRootCommand_DecoratedOutput(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{Answer: "Sunny, 25°C"})
	h.deps.StdoutTTY = func() bool { return true }

	if err := h.run("Weather in Paris"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := h.stdout.String()
	for _, want := range []string{"You", "Weather in Paris", "Sunny, 25°C"} {
		if !strings.Contains(out, want) {
			t.Errorf("stdout missing %q: %q", want, out)
		}
	}
	if !strings.Contains(h.stderr.String(), "Done") {
		t.Errorf("stderr should report completion, got %q", h.stderr.String())
	}
}

func TestRootCommand_CopyToClipboard(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{Answer: "foggy"})

	cfg := config.DefaultConfig()
	cfg.CopyToClipboard = true
	if err := config.SaveConfig(cfg); err != nil {
		t.Fatal(err)
	}

	var copied string
	h.deps.Copy = func(s string) error {
		copied = s
		return nil
	}

	if err := h.run("San Francisco?"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if copied != "foggy" {
		t.Errorf("copied = %q", copied)
	}
}

func TestRootCommand_NoInputShowsHelp(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})

	if err := h.run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "Usage:") {
		t.Errorf("Expected help output, got %q", h.stdout.String())
	}
}

func TestRootCommand_NoInputOnTerminalStartsChat(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})
	h.deps.StdoutTTY = func() bool { return true }
	fake := h.deps.TUI.(*fakeTUI)

	if err := h.run(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.calls != 1 {
		t.Fatalf("Expected chat to start once, got %d", fake.calls)
	}
}

func TestChatCommand(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})
	fake := h.deps.TUI.(*fakeTUI)

	if err := h.run("chat", "--endpoint", "http://weather.local:9000", "--markdown", "--theme", "dracula"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if fake.coord == nil {
		t.Fatal("Expected coordinator to be passed to the TUI")
	}
	state := fake.coord.Snapshot()
	if len(state.Messages) != 1 || state.Messages[0].Text != models.Greeting {
		t.Errorf("coordinator should start with the greeting, got %+v", state.Messages)
	}
	if fake.opts.Endpoint != "http://weather.local:9000" {
		t.Errorf("Endpoint = %q", fake.opts.Endpoint)
	}
	if !fake.opts.Markdown {
		t.Error("Markdown flag should reach the TUI")
	}
	if render.GetTUITheme().Name != "dracula" {
		t.Errorf("theme = %s", render.GetTUITheme().Name)
	}
	if fake.opts.Render.Style != "dracula" {
		t.Errorf("markdown style should follow the theme, got %q", fake.opts.Render.Style)
	}
	if fake.opts.Copy == nil {
		t.Error("Copy should be wired")
	}
}

func TestChatCommand_MarkdownStyle(t *testing.T) {
	tests := []struct {
		name  string
		env   string
		saved string
		args  []string
		want  string
	}{
		{"default theme", "", "", nil, "tokyo-night"},
		{"theme flag", "", "", []string{"--theme", "light"}, "light"},
		{"saved style beats theme", "", "notty", []string{"--theme", "dracula"}, "notty"},
		{"env beats theme", "ascii", "", []string{"--theme", "dracula"}, "ascii"},
		{"env beats saved style", "pink", "notty", nil, "pink"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, &gateway.MockGateway{})
			t.Setenv("GLAMOUR_STYLE", tt.env)
			fake := h.deps.TUI.(*fakeTUI)

			if tt.saved != "" {
				cfg := config.DefaultConfig()
				cfg.MarkdownStyle = tt.saved
				if err := config.SaveConfig(cfg); err != nil {
					t.Fatal(err)
				}
			}

			if err := h.run(append([]string{"chat"}, tt.args...)...); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if fake.opts.Render.Style != tt.want {
				t.Errorf("Render.Style = %q, want %q", fake.opts.Render.Style, tt.want)
			}
		})
	}
}

func TestChatCommand_TransportNames(t *testing.T) {
	for _, name := range []string{"http", "HTTP", "ws", "WS", "websocket"} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t, nil)

			if err := h.run("chat", "--transport", name); err != nil {
				t.Errorf("--transport %s: %v", name, err)
			}
		})
	}
}

func TestFlagHelpListsChoices(t *testing.T) {
	cmd := NewRootCmd(nil)

	transport := cmd.PersistentFlags().Lookup("transport").Usage
	for _, name := range config.AvailableTransports() {
		if !strings.Contains(transport, name) {
			t.Errorf("--transport help missing %q: %s", name, transport)
		}
	}

	theme := cmd.PersistentFlags().Lookup("theme").Usage
	for _, name := range render.TUIThemeNames() {
		if !strings.Contains(theme, name) {
			t.Errorf("--theme help missing %q: %s", name, theme)
		}
	}
}

func TestChatCommand_InvalidTransport(t *testing.T) {
	h := newHarness(t, nil)

	err := h.run("chat", "--transport", "carrier-pigeon")
	if err == nil || !strings.Contains(err.Error(), "transport") {
		t.Fatalf("Expected transport error, got %v", err)
	}
}

func TestChatCommand_EnvOverride(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})
	t.Setenv(config.EnvEndpoint, "http://from-env:8001")
	fake := h.deps.TUI.(*fakeTUI)

	if err := h.run("chat"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.opts.Endpoint != "http://from-env:8001" {
		t.Errorf("Endpoint = %q", fake.opts.Endpoint)
	}

	if err := h.run("chat", "--endpoint", "http://from-flag:8001"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fake.opts.Endpoint != "http://from-flag:8001" {
		t.Errorf("flag should win over env, got %q", fake.opts.Endpoint)
	}
}

func TestChatCommand_RealGatewayFromConfig(t *testing.T) {
	h := newHarness(t, nil)
	fake := h.deps.TUI.(*fakeTUI)

	for _, transport := range []string{"http", "ws"} {
		if err := h.run("chat", "--transport", transport); err != nil {
			t.Fatalf("%s: unexpected error: %v", transport, err)
		}
		if fake.coord == nil {
			t.Fatalf("%s: coordinator not created", transport)
		}
	}
}

func TestExamplesCommand_List(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})

	if err := h.run("examples"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, q := range models.SuggestedQueries {
		if !strings.Contains(h.stdout.String(), q) {
			t.Errorf("example %d missing from output", i+1)
		}
	}
}

func TestExamplesCommand_Run(t *testing.T) {
	gw := &gateway.MockGateway{Answer: "humid"}
	h := newHarness(t, gw)

	if err := h.run("examples", "4"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls := gw.Calls(); len(calls) != 1 || calls[0] != models.SuggestedQueries[3] {
		t.Errorf("gateway calls = %v", calls)
	}

	for _, bad := range []string{"0", "6", "two"} {
		if err := h.run("examples", bad); err == nil {
			t.Errorf("examples %s: expected error", bad)
		}
	}
}

func TestPingCommand(t *testing.T) {
	gw := &pingGateway{message: "Weather Chatbot API is running!"}
	h := newHarness(t, gw)

	if err := h.run("ping"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "running") {
		t.Errorf("stdout = %q", h.stdout.String())
	}
}

func TestPingCommand_Failure(t *testing.T) {
	gw := &pingGateway{err: apierrors.NewAPIError(503, "http://x/", "service unavailable")}
	h := newHarness(t, gw)

	err := h.run("ping")
	if err == nil {
		t.Fatal("Expected ping error")
	}
	if apierrors.GetHTTPStatus(err) != 503 {
		t.Errorf("status should be preserved, got %v", err)
	}
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})

	if err := h.run("config", "set", "endpoint", "http://saved:8001"); err != nil {
		t.Fatalf("set: %v", err)
	}
	if !strings.Contains(h.stdout.String(), "endpoint = http://saved:8001") {
		t.Errorf("set output = %q", h.stdout.String())
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Endpoint != "http://saved:8001" {
		t.Errorf("saved endpoint = %q", cfg.Endpoint)
	}

	h.stdout.Reset()
	if err := h.run("config", "show"); err != nil {
		t.Fatalf("show: %v", err)
	}
	for _, key := range config.Keys() {
		if !strings.Contains(h.stdout.String(), key) {
			t.Errorf("show output missing %q", key)
		}
	}

	h.stdout.Reset()
	if err := h.run("config", "path"); err != nil {
		t.Fatalf("path: %v", err)
	}
	if strings.TrimSpace(h.stdout.String()) != filepath.Join(h.home, ".weatherchat", "config.json") {
		t.Errorf("path output = %q", h.stdout.String())
	}

	if err := h.run("config", "set", "transport", "smoke-signals"); err == nil {
		t.Error("Expected validation error")
	}
	if err := h.run("config", "set", "nope", "x"); err == nil {
		t.Error("Expected unknown key error")
	}
}

func TestExecuteWrapperSuccess(t *testing.T) {
	h := newHarness(t, &gateway.MockGateway{})
	old := rootCmd
	rootCmd = NewRootCmd(h.deps)
	rootCmd.SetArgs([]string{"examples"})
	defer func() { rootCmd = old }()

	// Should not call os.Exit for successful execution
	Execute()
}
