package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/diogo/weatherchat/internal/chat"
	"github.com/diogo/weatherchat/internal/config"
	apierrors "github.com/diogo/weatherchat/internal/errors"
	"github.com/diogo/weatherchat/internal/gateway"
	"github.com/diogo/weatherchat/internal/logging"
	"github.com/diogo/weatherchat/internal/render"
	"github.com/diogo/weatherchat/internal/tui"
)

// globalFlags are the persistent flags shared by every command
type globalFlags struct {
	endpoint  string
	transport string
	timeout   time.Duration
	logLevel  string
	logFile   string
	markdown  bool
	theme     string
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVarP(&f.endpoint, "endpoint", "e", "", "Backend base URL (default from config, "+config.EnvEndpoint+")")
	pf.StringVarP(&f.transport, "transport", "t", "", "Gateway transport ("+strings.Join(config.AvailableTransports(), ", ")+")")
	pf.DurationVar(&f.timeout, "timeout", 0, "Per-query timeout (0 waits for the backend)")
	pf.StringVar(&f.logLevel, "log-level", "", "Log level: trace, debug, info, warn, error, disabled")
	pf.StringVar(&f.logFile, "log-file", "", "Log file path")
	pf.BoolVar(&f.markdown, "markdown", false, "Render answers as markdown")
	pf.StringVar(&f.theme, "theme", "", "Color theme ("+strings.Join(render.TUIThemeNames(), ", ")+")")
}

// resolveConfig layers config file, environment and explicitly set flags
func (f *globalFlags) resolveConfig(cmd *cobra.Command, stderr io.Writer) (config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(stderr, "Warning: %v (using defaults)\n", err)
	}
	cfg.ApplyEnv()

	flags := cmd.Flags()
	if flags.Changed("endpoint") {
		cfg.Endpoint = f.endpoint
	}
	if flags.Changed("transport") {
		cfg.Transport = config.NormalizeTransport(f.transport)
	}
	if flags.Changed("timeout") {
		cfg.TimeoutSeconds = int(f.timeout.Round(time.Second) / time.Second)
		if f.timeout > 0 && cfg.TimeoutSeconds == 0 {
			cfg.TimeoutSeconds = 1
		}
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if flags.Changed("log-file") {
		cfg.LogFile = f.logFile
	}
	if flags.Changed("markdown") {
		cfg.Markdown = f.markdown
	}
	if flags.Changed("theme") {
		cfg.TUITheme = f.theme
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// session is everything a command needs to talk to the backend
type session struct {
	cfg     config.Config
	logger  zerolog.Logger
	gateway gateway.Gateway
	closer  io.Closer
}

func (s *session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

func newSession(deps *Dependencies, flags *globalFlags, cmd *cobra.Command) (*session, error) {
	cfg, err := flags.resolveConfig(cmd, deps.Stderr)
	if err != nil {
		return nil, err
	}

	logger, closer, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		fmt.Fprintf(deps.Stderr, "Warning: logging disabled: %v\n", err)
	}

	if cfg.TUITheme != "" && !render.SetTUITheme(cfg.TUITheme) {
		fmt.Fprintf(deps.Stderr, "Warning: unknown theme %q, using %s\n", cfg.TUITheme, render.GetTUITheme().Name)
	}
	tui.UpdateTheme()

	gw := deps.Gateway
	if gw == nil {
		gw, err = gateway.New(cfg.Transport, cfg.Endpoint, logger)
		if err != nil {
			_ = closer.Close()
			return nil, fmt.Errorf("failed to create gateway: %w", err)
		}
	}

	logger.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("transport", cfg.Transport).
		Dur("timeout", cfg.Timeout()).
		Msg("session started")

	return &session{cfg: cfg, logger: logger, gateway: gw, closer: closer}, nil
}

func (s *session) newCoordinator() *chat.Coordinator {
	return chat.NewCoordinator(s.gateway,
		chat.WithTimeout(s.cfg.Timeout()),
		chat.WithLogger(s.logger),
		chat.WithObserver(logObserver(s.logger)),
	)
}

// logObserver records coordinator transitions with the gateway error details
func logObserver(logger zerolog.Logger) chat.Observer {
	return func(e chat.Event) {
		switch e.Kind {
		case chat.EventRejected:
			logger.Debug().Err(e.Err).Int("query_len", len(e.Query)).Msg("submission ignored")
		case chat.EventSubmitted:
			logger.Info().Str("ticket", e.Ticket.ID).Int("query_len", len(e.Query)).Msg("query submitted")
		case chat.EventSettled:
			if e.Err == nil {
				logger.Info().Str("ticket", e.Ticket.ID).Dur("elapsed", e.Elapsed).Msg("query answered")
				return
			}
			ev := logger.Warn().Err(e.Err).Str("ticket", e.Ticket.ID).Dur("elapsed", e.Elapsed)
			if status := apierrors.GetHTTPStatus(e.Err); status > 0 {
				ev = ev.Int("status", status)
			}
			if endpoint := apierrors.GetEndpoint(e.Err); endpoint != "" {
				ev = ev.Str("endpoint", endpoint)
			}
			ev.Msg("query failed")
		}
	}
}
