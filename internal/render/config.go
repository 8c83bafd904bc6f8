package render

import (
	"os"

	"github.com/diogo/weatherchat/internal/config"
)

// OptionsFromConfig builds render options from cfg. The style comes from
// GLAMOUR_STYLE, then markdown_style, then the configured TUI theme.
func OptionsFromConfig(cfg config.Config) Options {
	opts := DefaultOptions()

	switch {
	case os.Getenv("GLAMOUR_STYLE") != "":
		opts = opts.WithStyle(os.Getenv("GLAMOUR_STYLE"))
	case cfg.MarkdownStyle != "":
		opts = opts.WithStyle(cfg.MarkdownStyle)
	default:
		if theme, ok := GetTUIThemeByName(cfg.TUITheme); ok && theme.MarkdownStyle != "" {
			opts = opts.WithStyle(theme.MarkdownStyle)
		}
	}

	return opts
}
