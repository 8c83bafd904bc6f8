package render

import "strings"

// Markdown renders markdown content for terminal display.
func Markdown(content string, opts Options) (string, error) {
	renderer, err := globalPool.get(opts)
	if err != nil {
		return "", err
	}
	defer globalPool.put(opts, renderer)

	return renderer.Render(content)
}

// Answer formats a bot message. Plain mode returns the text untouched so
// the backend's line breaks survive; markdown mode falls back to the plain
// text when rendering fails.
func Answer(text string, markdown bool, opts Options) string {
	if !markdown || strings.TrimSpace(text) == "" {
		return text
	}
	out, err := Markdown(text, opts)
	if err != nil {
		return text
	}
	return strings.Trim(out, "\n")
}
