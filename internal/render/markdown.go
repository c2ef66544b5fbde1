// ABOUTME: Markdown rendering of assistant replies for rich-text channels
// ABOUTME: Falls back to the raw text if conversion fails

package render

import (
	"bytes"
	"html"
	"log/slog"

	"github.com/yuin/goldmark"
)

// Markdown converts assistant reply markdown to HTML. Channel adapters that
// only accept plain text ignore the HTML form, so a conversion failure is
// logged and a paragraph-wrapped escape of the source is returned instead.
func Markdown(content string) string {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(content), &buf); err != nil {
		slog.Error("failed to convert markdown", "error", err)
		return "<p>" + html.EscapeString(content) + "</p>"
	}
	return buf.String()
}
