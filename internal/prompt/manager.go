// ABOUTME: Prompt template loading and rendering with an input token budget
// ABOUTME: Templates are text/template files loaded from a prompts directory

package prompt

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// charsPerToken is the rough estimate used to enforce the input token
// budget without a tokenizer dependency.
const charsPerToken = 4

// Manager loads named prompt templates from a directory and renders them.
type Manager struct {
	dir    string
	logger *slog.Logger
}

// NewManager creates a Manager rooted at dir. Templates are files named
// <name>.tmpl within the directory.
func NewManager(dir string, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		dir:    dir,
		logger: logger.With("component", "prompt"),
	}
}

// Render loads the named template, executes it with data, and enforces the
// maximum input token budget. Rendered text over budget is truncated with a
// warning rather than failing the turn.
func (m *Manager) Render(ctx context.Context, name string, data any, maxInputTokens int) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	path := filepath.Join(m.dir, name+".tmpl")
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("loading prompt %q: %w", name, err)
	}

	tmpl, err := template.New(name).Parse(string(raw))
	if err != nil {
		return "", fmt.Errorf("parsing prompt %q: %w", name, err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("rendering prompt %q: %w", name, err)
	}

	rendered := strings.TrimSpace(buf.String())
	if maxInputTokens > 0 {
		budget := maxInputTokens * charsPerToken
		if runes := []rune(rendered); len(runes) > budget {
			m.logger.Warn("rendered prompt over token budget, truncating",
				"prompt", name,
				"max_input_tokens", maxInputTokens,
				"rendered_chars", len(runes))
			rendered = string(runes[:budget])
		}
	}

	m.logger.Debug("prompt rendered", "prompt", name, "chars", len(rendered))
	return rendered, nil
}
