// Package testutil provides builders for documents and settings used
// across decoration tests.
package testutil

import (
	"fmt"
	"strings"

	"github.com/zjrosen/quill/internal/config"
)

// DocBuilder accumulates document lines and renders them as one text.
type DocBuilder struct {
	lines []string
}

// NewDoc creates an empty document builder.
func NewDoc() *DocBuilder {
	return &DocBuilder{}
}

// Heading appends a markdown heading line.
func (b *DocBuilder) Heading(text string) *DocBuilder {
	b.lines = append(b.lines, "# "+text)
	return b
}

// Line appends a raw line.
func (b *DocBuilder) Line(text string) *DocBuilder {
	b.lines = append(b.lines, text)
	return b
}

// Bullet appends a dash bullet item.
func (b *DocBuilder) Bullet(text string) *DocBuilder {
	b.lines = append(b.lines, "- "+text)
	return b
}

// Ordered appends a numbered item.
func (b *DocBuilder) Ordered(n int, text string) *DocBuilder {
	b.lines = append(b.lines, fmt.Sprintf("%d. %s", n, text))
	return b
}

// Checkbox appends a checklist item.
func (b *DocBuilder) Checkbox(checked bool, text string) *DocBuilder {
	mark := " "
	if checked {
		mark = "x"
	}
	b.lines = append(b.lines, fmt.Sprintf("- [%s] %s", mark, text))
	return b
}

// URL appends a bare link line.
func (b *DocBuilder) URL(target string) *DocBuilder {
	b.lines = append(b.lines, target)
	return b
}

// CodeBlock appends a fenced block with the given language tag.
func (b *DocBuilder) CodeBlock(lang string, code ...string) *DocBuilder {
	b.lines = append(b.lines, "```"+lang)
	b.lines = append(b.lines, code...)
	b.lines = append(b.lines, "```")
	return b
}

// Build renders the document with a trailing newline.
func (b *DocBuilder) Build() string {
	return strings.Join(b.lines, "\n") + "\n"
}

// Offset returns the byte offset of the first occurrence of sub in the
// built document, panicking on absence so tests fail loudly.
func (b *DocBuilder) Offset(sub string) int {
	i := strings.Index(b.Build(), sub)
	if i < 0 {
		panic(fmt.Sprintf("testutil: %q not in document", sub))
	}
	return i
}

// SettingsOption configures a settings value during test setup.
type SettingsOption func(*config.Settings)

// Settings builds a settings value from defaults plus options.
func Settings(opts ...SettingsOption) config.Settings {
	s := config.Defaults()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// WithoutChecklists disables checklist decoration.
func WithoutChecklists() SettingsOption {
	return func(s *config.Settings) { s.Checklists = false }
}

// WithoutBullets disables bullet decoration.
func WithoutBullets() SettingsOption {
	return func(s *config.Settings) { s.BulletLists = false }
}

// WithoutLinks disables clickable links.
func WithoutLinks() SettingsOption {
	return func(s *config.Settings) { s.ClickableLinks = false }
}

// WithTabWidth sets the tab expansion width.
func WithTabWidth(w int) SettingsOption {
	return func(s *config.Settings) { s.TabWidth = w }
}

// WithAppearance sets the appearance override.
func WithAppearance(appearance string) SettingsOption {
	return func(s *config.Settings) { s.Theme.Appearance = appearance }
}

// WithPreset selects a built-in palette preset.
func WithPreset(preset string) SettingsOption {
	return func(s *config.Settings) { s.Theme.Preset = preset }
}
