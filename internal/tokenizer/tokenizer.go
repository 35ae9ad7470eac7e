// Package tokenizer adapts the external syntax tokenizer (chroma) behind
// the engine's Tokenizer capability. The adapter owns the only access to
// the tokenizer's shared mutable configuration (active style, active font),
// so every set-then-highlight pair happens under one critical section.
package tokenizer

import (
	"context"
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"

	"github.com/zjrosen/quill/internal/theme"
)

// Span is one style-annotated token region in byte offsets. Spans are
// non-overlapping and ordered by Start within one Highlight call.
type Span struct {
	Start     int
	End       int
	Color     theme.Color
	Bold      bool
	Italic    bool
	Underline bool
}

// Font is the opaque font descriptor the host supplies. The engine never
// measures text itself; the descriptor only participates in the adapter's
// shared-configuration pairing (and cache key).
type Font struct {
	Family string
	Size   float64
}

// Tokenizer maps (text, languageID) to styled spans. A nil/empty result is
// a valid outcome: the caller degrades to flat foreground styling.
type Tokenizer interface {
	Highlight(ctx context.Context, text, languageID string) ([]Span, error)
	SetStyle(name string)
	SetFont(font Font)
}

// Resolve maps a user-facing language name to a tokenizer language ID.
// false selects the plain-text path (marker-only decoration); it is a
// valid mode, not an error.
func Resolve(name string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "plain", "plaintext", "text", "none":
		return "", false
	}
	lex := lexers.Get(name)
	if lex == nil {
		return "", false
	}
	return strings.ToLower(lex.Config().Name), true
}

// IsMarkdown reports whether a language name selects markdown decoration
// (marker grammar instead of language tokens).
func IsMarkdown(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md", "mdown":
		return true
	}
	return false
}

// StyleForTheme picks the tokenizer style matching a resolved theme.
// Stylesheet-derived themes keep the side's default tokenizer style; only
// background/foreground come from the stylesheet.
func StyleForTheme(th theme.Theme) string {
	if th.IsDark {
		return "catppuccin-mocha"
	}
	return "catppuccin-latte"
}
