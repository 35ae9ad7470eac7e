package theme

import (
	"fmt"
	"os"
	"regexp"
	"strings"
)

// The stylesheet parser is deliberately not a CSS parser. Only the first
// .hljs block and its color/background declarations matter; everything else
// in the file is ignored, and malformed input degrades to defaults instead
// of erroring.
var (
	hljsBlockRe = regexp.MustCompile(`(?is)\.hljs\s*\{([^}]*)\}`)
	fgDeclRe    = regexp.MustCompile(`(?i)(?:^|[;{\s])color\s*:\s*([^;}]+)`)
	bgDeclRe    = regexp.MustCompile(`(?i)background(?:-color)?\s*:\s*([^;}]+)`)
	hexRe       = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)
)

const (
	fallbackForeground Color = "#000000"
	neutralGray        Color = "#808080"
)

// ParseStylesheet extracts the foreground and background colors from the
// first `.hljs { ... }` block in css. Flexible whitespace, including the
// minified single-line form, is accepted. A missing block or missing
// declaration yields fg black and bg empty (caller substitutes its default
// background). Parsing never fails.
func ParseStylesheet(css string) (bg, fg Color) {
	fg = fallbackForeground

	block := hljsBlockRe.FindStringSubmatch(css)
	if block == nil {
		return "", fg
	}
	body := block[1]

	if m := fgDeclRe.FindStringSubmatch(body); m != nil {
		fg = parseColorValue(m[1])
	}
	if m := bgDeclRe.FindStringSubmatch(body); m != nil {
		bg = parseColorValue(m[1])
	}
	return bg, fg
}

// parseColorValue resolves one declaration value. Grammar: #RGB or #RRGGBB
// (case-insensitive, #RGB channels replicated c→cc) or the literal names
// white/black. Anything else resolves to a neutral gray rather than failing.
func parseColorValue(v string) Color {
	v = strings.TrimSpace(v)
	switch strings.ToLower(v) {
	case "white":
		return "#FFFFFF"
	case "black":
		return "#000000"
	}
	if !hexRe.MatchString(v) {
		return neutralGray
	}
	if len(v) == 4 {
		return Color(strings.ToUpper(fmt.Sprintf("#%c%c%c%c%c%c", v[1], v[1], v[2], v[2], v[3], v[3])))
	}
	return Color(strings.ToUpper(v))
}

// FromCSS builds a theme configuration from a dark and a light stylesheet.
// If either source cannot be read it returns ErrNoConfiguration and the
// caller falls back to the built-in palettes; partial custom theming is not
// supported.
func FromCSS(darkPath, lightPath string) (Config, error) {
	dark, err := os.ReadFile(darkPath)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", darkPath, ErrNoConfiguration)
	}
	light, err := os.ReadFile(lightPath)
	if err != nil {
		return Config{}, fmt.Errorf("reading %s: %w", lightPath, ErrNoConfiguration)
	}
	return Config{
		Dark:  fromStylesheet(string(dark), true),
		Light: fromStylesheet(string(light), false),
	}, nil
}

// fromStylesheet resolves one side of a custom pair. Accents stay built-in;
// the current-line and code tints are derived from the parsed colors so the
// stylesheet only has to supply the two declarations the format defines.
func fromStylesheet(css string, isDark bool) Theme {
	t := accents(isDark)
	bg, fg := ParseStylesheet(css)
	if bg != "" {
		t.Background = bg
	}
	t.Foreground = fg
	t.CurrentLine = Dim(t.Background, t.Foreground, 0.08)
	t.CodeTint = Dim(t.Background, t.Foreground, 0.05)
	t.FromStylesheet = true
	return t
}
