// Package theme resolves the dark/light color palette used by the
// decoration engine, either from built-in presets or from a user-supplied
// highlight.js-style stylesheet pair.
package theme

import (
	"errors"

	"github.com/charmbracelet/lipgloss"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrNoConfiguration is returned by FromCSS when either stylesheet source
// cannot be read. Custom theming is all-or-nothing: callers fall back to the
// built-in palettes rather than mixing a custom dark with a built-in light.
var ErrNoConfiguration = errors.New("theme: no configuration")

// Variant selects which member of a Config applies.
type Variant string

const (
	VariantSystem Variant = "system"
	VariantLight  Variant = "light"
	VariantDark   Variant = "dark"
)

// Color is a hex color in #RRGGBB form.
type Color string

// Lipgloss converts the color for use in a lipgloss style.
func (c Color) Lipgloss() lipgloss.Color {
	return lipgloss.Color(string(c))
}

// RGB returns the 8-bit channel values. Invalid colors return zeros.
func (c Color) RGB() (r, g, b uint8) {
	parsed, err := colorful.Hex(string(c))
	if err != nil {
		return 0, 0, 0
	}
	cr, cg, cb := parsed.RGB255()
	return cr, cg, cb
}

// Theme is one resolved palette. Accents are pure functions of IsDark for
// built-in palettes; stylesheet-derived themes keep the built-in accents of
// their IsDark side.
type Theme struct {
	IsDark         bool
	Background     Color
	Foreground     Color
	Bullet         Color
	Checkbox       Color
	Link           Color
	CurrentLine    Color
	CodeTint       Color
	FromStylesheet bool
}

// Config pairs a dark and a light theme. The selected member is chosen by
// an appearance override; "system" defers to the host environment signal.
type Config struct {
	Dark  Theme
	Light Theme
}

// Resolve picks the theme for the given override. hostIsDark carries the
// host environment's dark-mode signal and is only consulted for
// VariantSystem; the engine never queries the terminal itself.
func Resolve(cfg Config, override Variant, hostIsDark bool) Theme {
	switch override {
	case VariantDark:
		return cfg.Dark
	case VariantLight:
		return cfg.Light
	default:
		if hostIsDark {
			return cfg.Dark
		}
		return cfg.Light
	}
}

// Dim blends c toward bg by factor f (0 keeps c, 1 yields bg). Used for
// checked-checkbox dimming and derived tints. Invalid input returns c
// unchanged so decoration never fails on a bad palette.
func Dim(c, bg Color, f float64) Color {
	from, err := colorful.Hex(string(c))
	if err != nil {
		return c
	}
	to, err := colorful.Hex(string(bg))
	if err != nil {
		return c
	}
	return Color(from.BlendRgb(to, f).Clamped().Hex())
}
