// Package config provides the settings surface exposed to hosts, with
// defaults, validation, and change notification.
package config

import (
	"fmt"

	"github.com/zjrosen/quill/internal/theme"
)

// ThemeSettings holds appearance configuration.
type ThemeSettings struct {
	// Appearance overrides dark/light selection.
	// Valid values: "system" (default), "light", "dark".
	Appearance string `mapstructure:"appearance" yaml:"appearance"`

	// Preset selects a built-in palette pair: "default" or "ink".
	Preset string `mapstructure:"preset" yaml:"preset"`

	// DarkStylesheet/LightStylesheet point at a highlight.js-style CSS
	// pair. Custom theming is all-or-nothing: both must be readable or
	// the built-in preset applies.
	DarkStylesheet  string `mapstructure:"dark_stylesheet" yaml:"dark_stylesheet"`
	LightStylesheet string `mapstructure:"light_stylesheet" yaml:"light_stylesheet"`
}

// Settings is the immutable-per-job configuration value object. A running
// decoration job reads its own copy; changes mid-job never retroactively
// alter that job.
type Settings struct {
	ShowLineNumbers      bool `mapstructure:"show_line_numbers" yaml:"show_line_numbers"`
	WordWrap             bool `mapstructure:"word_wrap" yaml:"word_wrap"`
	HighlightCurrentLine bool `mapstructure:"highlight_current_line" yaml:"highlight_current_line"`
	IndentUsingSpaces    bool `mapstructure:"indent_using_spaces" yaml:"indent_using_spaces"`
	TabWidth             int  `mapstructure:"tab_width" yaml:"tab_width"`

	BulletLists    bool `mapstructure:"bullet_lists" yaml:"bullet_lists"`
	NumberedLists  bool `mapstructure:"numbered_lists" yaml:"numbered_lists"`
	Checklists     bool `mapstructure:"checklists" yaml:"checklists"`
	ClickableLinks bool `mapstructure:"clickable_links" yaml:"clickable_links"`

	Theme ThemeSettings `mapstructure:"theme" yaml:"theme"`
}

// Defaults returns the settings applied when nothing is configured.
func Defaults() Settings {
	return Settings{
		ShowLineNumbers:      false,
		WordWrap:             true,
		HighlightCurrentLine: true,
		IndentUsingSpaces:    true,
		TabWidth:             4,
		BulletLists:          true,
		NumberedLists:        true,
		Checklists:           true,
		ClickableLinks:       true,
		Theme: ThemeSettings{
			Appearance: string(theme.VariantSystem),
			Preset:     string(theme.PresetDefault),
		},
	}
}

// Validate reports configuration errors a host should surface.
func (s Settings) Validate() error {
	if s.TabWidth < 1 {
		return fmt.Errorf("tab_width must be >= 1, got %d", s.TabWidth)
	}
	switch theme.Variant(s.Theme.Appearance) {
	case theme.VariantSystem, theme.VariantLight, theme.VariantDark:
	default:
		return fmt.Errorf("theme.appearance must be system, light, or dark, got %q", s.Theme.Appearance)
	}
	return nil
}

// Normalize clamps out-of-range values instead of failing, for hosts that
// prefer degraded operation over rejection.
func (s Settings) Normalize() Settings {
	if s.TabWidth < 1 {
		s.TabWidth = 1
	}
	switch theme.Variant(s.Theme.Appearance) {
	case theme.VariantSystem, theme.VariantLight, theme.VariantDark:
	default:
		s.Theme.Appearance = string(theme.VariantSystem)
	}
	if s.Theme.Preset == "" {
		s.Theme.Preset = string(theme.PresetDefault)
	}
	return s
}

// Variant returns the appearance override as a theme variant.
func (s Settings) Variant() theme.Variant {
	return theme.Variant(s.Theme.Appearance)
}

// Preset returns the selected built-in palette preset.
func (s Settings) Preset() theme.Preset {
	return theme.Preset(s.Theme.Preset)
}

// ThemeAffecting reports whether a change from old to new forces a
// non-suppressed decoration job even when text and language are unchanged.
func ThemeAffecting(old, new Settings) bool {
	return old.Theme != new.Theme
}
