package theme

// Preset names a built-in palette pair.
type Preset string

const (
	// PresetDefault is the standard palette.
	PresetDefault Preset = "default"
	// PresetInk is a higher-contrast alternative.
	PresetInk Preset = "ink"
)

// Built-in palettes. Accents follow the catppuccin-ish scheme the rest of
// the UI uses: mauve bullets, teal checkboxes, blue links.
var (
	defaultDark = Theme{
		IsDark:      true,
		Background:  "#1E1E2E",
		Foreground:  "#CDD6F4",
		Bullet:      "#CBA6F7",
		Checkbox:    "#94E2D5",
		Link:        "#89B4FA",
		CurrentLine: "#313244",
		CodeTint:    "#2A2A3C",
	}

	defaultLight = Theme{
		IsDark:      false,
		Background:  "#EFF1F5",
		Foreground:  "#4C4F69",
		Bullet:      "#8839EF",
		Checkbox:    "#179299",
		Link:        "#1E66F5",
		CurrentLine: "#E0E2EA",
		CodeTint:    "#E6E9EF",
	}

	inkDark = Theme{
		IsDark:      true,
		Background:  "#101014",
		Foreground:  "#E8E8E8",
		Bullet:      "#D0A8FF",
		Checkbox:    "#73F59F",
		Link:        "#54A0FF",
		CurrentLine: "#26262E",
		CodeTint:    "#1C1C24",
	}

	inkLight = Theme{
		IsDark:      false,
		Background:  "#FFFFFF",
		Foreground:  "#1A1A1A",
		Bullet:      "#6B2FBF",
		Checkbox:    "#0B7A3E",
		Link:        "#0B5ED7",
		CurrentLine: "#F0F0F0",
		CodeTint:    "#F5F5F5",
	}
)

// Builtin returns the palette pair for a preset. Unknown presets resolve to
// the default pair rather than failing.
func Builtin(p Preset) Config {
	switch p {
	case PresetInk:
		return Config{Dark: inkDark, Light: inkLight}
	default:
		return Config{Dark: defaultDark, Light: defaultLight}
	}
}

// accents copies the built-in accent colors for the given side onto a
// stylesheet-derived theme, which only carries background and foreground.
func accents(isDark bool) Theme {
	if isDark {
		return defaultDark
	}
	return defaultLight
}
