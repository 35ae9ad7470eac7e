package tokenizer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/theme"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name string
		in   string
		ok   bool
	}{
		{name: "go", in: "go", ok: true},
		{name: "alias", in: "golang", ok: true},
		{name: "plain", in: "plain", ok: false},
		{name: "empty", in: "", ok: false},
		{name: "unknown", in: "no-such-language-xyz", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := Resolve(tt.in)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestIsMarkdown(t *testing.T) {
	assert.True(t, IsMarkdown("markdown"))
	assert.True(t, IsMarkdown("MD"))
	assert.False(t, IsMarkdown("go"))
	assert.False(t, IsMarkdown(""))
}

func TestChromaHighlight(t *testing.T) {
	c := NewChroma("catppuccin-mocha")
	spans, err := c.Highlight(context.Background(), "package main\n", "go")
	require.NoError(t, err)
	require.NotEmpty(t, spans)

	// ordered, non-overlapping, inside the text
	prev := 0
	for _, s := range spans {
		assert.GreaterOrEqual(t, s.Start, prev)
		assert.Greater(t, s.End, s.Start)
		assert.LessOrEqual(t, s.End, len("package main\n"))
		prev = s.End
	}

	// the keyword carries a color from the active style
	assert.NotEmpty(t, spans[0].Color)
}

func TestChromaHighlightUnknownLanguage(t *testing.T) {
	c := NewChroma("catppuccin-mocha")
	spans, err := c.Highlight(context.Background(), "whatever", "no-such-language-xyz")
	require.NoError(t, err)
	assert.Empty(t, spans)
}

func TestChromaHighlightDeterministic(t *testing.T) {
	c := NewChroma("catppuccin-mocha")
	a, err := c.Highlight(context.Background(), "x := 1\n", "go")
	require.NoError(t, err)
	b, err := c.Highlight(context.Background(), "x := 1\n", "go")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChromaSetStyleChangesOutput(t *testing.T) {
	text := "package main\nfunc main() {}\n"
	c := NewChroma("catppuccin-mocha")
	dark, err := c.Highlight(context.Background(), text, "go")
	require.NoError(t, err)

	c.SetStyle("catppuccin-latte")
	light, err := c.Highlight(context.Background(), text, "go")
	require.NoError(t, err)

	assert.NotEqual(t, dark, light)
}

func TestStyleForTheme(t *testing.T) {
	cfg := theme.Builtin(theme.PresetDefault)
	assert.Equal(t, "catppuccin-mocha", StyleForTheme(cfg.Dark))
	assert.Equal(t, "catppuccin-latte", StyleForTheme(cfg.Light))
}
