package compose

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/testutil"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
)

func testTheme() theme.Theme {
	return theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantDark, true)
}

func composeText(t *testing.T, text string, mode Mode) (*surface.Buffer, theme.Theme) {
	t.Helper()
	buf := surface.NewBuffer(text)
	th := testTheme()
	Compose(context.Background(), buf, nil, th, config.Defaults(), mode, nil)
	return buf, th
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, ModeMarkdown, ModeFor("markdown"))
	assert.Equal(t, ModeMarkdown, ModeFor("md"))
	assert.Equal(t, ModeCode, ModeFor("go"))
	assert.Equal(t, ModePlain, ModeFor(""))
	assert.Equal(t, ModePlain, ModeFor("plain"))
	assert.Equal(t, ModePlain, ModeFor("no-such-language"))
}

func TestComposeTodoDocument(t *testing.T) {
	doc := testutil.NewDoc().
		Heading("Todo").
		Checkbox(true, "buy milk").
		Checkbox(false, "*call* mom").
		URL("https://example.com")
	buf, th := composeText(t, doc.Build(), ModePlain)

	// Checked item: whole line dimmed, content struck through.
	dimLine := theme.Dim(th.Foreground, th.Background, checkedLineDim)
	a := buf.AttrAt(doc.Offset("buy milk"))
	assert.Equal(t, dimLine, a.Foreground)
	assert.True(t, a.Strikethrough)

	// Checked bracket: re-asserted over the dim at reduced accent.
	assert.Equal(t, theme.Dim(th.Checkbox, th.Background, checkedBracketDim), buf.AttrAt(doc.Offset("[x]")).Foreground)

	// Unchecked bracket: full checkbox accent, content untouched.
	assert.Equal(t, th.Checkbox, buf.AttrAt(doc.Offset("[ ]")).Foreground)
	mom := buf.AttrAt(doc.Offset("mom"))
	assert.False(t, mom.Strikethrough)
	assert.Equal(t, th.Foreground, mom.Foreground)

	// Emphasis inside the unchecked item.
	call := buf.AttrAt(doc.Offset("call"))
	assert.True(t, call.Italic)
	assert.False(t, call.Bold)

	// URL: link accent, underline, navigable target.
	ua := buf.AttrAt(doc.Offset("https://"))
	assert.Equal(t, th.Link, ua.Foreground)
	assert.True(t, ua.Underline)
	assert.Equal(t, "https://example.com", ua.Link)
}

func TestComposeIdempotent(t *testing.T) {
	text := testutil.NewDoc().
		Checkbox(true, "done").
		Line("**bold** and *ital*").
		Line("`code`").
		URL("https://example.com").
		Build()
	buf := surface.NewBuffer(text)
	th := testTheme()
	set := config.Defaults()

	Compose(context.Background(), buf, nil, th, set, ModeMarkdown, nil)
	first := buf.Runs()

	Compose(context.Background(), buf, nil, th, set, ModeMarkdown, nil)
	assert.Equal(t, first, buf.Runs(), "re-decorating an already-styled buffer must be a no-op")
}

func TestComposeIdempotentProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		lines := rapid.SliceOfN(rapid.SampledFrom([]string{
			"- [x] task one",
			"- [ ] task two",
			"- bullet",
			"1. ordered",
			"**bold text**",
			"*italic text*",
			"~~gone~~",
			"`inline`",
			"```go",
			"fmt.Println(1)",
			"```",
			"plain prose here",
			"https://example.com/path",
			"",
		}), 0, 12).Draw(t, "lines")
		text := strings.Join(lines, "\n")

		buf := surface.NewBuffer(text)
		th := testTheme()
		set := config.Defaults()

		Compose(context.Background(), buf, nil, th, set, ModeMarkdown, nil)
		first := buf.Runs()
		Compose(context.Background(), buf, nil, th, set, ModeMarkdown, nil)

		if !assert.ObjectsAreEqual(first, buf.Runs()) {
			t.Fatalf("second decoration changed the buffer for %q", text)
		}
	})
}

func TestBoldWinsOverItalic(t *testing.T) {
	text := "**bold** and *ital*"
	buf, _ := composeText(t, text, ModeMarkdown)

	bold := strings.Index(text, "bold")
	assert.True(t, buf.AttrAt(bold).Bold)
	assert.False(t, buf.AttrAt(bold).Italic, "bold delimiters must not double as italic")

	ital := strings.Index(text, "ital")
	assert.True(t, buf.AttrAt(ital).Italic)
	assert.False(t, buf.AttrAt(ital).Bold)
}

func TestEmphasisInsideCodeBlockUnstyled(t *testing.T) {
	text := "```\n**not bold** *not italic*\n```\n"
	buf, th := composeText(t, text, ModeMarkdown)

	notBold := strings.Index(text, "not bold")
	a := buf.AttrAt(notBold)
	assert.False(t, a.Bold)
	assert.False(t, a.Italic)
	assert.Equal(t, th.CodeTint, a.Background)
}

func TestInlineCodeInsideFenceStaysClaimedOnce(t *testing.T) {
	text := "```\nuse `backticks` here\n```\nand `real` code\n"
	buf, th := composeText(t, text, ModeMarkdown)

	inside := strings.Index(text, "backticks")
	assert.Equal(t, th.CodeTint, buf.AttrAt(inside).Background)

	outside := strings.Index(text, "real")
	assert.Equal(t, th.CodeTint, buf.AttrAt(outside).Background)
}

func TestLinkInsideCodeBlockUnstyled(t *testing.T) {
	text := "```\nfetch https://example.com/api\n```\nsee https://example.com\n"
	buf, th := composeText(t, text, ModeMarkdown)

	inside := strings.Index(text, "https://example.com/api")
	a := buf.AttrAt(inside)
	assert.Empty(t, a.Link)
	assert.False(t, a.Underline)

	outside := strings.LastIndex(text, "https://example.com")
	ua := buf.AttrAt(outside)
	assert.Equal(t, th.Link, ua.Foreground)
	assert.Equal(t, "https://example.com", ua.Link)
}

func TestModeCodeSkipsMarkerDecoration(t *testing.T) {
	text := "- not a bullet\nhttps://example.com\n"
	buf := surface.NewBuffer(text)
	th := testTheme()
	Compose(context.Background(), buf, nil, th, config.Defaults(), ModeCode, nil)

	assert.Equal(t, th.Foreground, buf.AttrAt(0).Foreground)
	url := strings.Index(text, "https://")
	assert.Empty(t, buf.AttrAt(url).Link)
	assert.Equal(t, surface.Indent{}, buf.LineIndent(0))
}

func TestBulletAndOrderedAccents(t *testing.T) {
	doc := testutil.NewDoc().Bullet("first").Ordered(2, "second")
	buf, th := composeText(t, doc.Build(), ModeMarkdown)

	assert.Equal(t, th.Bullet, buf.AttrAt(0).Foreground)
	assert.Equal(t, th.Bullet, buf.AttrAt(doc.Offset("2.")).Foreground)
	assert.Equal(t, th.Foreground, buf.AttrAt(doc.Offset("first")).Foreground)
}

func TestChecklistsDisabled(t *testing.T) {
	doc := testutil.NewDoc().Checkbox(true, "done")
	buf := surface.NewBuffer(doc.Build())
	th := testTheme()
	set := testutil.Settings(testutil.WithoutChecklists())
	Compose(context.Background(), buf, nil, th, set, ModeMarkdown, nil)

	done := doc.Offset("done")
	assert.False(t, buf.AttrAt(done).Strikethrough)
	assert.Equal(t, th.Foreground, buf.AttrAt(done).Foreground)
	// The leading dash now reads as a plain bullet.
	assert.Equal(t, th.Bullet, buf.AttrAt(0).Foreground)
}

func TestClickableLinksDisabled(t *testing.T) {
	doc := testutil.NewDoc().URL("https://example.com")
	buf := surface.NewBuffer(doc.Build())
	th := testTheme()
	Compose(context.Background(), buf, nil, th, testutil.Settings(testutil.WithoutLinks()), ModeMarkdown, nil)

	a := buf.AttrAt(0)
	assert.Empty(t, a.Link)
	assert.False(t, a.Underline)
	assert.Equal(t, th.Foreground, a.Foreground)
}

func TestComposeRestoresSelection(t *testing.T) {
	buf := surface.NewBuffer("hello world")
	buf.SetSelection(surface.Selection{Start: 2, End: 7})
	Compose(context.Background(), buf, nil, testTheme(), config.Defaults(), ModeMarkdown, nil)
	assert.Equal(t, surface.Selection{Start: 2, End: 7}, buf.Selection())
}

func TestComposeAppliesTokenSpans(t *testing.T) {
	text := "package main"
	buf := surface.NewBuffer(text)
	th := testTheme()
	spans := []tokenizer.Span{{Start: 0, End: 7, Color: "#c678dd", Bold: true}}
	Compose(context.Background(), buf, spans, th, config.Defaults(), ModeCode, nil)

	assert.Equal(t, theme.Color("#c678dd"), buf.AttrAt(0).Foreground)
	assert.True(t, buf.AttrAt(0).Bold)
	assert.Equal(t, th.Foreground, buf.AttrAt(8).Foreground)
	assert.False(t, buf.AttrAt(8).Bold)
}

func TestIndentGeometryForLists(t *testing.T) {
	text := testutil.NewDoc().Bullet("wrapped bullet").Line("plain").Build()
	buf, _ := composeText(t, text, ModeMarkdown)

	assert.Equal(t, surface.Indent{First: 0, Hanging: 2}, buf.LineIndent(0))
	assert.Equal(t, surface.Indent{}, buf.LineIndent(1))
}

func TestHighlightLineMovesWithCaret(t *testing.T) {
	text := "one\ntwo"
	buf := surface.NewBuffer(text)
	th := testTheme()
	set := config.Defaults()

	prev := HighlightLine(buf, th, set, 0, LineRange{})
	assert.Equal(t, th.CurrentLine, buf.AttrAt(0).Background)
	assert.Equal(t, LineRange{Start: 0, End: 3}, prev)

	prev = HighlightLine(buf, th, set, 5, prev)
	assert.Equal(t, theme.Color(""), buf.AttrAt(0).Background)
	assert.Equal(t, th.CurrentLine, buf.AttrAt(5).Background)

	set.HighlightCurrentLine = false
	prev = HighlightLine(buf, th, set, 5, prev)
	assert.Equal(t, theme.Color(""), buf.AttrAt(5).Background)
	assert.Equal(t, LineRange{}, prev)
}

func TestRetokenizeFenceScopesSpansToContent(t *testing.T) {
	text := "```go\nx := 1\n```\n"
	buf := surface.NewBuffer(text)
	th := testTheme()

	retok := retokFunc(func(ctx context.Context, content, langID string) ([]tokenizer.Span, error) {
		require.Equal(t, "x := 1\n", content)
		require.Equal(t, "go", langID)
		return []tokenizer.Span{{Start: 0, End: 1, Color: "#e06c75"}}, nil
	})
	Compose(context.Background(), buf, nil, th, config.Defaults(), ModeMarkdown, retok)

	x := strings.Index(text, "x :=")
	assert.Equal(t, theme.Color("#e06c75"), buf.AttrAt(x).Foreground)
	assert.Equal(t, th.CodeTint, buf.AttrAt(x).Background)
	// The fence line keeps the base foreground.
	assert.Equal(t, th.CodeTint, buf.AttrAt(0).Background)
}

type retokFunc func(ctx context.Context, text, languageID string) ([]tokenizer.Span, error)

func (f retokFunc) Highlight(ctx context.Context, text, languageID string) ([]tokenizer.Span, error) {
	return f(ctx, text, languageID)
}
