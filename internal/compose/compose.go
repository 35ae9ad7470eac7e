// Package compose applies theme colors, tokenizer output, and marker
// grammar matches onto a text surface in a fixed precedence order. Later
// passes may override earlier colors but never remove structural
// attributes; claimed code ranges are tracked so overlapping formatting
// passes cannot corrupt each other.
package compose

import (
	"context"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/marker"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
	"github.com/zjrosen/quill/internal/wrapindent"
)

// Mode selects which decoration passes apply for the active language.
type Mode int

const (
	// ModeCode: language tokens only, no marker decoration.
	ModeCode Mode = iota
	// ModePlain: the no-highlighting path, marker decoration applies.
	ModePlain
	// ModeMarkdown: marker decoration applies.
	ModeMarkdown
)

// ModeFor derives the decoration mode from a user-facing language name.
func ModeFor(language string) Mode {
	if tokenizer.IsMarkdown(language) {
		return ModeMarkdown
	}
	if _, ok := tokenizer.Resolve(language); ok {
		return ModeCode
	}
	return ModePlain
}

// Retokenizer re-tokenizes fenced code-block content with the fence
// language. The scheduler passes its Tokenizer; failures degrade to an
// untokenized tint.
type Retokenizer interface {
	Highlight(ctx context.Context, text, languageID string) ([]tokenizer.Span, error)
}

// Checked-checkbox styling: the whole line dims toward the background, the
// bracket is re-asserted at reduced accent on top of the dim, then the
// content capture is struck through.
const (
	checkedLineDim    = 0.55
	checkedBracketDim = 0.30
)

// Compose runs the full decoration pipeline on s. The surface is mutated
// inside one Begin/End bracket; the selection is captured before mutation
// and clamp-restored after.
func Compose(ctx context.Context, s surface.Surface, tokens []tokenizer.Span, th theme.Theme, set config.Settings, mode Mode, retok Retokenizer) {
	text := s.Text()
	sel := s.Selection()

	s.Begin()
	defer s.End()
	defer s.SetSelection(sel)

	basePass(s, text, tokens, th)
	if mode != ModeCode {
		markerPass(s, text, th, set)
		codeRanges := markdownPass(ctx, s, text, th, retok)
		linkPass(s, text, th, set, codeRanges)
	}
	indentPass(s, text, set, mode)
}

// basePass resets every decoration attribute to the flat theme foreground,
// then transplants the tokenizer's per-span styling when spans exist.
// Resetting first keeps re-decoration of an already-styled buffer
// idempotent.
func basePass(s surface.Surface, text string, tokens []tokenizer.Span, th theme.Theme) {
	n := len(text)
	s.SetForeground(0, n, th.Foreground)
	s.RemoveBackground(0, n)
	s.SetBold(0, n, false)
	s.SetItalic(0, n, false)
	s.SetUnderline(0, n, false)
	s.SetStrikethrough(0, n, false)
	s.SetLink(0, n, "")

	applySpans(s, tokens, 0)
}

func applySpans(s surface.Surface, tokens []tokenizer.Span, offset int) {
	for _, tok := range tokens {
		if tok.Color != "" {
			s.SetForeground(offset+tok.Start, offset+tok.End, tok.Color)
		}
		if tok.Bold {
			s.SetBold(offset+tok.Start, offset+tok.End, true)
		}
		if tok.Italic {
			s.SetItalic(offset+tok.Start, offset+tok.End, true)
		}
		if tok.Underline {
			s.SetUnderline(offset+tok.Start, offset+tok.End, true)
		}
	}
}

// markerPass recolors list marker glyphs and applies checkbox styling.
func markerPass(s surface.Surface, text string, th theme.Theme, set config.Settings) {
	var checkboxes []marker.Match
	if set.Checklists {
		checkboxes = marker.Checkboxes(text)
	}

	if set.BulletLists {
		for _, m := range marker.Bullets(text) {
			if onCheckboxLine(m, checkboxes) {
				continue
			}
			s.SetForeground(m.Start, m.End, th.Bullet)
		}
	}
	if set.NumberedLists {
		for _, m := range marker.OrderedNumbers(text) {
			s.SetForeground(m.Start, m.End, th.Bullet)
		}
	}

	for _, m := range checkboxes {
		bracket, content := m.Groups[0], m.Groups[1]
		if !m.Checked {
			s.SetForeground(bracket.Start, bracket.End, th.Checkbox)
			continue
		}
		// dim whole line first, then re-assert the bracket, then strike
		s.SetForeground(m.Start, m.End, theme.Dim(th.Foreground, th.Background, checkedLineDim))
		s.SetForeground(bracket.Start, bracket.End, theme.Dim(th.Checkbox, th.Background, checkedBracketDim))
		s.SetStrikethrough(content.Start, content.End, true)
	}
}

func onCheckboxLine(bullet marker.Match, checkboxes []marker.Match) bool {
	for _, c := range checkboxes {
		if c.Span.Intersects(bullet.Span) {
			return true
		}
	}
	return false
}

// markdownPass applies fenced code blocks, inline code, bold, italic, and
// strikethrough in that fixed sub-order. It returns the claimed code
// ranges so the link pass can honor them too.
func markdownPass(ctx context.Context, s surface.Surface, text string, th theme.Theme, retok Retokenizer) []marker.Span {
	var codeRanges []marker.Span

	for _, m := range marker.CodeBlocks(text) {
		s.SetBackground(m.Start, m.End, th.CodeTint)
		codeRanges = append(codeRanges, m.Span)
		retokenizeFence(ctx, s, text, m, retok)
	}

	for _, m := range marker.InlineCode(text) {
		if intersectsAny(m.Span, codeRanges) {
			continue
		}
		s.SetBackground(m.Start, m.End, th.CodeTint)
		codeRanges = append(codeRanges, m.Span)
	}

	var boldRanges []marker.Span
	for _, m := range marker.Bold(text) {
		if intersectsAny(m.Span, codeRanges) {
			continue
		}
		s.SetBold(m.Start, m.End, true)
		boldRanges = append(boldRanges, m.Span)
	}

	for _, m := range marker.Italic(text) {
		if intersectsAny(m.Span, codeRanges) || intersectsAny(m.Span, boldRanges) {
			continue
		}
		s.SetItalic(m.Start, m.End, true)
	}

	for _, m := range marker.Strikethrough(text) {
		if intersectsAny(m.Span, codeRanges) {
			continue
		}
		s.SetStrikethrough(m.Start, m.End, true)
	}

	return codeRanges
}

// retokenizeFence highlights fenced content with the declared fence
// language, restricted to the content region. Fence lines and unknown
// languages keep the plain tint.
func retokenizeFence(ctx context.Context, s surface.Surface, text string, m marker.Match, retok Retokenizer) {
	if retok == nil {
		return
	}
	lang := text[m.Groups[0].Start:m.Groups[0].End]
	langID, ok := tokenizer.Resolve(lang)
	if !ok {
		return
	}
	content := m.Groups[1]
	spans, err := retok.Highlight(ctx, text[content.Start:content.End], langID)
	if err != nil {
		log.Debug(log.CatCompose, "fence retokenize failed", "language", langID, "error", err)
		return
	}
	applySpans(s, spans, content.Start)
}

// linkPass colors, underlines, and tags navigable URLs. Links inside
// recognized code ranges stay unstyled: a literal URL in a code sample
// reads as code, not navigation.
func linkPass(s surface.Surface, text string, th theme.Theme, set config.Settings, codeRanges []marker.Span) {
	if !set.ClickableLinks {
		return
	}
	for _, m := range marker.URLs(text) {
		if intersectsAny(m.Span, codeRanges) {
			continue
		}
		s.SetForeground(m.Start, m.End, th.Link)
		s.SetUnderline(m.Start, m.End, true)
		s.SetLink(m.Start, m.End, text[m.Start:m.End])
	}
}

// indentPass sets paragraph geometry after all color passes. List
// recognition only applies outside code mode.
func indentPass(s surface.Surface, text string, set config.Settings, mode Mode) {
	kinds := wrapindent.Kinds{}
	if mode != ModeCode {
		kinds = wrapindent.Kinds{
			Bullets:    set.BulletLists,
			Ordered:    set.NumberedLists,
			Checklists: set.Checklists,
		}
	}
	for i, ind := range wrapindent.Lines(text, set.TabWidth, kinds) {
		s.SetIndent(i, ind)
	}
}

func intersectsAny(span marker.Span, ranges []marker.Span) bool {
	for _, r := range ranges {
		if span.Intersects(r) {
			return true
		}
	}
	return false
}

// LineRange is the byte range last painted by the current-line pass.
type LineRange = marker.Span

// HighlightLine is the cheap caret-move path: it removes the previously
// highlighted line's background and paints the caret's line. It is the
// only place the engine removes an attribute. Disabled highlighting still
// clears prev so toggling the setting off cleans up.
func HighlightLine(s surface.Surface, th theme.Theme, set config.Settings, caret int, prev LineRange) LineRange {
	s.Begin()
	defer s.End()

	if prev.End > prev.Start {
		s.RemoveBackground(prev.Start, prev.End)
	}
	if !set.HighlightCurrentLine {
		return LineRange{}
	}
	start, end := s.LineSpan(caret)
	s.SetBackground(start, end, th.CurrentLine)
	return LineRange{Start: start, End: end}
}
