// Package surface defines the Text Surface capability the decoration
// engine writes to, plus an in-memory reference implementation. The engine
// is the sole writer of decoration attributes; text-content edits flow the
// other direction (host → engine, via change notifications).
package surface

import "github.com/zjrosen/quill/internal/theme"

// Selection is a half-open byte range; a caret is Start == End.
type Selection struct {
	Start int
	End   int
}

// Indent is per-line paragraph geometry in display columns.
type Indent struct {
	First   int
	Hanging int
}

// Attr is the full decoration state of one position. The zero value is
// undecorated text.
type Attr struct {
	Foreground    theme.Color
	Background    theme.Color
	Bold          bool
	Italic        bool
	Underline     bool
	Strikethrough bool
	Link          string
}

// Surface is the attribute-mutation capability of a rendering surface.
// All ranges are byte offsets clamped by the implementation; decoration
// never changes character count. Begin/End bracket one decoration job so
// observers see a single coalesced update.
type Surface interface {
	Text() string
	Selection() Selection
	SetSelection(sel Selection)

	Begin()
	End()

	SetForeground(start, end int, c theme.Color)
	SetBackground(start, end int, c theme.Color)
	RemoveBackground(start, end int)
	SetBold(start, end int, on bool)
	SetItalic(start, end int, on bool)
	SetUnderline(start, end int, on bool)
	SetStrikethrough(start, end int, on bool)
	SetLink(start, end int, url string)
	SetIndent(line int, indent Indent)

	// LineSpan returns the byte range of the line containing offset,
	// excluding the trailing newline.
	LineSpan(offset int) (start, end int)
}
