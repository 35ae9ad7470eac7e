// Package wrapindent derives per-line hanging indent from leading
// whitespace and, for list lines, the content-start column. It is pure
// paragraph geometry, independent of color.
package wrapindent

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/zjrosen/quill/internal/marker"
	"github.com/zjrosen/quill/internal/surface"
)

// Kinds selects which list kinds override the hanging indent.
type Kinds struct {
	Bullets    bool
	Ordered    bool
	Checklists bool
}

// Lines computes the indent of every line in text. Tabs expand to tabWidth
// columns. A recognized list line of an enabled kind hangs at the first
// content column after the marker and its trailing space instead of the raw
// leading-whitespace column.
func Lines(text string, tabWidth int, kinds Kinds) []surface.Indent {
	if tabWidth < 1 {
		tabWidth = 1
	}

	// content-start byte offset per list line start
	contentAt := make(map[int]int)
	if kinds.Checklists {
		for _, m := range marker.Checkboxes(text) {
			contentAt[m.Start] = m.Groups[1].Start
		}
	}
	if kinds.Bullets {
		for _, m := range marker.Bullets(text) {
			start, _ := lineAt(text, m.Start)
			if _, claimed := contentAt[start]; !claimed {
				contentAt[start] = m.End + 1
			}
		}
	}
	if kinds.Ordered {
		for _, m := range marker.OrderedNumbers(text) {
			start, _ := lineAt(text, m.Start)
			if _, claimed := contentAt[start]; !claimed {
				contentAt[start] = m.End + 1
			}
		}
	}

	var indents []surface.Indent
	offset := 0
	for _, line := range strings.Split(text, "\n") {
		leading := columns(leadingWhitespace(line), tabWidth)
		ind := surface.Indent{First: leading, Hanging: leading}
		if contentStart, ok := contentAt[offset]; ok {
			ind.Hanging = columns(text[offset:contentStart], tabWidth)
		}
		indents = append(indents, ind)
		offset += len(line) + 1
	}
	return indents
}

// lineAt returns the byte range of the line containing offset. Checkbox
// matches already cover the whole line; bullet and ordered matches cover
// the marker glyphs only, so their line start is recovered here.
func lineAt(text string, offset int) (int, int) {
	start := strings.LastIndexByte(text[:offset], '\n') + 1
	rel := strings.IndexByte(text[offset:], '\n')
	if rel < 0 {
		return start, len(text)
	}
	return start, offset + rel
}

func leadingWhitespace(line string) string {
	for i, r := range line {
		if r != ' ' && r != '\t' {
			return line[:i]
		}
	}
	return line
}

// columns measures display width, expanding tabs to tabWidth columns.
// Grapheme clusters are measured as units so combining sequences and wide
// runes count their terminal cells, not their code points.
func columns(s string, tabWidth int) int {
	w := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		if g.Str() == "\t" {
			w += tabWidth
			continue
		}
		w += runewidth.StringWidth(g.Str())
	}
	return w
}
