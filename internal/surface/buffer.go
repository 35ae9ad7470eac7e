package surface

import (
	"strings"
	"sync/atomic"

	"github.com/zjrosen/quill/internal/pubsub"
	"github.com/zjrosen/quill/internal/theme"
)

// Update is published once per coalesced mutation bracket.
type Update struct {
	Version uint64
}

// Buffer is the in-memory reference Surface used by tests and the
// playground. Attributes are stored per byte; decoration passes always
// mutate rune-aligned ranges, so runs never split a rune.
type Buffer struct {
	text    string
	attrs   []Attr
	indents map[int]Indent
	sel     Selection

	depth   int
	dirty   bool
	version atomic.Uint64
	broker  *pubsub.Broker[Update]
}

// NewBuffer creates a buffer with the given initial text.
func NewBuffer(text string) *Buffer {
	b := &Buffer{broker: pubsub.NewBroker[Update]()}
	b.SetText(text)
	return b
}

// SetText replaces the content, dropping all decoration. This is the
// host-edit path: attribute state is derived, never carried across edits.
func (b *Buffer) SetText(text string) {
	b.text = text
	b.attrs = make([]Attr, len(text))
	b.indents = make(map[int]Indent)
	b.clampSelection()
	b.notify()
}

func (b *Buffer) Text() string { return b.text }

// Version increments once per coalesced update.
func (b *Buffer) Version() uint64 { return b.version.Load() }

// Updates exposes the coalesced change feed.
func (b *Buffer) Updates() *pubsub.Broker[Update] { return b.broker }

func (b *Buffer) Selection() Selection { return b.sel }

func (b *Buffer) SetSelection(sel Selection) {
	b.sel = sel
	b.clampSelection()
}

func (b *Buffer) clampSelection() {
	b.sel.Start = clamp(b.sel.Start, 0, len(b.text))
	b.sel.End = clamp(b.sel.End, b.sel.Start, len(b.text))
}

// Begin opens a mutation bracket. Brackets nest; only the outermost End
// publishes.
func (b *Buffer) Begin() { b.depth++ }

// End closes the bracket and publishes one coalesced update if anything
// changed.
func (b *Buffer) End() {
	if b.depth > 0 {
		b.depth--
	}
	if b.depth == 0 && b.dirty {
		b.dirty = false
		b.notify()
	}
}

func (b *Buffer) notify() {
	v := b.version.Add(1)
	b.broker.Publish(pubsub.UpdatedEvent, Update{Version: v})
}

func (b *Buffer) mutate(start, end int, f func(a *Attr)) {
	start = clamp(start, 0, len(b.text))
	end = clamp(end, start, len(b.text))
	for i := start; i < end; i++ {
		f(&b.attrs[i])
	}
	if end > start {
		b.dirty = true
	}
}

func (b *Buffer) SetForeground(start, end int, c theme.Color) {
	b.mutate(start, end, func(a *Attr) { a.Foreground = c })
}

func (b *Buffer) SetBackground(start, end int, c theme.Color) {
	b.mutate(start, end, func(a *Attr) { a.Background = c })
}

func (b *Buffer) RemoveBackground(start, end int) {
	b.mutate(start, end, func(a *Attr) { a.Background = "" })
}

func (b *Buffer) SetBold(start, end int, on bool) {
	b.mutate(start, end, func(a *Attr) { a.Bold = on })
}

func (b *Buffer) SetItalic(start, end int, on bool) {
	b.mutate(start, end, func(a *Attr) { a.Italic = on })
}

func (b *Buffer) SetUnderline(start, end int, on bool) {
	b.mutate(start, end, func(a *Attr) { a.Underline = on })
}

func (b *Buffer) SetStrikethrough(start, end int, on bool) {
	b.mutate(start, end, func(a *Attr) { a.Strikethrough = on })
}

func (b *Buffer) SetLink(start, end int, url string) {
	b.mutate(start, end, func(a *Attr) { a.Link = url })
}

func (b *Buffer) SetIndent(line int, indent Indent) {
	b.indents[line] = indent
	b.dirty = true
}

// LineIndent returns the stored paragraph geometry for a line.
func (b *Buffer) LineIndent(line int) Indent { return b.indents[line] }

// LineSpan returns the byte range of the line containing offset, newline
// excluded. Offsets past the end map to the last line.
func (b *Buffer) LineSpan(offset int) (int, int) {
	offset = clamp(offset, 0, len(b.text))
	start := strings.LastIndexByte(b.text[:offset], '\n') + 1
	rel := strings.IndexByte(b.text[offset:], '\n')
	if rel < 0 {
		return start, len(b.text)
	}
	return start, offset + rel
}

// AttrAt returns the decoration state at one byte offset.
func (b *Buffer) AttrAt(i int) Attr {
	if i < 0 || i >= len(b.attrs) {
		return Attr{}
	}
	return b.attrs[i]
}

// Run is a maximal range of identical attributes.
type Run struct {
	Start int
	End   int
	Attr  Attr
}

// Runs returns the buffer as ordered attribute runs. Two decorations of
// the same inputs yield identical runs, which is what the idempotence
// tests compare.
func (b *Buffer) Runs() []Run {
	var runs []Run
	for i := 0; i < len(b.attrs); {
		j := i + 1
		for j < len(b.attrs) && b.attrs[j] == b.attrs[i] {
			j++
		}
		runs = append(runs, Run{Start: i, End: j, Attr: b.attrs[i]})
		i = j
	}
	return runs
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
