// Package marker provides the stateless pattern matchers for list bullets,
// ordered numbers, checkboxes, URLs, and inline markdown formatting. Each
// matcher is a pure function from text to an ordered sequence of matches;
// ranges from different kinds may overlap and the compositor resolves
// precedence between them.
package marker

import "regexp"

// Kind identifies which pattern produced a match.
type Kind int

const (
	KindBulletDash Kind = iota
	KindOrderedNumber
	KindCheckbox
	KindURL
	KindBold
	KindItalic
	KindStrikethrough
	KindInlineCode
	KindCodeBlock
)

func (k Kind) String() string {
	switch k {
	case KindBulletDash:
		return "bullet"
	case KindOrderedNumber:
		return "ordered"
	case KindCheckbox:
		return "checkbox"
	case KindURL:
		return "url"
	case KindBold:
		return "bold"
	case KindItalic:
		return "italic"
	case KindStrikethrough:
		return "strikethrough"
	case KindInlineCode:
		return "inlinecode"
	case KindCodeBlock:
		return "codeblock"
	default:
		return "unknown"
	}
}

// Span is a half-open byte range [Start, End).
type Span struct {
	Start int
	End   int
}

// Len returns the span length in bytes.
func (s Span) Len() int { return s.End - s.Start }

// Intersects reports whether two spans overlap.
func (s Span) Intersects(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}

// Match is one pattern hit. Span semantics are kind-specific:
// bullets cover the single marker glyph, ordered numbers the whole "N."
// token, checkboxes the whole line, code blocks the whole fenced region.
// Groups carry the kind-specific captures documented on each matcher.
type Match struct {
	Kind Kind
	Span
	Groups  []Span
	Checked bool
}

var (
	bulletRe   = regexp.MustCompile(`(?m)^[ \t]*([-*]) `)
	orderedRe  = regexp.MustCompile(`(?m)^[ \t]*(\d+\.) `)
	checkboxRe = regexp.MustCompile(`(?m)^[ \t]*[-*] (\[[ xX]\]) (.*)$`)
	urlRe      = regexp.MustCompile(`https?://\S+`)

	// Emphasis spans stay within one line, so the inner class excludes
	// newlines as well as the delimiter byte.
	boldStarRe   = regexp.MustCompile(`\*\*([^\s*](?:[^*\n]*[^\s*])?)\*\*`)
	boldUnderRe  = regexp.MustCompile(`__([^\s_](?:[^_\n]*[^\s_])?)__`)
	italStarRe   = regexp.MustCompile(`\*([^\s*](?:[^*\n]*[^\s*])?)\*`)
	italUnderRe  = regexp.MustCompile(`_([^\s_](?:[^_\n]*[^\s_])?)_`)
	strikeRe     = regexp.MustCompile(`~~([^\s~](?:[^~\n]*[^\s~])?)~~`)
	inlineCodeRe = regexp.MustCompile("`[^`\n]+`")
	codeBlockRe  = regexp.MustCompile("(?s)```([^\n]*)\n(.*?)```")
)

// Bullets matches line-anchored "-" or "*" followed by a space. The match
// covers the marker glyph only. Checkbox lines also satisfy this pattern;
// the compositor gives the checkbox matcher precedence on those lines.
func Bullets(text string) []Match {
	var out []Match
	for _, idx := range bulletRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Match{
			Kind: KindBulletDash,
			Span: Span{Start: idx[2], End: idx[3]},
		})
	}
	return out
}

// OrderedNumbers matches line-anchored digits followed by "." and a space.
// The match covers the whole "N." token.
func OrderedNumbers(text string) []Match {
	var out []Match
	for _, idx := range orderedRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Match{
			Kind: KindOrderedNumber,
			Span: Span{Start: idx[2], End: idx[3]},
		})
	}
	return out
}

// Checkboxes matches "- [ ] X" / "- [x] X" lines (also with "*"). The match
// covers the whole line; Groups[0] is the bracket pair and Groups[1] the
// rest-of-line content. Checked reports an x between the brackets.
func Checkboxes(text string) []Match {
	var out []Match
	for _, idx := range checkboxRe.FindAllStringSubmatchIndex(text, -1) {
		bracket := Span{Start: idx[2], End: idx[3]}
		content := Span{Start: idx[4], End: idx[5]}
		inner := text[bracket.Start+1 : bracket.End-1]
		out = append(out, Match{
			Kind:    KindCheckbox,
			Span:    Span{Start: idx[0], End: idx[1]},
			Groups:  []Span{bracket, content},
			Checked: inner == "x" || inner == "X",
		})
	}
	return out
}

// URLs matches http:// or https:// runs, greedy to the next whitespace.
func URLs(text string) []Match {
	var out []Match
	for _, idx := range urlRe.FindAllStringIndex(text, -1) {
		out = append(out, Match{
			Kind: KindURL,
			Span: Span{Start: idx[0], End: idx[1]},
		})
	}
	return out
}

// Bold matches **X** and __X__ where X is non-empty and not whitespace at
// either edge. Groups[0] is the content without delimiters. Bold must be
// applied before italic so the outer halves of ** are never mistaken for
// italic delimiters.
func Bold(text string) []Match {
	out := submatches(text, boldStarRe, KindBold)
	return mergeOrdered(out, submatches(text, boldUnderRe, KindBold))
}

// Italic matches *X* and _X_ with the bold boundary rule. RE2 has no
// lookaround, so delimiters abutting another "*"/"_" are rejected by a
// post-filter instead of a negative lookahead.
func Italic(text string) []Match {
	star := filterAdjacent(text, submatches(text, italStarRe, KindItalic), '*')
	under := filterAdjacent(text, submatches(text, italUnderRe, KindItalic), '_')
	return mergeOrdered(star, under)
}

// Strikethrough matches ~~X~~, non-empty and non-whitespace-bounded.
func Strikethrough(text string) []Match {
	return submatches(text, strikeRe, KindStrikethrough)
}

// InlineCode matches the shortest backtick-delimited span with no backtick
// inside. The match includes the delimiters.
func InlineCode(text string) []Match {
	var out []Match
	for _, idx := range inlineCodeRe.FindAllStringIndex(text, -1) {
		out = append(out, Match{
			Kind: KindInlineCode,
			Span: Span{Start: idx[0], End: idx[1]},
		})
	}
	return out
}

// CodeBlocks matches triple-backtick fenced regions, non-greedily so
// consecutive blocks do not merge. Groups[0] is the language tag on the
// opening fence (may be empty), Groups[1] the content between the fence
// lines.
func CodeBlocks(text string) []Match {
	var out []Match
	for _, idx := range codeBlockRe.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Match{
			Kind:   KindCodeBlock,
			Span:   Span{Start: idx[0], End: idx[1]},
			Groups: []Span{{Start: idx[2], End: idx[3]}, {Start: idx[4], End: idx[5]}},
		})
	}
	return out
}

func submatches(text string, re *regexp.Regexp, kind Kind) []Match {
	var out []Match
	for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
		out = append(out, Match{
			Kind:   kind,
			Span:   Span{Start: idx[0], End: idx[1]},
			Groups: []Span{{Start: idx[2], End: idx[3]}},
		})
	}
	return out
}

// filterAdjacent drops matches whose delimiter abuts another delim byte,
// which is how a single-delimiter match inside a ** / __ pair is detected.
func filterAdjacent(text string, ms []Match, delim byte) []Match {
	out := ms[:0]
	for _, m := range ms {
		if m.Start > 0 && text[m.Start-1] == delim {
			continue
		}
		if m.End < len(text) && text[m.End] == delim {
			continue
		}
		out = append(out, m)
	}
	return out
}

// mergeOrdered merges two start-ordered match slices into one.
func mergeOrdered(a, b []Match) []Match {
	if len(a) == 0 {
		return b
	}
	if len(b) == 0 {
		return a
	}
	out := make([]Match, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		if a[i].Start <= b[j].Start {
			out = append(out, a[i])
			i++
		} else {
			out = append(out, b[j])
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return out
}
