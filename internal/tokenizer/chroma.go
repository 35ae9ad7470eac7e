package tokenizer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/zjrosen/quill/internal/cachemanager"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/theme"
)

const cacheTTL = 5 * time.Minute

// Chroma is the production Tokenizer. One mutex serializes style/font
// mutation and tokenization: the underlying configuration is shared state,
// and a concurrent job's style change must not leak into another job's
// output.
type Chroma struct {
	mu        sync.Mutex
	styleName string
	style     *chroma.Style
	font      Font
	cache     *cachemanager.ReadThroughCache[[]Span, highlightInput]
	store     cachemanager.CacheManager[[]Span]
}

type highlightInput struct {
	text       string
	languageID string
	style      *chroma.Style
}

// NewChroma creates the adapter with the given initial style name.
// Unknown style names degrade to chroma's fallback style.
func NewChroma(styleName string) *Chroma {
	c := &Chroma{}
	c.store = cachemanager.NewInMemoryCacheManager[[]Span]("tokenize", cacheTTL, cachemanager.DefaultCleanupInterval)
	c.cache = cachemanager.NewReadThroughCache(c.store, tokenize, false)
	c.setStyleLocked(styleName)
	return c
}

// SetStyle switches the active tokenizer style. Cached tokenizations embed
// resolved colors, so the cache is flushed.
func (c *Chroma) SetStyle(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if name == c.styleName {
		return
	}
	c.setStyleLocked(name)
	c.store.Flush(context.Background())
}

func (c *Chroma) setStyleLocked(name string) {
	st := styles.Get(name)
	if st == nil {
		st = styles.Fallback
	}
	c.styleName = name
	c.style = st
}

// SetFont records the active font descriptor.
func (c *Chroma) SetFont(font Font) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if font == c.font {
		return
	}
	c.font = font
	c.store.Flush(context.Background())
}

// Highlight tokenizes text for the given language ID. An unknown language
// yields no spans and no error. The whole call, including the style read,
// runs under the adapter mutex.
func (c *Chroma) Highlight(ctx context.Context, text, languageID string) ([]Span, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := fmt.Sprintf("%s:%s:%s:%g:%s", c.styleName, c.font.Family, languageID, c.font.Size, text)
	spans, err := c.cache.Get(ctx, key, highlightInput{text: text, languageID: languageID, style: c.style}, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("tokenizing %q: %w", languageID, err)
	}
	return spans, nil
}

// tokenize runs chroma and materializes per-span styling against the
// active style, so callers receive concrete colors rather than token
// classes.
func tokenize(ctx context.Context, in highlightInput) ([]Span, error) {
	lex := lexers.Get(in.languageID)
	if lex == nil {
		log.Debug(log.CatTokenize, "no lexer", "language", in.languageID)
		return nil, nil
	}
	lex = chroma.Coalesce(lex)

	it, err := lex.Tokenise(nil, in.text)
	if err != nil {
		return nil, err
	}

	var spans []Span
	offset := 0
	for tok := it(); tok != chroma.EOF; tok = it() {
		length := len(tok.Value)
		entry := in.style.Get(tok.Type)
		if entry.Colour.IsSet() || entry.Bold == chroma.Yes || entry.Italic == chroma.Yes || entry.Underline == chroma.Yes {
			span := Span{
				Start:     offset,
				End:       offset + length,
				Bold:      entry.Bold == chroma.Yes,
				Italic:    entry.Italic == chroma.Yes,
				Underline: entry.Underline == chroma.Yes,
			}
			if entry.Colour.IsSet() {
				span.Color = theme.Color(entry.Colour.String())
			}
			spans = append(spans, span)
		}
		offset += length
	}
	return spans, nil
}
