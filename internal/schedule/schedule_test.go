package schedule

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/quill/internal/pubsub"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/testutil"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
)

type mockTokenizer struct {
	mock.Mock
}

func (m *mockTokenizer) Highlight(ctx context.Context, text, languageID string) ([]tokenizer.Span, error) {
	args := m.Called(ctx, text, languageID)
	if spans := args.Get(0); spans != nil {
		return spans.([]tokenizer.Span), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *mockTokenizer) SetStyle(name string)        { m.Called(name) }
func (m *mockTokenizer) SetFont(font tokenizer.Font) { m.Called(font) }

const testDebounce = 10 * time.Millisecond

func newScheduler(t *testing.T, buf *surface.Buffer, tok tokenizer.Tokenizer, opts ...func(*Options)) *Scheduler {
	t.Helper()
	o := Options{
		Surface:   buf,
		Tokenizer: tok,
		Debounce:  testDebounce,
	}
	for _, f := range opts {
		f(&o)
	}
	s := New(o)
	t.Cleanup(s.Close)
	return s
}

// eventRecorder collects lifecycle events off the broker so tests can
// assert on counts after the fact.
type eventRecorder struct {
	mu     sync.Mutex
	events []pubsub.Event[JobEvent]
	cancel context.CancelFunc
}

func record(t *testing.T, s *Scheduler) *eventRecorder {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	r := &eventRecorder{cancel: cancel}
	t.Cleanup(cancel)
	ch := s.Events().Subscribe(ctx)
	go func() {
		for ev := range ch {
			r.mu.Lock()
			r.events = append(r.events, ev)
			r.mu.Unlock()
		}
	}()
	return r
}

func (r *eventRecorder) count(typ pubsub.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func (r *eventRecorder) last(typ pubsub.EventType) (JobEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.events) - 1; i >= 0; i-- {
		if r.events[i].Type == typ {
			return r.events[i].Payload, true
		}
	}
	return JobEvent{}, false
}

func waitCommits(t *testing.T, r *eventRecorder, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.count(pubsub.CommittedEvent) >= n
	}, 2*time.Second, time.Millisecond, "expected %d committed jobs", n)
}

func TestDebounceCoalescesTriggers(t *testing.T) {
	buf := surface.NewBuffer("")
	tok := &mockTokenizer{}

	var mu sync.Mutex
	var highlighted []string
	tok.On("Highlight", mock.Anything, mock.Anything, "go").
		Run(func(args mock.Arguments) {
			mu.Lock()
			highlighted = append(highlighted, args.String(1))
			mu.Unlock()
		}).
		Return(nil, nil)

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")

	for _, text := range []string{"p", "pa", "pac", "package main"} {
		buf.SetText(text)
		s.Trigger(ReasonText)
	}

	waitCommits(t, r, 1)
	time.Sleep(5 * testDebounce)

	assert.Equal(t, 1, r.count(pubsub.CommittedEvent))
	ev, ok := r.last(pubsub.CommittedEvent)
	require.True(t, ok)
	assert.Equal(t, len("package main"), ev.TextLen)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"package main"}, highlighted)
}

func TestStaleResultDiscarded(t *testing.T) {
	buf := surface.NewBuffer("old text")
	tok := &mockTokenizer{}

	release := make(chan struct{})
	tok.On("Highlight", mock.Anything, "old text", "go").
		Run(func(mock.Arguments) { <-release }).
		Return([]tokenizer.Span{{Start: 0, End: 3, Color: "#ff0000"}}, nil)

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")

	require.Eventually(t, func() bool {
		return s.State() == Running
	}, 2*time.Second, time.Millisecond)

	// The document moves on while tokenization is in flight. No trigger:
	// the staleness guard alone must protect the buffer.
	buf.SetText("new text")
	close(release)

	require.Eventually(t, func() bool {
		return r.count(pubsub.CancelledEvent) >= 1
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, 0, r.count(pubsub.SupersededEvent), "staleness is the cancelled terminal, not superseded")
	assert.Equal(t, 0, r.count(pubsub.CommittedEvent))
	assert.Equal(t, surface.Attr{}, buf.AttrAt(0), "stale job must not touch the buffer")
}

func TestSupersededJobCancelled(t *testing.T) {
	buf := surface.NewBuffer("first")
	tok := &mockTokenizer{}

	started := make(chan struct{})
	release := make(chan struct{})
	tok.On("Highlight", mock.Anything, "first", "go").
		Run(func(mock.Arguments) {
			close(started)
			<-release
		}).
		Return(nil, nil)
	tok.On("Highlight", mock.Anything, "second", "go").Return(nil, nil)

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")

	<-started
	buf.SetText("second")
	s.Trigger(ReasonText)
	close(release)

	waitCommits(t, r, 1)
	ev, ok := r.last(pubsub.CommittedEvent)
	require.True(t, ok)
	assert.Equal(t, len("second"), ev.TextLen)
	assert.Equal(t, "second", buf.Text())
}

func TestSizeCeilingDegrades(t *testing.T) {
	huge := strings.Repeat("x", 2048)
	buf := surface.NewBuffer(huge)
	tok := &mockTokenizer{}

	s := newScheduler(t, buf, tok, func(o *Options) { o.MaxBytes = 1024 })
	r := record(t, s)

	s.Trigger(ReasonText)

	require.Eventually(t, func() bool {
		return r.count(pubsub.DegradedEvent) >= 1
	}, 2*time.Second, time.Millisecond)
	assert.Equal(t, Idle, s.State())

	// Recorded as handled: re-triggering on the same snapshot stays quiet.
	s.Trigger(ReasonText)
	time.Sleep(5 * testDebounce)
	assert.Equal(t, 1, r.count(pubsub.DegradedEvent))
	assert.Equal(t, 0, r.count(pubsub.ScheduledEvent))
	assert.Equal(t, surface.Attr{}, buf.AttrAt(0))

	tok.AssertNotCalled(t, "Highlight", mock.Anything, mock.Anything, mock.Anything)
}

func TestDocumentAtCeilingStillStyled(t *testing.T) {
	text := strings.Repeat("x", 1024)
	buf := surface.NewBuffer(text)
	tok := &mockTokenizer{}

	s := newScheduler(t, buf, tok, func(o *Options) { o.MaxBytes = 1024 })
	r := record(t, s)

	s.Trigger(ReasonText)
	waitCommits(t, r, 1)

	th := theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantSystem, true)
	assert.Equal(t, th.Foreground, buf.AttrAt(0).Foreground)
	assert.Equal(t, 0, r.count(pubsub.DegradedEvent))
}

func TestTokenizationFailureDegradesToFlatStyling(t *testing.T) {
	buf := surface.NewBuffer("package main")
	tok := &mockTokenizer{}
	tok.On("Highlight", mock.Anything, "package main", "go").
		Return(nil, errors.New("lexer exploded"))

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")

	waitCommits(t, r, 1)

	th := theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantSystem, true)
	assert.Equal(t, th.Foreground, buf.AttrAt(0).Foreground)
}

func TestRedundantSnapshotSuppressed(t *testing.T) {
	buf := surface.NewBuffer("hello")
	tok := &mockTokenizer{}
	tok.On("Highlight", mock.Anything, "hello", "go").Return(nil, nil)

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")
	waitCommits(t, r, 1)

	// Same snapshot, text reason: suppressed.
	s.Trigger(ReasonText)
	time.Sleep(5 * testDebounce)
	assert.Equal(t, 1, r.count(pubsub.ScheduledEvent))

	// Same snapshot, theme reason: forced.
	s.Trigger(ReasonTheme)
	waitCommits(t, r, 2)
	assert.Equal(t, 2, r.count(pubsub.ScheduledEvent))
}

func TestPlainLanguageSkipsTokenizer(t *testing.T) {
	doc := testutil.NewDoc().Line("see https://example.com today")
	buf := surface.NewBuffer(doc.Build())
	tok := &mockTokenizer{}

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.Trigger(ReasonText)

	waitCommits(t, r, 1)
	tok.AssertNotCalled(t, "Highlight", mock.Anything, mock.Anything, mock.Anything)

	th := theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantSystem, true)
	a := buf.AttrAt(doc.Offset("https://"))
	assert.Equal(t, th.Link, a.Foreground)
	assert.True(t, a.Underline)
	assert.Equal(t, "https://example.com", a.Link)
}

func TestCommitAppliesTokenSpans(t *testing.T) {
	buf := surface.NewBuffer("package main")
	tok := &mockTokenizer{}
	tok.On("Highlight", mock.Anything, "package main", "go").
		Return([]tokenizer.Span{{Start: 0, End: 7, Color: "#c678dd", Bold: true}}, nil)

	s := newScheduler(t, buf, tok)
	r := record(t, s)
	s.SetLanguage("go")

	waitCommits(t, r, 1)

	a := buf.AttrAt(0)
	assert.Equal(t, theme.Color("#c678dd"), a.Foreground)
	assert.True(t, a.Bold)

	th := theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantSystem, true)
	assert.Equal(t, th.Foreground, buf.AttrAt(8).Foreground)
}

func TestCaretMovedRepaintsCurrentLine(t *testing.T) {
	doc := testutil.NewDoc().Line("one").Line("two").Line("three")
	buf := surface.NewBuffer(doc.Build())
	tok := &mockTokenizer{}

	s := newScheduler(t, buf, tok)
	th := theme.Resolve(theme.Builtin(theme.PresetDefault), theme.VariantSystem, true)
	two := doc.Offset("two")

	s.CaretMoved(0)
	assert.Equal(t, th.CurrentLine, buf.AttrAt(0).Background)
	assert.Equal(t, theme.Color(""), buf.AttrAt(two).Background)

	s.CaretMoved(two + 1)
	assert.Equal(t, theme.Color(""), buf.AttrAt(0).Background, "previous line cleared")
	assert.Equal(t, th.CurrentLine, buf.AttrAt(two).Background)
}

func TestCloseStopsPendingWork(t *testing.T) {
	buf := surface.NewBuffer("hello")
	tok := &mockTokenizer{}

	s := New(Options{Surface: buf, Tokenizer: tok, Debounce: time.Hour})
	s.Trigger(ReasonText)
	assert.Equal(t, PendingDebounce, s.State())

	s.Close()
	assert.Equal(t, Idle, s.State())

	// Triggers after close are ignored.
	s.Trigger(ReasonText)
	assert.Equal(t, Idle, s.State())
}
