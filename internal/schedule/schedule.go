// Package schedule decides when the decoration pipeline runs. It debounces
// rapid triggers into one job, cancels superseded work, discards stale
// results by snapshot equality, and refuses to decorate documents over a
// hard size ceiling.
package schedule

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/quill/internal/compose"
	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/log"
	"github.com/zjrosen/quill/internal/pubsub"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
)

const (
	// DefaultDebounce is the quiet period after the last trigger before a
	// job starts.
	DefaultDebounce = 150 * time.Millisecond

	// DefaultMaxBytes is the size ceiling above which documents stay
	// unstyled to bound latency.
	DefaultMaxBytes = 512 * 1024
)

// Reason identifies what kind of change requested re-decoration.
type Reason int

const (
	ReasonText Reason = iota
	ReasonLanguage
	ReasonTheme
	ReasonSettings
)

func (r Reason) String() string {
	switch r {
	case ReasonText:
		return "text"
	case ReasonLanguage:
		return "language"
	case ReasonTheme:
		return "theme"
	case ReasonSettings:
		return "settings"
	default:
		return "unknown"
	}
}

// forces reports whether the reason bypasses redundant-snapshot
// suppression. Theme and settings changes restyle identical text.
func (r Reason) forces() bool {
	return r == ReasonTheme || r == ReasonSettings
}

// Snapshot is the immutable document state captured when work is
// scheduled. Compared by value for staleness and suppression.
type Snapshot struct {
	Text     string
	Language string
	Variant  theme.Variant
}

// State is the scheduler's observable position in its lifecycle.
type State int

const (
	Idle State = iota
	PendingDebounce
	Running
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case PendingDebounce:
		return "pending-debounce"
	case Running:
		return "running"
	default:
		return "unknown"
	}
}

// JobEvent is the payload published for decoration job lifecycle events.
type JobEvent struct {
	ID         string
	Generation uint64
	Reason     Reason
	Language   string
	TextLen    int
}

// Options configures a Scheduler. Surface and Tokenizer are required.
type Options struct {
	Surface   *surface.Buffer
	Tokenizer tokenizer.Tokenizer

	// Settings returns the live settings; each job copies them by value.
	Settings func() config.Settings

	// Theme resolves the active theme for a settings copy.
	Theme func(config.Settings) theme.Theme

	// Apply injects a completion closure into the interactive context.
	// The closure mutates the surface, so it must run where the surface
	// is owned. Nil runs closures inline on the worker goroutine.
	Apply func(func())

	Debounce time.Duration
	MaxBytes int
	Tracer   trace.Tracer
}

type job struct {
	id     string
	snap   Snapshot
	set    config.Settings
	th     theme.Theme
	mode   compose.Mode
	langID string
	gen    uint64
	reason Reason
}

func (j job) event() JobEvent {
	return JobEvent{
		ID:         j.id,
		Generation: j.gen,
		Reason:     j.reason,
		Language:   j.snap.Language,
		TextLen:    len(j.snap.Text),
	}
}

// Scheduler is the Idle → PendingDebounce → Running state machine. All
// exported methods are safe for concurrent use; surface reads and writes
// happen only on the caller's goroutine or inside Apply closures.
type Scheduler struct {
	opts   Options
	broker *pubsub.Broker[JobEvent]

	mu            sync.Mutex
	language      string
	timer         *time.Timer
	pendingSnap   Snapshot
	pendingReason Reason
	pendingForced bool
	cancelRun     context.CancelFunc
	gen           uint64
	lastHandled   Snapshot
	handled       bool
	lastLine      compose.LineRange
	closed        bool
}

// New creates a scheduler in the Idle state.
func New(opts Options) *Scheduler {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxBytes <= 0 {
		opts.MaxBytes = DefaultMaxBytes
	}
	if opts.Apply == nil {
		opts.Apply = func(f func()) { f() }
	}
	if opts.Tracer == nil {
		opts.Tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if opts.Settings == nil {
		opts.Settings = config.Defaults
	}
	if opts.Theme == nil {
		opts.Theme = func(set config.Settings) theme.Theme {
			return theme.Resolve(theme.Builtin(set.Preset()), set.Variant(), true)
		}
	}
	return &Scheduler{
		opts:   opts,
		broker: pubsub.NewBroker[JobEvent](),
	}
}

// Events exposes job lifecycle notifications.
func (s *Scheduler) Events() *pubsub.Broker[JobEvent] { return s.broker }

// Language returns the active user-facing language name.
func (s *Scheduler) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// SetLanguage switches the active language and schedules re-decoration.
func (s *Scheduler) SetLanguage(name string) {
	s.mu.Lock()
	if s.language == name {
		s.mu.Unlock()
		return
	}
	s.language = name
	s.mu.Unlock()
	s.Trigger(ReasonLanguage)
}

// State reports the scheduler's current lifecycle position.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.timer != nil:
		return PendingDebounce
	case s.cancelRun != nil:
		return Running
	default:
		return Idle
	}
}

// Trigger requests re-decoration. Must be called from the interactive
// context, which owns the surface: the document snapshot is captured here.
// Rapid triggers coalesce; a trigger while a job is in flight supersedes
// it.
func (s *Scheduler) Trigger(reason Reason) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	set := s.opts.Settings()
	th := s.opts.Theme(set)
	snap := Snapshot{
		Text:     s.opts.Surface.Text(),
		Language: s.language,
		Variant:  variantOf(th),
	}

	if !reason.forces() && !s.pendingForced && s.handled && snap == s.lastHandled && s.timer == nil && s.cancelRun == nil {
		return
	}

	if len(snap.Text) > s.opts.MaxBytes {
		s.degradeLocked(snap, reason)
		return
	}

	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
		log.Debug(log.CatSchedule, "in-flight job superseded", "generation", s.gen)
	}

	if reason.forces() {
		s.pendingForced = true
	}
	s.pendingSnap = snap
	s.pendingReason = reason
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.opts.Debounce, s.fire)
}

// degradeLocked handles the size-ceiling guard: the snapshot is recorded
// as handled and the scheduler stays Idle. Not an error.
func (s *Scheduler) degradeLocked(snap Snapshot, reason Reason) {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.lastHandled = snap
	s.handled = true
	s.pendingForced = false
	log.Info(log.CatSchedule, "document over size ceiling, decoration skipped",
		"bytes", len(snap.Text), "ceiling", s.opts.MaxBytes)
	s.broker.Publish(pubsub.DegradedEvent, JobEvent{
		Reason:   reason,
		Language: snap.Language,
		TextLen:  len(snap.Text),
	})
}

// fire runs when the debounce timer elapses with no newer trigger.
func (s *Scheduler) fire() {
	s.mu.Lock()
	s.timer = nil
	if s.closed {
		s.mu.Unlock()
		return
	}

	snap := s.pendingSnap
	forced := s.pendingForced
	s.pendingForced = false
	if !forced && s.handled && snap == s.lastHandled {
		s.mu.Unlock()
		return
	}

	set := s.opts.Settings()
	th := s.opts.Theme(set)
	snap.Variant = variantOf(th)

	s.gen++
	langID, _ := tokenizer.Resolve(snap.Language)
	j := job{
		id:     uuid.NewString(),
		snap:   snap,
		set:    set,
		th:     th,
		mode:   compose.ModeFor(snap.Language),
		langID: langID,
		gen:    s.gen,
		reason: s.pendingReason,
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelRun = cancel
	s.mu.Unlock()

	s.broker.Publish(pubsub.ScheduledEvent, j.event())
	go s.run(ctx, j)
}

// run executes a job on the worker goroutine. The tokenizer call is the
// only blocking step; everything touching the surface is deferred to the
// Apply closure.
func (s *Scheduler) run(ctx context.Context, j job) {
	ctx, span := s.opts.Tracer.Start(ctx, "decoration.job", trace.WithAttributes(
		attribute.String("job.id", j.id),
		attribute.Int64("job.generation", int64(j.gen)),
		attribute.String("job.language", j.snap.Language),
		attribute.Int("job.bytes", len(j.snap.Text)),
		attribute.String("job.reason", j.reason.String()),
	))
	defer span.End()

	var spans []tokenizer.Span
	if j.mode == compose.ModeCode {
		var err error
		spans, err = s.opts.Tokenizer.Highlight(ctx, j.snap.Text, j.langID)
		if err != nil {
			// No retry: absent tokenization degrades to the base pass.
			log.Warn(log.CatSchedule, "tokenization failed, flat styling",
				"language", j.snap.Language, "error", err)
			spans = nil
		}
	}

	if ctx.Err() != nil {
		span.AddEvent("cancelled")
		s.broker.Publish(pubsub.CancelledEvent, j.event())
		return
	}

	s.opts.Apply(func() { s.commit(ctx, j, spans) })
}

// commit runs in the interactive context. It validates generation and
// snapshot freshness, then composes the result onto the surface.
func (s *Scheduler) commit(ctx context.Context, j job, spans []tokenizer.Span) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	if j.gen != s.gen || ctx.Err() != nil {
		s.mu.Unlock()
		s.broker.Publish(pubsub.SupersededEvent, j.event())
		return
	}
	live := s.opts.Surface.Text()
	if live != j.snap.Text {
		// Expected under fast typing, not an error. Distinct from the
		// superseded terminal: nothing replaced this job, its input aged out.
		s.cancelRun = nil
		s.mu.Unlock()
		log.Debug(log.CatSchedule, "stale job discarded", "generation", j.gen)
		s.broker.Publish(pubsub.CancelledEvent, j.event())
		return
	}
	s.cancelRun = nil
	s.lastHandled = j.snap
	s.handled = true
	s.mu.Unlock()

	compose.Compose(ctx, s.opts.Surface, spans, j.th, j.set, j.mode, s.opts.Tokenizer)

	caret := s.opts.Surface.Selection().Start
	next := compose.HighlightLine(s.opts.Surface, j.th, j.set, caret, compose.LineRange{})

	s.mu.Lock()
	s.lastLine = next
	s.mu.Unlock()

	s.broker.Publish(pubsub.CommittedEvent, j.event())
}

// CaretMoved repaints the current-line highlight without a full job. Runs
// synchronously in the caller's (interactive) context.
func (s *Scheduler) CaretMoved(caret int) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	set := s.opts.Settings()
	th := s.opts.Theme(set)
	prev := s.lastLine
	s.mu.Unlock()

	next := compose.HighlightLine(s.opts.Surface, th, set, caret, prev)

	s.mu.Lock()
	s.lastLine = next
	s.mu.Unlock()
}

// Close cancels pending and in-flight work and shuts down the event
// broker. The scheduler cannot be reused after Close.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	if s.cancelRun != nil {
		s.cancelRun()
		s.cancelRun = nil
	}
	s.mu.Unlock()
	s.broker.Close()
}

func variantOf(th theme.Theme) theme.Variant {
	if th.IsDark {
		return theme.VariantDark
	}
	return theme.VariantLight
}
