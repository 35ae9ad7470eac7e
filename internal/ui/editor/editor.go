// Package editor is the interactive playground: a plain textarea on the
// left, the decorated rendition of the same document on the right. Edits
// flow through the highlight scheduler so the preview shows exactly what
// an embedding host would get.
package editor

import (
	"context"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/muesli/reflow/wordwrap"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/quill/internal/config"
	"github.com/zjrosen/quill/internal/pubsub"
	"github.com/zjrosen/quill/internal/schedule"
	"github.com/zjrosen/quill/internal/surface"
	"github.com/zjrosen/quill/internal/theme"
	"github.com/zjrosen/quill/internal/tokenizer"
)

// languages the playground cycles through with the language key.
var languages = []string{"markdown", "go", "plain"}

// applyMsg carries a scheduler completion closure into the update loop.
type applyMsg struct {
	f func()
}

// Options configures the playground model.
type Options struct {
	Store     *config.Store
	Tokenizer tokenizer.Tokenizer
	Themes    theme.Config
	HostDark  bool
	Text      string
	Language  string
	Reloads   <-chan struct{}

	// Tracer records decoration job spans. Nil disables tracing.
	Tracer trace.Tracer
}

// Model is the playground's Bubble Tea model.
type Model struct {
	ctx    context.Context
	cancel context.CancelFunc

	textarea textarea.Model
	buf      *surface.Buffer
	sched    *schedule.Scheduler
	store    *config.Store
	themes   theme.Config
	hostDark bool
	zones    *zone.Manager

	applyCh chan func()
	events  *pubsub.ContinuousListener[schedule.JobEvent]
	reloads <-chan struct{}
	css     stylesheetCache

	keys   keyMap
	help   help.Model
	status string
	width  int
	height int
}

// New creates a playground model. Call Close when the program exits.
func New(opts Options) *Model {
	ctx, cancel := context.WithCancel(context.Background())

	ta := textarea.New()
	ta.SetValue(opts.Text)
	ta.Focus()

	buf := surface.NewBuffer(opts.Text)
	applyCh := make(chan func(), 8)

	m := &Model{
		ctx:      ctx,
		cancel:   cancel,
		textarea: ta,
		buf:      buf,
		store:    opts.Store,
		themes:   opts.Themes,
		hostDark: opts.HostDark,
		zones:    zone.New(),
		applyCh:  applyCh,
		reloads:  opts.Reloads,
		keys:     defaultKeyMap(),
		help:     help.New(),
	}

	m.sched = schedule.New(schedule.Options{
		Surface:   buf,
		Tokenizer: opts.Tokenizer,
		Settings:  opts.Store.Get,
		Theme:     m.resolveTheme,
		Apply:     func(f func()) { applyCh <- f },
		Tracer:    opts.Tracer,
	})
	m.events = pubsub.NewContinuousListener(ctx, m.sched.Events())

	lang := opts.Language
	if lang == "" {
		lang = languages[0]
	}
	m.sched.SetLanguage(lang)

	return m
}

// resolveTheme derives the active theme from a settings copy. A readable
// custom stylesheet pair overrides the built-in preset wholesale; the
// parsed pair is cached so per-keystroke triggers never touch the disk.
func (m *Model) resolveTheme(set config.Settings) theme.Theme {
	cfg := m.themes
	if set.Theme.DarkStylesheet != "" || set.Theme.LightStylesheet != "" {
		if fromCSS, ok := m.css.config(set.Theme.DarkStylesheet, set.Theme.LightStylesheet); ok {
			cfg = fromCSS
		}
	}
	return theme.Resolve(cfg, set.Variant(), m.hostDark)
}

// stylesheetCache holds the parsed custom stylesheet pair between watcher
// reloads. The scheduler resolves the theme from its timer goroutine as
// well as the update loop, hence the mutex.
type stylesheetCache struct {
	mu     sync.Mutex
	loaded bool
	cfg    theme.Config
	ok     bool
}

func (c *stylesheetCache) config(dark, light string) (theme.Config, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		cfg, err := theme.FromCSS(dark, light)
		c.cfg, c.ok = cfg, err == nil
		c.loaded = true
	}
	return c.cfg, c.ok
}

func (c *stylesheetCache) invalidate() {
	c.mu.Lock()
	c.loaded = false
	c.mu.Unlock()
}

// Close releases the scheduler and event subscriptions.
func (m *Model) Close() {
	m.cancel()
	m.sched.Close()
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		m.listenApply(),
		m.listenReload(),
		m.events.Listen(),
	)
}

// listenApply waits for the next scheduler completion closure.
func (m *Model) listenApply() tea.Cmd {
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case f, ok := <-m.applyCh:
			if !ok {
				return nil
			}
			return applyMsg{f: f}
		}
	}
}

// reloadMsg signals that a watched stylesheet changed on disk.
type reloadMsg struct{}

func (m *Model) listenReload() tea.Cmd {
	if m.reloads == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-m.ctx.Done():
			return nil
		case _, ok := <-m.reloads:
			if !ok {
				return nil
			}
			return reloadMsg{}
		}
	}
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		return m, nil

	case applyMsg:
		// Commit closures mutate the surface; they must run here, in the
		// update loop that owns it.
		msg.f()
		return m, m.listenApply()

	case reloadMsg:
		m.css.invalidate()
		m.sched.Trigger(schedule.ReasonTheme)
		m.status = "stylesheet reloaded"
		return m, m.listenReload()

	case pubsub.Event[schedule.JobEvent]:
		m.status = jobStatus(msg)
		return m, m.events.Listen()

	case tea.MouseMsg:
		if msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft {
			if url := m.linkAt(msg); url != "" {
				m.status = "open " + url
			}
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case keyMatches(msg, m.keys.Quit):
		return m, tea.Quit

	case keyMatches(msg, m.keys.Language):
		m.cycleLanguage()
		return m, nil

	case keyMatches(msg, m.keys.Appearance):
		m.store.Update(func(s *config.Settings) {
			s.Theme.Appearance = nextAppearance(s.Theme.Appearance)
		})
		m.sched.Trigger(schedule.ReasonSettings)
		return m, nil

	case keyMatches(msg, m.keys.Preset):
		m.store.Update(func(s *config.Settings) {
			if s.Theme.Preset == string(theme.PresetInk) {
				s.Theme.Preset = string(theme.PresetDefault)
			} else {
				s.Theme.Preset = string(theme.PresetInk)
			}
		})
		m.sched.Trigger(schedule.ReasonTheme)
		return m, nil

	case keyMatches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	m.syncDocument()
	return m, cmd
}

// syncDocument pushes textarea edits into the surface and notifies the
// scheduler; pure caret movement takes the cheap current-line path.
func (m *Model) syncDocument() {
	text := m.textarea.Value()
	if text != m.buf.Text() {
		m.buf.SetText(text)
		m.sched.Trigger(schedule.ReasonText)
		return
	}
	m.sched.CaretMoved(m.caretOffset())
}

// caretOffset converts the textarea's row/column cursor into a byte
// offset in the document.
func (m *Model) caretOffset() int {
	text := m.textarea.Value()
	row := m.textarea.Line()
	col := m.textarea.LineInfo().ColumnOffset

	offset := 0
	for i, line := range strings.Split(text, "\n") {
		if i == row {
			runes := []rune(line)
			if col > len(runes) {
				col = len(runes)
			}
			return offset + len(string(runes[:col]))
		}
		offset += len(line) + 1
	}
	return len(text)
}

func (m *Model) cycleLanguage() {
	current := m.sched.Language()
	for i, lang := range languages {
		if lang == current {
			m.sched.SetLanguage(languages[(i+1)%len(languages)])
			return
		}
	}
	m.sched.SetLanguage(languages[0])
}

// Language exposes the active language for the status line and tests.
func (m *Model) Language() string { return m.sched.Language() }

// Buffer exposes the decorated surface for tests.
func (m *Model) Buffer() *surface.Buffer { return m.buf }

// linkAt finds the URL zone under a mouse event, if any.
func (m *Model) linkAt(msg tea.MouseMsg) string {
	seen := map[string]struct{}{}
	for _, run := range m.buf.Runs() {
		if run.Attr.Link == "" {
			continue
		}
		if _, dup := seen[run.Attr.Link]; dup {
			continue
		}
		seen[run.Attr.Link] = struct{}{}
		if z := m.zones.Get(run.Attr.Link); z != nil && z.InBounds(msg) {
			return run.Attr.Link
		}
	}
	return ""
}

func nextAppearance(current string) string {
	switch theme.Variant(current) {
	case theme.VariantSystem:
		return string(theme.VariantLight)
	case theme.VariantLight:
		return string(theme.VariantDark)
	default:
		return string(theme.VariantSystem)
	}
}

func jobStatus(ev pubsub.Event[schedule.JobEvent]) string {
	switch ev.Type {
	case pubsub.ScheduledEvent:
		return "decorating…"
	case pubsub.CommittedEvent:
		return "decorated"
	case pubsub.SupersededEvent:
		return "superseded"
	case pubsub.CancelledEvent:
		return "cancelled"
	case pubsub.DegradedEvent:
		return "document too large, styling off"
	default:
		return string(ev.Type)
	}
}

func (m *Model) layout() {
	paneWidth := m.width/2 - 2
	if paneWidth < 10 {
		paneWidth = 10
	}
	paneHeight := m.height - 4
	if paneHeight < 3 {
		paneHeight = 3
	}
	m.textarea.SetWidth(paneWidth)
	m.textarea.SetHeight(paneHeight)
}

// View implements tea.Model.
func (m *Model) View() string {
	set := m.store.Get()
	th := m.resolveTheme(set)

	paneWidth := m.width/2 - 2
	if paneWidth < 10 {
		paneWidth = 10
	}

	preview := m.buf.RenderWithZones(m.zones)
	if set.WordWrap {
		preview = wordwrap.String(preview, paneWidth)
	}

	previewStyle := lipgloss.NewStyle().
		Width(paneWidth).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.Bullet.Lipgloss())

	statusStyle := lipgloss.NewStyle().Faint(true)
	status := statusStyle.Render(m.sched.Language() + "  " + m.status)

	body := lipgloss.JoinHorizontal(
		lipgloss.Top,
		m.textarea.View(),
		previewStyle.Render(preview),
	)

	out := lipgloss.JoinVertical(
		lipgloss.Left,
		body,
		status,
		m.help.View(m.keys),
	)
	return m.zones.Scan(out)
}
