package viewer

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/loupedev/loupe/internal/config"
	"github.com/loupedev/loupe/internal/event"
	"github.com/loupedev/loupe/internal/export"
	"github.com/loupedev/loupe/internal/filter"
	"github.com/loupedev/loupe/internal/prefs"
	"github.com/loupedev/loupe/internal/sink"
)

// DefaultMaxDisplay bounds how many entries one viewer keeps on screen.
const DefaultMaxDisplay = 2000

// rescanChunk is how many backlog events a re-scan processes between
// cancellation checks.
const rescanChunk = 1024

// Options configures the viewer.
type Options struct {
	Context    context.Context
	Sink       *sink.Sink
	Config     config.Config
	MaxDisplay int
	ThemeName  string
	PrefsPath  string
	Follow     *bool // nil keeps auto-scroll on
}

// Model is the root viewer state for Bubble Tea. All mutation of the entries
// collection and pause state happens inside Update, on the program goroutine;
// sink subscribers only post messages into the program mailbox.
type Model struct {
	ctx        context.Context
	sink       *sink.Sink
	cfg        config.Config
	maxDisplay int
	prefsPath  string

	filter  *filter.Filter
	entries *Entries
	pause   *pauser

	theme  Theme
	styles Styles
	keys   keyMap

	viewport    viewport.Model
	filterInput textinput.Model
	exportInput textinput.Model

	width  int
	height int
	ready  bool

	follow       bool
	showHelp     bool
	filterActive bool
	exportActive bool
	ignoreCase   bool
	statusNote   string

	// rescanGen discards re-scan results that raced a newer filter change.
	rescanGen uint64

	contentVersion uint64
	lastRendered   uint64
}

// New creates a viewer model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	s := opts.Sink
	if s == nil {
		s = sink.Default()
	}

	maxDisplay := opts.MaxDisplay
	if maxDisplay <= 0 {
		maxDisplay = DefaultMaxDisplay
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = prefs.DefaultTheme
	}
	theme := GetTheme(themeName)

	f := filter.New()
	f.SetLevel(event.LevelTrace)

	fi := textinput.New()
	fi.Placeholder = "handle filter (wildcards: * ? |)"
	fi.CharLimit = 200

	ei := textinput.New()
	ei.Placeholder = "export path (.json/.csv/.txt, .gz ok)"
	ei.CharLimit = 400

	follow := true
	if opts.Follow != nil {
		follow = *opts.Follow
	}

	return Model{
		ctx:         ctx,
		sink:        s,
		cfg:         opts.Config,
		maxDisplay:  maxDisplay,
		prefsPath:   opts.PrefsPath,
		filter:      f,
		entries:     NewEntries(),
		pause:       newPauser(),
		theme:       theme,
		styles:      theme.Styles(),
		keys:        defaultKeyMap(),
		filterInput: fi,
		exportInput: ei,
		follow:      follow,
		ignoreCase:  true,
	}
}

// Messages

type eventMsg struct {
	event *event.Event
}

type rescanMsg struct {
	gen    uint64
	events []*event.Event
}

type exportDoneMsg struct {
	result export.Result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(tea.EnterAltScreen, textinput.Blink)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, max(msg.Height-2, 1))
			m.ready = true
		}
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-2, 1)
		m.contentVersion++
		m.refreshViewport()
		return m, nil

	case eventMsg:
		m.handleEvent(msg.event)
		return m, nil

	case rescanMsg:
		if msg.gen == m.rescanGen {
			m.entries.Replace(msg.events)
			m.contentVersion++
			m.refreshViewport()
		}
		return m, nil

	case exportDoneMsg:
		m.statusNote = msg.result.String()
		return m, nil
	}

	return m, nil
}

// handleEvent runs one incoming event through filter and pause before it
// reaches the visible collection.
func (m *Model) handleEvent(e *event.Event) {
	if !m.filter.Visible(e) {
		return
	}
	if m.pause.Intercept(e) {
		return
	}
	if !m.entries.Add(e) {
		return
	}
	m.trimDisplay()
	m.contentVersion++
	m.refreshViewport()
}

// trimDisplay applies the overflow policy to the visible collection: remove
// the overflow plus a tenth of the cap, oldest first.
func (m *Model) trimDisplay() {
	if overflow := m.entries.Len() - m.maxDisplay; overflow > 0 {
		m.entries.RemoveRange(0, overflow+m.maxDisplay/10)
	}
}

// refreshViewport re-renders the viewport content when it changed.
func (m *Model) refreshViewport() {
	if !m.ready {
		return
	}
	if m.lastRendered == 0 || m.contentVersion != m.lastRendered {
		m.viewport.SetContent(m.renderContent())
		m.lastRendered = m.contentVersion
		if m.lastRendered == 0 {
			m.lastRendered = 1
		}
	}
	if m.follow {
		m.viewport.GotoBottom()
	}
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		return m, nil
	}
	if m.filterActive {
		return m.handleFilterInput(msg)
	}
	if m.exportActive {
		return m.handleExportInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.styles = m.theme.Styles()
		if m.prefsPath != "" {
			_ = prefs.Save(m.prefsPath, prefs.Prefs{Theme: m.theme.Name, Follow: m.follow})
		}
		m.contentVersion++
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.TogglePause):
		m.togglePause()
		return m, nil

	case key.Matches(msg, m.keys.ToggleFollow):
		m.follow = !m.follow
		if m.follow {
			m.viewport.GotoBottom()
		}
		return m, nil

	case key.Matches(msg, m.keys.Clear):
		m.entries.Clear()
		m.statusNote = ""
		m.contentVersion++
		m.refreshViewport()
		return m, nil

	case key.Matches(msg, m.keys.Filter):
		m.filterActive = true
		m.filterInput.SetValue(m.filter.Pattern())
		m.filterInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.ToggleCase):
		m.ignoreCase = !m.ignoreCase
		if m.filter.SetWildcard(m.filter.Pattern(), m.ignoreCase) {
			return m, m.rescanCmd()
		}
		return m, nil

	case key.Matches(msg, m.keys.LevelUp):
		if l := m.filter.Level(); l < event.LevelCritical {
			m.filter.SetLevel(l + 1)
			return m, m.rescanCmd()
		}
		return m, nil

	case key.Matches(msg, m.keys.LevelDown):
		if l := m.filter.Level(); l > event.LevelTrace {
			m.filter.SetLevel(l - 1)
			return m, m.rescanCmd()
		}
		return m, nil

	case key.Matches(msg, m.keys.ToggleMode):
		if m.filter.LevelMode() == filter.Threshold {
			m.filter.SetMode(filter.Exact)
		} else {
			m.filter.SetMode(filter.Threshold)
		}
		return m, m.rescanCmd()

	case key.Matches(msg, m.keys.Export):
		m.exportActive = true
		m.exportInput.SetValue("")
		m.exportInput.Focus()
		return m, nil

	case key.Matches(msg, m.keys.Top):
		m.viewport.GotoTop()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Bottom):
		m.viewport.GotoBottom()
		m.follow = true
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.viewport.ScrollDown(1)
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.viewport.ScrollUp(1)
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.HalfPageDown):
		m.viewport.HalfPageDown()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.HalfPageUp):
		m.viewport.HalfPageUp()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageDown):
		m.viewport.PageDown()
		m.follow = false
		return m, nil

	case key.Matches(msg, m.keys.PageUp):
		m.viewport.PageUp()
		m.follow = false
		return m, nil
	}

	return m, nil
}

// togglePause flips the pause state. Resuming flushes the side buffer into
// the collection in arrival order as one bulk append, then trims once.
func (m *Model) togglePause() {
	if m.pause.Paused() {
		m.flushPaused()
		return
	}
	if m.pause.Pause() {
		m.statusNote = ""
	}
}

func (m *Model) flushPaused() {
	buffered := m.pause.Resume()
	if len(buffered) > 0 {
		m.entries.AddRange(buffered)
		m.trimDisplay()
	}
	m.statusNote = ""
	m.contentVersion++
	m.refreshViewport()
}

// SetPausingEnabled turns the pause feature on or off. Disabling while paused
// forces a resume with the usual flush.
func (m *Model) SetPausingEnabled(enabled bool) {
	buffered := m.pause.SetEnabled(enabled)
	if len(buffered) > 0 {
		m.entries.AddRange(buffered)
		m.trimDisplay()
	}
	m.contentVersion++
	m.refreshViewport()
}

// handleFilterInput handles keys while the filter prompt is open.
func (m Model) handleFilterInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		pattern := m.filterInput.Value()
		m.filterActive = false
		m.filterInput.Blur()
		if !m.filter.SetWildcard(pattern, m.ignoreCase) {
			// Previous filter stays active; report, don't throw.
			m.statusNote = fmt.Sprintf("invalid filter %q (previous kept)", pattern)
			return m, nil
		}
		m.statusNote = ""
		return m, m.rescanCmd()

	case key.Matches(msg, m.keys.Escape):
		m.filterActive = false
		m.filterInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.filterInput, cmd = m.filterInput.Update(msg)
	return m, cmd
}

// handleExportInput handles keys while the export prompt is open.
func (m Model) handleExportInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		path := strings.TrimSpace(m.exportInput.Value())
		m.exportActive = false
		m.exportInput.Blur()
		if path == "" {
			return m, nil
		}
		snapshot := m.entries.Snapshot()
		opts := export.Options{
			Template:   m.cfg.Template,
			TimeFormat: m.cfg.TimeFormat,
			UTC:        m.cfg.UTC,
			Delimiter:  m.cfg.Delimiter,
		}
		ctx := m.ctx
		return m, func() tea.Msg {
			return exportDoneMsg{result: export.ToFile(ctx, path, export.FormatForPath(path), snapshot, opts)}
		}

	case key.Matches(msg, m.keys.Escape):
		m.exportActive = false
		m.exportInput.Blur()
		return m, nil
	}

	var cmd tea.Cmd
	m.exportInput, cmd = m.exportInput.Update(msg)
	return m, cmd
}

// rescanCmd re-evaluates the full sink backlog against the current filter on
// a background task, so a large backlog never stalls the UI loop. Only the
// newest generation's result is applied.
func (m *Model) rescanCmd() tea.Cmd {
	m.rescanGen++
	gen := m.rescanGen
	f := m.filter
	s := m.sink
	maxDisplay := m.maxDisplay
	ctx := m.ctx

	return func() tea.Msg {
		backlog := s.Snapshot()
		matched := make([]*event.Event, 0, len(backlog))
		for i, e := range backlog {
			if i%rescanChunk == 0 && ctx.Err() != nil {
				return nil
			}
			if f.Visible(e) {
				matched = append(matched, e)
			}
		}
		// Timestamp sort defends against out-of-order fan-out.
		sort.SliceStable(matched, func(i, j int) bool {
			return matched[i].Timestamp.Before(matched[j].Timestamp)
		})
		if len(matched) > maxDisplay {
			matched = matched[len(matched)-maxDisplay:]
		}
		return rescanMsg{gen: gen, events: matched}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.renderHelp()
	}

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.viewport.View())
	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	return b.String()
}

func (m Model) renderHeader() string {
	styles := m.styles
	left := styles.Logo.Render("loupe") + styles.MutedText.Render("  live log viewer")

	mode := "live"
	if m.pause.Paused() {
		mode = fmt.Sprintf("paused (%d buffered)", m.pause.Buffered())
	}
	right := fmt.Sprintf("%d shown / %d retained • %s", m.entries.Len(), m.sink.Len(), mode)

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if gap < 1 {
		gap = 1
	}
	return styles.Header.Render(left + strings.Repeat(" ", gap) + styles.MutedText.Render(right))
}

func (m Model) renderStatus() string {
	styles := m.styles

	if m.filterActive {
		return styles.Status.Render("filter: " + m.filterInput.View())
	}
	if m.exportActive {
		return styles.Status.Render("export to: " + m.exportInput.View())
	}

	var parts []string

	level := m.filter.Level().Label()
	if m.filter.LevelMode() == filter.Exact {
		parts = append(parts, "level = "+level)
	} else {
		parts = append(parts, "level >= "+level)
	}

	if pattern := m.filter.Pattern(); pattern != "" {
		caseNote := ""
		if m.filter.IgnoreCase() {
			caseNote = " (i)"
		}
		parts = append(parts, "filter "+pattern+caseNote)
	}

	follow := "follow off"
	if m.follow {
		follow = "follow on"
	}
	parts = append(parts, follow)

	if m.statusNote != "" {
		parts = append(parts, m.statusNote)
	}

	parts = append(parts, "h help")
	return styles.Status.Render(strings.Join(parts, " • "))
}

func (m Model) renderHelp() string {
	styles := m.styles
	bindings := []key.Binding{
		m.keys.TogglePause, m.keys.ToggleFollow, m.keys.Clear,
		m.keys.Filter, m.keys.ToggleCase, m.keys.LevelUp, m.keys.LevelDown, m.keys.ToggleMode,
		m.keys.Export, m.keys.CycleTheme,
		m.keys.Up, m.keys.Down, m.keys.Top, m.keys.Bottom,
		m.keys.Quit,
	}

	var b strings.Builder
	b.WriteString(styles.Logo.Render("loupe key bindings"))
	b.WriteString("\n\n")
	for _, binding := range bindings {
		help := binding.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n",
			styles.AccentText.Render(fmt.Sprintf("%-8s", help.Key)),
			styles.Text.Render(help.Desc)))
	}
	b.WriteString("\n")
	b.WriteString(styles.MutedText.Render("press any key to close"))
	return b.String()
}

// Run starts the viewer and blocks until the user quits or the context is
// cancelled. The sink subscription lives for the duration of the program;
// the subscriber only posts into the program mailbox, which is how every
// mutation lands on the UI goroutine.
func Run(opts Options) error {
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen())

	unsubscribe := m.sink.Subscribe(func(e *event.Event) {
		p.Send(eventMsg{event: e})
	})
	defer unsubscribe()

	if opts.Context != nil {
		go func() {
			<-opts.Context.Done()
			p.Quit()
		}()
	}

	_, err := p.Run()
	return err
}
