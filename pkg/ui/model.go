package ui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"arwl/pkg/concurrency/ambient"
	"arwl/pkg/concurrency/arwlock"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Model drives a live dashboard over a single arwlock.LockCore: keypresses
// spawn simulated readers, writers, and upgradeable readers against it, and
// every admission, queueing, and release the core reports through its event
// hook streams into the scrolling log.
type Model struct {
	core     *arwlock.LockCore
	registry *ambient.Registry
	events   chan arwlock.Event

	logView viewport.Model
	help    help.Model

	width     int
	height    int
	showHelp  bool
	logLines  []string
	spawned   int
	completed bool

	keys keyMap
}

// NewModel constructs a dashboard Model over a fresh LockCore. The returned
// Model owns the core for the lifetime of the program.
func NewModel() Model {
	return NewModelWithOptions(ambient.NewRegistry())
}

// NewModelWithOptions constructs a dashboard Model over a fresh LockCore
// built with extraOpts in addition to the dashboard's own event hook, so a
// caller (e.g. main.go wiring in pkg/lockmetrics) can instrument the same
// core the dashboard renders instead of talking to an isolated one of its
// own. registry is shared with any background actors the caller spawns
// directly against the returned Model's Core().
func NewModelWithOptions(registry *ambient.Registry, extraOpts ...arwlock.Option) Model {
	events := make(chan arwlock.Event, 256)
	hook := arwlock.WithEventHook(func(e arwlock.Event) {
		select {
		case events <- e:
		default: // drop under backpressure; the dashboard is best-effort
		}
	})

	opts := append([]arwlock.Option{hook}, extraOpts...)
	core := arwlock.NewLockCore(opts...)

	vp := viewport.New(80, 12)
	vp.Style = logStyle

	return Model{
		core:     core,
		registry: registry,
		events:   events,
		logView:  vp,
		help:     help.New(),
		keys:     keys,
	}
}

// Core returns the LockCore this Model renders, so a caller can drive
// additional load against the same core the dashboard displays.
func (m Model) Core() *arwlock.LockCore {
	return m.core
}

// Registry returns the task Registry this Model's spawned actors register
// against.
func (m Model) Registry() *ambient.Registry {
	return m.registry
}

func (m Model) Init() tea.Cmd {
	return m.listenForEvents()
}

type lockEventMsg arwlock.Event

type actorDoneMsg struct {
	label string
	err   error
}

func (m Model) listenForEvents() tea.Cmd {
	return func() tea.Msg {
		e, ok := <-m.events
		if !ok {
			return nil
		}
		return lockEventMsg(e)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, m.keys.SpawnReader):
			m.spawned++
			cmds = append(cmds, m.spawnReader(m.spawned))
		case key.Matches(msg, m.keys.SpawnUpgradeable):
			m.spawned++
			cmds = append(cmds, m.spawnUpgradeable(m.spawned, arwlock.FlagNone))
		case key.Matches(msg, m.keys.SpawnSticky):
			m.spawned++
			cmds = append(cmds, m.spawnUpgradeable(m.spawned, arwlock.StickyWrite))
		case key.Matches(msg, m.keys.SpawnWriter):
			m.spawned++
			cmds = append(cmds, m.spawnWriter(m.spawned))
		case key.Matches(msg, m.keys.Complete):
			m.core.Complete()
			m.completed = true
			m.appendLog(warningStyle.Render(" COMPLETE ") + " graceful shutdown requested")
		}

	case lockEventMsg:
		m.appendLog(formatEvent(arwlock.Event(msg)))
		cmds = append(cmds, m.listenForEvents())

	case actorDoneMsg:
		if msg.err != nil {
			m.appendLog(errorStyle.Render(" CANCELED ") + fmt.Sprintf(" %s: %v", msg.label, msg.err))
		} else {
			m.appendLog(successStyle.Render(" DONE ") + " " + msg.label)
		}
	}

	var cmd tea.Cmd
	m.logView, cmd = m.logView.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderStatsPanel())
	sections = append(sections, logStyle.Render(m.logView.View()))
	sections = append(sections, m.renderStatusBar())
	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}
	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHeader() string {
	title := titleStyle.Render("ARWL Lock Dashboard")
	subtitle := lipgloss.NewStyle().Foreground(textSecondary).
		Render("r: reader  u: upgradeable  s: sticky-upgrade  w: writer  ctrl+d: complete")
	return title + "  " + subtitle
}

func (m Model) renderStatsPanel() string {
	s := m.core.Stats()

	row := func(label string, active bool, queued int, color lipgloss.Color) string {
		state := "idle"
		style := lipgloss.NewStyle().Foreground(textMuted)
		if active {
			state = "held"
			style = lipgloss.NewStyle().Foreground(color).Bold(true)
		}
		return fmt.Sprintf("%-16s %-6s queued=%d", label, style.Render(state), queued)
	}

	lines := []string{
		fmt.Sprintf("%-16s %-6s queued=%d", "Readers", fmt.Sprintf("%d active", s.ActiveReaders), s.QueueReaders),
		row("UpgradeableRead", s.HasUpgrade, s.QueueUpgrade, secondaryColor),
		row("Write", s.HasWriter, s.QueueWriters, accentColor),
	}
	completion := "running"
	if s.Completing && !s.Completed {
		completion = "completing"
	} else if s.Completed {
		completion = "completed"
	}
	lines = append(lines, fmt.Sprintf("%-16s %s", "Lifecycle", completion))
	lines = append(lines, fmt.Sprintf("%-16s %d", "Live tasks", m.registry.Count()))

	return panelStyle.Render(strings.Join(lines, "\n"))
}

func (m Model) renderStatusBar() string {
	content := fmt.Sprintf("actors spawned: %d", m.spawned)
	return statusBarStyle.Width(m.width - 4).Render(content)
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{m.keys.SpawnReader, m.keys.SpawnUpgradeable, m.keys.SpawnSticky, m.keys.SpawnWriter},
		{m.keys.Complete, m.keys.Help, m.keys.Quit},
	})
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText)
}

func (m *Model) updateLayout() {
	m.logView.Width = m.width - 6
	m.logView.Height = m.height - 12
}

func (m *Model) appendLog(line string) {
	stamp := lipgloss.NewStyle().Foreground(textMuted).Render(time.Now().Format("15:04:05.000"))
	m.logLines = append(m.logLines, stamp+"  "+line)
	const maxLines = 500
	if len(m.logLines) > maxLines {
		m.logLines = m.logLines[len(m.logLines)-maxLines:]
	}
	m.logView.SetContent(strings.Join(m.logLines, "\n"))
	m.logView.GotoBottom()
}

func formatEvent(e arwlock.Event) string {
	kindLabel := map[arwlock.EventKind]string{
		arwlock.EventAdmitted:   successStyle.Render(" ADMITTED "),
		arwlock.EventQueued:     warningStyle.Render(" QUEUED "),
		arwlock.EventReleased:   lipgloss.NewStyle().Foreground(textSecondary).Render("RELEASED"),
		arwlock.EventCanceled:   errorStyle.Render(" CANCELED "),
		arwlock.EventCompleting: warningStyle.Render(" COMPLETING "),
		arwlock.EventCompleted:  successStyle.Render(" COMPLETED "),
	}[e.Kind]
	return fmt.Sprintf("%s %s queue_depth=%d", kindLabel, e.LockKind, e.QueueDepth)
}

func holdDuration() time.Duration {
	return time.Duration(150+rand.Intn(400)) * time.Millisecond
}

func (m Model) spawnReader(n int) tea.Cmd {
	label := fmt.Sprintf("reader-%d", n)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		task := ambient.NewTask()
		m.registry.Register(task)
		defer m.registry.Remove(task.ID())
		r, err := m.core.ReadLock(ctx, task)
		if err != nil {
			return actorDoneMsg{label: label, err: err}
		}
		time.Sleep(holdDuration())
		return actorDoneMsg{label: label, err: r.Release()}
	}
}

func (m Model) spawnWriter(n int) tea.Cmd {
	label := fmt.Sprintf("writer-%d", n)
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		task := ambient.NewTask()
		m.registry.Register(task)
		defer m.registry.Remove(task.ID())
		w, err := m.core.WriteLock(ctx, task)
		if err != nil {
			return actorDoneMsg{label: label, err: err}
		}
		time.Sleep(holdDuration())
		return actorDoneMsg{label: label, err: w.Release()}
	}
}

func (m Model) spawnUpgradeable(n int, flags arwlock.LockFlags) tea.Cmd {
	label := fmt.Sprintf("upgradeable-%d", n)
	if flags&arwlock.StickyWrite != 0 {
		label = fmt.Sprintf("sticky-upgradeable-%d", n)
	}
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		task := ambient.NewTask()
		m.registry.Register(task)
		defer m.registry.Remove(task.ID())

		err := arwlock.UpgradeableRead(ctx, m.core, task, flags, func(ctx context.Context, r *arwlock.Releaser) error {
			time.Sleep(holdDuration())
			if flags&arwlock.StickyWrite != 0 && rand.Intn(2) == 0 {
				w, err := m.core.WriteLock(ctx, task)
				if err != nil {
					return err
				}
				time.Sleep(holdDuration())
				return w.Release()
			}
			return nil
		})
		return actorDoneMsg{label: label, err: err}
	}
}
