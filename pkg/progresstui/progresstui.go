// Package progresstui renders one live view of an in-flight discovery
// crawl for `netdiscover discover run --watch`, built on bubbletea's
// model/Update/View/Cmd shape: a spinner, a progress bar, and a
// running tally of devices and errors.
package progresstui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// EventKind classifies one Event sent over the crawl's progress channel.
type EventKind int

const (
	EventDeviceCollected EventKind = iota
	EventDeviceErrored
	EventDone
)

// Event is one unit of progress the crawl driver reports while a crawl
// runs.
type Event struct {
	Kind         EventKind
	Hostname     string
	Message      string
	DevicesFound int
	MaxDepth     int
	Err          error
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

type eventMsg Event

func waitForEvent(events <-chan Event) tea.Cmd {
	return func() tea.Msg {
		e, ok := <-events
		if !ok {
			return eventMsg(Event{Kind: EventDone})
		}
		return eventMsg(e)
	}
}

// Model is the Bubble Tea model backing the discovery progress view.
type Model struct {
	events <-chan Event

	spinner  spinner.Model
	progress progress.Model

	devicesFound int
	errorCount   int
	lastLine     string
	done         bool
}

// New constructs a Model that reads progress off events until the
// channel closes or an EventDone is received.
func New(events <-chan Event) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		events:   events,
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitForEvent(m.events))
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case eventMsg:
		e := Event(msg)
		switch e.Kind {
		case EventDeviceCollected:
			m.devicesFound++
			m.lastLine = okStyle.Render("collected ") + e.Hostname
		case EventDeviceErrored:
			m.errorCount++
			m.lastLine = errStyle.Render("failed ") + e.Hostname + ": " + e.Message
		case EventDone:
			if e.DevicesFound > m.devicesFound {
				m.devicesFound = e.DevicesFound
			}
			m.done = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// successRate is the fraction of attempted devices that collected
// cleanly, rendered as the progress bar's fill. There is no known
// total device count to measure completion against, so this doubles
// as a running health indicator instead.
func (m Model) successRate() float64 {
	total := m.devicesFound + m.errorCount
	if total == 0 {
		return 0
	}
	return float64(m.devicesFound) / float64(total)
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("netdiscover") + " crawling network...\n\n")
	if !m.done {
		fmt.Fprintf(&b, "%s devices found: %d, errors: %d\n", m.spinner.View(), m.devicesFound, m.errorCount)
	} else {
		fmt.Fprintf(&b, "done. devices found: %d, errors: %d\n", m.devicesFound, m.errorCount)
	}
	b.WriteString(m.progress.ViewAs(m.successRate()) + "\n")
	if m.lastLine != "" {
		b.WriteString(m.lastLine + "\n")
	}
	return b.String()
}

// Run drives the progress view to completion, reading events until the
// channel closes or an EventDone arrives.
func Run(events <-chan Event) error {
	_, err := tea.NewProgram(New(events)).Run()
	return err
}
