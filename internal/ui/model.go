// Package ui implements the interactive search TUI. The model is a thin,
// purely reactive subscriber: it feeds raw text events into the pipeline
// and renders whatever snapshot the pipeline last emitted. All temporal
// logic (dedupe, debounce, cancellation) lives in the pipeline.
package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/runger/typeahead/internal/pipeline"
	"github.com/runger/typeahead/internal/snapshot"
)

// snapshotMsg carries one pipeline emission into the Bubble Tea loop.
type snapshotMsg snapshot.Snapshot

// streamClosedMsg is sent when the pipeline's output stream completes.
type streamClosedMsg struct{}

// Model is the Bubble Tea model for the interactive search view.
type Model struct {
	pipe *pipeline.Pipeline

	input textinput.Model
	spin  spinner.Model

	// snap is the snapshot currently on screen. Seeded synchronously from
	// the pipeline so the first render needs no round trip.
	snap snapshot.Snapshot

	selection int // Index into hits; -1 when empty
	width     int
	height    int

	// result holds the selected hit after the user presses Enter.
	result string
}

// NewModel creates the search view over a running pipeline.
func NewModel(pipe *pipeline.Pipeline) Model {
	ti := textinput.New()
	ti.Placeholder = "type to search"
	ti.Prompt = "> "
	ti.Focus()

	sp := spinner.New(spinner.WithSpinner(spinner.MiniDot))

	return Model{
		pipe:      pipe,
		input:     ti,
		spin:      sp,
		snap:      pipe.Last(),
		selection: -1,
	}
}

// WithQuery pre-fills the search input and feeds it into the pipeline.
func (m Model) WithQuery(query string) Model {
	m.input.SetValue(query)
	m.input.CursorEnd()
	m.pipe.Push(query)
	return m
}

// Result returns the selected hit, or "" if the user cancelled.
func (m Model) Result() string {
	return m.result
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick, listen(m.pipe))
}

// listen relays the next pipeline emission as a message. The returned
// command blocks until the pipeline emits, so exactly one listen is in
// flight at a time.
func listen(pipe *pipeline.Pipeline) tea.Cmd {
	return func() tea.Msg {
		s, ok := <-pipe.Snapshots()
		if !ok {
			return streamClosedMsg{}
		}
		return snapshotMsg(s)
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case snapshotMsg:
		m.snap = snapshot.Snapshot(msg)
		m.clampSelection()
		return m, listen(m.pipe)

	case streamClosedMsg:
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

// handleKey processes keyboard input. Navigation keys act locally;
// everything else goes to the text input, and any change to its value is
// pushed into the pipeline as a raw text event.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc, tea.KeyCtrlC:
		return m, tea.Quit

	case tea.KeyEnter:
		hits := m.hits()
		if m.selection >= 0 && m.selection < len(hits) {
			m.result = hits[m.selection].Title
		}
		return m, tea.Quit

	case tea.KeyUp:
		if m.selection > 0 {
			m.selection--
		}
		return m, nil

	case tea.KeyDown:
		if m.selection < len(m.hits())-1 {
			m.selection++
		}
		return m, nil
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.pipe.Push(after)
	}
	return m, cmd
}

// hits returns the current snapshot's hit list, if any.
func (m Model) hits() []snapshot.Hit {
	if m.snap.Result == nil {
		return nil
	}
	return m.snap.Result.Hits
}

// clampSelection keeps the selection inside the current hit list.
func (m Model) clampSelection() {
	n := len(m.hits())
	if n == 0 {
		m.selection = -1
		return
	}
	if m.selection < 0 {
		m.selection = 0
	}
	if m.selection >= n {
		m.selection = n - 1
	}
}

// listHeight returns the number of visible list rows (terminal height
// minus input and status lines).
func (m Model) listHeight() int {
	const chrome = 2
	h := m.height - chrome
	if h < 1 {
		h = 20 // Sensible default before first WindowSizeMsg
	}
	return h
}

// --- View rendering ---

var (
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	snippetStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.input.View())
	b.WriteRune('\n')
	b.WriteString(m.viewContent())
	return b.String()
}

// viewContent renders the hit list or a status line for the current
// snapshot.
func (m Model) viewContent() string {
	switch {
	case m.snap.Loading:
		return dimStyle.Render(m.spin.View() + " searching...")

	case m.snap.HasError:
		return errorStyle.Render("search failed; keep typing to retry")

	case m.snap.Result == nil:
		return ""

	case m.snap.Result.Kind == snapshot.KindNoTerm:
		return dimStyle.Render("type to search")

	case m.snap.Result.Kind == snapshot.KindEmpty:
		return dimStyle.Render("no matches")

	default:
		return m.viewHits()
	}
}

// viewHits renders the hit list with a selection marker.
func (m Model) viewHits() string {
	var b strings.Builder
	maxItems := m.listHeight()
	hits := m.hits()
	for i, hit := range hits {
		if i >= maxItems {
			break
		}

		budget := m.width - 4
		if m.width <= 4 {
			budget = 76 // before the first WindowSizeMsg
		}

		title := ValidateUTF8(StripANSI(hit.Title))
		line := MiddleTruncate(title, budget)
		if rest := budget - runewidth.StringWidth(line) - 2; hit.Snippet != "" && rest >= 8 {
			snip := MiddleTruncate(ValidateUTF8(StripANSI(hit.Snippet)), rest)
			line = fmt.Sprintf("%s  %s", line, snippetStyle.Render(snip))
		}

		if i == m.selection {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString(normalStyle.Render("  " + line))
		}
		if i < len(hits)-1 && i < maxItems-1 {
			b.WriteRune('\n')
		}
	}
	return b.String()
}
