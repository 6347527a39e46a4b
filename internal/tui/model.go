// Package tui is an as-you-type terminal search over a loaded index. Every
// keystroke issues a query; answers to superseded keystrokes are dropped
// so the list always reflects the text in the input.
package tui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-runewidth"

	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/executor"
	"github.com/Adithya-Monish-Kumar-K/docsearch/internal/searcher/presenter"
)

// Searcher is satisfied by *executor.Executor.
type Searcher interface {
	Execute(ctx context.Context, raw string, limit int) (*executor.SearchResult, error)
}

type resultMsg struct {
	seq   uint64
	query string
	res   *executor.SearchResult
	err   error
}

type Model struct {
	input    textinput.Model
	spinner  spinner.Model
	searcher Searcher
	session  *executor.Session
	id       string
	limit    int
	logger   *slog.Logger

	query    string
	results  []presenter.Record
	total    int
	degraded bool
	version  string
	selected int
	pending  bool
	dropped  int
	err      error
	width    int
	height   int
}

// New builds the model. limit caps the rows shown.
func New(searcher Searcher, limit int) Model {
	ti := textinput.New()
	ti.Placeholder = "name, a::path or fn(&str) -> usize"
	ti.Prompt = "> "
	ti.PromptStyle = titleStyle
	ti.CharLimit = 256
	ti.Width = 60
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Line
	sp.Style = tierStyle

	if limit <= 0 {
		limit = 20
	}
	id := uuid.NewString()
	return Model{
		input:    ti,
		spinner:  sp,
		searcher: searcher,
		session:  &executor.Session{},
		id:       id,
		limit:    limit,
		logger:   slog.Default().With("component", "tui", "session", id),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spinner.Tick)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.input.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "ctrl+p":
			if m.selected > 0 {
				m.selected--
			}
			return m, nil
		case "down", "ctrl+n":
			if m.selected < len(m.results)-1 {
				m.selected++
			}
			return m, nil
		}
		var inputCmd tea.Cmd
		m.input, inputCmd = m.input.Update(msg)
		if m.input.Value() == m.query {
			return m, inputCmd
		}
		var searchCmd tea.Cmd
		m, searchCmd = m.setQuery(m.input.Value())
		return m, tea.Batch(inputCmd, searchCmd)

	case resultMsg:
		return m.receive(msg), nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// setQuery issues a search for q under a fresh sequence number. An empty
// query clears the list and still advances the sequence, so searches in
// flight for older text are dropped.
func (m Model) setQuery(q string) (Model, tea.Cmd) {
	m.query = q
	seq := m.session.Next()
	if strings.TrimSpace(q) == "" {
		m.results, m.total, m.err, m.pending, m.selected = nil, 0, nil, false, 0
		return m, nil
	}
	m.pending = true
	searcher, limit := m.searcher, m.limit
	return m, func() tea.Msg {
		res, err := searcher.Execute(context.Background(), q, limit)
		return resultMsg{seq: seq, query: q, res: res, err: err}
	}
}

func (m Model) receive(msg resultMsg) Model {
	if !m.session.Deliver(msg.seq) {
		m.dropped++
		m.logger.Debug("stale result dropped", "query", msg.query, "seq", msg.seq, "latest", m.session.Latest())
		return m
	}
	m.pending = false
	m.err = msg.err
	if msg.err != nil {
		m.results, m.total = nil, 0
		return m
	}
	m.results = msg.res.Results
	m.total = msg.res.Total
	m.degraded = msg.res.Degraded
	m.version = msg.res.Version
	m.selected = 0
	return m
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("docsearch"))
	b.WriteString("\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	case m.query != "" && !m.pending && len(m.results) == 0:
		b.WriteString(descStyle.Render("no results"))
		b.WriteString("\n")
	}
	if m.degraded {
		b.WriteString(warnStyle.Render("signature not understood, searching by name"))
		b.WriteString("\n")
	}

	rows := len(m.results)
	if m.height > 0 {
		rows = min(rows, max((m.height-8)/2, 1))
	}
	for i, r := range m.results[:rows] {
		cursor, path := "  ", pathStyle.Render(r.Path)
		if i == m.selected {
			cursor, path = "> ", selectedStyle.Render(r.Path)
		}
		line := cursor + kindStyle.Render(r.Kind) + path
		if r.Signature != "" {
			line += " " + sigStyle.Render(r.Signature)
		}
		line += " " + tierStyle.Render(r.ScoreTier)
		b.WriteString(line)
		b.WriteString("\n")
		if r.OneLineDescription != "" {
			b.WriteString("    " + descStyle.Render(m.fit(r.OneLineDescription, 4)))
			b.WriteString("\n")
		}
	}

	status := fmt.Sprintf("%d of %d", rows, m.total)
	if m.pending {
		status = m.spinner.View() + " searching"
	}
	if m.version != "" {
		status += "  index " + m.version
	}
	if m.dropped > 0 {
		status += fmt.Sprintf("  %d stale dropped", m.dropped)
	}
	b.WriteString(footerStyle.Render(status + "  esc to quit"))
	return b.String()
}

// fit truncates s to the terminal width left after indent columns,
// counting wide runes as two cells.
func (m Model) fit(s string, indent int) string {
	if m.width <= indent+1 {
		return s
	}
	return runewidth.Truncate(s, m.width-indent, "…")
}

// Run starts the program on the terminal and blocks until the user quits.
func Run(searcher Searcher, limit int) error {
	_, err := tea.NewProgram(New(searcher, limit), tea.WithAltScreen()).Run()
	return err
}
