// Package ui provides the interactive reconcile preview.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Companion-TheCube/todosync/internal/todo"
)

// ErrNotTTY is returned when the preview is started without a terminal.
var ErrNotTTY = errors.New("tui requires a TTY")

// Preview wires the preview screen to the reconciler.
type Preview struct {
	// TodoPath is shown in the header.
	TodoPath string
	// Plan scans and reconciles without writing.
	Plan func(ctx context.Context) (*todo.Result, error)
	// Apply scans and writes the document.
	Apply func(ctx context.Context) (*todo.Result, error)
}

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FAFAFA")).Background(lipgloss.Color("#7D56F4")).Padding(0, 1)
	addedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	removedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	okStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// RunPreview shows the pending changes to the tracking document and lets
// the user apply them.
func RunPreview(ctx context.Context, p Preview) error {
	if !IsTTY(os.Stdout) {
		return ErrNotTTY
	}
	model := newPreviewModel(ctx, p)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}
	return nil
}

// chromeLines is the height taken by the header, summary and footer.
const chromeLines = 8

type previewModel struct {
	ctx      context.Context
	preview  Preview
	result   *todo.Result
	err      error
	applied  bool
	busy     bool
	showHelp bool
	diff     viewport.Model
}

type resultMsg struct {
	result  *todo.Result
	applied bool
	err     error
}

func newPreviewModel(ctx context.Context, p Preview) *previewModel {
	return &previewModel{ctx: ctx, preview: p, busy: true, diff: viewport.New(80, 24-chromeLines)}
}

func (m *previewModel) Init() tea.Cmd {
	return m.planCmd()
}

func (m *previewModel) planCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.preview.Plan(m.ctx)
		return resultMsg{result: res, err: err}
	}
}

func (m *previewModel) applyCmd() tea.Cmd {
	return func() tea.Msg {
		res, err := m.preview.Apply(m.ctx)
		return resultMsg{result: res, applied: err == nil, err: err}
	}
}

func (m *previewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.diff.Width = msg.Width
		m.diff.Height = max(msg.Height-chromeLines, 1)
		return m, nil

	case resultMsg:
		m.busy = false
		m.err = msg.err
		if msg.err == nil {
			m.result = msg.result
			m.applied = msg.applied
			m.diff.SetContent(strings.Join(diffLines(msg.result), "\n"))
			m.diff.GotoTop()
		}
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "h", "?":
			m.showHelp = !m.showHelp
			return m, nil
		case "r", "f5":
			if m.busy {
				return m, nil
			}
			m.busy = true
			m.applied = false
			return m, m.planCmd()
		case "a", "enter":
			if m.busy || m.result == nil || m.applied || !m.result.Changed {
				return m, nil
			}
			m.busy = true
			return m, m.applyCmd()
		}
	}

	var cmd tea.Cmd
	m.diff, cmd = m.diff.Update(msg)
	return m, cmd
}

func (m *previewModel) View() string {
	var b strings.Builder
	writeTitle(&b, m.preview.TodoPath)

	if m.showHelp {
		writeHelp(&b)
		writeFooter(&b)
		return b.String()
	}

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render("Error: "+m.err.Error()) + "\n\n")
	case m.result == nil:
		b.WriteString("Scanning...\n\n")
		writeFooter(&b)
		return b.String()
	}

	if m.result != nil {
		writeSummary(&b, m.result, m.applied)
		if len(m.result.AddedEntries)+len(m.result.RemovedEntries) == 0 {
			b.WriteString(dimStyle.Render("  Nothing to change.") + "\n\n")
		} else {
			b.WriteString(m.diff.View() + "\n")
			if !(m.diff.AtTop() && m.diff.AtBottom()) {
				b.WriteString(dimStyle.Render(fmt.Sprintf("  %3.f%%", m.diff.ScrollPercent()*100)) + "\n")
			}
			b.WriteString("\n")
		}
	}
	writeFooter(&b)
	return b.String()
}

func diffLines(res *todo.Result) []string {
	lines := make([]string, 0, len(res.AddedEntries)+len(res.RemovedEntries))
	for _, e := range res.AddedEntries {
		lines = append(lines, addedStyle.Render("  + "+e))
	}
	for _, e := range res.RemovedEntries {
		lines = append(lines, removedStyle.Render("  - "+e))
	}
	return lines
}

func writeTitle(b *strings.Builder, path string) {
	b.WriteString(titleStyle.Render("todosync preview") + "\n")
	if path != "" {
		b.WriteString(dimStyle.Render(path) + "\n")
	}
	b.WriteString("\n")
}

func writeSummary(b *strings.Builder, res *todo.Result, applied bool) {
	summary := fmt.Sprintf("Added %d, removed %d, total %d TODOs", res.Added, res.Removed, res.Total)
	switch {
	case applied:
		b.WriteString(okStyle.Render("Applied: "+summary) + "\n\n")
	case res.Changed:
		b.WriteString("Pending: " + summary + "\n\n")
	default:
		b.WriteString(okStyle.Render("Up to date: "+summary) + "\n\n")
	}
}

func writeHelp(b *strings.Builder) {
	b.WriteString("Keyboard Shortcuts\n\n")
	b.WriteString("  a, enter     Apply pending changes\n")
	b.WriteString("  r, F5        Rescan\n")
	b.WriteString("  j/k, arrows  Scroll\n")
	b.WriteString("  f/b, pgdn/up Page\n")
	b.WriteString("  h, ?         Toggle this help screen\n")
	b.WriteString("  q, ctrl+c    Quit\n\n")
}

func writeFooter(b *strings.Builder) {
	b.WriteString(dimStyle.Render("a apply | r rescan | h help | q quit") + "\n")
}

// IsTTY returns true if w is a terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return (info.Mode() & os.ModeCharDevice) != 0
}
