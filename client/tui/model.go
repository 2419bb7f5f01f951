// Package tui is a terminal front-end for the format controller.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/hrygo/codepolish/client"
	"github.com/hrygo/codepolish/client/controller"
	"github.com/hrygo/codepolish/client/highlight"
)

const copiedLabel = "Magic copied!"

// SnapshotMsg tells the model the controller changed outside of Update, for
// example when the copy acknowledgment expires.
type SnapshotMsg controller.Snapshot

type formatDoneMsg struct{}

// Model is the bubbletea model.
type Model struct {
	ctx     context.Context
	ctrl    *controller.Controller
	input   textarea.Model
	spinner spinner.Model
	style   string
	width   int
	status  string

	highlighted     string
	highlightedFrom string
	highlightedLang client.Language
}

// New returns a model driving ctrl. styleName selects the chroma style.
func New(ctx context.Context, ctrl *controller.Controller, styleName string) *Model {
	ta := textarea.New()
	ta.Placeholder = "Paste your JavaScript or TypeScript here"
	ta.ShowLineNumbers = true
	ta.SetWidth(76)
	ta.SetHeight(10)
	ta.Focus()
	ta.SetValue(ctrl.Snapshot().Input)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	return &Model{
		ctx:     ctx,
		ctrl:    ctrl,
		input:   ta,
		spinner: sp,
		style:   styleName,
		width:   80,
	}
}

func (m *Model) Init() tea.Cmd {
	return textarea.Blink
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case formatDoneMsg, SnapshotMsg:
		return m, nil
	case spinner.TickMsg:
		if m.ctrl.Snapshot().State != controller.StateFormatting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			m.width = msg.Width
			m.input.SetWidth(max(msg.Width-4, 20))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+t":
		snapshot := m.ctrl.Snapshot()
		m.ctrl.SetLanguage(snapshot.Language.Toggle())
		return m, nil
	case "ctrl+f":
		m.status = ""
		req, ok := m.ctrl.Begin()
		if !ok {
			return m, nil
		}
		return m, tea.Batch(m.spinner.Tick, m.execute(req))
	case "ctrl+y":
		m.status = ""
		if err := m.ctrl.Copy(); err != nil {
			m.status = err.Error()
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.ctrl.SetInput(m.input.Value())
	return m, cmd
}

func (m *Model) execute(req controller.Request) tea.Cmd {
	return func() tea.Msg {
		m.ctrl.Execute(m.ctx, req)
		return formatDoneMsg{}
	}
}

func (m *Model) View() string {
	snapshot := m.ctrl.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render("codepolish"))
	b.WriteString("  ")
	b.WriteString(languageTabs(snapshot.Language))
	b.WriteString("\n\n")
	b.WriteString(m.input.View())
	b.WriteString("\n\n")

	switch snapshot.State {
	case controller.StateFormatting:
		b.WriteString(m.spinner.View())
		b.WriteString(" Crafting magic...")
		b.WriteString("\n")
	case controller.StateFailed:
		b.WriteString(errorStyle.Render(snapshot.ErrorText()))
		b.WriteString("\n")
	case controller.StateSuccess:
		b.WriteString(m.renderResult(snapshot))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help(snapshot)))
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render(truncate(m.status, m.width)))
	}
	b.WriteString("\n")
	return b.String()
}

// renderResult highlights with the current language selection, so the
// highlighting follows a language change made after formatting.
func (m *Model) renderResult(snapshot controller.Snapshot) string {
	if m.highlightedFrom != snapshot.Result || m.highlightedLang != snapshot.Language || m.highlighted == "" {
		m.highlighted = highlight.String(snapshot.Result, snapshot.Language, m.style)
		m.highlightedFrom = snapshot.Result
		m.highlightedLang = snapshot.Language
	}
	return resultStyle.Render(strings.TrimRight(m.highlighted, "\n"))
}

func (m *Model) help(snapshot controller.Snapshot) string {
	format := "ctrl+f format"
	if !snapshot.CanFormat() {
		format = disabledStyle.Render(format)
	}
	parts := []string{format, "ctrl+t language"}
	if snapshot.State == controller.StateSuccess {
		if snapshot.Copied {
			parts = append(parts, copiedStyle.Render(copiedLabel))
		} else {
			parts = append(parts, "ctrl+y copy")
		}
	}
	parts = append(parts, "esc quit")
	return strings.Join(parts, " • ")
}

func languageTabs(selected client.Language) string {
	tabs := make([]string, 0, 2)
	for _, lang := range []client.Language{client.LanguageJavaScript, client.LanguageTypeScript} {
		label := fmt.Sprintf(" %s ", languageLabel(lang))
		if lang == selected {
			tabs = append(tabs, activeTabStyle.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return strings.Join(tabs, "")
}

func languageLabel(lang client.Language) string {
	if lang == client.LanguageTypeScript {
		return "TypeScript"
	}
	return "JavaScript"
}

var (
	titleStyle     = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("5"))
	tabStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("7"))
	activeTabStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("0")).Background(lipgloss.Color("5"))
	errorStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	copiedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	helpStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	disabledStyle  = lipgloss.NewStyle().Faint(true).Strikethrough(true)
	resultStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("5")).Padding(0, 1)
)

func truncate(value string, width int) string {
	if width <= 0 {
		return value
	}
	if runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width, "...")
}
