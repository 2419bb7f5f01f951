package tui

import (
	"context"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/codepolish/client"
	"github.com/hrygo/codepolish/client/controller"
)

type stubFormatter struct {
	mu     sync.Mutex
	calls  int
	output string
	err    error
}

func (f *stubFormatter) Format(_ context.Context, _ client.FormatRequest, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.output, f.err
}

func (f *stubFormatter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memClipboard struct{ text string }

func (c *memClipboard) WriteAll(text string) error {
	c.text = text
	return nil
}

type heldTimer struct{ f func() }

func (t *heldTimer) Stop() bool { return true }

func newTestModel(f *stubFormatter, timers *[]*heldTimer) (*Model, *controller.Controller, *memClipboard) {
	cb := &memClipboard{}
	ctrl := controller.New(f,
		controller.WithClipboard(cb),
		controller.WithAfterFunc(func(_ time.Duration, fn func()) controller.Timer {
			t := &heldTimer{f: fn}
			*timers = append(*timers, t)
			return t
		}))
	return New(context.Background(), ctrl, ""), ctrl, cb
}

func key(s string) tea.KeyMsg {
	switch s {
	case "ctrl+f":
		return tea.KeyMsg{Type: tea.KeyCtrlF}
	case "ctrl+t":
		return tea.KeyMsg{Type: tea.KeyCtrlT}
	case "ctrl+y":
		return tea.KeyMsg{Type: tea.KeyCtrlY}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// drain runs cmd and every command batched inside it, feeding the resulting
// messages back into the model. Spinner ticks are not followed.
func drain(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	if cmd == nil {
		return
	}
	switch msg := cmd().(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			drain(t, m, c)
		}
	case nil:
	default:
		_, _ = m.Update(msg)
	}
}

func TestModel_TypingUpdatesController(t *testing.T) {
	var timers []*heldTimer
	m, ctrl, _ := newTestModel(&stubFormatter{}, &timers)

	_, _ = m.Update(key("const x=1"))
	assert.Equal(t, "const x=1", ctrl.Snapshot().Input)
}

func TestModel_ToggleLanguage(t *testing.T) {
	var timers []*heldTimer
	m, ctrl, _ := newTestModel(&stubFormatter{}, &timers)
	require.Equal(t, client.LanguageTypeScript, ctrl.Snapshot().Language)

	_, _ = m.Update(key("ctrl+t"))
	assert.Equal(t, client.LanguageJavaScript, ctrl.Snapshot().Language)
	assert.Empty(t, ctrl.Snapshot().Input)
}

func TestModel_FormatAndCopy(t *testing.T) {
	var timers []*heldTimer
	f := &stubFormatter{output: "const x = 1;\n"}
	m, ctrl, cb := newTestModel(f, &timers)
	_, _ = m.Update(key("const x=1"))

	_, cmd := m.Update(key("ctrl+f"))
	require.NotNil(t, cmd)
	assert.Equal(t, controller.StateFormatting, ctrl.Snapshot().State)
	assert.Contains(t, m.View(), "Crafting magic...")

	_, again := m.Update(key("ctrl+f"))
	assert.Nil(t, again)

	drain(t, m, cmd)
	assert.Equal(t, 1, f.callCount())
	assert.Equal(t, controller.StateSuccess, ctrl.Snapshot().State)
	view := m.View()
	assert.Contains(t, view, "ctrl+y copy")
	assert.NotContains(t, view, copiedLabel)

	_, _ = m.Update(key("ctrl+y"))
	assert.Equal(t, "const x = 1;\n", cb.text)
	assert.Contains(t, m.View(), copiedLabel)

	require.Len(t, timers, 1)
	timers[0].f()
	_, _ = m.Update(SnapshotMsg(ctrl.Snapshot()))
	assert.NotContains(t, m.View(), copiedLabel)
}

func TestModel_FormatFailure(t *testing.T) {
	var timers []*heldTimer
	f := &stubFormatter{err: &client.FormatError{Kind: client.KindFormatFailure, Message: "Failed to format code. Check if your syntax is correct."}}
	m, _, _ := newTestModel(f, &timers)
	_, _ = m.Update(key("const = ;"))

	_, cmd := m.Update(key("ctrl+f"))
	drain(t, m, cmd)

	assert.Contains(t, m.View(), "Formatting failed: Failed to format code. Check if your syntax is correct.")
}

func TestModel_CopyBeforeSuccess(t *testing.T) {
	var timers []*heldTimer
	m, _, cb := newTestModel(&stubFormatter{}, &timers)

	_, _ = m.Update(key("ctrl+y"))
	assert.Empty(t, cb.text)
	assert.Contains(t, m.View(), controller.ErrNothingToCopy.Error())
}

func TestModel_EmptyTriggerSendsNothing(t *testing.T) {
	var timers []*heldTimer
	f := &stubFormatter{}
	m, ctrl, _ := newTestModel(f, &timers)

	_, cmd := m.Update(key("ctrl+f"))
	assert.Nil(t, cmd)
	assert.Equal(t, 0, f.callCount())
	assert.Equal(t, controller.StateIdle, ctrl.Snapshot().State)
}

func TestModel_Quit(t *testing.T) {
	var timers []*heldTimer
	m, _, _ := newTestModel(&stubFormatter{}, &timers)

	_, cmd := m.Update(key("esc"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.Equal(t, "hello w...", truncate("hello world!", 10))
	assert.Equal(t, "he", truncate("hello", 2))
	assert.Equal(t, "hello", truncate("hello", 0))
}
