package tui

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pkg/errors"

	"github.com/hrygo/codepolish/client/controller"
)

// Run starts the interactive front-end and blocks until the user quits.
// opts are applied after the defaults.
func Run(ctx context.Context, ctrl *controller.Controller, styleName string, output io.Writer, opts ...tea.ProgramOption) error {
	model := New(ctx, ctrl, styleName)
	options := append([]tea.ProgramOption{tea.WithOutput(output), tea.WithContext(ctx), tea.WithAltScreen()}, opts...)
	program := tea.NewProgram(model, options...)

	// Observers also fire from inside Update, on the event loop that drains
	// Send, so forwarding must not block.
	ctrl.SetObserver(func(s controller.Snapshot) {
		go program.Send(SnapshotMsg(s))
	})
	defer ctrl.SetObserver(nil)

	if _, err := program.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return errors.Wrap(err, "failed to run terminal ui")
	}
	return nil
}
