// Package clipboard copies text to the system clipboard, falling back to an
// OSC52 terminal escape sequence when no system clipboard is available.
package clipboard

import (
	"io"
	"log/slog"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/pkg/errors"
)

// Clipboard writes text to the system clipboard or to a terminal.
type Clipboard struct {
	terminal    io.Writer
	writeSystem func(string) error
}

// New returns a clipboard that falls back to writing OSC52 to terminal.
// A nil terminal disables the fallback.
func New(terminal io.Writer) *Clipboard {
	return &Clipboard{
		terminal:    terminal,
		writeSystem: clipboard.WriteAll,
	}
}

// WriteAll copies text.
func (c *Clipboard) WriteAll(text string) error {
	err := c.systemError()
	if err == nil {
		if err = c.writeSystem(text); err == nil {
			return nil
		}
	}
	if c.terminal == nil {
		return errors.Wrap(err, "failed to write system clipboard")
	}

	slog.Debug("system clipboard unavailable, using OSC52", "error", err)
	if _, err := osc52.New(text).WriteTo(c.terminal); err != nil {
		return errors.Wrap(err, "failed to write OSC52 sequence")
	}
	return nil
}

func (c *Clipboard) systemError() error {
	if clipboard.Unsupported {
		return errors.New("system clipboard unsupported")
	}
	return nil
}
