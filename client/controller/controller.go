// Package controller implements the client side of a format interaction as an
// explicit state machine.
package controller

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/pkg/errors"

	"github.com/hrygo/codepolish/client"
)

// DefaultCopyAckDuration is how long the copied acknowledgment stays set.
const DefaultCopyAckDuration = 2 * time.Second

// ErrorPrefix precedes every displayed error message.
const ErrorPrefix = "Formatting failed: "

// ErrNothingToCopy is returned by Copy outside the Success state.
var ErrNothingToCopy = errors.New("nothing to copy")

// State is the controller's main state.
type State int

const (
	StateIdle State = iota
	StateFormatting
	StateSuccess
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFormatting:
		return "Formatting"
	case StateSuccess:
		return "Success"
	case StateFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// Formatter sends one format request. *client.Client satisfies it.
type Formatter interface {
	Format(ctx context.Context, req client.FormatRequest, requestID string) (string, error)
}

// Clipboard receives copied results.
type Clipboard interface {
	WriteAll(text string) error
}

// Timer is the part of *time.Timer the controller uses.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d, like time.AfterFunc.
type AfterFunc func(d time.Duration, f func()) Timer

// Request is an issued format request together with its interaction id.
type Request struct {
	ID string
	client.FormatRequest
}

// Snapshot is a consistent copy of the controller state.
type Snapshot struct {
	State         State
	Input         string
	Language      client.Language
	Result        string
	Err           *client.FormatError
	Copied        bool
	InteractionID string
}

// ErrorText is the message shown to the user in the Failed state.
func (s Snapshot) ErrorText() string {
	if s.Err == nil {
		return ""
	}
	return ErrorPrefix + s.Err.Message
}

// CanFormat reports whether a trigger would issue a request.
func (s Snapshot) CanFormat() bool {
	return s.State != StateFormatting && strings.TrimSpace(s.Input) != ""
}

// Controller owns the input, the language selection, the result and the error
// of one interaction at a time. It is safe for concurrent use.
type Controller struct {
	formatter       Formatter
	clipboard       Clipboard
	afterFunc       AfterFunc
	newID           func() string
	copyAckDuration time.Duration

	mu            sync.Mutex
	observer      func(Snapshot)
	state         State
	input         string
	language      client.Language
	result        string
	err           *client.FormatError
	copied        bool
	copyTimer     Timer
	copyGen       uint64
	interactionID string
}

// Option configures a Controller.
type Option func(*Controller)

// WithClipboard sets the clipboard used by Copy.
func WithClipboard(cb Clipboard) Option {
	return func(c *Controller) { c.clipboard = cb }
}

// WithAfterFunc replaces time.AfterFunc for the copy acknowledgment.
func WithAfterFunc(f AfterFunc) Option {
	return func(c *Controller) { c.afterFunc = f }
}

// WithIDGenerator replaces the interaction id generator.
func WithIDGenerator(f func() string) Option {
	return func(c *Controller) { c.newID = f }
}

// WithCopyAckDuration overrides DefaultCopyAckDuration.
func WithCopyAckDuration(d time.Duration) Option {
	return func(c *Controller) { c.copyAckDuration = d }
}

// WithLanguage sets the initial language.
func WithLanguage(lang client.Language) Option {
	return func(c *Controller) { c.language = lang }
}

// WithObserver sets the callback receiving every snapshot change.
func WithObserver(f func(Snapshot)) Option {
	return func(c *Controller) { c.observer = f }
}

// New returns an Idle controller using formatter for requests.
func New(formatter Formatter, opts ...Option) *Controller {
	c := &Controller{
		formatter: formatter,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
		newID:           shortuuid.New,
		copyAckDuration: DefaultCopyAckDuration,
		state:           StateIdle,
		language:        client.LanguageTypeScript,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetObserver replaces the observer. Observers run outside the controller
// lock and may call back into the controller.
func (c *Controller) SetObserver(f func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observer = f
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// SetInput replaces the editable input. It never changes the state.
func (c *Controller) SetInput(input string) {
	c.mu.Lock()
	if c.input == input {
		c.mu.Unlock()
		return
	}
	c.input = input
	c.unlockAndNotify()
}

// SetLanguage changes the language used by the next trigger. The current
// result and error are kept.
func (c *Controller) SetLanguage(lang client.Language) {
	c.mu.Lock()
	if c.language == lang {
		c.mu.Unlock()
		return
	}
	c.language = lang
	c.unlockAndNotify()
}

// Begin handles a format trigger. It returns the request to send and true when
// the controller entered Formatting. A trigger while Formatting is ignored. A
// trigger on blank input clears result and error and returns to Idle.
func (c *Controller) Begin() (Request, bool) {
	c.mu.Lock()
	if c.state == StateFormatting {
		c.mu.Unlock()
		return Request{}, false
	}

	c.clearOutcomeLocked()
	if strings.TrimSpace(c.input) == "" {
		c.state = StateIdle
		c.interactionID = ""
		c.unlockAndNotify()
		return Request{}, false
	}

	c.state = StateFormatting
	c.interactionID = c.newID()
	req := Request{
		ID:            c.interactionID,
		FormatRequest: client.FormatRequest{Code: c.input, Language: c.language},
	}
	c.unlockAndNotify()
	return req, true
}

// Complete resolves the interaction id with either a result or an error.
// Resolutions for anything but the current in-flight interaction are dropped.
func (c *Controller) Complete(id string, formatted string, err error) {
	c.mu.Lock()
	if c.state != StateFormatting || id != c.interactionID {
		c.mu.Unlock()
		return
	}
	if err != nil {
		c.state = StateFailed
		c.result = ""
		c.err = client.AsFormatError(err)
	} else {
		c.state = StateSuccess
		c.result = formatted
		c.err = nil
	}
	c.unlockAndNotify()
}

// Execute sends req and resolves it. It blocks for the whole request.
func (c *Controller) Execute(ctx context.Context, req Request) {
	formatted, err := c.formatter.Format(ctx, req.FormatRequest, req.ID)
	c.Complete(req.ID, formatted, err)
}

// Format triggers and resolves one interaction synchronously. It reports
// whether a request was sent.
func (c *Controller) Format(ctx context.Context) bool {
	req, ok := c.Begin()
	if !ok {
		return false
	}
	c.Execute(ctx, req)
	return true
}

// Copy writes the result to the clipboard and sets the copied flag, which
// resets after the acknowledgment duration. Only valid in Success. The
// clipboard is written without holding the controller lock.
func (c *Controller) Copy() error {
	c.mu.Lock()
	if c.state != StateSuccess {
		c.mu.Unlock()
		return ErrNothingToCopy
	}
	if c.clipboard == nil {
		c.mu.Unlock()
		return errors.New("no clipboard configured")
	}
	cb, result, id := c.clipboard, c.result, c.interactionID
	c.mu.Unlock()

	if err := cb.WriteAll(result); err != nil {
		return errors.Wrap(err, "failed to copy result")
	}

	c.mu.Lock()
	// A new trigger while the clipboard was busy replaced the result.
	if c.state != StateSuccess || c.interactionID != id {
		c.mu.Unlock()
		return nil
	}
	c.stopCopyTimerLocked()
	c.copied = true
	gen := c.copyGen
	c.copyTimer = c.afterFunc(c.copyAckDuration, func() {
		c.resetCopied(gen)
	})
	c.unlockAndNotify()
	return nil
}

func (c *Controller) resetCopied(gen uint64) {
	c.mu.Lock()
	if gen != c.copyGen || !c.copied {
		c.mu.Unlock()
		return
	}
	c.copied = false
	c.copyTimer = nil
	c.unlockAndNotify()
}

func (c *Controller) clearOutcomeLocked() {
	c.result = ""
	c.err = nil
	c.copied = false
	c.stopCopyTimerLocked()
}

// stopCopyTimerLocked also invalidates a reset that is already running.
func (c *Controller) stopCopyTimerLocked() {
	if c.copyTimer != nil {
		c.copyTimer.Stop()
		c.copyTimer = nil
	}
	c.copyGen++
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		State:         c.state,
		Input:         c.input,
		Language:      c.language,
		Result:        c.result,
		Err:           c.err,
		Copied:        c.copied,
		InteractionID: c.interactionID,
	}
}

// unlockAndNotify releases the lock and then publishes the new snapshot.
func (c *Controller) unlockAndNotify() {
	snapshot := c.snapshotLocked()
	observer := c.observer
	c.mu.Unlock()
	if observer != nil {
		observer(snapshot)
	}
}
