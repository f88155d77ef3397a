package capture

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultQuietInterval is how long the buffer may sit idle before a burst
// containing a separator is assumed to be a scanner read whose trailing
// newline was swallowed.
const DefaultQuietInterval = 50 * time.Millisecond

// KeyEvent is one key press from the injected input source. The source is
// responsible for focus bookkeeping: InTextInput reports whether a visible
// text field has focus, OwnInput whether that field is the capture
// component's own hidden input.
type KeyEvent struct {
	Key         string
	InTextInput bool
	OwnInput    bool
}

// EnterKey is the explicit end-of-input key.
const EnterKey = "Enter"

// Capture frames a raw key-event stream into complete barcode tokens. It
// owns a single buffer and a single pending timer; both reset atomically
// when a token is emitted, so two scans can never interleave mid-token.
type Capture struct {
	mu    sync.Mutex
	buf   strings.Builder
	timer *time.Timer

	quiet time.Duration
	emit  func(token string)
}

// New creates a Capture that calls emit with each completed token. The
// emit callback may be invoked from the debounce timer's goroutine.
func New(quiet time.Duration, emit func(token string)) *Capture {
	if quiet <= 0 {
		quiet = DefaultQuietInterval
	}
	return &Capture{quiet: quiet, emit: emit}
}

// OnKey feeds one key event into the framing buffer.
func (c *Capture) OnKey(ev KeyEvent) {
	// A foreign text field has focus: the operator is typing somewhere
	// else, do not swallow their keystrokes.
	if ev.InTextInput && !ev.OwnInput {
		return
	}

	c.mu.Lock()

	if ev.Key == EnterKey {
		token := c.takeLocked()
		c.mu.Unlock()
		if token != "" {
			c.emit(token)
		}
		return
	}

	// Only printable single characters extend the buffer; control and
	// navigation keys are ignored.
	if !isPrintable(ev.Key) {
		c.mu.Unlock()
		return
	}
	c.buf.WriteString(ev.Key)

	// Single-owner timer: arming always cancels the previous one.
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.quiet, c.onQuiet)
	c.mu.Unlock()
}

// onQuiet fires when no key has arrived within the quiet interval.
func (c *Capture) onQuiet() {
	c.mu.Lock()
	var token string
	// A burst without a separator is manual typing, not a scanner read.
	if strings.Contains(c.buf.String(), "-") {
		token = c.takeLocked()
	}
	c.mu.Unlock()

	if token != "" {
		c.emit(token)
	}
}

// Reset discards any partial buffer, e.g. when the kiosk leaves scan mode.
func (c *Capture) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.takeLocked()
}

// takeLocked drains the buffer and disarms the timer in one step.
func (c *Capture) takeLocked() string {
	token := strings.TrimSpace(c.buf.String())
	c.buf.Reset()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	return token
}

func isPrintable(key string) bool {
	r, size := utf8.DecodeRuneInString(key)
	if size == 0 || size != len(key) {
		return false
	}
	return r >= ' ' && r != utf8.RuneError
}
