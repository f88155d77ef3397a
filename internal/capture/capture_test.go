package capture

import (
	"sync"
	"testing"
	"time"
)

type tokenSink struct {
	mu     sync.Mutex
	tokens []string
}

func (s *tokenSink) emit(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens = append(s.tokens, token)
}

func (s *tokenSink) all() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.tokens))
	copy(out, s.tokens)
	return out
}

func typeString(c *Capture, s string) {
	for _, r := range s {
		c.OnKey(KeyEvent{Key: string(r)})
	}
}

func TestEnterEmitsBufferedToken(t *testing.T) {
	sink := &tokenSink{}
	c := New(DefaultQuietInterval, sink.emit)

	typeString(c, "40778-WIDGET-05")
	c.OnKey(KeyEvent{Key: EnterKey})

	got := sink.all()
	if len(got) != 1 || got[0] != "40778-WIDGET-05" {
		t.Fatalf("expected one token %q, got %v", "40778-WIDGET-05", got)
	}
}

func TestEnterWithEmptyBufferEmitsNothing(t *testing.T) {
	sink := &tokenSink{}
	c := New(DefaultQuietInterval, sink.emit)

	c.OnKey(KeyEvent{Key: EnterKey})

	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected no tokens, got %v", got)
	}
}

func TestQuietIntervalEmitsTokenWithSeparator(t *testing.T) {
	sink := &tokenSink{}
	c := New(20*time.Millisecond, sink.emit)

	typeString(c, "40778-WIDGET-05")

	// No terminator: the quiet interval should flush exactly once.
	time.Sleep(100 * time.Millisecond)

	got := sink.all()
	if len(got) != 1 || got[0] != "40778-WIDGET-05" {
		t.Fatalf("expected one token %q, got %v", "40778-WIDGET-05", got)
	}
}

func TestQuietIntervalIgnoresManualTyping(t *testing.T) {
	sink := &tokenSink{}
	c := New(20*time.Millisecond, sink.emit)

	// No separator anywhere: looks like someone typing, not a scanner.
	typeString(c, "hello")
	time.Sleep(100 * time.Millisecond)

	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected no tokens for manual typing, got %v", got)
	}
}

func TestForeignInputFocusIsNotIntercepted(t *testing.T) {
	sink := &tokenSink{}
	c := New(20*time.Millisecond, sink.emit)

	for _, r := range "40778-WIDGET-05" {
		c.OnKey(KeyEvent{Key: string(r), InTextInput: true})
	}
	c.OnKey(KeyEvent{Key: EnterKey, InTextInput: true})
	time.Sleep(100 * time.Millisecond)

	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected no tokens while a foreign input is focused, got %v", got)
	}
}

func TestOwnInputFocusIsCaptured(t *testing.T) {
	sink := &tokenSink{}
	c := New(DefaultQuietInterval, sink.emit)

	for _, r := range "40778-WIDGET-05" {
		c.OnKey(KeyEvent{Key: string(r), InTextInput: true, OwnInput: true})
	}
	c.OnKey(KeyEvent{Key: EnterKey, InTextInput: true, OwnInput: true})

	got := sink.all()
	if len(got) != 1 || got[0] != "40778-WIDGET-05" {
		t.Fatalf("expected one token, got %v", got)
	}
}

func TestNonPrintableKeysIgnored(t *testing.T) {
	sink := &tokenSink{}
	c := New(DefaultQuietInterval, sink.emit)

	typeString(c, "40778")
	c.OnKey(KeyEvent{Key: "Shift"})
	c.OnKey(KeyEvent{Key: "ArrowDown"})
	c.OnKey(KeyEvent{Key: "Tab"})
	typeString(c, "-WIDGET-05")
	c.OnKey(KeyEvent{Key: EnterKey})

	got := sink.all()
	if len(got) != 1 || got[0] != "40778-WIDGET-05" {
		t.Fatalf("expected modifier keys to be ignored, got %v", got)
	}
}

func TestBufferResetsBetweenScans(t *testing.T) {
	sink := &tokenSink{}
	c := New(DefaultQuietInterval, sink.emit)

	typeString(c, "40778-A-1")
	c.OnKey(KeyEvent{Key: EnterKey})
	typeString(c, "40778-B-2")
	c.OnKey(KeyEvent{Key: EnterKey})

	got := sink.all()
	if len(got) != 2 || got[0] != "40778-A-1" || got[1] != "40778-B-2" {
		t.Fatalf("expected two clean tokens, got %v", got)
	}
}

func TestResetDiscardsPartialBuffer(t *testing.T) {
	sink := &tokenSink{}
	c := New(20*time.Millisecond, sink.emit)

	typeString(c, "40778-WID")
	c.Reset()
	time.Sleep(100 * time.Millisecond)

	if got := sink.all(); len(got) != 0 {
		t.Fatalf("expected reset to discard buffer, got %v", got)
	}
}
