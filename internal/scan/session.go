package scan

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// EntryStatus marks a session ledger entry as a committed or failed scan.
type EntryStatus string

const (
	StatusSuccess EntryStatus = "success"
	StatusError   EntryStatus = "error"
)

// Entry is one scan attempt shown to the operator. The session ledger is a
// UI-facing log only; progress and lock state always come from the registry's
// server-sourced data, never from these entries.
type Entry struct {
	ID        string      `json:"id"`
	PartID    string      `json:"partId"`
	QRCode    string      `json:"qrCode"`
	Status    EntryStatus `json:"status"`
	Message   string      `json:"message"`
	Timestamp time.Time   `json:"timestamp"`
}

// SessionLedger is the in-memory list of this session's scan attempts,
// newest first. It may be cleared or rebuilt freely.
type SessionLedger struct {
	mu      sync.Mutex
	entries []Entry
}

func NewSessionLedger() *SessionLedger {
	return &SessionLedger{}
}

func (l *SessionLedger) append(partID, qrCode, message string, status EntryStatus) Entry {
	entry := Entry{
		ID:        uuid.NewString(),
		PartID:    partID,
		QRCode:    qrCode,
		Status:    status,
		Message:   message,
		Timestamp: time.Now(),
	}
	l.mu.Lock()
	l.entries = append([]Entry{entry}, l.entries...)
	l.mu.Unlock()
	return entry
}

// Remove drops entries matching a QR code, e.g. after a scan deletion.
func (l *SessionLedger) Remove(qrCode string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	kept := l.entries[:0]
	for _, e := range l.entries {
		if e.QRCode != qrCode {
			kept = append(kept, e)
		}
	}
	l.entries = kept
}

// Entries returns a snapshot, newest first.
func (l *SessionLedger) Entries() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Entry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Clear empties the ledger. Server state is unaffected.
func (l *SessionLedger) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = nil
}
