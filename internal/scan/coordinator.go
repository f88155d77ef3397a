package scan

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/veltec-mfg/scanintakego/internal/barcode"
	"github.com/veltec-mfg/scanintakego/internal/ledger"
	"github.com/veltec-mfg/scanintakego/internal/registry"
)

// State is the coordinator's position in the submission machine.
type State string

const (
	StateIdle        State = "IDLE"
	StateValidating  State = "VALIDATING"
	StateRedirecting State = "REDIRECTING"
	StateSubmitting  State = "SUBMITTING"
	StateCommitted   State = "COMMITTED"
	StateRejected    State = "REJECTED"
	StateFailed      State = "FAILED"
)

// Outcome is the terminal result of one token.
type Outcome string

const (
	OutcomeCommitted  Outcome = "committed"
	OutcomeRejected   Outcome = "rejected"
	OutcomeFailed     Outcome = "failed"
	OutcomeRedirected Outcome = "redirected"
	// OutcomeDropped means a submission was already in flight. Dropped
	// tokens are not queued; the operator rescans.
	OutcomeDropped Outcome = "dropped"
)

// Result is what one processed token came to.
type Result struct {
	Outcome Outcome
	Message string
	Parsed  *barcode.ParsedScan
}

// ScanService is the slice of the ledger client the coordinator submits
// and deletes through.
type ScanService interface {
	SubmitScan(ctx context.Context, req ledger.SubmitScanRequest) (*ledger.SubmitScanResponse, error)
	DeleteScan(ctx context.Context, qrCode string, palletID int64) error
}

// Coordinator drives a token through validate, lock check, remote submit
// and registry refresh. At most one submission is in flight; tokens
// arriving meanwhile are dropped, not queued. That trade-off is deliberate
// for a single-operator kiosk: a dropped duplicate beats a double submit.
type Coordinator struct {
	svc      ScanService
	reg      *registry.Registry
	operator string

	// settle keeps the machine out of IDLE for a short window after a
	// terminal state so the operator sees the outcome before the next
	// scan is accepted.
	settle  time.Duration
	timeout time.Duration

	// onRedirect is told the new job context after a cross-job scan.
	onRedirect func(jobNumber string)
	// confirm gates irreversible actions (scan deletion).
	confirm func(prompt string) bool

	session *SessionLedger

	mu      sync.Mutex
	state   State
	busy    bool
	dropped int
}

// Options configures a Coordinator.
type Options struct {
	Operator    string
	SettleDelay time.Duration
	Timeout     time.Duration
	OnRedirect  func(jobNumber string)
	// Confirm defaults to rejecting every irreversible action when nil.
	Confirm func(prompt string) bool
}

func NewCoordinator(svc ScanService, reg *registry.Registry, opts Options) *Coordinator {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Coordinator{
		svc:        svc,
		reg:        reg,
		operator:   opts.Operator,
		settle:     opts.SettleDelay,
		timeout:    opts.Timeout,
		onRedirect: opts.OnRedirect,
		confirm:    opts.Confirm,
		session:    NewSessionLedger(),
	}
}

// Session exposes the session ledger for display.
func (c *Coordinator) Session() *SessionLedger {
	return c.session
}

// State returns the machine's current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Dropped returns how many tokens arrived while a submission was in flight.
func (c *Coordinator) Dropped() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dropped
}

// Process runs one raw token through the machine and returns its terminal
// result. Safe to call from the capture timer goroutine.
func (c *Coordinator) Process(token string) Result {
	c.mu.Lock()
	if c.busy {
		c.dropped++
		c.mu.Unlock()
		return Result{Outcome: OutcomeDropped, Message: "scan in progress, please wait"}
	}
	c.busy = true
	c.setStateLocked(StateValidating)
	c.mu.Unlock()

	res := c.run(token)

	// Every terminal path releases the guard; a failed submit must never
	// leave the machine stuck out of IDLE.
	if c.settle > 0 {
		time.AfterFunc(c.settle, c.release)
	} else {
		c.release()
	}
	return res
}

func (c *Coordinator) release() {
	c.mu.Lock()
	c.busy = false
	c.state = StateIdle
	c.mu.Unlock()
}

func (c *Coordinator) setStateLocked(s State) {
	c.state = s
}

func (c *Coordinator) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

func (c *Coordinator) run(token string) Result {
	parsed, err := barcode.Parse(token)
	if err != nil {
		c.setState(StateRejected)
		return Result{Outcome: OutcomeRejected, Message: err.Error()}
	}

	if job := c.reg.JobNumber(); parsed.JobID != job {
		return c.redirect(parsed)
	}

	// Precondition checks happen before any network call.
	active := c.reg.Active()
	if active == nil {
		c.setState(StateFailed)
		return Result{Outcome: OutcomeFailed, Parsed: parsed,
			Message: "no pallet selected, create or select a pallet before scanning"}
	}
	if active.HasPackagingBeenGenerated {
		c.setState(StateFailed)
		return Result{Outcome: OutcomeFailed, Parsed: parsed,
			Message: fmt.Sprintf("pallet %s is locked, select or create another pallet", active.Name)}
	}

	c.setState(StateSubmitting)
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	resp, err := c.svc.SubmitScan(ctx, ledger.SubmitScanRequest{
		JobNumber: parsed.JobID,
		PartID:    parsed.PartID,
		QRCode:    parsed.RawCode,
		PalletID:  active.ID,
		ScannedBy: c.operator,
	})
	if err != nil {
		c.setState(StateFailed)
		msg := "connection to the ledger failed, please rescan"
		if ledger.IsAPIError(err) {
			// Business rejection: the server's reason goes to the
			// operator verbatim.
			msg = err.Error()
		}
		c.session.append(parsed.PartID, parsed.RawCode, msg, StatusError)
		return Result{Outcome: OutcomeFailed, Parsed: parsed, Message: msg}
	}

	message := resp.Message
	if message == "" {
		message = "scan recorded"
	}
	c.session.append(parsed.PartID, parsed.RawCode, message, StatusSuccess)

	// Counts come from the server, never from local increments.
	if err := c.reg.Refresh(ctx); err != nil {
		log.Printf("⚠️ Registry refresh after scan failed: %v", err)
	}

	c.setState(StateCommitted)
	return Result{Outcome: OutcomeCommitted, Parsed: parsed, Message: message}
}

// redirect handles a scan that belongs to another job. Policy: switch the
// job context, drop the pending scan and ask the operator to rescan in the
// new context. Auto-resubmitting would commit against a pallet the operator
// never chose there.
func (c *Coordinator) redirect(parsed *barcode.ParsedScan) Result {
	c.setState(StateRedirecting)

	c.reg.SwitchJob(parsed.JobID)
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()
	if err := c.reg.Refresh(ctx); err != nil {
		log.Printf("⚠️ Pallet refresh for job %s failed: %v", parsed.JobID, err)
	}

	if c.onRedirect != nil {
		c.onRedirect(parsed.JobID)
	}
	return Result{Outcome: OutcomeRedirected, Parsed: parsed,
		Message: fmt.Sprintf("switched to job %s, please scan the label again", parsed.JobID)}
}

// DeleteScan removes a committed scan after explicit confirmation, then
// drops the matching session entries and refreshes the registry.
func (c *Coordinator) DeleteScan(qrCode string, palletID int64) error {
	if c.confirm == nil || !c.confirm(fmt.Sprintf("Delete scan %s?", qrCode)) {
		return fmt.Errorf("deletion not confirmed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	if err := c.svc.DeleteScan(ctx, qrCode, palletID); err != nil {
		return err
	}
	c.session.Remove(qrCode)
	if err := c.reg.Refresh(ctx); err != nil {
		log.Printf("⚠️ Registry refresh after delete failed: %v", err)
	}
	return nil
}
