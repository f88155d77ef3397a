package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/veltec-mfg/scanintakego/internal/ledger"
)

// PalletService is the slice of the ledger client the registry depends on.
type PalletService interface {
	ListPallets(ctx context.Context, jobNumber string) ([]ledger.Pallet, error)
	CreatePallet(ctx context.Context, jobNumber, name string) (*ledger.Pallet, error)
	RenamePallet(ctx context.Context, palletID int64, name string) (*ledger.Pallet, error)
	DeletePallet(ctx context.Context, palletID int64) error
}

// Registry owns the server-sourced pallet list for the current job context
// and the single active selection used for new scans. Counts and lock state
// are never derived locally; every mutation is followed by a refresh so the
// local view converges with the ledger within one round trip.
type Registry struct {
	svc PalletService

	mu        sync.Mutex
	jobNumber string
	pallets   []ledger.Pallet
	activeID  int64 // 0 means no active pallet
}

func New(svc PalletService) *Registry {
	return &Registry{svc: svc}
}

// SwitchJob changes the job context. The active selection is cleared until
// the first refresh of the new context completes.
func (r *Registry) SwitchJob(jobNumber string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobNumber == jobNumber {
		return
	}
	r.jobNumber = jobNumber
	r.pallets = nil
	r.activeID = 0
}

// JobNumber returns the current job context.
func (r *Registry) JobNumber() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.jobNumber
}

// Refresh pulls the pallet list for the current job from the ledger.
// Idempotent; safe after any mutation. If the previously active pallet is
// gone or was never chosen, the first unlocked pallet becomes active,
// falling back to the first pallet, else none.
func (r *Registry) Refresh(ctx context.Context) error {
	r.mu.Lock()
	job := r.jobNumber
	r.mu.Unlock()
	if job == "" {
		return fmt.Errorf("no job context selected")
	}

	pallets, err := r.svc.ListPallets(ctx, job)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.jobNumber != job {
		// Context switched while the fetch was in flight; stale result.
		return nil
	}
	r.pallets = pallets

	if r.findLocked(r.activeID) == nil {
		r.activeID = 0
		for i := range pallets {
			if !pallets[i].HasPackagingBeenGenerated {
				r.activeID = pallets[i].ID
				break
			}
		}
		if r.activeID == 0 && len(pallets) > 0 {
			r.activeID = pallets[0].ID
		}
	}
	return nil
}

// SetActive is the operator override. Unknown ids are a no-op.
func (r *Registry) SetActive(palletID int64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findLocked(palletID) != nil {
		r.activeID = palletID
	}
}

// Active returns a copy of the active pallet, or nil if none is selected.
func (r *Registry) Active() *ledger.Pallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p := r.findLocked(r.activeID); p != nil {
		cp := *p
		return &cp
	}
	return nil
}

// ActiveLocked reports whether the active pallet refuses new scans. A
// missing active pallet counts as locked: there is nothing to scan into.
func (r *Registry) ActiveLocked() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	p := r.findLocked(r.activeID)
	return p == nil || p.HasPackagingBeenGenerated
}

// Pallets returns a snapshot of the current pallet list.
func (r *Registry) Pallets() []ledger.Pallet {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]ledger.Pallet, len(r.pallets))
	copy(out, r.pallets)
	return out
}

// Create adds a pallet to the current job and makes it the active one.
func (r *Registry) Create(ctx context.Context, name string) (*ledger.Pallet, error) {
	r.mu.Lock()
	job := r.jobNumber
	r.mu.Unlock()
	if job == "" {
		return nil, fmt.Errorf("no job context selected")
	}

	pallet, err := r.svc.CreatePallet(ctx, job, name)
	if err != nil {
		return nil, err
	}
	if err := r.Refresh(ctx); err != nil {
		return nil, err
	}
	r.SetActive(pallet.ID)
	return pallet, nil
}

// Rename changes a pallet's name and refreshes.
func (r *Registry) Rename(ctx context.Context, palletID int64, name string) error {
	if _, err := r.svc.RenamePallet(ctx, palletID, name); err != nil {
		return err
	}
	return r.Refresh(ctx)
}

// Delete removes a pallet. The ledger refuses non-empty pallets; that error
// is surfaced, and the local list keeps the pallet until the server confirms.
func (r *Registry) Delete(ctx context.Context, palletID int64) error {
	if err := r.svc.DeletePallet(ctx, palletID); err != nil {
		return err
	}
	return r.Refresh(ctx)
}

func (r *Registry) findLocked(palletID int64) *ledger.Pallet {
	if palletID == 0 {
		return nil
	}
	for i := range r.pallets {
		if r.pallets[i].ID == palletID {
			return &r.pallets[i]
		}
	}
	return nil
}
