package registry

import (
	"context"
	"errors"
	"testing"

	"github.com/veltec-mfg/scanintakego/internal/ledger"
)

// fakePalletService is an in-memory stand-in for the remote ledger.
type fakePalletService struct {
	pallets   map[string][]ledger.Pallet
	nextID    int64
	listErr   error
	deleteErr error
}

func newFakeService() *fakePalletService {
	return &fakePalletService{pallets: map[string][]ledger.Pallet{}, nextID: 1}
}

func (f *fakePalletService) ListPallets(_ context.Context, jobNumber string) ([]ledger.Pallet, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]ledger.Pallet(nil), f.pallets[jobNumber]...), nil
}

func (f *fakePalletService) CreatePallet(_ context.Context, jobNumber, name string) (*ledger.Pallet, error) {
	p := ledger.Pallet{ID: f.nextID, JobNumber: jobNumber, Name: name}
	f.nextID++
	if p.Name == "" {
		p.Name = "P1"
	}
	f.pallets[jobNumber] = append(f.pallets[jobNumber], p)
	return &p, nil
}

func (f *fakePalletService) RenamePallet(_ context.Context, palletID int64, name string) (*ledger.Pallet, error) {
	for job, list := range f.pallets {
		for i := range list {
			if list[i].ID == palletID {
				f.pallets[job][i].Name = name
				p := f.pallets[job][i]
				return &p, nil
			}
		}
	}
	return nil, &ledger.APIError{Status: 404, Message: "pallet not found"}
}

func (f *fakePalletService) DeletePallet(_ context.Context, palletID int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for job, list := range f.pallets {
		for i := range list {
			if list[i].ID == palletID {
				f.pallets[job] = append(list[:i], list[i+1:]...)
				return nil
			}
		}
	}
	return &ledger.APIError{Status: 404, Message: "pallet not found"}
}

func (f *fakePalletService) seed(jobNumber string, locked ...bool) []int64 {
	var ids []int64
	for _, l := range locked {
		p := ledger.Pallet{ID: f.nextID, JobNumber: jobNumber, HasPackagingBeenGenerated: l}
		f.nextID++
		f.pallets[jobNumber] = append(f.pallets[jobNumber], p)
		ids = append(ids, p.ID)
	}
	return ids
}

func TestRefreshSelectsFirstUnlockedPallet(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", true, false, false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	active := r.Active()
	if active == nil || active.ID != ids[1] {
		t.Fatalf("expected first unlocked pallet %d active, got %+v", ids[1], active)
	}
}

func TestRefreshFallsBackToFirstPalletWhenAllLocked(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", true, true)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	active := r.Active()
	if active == nil || active.ID != ids[0] {
		t.Fatalf("expected fallback to first pallet %d, got %+v", ids[0], active)
	}
	if !r.ActiveLocked() {
		t.Error("expected active pallet to report locked")
	}
}

func TestRefreshKeepsExistingActiveSelection(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", false, false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	r.SetActive(ids[1])

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("second refresh failed: %v", err)
	}
	if active := r.Active(); active == nil || active.ID != ids[1] {
		t.Fatalf("expected operator selection %d to survive refresh, got %+v", ids[1], active)
	}
}

func TestSetActiveUnknownIDIsNoOp(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	r.SetActive(9999)
	if active := r.Active(); active == nil || active.ID != ids[0] {
		t.Fatalf("expected active pallet unchanged, got %+v", active)
	}
}

func TestSwitchJobClearsActiveUntilRefresh(t *testing.T) {
	svc := newFakeService()
	svc.seed("40778", false)
	svc.seed("99999", false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	r.SwitchJob("99999")
	if r.Active() != nil {
		t.Fatal("expected no active pallet right after job switch")
	}
	if !r.ActiveLocked() {
		t.Error("missing active pallet must report locked")
	}

	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if r.Active() == nil {
		t.Fatal("expected active pallet after refresh of new context")
	}
}

func TestNoActivePalletReportsLocked(t *testing.T) {
	r := New(newFakeService())
	r.SwitchJob("40778")
	if !r.ActiveLocked() {
		t.Error("empty registry must report locked")
	}
}

func TestCreateActivatesNewPallet(t *testing.T) {
	svc := newFakeService()
	svc.seed("40778", false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	created, err := r.Create(context.Background(), "")
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if active := r.Active(); active == nil || active.ID != created.ID {
		t.Fatalf("expected created pallet %d active, got %+v", created.ID, active)
	}
}

func TestDeleteNonEmptySurfacesServerError(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", false)
	svc.deleteErr = &ledger.APIError{Status: 409, Message: "cannot delete a pallet that is not empty"}

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	err := r.Delete(context.Background(), ids[0])
	var apiErr *ledger.APIError
	if !errors.As(err, &apiErr) || apiErr.Status != 409 {
		t.Fatalf("expected 409 API error, got %v", err)
	}
	// Pallet stays in the local list until the server confirms deletion.
	if len(r.Pallets()) != 1 {
		t.Errorf("expected pallet to remain locally, got %v", r.Pallets())
	}
}

func TestDeleteActivePalletReselects(t *testing.T) {
	svc := newFakeService()
	ids := svc.seed("40778", false, false)

	r := New(svc)
	r.SwitchJob("40778")
	if err := r.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	r.SetActive(ids[0])

	if err := r.Delete(context.Background(), ids[0]); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if active := r.Active(); active == nil || active.ID != ids[1] {
		t.Fatalf("expected remaining pallet %d active, got %+v", ids[1], active)
	}
}
