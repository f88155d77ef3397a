package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	qrcode "github.com/skip2/go-qrcode"
	"github.com/veltec-mfg/scanintakego/internal/models"
	"github.com/veltec-mfg/scanintakego/internal/websocket"
	"gorm.io/gorm"
)

// CreatePalletRequest creates one pallet for a job; the name is
// server-generated when omitted.
type CreatePalletRequest struct {
	JobNumber string `json:"jobNumber"`
	Name      string `json:"name"`
}

// RenamePalletRequest changes a pallet's display name
type RenamePalletRequest struct {
	Name string `json:"name"`
}

// listPallets returns the pallets of one job with item counts recomputed
// from scan records. The count is never maintained as a running total.
func (r *Router) listPallets(w http.ResponseWriter, req *http.Request) {
	jobNumber := mux.Vars(req)["jobNumber"]

	var pallets []models.Pallet
	if err := r.db.Where("job_number = ?", jobNumber).Order("id").Find(&pallets).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	type countRow struct {
		PalletID int64
		Count    int
	}
	var counts []countRow
	r.db.Model(&models.ScanRecord{}).
		Select("pallet_id, count(*) as count").
		Where("job_number = ?", jobNumber).
		Group("pallet_id").
		Scan(&counts)

	byPallet := make(map[int64]int, len(counts))
	for _, c := range counts {
		byPallet[c.PalletID] = c.Count
	}
	for i := range pallets {
		pallets[i].ItemCount = byPallet[pallets[i].ID]
	}

	respondJSON(w, http.StatusOK, pallets)
}

// createPallet adds a pallet to a job
func (r *Router) createPallet(w http.ResponseWriter, req *http.Request) {
	var body CreatePalletRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if body.JobNumber == "" {
		respondError(w, http.StatusBadRequest, "jobNumber is required")
		return
	}

	pallet := models.Pallet{
		JobNumber: body.JobNumber,
		Name:      body.Name,
	}
	if pallet.Name == "" {
		var existing int64
		r.db.Model(&models.Pallet{}).Where("job_number = ?", body.JobNumber).Count(&existing)
		pallet.Name = fmt.Sprintf("P%d", existing+1)
	}

	if err := r.db.Create(&pallet).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to create pallet")
		return
	}

	r.hub.Broadcast(websocket.EventPalletCreated, pallet.JobNumber, pallet)
	respondJSON(w, http.StatusOK, pallet)
}

// renamePallet updates a pallet's name
func (r *Router) renamePallet(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	var body RenamePalletRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.Name == "" {
		respondError(w, http.StatusBadRequest, "A non-empty name is required")
		return
	}

	pallet.Name = body.Name
	if err := r.db.Save(&pallet).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to rename pallet")
		return
	}

	r.hub.Broadcast(websocket.EventPalletRenamed, pallet.JobNumber, pallet)
	respondJSON(w, http.StatusOK, pallet)
}

// deletePallet removes an empty pallet; a pallet holding scans is refused
func (r *Router) deletePallet(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	var contents int64
	r.db.Model(&models.ScanRecord{}).Where("pallet_id = ?", pallet.ID).Count(&contents)
	if contents > 0 {
		respondError(w, http.StatusConflict,
			fmt.Sprintf("Pallet %s still holds %d scans and cannot be deleted", pallet.Name, contents))
		return
	}

	if err := r.db.Delete(&pallet).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete pallet")
		return
	}

	r.hub.Broadcast(websocket.EventPalletDeleted, pallet.JobNumber, pallet)
	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Pallet %s deleted", pallet.Name),
	})
}

// palletContents lists the scan records assigned to one pallet
func (r *Router) palletContents(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	var records []models.ScanRecord
	if err := r.db.Where("pallet_id = ?", pallet.ID).Order("scan_date").Find(&records).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}
	respondJSON(w, http.StatusOK, records)
}

// generatePackaging finalizes a pallet: the packaging system produces the
// sheet, then the pallet locks against further scans.
func (r *Router) generatePackaging(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	if pallet.HasPackagingBeenGenerated {
		respondError(w, http.StatusConflict,
			fmt.Sprintf("Packaging for pallet %s has already been generated", pallet.Name))
		return
	}

	if err := r.packaging.Generate(pallet.JobNumber, pallet.ID); err != nil {
		respondError(w, http.StatusBadGateway, fmt.Sprintf("Packaging generation failed: %v", err))
		return
	}

	pallet.HasPackagingBeenGenerated = true
	if err := r.db.Save(&pallet).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to lock pallet")
		return
	}

	r.hub.Broadcast(websocket.EventPalletLocked, pallet.JobNumber, pallet)
	respondJSON(w, http.StatusOK, pallet)
}

// unlockPallet clears the packaging lock. Reached only through the
// supervisor role gate; a redone packaging sheet is expected afterwards.
func (r *Router) unlockPallet(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	if !pallet.HasPackagingBeenGenerated {
		respondError(w, http.StatusConflict, fmt.Sprintf("Pallet %s is not locked", pallet.Name))
		return
	}

	pallet.HasPackagingBeenGenerated = false
	if err := r.db.Save(&pallet).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to unlock pallet")
		return
	}

	r.hub.Broadcast(websocket.EventPalletUnlocked, pallet.JobNumber, pallet)
	respondJSON(w, http.StatusOK, pallet)
}

// palletLabel renders a QR label for physically marking the pallet.
func (r *Router) palletLabel(w http.ResponseWriter, req *http.Request) {
	pallet, ok := r.palletFromPath(w, req)
	if !ok {
		return
	}

	payload := fmt.Sprintf("PAL-%s-%d", pallet.JobNumber, pallet.ID)
	png, err := qrcode.Encode(payload, qrcode.Medium, 256)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to generate label")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

// palletFromPath resolves the {id} path variable to a pallet, writing the
// error response itself when resolution fails.
func (r *Router) palletFromPath(w http.ResponseWriter, req *http.Request) (models.Pallet, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid pallet id")
		return models.Pallet{}, false
	}

	var pallet models.Pallet
	if err := r.db.First(&pallet, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(w, http.StatusNotFound, "Pallet not found")
		} else {
			respondError(w, http.StatusInternalServerError, "Database error")
		}
		return models.Pallet{}, false
	}
	return pallet, true
}
