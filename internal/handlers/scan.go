package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/veltec-mfg/scanintakego/internal/models"
	"github.com/veltec-mfg/scanintakego/internal/websocket"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ScanRequest is the payload of one scan submission from a kiosk
type ScanRequest struct {
	JobNumber string `json:"jobNumber"`
	PartID    string `json:"partId"`
	QRCode    string `json:"qrCode"`
	PalletID  int64  `json:"palletId"`
	ScannedBy string `json:"scannedBy"`
}

// DeleteScanRequest identifies one committed scan for removal
type DeleteScanRequest struct {
	QRCode    string `json:"qrCode"`
	PalletID  int64  `json:"palletId"`
	DeletedBy string `json:"deletedBy"`
}

// submitScan validates and records one scanned item against a pallet.
// Business rejections come back as 4xx with a message the kiosk surfaces
// verbatim to the operator.
func (r *Router) submitScan(w http.ResponseWriter, req *http.Request) {
	var body ScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	body.QRCode = strings.TrimSpace(body.QRCode)
	if body.JobNumber == "" || body.PartID == "" || body.QRCode == "" || body.PalletID == 0 {
		respondError(w, http.StatusBadRequest, "jobNumber, partId, qrCode and palletId are required")
		return
	}

	var pallet models.Pallet
	if err := r.db.First(&pallet, body.PalletID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			respondError(w, http.StatusNotFound, "Pallet not found")
		} else {
			respondError(w, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if pallet.JobNumber != body.JobNumber {
		respondError(w, http.StatusBadRequest,
			fmt.Sprintf("Pallet %s belongs to job %s, not %s", pallet.Name, pallet.JobNumber, body.JobNumber))
		return
	}

	if pallet.HasPackagingBeenGenerated {
		respondError(w, http.StatusConflict,
			fmt.Sprintf("Pallet %s is locked, packaging has already been generated", pallet.Name))
		return
	}

	// One physical label, one scan. The unique index backs this up; the
	// explicit check exists to give a readable message.
	var duplicates int64
	r.db.Model(&models.ScanRecord{}).
		Where("job_number = ? AND qr_code = ?", body.JobNumber, body.QRCode).
		Count(&duplicates)
	if duplicates > 0 {
		respondError(w, http.StatusConflict,
			fmt.Sprintf("Label %s has already been scanned for this job", body.QRCode))
		return
	}

	// Quantity check against the job's bill of materials mirror.
	var part models.JobPart
	err := r.db.Where("job_number = ? AND part_id = ?", body.JobNumber, body.PartID).First(&part).Error
	if err == nil {
		var scanned int64
		r.db.Model(&models.ScanRecord{}).
			Where("job_number = ? AND part_id = ?", body.JobNumber, body.PartID).
			Count(&scanned)
		if part.ExpectedQuantity > 0 && scanned >= int64(part.ExpectedQuantity) {
			respondError(w, http.StatusConflict,
				fmt.Sprintf("All %d expected pieces of part %s are already scanned", part.ExpectedQuantity, body.PartID))
			return
		}
	} else if err != gorm.ErrRecordNotFound {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	record := models.ScanRecord{
		ID:        uuid.NewString(),
		QRCode:    body.QRCode,
		JobNumber: body.JobNumber,
		PartID:    body.PartID,
		PalletID:  pallet.ID,
		ScannedBy: body.ScannedBy,
		ScanDate:  time.Now().UTC(),
	}
	if err := r.db.Create(&record).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to record scan")
		return
	}

	r.hub.Broadcast(websocket.EventScanCommitted, body.JobNumber, record)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Part %s scanned to pallet %s", body.PartID, pallet.Name),
	})
}

// deleteScan moves a committed scan into the audit table and removes it.
func (r *Router) deleteScan(w http.ResponseWriter, req *http.Request) {
	var body DeleteScanRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	var record models.ScanRecord
	err := r.db.Where("qr_code = ? AND pallet_id = ?", body.QRCode, body.PalletID).First(&record).Error
	if err == gorm.ErrRecordNotFound {
		respondError(w, http.StatusNotFound, "Scan not found on this pallet")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	snapshot, err := json.Marshal(record)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to snapshot scan")
		return
	}

	audit := models.DeletedScan{
		ID:        uuid.NewString(),
		QRCode:    record.QRCode,
		JobNumber: record.JobNumber,
		PartID:    record.PartID,
		PalletID:  record.PalletID,
		Snapshot:  datatypes.JSON(snapshot),
		DeletedBy: body.DeletedBy,
		DeletedAt: time.Now().UTC(),
	}

	err = r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&audit).Error; err != nil {
			return err
		}
		return tx.Delete(&record).Error
	})
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to delete scan")
		return
	}

	r.hub.Broadcast(websocket.EventScanDeleted, record.JobNumber, audit)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Scan %s deleted", record.QRCode),
	})
}

// listDeletedScans pages through the deletion audit trail.
func (r *Router) listDeletedScans(w http.ResponseWriter, req *http.Request) {
	page, _ := strconv.Atoi(req.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(req.URL.Query().Get("pageSize"))
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	query := r.db.Model(&models.DeletedScan{})
	if job := req.URL.Query().Get("jobNumber"); job != "" {
		query = query.Where("job_number = ?", job)
	}

	var total int64
	query.Count(&total)

	var items []models.DeletedScan
	if err := query.Order("deleted_at DESC").
		Offset((page - 1) * pageSize).Limit(pageSize).
		Find(&items).Error; err != nil {
		respondError(w, http.StatusInternalServerError, "Database error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"items":    items,
		"total":    total,
		"page":     page,
		"pageSize": pageSize,
	})
}
