package models

import (
	"time"

	"gorm.io/datatypes"
)

// ScanRecord is one committed scan. Created by a successful submission,
// removed only by explicit operator deletion, never mutated otherwise.
// The QR code is unique per job: the same physical label cannot be
// scanned into two pallets.
type ScanRecord struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	QRCode    string    `gorm:"uniqueIndex:idx_scan_job_qr;not null" json:"qrCode"`
	JobNumber string    `gorm:"uniqueIndex:idx_scan_job_qr;index;not null" json:"jobNumber"`
	PartID    string    `gorm:"index;not null" json:"partId"`
	PalletID  int64     `gorm:"index;not null" json:"palletId"`
	ScannedBy string    `json:"scannedBy"`
	ScanDate  time.Time `json:"scanDate"`

	Pallet *Pallet `gorm:"foreignKey:PalletID" json:"-"`
}

func (ScanRecord) TableName() string {
	return "scan_records"
}

// DeletedScan is the audit trail for removed scans. Snapshot holds the
// full original record as JSON so an investigation can see exactly what
// was deleted even after the pallet itself is gone.
type DeletedScan struct {
	ID        string         `gorm:"primaryKey;type:uuid" json:"id"`
	QRCode    string         `gorm:"index" json:"qrCode"`
	JobNumber string         `gorm:"index" json:"jobNumber"`
	PartID    string         `json:"partId"`
	PalletID  int64          `json:"palletId"`
	Snapshot  datatypes.JSON `json:"snapshot"`
	DeletedBy string         `json:"deletedBy"`
	DeletedAt time.Time      `json:"deletedAt"`
}

func (DeletedScan) TableName() string {
	return "deleted_scans"
}

// JobPart mirrors one line of a job's bill of materials. The BOM is owned
// by the external planning system; this copy exists so scan submissions
// can be validated against expected quantities.
type JobPart struct {
	ID               int64  `gorm:"primaryKey" json:"id"`
	JobNumber        string `gorm:"uniqueIndex:idx_job_part;not null" json:"jobNumber"`
	PartID           string `gorm:"uniqueIndex:idx_job_part;not null" json:"partId"`
	ExpectedQuantity int    `gorm:"default:0" json:"expectedQuantity"`
}

func (JobPart) TableName() string {
	return "job_parts"
}
