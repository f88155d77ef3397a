package models

import "time"

// Pallet is a container scanned items are assigned into within a job.
// ItemCount is recomputed from scan records on every listing; it is never
// trusted as a running counter. HasPackagingBeenGenerated is the lock flag:
// once the packaging step has run for a pallet, no further scans are
// accepted until a supervisor unlocks it. The JSON names are the wire
// format the dashboard frontend already speaks.
type Pallet struct {
	ID                        int64     `gorm:"primaryKey" json:"id"`
	JobNumber                 string    `gorm:"index;not null" json:"jobNumber"`
	Name                      string    `gorm:"not null" json:"name"`
	ItemCount                 int       `gorm:"-" json:"itemCount"`
	HasPackagingBeenGenerated bool      `gorm:"default:false" json:"hasPackagingBeenGenerated"`
	CreatedAt                 time.Time `json:"createdAt"`
	UpdatedAt                 time.Time `json:"updatedAt"`
}

func (Pallet) TableName() string {
	return "pallets"
}
