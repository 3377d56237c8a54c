package models

import (
	"time"
)

// Shipment is a vessel arrival whose customs manifest is billed line by line.
// Version is bumped on every manifest write and guards against lost updates.
type Shipment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	ReferenceNo   string     `gorm:"size:64;not null;uniqueIndex" json:"reference_no"`
	VesselName    string     `gorm:"size:120" json:"vessel_name"`
	CustomsOffice string     `gorm:"size:120;index" json:"customs_office"`
	ArrivalDate   *time.Time `gorm:"type:date" json:"arrival_date"`
	Manifest      Manifest   `gorm:"type:jsonb;not null;default:'[]'" json:"manifest"`
	Version       int64      `gorm:"not null;default:1" json:"version"`
	CreatedAt     time.Time  `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName specifies the table name for Shipment
func (Shipment) TableName() string {
	return "shipments"
}

// Line returns a copy of the manifest line with the given id
func (s *Shipment) Line(lineID string) (ManifestLine, bool) {
	idx := s.Manifest.Index(lineID)
	if idx < 0 {
		return ManifestLine{}, false
	}
	return s.Manifest[idx].Clone(), true
}

// ShipmentSummary is the list representation of a shipment
type ShipmentSummary struct {
	ID            uint       `json:"id"`
	ReferenceNo   string     `json:"reference_no"`
	VesselName    string     `json:"vessel_name"`
	CustomsOffice string     `json:"customs_office"`
	ArrivalDate   *time.Time `json:"arrival_date"`
	LineCount     int        `json:"line_count"`
	Version       int64      `json:"version"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToSummary converts Shipment to ShipmentSummary
func (s *Shipment) ToSummary() ShipmentSummary {
	return ShipmentSummary{
		ID:            s.ID,
		ReferenceNo:   s.ReferenceNo,
		VesselName:    s.VesselName,
		CustomsOffice: s.CustomsOffice,
		ArrivalDate:   s.ArrivalDate,
		LineCount:     len(s.Manifest),
		Version:       s.Version,
		CreatedAt:     s.CreatedAt,
	}
}
