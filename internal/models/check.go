package models

import (
	"time"
)

// CheckInstrument is a post-dated check tracked in the check registry
type CheckInstrument struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Direction       string     `gorm:"size:8;not null;index" json:"direction"`
	Amount          float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	Currency        string     `gorm:"size:8;not null" json:"currency"`
	DueDate         time.Time  `gorm:"type:date;not null;index" json:"due_date"`
	PartyName       string     `gorm:"size:200" json:"party_name"`
	BankName        string     `gorm:"size:120;not null" json:"bank_name"`
	ReferenceNo     string     `gorm:"size:64;not null;index" json:"reference_no"`
	Status          string     `gorm:"size:16;default:pending;not null;index" json:"status"`
	Description     string     `gorm:"type:text" json:"description"`
	ShipmentID      uint       `gorm:"index" json:"shipment_id"`
	LineID          string     `gorm:"size:36;index" json:"line_id"`
	PaymentEventID  string     `gorm:"size:36;index" json:"payment_event_id"`
	IntentID        string     `gorm:"size:36;index" json:"intent_id"`
	StatusChangedAt *time.Time `json:"status_changed_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// TableName specifies the table name for CheckInstrument
func (CheckInstrument) TableName() string {
	return "checks"
}

// Check direction constants
const (
	CheckDirectionIn  = "in"
	CheckDirectionOut = "out"
)

// Check status constants
const (
	CheckStatusPending  = "pending"
	CheckStatusCleared  = "cleared"
	CheckStatusBounced  = "bounced"
	CheckStatusReversed = "reversed"
)

// MayClear returns true if the check can be marked as cleared
func (c *CheckInstrument) MayClear() bool {
	return c.Status == CheckStatusPending
}

// MayBounce returns true if the check can be marked as bounced
func (c *CheckInstrument) MayBounce() bool {
	return c.Status == CheckStatusPending
}

// MayReverse returns true if the payment behind the check can be reversed
func (c *CheckInstrument) MayReverse() bool {
	return c.Status != CheckStatusReversed
}

// IsOverdue returns true if a pending check is past its due date
func (c *CheckInstrument) IsOverdue() bool {
	return c.Status == CheckStatusPending && time.Now().After(c.DueDate)
}
