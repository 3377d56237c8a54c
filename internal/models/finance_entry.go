package models

import (
	"time"
)

// FinanceEntry is an append-only income or expense record of the general ledger
type FinanceEntry struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	ShipmentID   uint      `gorm:"index" json:"shipment_id"`
	IntentID     string    `gorm:"size:36;index" json:"intent_id"`
	Type         string    `gorm:"size:16;not null;index" json:"type"`
	Currency     string    `gorm:"size:8;not null" json:"currency"`
	Amount       float64   `gorm:"type:decimal(15,2);not null" json:"amount"`
	Description  string    `gorm:"type:text;not null" json:"description"`
	CustomerName string    `gorm:"size:200" json:"customer_name"`
	Source       string    `gorm:"size:32;not null;index" json:"source"`
	RefNo        string    `gorm:"size:64;index" json:"ref_no"`
	EntryDate    time.Time `gorm:"not null;default:current_timestamp" json:"entry_date"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName specifies the table name for FinanceEntry
func (FinanceEntry) TableName() string {
	return "finance_entries"
}

// Entry type constants
const (
	FinanceTypeIncome  = "income"
	FinanceTypeExpense = "expense"
)

// Entry source constants
const (
	FinanceSourceOrdinoPayment  = "ordino_payment"  // payment received on a manifest line
	FinanceSourceOrdinoReversal = "ordino_reversal" // compensation for a reversed payment
)

// SignedAmount returns the amount as a ledger delta: positive for income, negative for expense
func (e *FinanceEntry) SignedAmount() float64 {
	if e.Type == FinanceTypeExpense {
		return -e.Amount
	}
	return e.Amount
}
