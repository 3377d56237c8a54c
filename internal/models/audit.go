package models

import (
	"time"
)

// AuditLog represents a system audit entry
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;index" json:"user_id"`
	Action    string    `gorm:"size:50;not null" json:"action"` // RECORD_PAYMENT, REVERSE_PAYMENT, IMPORT, ...
	Entity    string    `gorm:"size:50;not null" json:"entity"` // Shipment, Check, PaymentIntent
	EntityID  string    `gorm:"size:64;index" json:"entity_id"`
	Details   string    `gorm:"type:text" json:"details"`
	IPAddress string    `gorm:"size:45" json:"ip_address"`
	UserAgent string    `gorm:"size:255" json:"user_agent"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for AuditLog
func (AuditLog) TableName() string {
	return "audit_logs"
}

// Audit action constants
const (
	AuditActionCreate         = "CREATE"
	AuditActionRecordPayment  = "RECORD_PAYMENT"
	AuditActionReversePayment = "REVERSE_PAYMENT"
	AuditActionRetryIntent    = "RETRY_INTENT"
	AuditActionAbandonIntent  = "ABANDON_INTENT"
	AuditActionImport         = "IMPORT"
	AuditActionUpdateFees     = "UPDATE_FEES"
	AuditActionCheckStatus    = "CHECK_STATUS"
)
