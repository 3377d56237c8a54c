package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// PaymentIntent records a multi-store payment write so that a failure halfway
// through can be retried or reconciled by an operator.
type PaymentIntent struct {
	ID              string        `gorm:"primaryKey;size:36" json:"id"`
	ShipmentID      uint          `gorm:"not null;index" json:"shipment_id"`
	LineID          string        `gorm:"size:36;not null;index" json:"line_id"`
	Operation       string        `gorm:"size:16;not null" json:"operation"`
	Status          string        `gorm:"size:16;default:pending;not null;index" json:"status"`
	BaseVersion     int64         `gorm:"not null" json:"base_version"`
	Payload         IntentPayload `gorm:"type:jsonb;not null" json:"payload"`
	LedgerEntryID   *uint         `json:"ledger_entry_id"`
	ManifestWritten bool          `gorm:"not null;default:false" json:"manifest_written"`
	FailedStep      *string       `gorm:"size:32" json:"failed_step"`
	LastError       *string       `gorm:"type:text" json:"last_error"`
	Attempts        int           `gorm:"not null;default:0" json:"attempts"`
	ActorID         uint          `gorm:"index" json:"actor_id"`
	CompletedAt     *time.Time    `json:"completed_at"`
	CreatedAt       time.Time     `gorm:"index" json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// TableName specifies the table name for PaymentIntent
func (PaymentIntent) TableName() string {
	return "payment_intents"
}

// Intent status constants
const (
	IntentStatusPending   = "pending"
	IntentStatusCompleted = "completed"
	IntentStatusFailed    = "failed"
	IntentStatusAbandoned = "abandoned"
)

// Intent operation constants
const (
	IntentOperationRecord  = "record"
	IntentOperationReverse = "reverse"
)

// Saga step names
const (
	IntentStepChecks      = "checks"
	IntentStepLedger      = "ledger"
	IntentStepManifest    = "manifest"
	IntentStepInterrupted = "interrupted"
)

// IntentPayload is the computed outcome the saga has to persist
type IntentPayload struct {
	Events        []PaymentEvent    `json:"events,omitempty"`
	ReversedEvent *PaymentEvent     `json:"reversed_event,omitempty"`
	Checks        []CheckInstrument `json:"checks,omitempty"`
	LedgerEntry   FinanceEntry      `json:"ledger_entry"`
}

// Value implements driver.Valuer for the jsonb column
func (p IntentPayload) Value() (driver.Value, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the jsonb column
func (p *IntentPayload) Scan(value interface{}) error {
	switch v := value.(type) {
	case nil:
		*p = IntentPayload{}
		return nil
	case []byte:
		return json.Unmarshal(v, p)
	case string:
		return json.Unmarshal([]byte(v), p)
	}
	return errors.New("intent payload: unsupported column type")
}

// MayRetry returns true if the intent can be replayed
func (i *PaymentIntent) MayRetry() bool {
	return i.Status == IntentStatusFailed
}

// MayAbandon returns true if the intent can be handed over to manual reconciliation
func (i *PaymentIntent) MayAbandon() bool {
	return i.Status == IntentStatusFailed
}

// ChecksDone returns true once every check of the payload has been persisted
func (i *PaymentIntent) ChecksDone() bool {
	for _, c := range i.Payload.Checks {
		if c.ID == 0 {
			return false
		}
	}
	return true
}

// MarkFailed records the failing step and error
func (i *PaymentIntent) MarkFailed(step string, err error) {
	msg := err.Error()
	i.FailedStep = &step
	i.LastError = &msg
}
