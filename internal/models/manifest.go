package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Line payment status constants
const (
	PaymentStatusUnpaid  = "unpaid"
	PaymentStatusPartial = "partial"
	PaymentStatusPaid    = "paid"
)

// Payment method constants
const (
	PaymentMethodCash         = "Cash"
	PaymentMethodBankTransfer = "BankTransfer"
	PaymentMethodCheck        = "Check"
	PaymentMethodCreditCard   = "CreditCard"
)

// IsValidPaymentMethod reports whether method is one of the accepted payment methods
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCash, PaymentMethodBankTransfer, PaymentMethodCheck, PaymentMethodCreditCard:
		return true
	}
	return false
}

// Fees holds the three freight fee components of an ordino in a single currency
type Fees struct {
	Navlun   float64 `json:"navlun"`
	Tahliye  float64 `json:"tahliye"`
	Exworks  float64 `json:"exworks"`
	Currency string  `json:"currency"`
}

// GoodsItem is one cargo entry of a manifest line
type GoodsItem struct {
	Description string  `json:"description"`
	Packages    int     `json:"packages"`
	WeightKg    float64 `json:"weight_kg"`
}

// PaymentEvent is a single recorded payment against a manifest line
type PaymentEvent struct {
	ID        string    `json:"id"`
	Date      time.Time `json:"date"`
	Amount    float64   `json:"amount"`
	Currency  string    `json:"currency"`
	Method    string    `json:"method"`
	Reference string    `json:"reference"`
	IntentID  string    `json:"intent_id,omitempty"`
}

// ManifestLine is one customer's billed entry inside a shipment manifest.
// SavedFees drive payment math; OfficialFees are kept for customs paperwork only.
type ManifestLine struct {
	ID             string         `json:"id"`
	CustomerID     uint           `json:"customer_id"`
	CustomerName   string         `json:"customer_name"`
	OrdinoNo       string         `json:"ordino_no"`
	TransportDocNo string         `json:"transport_doc_no"`
	ContainerNo    string         `json:"container_no"`
	Goods          []GoodsItem    `json:"goods"`
	SavedFees      Fees           `json:"saved_fees"`
	OfficialFees   Fees           `json:"official_fees"`
	PaidAmount     float64        `json:"paid_amount"`
	PaymentStatus  string         `json:"payment_status"`
	Payments       []PaymentEvent `json:"payments"`
}

// Clone returns a deep copy so callers can mutate the result without touching the original
func (l ManifestLine) Clone() ManifestLine {
	out := l
	if l.Goods != nil {
		out.Goods = append([]GoodsItem(nil), l.Goods...)
	}
	if l.Payments != nil {
		out.Payments = append([]PaymentEvent(nil), l.Payments...)
	}
	return out
}

// HasPayment returns true if an event with the given id is on the line
func (l *ManifestLine) HasPayment(paymentID string) bool {
	for _, p := range l.Payments {
		if p.ID == paymentID {
			return true
		}
	}
	return false
}

// FindPayment returns the event with the given id
func (l *ManifestLine) FindPayment(paymentID string) (PaymentEvent, bool) {
	for _, p := range l.Payments {
		if p.ID == paymentID {
			return p, true
		}
	}
	return PaymentEvent{}, false
}

// Manifest is the ordered collection of lines persisted as a single JSON document
type Manifest []ManifestLine

// Index returns the position of the line with the given id, or -1
func (m Manifest) Index(lineID string) int {
	for i := range m {
		if m[i].ID == lineID {
			return i
		}
	}
	return -1
}

// Replace returns a copy of the manifest with the line at the same id swapped for line
func (m Manifest) Replace(line ManifestLine) (Manifest, bool) {
	idx := m.Index(line.ID)
	if idx < 0 {
		return m, false
	}
	out := make(Manifest, len(m))
	copy(out, m)
	out[idx] = line
	return out, true
}

// Value implements driver.Valuer for the jsonb column
func (m Manifest) Value() (driver.Value, error) {
	if m == nil {
		return "[]", nil
	}
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for the jsonb column
func (m *Manifest) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		*m = Manifest{}
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("manifest: unsupported column type")
	}
	return json.Unmarshal(data, m)
}
