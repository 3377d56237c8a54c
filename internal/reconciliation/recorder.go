package reconciliation

import (
	"fmt"
	"strings"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
)

// CheckItem is one check handed over in a check payment
type CheckItem struct {
	CheckNo  string    `json:"check_no"`
	Date     time.Time `json:"date"`
	Amount   float64   `json:"amount"`
	BankName string    `json:"bank_name"`
}

// PaymentRequest describes one payment transaction against a manifest line.
// For checks the amount is derived from the check items and Amount is ignored.
type PaymentRequest struct {
	Method    string      `json:"method"`
	Amount    float64     `json:"amount"`
	Date      time.Time   `json:"date"`
	Reference string      `json:"reference"`
	Checks    []CheckItem `json:"checks"`
	IntentID  string      `json:"-"`
}

// Total returns the effective amount of the request
func (r *PaymentRequest) Total() float64 {
	if r.Method != models.PaymentMethodCheck {
		return roundCents(r.Amount)
	}
	total := 0.0
	for _, c := range r.Checks {
		total += c.Amount
	}
	return roundCents(total)
}

// PaymentResult is everything a recorded payment has to persist
type PaymentResult struct {
	UpdatedLine    models.ManifestLine
	Events         []models.PaymentEvent
	ChecksToCreate []models.CheckInstrument
	LedgerEntry    models.FinanceEntry
}

// RecordPayment validates req against line and returns the updated line along
// with the checks and the single ledger entry to create. The given line is not
// modified; on error nothing is returned.
func (l *Ledger) RecordPayment(line models.ManifestLine, req PaymentRequest) (*PaymentResult, error) {
	if err := l.validate(&line, &req); err != nil {
		return nil, err
	}

	date := req.Date
	if date.IsZero() {
		date = l.now()
	}
	currency := line.SavedFees.Currency

	var events []models.PaymentEvent
	var checks []models.CheckInstrument

	if req.Method == models.PaymentMethodCheck {
		for _, item := range req.Checks {
			event := models.PaymentEvent{
				ID:        l.newID(),
				Date:      date,
				Amount:    roundCents(item.Amount),
				Currency:  currency,
				Method:    models.PaymentMethodCheck,
				Reference: strings.TrimSpace(item.CheckNo),
				IntentID:  req.IntentID,
			}
			events = append(events, event)
			checks = append(checks, models.CheckInstrument{
				Direction:      models.CheckDirectionIn,
				Amount:         event.Amount,
				Currency:       currency,
				DueDate:        item.Date,
				PartyName:      line.CustomerName,
				BankName:       strings.TrimSpace(item.BankName),
				ReferenceNo:    event.Reference,
				Status:         models.CheckStatusPending,
				Description:    checkDescription(&line),
				LineID:         line.ID,
				PaymentEventID: event.ID,
				IntentID:       req.IntentID,
			})
		}
	} else {
		events = append(events, models.PaymentEvent{
			ID:        l.newID(),
			Date:      date,
			Amount:    req.Total(),
			Currency:  currency,
			Method:    req.Method,
			Reference: strings.TrimSpace(req.Reference),
			IntentID:  req.IntentID,
		})
	}

	updated := line.Clone()
	updated.Payments = append(updated.Payments, events...)
	l.settings.recompute(&updated)

	return &PaymentResult{
		UpdatedLine:    updated,
		Events:         events,
		ChecksToCreate: checks,
		LedgerEntry: models.FinanceEntry{
			IntentID:     req.IntentID,
			Type:         models.FinanceTypeIncome,
			Currency:     currency,
			Amount:       SumPayments(events),
			Description:  fmt.Sprintf("Ordino payment (%s) - %s", req.Method, line.CustomerName),
			CustomerName: line.CustomerName,
			Source:       models.FinanceSourceOrdinoPayment,
			RefNo:        line.OrdinoNo,
			EntryDate:    date,
		},
	}, nil
}

// ApplyEvents appends already-built events to a fresher copy of a line. It is
// used when a payment has to be replayed after the line changed underneath it,
// so the overpayment rule is checked again.
func (l *Ledger) ApplyEvents(line models.ManifestLine, events []models.PaymentEvent) (models.ManifestLine, error) {
	pending := make([]models.PaymentEvent, 0, len(events))
	for _, e := range events {
		if !line.HasPayment(e.ID) {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return line.Clone(), nil
	}

	line.PaidAmount = SumPayments(line.Payments)
	attempted := SumPayments(pending)
	remaining := ComputeRemaining(&line)
	if attempted > remaining+l.settings.OverpaymentEpsilon {
		return models.ManifestLine{}, &OverpaymentError{
			Attempted: attempted,
			Remaining: remaining,
			Currency:  line.SavedFees.Currency,
		}
	}

	updated := line.Clone()
	updated.Payments = append(updated.Payments, pending...)
	l.settings.recompute(&updated)
	return updated, nil
}

func (l *Ledger) validate(line *models.ManifestLine, req *PaymentRequest) error {
	if !models.IsValidPaymentMethod(req.Method) {
		return &ValidationError{Err: ErrUnknownMethod, Details: req.Method}
	}

	if req.Method == models.PaymentMethodCheck {
		if len(req.Checks) == 0 {
			return &ValidationError{Err: ErrNoChecks}
		}
		for i, c := range req.Checks {
			switch {
			case strings.TrimSpace(c.CheckNo) == "":
				return &IncompleteCheckError{Index: i, Field: "check_no"}
			case c.Date.IsZero():
				return &IncompleteCheckError{Index: i, Field: "date"}
			case strings.TrimSpace(c.BankName) == "":
				return &IncompleteCheckError{Index: i, Field: "bank_name"}
			case !(roundCents(c.Amount) > 0):
				return &IncompleteCheckError{Index: i, Field: "amount"}
			}
		}
	}

	total := req.Total()
	if !(total > 0) {
		return &ValidationError{Err: ErrInvalidAmount, Details: fmt.Sprintf("%.2f", total)}
	}

	// Trust the events, not the cached total.
	fresh := *line
	fresh.PaidAmount = SumPayments(line.Payments)
	remaining := ComputeRemaining(&fresh)
	if total > remaining+l.settings.OverpaymentEpsilon {
		return &OverpaymentError{
			Attempted: total,
			Remaining: remaining,
			Currency:  line.SavedFees.Currency,
		}
	}
	return nil
}

func checkDescription(line *models.ManifestLine) string {
	ref := line.OrdinoNo
	if ref == "" {
		ref = line.ID
	}
	return fmt.Sprintf("Ordino %s check payment - %s", ref, line.CustomerName)
}
