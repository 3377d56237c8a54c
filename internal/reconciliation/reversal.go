package reconciliation

import (
	"github.com/sjperalta/ordino-api/internal/models"
)

// ReversePayment removes one event from line and recomputes its totals. The
// given line is not modified. Linked checks and ledger entries are left for the
// caller to compensate.
func (l *Ledger) ReversePayment(line models.ManifestLine, paymentID string) (models.ManifestLine, error) {
	if !line.HasPayment(paymentID) {
		return models.ManifestLine{}, &NotFoundError{PaymentID: paymentID}
	}

	updated := line.Clone()
	kept := make([]models.PaymentEvent, 0, len(updated.Payments)-1)
	for _, p := range updated.Payments {
		if p.ID != paymentID {
			kept = append(kept, p)
		}
	}
	updated.Payments = kept
	l.settings.recompute(&updated)
	return updated, nil
}

// UpdateSavedFees replaces the real fees of a line and re-derives its status.
// Fees that would leave the line overpaid are rejected.
func (l *Ledger) UpdateSavedFees(line models.ManifestLine, fees models.Fees) (models.ManifestLine, error) {
	if fees.Navlun < 0 || fees.Tahliye < 0 || fees.Exworks < 0 {
		return models.ManifestLine{}, &ValidationError{Err: ErrNegativeFee}
	}
	if fees.Currency == "" {
		fees.Currency = line.SavedFees.Currency
	}
	if len(line.Payments) > 0 && fees.Currency != line.SavedFees.Currency {
		return models.ManifestLine{}, &ValidationError{Err: ErrCurrencyLocked, Details: line.SavedFees.Currency}
	}

	updated := line.Clone()
	updated.SavedFees = fees
	paid := SumPayments(updated.Payments)
	if debt := ComputeTotalDebt(&updated); paid > debt+l.settings.OverpaymentEpsilon {
		return models.ManifestLine{}, &ValidationError{Err: ErrFeesBelowPaid}
	}
	l.settings.recompute(&updated)
	return updated, nil
}

// UpdateOfficialFees replaces the customs-facing fees. They never affect payment math.
func (l *Ledger) UpdateOfficialFees(line models.ManifestLine, fees models.Fees) (models.ManifestLine, error) {
	if fees.Navlun < 0 || fees.Tahliye < 0 || fees.Exworks < 0 {
		return models.ManifestLine{}, &ValidationError{Err: ErrNegativeFee}
	}
	if fees.Currency == "" {
		fees.Currency = line.OfficialFees.Currency
	}
	updated := line.Clone()
	updated.OfficialFees = fees
	return updated, nil
}
