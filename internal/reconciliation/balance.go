package reconciliation

import (
	"math"

	"github.com/sjperalta/ordino-api/internal/models"
)

// Balance is the derived financial state of a manifest line
type Balance struct {
	TotalDebt  float64 `json:"total_debt"`
	PaidAmount float64 `json:"paid_amount"`
	Remaining  float64 `json:"remaining"`
	Status     string  `json:"status"`
	Currency   string  `json:"currency"`
}

// ComputeTotalDebt sums the saved fee components. Negative components count as zero.
func ComputeTotalDebt(line *models.ManifestLine) float64 {
	return roundCents(nonNegative(line.SavedFees.Navlun) +
		nonNegative(line.SavedFees.Tahliye) +
		nonNegative(line.SavedFees.Exworks))
}

// ComputeRemaining returns max(0, totalDebt - paidAmount)
func ComputeRemaining(line *models.ManifestLine) float64 {
	return roundCents(math.Max(0, ComputeTotalDebt(line)-line.PaidAmount))
}

// ComputeStatus derives the payment status with the default tolerance
func ComputeStatus(line *models.ManifestLine) string {
	return DefaultSettings().ComputeStatus(line)
}

// ComputeStatus derives the payment status of a line from its cached paid amount.
// A line without debt is always unpaid.
func (s Settings) ComputeStatus(line *models.ManifestLine) string {
	return s.statusFor(ComputeTotalDebt(line), line.PaidAmount)
}

// Balance returns the full derived state of a line
func (s Settings) Balance(line *models.ManifestLine) Balance {
	return Balance{
		TotalDebt:  ComputeTotalDebt(line),
		PaidAmount: line.PaidAmount,
		Remaining:  ComputeRemaining(line),
		Status:     s.ComputeStatus(line),
		Currency:   line.SavedFees.Currency,
	}
}

// SumPayments adds up every event amount of the line
func SumPayments(payments []models.PaymentEvent) float64 {
	total := 0.0
	for _, p := range payments {
		total += p.Amount
	}
	return roundCents(total)
}

func (s Settings) statusFor(totalDebt, paid float64) string {
	if totalDebt <= 0 {
		return models.PaymentStatusUnpaid
	}
	if paid >= totalDebt-s.StatusEpsilon {
		return models.PaymentStatusPaid
	}
	if paid > 0 {
		return models.PaymentStatusPartial
	}
	return models.PaymentStatusUnpaid
}

// recompute refreshes the cached totals of line from its events
func (s Settings) recompute(line *models.ManifestLine) {
	line.PaidAmount = SumPayments(line.Payments)
	line.PaymentStatus = s.ComputeStatus(line)
}

func nonNegative(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	return v
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
