package reconciliation

import (
	"fmt"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func newTestLedger() *Ledger {
	fixed := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	return NewLedger(DefaultSettings(),
		WithIDGenerator(sequentialIDs()),
		WithClock(func() time.Time { return fixed }),
	)
}

// usdLine is the 1200 USD line used across scenarios
func usdLine() models.ManifestLine {
	return models.ManifestLine{
		ID:            "line-1",
		CustomerID:    7,
		CustomerName:  "Akdeniz Lojistik",
		OrdinoNo:      "ORD-2024-001",
		SavedFees:     models.Fees{Navlun: 1000, Tahliye: 200, Exworks: 0, Currency: "USD"},
		OfficialFees:  models.Fees{Navlun: 600, Tahliye: 100, Currency: "USD"},
		PaymentStatus: models.PaymentStatusUnpaid,
	}
}

func txDate() time.Time {
	return time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
}
