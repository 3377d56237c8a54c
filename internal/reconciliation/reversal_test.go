package reconciliation

import (
	"errors"
	"testing"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReversePayment(t *testing.T) {
	ledger := newTestLedger()

	first, err := ledger.RecordPayment(usdLine(), PaymentRequest{Method: models.PaymentMethodCash, Amount: 500, Date: txDate()})
	require.NoError(t, err)
	second, err := ledger.RecordPayment(first.UpdatedLine, PaymentRequest{Method: models.PaymentMethodBankTransfer, Amount: 700, Date: txDate()})
	require.NoError(t, err)
	require.Equal(t, models.PaymentStatusPaid, second.UpdatedLine.PaymentStatus)

	reversed, err := ledger.ReversePayment(second.UpdatedLine, first.Events[0].ID)
	require.NoError(t, err)

	assert.Equal(t, 700.0, reversed.PaidAmount)
	assert.Equal(t, models.PaymentStatusPartial, reversed.PaymentStatus)
	require.Len(t, reversed.Payments, 1)
	assert.Equal(t, second.Events[0].ID, reversed.Payments[0].ID)

	// original untouched
	assert.Len(t, second.UpdatedLine.Payments, 2)
}

func TestReversePayment_LastPaymentLeavesLineUnpaid(t *testing.T) {
	ledger := newTestLedger()
	result, err := ledger.RecordPayment(usdLine(), PaymentRequest{Method: models.PaymentMethodCash, Amount: 1200, Date: txDate()})
	require.NoError(t, err)

	reversed, err := ledger.ReversePayment(result.UpdatedLine, result.Events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, reversed.PaidAmount)
	assert.Equal(t, models.PaymentStatusUnpaid, reversed.PaymentStatus)
	assert.Empty(t, reversed.Payments)
}

func TestReversePayment_UnknownID(t *testing.T) {
	ledger := newTestLedger()
	result, err := ledger.RecordPayment(usdLine(), PaymentRequest{Method: models.PaymentMethodCash, Amount: 100, Date: txDate()})
	require.NoError(t, err)

	_, err = ledger.ReversePayment(result.UpdatedLine, "missing")
	var nf *NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, "missing", nf.PaymentID)
	assert.Len(t, result.UpdatedLine.Payments, 1)
}

func TestRecordThenReverseRestoresLine(t *testing.T) {
	ledger := newTestLedger()
	base := usdLine()
	seed, err := ledger.RecordPayment(base, PaymentRequest{Method: models.PaymentMethodCreditCard, Amount: 250, Date: txDate()})
	require.NoError(t, err)
	start := seed.UpdatedLine

	for _, amount := range []float64{1, 99.99, 500, 950} {
		result, err := ledger.RecordPayment(start, PaymentRequest{Method: models.PaymentMethodCash, Amount: amount, Date: txDate()})
		require.NoError(t, err)

		back, err := ledger.ReversePayment(result.UpdatedLine, result.Events[0].ID)
		require.NoError(t, err)

		assert.Equal(t, start.Payments, back.Payments, "amount=%v", amount)
		assert.Equal(t, start.PaidAmount, back.PaidAmount, "amount=%v", amount)
		assert.Equal(t, start.PaymentStatus, back.PaymentStatus, "amount=%v", amount)
	}
}

func TestPaidAmountTracksEventsAcrossSequence(t *testing.T) {
	ledger := newTestLedger()
	line := usdLine()

	steps := []struct {
		record  float64
		reverse int // index into recorded ids, -1 for none
	}{
		{record: 100, reverse: -1},
		{record: 250.5, reverse: -1},
		{record: 0, reverse: 0},
		{record: 300, reverse: -1},
		{record: 0, reverse: 1},
		{record: 849.5, reverse: -1},
	}

	var ids []string
	for i, step := range steps {
		if step.record > 0 {
			result, err := ledger.RecordPayment(line, PaymentRequest{Method: models.PaymentMethodCash, Amount: step.record, Date: txDate()})
			require.NoError(t, err, "step %d", i)
			line = result.UpdatedLine
			ids = append(ids, result.Events[0].ID)
		}
		if step.reverse >= 0 {
			var err error
			line, err = ledger.ReversePayment(line, ids[step.reverse])
			require.NoError(t, err, "step %d", i)
		}

		assert.InDelta(t, SumPayments(line.Payments), line.PaidAmount, 0.001, "step %d", i)
		assert.Equal(t, ComputeStatus(&line), line.PaymentStatus, "step %d", i)
	}

	assert.Equal(t, 1149.5, line.PaidAmount)
	assert.Equal(t, models.PaymentStatusPartial, line.PaymentStatus)
}

func TestUpdateSavedFees(t *testing.T) {
	ledger := newTestLedger()
	paid, err := ledger.RecordPayment(usdLine(), PaymentRequest{Method: models.PaymentMethodCash, Amount: 1000, Date: txDate()})
	require.NoError(t, err)

	t.Run("lowering to the paid amount marks the line paid", func(t *testing.T) {
		updated, err := ledger.UpdateSavedFees(paid.UpdatedLine, models.Fees{Navlun: 800, Tahliye: 200})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
		assert.Equal(t, "USD", updated.SavedFees.Currency)
	})

	t.Run("raising reopens the line", func(t *testing.T) {
		updated, err := ledger.UpdateSavedFees(paid.UpdatedLine, models.Fees{Navlun: 1500, Tahliye: 200, Currency: "USD"})
		require.NoError(t, err)
		assert.Equal(t, models.PaymentStatusPartial, updated.PaymentStatus)
		assert.Equal(t, 700.0, ComputeRemaining(&updated))
	})

	t.Run("below paid is rejected", func(t *testing.T) {
		_, err := ledger.UpdateSavedFees(paid.UpdatedLine, models.Fees{Navlun: 500})
		assert.ErrorIs(t, err, ErrFeesBelowPaid)
	})

	t.Run("negative component is rejected", func(t *testing.T) {
		_, err := ledger.UpdateSavedFees(paid.UpdatedLine, models.Fees{Navlun: 2000, Tahliye: -1})
		assert.ErrorIs(t, err, ErrNegativeFee)
	})

	t.Run("currency change with payments is rejected", func(t *testing.T) {
		_, err := ledger.UpdateSavedFees(paid.UpdatedLine, models.Fees{Navlun: 2000, Currency: "EUR"})
		assert.ErrorIs(t, err, ErrCurrencyLocked)
	})

	t.Run("currency change without payments is allowed", func(t *testing.T) {
		updated, err := ledger.UpdateSavedFees(usdLine(), models.Fees{Navlun: 2000, Currency: "EUR"})
		require.NoError(t, err)
		assert.Equal(t, "EUR", updated.SavedFees.Currency)
		assert.Equal(t, models.PaymentStatusUnpaid, updated.PaymentStatus)
	})
}

func TestUpdateOfficialFeesDoesNotTouchPayments(t *testing.T) {
	ledger := newTestLedger()
	paid, err := ledger.RecordPayment(usdLine(), PaymentRequest{Method: models.PaymentMethodCash, Amount: 1200, Date: txDate()})
	require.NoError(t, err)

	updated, err := ledger.UpdateOfficialFees(paid.UpdatedLine, models.Fees{Navlun: 10, Currency: "TRY"})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, updated.PaymentStatus)
	assert.Equal(t, 1200.0, updated.PaidAmount)
	assert.Equal(t, "TRY", updated.OfficialFees.Currency)
	assert.Equal(t, paid.UpdatedLine.SavedFees, updated.SavedFees)
}
