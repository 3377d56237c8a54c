package services

import (
	"context"
	"errors"
	"testing"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinanceService_FindByID(t *testing.T) {
	repo := &mockFinanceRepo{}
	svc := NewFinanceService(repo)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.FinanceEntry{ShipmentID: 1, Currency: "USD", Amount: 250, RefNo: "RCPT-1"}))

	entry, err := svc.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "RCPT-1", entry.RefNo)

	_, err = svc.FindByID(ctx, 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestFinanceService_Totals(t *testing.T) {
	var gotShipment *uint
	repo := &mockFinanceRepo{
		mockTotals: func(ctx context.Context, shipmentID *uint) ([]repository.CurrencyTotals, error) {
			gotShipment = shipmentID
			return []repository.CurrencyTotals{{Currency: "USD", Income: 900, Expense: 100, Net: 800}}, nil
		},
	}
	svc := NewFinanceService(repo)

	id := uint(3)
	totals, err := svc.Totals(context.Background(), &id)
	require.NoError(t, err)
	require.Len(t, totals, 1)
	assert.InDelta(t, 800, totals[0].Net, 0.001)
	require.NotNil(t, gotShipment)
	assert.Equal(t, uint(3), *gotShipment)

	boom := errors.New("db down")
	repo.mockTotals = func(ctx context.Context, shipmentID *uint) ([]repository.CurrencyTotals, error) {
		return nil, boom
	}
	_, err = svc.Totals(context.Background(), nil)
	assert.ErrorIs(t, err, boom)
}
