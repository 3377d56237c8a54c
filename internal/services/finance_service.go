package services

import (
	"context"

	"github.com/sjperalta/ordino-api/internal/models"
	"github.com/sjperalta/ordino-api/internal/repository"
)

// FinanceService exposes the append-only general ledger
type FinanceService struct {
	repo repository.FinanceRepository
}

func NewFinanceService(repo repository.FinanceRepository) *FinanceService {
	return &FinanceService{repo: repo}
}

func (s *FinanceService) FindByID(ctx context.Context, id uint) (*models.FinanceEntry, error) {
	entry, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, notFound(err)
	}
	return entry, nil
}

func (s *FinanceService) List(ctx context.Context, query *repository.ListQuery) ([]models.FinanceEntry, int64, error) {
	return s.repo.List(ctx, query)
}

// Totals returns income, expense and net per currency. A nil shipmentID covers the whole ledger.
func (s *FinanceService) Totals(ctx context.Context, shipmentID *uint) ([]repository.CurrencyTotals, error) {
	return s.repo.Totals(ctx, shipmentID)
}
