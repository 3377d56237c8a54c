package repository

import (
	"context"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// CurrencyTotals aggregates finance entries of one currency
type CurrencyTotals struct {
	Currency string  `json:"currency"`
	Income   float64 `json:"income"`
	Expense  float64 `json:"expense"`
	Net      float64 `json:"net"`
}

// FinanceRepository defines the interface for general ledger data access.
// Entries are append-only; there is no update or delete.
type FinanceRepository interface {
	Create(ctx context.Context, entry *models.FinanceEntry) error
	FindByID(ctx context.Context, id uint) (*models.FinanceEntry, error)
	FindByIntent(ctx context.Context, intentID, source string) (*models.FinanceEntry, error)
	List(ctx context.Context, query *ListQuery) ([]models.FinanceEntry, int64, error)
	Totals(ctx context.Context, shipmentID *uint) ([]CurrencyTotals, error)
}

// financeRepository handles database operations for finance entries
type financeRepository struct {
	db *gorm.DB
}

// NewFinanceRepository creates a new finance repository
func NewFinanceRepository(db *gorm.DB) FinanceRepository {
	return &financeRepository{db: db}
}

// Create appends a new entry
func (r *financeRepository) Create(ctx context.Context, entry *models.FinanceEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *financeRepository) FindByID(ctx context.Context, id uint) (*models.FinanceEntry, error) {
	var entry models.FinanceEntry
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// FindByIntent returns the entry a payment intent already wrote, if any
func (r *financeRepository) FindByIntent(ctx context.Context, intentID, source string) (*models.FinanceEntry, error) {
	var entry models.FinanceEntry
	err := r.db.WithContext(ctx).
		Where("intent_id = ? AND source = ?", intentID, source).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *financeRepository) List(ctx context.Context, query *ListQuery) ([]models.FinanceEntry, int64, error) {
	var entries []models.FinanceEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&models.FinanceEntry{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("description ILIKE ? OR customer_name ILIKE ? OR ref_no ILIKE ?", search, search, search)
	}

	for _, col := range []string{"type", "currency", "source", "shipment_id", "ref_no"} {
		if v := query.Filters[col]; v != "" {
			db = db.Where(col+" = ?", v)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order([]string{"entry_date", "amount", "created_at"}, "entry_date DESC, id DESC"))

	err := query.paginate(db).Find(&entries).Error
	return entries, total, err
}

// Totals sums income and expense per currency, optionally for one shipment
func (r *financeRepository) Totals(ctx context.Context, shipmentID *uint) ([]CurrencyTotals, error) {
	var totals []CurrencyTotals

	db := r.db.WithContext(ctx).
		Model(&models.FinanceEntry{}).
		Select(`currency,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS income,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS expense`,
			models.FinanceTypeIncome, models.FinanceTypeExpense)

	if shipmentID != nil {
		db = db.Where("shipment_id = ?", *shipmentID)
	}

	if err := db.Group("currency").Order("currency").Scan(&totals).Error; err != nil {
		return nil, err
	}

	for i := range totals {
		totals[i].Net = totals[i].Income - totals[i].Expense
	}
	return totals, nil
}
