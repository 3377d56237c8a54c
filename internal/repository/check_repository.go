package repository

import (
	"context"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// CheckRepository defines the interface for check registry data access
type CheckRepository interface {
	Create(ctx context.Context, check *models.CheckInstrument) error
	FindByID(ctx context.Context, id uint) (*models.CheckInstrument, error)
	FindByPaymentEventID(ctx context.Context, paymentEventID string) (*models.CheckInstrument, error)
	FindByIntentID(ctx context.Context, intentID string) ([]models.CheckInstrument, error)
	Update(ctx context.Context, check *models.CheckInstrument) error
	List(ctx context.Context, query *ListQuery) ([]models.CheckInstrument, int64, error)
	FindDueBetween(ctx context.Context, from, to time.Time) ([]models.CheckInstrument, error)
}

type checkRepository struct {
	db *gorm.DB
}

// NewCheckRepository creates a new check repository
func NewCheckRepository(db *gorm.DB) CheckRepository {
	return &checkRepository{db: db}
}

func (r *checkRepository) Create(ctx context.Context, check *models.CheckInstrument) error {
	return r.db.WithContext(ctx).Create(check).Error
}

func (r *checkRepository) FindByID(ctx context.Context, id uint) (*models.CheckInstrument, error) {
	var check models.CheckInstrument
	if err := r.db.WithContext(ctx).First(&check, id).Error; err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) FindByPaymentEventID(ctx context.Context, paymentEventID string) (*models.CheckInstrument, error) {
	var check models.CheckInstrument
	err := r.db.WithContext(ctx).
		Where("payment_event_id = ?", paymentEventID).
		First(&check).Error
	if err != nil {
		return nil, err
	}
	return &check, nil
}

func (r *checkRepository) FindByIntentID(ctx context.Context, intentID string) ([]models.CheckInstrument, error) {
	var checks []models.CheckInstrument
	err := r.db.WithContext(ctx).
		Where("intent_id = ?", intentID).
		Order("id ASC").
		Find(&checks).Error
	return checks, err
}

func (r *checkRepository) Update(ctx context.Context, check *models.CheckInstrument) error {
	return r.db.WithContext(ctx).Save(check).Error
}

func (r *checkRepository) List(ctx context.Context, query *ListQuery) ([]models.CheckInstrument, int64, error) {
	var checks []models.CheckInstrument
	var total int64

	db := r.db.WithContext(ctx).Model(&models.CheckInstrument{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("reference_no ILIKE ? OR party_name ILIKE ? OR bank_name ILIKE ?", search, search, search)
	}

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if query.Filters["direction"] != "" {
		db = db.Where("direction = ?", query.Filters["direction"])
	}

	if query.Filters["shipment_id"] != "" {
		db = db.Where("shipment_id = ?", query.Filters["shipment_id"])
	}

	if query.Filters["due_before"] != "" {
		db = db.Where("due_date <= ?", query.Filters["due_before"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order([]string{"due_date", "amount", "created_at"}, "due_date ASC"))

	err := query.paginate(db).Find(&checks).Error
	return checks, total, err
}

// FindDueBetween returns pending checks whose due date falls in [from, to]
func (r *checkRepository) FindDueBetween(ctx context.Context, from, to time.Time) ([]models.CheckInstrument, error) {
	var checks []models.CheckInstrument
	err := r.db.WithContext(ctx).
		Where("status = ? AND due_date BETWEEN ? AND ?", models.CheckStatusPending, from, to).
		Order("due_date ASC").
		Find(&checks).Error
	return checks, err
}
