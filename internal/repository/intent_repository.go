package repository

import (
	"context"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// IntentRepository defines the interface for payment intent data access
type IntentRepository interface {
	Create(ctx context.Context, intent *models.PaymentIntent) error
	FindByID(ctx context.Context, id string) (*models.PaymentIntent, error)
	Update(ctx context.Context, intent *models.PaymentIntent) error
	List(ctx context.Context, query *ListQuery) ([]models.PaymentIntent, int64, error)
	FindStalePending(ctx context.Context, before time.Time) ([]models.PaymentIntent, error)
}

type intentRepository struct {
	db *gorm.DB
}

// NewIntentRepository creates a new payment intent repository
func NewIntentRepository(db *gorm.DB) IntentRepository {
	return &intentRepository{db: db}
}

func (r *intentRepository) Create(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Create(intent).Error
}

func (r *intentRepository) FindByID(ctx context.Context, id string) (*models.PaymentIntent, error) {
	var intent models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&intent).Error
	if err != nil {
		return nil, err
	}
	return &intent, nil
}

func (r *intentRepository) Update(ctx context.Context, intent *models.PaymentIntent) error {
	return r.db.WithContext(ctx).Save(intent).Error
}

func (r *intentRepository) List(ctx context.Context, query *ListQuery) ([]models.PaymentIntent, int64, error) {
	var intents []models.PaymentIntent
	var total int64

	db := r.db.WithContext(ctx).Model(&models.PaymentIntent{})

	if query.Filters["status"] != "" {
		db = db.Where("status = ?", query.Filters["status"])
	}

	if query.Filters["shipment_id"] != "" {
		db = db.Where("shipment_id = ?", query.Filters["shipment_id"])
	}

	if query.Filters["operation"] != "" {
		db = db.Where("operation = ?", query.Filters["operation"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order([]string{"created_at", "updated_at"}, "created_at DESC"))

	err := query.paginate(db).Find(&intents).Error
	return intents, total, err
}

// FindStalePending returns pending intents untouched since before
func (r *intentRepository) FindStalePending(ctx context.Context, before time.Time) ([]models.PaymentIntent, error) {
	var intents []models.PaymentIntent
	err := r.db.WithContext(ctx).
		Where("status = ? AND updated_at < ?", models.IntentStatusPending, before).
		Order("created_at ASC").
		Find(&intents).Error
	return intents, err
}
