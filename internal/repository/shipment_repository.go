package repository

import (
	"context"
	"time"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// ShipmentRepository defines the interface for shipment data access
type ShipmentRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Shipment, error)
	FindByReference(ctx context.Context, referenceNo string) (*models.Shipment, error)
	Create(ctx context.Context, shipment *models.Shipment) error
	UpdateManifest(ctx context.Context, id uint, expectedVersion int64, manifest models.Manifest) (int64, error)
	List(ctx context.Context, query *ListQuery) ([]models.Shipment, int64, error)
}

type shipmentRepository struct {
	db *gorm.DB
}

// NewShipmentRepository creates a new shipment repository
func NewShipmentRepository(db *gorm.DB) ShipmentRepository {
	return &shipmentRepository{db: db}
}

func (r *shipmentRepository) FindByID(ctx context.Context, id uint) (*models.Shipment, error) {
	var shipment models.Shipment
	if err := r.db.WithContext(ctx).First(&shipment, id).Error; err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) FindByReference(ctx context.Context, referenceNo string) (*models.Shipment, error) {
	var shipment models.Shipment
	err := r.db.WithContext(ctx).
		Where("UPPER(reference_no) = UPPER(?)", referenceNo).
		First(&shipment).Error
	if err != nil {
		return nil, err
	}
	return &shipment, nil
}

func (r *shipmentRepository) Create(ctx context.Context, shipment *models.Shipment) error {
	if shipment.Manifest == nil {
		shipment.Manifest = models.Manifest{}
	}
	if shipment.Version == 0 {
		shipment.Version = 1
	}
	return r.db.WithContext(ctx).Create(shipment).Error
}

// UpdateManifest replaces the manifest only if the stored version still equals
// expectedVersion, and returns the new version.
func (r *shipmentRepository) UpdateManifest(ctx context.Context, id uint, expectedVersion int64, manifest models.Manifest) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Shipment{}).
		Where("id = ? AND version = ?", id, expectedVersion).
		Updates(map[string]interface{}{
			"manifest":   manifest,
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, ErrStaleVersion
	}
	return expectedVersion + 1, nil
}

func (r *shipmentRepository) List(ctx context.Context, query *ListQuery) ([]models.Shipment, int64, error) {
	var shipments []models.Shipment
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Shipment{})

	if query.Search != "" {
		search := "%" + query.Search + "%"
		db = db.Where("reference_no ILIKE ? OR vessel_name ILIKE ?", search, search)
	}

	if query.Filters["customs_office"] != "" {
		db = db.Where("customs_office = ?", query.Filters["customs_office"])
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order([]string{"reference_no", "arrival_date", "created_at"}, "created_at DESC"))

	err := query.paginate(db).Find(&shipments).Error
	return shipments, total, err
}
