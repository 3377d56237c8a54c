package repository

import (
	"context"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// AuditRepository defines the interface for audit log data access
type AuditRepository interface {
	Create(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error)
}

type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditRepository) List(ctx context.Context, query *ListQuery) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	db := r.db.WithContext(ctx).Model(&models.AuditLog{})

	for _, col := range []string{"entity", "entity_id", "action", "user_id"} {
		if v := query.Filters[col]; v != "" {
			db = db.Where(col+" = ?", v)
		}
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.paginate(db.Order("created_at DESC")).Find(&logs).Error
	return logs, total, err
}
