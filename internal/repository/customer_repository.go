package repository

import (
	"context"
	"strings"

	"github.com/sjperalta/ordino-api/internal/models"
	"gorm.io/gorm"
)

// CustomerRepository defines the interface for customer data access
type CustomerRepository interface {
	FindByID(ctx context.Context, id uint) (*models.Customer, error)
	FindOrCreateByName(ctx context.Context, name string) (*models.Customer, error)
	List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error)
}

type customerRepository struct {
	db *gorm.DB
}

// NewCustomerRepository creates a new customer repository
func NewCustomerRepository(db *gorm.DB) CustomerRepository {
	return &customerRepository{db: db}
}

func (r *customerRepository) FindByID(ctx context.Context, id uint) (*models.Customer, error) {
	var customer models.Customer
	if err := r.db.WithContext(ctx).First(&customer, id).Error; err != nil {
		return nil, err
	}
	return &customer, nil
}

// FindOrCreateByName matches customers case-insensitively with collapsed whitespace
func (r *customerRepository) FindOrCreateByName(ctx context.Context, name string) (*models.Customer, error) {
	customer := models.Customer{}
	err := r.db.WithContext(ctx).
		Where(models.Customer{NameKey: models.CustomerNameKey(name)}).
		Attrs(models.Customer{Name: strings.Join(strings.Fields(name), " ")}).
		FirstOrCreate(&customer).Error
	if err != nil {
		return nil, err
	}
	return &customer, nil
}

func (r *customerRepository) List(ctx context.Context, query *ListQuery) ([]models.Customer, int64, error) {
	var customers []models.Customer
	var total int64

	db := r.db.WithContext(ctx).Model(&models.Customer{})

	if query.Search != "" {
		db = db.Where("name ILIKE ?", "%"+query.Search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	db = db.Order(query.order([]string{"name", "created_at"}, "name ASC"))

	err := query.paginate(db).Find(&customers).Error
	return customers, total, err
}
