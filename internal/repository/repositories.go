package repository

import (
	"gorm.io/gorm"
)

// Repositories holds all repository instances
type Repositories struct {
	Shipment ShipmentRepository
	Check    CheckRepository
	Finance  FinanceRepository
	Intent   IntentRepository
	Customer CustomerRepository
	Audit    AuditRepository
}

// NewRepositories creates all repository instances
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Shipment: NewShipmentRepository(db),
		Check:    NewCheckRepository(db),
		Finance:  NewFinanceRepository(db),
		Intent:   NewIntentRepository(db),
		Customer: NewCustomerRepository(db),
		Audit:    NewAuditRepository(db),
	}
}
