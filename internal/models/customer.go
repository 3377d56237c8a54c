package models

import (
	"strings"
	"time"
)

// Customer is a billed party resolved by name during manifest import
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null" json:"name"`
	NameKey   string    `gorm:"size:200;not null;uniqueIndex" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Customer
func (Customer) TableName() string {
	return "customers"
}

// CustomerNameKey normalizes a customer name for case-insensitive matching
func CustomerNameKey(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
