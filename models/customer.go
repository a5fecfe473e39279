package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Customer struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name" gorm:"size:255;not null"`
	Email        string    `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"` // Hidden from JSON
	Phone        string    `json:"phone" gorm:"size:20;not null"`
	Address      string    `json:"address" gorm:"type:text"`
	City         string    `json:"city" gorm:"size:100"`
	State        string    `json:"state" gorm:"size:100"`
	Pincode      string    `json:"pincode" gorm:"size:20"`
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Customer model
func (Customer) TableName() string {
	return "customers"
}

// BeforeSave is a GORM hook normalizing the email so uniqueness is
// case-insensitive.
func (c *Customer) BeforeSave(tx *gorm.DB) error {
	c.Email = NormalizeEmail(c.Email)
	return nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
