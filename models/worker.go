package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// WorkerStatus is the admin approval state of a worker registration.
type WorkerStatus string

const (
	WorkerStatusPending  WorkerStatus = "pending"
	WorkerStatusApproved WorkerStatus = "approved"
	WorkerStatusRejected WorkerStatus = "rejected"
)

// Valid reports whether s is a known approval state.
func (s WorkerStatus) Valid() bool {
	switch s {
	case WorkerStatusPending, WorkerStatusApproved, WorkerStatusRejected:
		return true
	default:
		return false
	}
}

// Worker represents a service provider's account and professional profile
type Worker struct {
	ID              uint         `json:"id" gorm:"primaryKey"`
	Name            string       `json:"name" gorm:"size:255;not null"`
	Email           string       `json:"email" gorm:"size:255;uniqueIndex;not null"`
	PasswordHash    string       `json:"-" gorm:"size:255;not null"`
	Phone           string       `json:"phone" gorm:"size:20;not null"`
	Address         string       `json:"address" gorm:"type:text"`
	City            string       `json:"city" gorm:"size:100;index"`
	State           string       `json:"state" gorm:"size:100"`
	Pincode         string       `json:"pincode" gorm:"size:20"`
	Aadhaar         string       `json:"aadhaar" gorm:"size:20;not null"`
	ProfilePhoto    string       `json:"profilePhoto" gorm:"size:500"`
	AadhaarPhoto    string       `json:"aadhaarPhoto" gorm:"size:500"`
	ServiceType     string       `json:"serviceType" gorm:"size:100;not null;index"`
	Status          WorkerStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	RejectionReason *string      `json:"rejectionReason" gorm:"type:text"`
	ApprovedBy      *uint        `json:"approvedBy"`
	ApprovedAt      *time.Time   `json:"approvedAt"`
	CreatedAt       time.Time    `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt       time.Time    `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Worker model
func (Worker) TableName() string {
	return "workers"
}

func (w *Worker) BeforeSave(tx *gorm.DB) error {
	w.Email = NormalizeEmail(w.Email)
	return nil
}

// IsApproved reports whether an admin approved the worker.
func (w *Worker) IsApproved() bool {
	return w.Status == WorkerStatusApproved
}

// Serves reports whether the worker's trade and city match, ignoring case
// and surrounding whitespace.
func (w *Worker) Serves(serviceType, city string) bool {
	return strings.EqualFold(strings.TrimSpace(w.ServiceType), strings.TrimSpace(serviceType)) &&
		strings.EqualFold(strings.TrimSpace(w.City), strings.TrimSpace(city))
}

// Summary returns the public fields embedded into booking responses.
func (w *Worker) Summary() WorkerSummary {
	return WorkerSummary{
		ID:           w.ID,
		Name:         w.Name,
		Phone:        w.Phone,
		Email:        w.Email,
		ServiceType:  w.ServiceType,
		City:         w.City,
		ProfilePhoto: w.ProfilePhoto,
	}
}

// WorkerSummary is the worker contact card shown to customers.
type WorkerSummary struct {
	ID           uint   `json:"id"`
	Name         string `json:"name"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	ServiceType  string `json:"serviceType"`
	City         string `json:"city"`
	ProfilePhoto string `json:"profilePhoto"`
}

// WorkerStatusCounts backs the admin dashboard.
type WorkerStatusCounts struct {
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Total    int64 `json:"total"`
}
