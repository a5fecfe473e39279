package models

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusPending   BookingStatus = "pending"
	BookingStatusAccepted  BookingStatus = "accepted"
	BookingStatusRejected  BookingStatus = "rejected"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusRated     BookingStatus = "rated"
)

// BookingStatuses lists every status in lifecycle order.
func BookingStatuses() []BookingStatus {
	return []BookingStatus{
		BookingStatusPending,
		BookingStatusAccepted,
		BookingStatusRejected,
		BookingStatusCompleted,
		BookingStatusRated,
	}
}

// IsTerminal reports whether no further transition is possible.
func (s BookingStatus) IsTerminal() bool {
	return s == BookingStatusRejected || s == BookingStatusRated
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	switch s {
	case BookingStatusPending:
		return next == BookingStatusAccepted || next == BookingStatusRejected
	case BookingStatusAccepted:
		return next == BookingStatusCompleted
	case BookingStatusCompleted:
		return next == BookingStatusRated
	default:
		return false
	}
}

type Urgency string

const (
	UrgencyNormal    Urgency = "Normal"
	UrgencyUrgent    Urgency = "Urgent"
	UrgencyEmergency Urgency = "Emergency"
)

type BookingFor string

const (
	BookingForSelf  BookingFor = "self"
	BookingForOther BookingFor = "other"
)

// ServiceLocation is where the job takes place.
type ServiceLocation struct {
	Address string `json:"address" gorm:"type:text;not null"`
	City    string `json:"city" gorm:"type:varchar(100);not null;index"`
}

type Booking struct {
	ID              uint            `json:"id" gorm:"primaryKey"`
	CustomerID      uint            `json:"customerId" gorm:"not null;index"`
	ServiceType     string          `json:"serviceType" gorm:"type:varchar(100);not null;index"`
	Problem         string          `json:"problem" gorm:"type:text;not null"`
	Urgency         Urgency         `json:"urgency" gorm:"type:varchar(20);not null"`
	BookingFor      BookingFor      `json:"bookingFor" gorm:"type:varchar(10);not null;default:'self'"`
	ServiceLocation ServiceLocation `json:"serviceLocation" gorm:"embedded;embeddedPrefix:service_location_"`
	Date            string          `json:"date" gorm:"type:varchar(20);not null"`
	Time            string          `json:"time" gorm:"type:varchar(20);not null"`
	ContactName     string          `json:"contactName" gorm:"size:255;not null"`
	ContactPhone    string          `json:"contactPhone" gorm:"size:20;not null"`
	ContactEmail    string          `json:"contactEmail" gorm:"size:255;not null"`

	Status      BookingStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	AcceptedBy  *uint         `json:"acceptedBy" gorm:"index"`
	AcceptedAt  *time.Time    `json:"acceptedAt"`
	CompletedAt *time.Time    `json:"completedAt"`
	Rating      *int          `json:"rating"`
	Review      *string       `json:"review" gorm:"type:text"`
	RatedAt     *time.Time    `json:"ratedAt"`

	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for the Booking model
func (Booking) TableName() string {
	return "bookings"
}

// IsAcceptedBy reports whether workerID accepted the booking.
func (b *Booking) IsAcceptedBy(workerID uint) bool {
	return b.AcceptedBy != nil && *b.AcceptedBy == workerID
}

// IsOwnedBy reports whether customerID created the booking.
func (b *Booking) IsOwnedBy(customerID uint) bool {
	return b.CustomerID == customerID
}

// CheckInvariants verifies that lifecycle fields agree with the status.
func (b *Booking) CheckInvariants() bool {
	accepted := b.Status == BookingStatusAccepted || b.Status == BookingStatusCompleted || b.Status == BookingStatusRated
	completed := b.Status == BookingStatusCompleted || b.Status == BookingStatusRated
	rated := b.Status == BookingStatusRated

	if (b.AcceptedBy != nil) != accepted || (b.AcceptedAt != nil) != accepted {
		return false
	}
	if (b.CompletedAt != nil) != completed {
		return false
	}
	if (b.Rating != nil) != rated || (b.Review != nil) != rated || (b.RatedAt != nil) != rated {
		return false
	}
	if b.Rating != nil && (*b.Rating < 1 || *b.Rating > 5) {
		return false
	}
	return true
}

// BookingView is a booking with the accepting worker joined in at read time.
type BookingView struct {
	Booking
	Worker *WorkerSummary `json:"worker,omitempty"`
}

// CategorizedBookings partitions a customer's bookings by status.
type CategorizedBookings struct {
	Pending   []BookingView         `json:"pending"`
	Accepted  []BookingView         `json:"accepted"`
	Rejected  []BookingView         `json:"rejected"`
	Completed []BookingView         `json:"completed"`
	Rated     []BookingView         `json:"rated"`
	Counts    map[BookingStatus]int `json:"counts"`
}

// CompletedJobStats aggregates a worker's finished jobs.
type CompletedJobStats struct {
	TotalCompletedJobs int         `json:"totalCompletedJobs"`
	TotalRatings       int         `json:"totalRatings"`
	AverageRating      float64     `json:"averageRating"`
	RatingBreakdown    map[int]int `json:"ratingBreakdown"`
	CompletedThisWeek  int         `json:"completedThisWeek"`
	CompletedThisMonth int         `json:"completedThisMonth"`
}

// CompletedJobs is the worker dashboard payload.
type CompletedJobs struct {
	Jobs  []BookingView     `json:"jobs"`
	Stats CompletedJobStats `json:"stats"`
}
