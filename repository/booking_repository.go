package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"handyconnect-server/models"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("record not found")

// Guard is an extra equality condition a transition must satisfy.
type Guard struct {
	Column string
	Value  interface{}
}

type BookingRepository struct {
	DB *gorm.DB
}

func NewBookingRepository(db *gorm.DB) *BookingRepository {
	return &BookingRepository{DB: db}
}

func (r *BookingRepository) Create(ctx context.Context, b *models.Booking) error {
	return r.DB.WithContext(ctx).Create(b).Error
}

func (r *BookingRepository) GetByID(ctx context.Context, id uint) (*models.Booking, error) {
	var b models.Booking
	if err := r.DB.WithContext(ctx).First(&b, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// Transition moves a booking from one status to another in a single
// conditional UPDATE. It reports false when no row matched id, from and
// every guard, leaving the row untouched.
func (r *BookingRepository) Transition(ctx context.Context, id uint, from, to models.BookingStatus, updates map[string]interface{}, guards ...Guard) (bool, error) {
	if !from.CanTransitionTo(to) {
		return false, fmt.Errorf("illegal transition %s -> %s", from, to)
	}

	values := make(map[string]interface{}, len(updates)+2)
	for k, v := range updates {
		values[k] = v
	}
	values["status"] = to
	values["updated_at"] = time.Now()

	q := r.DB.WithContext(ctx).Model(&models.Booking{}).
		Where("id = ? AND status = ?", id, from)
	for _, g := range guards {
		q = q.Where(fmt.Sprintf("%s = ?", g.Column), g.Value)
	}

	res := q.Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ListByCustomer returns the customer's bookings, newest first.
func (r *BookingRepository) ListByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.DB.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListPending returns pending bookings whose city and service type equal the
// inputs, ignoring case and surrounding whitespace. Newest first.
func (r *BookingRepository) ListPending(ctx context.Context, city, serviceType string) ([]models.Booking, error) {
	var out []models.Booking
	err := r.DB.WithContext(ctx).
		Where("status = ?", models.BookingStatusPending).
		Where("LOWER(TRIM(service_location_city)) = LOWER(TRIM(?))", city).
		Where("LOWER(TRIM(service_type)) = LOWER(TRIM(?))", serviceType).
		Order("created_at DESC, id DESC").
		Find(&out).Error
	return out, err
}

// ListCompletedByWorker returns completed and rated jobs of the worker,
// most recent completion first.
func (r *BookingRepository) ListCompletedByWorker(ctx context.Context, workerID uint) ([]models.Booking, error) {
	var out []models.Booking
	err := r.DB.WithContext(ctx).
		Where("accepted_by = ? AND status IN ?", workerID,
			[]models.BookingStatus{models.BookingStatusCompleted, models.BookingStatusRated}).
		Order("completed_at DESC, id DESC").
		Find(&out).Error
	return out, err
}
