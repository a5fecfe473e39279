package services

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/jinzhu/now"

	"handyconnect-server/apperror"
	"handyconnect-server/models"
	"handyconnect-server/types"
)

// BookingQueryService serves read-only booking projections.
type BookingQueryService struct {
	bookings        BookingStore
	workers         WorkerDirectory
	requireApproval bool
	now             func() time.Time
}

func NewBookingQueryService(bookings BookingStore, workers WorkerDirectory, requireApproval bool) *BookingQueryService {
	return &BookingQueryService{
		bookings:        bookings,
		workers:         workers,
		requireApproval: requireApproval,
		now:             time.Now,
	}
}

// ListByCustomer returns the customer's bookings, newest first, with the
// accepting worker's contact details joined in.
func (q *BookingQueryService) ListByCustomer(ctx context.Context, principal types.Principal) ([]models.BookingView, error) {
	if !principal.IsCustomer() {
		return nil, apperror.NewForbiddenError("Only customers have bookings")
	}

	bookings, err := q.bookings.ListByCustomer(ctx, principal.ID)
	if err != nil {
		return nil, apperror.NewStoreError("fetch bookings", err)
	}
	return attachWorkers(ctx, q.workers, bookings)
}

// ListByCustomerCategorized partitions the customer's bookings by status.
func (q *BookingQueryService) ListByCustomerCategorized(ctx context.Context, principal types.Principal) (*models.CategorizedBookings, error) {
	views, err := q.ListByCustomer(ctx, principal)
	if err != nil {
		return nil, err
	}

	out := &models.CategorizedBookings{
		Pending:   []models.BookingView{},
		Accepted:  []models.BookingView{},
		Rejected:  []models.BookingView{},
		Completed: []models.BookingView{},
		Rated:     []models.BookingView{},
		Counts:    make(map[models.BookingStatus]int, len(models.BookingStatuses())),
	}
	for _, status := range models.BookingStatuses() {
		out.Counts[status] = 0
	}

	for _, v := range views {
		switch v.Status {
		case models.BookingStatusPending:
			out.Pending = append(out.Pending, v)
		case models.BookingStatusAccepted:
			out.Accepted = append(out.Accepted, v)
		case models.BookingStatusRejected:
			out.Rejected = append(out.Rejected, v)
		case models.BookingStatusCompleted:
			out.Completed = append(out.Completed, v)
		case models.BookingStatusRated:
			out.Rated = append(out.Rated, v)
		default:
			continue
		}
		out.Counts[v.Status]++
	}
	return out, nil
}

// ListAvailableForWorker returns pending bookings matching city and service
// type exactly, ignoring case. Empty filters fall back to the worker's profile.
func (q *BookingQueryService) ListAvailableForWorker(ctx context.Context, principal types.Principal, city, serviceType string) ([]models.BookingView, error) {
	if !principal.IsWorker() {
		return nil, apperror.NewForbiddenError("Only workers can browse available bookings")
	}

	worker, err := loadApprovedWorker(ctx, q.workers, principal.ID, q.requireApproval)
	if err != nil {
		return nil, err
	}

	city = strings.TrimSpace(city)
	serviceType = strings.TrimSpace(serviceType)
	if city == "" {
		city = strings.TrimSpace(worker.City)
	}
	if serviceType == "" {
		serviceType = strings.TrimSpace(worker.ServiceType)
	}
	if city == "" {
		return nil, apperror.NewValidationError("City is required")
	}
	if serviceType == "" {
		return nil, apperror.NewValidationError("Service type is required")
	}

	bookings, err := q.bookings.ListPending(ctx, city, serviceType)
	if err != nil {
		return nil, apperror.NewStoreError("fetch bookings", err)
	}

	views := make([]models.BookingView, len(bookings))
	for i := range bookings {
		views[i].Booking = bookings[i]
	}
	return views, nil
}

// FeedWorker returns the worker a live booking feed is opened for. It applies
// the same approval gate as ListAvailableForWorker.
func (q *BookingQueryService) FeedWorker(ctx context.Context, principal types.Principal) (*models.Worker, error) {
	if !principal.IsWorker() {
		return nil, apperror.NewForbiddenError("Only workers can subscribe to available bookings")
	}
	return loadApprovedWorker(ctx, q.workers, principal.ID, q.requireApproval)
}

// ListWorkerCompletedJobs returns the worker's finished jobs with rating
// statistics. Workers may only read their own history; admins read anyone's.
func (q *BookingQueryService) ListWorkerCompletedJobs(ctx context.Context, principal types.Principal, workerID uint) (*models.CompletedJobs, error) {
	switch {
	case principal.IsAdmin():
	case principal.IsWorker() && principal.ID == workerID:
	default:
		return nil, apperror.NewForbiddenError("You can only view your own completed jobs")
	}

	bookings, err := q.bookings.ListCompletedByWorker(ctx, workerID)
	if err != nil {
		return nil, apperror.NewStoreError("fetch completed jobs", err)
	}

	views, err := attachWorkers(ctx, q.workers, bookings)
	if err != nil {
		return nil, err
	}

	return &models.CompletedJobs{
		Jobs:  views,
		Stats: completedJobStats(bookings, q.now()),
	}, nil
}

func completedJobStats(bookings []models.Booking, at time.Time) models.CompletedJobStats {
	stats := models.CompletedJobStats{
		TotalCompletedJobs: len(bookings),
		RatingBreakdown:    map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
	}

	clock := now.With(at)
	weekStart := clock.BeginningOfWeek()
	monthStart := clock.BeginningOfMonth()

	sum := 0
	for _, b := range bookings {
		if b.Rating != nil {
			stats.TotalRatings++
			sum += *b.Rating
			stats.RatingBreakdown[*b.Rating]++
		}
		if b.CompletedAt != nil {
			if !b.CompletedAt.Before(weekStart) {
				stats.CompletedThisWeek++
			}
			if !b.CompletedAt.Before(monthStart) {
				stats.CompletedThisMonth++
			}
		}
	}

	if stats.TotalRatings > 0 {
		avg := float64(sum) / float64(stats.TotalRatings)
		stats.AverageRating = math.Round(avg*10) / 10
	}
	return stats
}
