package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/logger"
	"handyconnect-server/models"
	"handyconnect-server/repository"
	"handyconnect-server/types"
	"handyconnect-server/validation"
)

const maxReviewLength = 2000

// BookingStore is the persistence the lifecycle engine needs.
type BookingStore interface {
	Create(ctx context.Context, b *models.Booking) error
	GetByID(ctx context.Context, id uint) (*models.Booking, error)
	Transition(ctx context.Context, id uint, from, to models.BookingStatus, updates map[string]interface{}, guards ...repository.Guard) (bool, error)
	ListByCustomer(ctx context.Context, customerID uint) ([]models.Booking, error)
	ListPending(ctx context.Context, city, serviceType string) ([]models.Booking, error)
	ListCompletedByWorker(ctx context.Context, workerID uint) ([]models.Booking, error)
}

// WorkerDirectory resolves workers for authorization and read-time joins.
type WorkerDirectory interface {
	GetByID(ctx context.Context, id uint) (*models.Worker, error)
	Summaries(ctx context.Context, ids []uint) (map[uint]models.WorkerSummary, error)
}

// ServiceLocationInput is the job address of a new booking.
type ServiceLocationInput struct {
	Address string `json:"address" validate:"notblank"`
	City    string `json:"city" validate:"notblank"`
}

// CreateBookingInput is the customer's booking request.
type CreateBookingInput struct {
	ServiceType     string               `json:"serviceType" validate:"notblank,max=100"`
	Problem         string               `json:"problem" validate:"notblank"`
	Urgency         models.Urgency       `json:"urgency" validate:"required,oneof=Normal Urgent Emergency"`
	BookingFor      models.BookingFor    `json:"bookingFor" validate:"required,oneof=self other"`
	ServiceLocation ServiceLocationInput `json:"serviceLocation"`
	Date            string               `json:"date" validate:"notblank"`
	Time            string               `json:"time" validate:"notblank"`
	ContactName     string               `json:"contactName" validate:"notblank"`
	ContactPhone    string               `json:"contactPhone" validate:"notblank"`
	ContactEmail    string               `json:"contactEmail" validate:"required,email"`
}

// BookingService owns every booking state transition.
type BookingService struct {
	bookings        BookingStore
	workers         WorkerDirectory
	publisher       EventPublisher
	requireApproval bool
	now             func() time.Time
}

// NewBookingService creates the lifecycle engine. A nil publisher discards events.
func NewBookingService(bookings BookingStore, workers WorkerDirectory, publisher EventPublisher, requireApproval bool) *BookingService {
	if publisher == nil {
		publisher = nopPublisher{}
	}
	return &BookingService{
		bookings:        bookings,
		workers:         workers,
		publisher:       publisher,
		requireApproval: requireApproval,
		now:             time.Now,
	}
}

// Create records a new pending booking owned by the customer.
func (s *BookingService) Create(ctx context.Context, principal types.Principal, input CreateBookingInput) (*models.BookingView, error) {
	if !principal.IsCustomer() {
		return nil, apperror.NewForbiddenError("Only customers can create bookings")
	}
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	booking := &models.Booking{
		CustomerID:  principal.ID,
		ServiceType: strings.TrimSpace(input.ServiceType),
		Problem:     strings.TrimSpace(input.Problem),
		Urgency:     input.Urgency,
		BookingFor:  input.BookingFor,
		ServiceLocation: models.ServiceLocation{
			Address: strings.TrimSpace(input.ServiceLocation.Address),
			City:    strings.TrimSpace(input.ServiceLocation.City),
		},
		Date:         strings.TrimSpace(input.Date),
		Time:         strings.TrimSpace(input.Time),
		ContactName:  strings.TrimSpace(input.ContactName),
		ContactPhone: strings.TrimSpace(input.ContactPhone),
		ContactEmail: models.NormalizeEmail(input.ContactEmail),
		Status:       models.BookingStatusPending,
	}

	if err := s.bookings.Create(ctx, booking); err != nil {
		return nil, apperror.NewStoreError("create booking", err)
	}

	logger.Info("✅ Booking created",
		zap.Uint("booking_id", booking.ID),
		zap.Uint("customer_id", booking.CustomerID),
		zap.String("service_type", booking.ServiceType),
		zap.String("city", booking.ServiceLocation.City))

	view := &models.BookingView{Booking: *booking}
	s.publisher.PublishBookingEvent(BookingEvent{Type: EventBookingCreated, Booking: *view})
	return view, nil
}

// Decide lets a matching worker accept or reject a pending booking.
func (s *BookingService) Decide(ctx context.Context, bookingID uint, principal types.Principal, decision models.BookingStatus) (*models.BookingView, error) {
	if !principal.IsWorker() {
		return nil, apperror.NewForbiddenError("Only workers can accept or reject bookings")
	}
	if decision != models.BookingStatusAccepted && decision != models.BookingStatusRejected {
		return nil, apperror.NewValidationError("Invalid status")
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusPending {
		return nil, apperror.NewInvalidStateError("Booking is no longer pending")
	}

	worker, err := s.authorizeWorker(ctx, principal.ID)
	if err != nil {
		return nil, err
	}
	if !worker.Serves(booking.ServiceType, booking.ServiceLocation.City) {
		return nil, apperror.NewForbiddenError("Booking does not match your service type and city")
	}

	var updates map[string]interface{}
	if decision == models.BookingStatusAccepted {
		updates = map[string]interface{}{
			"accepted_by": worker.ID,
			"accepted_at": s.now(),
		}
	}

	ok, err := s.bookings.Transition(ctx, bookingID, models.BookingStatusPending, decision, updates)
	if err != nil {
		return nil, apperror.NewStoreError("update booking", err)
	}
	if !ok {
		return nil, s.transitionLost(ctx, bookingID, "Booking is no longer pending")
	}

	logger.Info("✅ Booking decided",
		zap.Uint("booking_id", bookingID),
		zap.Uint("worker_id", worker.ID),
		zap.String("status", string(decision)))

	return s.reloadAndPublish(ctx, bookingID)
}

// Complete marks an accepted booking as done by the worker who accepted it.
func (s *BookingService) Complete(ctx context.Context, bookingID uint, principal types.Principal) (*models.BookingView, error) {
	if !principal.IsWorker() {
		return nil, apperror.NewForbiddenError("Only workers can complete bookings")
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsAcceptedBy(principal.ID) {
		return nil, apperror.NewForbiddenError("Only the worker who accepted this booking can complete it")
	}
	if booking.Status != models.BookingStatusAccepted {
		return nil, apperror.NewInvalidStateError("Only accepted bookings can be completed")
	}

	ok, err := s.bookings.Transition(ctx, bookingID, models.BookingStatusAccepted, models.BookingStatusCompleted,
		map[string]interface{}{"completed_at": s.now()},
		repository.Guard{Column: "accepted_by", Value: principal.ID})
	if err != nil {
		return nil, apperror.NewStoreError("update booking", err)
	}
	if !ok {
		return nil, s.transitionLost(ctx, bookingID, "Only accepted bookings can be completed")
	}

	logger.Info("✅ Booking completed", zap.Uint("booking_id", bookingID), zap.Uint("worker_id", principal.ID))

	return s.reloadAndPublish(ctx, bookingID)
}

// Rate records the owner's rating and review of a completed booking.
func (s *BookingService) Rate(ctx context.Context, bookingID uint, principal types.Principal, rating int, review string) (*models.BookingView, error) {
	if !principal.IsCustomer() {
		return nil, apperror.NewForbiddenError("Only customers can rate bookings")
	}
	if rating < 1 || rating > 5 {
		return nil, apperror.NewValidationError("Rating must be between 1 and 5")
	}
	review = strings.TrimSpace(review)
	if len(review) > maxReviewLength {
		return nil, apperror.NewValidationError("Review is too long")
	}

	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !booking.IsOwnedBy(principal.ID) {
		return nil, apperror.NewForbiddenError("You can only rate your own bookings")
	}
	if booking.Status != models.BookingStatusCompleted {
		return nil, apperror.NewInvalidStateError("Only completed bookings can be rated")
	}

	ok, err := s.bookings.Transition(ctx, bookingID, models.BookingStatusCompleted, models.BookingStatusRated,
		map[string]interface{}{
			"rating":   rating,
			"review":   review,
			"rated_at": s.now(),
		},
		repository.Guard{Column: "customer_id", Value: principal.ID})
	if err != nil {
		return nil, apperror.NewStoreError("update booking", err)
	}
	if !ok {
		return nil, s.transitionLost(ctx, bookingID, "Only completed bookings can be rated")
	}

	logger.Info("⭐ Booking rated",
		zap.Uint("booking_id", bookingID),
		zap.Uint("customer_id", principal.ID),
		zap.Int("rating", rating))

	return s.reloadAndPublish(ctx, bookingID)
}

func (s *BookingService) load(ctx context.Context, bookingID uint) (*models.Booking, error) {
	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFoundError("Booking not found")
		}
		return nil, apperror.NewStoreError("load booking", err)
	}
	return booking, nil
}

// authorizeWorker loads the acting worker and enforces approval gating.
func (s *BookingService) authorizeWorker(ctx context.Context, workerID uint) (*models.Worker, error) {
	return loadApprovedWorker(ctx, s.workers, workerID, s.requireApproval)
}

func loadApprovedWorker(ctx context.Context, workers WorkerDirectory, workerID uint, requireApproval bool) (*models.Worker, error) {
	worker, err := workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewUnauthorizedError("Worker account not found")
		}
		return nil, apperror.NewStoreError("load worker", err)
	}
	if requireApproval && !worker.IsApproved() {
		return nil, apperror.NewForbiddenError("Your account is awaiting admin approval")
	}
	return worker, nil
}

// transitionLost explains a conditional update that matched no row: the
// booking either vanished or changed state concurrently.
func (s *BookingService) transitionLost(ctx context.Context, bookingID uint, message string) error {
	if _, err := s.load(ctx, bookingID); err != nil {
		return err
	}
	logger.Warn("⚠️  Booking transition lost a concurrent update", zap.Uint("booking_id", bookingID))
	return apperror.NewInvalidStateError(message)
}

func (s *BookingService) reloadAndPublish(ctx context.Context, bookingID uint) (*models.BookingView, error) {
	booking, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	views, err := attachWorkers(ctx, s.workers, []models.Booking{*booking})
	if err != nil {
		return nil, err
	}

	s.publisher.PublishBookingEvent(BookingEvent{Type: EventBookingUpdated, Booking: views[0]})
	return &views[0], nil
}

// attachWorkers joins the accepting worker's summary onto each booking.
func attachWorkers(ctx context.Context, workers WorkerDirectory, bookings []models.Booking) ([]models.BookingView, error) {
	seen := make(map[uint]struct{})
	var ids []uint
	for i := range bookings {
		if id := bookings[i].AcceptedBy; id != nil {
			if _, ok := seen[*id]; !ok {
				seen[*id] = struct{}{}
				ids = append(ids, *id)
			}
		}
	}

	summaries, err := workers.Summaries(ctx, ids)
	if err != nil {
		return nil, apperror.NewStoreError("load worker details", err)
	}

	views := make([]models.BookingView, len(bookings))
	for i := range bookings {
		views[i].Booking = bookings[i]
		if id := bookings[i].AcceptedBy; id != nil {
			if summary, ok := summaries[*id]; ok {
				views[i].Worker = &summary
			}
		}
	}
	return views, nil
}
