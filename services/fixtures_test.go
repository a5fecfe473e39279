package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"handyconnect-server/database"
	"handyconnect-server/models"
	"handyconnect-server/repository"
	"handyconnect-server/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.AutoMigrate(db))
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []BookingEvent
}

func (p *recordingPublisher) PublishBookingEvent(e BookingEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) eventTypes() []EventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]EventType, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

type fixture struct {
	db        *gorm.DB
	bookings  *repository.BookingRepository
	workers   *repository.WorkerRepository
	customers *repository.CustomerRepository
	events    *recordingPublisher
	svc       *BookingService
	query     *BookingQueryService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	f := &fixture{
		db:        db,
		bookings:  repository.NewBookingRepository(db),
		workers:   repository.NewWorkerRepository(db),
		customers: repository.NewCustomerRepository(db),
		events:    &recordingPublisher{},
	}
	f.svc = NewBookingService(f.bookings, f.workers, f.events, true)
	f.query = NewBookingQueryService(f.bookings, f.workers, true)
	return f
}

func (f *fixture) customer(t *testing.T, email string) types.Principal {
	t.Helper()
	c := &models.Customer{Name: "Customer " + email, Email: email, PasswordHash: "x", Phone: "+919876543210"}
	require.NoError(t, f.customers.Create(context.Background(), c))
	return types.Principal{Kind: types.PrincipalCustomer, ID: c.ID}
}

func (f *fixture) worker(t *testing.T, email, serviceType, city string, status models.WorkerStatus) types.Principal {
	t.Helper()
	w := &models.Worker{
		Name:         "Worker " + email,
		Email:        email,
		PasswordHash: "x",
		Phone:        "+919812345678",
		City:         city,
		Aadhaar:      "123412341234",
		ServiceType:  serviceType,
		ProfilePhoto: "https://img.example.com/" + email + ".jpg",
		Status:       status,
	}
	require.NoError(t, f.workers.Create(context.Background(), w))
	return types.Principal{Kind: types.PrincipalWorker, ID: w.ID}
}

func (f *fixture) reload(t *testing.T, id uint) *models.Booking {
	t.Helper()
	b, err := f.bookings.GetByID(context.Background(), id)
	require.NoError(t, err)
	return b
}

func (f *fixture) setNow(at time.Time) {
	f.svc.now = func() time.Time { return at }
	f.query.now = func() time.Time { return at }
}

func validInput() CreateBookingInput {
	return CreateBookingInput{
		ServiceType: "Plumber",
		Problem:     "Kitchen sink leaking",
		Urgency:     models.UrgencyUrgent,
		BookingFor:  models.BookingForSelf,
		ServiceLocation: ServiceLocationInput{
			Address: "12 MG Road",
			City:    "Pune",
		},
		Date:         "2026-10-20",
		Time:         "10:00-12:00",
		ContactName:  "Asha",
		ContactPhone: "+919876543210",
		ContactEmail: "asha@example.com",
	}
}

func newTestTokenService() *TokenService {
	ts := NewTokenService("test-secret-at-least-16", 24)
	ts.cost = bcrypt.MinCost
	return ts
}
