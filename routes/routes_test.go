package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"handyconnect-server/config"
	"handyconnect-server/database"
	"handyconnect-server/models"
	"handyconnect-server/repository"
	"handyconnect-server/services"
	"handyconnect-server/types"
	"handyconnect-server/websocket"
)

type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, file services.ImageFile, folder string) (string, error) {
	if _, err := io.Copy(io.Discard, file.Content); err != nil {
		return "", err
	}
	return "https://img.example.com/" + folder + "/" + file.Filename, nil
}

type testServer struct {
	router *gin.Engine
	deps   Dependencies
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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

	cfg := &config.Config{
		Server: config.ServerConfig{Environment: "test", AllowedOrigins: []string{"*"}},
		JWT:    config.JWTConfig{Secret: "0123456789abcdef0123", ExpiryHours: 1},
	}

	customers := repository.NewCustomerRepository(db)
	workers := repository.NewWorkerRepository(db)
	bookings := repository.NewBookingRepository(db)
	admins := repository.NewAdminRepository(db)

	tokens := services.NewTokenService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	admin := services.NewAdminService(admins, workers, tokens)
	require.NoError(t, admin.SeedAdmin(context.Background(), config.AdminSeedConfig{
		Name: "Root", Email: "admin@example.com", Password: "admin-secret",
	}))

	deps := Dependencies{
		Config:   cfg,
		DB:       db,
		Tokens:   tokens,
		Auth:     services.NewAuthService(customers, workers, tokens, fakeUploader{}),
		Admin:    admin,
		Bookings: services.NewBookingService(bookings, workers, hub, true),
		Queries:  services.NewBookingQueryService(bookings, workers, true),
		Hub:      hub,
	}
	return &testServer{router: SetupRouter(deps), deps: deps}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) token(t *testing.T, p types.Principal) string {
	t.Helper()
	tok, err := s.deps.Tokens.Issue(p)
	require.NoError(t, err)
	return tok.Token
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type errorBody struct {
	Msg  string `json:"msg"`
	Kind string `json:"kind"`
}

type loginBody struct {
	Token string `json:"token"`
	User  struct {
		ID uint `json:"id"`
	} `json:"user"`
}

type bookingBody struct {
	Msg     string             `json:"msg"`
	Booking models.BookingView `json:"booking"`
}

func assertError(t *testing.T, w *httptest.ResponseRecorder, status int, kind string) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
	body := decode[errorBody](t, w)
	assert.Equal(t, kind, body.Kind)
	assert.NotEmpty(t, body.Msg)
}

func workerSignupRequest(t *testing.T, email string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fields := map[string]string{
		"name":            "Ravi Kumar",
		"phone":           "+919812345678",
		"email":           email,
		"password":        "secret123",
		"confirmPassword": "secret123",
		"city":            "Pune",
		"aadhaar":         "123412341234",
		"serviceType":     "Plumber",
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	for _, field := range []string{"profile", "aadhaarCard"} {
		part, err := mw.CreateFormFile(field, field+".jpg")
		require.NoError(t, err)
		_, err = part.Write([]byte("jpeg-bytes"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/worker/signup", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthGuards(t *testing.T) {
	s := newTestServer(t)
	workerToken := s.token(t, types.Principal{Kind: types.PrincipalWorker, ID: 1})

	assertError(t, s.do(t, http.MethodGet, "/api/bookings/mine", "", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	assertError(t, s.do(t, http.MethodGet, "/api/bookings/mine", "not-a-jwt", nil), http.StatusUnauthorized, "UNAUTHORIZED")
	assertError(t, s.do(t, http.MethodGet, "/api/bookings/mine", workerToken, nil), http.StatusForbidden, "FORBIDDEN")
	assertError(t, s.do(t, http.MethodGet, "/api/admin/workers", workerToken, nil), http.StatusForbidden, "FORBIDDEN")
	assertError(t, s.do(t, http.MethodGet, "/api/nope", "", nil), http.StatusNotFound, "NOT_FOUND")
}

func TestCustomerSignupLoginProfile(t *testing.T) {
	s := newTestServer(t)

	signup := map[string]string{
		"name": "Asha", "phone": "+919876543210", "email": "Asha@Example.com",
		"password": "secret123", "confirmPassword": "secret123", "city": "Pune",
	}
	w := s.do(t, http.MethodPost, "/api/auth/signup", "", signup)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.NotContains(t, w.Body.String(), "password")

	assertError(t, s.do(t, http.MethodPost, "/api/auth/signup", "", signup), http.StatusConflict, "CONFLICT")

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "wrong-pass"})
	assertError(t, w, http.StatusUnauthorized, "UNAUTHORIZED")

	w = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "asha@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	login := decode[loginBody](t, w)
	require.NotEmpty(t, login.Token)

	w = s.do(t, http.MethodPut, "/api/auth/profile", login.Token, map[string]string{"city": "Mumbai"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/auth/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	profile := decode[models.Customer](t, w)
	assert.Equal(t, "Mumbai", profile.City)
	assert.Equal(t, "asha@example.com", profile.Email)
}

func TestBadRequestBodies(t *testing.T) {
	s := newTestServer(t)
	customer := s.token(t, types.Principal{Kind: types.PrincipalCustomer, ID: 1})

	req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+customer)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assertError(t, w, http.StatusBadRequest, "VALIDATION_ERROR")

	req = httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewBufferString("hello"))
	req.Header.Set("Content-Type", "text/plain")
	req.Header.Set("Authorization", "Bearer "+customer)
	w = httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)

	assertError(t, s.do(t, http.MethodPut, "/api/bookings/abc/rating", customer, map[string]int{"rating": 5}),
		http.StatusBadRequest, "VALIDATION_ERROR")
	assertError(t, s.do(t, http.MethodPut, "/api/bookings/999/rating", customer, map[string]int{"rating": 5}),
		http.StatusNotFound, "NOT_FOUND")
}

func TestBookingLifecycleOverHTTP(t *testing.T) {
	s := newTestServer(t)

	// Worker signs up and waits for approval.
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, workerSignupRequest(t, "ravi@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	signed := decode[struct {
		User models.Worker `json:"user"`
	}](t, w)
	assert.Equal(t, models.WorkerStatusPending, signed.User.Status)
	assert.Equal(t, "https://img.example.com/profile/profile.jpg", signed.User.ProfilePhoto)

	w = s.do(t, http.MethodPost, "/api/worker/login", "", map[string]string{"email": "ravi@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	workerToken := decode[loginBody](t, w).Token

	assertError(t, s.do(t, http.MethodGet, "/api/bookings", workerToken, nil), http.StatusForbidden, "FORBIDDEN")

	// Admin approves.
	w = s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{"email": "admin@example.com", "password": "admin-secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	adminToken := decode[loginBody](t, w).Token

	w = s.do(t, http.MethodGet, "/api/admin/workers/pending", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]models.Worker](t, w)
	require.Len(t, pending, 1)

	path := fmt.Sprintf("/api/admin/workers/%d/approve", signed.User.ID)
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPut, path, adminToken, nil).Code)
	assertError(t, s.do(t, http.MethodPut, path, adminToken, nil), http.StatusBadRequest, "INVALID_STATE")

	w = s.do(t, http.MethodGet, "/api/admin/dashboard/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[models.WorkerStatusCounts](t, w)
	assert.Equal(t, int64(1), stats.Approved)
	assert.Equal(t, int64(1), stats.Total)

	// Customer books.
	customer := s.token(t, types.Principal{Kind: types.PrincipalCustomer, ID: 1})
	require.Equal(t, http.StatusCreated, s.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Asha", "phone": "+919876543210", "email": "asha@example.com",
		"password": "secret123", "confirmPassword": "secret123",
	}).Code)

	create := map[string]any{
		"serviceType":     "plumber",
		"problem":         "Kitchen sink leaking",
		"urgency":         "Urgent",
		"bookingFor":      "self",
		"serviceLocation": map[string]string{"address": "12 MG Road", "city": "PUNE"},
		"date":            "2026-10-20",
		"time":            "10:00-12:00",
		"contactName":     "Asha",
		"contactPhone":    "+919876543210",
		"contactEmail":    "asha@example.com",
	}
	w = s.do(t, http.MethodPost, "/api/bookings", customer, create)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[bookingBody](t, w).Booking
	assert.Equal(t, models.BookingStatusPending, created.Status)

	w = s.do(t, http.MethodGet, "/api/bookings", workerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	available := decode[[]models.BookingView](t, w)
	require.Len(t, available, 1)
	assert.Equal(t, created.ID, available[0].ID)

	w = s.do(t, http.MethodGet, "/api/bookings?city=Pune%20City", workerToken, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]models.BookingView](t, w))

	id := created.ID
	assertError(t, s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/decision", id), workerToken, map[string]string{"decision": "completed"}),
		http.StatusBadRequest, "VALIDATION_ERROR")

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/decision", id), workerToken, map[string]string{"status": "accepted"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	accepted := decode[bookingBody](t, w).Booking
	assert.Equal(t, models.BookingStatusAccepted, accepted.Status)
	require.NotNil(t, accepted.Worker)
	assert.Equal(t, "Ravi Kumar", accepted.Worker.Name)

	assertError(t, s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/decision", id), workerToken, map[string]string{"decision": "rejected"}),
		http.StatusBadRequest, "INVALID_STATE")
	assertError(t, s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/rating", id), customer, map[string]int{"rating": 5}),
		http.StatusBadRequest, "INVALID_STATE")

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/complete", id), workerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	stranger := s.token(t, types.Principal{Kind: types.PrincipalCustomer, ID: 42})
	assertError(t, s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/rating", id), stranger, map[string]int{"rating": 5}),
		http.StatusForbidden, "FORBIDDEN")

	w = s.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/rating", id), customer, map[string]any{"rating": 4, "review": "Quick fix"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rated := decode[bookingBody](t, w).Booking
	assert.Equal(t, models.BookingStatusRated, rated.Status)
	require.NotNil(t, rated.Rating)
	assert.Equal(t, 4, *rated.Rating)

	// Customer views.
	w = s.do(t, http.MethodGet, "/api/bookings/mine/categorized", customer, nil)
	require.Equal(t, http.StatusOK, w.Code)
	categorized := decode[models.CategorizedBookings](t, w)
	assert.Len(t, categorized.Rated, 1)
	assert.Empty(t, categorized.Pending)

	// Completed jobs: self and admin may read, other workers may not.
	jobsPath := fmt.Sprintf("/api/workers/%d/completed-jobs", signed.User.ID)
	w = s.do(t, http.MethodGet, jobsPath, workerToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	jobs := decode[models.CompletedJobs](t, w)
	assert.Equal(t, 1, jobs.Stats.TotalCompletedJobs)
	assert.Equal(t, 4.0, jobs.Stats.AverageRating)

	require.Equal(t, http.StatusOK, s.do(t, http.MethodGet, jobsPath, adminToken, nil).Code)
	other := s.token(t, types.Principal{Kind: types.PrincipalWorker, ID: signed.User.ID + 1})
	assertError(t, s.do(t, http.MethodGet, jobsPath, other, nil), http.StatusForbidden, "FORBIDDEN")
	assertError(t, s.do(t, http.MethodGet, jobsPath, customer, nil), http.StatusForbidden, "FORBIDDEN")
}

func TestAdminRejectRequiresReason(t *testing.T) {
	s := newTestServer(t)

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, workerSignupRequest(t, "ravi@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workerID := decode[struct {
		User models.Worker `json:"user"`
	}](t, w).User.ID

	admin := s.token(t, types.Principal{Kind: types.PrincipalAdmin, ID: 1})
	path := fmt.Sprintf("/api/admin/workers/%d/reject", workerID)

	assertError(t, s.do(t, http.MethodPut, path, admin, map[string]string{"reason": "  "}), http.StatusBadRequest, "VALIDATION_ERROR")

	w = s.do(t, http.MethodPut, path, admin, map[string]string{"reason": "Blurry Aadhaar photo"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/api/admin/workers/%d", workerID), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	worker := decode[models.Worker](t, w)
	assert.Equal(t, models.WorkerStatusRejected, worker.Status)
	require.NotNil(t, worker.RejectionReason)
	assert.Equal(t, "Blurry Aadhaar photo", *worker.RejectionReason)

	assertError(t, s.do(t, http.MethodGet, "/api/admin/workers?status=bogus", admin, nil), http.StatusBadRequest, "VALIDATION_ERROR")
	assertError(t, s.do(t, http.MethodGet, "/api/admin/workers/999", admin, nil), http.StatusNotFound, "NOT_FOUND")
}

func TestWebSocketFeedRequiresApprovedWorker(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, workerSignupRequest(t, "ravi@example.com"))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	workerID := decode[struct {
		User models.Worker `json:"user"`
	}](t, w).User.ID
	workerToken := s.token(t, types.Principal{Kind: types.PrincipalWorker, ID: workerID})

	assertError(t, s.do(t, http.MethodGet, "/api/ws?token="+workerToken, "", nil), http.StatusForbidden, "FORBIDDEN")

	_, err := s.deps.Admin.Approve(ctx, types.Principal{Kind: types.PrincipalAdmin, ID: 1}, workerID)
	require.NoError(t, err)

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	conn, _, err := gws.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/api/ws?token="+workerToken, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return s.deps.Hub.ConnectedClients() == 1 }, time.Second, 5*time.Millisecond)

	customer, err := s.deps.Auth.SignupCustomer(ctx, services.CustomerSignupInput{
		Name: "Asha", Phone: "+919876543210", Email: "asha@example.com",
		Password: "secret123", ConfirmPassword: "secret123",
	})
	require.NoError(t, err)

	_, err = s.deps.Bookings.Create(ctx, types.Principal{Kind: types.PrincipalCustomer, ID: customer.ID}, services.CreateBookingInput{
		ServiceType:     "Plumber",
		Problem:         "Kitchen sink leaking",
		Urgency:         models.UrgencyNormal,
		BookingFor:      models.BookingForSelf,
		ServiceLocation: services.ServiceLocationInput{Address: "1 MG Road", City: "Pune"},
		Date:            "2026-10-20",
		Time:            "10:00-12:00",
		ContactName:     "Asha",
		ContactPhone:    "+919876543210",
		ContactEmail:    "asha@example.com",
	})
	require.NoError(t, err)

	var event struct {
		Type string             `json:"type"`
		Data models.BookingView `json:"data"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "booking_created", event.Type)
	assert.Equal(t, "Pune", event.Data.ServiceLocation.City)
}
