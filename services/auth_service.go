package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/logger"
	"handyconnect-server/models"
	"handyconnect-server/repository"
	"handyconnect-server/types"
	"handyconnect-server/validation"
)

// CustomerStore persists customer accounts.
type CustomerStore interface {
	Create(ctx context.Context, c *models.Customer) error
	Save(ctx context.Context, c *models.Customer) error
	GetByID(ctx context.Context, id uint) (*models.Customer, error)
	GetByEmail(ctx context.Context, email string) (*models.Customer, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

// WorkerStore persists worker accounts.
type WorkerStore interface {
	Create(ctx context.Context, w *models.Worker) error
	Save(ctx context.Context, w *models.Worker) error
	GetByID(ctx context.Context, id uint) (*models.Worker, error)
	GetByEmail(ctx context.Context, email string) (*models.Worker, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

type CustomerSignupInput struct {
	Name            string `json:"name" validate:"notblank,max=255"`
	Phone           string `json:"phone" validate:"required,phone"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
	Address         string `json:"address"`
	City            string `json:"city"`
	State           string `json:"state"`
	Pincode         string `json:"pincode"`
}

type WorkerSignupInput struct {
	Name            string `form:"name" validate:"notblank,max=255"`
	Phone           string `form:"phone" validate:"required,phone"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required,min=6"`
	ConfirmPassword string `form:"confirmPassword" validate:"required"`
	Address         string `form:"address"`
	City            string `form:"city" validate:"notblank"`
	State           string `form:"state"`
	Pincode         string `form:"pincode"`
	Aadhaar         string `form:"aadhaar" validate:"notblank,max=20"`
	ServiceType     string `form:"serviceType" validate:"notblank,max=100"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ProfileUpdate carries optional profile changes. Nil fields are left as is.
type ProfileUpdate struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=255"`
	Email       *string `json:"email" validate:"omitempty,email"`
	Phone       *string `json:"phone" validate:"omitempty,phone"`
	Address     *string `json:"address"`
	City        *string `json:"city" validate:"omitempty,notblank"`
	State       *string `json:"state"`
	Pincode     *string `json:"pincode"`
	ServiceType *string `json:"serviceType" validate:"omitempty,notblank,max=100"`
	Password    *string `json:"password" validate:"omitempty,min=6"`
}

// LoginResult pairs a token with the authenticated account.
type LoginResult struct {
	AuthToken
	User interface{} `json:"user"`
}

// AuthService handles customer and worker accounts.
type AuthService struct {
	customers CustomerStore
	workers   WorkerStore
	tokens    *TokenService
	uploader  ImageUploader
}

// NewAuthService creates the account service. A nil uploader disables worker signup.
func NewAuthService(customers CustomerStore, workers WorkerStore, tokens *TokenService, uploader ImageUploader) *AuthService {
	return &AuthService{
		customers: customers,
		workers:   workers,
		tokens:    tokens,
		uploader:  uploader,
	}
}

func (s *AuthService) SignupCustomer(ctx context.Context, input CustomerSignupInput) (*models.Customer, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperror.NewValidationError("Passwords do not match")
	}

	exists, err := s.customers.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewStoreError("check email", err)
	}
	if exists {
		return nil, apperror.NewConflictError("User already exists")
	}

	hash, err := s.tokens.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewStoreError("hash password", err)
	}

	customer := &models.Customer{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		Pincode:      strings.TrimSpace(input.Pincode),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperror.NewStoreError("create account", err)
	}

	logger.Info("✅ Customer registered", zap.Uint("customer_id", customer.ID))
	return customer, nil
}

func (s *AuthService) LoginCustomer(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	customer, err := s.customers.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewStoreError("load account", err)
	}
	if customer == nil || !s.tokens.CheckPasswordHash(input.Password, customer.PasswordHash) {
		return nil, apperror.NewUnauthorizedError("Invalid credentials")
	}

	return s.issue(types.Principal{Kind: types.PrincipalCustomer, ID: customer.ID}, customer)
}

func (s *AuthService) CustomerProfile(ctx context.Context, principal types.Principal) (*models.Customer, error) {
	if !principal.IsCustomer() {
		return nil, apperror.NewForbiddenError("Customer access required")
	}
	customer, err := s.customers.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFoundError("User not found")
		}
		return nil, apperror.NewStoreError("load profile", err)
	}
	return customer, nil
}

func (s *AuthService) UpdateCustomerProfile(ctx context.Context, principal types.Principal, update ProfileUpdate) (*models.Customer, error) {
	if err := validation.Struct(update); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}
	if update.ServiceType != nil {
		return nil, apperror.NewValidationError("serviceType cannot be set on a customer profile")
	}

	customer, err := s.CustomerProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	if update.Email != nil && models.NormalizeEmail(*update.Email) != customer.Email {
		exists, err := s.customers.EmailExists(ctx, *update.Email)
		if err != nil {
			return nil, apperror.NewStoreError("check email", err)
		}
		if exists {
			return nil, apperror.NewConflictError("Email already registered")
		}
		customer.Email = *update.Email
	}
	applyString(&customer.Name, update.Name)
	applyString(&customer.Phone, update.Phone)
	applyString(&customer.Address, update.Address)
	applyString(&customer.City, update.City)
	applyString(&customer.State, update.State)
	applyString(&customer.Pincode, update.Pincode)
	if update.Password != nil {
		if customer.PasswordHash, err = s.tokens.HashPassword(*update.Password); err != nil {
			return nil, apperror.NewStoreError("hash password", err)
		}
	}

	if err := s.customers.Save(ctx, customer); err != nil {
		return nil, apperror.NewStoreError("update profile", err)
	}
	return customer, nil
}

// SignupWorker registers a worker pending admin approval. Both photos are
// required and uploaded before the account is stored.
func (s *AuthService) SignupWorker(ctx context.Context, input WorkerSignupInput, profile, aadhaarCard *ImageFile) (*models.Worker, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}
	if input.Password != input.ConfirmPassword {
		return nil, apperror.NewValidationError("Passwords do not match")
	}
	if profile == nil || aadhaarCard == nil {
		return nil, apperror.NewValidationError("Profile and Aadhaar images are required")
	}
	if err := profile.Validate(); err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("profile: %v", err))
	}
	if err := aadhaarCard.Validate(); err != nil {
		return nil, apperror.NewValidationError(fmt.Sprintf("aadhaarCard: %v", err))
	}
	if s.uploader == nil {
		return nil, apperror.NewStoreError("upload images", ErrUploadsDisabled)
	}

	exists, err := s.workers.EmailExists(ctx, input.Email)
	if err != nil {
		return nil, apperror.NewStoreError("check email", err)
	}
	if exists {
		return nil, apperror.NewConflictError("Email already registered")
	}

	profileURL, err := s.uploader.Upload(ctx, *profile, "profile")
	if err != nil {
		return nil, apperror.NewStoreError("upload profile photo", err)
	}
	aadhaarURL, err := s.uploader.Upload(ctx, *aadhaarCard, "aadhaar")
	if err != nil {
		return nil, apperror.NewStoreError("upload Aadhaar photo", err)
	}

	hash, err := s.tokens.HashPassword(input.Password)
	if err != nil {
		return nil, apperror.NewStoreError("hash password", err)
	}

	worker := &models.Worker{
		Name:         strings.TrimSpace(input.Name),
		Email:        input.Email,
		PasswordHash: hash,
		Phone:        strings.TrimSpace(input.Phone),
		Address:      strings.TrimSpace(input.Address),
		City:         strings.TrimSpace(input.City),
		State:        strings.TrimSpace(input.State),
		Pincode:      strings.TrimSpace(input.Pincode),
		Aadhaar:      strings.TrimSpace(input.Aadhaar),
		ServiceType:  strings.TrimSpace(input.ServiceType),
		ProfilePhoto: profileURL,
		AadhaarPhoto: aadhaarURL,
		Status:       models.WorkerStatusPending,
	}
	if err := s.workers.Create(ctx, worker); err != nil {
		return nil, apperror.NewStoreError("create account", err)
	}

	logger.Info("✅ Worker registered, awaiting approval",
		zap.Uint("worker_id", worker.ID),
		zap.String("service_type", worker.ServiceType),
		zap.String("city", worker.City))
	return worker, nil
}

// LoginWorker authenticates a worker. Pending and rejected workers may log in
// to see their status; booking access is gated separately.
func (s *AuthService) LoginWorker(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	worker, err := s.workers.GetByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewStoreError("load account", err)
	}
	if worker == nil || !s.tokens.CheckPasswordHash(input.Password, worker.PasswordHash) {
		return nil, apperror.NewUnauthorizedError("Invalid email or password")
	}

	return s.issue(types.Principal{Kind: types.PrincipalWorker, ID: worker.ID}, worker)
}

func (s *AuthService) WorkerProfile(ctx context.Context, principal types.Principal) (*models.Worker, error) {
	if !principal.IsWorker() {
		return nil, apperror.NewForbiddenError("Worker access required")
	}
	worker, err := s.workers.GetByID(ctx, principal.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFoundError("Worker not found")
		}
		return nil, apperror.NewStoreError("load profile", err)
	}
	return worker, nil
}

func (s *AuthService) UpdateWorkerProfile(ctx context.Context, principal types.Principal, update ProfileUpdate) (*models.Worker, error) {
	if err := validation.Struct(update); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	worker, err := s.WorkerProfile(ctx, principal)
	if err != nil {
		return nil, err
	}

	if update.Email != nil && models.NormalizeEmail(*update.Email) != worker.Email {
		exists, err := s.workers.EmailExists(ctx, *update.Email)
		if err != nil {
			return nil, apperror.NewStoreError("check email", err)
		}
		if exists {
			return nil, apperror.NewConflictError("Email already registered")
		}
		worker.Email = *update.Email
	}
	applyString(&worker.Name, update.Name)
	applyString(&worker.Phone, update.Phone)
	applyString(&worker.Address, update.Address)
	applyString(&worker.City, update.City)
	applyString(&worker.State, update.State)
	applyString(&worker.Pincode, update.Pincode)
	applyString(&worker.ServiceType, update.ServiceType)
	if update.Password != nil {
		if worker.PasswordHash, err = s.tokens.HashPassword(*update.Password); err != nil {
			return nil, apperror.NewStoreError("hash password", err)
		}
	}

	if err := s.workers.Save(ctx, worker); err != nil {
		return nil, apperror.NewStoreError("update profile", err)
	}
	return worker, nil
}

func (s *AuthService) issue(p types.Principal, user interface{}) (*LoginResult, error) {
	token, err := s.tokens.Issue(p)
	if err != nil {
		return nil, apperror.NewStoreError("issue token", err)
	}
	logger.Info("🔐 Login succeeded", zap.String("principal", p.String()))
	return &LoginResult{AuthToken: *token, User: user}, nil
}

func applyString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}
