package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"handyconnect-server/apperror"
	"handyconnect-server/config"
	"handyconnect-server/logger"
	"handyconnect-server/models"
	"handyconnect-server/repository"
	"handyconnect-server/types"
	"handyconnect-server/validation"
)

// AdminStore persists admin accounts.
type AdminStore interface {
	GetActiveByEmail(ctx context.Context, email string) (*models.Admin, error)
	EnsureAdmin(ctx context.Context, a *models.Admin) (bool, error)
}

// WorkerApprovals is the worker persistence used by admins.
type WorkerApprovals interface {
	GetByID(ctx context.Context, id uint) (*models.Worker, error)
	List(ctx context.Context, status models.WorkerStatus) ([]models.Worker, error)
	Approve(ctx context.Context, id, adminID uint, at time.Time) (bool, error)
	Reject(ctx context.Context, id uint, reason string, at time.Time) (bool, error)
	CountByStatus(ctx context.Context) (models.WorkerStatusCounts, error)
}

// AdminService approves workers and reports on registrations.
type AdminService struct {
	admins  AdminStore
	workers WorkerApprovals
	tokens  *TokenService
	now     func() time.Time
}

func NewAdminService(admins AdminStore, workers WorkerApprovals, tokens *TokenService) *AdminService {
	return &AdminService{
		admins:  admins,
		workers: workers,
		tokens:  tokens,
		now:     time.Now,
	}
}

// SeedAdmin creates the configured admin account if it does not exist yet.
func (s *AdminService) SeedAdmin(ctx context.Context, cfg config.AdminSeedConfig) error {
	if cfg.Email == "" || cfg.Password == "" {
		logger.Info("ℹ️  ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin seed")
		return nil
	}

	hash, err := s.tokens.HashPassword(cfg.Password)
	if err != nil {
		return err
	}

	admin := &models.Admin{Name: cfg.Name, Email: cfg.Email, PasswordHash: hash, IsActive: true}
	created, err := s.admins.EnsureAdmin(ctx, admin)
	if err != nil {
		return err
	}
	if created {
		logger.Info("🌱 Admin account seeded", zap.String("email", admin.Email))
	}
	return nil
}

func (s *AdminService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	if err := validation.Struct(input); err != nil {
		return nil, apperror.NewValidationError(err.Error())
	}

	admin, err := s.admins.GetActiveByEmail(ctx, input.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.NewStoreError("load account", err)
	}
	if admin == nil || !s.tokens.CheckPasswordHash(input.Password, admin.PasswordHash) {
		return nil, apperror.NewUnauthorizedError("Invalid admin credentials")
	}

	token, err := s.tokens.Issue(types.Principal{Kind: types.PrincipalAdmin, ID: admin.ID})
	if err != nil {
		return nil, apperror.NewStoreError("issue token", err)
	}
	logger.Info("🔐 Admin login", zap.Uint("admin_id", admin.ID))
	return &LoginResult{AuthToken: *token, User: admin}, nil
}

// ListWorkers returns workers, optionally filtered by approval status.
func (s *AdminService) ListWorkers(ctx context.Context, status string) ([]models.Worker, error) {
	ws := models.WorkerStatus(strings.ToLower(strings.TrimSpace(status)))
	if ws != "" && !ws.Valid() {
		return nil, apperror.NewValidationError("status must be one of: pending, approved, rejected")
	}

	workers, err := s.workers.List(ctx, ws)
	if err != nil {
		return nil, apperror.NewStoreError("fetch workers", err)
	}
	return workers, nil
}

func (s *AdminService) WorkerDetails(ctx context.Context, workerID uint) (*models.Worker, error) {
	worker, err := s.workers.GetByID(ctx, workerID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NewNotFoundError("Worker not found")
		}
		return nil, apperror.NewStoreError("fetch worker details", err)
	}
	return worker, nil
}

// Approve moves a pending worker to approved.
func (s *AdminService) Approve(ctx context.Context, principal types.Principal, workerID uint) (*models.Worker, error) {
	if !principal.IsAdmin() {
		return nil, apperror.NewForbiddenError("Admin access required")
	}

	ok, err := s.workers.Approve(ctx, workerID, principal.ID, s.now())
	if err != nil {
		return nil, apperror.NewStoreError("approve worker", err)
	}
	if !ok {
		return nil, s.decisionLost(ctx, workerID)
	}

	logger.Info("✅ Worker approved", zap.Uint("worker_id", workerID), zap.Uint("admin_id", principal.ID))
	return s.WorkerDetails(ctx, workerID)
}

// Reject moves a pending worker to rejected. A reason is required.
func (s *AdminService) Reject(ctx context.Context, principal types.Principal, workerID uint, reason string) (*models.Worker, error) {
	if !principal.IsAdmin() {
		return nil, apperror.NewForbiddenError("Admin access required")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperror.NewValidationError("Rejection reason is required")
	}

	ok, err := s.workers.Reject(ctx, workerID, reason, s.now())
	if err != nil {
		return nil, apperror.NewStoreError("reject worker", err)
	}
	if !ok {
		return nil, s.decisionLost(ctx, workerID)
	}

	logger.Info("🚫 Worker rejected", zap.Uint("worker_id", workerID), zap.Uint("admin_id", principal.ID))
	return s.WorkerDetails(ctx, workerID)
}

func (s *AdminService) DashboardStats(ctx context.Context) (models.WorkerStatusCounts, error) {
	counts, err := s.workers.CountByStatus(ctx)
	if err != nil {
		return counts, apperror.NewStoreError("fetch stats", err)
	}
	return counts, nil
}

func (s *AdminService) decisionLost(ctx context.Context, workerID uint) error {
	if _, err := s.WorkerDetails(ctx, workerID); err != nil {
		return err
	}
	return apperror.NewInvalidStateError("Worker is not in pending status")
}
