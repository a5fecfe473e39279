package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"handyconnect-server/models"
)

type WorkerRepository struct {
	DB *gorm.DB
}

func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{DB: db}
}

func (r *WorkerRepository) Create(ctx context.Context, w *models.Worker) error {
	return r.DB.WithContext(ctx).Create(w).Error
}

func (r *WorkerRepository) Save(ctx context.Context, w *models.Worker) error {
	return r.DB.WithContext(ctx).Save(w).Error
}

func (r *WorkerRepository) GetByID(ctx context.Context, id uint) (*models.Worker, error) {
	var w models.Worker
	if err := r.DB.WithContext(ctx).First(&w, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WorkerRepository) GetByEmail(ctx context.Context, email string) (*models.Worker, error) {
	var w models.Worker
	if err := r.DB.WithContext(ctx).Where("email = ?", models.NormalizeEmail(email)).First(&w).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &w, nil
}

func (r *WorkerRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.DB.WithContext(ctx).Model(&models.Worker{}).
		Where("email = ?", models.NormalizeEmail(email)).
		Count(&count).Error
	return count > 0, err
}

// Summaries loads the public card of each worker id. Unknown ids are absent
// from the result.
func (r *WorkerRepository) Summaries(ctx context.Context, ids []uint) (map[uint]models.WorkerSummary, error) {
	out := make(map[uint]models.WorkerSummary, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	var workers []models.Worker
	if err := r.DB.WithContext(ctx).
		Select("id, name, phone, email, service_type, city, profile_photo").
		Where("id IN ?", ids).
		Find(&workers).Error; err != nil {
		return nil, err
	}
	for i := range workers {
		out[workers[i].ID] = workers[i].Summary()
	}
	return out, nil
}

// List returns workers newest first, optionally filtered by status.
func (r *WorkerRepository) List(ctx context.Context, status models.WorkerStatus) ([]models.Worker, error) {
	var out []models.Worker
	q := r.DB.WithContext(ctx).Order("created_at DESC, id DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	err := q.Find(&out).Error
	return out, err
}

// Approve moves a pending worker to approved, clearing any rejection reason.
func (r *WorkerRepository) Approve(ctx context.Context, id, adminID uint, at time.Time) (bool, error) {
	return r.decide(ctx, id, map[string]interface{}{
		"status":           models.WorkerStatusApproved,
		"approved_by":      adminID,
		"approved_at":      at,
		"rejection_reason": nil,
		"updated_at":       at,
	})
}

// Reject moves a pending worker to rejected with the given reason.
func (r *WorkerRepository) Reject(ctx context.Context, id uint, reason string, at time.Time) (bool, error) {
	return r.decide(ctx, id, map[string]interface{}{
		"status":           models.WorkerStatusRejected,
		"rejection_reason": reason,
		"approved_by":      nil,
		"approved_at":      nil,
		"updated_at":       at,
	})
}

func (r *WorkerRepository) decide(ctx context.Context, id uint, values map[string]interface{}) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.Worker{}).
		Where("id = ? AND status = ?", id, models.WorkerStatusPending).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *WorkerRepository) CountByStatus(ctx context.Context) (models.WorkerStatusCounts, error) {
	var rows []struct {
		Status models.WorkerStatus
		Count  int64
	}
	var counts models.WorkerStatusCounts
	if err := r.DB.WithContext(ctx).Model(&models.Worker{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return counts, err
	}

	for _, row := range rows {
		switch row.Status {
		case models.WorkerStatusPending:
			counts.Pending = row.Count
		case models.WorkerStatusApproved:
			counts.Approved = row.Count
		case models.WorkerStatusRejected:
			counts.Rejected = row.Count
		}
		counts.Total += row.Count
	}
	return counts, nil
}
