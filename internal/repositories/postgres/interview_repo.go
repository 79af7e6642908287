package postgres

import (
	"context"
	"errors"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
	"gorm.io/gorm"
)

type InterviewRepository interface {
	Create(ctx context.Context, iv *models.Interview) error
	GetByID(ctx context.Context, id string) (*models.Interview, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Interview, error)
	ListLatest(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error)
	Delete(ctx context.Context, id string) error
}

type interviewRepo struct {
	db *gorm.DB
}

func NewInterviewRepo(db *gorm.DB) InterviewRepository {
	return &interviewRepo{db: db}
}

func (r *interviewRepo) Create(ctx context.Context, iv *models.Interview) error {
	return r.db.WithContext(ctx).Create(iv).Error
}

func (r *interviewRepo) GetByID(ctx context.Context, id string) (*models.Interview, error) {
	var iv models.Interview
	err := r.db.WithContext(ctx).Where("id = ?", id).Take(&iv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &iv, nil
}

func (r *interviewRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 50
	}
	var rows []models.Interview
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// ListLatest returns finalized interviews created by other users.
func (r *interviewRepo) ListLatest(ctx context.Context, excludeUserID string, limit int) ([]models.Interview, error) {
	if limit <= 0 {
		limit = 20
	}
	var rows []models.Interview
	err := r.db.WithContext(ctx).
		Where("finalized = ? AND user_id <> ?", true, excludeUserID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *interviewRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Interview{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrNotFound
	}
	return nil
}
