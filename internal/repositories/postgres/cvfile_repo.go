package postgres

import (
	"context"

	"github.com/yoockh/mockmate/internal/models"
	"gorm.io/gorm"
)

type CVFileRepository interface {
	Insert(ctx context.Context, f *models.CVFile) error
	ListByResume(ctx context.Context, resumeID string) ([]models.CVFile, error)
}

type cvFileRepo struct {
	db *gorm.DB
}

func NewCVFileRepo(db *gorm.DB) CVFileRepository {
	return &cvFileRepo{db: db}
}

func (r *cvFileRepo) Insert(ctx context.Context, f *models.CVFile) error {
	return r.db.WithContext(ctx).Create(f).Error
}

func (r *cvFileRepo) ListByResume(ctx context.Context, resumeID string) ([]models.CVFile, error) {
	var rows []models.CVFile
	err := r.db.WithContext(ctx).
		Where("resume_id = ?", resumeID).
		Order("upload_at ASC").
		Find(&rows).Error
	return rows, err
}
