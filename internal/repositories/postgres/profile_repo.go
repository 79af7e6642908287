package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
)

// profileColumns are overwritten when a profile row already exists.
var profileColumns = []string{"full_name", "phone_number", "level", "target_role", "skills", "preferences", "updated_at"}

type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// Upsert inserts p or overwrites the editable columns of the existing row.
	Upsert(ctx context.Context, p *models.Profile) error
}

type profileRepo struct {
	db *gorm.DB
}

func NewProfileRepo(db *gorm.DB) ProfileRepository {
	return &profileRepo{db: db}
}

func (r *profileRepo) GetByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	p := new(models.Profile)
	if err := r.db.WithContext(ctx).First(p, "user_id = ?", userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *profileRepo) Upsert(ctx context.Context, p *models.Profile) error {
	onConflict := clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(profileColumns),
	}
	return r.db.WithContext(ctx).Clauses(onConflict).Create(p).Error
}
