package services

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"

	"github.com/yoockh/mockmate/internal/models"
	pgrepo "github.com/yoockh/mockmate/internal/repositories/postgres"
	"github.com/yoockh/mockmate/internal/utils"
)

// ProfilePatch carries the fields a user may change. Nil fields are left
// untouched.
type ProfilePatch struct {
	FullName    *string
	PhoneNumber *string
	Level       *string
	TargetRole  *string
	Skills      *[]string
	Preferences *json.RawMessage
}

type ProfileService interface {
	GetMe(ctx context.Context, userID string) (*models.Profile, error)
	// Update applies patch, creating the profile on first write.
	Update(ctx context.Context, userID string, patch ProfilePatch) (*models.Profile, error)
}

type profileService struct {
	profiles pgrepo.ProfileRepository
	now      func() time.Time
}

func NewProfileService(profiles pgrepo.ProfileRepository) ProfileService {
	return &profileService{profiles: profiles, now: time.Now}
}

func (s *profileService) GetMe(ctx context.Context, userID string) (*models.Profile, error) {
	const op = "ProfileService.GetMe"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}

	p, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get profile", err)
	}
	return p, nil
}

func (s *profileService) Update(ctx context.Context, userID string, patch ProfilePatch) (*models.Profile, error) {
	const op = "ProfileService.Update"

	p, err := s.GetMe(ctx, userID)
	switch {
	case utils.IsCode(err, utils.CodeNotFound):
		p = &models.Profile{UserID: userID}
	case err != nil:
		return nil, err
	}

	if patch.Preferences != nil && len(*patch.Preferences) > 0 && !json.Valid(*patch.Preferences) {
		return nil, utils.E(utils.CodeInvalidArgument, op, "preferences must be valid JSON", nil)
	}
	patch.applyTo(p)
	p.UpdatedAt = s.now().UTC()

	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to save profile", err)
	}
	return p, nil
}

func (pp ProfilePatch) applyTo(p *models.Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = strings.TrimSpace(*src)
		}
	}
	set(&p.FullName, pp.FullName)
	set(&p.PhoneNumber, pp.PhoneNumber)
	set(&p.Level, pp.Level)
	set(&p.TargetRole, pp.TargetRole)

	if pp.Skills != nil {
		skills := make(pq.StringArray, 0, len(*pp.Skills))
		for _, sk := range *pp.Skills {
			if sk = strings.TrimSpace(sk); sk != "" {
				skills = append(skills, sk)
			}
		}
		p.Skills = skills
	}
	if pp.Preferences != nil {
		p.Preferences = datatypes.JSON(*pp.Preferences)
	}
}

// DisplayName returns the name the interviewer greets the user with. A
// missing profile is not an error.
func DisplayName(ctx context.Context, s ProfileService, userID string) string {
	p, err := s.GetMe(ctx, userID)
	if err != nil {
		return (*models.Profile)(nil).DisplayName()
	}
	return p.DisplayName()
}
