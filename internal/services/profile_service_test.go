package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/yoockh/mockmate/internal/models"
	"github.com/yoockh/mockmate/internal/utils"
)

type memProfiles struct {
	rows map[string]models.Profile
	err  error
}

func (m *memProfiles) GetByUserID(_ context.Context, userID string) (*models.Profile, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.rows[userID]
	if !ok {
		return nil, utils.ErrNotFound
	}
	return &p, nil
}

func (m *memProfiles) Upsert(_ context.Context, p *models.Profile) error {
	if m.rows == nil {
		m.rows = map[string]models.Profile{}
	}
	m.rows[p.UserID] = *p
	return nil
}

func strPtr(s string) *string { return &s }

func TestProfileUpdateCreatesThenPatches(t *testing.T) {
	t.Parallel()

	repo := &memProfiles{}
	svc := &profileService{profiles: repo, now: func() time.Time { return time.Unix(100, 0) }}
	ctx := context.Background()

	skills := []string{" Go ", "", "SQL"}
	p, err := svc.Update(ctx, "user-1", ProfilePatch{FullName: strPtr("  Ada Lovelace "), Skills: &skills})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if p.FullName != "Ada Lovelace" || len(p.Skills) != 2 || p.Skills[0] != "Go" {
		t.Fatalf("unexpected profile %+v", p)
	}
	if !p.UpdatedAt.Equal(time.Unix(100, 0)) {
		t.Fatalf("unexpected updated_at %v", p.UpdatedAt)
	}

	p, err = svc.Update(ctx, "user-1", ProfilePatch{Level: strPtr("Senior")})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}
	if p.FullName != "Ada Lovelace" || p.Level != "Senior" || len(p.Skills) != 2 {
		t.Fatalf("patch dropped existing fields %+v", p)
	}
}

func TestProfileUpdateRejectsBadPreferences(t *testing.T) {
	t.Parallel()

	bad := json.RawMessage(`{"theme":`)
	svc := NewProfileService(&memProfiles{})
	if _, err := svc.Update(context.Background(), "user-1", ProfilePatch{Preferences: &bad}); !utils.IsCode(err, utils.CodeInvalidArgument) {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestDisplayName(t *testing.T) {
	t.Parallel()

	svc := NewProfileService(&memProfiles{rows: map[string]models.Profile{"u-1": {UserID: "u-1", FullName: "Grace"}}})
	if got := DisplayName(context.Background(), svc, "u-1"); got != "Grace" {
		t.Fatalf("expected Grace, got %q", got)
	}
	if got := DisplayName(context.Background(), svc, "missing"); got != "Candidate" {
		t.Fatalf("expected fallback name, got %q", got)
	}
	failing := NewProfileService(&memProfiles{err: errBoom})
	if got := DisplayName(context.Background(), failing, "u-1"); got != "Candidate" {
		t.Fatalf("expected fallback name on error, got %q", got)
	}
}
