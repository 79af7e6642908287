package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
)

type Profile struct {
	UserID      string `gorm:"column:user_id;type:uuid;primaryKey" json:"user_id"`
	FullName    string `gorm:"column:full_name;type:text" json:"full_name"`
	PhoneNumber string `gorm:"column:phone_number;type:text" json:"phone_number"`

	// Seniority and target role prefill the provisioning form.
	Level      string         `gorm:"column:level;type:text" json:"level"`
	TargetRole string         `gorm:"column:target_role;type:text" json:"target_role"`
	Skills     pq.StringArray `gorm:"column:skills;type:text[]" json:"skills"`

	Preferences datatypes.JSON `gorm:"column:preferences;type:jsonb" json:"preferences"`

	UpdatedAt time.Time `gorm:"column:updated_at;type:timestamptz" json:"updated_at"`
}

func (Profile) TableName() string { return "profiles" }

// DisplayName is the name the interviewer greets the candidate with.
func (p *Profile) DisplayName() string {
	if p == nil || p.FullName == "" {
		return "Candidate"
	}
	return p.FullName
}
