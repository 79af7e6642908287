package models

import "strings"

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ParseRole maps a collaborator-supplied role onto a known Role.
// Unknown or empty roles fall back to def.
func ParseRole(v string, def Role) Role {
	switch Role(strings.ToLower(strings.TrimSpace(v))) {
	case RoleUser:
		return RoleUser
	case RoleAssistant, "bot":
		return RoleAssistant
	case RoleSystem:
		return RoleSystem
	default:
		return def
	}
}

// Turn is one utterance of an interview transcript.
type Turn struct {
	Role    Role   `bson:"role" json:"role" validate:"required,oneof=user assistant system"`
	Content string `bson:"content" json:"content" validate:"required"`
}
