package types

import (
	"github.com/google/uuid"
)

// UserWithAuth is the operator identity carried in the dashboard JWT.
// UserType scopes discount rules (for example "regular" or "corporate").
type UserWithAuth struct {
	ID       uuid.UUID `json:"id" validate:"required"`
	Email    string    `json:"email" validate:"required,email"`
	UserType string    `json:"user_type" validate:"omitempty"`
	TeamId   string    `json:"team_id" validate:"omitempty"`
	RoleId   string    `json:"role_id" validate:"omitempty"`
}
