package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/db/models"
	"github.com/decortz/sill-backend/pkg/enums"
)

// UserDTO is the transport shape that omits the credential hash.
type UserDTO struct {
	ID                 uuid.UUID         `json:"id"`
	Username           string            `json:"username"`
	FullName           string            `json:"full_name"`
	AccessLevel        enums.AccessLevel `json:"access_level"`
	AccessLevelName    string            `json:"access_level_name"`
	AssignedClientNITs []string          `json:"assigned_client_nits"`
	Active             bool              `json:"active"`
	LastLoginAt        *time.Time        `json:"last_login_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// FromModel strips a user down to its transport shape.
func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:                 u.ID,
		Username:           u.Username,
		FullName:           u.FullName,
		AccessLevel:        u.AccessLevel,
		AccessLevelName:    u.AccessLevel.String(),
		AssignedClientNITs: append([]string(nil), u.AssignedClientNITs...),
		Active:             u.Active,
		LastLoginAt:        u.LastLoginAt,
		CreatedAt:          u.CreatedAt,
		UpdatedAt:          u.UpdatedAt,
	}
}
