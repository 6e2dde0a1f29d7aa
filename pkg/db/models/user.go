package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/enums"
)

// User is an operator of the system. Levels below admin are scoped to their
// assigned client NITs.
type User struct {
	ID                 uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Username           string            `gorm:"column:username;type:text;not null;uniqueIndex:ux_users_username"`
	PasswordHash       string            `gorm:"column:password_hash;type:text;not null"`
	FullName           string            `gorm:"column:full_name;type:text;not null"`
	AccessLevel        enums.AccessLevel `gorm:"column:access_level;not null;default:3"`
	AssignedClientNITs []string          `gorm:"column:assigned_client_nits;type:jsonb;serializer:json"`
	Active             bool              `gorm:"column:active;not null;default:true"`
	LastLoginAt        *time.Time        `gorm:"column:last_login_at"`
	CreatedAt          time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt          time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// CanAccessClient reports whether the user may act on the given client NIT.
func (u *User) CanAccessClient(nit string) bool {
	if !u.AccessLevel.ScopedToClients() {
		return true
	}
	for _, assigned := range u.AssignedClientNITs {
		if assigned == nit {
			return true
		}
	}
	return false
}
