package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/decortz/sill-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	UserID      uuid.UUID
	Username    string
	AccessLevel enums.AccessLevel
	ClientNITs  []string
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID      uuid.UUID         `json:"user_id"`
	Username    string            `json:"username"`
	AccessLevel enums.AccessLevel `json:"access_level"`
	ClientNITs  []string          `json:"client_nits,omitempty"`
	jwt.RegisteredClaims
}
