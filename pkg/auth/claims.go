package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT. The token
// carries identity only; production membership is resolved per request from
// the database, never baked into the token.
type AccessTokenPayload struct {
	UserID         uuid.UUID
	Email          string
	Role           enums.GlobalRole
	SiteAuthorized bool
}

// AccessTokenClaims represents the typed JWT issued to clients.
type AccessTokenClaims struct {
	UserID         uuid.UUID        `json:"user_id"`
	Email          string           `json:"email"`
	Role           enums.GlobalRole `json:"role"`
	SiteAuthorized bool             `json:"site_authorized"`
	IsAdmin        bool             `json:"is_admin"`
	jwt.RegisteredClaims
}
