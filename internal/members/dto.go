package members

import (
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/enums"
)

// MemberDTO is one roster row as the API returns it.
type MemberDTO struct {
	UserID  uuid.UUID        `json:"user_id"`
	Email   string           `json:"email"`
	Name    string           `json:"name"`
	Role    enums.MemberRole `json:"role"`
	IsOwner bool             `json:"is_owner"`
	AddedAt time.Time        `json:"added_at,omitempty"`
}
