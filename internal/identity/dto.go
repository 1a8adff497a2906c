package identity

import (
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	"github.com/setdecrunner/backend/pkg/enums"
)

// UserDTO exposes safe account data in API responses.
type UserDTO struct {
	ID                 uuid.UUID        `json:"id"`
	Email              string           `json:"email"`
	Name               string           `json:"name"`
	Role               enums.GlobalRole `json:"role"`
	SiteAuthorized     bool             `json:"site_authorized"`
	Banned             bool             `json:"banned"`
	MustChangePassword bool             `json:"must_change_password"`
	ProductionIDs      []uuid.UUID      `json:"production_ids"`
	CreatedAt          time.Time        `json:"created_at"`
}

// FromModel maps the persisted user into a DTO.
func FromModel(m *models.User) *UserDTO {
	if m == nil {
		return nil
	}
	ids := make([]uuid.UUID, len(m.ProductionIDs))
	copy(ids, m.ProductionIDs)
	return &UserDTO{
		ID:                 m.ID,
		Email:              m.Email,
		Name:               m.Name,
		Role:               m.Role,
		SiteAuthorized:     m.SiteAuthorized,
		Banned:             m.Banned,
		MustChangePassword: m.MustChangePassword,
		ProductionIDs:      ids,
		CreatedAt:          m.CreatedAt,
	}
}

// SessionDTO is the login/registration response payload.
type SessionDTO struct {
	Token string   `json:"token"`
	User  *UserDTO `json:"user"`
}
