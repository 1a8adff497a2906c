package runsheets

import (
	"time"

	"github.com/google/uuid"

	"github.com/setdecrunner/backend/pkg/db/models"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
)

// RunSheetDTO is the API shape of a run sheet.
type RunSheetDTO struct {
	ID        uuid.UUID         `json:"id"`
	Title     string            `json:"title"`
	Date      *time.Time        `json:"date,omitempty"`
	Driver    string            `json:"driver,omitempty"`
	Vehicle   string            `json:"vehicle,omitempty"`
	Status    string            `json:"status"`
	Stops     []dbtypes.RunStop `json:"stops"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func FromModel(m *models.RunSheet) *RunSheetDTO {
	return &RunSheetDTO{
		ID:        m.ID,
		Title:     m.Title,
		Date:      m.Date,
		Driver:    m.Driver,
		Vehicle:   m.Vehicle,
		Status:    m.Status,
		Stops:     append([]dbtypes.RunStop(nil), m.Stops...),
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
