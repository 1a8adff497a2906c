package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// RunStop is one stop on a run sheet. ItemIDs reference items scoped to the
// same production; the list order is the driving order.
type RunStop struct {
	Label   string      `json:"label"`
	Address string      `json:"address,omitempty"`
	Notes   string      `json:"notes,omitempty"`
	ItemIDs []uuid.UUID `json:"item_ids,omitempty"`
	Done    bool        `json:"done"`
}

// StopList is the ordered jsonb payload of a run sheet.
type StopList []RunStop

func (s StopList) Value() (driver.Value, error) {
	if s == nil {
		s = StopList{}
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *StopList) Scan(src any) error {
	if src == nil {
		*s = StopList{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported stop list source %T", src)
	}
	if len(data) == 0 {
		*s = StopList{}
		return nil
	}
	return json.Unmarshal(data, s)
}
