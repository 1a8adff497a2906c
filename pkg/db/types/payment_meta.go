package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// PaymentMeta captures the checkout state attached to a production. Stored as
// jsonb so older rows with partial shapes keep loading.
type PaymentMeta struct {
	StripeCustomerID string     `json:"stripe_customer_id,omitempty"`
	StripeSessionID  string     `json:"stripe_session_id,omitempty"`
	PriceCents       int64      `json:"price_cents,omitempty"`
	Currency         string     `json:"currency,omitempty"`
	Status           string     `json:"status,omitempty"`
	PaidAt           *time.Time `json:"paid_at,omitempty"`
}

func (m PaymentMeta) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *PaymentMeta) Scan(src any) error {
	if src == nil {
		*m = PaymentMeta{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported payment meta source %T", src)
	}
	if len(data) == 0 {
		*m = PaymentMeta{}
		return nil
	}
	return json.Unmarshal(data, m)
}
