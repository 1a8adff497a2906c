package checkout

import "github.com/google/uuid"

// SessionDTO points the client at Stripe's hosted checkout page.
type SessionDTO struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// FulfillmentDTO is what the success-page fallback returns: a token plus the
// tenant the purchase produced.
type FulfillmentDTO struct {
	Token          string    `json:"token"`
	ProductionID   uuid.UUID `json:"production_id"`
	ProductionSlug string    `json:"production_slug"`
	Email          string    `json:"email"`
}
