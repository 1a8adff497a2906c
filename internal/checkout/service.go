// Package checkout turns a paid Stripe Checkout Session into a live tenant:
// the production row, the buyer's account and the first membership. Webhook
// delivery and the success-page fallback both funnel into the same
// idempotent fulfillment, so double delivery or a missed webhook never
// produces a second production or a second owner.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v84"

	pkgauth "github.com/setdecrunner/backend/pkg/auth"
	"github.com/setdecrunner/backend/pkg/config"
	"github.com/setdecrunner/backend/pkg/db/models"
	dbtypes "github.com/setdecrunner/backend/pkg/db/types"
	"github.com/setdecrunner/backend/pkg/enums"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
	"github.com/setdecrunner/backend/pkg/mailer"
	"github.com/setdecrunner/backend/pkg/security"
	"github.com/setdecrunner/backend/pkg/slug"

	"github.com/google/uuid"
)

type productionRepository interface {
	FindBySlug(ctx context.Context, slug string) (*models.Production, error)
	Create(ctx context.Context, production *models.Production) error
	Update(ctx context.Context, production *models.Production) error
	ClaimOwner(ctx context.Context, productionID, userID uuid.UUID) (bool, error)
	UpsertMember(ctx context.Context, productionID, userID uuid.UUID, role enums.MemberRole) error
}

type userRepository interface {
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	AddProductionID(ctx context.Context, userID, productionID uuid.UUID) error
}

// Service drives the purchase flow.
type Service interface {
	CreateSession(ctx context.Context, input SessionInput) (*SessionDTO, error)
	HandleEvent(ctx context.Context, event *stripe.Event) error
	ResolveSession(ctx context.Context, sessionID string) (*FulfillmentDTO, error)
}

type ServiceParams struct {
	Productions productionRepository
	Users       userRepository
	Stripe      StripeCheckoutClient
	Mail        mailer.Sender
	Logger      *logger.Logger
	JWT         config.JWTConfig
	Password    config.PasswordConfig
	PriceCents  int64
	Currency    string
	ClientBase  string
}

type service struct {
	productions productionRepository
	users       userRepository
	stripe      StripeCheckoutClient
	mail        mailer.Sender
	logg        *logger.Logger
	jwtCfg      config.JWTConfig
	passwordCfg config.PasswordConfig
	priceCents  int64
	currency    string
	clientBase  string
}

func NewService(params ServiceParams) (Service, error) {
	if params.Productions == nil {
		return nil, fmt.Errorf("production repository required")
	}
	if params.Users == nil {
		return nil, fmt.Errorf("user repository required")
	}
	if params.Stripe == nil {
		return nil, fmt.Errorf("stripe client required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.PriceCents <= 0 {
		return nil, fmt.Errorf("price must be positive")
	}
	currency := strings.ToLower(strings.TrimSpace(params.Currency))
	if currency == "" {
		currency = "usd"
	}
	return &service{
		productions: params.Productions,
		users:       params.Users,
		stripe:      params.Stripe,
		mail:        params.Mail,
		logg:        params.Logger,
		jwtCfg:      params.JWT,
		passwordCfg: params.Password,
		priceCents:  params.PriceCents,
		currency:    currency,
		clientBase:  strings.TrimRight(params.ClientBase, "/"),
	}, nil
}

// SessionInput is what the storefront sends to start a purchase.
type SessionInput struct {
	Title string
	Slug  string
	Email string
}

func (s *service) CreateSession(ctx context.Context, input SessionInput) (*SessionDTO, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}

	raw := input.Slug
	if raw == "" {
		raw = title
	}
	normalized := slug.Normalize(raw)
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is required")
	}
	if slug.IsReserved(normalized) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "slug is reserved").
			WithDetails(map[string]string{"slug": normalized})
	}
	existing, err := s.productions.FindBySlug(ctx, normalized)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check slug")
	}
	if existing != nil {
		return nil, pkgerrors.New(pkgerrors.CodeConflict, "slug already in use").
			WithDetails(map[string]string{"slug": normalized})
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(s.currency),
				UnitAmount: stripe.Int64(s.priceCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(fmt.Sprintf("Set-Dec Runner: %s", title)),
				},
			},
		}},
		SuccessURL: stripe.String(s.clientBase + "/checkout/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(s.clientBase + "/checkout/cancelled"),
		Metadata: map[string]string{
			"title": title,
			"slug":  normalized,
		},
	}
	if email := strings.TrimSpace(input.Email); email != "" {
		params.CustomerEmail = stripe.String(email)
	}

	sess, err := s.stripe.CreateSession(ctx, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create checkout session")
	}
	return &SessionDTO{ID: sess.ID, URL: sess.URL}, nil
}

// HandleEvent processes verified Stripe events. Only completed checkout
// sessions matter; everything else is acknowledged and dropped.
func (s *service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}
	if event.Type != stripe.EventTypeCheckoutSessionCompleted {
		return nil
	}
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode checkout session")
	}
	_, _, err := s.fulfill(ctx, &sess)
	return err
}

// ResolveSession is the success-page fallback for when the webhook has not
// landed yet. It performs the same fulfillment, then mints a token so the
// buyer goes straight into their production.
func (s *service) ResolveSession(ctx context.Context, sessionID string) (*FulfillmentDTO, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "session id is required")
	}
	sess, err := s.stripe.GetSession(ctx, sessionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "fetch checkout session")
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout session is not paid")
	}

	production, user, err := s.fulfill(ctx, sess)
	if err != nil {
		return nil, err
	}

	token, err := pkgauth.MintAccessToken(s.jwtCfg, time.Now().UTC(), pkgauth.AccessTokenPayload{
		UserID:         user.ID,
		Email:          user.Email,
		Role:           user.Role,
		SiteAuthorized: user.SiteAuthorized,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint token")
	}

	return &FulfillmentDTO{
		Token:          token,
		ProductionID:   production.ID,
		ProductionSlug: production.Slug,
		Email:          user.Email,
	}, nil
}

// fulfill upserts the production, ensures the buyer's account exists and
// attaches the first membership. Every step tolerates having already run.
func (s *service) fulfill(ctx context.Context, sess *stripe.CheckoutSession) (*models.Production, *models.User, error) {
	slugName := sess.Metadata["slug"]
	title := sess.Metadata["title"]
	if slugName == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "session metadata missing slug")
	}
	if title == "" {
		title = slugName
	}

	email := purchaserEmail(sess)
	if email == "" {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "purchaser email missing")
	}

	production, err := s.productions.FindBySlug(ctx, slugName)
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load production")
	}
	if production == nil {
		now := time.Now().UTC()
		production = &models.Production{
			Title:    title,
			Slug:     slugName,
			IsActive: true,
			Payment:  paymentMeta(sess, now),
		}
		if err := s.productions.Create(ctx, production); err != nil {
			// Lost the insert race; the other fulfillment owns the row now.
			fresh, findErr := s.productions.FindBySlug(ctx, slugName)
			if findErr != nil || fresh == nil {
				return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create production")
			}
			production = fresh
		}
	} else if production.Payment.StripeSessionID == "" {
		production.Payment = paymentMeta(sess, time.Now().UTC())
		if err := s.productions.Update(ctx, production); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record payment")
		}
	}

	user, err := s.ensureAccount(ctx, email, production.Title)
	if err != nil {
		return nil, nil, err
	}

	if _, ok := production.Members.Find(user.ID); !ok {
		if err := s.productions.UpsertMember(ctx, production.ID, user.ID, enums.MemberRoleAdmin); err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "attach membership")
		}
		production.Members = production.Members.Add(user.ID, enums.MemberRoleAdmin, time.Now().UTC())
	}
	if err := s.users.AddProductionID(ctx, user.ID, production.ID); err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record user membership")
	}

	if production.Unclaimed() {
		won, err := s.productions.ClaimOwner(ctx, production.ID, user.ID)
		if err != nil {
			return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "claim owner")
		}
		if won {
			ownerID := user.ID
			production.OwnerUserID = &ownerID
		}
	}

	return production, user, nil
}

// ensureAccount finds or provisions the buyer. New accounts get a temporary
// password plus an invite reset token so the welcome mail can link a
// set-password page.
func (s *service) ensureAccount(ctx context.Context, email, productionTitle string) (*models.User, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "look up user")
	}
	if user != nil {
		if !user.SiteAuthorized {
			user.SiteAuthorized = true
			if err := s.users.Update(ctx, user); err != nil {
				return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "authorize user")
			}
		}
		return user, nil
	}

	tempPassword, err := security.GenerateTempPassword(16)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate password")
	}
	hash, err := security.HashPassword(tempPassword, s.passwordCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}
	rawToken, digest, expires, err := security.NewResetToken()
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate invite token")
	}

	user = &models.User{
		Email:                email,
		PasswordHash:         &hash,
		Role:                 enums.GlobalRoleUser,
		SiteAuthorized:       true,
		MustChangePassword:   true,
		PasswordResetToken:   &digest,
		PasswordResetExpires: &expires,
	}
	if err := s.users.Create(ctx, user); err != nil {
		// Concurrent fulfillment may have created the account first.
		existing, findErr := s.users.FindByEmail(ctx, email)
		if findErr != nil || existing == nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
		}
		return existing, nil
	}

	if s.mail != nil {
		link := fmt.Sprintf("%s/reset-password?token=%s", s.clientBase, rawToken)
		body := fmt.Sprintf(
			"Your production %q is ready.\n\nSet your password here (valid 24 hours): %s\n",
			productionTitle, link,
		)
		if err := s.mail.Send(ctx, user.Email, "Welcome to Set-Dec Runner", body); err != nil {
			s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), "welcome mail failed")
		}
	}
	return user, nil
}

func purchaserEmail(sess *stripe.CheckoutSession) string {
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		return strings.ToLower(strings.TrimSpace(sess.CustomerDetails.Email))
	}
	return strings.ToLower(strings.TrimSpace(sess.CustomerEmail))
}

func paymentMeta(sess *stripe.CheckoutSession, now time.Time) dbtypes.PaymentMeta {
	meta := dbtypes.PaymentMeta{
		StripeSessionID: sess.ID,
		PriceCents:      sess.AmountTotal,
		Currency:        string(sess.Currency),
		Status:          string(sess.PaymentStatus),
		PaidAt:          &now,
	}
	if sess.Customer != nil {
		meta.StripeCustomerID = sess.Customer.ID
	}
	return meta
}
