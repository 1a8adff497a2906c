package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/setdecrunner/backend/api/responses"
	"github.com/setdecrunner/backend/api/validators"
	"github.com/setdecrunner/backend/internal/checkout"
	pkgerrors "github.com/setdecrunner/backend/pkg/errors"
	"github.com/setdecrunner/backend/pkg/logger"
)

type checkoutSessionRequest struct {
	Title string `json:"title" validate:"required,min=1,max=160"`
	Slug  string `json:"slug,omitempty" validate:"omitempty,max=80"`
	Email string `json:"email,omitempty" validate:"omitempty,email"`
}

// CheckoutCreateSession starts a Stripe checkout for a new production.
func CheckoutCreateSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		var req checkoutSessionRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.CreateSession(r.Context(), checkout.SessionInput{
			Title: req.Title,
			Slug:  req.Slug,
			Email: req.Email,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

// CheckoutResolveSession is the success-page fallback. It fulfills the paid
// session if the webhook has not arrived yet and returns a login token for
// the purchaser.
func CheckoutResolveSession(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		sessionID := chi.URLParam(r, "sessionID")
		if sessionID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "session id is required"))
			return
		}

		dto, err := svc.ResolveSession(r.Context(), sessionID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
