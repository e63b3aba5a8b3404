package controllers

import (
	"net/http"
	"strings"

	"github.com/angelmondragon/storefront-backend/api/middleware"
	"github.com/angelmondragon/storefront-backend/api/responses"
	"github.com/angelmondragon/storefront-backend/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
	"github.com/angelmondragon/storefront-backend/pkg/logger"
)

func identityFromRequest(r *http.Request) checkout.Identity {
	return checkout.Identity{
		UserID:    middleware.UserIDFromContext(r.Context()),
		SessionID: middleware.SessionIDFromContext(r.Context()),
	}
}

// CheckoutCreateOrder commits the session cart as a pending order.
func CheckoutCreateOrder(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		order, err := svc.CreateOrder(r.Context(), identityFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}

// CheckoutCreatePayment opens a gateway checkout and sends the browser there.
// Clients asking for JSON get the redirect target in the body instead.
func CheckoutCreatePayment(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		redirect, err := svc.CreatePayment(r.Context(), identityFromRequest(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if wantsJSON(r) {
			responses.WriteSuccess(w, redirect)
			return
		}
		responses.WriteRedirect(w, r, redirect.RedirectURL)
	}
}

// PaymentSuccess handles the gateway's approved return.
func PaymentSuccess(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentReturn(svc, logg, func(s checkout.Service, r *http.Request) (*checkout.PaymentResult, error) {
		return s.OnSuccess(r.Context(), identityFromRequest(r), r.URL.Query())
	})
}

// PaymentFailure handles a rejected or cancelled payment.
func PaymentFailure(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentReturn(svc, logg, func(s checkout.Service, r *http.Request) (*checkout.PaymentResult, error) {
		return s.OnFailure(r.Context(), identityFromRequest(r), r.URL.Query())
	})
}

// PaymentPending handles a payment that is still being processed.
func PaymentPending(svc checkout.Service, logg *logger.Logger) http.HandlerFunc {
	return paymentReturn(svc, logg, func(s checkout.Service, r *http.Request) (*checkout.PaymentResult, error) {
		return s.OnPending(r.Context(), identityFromRequest(r), r.URL.Query())
	})
}

type returnHandler func(checkout.Service, *http.Request) (*checkout.PaymentResult, error)

func paymentReturn(svc checkout.Service, logg *logger.Logger, handle returnHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		result, err := handle(svc, r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(strings.ToLower(r.Header.Get("Accept")), "application/json")
}
