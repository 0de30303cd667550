package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/VictoriaMetrics/metrics"
	"github.com/go-chi/chi/v5"

	"github.com/greatgold/storefront/internal/platform/httpx"
	"github.com/greatgold/storefront/internal/services"
)

const maxCheckoutRequestBody = 8 * 1024

var (
	sessionsCreatedTotal      = metrics.NewCounter("checkout_sessions_created_total")
	sessionCreateFailures     = metrics.NewCounter("checkout_session_create_failures_total")
	sessionVerificationsTotal = metrics.NewCounter("checkout_session_verifications_total")
	sessionVerifyFailures     = metrics.NewCounter("checkout_session_verify_failures_total")
)

// CheckoutHandlers exposes the checkout session endpoints.
type CheckoutHandlers struct {
	checkout services.CheckoutService
}

// NewCheckoutHandlers constructs checkout handlers over the given service.
func NewCheckoutHandlers(checkout services.CheckoutService) *CheckoutHandlers {
	return &CheckoutHandlers{
		checkout: checkout,
	}
}

// Routes registers checkout endpoints under the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/create-checkout-session", h.createSession)
	r.Get("/verify-session/{sessionId}", h.verifySession)
}

type createSessionRequest struct {
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription"`
	ProductImage       string  `json:"productImage"`
	ProductPrice       float64 `json:"productPrice"`
	SuccessURL         string  `json:"successUrl"`
	CancelURL          string  `json:"cancelUrl"`
}

type createSessionResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type verifySessionResponse struct {
	Status   string           `json:"status"`
	Customer customerResponse `json:"customer"`
}

type customerResponse struct {
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

func (h *CheckoutHandlers) createSession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	body, err := readLimitedBody(r, maxCheckoutRequestBody)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, errBodyTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), status))
		return
	}

	var req createSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body must be valid JSON", http.StatusBadRequest))
		return
	}

	if strings.TrimSpace(req.ProductName) == "" || req.ProductPrice <= 0 {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "productName and productPrice are required", http.StatusBadRequest))
		return
	}
	if strings.TrimSpace(req.SuccessURL) == "" || strings.TrimSpace(req.CancelURL) == "" {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "successUrl and cancelUrl are required", http.StatusBadRequest))
		return
	}

	session, err := h.checkout.CreateSession(ctx, services.CreateSessionCommand{
		ProductName:        req.ProductName,
		ProductDescription: req.ProductDescription,
		ProductImage:       req.ProductImage,
		ProductPrice:       req.ProductPrice,
		SuccessURL:         req.SuccessURL,
		CancelURL:          req.CancelURL,
	})
	if err != nil {
		sessionCreateFailures.Inc()
		h.writeCheckoutError(ctx, w, err)
		return
	}

	sessionsCreatedTotal.Inc()
	writeJSONResponse(w, http.StatusOK, createSessionResponse{
		SessionID: session.SessionID,
		URL:       session.RedirectURL,
	})
}

func (h *CheckoutHandlers) verifySession(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.checkout == nil {
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
		return
	}

	sessionID := strings.TrimSpace(chi.URLParam(r, "sessionId"))

	verification, err := h.checkout.VerifySession(ctx, sessionID)
	if err != nil {
		sessionVerifyFailures.Inc()
		h.writeCheckoutError(ctx, w, err)
		return
	}

	sessionVerificationsTotal.Inc()
	writeJSONResponse(w, http.StatusOK, verifySessionResponse{
		Status: string(verification.Status),
		Customer: customerResponse{
			Email: verification.CustomerEmail,
			Name:  verification.CustomerName,
		},
	})
}

// writeCheckoutError maps service errors onto the wire envelope. Verification
// failures deliberately collapse to a generic message so session ids cannot be
// probed for detail.
func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_session", "invalid session", http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutInvalidInput):
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", err.Error(), http.StatusBadRequest))
	case errors.Is(err, services.ErrCheckoutUnavailable):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_unavailable", "checkout service unavailable", http.StatusServiceUnavailable))
	case errors.Is(err, services.ErrGatewayFailure):
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to create checkout session", http.StatusInternalServerError).WithDetails(map[string]any{
			"details": err.Error(),
		}))
	default:
		httpx.WriteError(ctx, w, httpx.NewError("checkout_error", "failed to process checkout request", http.StatusInternalServerError))
	}
}
