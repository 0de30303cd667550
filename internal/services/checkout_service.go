package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/greatgold/storefront/internal/payments"
)

// sessionIDPlaceholder is substituted by the gateway with the real session id
// when redirecting the customer back to the success page.
const sessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

var (
	// ErrCheckoutInvalidInput indicates the caller supplied invalid input parameters.
	ErrCheckoutInvalidInput = errors.New("checkout: invalid input")
	// ErrCheckoutUnavailable indicates checkout dependencies are currently unavailable.
	ErrCheckoutUnavailable = errors.New("checkout: unavailable")
	// ErrGatewayFailure indicates the payment gateway rejected or failed an operation.
	ErrGatewayFailure = errors.New("checkout: gateway failure")
	// ErrSessionNotFound indicates the session id does not resolve to a checkout session.
	ErrSessionNotFound = errors.New("checkout: session not found")
)

// CreateSessionCommand carries the product snapshot and redirect targets for a
// new checkout session. Price is in major currency units.
type CreateSessionCommand struct {
	ProductName        string
	ProductDescription string
	ProductImage       string
	ProductPrice       float64
	SuccessURL         string
	CancelURL          string
}

// CheckoutSession is the created session handed back to the client for redirect.
type CheckoutSession struct {
	SessionID   string
	RedirectURL string
}

// SessionVerification reports the payment outcome of a completed session.
type SessionVerification struct {
	Status        payments.PaymentStatus
	CustomerEmail string
	CustomerName  string
}

// CheckoutService exposes the checkout session lifecycle.
type CheckoutService interface {
	CreateSession(ctx context.Context, cmd CreateSessionCommand) (CheckoutSession, error)
	VerifySession(ctx context.Context, sessionID string) (SessionVerification, error)
}

// CheckoutServiceDeps wires the dependencies required by the checkout service.
type CheckoutServiceDeps struct {
	Gateway  payments.Gateway
	Currency string
	Logger   func(ctx context.Context, event string, fields map[string]any)
}

type checkoutService struct {
	gateway  payments.Gateway
	currency string
	logger   func(ctx context.Context, event string, fields map[string]any)
}

// NewCheckoutService constructs a CheckoutService validating required dependencies.
func NewCheckoutService(deps CheckoutServiceDeps) (CheckoutService, error) {
	if deps.Gateway == nil {
		return nil, errors.New("checkout service: payment gateway is required")
	}

	currency := strings.ToLower(strings.TrimSpace(deps.Currency))
	if currency == "" {
		currency = "usd"
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &checkoutService{
		gateway:  deps.Gateway,
		currency: currency,
		logger:   logger,
	}, nil
}

// CreateSession registers the product with the gateway, prices it, and opens a
// hosted checkout session. Each call creates fresh gateway objects; nothing is
// reused between requests.
func (s *checkoutService) CreateSession(ctx context.Context, cmd CreateSessionCommand) (CheckoutSession, error) {
	if s == nil || s.gateway == nil {
		return CheckoutSession{}, ErrCheckoutUnavailable
	}

	name := strings.TrimSpace(cmd.ProductName)
	successURL := strings.TrimSpace(cmd.SuccessURL)
	cancelURL := strings.TrimSpace(cmd.CancelURL)
	if name == "" || cmd.ProductPrice <= 0 {
		return CheckoutSession{}, ErrCheckoutInvalidInput
	}
	if successURL == "" || cancelURL == "" {
		return CheckoutSession{}, ErrCheckoutInvalidInput
	}

	product, err := s.gateway.CreateProduct(ctx, payments.ProductRequest{
		Name:        name,
		Description: strings.TrimSpace(cmd.ProductDescription),
		ImageURL:    strings.TrimSpace(cmd.ProductImage),
	})
	if err != nil {
		return CheckoutSession{}, s.gatewayError(ctx, "create product", err)
	}

	price, err := s.gateway.CreatePrice(ctx, payments.PriceRequest{
		ProductID: product.ID,
		Amount:    minorUnits(cmd.ProductPrice),
		Currency:  s.currency,
	})
	if err != nil {
		return CheckoutSession{}, s.gatewayError(ctx, "create price", err)
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, payments.SessionRequest{
		PriceID:    price.ID,
		SuccessURL: successURL + "?session_id=" + sessionIDPlaceholder,
		CancelURL:  cancelURL,
	})
	if err != nil {
		return CheckoutSession{}, s.gatewayError(ctx, "create session", err)
	}

	s.logger(ctx, "checkout.session.created", map[string]any{
		"sessionId": session.ID,
		"product":   name,
		"amount":    minorUnits(cmd.ProductPrice),
		"currency":  s.currency,
	})

	return CheckoutSession{
		SessionID:   session.ID,
		RedirectURL: session.URL,
	}, nil
}

// VerifySession fetches the session state from the gateway. Results are never
// cached; every call reflects the gateway's current view.
func (s *checkoutService) VerifySession(ctx context.Context, sessionID string) (SessionVerification, error) {
	if s == nil || s.gateway == nil {
		return SessionVerification{}, ErrCheckoutUnavailable
	}

	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return SessionVerification{}, ErrCheckoutInvalidInput
	}

	details, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		s.logger(ctx, "checkout.session.verify_failed", map[string]any{
			"sessionId": sessionID,
			"error":     err.Error(),
		})
		return SessionVerification{}, ErrSessionNotFound
	}

	return SessionVerification{
		Status:        details.Status,
		CustomerEmail: details.Customer.Email,
		CustomerName:  details.Customer.Name,
	}, nil
}

func (s *checkoutService) gatewayError(ctx context.Context, op string, err error) error {
	s.logger(ctx, "checkout.gateway.error", map[string]any{
		"operation": op,
		"error":     err.Error(),
	})
	return fmt.Errorf("%w: %s: %v", ErrGatewayFailure, op, err)
}

// minorUnits converts a major-unit price to the currency's minor unit,
// rounding half away from zero.
func minorUnits(price float64) int64 {
	return int64(math.Round(price * 100))
}
