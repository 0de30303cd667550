package payments

import (
	"context"
	"errors"
)

// PaymentStatus enumerates the checkout session payment states reported by the gateway.
type PaymentStatus string

const (
	// StatusPaid indicates the session has been paid in full.
	StatusPaid PaymentStatus = "paid"
	// StatusUnpaid indicates the customer has not completed payment.
	StatusUnpaid PaymentStatus = "unpaid"
	// StatusNoPaymentRequired indicates the session required no payment.
	StatusNoPaymentRequired PaymentStatus = "no_payment_required"
)

// ErrSessionNotFound is returned when a session id does not resolve at the gateway.
var ErrSessionNotFound = errors.New("payments: session not found")

// ProductRequest describes the product to register with the gateway before pricing it.
type ProductRequest struct {
	Name        string
	Description string
	ImageURL    string
}

// Product is the gateway's handle for a registered product.
type Product struct {
	ID   string
	Name string
}

// PriceRequest attaches a one-time price to a previously created product.
// Amount is in the currency's minor unit (cents for USD).
type PriceRequest struct {
	ProductID string
	Amount    int64
	Currency  string
}

// Price is the gateway's handle for a product price.
type Price struct {
	ID       string
	Amount   int64
	Currency string
}

// SessionRequest captures the payload required to open a hosted checkout session
// for a single price with quantity one.
type SessionRequest struct {
	PriceID    string
	SuccessURL string
	CancelURL  string
}

// Session represents the hosted checkout session returned to the client.
type Session struct {
	ID  string
	URL string
}

// Customer carries the buyer details captured by the gateway during checkout.
type Customer struct {
	Email string
	Name  string
}

// SessionDetails reports the outcome of a completed or abandoned checkout session.
type SessionDetails struct {
	ID       string
	Status   PaymentStatus
	Customer Customer
}

// Gateway defines the contract for payment provider adapters.
type Gateway interface {
	CreateProduct(ctx context.Context, req ProductRequest) (Product, error)
	CreatePrice(ctx context.Context, req PriceRequest) (Price, error)
	CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error)
	RetrieveSession(ctx context.Context, sessionID string) (SessionDetails, error)
}
