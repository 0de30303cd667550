package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"
)

// StripeLogger defines the logging contract for Stripe gateway operations.
type StripeLogger func(ctx context.Context, event string, fields map[string]any)

type stripeProductAPI interface {
	New(params *stripe.ProductParams) (*stripe.Product, error)
}

type stripePriceAPI interface {
	New(params *stripe.PriceParams) (*stripe.Price, error)
}

type stripeSessionAPI interface {
	New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
}

type stripeClients struct {
	products stripeProductAPI
	prices   stripePriceAPI
	sessions stripeSessionAPI
}

// StripeGatewayConfig configures the StripeGateway.
type StripeGatewayConfig struct {
	APIKey   string
	Backends *stripe.Backends
	Logger   StripeLogger
	Clients  *stripeClients
}

// StripeGateway implements the Gateway interface using Stripe APIs.
type StripeGateway struct {
	api    stripeClients
	logger StripeLogger
}

// NewStripeGateway constructs a Stripe Gateway using the given configuration.
func NewStripeGateway(cfg StripeGatewayConfig) (*StripeGateway, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" && cfg.Clients == nil {
		return nil, errors.New("stripe: api key is required")
	}

	var clients stripeClients
	if cfg.Clients != nil {
		clients = *cfg.Clients
	} else {
		sc := client.New(apiKey, cfg.Backends)
		clients = stripeClients{
			products: sc.Products,
			prices:   sc.Prices,
			sessions: sc.CheckoutSessions,
		}
	}

	if clients.products == nil || clients.prices == nil || clients.sessions == nil {
		return nil, errors.New("stripe: incomplete client configuration")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &StripeGateway{
		api:    clients,
		logger: logger,
	}, nil
}

// CreateProduct registers a Stripe product for the checkout line item.
func (g *StripeGateway) CreateProduct(ctx context.Context, req ProductRequest) (Product, error) {
	if g == nil {
		return Product{}, errors.New("stripe: gateway is nil")
	}

	params := &stripe.ProductParams{
		Name: stripe.String(req.Name),
	}
	params.Context = ctx
	if req.Description != "" {
		params.Description = stripe.String(req.Description)
	}
	if req.ImageURL != "" {
		params.Images = stripe.StringSlice([]string{req.ImageURL})
	}

	product, err := g.api.products.New(params)
	if err != nil {
		return Product{}, fmt.Errorf("stripe: create product: %w", err)
	}

	g.logger(ctx, "payments.stripe.product.created", map[string]any{
		"productId": product.ID,
		"name":      product.Name,
	})

	return Product{
		ID:   product.ID,
		Name: product.Name,
	}, nil
}

// CreatePrice attaches a one-time price to a product.
func (g *StripeGateway) CreatePrice(ctx context.Context, req PriceRequest) (Price, error) {
	if g == nil {
		return Price{}, errors.New("stripe: gateway is nil")
	}

	params := &stripe.PriceParams{
		Product:    stripe.String(req.ProductID),
		UnitAmount: stripe.Int64(req.Amount),
		Currency:   stripe.String(strings.ToLower(req.Currency)),
	}
	params.Context = ctx

	price, err := g.api.prices.New(params)
	if err != nil {
		return Price{}, fmt.Errorf("stripe: create price: %w", err)
	}

	g.logger(ctx, "payments.stripe.price.created", map[string]any{
		"priceId":    price.ID,
		"unitAmount": price.UnitAmount,
		"currency":   price.Currency,
	})

	return Price{
		ID:       price.ID,
		Amount:   price.UnitAmount,
		Currency: string(price.Currency),
	}, nil
}

// CreateCheckoutSession opens a hosted Stripe Checkout session for a single
// line item with quantity one in payment mode.
func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, req SessionRequest) (Session, error) {
	if g == nil {
		return Session{}, errors.New("stripe: gateway is nil")
	}

	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{
			string(stripe.PaymentMethodTypeCard),
		}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(req.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx

	session, err := g.api.sessions.New(params)
	if err != nil {
		return Session{}, fmt.Errorf("stripe: create checkout session: %w", err)
	}

	g.logger(ctx, "payments.stripe.session.created", map[string]any{
		"sessionId": session.ID,
	})

	return Session{
		ID:  session.ID,
		URL: session.URL,
	}, nil
}

// RetrieveSession fetches a checkout session and normalises its payment outcome.
func (g *StripeGateway) RetrieveSession(ctx context.Context, sessionID string) (SessionDetails, error) {
	if g == nil {
		return SessionDetails{}, errors.New("stripe: gateway is nil")
	}

	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	session, err := g.api.sessions.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeResourceMissing {
			return SessionDetails{}, ErrSessionNotFound
		}
		return SessionDetails{}, fmt.Errorf("stripe: retrieve checkout session: %w", err)
	}

	details := SessionDetails{
		ID:     session.ID,
		Status: mapPaymentStatus(session.PaymentStatus),
	}
	if session.CustomerDetails != nil {
		details.Customer = Customer{
			Email: session.CustomerDetails.Email,
			Name:  session.CustomerDetails.Name,
		}
	}

	return details, nil
}

func mapPaymentStatus(status stripe.CheckoutSessionPaymentStatus) PaymentStatus {
	switch status {
	case stripe.CheckoutSessionPaymentStatusPaid:
		return StatusPaid
	case stripe.CheckoutSessionPaymentStatusNoPaymentRequired:
		return StatusNoPaymentRequired
	default:
		return StatusUnpaid
	}
}
