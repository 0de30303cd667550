package payments

import (
	"context"
	"errors"
	"testing"

	"github.com/stripe/stripe-go/v78"
)

type stubProductAPI struct {
	params  *stripe.ProductParams
	product *stripe.Product
	err     error
}

func (s *stubProductAPI) New(params *stripe.ProductParams) (*stripe.Product, error) {
	s.params = params
	return s.product, s.err
}

type stubPriceAPI struct {
	params *stripe.PriceParams
	price  *stripe.Price
	err    error
}

func (s *stubPriceAPI) New(params *stripe.PriceParams) (*stripe.Price, error) {
	s.params = params
	return s.price, s.err
}

type stubSessionAPI struct {
	newParams *stripe.CheckoutSessionParams
	getID     string
	session   *stripe.CheckoutSession
	err       error
}

func (s *stubSessionAPI) New(params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.newParams = params
	return s.session, s.err
}

func (s *stubSessionAPI) Get(id string, params *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	s.getID = id
	return s.session, s.err
}

func newTestGateway(t *testing.T, clients stripeClients) *StripeGateway {
	t.Helper()
	gateway, err := NewStripeGateway(StripeGatewayConfig{Clients: &clients})
	if err != nil {
		t.Fatalf("NewStripeGateway returned error: %v", err)
	}
	return gateway
}

func TestNewStripeGatewayRequiresAPIKey(t *testing.T) {
	if _, err := NewStripeGateway(StripeGatewayConfig{}); err == nil {
		t.Fatal("expected error when api key and clients are both missing")
	}
}

func TestCreateProductSetsOptionalFields(t *testing.T) {
	products := &stubProductAPI{product: &stripe.Product{ID: "prod_123", Name: "Gold Bar"}}
	gateway := newTestGateway(t, stripeClients{
		products: products,
		prices:   &stubPriceAPI{},
		sessions: &stubSessionAPI{},
	})

	product, err := gateway.CreateProduct(context.Background(), ProductRequest{
		Name:        "Gold Bar",
		Description: "1 oz fine gold",
		ImageURL:    "https://img.example.com/bar.png",
	})
	if err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if product.ID != "prod_123" {
		t.Fatalf("unexpected product id %q", product.ID)
	}
	if got := stripe.StringValue(products.params.Name); got != "Gold Bar" {
		t.Fatalf("unexpected product name %q", got)
	}
	if got := stripe.StringValue(products.params.Description); got != "1 oz fine gold" {
		t.Fatalf("unexpected description %q", got)
	}
	if len(products.params.Images) != 1 || stripe.StringValue(products.params.Images[0]) != "https://img.example.com/bar.png" {
		t.Fatalf("unexpected images %v", products.params.Images)
	}
}

func TestCreateProductOmitsEmptyOptionalFields(t *testing.T) {
	products := &stubProductAPI{product: &stripe.Product{ID: "prod_123"}}
	gateway := newTestGateway(t, stripeClients{
		products: products,
		prices:   &stubPriceAPI{},
		sessions: &stubSessionAPI{},
	})

	if _, err := gateway.CreateProduct(context.Background(), ProductRequest{Name: "Gold Bar"}); err != nil {
		t.Fatalf("CreateProduct returned error: %v", err)
	}
	if products.params.Description != nil {
		t.Fatal("expected description to be omitted")
	}
	if products.params.Images != nil {
		t.Fatal("expected images to be omitted")
	}
}

func TestCreatePriceLowersCurrency(t *testing.T) {
	prices := &stubPriceAPI{price: &stripe.Price{ID: "price_123", UnitAmount: 205000, Currency: stripe.CurrencyUSD}}
	gateway := newTestGateway(t, stripeClients{
		products: &stubProductAPI{},
		prices:   prices,
		sessions: &stubSessionAPI{},
	})

	price, err := gateway.CreatePrice(context.Background(), PriceRequest{
		ProductID: "prod_123",
		Amount:    205000,
		Currency:  "USD",
	})
	if err != nil {
		t.Fatalf("CreatePrice returned error: %v", err)
	}
	if price.ID != "price_123" {
		t.Fatalf("unexpected price id %q", price.ID)
	}
	if got := stripe.StringValue(prices.params.Currency); got != "usd" {
		t.Fatalf("expected lowercase currency, got %q", got)
	}
	if got := stripe.Int64Value(prices.params.UnitAmount); got != 205000 {
		t.Fatalf("unexpected unit amount %d", got)
	}
	if got := stripe.StringValue(prices.params.Product); got != "prod_123" {
		t.Fatalf("unexpected product ref %q", got)
	}
}

func TestCreateCheckoutSessionParams(t *testing.T) {
	sessions := &stubSessionAPI{session: &stripe.CheckoutSession{ID: "cs_test_123", URL: "https://checkout.stripe.com/c/pay/cs_test_123"}}
	gateway := newTestGateway(t, stripeClients{
		products: &stubProductAPI{},
		prices:   &stubPriceAPI{},
		sessions: sessions,
	})

	session, err := gateway.CreateCheckoutSession(context.Background(), SessionRequest{
		PriceID:    "price_123",
		SuccessURL: "https://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:  "https://shop.example.com/cancel",
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession returned error: %v", err)
	}
	if session.ID != "cs_test_123" {
		t.Fatalf("unexpected session id %q", session.ID)
	}
	if session.URL == "" {
		t.Fatal("expected hosted session url")
	}

	params := sessions.newParams
	if got := stripe.StringValue(params.Mode); got != string(stripe.CheckoutSessionModePayment) {
		t.Fatalf("unexpected mode %q", got)
	}
	if len(params.LineItems) != 1 {
		t.Fatalf("expected one line item, got %d", len(params.LineItems))
	}
	if got := stripe.Int64Value(params.LineItems[0].Quantity); got != 1 {
		t.Fatalf("unexpected quantity %d", got)
	}
	if got := stripe.StringValue(params.LineItems[0].Price); got != "price_123" {
		t.Fatalf("unexpected price ref %q", got)
	}
	if got := stripe.StringValue(params.SuccessURL); got != "https://shop.example.com/success?session_id={CHECKOUT_SESSION_ID}" {
		t.Fatalf("unexpected success url %q", got)
	}
}

func TestCreateCheckoutSessionError(t *testing.T) {
	sessions := &stubSessionAPI{err: errors.New("boom")}
	gateway := newTestGateway(t, stripeClients{
		products: &stubProductAPI{},
		prices:   &stubPriceAPI{},
		sessions: sessions,
	})

	if _, err := gateway.CreateCheckoutSession(context.Background(), SessionRequest{PriceID: "price_123"}); err == nil {
		t.Fatal("expected error from gateway")
	}
}

func TestRetrieveSessionMapsStatusAndCustomer(t *testing.T) {
	sessions := &stubSessionAPI{session: &stripe.CheckoutSession{
		ID:            "cs_test_123",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		CustomerDetails: &stripe.CheckoutSessionCustomerDetails{
			Email: "buyer@example.com",
			Name:  "Ada Buyer",
		},
	}}
	gateway := newTestGateway(t, stripeClients{
		products: &stubProductAPI{},
		prices:   &stubPriceAPI{},
		sessions: sessions,
	})

	details, err := gateway.RetrieveSession(context.Background(), "cs_test_123")
	if err != nil {
		t.Fatalf("RetrieveSession returned error: %v", err)
	}
	if sessions.getID != "cs_test_123" {
		t.Fatalf("unexpected session id passed to API: %q", sessions.getID)
	}
	if details.Status != StatusPaid {
		t.Fatalf("unexpected status %q", details.Status)
	}
	if details.Customer.Email != "buyer@example.com" || details.Customer.Name != "Ada Buyer" {
		t.Fatalf("unexpected customer %+v", details.Customer)
	}
}

func TestRetrieveSessionMissingResource(t *testing.T) {
	sessions := &stubSessionAPI{err: &stripe.Error{Code: stripe.ErrorCodeResourceMissing}}
	gateway := newTestGateway(t, stripeClients{
		products: &stubProductAPI{},
		prices:   &stubPriceAPI{},
		sessions: sessions,
	})

	_, err := gateway.RetrieveSession(context.Background(), "cs_missing")
	if !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestMapPaymentStatus(t *testing.T) {
	cases := map[stripe.CheckoutSessionPaymentStatus]PaymentStatus{
		stripe.CheckoutSessionPaymentStatusPaid:              StatusPaid,
		stripe.CheckoutSessionPaymentStatusUnpaid:            StatusUnpaid,
		stripe.CheckoutSessionPaymentStatusNoPaymentRequired: StatusNoPaymentRequired,
	}
	for input, want := range cases {
		if got := mapPaymentStatus(input); got != want {
			t.Fatalf("mapPaymentStatus(%q) = %q, want %q", input, got, want)
		}
	}
}
