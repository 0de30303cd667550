package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/greatgold/storefront/internal/payments"
	"github.com/greatgold/storefront/internal/services"
)

type stubCheckoutService struct {
	createCmd    *services.CreateSessionCommand
	createResult services.CheckoutSession
	createErr    error

	verifyID     string
	verifyResult services.SessionVerification
	verifyErr    error
}

func (s *stubCheckoutService) CreateSession(_ context.Context, cmd services.CreateSessionCommand) (services.CheckoutSession, error) {
	s.createCmd = &cmd
	if s.createErr != nil {
		return services.CheckoutSession{}, s.createErr
	}
	return s.createResult, nil
}

func (s *stubCheckoutService) VerifySession(_ context.Context, sessionID string) (services.SessionVerification, error) {
	s.verifyID = sessionID
	if s.verifyErr != nil {
		return services.SessionVerification{}, s.verifyErr
	}
	return s.verifyResult, nil
}

func newCheckoutRouter(svc services.CheckoutService) http.Handler {
	return NewRouter(
		WithoutMetrics(),
		WithCheckoutRoutes(NewCheckoutHandlers(svc).Routes),
	)
}

func decodeJSONBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var payload map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	return payload
}

func TestCreateSessionReturnsSessionIDAndURL(t *testing.T) {
	svc := &stubCheckoutService{createResult: services.CheckoutSession{
		SessionID:   "cs_test_1",
		RedirectURL: "https://checkout.example.com/cs_test_1",
	}}
	router := newCheckoutRouter(svc)

	body := `{"productName":"1oz Gold Bar","productPrice":2050,"successUrl":"https://shop.example.com/success","cancelUrl":"https://shop.example.com/cancel"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	payload := decodeJSONBody(t, rec)
	if payload["sessionId"] != "cs_test_1" {
		t.Fatalf("unexpected sessionId %v", payload["sessionId"])
	}
	if payload["url"] != "https://checkout.example.com/cs_test_1" {
		t.Fatalf("unexpected url %v", payload["url"])
	}
	if svc.createCmd.ProductName != "1oz Gold Bar" || svc.createCmd.ProductPrice != 2050 {
		t.Fatalf("unexpected command %+v", svc.createCmd)
	}
}

func TestCreateSessionRejectsMissingFields(t *testing.T) {
	cases := map[string]string{
		"missing name":  `{"productPrice":2050,"successUrl":"https://s","cancelUrl":"https://c"}`,
		"zero price":    `{"productName":"Gold","successUrl":"https://s","cancelUrl":"https://c"}`,
		"missing urls":  `{"productName":"Gold","productPrice":2050}`,
		"empty body":    ``,
		"invalid json":  `{"productName":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			svc := &stubCheckoutService{}
			router := newCheckoutRouter(svc)

			req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if svc.createCmd != nil {
				t.Fatal("service should not be called on invalid input")
			}
		})
	}
}

func TestCreateSessionGatewayFailure(t *testing.T) {
	svc := &stubCheckoutService{createErr: services.ErrGatewayFailure}
	router := newCheckoutRouter(svc)

	body := `{"productName":"Gold","productPrice":100,"successUrl":"https://s","cancelUrl":"https://c"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	payload := decodeJSONBody(t, rec)
	if payload["error"] != "checkout_error" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
	if _, ok := payload["details"]; !ok {
		t.Fatal("expected error details in payload")
	}
}

func TestVerifySessionReturnsStatusAndCustomer(t *testing.T) {
	svc := &stubCheckoutService{verifyResult: services.SessionVerification{
		Status:        payments.StatusPaid,
		CustomerEmail: "buyer@example.com",
		CustomerName:  "Ada Buyer",
	}}
	router := newCheckoutRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/verify-session/cs_test_1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", rec.Code, rec.Body.String())
	}
	if svc.verifyID != "cs_test_1" {
		t.Fatalf("unexpected session id %q", svc.verifyID)
	}
	payload := decodeJSONBody(t, rec)
	if payload["status"] != "paid" {
		t.Fatalf("unexpected status %v", payload["status"])
	}
	customer, ok := payload["customer"].(map[string]any)
	if !ok {
		t.Fatalf("expected customer object, got %v", payload["customer"])
	}
	if customer["email"] != "buyer@example.com" || customer["name"] != "Ada Buyer" {
		t.Fatalf("unexpected customer %v", customer)
	}
}

func TestVerifySessionInvalidSessionIsGeneric(t *testing.T) {
	svc := &stubCheckoutService{verifyErr: services.ErrSessionNotFound}
	router := newCheckoutRouter(svc)

	req := httptest.NewRequest(http.MethodGet, "/api/verify-session/cs_bogus", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	payload := decodeJSONBody(t, rec)
	if payload["error"] != "invalid_session" {
		t.Fatalf("unexpected error code %v", payload["error"])
	}
	if payload["message"] != "invalid session" {
		t.Fatalf("unexpected message %v", payload["message"])
	}
	if strings.Contains(rec.Body.String(), "cs_bogus") {
		t.Fatal("response must not echo the session id")
	}
}

func TestCheckoutErrorCausesNoPanicWithErrorChain(t *testing.T) {
	svc := &stubCheckoutService{createErr: errors.New("unexpected")}
	router := newCheckoutRouter(svc)

	body := `{"productName":"Gold","productPrice":100,"successUrl":"https://s","cancelUrl":"https://c"}`
	req := httptest.NewRequest(http.MethodPost, "/api/create-checkout-session", strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}
