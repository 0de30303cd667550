package storefront

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultTimeout = 8 * time.Second

// ErrServerUnavailable is returned when the session service health check fails.
var ErrServerUnavailable = errors.New("storefront: payment server is not available")

// Client issues health, session and verification calls against the session service.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient constructs an API client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http: &http.Client{
			Timeout: defaultTimeout,
		},
	}
}

// HTTPClient exposes the underlying transport, mainly for tests.
func (c *Client) HTTPClient() *http.Client {
	if c.http == nil {
		c.http = &http.Client{Timeout: defaultTimeout}
	}
	return c.http
}

// HealthStatus mirrors the service health payload.
type HealthStatus struct {
	Status    string
	Timestamp string
	Env       string
}

// SessionRequest carries the product snapshot for session creation.
type SessionRequest struct {
	ProductName        string
	ProductDescription string
	ProductImage       string
	ProductPrice       float64
	SuccessURL         string
	CancelURL          string
}

// SessionResponse mirrors the backend payload for a created session.
type SessionResponse struct {
	SessionID string
	URL       string
}

// VerifyResponse mirrors the backend payload for a verified session.
type VerifyResponse struct {
	Status        string
	CustomerEmail string
	CustomerName  string
}

// Health checks the session service liveness endpoint.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "health")
	if err != nil {
		return HealthStatus{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return HealthStatus{}, fmt.Errorf("%w: %v", ErrServerUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return HealthStatus{}, fmt.Errorf("%w: status %d", ErrServerUnavailable, resp.StatusCode)
	}

	var payload healthPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return HealthStatus{}, err
	}
	return HealthStatus{
		Status:    payload.Status,
		Timestamp: payload.Timestamp,
		Env:       payload.Env,
	}, nil
}

// CreateSession invokes the backend API to open a hosted checkout session.
func (c *Client) CreateSession(ctx context.Context, req SessionRequest) (SessionResponse, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "create-checkout-session")
	if err != nil {
		return SessionResponse{}, err
	}

	payload, err := json.Marshal(sessionPayload{
		ProductName:        strings.TrimSpace(req.ProductName),
		ProductDescription: strings.TrimSpace(req.ProductDescription),
		ProductImage:       strings.TrimSpace(req.ProductImage),
		ProductPrice:       req.ProductPrice,
		SuccessURL:         strings.TrimSpace(req.SuccessURL),
		CancelURL:          strings.TrimSpace(req.CancelURL),
	})
	if err != nil {
		return SessionResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return SessionResponse{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return SessionResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return SessionResponse{}, fmt.Errorf("storefront: create session status %d: %s", resp.StatusCode, drainError(resp.Body))
	}

	var respPayload sessionResponsePayload
	if err := json.NewDecoder(resp.Body).Decode(&respPayload); err != nil {
		return SessionResponse{}, err
	}
	return SessionResponse{
		SessionID: strings.TrimSpace(respPayload.SessionID),
		URL:       strings.TrimSpace(respPayload.URL),
	}, nil
}

// VerifySession fetches the payment outcome for a completed session.
func (c *Client) VerifySession(ctx context.Context, sessionID string) (VerifyResponse, error) {
	endpoint, err := url.JoinPath(c.baseURL, "api", "verify-session", sessionID)
	if err != nil {
		return VerifyResponse{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return VerifyResponse{}, err
	}
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return VerifyResponse{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return VerifyResponse{}, fmt.Errorf("storefront: verify session status %d: %s", resp.StatusCode, drainError(resp.Body))
	}

	var payload verifyPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return VerifyResponse{}, err
	}
	return VerifyResponse{
		Status:        strings.TrimSpace(payload.Status),
		CustomerEmail: strings.TrimSpace(payload.Customer.Email),
		CustomerName:  strings.TrimSpace(payload.Customer.Name),
	}, nil
}

func drainError(r io.Reader) string {
	if r == nil {
		return ""
	}
	b, _ := io.ReadAll(io.LimitReader(r, 256))
	return strings.TrimSpace(string(b))
}

type healthPayload struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Env       string `json:"env"`
}

type sessionPayload struct {
	ProductName        string  `json:"productName"`
	ProductDescription string  `json:"productDescription,omitempty"`
	ProductImage       string  `json:"productImage,omitempty"`
	ProductPrice       float64 `json:"productPrice"`
	SuccessURL         string  `json:"successUrl"`
	CancelURL          string  `json:"cancelUrl"`
}

type sessionResponsePayload struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

type verifyPayload struct {
	Status   string `json:"status"`
	Customer struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	} `json:"customer"`
}
