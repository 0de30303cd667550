package storefront

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"
)

// State enumerates the stages of a payment attempt.
type State string

const (
	// StateIdle means no payment attempt is in progress.
	StateIdle State = "idle"
	// StateSubmitting means the attempt is waiting on the session service.
	StateSubmitting State = "submitting"
	// StateRedirecting means a session was created and the customer is being
	// sent to the hosted checkout page.
	StateRedirecting State = "redirecting"
	// StateFailed means the attempt ended in an error the customer can retry.
	StateFailed State = "failed"
)

var (
	// ErrCheckoutInProgress is returned when a second attempt starts before the first settles.
	ErrCheckoutInProgress = errors.New("storefront: checkout already in progress")
	// ErrMissingSessionID is returned when verification is requested without a session id.
	ErrMissingSessionID = errors.New("storefront: missing session id")
	// ErrNoSessionCreated is returned when the backend responds without a session id.
	ErrNoSessionCreated = errors.New("storefront: no session id received from server")
)

// Result is the three-state outcome of a session verification.
type Result struct {
	pending      bool
	verification VerifyResponse
	err          error
}

// PendingResult marks a verification that has not completed yet.
func PendingResult() Result {
	return Result{pending: true}
}

// OKResult wraps a successful verification.
func OKResult(v VerifyResponse) Result {
	return Result{verification: v}
}

// ErrResult wraps a failed verification.
func ErrResult(err error) Result {
	return Result{err: err}
}

// Pending reports whether the verification is still in flight.
func (r Result) Pending() bool { return r.pending }

// OK returns the verification outcome when it completed successfully.
func (r Result) OK() (VerifyResponse, bool) {
	if r.pending || r.err != nil {
		return VerifyResponse{}, false
	}
	return r.verification, true
}

// Err returns the verification error, if any.
func (r Result) Err() error { return r.err }

// Flow drives a single payment attempt through its states. A Flow is safe for
// concurrent use; only one attempt can be in flight at a time.
type Flow struct {
	client *Client

	mu        sync.Mutex
	state     State
	attemptID string
	lastErr   error
}

// NewFlow constructs an idle payment flow over the given API client.
func NewFlow(client *Client) *Flow {
	return &Flow{
		client: client,
		state:  StateIdle,
	}
}

// State returns the current flow state.
func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// AttemptID returns the identifier of the current or last attempt.
func (f *Flow) AttemptID() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attemptID
}

// Err returns the error that moved the flow into the failed state.
func (f *Flow) Err() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

// Reset returns a settled flow to idle so the customer can retry.
func (f *Flow) Reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == StateSubmitting {
		return
	}
	f.state = StateIdle
	f.lastErr = nil
}

// Checkout runs a payment attempt: health check, session creation, then hands
// back the hosted checkout URL for redirect. A failed attempt settles in the
// failed state and can be retried after Reset.
func (f *Flow) Checkout(ctx context.Context, product Product, successURL, cancelURL string) (string, error) {
	f.mu.Lock()
	if f.state == StateSubmitting {
		f.mu.Unlock()
		return "", ErrCheckoutInProgress
	}
	f.state = StateSubmitting
	f.attemptID = ulid.Make().String()
	f.lastErr = nil
	f.mu.Unlock()

	if _, err := f.client.Health(ctx); err != nil {
		return "", f.fail(err)
	}

	session, err := f.client.CreateSession(ctx, SessionRequest{
		ProductName:        product.Name,
		ProductDescription: product.Description,
		ProductImage:       product.Image,
		ProductPrice:       product.Price,
		SuccessURL:         successURL,
		CancelURL:          cancelURL,
	})
	if err != nil {
		return "", f.fail(err)
	}
	if session.SessionID == "" {
		return "", f.fail(ErrNoSessionCreated)
	}

	f.mu.Lock()
	f.state = StateRedirecting
	f.mu.Unlock()

	return session.URL, nil
}

// Verify resolves the post-checkout return. An empty session id resolves
// without touching the network; the caller should send the customer back to
// the catalog in that case.
func (f *Flow) Verify(ctx context.Context, sessionID string) Result {
	if strings.TrimSpace(sessionID) == "" {
		return ErrResult(ErrMissingSessionID)
	}

	verification, err := f.client.VerifySession(ctx, sessionID)
	if err != nil {
		return ErrResult(err)
	}
	return OKResult(verification)
}

func (f *Flow) fail(err error) error {
	f.mu.Lock()
	f.state = StateFailed
	f.lastErr = err
	f.mu.Unlock()
	return err
}
