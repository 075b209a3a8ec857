package ledger

import (
	"context"
	"errors"
	"time"

	"fleetbook/internal/domain"
	"fleetbook/internal/identity"
	"fleetbook/internal/platform/config"
)

// ErrIdentityExpired indicates a delegated identity whose authority has
// already lapsed. Expired identities are refused at handle construction so a
// dead credential never produces a ledger call.
var ErrIdentityExpired = errors.New("delegated identity expired")

// Client is the unauthenticated base handle. It holds connection details but
// exposes no ledger operations; callers must attach an identity first.
type Client struct {
	baseURL string
	timeout time.Duration
}

func NewClient(cfg config.Server) *Client {
	return &Client{baseURL: cfg.LedgerURL, timeout: cfg.RemoteTimeout}
}

// WithUserIdentity binds a reconstructed session identity and returns a
// user-scoped handle.
func (c *Client) WithUserIdentity(id *identity.DelegatedIdentity, now time.Time) (*UserSession, error) {
	if !id.EffectiveExpiry().After(now) {
		return nil, ErrIdentityExpired
	}
	return &UserSession{agent: newAgent(c.baseURL, c.timeout, id)}, nil
}

// WithAdminIdentity binds the service's administrative identity and returns
// a handle that can commit reservations. Admin handles must only ever wrap
// the service's own key, never user-supplied material.
func (c *Client) WithAdminIdentity(id *identity.Identity) *AdminSession {
	return &AdminSession{agent: newAgent(c.baseURL, c.timeout, id)}
}

// UserSession can obtain quotes but not commit them. It deliberately has no
// Reserve method.
type UserSession struct {
	agent *agent
}

// ValidateAvailability asks the ledger whether the car is free over the
// window and, if so, returns the quoted record holding the booking id and
// total amount.
func (s *UserSession) ValidateAvailability(ctx context.Context, carID uint64, w domain.Window, customer CustomerRecord) (*LedgerRecord, error) {
	return validateAvailability(ctx, s.agent, carID, w, customer)
}

// Principal reports the address the ledger sees the session as.
func (s *UserSession) Principal() identity.Principal {
	return s.agent.principal()
}

// AdminSession extends quote access with the ability to commit reservations.
type AdminSession struct {
	agent *agent
}

// Reserve commits a previously quoted booking against its payment proof and
// returns the ledger's confirmed record.
func (s *AdminSession) Reserve(ctx context.Context, bookingID uint64, proof PaymentProof) (*LedgerRecord, error) {
	var out LedgerRecord
	if err := s.agent.call(ctx, "reserve", reserveRequest{BookingID: bookingID, Proof: proof}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ValidateAvailability asks the ledger whether the car is free over the
// window and, if so, returns the quoted record.
func (s *AdminSession) ValidateAvailability(ctx context.Context, carID uint64, w domain.Window, customer CustomerRecord) (*LedgerRecord, error) {
	return validateAvailability(ctx, s.agent, carID, w, customer)
}

// Principal reports the address the ledger sees the session as.
func (s *AdminSession) Principal() identity.Principal {
	return s.agent.principal()
}

func validateAvailability(ctx context.Context, a *agent, carID uint64, w domain.Window, customer CustomerRecord) (*LedgerRecord, error) {
	req := AvailabilityRequest{
		CarID:    carID,
		StartNS:  uint64(w.Start) * uint64(time.Second),
		EndNS:    uint64(w.End) * uint64(time.Second),
		Customer: customer,
	}
	var out LedgerRecord
	if err := a.call(ctx, "validate_availability", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
