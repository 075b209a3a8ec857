// Package adapters implements the booking ports against their real
// collaborators: the signed ledger transport, the payment gateway, and the
// email notifier.
package adapters

import (
	"context"
	"encoding/json"
	"errors"

	"fleetbook/internal/booking/ports"
	"fleetbook/internal/domain"
	"fleetbook/internal/identity"
	"fleetbook/internal/ledger"
	dErrors "fleetbook/pkg/domain-errors"
	"fleetbook/pkg/requestcontext"
)

// LedgerAdapter backs the ledger port with the signed remote client. Quotes
// run under the caller's delegated identity; commits run under the service's
// administrative identity only.
type LedgerAdapter struct {
	client *ledger.Client
	admin  *ledger.AdminSession
}

func NewLedgerAdapter(client *ledger.Client, adminID *identity.Identity) *LedgerAdapter {
	return &LedgerAdapter{
		client: client,
		admin:  client.WithAdminIdentity(adminID),
	}
}

func (a *LedgerAdapter) QuoteAvailability(ctx context.Context, identityWire json.RawMessage, carID uint64, w domain.Window, customer domain.Customer) (*ports.Quote, error) {
	now := requestcontext.Now(ctx)

	var wire identity.Wire
	if err := json.Unmarshal(identityWire, &wire); err != nil {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "malformed delegation payload")
	}
	id, err := identity.Reconstruct(&wire, now)
	if err != nil {
		return nil, delegationError(err)
	}
	session, err := a.client.WithUserIdentity(id, now)
	if err != nil {
		return nil, delegationError(err)
	}

	record, err := session.ValidateAvailability(ctx, carID, w, customerRecord(customer))
	if err != nil {
		return nil, remoteError(err)
	}
	return &ports.Quote{BookingID: record.BookingID, TotalAmount: record.TotalAmount}, nil
}

func (a *LedgerAdapter) CommitReservation(ctx context.Context, bookingID uint64, proof ports.PaymentProof) (*ports.ConfirmedRecord, error) {
	record, err := a.admin.Reserve(ctx, bookingID, ledger.PaymentProof{
		PaymentID: proof.PaymentID,
		Amount:    proof.Amount,
	})
	if err != nil {
		return nil, remoteError(err)
	}
	return &ports.ConfirmedRecord{
		BookingID:   record.BookingID,
		CarID:       record.CarID,
		Name:        record.Customer.Name,
		Email:       record.Customer.Email,
		Age:         record.Customer.Age,
		CountryCode: record.Customer.CountryCode,
		Mobile:      record.Customer.Mobile,
		PAN:         record.Customer.PAN,
		Aadhar:      record.Customer.Aadhar,
		StartNS:     record.StartNS,
		EndNS:       record.EndNS,
		TotalAmount: record.TotalAmount,
	}, nil
}

func (a *LedgerAdapter) Principal() string {
	return a.admin.Principal().String()
}

func customerRecord(c domain.Customer) ledger.CustomerRecord {
	return ledger.CustomerRecord{
		Name:        string(c.Name),
		Email:       string(c.Email),
		Age:         uint8(c.Age),
		CountryCode: c.CountryCode,
		Mobile:      string(c.Mobile),
		PAN:         string(c.PAN),
		Aadhar:      string(c.Aadhar),
	}
}

// delegationError maps identity failures to unauthorized. Malformed or
// expired identity material is rejected before any remote call is attempted.
func delegationError(err error) error {
	switch {
	case errors.Is(err, identity.ErrChainExpired), errors.Is(err, ledger.ErrIdentityExpired):
		return dErrors.Wrap(dErrors.CodeUnauthorized, "delegation expired", err)
	default:
		return dErrors.Wrap(dErrors.CodeUnauthorized, "invalid delegation", err)
	}
}

// remoteError maps ledger call failures onto the coded taxonomy: a rejection
// is a domain conflict and carries the ledger's message verbatim, a
// transport failure is retriable unavailability.
func remoteError(err error) error {
	var remote *ledger.RemoteError
	if errors.As(err, &remote) {
		if remote.Kind == ledger.RemoteRejected {
			return dErrors.Wrap(dErrors.CodeConflict, remote.Message, err)
		}
		return dErrors.Wrap(dErrors.CodeUnavailable, "booking ledger unreachable", err)
	}
	return dErrors.Wrap(dErrors.CodeInternal, "ledger call failed", err)
}
