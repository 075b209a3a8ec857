// Package ports defines the interfaces the booking orchestrator depends on.
// Implementations live in adapters; the orchestrator never sees transports.
package ports

import (
	"context"
	"encoding/json"

	"fleetbook/internal/domain"
)

// Quote is a ledger availability hold: the assigned booking id plus the
// amount the ledger quoted for the window, before gateway fees.
type Quote struct {
	BookingID   uint64
	TotalAmount float64
}

// PaymentProof carries the gateway's confirmation that a quote was paid.
type PaymentProof struct {
	PaymentID string
	Amount    float64
}

// ConfirmedRecord is the ledger's committed view of a booking. Fields are
// raw strings; the orchestrator re-validates them through the domain parsers
// before constructing a Transaction.
type ConfirmedRecord struct {
	BookingID   uint64
	CarID       uint64
	Name        string
	Email       string
	Age         uint8
	CountryCode uint16
	Mobile      string
	PAN         string
	Aadhar      string
	StartNS     uint64
	EndNS       uint64
	TotalAmount float64
}

// LedgerPort gives the orchestrator ledger access without binding it to the
// signed transport. QuoteAvailability acts with the caller's delegated
// identity; CommitReservation acts with the service's administrative
// identity.
type LedgerPort interface {
	// QuoteAvailability verifies the delegation wire, then asks the ledger
	// to hold the car for the window. identityWire is a bearer credential
	// and must never be logged.
	QuoteAvailability(ctx context.Context, identityWire json.RawMessage, carID uint64, w domain.Window, customer domain.Customer) (*Quote, error)

	// CommitReservation commits a previously quoted booking against its
	// payment proof.
	CommitReservation(ctx context.Context, bookingID uint64, proof PaymentProof) (*ConfirmedRecord, error)

	// Principal reports the administrative identity's public address.
	Principal() string
}

// PaymentPort issues payment links. amount is in the base currency unit;
// implementations convert to minor units as their gateway requires.
type PaymentPort interface {
	CreatePaymentLink(ctx context.Context, amount float64, bookingID uint64, customer domain.Customer) (string, error)
}

// NotifierPort delivers booking confirmations. Best-effort at the caller:
// a notification failure never fails the commit.
type NotifierPort interface {
	Notify(ctx context.Context, tx domain.Transaction) error
}

// IdempotencyStore deduplicates commit attempts by booking id.
type IdempotencyStore interface {
	// Claim marks the booking id as being committed. It returns false if a
	// previous claim exists, meaning the commit is a duplicate.
	Claim(ctx context.Context, bookingID uint64) (bool, error)

	// Release drops a claim after a failed commit so the caller may retry.
	Release(ctx context.Context, bookingID uint64) error
}
