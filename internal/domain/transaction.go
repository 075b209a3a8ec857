package domain

import "encoding/json"

// CreateBookingRequest is the validated form of an inbound booking request.
// It is produced per call, consumed once, and never persisted. IdentityWire
// is the caller's delegated-identity payload, kept opaque here; the identity
// package decodes and verifies it. It is a bearer credential: never log it.
type CreateBookingRequest struct {
	Customer     Customer
	CarID        uint64
	Window       Window
	IdentityWire json.RawMessage
}

// Transaction is a committed booking. It is constructed only from a
// confirmed ledger record, with every customer field re-validated through
// the same parsers used on input, so a malformed remote response can never
// produce a Transaction.
type Transaction struct {
	BookingID uint64
	CarID     uint64
	Customer  Customer
	Window    Window
}

// NewTransaction assembles a Transaction from already-validated parts.
func NewTransaction(bookingID, carID uint64, customer Customer, window Window) Transaction {
	return Transaction{
		BookingID: bookingID,
		CarID:     carID,
		Customer:  customer,
		Window:    window,
	}
}
