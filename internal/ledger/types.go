// Package ledger is the client for the remote booking ledger. Access is
// gated through capability handles: a plain Client can do nothing, a
// UserSession can hold quotes, and only an AdminSession can commit
// reservations. The split is enforced by the type system, not by runtime
// checks.
package ledger

import "fmt"

// CustomerRecord is the customer as the ledger stores it.
type CustomerRecord struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Age         uint8  `json:"age"`
	CountryCode uint16 `json:"country_code"`
	Mobile      string `json:"mobile_number"`
	PAN         string `json:"pan"`
	Aadhar      string `json:"aadhar"`
}

// AvailabilityRequest asks the ledger to quote a booking window. Times are
// nanoseconds since the Unix epoch, the ledger's native resolution.
type AvailabilityRequest struct {
	CarID    uint64         `json:"car_id"`
	StartNS  uint64         `json:"start_timestamp"`
	EndNS    uint64         `json:"end_timestamp"`
	Customer CustomerRecord `json:"customer"`
}

// PaymentProof carries the gateway's confirmation that a quote was paid.
type PaymentProof struct {
	PaymentID string  `json:"payment_id"`
	Amount    float64 `json:"amount"`
}

type reserveRequest struct {
	BookingID uint64       `json:"booking_id"`
	Proof     PaymentProof `json:"payment_proof"`
}

// LedgerRecord is the ledger's view of a booking, returned both for quotes
// and for committed reservations.
type LedgerRecord struct {
	BookingID   uint64         `json:"booking_id"`
	CarID       uint64         `json:"car_id"`
	Customer    CustomerRecord `json:"customer"`
	StartNS     uint64         `json:"start_timestamp"`
	EndNS       uint64         `json:"end_timestamp"`
	TotalAmount float64        `json:"total_amount"`
}

// RemoteErrorKind distinguishes ledger rejections from transport failures.
// The two are surfaced differently: a rejection is a final answer, a
// transport failure may be retried.
type RemoteErrorKind int

const (
	// RemoteRejected means the ledger processed the call and refused it.
	RemoteRejected RemoteErrorKind = iota

	// RemoteTransport means the call never completed.
	RemoteTransport
)

// RemoteError carries the outcome of a failed ledger call.
type RemoteError struct {
	Kind    RemoteErrorKind
	Message string
}

func (e *RemoteError) Error() string {
	switch e.Kind {
	case RemoteRejected:
		return fmt.Sprintf("ledger rejected call: %s", e.Message)
	default:
		return fmt.Sprintf("ledger unreachable: %s", e.Message)
	}
}
