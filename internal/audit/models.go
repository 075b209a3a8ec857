package audit

import "time"

// Actions recorded by the booking workflow.
const (
	ActionQuoteIssued          = "quote_issued"
	ActionQuoteRejected        = "quote_rejected"
	ActionBookingConfirmed     = "booking_confirmed"
	ActionBookingConfirmFailed = "booking_confirm_failed"
	ActionDelegationIssued     = "delegation_issued"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time
	RequestID string
	Action    string
	BookingID uint64
	CarID     uint64
	Principal string
	Decision  string
	Reason    string
}
