package domain

import (
	"time"

	dErrors "fleetbook/pkg/domain-errors"
)

var (
	ErrStartNotFuture = dErrors.New(dErrors.CodeInvalidInput, "start time must be in the future")
	ErrEndBeforeStart = dErrors.New(dErrors.CodeInvalidInput, "end time must be after start time")
)

// StartTime is a booking start, epoch seconds, strictly in the future
// relative to the wall clock observed at validation time.
type StartTime uint64

// ParseStartTime validates raw against now. The caller supplies now (the
// request-scoped clock) so validation stays deterministic in tests.
func ParseStartTime(raw uint64, now time.Time) (StartTime, error) {
	if raw <= uint64(now.Unix()) {
		return 0, ErrStartNotFuture
	}
	return StartTime(raw), nil
}

func (s StartTime) Unix() uint64 { return uint64(s) }

// EndTime is a booking end, epoch seconds, strictly after its StartTime.
type EndTime uint64

func ParseEndTime(raw uint64, start StartTime) (EndTime, error) {
	if raw <= uint64(start) {
		return 0, ErrEndBeforeStart
	}
	return EndTime(raw), nil
}

func (e EndTime) Unix() uint64 { return uint64(e) }

// Window is the validated (start, end) pair reserved for a car.
type Window struct {
	Start StartTime
	End   EndTime
}
