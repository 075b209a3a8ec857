package domain

import (
	"regexp"
	"strings"

	dErrors "fleetbook/pkg/domain-errors"
)

// Customer field errors. Each invalid field maps to exactly one of these so
// callers and tests can match on the failure kind.
var (
	ErrEmptyUserName = dErrors.New(dErrors.CodeInvalidInput, "user name cannot be empty")
	ErrInvalidEmail  = dErrors.New(dErrors.CodeInvalidInput, "not a valid email address")
	ErrUnderage      = dErrors.New(dErrors.CodeInvalidInput, "driver must be at least 18")
	ErrInvalidMobile = dErrors.New(dErrors.CodeInvalidInput, "mobile number must be exactly 10 digits")
	ErrInvalidPAN    = dErrors.New(dErrors.CodeInvalidInput, "not a valid PAN")
	ErrInvalidAadhar = dErrors.New(dErrors.CodeInvalidInput, "not a valid Aadhar")
)

var (
	emailPattern  = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)
	panPattern    = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	aadharPattern = regexp.MustCompile(`^\d{12}$`)
	mobilePattern = regexp.MustCompile(`^\d{10}$`)
)

// UserName is a non-empty, trimmed customer name.
//
// Usage: construct via ParseUserName at trust boundaries to enforce the
// invariant; direct casting bypasses validation.
type UserName string

func ParseUserName(raw string) (UserName, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", ErrEmptyUserName
	}
	return UserName(trimmed), nil
}

func (n UserName) String() string { return string(n) }

// EmailAddress is a syntactically valid local@domain.tld address.
type EmailAddress string

func ParseEmailAddress(raw string) (EmailAddress, error) {
	trimmed := strings.TrimSpace(raw)
	if !emailPattern.MatchString(trimmed) {
		return "", ErrInvalidEmail
	}
	return EmailAddress(trimmed), nil
}

func (e EmailAddress) String() string { return string(e) }

// Age is a driver age of at least 18.
type Age uint8

func ParseAge(raw uint8) (Age, error) {
	if raw < 18 {
		return 0, ErrUnderage
	}
	return Age(raw), nil
}

// MobileNumber is an exactly-10-digit phone number, kept as a string so
// leading zeros survive.
type MobileNumber string

func ParseMobileNumber(raw string) (MobileNumber, error) {
	trimmed := strings.TrimSpace(raw)
	if !mobilePattern.MatchString(trimmed) {
		return "", ErrInvalidMobile
	}
	return MobileNumber(trimmed), nil
}

func (m MobileNumber) String() string { return string(m) }

// PAN is an uppercase permanent account number: 5 letters, 4 digits, 1 letter.
type PAN string

func ParsePAN(raw string) (PAN, error) {
	trimmed := strings.TrimSpace(raw)
	if !panPattern.MatchString(trimmed) {
		return "", ErrInvalidPAN
	}
	return PAN(trimmed), nil
}

func (p PAN) String() string { return string(p) }

// Aadhar is a 12-digit national identity number.
type Aadhar string

func ParseAadhar(raw string) (Aadhar, error) {
	trimmed := strings.TrimSpace(raw)
	if !aadharPattern.MatchString(trimmed) {
		return "", ErrInvalidAadhar
	}
	return Aadhar(trimmed), nil
}

func (a Aadhar) String() string { return string(a) }

// Customer groups the validated identity fields of the person booking a car.
type Customer struct {
	Name        UserName
	Email       EmailAddress
	Age         Age
	CountryCode uint16
	Mobile      MobileNumber
	PAN         PAN
	Aadhar      Aadhar
}
