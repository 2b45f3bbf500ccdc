// Package payment validates card details and simulates charging them.
// There is no real gateway behind it.
package payment

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrCardNumberRequired = errors.New("card number is required")
	ErrCardNumberFormat   = errors.New("card number must be 13 to 19 digits")
	ErrCardNumberChecksum = errors.New("card number failed checksum")
	ErrExpiryRequired     = errors.New("expiry date is required")
	ErrExpiryFormat       = errors.New("expiry date must be MM/YY")
	ErrCardExpired        = errors.New("card is expired")
	ErrCVVFormat          = errors.New("cvv must be 3 or 4 digits")
)

// Details are the raw payment form fields.
type Details struct {
	CardNumber string
	HolderName string
	Expiry     string
	CVV        string
}

// Validate runs every field check independently and returns all failures;
// callers typically display only the first. A nil slice means the details
// are well-formed.
func (d Details) Validate(now time.Time) []error {
	var errs []error
	if err := ValidateCardNumber(d.CardNumber); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateExpiry(d.Expiry, now); err != nil {
		errs = append(errs, err)
	}
	if err := ValidateCVV(d.CVV); err != nil {
		errs = append(errs, err)
	}
	return errs
}

func ValidateCardNumber(number string) error {
	digits := strings.ReplaceAll(strings.TrimSpace(number), " ", "")
	if digits == "" {
		return ErrCardNumberRequired
	}
	if len(digits) < 13 || len(digits) > 19 || !allDigits(digits) {
		return ErrCardNumberFormat
	}
	if !luhnOK(digits) {
		return ErrCardNumberChecksum
	}
	return nil
}

// ValidateExpiry accepts MM/YY and rejects months already past.
func ValidateExpiry(expiry string, now time.Time) error {
	s := strings.TrimSpace(expiry)
	if s == "" {
		return ErrExpiryRequired
	}
	parts := strings.Split(s, "/")
	if len(parts) != 2 || len(parts[0]) != 2 || len(parts[1]) != 2 {
		return ErrExpiryFormat
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil || month < 1 || month > 12 {
		return ErrExpiryFormat
	}
	year, err := strconv.Atoi(parts[1])
	if err != nil {
		return ErrExpiryFormat
	}
	year += 2000

	// Valid through the last day of the stated month.
	endOfMonth := time.Date(year, time.Month(month)+1, 1, 0, 0, 0, 0, time.UTC)
	if !now.Before(endOfMonth) {
		return ErrCardExpired
	}
	return nil
}

func ValidateCVV(cvv string) error {
	s := strings.TrimSpace(cvv)
	if len(s) < 3 || len(s) > 4 || !allDigits(s) {
		return ErrCVVFormat
	}
	return nil
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func luhnOK(digits string) bool {
	var sum int
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		d := int(digits[i] - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// FirstError picks the error to surface to the user, nil when all checks
// passed.
func FirstError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return errs[0]
}
