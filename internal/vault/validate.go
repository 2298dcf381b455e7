package vault

import (
	"regexp"
	"strings"
	"time"

	"go.uber.org/multierr"

	"github.com/rgarciadev/atelier-backend/pkg/enums"
	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	cvcPattern        = regexp.MustCompile(`^\d{3,4}$`)
	expiryPattern     = regexp.MustCompile(`^(0[1-9]|1[0-2])/(\d{2})$`)
)

// CardInput is the raw card material supplied by the caller. It only ever
// lives in memory for the duration of one request and must never be logged.
type CardInput struct {
	Number string
	Expiry string // MM/YY
	CVC    string
	Type   enums.CardType
}

// normalizedNumber strips spaces and dashes.
func (c CardInput) normalizedNumber() string {
	n := strings.ReplaceAll(c.Number, " ", "")
	return strings.ReplaceAll(n, "-", "")
}

// validateCardInput aggregates every format problem into one validation
// error instead of reporting them one at a time.
func validateCardInput(card CardInput, now time.Time) error {
	var errs error
	number := card.normalizedNumber()

	if !cardNumberPattern.MatchString(number) {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "card number must be 16 digits"))
	} else if !luhnValid(number) {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "card number failed checksum"))
	}

	if err := validateExpiry(card.Expiry, now); err != nil {
		errs = multierr.Append(errs, err)
	}

	if !cvcPattern.MatchString(card.CVC) {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "cvc must be 3 or 4 digits"))
	}

	if !card.Type.IsValid() {
		errs = multierr.Append(errs, pkgerrors.New(pkgerrors.CodeValidation, "unknown card type"))
	}

	if errs != nil {
		messages := []string{}
		for _, err := range multierr.Errors(errs) {
			if typed := pkgerrors.As(err); typed != nil {
				messages = append(messages, typed.Message())
			} else {
				messages = append(messages, err.Error())
			}
		}
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid card details").
			WithDetails(map[string]any{"problems": messages})
	}
	return nil
}

// validateExpiry checks the MM/YY format and that the card is valid through
// the end of its expiry month.
func validateExpiry(expiry string, now time.Time) error {
	match := expiryPattern.FindStringSubmatch(expiry)
	if match == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be MM/YY")
	}
	parsed, err := time.Parse("01/06", expiry)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "expiry must be MM/YY")
	}
	// valid through the last instant of the expiry month
	endOfMonth := parsed.AddDate(0, 1, 0)
	if !now.Before(endOfMonth) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card is expired")
	}
	return nil
}
