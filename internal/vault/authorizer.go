package vault

import (
	"context"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/rgarciadev/atelier-backend/pkg/errors"
)

// AuthResult is the receipt for a successful authorization. It carries only
// displayable data; card material never appears here.
type AuthResult struct {
	TransactionID string
	Last4         string
}

// PaymentAuthorizer is the processor boundary for one-time charges. The
// shipped implementation is a deterministic simulation; a real gateway
// client would slot in behind the same interface.
type PaymentAuthorizer interface {
	Authorize(ctx context.Context, number, cvc string) (*AuthResult, error)
}

// SimulatedAuthorizer approves a charge when the supplied CVC matches a value
// derived from the card number. There is no network call and no real money
// movement.
type SimulatedAuthorizer struct{}

func NewSimulatedAuthorizer() *SimulatedAuthorizer {
	return &SimulatedAuthorizer{}
}

func (s *SimulatedAuthorizer) Authorize(_ context.Context, number, cvc string) (*AuthResult, error) {
	if expectedCVC(number) != cvc {
		return nil, pkgerrors.New(pkgerrors.CodePaymentDeclined, "card declined by issuer")
	}
	return &AuthResult{
		TransactionID: NewTransactionID(),
		Last4:         number[len(number)-4:],
	}, nil
}

// NewTransactionID mints an opaque synthetic receipt token.
func NewTransactionID() string {
	return "SIM-" + strings.ToUpper(uuid.NewString()[:18])
}

// expectedCVC derives the simulated issuer's CVC from the card number: a
// position-weighted digit sum folded into the 100-999 range.
func expectedCVC(number string) string {
	sum := 0
	for i := 0; i < len(number); i++ {
		c := number[i]
		if c < '0' || c > '9' {
			continue
		}
		sum += int(c-'0') * (i + 1)
	}
	value := sum%900 + 100
	return string([]byte{
		byte('0' + value/100),
		byte('0' + value/10%10),
		byte('0' + value%10),
	})
}
