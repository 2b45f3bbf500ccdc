package payment

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var ErrDeclined = errors.New("payment declined")

// Provider charges validated card details and returns an opaque payment
// reference on success.
type Provider interface {
	Charge(ctx context.Context, details Details, amountCents int64) (ref string, err error)
}

// declineCard always declines, so failure paths can be exercised without a
// real gateway. Everything else succeeds.
const declineCard = "4000000000000002"

type simulatedProvider struct{}

// NewSimulatedProvider returns the stand-in gateway used by the
// application. Deterministic: only the designated decline test card fails.
func NewSimulatedProvider() Provider { return &simulatedProvider{} }

func (p *simulatedProvider) Charge(ctx context.Context, details Details, amountCents int64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	number := strings.ReplaceAll(strings.TrimSpace(details.CardNumber), " ", "")
	if number == declineCard {
		log.Warn().Int64("amount_cents", amountCents).Msg("simulated decline")
		return "", ErrDeclined
	}
	ref := fmt.Sprintf("PAY-%s", uuid.NewString())
	log.Info().Str("ref", ref).Int64("amount_cents", amountCents).Msg("simulated charge captured")
	return ref, nil
}
