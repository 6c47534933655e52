package domain

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

const MaxIdempotencyKeyLength = 128

// NewTransaction is CreateParams after validation. Repos store these values as-is.
type NewTransaction struct {
	IdempotencyKey string
	Amount         decimal.Decimal
	Currency       string
	Description    string
}

func NormalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// NormalizeIdempotencyKey trims surrounding whitespace, so " inv-1 " and
// "inv-1" name the same record.
func NormalizeIdempotencyKey(key string) string {
	return strings.TrimSpace(key)
}

func (p CreateParams) Validate() (NewTransaction, error) {
	key := NormalizeIdempotencyKey(p.IdempotencyKey)
	if key == "" {
		return NewTransaction{}, fmt.Errorf("%w: idempotency key must not be empty", ErrValidation)
	}
	if len(key) > MaxIdempotencyKeyLength {
		return NewTransaction{}, fmt.Errorf("%w: idempotency key must not exceed %d characters", ErrValidation, MaxIdempotencyKeyLength)
	}
	if math.IsNaN(p.Amount) || math.IsInf(p.Amount, 0) {
		return NewTransaction{}, fmt.Errorf("%w: amount must be a finite number", ErrValidation)
	}
	if p.Amount < 0 {
		return NewTransaction{}, fmt.Errorf("%w: amount must not be negative", ErrValidation)
	}
	currency := NormalizeCurrency(p.Currency)
	if currency == "" {
		return NewTransaction{}, fmt.Errorf("%w: currency must not be empty", ErrValidation)
	}
	return NewTransaction{
		IdempotencyKey: key,
		Amount:         decimal.NewFromFloat(p.Amount),
		Currency:       currency,
		Description:    p.Description,
	}, nil
}
