package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusCompleted Status = "COMPLETED"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// Transaction is a single record owned by a TransactionRepo. Values handed out
// by a repo are copies; mutating them never reaches the store.
type Transaction struct {
	ID             uuid.UUID       `json:"id"`
	IdempotencyKey string          `json:"idempotency_key"`
	Amount         decimal.Decimal `json:"amount"`
	Currency       string          `json:"currency"`
	Description    string          `json:"description"`
	Status         Status          `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type CreateParams struct {
	IdempotencyKey string
	Amount         float64
	Currency       string
	Description    string
}

// ListFilter narrows List results. Zero values match everything.
type ListFilter struct {
	Status   *Status
	Currency string
}

func (f ListFilter) Matches(t Transaction) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Currency != "" && t.Currency != NormalizeCurrency(f.Currency) {
		return false
	}
	return true
}
