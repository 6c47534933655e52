package repo

import (
	"context"

	"txn-store/internal/domain"

	"github.com/google/uuid"
)

// TransactionRepo is the only mutation path for transactions. Implementations
// must make the existence check and insert in Create, and the transition check
// and write in UpdateStatus, indivisible with respect to other writers.
type TransactionRepo interface {
	// Create returns the existing record with created=false when the
	// idempotency key is already known.
	Create(ctx context.Context, params domain.CreateParams) (txn domain.Transaction, created bool, err error)
	FindById(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	// List returns matches in insertion order, never nil.
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error)
}
