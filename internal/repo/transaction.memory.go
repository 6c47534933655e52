package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"txn-store/internal/domain"

	"github.com/google/uuid"
)

type memoryTransactionRepo struct {
	mu    sync.RWMutex
	byID  map[uuid.UUID]domain.Transaction
	byKey map[string]uuid.UUID
	order []uuid.UUID

	now   func() time.Time
	newID func() uuid.UUID
}

type MemoryOption func(*memoryTransactionRepo)

// WithClock replaces time.Now as the timestamp source.
func WithClock(now func() time.Time) MemoryOption {
	return func(r *memoryTransactionRepo) { r.now = now }
}

// WithIDGenerator replaces uuid.New as the id source.
func WithIDGenerator(newID func() uuid.UUID) MemoryOption {
	return func(r *memoryTransactionRepo) { r.newID = newID }
}

func NewMemoryTransactionRepo(opts ...MemoryOption) TransactionRepo {
	r := &memoryTransactionRepo{
		byID:  make(map[uuid.UUID]domain.Transaction),
		byKey: make(map[string]uuid.UUID),
		now:   time.Now,
		newID: uuid.New,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *memoryTransactionRepo) Create(ctx context.Context, params domain.CreateParams) (domain.Transaction, bool, error) {
	nt, err := params.Validate()
	if err != nil {
		return domain.Transaction{}, false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if id, exists := r.byKey[nt.IdempotencyKey]; exists {
		return r.byID[id], false, nil
	}

	id := r.newID()
	if _, taken := r.byID[id]; taken {
		return domain.Transaction{}, false, fmt.Errorf("generated duplicate transaction id %s", id)
	}

	now := r.now().UTC()
	txn := domain.Transaction{
		ID:             id,
		IdempotencyKey: nt.IdempotencyKey,
		Amount:         nt.Amount,
		Currency:       nt.Currency,
		Description:    nt.Description,
		Status:         domain.StatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	r.byID[id] = txn
	r.byKey[nt.IdempotencyKey] = id
	r.order = append(r.order, id)
	return txn, true, nil
}

func (r *memoryTransactionRepo) FindById(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txn, ok := r.byID[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	return txn, nil
}

func (r *memoryTransactionRepo) List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	txns := make([]domain.Transaction, 0)
	for _, id := range r.order {
		if txn := r.byID[id]; filter.Matches(txn) {
			txns = append(txns, txn)
		}
	}
	return txns, nil
}

func (r *memoryTransactionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	txn, ok := r.byID[id]
	if !ok {
		return domain.Transaction{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if !domain.CanTransition(txn.Status, status) {
		return domain.Transaction{}, fmt.Errorf("%w from %s to %s", domain.ErrInvalidTransition, txn.Status, status)
	}

	now := r.now().UTC()
	if now.Before(txn.CreatedAt) {
		now = txn.CreatedAt
	}
	txn.Status = status
	txn.UpdatedAt = now
	r.byID[id] = txn
	return txn, nil
}
