package service

import (
	"context"
	"errors"

	"txn-store/internal/domain"
	"txn-store/internal/repo"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type TransactionService interface {
	Create(ctx context.Context, params domain.CreateParams) (domain.Transaction, bool, error)
	Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error)
	List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error)
}

type transactionService struct {
	repo   repo.TransactionRepo
	logger zerolog.Logger
}

func NewTransactionService(repo repo.TransactionRepo, logger zerolog.Logger) TransactionService {
	return &transactionService{
		repo:   repo,
		logger: logger.With().Str("component", "transaction_service").Logger(),
	}
}

func (s *transactionService) Create(ctx context.Context, params domain.CreateParams) (domain.Transaction, bool, error) {
	txn, created, err := s.repo.Create(ctx, params)
	if err != nil {
		s.logFailure(err).
			Str("idempotency_key", params.IdempotencyKey).
			Msg("create transaction failed")
		return domain.Transaction{}, false, err
	}

	if created {
		s.logger.Info().
			Stringer("id", txn.ID).
			Str("idempotency_key", txn.IdempotencyKey).
			Str("amount", txn.Amount.String()).
			Str("currency", txn.Currency).
			Msg("transaction created")
	} else {
		s.logger.Info().
			Stringer("id", txn.ID).
			Str("idempotency_key", txn.IdempotencyKey).
			Msg("idempotent replay, returning existing transaction")
	}
	return txn, created, nil
}

func (s *transactionService) Get(ctx context.Context, id uuid.UUID) (domain.Transaction, error) {
	return s.repo.FindById(ctx, id)
}

func (s *transactionService) List(ctx context.Context, filter domain.ListFilter) ([]domain.Transaction, error) {
	return s.repo.List(ctx, filter)
}

func (s *transactionService) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Transaction, error) {
	txn, err := s.repo.UpdateStatus(ctx, id, status)
	if err != nil {
		s.logFailure(err).
			Stringer("id", id).
			Stringer("requested_status", status).
			Msg("status update rejected")
		return domain.Transaction{}, err
	}

	s.logger.Info().
		Stringer("id", txn.ID).
		Stringer("status", txn.Status).
		Msg("transaction status updated")
	return txn, nil
}

// logFailure logs caller mistakes at warn and everything else at error.
func (s *transactionService) logFailure(err error) *zerolog.Event {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrNotFound),
		errors.Is(err, domain.ErrInvalidTransition):
		return s.logger.Warn().Err(err)
	default:
		return s.logger.Error().Err(err)
	}
}
