package repo

import (
	"context"
	"sync"
	"testing"

	"txn-store/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTransactionRepo runs the behaviour every TransactionRepo must share.
func testTransactionRepo(t *testing.T, newRepo func(t *testing.T) TransactionRepo) {
	ctx := context.Background()

	t.Run("create returns pending record with normalized currency", func(t *testing.T) {
		r := newRepo(t)
		txn, created, err := r.Create(ctx, domain.CreateParams{
			IdempotencyKey: "inv-1", Amount: 250.00, Currency: "usd", Description: "Invoice",
		})
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, uuid.Nil, txn.ID)
		assert.Equal(t, domain.StatusPending, txn.Status)
		assert.Equal(t, "USD", txn.Currency)
		assert.Equal(t, "250", txn.Amount.String())
		assert.Equal(t, "Invoice", txn.Description)
		assert.False(t, txn.UpdatedAt.Before(txn.CreatedAt))
	})

	t.Run("create is idempotent per key", func(t *testing.T) {
		r := newRepo(t)
		first, created, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "dup", Amount: 10, Currency: "EUR"})
		require.NoError(t, err)
		require.True(t, created)

		second, created, err := r.Create(ctx, domain.CreateParams{
			IdempotencyKey: "dup", Amount: 999, Currency: "GBP", Description: "different",
		})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)
		assert.True(t, first.Amount.Equal(second.Amount))
		assert.Equal(t, "EUR", second.Currency)
		assert.Empty(t, second.Description)

		all, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("keys differing only in surrounding whitespace share a record", func(t *testing.T) {
		r := newRepo(t)
		first, created, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "inv-1", Amount: 1, Currency: "USD"})
		require.NoError(t, err)
		require.True(t, created)
		assert.Equal(t, "inv-1", first.IdempotencyKey)

		second, created, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: " inv-1 ", Amount: 2, Currency: "USD"})
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first.ID, second.ID)

		all, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("create rejects invalid input", func(t *testing.T) {
		r := newRepo(t)
		_, _, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "neg", Amount: -1, Currency: "USD"})
		assert.ErrorIs(t, err, domain.ErrValidation)
		_, _, err = r.Create(ctx, domain.CreateParams{IdempotencyKey: "cur", Amount: 1, Currency: " "})
		assert.ErrorIs(t, err, domain.ErrValidation)

		all, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("find unknown id", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.FindById(ctx, uuid.New())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("update unknown id", func(t *testing.T) {
		r := newRepo(t)
		_, err := r.UpdateStatus(ctx, uuid.New(), domain.StatusCompleted)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("forward transition succeeds exactly once", func(t *testing.T) {
		for _, target := range []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled} {
			r := newRepo(t)
			txn, _, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "fwd", Amount: 1, Currency: "USD"})
			require.NoError(t, err)

			updated, err := r.UpdateStatus(ctx, txn.ID, target)
			require.NoError(t, err)
			assert.Equal(t, target, updated.Status)
			assert.False(t, updated.UpdatedAt.Before(updated.CreatedAt))

			fetched, err := r.FindById(ctx, txn.ID)
			require.NoError(t, err)
			assert.Equal(t, target, fetched.Status)

			for _, next := range []domain.Status{domain.StatusPending, domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled} {
				_, err := r.UpdateStatus(ctx, txn.ID, next)
				assert.ErrorIs(t, err, domain.ErrInvalidTransition, "%s -> %s", target, next)
			}

			fetched, err = r.FindById(ctx, txn.ID)
			require.NoError(t, err)
			assert.Equal(t, target, fetched.Status)
			assert.True(t, fetched.UpdatedAt.Equal(updated.UpdatedAt))
		}
	})

	t.Run("pending to pending is rejected", func(t *testing.T) {
		r := newRepo(t)
		txn, _, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "p2p", Amount: 1, Currency: "USD"})
		require.NoError(t, err)
		_, err = r.UpdateStatus(ctx, txn.ID, domain.StatusPending)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	})

	t.Run("invoice scenario", func(t *testing.T) {
		r := newRepo(t)
		txn, _, err := r.Create(ctx, domain.CreateParams{
			IdempotencyKey: "inv-1", Amount: 250.00, Currency: "usd", Description: "Invoice",
		})
		require.NoError(t, err)

		done, err := r.UpdateStatus(ctx, txn.ID, domain.StatusCompleted)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, done.Status)

		_, err = r.UpdateStatus(ctx, txn.ID, domain.StatusCancelled)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		fetched, err := r.FindById(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusCompleted, fetched.Status)
	})

	t.Run("list filters and preserves insertion order", func(t *testing.T) {
		r := newRepo(t)
		empty, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.NotNil(t, empty)
		assert.Empty(t, empty)

		var ids []uuid.UUID
		for i, p := range []domain.CreateParams{
			{IdempotencyKey: "a", Amount: 1, Currency: "usd"},
			{IdempotencyKey: "b", Amount: 2, Currency: "EUR"},
			{IdempotencyKey: "c", Amount: 3, Currency: "USD"},
		} {
			txn, _, err := r.Create(ctx, p)
			require.NoError(t, err, i)
			ids = append(ids, txn.ID)
		}
		_, err = r.UpdateStatus(ctx, ids[1], domain.StatusFailed)
		require.NoError(t, err)

		all, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		for i, txn := range all {
			assert.Equal(t, ids[i], txn.ID)
		}

		pending := domain.StatusPending
		got, err := r.List(ctx, domain.ListFilter{Status: &pending})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ids[0], ids[2]}, idsOf(got))

		got, err = r.List(ctx, domain.ListFilter{Currency: " usd"})
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{ids[0], ids[2]}, idsOf(got))

		failed := domain.StatusFailed
		got, err = r.List(ctx, domain.ListFilter{Status: &failed, Currency: "USD"})
		require.NoError(t, err)
		assert.Empty(t, got)

		completed := domain.StatusCompleted
		got, err = r.List(ctx, domain.ListFilter{Status: &completed})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("concurrent creates with one key store one record", func(t *testing.T) {
		r := newRepo(t)
		const n = 32
		results := make([]domain.Transaction, n)
		createdCount := make([]bool, n)
		errs := make([]error, n)

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], createdCount[i], errs[i] = r.Create(ctx, domain.CreateParams{
					IdempotencyKey: "race", Amount: float64(i), Currency: "USD",
				})
			}(i)
		}
		wg.Wait()

		created := 0
		for i := 0; i < n; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0].ID, results[i].ID)
			assert.True(t, results[0].Amount.Equal(results[i].Amount))
			if createdCount[i] {
				created++
			}
		}
		assert.Equal(t, 1, created)

		all, err := r.List(ctx, domain.ListFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("concurrent transitions have one winner", func(t *testing.T) {
		r := newRepo(t)
		txn, _, err := r.Create(ctx, domain.CreateParams{IdempotencyKey: "contended", Amount: 5, Currency: "USD"})
		require.NoError(t, err)

		targets := []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled}
		const n = 30
		winners := make(chan domain.Transaction, n)
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func(target domain.Status) {
				defer wg.Done()
				updated, err := r.UpdateStatus(ctx, txn.ID, target)
				if err == nil {
					winners <- updated
					return
				}
				assert.ErrorIs(t, err, domain.ErrInvalidTransition)
			}(targets[i%len(targets)])
		}
		wg.Wait()
		close(winners)

		var won []domain.Transaction
		for w := range winners {
			won = append(won, w)
		}
		require.Len(t, won, 1)

		fetched, err := r.FindById(ctx, txn.ID)
		require.NoError(t, err)
		assert.Equal(t, won[0].Status, fetched.Status)
	})
}

func idsOf(txns []domain.Transaction) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(txns))
	for _, txn := range txns {
		ids = append(ids, txn.ID)
	}
	return ids
}
