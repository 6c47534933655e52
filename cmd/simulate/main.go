package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"
	"sync"

	"txn-store/internal/domain"
	"txn-store/internal/logging"
	"txn-store/internal/repo"
	"txn-store/internal/service"
)

// simulate drives one in-memory store from many goroutines the way flaky
// clients would: every create is retried with the same idempotency key, and
// several workers race to settle each transaction.
func main() {
	orders := flag.Int("orders", 20, "number of distinct idempotency keys")
	retries := flag.Int("retries", 3, "create attempts per key")
	settlers := flag.Int("settlers", 4, "concurrent status updates per transaction")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	ctx := context.Background()
	logger := logging.New("local", *logLevel)
	store := repo.NewMemoryTransactionRepo()
	transactionService := service.NewTransactionService(store, logger)

	fmt.Printf("--- STARTING SIMULATION (%d ORDERS x %d RETRIES) ---\n", *orders, *retries)

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replays  int
		rejected int
	)
	for i := 0; i < *orders; i++ {
		key := fmt.Sprintf("order-%03d", i+1)
		for attempt := 0; attempt < *retries; attempt++ {
			wg.Add(1)
			go func(attempt int) {
				defer wg.Done()
				txn, created, err := transactionService.Create(ctx, domain.CreateParams{
					IdempotencyKey: key,
					Amount:         float64(rand.IntN(1000000)) / 100,
					Currency:       "usd",
					Description:    fmt.Sprintf("attempt %d", attempt+1),
				})
				if err != nil {
					logger.Error().Err(err).Str("key", key).Msg("create failed")
					return
				}
				if !created {
					mu.Lock()
					replays++
					mu.Unlock()
				}

				targets := []domain.Status{domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled}
				for s := 0; s < *settlers; s++ {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, err := transactionService.UpdateStatus(ctx, txn.ID, targets[rand.IntN(len(targets))])
						if err != nil {
							mu.Lock()
							rejected++
							mu.Unlock()
						}
					}()
				}
			}(attempt)
		}
	}
	wg.Wait()

	all, err := store.List(ctx, domain.ListFilter{})
	if err != nil {
		logger.Fatal().Err(err).Msg("list failed")
	}

	tally := make(map[domain.Status]int)
	keys := make(map[string]int)
	for _, txn := range all {
		tally[txn.Status]++
		keys[txn.IdempotencyKey]++
		fmt.Printf("    %s %s %s %s -> %s\n", txn.IdempotencyKey, txn.ID, txn.Amount.StringFixed(2), txn.Currency, txn.Status)
	}

	fmt.Println("---------------------------------------------------")
	fmt.Printf("records: %d, idempotent replays: %d, rejected transitions: %d\n", len(all), replays, rejected)
	for _, s := range []domain.Status{domain.StatusPending, domain.StatusCompleted, domain.StatusFailed, domain.StatusCancelled} {
		fmt.Printf("    %-9s %d\n", s, tally[s])
	}

	ok := len(all) == *orders && (*settlers == 0 || tally[domain.StatusPending] == 0)
	for key, n := range keys {
		if n != 1 {
			fmt.Printf("DUPLICATE: key %s stored %d times\n", key, n)
			ok = false
		}
	}
	if !ok {
		fmt.Println("SIMULATION FAILED")
		os.Exit(1)
	}
	fmt.Println("SIMULATION OK")
}
