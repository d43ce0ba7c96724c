package sync

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/storage"
)

const defaultRecentLimit = 20

// Totals aggregates one direction of transactions. Recomputed on read,
// never cached.
type Totals struct {
	Count       int
	TotalAmount decimal.Decimal
	TotalFee    decimal.Decimal
}

// Report is the summary returned by a sync or summary read: the selected
// transactions per direction plus their aggregates.
type Report struct {
	Deposits          []storage.Transaction
	Withdrawals       []storage.Transaction
	DepositSummary    Totals
	WithdrawalSummary Totals
	TotalCount        int
}

// Engine reconciles exchange deposit/withdrawal records into the local
// store and serves read-only projections over it.
type Engine struct {
	client      exchange.TransactionsFetcher
	store       storage.TransactionStore
	normalizer  *Normalizer
	logger      zerolog.Logger
	recentLimit int
	now         func() time.Time
}

// NewEngine constructs a synchronization engine. recentLimit bounds the
// Recent projection and defaults to 20 when non-positive.
func NewEngine(client exchange.TransactionsFetcher, store storage.TransactionStore, normalizer *Normalizer, recentLimit int, logger zerolog.Logger) *Engine {
	if recentLimit <= 0 {
		recentLimit = defaultRecentLimit
	}
	return &Engine{
		client:      client,
		store:       store,
		normalizer:  normalizer,
		logger:      logger.With().Str("component", "sync_engine").Logger(),
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// SyncAndSummarize fetches the ledger for currency (or exchange.CurrencyAll),
// upserts every record keyed by order id, and returns the store-backed
// summary for the same scope. A fetch failure aborts the call; a failure
// upserting one record is logged and does not abort the batch.
func (e *Engine) SyncAndSummarize(ctx context.Context, currency string, count int) (*Report, error) {
	if currency == "" {
		currency = exchange.CurrencyAll
	}

	e.logger.Info().Str("currency", currency).Int("count", count).Msg("syncing deposit/withdrawal transactions")

	res, err := e.client.UserTransactions(ctx, currency, exchange.ScopeAll, count)
	if err != nil {
		return nil, fmt.Errorf("fetch user transactions: %w", err)
	}

	if res.Data == nil {
		e.logger.Warn().Str("currency", currency).Msg("no transaction data in exchange response")
	} else {
		synced := e.upsertBatch(ctx, res.Data.Deposit)
		synced += e.upsertBatch(ctx, res.Data.Withdrawal)
		e.logger.Info().Int("synced", synced).Str("currency", currency).Msg("transactions synced")
	}

	return e.Summary(ctx, currency)
}

// upsertBatch normalizes and persists each record, isolating per-record
// failures. Returns the number of records persisted.
func (e *Engine) upsertBatch(ctx context.Context, raws []exchange.RawTransaction) int {
	synced := 0
	for _, raw := range raws {
		tx := e.normalizer.Normalize(raw)

		now := e.now().UTC()
		tx.CreatedAt = now
		tx.UpdatedAt = now

		if err := e.store.UpsertTransaction(ctx, tx); err != nil {
			e.logger.Error().Err(err).Str("order_id", tx.OrderID).Msg("failed to upsert transaction")
			continue
		}
		synced++
	}
	return synced
}

// Summary reads deposits and withdrawals for the scope and computes their
// aggregates.
func (e *Engine) Summary(ctx context.Context, currency string) (*Report, error) {
	deposits, err := e.listForDirection(ctx, storage.DirectionDeposit, currency)
	if err != nil {
		return nil, err
	}
	withdrawals, err := e.listForDirection(ctx, storage.DirectionWithdrawal, currency)
	if err != nil {
		return nil, err
	}

	return &Report{
		Deposits:          deposits,
		Withdrawals:       withdrawals,
		DepositSummary:    summarize(deposits),
		WithdrawalSummary: summarize(withdrawals),
		TotalCount:        len(deposits) + len(withdrawals),
	}, nil
}

// Deposits lists deposit transactions for the scope, newest transfer first.
func (e *Engine) Deposits(ctx context.Context, currency string) ([]storage.Transaction, error) {
	return e.listForDirection(ctx, storage.DirectionDeposit, currency)
}

// Withdrawals lists withdrawal transactions for the scope, newest transfer first.
func (e *Engine) Withdrawals(ctx context.Context, currency string) ([]storage.Transaction, error) {
	return e.listForDirection(ctx, storage.DirectionWithdrawal, currency)
}

// Recent lists the most recently transferred transactions in either direction.
func (e *Engine) Recent(ctx context.Context) ([]storage.Transaction, error) {
	return e.store.ListRecent(ctx, e.recentLimit)
}

// BetweenDates lists transactions transferred within [from, to).
func (e *Engine) BetweenDates(ctx context.Context, from, to time.Time) ([]storage.Transaction, error) {
	return e.store.ListBetween(ctx, from, to)
}

func (e *Engine) listForDirection(ctx context.Context, direction storage.Direction, currency string) ([]storage.Transaction, error) {
	if currency == "" || strings.EqualFold(currency, exchange.CurrencyAll) {
		return e.store.ListByDirection(ctx, direction)
	}
	return e.store.ListByDirectionAndCurrency(ctx, direction, currency)
}

func summarize(txs []storage.Transaction) Totals {
	totals := Totals{Count: len(txs)}
	for _, tx := range txs {
		totals.TotalAmount = totals.TotalAmount.Add(tx.KRWAmount)
		totals.TotalFee = totals.TotalFee.Add(tx.Fee)
	}
	return totals
}
