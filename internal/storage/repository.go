package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotConfigured indicates the storage pool was not initialised.
	ErrNotConfigured = errors.New("storage: pool not configured")
)

const (
	transactionColumns = `order_id,
        transaction_type,
        order_currency,
        payment_currency,
        units,
        price,
        krw_amount,
        fee,
        order_balance,
        transfer_date,
        created_at,
        updated_at`

	// The upsert is a single statement so concurrent syncs touching the
	// same order_id cannot race a lookup against a write. created_at and
	// transfer_date keep their first-seen values.
	upsertTransactionSQL = `INSERT INTO account_transactions (
        order_id,
        transaction_type,
        order_currency,
        payment_currency,
        units,
        price,
        krw_amount,
        fee,
        order_balance,
        transfer_date,
        created_at,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12
    )
    ON CONFLICT (order_id) DO UPDATE
    SET
        units         = EXCLUDED.units,
        price         = EXCLUDED.price,
        krw_amount    = EXCLUDED.krw_amount,
        fee           = EXCLUDED.fee,
        order_balance = EXCLUDED.order_balance,
        updated_at    = EXCLUDED.updated_at;`

	findByOrderIDSQL = `SELECT id, ` + transactionColumns + `
    FROM account_transactions
    WHERE order_id = $1;`

	listByDirectionSQL = `SELECT id, ` + transactionColumns + `
    FROM account_transactions
    WHERE transaction_type = $1
    ORDER BY transfer_date DESC;`

	listByDirectionAndCurrencySQL = `SELECT id, ` + transactionColumns + `
    FROM account_transactions
    WHERE transaction_type = $1
      AND order_currency = $2
    ORDER BY transfer_date DESC;`

	listRecentSQL = `SELECT id, ` + transactionColumns + `
    FROM account_transactions
    ORDER BY transfer_date DESC
    LIMIT $1;`

	listBetweenSQL = `SELECT id, ` + transactionColumns + `
    FROM account_transactions
    WHERE transfer_date >= $1
      AND transfer_date < $2
    ORDER BY transfer_date DESC;`

	countTransactionsSQL = `SELECT COUNT(*) FROM account_transactions;`

	upsertMarketCodeSQL = `INSERT INTO market_codes (
        market,
        korean_name,
        english_name,
        market_warning,
        created_at,
        updated_at
    ) VALUES (
        $1,$2,$3,$4,$5,$6
    )
    ON CONFLICT (market) DO UPDATE
    SET
        korean_name    = EXCLUDED.korean_name,
        english_name   = EXCLUDED.english_name,
        market_warning = EXCLUDED.market_warning,
        updated_at     = EXCLUDED.updated_at;`

	listMarketCodesSQL = `SELECT id, market, korean_name, english_name, market_warning, created_at, updated_at
    FROM market_codes
    ORDER BY market;`
)

// TransactionStore defines operations for the deposit/withdrawal ledger.
type TransactionStore interface {
	UpsertTransaction(ctx context.Context, tx Transaction) error
	FindByOrderID(ctx context.Context, orderID string) (*Transaction, error)
	ListByDirection(ctx context.Context, direction Direction) ([]Transaction, error)
	ListByDirectionAndCurrency(ctx context.Context, direction Direction, currency string) ([]Transaction, error)
	ListRecent(ctx context.Context, limit int) ([]Transaction, error)
	ListBetween(ctx context.Context, from, to time.Time) ([]Transaction, error)
	CountTransactions(ctx context.Context) (int64, error)
}

// MarketCodeStore defines operations for market listings.
type MarketCodeStore interface {
	UpsertMarketCode(ctx context.Context, code MarketCodeRecord) error
	ListMarketCodes(ctx context.Context) ([]MarketCodeRecord, error)
}

// Store aggregates access to transactions and market codes.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore wires a pgx pool into a Store.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Close releases the underlying pool resources.
func (s *Store) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

func (s *Store) getPool() (*pgxpool.Pool, error) {
	if s == nil || s.pool == nil {
		return nil, ErrNotConfigured
	}
	return s.pool, nil
}

// UpsertTransaction inserts a transaction or updates the mutable numeric
// fields of the row with the same order_id.
func (s *Store) UpsertTransaction(ctx context.Context, tx Transaction) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertTransactionSQL,
		tx.OrderID,
		string(tx.Direction),
		tx.OrderCurrency,
		tx.PaymentCurrency,
		tx.Units.String(),
		tx.Price.String(),
		tx.KRWAmount.String(),
		tx.Fee.String(),
		tx.OrderBalance.String(),
		tx.TransferDate,
		tx.CreatedAt,
		tx.UpdatedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert transaction: %w", execErr)
	}
	return nil
}

// FindByOrderID loads one transaction; nil when no row exists.
func (s *Store) FindByOrderID(ctx context.Context, orderID string) (*Transaction, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, findByOrderIDSQL, orderID)
	if queryErr != nil {
		return nil, fmt.Errorf("find transaction by order id: %w", queryErr)
	}
	defer rows.Close()

	if !rows.Next() {
		if rows.Err() != nil {
			return nil, rows.Err()
		}
		return nil, nil
	}

	tx, scanErr := scanTransaction(rows)
	if scanErr != nil {
		return nil, scanErr
	}
	return &tx, nil
}

// ListByDirection lists all transactions of one direction, newest transfer first.
func (s *Store) ListByDirection(ctx context.Context, direction Direction) ([]Transaction, error) {
	return s.listTransactions(ctx, listByDirectionSQL, string(direction))
}

// ListByDirectionAndCurrency narrows ListByDirection to one asset.
func (s *Store) ListByDirectionAndCurrency(ctx context.Context, direction Direction, currency string) ([]Transaction, error) {
	return s.listTransactions(ctx, listByDirectionAndCurrencySQL, string(direction), currency)
}

// ListRecent lists the most recent transactions by transfer date.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]Transaction, error) {
	return s.listTransactions(ctx, listRecentSQL, limit)
}

// ListBetween lists transactions transferred within [from, to).
func (s *Store) ListBetween(ctx context.Context, from, to time.Time) ([]Transaction, error) {
	return s.listTransactions(ctx, listBetweenSQL, from, to)
}

// CountTransactions counts stored transactions.
func (s *Store) CountTransactions(ctx context.Context) (int64, error) {
	pool, err := s.getPool()
	if err != nil {
		return 0, err
	}
	var count int64
	if scanErr := pool.QueryRow(ctx, countTransactionsSQL).Scan(&count); scanErr != nil {
		return 0, fmt.Errorf("count transactions: %w", scanErr)
	}
	return count, nil
}

func (s *Store) listTransactions(ctx context.Context, sql string, args ...any) ([]Transaction, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, sql, args...)
	if queryErr != nil {
		return nil, fmt.Errorf("list transactions: %w", queryErr)
	}
	defer rows.Close()

	txs := make([]Transaction, 0)
	for rows.Next() {
		tx, scanErr := scanTransaction(rows)
		if scanErr != nil {
			return nil, scanErr
		}
		txs = append(txs, tx)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return txs, nil
}

// UpsertMarketCode inserts or refreshes one market listing.
func (s *Store) UpsertMarketCode(ctx context.Context, code MarketCodeRecord) error {
	pool, err := s.getPool()
	if err != nil {
		return err
	}

	_, execErr := pool.Exec(ctx, upsertMarketCodeSQL,
		code.Market,
		code.KoreanName,
		code.EnglishName,
		code.MarketWarning,
		code.CreatedAt,
		code.UpdatedAt,
	)
	if execErr != nil {
		return fmt.Errorf("upsert market code: %w", execErr)
	}
	return nil
}

// ListMarketCodes lists all stored market listings.
func (s *Store) ListMarketCodes(ctx context.Context) ([]MarketCodeRecord, error) {
	pool, err := s.getPool()
	if err != nil {
		return nil, err
	}

	rows, queryErr := pool.Query(ctx, listMarketCodesSQL)
	if queryErr != nil {
		return nil, fmt.Errorf("list market codes: %w", queryErr)
	}
	defer rows.Close()

	codes := make([]MarketCodeRecord, 0)
	for rows.Next() {
		var rec MarketCodeRecord
		if err := rows.Scan(
			&rec.ID,
			&rec.Market,
			&rec.KoreanName,
			&rec.EnglishName,
			&rec.MarketWarning,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		codes = append(codes, rec)
	}
	if rows.Err() != nil {
		return nil, rows.Err()
	}
	return codes, nil
}

func scanTransaction(rows pgx.Rows) (Transaction, error) {
	var (
		id              int64
		orderID         string
		direction       string
		orderCurrency   string
		paymentCurrency string
		unitsStr        string
		priceStr        string
		krwAmountStr    string
		feeStr          string
		balanceStr      string
		transferDate    time.Time
		createdAt       time.Time
		updatedAt       time.Time
	)

	if err := rows.Scan(
		&id,
		&orderID,
		&direction,
		&orderCurrency,
		&paymentCurrency,
		&unitsStr,
		&priceStr,
		&krwAmountStr,
		&feeStr,
		&balanceStr,
		&transferDate,
		&createdAt,
		&updatedAt,
	); err != nil {
		return Transaction{}, err
	}

	units, err := decimal.NewFromString(unitsStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse units: %w", err)
	}
	price, err := decimal.NewFromString(priceStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse price: %w", err)
	}
	krwAmount, err := decimal.NewFromString(krwAmountStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse krw amount: %w", err)
	}
	fee, err := decimal.NewFromString(feeStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse fee: %w", err)
	}
	balance, err := decimal.NewFromString(balanceStr)
	if err != nil {
		return Transaction{}, fmt.Errorf("parse order balance: %w", err)
	}

	return Transaction{
		ID:              id,
		OrderID:         orderID,
		Direction:       Direction(direction),
		OrderCurrency:   orderCurrency,
		PaymentCurrency: paymentCurrency,
		Units:           units,
		Price:           price,
		KRWAmount:       krwAmount,
		Fee:             fee,
		OrderBalance:    balance,
		TransferDate:    transferDate,
		CreatedAt:       createdAt,
		UpdatedAt:       updatedAt,
	}, nil
}

var (
	_ TransactionStore = (*Store)(nil)
	_ MarketCodeStore  = (*Store)(nil)
)
