package exchange

import (
	"context"
)

// TransactionsFetcher retrieves the deposit/withdrawal ledger.
type TransactionsFetcher interface {
	UserTransactions(ctx context.Context, currency string, scope Scope, count int) (*TransactionsResponse, error)
}

// MarketCodesFetcher retrieves the full market listing.
type MarketCodesFetcher interface {
	MarketCodes(ctx context.Context) ([]MarketCode, error)
}

var (
	_ TransactionsFetcher = (*Client)(nil)
	_ MarketCodesFetcher  = (*Client)(nil)
)
