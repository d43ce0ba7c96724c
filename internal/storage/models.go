package storage

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies a transfer.
type Direction string

const (
	DirectionDeposit    Direction = "DEPOSIT"
	DirectionWithdrawal Direction = "WITHDRAWAL"
)

// Transaction is a persisted deposit/withdrawal record. OrderID is the
// exchange-assigned identifier and the idempotency key: a record is
// inserted once per OrderID and updated in place on every later sync.
type Transaction struct {
	ID              int64
	OrderID         string
	Direction       Direction
	OrderCurrency   string
	PaymentCurrency string
	Units           decimal.Decimal
	Price           decimal.Decimal
	KRWAmount       decimal.Decimal
	Fee             decimal.Decimal
	OrderBalance    decimal.Decimal
	TransferDate    time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// MarketCodeRecord is a persisted market listing.
type MarketCodeRecord struct {
	ID            int64
	Market        string
	KoreanName    string
	EnglishName   string
	MarketWarning string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
