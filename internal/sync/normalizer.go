package sync

import (
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/storage"
)

// transferDateLayout is the fixed format used by the exchange, e.g.
// "2024-01-21 14:30:00".
const transferDateLayout = "2006-01-02 15:04:05"

// Normalizer converts raw exchange records into canonical transactions.
// Normalize is total: malformed fields degrade to documented defaults
// (logged) instead of failing the record.
type Normalizer struct {
	logger zerolog.Logger
	now    func() time.Time
}

// NewNormalizer constructs a Normalizer using the wall clock.
func NewNormalizer(logger zerolog.Logger) *Normalizer {
	return &Normalizer{
		logger: logger.With().Str("component", "normalizer").Logger(),
		now:    time.Now,
	}
}

// Normalize maps one raw record to a canonical Transaction. krw_amount and
// fee arrive already typed and pass through unchanged.
func (n *Normalizer) Normalize(raw exchange.RawTransaction) storage.Transaction {
	return storage.Transaction{
		OrderID:         raw.OrderID,
		Direction:       n.direction(raw),
		OrderCurrency:   raw.OrderCurrency,
		PaymentCurrency: raw.PaymentCurrency,
		Units:           n.parseDecimal(raw.OrderID, "units", raw.Units),
		Price:           n.parseDecimal(raw.OrderID, "price", raw.Price),
		KRWAmount:       raw.KRWAmount,
		Fee:             raw.Fee,
		OrderBalance:    n.parseDecimal(raw.OrderID, "order_balance", raw.OrderBalance),
		TransferDate:    n.parseTransferDate(raw.OrderID, raw.TransferDate),
	}
}

func (n *Normalizer) direction(raw exchange.RawTransaction) storage.Direction {
	switch strings.ToLower(strings.TrimSpace(raw.Search)) {
	case "deposit", "입금":
		return storage.DirectionDeposit
	case "withdrawal", "출금":
		return storage.DirectionWithdrawal
	default:
		n.logger.Warn().
			Str("order_id", raw.OrderID).
			Str("search", raw.Search).
			Msg("unknown transaction direction, defaulting to DEPOSIT")
		return storage.DirectionDeposit
	}
}

func (n *Normalizer) parseDecimal(orderID, field, value string) decimal.Decimal {
	if strings.TrimSpace(value) == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		n.logger.Warn().
			Str("order_id", orderID).
			Str("field", field).
			Str("value", value).
			Msg("unparsable decimal, defaulting to zero")
		return decimal.Zero
	}
	return parsed
}

func (n *Normalizer) parseTransferDate(orderID, value string) time.Time {
	parsed, err := time.Parse(transferDateLayout, value)
	if err != nil {
		n.logger.Warn().
			Str("order_id", orderID).
			Str("transfer_date", value).
			Msg("unparsable transfer date, using current time")
		return n.now().UTC()
	}
	return parsed
}
