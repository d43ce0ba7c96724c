package sync

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/storage"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestNormalizeDirection(t *testing.T) {
	n := NewNormalizer(noopLogger())

	cases := []struct {
		search string
		want   storage.Direction
	}{
		{"deposit", storage.DirectionDeposit},
		{"Deposit", storage.DirectionDeposit},
		{"입금", storage.DirectionDeposit},
		{"withdrawal", storage.DirectionWithdrawal},
		{"WITHDRAWAL", storage.DirectionWithdrawal},
		{"출금", storage.DirectionWithdrawal},
		{"unknown", storage.DirectionDeposit},
		{"", storage.DirectionDeposit},
	}

	for _, tc := range cases {
		got := n.Normalize(exchange.RawTransaction{Search: tc.search}).Direction
		if got != tc.want {
			t.Fatalf("search %q: want %s, got %s", tc.search, tc.want, got)
		}
	}
}

func TestNormalizeDecimals(t *testing.T) {
	n := NewNormalizer(noopLogger())

	tx := n.Normalize(exchange.RawTransaction{
		Units:        "0.12345678",
		Price:        "abc",
		OrderBalance: "",
	})

	if !tx.Units.Equal(decimal.RequireFromString("0.12345678")) {
		t.Fatalf("units should parse, got %s", tx.Units)
	}
	if !tx.Price.IsZero() {
		t.Fatalf("non-numeric price should default to zero, got %s", tx.Price)
	}
	if !tx.OrderBalance.IsZero() {
		t.Fatalf("empty balance should default to zero, got %s", tx.OrderBalance)
	}
}

func TestNormalizeTransferDate(t *testing.T) {
	n := NewNormalizer(noopLogger())

	tx := n.Normalize(exchange.RawTransaction{TransferDate: "2024-01-21 14:30:00"})
	want := time.Date(2024, 1, 21, 14, 30, 0, 0, time.UTC)
	if !tx.TransferDate.Equal(want) {
		t.Fatalf("transfer date should parse, want %s got %s", want, tx.TransferDate)
	}
}

func TestNormalizeTransferDateFallback(t *testing.T) {
	n := NewNormalizer(noopLogger())
	fixed := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return fixed }

	tx := n.Normalize(exchange.RawTransaction{TransferDate: "21/01/2024"})
	if !tx.TransferDate.Equal(fixed) {
		t.Fatalf("unparsable date should fall back to now, got %s", tx.TransferDate)
	}
}

func TestNormalizePassthroughFields(t *testing.T) {
	n := NewNormalizer(noopLogger())

	raw := exchange.RawTransaction{
		Search:          "deposit",
		OrderID:         "A1",
		OrderCurrency:   "BTC",
		PaymentCurrency: "KRW",
		KRWAmount:       decimal.NewFromInt(50000),
		Fee:             decimal.NewFromInt(25),
	}
	tx := n.Normalize(raw)

	if tx.OrderID != "A1" || tx.OrderCurrency != "BTC" || tx.PaymentCurrency != "KRW" {
		t.Fatalf("identity fields should pass through, got %+v", tx)
	}
	if !tx.KRWAmount.Equal(raw.KRWAmount) || !tx.Fee.Equal(raw.Fee) {
		t.Fatal("krw_amount and fee arrive typed and must pass through unchanged")
	}
}
