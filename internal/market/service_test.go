package market

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/storage"
)

func noopLogger() zerolog.Logger {
	return zerolog.Nop()
}

type fakeCodesFetcher struct {
	codes []exchange.MarketCode
	err   error
}

func (f *fakeCodesFetcher) MarketCodes(ctx context.Context) ([]exchange.MarketCode, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.codes, nil
}

type fakeCodeStore struct {
	rows    map[string]storage.MarketCodeRecord
	failing map[string]bool
}

func newFakeCodeStore() *fakeCodeStore {
	return &fakeCodeStore{rows: make(map[string]storage.MarketCodeRecord), failing: make(map[string]bool)}
}

func (s *fakeCodeStore) UpsertMarketCode(ctx context.Context, code storage.MarketCodeRecord) error {
	if s.failing[code.Market] {
		return errors.New("constraint violation")
	}
	if existing, ok := s.rows[code.Market]; ok {
		existing.KoreanName = code.KoreanName
		existing.EnglishName = code.EnglishName
		existing.MarketWarning = code.MarketWarning
		existing.UpdatedAt = code.UpdatedAt
		s.rows[code.Market] = existing
		return nil
	}
	s.rows[code.Market] = code
	return nil
}

func (s *fakeCodeStore) ListMarketCodes(ctx context.Context) ([]storage.MarketCodeRecord, error) {
	out := make([]storage.MarketCodeRecord, 0, len(s.rows))
	for _, rec := range s.rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Market < out[j].Market })
	return out, nil
}

func TestSyncUpserts(t *testing.T) {
	store := newFakeCodeStore()
	fetcher := &fakeCodesFetcher{codes: []exchange.MarketCode{
		{Market: "KRW-BTC", KoreanName: "비트코인", EnglishName: "Bitcoin"},
		{Market: "KRW-ETH", KoreanName: "이더리움", EnglishName: "Ethereum"},
	}}
	svc := NewService(fetcher, store, nil, noopLogger())

	if err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("sync should succeed: %v", err)
	}
	if len(store.rows) != 2 {
		t.Fatalf("expected 2 market codes, got %d", len(store.rows))
	}
	if store.rows["KRW-BTC"].EnglishName != "Bitcoin" {
		t.Fatalf("unexpected record %+v", store.rows["KRW-BTC"])
	}
}

func TestSyncUpdatesInPlace(t *testing.T) {
	store := newFakeCodeStore()
	createdAt := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	store.rows["KRW-BTC"] = storage.MarketCodeRecord{
		Market:      "KRW-BTC",
		EnglishName: "Bitcoin",
		CreatedAt:   createdAt,
		UpdatedAt:   createdAt,
	}

	fetcher := &fakeCodesFetcher{codes: []exchange.MarketCode{
		{Market: "KRW-BTC", KoreanName: "비트코인", EnglishName: "Bitcoin", MarketWarning: "CAUTION"},
	}}
	svc := NewService(fetcher, store, nil, noopLogger())
	later := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return later }

	if err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("sync should succeed: %v", err)
	}
	if len(store.rows) != 1 {
		t.Fatalf("re-sync must not duplicate rows, got %d", len(store.rows))
	}

	rec := store.rows["KRW-BTC"]
	if rec.MarketWarning != "CAUTION" {
		t.Fatalf("warning flag should be updated, got %+v", rec)
	}
	if !rec.CreatedAt.Equal(createdAt) {
		t.Fatalf("created_at must not change on update, got %s", rec.CreatedAt)
	}
	if !rec.UpdatedAt.Equal(later) {
		t.Fatalf("updated_at should advance, got %s", rec.UpdatedAt)
	}
}

func TestSyncFetchFailure(t *testing.T) {
	store := newFakeCodeStore()
	fetcher := &fakeCodesFetcher{err: &exchange.APIError{StatusCode: 500, Body: "upstream down"}}
	svc := NewService(fetcher, store, nil, noopLogger())

	if err := svc.Sync(context.Background()); err == nil {
		t.Fatal("fetch failure should fail the sync call")
	}
	if len(store.rows) != 0 {
		t.Fatal("nothing should be persisted when the fetch fails")
	}
}

func TestSyncPartialUpsertFailure(t *testing.T) {
	store := newFakeCodeStore()
	store.failing["KRW-BTC"] = true
	fetcher := &fakeCodesFetcher{codes: []exchange.MarketCode{
		{Market: "KRW-BTC", EnglishName: "Bitcoin"},
		{Market: "KRW-ETH", EnglishName: "Ethereum"},
	}}
	svc := NewService(fetcher, store, nil, noopLogger())

	if err := svc.Sync(context.Background()); err != nil {
		t.Fatalf("a single failed upsert must not abort the batch: %v", err)
	}
	if _, ok := store.rows["KRW-ETH"]; !ok {
		t.Fatal("codes after the failed one should still be persisted")
	}
}

func TestTargetMarketCodes(t *testing.T) {
	store := newFakeCodeStore()
	for _, market := range []string{"KRW-BTC", "KRW-ETH", "KRW-DOGE", "BTC-USDT"} {
		store.rows[market] = storage.MarketCodeRecord{Market: market}
	}

	svc := NewService(&fakeCodesFetcher{}, store, []string{"BTC", "USDT"}, noopLogger())
	got, err := svc.TargetMarketCodes(context.Background())
	if err != nil {
		t.Fatalf("target market codes should succeed: %v", err)
	}

	markets := make([]string, 0, len(got))
	for _, rec := range got {
		markets = append(markets, rec.Market)
	}
	want := []string{"BTC-USDT", "KRW-BTC"}
	if len(markets) != len(want) {
		t.Fatalf("expected %v, got %v", want, markets)
	}
	for i := range want {
		if markets[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, markets)
		}
	}
}

func TestTargetMarketCodesNoTargets(t *testing.T) {
	store := newFakeCodeStore()
	store.rows["KRW-DOGE"] = storage.MarketCodeRecord{Market: "KRW-DOGE"}

	svc := NewService(&fakeCodesFetcher{}, store, nil, noopLogger())
	got, err := svc.TargetMarketCodes(context.Background())
	if err != nil {
		t.Fatalf("target market codes should succeed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("no targets should return every market, got %+v", got)
	}
}
