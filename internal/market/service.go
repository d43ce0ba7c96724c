package market

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/storage"
)

// Service keeps the local market listing in step with the exchange and
// serves filtered reads over it.
type Service struct {
	client  exchange.MarketCodesFetcher
	store   storage.MarketCodeStore
	logger  zerolog.Logger
	targets []string
	now     func() time.Time
}

// NewService constructs a market code service. targets narrows
// TargetMarketCodes to markets quoting those currencies.
func NewService(client exchange.MarketCodesFetcher, store storage.MarketCodeStore, targets []string, logger zerolog.Logger) *Service {
	return &Service{
		client:  client,
		store:   store,
		logger:  logger.With().Str("component", "market_service").Logger(),
		targets: targets,
		now:     time.Now,
	}
}

// Sync fetches every listed market and upserts it keyed by market code.
// Per-code failures are logged and skipped.
func (s *Service) Sync(ctx context.Context) error {
	codes, err := s.client.MarketCodes(ctx)
	if err != nil {
		return fmt.Errorf("fetch market codes: %w", err)
	}

	synced := 0
	for _, code := range codes {
		now := s.now().UTC()
		rec := storage.MarketCodeRecord{
			Market:        code.Market,
			KoreanName:    code.KoreanName,
			EnglishName:   code.EnglishName,
			MarketWarning: code.MarketWarning,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.store.UpsertMarketCode(ctx, rec); err != nil {
			s.logger.Error().Err(err).Str("market", code.Market).Msg("failed to upsert market code")
			continue
		}
		synced++
	}

	s.logger.Info().Int("fetched", len(codes)).Int("synced", synced).Msg("market codes synced")
	return nil
}

// TargetMarketCodes lists stored markets quoting one of the configured
// target currencies; all markets when no targets are configured.
func (s *Service) TargetMarketCodes(ctx context.Context) ([]storage.MarketCodeRecord, error) {
	codes, err := s.store.ListMarketCodes(ctx)
	if err != nil {
		return nil, err
	}
	if len(s.targets) == 0 {
		return codes, nil
	}

	filtered := make([]storage.MarketCodeRecord, 0, len(codes))
	for _, code := range codes {
		for _, target := range s.targets {
			if strings.Contains(code.Market, target) {
				filtered = append(filtered, code)
				break
			}
		}
	}
	return filtered, nil
}
