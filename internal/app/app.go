package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"bithumb-backoffice/internal/auth"
	"bithumb-backoffice/internal/config"
	"bithumb-backoffice/internal/exchange"
	"bithumb-backoffice/internal/market"
	"bithumb-backoffice/internal/scheduler"
	"bithumb-backoffice/internal/storage"
	"bithumb-backoffice/internal/sync"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newClient() *exchange.Client {
	signer := auth.NewSigner(auth.Credentials{
		AccessKey: a.Config.Exchange.AccessKey,
		SecretKey: a.Config.Exchange.SecretKey,
	}, a.Logger)

	return exchange.NewClient(exchange.Options{
		BaseURL:   a.Config.Exchange.BaseURL,
		Timeout:   a.Config.Exchange.RequestTimeout,
		UserAgent: a.Config.Exchange.UserAgent,
	}, signer, a.Logger)
}

func (a *App) newEngine(client *exchange.Client, store storage.TransactionStore) *sync.Engine {
	normalizer := sync.NewNormalizer(a.Logger)
	return sync.NewEngine(client, store, normalizer, a.Config.Sync.RecentLimit, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, errors.New("database.dsn not configured")
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// Run executes the long-running sync service: a transaction sync loop and,
// when configured, a market code sync loop.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	client := a.newClient()
	engine := a.newEngine(client, store)

	if a.Config.Scheduler.MarketSyncInterval > 0 {
		marketSvc := market.NewService(client, store, a.Config.Sync.TargetCurrencies, a.Logger)
		marketSched := scheduler.New(scheduler.Options{
			Interval:     a.Config.Scheduler.MarketSyncInterval,
			AlignToStart: a.Config.Scheduler.AlignToInterval,
			StartupDelay: a.Config.Scheduler.StartupDelay,
			Name:         "market_scheduler",
		}, a.Logger)

		go func() {
			if err := marketSched.Run(ctx, func(ctx context.Context, _ time.Time) error {
				return marketSvc.Sync(ctx)
			}); err != nil && !errors.Is(err, context.Canceled) {
				a.Logger.Error().Err(err).Msg("market code sync loop terminated")
			}
		}()
	}

	sched := scheduler.New(scheduler.Options{
		Interval:     a.Config.Scheduler.SyncInterval,
		AlignToStart: a.Config.Scheduler.AlignToInterval,
		StartupDelay: a.Config.Scheduler.StartupDelay,
		Name:         "sync_scheduler",
	}, a.Logger)

	a.Logger.Info().Msg("starting transaction sync service")
	err = sched.Run(ctx, func(ctx context.Context, _ time.Time) error {
		_, syncErr := engine.SyncAndSummarize(ctx, a.Config.Sync.DefaultCurrency, a.Config.Sync.DefaultCount)
		return syncErr
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		a.Logger.Error().Err(err).Msg("sync service terminated with error")
		return err
	}

	a.Logger.Info().Msg("sync service stopped")
	return nil
}

// SyncOptions configure a one-shot synchronization.
type SyncOptions struct {
	Currency string
	Count    int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}

// ExportOptions hold parameters for exporting transaction history.
type ExportOptions struct {
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}
