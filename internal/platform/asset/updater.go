package asset

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"

	"github.com/foliotrack/foliotrack/pkg/logger"
)

// PriceUpdaterConfig configures the background price refresh job
type PriceUpdaterConfig struct {
	Interval  time.Duration
	BatchSize int
}

// PriceUpdater periodically refreshes asset prices from the external quote
// provider. It never touches positions; valuation always reads whatever price
// the last successful refresh stored.
type PriceUpdater struct {
	repo      Repository
	cache     PriceCache
	provider  PriceProvider
	scheduler gocron.Scheduler
	cfg       PriceUpdaterConfig
	log       *logger.Logger
}

// NewPriceUpdater creates a new price updater
func NewPriceUpdater(repo Repository, cache PriceCache, provider PriceProvider, cfg PriceUpdaterConfig, log *logger.Logger) (*PriceUpdater, error) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	if cfg.Interval <= 0 {
		cfg.Interval = 5 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}

	return &PriceUpdater{
		repo:      repo,
		cache:     cache,
		provider:  provider,
		scheduler: scheduler,
		cfg:       cfg,
		log:       log.WithField("component", "price_updater"),
	}, nil
}

// Start schedules the refresh job and runs the first refresh immediately
func (u *PriceUpdater) Start(ctx context.Context) error {
	_, err := u.scheduler.NewJob(
		gocron.DurationJob(u.cfg.Interval),
		gocron.NewTask(func() {
			if err := u.RefreshAll(ctx); err != nil {
				u.log.Error("price refresh failed", "error", err)
			}
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return err
	}

	u.scheduler.Start()
	u.log.Info("price updater started", "interval", u.cfg.Interval)
	return nil
}

// Stop shuts down the scheduler
func (u *PriceUpdater) Stop() {
	_ = u.scheduler.Shutdown()
}

// RefreshAll fetches quotes for every non-fiat asset and stores the results.
// An asset without a fresh quote keeps its previous price; one bad ticker
// never aborts the batch.
func (u *PriceUpdater) RefreshAll(ctx context.Context) error {
	offset := 0
	for {
		assets, err := u.repo.List(ctx, u.cfg.BatchSize, offset)
		if err != nil {
			return err
		}
		if len(assets) == 0 {
			return nil
		}

		tickers := make([]string, 0, len(assets))
		for _, a := range assets {
			if a.IsCash() {
				continue // fiat prices are exchange rates, managed manually
			}
			tickers = append(tickers, a.Ticker)
		}

		if len(tickers) > 0 {
			u.refreshTickers(ctx, tickers)
		}

		if len(assets) < u.cfg.BatchSize {
			return nil
		}
		offset += u.cfg.BatchSize
	}
}

func (u *PriceUpdater) refreshTickers(ctx context.Context, tickers []string) {
	quotes, err := u.provider.Quotes(ctx, tickers)
	if err != nil {
		u.log.Warn("quote fetch failed, keeping stored prices", "tickers", len(tickers), "error", err)
		return
	}

	now := time.Now().UTC()
	updated := 0
	for _, ticker := range tickers {
		price, ok := quotes[ticker]
		if !ok {
			u.log.Debug("no quote for ticker", "ticker", ticker)
			continue
		}

		if err := u.repo.UpdatePrice(ctx, ticker, price, now); err != nil {
			u.log.Warn("failed to store price", "ticker", ticker, "error", err)
			continue
		}

		if u.cache != nil {
			if err := u.cache.Set(ctx, ticker, price); err != nil {
				u.log.Warn("failed to cache price", "ticker", ticker, "error", err)
			}
		}
		updated++
	}

	u.log.Info("prices refreshed", "requested", len(tickers), "updated", updated)
}
