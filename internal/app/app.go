// Package app initializes the long-lived services shared by every job run and
// assembles a crawler.Job per invocation.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/crawler-notifier/internal/clock/system"
	"github.com/JakeFAU/crawler-notifier/internal/config"
	"github.com/JakeFAU/crawler-notifier/internal/crawler"
	collyfetcher "github.com/JakeFAU/crawler-notifier/internal/fetcher/colly"
	"github.com/JakeFAU/crawler-notifier/internal/id/uuid"
	"github.com/JakeFAU/crawler-notifier/internal/logging"
	"github.com/JakeFAU/crawler-notifier/internal/metrics"
	"github.com/JakeFAU/crawler-notifier/internal/notifier"
	pubsubnotifier "github.com/JakeFAU/crawler-notifier/internal/notifier/pubsub"
	"github.com/JakeFAU/crawler-notifier/internal/notifier/telegram"
	"github.com/JakeFAU/crawler-notifier/internal/policy/ratelimit"
	"github.com/JakeFAU/crawler-notifier/internal/storage/postgres"
	memorystore "github.com/JakeFAU/crawler-notifier/internal/store/memory"
	redisstore "github.com/JakeFAU/crawler-notifier/internal/store/redis"
)

// App holds the shared services for the application.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	clock    *system.Clock
	store    crawler.SuppressionStore
	notifier crawler.Notifier
	recorder crawler.AlertRecorder
	ids      crawler.IDGenerator
	metrics  *metrics.Collectors
	closers  []func() error
}

// NewApp builds every backend selected by cfg. It fails fast when one cannot
// be initialized and releases whatever was opened before the failure.
func NewApp(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	clk, err := system.NewInZone(cfg.Clock.Timezone)
	if err != nil {
		return nil, err
	}
	a := &App{
		cfg:     cfg,
		logger:  logger,
		clock:   clk,
		ids:     uuid.New(),
		metrics: metrics.New(),
	}
	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	if err := a.initStore(ctx); err != nil {
		return err
	}
	if err := a.initNotifier(ctx); err != nil {
		return err
	}
	return a.initHistory(ctx)
}

func (a *App) initStore(ctx context.Context) error {
	switch a.cfg.Store.Backend {
	case config.StoreRedis:
		client, err := redisstore.NewClient(ctx, a.cfg.Redis.URL)
		if err != nil {
			return fmt.Errorf("init suppression store: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.store = redisstore.New(client)
	case config.StoreMemory:
		a.logger.Warn("using in-memory suppression store; quiet windows do not survive the process")
		a.store = memorystore.New(a.clock)
	default:
		return fmt.Errorf("unknown store backend %q", a.cfg.Store.Backend)
	}
	return nil
}

func (a *App) initNotifier(ctx context.Context) error {
	var (
		base crawler.Notifier
		err  error
	)
	switch a.cfg.Notifier.Backend {
	case config.NotifierTelegram:
		tg := a.cfg.Notifier.Telegram
		base, err = telegram.New(telegram.Config{
			Token:       tg.Token,
			ChatID:      tg.ChatID,
			APIEndpoint: tg.APIEndpoint,
		})
		if err != nil {
			return fmt.Errorf("init notifier: %w", err)
		}
	case config.NotifierPubSub:
		ps := a.cfg.Notifier.PubSub
		client, n, err := pubsubnotifier.Open(ctx, ps.ProjectID, ps.TopicName)
		if err != nil {
			return fmt.Errorf("init notifier: %w", err)
		}
		a.closers = append(a.closers, func() error {
			n.Stop()
			return client.Close()
		})
		base = n
	case config.NotifierLog:
		base = notifier.NewLog(a.logger.Named("notifier"))
	default:
		return fmt.Errorf("unknown notifier backend %q", a.cfg.Notifier.Backend)
	}
	limiter := ratelimit.New(ratelimit.Config{
		PerMinute: a.cfg.Notifier.RatePerMinute,
		Burst:     a.cfg.Notifier.Burst,
		MaxWait:   a.cfg.NotifierMaxWait(),
	})
	a.notifier = notifier.NewThrottled(base, limiter, a.cfg.Notifier.Backend)
	return nil
}

func (a *App) initHistory(ctx context.Context) error {
	if a.cfg.DB.DSN == "" {
		return nil
	}
	store, err := postgres.NewAlertStore(ctx, postgres.AlertStoreConfig{
		DSN:   a.cfg.DB.DSN,
		Table: a.cfg.DB.Table,
	})
	if err != nil {
		return fmt.Errorf("init alert history: %w", err)
	}
	a.closers = append(a.closers, func() error {
		store.Close()
		return nil
	})
	if err := store.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("init alert history: %w", err)
	}
	a.recorder = store
	return nil
}

// JobNames lists the configured jobs.
func (a *App) JobNames() []string {
	return a.cfg.JobNames()
}

// RunJob executes one sweep of the named job. The returned error is non-nil
// exactly when the run status is failed.
func (a *App) RunJob(ctx context.Context, name string) (crawler.RunResult, error) {
	desc, eval, err := a.cfg.Job(name)
	if err != nil {
		return crawler.RunResult{Job: name, Status: crawler.JobStatusFailed}, err
	}

	attempts, err := logging.NewAttemptLog(a.cfg.Logging.Dir, desc.Name, a.clock.Now())
	if err != nil {
		return crawler.RunResult{Job: name, Status: crawler.JobStatusFailed}, err
	}
	defer func() {
		if cerr := attempts.Close(); cerr != nil {
			a.logger.Warn("attempt log close failed", zap.String("job", name), zap.Error(cerr))
		}
	}()

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: a.cfg.HTTP.UserAgent,
		Timeout:   a.cfg.HTTPTimeout(),
	}, attempts)

	job := crawler.NewJob(desc, eval, fetcher, a.notifier, a.store, a.clock, a.ids, a.recorder, a.logger.Named("job"))
	result, runErr := job.Run(ctx)

	a.metrics.ObserveRun(result)
	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		if err := a.metrics.Push(ctx, url, name); err != nil {
			a.logger.Warn("metrics push failed", zap.String("job", name), zap.Error(err))
		}
	}
	return result, runErr
}

// Close releases every backend in reverse order of initialization.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
