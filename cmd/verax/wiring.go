package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	_ "github.com/lib/pq"

	"verax/internal/evidence/cratesio"
	"verax/internal/evidence/ossrebuild"
	"verax/internal/inquiry"
	"verax/internal/platform/config"
	"verax/internal/platform/datadir"
	"verax/internal/platform/httpclient"
	"verax/internal/platform/logging"
	redisplatform "verax/internal/platform/redis"
	"verax/internal/platform/tracing"
	"verax/internal/report"
	"verax/internal/veracity/analyser"
	"verax/internal/veracity/coordinator"
	"verax/internal/veracity/metrics"
	"verax/internal/veracity/models"
	"verax/internal/veracity/ports"
	"verax/internal/veracity/store/checks"
	"verax/pkg/platform/audit/kafka"
)

// app holds the dependencies wired for one command invocation. Expensive
// pieces are built lazily and shared, so the registry client paces all
// traffic through a single limiter no matter how many components use it.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	dirs    datadir.Dirs
	metrics *metrics.Metrics
	console *report.Console

	registry *cratesio.Client
	store    ports.ChecksStore

	closers         []func()
	shutdownTracing func(context.Context) error
}

// newApp loads configuration and prepares the shared platform pieces.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		logger:  logging.New(flagVerbose),
		metrics: metrics.New(),
	}

	consoleOpts := []report.ConsoleOption{}
	if flagNoColor {
		consoleOpts = append(consoleOpts, report.WithoutColor())
	}
	a.console = report.NewConsole(os.Stdout, consoleOpts...)

	a.dirs, err = datadir.New(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	if flagTrace {
		a.shutdownTracing, err = tracing.Init(ctx, "verax")
		if err != nil {
			return nil, err
		}
	}
	return a, nil
}

// Close releases backends in reverse construction order and flushes traces.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	if a.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := a.shutdownTracing(ctx); err != nil {
			a.logger.Warn("failed to flush trace spans", "error", err)
		}
	}
}

// registryClient returns the shared crates.io client.
func (a *app) registryClient() (*cratesio.Client, error) {
	if a.registry != nil {
		return a.registry, nil
	}

	baseURL := a.cfg.Registry.BaseURL
	if baseURL == "" {
		baseURL = cratesio.DefaultBaseURL
	}
	pacing := a.cfg.Registry.Pacing.Std()
	if pacing == 0 {
		pacing = cratesio.DefaultPacing
	}

	transport := httpclient.New(
		httpclient.WithPacing(pacing),
		httpclient.WithLogger(a.logger),
	)
	client, err := cratesio.NewClient(baseURL, transport, cratesio.WithLogger(a.logger))
	if err != nil {
		return nil, err
	}
	a.registry = client
	return client, nil
}

// checksStore returns the configured cache backend.
func (a *app) checksStore(ctx context.Context) (ports.ChecksStore, error) {
	if a.store != nil {
		return a.store, nil
	}

	store, err := a.buildStore(ctx)
	if err != nil {
		return nil, err
	}
	a.store = store
	return store, nil
}

func (a *app) buildStore(ctx context.Context) (ports.ChecksStore, error) {
	switch a.cfg.Cache.Backend {
	case "", "disk":
		return checks.NewDiskStore(a.dirs.Analysis())

	case "memory":
		return checks.NewMemoryStore(), nil

	case "redis":
		client, err := redisplatform.New(ctx, a.cfg.Cache.RedisAddr)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() { client.Close() })
		return checks.NewRedisStore(client)

	case "postgres":
		db, err := sql.Open("postgres", a.cfg.Cache.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		store, err := checks.NewPostgresStore(db)
		if err != nil {
			db.Close()
			return nil, err
		}
		if err := store.EnsureSchema(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("ensure postgres schema: %w", err)
		}
		a.closers = append(a.closers, func() { db.Close() })
		return store, nil

	default:
		return nil, fmt.Errorf("unknown cache backend %q", a.cfg.Cache.Backend)
	}
}

// analysis wires the store and both factor checkers into the analyser.
func (a *app) analysis(ctx context.Context) (*analyser.Service, error) {
	store, err := a.checksStore(ctx)
	if err != nil {
		return nil, err
	}
	registry, err := a.registryClient()
	if err != nil {
		return nil, err
	}
	provenance, err := cratesio.NewProvenanceChecker(registry)
	if err != nil {
		return nil, err
	}

	attestationsURL := a.cfg.Attestations.BaseURL
	if attestationsURL == "" {
		attestationsURL = ossrebuild.DefaultBaseURL
	}
	reproducibility, err := ossrebuild.NewChecker(attestationsURL, httpclient.New(httpclient.WithLogger(a.logger)))
	if err != nil {
		return nil, err
	}

	return analyser.New(store, provenance, reproducibility,
		analyser.WithLogger(a.logger),
		analyser.WithMetrics(a.metrics),
	)
}

// evaluator wires a fresh single-use coordinator, with the audit trail
// attached when brokers are configured.
func (a *app) evaluator(ctx context.Context) (*coordinator.Coordinator, error) {
	analysis, err := a.analysis(ctx)
	if err != nil {
		return nil, err
	}

	opts := []coordinator.Option{
		coordinator.WithLogger(a.logger),
		coordinator.WithMetrics(a.metrics),
	}
	if budget := a.cfg.Batch.PerPackageBudget.Std(); budget > 0 {
		opts = append(opts, coordinator.WithPerPackageBudget(budget))
	}

	if len(a.cfg.Audit.Brokers) > 0 {
		kafkaOpts := []kafka.Option{kafka.WithLogger(a.logger)}
		if a.cfg.Audit.Topic != "" {
			kafkaOpts = append(kafkaOpts, kafka.WithTopic(a.cfg.Audit.Topic))
		}
		publisher, err := kafka.New(a.cfg.Audit.Brokers, kafkaOpts...)
		if err != nil {
			return nil, fmt.Errorf("connect audit brokers: %w", err)
		}
		a.closers = append(a.closers, publisher.Close)
		opts = append(opts, coordinator.WithAuditor(publisher))
	}

	return coordinator.New(analysis, opts...)
}

// evaluateAndReport runs one batch through a fresh coordinator and renders
// the outcome on the console.
func (a *app) evaluateAndReport(ctx context.Context, packages []models.Package) error {
	evaluator, err := a.evaluator(ctx)
	if err != nil {
		return err
	}
	results, err := evaluator.Evaluate(ctx, packages)
	if err != nil {
		return err
	}
	a.console.Batch(results)
	return nil
}

// inquiryService wires the ecosystem inquiry on top of the registry catalogue
// and a fresh coordinator.
func (a *app) inquiryService(ctx context.Context) (*inquiry.Service, error) {
	registry, err := a.registryClient()
	if err != nil {
		return nil, err
	}
	evaluator, err := a.evaluator(ctx)
	if err != nil {
		return nil, err
	}
	return inquiry.New(registry, evaluator, inquiry.WithLogger(a.logger))
}
