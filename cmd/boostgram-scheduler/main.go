// Boostgram Scheduler — периодические задания движка.
//
// Scheduler:
//   - Генерирует задачи из заказов, квот и кандидатов на отписку
//   - Сверяет статусы незавершённых заказов с провайдером
//   - Продлевает квоты с автопродлением
//
// Реплики координируются через advisory lock: задания выполняет
// только лидер.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/Boostgram/internal/config"
	"github.com/shaiso/Boostgram/internal/generator"
	"github.com/shaiso/Boostgram/internal/provider"
	"github.com/shaiso/Boostgram/internal/reconciler"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/scheduler"
	"github.com/shaiso/Boostgram/internal/telemetry"
)

func main() {
	// .env — только для локальной разработки.
	_ = godotenv.Load()

	logger := telemetry.SetupLogger()
	logger.Info("starting boostgram-scheduler")

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	gen := generator.New(generator.Config{
		TaskRepo:      repo.NewTaskRepo(pool),
		OrderRepo:     repo.NewOrderRepo(pool),
		QuotaRepo:     repo.NewQuotaRepo(pool),
		UnsubRepo:     repo.NewUnsubRepo(pool),
		Limit:         cfg.Generator.Limit,
		QuotaInterval: cfg.Generator.QuotaInterval(),
		RenewPeriod:   cfg.Generator.RenewPeriod(),
		Logger:        logger,
	})

	rec := reconciler.New(reconciler.Config{
		OrderRepo: repo.NewOrderRepo(pool),
		Client: provider.New(provider.Config{
			BaseURL: cfg.Provider.BaseURL,
			APIKey:  cfg.Provider.APIKey,
			Timeout: cfg.Provider.Timeout(),
		}, logger),
		WebhookStale: cfg.Reconciler.WebhookStale(),
		PollMin:      cfg.Reconciler.PollMin(),
		BatchLimit:   cfg.Reconciler.BatchLimit,
		Logger:       logger,
	})

	sched := scheduler.New(pool, logger)

	jobs := []scheduler.Job{
		{
			Name: "generate",
			Spec: cfg.Generator.Cron,
			Run: func(ctx context.Context) error {
				_, err := gen.Generate(ctx)
				return err
			},
		},
		{
			Name: "reconcile",
			Spec: cfg.Reconciler.Cron,
			Run: func(ctx context.Context) error {
				_, err := rec.Tick(ctx)
				return err
			},
		},
		{
			Name: "renew-quotas",
			Spec: cfg.Generator.RenewCron,
			Run: func(ctx context.Context) error {
				_, err := gen.RenewQuotas(ctx)
				return err
			},
		},
	}

	for _, job := range jobs {
		if err := sched.AddJob(ctx, job); err != nil {
			logger.Error("failed to add job", "job", job.Name, "error", err)
			os.Exit(1)
		}
	}

	// HTTP mux: /healthz + /metrics
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())

	go func() {
		logger.Info("listening", "addr", cfg.HTTPAddr)
		if err := http.ListenAndServe(cfg.HTTPAddr, mux); err != nil {
			logger.Error("http server error", "error", err)
			cancel()
		}
	}()

	if err := sched.Run(ctx); err != nil {
		logger.Error("scheduler error", "error", err)
		os.Exit(1)
	}

	logger.Info("boostgram-scheduler stopped")
}
