package cli

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/shaiso/Boostgram/internal/config"
	"github.com/shaiso/Boostgram/internal/mq"
	"github.com/shaiso/Boostgram/internal/provider"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/session"
	"github.com/shaiso/Boostgram/internal/telemetry"
	"github.com/shaiso/Boostgram/internal/worker"
)

// NewWorkCmd создаёт команду запуска цикла выполнения задач.
func NewWorkCmd() *cobra.Command {
	var limit int
	var leaseTTL time.Duration
	var once bool
	var workerID string

	cmd := &cobra.Command{
		Use:   "work",
		Short: "Claim and execute queued tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env — только для локальной разработки.
			_ = godotenv.Load()

			logger := telemetry.SetupLogger()

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			pool, err := repo.NewPool(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer pool.Close()
			logger.Info("database connected")

			taskRepo := repo.NewTaskRepo(pool)
			orderRepo := repo.NewOrderRepo(pool)
			resultRepo := repo.NewResultRepo(pool)

			// RabbitMQ опционален: без него журнал пишется только в БД.
			var publisher *mq.Publisher
			if cfg.AMQPURL != "" {
				mqConn, err := mq.NewConnection(cfg.AMQPURL, logger)
				if err != nil {
					logger.Warn("RabbitMQ not available, feed disabled", "error", err)
				} else {
					defer mqConn.Close()
					if err := mq.SetupTopology(ctx, mqConn); err != nil {
						logger.Warn("failed to setup topology", "error", err)
					}
					publisher = mq.NewPublisher(mqConn, logger)
					logger.Info("RabbitMQ connected")
				}
			}

			providerClient := provider.New(provider.Config{
				BaseURL: cfg.Provider.BaseURL,
				APIKey:  cfg.Provider.APIKey,
				Timeout: cfg.Provider.Timeout(),
			}, logger)

			gateway := session.NewGateway(session.GatewayConfig{
				URL:     cfg.Gateway.URL,
				Token:   cfg.Gateway.Token,
				Timeout: cfg.Gateway.Timeout(),
			}, logger)

			registry := worker.NewRegistry(providerClient)
			if err := registry.Validate(); err != nil {
				return fmt.Errorf("validate registry: %w", err)
			}

			reporter := worker.NewReporter(worker.ReporterConfig{
				TaskRepo:     taskRepo,
				OrderRepo:    orderRepo,
				ResultRepo:   resultRepo,
				Publisher:    publisher,
				MaxAttempts:  cfg.Worker.MaxAttempts,
				PendingDelay: cfg.Worker.PendingDelay(),
				Logger:       logger,
			})

			batchLimit := limit
			if batchLimit <= 0 {
				batchLimit = cfg.Worker.BatchLimit
			}
			ttl := leaseTTL
			if ttl <= 0 {
				ttl = cfg.Worker.LeaseTTL()
			}

			w := worker.New(worker.Config{
				TaskRepo:   taskRepo,
				Registry:   registry,
				Reporter:   reporter,
				Sessions:   gateway,
				WorkerID:   workerID,
				BatchLimit: batchLimit,
				LeaseTTL:   ttl,
				IdleSleep:  cfg.Worker.IdleSleep(),
				Logger:     logger,
			})

			if once {
				processed, err := w.RunOnce(ctx)
				if err != nil {
					return err
				}
				logger.Info("batch processed", "count", processed)
				return nil
			}

			go serveHTTP(cfg.HTTPAddr, logger, cancel)

			return w.Run(ctx)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Tasks per claim batch (default from WORKER_BATCH_LIMIT)")
	cmd.Flags().DurationVar(&leaseTTL, "lease-ttl", 0, "Task lease duration (default from WORKER_LEASE_TTL_SECONDS)")
	cmd.Flags().BoolVar(&once, "once", false, "Process a single batch and exit")
	cmd.Flags().StringVar(&workerID, "worker-id", "", "Worker identifier (default: hostname + random suffix)")

	return cmd
}
