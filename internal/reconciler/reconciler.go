package reconciler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/provider"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultWebhookStale = 30 * time.Minute
	defaultPollMin      = 5 * time.Minute
	defaultBatchLimit   = 50
)

// Reconciler сверяет статусы незавершённых заказов с провайдером.
//
// Poll — подстраховка для webhook'ов: пока по заказу приходят свежие
// webhook'и, опрос подавляется. Статус меняется только вперёд по
// решётке (MergeOrderStatus), поэтому запоздавший poll-ответ
// не откатит то, что webhook уже записал.
type Reconciler struct {
	orders *repo.OrderRepo
	client *provider.Client

	webhookStale time.Duration
	pollMin      time.Duration
	batchLimit   int
	logger       *slog.Logger
}

// Config — конфигурация Reconciler.
type Config struct {
	OrderRepo *repo.OrderRepo
	Client    *provider.Client

	// WebhookStale — свежесть webhook'а: пока последний webhook моложе,
	// заказ не опрашивается (default: 30m).
	WebhookStale time.Duration

	// PollMin — минимальный интервал между опросами одного заказа
	// (default: 5m).
	PollMin time.Duration

	// BatchLimit — максимум заказов за один проход (default: 50).
	BatchLimit int

	Logger *slog.Logger
}

// New создаёт новый Reconciler.
func New(cfg Config) *Reconciler {
	webhookStale := cfg.WebhookStale
	if webhookStale <= 0 {
		webhookStale = defaultWebhookStale
	}

	pollMin := cfg.PollMin
	if pollMin <= 0 {
		pollMin = defaultPollMin
	}

	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reconciler{
		orders:       cfg.OrderRepo,
		client:       cfg.Client,
		webhookStale: webhookStale,
		pollMin:      pollMin,
		batchLimit:   batchLimit,
		logger:       logger,
	}
}

// ShouldPoll решает, пора ли опрашивать заказ.
//
// Правила:
//   - заказ без provider_order_id или в терминальном статусе — нет;
//   - последний webhook моложе webhookStale — нет, push-канал живой;
//   - с последнего опроса прошло меньше pollMin — нет.
func ShouldPoll(o *domain.Order, now time.Time, webhookStale, pollMin time.Duration) bool {
	if !o.Submitted() || o.Status.IsTerminal() {
		return false
	}
	if o.ProviderWebhookReceivedAt != nil &&
		now.Sub(*o.ProviderWebhookReceivedAt) < webhookStale {
		return false
	}
	if o.ProviderLastPolledAt != nil &&
		now.Sub(*o.ProviderLastPolledAt) < pollMin {
		return false
	}
	return true
}

// Tick выполняет один проход сверки.
// Возвращает число опрошенных заказов.
func (r *Reconciler) Tick(ctx context.Context) (int, error) {
	orders, err := r.orders.ListUnfinished(ctx, r.batchLimit)
	if err != nil {
		return 0, fmt.Errorf("list unfinished orders: %w", err)
	}

	now := time.Now().UTC()
	polled := 0
	for i := range orders {
		o := &orders[i]
		if !ShouldPoll(o, now, r.webhookStale, r.pollMin) {
			continue
		}
		if ctx.Err() != nil {
			return polled, ctx.Err()
		}

		r.poll(ctx, o, now)
		polled++
	}
	return polled, nil
}

// poll опрашивает один заказ и двигает его статус вперёд по решётке.
func (r *Reconciler) poll(ctx context.Context, o *domain.Order, now time.Time) {
	logger := telemetry.WithOrderID(r.logger, o.ID.String())

	// Метка времени пишется до запроса: интервал pollMin соблюдается
	// и когда провайдер отвечает ошибкой.
	if err := r.orders.MarkPolled(ctx, o.ID, now); err != nil {
		logger.Warn("failed to mark order polled", "error", err)
		return
	}

	resp, err := r.client.OrderStatus(ctx, o.ProviderOrderID)
	if err != nil {
		telemetry.ProviderPolls.WithLabelValues("error").Inc()
		logger.Warn("provider status poll failed", "error", err)
		return
	}

	incoming := resp.OrderStatus()
	merged := domain.MergeOrderStatus(o.Status, incoming)
	if merged == o.Status {
		telemetry.ProviderPolls.WithLabelValues("unchanged").Inc()
		return
	}

	err = r.orders.UpdateStatus(ctx, o.ID, o.Status, merged)
	if errors.Is(err, repo.ErrInvalidState) {
		// Статус сменился конкурентно (webhook успел раньше) —
		// следующий проход доработает.
		telemetry.ProviderPolls.WithLabelValues("conflict").Inc()
		logger.Debug("order status changed concurrently, skipping")
		return
	}
	if err != nil {
		telemetry.ProviderPolls.WithLabelValues("error").Inc()
		logger.Warn("failed to update order status", "error", err)
		return
	}

	telemetry.ProviderPolls.WithLabelValues("updated").Inc()
	logger.Info("order status advanced",
		"from", o.Status,
		"to", merged,
		"provider_order_id", o.ProviderOrderID,
	)
}
