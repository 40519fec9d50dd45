package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/mq"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/telemetry"
)

// Значения по умолчанию для Reporter.
const (
	defaultMaxAttempts  = 5
	defaultPendingDelay = time.Minute
)

// Узкие интерфейсы хранилища: Reporter'у нужны только переходы статусов.
type taskFinalizer interface {
	DelayReclaim(ctx context.Context, id uuid.UUID, delay time.Duration) error
	Requeue(ctx context.Context, id uuid.UUID, lastError string, delay time.Duration) error
}

type orderAttacher interface {
	AttachProviderOrder(ctx context.Context, id uuid.UUID, providerOrderID string) error
}

type resultFinalizer interface {
	FinalizeSuccess(ctx context.Context, task *domain.Task, units int, ev *domain.ResultEvent) error
	FinalizeFailure(ctx context.Context, task *domain.Task, lastError string, ev *domain.ResultEvent) error
}

// Reporter финализирует выполненные задачи.
//
// Единственное место, где решается retry-vs-terminal и где мутируются
// Quota/Order. Списание квоты идемпотентно: его выполняет транзакция
// ResultRepo, ключом служит переход самой задачи в терминальный статус,
// поэтому задача, выполнившаяся дважды из-за истёкшего lease,
// не списывает квоту дважды.
type Reporter struct {
	tasks     taskFinalizer
	orders    orderAttacher
	results   resultFinalizer
	publisher *mq.Publisher

	maxAttempts  int
	pendingDelay time.Duration
	logger       *slog.Logger
}

// ReporterConfig — конфигурация Reporter.
type ReporterConfig struct {
	TaskRepo   taskFinalizer
	OrderRepo  orderAttacher
	ResultRepo resultFinalizer

	// Publisher — MQ-фид результатов (опционально; nil — только БД).
	Publisher *mq.Publisher

	// MaxAttempts — бюджет попыток задачи (default: 5).
	MaxAttempts int

	// PendingDelay — задержка перед перепроверкой pending-результата,
	// если провайдер не прислал retry_after (default: 1m).
	PendingDelay time.Duration

	Logger *slog.Logger
}

// NewReporter создаёт новый Reporter.
func NewReporter(cfg ReporterConfig) *Reporter {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	pendingDelay := cfg.PendingDelay
	if pendingDelay <= 0 {
		pendingDelay = defaultPendingDelay
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Reporter{
		tasks:        cfg.TaskRepo,
		orders:       cfg.OrderRepo,
		results:      cfg.ResultRepo,
		publisher:    cfg.Publisher,
		maxAttempts:  maxAttempts,
		pendingDelay: pendingDelay,
		logger:       logger,
	}
}

// Finalize обрабатывает результат выполнения задачи.
//
//   - pending: задача остаётся leased, lease сдвигается на retry_after
//     (или PendingDelay) — отложенная повторная проверка;
//   - OK: транзакционная финализация done + списание квоты + журнал;
//   - неуспех: retry в pending, пока есть бюджет попыток, иначе failed.
func (r *Reporter) Finalize(ctx context.Context, task *domain.Task, res domain.ActionResult) error {
	logger := telemetry.WithTaskID(r.logger, task.ID.String())

	if res.State == domain.StatePending {
		return r.finalizePending(ctx, logger, task, res)
	}
	if res.OK {
		return r.finalizeSuccess(ctx, logger, task, res)
	}
	return r.finalizeFailure(ctx, logger, task, res)
}

// finalizePending откладывает задачу, не закрывая её.
func (r *Reporter) finalizePending(ctx context.Context, logger *slog.Logger, task *domain.Task, res domain.ActionResult) error {
	delay := r.pendingDelay
	if res.RetryAfter > 0 {
		delay = time.Duration(res.RetryAfter) * time.Second
	}

	// Провайдер принял заказ — сохраняем его идентификатор сразу,
	// чтобы reconciler начал опрашивать статус.
	r.attachProviderOrder(ctx, logger, task, res)

	if err := r.tasks.DelayReclaim(ctx, task.ID, delay); err != nil {
		return fmt.Errorf("delay pending task: %w", err)
	}

	telemetry.TasksFinalized.WithLabelValues("pending").Inc()
	logger.Info("task pending",
		"action", task.Action,
		"provider_task_id", res.ProviderTaskID,
		"delay", delay,
	)
	return nil
}

// finalizeSuccess закрывает задачу и списывает квоту одной транзакцией.
func (r *Reporter) finalizeSuccess(ctx context.Context, logger *slog.Logger, task *domain.Task, res domain.ActionResult) error {
	ev := r.buildEvent(task, res)

	err := r.results.FinalizeSuccess(ctx, task, res.Units(), ev)
	if errors.Is(err, repo.ErrAlreadyFinalized) {
		// Повторное выполнение после истёкшего lease: квота уже
		// списана первым финализатором.
		logger.Debug("task already finalized, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize success: %w", err)
	}

	r.attachProviderOrder(ctx, logger, task, res)
	r.publishEvent(ctx, logger, ev)

	telemetry.TasksFinalized.WithLabelValues("done").Inc()
	logger.Info("task done",
		"action", task.Action,
		"subject_type", task.SubjectType,
		"subject_id", task.SubjectID,
		"attempt", task.Attempts,
	)
	return nil
}

// finalizeFailure — retry при остатке бюджета, иначе терминальный failed.
func (r *Reporter) finalizeFailure(ctx context.Context, logger *slog.Logger, task *domain.Task, res domain.ActionResult) error {
	if task.CanRetry(r.maxAttempts) {
		var delay time.Duration
		if res.RetryAfter > 0 {
			delay = time.Duration(res.RetryAfter) * time.Second
		}

		if err := r.tasks.Requeue(ctx, task.ID, res.Error, delay); err != nil {
			return fmt.Errorf("requeue task: %w", err)
		}

		telemetry.TasksFinalized.WithLabelValues("requeued").Inc()
		logger.Warn("task failed, requeued",
			"action", task.Action,
			"attempt", task.Attempts,
			"error", res.Error,
		)
		return nil
	}

	ev := r.buildEvent(task, res)

	err := r.results.FinalizeFailure(ctx, task, res.Error, ev)
	if errors.Is(err, repo.ErrAlreadyFinalized) {
		logger.Debug("task already finalized, skipping")
		return nil
	}
	if err != nil {
		return fmt.Errorf("finalize failure: %w", err)
	}

	r.publishEvent(ctx, logger, ev)

	telemetry.TasksFinalized.WithLabelValues("failed").Inc()
	logger.Warn("task failed permanently",
		"action", task.Action,
		"attempt", task.Attempts,
		"error", res.Error,
	)
	return nil
}

// attachProviderOrder сохраняет идентификатор заказа у провайдера.
// Идемпотентно: guard на пустой provider_order_id в репозитории.
func (r *Reporter) attachProviderOrder(ctx context.Context, logger *slog.Logger, task *domain.Task, res domain.ActionResult) {
	if task.Action != domain.ActionProviderSubmit ||
		task.SubjectType != domain.SubjectOrder ||
		res.ProviderTaskID == "" {
		return
	}
	if err := r.orders.AttachProviderOrder(ctx, task.SubjectID, res.ProviderTaskID); err != nil {
		logger.Warn("failed to attach provider order id",
			"order_id", task.SubjectID,
			"provider_order_id", res.ProviderTaskID,
			"error", err,
		)
	}
}

// buildEvent собирает запись журнала результатов.
func (r *Reporter) buildEvent(task *domain.Task, res domain.ActionResult) *domain.ResultEvent {
	return &domain.ResultEvent{
		ID:          uuid.New(),
		SubjectType: task.SubjectType,
		SubjectID:   task.SubjectID,
		AccountID:   res.AccountID,
		Action:      task.Action,
		LinkHash:    domain.HashLink(task.Payload.Link),
		OK:          res.OK,
		Error:       res.Error,
		PerCall:     res.Units(),
		RetryAfter:  res.RetryAfter,
		PerformedAt: time.Now().UTC(),
	}
}

// publishEvent шлёт событие в MQ-фид.
// Не фатально: журнал в БД уже записан, фид догонит из него.
func (r *Reporter) publishEvent(ctx context.Context, logger *slog.Logger, ev *domain.ResultEvent) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishResultEvent(ctx, ev); err != nil {
		logger.Warn("failed to publish result event", "event_id", ev.ID, "error", err)
	}
}
