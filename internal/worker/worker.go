package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/session"
	"github.com/shaiso/Boostgram/internal/telemetry"
)

// Значения конфигурации по умолчанию.
const (
	defaultBatchLimit = 20
	defaultLeaseTTL   = 5 * time.Minute
	defaultIdleSleep  = 5 * time.Second
)

// Worker — цикл выполнения задач.
//
// Каждый экземпляр (процесс или горутина) владеет своим батчем:
// захватывает задачи через атомарный claim, выполняет через реестр
// executor'ов и отдаёт результат репортёру. Никакой координации
// между воркерами, кроме claim, нет — масштабируются горизонтально.
type Worker struct {
	tasks    *repo.TaskRepo
	registry *Registry
	reporter *Reporter
	sessions session.Pool

	workerID   string
	batchLimit int
	leaseTTL   time.Duration
	idleSleep  time.Duration
	logger     *slog.Logger
}

// Config — конфигурация Worker.
type Config struct {
	TaskRepo *repo.TaskRepo
	Registry *Registry
	Reporter *Reporter

	// Sessions — пул автоматизационных аккаунтов.
	Sessions session.Pool

	// WorkerID — идентификатор воркера для leased_by.
	// Пустой — генерируется из hostname и случайного суффикса.
	WorkerID string

	// BatchLimit — максимум задач за один claim (default: 20).
	BatchLimit int

	// LeaseTTL — срок lease; упавший воркер теряет задачи через TTL
	// (default: 5m).
	LeaseTTL time.Duration

	// IdleSleep — пауза при пустом батче, защита от busy-poll
	// (default: 5s).
	IdleSleep time.Duration

	Logger *slog.Logger
}

// New создаёт новый Worker.
func New(cfg Config) *Worker {
	workerID := cfg.WorkerID
	if workerID == "" {
		host, _ := os.Hostname()
		workerID = fmt.Sprintf("%s-%s", host, uuid.New().String()[:8])
	}

	batchLimit := cfg.BatchLimit
	if batchLimit <= 0 {
		batchLimit = defaultBatchLimit
	}

	leaseTTL := cfg.LeaseTTL
	if leaseTTL <= 0 {
		leaseTTL = defaultLeaseTTL
	}

	idleSleep := cfg.IdleSleep
	if idleSleep <= 0 {
		idleSleep = defaultIdleSleep
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		tasks:      cfg.TaskRepo,
		registry:   cfg.Registry,
		reporter:   cfg.Reporter,
		sessions:   cfg.Sessions,
		workerID:   workerID,
		batchLimit: batchLimit,
		leaseTTL:   leaseTTL,
		idleSleep:  idleSleep,
		logger:     logger.With("worker_id", workerID),
	}
}

// WorkerID возвращает идентификатор воркера.
func (w *Worker) WorkerID() string {
	return w.workerID
}

// Run крутит цикл до отмены контекста.
//
// Пустой батч — пауза IdleSleep вместо busy-poll. Прерывание
// не портит in-flight lease: недоделанные задачи просто истекут
// и будут перезахвачены.
func (w *Worker) Run(ctx context.Context) error {
	w.logger.Info("worker started",
		"batch_limit", w.batchLimit,
		"lease_ttl", w.leaseTTL,
	)

	for {
		processed, err := w.RunOnce(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			w.logger.Error("work batch failed", "error", err)
		}

		if processed == 0 {
			select {
			case <-ctx.Done():
			case <-time.After(w.idleSleep):
			}
		}

		if ctx.Err() != nil {
			break
		}
	}

	w.logger.Info("worker stopped")
	return nil
}

// RunOnce захватывает и обрабатывает один батч.
// Возвращает число обработанных задач.
func (w *Worker) RunOnce(ctx context.Context) (int, error) {
	tasks, err := w.tasks.Claim(ctx, w.workerID, w.batchLimit, w.leaseTTL)
	if err != nil {
		return 0, fmt.Errorf("claim batch: %w", err)
	}

	if len(tasks) == 0 {
		return 0, nil
	}

	telemetry.TasksClaimed.Add(float64(len(tasks)))
	w.logger.Debug("claimed batch", "count", len(tasks))

	for i := range tasks {
		if ctx.Err() != nil {
			// Остаток батча перезахватят другие воркеры после TTL.
			return i, ctx.Err()
		}
		w.process(ctx, &tasks[i])
	}

	return len(tasks), nil
}

// process выполняет одну задачу и финализирует результат.
func (w *Worker) process(ctx context.Context, task *domain.Task) {
	logger := telemetry.WithTaskID(w.logger, task.ID.String())
	result := w.execute(ctx, logger, task)

	if err := w.reporter.Finalize(ctx, task, result); err != nil {
		// Финализация не удалась (БД недоступна и т.п.) —
		// lease истечёт, задача будет перезахвачена.
		logger.Error("failed to finalize task", "error", err)
	}
}

// execute диспетчеризует задачу в executor и возвращает единообразный
// результат. Ошибок наружу нет: всё сворачивается в ActionResult.
func (w *Worker) execute(ctx context.Context, logger *slog.Logger, task *domain.Task) domain.ActionResult {
	executor, err := w.registry.Get(task.Action)
	if err != nil {
		return domain.FailResult(err.Error())
	}

	var sess session.Session
	if executor.NeedsSession() {
		sess, err = w.sessions.Acquire(ctx)
		if err != nil {
			logger.Warn("failed to acquire session", "error", err)
			return domain.FailResult("acquire session: " + err.Error())
		}
		defer w.sessions.Release(ctx, sess)
	}

	started := time.Now()
	result := executor.Execute(ctx, sess, task)
	telemetry.ObserveExecution(string(task.Action), time.Since(started))

	if sess != nil {
		result.AccountID = sess.AccountID()
	}

	logger.Debug("task executed",
		"action", task.Action,
		"ok", result.OK,
		"state", result.State,
		"duration", time.Since(started),
	)
	return result
}
