package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/robfig/cron/v3"
)

// lockKey — ключ advisory lock лидерства планировщика.
const lockKey int64 = 0x626f6f7374 // "boost"

// Интервал подтверждения лидерства.
const leaderCheckInterval = 5 * time.Second

// Scheduler запускает периодические задания по cron-расписаниям.
//
// Лидерство — через pg_try_advisory_lock: из нескольких реплик
// задания выполняет только держатель лока. Session-level lock живёт
// ровно столько, сколько живёт его соединение, поэтому соединение
// держится выделенным на весь срок лидерства: вернись оно в пул,
// пул мог бы закрыть его и молча отпустить лок. При падении процесса
// лок отпускается сервером и лидером становится другая реплика.
type Scheduler struct {
	pool   *pgxpool.Pool
	cron   *cron.Cron
	logger *slog.Logger

	// isLeader читают горутины cron-заданий, пишет горутина Run.
	isLeader atomic.Bool

	// lockConn — соединение-держатель лока; только горутина Run.
	lockConn *pgxpool.Conn
}

// Job — периодическое задание.
type Job struct {
	// Name — имя для логов.
	Name string

	// Spec — cron-выражение (поддерживается формат @every).
	Spec string

	// Run — тело задания. Ошибка логируется, не прерывает расписание.
	Run func(ctx context.Context) error
}

// New создаёт новый Scheduler.
func New(pool *pgxpool.Pool, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		pool:   pool,
		cron:   cron.New(),
		logger: logger,
	}
}

// AddJob регистрирует задание. Вызывается до Run.
func (s *Scheduler) AddJob(ctx context.Context, job Job) error {
	_, err := s.cron.AddFunc(job.Spec, func() {
		s.runJob(ctx, job)
	})
	if err != nil {
		return fmt.Errorf("add job %s (%q): %w", job.Name, job.Spec, err)
	}
	return nil
}

// runJob выполняет задание, если реплика — лидер.
func (s *Scheduler) runJob(ctx context.Context, job Job) {
	if !s.isLeader.Load() {
		return
	}

	started := time.Now()
	if err := job.Run(ctx); err != nil {
		s.logger.Error("job failed",
			"job", job.Name,
			"error", err,
		)
		return
	}
	s.logger.Debug("job completed",
		"job", job.Name,
		"duration", time.Since(started),
	)
}

// Run крутит планировщик до отмены контекста.
//
// Cron тикает всегда; выполняются задания только при лидерстве,
// которое подтверждается каждые leaderCheckInterval.
func (s *Scheduler) Run(ctx context.Context) error {
	s.cron.Start()
	defer s.cron.Stop()

	defer s.releaseLeadership()

	tk := time.NewTicker(leaderCheckInterval)
	defer tk.Stop()

	s.checkLeadership(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return nil
		case <-tk.C:
			s.checkLeadership(ctx)
		}
	}
}

// checkLeadership подтверждает лидерство или пытается его взять.
func (s *Scheduler) checkLeadership(ctx context.Context) {
	if s.lockConn != nil {
		// Лок жив, пока живо его соединение.
		if err := s.lockConn.Ping(ctx); err == nil {
			return
		}
		s.logger.Warn("lock connection lost, stepping down")
		s.isLeader.Store(false)
		s.lockConn.Release()
		s.lockConn = nil
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		if ctx.Err() == nil {
			s.logger.Warn("leadership check failed", "error", err)
		}
		return
	}

	var ok bool
	if err := conn.QueryRow(ctx,
		"select pg_try_advisory_lock($1)", lockKey).Scan(&ok); err != nil {
		conn.Release()
		if ctx.Err() == nil {
			s.logger.Warn("leadership check failed", "error", err)
		}
		return
	}
	if !ok {
		conn.Release()
		return
	}

	s.lockConn = conn
	s.isLeader.Store(true)
	s.logger.Info("became scheduler leader")
}

// releaseLeadership отпускает лок и возвращает соединение в пул.
func (s *Scheduler) releaseLeadership() {
	if s.lockConn == nil {
		return
	}
	s.isLeader.Store(false)
	_, _ = s.lockConn.Exec(context.Background(),
		"select pg_advisory_unlock($1)", lockKey)
	s.lockConn.Release()
	s.lockConn = nil
}
