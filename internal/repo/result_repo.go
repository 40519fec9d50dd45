package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Boostgram/internal/domain"
)

// txExecer — минимальный интерфейс исполнителя SQL внутри транзакции.
type txExecer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// ResultRepo — транзакционная финализация задач.
//
// Переход задачи в терминальный статус, списание квоты и запись
// в журнал результатов выполняются одной транзакцией. Сам переход
// status → done/failed служит маркером идемпотентности: повторная
// финализация не находит строку в активном статусе и превращается
// в no-op (ErrAlreadyFinalized), поэтому квота не списывается дважды.
type ResultRepo struct {
	pool *pgxpool.Pool
}

// NewResultRepo создаёт новый ResultRepo.
func NewResultRepo(pool *pgxpool.Pool) *ResultRepo {
	return &ResultRepo{pool: pool}
}

// FinalizeSuccess атомарно:
//  1. переводит задачу leased/pending → done;
//  2. списывает units единиц квоты (subject_type=quota);
//  3. помечает кандидата выполненным (subject_type=unsubscribe);
//  4. добавляет запись в result_events.
//
// Если задача уже финализирована — ErrAlreadyFinalized, без побочных
// эффектов.
func (r *ResultRepo) FinalizeSuccess(ctx context.Context, task *domain.Task, units int, ev *domain.ResultEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tasks
		SET status = 'done', last_error = ''
		WHERE id = $1 AND status IN ('pending', 'leased')
	`, task.ID)
	if err != nil {
		return fmt.Errorf("mark task done: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}

	switch task.SubjectType {
	case domain.SubjectQuota:
		// GREATEST держит инвариант quantity_left >= 0 даже при гонке
		// с продлением или ручной правкой остатка.
		_, err = tx.Exec(ctx, `
			UPDATE quotas
			SET quantity_left = GREATEST(quantity_left - $2, 0)
			WHERE id = $1
		`, task.SubjectID, units)
		if err != nil {
			return fmt.Errorf("decrement quota: %w", err)
		}
	case domain.SubjectUnsubscribe:
		if err := markUnsubDoneTx(ctx, tx, task.SubjectID); err != nil {
			return err
		}
	}

	if err := insertResultEventTx(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// FinalizeFailure атомарно переводит задачу в failed с last_error
// и добавляет запись в result_events. Квота не списывается.
func (r *ResultRepo) FinalizeFailure(ctx context.Context, task *domain.Task, lastError string, ev *domain.ResultEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin finalize: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE tasks
		SET status = 'failed', last_error = $2
		WHERE id = $1 AND status IN ('pending', 'leased')
	`, task.ID, lastError)
	if err != nil {
		return fmt.Errorf("mark task failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAlreadyFinalized
	}

	if err := insertResultEventTx(ctx, tx, ev); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit finalize: %w", err)
	}
	return nil
}

// insertResultEventTx добавляет запись в журнал результатов.
func insertResultEventTx(ctx context.Context, tx txExecer, ev *domain.ResultEvent) error {
	if ev == nil {
		return nil
	}

	extraJSON, err := json.Marshal(ev.Extra)
	if err != nil {
		return fmt.Errorf("marshal event extra: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO result_events (id, subject_type, subject_id, account_id, action,
		                           link_hash, ok, error, per_call, retry_after,
		                           performed_at, extra)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`,
		ev.ID,
		ev.SubjectType,
		ev.SubjectID,
		ev.AccountID,
		ev.Action,
		ev.LinkHash,
		ev.OK,
		ev.Error,
		ev.PerCall,
		ev.RetryAfter,
		ev.PerformedAt,
		extraJSON,
	)
	if err != nil {
		return fmt.Errorf("insert result event: %w", err)
	}
	return nil
}
