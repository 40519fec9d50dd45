package repo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Boostgram/internal/domain"
)

// taskColumns — список колонок tasks для SELECT/RETURNING.
const taskColumns = `id, subject_type, subject_id, action, payload, status,
	leased_by, lease_expires_at, attempts, last_error, created_at`

// TaskRepo — репозиторий для работы с tasks.
//
// Claim — единственная точка межпроцессной координации всей системы:
// атомарный захват батча задач под TTL-lease.
type TaskRepo struct {
	pool *pgxpool.Pool
}

// NewTaskRepo создаёт новый TaskRepo.
func NewTaskRepo(pool *pgxpool.Pool) *TaskRepo {
	return &TaskRepo{pool: pool}
}

// CreateIfAbsent создаёт задачу, если для пары (subject, action)
// нет активной (pending/leased) задачи. Возвращает true, если строка
// вставлена. Делает генерацию идемпотентной при повторных запусках.
func (r *TaskRepo) CreateIfAbsent(ctx context.Context, task *domain.Task) (bool, error) {
	payloadJSON, err := json.Marshal(task.Payload)
	if err != nil {
		return false, fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO tasks (id, subject_type, subject_id, action, payload, status, attempts, created_at)
		SELECT $1, $2, $3, $4, $5, $6, 0, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM tasks
			WHERE subject_type = $2 AND subject_id = $3 AND action = $4
			  AND status IN ('pending', 'leased')
		)
	`
	tag, err := r.pool.Exec(ctx, query,
		task.ID,
		task.SubjectType,
		task.SubjectID,
		task.Action,
		payloadJSON,
		domain.TaskStatusPending,
		task.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("insert task: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// Claim атомарно захватывает до limit задач под lease воркера.
//
// Кандидаты: status=pending либо просроченный lease. Выбор и захват —
// одно UPDATE со вложенным SELECT ... FOR UPDATE SKIP LOCKED, поэтому
// два конкурентных claim никогда не получат одну и ту же задачу.
// Attempts инкрементируется при каждом захвате.
func (r *TaskRepo) Claim(ctx context.Context, workerID string, limit int, leaseTTL time.Duration) ([]domain.Task, error) {
	query := `
		UPDATE tasks SET
			status = 'leased',
			leased_by = $1,
			lease_expires_at = now() + $2,
			attempts = attempts + 1
		FROM (
			SELECT id FROM tasks
			WHERE status = 'pending'
			   OR (status = 'leased' AND lease_expires_at < now())
			ORDER BY created_at ASC
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		) AS claimable
		WHERE tasks.id = claimable.id
		RETURNING ` + prefixColumns("tasks")

	rows, err := r.pool.Query(ctx, query, workerID, leaseTTL, limit)
	if err != nil {
		return nil, fmt.Errorf("claim tasks: %w", err)
	}
	defer rows.Close()

	var tasks []domain.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

// DelayReclaim сдвигает lease_expires_at вперёд, не освобождая задачу.
// Используется для retry_after от провайдера и для pending-результатов:
// задача остаётся leased, но станет доступной для claim не раньше delay.
func (r *TaskRepo) DelayReclaim(ctx context.Context, id uuid.UUID, delay time.Duration) error {
	query := `
		UPDATE tasks
		SET lease_expires_at = now() + $2
		WHERE id = $1 AND status = 'leased'
	`
	tag, err := r.pool.Exec(ctx, query, id, delay)
	if err != nil {
		return fmt.Errorf("delay reclaim: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// Requeue возвращает неуспешную задачу в очередь.
//
// При delay > 0 задача остаётся leased с отодвинутым lease_expires_at —
// станет claimable после паузы. При delay = 0 — сразу pending.
func (r *TaskRepo) Requeue(ctx context.Context, id uuid.UUID, lastError string, delay time.Duration) error {
	var query string
	var args []any
	if delay > 0 {
		query = `
			UPDATE tasks
			SET lease_expires_at = now() + $2, last_error = $3
			WHERE id = $1 AND status = 'leased'
		`
		args = []any{id, delay, lastError}
	} else {
		query = `
			UPDATE tasks
			SET status = 'pending', leased_by = '', lease_expires_at = NULL, last_error = $2
			WHERE id = $1 AND status = 'leased'
		`
		args = []any{id, lastError}
	}

	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("requeue task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// CountByStatus возвращает количество задач в статусе.
func (r *TaskRepo) CountByStatus(ctx context.Context, status domain.TaskStatus) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status = $1`, status,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

// --- Helpers ---

// prefixColumns возвращает taskColumns с префиксом таблицы
// (для RETURNING в UPDATE ... FROM).
func prefixColumns(table string) string {
	return table + ".id, " + table + ".subject_type, " + table + ".subject_id, " +
		table + ".action, " + table + ".payload, " + table + ".status, " +
		table + ".leased_by, " + table + ".lease_expires_at, " +
		table + ".attempts, " + table + ".last_error, " + table + ".created_at"
}

// scanTask читает задачу из строки результата (порядок — taskColumns).
func scanTask(row pgx.Row) (*domain.Task, error) {
	var task domain.Task
	var payloadJSON []byte
	var leasedBy, lastError *string

	err := row.Scan(
		&task.ID,
		&task.SubjectType,
		&task.SubjectID,
		&task.Action,
		&payloadJSON,
		&task.Status,
		&leasedBy,
		&task.LeaseExpiresAt,
		&task.Attempts,
		&lastError,
		&task.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if payloadJSON != nil {
		if err := json.Unmarshal(payloadJSON, &task.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
	}
	if leasedBy != nil {
		task.LeasedBy = *leasedBy
	}
	if lastError != nil {
		task.LastError = *lastError
	}

	return &task, nil
}
