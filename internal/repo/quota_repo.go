package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Boostgram/internal/domain"
)

const quotaColumns = `id, link, service_id, action, quantity_left, orders_left,
	expires_at, auto_renew, next_due_at, created_at`

// QuotaRepo — репозиторий для работы с quotas.
//
// Списание quantity_left выполняется не здесь, а в транзакции
// финализации (ResultRepo) — вместе с переходом задачи в done.
type QuotaRepo struct {
	pool *pgxpool.Pool
}

// NewQuotaRepo создаёт новый QuotaRepo.
func NewQuotaRepo(pool *pgxpool.Pool) *QuotaRepo {
	return &QuotaRepo{pool: pool}
}

// ListDue возвращает активные квоты, по которым пора создать задачу:
// остаток положителен, период не истёк, next_due_at наступил.
func (r *QuotaRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Quota, error) {
	query := `
		SELECT ` + quotaColumns + `
		FROM quotas
		WHERE quantity_left > 0
		  AND expires_at > $1
		  AND next_due_at <= $1
		ORDER BY next_due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due quotas: %w", err)
	}
	defer rows.Close()

	var quotas []domain.Quota
	for rows.Next() {
		quota, err := scanQuota(rows)
		if err != nil {
			return nil, err
		}
		quotas = append(quotas, *quota)
	}
	return quotas, rows.Err()
}

// BumpNextDue сдвигает next_due_at — пейсинг генерации.
func (r *QuotaRepo) BumpNextDue(ctx context.Context, id uuid.UUID, next time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE quotas SET next_due_at = $2 WHERE id = $1`, id, next)
	if err != nil {
		return fmt.Errorf("bump next_due_at: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// RenewExpired продлевает истёкшие auto-renew квоты на period вперёд,
// списывая одно продление из orders_left. Возвращает число продлённых.
//
// Guard orders_left > 0 держит инвариант orders_left >= 0.
func (r *QuotaRepo) RenewExpired(ctx context.Context, now time.Time, period time.Duration, limit int) (int, error) {
	query := `
		UPDATE quotas SET
			expires_at = $1 + $2,
			orders_left = orders_left - 1,
			next_due_at = $1
		FROM (
			SELECT id FROM quotas
			WHERE auto_renew = true
			  AND orders_left > 0
			  AND expires_at <= $1
			LIMIT $3
			FOR UPDATE SKIP LOCKED
		) AS renewable
		WHERE quotas.id = renewable.id
	`
	tag, err := r.pool.Exec(ctx, query, now, period, limit)
	if err != nil {
		return 0, fmt.Errorf("renew quotas: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanQuota читает квоту из строки результата (порядок — quotaColumns).
func scanQuota(row pgx.Row) (*domain.Quota, error) {
	var quota domain.Quota

	err := row.Scan(
		&quota.ID,
		&quota.Link,
		&quota.ServiceID,
		&quota.Action,
		&quota.QuantityLeft,
		&quota.OrdersLeft,
		&quota.ExpiresAt,
		&quota.AutoRenew,
		&quota.NextDueAt,
		&quota.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &quota, nil
}
