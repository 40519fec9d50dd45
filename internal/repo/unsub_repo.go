package repo

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnsubCandidate — аккаунт, которому пора отписаться от цели.
// Строки создаёт внешний процесс продаж (гарантийный срок подписки истёк).
type UnsubCandidate struct {
	ID        uuid.UUID
	AccountID int64
	Link      string
	DueAt     time.Time
	Done      bool
}

// UnsubRepo — репозиторий для кандидатов на отписку.
type UnsubRepo struct {
	pool *pgxpool.Pool
}

// NewUnsubRepo создаёт новый UnsubRepo.
func NewUnsubRepo(pool *pgxpool.Pool) *UnsubRepo {
	return &UnsubRepo{pool: pool}
}

// ListDue возвращает кандидатов с наступившим due_at.
func (r *UnsubRepo) ListDue(ctx context.Context, now time.Time, limit int) ([]UnsubCandidate, error) {
	query := `
		SELECT id, account_id, link, due_at, done
		FROM unsubscribe_queue
		WHERE done = false AND due_at <= $1
		ORDER BY due_at ASC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list due unsubscribes: %w", err)
	}
	defer rows.Close()

	var out []UnsubCandidate
	for rows.Next() {
		var c UnsubCandidate
		if err := rows.Scan(&c.ID, &c.AccountID, &c.Link, &c.DueAt, &c.Done); err != nil {
			return nil, fmt.Errorf("scan unsubscribe candidate: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// markUnsubDoneTx помечает кандидата выполненным внутри транзакции финализации.
func markUnsubDoneTx(ctx context.Context, tx txExecer, id uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE unsubscribe_queue SET done = true WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark unsubscribe done: %w", err)
	}
	return nil
}
