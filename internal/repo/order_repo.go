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

const orderColumns = `id, status, link, service_id, quantity, provider_order_id,
	provider_webhook_received_at, provider_last_polled_at, created_at`

// OrderRepo — репозиторий для работы с orders.
type OrderRepo struct {
	pool *pgxpool.Pool
}

// NewOrderRepo создаёт новый OrderRepo.
func NewOrderRepo(pool *pgxpool.Pool) *OrderRepo {
	return &OrderRepo{pool: pool}
}

// ListAwaitingSubmit возвращает заказы, готовые к отправке провайдеру:
// status=awaiting и провайдеру ещё не отправлялись.
func (r *OrderRepo) ListAwaitingSubmit(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = 'awaiting'
		  AND (provider_order_id IS NULL OR provider_order_id = '')
		ORDER BY created_at ASC
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// ListUnfinished возвращает отправленные провайдеру заказы
// в нетерминальном статусе — кандидаты на poll. Давно не опрошенные
// идут первыми. Фильтр webhook-свежести и poll-интервала применяет
// reconciler (ShouldPoll).
func (r *OrderRepo) ListUnfinished(ctx context.Context, limit int) ([]domain.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status NOT IN ('partial', 'completed', 'canceled', 'fail')
		  AND provider_order_id IS NOT NULL AND provider_order_id <> ''
		ORDER BY provider_last_polled_at ASC NULLS FIRST
		LIMIT $1
	`
	return r.list(ctx, query, limit)
}

// AttachProviderOrder записывает идентификатор заказа у провайдера
// и продвигает awaiting → pending. Guard на пустой provider_order_id
// делает операцию идемпотентной при повторном finalize.
func (r *OrderRepo) AttachProviderOrder(ctx context.Context, id uuid.UUID, providerOrderID string) error {
	query := `
		UPDATE orders
		SET provider_order_id = $2,
		    status = CASE WHEN status = 'awaiting' THEN 'pending' ELSE status END
		WHERE id = $1
		  AND (provider_order_id IS NULL OR provider_order_id = '')
	`
	_, err := r.pool.Exec(ctx, query, id, providerOrderID)
	if err != nil {
		return fmt.Errorf("attach provider order: %w", err)
	}
	return nil
}

// MarkPolled обновляет provider_last_polled_at.
// Вызывается до запроса статуса — poll-интервал действует и при ошибке.
func (r *OrderRepo) MarkPolled(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE orders SET provider_last_polled_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("mark polled: %w", err)
	}
	return nil
}

// UpdateStatus переводит заказ из expected в next.
// Оптимистичный guard по текущему статусу: если webhook успел обновить
// заказ между чтением и записью, запись просто не применяется.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expected, next domain.OrderStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`,
		id, expected, next)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// --- Helpers ---

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []domain.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, rows.Err()
}

// scanOrder читает заказ из строки результата (порядок — orderColumns).
func scanOrder(row pgx.Row) (*domain.Order, error) {
	var order domain.Order
	var providerOrderID *string

	err := row.Scan(
		&order.ID,
		&order.Status,
		&order.Link,
		&order.ServiceID,
		&order.Quantity,
		&providerOrderID,
		&order.ProviderWebhookReceivedAt,
		&order.ProviderLastPolledAt,
		&order.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if providerOrderID != nil {
		order.ProviderOrderID = *providerOrderID
	}
	return &order, nil
}
