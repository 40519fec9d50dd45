package generator

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/repo"
	"github.com/shaiso/Boostgram/internal/telemetry"
)

// Значения по умолчанию.
const (
	defaultLimit         = 100
	defaultQuotaInterval = 2 * time.Minute
	defaultRenewPeriod   = 30 * 24 * time.Hour
)

// Узкие интерфейсы источников: генератору нужны только сканы и вставка.
type taskCreator interface {
	CreateIfAbsent(ctx context.Context, task *domain.Task) (bool, error)
}

type orderSource interface {
	ListAwaitingSubmit(ctx context.Context, limit int) ([]domain.Order, error)
}

type quotaSource interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Quota, error)
	BumpNextDue(ctx context.Context, id uuid.UUID, next time.Time) error
	RenewExpired(ctx context.Context, now time.Time, period time.Duration, limit int) (int, error)
}

type unsubSource interface {
	ListDue(ctx context.Context, now time.Time, limit int) ([]repo.UnsubCandidate, error)
}

// Generator превращает оплаченные сущности в задачи очереди.
//
// Источники: заказы без provider_order_id, квоты с наступившим
// next_due_at и кандидаты на отписку. Дедупликация — на уровне БД:
// CreateIfAbsent не создаёт вторую активную задачу для той же пары
// (subject, action), поэтому проход идемпотентен и безопасен
// при перекрытии расписаний.
type Generator struct {
	tasks  taskCreator
	orders orderSource
	quotas quotaSource
	unsubs unsubSource

	limit         int
	quotaInterval time.Duration
	renewPeriod   time.Duration
	logger        *slog.Logger
}

// Config — конфигурация Generator.
type Config struct {
	TaskRepo  taskCreator
	OrderRepo orderSource
	QuotaRepo quotaSource
	UnsubRepo unsubSource

	// Limit — максимум новых задач за проход, суммарно по всем
	// источникам (default: 100).
	Limit int

	// QuotaInterval — шаг пейсинга квот: следующая задача по квоте
	// ставится не раньше, чем через интервал (default: 2m).
	QuotaInterval time.Duration

	// RenewPeriod — срок, на который продлевается квота при
	// автопродлении (default: 720h).
	RenewPeriod time.Duration

	Logger *slog.Logger
}

// New создаёт новый Generator.
func New(cfg Config) *Generator {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultLimit
	}

	quotaInterval := cfg.QuotaInterval
	if quotaInterval <= 0 {
		quotaInterval = defaultQuotaInterval
	}

	renewPeriod := cfg.RenewPeriod
	if renewPeriod <= 0 {
		renewPeriod = defaultRenewPeriod
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Generator{
		tasks:         cfg.TaskRepo,
		orders:        cfg.OrderRepo,
		quotas:        cfg.QuotaRepo,
		unsubs:        cfg.UnsubRepo,
		limit:         limit,
		quotaInterval: quotaInterval,
		renewPeriod:   renewPeriod,
		logger:        logger,
	}
}

// Generate выполняет один проход по всем источникам.
// Возвращает число созданных задач — не больше Limit суммарно:
// бюджет общий, каждый источник получает остаток предыдущих.
func (g *Generator) Generate(ctx context.Context) (int, error) {
	now := time.Now().UTC()
	total := 0

	created, err := g.generateOrders(ctx, g.limit-total)
	total += created
	if err != nil {
		return total, err
	}

	if total < g.limit {
		created, err = g.generateQuotas(ctx, now, g.limit-total)
		total += created
		if err != nil {
			return total, err
		}
	}

	if total < g.limit {
		created, err = g.generateUnsubscribes(ctx, now, g.limit-total)
		total += created
		if err != nil {
			return total, err
		}
	}

	if total > 0 {
		g.logger.Info("generated tasks", "count", total)
	}
	return total, nil
}

// generateOrders ставит задачи отправки для неотправленных заказов.
func (g *Generator) generateOrders(ctx context.Context, budget int) (int, error) {
	orders, err := g.orders.ListAwaitingSubmit(ctx, budget)
	if err != nil {
		return 0, fmt.Errorf("list awaiting orders: %w", err)
	}

	created := 0
	for i := range orders {
		if created >= budget {
			break
		}
		o := &orders[i]
		task := domain.NewTask(domain.SubjectOrder, o.ID, domain.ActionProviderSubmit, domain.TaskPayload{
			Link:      o.Link,
			ServiceID: o.ServiceID,
			Quantity:  o.Quantity,
		})

		ok, err := g.tasks.CreateIfAbsent(ctx, task)
		if err != nil {
			return created, fmt.Errorf("create order task: %w", err)
		}
		if ok {
			created++
			telemetry.TasksGenerated.WithLabelValues("order").Inc()
		}
	}
	return created, nil
}

// generateQuotas ставит по одной задаче на каждую квоту с наступившим
// next_due_at и сдвигает next_due_at на шаг пейсинга.
func (g *Generator) generateQuotas(ctx context.Context, now time.Time, budget int) (int, error) {
	quotas, err := g.quotas.ListDue(ctx, now, budget)
	if err != nil {
		return 0, fmt.Errorf("list due quotas: %w", err)
	}

	created := 0
	for i := range quotas {
		if created >= budget {
			break
		}
		q := &quotas[i]
		task := domain.NewTask(domain.SubjectQuota, q.ID, q.Action, quotaPayload(q))

		ok, err := g.tasks.CreateIfAbsent(ctx, task)
		if err != nil {
			return created, fmt.Errorf("create quota task: %w", err)
		}
		if ok {
			created++
			telemetry.TasksGenerated.WithLabelValues("quota").Inc()
			telemetry.WithQuotaID(g.logger, q.ID.String()).Debug("quota task created",
				"action", q.Action,
				"quantity_left", q.QuantityLeft,
			)
		}

		// Сдвигаем даже при дубликате: активная задача уже есть,
		// и раньше её завершения новая всё равно не создастся.
		if err := g.quotas.BumpNextDue(ctx, q.ID, now.Add(g.quotaInterval)); err != nil {
			return created, fmt.Errorf("bump quota next_due_at: %w", err)
		}
	}
	return created, nil
}

// generateUnsubscribes ставит задачи отписки для кандидатов с
// наступившим due_at.
func (g *Generator) generateUnsubscribes(ctx context.Context, now time.Time, budget int) (int, error) {
	candidates, err := g.unsubs.ListDue(ctx, now, budget)
	if err != nil {
		return 0, fmt.Errorf("list due unsubscribes: %w", err)
	}

	created := 0
	for i := range candidates {
		if created >= budget {
			break
		}
		c := &candidates[i]
		task := domain.NewTask(domain.SubjectUnsubscribe, c.ID, domain.ActionUnsubscribe, domain.TaskPayload{
			Link:   c.Link,
			Parsed: domain.ParseLink(c.Link),
		})

		ok, err := g.tasks.CreateIfAbsent(ctx, task)
		if err != nil {
			return created, fmt.Errorf("create unsubscribe task: %w", err)
		}
		if ok {
			created++
			telemetry.TasksGenerated.WithLabelValues("unsubscribe").Inc()
		}
	}
	return created, nil
}

// RenewQuotas продлевает истёкшие квоты с автопродлением.
// Возвращает число продлённых.
func (g *Generator) RenewQuotas(ctx context.Context) (int, error) {
	renewed, err := g.quotas.RenewExpired(ctx, time.Now().UTC(), g.renewPeriod, g.limit)
	if err != nil {
		return 0, fmt.Errorf("renew quotas: %w", err)
	}
	if renewed > 0 {
		g.logger.Info("renewed quotas", "count", renewed)
	}
	return renewed, nil
}

// quotaPayload собирает payload задачи по квоте.
func quotaPayload(q *domain.Quota) domain.TaskPayload {
	return domain.TaskPayload{
		Link:      q.Link,
		Parsed:    domain.ParseLink(q.Link),
		ServiceID: q.ServiceID,
	}
}
