package domain

// TaskStatus — статус задачи в pull-очереди.
//
// Жизненный цикл:
//
//	pending → leased → done
//	                 ↘ pending (retry, если attempts < max)
//	                 ↘ failed  (attempts исчерпаны)
//
// Просроченный lease (lease_expires_at в прошлом) эквивалентен pending
// с точки зрения claim — это механизм восстановления после падения воркера.
type TaskStatus string

const (
	// TaskStatusPending — задача ожидает воркера.
	TaskStatusPending TaskStatus = "pending"

	// TaskStatusLeased — задача захвачена воркером (lease активен или просрочен).
	TaskStatusLeased TaskStatus = "leased"

	// TaskStatusDone — задача успешно выполнена и отчитана.
	TaskStatusDone TaskStatus = "done"

	// TaskStatusFailed — все попытки исчерпаны, last_error заполнен.
	TaskStatusFailed TaskStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
// Финальные задачи не удаляются — хранятся для аудита.
func (s TaskStatus) IsTerminal() bool {
	switch s {
	case TaskStatusDone, TaskStatusFailed:
		return true
	default:
		return false
	}
}

// OrderStatus — статус заказа у провайдера.
//
// Решётка переходов (только вперёд):
//
//	awaiting → pending → processing → in_progress → partial
//	                                              ↘ completed
//	                                              ↘ canceled
//	                                              ↘ fail
//
// Терминальный статус не регрессирует ни по webhook-, ни по poll-пути.
type OrderStatus string

const (
	OrderStatusAwaiting   OrderStatus = "awaiting"
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusPartial    OrderStatus = "partial"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCanceled   OrderStatus = "canceled"
	OrderStatusFail       OrderStatus = "fail"
)

// orderStatusRank — позиция статуса в решётке.
// Терминальные статусы имеют одинаковый максимальный ранг.
var orderStatusRank = map[OrderStatus]int{
	OrderStatusAwaiting:   0,
	OrderStatusPending:    1,
	OrderStatusProcessing: 2,
	OrderStatusInProgress: 3,
	OrderStatusPartial:    4,
	OrderStatusCompleted:  4,
	OrderStatusCanceled:   4,
	OrderStatusFail:       4,
}

// IsTerminal возвращает true, если статус заказа финальный.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusPartial, OrderStatusCompleted, OrderStatusCanceled, OrderStatusFail:
		return true
	default:
		return false
	}
}

// IsValid проверяет, что строка является известным статусом заказа.
func (s OrderStatus) IsValid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// MergeOrderStatus детерминированно объединяет текущий статус заказа
// с пришедшим извне (webhook или poll).
//
// Правила:
//   - терминальный текущий статус не меняется никогда;
//   - неизвестный пришедший статус игнорируется;
//   - переход возможен только вперёд по решётке.
func MergeOrderStatus(current, incoming OrderStatus) OrderStatus {
	if current.IsTerminal() {
		return current
	}
	if !incoming.IsValid() {
		return current
	}
	if orderStatusRank[incoming] > orderStatusRank[current] {
		return incoming
	}
	return current
}

// ResultState — каноническое состояние результата провайдера или executor'а.
type ResultState string

const (
	// StatePending — провайдер принял работу, но ещё не выполнил её.
	// Никогда не считается успехом: квота не списывается, задача не закрывается.
	StatePending ResultState = "pending"

	// StateDone — попытка завершена (успешно или нет — смотри OK).
	StateDone ResultState = "done"

	// StateFailed — провайдер явно сообщил об ошибке.
	StateFailed ResultState = "failed"
)
