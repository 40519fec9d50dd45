package domain

import (
	"time"

	"github.com/google/uuid"
)

// Order — заказ, исполняемый внешним fulfillment-провайдером.
//
// Статус пишут два независимых пути: webhook-обработчик (внешний, push)
// и ProviderReconciler (pull). Решётка OrderStatus гарантирует,
// что ни один из них не откатит терминальное состояние.
type Order struct {
	// ID — уникальный идентификатор заказа.
	ID uuid.UUID `json:"id"`

	// Status — текущий статус по решётке OrderStatus.
	Status OrderStatus `json:"status"`

	// Link — целевая ссылка заказа.
	Link string `json:"link"`

	// ServiceID и Quantity — параметры услуги.
	ServiceID int64 `json:"service_id"`
	Quantity  int   `json:"quantity"`

	// ProviderOrderID — идентификатор заказа у провайдера.
	// Пустой, пока заказ не отправлен.
	ProviderOrderID string `json:"provider_order_id,omitempty"`

	// ProviderWebhookReceivedAt — время последнего webhook от провайдера.
	ProviderWebhookReceivedAt *time.Time `json:"provider_webhook_received_at,omitempty"`

	// ProviderLastPolledAt — время последнего poll-запроса статуса.
	// Обновляется до запроса, чтобы интервал соблюдался и при ошибке.
	ProviderLastPolledAt *time.Time `json:"provider_last_polled_at,omitempty"`

	// CreatedAt — время покупки.
	CreatedAt time.Time `json:"created_at"`
}

// Submitted возвращает true, если заказ уже отправлен провайдеру.
func (o *Order) Submitted() bool {
	return o.ProviderOrderID != ""
}
