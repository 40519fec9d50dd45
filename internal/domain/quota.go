package domain

import (
	"time"

	"github.com/google/uuid"
)

// Quota — остаток услуг, которые подписка ещё должна выдать цели.
//
// Инвариант: QuantityLeft >= 0 и OrdersLeft >= 0 всегда.
// Списание выполняется ровно один раз на успешно отчитанную задачу —
// ключом идемпотентности служит переход самой задачи в done.
type Quota struct {
	// ID — уникальный идентификатор квоты.
	ID uuid.UUID `json:"id"`

	// Link — целевая ссылка (канал, пост).
	Link string `json:"link"`

	// ServiceID — услуга, по которой выдана квота.
	ServiceID int64 `json:"service_id"`

	// Action — тип действия услуги (денормализовано из справочника услуг,
	// чтобы генератор не делал join).
	Action Action `json:"action"`

	// QuantityLeft — сколько единиц действия осталось выдать.
	QuantityLeft int `json:"quantity_left"`

	// OrdersLeft — сколько продлений осталось у подписки.
	OrdersLeft int `json:"orders_left"`

	// ExpiresAt — срок действия текущего периода.
	ExpiresAt time.Time `json:"expires_at"`

	// AutoRenew — продлевать ли период автоматически,
	// пока OrdersLeft > 0.
	AutoRenew bool `json:"auto_renew"`

	// NextDueAt — когда генератору пора создать следующую задачу.
	// Пейсинг выдачи: задачи создаются порциями, а не все сразу.
	NextDueAt time.Time `json:"next_due_at"`

	// CreatedAt — время покупки/создания.
	CreatedAt time.Time `json:"created_at"`
}
