package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubjectType — тип сущности, породившей задачу.
type SubjectType string

const (
	// SubjectOrder — задача создана для заказа (отправка провайдеру).
	SubjectOrder SubjectType = "order"

	// SubjectQuota — задача создана для квоты подписки.
	SubjectQuota SubjectType = "quota"

	// SubjectUnsubscribe — задача создана для кандидата на отписку.
	SubjectUnsubscribe SubjectType = "unsubscribe"
)

// Task — единица работы в pull-очереди.
//
// Создаётся генератором, захватывается воркером через атомарный claim,
// финализируется репортёром. Никогда не удаляется: done/failed
// остаются для аудита.
//
// Инвариант: в любой момент валидный lease (status=leased и
// lease_expires_at в будущем) держит не более одного воркера.
type Task struct {
	// ID — уникальный идентификатор задачи.
	ID uuid.UUID `json:"id"`

	// SubjectType и SubjectID — сущность, ради которой создана задача.
	// Пара (subject, action) уникальна среди активных задач.
	SubjectType SubjectType `json:"subject_type"`
	SubjectID   uuid.UUID   `json:"subject_id"`

	// Action — тип действия.
	Action Action `json:"action"`

	// Payload — входные данные действия.
	Payload TaskPayload `json:"payload"`

	// Status — текущий статус.
	Status TaskStatus `json:"status"`

	// LeasedBy — идентификатор воркера, держащего lease.
	LeasedBy string `json:"leased_by,omitempty"`

	// LeaseExpiresAt — момент, после которого lease считается просроченным
	// и задача снова доступна для claim.
	LeaseExpiresAt *time.Time `json:"lease_expires_at,omitempty"`

	// Attempts — число попыток. Монотонно растёт: инкремент при каждом claim.
	Attempts int `json:"attempts"`

	// LastError — текст последней ошибки.
	LastError string `json:"last_error,omitempty"`

	// CreatedAt — время создания задачи.
	CreatedAt time.Time `json:"created_at"`
}

// NewTask создаёт pending-задачу для пары (subject, action).
func NewTask(subjectType SubjectType, subjectID uuid.UUID, action Action, payload TaskPayload) *Task {
	return &Task{
		ID:          uuid.New(),
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Action:      action,
		Payload:     payload,
		Status:      TaskStatusPending,
		CreatedAt:   time.Now().UTC(),
	}
}

// LeaseValid возвращает true, если lease задачи ещё действует.
func (t *Task) LeaseValid(now time.Time) bool {
	return t.Status == TaskStatusLeased &&
		t.LeaseExpiresAt != nil &&
		t.LeaseExpiresAt.After(now)
}

// CanRetry проверяет, остались ли попытки.
func (t *Task) CanRetry(maxAttempts int) bool {
	return t.Attempts < maxAttempts
}
