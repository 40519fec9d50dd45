package domain

// Action — тип действия, которое выполняет задача.
//
// Набор закрытый: диспетчеризация идёт через реестр executor'ов,
// собираемый в одном месте (worker.NewRegistry), а не через строковый
// switch по месту использования.
type Action string

const (
	// ActionSubscribe — подписка аккаунта на канал по username.
	ActionSubscribe Action = "subscribe"

	// ActionJoin — вступление в чат/канал по invite-ссылке.
	ActionJoin Action = "join"

	// ActionReact — реакция на пост.
	ActionReact Action = "react"

	// ActionComment — комментарий под постом.
	ActionComment Action = "comment"

	// ActionView — просмотр поста.
	ActionView Action = "view"

	// ActionBotStart — запуск бота (/start с deep-link параметром).
	ActionBotStart Action = "bot_start"

	// ActionStoryReact — реакция на story.
	ActionStoryReact Action = "story_react"

	// ActionUnsubscribe — отписка аккаунта от канала.
	ActionUnsubscribe Action = "unsubscribe"

	// ActionAccountSetup — настройка аккаунта (имя, bio, аватар).
	ActionAccountSetup Action = "account_setup"

	// ActionProviderSubmit — отправка заказа внешнему провайдеру.
	ActionProviderSubmit Action = "provider_submit"
)

// Actions — полный набор действий. Используется реестром executor'ов
// для проверки полноты регистрации.
var Actions = []Action{
	ActionSubscribe,
	ActionJoin,
	ActionReact,
	ActionComment,
	ActionView,
	ActionBotStart,
	ActionStoryReact,
	ActionUnsubscribe,
	ActionAccountSetup,
	ActionProviderSubmit,
}

// TaskPayload — входные данные задачи.
//
// Общие поля — Link и Parsed; остальные заполняются по типу действия.
// Хранится в tasks.payload как JSONB.
type TaskPayload struct {
	// Link — исходная ссылка на цель (как её ввёл клиент).
	Link string `json:"link,omitempty"`

	// Parsed — нормализованные части ссылки.
	// Заполняется генератором; executor допарсивает при необходимости.
	Parsed ParsedLink `json:"parsed,omitempty"`

	// CommentText — текст комментария (action=comment).
	CommentText string `json:"comment_text,omitempty"`

	// Reaction — эмодзи реакции (action=react, story_react).
	Reaction string `json:"reaction,omitempty"`

	// Profile — данные для настройки аккаунта (action=account_setup).
	Profile *ProfileUpdate `json:"profile,omitempty"`

	// ServiceID и Quantity — параметры заказа для провайдера
	// (action=provider_submit).
	ServiceID int64 `json:"service_id,omitempty"`
	Quantity  int   `json:"quantity,omitempty"`
}

// ProfileUpdate — изменяемые поля профиля аккаунта.
type ProfileUpdate struct {
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Bio       string `json:"bio,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// ActionResult — единообразный результат выполнения задачи.
//
// Executor'ы никогда не возвращают error: любая ошибка capability-вызова
// превращается в значение {OK:false, Error:...}, чтобы у цикла воркера
// была ровно одна форма результата.
type ActionResult struct {
	// OK — успешно ли выполнено действие.
	// Для состояний pending и failed всегда false.
	OK bool `json:"ok"`

	// State — каноническое состояние попытки.
	State ResultState `json:"state"`

	// Error — текст ошибки при OK=false.
	Error string `json:"error,omitempty"`

	// ProviderTaskID — идентификатор асинхронной задачи у провайдера
	// (state=pending).
	ProviderTaskID string `json:"task_id,omitempty"`

	// RetryAfter — подсказка провайдера: минимальная задержка (сек)
	// перед следующей попыткой.
	RetryAfter int `json:"retry_after,omitempty"`

	// PerCall — сколько единиц квоты закрывает один успешный вызов.
	// 0 трактуется как 1.
	PerCall int `json:"per_call,omitempty"`

	// AccountID — аккаунт, выполнивший действие.
	// Заполняется циклом воркера после Execute.
	AccountID int64 `json:"account_id,omitempty"`
}

// OKResult — успешный результат.
func OKResult() ActionResult {
	return ActionResult{OK: true, State: StateDone}
}

// FailResult — неуспешный завершённый результат.
func FailResult(msg string) ActionResult {
	return ActionResult{OK: false, State: StateDone, Error: msg}
}

// PendingResult — провайдер принял работу в асинхронную обработку.
func PendingResult(taskID string, retryAfter int) ActionResult {
	return ActionResult{State: StatePending, ProviderTaskID: taskID, RetryAfter: retryAfter}
}

// Units возвращает количество единиц квоты за успешный вызов.
func (r ActionResult) Units() int {
	if r.PerCall > 0 {
		return r.PerCall
	}
	return 1
}
