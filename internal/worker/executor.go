package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/provider"
	"github.com/shaiso/Boostgram/internal/session"
)

// Executor — выполнение одного типа действия.
//
// Контракт: Execute всегда возвращает значение, никогда не «бросает»
// ошибку наружу — любые сбои capability-вызовов сворачиваются
// в ActionResult{OK:false}. Executor'ы не трогают Task/Quota/Order:
// их побочные эффекты ограничены внешней capability.
type Executor interface {
	// NeedsSession — нужен ли executor'у аккаунт из пула.
	NeedsSession() bool

	// Execute выполняет действие. sess == nil для executor'ов
	// с NeedsSession() == false.
	Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult
}

// Registry — реестр executor'ов по типу действия.
type Registry struct {
	executors map[domain.Action]Executor
}

// NewRegistry создаёт реестр, покрывающий весь закрытый набор действий.
//
// providerClient нужен только ActionProviderSubmit; остальные действия
// работают через session-капабилити.
func NewRegistry(providerClient *provider.Client) *Registry {
	r := &Registry{executors: make(map[domain.Action]Executor)}
	r.register(domain.ActionSubscribe, &SubscribeExecutor{})
	r.register(domain.ActionJoin, &JoinExecutor{})
	r.register(domain.ActionUnsubscribe, &UnsubscribeExecutor{})
	r.register(domain.ActionReact, &ReactExecutor{})
	r.register(domain.ActionComment, &CommentExecutor{})
	r.register(domain.ActionView, &ViewExecutor{})
	r.register(domain.ActionStoryReact, &StoryReactExecutor{})
	r.register(domain.ActionBotStart, &BotStartExecutor{})
	r.register(domain.ActionAccountSetup, &AccountSetupExecutor{})
	r.register(domain.ActionProviderSubmit, &ProviderSubmitExecutor{Client: providerClient})
	return r
}

// register добавляет executor для типа действия.
func (r *Registry) register(action domain.Action, executor Executor) {
	r.executors[action] = executor
}

// Get возвращает executor для типа действия.
func (r *Registry) Get(action domain.Action) (Executor, error) {
	executor, ok := r.executors[action]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAction, action)
	}
	return executor, nil
}

// Validate проверяет, что реестр покрывает domain.Actions целиком.
// Вызывается при старте воркера, чтобы дырка в регистрации не дожила
// до первого claim.
func (r *Registry) Validate() error {
	for _, action := range domain.Actions {
		if _, ok := r.executors[action]; !ok {
			return fmt.Errorf("%w: missing %s", ErrRegistryIncomplete, action)
		}
	}
	return nil
}

// --- Общие помощники executor'ов ---

// invalidResult — ошибка входных данных: fail fast до capability-вызова,
// retry тем же payload бессмыслен.
func invalidResult(field string) domain.ActionResult {
	return domain.FailResult("invalid payload: missing " + field)
}

// capabilityResult сворачивает ошибку capability-вызова в результат.
// Известные sentinel-ошибки дают стабильные сообщения для учёта.
func capabilityResult(err error) domain.ActionResult {
	if err == nil {
		return domain.OKResult()
	}
	switch {
	case errors.Is(err, session.ErrPeerNotFound):
		return domain.FailResult("peer not found")
	case errors.Is(err, session.ErrStoryNotFound):
		return domain.FailResult("story not found")
	case errors.Is(err, session.ErrFloodWait):
		return domain.FailResult("flood wait")
	default:
		return domain.FailResult(err.Error())
	}
}

// targetChannel извлекает цель действия из payload.
// Использует предразобранный Parsed, иначе парсит Link.
func targetChannel(task *domain.Task) (session.ChannelRef, domain.ParsedLink, bool) {
	parsed := task.Payload.Parsed
	if parsed.IsZero() {
		parsed = domain.ParseLink(task.Payload.Link)
	}

	ref := session.ChannelRef{
		Username:   parsed.Username,
		InviteHash: parsed.InviteHash,
	}
	return ref, parsed, ref.Username != "" || ref.InviteHash != ""
}
