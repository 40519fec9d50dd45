package worker

import (
	"context"
	"errors"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/provider"
	"github.com/shaiso/Boostgram/internal/session"
)

// ProviderSubmitExecutor — отправка заказа внешнему провайдеру
// (action=provider_submit).
//
// Payload: service_id, quantity, link. Subject — заказ; его
// идентификатор уходит провайдеру как order_ref, поэтому повторная
// отправка после падения воркера дедуплицируется на стороне провайдера.
//
// Аккаунт из пула не нужен: действие выполняет сам провайдер.
type ProviderSubmitExecutor struct {
	Client *provider.Client
}

func (e *ProviderSubmitExecutor) NeedsSession() bool { return false }

// Execute отправляет заказ и переводит нормализованный ответ
// провайдера в единообразный результат.
func (e *ProviderSubmitExecutor) Execute(ctx context.Context, _ session.Session, task *domain.Task) domain.ActionResult {
	if e.Client == nil {
		return domain.FailResult(provider.ErrNotConfigured.Error())
	}
	if task.Payload.ServiceID == 0 {
		return invalidResult("service_id")
	}
	if task.Payload.Quantity <= 0 {
		return invalidResult("quantity")
	}
	if task.Payload.Link == "" {
		return invalidResult("link")
	}

	resp, err := e.Client.SubmitOrder(ctx, provider.SubmitRequest{
		OrderRef:  task.SubjectID.String(),
		ServiceID: task.Payload.ServiceID,
		Link:      task.Payload.Link,
		Quantity:  task.Payload.Quantity,
	})
	if err != nil {
		// Конфигурационные и транспортные сбои тоже сворачиваются
		// в значение: наружу ошибка не уходит.
		if errors.Is(err, provider.ErrNotConfigured) {
			return domain.FailResult(err.Error())
		}
		return domain.FailResult("provider request: " + err.Error())
	}

	switch resp.State {
	case domain.StatePending:
		return domain.PendingResult(resp.TaskID, resp.RetryAfter)
	case domain.StateFailed:
		return domain.ActionResult{
			OK:         false,
			State:      domain.StateDone,
			Error:      resp.Error,
			RetryAfter: resp.RetryAfter,
		}
	default:
		if !resp.OK {
			return domain.FailResult(resp.Error)
		}
		res := domain.OKResult()
		res.ProviderTaskID = resp.TaskID
		return res
	}
}
