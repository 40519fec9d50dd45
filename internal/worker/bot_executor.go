package worker

import (
	"context"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/session"
)

// BotStartExecutor — запуск бота (action=bot_start).
//
// Payload: link на бота, опционально с deep-link параметром
// (t.me/somebot?start=ref).
type BotStartExecutor struct{}

func (e *BotStartExecutor) NeedsSession() bool { return true }

// Execute запускает бота от имени аккаунта.
func (e *BotStartExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	_, parsed, ok := targetChannel(task)
	if !ok || parsed.Username == "" {
		return invalidResult("username")
	}
	return capabilityResult(sess.StartBot(ctx, parsed.Username, parsed.Start))
}

// AccountSetupExecutor — настройка аккаунта (action=account_setup).
//
// Payload: profile с изменяемыми полями.
type AccountSetupExecutor struct{}

func (e *AccountSetupExecutor) NeedsSession() bool { return true }

// Execute применяет изменения профиля к аккаунту.
func (e *AccountSetupExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	if task.Payload.Profile == nil {
		return invalidResult("profile")
	}
	return capabilityResult(sess.UpdateProfile(ctx, *task.Payload.Profile))
}
