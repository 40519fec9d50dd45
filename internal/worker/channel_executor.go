package worker

import (
	"context"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/session"
)

// SubscribeExecutor — подписка аккаунта на канал (action=subscribe).
//
// Payload: link с username канала.
type SubscribeExecutor struct{}

func (e *SubscribeExecutor) NeedsSession() bool { return true }

// Execute подписывает аккаунт на канал.
func (e *SubscribeExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, _, ok := targetChannel(task)
	if !ok {
		return invalidResult("link")
	}
	return capabilityResult(sess.Subscribe(ctx, ref))
}

// JoinExecutor — вступление в чат по invite-ссылке (action=join).
//
// Payload: link с invite-хэшем (t.me/+HASH).
type JoinExecutor struct{}

func (e *JoinExecutor) NeedsSession() bool { return true }

// Execute вступает в чат по invite-хэшу.
func (e *JoinExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, parsed, ok := targetChannel(task)
	if !ok || parsed.InviteHash == "" {
		return invalidResult("invite_hash")
	}
	return capabilityResult(sess.Subscribe(ctx, ref))
}

// UnsubscribeExecutor — отписка аккаунта от канала (action=unsubscribe).
type UnsubscribeExecutor struct{}

func (e *UnsubscribeExecutor) NeedsSession() bool { return true }

// Execute отписывает аккаунт от канала.
func (e *UnsubscribeExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, _, ok := targetChannel(task)
	if !ok {
		return invalidResult("link")
	}
	return capabilityResult(sess.Leave(ctx, ref))
}
