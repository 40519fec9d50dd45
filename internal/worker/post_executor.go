package worker

import (
	"context"

	"github.com/shaiso/Boostgram/internal/domain"
	"github.com/shaiso/Boostgram/internal/session"
)

// Действия над конкретным постом требуют резолвленный post_id.
// Его отсутствие — жёсткая ошибка входных данных, отличная
// от «канал не найден».

// ReactExecutor — реакция на пост (action=react).
//
// Payload: link на пост (t.me/channel/123), reaction.
type ReactExecutor struct{}

func (e *ReactExecutor) NeedsSession() bool { return true }

// Execute ставит реакцию на пост.
func (e *ReactExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, parsed, ok := targetChannel(task)
	if !ok {
		return invalidResult("link")
	}
	if parsed.PostID == 0 {
		return invalidResult("post_id")
	}
	if task.Payload.Reaction == "" {
		return invalidResult("reaction")
	}
	return capabilityResult(sess.React(ctx, ref, parsed.PostID, task.Payload.Reaction))
}

// CommentExecutor — комментарий под постом (action=comment).
//
// Payload: link на пост, comment_text.
type CommentExecutor struct{}

func (e *CommentExecutor) NeedsSession() bool { return true }

// Execute оставляет комментарий под постом.
func (e *CommentExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, parsed, ok := targetChannel(task)
	if !ok {
		return invalidResult("link")
	}
	if parsed.PostID == 0 {
		return invalidResult("post_id")
	}
	if task.Payload.CommentText == "" {
		return invalidResult("comment_text")
	}
	return capabilityResult(sess.Comment(ctx, ref, parsed.PostID, task.Payload.CommentText))
}

// ViewExecutor — просмотр поста (action=view).
type ViewExecutor struct{}

func (e *ViewExecutor) NeedsSession() bool { return true }

// Execute засчитывает просмотр поста.
func (e *ViewExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	ref, parsed, ok := targetChannel(task)
	if !ok {
		return invalidResult("link")
	}
	if parsed.PostID == 0 {
		return invalidResult("post_id")
	}
	return capabilityResult(sess.View(ctx, ref, parsed.PostID))
}

// StoryReactExecutor — реакция на story (action=story_react).
//
// Payload: link на story (t.me/channel/s/5), reaction.
type StoryReactExecutor struct{}

func (e *StoryReactExecutor) NeedsSession() bool { return true }

// Execute ставит реакцию на story.
func (e *StoryReactExecutor) Execute(ctx context.Context, sess session.Session, task *domain.Task) domain.ActionResult {
	_, parsed, ok := targetChannel(task)
	if !ok || parsed.Username == "" {
		return invalidResult("link")
	}
	if parsed.StoryID == 0 {
		return invalidResult("story_id")
	}
	if task.Payload.Reaction == "" {
		return invalidResult("reaction")
	}
	return capabilityResult(sess.ReactStory(ctx, parsed.Username, parsed.StoryID, task.Payload.Reaction))
}
