package session

import (
	"context"
	"errors"

	"github.com/shaiso/Boostgram/internal/domain"
)

// Ошибки capability-уровня. Executor'ы различают их для классификации
// результата, но никогда не пропускают наружу как error.
var (
	// ErrPeerNotFound — канал/бот/пользователь не резолвится.
	// Retryable: цель может появиться позже.
	ErrPeerNotFound = errors.New("peer not found")

	// ErrStoryNotFound — story не существует или истекла.
	ErrStoryNotFound = errors.New("story not found")

	// ErrFloodWait — платформа требует паузу для аккаунта.
	ErrFloodWait = errors.New("flood wait")

	// ErrNoAccounts — в пуле нет свободных аккаунтов.
	ErrNoAccounts = errors.New("no accounts available")
)

// ChannelRef — ссылка на канал/чат: либо username, либо invite-хэш.
type ChannelRef struct {
	Username   string
	InviteHash string
}

// Session — действия одного автоматизационного аккаунта.
//
// Низкоуровневый протокол аккаунтов живёт во внешнем gateway-сервисе;
// здесь только capability-интерфейс, который потребляют executor'ы.
// Эксклюзивность (одно действие на аккаунт) обеспечивает сам пул.
type Session interface {
	// AccountID — идентификатор аккаунта (для журнала результатов).
	AccountID() int64

	// Subscribe подписывает аккаунт на канал.
	Subscribe(ctx context.Context, ch ChannelRef) error

	// Leave отписывает аккаунт от канала.
	Leave(ctx context.Context, ch ChannelRef) error

	// React ставит реакцию на пост.
	React(ctx context.Context, ch ChannelRef, postID int64, reaction string) error

	// Comment оставляет комментарий под постом.
	Comment(ctx context.Context, ch ChannelRef, postID int64, text string) error

	// View засчитывает просмотр поста.
	View(ctx context.Context, ch ChannelRef, postID int64) error

	// StartBot запускает бота (/start start).
	StartBot(ctx context.Context, username, start string) error

	// ReactStory ставит реакцию на story.
	ReactStory(ctx context.Context, username string, storyID int64, reaction string) error

	// UpdateProfile меняет профиль самого аккаунта.
	UpdateProfile(ctx context.Context, p domain.ProfileUpdate) error
}

// Pool — пул автоматизационных аккаунтов.
type Pool interface {
	// Acquire выдаёт свободный аккаунт. ErrNoAccounts, если пул пуст.
	Acquire(ctx context.Context) (Session, error)

	// Release возвращает аккаунт в пул.
	Release(ctx context.Context, s Session)
}
