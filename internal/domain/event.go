package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
)

// ResultEvent — запись в append-only журнале результатов.
//
// Пишется репортёром в одной транзакции с финализацией задачи
// и дополнительно публикуется в MQ для внешнего учёта.
// Плоская структура — под generic log-append потребителей.
type ResultEvent struct {
	ID          uuid.UUID      `json:"id"`
	SubjectType SubjectType    `json:"subject_type"`
	SubjectID   uuid.UUID      `json:"subject_id"`
	AccountID   int64          `json:"account_id,omitempty"`
	Action      Action         `json:"action"`
	LinkHash    string         `json:"link_hash,omitempty"`
	OK          bool           `json:"ok"`
	Error       string         `json:"error,omitempty"`
	PerCall     int            `json:"per_call"`
	RetryAfter  int            `json:"retry_after,omitempty"`
	PerformedAt time.Time      `json:"performed_at"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// HashLink возвращает стабильный хэш целевой ссылки.
// Учёт группирует события по цели, не храня сырые ссылки.
func HashLink(link string) string {
	if link == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:16])
}
