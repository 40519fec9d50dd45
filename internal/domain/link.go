package domain

import (
	"strconv"
	"strings"
)

// ParsedLink — нормализованные части ссылки на цель.
//
// Ровно одно из полей Username/InviteHash заполнено для валидной цели.
type ParsedLink struct {
	// Username — имя канала/бота без @.
	Username string `json:"username,omitempty"`

	// InviteHash — хэш invite-ссылки (t.me/+HASH, t.me/joinchat/HASH).
	InviteHash string `json:"invite_hash,omitempty"`

	// PostID — идентификатор поста (t.me/username/123).
	PostID int64 `json:"post_id,omitempty"`

	// StoryID — идентификатор story (t.me/username/s/5).
	StoryID int64 `json:"story_id,omitempty"`

	// Start — deep-link параметр бота (?start=...).
	Start string `json:"start,omitempty"`
}

// IsZero возвращает true, если из ссылки ничего не извлечено.
func (p ParsedLink) IsZero() bool {
	return p == ParsedLink{}
}

// ParseLink нормализует ссылку или username в ParsedLink.
//
// Принимает формы:
//
//	@username, username
//	https://t.me/username, t.me/username, telegram.me/username
//	t.me/username/123                — пост
//	t.me/username/s/5                — story
//	t.me/+HASH, t.me/joinchat/HASH   — invite
//	t.me/bot?start=payload           — deep-link бота
//
// Query-string отбрасывается (кроме start), регистр username сохраняется.
func ParseLink(raw string) ParsedLink {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ParsedLink{}
	}

	// Отделяем query до разбора пути.
	var query string
	if i := strings.IndexByte(s, '?'); i >= 0 {
		query = s[i+1:]
		s = s[:i]
	}
	s = strings.TrimSuffix(s, "/")

	// Голый username.
	if !strings.Contains(s, "/") {
		return ParsedLink{
			Username: strings.TrimPrefix(s, "@"),
			Start:    queryParam(query, "start"),
		}
	}

	// Срезаем схему и хост.
	s = strings.TrimPrefix(s, "http://")
	s = strings.TrimPrefix(s, "https://")
	for _, host := range []string{"t.me/", "telegram.me/", "telegram.dog/"} {
		if rest, ok := strings.CutPrefix(s, host); ok {
			s = rest
			break
		}
	}

	parts := strings.Split(s, "/")
	if len(parts) == 0 || parts[0] == "" {
		return ParsedLink{}
	}

	head := parts[0]

	// Invite-ссылки.
	if hash, ok := strings.CutPrefix(head, "+"); ok {
		return ParsedLink{InviteHash: hash}
	}
	if head == "joinchat" && len(parts) > 1 {
		return ParsedLink{InviteHash: parts[1]}
	}

	p := ParsedLink{
		Username: strings.TrimPrefix(head, "@"),
		Start:    queryParam(query, "start"),
	}

	// t.me/username/s/5 — story.
	if len(parts) >= 3 && parts[1] == "s" {
		p.StoryID, _ = strconv.ParseInt(parts[2], 10, 64)
		return p
	}

	// t.me/username/123 — пост.
	if len(parts) >= 2 {
		p.PostID, _ = strconv.ParseInt(parts[1], 10, 64)
	}

	return p
}

// queryParam извлекает значение параметра из query-string.
func queryParam(query, key string) string {
	if query == "" {
		return ""
	}
	for _, pair := range strings.Split(query, "&") {
		k, v, _ := strings.Cut(pair, "=")
		if k == key {
			return v
		}
	}
	return ""
}
