package provider

import (
	"strconv"
	"strings"

	"github.com/shaiso/Boostgram/internal/domain"
)

// Normalized — канонический вид ответа провайдера.
//
// Провайдеры отвечают разнородным JSON; Normalize сводит его
// к одной форме, чтобы остальная система не знала про варианты схем.
type Normalized struct {
	// State — каноническое состояние: pending, done или failed.
	State domain.ResultState

	// OK — успех. Для pending и failed всегда false:
	// pending никогда не считается успехом.
	OK bool

	// TaskID — идентификатор асинхронной задачи у провайдера.
	TaskID string

	// RetryAfter — минимальная задержка (сек) перед следующим запросом.
	RetryAfter int

	// Error — текст ошибки при state=failed.
	Error string

	// Raw — исходный payload, для диагностики и извлечения
	// провайдер-специфичных полей (например, status заказа).
	Raw map[string]any
}

// genericFailure — текст ошибки по умолчанию для failed без сообщения.
const genericFailure = "Task failed"

// Ключи извлечения, в порядке приоритета. Плоские и вложенные (через
// точку) варианты покрывают разные схемы ответов провайдеров.
var (
	taskIDKeys     = []string{"task_id", "taskId", "data.task_id", "data.id"}
	retryAfterKeys = []string{"retry_after", "retryAfter", "data.retry_after"}
	errorKeys      = []string{"message", "error", "error_message", "data.message", "data.error"}
)

// Normalize приводит сырой ответ провайдера к каноническому виду.
//
// Порядок определения state:
//  1. явное поле state из {pending, done, failed};
//  2. есть идентификатор задачи → pending;
//  3. явный ok=false → failed;
//  4. иначе → done.
func Normalize(raw map[string]any, fallbackTaskID string) *Normalized {
	n := &Normalized{Raw: raw}
	if raw == nil {
		raw = map[string]any{}
	}

	n.TaskID = lookupString(raw, taskIDKeys)
	n.RetryAfter = lookupInt(raw, retryAfterKeys)
	n.Error = lookupString(raw, errorKeys)

	explicitOK, hasOK := lookupBool(raw, "ok")

	switch {
	case isKnownState(raw["state"]):
		n.State = domain.ResultState(raw["state"].(string))
	case n.TaskID != "":
		n.State = domain.StatePending
	case hasOK && !explicitOK:
		n.State = domain.StateFailed
	default:
		n.State = domain.StateDone
	}

	switch n.State {
	case domain.StateDone:
		if hasOK {
			n.OK = explicitOK
		} else {
			n.OK = true
		}
	default:
		// pending и failed никогда не успешны.
		n.OK = false
	}

	if n.State == domain.StatePending && n.TaskID == "" {
		n.TaskID = fallbackTaskID
	}
	if n.State == domain.StateFailed && n.Error == "" {
		n.Error = genericFailure
	}

	return n
}

// ExtractError достаёт текст ошибки из сырого ответа (для non-2xx тел).
func ExtractError(raw map[string]any) string {
	return lookupString(raw, errorKeys)
}

// OrderStatus интерпретирует нормализованный ответ как статус заказа.
//
// Провайдер-специфичное поле status имеет приоритет; иначе статус
// выводится из канонического state.
func (n *Normalized) OrderStatus() domain.OrderStatus {
	if s, ok := n.Raw["status"].(string); ok {
		mapped := domain.OrderStatus(strings.ToLower(strings.TrimSpace(s)))
		if mapped.IsValid() {
			return mapped
		}
	}

	switch n.State {
	case domain.StateFailed:
		return domain.OrderStatusFail
	case domain.StatePending:
		return domain.OrderStatusInProgress
	default:
		return domain.OrderStatusCompleted
	}
}

// --- Helpers ---

func isKnownState(v any) bool {
	s, ok := v.(string)
	if !ok {
		return false
	}
	switch domain.ResultState(s) {
	case domain.StatePending, domain.StateDone, domain.StateFailed:
		return true
	default:
		return false
	}
}

// lookupString пробует ключи по порядку; "a.b" — вложенный путь.
func lookupString(raw map[string]any, keys []string) string {
	for _, key := range keys {
		if v, ok := lookup(raw, key); ok {
			switch s := v.(type) {
			case string:
				if s != "" {
					return s
				}
			case float64:
				return strconv.FormatFloat(s, 'f', -1, 64)
			}
		}
	}
	return ""
}

// lookupInt пробует ключи по порядку, принимает число или строку.
func lookupInt(raw map[string]any, keys []string) int {
	for _, key := range keys {
		v, ok := lookup(raw, key)
		if !ok {
			continue
		}
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		case string:
			if parsed, err := strconv.Atoi(n); err == nil {
				return parsed
			}
		}
	}
	return 0
}

func lookupBool(raw map[string]any, key string) (value, present bool) {
	v, ok := raw[key]
	if !ok {
		return false, false
	}
	b, ok := v.(bool)
	return b, ok
}

// lookup разрешает плоский или вложенный (через точку) ключ.
func lookup(raw map[string]any, key string) (any, bool) {
	head, rest, nested := strings.Cut(key, ".")
	v, ok := raw[head]
	if !ok {
		return nil, false
	}
	if !nested {
		return v, true
	}
	inner, ok := v.(map[string]any)
	if !ok {
		return nil, false
	}
	return lookup(inner, rest)
}
