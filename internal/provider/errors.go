package provider

import "errors"

// Ошибки провайдер-клиента.
var (
	// ErrNotConfigured — base URL провайдера не задан.
	// Конфигурационная ошибка: вызов фатален, автоматический retry не нужен.
	ErrNotConfigured = errors.New("provider endpoint not configured")

	// ErrRequest — транспортная ошибка запроса к провайдеру.
	ErrRequest = errors.New("provider request failed")
)
