package worker

import "errors"

// Ошибки воркера.
var (
	// ErrUnknownAction — нет executor'а для данного типа действия.
	ErrUnknownAction = errors.New("unknown action")

	// ErrRegistryIncomplete — реестр не покрывает закрытый набор действий.
	ErrRegistryIncomplete = errors.New("executor registry incomplete")
)
