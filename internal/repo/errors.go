package repo

import "errors"

// Общие ошибки репозиториев.
var (
	// ErrNotFound — запись не найдена в БД.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyFinalized — задача уже финализирована.
	// Повторный finalize — no-op, защита от двойного списания квоты.
	ErrAlreadyFinalized = errors.New("task already finalized")

	// ErrInvalidState — операция невозможна в текущем состоянии.
	ErrInvalidState = errors.New("invalid state")
)
