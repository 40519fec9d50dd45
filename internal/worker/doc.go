// Package worker — цикл выполнения задач pull-очереди.
//
// Структура:
//   - worker.go   — claim батча, диспетчеризация, пул сессий
//   - executor.go — интерфейс Executor и реестр по типам действий
//   - *_executor.go — executor'ы конкретных действий
//   - reporter.go — финализация: retry-vs-terminal, списание квот, журнал
//
// Семантика at-least-once: задача защищена lease с TTL, упавший воркер
// теряет её через TTL, а повторная финализация схлопывается в no-op
// за счёт идемпотентной транзакции в repo.ResultRepo.
package worker
