// Package mq публикует фид результатов в RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange, queue, binding
//   - publisher.go  — публикация событий результатов
//
// Фид — вспомогательный канал для внешних потребителей (биллинг,
// нотификации): источником истины остаётся журнал result_events в БД,
// поэтому публикация best-effort и не блокирует финализацию задач.
package mq
