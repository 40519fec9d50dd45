// Package cli собирает команды бинаря boostgram-worker:
//   - work  — цикл захвата и выполнения задач;
//   - stats — глубина очереди по статусам.
package cli
