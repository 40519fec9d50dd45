// Package generator создаёт задачи очереди из оплаченных сущностей.
//
// Три источника:
//   - заказы без provider_order_id — задача provider_submit;
//   - квоты с наступившим next_due_at — задача действия квоты,
//     с пейсингом через сдвиг next_due_at;
//   - кандидаты на отписку с наступившим due_at — задача unsubscribe.
//
// Проход идемпотентен: CreateIfAbsent не создаёт вторую активную
// задачу для той же пары (subject, action).
package generator
