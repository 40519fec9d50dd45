// Package reconciler сверяет статусы заказов с fulfillment-провайдером.
//
// Webhook'и — основной канал обновления статусов; poll — подстраховка
// на случай их потери. ShouldPoll подавляет опрос, пока webhook-канал
// живой, и ограничивает частоту опросов. Слияние статусов идёт только
// вперёд по решётке, терминальные состояния не откатываются.
package reconciler
