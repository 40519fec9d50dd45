// Package scheduler запускает периодические задания движка:
// генерацию задач, сверку заказов с провайдером и автопродление квот.
//
// Расписания — cron-выражения (robfig/cron), лидерство между
// репликами — advisory lock в Postgres.
package scheduler
