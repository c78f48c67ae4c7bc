// Package ratelimit реализует admission control: общий бюджет запросов на окно.
//
// Limiter.TryConsume атомарно проверяет бюджет и списывает одну единицу.
// Отклоненный вызов счетчик не изменяет. Бэкенды:
//
//   - FixedWindow: фиксированное окно в памяти процесса (по умолчанию)
//   - TokenBucket: пополняемый бюджет на golang.org/x/time/rate
//   - RedisFixedWindow: фиксированное окно в Redis, общее для нескольких инстансов
//
// Если хранилище счетчиков недоступно, TryConsume возвращает ошибку,
// оборачивающую ErrStoreUnavailable. Решение fail-closed/fail-open принимает middleware.
package ratelimit
