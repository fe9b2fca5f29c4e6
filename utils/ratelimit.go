package utils

import (
	"sync"
	"time"
)

// RateLimiter реализует ограничение частоты запросов методом
// скользящего окна. Ключом служит IP-адрес клиента.
type RateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
}

// NewRateLimiter создает новый RateLimiter
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
	}
}

// Allow проверяет, разрешен ли запрос, и учитывает его
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	valid := rl.pruneLocked(key, now)

	if len(valid) >= rl.limit {
		return false
	}

	rl.requests[key] = append(valid, now)
	return true
}

// Reset сбрасывает счетчик для ключа
func (rl *RateLimiter) Reset(key string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.requests, key)
}

// GetRemaining возвращает количество оставшихся запросов
func (rl *RateLimiter) GetRemaining(key string) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	remaining := rl.limit - len(rl.pruneLocked(key, time.Now()))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// GetResetTime возвращает время, когда самый старый запрос
// выйдет из окна
func (rl *RateLimiter) GetResetTime(key string) time.Time {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.pruneLocked(key, time.Now())
	if len(valid) == 0 {
		return time.Now()
	}
	return valid[0].Add(rl.window)
}

// pruneLocked удаляет запросы, вышедшие из окна. Вызывается под
// уже взятой блокировкой.
func (rl *RateLimiter) pruneLocked(key string, now time.Time) []time.Time {
	windowStart := now.Add(-rl.window)

	var valid []time.Time
	for _, t := range rl.requests[key] {
		if t.After(windowStart) {
			valid = append(valid, t)
		}
	}
	rl.requests[key] = valid
	return valid
}
