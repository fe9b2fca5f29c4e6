package utils

import (
	"sync"
	"time"
)

// Metrics содержит метрики приложения
type Metrics struct {
	mu sync.RWMutex

	// Метрики запросов
	TotalRequests   int64
	FailedRequests  int64
	RequestLatency  time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time

	// Метрики карт
	TotalCards        int64
	ActiveCards       int64
	BlockedCards      int64
	LastCardOperation time.Time

	// Метрики переводов
	TotalTransfers    int64
	FailedTransfers   int64
	RetriedTransfers  int64
	LastTransferTime  time.Time

	// Метрики ошибок
	ErrorCount    int64
	LastErrorTime time.Time
	ErrorTypes    map[string]int64
}

var (
	metrics     *Metrics
	metricsOnce sync.Once
)

// GetMetrics возвращает экземпляр метрик
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metrics = &Metrics{
			ErrorTypes: make(map[string]int64),
		}
	})
	return metrics
}

// RecordRequest записывает метрики запроса
func (m *Metrics) RecordRequest(duration time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests++
	m.RequestLatency += duration
	m.AverageLatency = m.RequestLatency / time.Duration(m.TotalRequests)
	m.LastRequestTime = time.Now()

	if err != nil {
		m.FailedRequests++
		m.recordError(err)
	}
}

// RecordCardOperation записывает метрики операции с картой
func (m *Metrics) RecordCardOperation(operation string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastCardOperation = time.Now()

	if err != nil {
		m.recordError(err)
		return
	}

	switch operation {
	case "create":
		m.TotalCards++
		m.ActiveCards++
	case "delete":
		m.TotalCards--
	case "block":
		m.ActiveCards--
		m.BlockedCards++
	case "unblock":
		m.ActiveCards++
		m.BlockedCards--
	}
}

// RecordTransfer записывает метрики перевода средств
func (m *Metrics) RecordTransfer(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalTransfers++
	m.LastTransferTime = time.Now()

	if err != nil {
		m.FailedTransfers++
		m.recordError(err)
	}
}

// RecordTransferRetry записывает повторную попытку перевода
func (m *Metrics) RecordTransferRetry() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RetriedTransfers++
}

// RecordError записывает метрики ошибки
func (m *Metrics) RecordError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.recordError(err)
}

// recordError вызывается под уже взятой блокировкой
func (m *Metrics) recordError(err error) {
	m.ErrorCount++
	m.LastErrorTime = time.Now()

	errorType := "unknown"
	if err != nil {
		errorType = err.Error()
	}

	m.ErrorTypes[errorType]++
}

// GetMetricsSnapshot возвращает снимок текущих метрик
func (m *Metrics) GetMetricsSnapshot() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	errorTypes := make(map[string]int64, len(m.ErrorTypes))
	for k, v := range m.ErrorTypes {
		errorTypes[k] = v
	}

	return map[string]interface{}{
		"total_requests":    m.TotalRequests,
		"failed_requests":   m.FailedRequests,
		"average_latency":   m.AverageLatency.String(),
		"total_cards":       m.TotalCards,
		"active_cards":      m.ActiveCards,
		"blocked_cards":     m.BlockedCards,
		"total_transfers":   m.TotalTransfers,
		"failed_transfers":  m.FailedTransfers,
		"retried_transfers": m.RetriedTransfers,
		"error_count":       m.ErrorCount,
		"last_error_time":   m.LastErrorTime,
		"error_types":       errorTypes,
	}
}

// ResetMetrics сбрасывает все метрики
func (m *Metrics) ResetMetrics() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalRequests = 0
	m.FailedRequests = 0
	m.RequestLatency = 0
	m.AverageLatency = 0
	m.TotalCards = 0
	m.ActiveCards = 0
	m.BlockedCards = 0
	m.TotalTransfers = 0
	m.FailedTransfers = 0
	m.RetriedTransfers = 0
	m.ErrorCount = 0
	m.ErrorTypes = make(map[string]int64)
}
