package service

import (
	"sync"
	"time"
)

// Monitor process-wide counters exposed to admins.
type Monitor struct {
	mu sync.RWMutex

	OrdersCreated       int64
	OrderFailures       int64
	NotificationsSent   int64
	NotificationsFailed int64

	DBErrors      int64
	RedisErrors   int64
	StorageErrors int64

	LastOrder        time.Time
	LastDBError      time.Time
	LastRedisError   time.Time
	LastStorageError time.Time
	LastNotifyError  time.Time
}

var globalMonitor = &Monitor{}

// GetMonitor returns the process-wide monitor.
func GetMonitor() *Monitor {
	return globalMonitor
}

func (m *Monitor) RecordOrderCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated++
	m.LastOrder = time.Now()
}

func (m *Monitor) RecordOrderFailure() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrderFailures++
}

func (m *Monitor) RecordNotificationSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsSent++
}

func (m *Monitor) RecordNotificationFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.NotificationsFailed++
	m.LastNotifyError = time.Now()
}

func (m *Monitor) RecordDBError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DBErrors++
	m.LastDBError = time.Now()
}

func (m *Monitor) RecordRedisError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RedisErrors++
	m.LastRedisError = time.Now()
}

func (m *Monitor) RecordStorageError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StorageErrors++
	m.LastStorageError = time.Now()
}

// GetStats snapshot for the metrics endpoint.
func (m *Monitor) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	notifySuccessRate := float64(0)
	if total := m.NotificationsSent + m.NotificationsFailed; total > 0 {
		notifySuccessRate = float64(m.NotificationsSent) / float64(total) * 100
	}

	return map[string]interface{}{
		"orders": map[string]interface{}{
			"created":  m.OrdersCreated,
			"failures": m.OrderFailures,
		},
		"notifications": map[string]interface{}{
			"sent":         m.NotificationsSent,
			"failed":       m.NotificationsFailed,
			"success_rate": notifySuccessRate,
		},
		"errors": map[string]interface{}{
			"db":      m.DBErrors,
			"redis":   m.RedisErrors,
			"storage": m.StorageErrors,
		},
		"last_events": map[string]interface{}{
			"order":         m.LastOrder,
			"db_error":      m.LastDBError,
			"redis_error":   m.LastRedisError,
			"storage_error": m.LastStorageError,
			"notify_error":  m.LastNotifyError,
		},
	}
}

// Reset zeroes every counter.
func (m *Monitor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.OrdersCreated = 0
	m.OrderFailures = 0
	m.NotificationsSent = 0
	m.NotificationsFailed = 0
	m.DBErrors = 0
	m.RedisErrors = 0
	m.StorageErrors = 0
}
