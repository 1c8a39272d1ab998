package database

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	coreport "github.com/nerbixa/payment-reconciler/internal/domain/port/core"
)

// saturationWarnRatio is the in-use share of the pool at which deliveries start queueing
const saturationWarnRatio = 0.8

// ConnectionPoolMetrics is one sample of the pool as seen by webhook deliveries.
// Each delivery holds a connection for its whole ledger transaction, so waits
// here are time a gateway spends before its balance update even starts.
type ConnectionPoolMetrics struct {
	OpenConnections    int           `json:"open_connections"`
	InUse              int           `json:"in_use"`
	Idle               int           `json:"idle"`
	MaxOpenConnections int           `json:"max_open_connections"`
	Saturation         float64       `json:"saturation"`
	WaitCount          int64         `json:"wait_count"`
	WindowWaits        int64         `json:"window_waits"`
	WindowAvgWait      time.Duration `json:"window_avg_wait"`
	SampledAt          time.Time     `json:"sampled_at"`

	waitDuration time.Duration
}

// Saturated reports whether the pool was close to exhaustion when sampled
func (p ConnectionPoolMetrics) Saturated() bool {
	return p.MaxOpenConnections > 0 && p.Saturation >= saturationWarnRatio
}

// samplePool derives a sample from raw stats. Window fields cover the time since prev.
func samplePool(prev *ConnectionPoolMetrics, stats sql.DBStats, now time.Time) ConnectionPoolMetrics {
	sample := ConnectionPoolMetrics{
		OpenConnections:    stats.OpenConnections,
		InUse:              stats.InUse,
		Idle:               stats.Idle,
		MaxOpenConnections: stats.MaxOpenConnections,
		WaitCount:          stats.WaitCount,
		SampledAt:          now,
		waitDuration:       stats.WaitDuration,
	}
	if stats.MaxOpenConnections > 0 {
		sample.Saturation = float64(stats.InUse) / float64(stats.MaxOpenConnections)
	}

	waits, waited := stats.WaitCount, stats.WaitDuration
	if prev != nil && stats.WaitCount >= prev.WaitCount {
		waits -= prev.WaitCount
		waited -= prev.waitDuration
	}
	sample.WindowWaits = waits
	if waits > 0 {
		sample.WindowAvgWait = waited / time.Duration(waits)
	}
	return sample
}

// ConnectionPoolMonitor samples the pool on an interval and warns when
// deliveries queue for a connection
type ConnectionPoolMonitor struct {
	manager      *Manager
	queryTimeout time.Duration
	timeProvider coreport.TimeProvider
	logger       coreport.Logger

	mutex  sync.RWMutex
	latest *ConnectionPoolMetrics

	stopChan chan struct{}
	stopOnce sync.Once
}

// NewConnectionPoolMonitor creates a new connection pool monitor
func NewConnectionPoolMonitor(manager *Manager, timeProvider coreport.TimeProvider, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		manager:      manager,
		queryTimeout: manager.config.QueryTimeout,
		timeProvider: timeProvider,
		logger:       logger,
		stopChan:     make(chan struct{}),
	}
}

// Start takes a first sample and keeps sampling every interval until Stop
func (m *ConnectionPoolMonitor) Start(interval time.Duration) error {
	if err := m.collect(); err != nil {
		return err
	}

	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := m.collect(); err != nil {
					m.logger.Error("Failed to sample connection pool", map[string]any{
						"error": err.Error(),
					})
				}
			case <-m.stopChan:
				return
			}
		}
	}()

	return nil
}

// Stop stops sampling
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopChan) })
}

// GetMetrics returns the latest sample
func (m *ConnectionPoolMonitor) GetMetrics() ConnectionPoolMetrics {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if m.latest == nil {
		return ConnectionPoolMetrics{}
	}
	return *m.latest
}

func (m *ConnectionPoolMonitor) collect() error {
	sqlDB, err := m.manager.DB().DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	m.record(sqlDB.Stats())
	return nil
}

func (m *ConnectionPoolMonitor) record(stats sql.DBStats) ConnectionPoolMetrics {
	m.mutex.Lock()
	sample := samplePool(m.latest, stats, m.timeProvider.Now())
	m.latest = &sample
	m.mutex.Unlock()

	if sample.Saturated() {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     sample.InUse,
			"max_open":   sample.MaxOpenConnections,
			"saturation": sample.Saturation,
		})
	}
	// A delivery that waits half its query budget for a connection is likely to time out
	if sample.WindowWaits > 0 && m.queryTimeout > 0 && sample.WindowAvgWait*2 >= m.queryTimeout {
		m.logger.Warn("Webhook deliveries queueing for database connections", map[string]any{
			"waits":         sample.WindowWaits,
			"avg_wait":      sample.WindowAvgWait.String(),
			"query_timeout": m.queryTimeout.String(),
		})
	}
	return sample
}
