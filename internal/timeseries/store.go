package timeseries

import (
	"sort"
	"strings"
	"sync"
)

// Store defines the interface for storing time series
type Store interface {
	// Upsert returns the series for the given key, creating it if it doesn't
	// exist. It returns nil when the series guardrail rejects a new key.
	Upsert(key string) *Series

	// Get returns the series for the given key
	Get(key string) (*Series, bool)

	// Delete removes the series for the given key
	Delete(key string) bool

	// DeleteHost removes every series of a host and returns how many were removed
	DeleteHost(clientID string) int

	// Keys returns all series keys, sorted
	Keys() []string

	// Prune removes old data from all series
	Prune()
}

// MemStore is an in-memory implementation of Store
type MemStore struct {
	mu     sync.RWMutex
	series map[string]*Series
	config Config
	health *HealthMetrics
}

// NewMemStore creates a new in-memory store with the given configuration
func NewMemStore(config Config) *MemStore {
	return NewMemStoreWithHealth(config, NewHealthMetrics())
}

// NewMemStoreWithHealth creates a new in-memory store with custom health metrics
func NewMemStoreWithHealth(config Config, health *HealthMetrics) *MemStore {
	health.SetLimits(config.MaxSeries, config.MaxPointsPerSeries, config.MaxWSClients)

	return &MemStore{
		series: make(map[string]*Series),
		config: config,
		health: health,
	}
}

// Upsert returns the series for the given key, creating it if it doesn't exist
func (m *MemStore) Upsert(key string) *Series {
	m.mu.Lock()
	defer m.mu.Unlock()

	if series, exists := m.series[key]; exists {
		return series
	}

	if !m.health.CheckSeriesLimit() {
		m.health.RecordError()
		return nil
	}

	series := NewSeriesWithHealth(m.config, m.health)
	m.series[key] = series
	m.health.IncrementSeriesCount()
	return series
}

// Get returns the series for the given key, or nil if it doesn't exist
func (m *MemStore) Get(key string) (*Series, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	series, exists := m.series[key]
	return series, exists
}

// Delete removes the series for the given key
func (m *MemStore) Delete(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.series[key]; exists {
		delete(m.series, key)
		m.health.DecrementSeriesCount()
		return true
	}
	return false
}

// DeleteHost removes every series belonging to clientID
func (m *MemStore) DeleteHost(clientID string) int {
	prefix := HostKey(clientID, "")

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for key := range m.series {
		if strings.HasPrefix(key, prefix) {
			delete(m.series, key)
			m.health.DecrementSeriesCount()
			removed++
		}
	}
	return removed
}

// Keys returns all series keys in lexical order
func (m *MemStore) Keys() []string {
	m.mu.RLock()
	keys := make([]string, 0, len(m.series))
	for key := range m.series {
		keys = append(keys, key)
	}
	m.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// Prune removes old data from all series
func (m *MemStore) Prune() {
	m.mu.RLock()
	all := make([]*Series, 0, len(m.series))
	for _, series := range m.series {
		all = append(all, series)
	}
	m.mu.RUnlock()

	// Series have their own locks
	for _, series := range all {
		series.Prune()
	}
}

// GetHealth returns the health metrics for the store
func (m *MemStore) GetHealth() *HealthMetrics {
	return m.health
}

// Config returns the configuration the store was created with
func (m *MemStore) Config() Config {
	return m.config
}

// GetHealthSnapshot returns a snapshot of current health metrics
func (m *MemStore) GetHealthSnapshot() HealthSnapshot {
	return m.health.GetSnapshot()
}
