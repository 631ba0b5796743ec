// Package monitor keeps the last known health of each backing component.
package monitor

import (
	"context"
	"sort"
	"sync"
	"time"
)

const (
	StatusUnknown   = "unknown"
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the last check result of one component.
type HealthStatus struct {
	Component   string    `json:"component"`
	Status      string    `json:"status"`
	LastChecked time.Time `json:"last_checked"`
	Message     string    `json:"message,omitempty"`
}

// Probe checks one component. A nil error means healthy.
type Probe func(ctx context.Context) error

// Monitor is safe for concurrent use.
type Monitor struct {
	components map[string]*HealthStatus
	probes     map[string]Probe
	mutex      sync.RWMutex
	alertFunc  func(component, status, message string)
	now        func() time.Time
}

// NewMonitor calls alertFunc whenever a component leaves the healthy state
// or changes between unhealthy states. alertFunc may be nil.
func NewMonitor(alertFunc func(component, status, message string)) *Monitor {
	return &Monitor{
		components: make(map[string]*HealthStatus),
		probes:     make(map[string]Probe),
		alertFunc:  alertFunc,
		now:        time.Now,
	}
}

// RegisterComponent adds a component in the unknown state. probe may be nil
// for components whose status is pushed with UpdateStatus.
func (m *Monitor) RegisterComponent(component string, probe Probe) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.components[component] = &HealthStatus{
		Component:   component,
		Status:      StatusUnknown,
		LastChecked: m.now(),
	}
	if probe != nil {
		m.probes[component] = probe
	}
}

func (m *Monitor) UpdateStatus(component, status, message string) {
	m.mutex.Lock()
	st, exists := m.components[component]
	if !exists {
		st = &HealthStatus{Component: component}
		m.components[component] = st
	}
	oldStatus := st.Status
	st.Status = status
	st.LastChecked = m.now()
	st.Message = message
	m.mutex.Unlock()

	if oldStatus != status && status != StatusHealthy && m.alertFunc != nil {
		m.alertFunc(component, status, message)
	}
}

// CheckAll runs every registered probe, each bounded by timeout.
func (m *Monitor) CheckAll(ctx context.Context, timeout time.Duration) {
	m.mutex.RLock()
	probes := make(map[string]Probe, len(m.probes))
	for name, p := range m.probes {
		probes[name] = p
	}
	m.mutex.RUnlock()

	for name, probe := range probes {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err := probe(pctx)
		cancel()
		if err != nil {
			m.UpdateStatus(name, StatusUnhealthy, err.Error())
			continue
		}
		m.UpdateStatus(name, StatusHealthy, "")
	}
}

// GetStatus returns a copy of the component's status, or nil.
func (m *Monitor) GetStatus(component string) *HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	if st, exists := m.components[component]; exists {
		cp := *st
		return &cp
	}
	return nil
}

// GetAllStatus returns copies of every status, sorted by component.
func (m *Monitor) GetAllStatus() []HealthStatus {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	statuses := make([]HealthStatus, 0, len(m.components))
	for _, st := range m.components {
		statuses = append(statuses, *st)
	}
	sort.Slice(statuses, func(i, j int) bool {
		return statuses[i].Component < statuses[j].Component
	})
	return statuses
}

// Ready reports whether every component is healthy. Components that have
// never been checked count as not ready.
func (m *Monitor) Ready() bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()

	for _, st := range m.components {
		if st.Status != StatusHealthy {
			return false
		}
	}
	return true
}
