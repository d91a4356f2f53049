// Package metrics provides in-memory statistics for backend requests.
package metrics

import (
	"math"
	"sort"
	"sync"
	"time"
)

// Operation names for the collector.
const (
	OpAuth          = "auth"
	OpSearch        = "search"
	OpUpload        = "upload"
	OpDocuments     = "documents"
	OpHistoryList   = "history_list"
	OpHistoryGet    = "history_get"
	OpHistorySave   = "history_save"
	OpHistoryDelete = "history_delete"
	OpHealth        = "health"
)

// OperationMetrics holds aggregated metrics for a single operation type.
type OperationMetrics struct {
	Count     int64
	Errors    int64
	TotalTime time.Duration
	MinTime   time.Duration
	MaxTime   time.Duration
	LastTime  time.Duration
}

// OperationSnapshot provides computed stats from raw metrics.
type OperationSnapshot struct {
	Name        string
	Count       int64
	Errors      int64
	TotalTimeMs int64
	AvgTimeMs   float64
	MinTimeMs   int64
	MaxTimeMs   int64
	LastTimeMs  int64
}

// Snapshot represents all statistics at a point in time.
type Snapshot struct {
	UptimeSeconds float64
	Operations    []OperationSnapshot // sorted by name
}

// Op returns the snapshot for name, or nil if it never ran.
func (s Snapshot) Op(name string) *OperationSnapshot {
	for i := range s.Operations {
		if s.Operations[i].Name == name {
			return &s.Operations[i]
		}
	}
	return nil
}

// Collector aggregates in-memory request statistics.
// All methods are thread-safe.
type Collector struct {
	mu        sync.RWMutex
	startTime time.Time
	ops       map[string]*OperationMetrics
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		startTime: time.Now(),
		ops:       make(map[string]*OperationMetrics),
	}
}

// getOrCreate returns existing metrics or creates new ones for an operation.
// Caller must hold write lock.
func (c *Collector) getOrCreate(op string) *OperationMetrics {
	m, ok := c.ops[op]
	if !ok {
		m = &OperationMetrics{MinTime: time.Duration(math.MaxInt64)}
		c.ops[op] = m
	}
	return m
}

// Record records timing and outcome for an operation.
func (c *Collector) Record(op string, duration time.Duration, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	m := c.getOrCreate(op)
	m.Count++
	m.TotalTime += duration
	m.LastTime = duration
	if err != nil {
		m.Errors++
	}

	if duration < m.MinTime {
		m.MinTime = duration
	}
	if duration > m.MaxTime {
		m.MaxTime = duration
	}
}

// Last returns the duration of the most recent op, and false if it never ran.
func (c *Collector) Last(op string) (time.Duration, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	m, ok := c.ops[op]
	if !ok {
		return 0, false
	}
	return m.LastTime, true
}

func snapshotOp(name string, m *OperationMetrics) OperationSnapshot {
	return OperationSnapshot{
		Name:        name,
		Count:       m.Count,
		Errors:      m.Errors,
		TotalTimeMs: m.TotalTime.Milliseconds(),
		AvgTimeMs:   float64(m.TotalTime.Milliseconds()) / float64(m.Count),
		MinTimeMs:   m.MinTime.Milliseconds(),
		MaxTimeMs:   m.MaxTime.Milliseconds(),
		LastTimeMs:  m.LastTime.Milliseconds(),
	}
}

// Snapshot returns a point-in-time snapshot of all metrics.
func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{UptimeSeconds: time.Since(c.startTime).Seconds()}
	for name, m := range c.ops {
		if m.Count == 0 {
			continue
		}
		snap.Operations = append(snap.Operations, snapshotOp(name, m))
	}
	sort.Slice(snap.Operations, func(i, j int) bool {
		return snap.Operations[i].Name < snap.Operations[j].Name
	})
	return snap
}
