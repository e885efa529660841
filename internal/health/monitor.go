// Package health provides a passive resource watchdog for the pipeline
// controller. Unlike the worker-pool era this is adapted from, there is
// never more than one browser page in flight (spec.md §5), so this package
// never gates or scales anything — it only samples and logs.
package health

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/olereon/galleryharvest/internal/logging"
)

// Pressure classifies available memory headroom.
type Pressure string

const (
	PressureNormal    Pressure = "normal"
	PressureWarning   Pressure = "warning"
	PressureCritical  Pressure = "critical"
	PressureEmergency Pressure = "emergency"
)

// Status is a point-in-time resource reading.
type Status struct {
	TotalMemory     uint64
	AllocatedMemory uint64
	AvailableMemory int64
	CPUPercent      float64
	Pressure        Pressure
}

// Monitor samples process memory and system CPU on a ticker and logs
// warnings when headroom gets low. It never refuses or throttles work; the
// pipeline controller only uses it to annotate progress events.
type Monitor struct {
	totalMemory uint64

	mu       sync.RWMutex
	lastMem  runtime.MemStats
	lastCPU  float64

	cancel context.CancelFunc
}

// New creates a Monitor, reading the system's total memory once via
// gopsutil (falling back to a 4GB assumption if unavailable).
func New() *Monitor {
	var total uint64 = 4 * 1024 * 1024 * 1024
	if vm, err := mem.VirtualMemory(); err == nil {
		total = vm.Total
	} else {
		logging.Warnf("could not read system memory, assuming 4GB: %v", err)
	}

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	return &Monitor{totalMemory: total, lastMem: memStats}
}

// Start launches the background sampling loop. Idempotent: calling Start
// twice without Stop is a no-op.
func (m *Monitor) Start(ctx context.Context, interval time.Duration) {
	m.mu.Lock()
	if m.cancel != nil {
		m.mu.Unlock()
		return
	}
	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.mu.Unlock()

	go m.loop(loopCtx, interval)
}

func (m *Monitor) loop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.sample()
		}
	}
}

func (m *Monitor) sample() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	percentages, err := cpu.Percent(100*time.Millisecond, false)
	cpuUsage := 0.0
	if err == nil && len(percentages) > 0 {
		cpuUsage = percentages[0]
	}

	m.mu.Lock()
	m.lastMem = memStats
	m.lastCPU = cpuUsage
	m.mu.Unlock()

	status := m.Status()
	switch status.Pressure {
	case PressureEmergency:
		logging.Errorf("memory pressure emergency: %dMB available", status.AvailableMemory/(1024*1024))
	case PressureCritical:
		logging.Warnf("memory pressure critical: %dMB available", status.AvailableMemory/(1024*1024))
	}
}

// Stop halts the background sampling loop.
func (m *Monitor) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

// Status returns the most recently sampled resource reading.
func (m *Monitor) Status() Status {
	m.mu.RLock()
	memStats := m.lastMem
	cpuUsage := m.lastCPU
	m.mu.RUnlock()

	available := int64(m.totalMemory) - int64(memStats.Alloc)
	availableMB := available / (1024 * 1024)

	var pressure Pressure
	switch {
	case availableMB < 200:
		pressure = PressureEmergency
	case availableMB < 300:
		pressure = PressureCritical
	case availableMB < 500:
		pressure = PressureWarning
	default:
		pressure = PressureNormal
	}

	return Status{
		TotalMemory:     m.totalMemory,
		AllocatedMemory: memStats.Alloc,
		AvailableMemory: available,
		CPUPercent:      cpuUsage,
		Pressure:        pressure,
	}
}
