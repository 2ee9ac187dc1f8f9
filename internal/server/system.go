package server

import (
	"context"
	"runtime"

	"github.com/mantonx/cinecache/internal/database"
	"github.com/mantonx/cinecache/internal/logger"
	"github.com/mantonx/cinecache/internal/modules/modulemanager"
	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
)

// SystemHealth is the body of the system health endpoint
type SystemHealth struct {
	Status   string                                `json:"status"`
	Uptime   string                                `json:"uptime"`
	Version  string                                `json:"version"`
	Database DatabaseHealth                        `json:"database"`
	Modules  map[string]modulemanager.HealthStatus `json:"modules"`
	Process  ProcessStats                          `json:"process"`
	Host     HostStats                             `json:"host"`
}

// DatabaseHealth reports reachability and pool usage
type DatabaseHealth struct {
	Status string                    `json:"status"`
	Error  string                    `json:"error,omitempty"`
	Pool   *database.ConnectionStats `json:"pool,omitempty"`
}

// ProcessStats are Go runtime figures of this process
type ProcessStats struct {
	Goroutines  int    `json:"goroutines"`
	HeapAlloc   uint64 `json:"heap_alloc_bytes"`
	HeapObjects uint64 `json:"heap_objects"`
	NumGC       uint32 `json:"num_gc"`
	GoVersion   string `json:"go_version"`
}

// HostStats are host figures; fields gopsutil cannot read on the
// platform are left zero
type HostStats struct {
	CPUCount      int     `json:"cpu_count"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total_bytes"`
	MemoryUsed    uint64  `json:"memory_used_bytes"`
	MemoryPercent float64 `json:"memory_percent"`
	Load1         float64 `json:"load1"`
	Load5         float64 `json:"load5"`
	Load15        float64 `json:"load15"`
}

func collectProcessStats() ProcessStats {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return ProcessStats{
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   ms.HeapAlloc,
		HeapObjects: ms.HeapObjects,
		NumGC:       ms.NumGC,
		GoVersion:   runtime.Version(),
	}
}

func collectHostStats(ctx context.Context) HostStats {
	stats := HostStats{CPUCount: runtime.NumCPU()}

	// zero interval compares against the previous call instead of sleeping
	if percents, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(percents) > 0 {
		stats.CPUPercent = percents[0]
	} else if err != nil {
		logger.Debug("cpu stats unavailable", "error", err)
	}

	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		stats.MemoryTotal = vm.Total
		stats.MemoryUsed = vm.Used
		stats.MemoryPercent = vm.UsedPercent
	} else {
		logger.Debug("memory stats unavailable", "error", err)
	}

	if avg, err := load.AvgWithContext(ctx); err == nil {
		stats.Load1, stats.Load5, stats.Load15 = avg.Load1, avg.Load5, avg.Load15
	} else {
		logger.Debug("load average unavailable", "error", err)
	}
	return stats
}
