// Package telemetry reports a point-in-time snapshot of host resource usage.
package telemetry

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/mem"
)

// Snapshot is the telemetry document served to the model
type Snapshot struct {
	Hostname      string  `json:"hostname"`
	Platform      string  `json:"platform"`
	UptimeSeconds uint64  `json:"uptime_seconds"`
	CPUCount      int     `json:"cpu_count"`
	CPUPercent    float64 `json:"cpu_percent"`
	MemoryTotal   uint64  `json:"memory_total_bytes"`
	MemoryUsed    float64 `json:"memory_used_percent"`
	DiskTotal     uint64  `json:"disk_total_bytes"`
	DiskUsed      float64 `json:"disk_used_percent"`
	CollectedAt   string  `json:"collected_at"`
}

// Source produces snapshots
type Source interface {
	Snapshot(ctx context.Context) (*Snapshot, error)
}

// HostSource reads live values from the local machine.
type HostSource struct {
	// DiskPath is the mount point reported under disk usage. Defaults to "/".
	DiskPath string
	// SampleWindow is how long CPU usage is sampled. Zero compares against the last call.
	SampleWindow time.Duration
}

func NewHostSource() *HostSource {
	return &HostSource{DiskPath: "/", SampleWindow: 200 * time.Millisecond}
}

func (h *HostSource) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{
		CPUCount:    runtime.NumCPU(),
		CollectedAt: time.Now().UTC().Format(time.RFC3339),
	}

	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read host info: %w", err)
	}
	snap.Hostname = info.Hostname
	snap.Platform = fmt.Sprintf("%s %s", info.Platform, info.PlatformVersion)
	snap.UptimeSeconds = info.Uptime

	percents, err := cpu.PercentWithContext(ctx, h.SampleWindow, false)
	if err != nil {
		return nil, fmt.Errorf("failed to read cpu usage: %w", err)
	}
	if len(percents) > 0 {
		snap.CPUPercent = round2(percents[0])
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read memory usage: %w", err)
	}
	snap.MemoryTotal = vm.Total
	snap.MemoryUsed = round2(vm.UsedPercent)

	path := h.DiskPath
	if path == "" {
		path = "/"
	}
	du, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}
	snap.DiskTotal = du.Total
	snap.DiskUsed = round2(du.UsedPercent)

	return snap, nil
}

// Static always returns the same snapshot. Useful in tests.
type Static struct {
	Value Snapshot
	Err   error
}

func (s *Static) Snapshot(ctx context.Context) (*Snapshot, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	v := s.Value
	return &v, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
