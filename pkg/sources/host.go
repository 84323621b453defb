package sources

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
)

// HostSource reads host statistics through gopsutil.
type HostSource struct{}

// NewHostSource verifies the host stat source is usable. A host whose CPU or
// memory accounting cannot be read at all is a fatal setup error, before any
// sampling happens.
func NewHostSource() (*HostSource, error) {
	if _, err := cpu.Times(false); err != nil {
		return nil, fmt.Errorf("cpu statistics unavailable: %w", err)
	}
	if _, err := mem.VirtualMemory(); err != nil {
		return nil, fmt.Errorf("memory statistics unavailable: %w", err)
	}
	return &HostSource{}, nil
}

// CPUPercent derives user/system percentages from two cumulative readings
// taken interval apart.
func (h *HostSource) CPUPercent(ctx context.Context, interval time.Duration) (float64, float64, error) {
	before, err := snapshotCPU(ctx)
	if err != nil {
		return 0, 0, err
	}

	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return 0, 0, ctx.Err()
	}

	after, err := snapshotCPU(ctx)
	if err != nil {
		return 0, 0, err
	}

	total := after.Total() - before.Total()
	if total <= 0 {
		return 0, 0, nil
	}

	user := (after.User - before.User) / total * 100
	system := (after.System - before.System) / total * 100
	return user, system, nil
}

func snapshotCPU(ctx context.Context) (cpu.TimesStat, error) {
	times, err := cpu.TimesWithContext(ctx, false)
	if err != nil {
		return cpu.TimesStat{}, fmt.Errorf("failed to read cpu times: %w", err)
	}
	if len(times) == 0 {
		return cpu.TimesStat{}, fmt.Errorf("no aggregate cpu times reported")
	}
	return times[0], nil
}

// MemoryMB returns used and available memory in megabytes.
func (h *HostSource) MemoryMB(ctx context.Context) (float64, float64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read memory: %w", err)
	}
	const mb = 1024 * 1024
	return float64(vm.Used) / mb, float64(vm.Available) / mb, nil
}

// DiskUsedPercent returns the usage percentage for a mount point, or 0 when
// the path does not exist.
func (h *HostSource) DiskUsedPercent(ctx context.Context, path string) (float64, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return 0, nil
	}

	usage, err := disk.UsageWithContext(ctx, path)
	if err != nil {
		return 0, fmt.Errorf("failed to read disk usage for %s: %w", path, err)
	}
	return usage.UsedPercent, nil
}
