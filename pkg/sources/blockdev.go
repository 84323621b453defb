package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/disk"
)

// DeviceSource reads extended block-device statistics through gopsutil.
type DeviceSource struct{}

// NewDeviceSource verifies device statistics can be read on this host. Absence
// of one particular device is handled per sample, not here.
func NewDeviceSource() (*DeviceSource, error) {
	if _, err := disk.IOCounters(); err != nil {
		return nil, fmt.Errorf("block device statistics unavailable: %w", err)
	}
	return &DeviceSource{}, nil
}

// Sample takes two statistics snapshots interval apart and derives the rate
// and latency metrics for the named device.
func (d *DeviceSource) Sample(ctx context.Context, device string, interval time.Duration) (IORates, error) {
	before, err := snapshotDevice(ctx, device)
	if err != nil {
		return IORates{}, err
	}

	select {
	case <-time.After(interval):
	case <-ctx.Done():
		return IORates{}, ctx.Err()
	}

	after, err := snapshotDevice(ctx, device)
	if err != nil {
		return IORates{}, err
	}

	return deriveRates(before, after, interval), nil
}

func snapshotDevice(ctx context.Context, device string) (disk.IOCountersStat, error) {
	counters, err := disk.IOCountersWithContext(ctx, device)
	if err != nil {
		return disk.IOCountersStat{}, fmt.Errorf("failed to read device statistics: %w", err)
	}
	stat, ok := counters[device]
	if !ok {
		return disk.IOCountersStat{}, fmt.Errorf("device %s not found", device)
	}
	return stat, nil
}

// deriveRates turns two cumulative counter snapshots into per-second rates and
// average waits, the same derivation iostat applies to /proc/diskstats.
func deriveRates(before, after disk.IOCountersStat, interval time.Duration) IORates {
	seconds := interval.Seconds()
	if seconds <= 0 {
		return IORates{}
	}

	reads := float64(after.ReadCount - before.ReadCount)
	writes := float64(after.WriteCount - before.WriteCount)
	readTime := float64(after.ReadTime - before.ReadTime)
	writeTime := float64(after.WriteTime - before.WriteTime)

	rates := IORates{
		ReadsPerSec:  reads / seconds,
		WritesPerSec: writes / seconds,
		AvgQueueSize: float64(after.WeightedIO-before.WeightedIO) / 1000 / seconds,
		UtilPct:      float64(after.IoTime-before.IoTime) / (seconds * 1000) * 100,
	}
	if reads > 0 {
		rates.ReadAwaitMs = readTime / reads
	}
	if writes > 0 {
		rates.WriteAwaitMs = writeTime / writes
	}
	return rates
}
