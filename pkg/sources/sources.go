// Package sources models every external metric source as a pluggable provider
// returning either a value or an explicit error, so the collector can degrade
// a single unavailable source without aborting the cycle and tests can swap in
// deterministic fakes.
package sources

import (
	"context"
	"time"
)

// HostStats reads CPU, memory, and mount-point statistics from the local host.
type HostStats interface {
	// CPUPercent takes two point-in-time readings of cumulative CPU state
	// separated by interval and returns the delta-derived user/system
	// percentages for that window.
	CPUPercent(ctx context.Context, interval time.Duration) (user, system float64, err error)

	// MemoryMB returns current used and available memory in megabytes.
	MemoryMB(ctx context.Context) (used, free float64, err error)

	// DiskUsedPercent returns the usage percentage for a mount point.
	// A path that does not exist yields (0, nil): disk-usage unavailability
	// is not an error.
	DiskUsedPercent(ctx context.Context, path string) (float64, error)
}

// IORates holds the delta-derived block-device metrics for one sampling window.
type IORates struct {
	ReadsPerSec  float64
	WritesPerSec float64
	AvgQueueSize float64
	ReadAwaitMs  float64
	WriteAwaitMs float64
	UtilPct      float64
}

// BlockDeviceStats reads extended statistics for a named block device.
type BlockDeviceStats interface {
	// Sample takes two device-statistics snapshots separated by interval and
	// returns the derived rates.
	Sample(ctx context.Context, device string, interval time.Duration) (IORates, error)
}

// PodCounts holds per-phase pod counts as reported by the orchestrator.
type PodCounts struct {
	Total     int
	Running   int
	Completed int
	Pending   int
}

// TopPods identifies the highest CPU and memory consumers.
type TopPods struct {
	CPU    string
	Memory string
}

// OrchestratorPods queries the cluster for pod state. The two methods fail
// independently: pod listing can succeed while the metrics API is absent.
type OrchestratorPods interface {
	PodCounts(ctx context.Context) (PodCounts, error)
	TopConsumers(ctx context.Context) (TopPods, error)
}
