// Package collector produces exactly one Sample per invocation and persists
// it to the store, degrading gracefully when individual sources are
// unavailable.
package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"resource-sampler/pkg/logger"
	"resource-sampler/pkg/policy"
	"resource-sampler/pkg/schema"
	"resource-sampler/pkg/sources"
	"resource-sampler/pkg/store"
)

// DiskPaths are the mount points recorded in every sample, in column order.
var DiskPaths = [3]string{"/", "/var", "/opt"}

// DefaultSampleInterval is the window used for two-point delta sampling.
const DefaultSampleInterval = time.Second

// Config holds per-invocation collector settings.
type Config struct {
	// Device is the block device to sample, e.g. "sda"
	Device string

	// SampleInterval separates the two readings of each delta-derived source
	SampleInterval time.Duration
}

// Collector assembles one sample per Collect call from its providers.
type Collector struct {
	host   sources.HostStats
	device sources.BlockDeviceStats
	pods   sources.OrchestratorPods
	store  *store.Store

	policy policy.Policy
	rules  *policy.RuleSet

	cfg      Config
	log      *logger.Logger
	exporter *Exporter
}

// Option configures optional collector behavior.
type Option func(*Collector)

// WithRules attaches a custom bottleneck rule set.
func WithRules(rules *policy.RuleSet) Option {
	return func(c *Collector) { c.rules = rules }
}

// WithExporter attaches Prometheus self-metrics (daemon mode).
func WithExporter(e *Exporter) Option {
	return func(c *Collector) { c.exporter = e }
}

// WithLogger replaces the default logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Collector) { c.log = l }
}

// New wires a collector from its providers and the store.
func New(host sources.HostStats, device sources.BlockDeviceStats, pods sources.OrchestratorPods,
	st *store.Store, pol policy.Policy, cfg Config, opts ...Option) *Collector {

	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}

	c := &Collector{
		host:   host,
		device: device,
		pods:   pods,
		store:  st,
		policy: pol,
		cfg:    cfg,
		log:    logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one full sampling cycle: gather every source, assemble one
// schema row, and append it to the store. A failing source degrades to its
// sentinel value with a warning; only the final append can fail the cycle.
func (c *Collector) Collect(ctx context.Context) (schema.Sample, error) {
	sample := schema.Sample{Timestamp: time.Now()}

	// The two delta-derived sources each wait a full interval; sample them in
	// parallel so the cycle stays close to one interval long.
	var wg sync.WaitGroup
	var ioRates sources.IORates
	var ioErr error

	wg.Add(1)
	go func() {
		defer wg.Done()
		ioRates, ioErr = c.device.Sample(ctx, c.cfg.Device, c.cfg.SampleInterval)
	}()

	user, system, err := c.host.CPUPercent(ctx, c.cfg.SampleInterval)
	if err != nil {
		c.degraded("cpu", err)
	} else {
		sample.CPUUser = user
		sample.CPUSystem = system
	}

	used, free, err := c.host.MemoryMB(ctx)
	if err != nil {
		c.degraded("memory", err)
	} else {
		sample.MemUsed = used
		sample.MemFree = free
	}

	diskFields := [3]*float64{&sample.DiskRootUsed, &sample.DiskVarUsed, &sample.DiskOptUsed}
	for i, path := range DiskPaths {
		pct, err := c.host.DiskUsedPercent(ctx, path)
		if err != nil {
			c.degraded("disk "+path, err)
			continue
		}
		*diskFields[i] = pct
	}

	c.samplePods(ctx, &sample)

	wg.Wait()
	if ioErr != nil {
		c.degraded("device "+c.cfg.Device, ioErr)
	} else {
		sample.ReadsPerSec = ioRates.ReadsPerSec
		sample.WritesPerSec = ioRates.WritesPerSec
		sample.AvgQueueSize = ioRates.AvgQueueSize
		sample.ReadAwaitMs = ioRates.ReadAwaitMs
		sample.WriteAwaitMs = ioRates.WriteAwaitMs
		sample.DiskUtilPct = ioRates.UtilPct
	}

	start := time.Now()
	if err := c.store.Append(sample); err != nil {
		return schema.Sample{}, fmt.Errorf("failed to persist sample: %w", err)
	}
	if c.exporter != nil {
		c.exporter.AppendDuration.Observe(time.Since(start).Seconds())
		c.exporter.LastSampleUnix.Set(float64(sample.Timestamp.Unix()))
	}

	return sample, nil
}

// samplePods fills the pod columns. Listing and the top-consumer query fail
// independently: counts can be valid while the metrics API is absent.
func (c *Collector) samplePods(ctx context.Context, sample *schema.Sample) {
	sample.TopCPUPod = schema.PodUnavailable
	sample.TopMemPod = schema.PodUnavailable

	if c.pods == nil {
		c.log.Warnf("source degraded: orchestrator not configured")
		return
	}

	counts, err := c.pods.PodCounts(ctx)
	if err != nil {
		c.degraded("orchestrator", err)
	} else {
		sample.TotalPods = counts.Total
		sample.Running = counts.Running
		sample.Completed = counts.Completed
		sample.Pending = counts.Pending
		// remainder by subtraction, floored at zero
		other := counts.Total - counts.Running - counts.Completed - counts.Pending
		if other > 0 {
			sample.Other = other
		}
	}

	top, err := c.pods.TopConsumers(ctx)
	if err != nil {
		c.degraded("metrics API", err)
		return
	}
	sample.TopCPUPod = top.CPU
	sample.TopMemPod = top.Memory
}

func (c *Collector) degraded(source string, err error) {
	c.log.Warnf("source degraded: %s: %v", source, err)
	if c.exporter != nil {
		c.exporter.SourceDegradedTotal.WithLabelValues(source).Inc()
	}
}
