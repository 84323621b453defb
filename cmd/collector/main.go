package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"k8s.io/klog/v2"

	"resource-sampler/pkg/collector"
	"resource-sampler/pkg/logger"
	"resource-sampler/pkg/policy"
	"resource-sampler/pkg/sources"
	"resource-sampler/pkg/store"
)

const (
	defaultStorePath = "metrics_history.csv"
	defaultDevice    = "sda"
)

var (
	kubeconfig  string
	namespace   string
	rulesPath   string
	schedule    string
	metricsAddr string
	logLevel    string
)

func main() {
	klog.InitFlags(nil)
	flag.StringVar(&kubeconfig, "kubeconfig", "", "Path to kubeconfig (default: in-cluster, then ~/.kube/config)")
	flag.StringVar(&namespace, "namespace", "", "Namespace to sample pods from (empty = all namespaces)")
	flag.StringVar(&rulesPath, "rules", "", "Optional YAML file with custom bottleneck rules")
	flag.StringVar(&schedule, "schedule", "", "Optional cron schedule for daemon mode (e.g. '@every 1m')")
	flag.StringVar(&metricsAddr, "metrics-addr", "", "Address for the Prometheus endpoint (daemon mode only)")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	// fall back to environment when the namespace flag is not provided
	if namespace == "" {
		namespace = os.Getenv("TARGET_NAMESPACE")
	}

	storePath := defaultStorePath
	device := defaultDevice
	if flag.NArg() > 0 {
		storePath = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		device = flag.Arg(1)
	}

	log, err := logger.New(logLevel, false)
	if err != nil {
		klog.Errorf("Failed to build logger: %v", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer log.Sync()

	// Dependency validation: a required source that cannot be constructed is
	// fatal before a single sample is taken.
	host, err := sources.NewHostSource()
	if err != nil {
		klog.Errorf("Host statistics source unavailable: %v", err)
		os.Exit(1)
	}

	blockdev, err := sources.NewDeviceSource()
	if err != nil {
		klog.Errorf("Block device statistics source unavailable: %v", err)
		os.Exit(1)
	}

	pods, err := sources.NewKubeSource(kubeconfig, namespace)
	if err != nil {
		klog.Errorf("Orchestrator client unavailable: %v", err)
		os.Exit(1)
	}

	opts := []collector.Option{collector.WithLogger(log)}
	if rulesPath != "" {
		rules, err := policy.LoadRules(rulesPath)
		if err != nil {
			klog.Errorf("Failed to load rules: %v", err)
			os.Exit(1)
		}
		opts = append(opts, collector.WithRules(rules))
	}

	var exporter *collector.Exporter
	if schedule != "" {
		exporter = collector.NewExporter(prometheus.DefaultRegisterer, "resource_sampler")
		opts = append(opts, collector.WithExporter(exporter))
	}

	c := collector.New(host, blockdev, pods, store.New(storePath), policy.Default(),
		collector.Config{Device: device}, opts...)

	if schedule == "" {
		if !runCycle(c, exporter) {
			os.Exit(1)
		}
		return
	}

	runDaemon(c, exporter)
}

// runCycle performs one collect-and-check cycle.
func runCycle(c *collector.Collector, exporter *collector.Exporter) bool {
	sample, err := c.Collect(context.Background())
	if err != nil {
		klog.Errorf("Collection failed: %v", err)
		if exporter != nil {
			exporter.CyclesTotal.WithLabelValues("failure").Inc()
		}
		return false
	}

	c.CheckBottlenecks(sample)
	if exporter != nil {
		exporter.CyclesTotal.WithLabelValues("success").Inc()
	}
	return true
}

// runDaemon keeps collecting on the cron schedule until SIGINT/SIGTERM.
func runDaemon(c *collector.Collector, exporter *collector.Exporter) {
	if metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(metricsAddr, mux); err != nil {
				klog.Errorf("Metrics endpoint failed: %v", err)
			}
		}()
		klog.Infof("Serving Prometheus metrics on %s/metrics", metricsAddr)
	}

	sched := cron.New()
	if _, err := sched.AddFunc(schedule, func() { runCycle(c, exporter) }); err != nil {
		klog.Errorf("Invalid schedule %q: %v", schedule, err)
		os.Exit(1)
	}

	klog.Infof("Collecting on schedule %q (Ctrl+C to stop)", schedule)
	sched.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	ctx := sched.Stop()
	<-ctx.Done()
	klog.Info("Collector stopped")
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: collector [flags] [store_path] [device_name]\n")
	fmt.Fprintf(os.Stderr, "\nDefaults: store_path=%s device_name=%s\n\nFlags:\n", defaultStorePath, defaultDevice)
	flag.PrintDefaults()
}
