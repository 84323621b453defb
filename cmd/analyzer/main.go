package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"resource-sampler/pkg/analyzer"
	"resource-sampler/pkg/logger"
	"resource-sampler/pkg/policy"
	"resource-sampler/pkg/store"
)

const (
	defaultStorePath  = "metrics_history.csv"
	defaultReportPath = "resource_report.txt"
)

var (
	showThresholds bool
	logLevel       string
)

func main() {
	klog.InitFlags(nil)
	flag.BoolVar(&showThresholds, "show-thresholds", false, "Print usage and the threshold configuration, then exit")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Usage = usage
	flag.Parse()

	pol := policy.Default()

	if showThresholds {
		usage()
		fmt.Fprintln(os.Stderr, "\nThreshold configuration:")
		for _, th := range pol.Thresholds() {
			fmt.Fprintf(os.Stderr, "  %s\n", th)
		}
		return
	}

	storePath := defaultStorePath
	reportPath := defaultReportPath
	if flag.NArg() > 0 {
		storePath = flag.Arg(0)
	}
	if flag.NArg() > 1 {
		reportPath = flag.Arg(1)
	}

	log, err := logger.New(logLevel, false)
	if err != nil {
		klog.Errorf("Failed to build logger: %v", err)
		os.Exit(1)
	}
	logger.SetDefault(log)
	defer log.Sync()

	a := analyzer.New(store.New(storePath), pol)

	if err := a.Load(); err != nil {
		if errors.Is(err, analyzer.ErrNoData) {
			klog.Errorf("Nothing to analyze: %v", err)
		} else {
			klog.Errorf("Failed to read store: %v", err)
		}
		os.Exit(1)
	}

	if err := a.WriteReport(reportPath); err != nil {
		klog.Errorf("Failed to write report: %v", err)
		os.Exit(1)
	}

	klog.Infof("Report written to %s (%d samples)", reportPath, a.SampleCount())
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: analyzer [flags] [store_path] [report_path]\n")
	fmt.Fprintf(os.Stderr, "\nDefaults: store_path=%s report_path=%s\n\nFlags:\n", defaultStorePath, defaultReportPath)
	flag.PrintDefaults()
}
